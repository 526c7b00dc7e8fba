// Copyright 2013 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mini uses an Akai APC mini as a stand-in keypad: one fader plays
// the ladder pin and the pads of the grid are the LED strip, bottom row
// first. It talks to the device through gomidi.
package mini

import (
	"context"
	"fmt"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"go.uber.org/zap"

	"github.com/jmacd/ladderpad/device"
)

type (
	// Control indexes are assigned in the range [0, NumControls). The
	// control number equals the note number for the 64 pads.
	Control int

	// Value is a control value in the range 0-127, or ValueUninitialized.
	Value uint8

	// Event is one three-byte MIDI message.
	Event struct {
		Timestamp int32
		Status    byte
		Data1     byte
		Data2     byte
	}
)

const (
	DeviceName = "APC MINI"

	ValueUninitialized Value = 128

	ReadBufferDepth = 16
)

var (
	ErrNoSuchControl = fmt.Errorf("apc: no such control")
	ErrTooManyPixels = fmt.Errorf("apc: more pixels than pads")
)

// APC represents a device with an input and output MIDI stream.
type APC struct {
	inputDriver  drivers.In
	outputDriver drivers.Out
	logger       *zap.SugaredLogger

	lock      sync.Mutex
	err       error
	errorChan chan error
	stopFn    func()

	sampled Control
	value   [NumChannels][NumControls]Value
	channel int
	pixels  []Color
	sent    []Color
}

var _ device.Input = (*APC)(nil)

// Open opens a connection to the APC mini. The given fader on the given
// channel supplies samples and the first pixels pads form the strip.
func Open(channel int, slider int, pixels int, logger *zap.SugaredLogger) (*APC, error) {
	if slider < 0 || slider >= len(ControlSlider) {
		return nil, fmt.Errorf("slider %d: %w", slider, ErrNoSuchControl)
	}
	if pixels > NumPads {
		return nil, fmt.Errorf("%d pixels: %w", pixels, ErrTooManyPixels)
	}

	input, output, err := discover()
	if err != nil {
		return nil, err
	}
	if err := input.Open(); err != nil {
		return nil, err
	}
	if err := output.Open(); err != nil {
		input.Close()
		return nil, err
	}

	a := newAPC(input, output, channel, ControlSlider[slider], pixels, logger)
	a.logger.Infow("Opened APC mini", "channel", a.channel, "slider", slider, "pixels", pixels)
	return a, nil
}

func newAPC(in drivers.In, out drivers.Out, channel int, sampled Control, pixels int, logger *zap.SugaredLogger) *APC {
	a := &APC{
		inputDriver:  in,
		outputDriver: out,
		logger:       logger.Named("apc"),
		errorChan:    make(chan error, 1),
		sampled:      sampled,
		channel:      channel & MIDIChannelMask,
		pixels:       make([]Color, pixels),
		sent:         make([]Color, pixels),
	}
	for ch := 0; ch < NumChannels; ch++ {
		for cc := Control(0); cc < NumControls; cc++ {
			a.value[ch][cc] = ValueUninitialized
		}
	}
	return a
}

// Run begins listening for updates, blocking the caller until the
// context is canceled or the driver reports an error.
func (a *APC) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan Event, ReadBufferDepth)
	wg := sync.WaitGroup{}

	lcfg := drivers.ListenConfig{
		TimeCode:    false,
		ActiveSense: false,
		SysEx:       false,
		OnErr: func(err error) {
			_ = a.handleError(fmt.Errorf("midi: listen: %w", err))
		},
	}

	stopFn, err := a.inputDriver.Listen(func(msg []byte, milliseconds int32) {
		if len(msg) != 3 {
			return
		}
		select {
		case ch <- Event{
			Timestamp: milliseconds,
			Status:    msg[0],
			Data1:     msg[1],
			Data2:     msg[2],
		}:
		case <-ctx.Done():
		}
	}, lcfg)
	if err != nil {
		return a.handleError(fmt.Errorf("midi: listen: %w", err))
	}
	a.lock.Lock()
	a.stopFn = stopFn
	a.lock.Unlock()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-ch:
				a.event(evt)
			}
		}
	}()

	select {
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-a.errorChan:
	}
	cancel()
	wg.Wait()
	return err
}

func (a *APC) event(evt Event) {
	midiChannel := int(evt.Status & MIDIChannelMask)
	control := getControl(evt.Status, evt.Data1)
	if control == ControlInvalid {
		a.logger.Debugw("Invalid control", "status", evt.Status, "data", evt.Data1)
		return
	}

	a.lock.Lock()
	a.value[midiChannel][control] = Value(evt.Data2)
	a.lock.Unlock()
}

// Sample returns the sampled fader scaled to a 10-bit code. An untouched
// fader reads as 0.
func (a *APC) Sample() (int, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	if a.err != nil {
		return 0, a.err
	}
	v := a.value[a.channel][a.sampled]
	if v == ValueUninitialized {
		return 0, nil
	}
	return device.ScaleSample(uint8(v)), nil
}

func (a *APC) Len() int {
	return len(a.pixels)
}

func (a *APC) SetPixel(i int, c device.Color) {
	a.lock.Lock()
	a.pixels[i] = nearest(c)
	a.lock.Unlock()
}

// Flush sends a note-on for every pad whose color changed.
func (a *APC) Flush() error {
	a.lock.Lock()
	var msgs []midi.Message
	for i, c := range a.pixels {
		if c == a.sent[i] {
			continue
		}
		msgs = append(msgs, noteOn(a.channel, ControlPad[i], c))
		a.sent[i] = c
	}
	a.lock.Unlock()

	for _, m := range msgs {
		if err := a.outputDriver.Send(m); err != nil {
			return a.handleError(fmt.Errorf("midi: set pad: %w", err))
		}
	}
	return nil
}

// noteOn sets the color of one pad. Velocity 0 turns the pad off.
func noteOn(channel int, pad Control, c Color) midi.Message {
	return midi.Message{MIDIStatusNoteOn | byte(channel), byte(pad), byte(c)}
}

// Reset turns every pad LED off.
func (a *APC) Reset() error {
	for _, pad := range ControlPad {
		if err := a.outputDriver.Send(noteOn(a.channel, pad, ColorOff)); err != nil {
			return a.handleError(fmt.Errorf("midi: reset: %w", err))
		}
	}
	a.lock.Lock()
	for i := range a.sent {
		a.sent[i] = ColorOff
	}
	a.lock.Unlock()
	return nil
}

func (a *APC) Close() error {
	a.lock.Lock()
	stop := a.stopFn
	a.lock.Unlock()
	if stop != nil {
		stop()
	}

	err1 := a.inputDriver.Close()
	err2 := a.outputDriver.Close()
	midi.CloseDriver()

	if err1 != nil {
		return fmt.Errorf("midi: close streams: %w", err1)
	}
	if err2 != nil {
		return fmt.Errorf("midi: close streams: %w", err2)
	}
	return nil
}

func (a *APC) handleError(err error) error {
	if err == nil {
		return err
	}
	a.lock.Lock()
	if a.err == nil {
		a.err = err
	}
	a.lock.Unlock()

	select {
	case a.errorChan <- err:
	default:
	}
	return err
}
