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

// Package xl uses a Novation Launch Control XL as a stand-in keypad: one
// slider plays the ladder pin and the sixteen track buttons are
// the LED strip. It talks to the device through portmidi.
package xl

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rakyll/portmidi"
	"go.uber.org/zap"

	"github.com/jmacd/ladderpad/device"
)

const (
	DeviceName = "Launch Control XL"

	MaxEventsPerPoll = 1024
	ReadBufferDepth  = 16
	PollingPeriod    = 10 * time.Millisecond
	NumChannels      = 16
	NumControls      = 6*8 + 4 + 4
	NumPixels        = 16

	ValueUninitialized Value = 128
)

var (
	ErrNoLaunchControl = fmt.Errorf("launchctl: no launch control xl is connected")
	ErrNoSuchControl   = fmt.Errorf("launchctl: no such control")
)

type (
	Value uint8

	// Control indexes are assigned in the range [0, NumControls).
	// Knobs come first, then track buttons, then sliders.
	Control int
)

var (
	ControlKnobSendA          = controlRange(0, 8)
	ControlKnobSendB          = controlRange(8, 16)
	ControlKnobPanDevice      = controlRange(16, 24)
	ControlButtonTrackFocus   = controlRange(24, 32)
	ControlButtonTrackControl = controlRange(32, 40)
	ControlSlider             = controlRange(48, 56)

	// pixelLED maps strip pixels to LED indexes of the device.
	pixelLED = append(append([]Control{}, ControlButtonTrackFocus...), ControlButtonTrackControl...)
)

const ControlInvalid Control = NumControls

// LaunchControl represents a device with an input and output MIDI stream.
type LaunchControl struct {
	inputStream  *portmidi.Stream
	outputStream *portmidi.Stream
	logger       *zap.SugaredLogger

	lock      sync.Mutex
	err       error
	errorChan chan error

	channel int
	sampled Control
	value   [NumChannels][NumControls]Value
	pixels  [NumPixels]Color
}

var _ device.Input = (*LaunchControl)(nil)

// Open opens a connection to the XL and initializes an input and
// output stream to the currently connected device. The given slider on
// the given template channel supplies samples.
func Open(channel int, slider int, logger *zap.SugaredLogger) (*LaunchControl, error) {
	if slider < 0 || slider >= len(ControlSlider) {
		return nil, fmt.Errorf("slider %d: %w", slider, ErrNoSuchControl)
	}
	sampled := ControlSlider[slider]
	if err := portmidi.Initialize(); err != nil {
		return nil, fmt.Errorf("midi: initialize: %w", err)
	}

	input, output, err := discover()
	if err != nil {
		portmidi.Terminate()
		return nil, err
	}

	var inStream, outStream *portmidi.Stream
	if inStream, err = portmidi.NewInputStream(input, MaxEventsPerPoll); err != nil {
		portmidi.Terminate()
		return nil, err
	}
	if outStream, err = portmidi.NewOutputStream(output, MaxEventsPerPoll, 0); err != nil {
		inStream.Close()
		portmidi.Terminate()
		return nil, err
	}

	lc := &LaunchControl{
		inputStream:  inStream,
		outputStream: outStream,
		logger:       logger.Named("xl"),
		errorChan:    make(chan error, 1),
		channel:      channel & MIDIChannelMask,
		sampled:      sampled,
	}
	for ch := 0; ch < NumChannels; ch++ {
		for cc := 0; cc < NumControls; cc++ {
			lc.value[ch][cc] = ValueUninitialized
		}
	}

	if err := lc.Reset(); err != nil {
		lc.Close()
		return nil, err
	}
	if err := lc.SetTemplate(lc.channel); err != nil {
		lc.Close()
		return nil, err
	}

	lc.logger.Infow("Opened launch control", "template", lc.channel, "slider", slider)
	return lc, nil
}

// Run begins listening for updates, blocking the caller until the
// context is canceled or the input stream fails.
func (l *LaunchControl) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan []portmidi.Event, ReadBufferDepth)
	wg := sync.WaitGroup{}
	wg.Add(2)

	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			// portmidi has no blocking read.
			time.Sleep(PollingPeriod)

			evts, err := l.inputStream.Read(MaxEventsPerPoll)
			if err != nil {
				_ = l.handleError(fmt.Errorf("midi: read: %w", err))
				return
			}
			if len(evts) != 0 {
				select {
				case ch <- evts:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case evts := <-ch:
				for _, evt := range evts {
					l.event(evt)
				}
			}
		}
	}()

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-l.errorChan:
	}
	cancel()
	wg.Wait()
	return err
}

func (l *LaunchControl) event(evt portmidi.Event) {
	if len(evt.SysEx) != 0 {
		l.sysexEvent(evt.SysEx)
		return
	}

	midiChannel := int(evt.Status & MIDIChannelMask)
	control := getControl(byte(evt.Status), Value(evt.Data1))
	if control == ControlInvalid {
		return
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	l.value[midiChannel][control] = Value(evt.Data2)
}

func (l *LaunchControl) sysexEvent(sb []byte) {
	if len(sb) != 9 {
		return
	}

	if !bytes.Equal(sb[1:7], []byte{0x0, 0x20, 0x29, 0x2, 0x11, 0x77}) {
		return
	}

	// "Template changed" is the only documented SysEx from the device.
	l.lock.Lock()
	l.channel = int(sb[7]) & MIDIChannelMask
	l.lock.Unlock()
	l.logger.Debugw("Template changed", "template", int(sb[7]))
}

func getControl(status byte, data Value) Control {
	switch status & MIDIStatusCodeMask {
	case MIDIStatusControlChange:
		return getControlChangeIndex(data)
	case MIDIStatusNoteOn, MIDIStatusNoteOff:
		return getNoteChangeIndex(data)
	default:
		return ControlInvalid
	}
}

func getControlChangeIndex(data Value) Control {
	switch {
	case 13 <= data && data <= 20: // 0ffset 0
		return Control(data - 13 + 0)

	case 29 <= data && data <= 36: // Offset 8
		return Control(data - 29 + 8)

	case 49 <= data && data <= 56: // Offset 16
		return Control(data - 49 + 16)

	case 104 <= data && data <= 107: // Offset 44
		return Control(data - 104 + 44)

	case 77 <= data && data <= 84: // Offset 48 -- Sliders are missing LEDs
		return Control(data - 77 + 48)
	}

	return ControlInvalid
}

func getNoteChangeIndex(data Value) Control {
	switch {
	case 41 <= data && data <= 44: // 0ffset 24
		return Control(data - 41 + 24)

	case 57 <= data && data <= 60: // Offset 28
		return Control(data - 57 + 28)

	case 73 <= data && data <= 76: // Offset 32
		return Control(data - 73 + 32)

	case 89 <= data && data <= 92: // Offset 36
		return Control(data - 89 + 36)

	case 105 <= data && data <= 108: // Offset 40
		return Control(data - 105 + 40)
	}

	return ControlInvalid
}

// Sample returns the sampled control scaled to a 10-bit code. An
// untouched control reads as 0.
func (l *LaunchControl) Sample() (int, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.err != nil {
		return 0, l.err
	}
	v := l.value[l.channel][l.sampled]
	if v == ValueUninitialized {
		return 0, nil
	}
	return device.ScaleSample(uint8(v)), nil
}

func (l *LaunchControl) Len() int {
	return NumPixels
}

func (l *LaunchControl) SetPixel(i int, c device.Color) {
	l.lock.Lock()
	l.pixels[i] = nearest(c)
	l.lock.Unlock()
}

// Flush writes every pixel to the current template.
func (l *LaunchControl) Flush() error {
	l.lock.Lock()
	data := ledSysEx(l.channel, l.pixels[:])
	l.lock.Unlock()

	if err := l.outputStream.WriteSysExBytes(portmidi.Time(), data); err != nil {
		return l.handleError(fmt.Errorf("midi: write sysex: %w", err))
	}
	return nil
}

func ledSysEx(midiChan int, pixels []Color) []byte {
	data := make([]byte, 0, 8+2*len(pixels)+1)
	data = append(data, 0xf0, 0x00, 0x20, 0x29, 0x02, 0x11, 0x78, byte(midiChan))
	for i, c := range pixels {
		data = append(data, byte(pixelLED[i]), c.toByte())
	}
	return append(data, 0xf7)
}

// Reset turns every LED of the current template off.
func (l *LaunchControl) Reset() error {
	if err := l.outputStream.WriteShort(int64(MIDIStatusControlChange+l.channel), 0x00, 0x00); err != nil {
		return l.handleError(fmt.Errorf("midi: reset: %w", err))
	}
	return nil
}

func (l *LaunchControl) SetTemplate(midiChan int) error {
	data := []byte{0xf0, 0x00, 0x20, 0x29, 0x02, 0x11, 0x77, byte(midiChan), 0xf7}
	if err := l.outputStream.WriteSysExBytes(portmidi.Time(), data); err != nil {
		return l.handleError(fmt.Errorf("midi: set template: %w", err))
	}
	return nil
}

func (l *LaunchControl) Close() error {
	err1 := l.inputStream.Close()
	err2 := l.outputStream.Close()
	portmidi.Terminate()

	if err1 != nil {
		return fmt.Errorf("midi: close streams: %w", err1)
	}
	if err2 != nil {
		return fmt.Errorf("midi: close streams: %w", err2)
	}
	return nil
}

func (l *LaunchControl) handleError(err error) error {
	if err == nil {
		return err
	}
	l.lock.Lock()
	if l.err == nil {
		l.err = err
	}
	l.lock.Unlock()

	select {
	case l.errorChan <- err:
	default:
	}
	return err
}

// discovers the currently connected LaunchControl device
// as a MIDI device.
func discover() (input portmidi.DeviceID, output portmidi.DeviceID, err error) {
	in := -1
	out := -1
	for i := 0; i < portmidi.CountDevices(); i++ {
		info := portmidi.Info(portmidi.DeviceID(i))
		if info.Name == DeviceName {
			if info.IsInputAvailable {
				in = i
			}
			if info.IsOutputAvailable {
				out = i
			}
		}
	}
	if in == -1 || out == -1 {
		err = ErrNoLaunchControl
	} else {
		input = portmidi.DeviceID(in)
		output = portmidi.DeviceID(out)
	}
	return
}

func controlRange(from, to Control) (r []Control) {
	for c := from; c < to; c++ {
		r = append(r, c)
	}
	return
}
