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

// Package driver opens the keypad hardware named by the configuration.
package driver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jmacd/ladderpad/config"
	"github.com/jmacd/ladderpad/device"
	"github.com/jmacd/ladderpad/driver/mini"
	"github.com/jmacd/ladderpad/driver/serial"
	"github.com/jmacd/ladderpad/driver/term"
	"github.com/jmacd/ladderpad/driver/xl"
	"github.com/jmacd/ladderpad/keypad"
)

var ErrUnknownDriver = fmt.Errorf("driver: unknown driver")

// Opened is a driver ready to serve one keypad. Run, when set, must be
// running for Input to produce samples.
type Opened struct {
	Input    device.Input
	Keyboard device.Keyboard
	Run      func(context.Context) error
}

// Close releases the device. It must not be called while Run is still
// running; use Serve to run work against the device.
func (d *Opened) Close() error {
	return d.Input.Close()
}

// Serve runs work while Run keeps the device fed. When either returns,
// the other is canceled, and Serve waits for Run to finish before it
// returns, so the device can be closed afterwards. Cancellation and a
// user quit are not errors; otherwise the error of work wins.
func (d *Opened) Serve(ctx context.Context, work func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	if d.Run != nil {
		go func() {
			done <- d.Run(ctx)
			cancel()
		}()
	} else {
		done <- nil
	}

	err := work(ctx)
	cancel()
	runErr := <-done

	if stopped(err) {
		err = nil
	}
	if err == nil && !stopped(runErr) {
		err = runErr
	}
	return err
}

// OwnsTerminal reports whether the named driver draws on the
// controlling terminal, leaving no room for console logs.
func OwnsTerminal(name string) bool {
	return name == "term"
}

func stopped(err error) bool {
	return err == nil || errors.Is(err, context.Canceled) || IsQuit(err)
}

// Open opens cfg.Driver with one pixel per configured button.
func Open(cfg *config.Config, logger *zap.SugaredLogger) (*Opened, error) {
	pixels := len(cfg.Buttons)

	switch cfg.Driver {
	case "serial":
		d, err := serial.Open(cfg.Serial.Port, cfg.Serial.BaudRate, pixels, logger)
		if err != nil {
			return nil, err
		}
		return &Opened{Input: d, Keyboard: d}, nil

	case "xl":
		d, err := xl.Open(cfg.MIDI.Channel, cfg.MIDI.Slider, logger)
		if err != nil {
			return nil, err
		}
		return &Opened{Input: d, Keyboard: device.NewLogKeyboard(logger), Run: d.Run}, nil

	case "mini":
		d, err := mini.Open(cfg.MIDI.Channel, cfg.MIDI.Slider, pixels, logger)
		if err != nil {
			return nil, err
		}
		if err := d.Reset(); err != nil {
			d.Close()
			return nil, err
		}
		return &Opened{Input: d, Keyboard: device.NewLogKeyboard(logger), Run: d.Run}, nil

	case "term":
		windows := make([]keypad.ButtonWindow, len(cfg.Buttons))
		for i, b := range cfg.Buttons {
			windows[i] = b.Window
		}
		d, err := term.Open(windows, logger)
		if err != nil {
			return nil, err
		}
		return &Opened{Input: d, Keyboard: d, Run: d.Run}, nil
	}
	return nil, fmt.Errorf("%q: %w", cfg.Driver, ErrUnknownDriver)
}

// IsQuit reports whether err means the user asked to stop.
func IsQuit(err error) bool {
	return errors.Is(err, term.ErrQuit)
}
