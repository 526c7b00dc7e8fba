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

// Package keypad turns readings of a resistor-ladder keypad into
// exactly-once press and release events.
//
// A Keypad has two states. It leaves Idle when a sample falls inside a
// button window, running that button's action once and lighting its
// pixel. It leaves Held when a sample matches no window, clearing the
// strip once. Samples between windows are always treated as a release,
// so the dead zones between windows are the only debouncing: noise
// that crosses a window edge while a button is held will dispatch the
// action again.
package keypad

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jmacd/ladderpad/device"
)

var (
	ErrConfigMismatch     = fmt.Errorf("keypad: button tables differ in length")
	ErrInvalidWindow      = fmt.Errorf("keypad: empty button window")
	ErrOverlappingWindows = fmt.Errorf("keypad: button windows overlap")
	ErrNoSuchButton       = fmt.Errorf("keypad: no such button")
)

// State is the press state of a Keypad.
type State int

const (
	Idle State = iota
	Held
)

func (s State) String() string {
	if s == Held {
		return "held"
	}
	return "idle"
}

// Config holds the parallel per-button tables. All three must have the
// same length.
type Config struct {
	Windows ButtonTable
	Colors  []device.Color
	Actions []ActionEntry
}

// DispatchState is the only state that changes between polls.
type DispatchState struct {
	Pressed bool
}

// Keypad is the debounce and dispatch state machine. It is not safe for
// concurrent use; one goroutine calls Poll.
type Keypad struct {
	windows  ButtonTable
	colors   []device.Color
	registry *Registry
	feedback *Feedback
	logger   *zap.SugaredLogger

	state DispatchState
}

// New validates the configuration and returns an Idle keypad that lights
// the given strip.
func New(cfg Config, strip device.Strip, logger *zap.SugaredLogger) (*Keypad, error) {
	n := len(cfg.Windows)
	if len(cfg.Colors) != n || len(cfg.Actions) != n {
		return nil, fmt.Errorf("%d windows, %d colors, %d actions: %w",
			n, len(cfg.Colors), len(cfg.Actions), ErrConfigMismatch)
	}
	if err := cfg.Windows.Validate(); err != nil {
		return nil, err
	}

	feedback, err := NewFeedback(strip, n)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	k := &Keypad{
		windows:  append(ButtonTable(nil), cfg.Windows...),
		colors:   append([]device.Color(nil), cfg.Colors...),
		registry: NewRegistry(cfg.Actions...),
		feedback: feedback,
		logger:   logger.Named("keypad"),
	}
	k.logger.Debugw("Created keypad", "buttons", n, "windows", k.windows)
	return k, nil
}

// Buttons returns the number of configured buttons.
func (k *Keypad) Buttons() int {
	return len(k.windows)
}

// State reports whether a button is currently held.
func (k *Keypad) State() State {
	if k.state.Pressed {
		return Held
	}
	return Idle
}

// Feedback returns the LED feedback driver of the keypad.
func (k *Keypad) Feedback() *Feedback {
	return k.feedback
}

// Poll advances the state machine by one sample. On a press it lights
// the button and runs its action before returning. The action runs even
// when lighting fails, and both errors are returned. The state is updated
// regardless, so a held button never runs twice.
func (k *Keypad) Poll(sample int) error {
	idx, ok := Classify(sample, k.windows)

	switch {
	case ok && !k.state.Pressed:
		k.state.Pressed = true
		k.logger.Debugw("Button pressed", "button", idx, "sample", sample)

		ledErr := k.feedback.SetButtonColor(idx, k.colors[idx])
		return errors.Join(ledErr, k.registry.Dispatch(idx))

	case !ok && k.state.Pressed:
		k.state.Pressed = false
		k.logger.Debugw("Button released", "sample", sample)

		return k.feedback.ClearAll()
	}

	return nil
}
