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

// Package device declares the hardware boundary of the keypad: an analog
// sampler, an addressable LED strip and a HID keyboard.
package device

import "time"

// SampleMax is the largest code returned by a 10-bit converter.
const SampleMax = 1023

// Color is one RGB pixel value.
type Color struct {
	R, G, B uint8
}

// Off is the color of an unlit pixel.
var Off = Color{}

// RGB builds a Color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// Sampler returns the most recent raw reading of the ladder pin.
type Sampler interface {
	Sample() (int, error)
}

// Strip is an addressable LED strip. SetPixel only stages a change;
// Flush commits staged changes to the physical strip.
type Strip interface {
	SetPixel(i int, c Color)
	Flush() error
	Len() int
}

// Keyboard is the human-interface-device output of the keypad.
type Keyboard interface {
	// SendKeyStroke presses and releases one HID usage code while the
	// modifier mask is held.
	SendKeyStroke(key, modifiers uint8) error

	// Print types literal text.
	Print(text string) error

	// Delay blocks for d.
	Delay(d time.Duration)
}

// Input is a ladder pin and strip without keyboard output, such as a
// MIDI controller standing in for the keypad.
type Input interface {
	Sampler
	Strip

	Close() error
}

// Device bundles the three boundaries of one physical keypad.
type Device interface {
	Input
	Keyboard
}

// ScaleSample maps a 7-bit controller value in [0, 127] onto the
// converter range [0, SampleMax].
func ScaleSample(v uint8) int {
	if v >= 127 {
		return SampleMax
	}
	return int(v) * SampleMax / 127
}
