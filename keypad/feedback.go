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

package keypad

import (
	"fmt"

	"github.com/jmacd/ladderpad/device"
)

// Feedback drives one pixel per button on a strip.
type Feedback struct {
	strip device.Strip
	n     int
}

// NewFeedback returns feedback for the first n pixels of the strip.
func NewFeedback(strip device.Strip, n int) (*Feedback, error) {
	if strip.Len() < n {
		return nil, fmt.Errorf("strip has %d pixels, need %d: %w", strip.Len(), n, ErrConfigMismatch)
	}
	return &Feedback{strip: strip, n: n}, nil
}

// SetButtonColor lights only the pixel of button idx.
func (f *Feedback) SetButtonColor(idx int, c device.Color) error {
	for i := 0; i < f.n; i++ {
		f.strip.SetPixel(i, device.Off)
	}
	f.strip.SetPixel(idx, c)
	return f.flush()
}

// ClearAll turns every button pixel off.
func (f *Feedback) ClearAll() error {
	return f.Fill(device.Off)
}

// Fill sets every button pixel to c.
func (f *Feedback) Fill(c device.Color) error {
	for i := 0; i < f.n; i++ {
		f.strip.SetPixel(i, c)
	}
	return f.flush()
}

func (f *Feedback) flush() error {
	if err := f.strip.Flush(); err != nil {
		return fmt.Errorf("led: flush: %w", err)
	}
	return nil
}
