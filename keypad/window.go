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

import "fmt"

// ButtonWindow is the open interval (Lower, Upper) of raw samples that
// identify one button. A sample equal to either bound matches nothing.
type ButtonWindow struct {
	Lower int
	Upper int
}

// ButtonTable is indexed by button identity.
type ButtonTable []ButtonWindow

// Around returns the window centered on a calibrated reading.
func Around(center, tolerance int) ButtonWindow {
	return ButtonWindow{Lower: center - tolerance, Upper: center + tolerance}
}

// Contains reports whether the sample lies strictly inside the window.
func (w ButtonWindow) Contains(sample int) bool {
	return w.Lower < sample && sample < w.Upper
}

func (w ButtonWindow) String() string {
	return fmt.Sprintf("(%d,%d)", w.Lower, w.Upper)
}

// overlaps reports whether some integer sample lies inside both windows.
func (w ButtonWindow) overlaps(o ButtonWindow) bool {
	lower := w.Lower
	if o.Lower > lower {
		lower = o.Lower
	}
	upper := w.Upper
	if o.Upper < upper {
		upper = o.Upper
	}
	return lower+1 < upper
}

// Classify returns the index of the first window containing the sample.
// The second result is false when no window matches.
func Classify(sample int, table ButtonTable) (int, bool) {
	for i, w := range table {
		if w.Contains(sample) {
			return i, true
		}
	}
	return -1, false
}

// Validate checks that every window is non-empty and that no sample can
// be claimed by two buttons.
func (t ButtonTable) Validate() error {
	for i, w := range t {
		if w.Lower+1 >= w.Upper {
			return fmt.Errorf("button %d window %v: %w", i, w, ErrInvalidWindow)
		}
	}
	for i := range t {
		for j := i + 1; j < len(t); j++ {
			if t[i].overlaps(t[j]) {
				return fmt.Errorf("buttons %d %v and %d %v: %w", i, t[i], j, t[j], ErrOverlappingWindows)
			}
		}
	}
	return nil
}
