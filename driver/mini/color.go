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

package mini

import (
	"github.com/jmacd/ladderpad/device"
	"github.com/jmacd/ladderpad/driver/palette"
)

// Color is the note velocity that selects a pad LED color.
type Color byte

const (
	ColorOff         Color = 0
	ColorGreen       Color = 1
	ColorGreenBlink  Color = 2
	ColorRed         Color = 3
	ColorRedBlink    Color = 4
	ColorYellow      Color = 5
	ColorYellowBlink Color = 6
)

// steady lists the non-blinking colors a pad can show.
var (
	steady = []Color{ColorOff, ColorGreen, ColorRed, ColorYellow}
	looks  = []device.Color{
		device.Off,
		device.RGB(0, 255, 0),
		device.RGB(255, 0, 0),
		device.RGB(255, 255, 0),
	}
)

func Blink(c Color) Color {
	switch c {
	case ColorGreen, ColorRed, ColorYellow:
		return c + 1
	}
	return c
}

// nearest picks the pad color closest to c.
func nearest(c device.Color) Color {
	return steady[palette.Nearest(c, looks)]
}
