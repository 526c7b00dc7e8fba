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

package xl

import (
	"github.com/jmacd/ladderpad/device"
	"github.com/jmacd/ladderpad/driver/palette"
)

// Color is 4 bits of LED color: red in bits 2-3, green in bits 0-1.
type Color byte

const (
	ColorOff          Color = 0x0
	ColorBrightRed    Color = 0xc
	ColorBrightOrange Color = 0xd
	ColorBrightYellow Color = 0xf
	ColorBrightGreen  Color = 0x3

	ColorDimRed    Color = 0x4
	ColorDimOrange Color = 0x9
	ColorDimYellow Color = 0x5
	ColorDimGreen  Color = 0x1
)

// colors lists what every Color looks like, indexed by Color.
var colors = func() []device.Color {
	p := make([]device.Color, 16)
	for c := range p {
		p[c] = Color(c).RGB()
	}
	return p
}()

func (c Color) red() byte   { return (byte(c) & 0xc) >> 2 }
func (c Color) green() byte { return byte(c) & 0x3 }

// RGB approximates the light c emits.
func (c Color) RGB() device.Color {
	return device.RGB(c.red()*85, c.green()*85, 0)
}

func (c Color) toByte() byte {
	return c.red() + c.green()<<4
}

// nearest picks the LED color closest to c.
func nearest(c device.Color) Color {
	return Color(palette.Nearest(c, colors))
}
