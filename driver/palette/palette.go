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

// Package palette maps strip colors onto the few colors a controller LED
// can show.
package palette

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/jmacd/ladderpad/device"
)

// Nearest returns the index of the entry of p closest to c in CIE
// L*a*b*. Black always maps to the first black entry of p, if any.
func Nearest(c device.Color, p []device.Color) int {
	if c == device.Off {
		for i, e := range p {
			if e == device.Off {
				return i
			}
		}
	}
	want := toColorful(c)

	best, bestDist := 0, -1.0
	for i, e := range p {
		if e == device.Off {
			continue
		}
		d := want.DistanceLab(toColorful(e))
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func toColorful(c device.Color) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}
