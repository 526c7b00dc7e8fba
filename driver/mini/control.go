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

const (
	NumChannels = 16
	NumControls = 64 + 8 + 8 + 1 + 9 // grid, track, scene, shift, faders
	NumPads     = 64

	ControlShift   Control = 0x50
	ControlInvalid Control = NumControls
)

var (
	// ControlPad is the 8x8 grid, bottom row first.
	ControlPad         = controlRange(0x0, 0x40)
	ControlButtonTrack = controlRange(0x40, 0x48)
	ControlButtonScene = controlRange(0x48, 0x50)
	ControlSlider      = controlRange(0x51, 0x5a)
)

func controlRange(from, to Control) (r []Control) {
	for c := from; c < to; c++ {
		r = append(r, c)
	}
	return
}

func getControl(status, data byte) Control {
	switch status & MIDIStatusCodeMask {
	case MIDIStatusControlChange:
		return getControlChangeIndex(data)
	case MIDIStatusNoteOn, MIDIStatusNoteOff:
		return getNoteChangeIndex(data)
	default:
		return ControlInvalid
	}
}

func getControlChangeIndex(data byte) Control {
	switch {
	case 0x30 <= data && data <= 0x38:
		return ControlSlider[0] + Control(data-0x30)
	}

	return ControlInvalid
}

func getNoteChangeIndex(data byte) Control {
	switch {
	case data <= 0x47: // 0ffset 0
		return Control(data)

	case 0x52 <= data && data <= 0x59: // Offset 0x48
		return Control(0x48 + data - 0x52)

	case data == 0x62:
		return ControlShift
	}

	return ControlInvalid
}
