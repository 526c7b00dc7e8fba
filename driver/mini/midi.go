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
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

const (
	MIDIStatusNoteOff = 0x80

	MIDIStatusNoteOn        = 0x90
	MIDIStatusControlChange = 0xb0
	MIDIStatusCodeMask      = 0xf0
	MIDIChannelMask         = 0x0f
)

func discover() (drivers.In, drivers.Out, error) {
	in, err := midi.FindInPort(DeviceName)
	if err != nil {
		return nil, nil, fmt.Errorf("can't find input: %w", err)
	}

	out, err := midi.FindOutPort(DeviceName)
	if err != nil {
		return nil, nil, fmt.Errorf("can't find output: %w", err)
	}

	return in, out, nil
}
