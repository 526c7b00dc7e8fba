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

package ducky

import "strings"

// Modifier bits of a HID keyboard report.
const (
	ModCtrl  uint8 = 1 << 0
	ModShift uint8 = 1 << 1
	ModAlt   uint8 = 1 << 2
	ModGUI   uint8 = 1 << 3
)

var modifiers = map[string]uint8{
	"CTRL":    ModCtrl,
	"CONTROL": ModCtrl,
	"SHIFT":   ModShift,
	"ALT":     ModAlt,
	"WINDOWS": ModGUI,
	"GUI":     ModGUI,
	"COMMAND": ModGUI,
}

// HID usage codes of the non-printing keys scripts may name.
var namedKeys = map[string]uint8{
	"ENTER":       0x28,
	"ESCAPE":      0x29,
	"ESC":         0x29,
	"BACKSPACE":   0x2a,
	"TAB":         0x2b,
	"SPACE":       0x2c,
	"CAPSLOCK":    0x39,
	"F1":          0x3a,
	"F2":          0x3b,
	"F3":          0x3c,
	"F4":          0x3d,
	"F5":          0x3e,
	"F6":          0x3f,
	"F7":          0x40,
	"F8":          0x41,
	"F9":          0x42,
	"F10":         0x43,
	"F11":         0x44,
	"F12":         0x45,
	"PRINTSCREEN": 0x46,
	"SCROLLLOCK":  0x47,
	"PAUSE":       0x48,
	"BREAK":       0x48,
	"INSERT":      0x49,
	"HOME":        0x4a,
	"PAGEUP":      0x4b,
	"DELETE":      0x4c,
	"DEL":         0x4c,
	"END":         0x4d,
	"PAGEDOWN":    0x4e,
	"RIGHT":       0x4f,
	"RIGHTARROW":  0x4f,
	"LEFT":        0x50,
	"LEFTARROW":   0x50,
	"DOWN":        0x51,
	"DOWNARROW":   0x51,
	"UP":          0x52,
	"UPARROW":     0x52,
	"NUMLOCK":     0x53,
	"MENU":        0x65,
	"APP":         0x65,
}

// shifted maps the characters produced with shift held on a US layout to
// their unshifted key.
var shifted = map[byte]byte{
	'!': '1', '@': '2', '#': '3', '$': '4', '%': '5',
	'^': '6', '&': '7', '*': '8', '(': '9', ')': '0',
	'_': '-', '+': '=', '{': '[', '}': ']', '|': '\\',
	':': ';', '"': '\'', '~': '`', '<': ',', '>': '.', '?': '/',
}

var punctuation = map[byte]uint8{
	' ':  0x2c,
	'-':  0x2d,
	'=':  0x2e,
	'[':  0x2f,
	']':  0x30,
	'\\': 0x31,
	';':  0x33,
	'\'': 0x34,
	'`':  0x35,
	',':  0x36,
	'.':  0x37,
	'/':  0x38,
}

// KeyForChar returns the HID usage and modifier mask that type c on a US
// layout.
func KeyForChar(c byte) (key, mods uint8, ok bool) {
	if s, found := shifted[c]; found {
		c = s
		mods = ModShift
	}
	switch {
	case c >= 'a' && c <= 'z':
		return 0x04 + c - 'a', mods, true
	case c >= 'A' && c <= 'Z':
		return 0x04 + c - 'A', mods | ModShift, true
	case c >= '1' && c <= '9':
		return 0x1e + c - '1', mods, true
	case c == '0':
		return 0x27, mods, true
	}
	if k, found := punctuation[c]; found {
		return k, mods, true
	}
	return 0, 0, false
}

// lookupKey resolves a single printable character or a key name.
func lookupKey(name string) (key, mods uint8, ok bool) {
	if len(name) == 1 {
		return KeyForChar(name[0])
	}
	key, ok = namedKeys[strings.ToUpper(name)]
	return key, 0, ok
}

// modifierCombo parses words like "CTRL-ALT". It returns false unless
// every part is a modifier.
func modifierCombo(word string) (uint8, bool) {
	var mask uint8
	for _, part := range strings.Split(word, "-") {
		m, ok := modifiers[part]
		if !ok {
			return 0, false
		}
		mask |= m
	}
	return mask, true
}
