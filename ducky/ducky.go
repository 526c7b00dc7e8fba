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

// Package ducky compiles keypad action scripts.
//
// A script is a line-oriented list of commands in the style of Ducky
// Script:
//
//	REM comment
//	STRING text to type
//	DELAY 10                 (units of 10ms)
//	ENTER                    (a named key)
//	SHIFT s                  (modifier combination and key)
//	CTRL-ALT DELETE
//	LIGHTS ON self 255 255 255
//	LIGHTS OFF 2
//
// "self" names the pixel of the button the script is bound to.
package ducky

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jmacd/ladderpad/device"
	"github.com/jmacd/ladderpad/keypad"
)

// DelayUnit is the duration of one DELAY step.
const DelayUnit = 10 * time.Millisecond

var (
	ErrUnknownCommand = fmt.Errorf("ducky: unrecognised command")
	ErrBadArgument    = fmt.Errorf("ducky: bad argument")
	ErrNoSuchPixel    = fmt.Errorf("ducky: no such pixel")
)

// Script is a compiled action script for one button.
type Script struct {
	Name     string
	Button   int
	commands []command
}

type command interface {
	run(kb device.Keyboard, strip device.Strip) error
}

type (
	typeText  string
	keyStroke struct{ key, mods uint8 }
	pause     time.Duration
	lights    struct {
		pixel int
		color device.Color
	}
)

func (t typeText) run(kb device.Keyboard, _ device.Strip) error {
	return kb.Print(string(t))
}

func (k keyStroke) run(kb device.Keyboard, _ device.Strip) error {
	return kb.SendKeyStroke(k.key, k.mods)
}

func (p pause) run(kb device.Keyboard, _ device.Strip) error {
	kb.Delay(time.Duration(p))
	return nil
}

func (l lights) run(_ device.Keyboard, strip device.Strip) error {
	strip.SetPixel(l.pixel, l.color)
	return strip.Flush()
}

// Len returns the number of commands, excluding comments.
func (s *Script) Len() int {
	return len(s.commands)
}

// ParseFile compiles the script file for the given button.
func ParseFile(path string, button int) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(path, f, button)
}

// Parse compiles a script read from r. The name is used in errors.
func Parse(name string, r io.Reader, button int) (*Script, error) {
	s := &Script{Name: name, Button: button}

	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimRight(scanner.Text(), "\r")
		cmd, err := s.parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, lineNo, err)
		}
		if cmd != nil {
			s.commands = append(s.commands, cmd)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return s, nil
}

func (s *Script) parseLine(line string) (command, error) {
	if strings.TrimSpace(line) == "" {
		return nil, nil
	}

	word, rest := line, ""
	if i := strings.IndexByte(line, ' '); i >= 0 {
		word, rest = line[:i], line[i+1:]
	}

	switch word {
	case "REM":
		return nil, nil

	case "STRING":
		return typeText(rest), nil

	case "DELAY":
		n, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("DELAY %q: %w", rest, ErrBadArgument)
		}
		return pause(time.Duration(n) * DelayUnit), nil

	case "LIGHTS":
		return s.parseLights(strings.Fields(rest))
	}

	if mods, ok := modifierCombo(word); ok {
		if rest == "" {
			return keyStroke{mods: mods}, nil
		}
		key, extra, ok := lookupKey(strings.TrimSpace(rest))
		if !ok {
			return nil, fmt.Errorf("%s %q: %w", word, rest, ErrBadArgument)
		}
		return keyStroke{key: key, mods: mods | extra}, nil
	}

	if rest == "" {
		if key, ok := namedKeys[word]; ok {
			return keyStroke{key: key}, nil
		}
	}

	return nil, fmt.Errorf("%q: %w", line, ErrUnknownCommand)
}

func (s *Script) parseLights(args []string) (command, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("LIGHTS %v: %w", args, ErrBadArgument)
	}

	pixel := s.Button
	if args[1] != "self" {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("LIGHTS target %q: %w", args[1], ErrBadArgument)
		}
		pixel = n
	}

	switch {
	case args[0] == "OFF" && len(args) == 2:
		return lights{pixel: pixel, color: device.Off}, nil

	case args[0] == "ON" && len(args) == 5:
		var rgb [3]uint8
		for i, a := range args[2:] {
			v, err := strconv.ParseUint(a, 10, 8)
			if err != nil {
				return nil, fmt.Errorf("LIGHTS color %q: %w", a, ErrBadArgument)
			}
			rgb[i] = uint8(v)
		}
		return lights{pixel: pixel, color: device.RGB(rgb[0], rgb[1], rgb[2])}, nil
	}

	return nil, fmt.Errorf("LIGHTS %v: %w", args, ErrBadArgument)
}

// Action binds the script to a keyboard and strip. It fails if the script
// addresses a pixel the strip does not have.
func (s *Script) Action(kb device.Keyboard, strip device.Strip) (keypad.ActionEntry, error) {
	for _, c := range s.commands {
		if l, ok := c.(lights); ok && l.pixel >= strip.Len() {
			return nil, fmt.Errorf("%s: pixel %d of %d: %w", s.Name, l.pixel, strip.Len(), ErrNoSuchPixel)
		}
	}

	return keypad.ActionFunc(func() error {
		for _, c := range s.commands {
			if err := c.run(kb, strip); err != nil {
				return fmt.Errorf("%s: %w", s.Name, err)
			}
		}
		return nil
	}), nil
}
