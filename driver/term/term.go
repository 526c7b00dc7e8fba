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

// Package term simulates the keypad in a terminal. Digit keys move the
// ladder pin to the center of a button window, the strip is drawn as a
// row of colored cells and keyboard output is echoed below it.
package term

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/jmacd/ladderpad/device"
	"github.com/jmacd/ladderpad/keypad"
)

const (
	// NudgeStep is how far the arrow keys move the sample.
	NudgeStep = 5

	maxTyped = 60
)

var (
	ErrQuit   = fmt.Errorf("term: quit")
	ErrClosed = fmt.Errorf("term: closed")
)

// Terminal is a device.Device drawn on a tcell screen.
type Terminal struct {
	screen tcell.Screen
	logger *zap.SugaredLogger

	lock    sync.Mutex
	centers []int
	sample  int
	pixels  []device.Color
	shown   []device.Color
	typed   string
	closed  bool
}

var _ device.Device = (*Terminal)(nil)

// Open takes over the controlling terminal.
func Open(windows []keypad.ButtonWindow, logger *zap.SugaredLogger) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("term: %w", err)
	}
	return New(screen, windows, logger)
}

// New initializes screen and draws one pixel per window.
func New(screen tcell.Screen, windows []keypad.ButtonWindow, logger *zap.SugaredLogger) (*Terminal, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("term: init: %w", err)
	}

	t := &Terminal{
		screen:  screen,
		logger:  logger.Named("term"),
		centers: make([]int, len(windows)),
		pixels:  make([]device.Color, len(windows)),
		shown:   make([]device.Color, len(windows)),
	}
	for i, w := range windows {
		t.centers[i] = (w.Lower + w.Upper) / 2
	}

	t.lock.Lock()
	t.draw()
	t.lock.Unlock()
	return t, nil
}

// Run handles key presses until the context is canceled or the user
// quits with Esc or Ctrl-C.
func (t *Terminal) Run(ctx context.Context) error {
	events := make(chan tcell.Event)
	go func() {
		defer close(events)
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return ErrClosed
			}
			if t.event(ev) {
				return ErrQuit
			}
		}
	}
}

// event applies one terminal event and reports whether the user quit.
func (t *Terminal) event(ev tcell.Event) bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.closed {
		return true
	}
	switch e := ev.(type) {
	case *tcell.EventResize:
		t.screen.Sync()
	case *tcell.EventKey:
		switch e.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyUp, tcell.KeyRight:
			t.sample = clamp(t.sample + NudgeStep)
		case tcell.KeyDown, tcell.KeyLeft:
			t.sample = clamp(t.sample - NudgeStep)
		case tcell.KeyRune:
			r := e.Rune()
			switch {
			case r == ' ' || r == '0':
				t.sample = 0
			case '1' <= r && r <= '9' && int(r-'1') < len(t.centers):
				t.sample = t.centers[r-'1']
			default:
				return false
			}
		default:
			return false
		}
		t.logger.Debugw("Sample moved", "sample", t.sample)
	}
	t.draw()
	return false
}

func clamp(s int) int {
	switch {
	case s < 0:
		return 0
	case s > device.SampleMax:
		return device.SampleMax
	}
	return s
}

func (t *Terminal) Sample() (int, error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.closed {
		return 0, ErrClosed
	}
	return t.sample, nil
}

func (t *Terminal) Len() int {
	return len(t.pixels)
}

func (t *Terminal) SetPixel(i int, c device.Color) {
	t.lock.Lock()
	t.pixels[i] = c
	t.lock.Unlock()
}

func (t *Terminal) Flush() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.closed {
		return ErrClosed
	}
	copy(t.shown, t.pixels)
	t.draw()
	return nil
}

func (t *Terminal) SendKeyStroke(key, modifiers uint8) error {
	return t.echo(fmt.Sprintf("<%02x+%02x>", modifiers, key))
}

func (t *Terminal) Print(text string) error {
	return t.echo(text)
}

func (t *Terminal) Delay(d time.Duration) {
	time.Sleep(d)
}

func (t *Terminal) echo(s string) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.closed {
		return ErrClosed
	}
	line := t.typed + s
	if i := strings.LastIndexByte(line, '\n'); i >= 0 {
		line = line[i+1:]
	}
	if len(line) > maxTyped {
		line = line[len(line)-maxTyped:]
	}
	t.typed = line
	t.draw()
	return nil
}

func (t *Terminal) Close() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	t.screen.Fini()
	return nil
}

// draw repaints the whole screen. The lock must be held.
func (t *Terminal) draw() {
	t.screen.Clear()

	t.text(0, 0, fmt.Sprintf("ladderpad  sample %4d", t.sample))
	for i, c := range t.shown {
		style := tcell.StyleDefault.Background(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))
		x := 2 + 4*i
		t.screen.SetContent(x, 2, ' ', nil, style)
		t.screen.SetContent(x+1, 2, ' ', nil, style)
		t.text(x, 3, fmt.Sprint(i+1))
	}
	t.text(0, 5, "> "+t.typed)
	t.text(0, 7, "1-9 press  0/space release  arrows nudge  esc quit")

	t.screen.Show()
}

func (t *Terminal) text(x, y int, s string) {
	for _, r := range s {
		t.screen.SetContent(x, y, r, nil, tcell.StyleDefault)
		x++
	}
}
