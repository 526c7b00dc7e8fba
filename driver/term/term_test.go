package term

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap/zaptest"

	"github.com/jmacd/ladderpad/device"
	"github.com/jmacd/ladderpad/keypad"
)

func newTestTerminal(t *testing.T) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("")
	windows := []keypad.ButtonWindow{
		keypad.Around(122, 40),
		keypad.Around(207, 40),
	}
	term, err := New(screen, windows, zaptest.NewLogger(t).Sugar())
	if err != nil {
		t.Fatal(err)
	}
	screen.SetSize(80, 24)
	t.Cleanup(func() { term.Close() })
	return term, screen
}

func waitForSample(t *testing.T, term *Terminal, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		v, err := term.Sample()
		if err != nil {
			t.Fatal(err)
		}
		if v == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("sample = %d, want %d", v, want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestKeysMoveSample(t *testing.T) {
	term, screen := newTestTerminal(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- term.Run(ctx) }()

	screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, '2', tcell.ModNone))
	waitForSample(t, term, 207)

	screen.PostEvent(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone))
	waitForSample(t, term, 207+NudgeStep)

	// no third button
	screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, '3', tcell.ModNone))
	screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone))
	waitForSample(t, term, 0)

	screen.PostEvent(tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone))
	screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, '1', tcell.ModNone))
	waitForSample(t, term, 122)

	screen.PostEvent(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone))
	select {
	case err := <-done:
		if !errors.Is(err, ErrQuit) {
			t.Errorf("Run = %v, want %v", err, ErrQuit)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not quit")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	term, _ := newTestTerminal(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := term.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v", err)
	}
}

func TestStripAndKeyboard(t *testing.T) {
	term, screen := newTestTerminal(t)

	if term.Len() != 2 {
		t.Fatalf("Len = %d", term.Len())
	}
	red := device.RGB(255, 0, 0)
	term.SetPixel(1, red)
	if term.shown[1] != device.Off {
		t.Error("SetPixel shown before Flush")
	}
	if err := term.Flush(); err != nil {
		t.Fatal(err)
	}
	if term.shown[1] != red {
		t.Errorf("shown = %v", term.shown)
	}

	if err := term.Print("ignored\nhi"); err != nil {
		t.Fatal(err)
	}
	if err := term.SendKeyStroke(0x28, 0); err != nil {
		t.Fatal(err)
	}
	if want := "hi<00+28>"; term.typed != want {
		t.Errorf("typed = %q, want %q", term.typed, want)
	}

	want := "> hi"
	for i, r := range want {
		mainc, _, _, _ := screen.GetContent(i, 5)
		if mainc != r {
			t.Fatalf("screen at %d = %q, want %q", i, mainc, r)
		}
	}

	if err := term.Close(); err != nil {
		t.Fatal(err)
	}
	if err := term.Flush(); !errors.Is(err, ErrClosed) {
		t.Errorf("Flush after Close = %v", err)
	}
	if _, err := term.Sample(); !errors.Is(err, ErrClosed) {
		t.Errorf("Sample after Close = %v", err)
	}
}

func TestClamp(t *testing.T) {
	if clamp(-3) != 0 || clamp(2000) != device.SampleMax || clamp(500) != 500 {
		t.Error("clamp")
	}
}
