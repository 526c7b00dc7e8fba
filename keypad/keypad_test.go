package keypad

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/jmacd/ladderpad/device"
)

type testStrip struct {
	pixels []device.Color
	frames [][]device.Color
	err    error
}

func newTestStrip(n int) *testStrip {
	return &testStrip{pixels: make([]device.Color, n)}
}

func (s *testStrip) SetPixel(i int, c device.Color) { s.pixels[i] = c }
func (s *testStrip) Len() int                       { return len(s.pixels) }

func (s *testStrip) Flush() error {
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, append([]device.Color(nil), s.pixels...))
	return nil
}

// clears counts committed frames with every pixel off.
func (s *testStrip) clears() int {
	n := 0
	for _, f := range s.frames {
		dark := true
		for _, c := range f {
			if c != device.Off {
				dark = false
			}
		}
		if dark {
			n++
		}
	}
	return n
}

type counter struct {
	n   int
	err error
}

func (c *counter) Execute() error {
	c.n++
	return c.err
}

var blue = device.RGB(0, 0, 255)

func newTestKeypad(t *testing.T, windows ButtonTable) (*Keypad, *testStrip, []*counter) {
	t.Helper()
	strip := newTestStrip(len(windows))
	cfg := Config{Windows: windows}
	var counters []*counter
	for range windows {
		c := &counter{}
		counters = append(counters, c)
		cfg.Colors = append(cfg.Colors, blue)
		cfg.Actions = append(cfg.Actions, c)
	}
	k, err := New(cfg, strip, zaptest.NewLogger(t).Sugar())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return k, strip, counters
}

func polls(t *testing.T, k *Keypad, samples ...int) {
	t.Helper()
	for _, s := range samples {
		if err := k.Poll(s); err != nil {
			t.Fatalf("Poll(%d): %v", s, err)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	k, strip, counters := newTestKeypad(t, ButtonTable{{100, 140}})

	polls(t, k, 120, 121, 50, 121)

	if counters[0].n != 2 {
		t.Errorf("dispatches = %d, want 2", counters[0].n)
	}
	if got := strip.clears(); got != 1 {
		t.Errorf("clears = %d, want 1", got)
	}
	if k.State() != Held {
		t.Errorf("state = %v, want held", k.State())
	}
}

func TestHeldPressDispatchesOnce(t *testing.T) {
	k, _, counters := newTestKeypad(t, ButtonTable{Around(122, 40), Around(207, 40)})

	polls(t, k, 122, 122, 125, 130)

	if counters[0].n != 1 {
		t.Errorf("dispatches = %d, want 1", counters[0].n)
	}
	if counters[1].n != 0 {
		t.Errorf("other button dispatched %d times", counters[1].n)
	}
}

func TestReleaseClearsOnce(t *testing.T) {
	k, strip, _ := newTestKeypad(t, ButtonTable{{100, 140}})

	polls(t, k, 120, 0, 0, 0)

	if got := strip.clears(); got != 1 {
		t.Errorf("clears = %d, want 1", got)
	}
	if k.State() != Idle {
		t.Errorf("state = %v, want idle", k.State())
	}
}

func TestIdleNeverClears(t *testing.T) {
	k, strip, _ := newTestKeypad(t, ButtonTable{{100, 140}})

	polls(t, k, 0, 50, 1023)

	if len(strip.frames) != 0 {
		t.Errorf("idle polls flushed %d frames", len(strip.frames))
	}
}

func TestBoundaryNeverDispatches(t *testing.T) {
	k, _, counters := newTestKeypad(t, ButtonTable{{100, 140}})

	polls(t, k, 100, 140)

	if counters[0].n != 0 {
		t.Errorf("dispatches = %d, want 0", counters[0].n)
	}
}

func TestPressLightsOnlyItsButton(t *testing.T) {
	k, strip, _ := newTestKeypad(t, ButtonTable{{0, 50}, {100, 140}, {200, 240}})
	strip.pixels[0] = device.RGB(1, 2, 3)

	polls(t, k, 120)

	want := []device.Color{device.Off, blue, device.Off}
	last := strip.frames[len(strip.frames)-1]
	for i := range want {
		if last[i] != want[i] {
			t.Errorf("pixel %d = %v, want %v", i, last[i], want[i])
		}
	}
}

func TestTransitThroughDeadZone(t *testing.T) {
	k, strip, counters := newTestKeypad(t, ButtonTable{Around(122, 40), Around(207, 40)})

	// Sliding from button 0 to button 1 through the dead zone between them.
	polls(t, k, 122, 165, 207)

	if counters[0].n != 1 || counters[1].n != 1 {
		t.Errorf("dispatches = %d, %d, want 1, 1", counters[0].n, counters[1].n)
	}
	if got := strip.clears(); got != 1 {
		t.Errorf("clears = %d, want 1", got)
	}
}

func TestActionFailureIsReturnedOnce(t *testing.T) {
	boom := errors.New("boom")
	k, _, counters := newTestKeypad(t, ButtonTable{{100, 140}})
	counters[0].err = boom

	if err := k.Poll(120); !errors.Is(err, boom) {
		t.Fatalf("Poll = %v, want %v", err, boom)
	}
	if err := k.Poll(120); err != nil {
		t.Fatalf("held Poll = %v", err)
	}
	if counters[0].n != 1 {
		t.Errorf("dispatches = %d, want 1", counters[0].n)
	}
}

func TestStripFailureStillDispatches(t *testing.T) {
	boom := errors.New("boom")
	k, strip, counters := newTestKeypad(t, ButtonTable{{100, 140}})
	strip.err = boom

	if err := k.Poll(120); !errors.Is(err, boom) {
		t.Fatalf("Poll = %v, want %v", err, boom)
	}
	if counters[0].n != 1 {
		t.Errorf("dispatches = %d after LED failure, want 1", counters[0].n)
	}
	if k.State() != Held {
		t.Errorf("state = %v, want %v", k.State(), Held)
	}
}

func TestStripAndActionFailuresBothReturned(t *testing.T) {
	ledErr := errors.New("led")
	actionErr := errors.New("action")
	k, strip, counters := newTestKeypad(t, ButtonTable{{100, 140}})
	strip.err = ledErr
	counters[0].err = actionErr

	err := k.Poll(120)
	if !errors.Is(err, ledErr) || !errors.Is(err, actionErr) {
		t.Fatalf("Poll = %v, want both %v and %v", err, ledErr, actionErr)
	}
	if err := k.Poll(121); err != nil {
		t.Fatalf("held Poll = %v", err)
	}
	if counters[0].n != 1 {
		t.Errorf("dispatches = %d, want 1", counters[0].n)
	}
}

func TestNewRejectsMismatch(t *testing.T) {
	strip := newTestStrip(2)
	tests := []struct {
		name string
		cfg  Config
	}{
		{"colors", Config{
			Windows: ButtonTable{{0, 10}, {20, 30}},
			Colors:  []device.Color{blue},
			Actions: []ActionEntry{&counter{}, &counter{}},
		}},
		{"actions", Config{
			Windows: ButtonTable{{0, 10}, {20, 30}},
			Colors:  []device.Color{blue, blue},
			Actions: []ActionEntry{&counter{}, &counter{}, &counter{}},
		}},
		{"windows", Config{
			Windows: ButtonTable{{0, 10}},
			Colors:  []device.Color{blue, blue},
			Actions: []ActionEntry{&counter{}, &counter{}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, strip, nil); !errors.Is(err, ErrConfigMismatch) {
				t.Errorf("New = %v, want %v", err, ErrConfigMismatch)
			}
		})
	}
}

func TestNewRejectsShortStrip(t *testing.T) {
	cfg := Config{
		Windows: ButtonTable{{0, 10}, {20, 30}},
		Colors:  []device.Color{blue, blue},
		Actions: []ActionEntry{&counter{}, &counter{}},
	}
	if _, err := New(cfg, newTestStrip(1), nil); !errors.Is(err, ErrConfigMismatch) {
		t.Errorf("New = %v, want %v", err, ErrConfigMismatch)
	}
}

func TestNewRejectsBadWindows(t *testing.T) {
	one := func(w ...ButtonWindow) Config {
		cfg := Config{Windows: w}
		for range w {
			cfg.Colors = append(cfg.Colors, blue)
			cfg.Actions = append(cfg.Actions, &counter{})
		}
		return cfg
	}
	if _, err := New(one(ButtonWindow{10, 11}), newTestStrip(1), nil); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("empty window: %v", err)
	}
	if _, err := New(one(ButtonWindow{0, 50}, ButtonWindow{40, 90}), newTestStrip(2), nil); !errors.Is(err, ErrOverlappingWindows) {
		t.Errorf("overlap: %v", err)
	}
}

type testSampler struct {
	samples []int
	cancel  context.CancelFunc
}

func (s *testSampler) Sample() (int, error) {
	if len(s.samples) == 0 {
		s.cancel()
		return 0, nil
	}
	v := s.samples[0]
	s.samples = s.samples[1:]
	return v, nil
}

func TestRunnerDispatches(t *testing.T) {
	k, strip, counters := newTestKeypad(t, ButtonTable{{100, 140}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &Runner{
		Keypad:            k,
		Sampler:           &testSampler{samples: []int{120, 120, 0, 130, 0}, cancel: cancel},
		Interval:          time.Millisecond,
		BootFlash:         device.RGB(120, 0, 0),
		BootFlashDuration: time.Millisecond,
		Logger:            zaptest.NewLogger(t).Sugar(),
	}
	if err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want %v", err, context.Canceled)
	}
	if counters[0].n != 2 {
		t.Errorf("dispatches = %d, want 2", counters[0].n)
	}
	if strip.frames[0][0] != device.RGB(120, 0, 0) {
		t.Errorf("first frame = %v, want boot flash", strip.frames[0])
	}
	// boot flash clear, then one clear per release
	if got := strip.clears(); got != 3 {
		t.Errorf("clears = %d, want 3", got)
	}
}

func TestRunnerStopsOnActionError(t *testing.T) {
	boom := errors.New("boom")
	k, _, counters := newTestKeypad(t, ButtonTable{{100, 140}})
	counters[0].err = boom
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &Runner{
		Keypad:   k,
		Sampler:  &testSampler{samples: []int{0, 120, 0, 120}, cancel: cancel},
		Interval: time.Millisecond,
	}
	if err := r.Run(ctx); !errors.Is(err, boom) {
		t.Fatalf("Run = %v, want %v", err, boom)
	}
	if counters[0].n != 1 {
		t.Errorf("dispatches = %d, want 1", counters[0].n)
	}
}

func TestRunnerCalibrateNeverDispatches(t *testing.T) {
	k, strip, counters := newTestKeypad(t, ButtonTable{{100, 140}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &Runner{
		Keypad:    k,
		Sampler:   &testSampler{samples: []int{120, 0, 120, 0}, cancel: cancel},
		Interval:  time.Millisecond,
		Calibrate: true,
		Logger:    zaptest.NewLogger(t).Sugar(),
	}
	if err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v", err)
	}
	if counters[0].n != 0 || len(strip.frames) != 0 {
		t.Errorf("calibration dispatched %d times, flushed %d frames", counters[0].n, len(strip.frames))
	}
}
