package device

import (
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestScaleSample(t *testing.T) {
	for _, tt := range []struct {
		in   uint8
		want int
	}{
		{0, 0},
		{1, 8},
		{64, 515},
		{127, SampleMax},
		{200, SampleMax},
	} {
		if got := ScaleSample(tt.in); got != tt.want {
			t.Errorf("ScaleSample(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestLogKeyboard(t *testing.T) {
	var kb Keyboard = NewLogKeyboard(zaptest.NewLogger(t).Sugar())
	if err := kb.SendKeyStroke(0x08, 0x08); err != nil {
		t.Error(err)
	}
	if err := kb.Print("hello"); err != nil {
		t.Error(err)
	}
	start := time.Now()
	kb.Delay(5 * time.Millisecond)
	if time.Since(start) < 5*time.Millisecond {
		t.Error("Delay returned early")
	}
}
