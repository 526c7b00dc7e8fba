package keypad

import (
	"errors"
	"testing"
)

// The calibrated ladder of the six-button board.
var ladder = ButtonTable{
	Around(122, 40),
	Around(207, 40),
	Around(294, 40),
	Around(410, 40),
	Around(599, 40),
	Around(1023, 40),
}

func TestClassifyInside(t *testing.T) {
	for i, w := range ladder {
		for s := w.Lower + 1; s < w.Upper; s++ {
			got, ok := Classify(s, ladder)
			if !ok || got != i {
				t.Fatalf("Classify(%d) = %d, %v, want %d", s, got, ok, i)
			}
		}
	}
}

func TestClassifyBoundaries(t *testing.T) {
	for _, w := range ladder {
		for _, s := range []int{w.Lower, w.Upper} {
			if got, ok := Classify(s, ladder); ok {
				t.Errorf("Classify(%d) = %d, want no match", s, got)
			}
		}
	}
}

func TestClassifyOutside(t *testing.T) {
	for _, s := range []int{-1, 0, 50, 82, 165, 250, 350, 500, 983, 1063, 5000} {
		if got, ok := Classify(s, ladder); ok {
			t.Errorf("Classify(%d) = %d, want no match", s, got)
		}
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	table := ButtonTable{{0, 100}, {50, 150}}
	if got, ok := Classify(75, table); !ok || got != 0 {
		t.Errorf("Classify(75) = %d, %v, want 0", got, ok)
	}
	if got, ok := Classify(125, table); !ok || got != 1 {
		t.Errorf("Classify(125) = %d, %v, want 1", got, ok)
	}
}

func TestClassifyEmptyTable(t *testing.T) {
	if _, ok := Classify(10, nil); ok {
		t.Error("empty table matched")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		table ButtonTable
		want  error
	}{
		{"ladder", ladder, nil},
		{"touching", ButtonTable{{0, 10}, {10, 20}}, nil},
		{"sharing a bound", ButtonTable{{0, 10}, {9, 20}}, nil},
		{"one shared sample", ButtonTable{{0, 10}, {8, 20}}, ErrOverlappingWindows},
		{"nested", ButtonTable{{0, 100}, {40, 60}}, ErrOverlappingWindows},
		{"out of order", ButtonTable{{50, 60}, {0, 55}}, ErrOverlappingWindows},
		{"inverted", ButtonTable{{20, 10}}, ErrInvalidWindow},
		{"no interior", ButtonTable{{10, 11}}, ErrInvalidWindow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			if tt.want == nil && err != nil {
				t.Errorf("Validate = %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Validate = %v, want %v", err, tt.want)
			}
		})
	}
}
