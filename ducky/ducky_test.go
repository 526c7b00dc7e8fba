package ducky

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jmacd/ladderpad/device"
)

type recorder struct {
	log    []string
	pixels []device.Color
	fail   error
}

func (r *recorder) SendKeyStroke(key, mods uint8) error {
	r.log = append(r.log, fmt.Sprintf("key %#02x %#02x", key, mods))
	return r.fail
}

func (r *recorder) Print(text string) error {
	r.log = append(r.log, "print "+text)
	return r.fail
}

func (r *recorder) Delay(d time.Duration) {
	r.log = append(r.log, "delay "+d.String())
}

func (r *recorder) SetPixel(i int, c device.Color) {
	r.pixels[i] = c
}

func (r *recorder) Flush() error {
	r.log = append(r.log, fmt.Sprintf("flush %v", r.pixels))
	return nil
}

func (r *recorder) Len() int {
	return len(r.pixels)
}

func run(t *testing.T, src string, button int) *recorder {
	t.Helper()
	s, err := Parse("test.ducky", strings.NewReader(src), button)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rec := &recorder{pixels: make([]device.Color, 3)}
	action, err := s.Action(rec, rec)
	if err != nil {
		t.Fatalf("Action: %v", err)
	}
	if err := action.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return rec
}

func TestHelloWorld(t *testing.T) {
	src := `LIGHTS ON self 255 255 255
REM Type first part
STRING Hello
REM Delay for 100 ms
DELAY 10
STRING world!
LIGHTS OFF self
`
	rec := run(t, src, 0)
	want := []string{
		"flush [{255 255 255} {0 0 0} {0 0 0}]",
		"print Hello",
		"delay 100ms",
		"print world!",
		"flush [{0 0 0} {0 0 0} {0 0 0}]",
	}
	if !reflect.DeepEqual(rec.log, want) {
		t.Errorf("got  %q\nwant %q", rec.log, want)
	}
}

func TestKeyStrokes(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"WINDOWS e", "key 0x08 0x08"},
		{"GUI r", "key 0x15 0x08"},
		{"SHIFT s", "key 0x16 0x02"},
		{"CTRL-ALT DELETE", "key 0x4c 0x05"},
		{"CTRL-SHIFT ESCAPE", "key 0x29 0x03"},
		{"ALT F4", "key 0x3d 0x04"},
		{"CTRL C", "key 0x06 0x03"},
		{"CTRL !", "key 0x1e 0x03"},
		{"ENTER", "key 0x28 0x00"},
		{"UPARROW", "key 0x52 0x00"},
		{"WINDOWS", "key 0x00 0x08"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			rec := run(t, tt.line, 0)
			if len(rec.log) != 1 || rec.log[0] != tt.want {
				t.Errorf("got %q, want %q", rec.log, tt.want)
			}
		})
	}
}

func TestStringKeepsSpaces(t *testing.T) {
	rec := run(t, "STRING  two  spaces \r\n", 0)
	if rec.log[0] != "print  two  spaces " {
		t.Errorf("got %q", rec.log[0])
	}
}

func TestLightsTargets(t *testing.T) {
	rec := run(t, "LIGHTS ON 2 1 2 3\nLIGHTS ON self 4 5 6\n", 1)
	want := "flush [{0 0 0} {4 5 6} {1 2 3}]"
	if rec.log[1] != want {
		t.Errorf("got %q, want %q", rec.log[1], want)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		src  string
		want error
	}{
		{"TYPE hello", ErrUnknownCommand},
		{"STRING ok\nBOGUS", ErrUnknownCommand},
		{"DELAY soon", ErrBadArgument},
		{"DELAY -1", ErrBadArgument},
		{"SHIFT nope", ErrBadArgument},
		{"LIGHTS ON self 1 2", ErrBadArgument},
		{"LIGHTS ON self 1 2 300", ErrBadArgument},
		{"LIGHTS DIM self", ErrBadArgument},
		{"LIGHTS OFF left", ErrBadArgument},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := Parse("bad.ducky", strings.NewReader(tt.src), 0)
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseErrorNamesLine(t *testing.T) {
	_, err := Parse("bad.ducky", strings.NewReader("REM fine\n\nBOGUS\n"), 0)
	if err == nil || !strings.HasPrefix(err.Error(), "bad.ducky:3:") {
		t.Errorf("Parse = %v, want error at bad.ducky:3", err)
	}
}

func TestActionRejectsMissingPixel(t *testing.T) {
	s, err := Parse("far.ducky", strings.NewReader("LIGHTS OFF 7"), 0)
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorder{pixels: make([]device.Color, 3)}
	if _, err := s.Action(rec, rec); !errors.Is(err, ErrNoSuchPixel) {
		t.Errorf("Action = %v, want %v", err, ErrNoSuchPixel)
	}
}

func TestActionStopsOnFailure(t *testing.T) {
	s, err := Parse("fail.ducky", strings.NewReader("STRING a\nSTRING b\n"), 0)
	if err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	rec := &recorder{pixels: make([]device.Color, 1), fail: boom}
	action, err := s.Action(rec, rec)
	if err != nil {
		t.Fatal(err)
	}
	if err := action.Execute(); !errors.Is(err, boom) {
		t.Errorf("Execute = %v, want %v", err, boom)
	}
	if len(rec.log) != 1 {
		t.Errorf("ran %d commands after failure", len(rec.log))
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "explorer.ducky")
	if err := os.WriteFile(path, []byte("REM open explorer\nWINDOWS e\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := ParseFile(path, 1)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if s.Len() != 1 || s.Button != 1 {
		t.Errorf("Len = %d, Button = %d", s.Len(), s.Button)
	}
}

func TestKeyForChar(t *testing.T) {
	tests := []struct {
		c         byte
		key, mods uint8
	}{
		{'a', 0x04, 0},
		{'Z', 0x1d, ModShift},
		{'1', 0x1e, 0},
		{'0', 0x27, 0},
		{'@', 0x1f, ModShift},
		{' ', 0x2c, 0},
		{'?', 0x38, ModShift},
	}
	for _, tt := range tests {
		key, mods, ok := KeyForChar(tt.c)
		if !ok || key != tt.key || mods != tt.mods {
			t.Errorf("KeyForChar(%q) = %#x, %#x, %v", tt.c, key, mods, ok)
		}
	}
	if _, _, ok := KeyForChar('\t'); ok {
		t.Error("tab has no printable key")
	}
}
