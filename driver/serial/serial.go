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

// Package serial talks to a ladder keypad board over a serial line.
//
// The board streams one line per conversion, "A <code>", and accepts:
//
//	P <index> <r> <g> <b>   stage a pixel color
//	S                       show staged pixels
//	K <usage> <modifiers>   send one keystroke
//	T "<text>"              type Go-quoted text
package serial

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tarm/serial"
	"go.uber.org/zap"

	"github.com/jmacd/ladderpad/device"
)

// closeTimeout bounds how long Close waits for a blocked read to return.
const closeTimeout = 500 * time.Millisecond

var ErrClosed = fmt.Errorf("serial: port closed")

// Device is a keypad board on a serial port.
type Device struct {
	port   io.ReadWriteCloser
	out    *bufio.Writer
	logger *zap.SugaredLogger

	lock   sync.Mutex
	sample int
	err    error
	closed bool

	pixels []device.Color
	done   chan struct{}
}

var _ device.Device = (*Device)(nil)

// Open opens the named port and starts reading conversions.
func Open(name string, baud, pixels int, logger *zap.SugaredLogger) (*Device, error) {
	port, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", name, err)
	}
	logger.Named("serial").Infow("Opened serial port", "port", name, "baudRate", baud)
	return New(port, pixels, logger), nil
}

// New wraps an open port.
func New(port io.ReadWriteCloser, pixels int, logger *zap.SugaredLogger) *Device {
	d := &Device{
		port:   port,
		out:    bufio.NewWriter(port),
		logger: logger.Named("serial"),
		pixels: make([]device.Color, pixels),
		done:   make(chan struct{}),
	}
	go d.read()
	return d
}

func (d *Device) read() {
	defer close(d.done)

	scanner := bufio.NewScanner(d.port)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := parseSample(line)
		if err != nil {
			d.logger.Debugw("Ignoring line", "line", line, "error", err)
			continue
		}
		d.lock.Lock()
		d.sample = v
		d.lock.Unlock()
	}

	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}

	d.lock.Lock()
	defer d.lock.Unlock()
	if d.closed {
		err = ErrClosed
	}
	d.err = fmt.Errorf("serial: read: %w", err)
}

func parseSample(line string) (int, error) {
	if !strings.HasPrefix(line, "A ") {
		return 0, fmt.Errorf("not a conversion")
	}
	v, err := strconv.Atoi(strings.TrimSpace(line[2:]))
	if err != nil {
		return 0, err
	}
	if v < 0 || v > device.SampleMax {
		return 0, fmt.Errorf("code %d out of range", v)
	}
	return v, nil
}

// Sample returns the most recent conversion, or the error that stopped
// the reader.
func (d *Device) Sample() (int, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.err != nil {
		return 0, d.err
	}
	return d.sample, nil
}

func (d *Device) Len() int {
	return len(d.pixels)
}

func (d *Device) SetPixel(i int, c device.Color) {
	d.pixels[i] = c
}

// Flush sends every pixel and shows them.
func (d *Device) Flush() error {
	for i, c := range d.pixels {
		fmt.Fprintf(d.out, "P %d %d %d %d\n", i, c.R, c.G, c.B)
	}
	d.out.WriteString("S\n")
	return d.send("flush")
}

func (d *Device) SendKeyStroke(key, modifiers uint8) error {
	fmt.Fprintf(d.out, "K %d %d\n", key, modifiers)
	return d.send("keystroke")
}

func (d *Device) Print(text string) error {
	fmt.Fprintf(d.out, "T %s\n", strconv.Quote(text))
	return d.send("print")
}

func (d *Device) Delay(dur time.Duration) {
	time.Sleep(dur)
}

func (d *Device) send(what string) error {
	if err := d.out.Flush(); err != nil {
		return fmt.Errorf("serial: %s: %w", what, err)
	}
	return nil
}

// Close closes the port and waits briefly for the reader to stop.
func (d *Device) Close() error {
	d.lock.Lock()
	d.closed = true
	d.lock.Unlock()

	err := d.port.Close()
	select {
	case <-d.done:
	case <-time.After(closeTimeout):
		d.logger.Debug("Reader still blocked after close")
	}
	if err != nil {
		return fmt.Errorf("serial: close: %w", err)
	}
	return nil
}
