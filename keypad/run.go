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

package keypad

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jmacd/ladderpad/device"
)

const (
	DefaultPollInterval = 50 * time.Millisecond

	// CalibrationEvery is how many samples pass between two calibration
	// log lines, about one per second at the default interval.
	CalibrationEvery = 20
)

// Runner samples the ladder pin at a fixed cadence and feeds a Keypad.
type Runner struct {
	Keypad  *Keypad
	Sampler device.Sampler

	// Interval is the polling period; zero means DefaultPollInterval.
	Interval time.Duration

	// Calibrate logs raw samples instead of dispatching actions.
	Calibrate bool

	// BootFlash lights every button for BootFlashDuration before polling
	// starts. A zero duration disables it.
	BootFlash         device.Color
	BootFlashDuration time.Duration

	Logger *zap.SugaredLogger

	samples int
}

// Run polls until the context is canceled or a sample, LED update or
// action fails. A canceled context returns ctx.Err().
func (r *Runner) Run(ctx context.Context) error {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	logger = logger.Named("runner")

	interval := r.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	if err := r.bootFlash(ctx); err != nil {
		return err
	}

	logger.Infow("Polling keypad", "interval", interval, "buttons", r.Keypad.Buttons(), "calibrate", r.Calibrate)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := r.step(logger); err != nil {
			logger.Warnw("Stopping keypad", "error", err)
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Runner) step(logger *zap.SugaredLogger) error {
	sample, err := r.Sampler.Sample()
	if err != nil {
		return fmt.Errorf("sample: %w", err)
	}

	if r.Calibrate {
		if r.samples%CalibrationEvery == 0 {
			idx, ok := Classify(sample, r.Keypad.windows)
			if !ok {
				idx = -1
			}
			logger.Infow("ADC reading", "sample", sample, "button", idx)
		}
		r.samples++
		return nil
	}

	return r.Keypad.Poll(sample)
}

func (r *Runner) bootFlash(ctx context.Context) error {
	if r.BootFlashDuration <= 0 {
		return nil
	}
	fb := r.Keypad.Feedback()
	if err := fb.Fill(r.BootFlash); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-time.After(r.BootFlashDuration):
	}
	return fb.ClearAll()
}
