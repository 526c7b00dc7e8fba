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

// Command flashstrip exercises the LED strip of the configured keypad: a
// single pixel chases along the strip, then every pixel shows a button
// color until the command is stopped.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jmacd/ladderpad/config"
	"github.com/jmacd/ladderpad/device"
	"github.com/jmacd/ladderpad/driver"
)

var chase = []device.Color{
	device.RGB(255, 0, 0),
	device.RGB(255, 255, 0),
	device.RGB(0, 255, 0),
	device.RGB(0, 0, 255),
}

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "Path to config.yaml")
	driverName := flag.String("driver", "", "Override the configured driver (serial, xl, mini, term)")
	step := flag.Duration("step", 100*time.Millisecond, "Time each chase frame is shown")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	if err := flash(*configPath, *driverName, *step, logger.Sugar().Named("flashstrip")); err != nil {
		logger.Sugar().Errorw("Flash failed", "error", err)
		return 1
	}
	return 0
}

func flash(configPath, driverName string, step time.Duration, logger *zap.SugaredLogger) error {
	exe, _ := os.Executable()
	path, err := config.Find(configPath, exe)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path, logger)
	if err != nil {
		return err
	}
	if driverName != "" {
		cfg.Driver = driverName
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dev, err := driver.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer dev.Close()

	logger.Infow("Flashing strip", "driver", cfg.Driver, "pixels", dev.Input.Len())
	return dev.Serve(ctx, func(ctx context.Context) error {
		return pattern(ctx, dev.Input, cfg.Buttons, step)
	})
}

// pattern chases each color along the strip, then shows the button colors
// until ctx is done.
func pattern(ctx context.Context, strip device.Strip, buttons []config.Button, step time.Duration) error {
	n := strip.Len()
	for _, c := range chase {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				strip.SetPixel(j, device.Off)
			}
			strip.SetPixel(i, c)
			if err := strip.Flush(); err != nil {
				return err
			}
			if !sleep(ctx, step) {
				return blank(strip)
			}
		}
	}

	for i := 0; i < n; i++ {
		color := device.Off
		if i < len(buttons) {
			color = buttons[i].Color
		}
		strip.SetPixel(i, color)
	}
	if err := strip.Flush(); err != nil {
		return err
	}

	<-ctx.Done()
	return blank(strip)
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func blank(strip device.Strip) error {
	for i := 0; i < strip.Len(); i++ {
		strip.SetPixel(i, device.Off)
	}
	return strip.Flush()
}
