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

// Command ladderpad runs a resistor-ladder keypad: it samples the ladder,
// lights the pressed button and runs that button's script.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jmacd/ladderpad/config"
	"github.com/jmacd/ladderpad/driver"
	"github.com/jmacd/ladderpad/keypad"
)

type options struct {
	configPath string
	driver     string
	calibrate  bool
	verbose    bool
	logPath    string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	boot, err := newLogger(opts, opts.driver)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create logger: %v\n", err)
		return 1
	}
	defer boot.Sync()

	cfg, err := loadConfig(opts, boot)
	if err != nil {
		boot.Errorw("Failed to load config", "error", err)
		return 1
	}

	logger := boot
	if logPath(opts, cfg.Driver) != logPath(opts, opts.driver) {
		if logger, err = newLogger(opts, cfg.Driver); err != nil {
			boot.Errorw("Failed to create logger", "error", err)
			return 1
		}
		defer logger.Sync()
	}

	if err := runKeypad(cfg, logger); err != nil {
		logger.Errorw("Keypad stopped", "error", err)
		return 1
	}
	return 0
}

func loadConfig(opts options, logger *zap.SugaredLogger) (*config.Config, error) {
	exe, _ := os.Executable()
	path, err := config.Find(opts.configPath, exe)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path, logger)
	if err != nil {
		return nil, err
	}
	if opts.driver != "" {
		cfg.Driver = opts.driver
	}
	if opts.calibrate {
		cfg.Calibrate = true
	}
	return cfg, nil
}

func runKeypad(cfg *config.Config, logger *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dev, err := driver.Open(cfg, logger)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	defer dev.Close()

	kc, err := cfg.Keypad(dev.Keyboard, dev.Input)
	if err != nil {
		return err
	}
	pad, err := keypad.New(kc, dev.Input, logger)
	if err != nil {
		return err
	}

	runner := &keypad.Runner{
		Keypad:            pad,
		Sampler:           dev.Input,
		Interval:          cfg.PollInterval,
		Calibrate:         cfg.Calibrate,
		BootFlash:         cfg.BootFlash.Color,
		BootFlashDuration: cfg.BootFlash.Duration,
		Logger:            logger,
	}
	if err := dev.Serve(ctx, runner.Run); err != nil {
		return err
	}

	logger.Infow("Shutting down")
	_ = pad.Feedback().ClearAll()
	return nil
}

func parseFlags() options {
	var opts options

	flag.StringVar(&opts.configPath, "config", "", "Path to config.yaml")
	flag.StringVar(&opts.driver, "driver", "", "Override the configured driver (serial, xl, mini, term)")
	flag.BoolVar(&opts.calibrate, "calibrate", false, "Log raw samples instead of running scripts")
	flag.BoolVar(&opts.verbose, "verbose", false, "Enable debug logging")
	flag.StringVar(&opts.logPath, "log", "", "Write logs to this file instead of stderr")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ladderpad [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if opts.driver != "" && !config.ValidDriver(opts.driver) {
		fmt.Fprintf(os.Stderr, "Error: invalid driver %q\n", opts.driver)
		os.Exit(2)
	}
	return opts
}

const termLogPath = "ladderpad.log"

// logPath returns where logs go for the given driver: the -log flag if
// set, a file for drivers that draw on the terminal, otherwise stderr
// (the empty string).
func logPath(opts options, driverName string) string {
	if opts.logPath == "" && driver.OwnsTerminal(driverName) {
		return termLogPath
	}
	return opts.logPath
}

// newLogger builds a development logger when verbose and a production
// logger otherwise.
func newLogger(opts options, driverName string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if opts.verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if path := logPath(opts, driverName); path != "" {
		cfg.OutputPaths = []string{path}
		cfg.ErrorOutputPaths = []string{path}
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar().Named("ladderpad"), nil
}
