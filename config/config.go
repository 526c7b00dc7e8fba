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

// Package config loads the keypad configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jmacd/ladderpad/device"
	"github.com/jmacd/ladderpad/ducky"
	"github.com/jmacd/ladderpad/keypad"
)

// Config is the canonical, validated keypad configuration. It is read
// once at startup.
type Config struct {
	Driver       string
	PollInterval time.Duration
	Tolerance    int
	Calibrate    bool

	BootFlash struct {
		Color    device.Color
		Duration time.Duration
	}

	Serial struct {
		Port     string
		BaudRate int
	}

	MIDI struct {
		Channel int
		Slider  int
	}

	Buttons []Button
}

// Button is one rung of the ladder.
type Button struct {
	Window keypad.ButtonWindow
	Color  device.Color
	Script *ducky.Script
}

// button is the file form of a Button.
type button struct {
	Center  *int   `mapstructure:"center"`
	Lower   *int   `mapstructure:"lower"`
	Upper   *int   `mapstructure:"upper"`
	Color   string `mapstructure:"color"`
	Script  string `mapstructure:"script"`
	Actions string `mapstructure:"actions"`
}

const (
	configFilename = "config.yaml"
	configType     = "yaml"

	configKeyDriver            = "driver"
	configKeyPollInterval      = "poll_interval"
	configKeyTolerance         = "tolerance"
	configKeyCalibrate         = "calibrate"
	configKeyBootFlashColor    = "boot_flash.color"
	configKeyBootFlashDuration = "boot_flash.duration"
	configKeySerialPort        = "serial.port"
	configKeyBaudRate          = "serial.baud_rate"
	configKeyMIDIChannel       = "midi.channel"
	configKeyMIDISlider        = "midi.slider"
	configKeyButtons           = "buttons"

	defaultDriver            = "serial"
	defaultTolerance         = 40
	defaultBootFlashColor    = "#780000"
	defaultBootFlashDuration = 30 * time.Millisecond
	defaultSerialPort        = "/dev/ttyACM0"
	defaultBaudRate          = 9600
)

// Drivers lists the accepted values of the driver key.
var Drivers = []string{"serial", "xl", "mini", "term"}

var (
	ErrNoConfig  = fmt.Errorf("config: file not found")
	ErrNoButtons = fmt.Errorf("config: no buttons configured")
	ErrBadButton = fmt.Errorf("config: bad button")
)

// Load reads and validates the configuration file. Invalid scalar values
// fall back to their defaults with a warning; invalid buttons are errors.
func Load(path string, logger *zap.SugaredLogger) (*Config, error) {
	logger = logger.Named("config")

	v := viper.New()
	v.SetConfigType(configType)
	v.SetConfigFile(path)

	v.SetDefault(configKeyDriver, defaultDriver)
	v.SetDefault(configKeyPollInterval, keypad.DefaultPollInterval)
	v.SetDefault(configKeyTolerance, defaultTolerance)
	v.SetDefault(configKeyCalibrate, false)
	v.SetDefault(configKeyBootFlashColor, defaultBootFlashColor)
	v.SetDefault(configKeyBootFlashDuration, defaultBootFlashDuration)
	v.SetDefault(configKeySerialPort, defaultSerialPort)
	v.SetDefault(configKeyBaudRate, defaultBaudRate)
	v.SetDefault(configKeyMIDIChannel, 0)
	v.SetDefault(configKeyMIDISlider, 0)

	logger.Debugw("Loading config", "path", path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := &Config{}
	if err := c.populate(v, filepath.Dir(path), logger); err != nil {
		return nil, err
	}

	logger.Infow("Loaded config",
		"driver", c.Driver,
		"pollInterval", c.PollInterval,
		"buttons", len(c.Buttons),
		"calibrate", c.Calibrate)
	return c, nil
}

func (c *Config) populate(v *viper.Viper, dir string, logger *zap.SugaredLogger) error {
	c.Driver = strings.ToLower(v.GetString(configKeyDriver))
	if !ValidDriver(c.Driver) {
		logger.Warnw("Invalid driver specified, using default value",
			"key", configKeyDriver,
			"invalidValue", c.Driver,
			"defaultValue", defaultDriver)
		c.Driver = defaultDriver
	}

	c.PollInterval = v.GetDuration(configKeyPollInterval)
	if c.PollInterval <= 0 {
		logger.Warnw("Invalid poll interval specified, using default value",
			"key", configKeyPollInterval,
			"invalidValue", c.PollInterval,
			"defaultValue", keypad.DefaultPollInterval)
		c.PollInterval = keypad.DefaultPollInterval
	}

	c.Tolerance = v.GetInt(configKeyTolerance)
	if c.Tolerance <= 0 {
		logger.Warnw("Invalid tolerance specified, using default value",
			"key", configKeyTolerance,
			"invalidValue", c.Tolerance,
			"defaultValue", defaultTolerance)
		c.Tolerance = defaultTolerance
	}

	c.Calibrate = v.GetBool(configKeyCalibrate)

	flash, err := ParseColor(v.GetString(configKeyBootFlashColor))
	if err != nil {
		logger.Warnw("Invalid boot flash color specified, using default value",
			"key", configKeyBootFlashColor,
			"error", err,
			"defaultValue", defaultBootFlashColor)
		flash, _ = ParseColor(defaultBootFlashColor)
	}
	c.BootFlash.Color = flash
	c.BootFlash.Duration = v.GetDuration(configKeyBootFlashDuration)

	c.Serial.Port = v.GetString(configKeySerialPort)
	c.Serial.BaudRate = v.GetInt(configKeyBaudRate)
	if c.Serial.BaudRate <= 0 {
		logger.Warnw("Invalid baud rate specified, using default value",
			"key", configKeyBaudRate,
			"invalidValue", c.Serial.BaudRate,
			"defaultValue", defaultBaudRate)
		c.Serial.BaudRate = defaultBaudRate
	}

	c.MIDI.Channel = v.GetInt(configKeyMIDIChannel)
	if c.MIDI.Channel < 0 || c.MIDI.Channel > 15 {
		logger.Warnw("Invalid MIDI channel specified, using default value",
			"key", configKeyMIDIChannel,
			"invalidValue", c.MIDI.Channel,
			"defaultValue", 0)
		c.MIDI.Channel = 0
	}
	c.MIDI.Slider = v.GetInt(configKeyMIDISlider)

	var raw []button
	if err := v.UnmarshalKey(configKeyButtons, &raw); err != nil {
		return fmt.Errorf("%s: %w", configKeyButtons, err)
	}
	if len(raw) == 0 {
		return ErrNoButtons
	}
	for i, b := range raw {
		btn, err := b.canonize(i, c.Tolerance, dir)
		if err != nil {
			return err
		}
		c.Buttons = append(c.Buttons, btn)
	}

	logger.Debug("Populated config fields from viper")
	return nil
}

func (b button) canonize(i, tolerance int, dir string) (Button, error) {
	var out Button

	switch {
	case b.Center != nil && b.Lower == nil && b.Upper == nil:
		out.Window = keypad.Around(*b.Center, tolerance)
	case b.Center == nil && b.Lower != nil && b.Upper != nil:
		out.Window = keypad.ButtonWindow{Lower: *b.Lower, Upper: *b.Upper}
	default:
		return out, fmt.Errorf("button %d: need center, or lower and upper: %w", i, ErrBadButton)
	}

	color, err := ParseColor(b.Color)
	if err != nil {
		return out, fmt.Errorf("button %d: %v: %w", i, err, ErrBadButton)
	}
	out.Color = color

	switch {
	case b.Script != "" && b.Actions == "":
		path := b.Script
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		out.Script, err = ducky.ParseFile(path, i)
	case b.Script == "" && b.Actions != "":
		out.Script, err = ducky.Parse(fmt.Sprintf("button %d", i), strings.NewReader(b.Actions), i)
	default:
		return out, fmt.Errorf("button %d: need one of script or actions: %w", i, ErrBadButton)
	}
	if err != nil {
		return out, fmt.Errorf("button %d: %w", i, err)
	}
	return out, nil
}

// ParseColor accepts "#rrggbb" or "#rgb".
func ParseColor(s string) (device.Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return device.Off, fmt.Errorf("color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return device.RGB(r, g, b), nil
}

// Keypad binds every button script to the device and builds the keypad
// configuration.
func (c *Config) Keypad(kb device.Keyboard, strip device.Strip) (keypad.Config, error) {
	var kc keypad.Config
	for i, b := range c.Buttons {
		action, err := b.Script.Action(kb, strip)
		if err != nil {
			return kc, fmt.Errorf("button %d: %w", i, err)
		}
		kc.Windows = append(kc.Windows, b.Window)
		kc.Colors = append(kc.Colors, b.Color)
		kc.Actions = append(kc.Actions, action)
	}
	return kc, nil
}

// Find returns the config file to use: the given path if set, otherwise
// config.yaml next to the executable, in the working directory or in
// ~/.ladderpad.
func Find(path, executablePath string) (string, error) {
	if path != "" {
		if !fileExists(path) {
			return "", fmt.Errorf("%s: %w", path, ErrNoConfig)
		}
		return path, nil
	}

	candidates := []string{filepath.Join(filepath.Dir(executablePath), configFilename)}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, configFilename))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".ladderpad", configFilename))
	}

	for _, p := range candidates {
		if fileExists(p) {
			return p, nil
		}
	}
	return "", ErrNoConfig
}

// ValidDriver reports whether d names a known driver.
func ValidDriver(d string) bool {
	for _, name := range Drivers {
		if d == name {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
