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

package device

import (
	"time"

	"go.uber.org/zap"
)

// LogKeyboard is a Keyboard for hosts that cannot inject keystrokes. It
// logs each action instead.
type LogKeyboard struct {
	logger *zap.SugaredLogger
}

// NewLogKeyboard returns a keyboard logging to logger.
func NewLogKeyboard(logger *zap.SugaredLogger) *LogKeyboard {
	return &LogKeyboard{logger: logger.Named("keyboard")}
}

func (k *LogKeyboard) SendKeyStroke(key, modifiers uint8) error {
	k.logger.Infow("Keystroke", "usage", key, "modifiers", modifiers)
	return nil
}

func (k *LogKeyboard) Print(text string) error {
	k.logger.Infow("Type", "text", text)
	return nil
}

func (k *LogKeyboard) Delay(d time.Duration) {
	time.Sleep(d)
}
