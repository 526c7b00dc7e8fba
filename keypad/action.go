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

import "fmt"

// ActionEntry is the behavior bound to one button. Execute runs to
// completion on the polling goroutine.
type ActionEntry interface {
	Execute() error
}

// ActionFunc adapts an ordinary function to ActionEntry.
type ActionFunc func() error

// Execute implements ActionEntry.
func (f ActionFunc) Execute() error {
	return f()
}

// Registry holds one ActionEntry per button, indexed by button identity.
// It is never modified after construction.
type Registry struct {
	entries []ActionEntry
}

// NewRegistry copies the entries so later changes to the slice are not
// observed.
func NewRegistry(entries ...ActionEntry) *Registry {
	r := &Registry{entries: make([]ActionEntry, len(entries))}
	copy(r.entries, entries)
	return r
}

// Len returns the number of registered entries.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Dispatch runs the entry for button idx.
func (r *Registry) Dispatch(idx int) error {
	if idx < 0 || idx >= len(r.entries) {
		return fmt.Errorf("dispatch %d: %w", idx, ErrNoSuchButton)
	}
	if err := r.entries[idx].Execute(); err != nil {
		return fmt.Errorf("button %d action: %w", idx, err)
	}
	return nil
}
