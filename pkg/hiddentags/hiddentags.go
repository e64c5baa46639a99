// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package hiddentags reads and writes the persisted lists of menu items the
// user chose to hide.
//
// Each list is a comma-delimited UTF-16 string stored in a firmware
// variable of the boot manager's vendor scope.
package hiddentags

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/siderolabs/gen/xerrors"

	"github.com/siderolabs/bootscan/internal/pkg/efivarfs"
	"github.com/siderolabs/bootscan/internal/pkg/pathutil"
)

// Variable is the name of a hidden-tag variable.
type Variable string

// Hidden-tag variables.
const (
	// Tags holds hidden loader files, merged into the deny-by-file list.
	Tags Variable = "HiddenTags"
	// Legacy holds hidden legacy volumes, merged into the deny-by-volume list.
	Legacy Variable = "HiddenLegacy"
	// Tools holds hidden tool files.
	Tools Variable = "HiddenTools"
	// Firmware holds hidden firmware boot entry labels.
	Firmware Variable = "HiddenFirmware"
)

// Variables lists every hidden-tag variable.
var Variables = []Variable{Tags, Legacy, Tools, Firmware}

// NotSet tags the error returned for a variable that does not exist.
type NotSet struct{}

// Store accesses hidden-tag variables.
type Store struct {
	rw efivarfs.ReadWriter
}

// NewStore returns a Store backed by rw.
func NewStore(rw efivarfs.ReadWriter) *Store {
	return &Store{rw: rw}
}

// Read returns the items of a hidden-tag variable.
//
// A missing variable is reported with an error tagged NotSet.
func (s *Store) Read(v Variable) ([]string, error) {
	value, err := efivarfs.ReadString(s.rw, efivarfs.ScopeRefind, string(v))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, xerrors.NewTaggedf[NotSet]("%s is not set", v)
		}

		return nil, fmt.Errorf("error reading %s: %w", v, err)
	}

	return pathutil.SplitList(value), nil
}

// ReadOptional is like Read, but treats a missing variable as empty.
func (s *Store) ReadOptional(v Variable) ([]string, error) {
	items, err := s.Read(v)
	if err != nil && xerrors.TagIs[NotSet](err) {
		return nil, nil
	}

	return items, err
}

// Add appends items to a hidden-tag variable, skipping those already
// present (case-insensitively).
func (s *Store) Add(v Variable, items ...string) error {
	current, err := s.ReadOptional(v)
	if err != nil {
		return err
	}

	return s.write(v, pathutil.AppendUnique(current, items...))
}

// Remove drops items from a hidden-tag variable. The variable is deleted
// once it is empty.
func (s *Store) Remove(v Variable, items ...string) error {
	current, err := s.ReadOptional(v)
	if err != nil {
		return err
	}

	remaining := slices.DeleteFunc(current, func(item string) bool {
		return pathutil.ContainsFold(items, item)
	})

	return s.write(v, remaining)
}

// Clear deletes a hidden-tag variable. Clearing a missing variable is not
// an error.
func (s *Store) Clear(v Variable) error {
	if err := s.rw.Delete(efivarfs.ScopeRefind, string(v)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error deleting %s: %w", v, err)
	}

	return nil
}

func (s *Store) write(v Variable, items []string) error {
	if len(items) == 0 {
		return s.Clear(v)
	}

	if err := efivarfs.WriteString(s.rw, efivarfs.ScopeRefind, string(v), strings.Join(items, ",")); err != nil {
		return fmt.Errorf("error writing %s: %w", v, err)
	}

	return nil
}
