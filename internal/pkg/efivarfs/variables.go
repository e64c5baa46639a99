// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Copyright The Monogon Project Authors.
// SPDX-License-Identifier: Apache-2.0

package efivarfs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// OSIndicationBootToFWUI is the OsIndicationsSupported bit advertising
// that the firmware can be asked to stop in its setup UI on next boot.
const OSIndicationBootToFWUI uint64 = 0x1

// BootEntry is a Boot#### variable together with its index.
type BootEntry struct {
	Index  uint16
	Option *LoadOption
}

// Name returns the variable name of the entry.
func (e BootEntry) Name() string {
	return fmt.Sprintf("Boot%04X", e.Index)
}

// ReadString reads a NUL-terminated UTF-16 string variable.
func ReadString(rw ReadWriter, scope uuid.UUID, varName string) (string, error) {
	raw, _, err := rw.Read(scope, varName)
	if err != nil {
		return "", err
	}

	decoded, err := Encoding.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("error decoding %s: %w", varName, err)
	}

	return string(bytes.TrimRight(decoded, "\x00")), nil
}

// WriteString stores s as a NUL-terminated UTF-16 string variable.
func WriteString(rw ReadWriter, scope uuid.UUID, varName, s string) error {
	encoded, err := Encoding.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return fmt.Errorf("error encoding %s: %w", varName, err)
	}

	return rw.Write(scope, varName, AttrNonVolatile|AttrBootserviceAccess|AttrRuntimeAccess, append(encoded, 0x00, 0x00))
}

// GetBootEntry returns the boot entry at the given index.
func GetBootEntry(rw ReadWriter, idx uint16) (*LoadOption, error) {
	raw, _, err := rw.Read(ScopeGlobal, fmt.Sprintf("Boot%04X", idx))
	if errors.Is(err, fs.ErrNotExist) {
		// some firmware writes lowercase hex indices
		raw, _, err = rw.Read(ScopeGlobal, fmt.Sprintf("Boot%04x", idx))
	}

	if err != nil {
		return nil, err
	}

	return UnmarshalLoadOption(raw)
}

// SetBootEntry writes the given boot entry to the given index.
func SetBootEntry(rw ReadWriter, idx uint16, be *LoadOption) error {
	raw, err := be.Marshal()
	if err != nil {
		return fmt.Errorf("while marshaling the EFI boot entry: %w", err)
	}

	return rw.Write(ScopeGlobal, fmt.Sprintf("Boot%04X", idx), AttrNonVolatile|AttrBootserviceAccess|AttrRuntimeAccess, raw)
}

// UpdateBootEntry applies update to a copy of the boot entry at idx and
// writes it back. The stored entry is left untouched if writing fails.
func UpdateBootEntry(rw ReadWriter, idx uint16, update func(*LoadOption)) (*LoadOption, error) {
	current, err := GetBootEntry(rw, idx)
	if err != nil {
		return nil, err
	}

	updated := current.Clone()
	update(updated)

	if err = SetBootEntry(rw, idx, updated); err != nil {
		return nil, err
	}

	return updated, nil
}

// SetBootOrder replaces contents of the boot order variable.
func SetBootOrder(rw ReadWriter, ord BootOrder) error {
	return rw.Write(ScopeGlobal, "BootOrder", AttrNonVolatile|AttrBootserviceAccess|AttrRuntimeAccess, ord.Marshal())
}

// GetBootOrder returns the current boot order of the system.
func GetBootOrder(rw ReadWriter) (BootOrder, error) {
	raw, _, err := rw.Read(ScopeGlobal, "BootOrder")
	if err != nil {
		return nil, err
	}

	ord, err := UnmarshalBootOrder(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid boot order structure: %w", err)
	}

	return ord, nil
}

// BootOrderEntries returns the boot entries referenced by BootOrder, in order.
//
// A missing BootOrder yields no entries. Entries that are missing are skipped
// silently, entries that fail to decode are skipped and reported in the
// returned error, which is non-nil only together with a partial result.
func BootOrderEntries(rw ReadWriter) ([]BootEntry, error) {
	order, err := GetBootOrder(rw)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, err
	}

	var (
		entries []BootEntry
		errs    *multierror.Error
	)

	for _, idx := range order {
		opt, err := GetBootEntry(rw, idx)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = multierror.Append(errs, fmt.Errorf("Boot%04X: %w", idx, err))
			}

			continue
		}

		entries = append(entries, BootEntry{Index: idx, Option: opt})
	}

	return entries, errs.ErrorOrNil()
}

// OsIndicationsSupported returns the OsIndicationsSupported bitmask, or zero
// if the variable is absent.
func OsIndicationsSupported(rw ReadWriter) (uint64, error) {
	raw, _, err := rw.Read(ScopeGlobal, "OsIndicationsSupported")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}

		return 0, err
	}

	if len(raw) < 8 {
		return 0, fmt.Errorf("OsIndicationsSupported is truncated: %d bytes", len(raw))
	}

	return binary.LittleEndian.Uint64(raw[:8]), nil
}
