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
	"math"
	"slices"
	"strings"
)

// Load option attribute bits.
const (
	loadOptionActive       uint32 = 0x01
	loadOptionHidden       uint32 = 0x08
	loadOptionCategoryMask uint32 = 0x1f00
)

// LoadOptionCategory defines the category of a load option.
type LoadOptionCategory uint8

const (
	// LoadOptionCategoryBoot is the default category for boot entries.
	LoadOptionCategoryBoot LoadOptionCategory = 0x0
	// LoadOptionCategoryApp is the category for entries launched only via menu or hotkey.
	LoadOptionCategoryApp LoadOptionCategory = 0x1
)

// LoadOption is a decoded EFI_LOAD_OPTION, the payload of a Boot#### variable.
type LoadOption struct {
	// Description is the label shown by the firmware boot menu.
	Description string
	// Inactive entries are skipped by the firmware when walking BootOrder.
	Inactive bool
	// Hidden entries are not shown in firmware menus.
	Hidden   bool
	Category LoadOptionCategory
	// FilePath locates the image to load.
	FilePath DevicePath
	// ExtraPaths are additional vendor-specific device paths.
	ExtraPaths []DevicePath
	// OptionalData is passed to the loaded image.
	OptionalData []byte
}

// Clone returns a deep copy of the load option.
func (e *LoadOption) Clone() *LoadOption {
	if e == nil {
		return nil
	}

	out := *e
	out.FilePath = e.FilePath.Clone()
	out.OptionalData = slices.Clone(e.OptionalData)

	if e.ExtraPaths != nil {
		out.ExtraPaths = make([]DevicePath, 0, len(e.ExtraPaths))

		for _, p := range e.ExtraPaths {
			out.ExtraPaths = append(out.ExtraPaths, p.Clone())
		}
	}

	return &out
}

// Marshal encodes a LoadOption into a binary EFI_LOAD_OPTION.
func (e *LoadOption) Marshal() ([]byte, error) {
	attrs := (uint32(e.Category) << 8) & loadOptionCategoryMask

	if e.Hidden {
		attrs |= loadOptionHidden
	}

	if !e.Inactive {
		attrs |= loadOptionActive
	}

	paths, err := e.FilePath.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed marshaling FilePath: %w", err)
	}

	for _, extra := range e.ExtraPaths {
		raw, err := extra.Marshal()
		if err != nil {
			return nil, fmt.Errorf("failed marshaling ExtraPath: %w", err)
		}

		paths = append(paths, raw...)
	}

	if len(paths) > math.MaxUint16 {
		return nil, fmt.Errorf("device paths too big: %d bytes", len(paths))
	}

	if strings.IndexByte(e.Description, 0x00) != -1 {
		return nil, errors.New("description contains null bytes")
	}

	description, err := Encoding.NewEncoder().Bytes([]byte(e.Description))
	if err != nil {
		return nil, fmt.Errorf("failed to encode description: %w", err)
	}

	out := append32(nil, attrs)
	out = append16(out, uint16(len(paths)))
	out = append(out, description...)
	out = append(out, 0x00, 0x00)
	out = append(out, paths...)
	out = append(out, e.OptionalData...)

	return out, nil
}

// UnmarshalLoadOption decodes a binary EFI_LOAD_OPTION.
func UnmarshalLoadOption(data []byte) (*LoadOption, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("load option needs at least 6 bytes, got %d", len(data))
	}

	attrs := binary.LittleEndian.Uint32(data[0:4])
	pathsLen := int(binary.LittleEndian.Uint16(data[4:6]))

	opt := &LoadOption{
		Category: LoadOptionCategory((attrs & loadOptionCategoryMask) >> 8),
		Hidden:   attrs&loadOptionHidden != 0,
		Inactive: attrs&loadOptionActive == 0,
	}

	rest := data[6:]

	end := -1

	// the description is UCS-2, so the terminator must sit on an even offset
	for i := 0; i+1 < len(rest); i += 2 {
		if rest[i] == 0 && rest[i+1] == 0 {
			end = i

			break
		}
	}

	if end == -1 {
		return nil, errors.New("description is not null-terminated")
	}

	description, err := Encoding.NewDecoder().Bytes(rest[:end])
	if err != nil {
		return nil, fmt.Errorf("error decoding description: %w", err)
	}

	opt.Description = string(bytes.TrimRight(description, "\x00"))
	rest = rest[end+2:]

	if pathsLen > len(rest) {
		return nil, fmt.Errorf("device paths length %d overruns available data %d", pathsLen, len(rest))
	}

	paths := rest[:pathsLen]

	opt.FilePath, paths, err = UnmarshalDevicePath(paths)
	if err != nil {
		return nil, fmt.Errorf("failed unmarshaling FilePath: %w", err)
	}

	for len(paths) > 0 {
		var extra DevicePath

		extra, paths, err = UnmarshalDevicePath(paths)
		if err != nil {
			return nil, fmt.Errorf("failed unmarshaling ExtraPath: %w", err)
		}

		opt.ExtraPaths = append(opt.ExtraPaths, extra)
	}

	if len(rest) > pathsLen {
		opt.OptionalData = slices.Clone(rest[pathsLen:])
	}

	return opt, nil
}

// BootOrder represents the contents of the BootOrder EFI variable.
type BootOrder []uint16

// Marshal generates the binary representation of a BootOrder.
func (t BootOrder) Marshal() []byte {
	out := make([]byte, 0, 2*len(t))

	for _, v := range t {
		out = append16(out, v)
	}

	return out
}

// UnmarshalBootOrder loads a BootOrder from its binary representation.
func UnmarshalBootOrder(d []byte) (BootOrder, error) {
	if len(d)%2 != 0 {
		return nil, fmt.Errorf("invalid length: %v bytes", len(d))
	}

	out := make(BootOrder, len(d)/2)

	for i := range out {
		out[i] = binary.LittleEndian.Uint16(d[2*i:])
	}

	return out, nil
}

func append16(d []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(d, v)
}

func append32(d []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(d, v)
}
