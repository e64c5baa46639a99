// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package efivarfs provides access to EFI variables through a small
// ReadWriter abstraction with firmware, sysfs and in-memory backends.
package efivarfs

import (
	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"
)

// Encoding defines the default encoding used by EFI strings.
var Encoding = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

var (
	// ScopeGlobal is the scope of variables defined by the EFI specification itself.
	ScopeGlobal = uuid.MustParse("8be4df61-93ca-11d2-aa0d-00e098032b8c")
	// ScopeRefind is the scope of the boot manager variables (hidden tags and friends).
	ScopeRefind = uuid.MustParse("36d08fa7-cf0b-42f5-8f14-68df73ed3740")
)

// Attribute contains a bitset of EFI variable attributes.
type Attribute uint32

// EFI variable attributes.
const (
	// AttrNonVolatile means the variable persists across reboots.
	AttrNonVolatile Attribute = 1 << iota
	// AttrBootserviceAccess means the variable is accessible while boot services are available.
	AttrBootserviceAccess
	// AttrRuntimeAccess means the variable is accessible after ExitBootServices.
	AttrRuntimeAccess
	// AttrHardwareErrorRecord marks hardware error records.
	AttrHardwareErrorRecord
	// AttrAuthenticatedWriteAccess is deprecated by the UEFI specification.
	AttrAuthenticatedWriteAccess
	// AttrTimeBasedAuthenticatedWriteAccess requires time-based authentication for writes.
	AttrTimeBasedAuthenticatedWriteAccess
	// AttrAppendWrite makes writes append to the variable.
	AttrAppendWrite
)

// ReadWriter is an interface for reading, writing and listing EFI variables.
//
// Read returns an error wrapping fs.ErrNotExist if the variable does not exist.
type ReadWriter interface {
	Write(scope uuid.UUID, varName string, attrs Attribute, value []byte) error
	Delete(scope uuid.UUID, varName string) error
	Read(scope uuid.UUID, varName string) ([]byte, Attribute, error)
	List(scope uuid.UUID) ([]string, error)
}
