// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package efivarfs

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ecks/uefi/efi/efiguid"
	"github.com/ecks/uefi/efi/efivario"
	"github.com/google/uuid"
)

// ContextReadWriter accesses EFI variables through the platform firmware
// interface exposed by efivario.
type ContextReadWriter struct {
	c efivario.Context
}

// NewContextReadWriter wraps an efivario context.
func NewContextReadWriter(c efivario.Context) *ContextReadWriter {
	return &ContextReadWriter{c: c}
}

// NewDefaultContextReadWriter uses the default efivario context of the platform.
func NewDefaultContextReadWriter() *ContextReadWriter {
	return NewContextReadWriter(efivario.NewDefaultContext())
}

func toEFIGUID(scope uuid.UUID) efiguid.GUID {
	return efiguid.MustFromString(scope.String())
}

// Read implements ReadWriter.
func (rw *ContextReadWriter) Read(scope uuid.UUID, varName string) ([]byte, Attribute, error) {
	attrs, data, err := efivario.ReadAll(rw.c, varName, toEFIGUID(scope))
	if err != nil {
		if errors.Is(err, efivario.ErrNotFound) {
			return nil, 0, fmt.Errorf("variable %s-%s: %w", varName, scope, fs.ErrNotExist)
		}

		return nil, 0, err
	}

	return data, Attribute(attrs), nil
}

// Write implements ReadWriter.
func (rw *ContextReadWriter) Write(scope uuid.UUID, varName string, attrs Attribute, value []byte) error {
	return rw.c.Set(varName, toEFIGUID(scope), efivario.Attributes(attrs), value)
}

// Delete implements ReadWriter.
func (rw *ContextReadWriter) Delete(scope uuid.UUID, varName string) error {
	return rw.c.Delete(varName, toEFIGUID(scope))
}

// List implements ReadWriter.
//
// Variable enumeration is not exposed through this backend; use the
// FilesystemReaderWriter when a listing is required.
func (rw *ContextReadWriter) List(uuid.UUID) ([]string, error) {
	return nil, errors.ErrUnsupported
}
