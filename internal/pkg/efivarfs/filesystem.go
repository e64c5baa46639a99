// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package efivarfs

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// DefaultPath is the mount point of efivarfs on Linux.
const DefaultPath = "/sys/firmware/efi/efivars"

// guidLength is the length of the textual GUID suffix of an efivarfs file name.
const guidLength = 36

// FilesystemReaderWriter reads and writes EFI variables stored in the Linux
// efivarfs layout: one file per variable named "<name>-<guid>", with the
// attributes as a 4-byte little-endian prefix of the contents.
type FilesystemReaderWriter struct {
	fs    afero.Fs
	write bool
}

// NewFilesystemReaderWriter returns a ReadWriter over the efivarfs directory
// represented by root.
//
// If write is false, Write and Delete return an error.
func NewFilesystemReaderWriter(root afero.Fs, write bool) *FilesystemReaderWriter {
	return &FilesystemReaderWriter{
		fs:    root,
		write: write,
	}
}

// NewSystemReaderWriter returns a ReadWriter over the host efivarfs mount.
func NewSystemReaderWriter(write bool) *FilesystemReaderWriter {
	return NewFilesystemReaderWriter(afero.NewBasePathFs(afero.NewOsFs(), DefaultPath), write)
}

func varPath(scope uuid.UUID, varName string) string {
	return fmt.Sprintf("/%s-%s", varName, scope.String())
}

// Write implements ReadWriter.
func (rw *FilesystemReaderWriter) Write(scope uuid.UUID, varName string, attrs Attribute, value []byte) error {
	if !rw.write {
		return errors.New("efivarfs was opened read-only")
	}

	data := make([]byte, 4, 4+len(value))
	binary.LittleEndian.PutUint32(data, uint32(attrs))
	data = append(data, value...)

	if err := afero.WriteFile(rw.fs, varPath(scope, varName), data, 0o644); err != nil {
		return fmt.Errorf("error writing variable %s: %w", varName, err)
	}

	return nil
}

// Delete implements ReadWriter.
func (rw *FilesystemReaderWriter) Delete(scope uuid.UUID, varName string) error {
	if !rw.write {
		return errors.New("efivarfs was opened read-only")
	}

	return rw.fs.Remove(varPath(scope, varName))
}

// Read implements ReadWriter.
func (rw *FilesystemReaderWriter) Read(scope uuid.UUID, varName string) ([]byte, Attribute, error) {
	data, err := afero.ReadFile(rw.fs, varPath(scope, varName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, fmt.Errorf("variable %s-%s: %w", varName, scope, fs.ErrNotExist)
		}

		return nil, 0, fmt.Errorf("error reading variable %s: %w", varName, err)
	}

	if len(data) < 4 {
		return nil, 0, fmt.Errorf("variable %s is truncated: %d bytes", varName, len(data))
	}

	return data[4:], Attribute(binary.LittleEndian.Uint32(data[:4])), nil
}

// List implements ReadWriter.
func (rw *FilesystemReaderWriter) List(scope uuid.UUID) ([]string, error) {
	entries, err := afero.ReadDir(rw.fs, "/")
	if err != nil {
		return nil, fmt.Errorf("error listing variables: %w", err)
	}

	var names []string

	for _, entry := range entries {
		name := entry.Name()

		if len(name) < guidLength+2 || name[len(name)-guidLength-1] != '-' {
			continue
		}

		guid, err := uuid.Parse(name[len(name)-guidLength:])
		if err != nil || guid != scope {
			continue
		}

		names = append(names, name[:len(name)-guidLength-1])
	}

	return names, nil
}
