// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package scan

import (
	"bytes"
	"errors"
	"io"
	"io/fs"

	"github.com/siderolabs/gen/xerrors"
	"github.com/spf13/afero"

	"github.com/siderolabs/bootscan/internal/pkg/pathutil"
	"github.com/siderolabs/bootscan/pkg/volume"
)

// expectedAbsent tags directory errors that firmware reports for missing or
// unusual directories and that are not worth a warning.
type expectedAbsent struct{}

func fileExists(vol *volume.Volume, path string) bool {
	if vol == nil || vol.Root == nil {
		return false
	}

	st, err := vol.Root.Stat(pathutil.FSPath(path))

	return err == nil && !st.IsDir()
}

func dirExists(vol *volume.Volume, path string) bool {
	if vol == nil || vol.Root == nil {
		return false
	}

	st, err := vol.Root.Stat(pathutil.FSPath(path))

	return err == nil && st.IsDir()
}

// readDir lists a directory sorted by name.
//
// Missing directories and invalid paths are tagged expectedAbsent.
func readDir(vol *volume.Volume, path string) ([]fs.FileInfo, error) {
	if vol == nil || vol.Root == nil {
		return nil, xerrors.NewTaggedf[expectedAbsent]("volume has no root")
	}

	infos, err := afero.ReadDir(vol.Root, pathutil.FSPath(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			return nil, xerrors.NewTaggedf[expectedAbsent]("%w", err)
		}

		return nil, err
	}

	return infos, nil
}

// DuplicatesFallback reports whether fileName on vol is byte-for-byte
// identical to the fallback loader while not being the fallback loader
// itself.
func (s *Scanner) DuplicatesFallback(vol *volume.Volume, fileName string) bool {
	if !fileExists(vol, fileName) || !fileExists(vol, fallbackFullName) {
		return false
	}

	if pathutil.EqualFold(fileName, fallbackFullName) {
		return false
	}

	file, err := vol.Root.Open(pathutil.FSPath(fileName))
	if err != nil {
		return false
	}

	fallback, err := vol.Root.Open(pathutil.FSPath(fallbackFullName))
	if err != nil {
		file.Close() //nolint:errcheck

		return false
	}

	identical := sameContents(file, fallback)

	// The fallback handle is closed first.
	fallback.Close() //nolint:errcheck
	file.Close()     //nolint:errcheck

	return identical
}

func sameContents(a, b afero.File) bool {
	aInfo, err := a.Stat()
	if err != nil {
		return false
	}

	bInfo, err := b.Stat()
	if err != nil {
		return false
	}

	if aInfo.Size() != bInfo.Size() {
		return false
	}

	aData, err := io.ReadAll(a)
	if err != nil {
		return false
	}

	bData, err := io.ReadAll(b)
	if err != nil {
		return false
	}

	return bytes.Equal(aData, bData)
}

// IsSymbolicLink reports whether the file at fullName looks like a symbolic
// link: a fresh open reports a size other than listedSize, the size seen in
// the directory listing. A file that cannot be opened counts as size zero.
//
// The check is approximate. A disk error can flag a regular file, and a
// link to a file of the same size goes unnoticed.
func (s *Scanner) IsSymbolicLink(vol *volume.Volume, fullName string, listedSize int64) bool {
	var freshSize int64

	if vol != nil && vol.Root != nil {
		if f, err := vol.Root.Open(pathutil.FSPath(fullName)); err == nil {
			if st, err := f.Stat(); err == nil {
				freshSize = st.Size()
			}

			f.Close() //nolint:errcheck
		}
	}

	return freshSize != listedSize
}

// hasSignedCounterpart reports whether a signed copy of the loader
// (name + ".efi.signed") sits beside it.
func hasSignedCounterpart(vol *volume.Volume, fullName string) bool {
	return fileExists(vol, fullName+".efi.signed")
}
