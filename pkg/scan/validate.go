// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package scan

import (
	"debug/pe"
	"io"
	"slices"

	"github.com/siderolabs/bootscan/internal/pkg/pathutil"
	"github.com/siderolabs/bootscan/pkg/volume"
)

// EFI subsystems accepted for loaders.
var efiSubsystems = []uint16{
	pe.IMAGE_SUBSYSTEM_EFI_APPLICATION,
	pe.IMAGE_SUBSYSTEM_EFI_BOOT_SERVICE_DRIVER,
	pe.IMAGE_SUBSYSTEM_EFI_RUNTIME_DRIVER,
	pe.IMAGE_SUBSYSTEM_EFI_ROM,
}

// PEValidator accepts PE images built for one machine type.
type PEValidator struct {
	Machines []uint16
}

// NewPEValidator returns a validator for x86-64 images.
func NewPEValidator() *PEValidator {
	return &PEValidator{
		Machines: []uint16{pe.IMAGE_FILE_MACHINE_AMD64},
	}
}

// IsValidLoader implements Validator.
//
// Images carrying an optional header must also declare an EFI subsystem.
func (v *PEValidator) IsValidLoader(vol *volume.Volume, path string) bool {
	if vol == nil || vol.Root == nil {
		return false
	}

	f, err := vol.Root.Open(pathutil.FSPath(path))
	if err != nil {
		return false
	}

	defer f.Close() //nolint:errcheck

	ra, ok := f.(io.ReaderAt)
	if !ok {
		return false
	}

	peFile, err := pe.NewFile(ra)
	if err != nil {
		return false
	}

	defer peFile.Close() //nolint:errcheck

	if !slices.Contains(v.Machines, peFile.Machine) {
		return false
	}

	switch hdr := peFile.OptionalHeader.(type) {
	case *pe.OptionalHeader64:
		return slices.Contains(efiSubsystems, hdr.Subsystem)
	case *pe.OptionalHeader32:
		return slices.Contains(efiSubsystems, hdr.Subsystem)
	default:
		return true
	}
}
