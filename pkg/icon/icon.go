// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package icon defines menu images and the icon resolution interface.
package icon

import (
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/siderolabs/bootscan/internal/pkg/pathutil"
)

// Image is an encoded icon or badge image.
//
// Name records where the image came from (a hint word, a file path or a
// builtin identifier).
type Image struct {
	Name string
	Data []byte
}

// Clone returns a deep copy of the image.
func (img *Image) Clone() *Image {
	if img == nil {
		return nil
	}

	return &Image{
		Name: img.Name,
		Data: slices.Clone(img.Data),
	}
}

// Loader resolves icons.
type Loader interface {
	// LoadOSIcon resolves an ordered list of hint words into an image,
	// trying fallback last. It returns a generic placeholder when nothing
	// matches.
	LoadOSIcon(hints []string, fallback string) *Image
	// LoadFile loads an icon stored on a volume at an EFI path, returning
	// nil if there is no usable image there.
	LoadFile(root afero.Fs, path string) *Image
	// Builtin returns one of the built-in images (badges, tool icons).
	Builtin(name string) *Image
}

// Builtin image names.
const (
	BuiltinVolumeEFI       = "vol_efi"
	BuiltinVolumeNet       = "vol_net"
	BuiltinFuncAbout       = "func_about"
	BuiltinFuncExit        = "func_exit"
	BuiltinFuncShutdown    = "func_shutdown"
	BuiltinFuncReset       = "func_reset"
	BuiltinFuncInstall     = "func_install"
	BuiltinFuncBootorder   = "func_bootorder"
	BuiltinFuncCleanNVRAM  = "func_clean_nvram"
	BuiltinFuncHidden      = "func_hidden"
	BuiltinFuncFirmware    = "func_firmware"
	BuiltinFuncCSR         = "func_csr_rotate"
	BuiltinToolShell       = "tool_shell"
	BuiltinToolPart        = "tool_part"
	BuiltinToolNetboot     = "tool_netboot"
	BuiltinToolMOK         = "tool_mok_tool"
	BuiltinToolFwupdate    = "tool_fwupdate"
	BuiltinToolMemtest     = "tool_memtest"
	BuiltinToolWinRescue   = "tool_windows_rescue"
	BuiltinToolAppleRescue = "tool_apple_rescue"
)

// NameLoader is a Loader that produces images carrying only their resolved
// names. It is used when no graphical front-end is attached, so that hint
// resolution can still be inspected.
type NameLoader struct{}

// LoadOSIcon implements Loader.
func (NameLoader) LoadOSIcon(hints []string, fallback string) *Image {
	for _, hint := range hints {
		if hint != "" {
			return &Image{Name: "os_" + strings.ToLower(hint)}
		}
	}

	if fallback == "" {
		fallback = "unknown"
	}

	return &Image{Name: "os_" + strings.ToLower(fallback)}
}

// LoadFile implements Loader.
func (NameLoader) LoadFile(root afero.Fs, path string) *Image {
	if root == nil {
		return nil
	}

	data, err := afero.ReadFile(root, pathutil.FSPath(path))
	if err != nil || len(data) == 0 {
		return nil
	}

	return &Image{Name: path, Data: data}
}

// Builtin implements Loader.
func (NameLoader) Builtin(name string) *Image {
	return &Image{Name: name}
}
