// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/bootscan/internal/pkg/efivarfs"
	"github.com/siderolabs/bootscan/pkg/hiddentags"
	"github.com/siderolabs/bootscan/pkg/menu"
	"github.com/siderolabs/bootscan/pkg/scan"
	"github.com/siderolabs/bootscan/pkg/volume"
)

// These tests share the package level flag variables and must not run in
// parallel.

func loaderImage(payload string) []byte {
	buf := make([]byte, 96)

	copy(buf, "MZ")
	binary.LittleEndian.PutUint32(buf[0x3c:], 0x40)
	copy(buf[0x40:], "PE\x00\x00")
	binary.LittleEndian.PutUint16(buf[0x44:], pe.IMAGE_FILE_MACHINE_AMD64)

	return append(buf, payload...)
}

func useOptions(t *testing.T, o Options) {
	t.Helper()

	saved := *options
	*options = o

	t.Cleanup(func() { *options = saved })
}

func newHost(t *testing.T) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()

	require.NoError(t, afero.WriteFile(fs, "/vols/esp/EFI/BOOT/bootx64.efi", loaderImage("fallback"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/vols/esp/EFI/ubuntu/grubx64.efi", loaderImage("grub"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/vols/esp/EFI/refind/refind_x64.efi", loaderImage("refind"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/vols/volumes.yaml", []byte("volumes:\n  - dir: esp\n    volName: ESP\n    partName: EFI system partition\n"), 0o644))
	require.NoError(t, fs.MkdirAll("/efivars", 0o755))

	return fs
}

func TestScanCmd(t *testing.T) {
	fs := newHost(t)

	useOptions(t, Options{
		VolumesDir: "/vols",
		Manifest:   "volumes.yaml",
		Self:       `ESP:\EFI\refind\refind_x64.efi`,
		EFIVars:    "none",
	})

	scanCmdFlags.tools = false

	var out, errOut bytes.Buffer

	require.NoError(t, runScanCmd(fs, &out, &errOut))

	assert.Contains(t, out.String(), `\EFI\ubuntu\grubx64.efi`)
	assert.Contains(t, out.String(), "Boot Fallback Loader from ESP")
	assert.NotContains(t, out.String(), "refind_x64.efi")
	assert.Empty(t, errOut.String())
}

func TestScanCmdMalformedVolume(t *testing.T) {
	fs := newHost(t)

	require.NoError(t, fs.MkdirAll("/vols/usb", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/vols/volumes.yaml", []byte("volumes:\n  - dir: esp\n    volName: ESP\n  - dir: usb\n    partGUID: nope\n"), 0o644))

	useOptions(t, Options{VolumesDir: "/vols", Manifest: "volumes.yaml", EFIVars: "none"})

	scanCmdFlags.tools = false

	var out, errOut bytes.Buffer

	require.NoError(t, runScanCmd(fs, &out, &errOut))

	assert.Contains(t, out.String(), `\EFI\ubuntu\grubx64.efi`)
	assert.Contains(t, errOut.String(), "WARN volume usb: invalid partition GUID")

	out.Reset()
	errOut.Reset()

	require.NoError(t, runVolumesCmd(fs, &out, &errOut))

	assert.Contains(t, out.String(), "ESP")
	assert.NotContains(t, out.String(), "usb")
	assert.Contains(t, errOut.String(), "WARN volume usb: invalid partition GUID")
}

func TestScanCmdNoLoaders(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/vols/empty", 0o755))

	useOptions(t, Options{VolumesDir: "/vols", EFIVars: "none"})

	scanCmdFlags.tools = false

	var out, errOut bytes.Buffer

	assert.ErrorIs(t, runScanCmd(fs, &out, &errOut), scan.ErrNoLoaders)
	assert.Contains(t, errOut.String(), "Could Not Find Boot Loaders")
}

func TestVolumesCmd(t *testing.T) {
	fs := newHost(t)

	useOptions(t, Options{VolumesDir: "/vols", Manifest: "volumes.yaml"})

	var out bytes.Buffer

	require.NoError(t, runVolumesCmd(fs, &out, &bytes.Buffer{}))

	assert.Contains(t, out.String(), "ESP")
	assert.Contains(t, out.String(), "FAT")
	assert.Contains(t, out.String(), "internal")
	assert.Contains(t, out.String(), "306 B")
}

func TestHiddenTagsCmd(t *testing.T) {
	fs := newHost(t)

	useOptions(t, Options{EFIVars: "/efivars"})

	hiddenTagsCmdFlags.variable = "tools"

	t.Cleanup(func() { hiddenTagsCmdFlags.variable = "" })

	require.NoError(t, updateHiddenTags(fs, func(s *hiddentags.Store, v hiddentags.Variable) error {
		return s.Add(v, `ESP:\EFI\tools\shell.efi`, "gptsync")
	}))

	items, err := hiddentags.NewStore(efivarfs.NewFilesystemReaderWriter(afero.NewBasePathFs(fs, "/efivars"), false)).Read(hiddentags.Tools)
	require.NoError(t, err)
	assert.Equal(t, []string{`ESP:\EFI\tools\shell.efi`, "gptsync"}, items)

	hiddenTagsCmdFlags.variable = ""

	var out bytes.Buffer

	require.NoError(t, runHiddenTagsList(fs, &out))
	assert.Contains(t, out.String(), "HiddenTools")
	assert.Contains(t, out.String(), "gptsync")

	hiddenTagsCmdFlags.variable = "HiddenTools"

	require.NoError(t, updateHiddenTags(fs, func(s *hiddentags.Store, v hiddentags.Variable) error {
		return s.Clear(v)
	}))

	out.Reset()

	require.NoError(t, runHiddenTagsList(fs, &out))
	assert.NotContains(t, out.String(), "gptsync")

	hiddenTagsCmdFlags.variable = "swap"

	assert.ErrorContains(t, runHiddenTagsList(fs, &out), "unknown hidden tag list")
}

func TestFirmwareCmd(t *testing.T) {
	fs := newHost(t)

	useOptions(t, Options{EFIVars: "/efivars"})

	vars := efivarfs.NewFilesystemReaderWriter(afero.NewBasePathFs(fs, "/efivars"), true)

	require.NoError(t, efivarfs.SetBootEntry(vars, 0x0001, &efivarfs.LoadOption{
		Description: "ubuntu",
		FilePath:    efivarfs.DevicePath{efivarfs.FilePath(`\EFI\ubuntu\shimx64.efi`)},
	}))
	require.NoError(t, efivarfs.SetBootEntry(vars, 0x0002, &efivarfs.LoadOption{
		Description: "UEFI Shell",
		FilePath:    efivarfs.DevicePath{efivarfs.FilePath(`\shell.efi`)},
	}))
	require.NoError(t, efivarfs.SetBootOrder(vars, efivarfs.BootOrder{0x0001, 0x0002}))

	var out bytes.Buffer

	require.NoError(t, runFirmwareOrder(fs, []string{"Boot0002", "1"}))
	require.NoError(t, runFirmwareUpdate(fs, &out, "0001", func(opt *efivarfs.LoadOption) { opt.Description = "Ubuntu 24.04" }))
	require.NoError(t, runFirmwareUpdate(fs, &out, "2", func(opt *efivarfs.LoadOption) { opt.Inactive = true }))

	assert.Contains(t, out.String(), "Boot0001: Ubuntu 24.04 (active: true)")
	assert.Contains(t, out.String(), "Boot0002: UEFI Shell (active: false)")

	order, err := efivarfs.GetBootOrder(vars)
	require.NoError(t, err)
	assert.Equal(t, efivarfs.BootOrder{0x0002, 0x0001}, order)

	out.Reset()

	require.NoError(t, runFirmwareList(fs, &out, &bytes.Buffer{}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "UEFI Shell")
	assert.Contains(t, lines[1], "false")
	assert.Contains(t, lines[2], "Ubuntu 24.04")
	assert.Contains(t, lines[2], `\EFI\ubuntu\shimx64.efi`)

	assert.ErrorContains(t, runFirmwareOrder(fs, []string{"0007"}), "error reading Boot0007")
	assert.ErrorContains(t, runFirmwareUpdate(fs, &out, "zz", func(*efivarfs.LoadOption) {}), "invalid boot entry number")
}

func TestFindSelf(t *testing.T) {
	esp := &volume.Volume{VolName: "ESP", PartName: "EFI system partition"}

	for _, tc := range []struct {
		location string
		path     string
		errorMsg string
	}{
		{location: `ESP:\EFI\refind\refind_x64.efi`, path: `\EFI\refind\refind_x64.efi`},
		{location: `efi system partition:\EFI\refind\refind_x64.efi`, path: `\EFI\refind\refind_x64.efi`},
		{location: `\EFI\refind\refind_x64.efi`, errorMsg: "expected volume:path"},
		{location: `Data:\EFI\refind\refind_x64.efi`, errorMsg: "not found"},
	} {
		t.Run(tc.location, func(t *testing.T) {
			vol, path, err := findSelf([]*volume.Volume{esp}, tc.location)
			if tc.errorMsg != "" {
				assert.ErrorContains(t, err, tc.errorMsg)

				return
			}

			require.NoError(t, err)
			assert.Same(t, esp, vol)
			assert.Equal(t, tc.path, path)
		})
	}
}

func TestFormatMenu(t *testing.T) {
	esp := &volume.Volume{VolName: "ESP"}

	screen := &menu.Screen{
		Entries: []*menu.Entry{
			{
				Title:          "Boot Linux | rescue from ESP",
				ShortcutDigit:  '1',
				ShortcutLetter: 'L',
				LoaderPath:     `\EFI\arch\vmlinuz`,
				Volume:         esp,
				LoadOptions:    "ro quiet",
				SubScreen: &menu.Screen{
					Entries: []*menu.Entry{menu.NewReturnEntry()},
				},
			},
			{
				Title: "Reboot to Firmware",
				Tag:   menu.TagFirmware,
				Row:   1,
			},
		},
	}

	assert.Equal(t, []string{
		"ROW | KEY | TAG | TITLE | VOLUME | PATH | OPTIONS",
		`0 | 1,L | loader | Boot Linux / rescue from ESP | ESP | \EFI\arch\vmlinuz | ro quiet`,
		"1 | - | firmware | Reboot to Firmware | - | - | -",
	}, formatMenu(screen, false))

	assert.Len(t, formatMenu(screen, true), 4)
	assert.Contains(t, formatMenu(screen, true)[2], "- Return to Main Menu")
}
