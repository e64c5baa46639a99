// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package scan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/bootscan/pkg/config"
	"github.com/siderolabs/bootscan/pkg/menu"
	"github.com/siderolabs/bootscan/pkg/scan"
)

func TestScanManual(t *testing.T) {
	t.Parallel()

	self := newVolume("ESP")
	writeFile(t, self, "/EFI/arch/vmlinuz-linux", loader("arch"), epoch)
	writeFile(t, self, "/EFI/arch/arch.png", []byte("png"), epoch)

	root := newVolume("ROOT")
	root.PartName = "Linux root"
	writeFile(t, root, "/boot/vmlinuz-6.6", loader("6.6"), epoch)

	cfg := configWith(func(o *config.Options) {
		o.ScanFor = "m"
		o.Manual = []config.Stanza{
			{
				Title:   "Arch Linux",
				Loader:  `EFI\arch\vmlinuz-linux`,
				Initrd:  `EFI\arch\initramfs-linux.img`,
				Options: "root=PARTUUID=1234 rw",
				OSType:  "Linux",
				Icon:    `EFI\arch\arch.png`,
			},
			{
				Title:    "Disabled",
				Loader:   `EFI\arch\vmlinuz-linux`,
				Disabled: true,
			},
			{
				Title:  "Missing",
				Loader: `EFI\missing\loader.efi`,
			},
			{
				Title:  "Elsewhere",
				Volume: "Linux root",
				Loader: `\boot\vmlinuz-6.6`,
				OSType: "grub",
			},
			{
				Title:  "Nowhere",
				Volume: "Unknown",
				Loader: `\boot\vmlinuz-6.6`,
			},
		}
	})

	result := newScanner(t, cfg, scan.WithSelf(self, `\EFI\refind\refind_x64.efi`), scan.WithVolumes(self, root)).ScanForBootloaders()

	require.Equal(t, []string{"Boot Arch Linux from ESP", "Boot Elsewhere from ROOT"}, titles(result.Menu.Entries))

	arch := result.Menu.Entries[0]
	assert.Equal(t, `\EFI\arch\vmlinuz-linux`, arch.LoaderPath)
	assert.Equal(t, `\EFI\arch\initramfs-linux.img`, arch.InitrdPath)
	assert.Equal(t, `initrd=\EFI\arch\initramfs-linux.img root=PARTUUID=1234 rw`, arch.LoadOptions)
	assert.Equal(t, menu.OSTypeLinux, arch.OSType)
	assert.Equal(t, 'A', arch.ShortcutLetter)
	assert.Equal(t, `EFI\arch\arch.png`, arch.Image.Name)
	assert.False(t, arch.UseGraphicsMode)

	require.NotNil(t, arch.SubScreen)
	assert.Equal(t, "Boot Options for Arch Linux on ESP", arch.SubScreen.Title)
	assert.Equal(t, []string{"Boot Linux with Default Options", "Return to Main Menu"}, titles(arch.SubScreen.Entries))

	elsewhere := result.Menu.Entries[1]
	assert.Equal(t, menu.OSTypeGrub, elsewhere.OSType)
	assert.Equal(t, "os_grub", elsewhere.Image.Name)
	assert.Equal(t, "ROOT", elsewhere.Volume.VolName)
}

func TestScanManualReturnEntryFailure(t *testing.T) {
	t.Parallel()

	self := newVolume("ESP")
	writeFile(t, self, "/EFI/arch/vmlinuz-linux", loader("arch"), epoch)

	cfg := configWith(func(o *config.Options) {
		o.ScanFor = "m"
		o.Manual = []config.Stanza{{Title: "Arch", Loader: `EFI\arch\vmlinuz-linux`}}
	})

	s := newScanner(t, cfg, scan.WithSelf(self, `\EFI\refind\refind_x64.efi`))
	scan.SetReturnEntryFactory(s, func() *menu.Entry { return nil })

	result := s.ScanForBootloaders()

	require.Len(t, result.Menu.Entries, 1)
	assert.Nil(t, result.Menu.Entries[0].SubScreen)
}
