// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package scan_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/bootscan/pkg/config"
	"github.com/siderolabs/bootscan/pkg/menu"
	"github.com/siderolabs/bootscan/pkg/scan"
	"github.com/siderolabs/bootscan/pkg/volume"
)

func macVolume(t *testing.T, diags bool) *volume.Volume {
	t.Helper()

	vol := newVolume("Macintosh HD")
	vol.FSType = volume.FSTypeHFSPlus

	writeFile(t, vol, "/System/Library/CoreServices/boot.efi", loader("boot.efi"), epoch)

	if diags {
		writeFile(t, vol, "/System/Library/CoreServices/.diagnostics/diags.efi", loader("diags"), epoch)
	}

	return vol
}

func TestMacOSSubScreen(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name     string
		diags    bool
		hideUI   config.HideUI
		expected int
	}{
		{name: "default", expected: 11},
		{name: "with diagnostics", diags: true, expected: 12},
		{name: "diagnostics hidden", diags: true, hideUI: config.HideUIHWTest, expected: 11},
		{name: "safe mode and single user hidden", hideUI: config.HideUISafeMode | config.HideUISingleUser, expected: 7},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := configWith(func(o *config.Options) {
				o.HideUI = tc.hideUI
			})

			result := newScanner(t, cfg, scan.WithVolumes(macVolume(t, tc.diags))).ScanForBootloaders()

			require.Len(t, result.Menu.Entries, 1)

			mac := result.Menu.Entries[0]
			assert.Equal(t, "Boot MacOS from Macintosh HD", mac.Title)
			assert.Equal(t, menu.OSTypeMacOS, mac.OSType)
			assert.Equal(t, 'M', mac.ShortcutLetter)
			assert.True(t, mac.UseGraphicsMode)

			require.NotNil(t, mac.SubScreen)
			assert.Equal(t, "Boot Options for MacOS on Macintosh HD", mac.SubScreen.Title)
			assert.Len(t, mac.SubScreen.Entries, tc.expected)
			assert.Equal(t, "Boot MacOS with Default Options", mac.SubScreen.Entries[0].Title)
			assert.Equal(t, "Boot MacOS with a 64-bit Kernel", mac.SubScreen.Entries[1].Title)
			assert.Equal(t, "arch=x86_64", mac.SubScreen.Entries[1].LoadOptions)
			assert.Equal(t, menu.TagReturn, mac.SubScreen.Entries[tc.expected-1].Tag)

			if !tc.hideUI.Has(config.HideUISafeMode) {
				assert.Equal(t, "Boot MacOS in Safe Mode (Quiet)", mac.SubScreen.Entries[6].Title)
				assert.Equal(t, "Boot MacOS in Single User Mode (Quiet)", mac.SubScreen.Entries[8].Title)
			}

			if tc.diags && !tc.hideUI.Has(config.HideUIHWTest) {
				hwtest := mac.SubScreen.Entries[tc.expected-2]
				assert.Equal(t, "Run Apple Hardware Test", hwtest.Title)
				assert.Equal(t, `\System\Library\CoreServices\.diagnostics\diags.efi`, hwtest.LoaderPath)
			}
		})
	}
}

func TestDefaultEntryTitle(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name     string
		osType   menu.OSType
		path     string
		expected string
	}{
		{name: "Windows (UEFI)", osType: menu.OSTypeWindows, path: `\EFI\Microsoft\Boot\bootmgfw.efi`, expected: "Boot Windows (UEFI) with Default Options"},
		{name: "Windows (Legacy)", osType: menu.OSTypeWindows, path: `\bootmgr.efi`, expected: "Boot Windows (Legacy) with Default Options"},
		{osType: menu.OSTypeWindows, path: `\bootmgr.efi`, expected: "Boot Windows with Default Options"},
		{name: "MacOS", osType: menu.OSTypeMacOS, path: `\System\Library\CoreServices\boot.efi`, expected: "Boot MacOS with Default Options"},
		{osType: menu.OSTypeLinux, path: `\boot\vmlinuz-6.1.0`, expected: "Boot Linux with Default Options"},
		{osType: menu.OSTypeGrub, path: `\EFI\ubuntu\grubx64.efi`, expected: "Boot Grub with Default Options"},
		{name: "OpenCore", path: `\EFI\OC\OpenCore.efi`, expected: "Boot OpenCore with Default Options"},
		{path: `\EFI\vendor\loader.efi`, expected: "Boot with Default Options"},
	} {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()

			entry := menu.InitializeLoaderEntry(nil)
			entry.Name = tc.name
			entry.OSType = tc.osType
			entry.LoaderPath = tc.path
			entry.Volume = newVolume("ESP")

			screen := newScanner(t, nil).InitializeSubScreen(entry)

			require.Len(t, screen.Entries, 1)
			assert.Equal(t, tc.expected, screen.Entries[0].Title)
		})
	}
}

func TestWindowsInstallMediaLabel(t *testing.T) {
	t.Parallel()

	vol := newVolume("CCCOMA_X64FRE")
	writeFile(t, vol, "/bootmgr.efi", loader("bootmgr"), epoch)
	writeFile(t, vol, "/EFI/BOOT/bootx64.efi", loader("fallback"), epoch)

	result := newScanner(t, nil, scan.WithVolumes(vol)).ScanForBootloaders()

	var windows *menu.Entry

	for _, entry := range result.Menu.Entries {
		if entry.LoaderPath == `\bootmgr.efi` {
			windows = entry
		}
	}

	require.NotNil(t, windows)
	require.NotNil(t, windows.SubScreen)
	assert.NotContains(t, windows.SubScreen.Title, "Legacy")
	assert.Equal(t, "Boot Windows with Default Options", windows.SubScreen.Entries[0].Title)
}

func TestFoldedKernelKeepsEntryVolume(t *testing.T) {
	t.Parallel()

	vol := newVolume("Preboot")
	writeFile(t, vol, "/boot/vmlinuz-6.1.0", loader("6.1.0"), epoch)

	target := menu.InitializeLoaderEntry(nil)
	target.LoaderPath = `\boot\vmlinuz-6.2.0`
	target.Volume = vol.Clone()
	target.Volume.VolName = "PreBoot - Macintosh HD"
	target.SubScreen = &menu.Screen{}

	newScanner(t, nil).AddKernelToSubmenu(target, `\boot\vmlinuz-6.1.0`, vol)

	require.Len(t, target.SubScreen.Entries, 1)

	folded := target.SubScreen.Entries[0]
	assert.Equal(t, `\boot\vmlinuz-6.1.0`, folded.LoaderPath)
	assert.Equal(t, "PreBoot - Macintosh HD", folded.Volume.VolName)
	assert.NotSame(t, target.Volume, folded.Volume)
	assert.Equal(t, "Preboot", vol.VolName)
}

func TestMacOSChainedBootManager(t *testing.T) {
	t.Parallel()

	vol := macVolume(t, false)
	writeFile(t, vol, "/EFI/refind/refind.conf", []byte("timeout 5\n"), epoch)

	result := newScanner(t, nil, scan.WithVolumes(vol)).ScanForBootloaders()

	require.Len(t, result.Menu.Entries, 1)

	entry := result.Menu.Entries[0]
	assert.Equal(t, "Boot RefindPlus from Macintosh HD", entry.Title)
	assert.Equal(t, menu.OSTypeRefind, entry.OSType)
	assert.Equal(t, 'R', entry.ShortcutLetter)
}

func TestLinuxOptionsFile(t *testing.T) {
	t.Parallel()

	vol := newVolume("Linux")
	writeFile(t, vol, "/boot/vmlinuz-6.1.0", loader("6.1.0"), epoch)
	writeFile(t, vol, "/boot/initrd.img-6.1.0", []byte("initrd"), epoch)
	writeFile(t, vol, "/boot/initramfs-6.1.0-fallback.img", []byte("initrd"), epoch)
	writeFile(t, vol, "/boot/refind_linux.conf", []byte(`
# generated
"Boot with standard options"  "ro root=UUID=abc quiet"
"Boot to single-user mode"    "ro root=UUID=abc single"
"Minimal"
`), epoch)

	result := newScanner(t, nil, scan.WithVolumes(vol)).ScanForBootloaders()

	require.Len(t, result.Menu.Entries, 1)

	kernel := result.Menu.Entries[0]
	assert.Equal(t, `\boot\initrd.img-6.1.0`, kernel.InitrdPath)
	assert.Equal(t, `initrd=\boot\initrd.img-6.1.0 ro root=UUID=abc quiet`, kernel.LoadOptions)

	require.NotNil(t, kernel.SubScreen)
	assert.Equal(t, []string{
		"Boot with standard options",
		"Boot to single-user mode",
		"Return to Main Menu",
	}, titles(kernel.SubScreen.Entries))
	assert.Equal(t, `initrd=\boot\initrd.img-6.1.0 ro root=UUID=abc quiet`, kernel.SubScreen.Entries[0].LoadOptions)
	assert.Equal(t, `initrd=\boot\initrd.img-6.1.0 ro root=UUID=abc single`, kernel.SubScreen.Entries[1].LoadOptions)
}

func TestFoldedKernelVersionSubstitution(t *testing.T) {
	t.Parallel()

	vol := newVolume("Linux")
	writeFile(t, vol, "/boot/vmlinuz-6.2.0", loader("6.2.0"), epoch.Add(time.Hour))
	writeFile(t, vol, "/boot/vmlinuz-6.1.0", loader("6.1.0"), epoch)
	writeFile(t, vol, "/boot/initrd.img-6.1.0", []byte("initrd"), epoch)
	writeFile(t, vol, "/boot/refind_linux.conf", []byte(`"Default" "ro root=/dev/sda2 modules=${kernel_version}"`+"\n"), epoch)

	result := newScanner(t, nil, scan.WithVolumes(vol)).ScanForBootloaders()

	require.Len(t, result.Menu.Entries, 1)

	kernel := result.Menu.Entries[0]
	assert.Equal(t, "ro root=/dev/sda2 modules=6.2.0", kernel.LoadOptions)

	require.NotNil(t, kernel.SubScreen)
	require.Len(t, kernel.SubScreen.Entries, 3)

	folded := kernel.SubScreen.Entries[1]
	assert.Equal(t, "vmlinuz-6.1.0: Default", folded.Title)
	assert.Equal(t, `\boot\vmlinuz-6.1.0`, folded.LoaderPath)
	assert.Equal(t, `\boot\initrd.img-6.1.0`, folded.InitrdPath)
	assert.Equal(t, `initrd=\boot\initrd.img-6.1.0 ro root=/dev/sda2 modules=6.1.0`, folded.LoadOptions)
}

func TestLoaderFamilies(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name     string
		path     string
		osType   menu.OSType
		shortcut rune
		subs     int
		info     int
	}{
		{name: "elilo", path: "/EFI/gentoo/elilo.efi", osType: menu.OSTypeELILO, shortcut: 'G', subs: 6, info: 2},
		{name: "xom", path: "/System/Library/CoreServices/xom.efi", osType: menu.OSTypeXOM, shortcut: 'W', subs: 5},
		{name: "refind", path: "/EFI/refind/refind_x64.efi", osType: menu.OSTypeRefind, shortcut: 'R', subs: 2},
		{name: "ipxe", path: "/EFI/net/ipxe.efi", osType: menu.OSTypeNetboot, shortcut: 'N', subs: 2},
		{name: "other", path: "/EFI/vendor/loader.efi", osType: menu.OSTypeUnknown, shortcut: 'V', subs: 2},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			vol := newVolume("ESP")
			writeFile(t, vol, tc.path, loader(tc.name), epoch)

			result := newScanner(t, nil, scan.WithVolumes(vol)).ScanForBootloaders()

			require.Len(t, result.Menu.Entries, 1)

			entry := result.Menu.Entries[0]
			assert.Equal(t, tc.osType, entry.OSType)
			assert.Equal(t, tc.shortcut, entry.ShortcutLetter)

			require.NotNil(t, entry.SubScreen)
			assert.Len(t, entry.SubScreen.Entries, tc.subs)
			assert.Len(t, entry.SubScreen.InfoLines, tc.info)
		})
	}
}

func TestClassificationIsDeterministic(t *testing.T) {
	t.Parallel()

	vol := newVolume("ESP")
	writeFile(t, vol, "/EFI/arch/grubx64.efi", loader("grub"), epoch)

	s := newScanner(t, nil)

	var first *menu.Entry

	for range 3 {
		entry := menu.InitializeLoaderEntry(nil)
		entry.Title = "Boot grub"

		s.SetLoaderDefaults(entry, `EFI\arch\grubx64.efi`, vol)

		if first == nil {
			first = entry

			continue
		}

		assert.Equal(t, first, entry)
	}

	assert.Equal(t, menu.OSTypeGrub, first.OSType)
	assert.Equal(t, "os_arch", first.Image.Name)
}

func TestReturnEntryFailureDropsSubScreen(t *testing.T) {
	t.Parallel()

	vol := newVolume("ESP")
	writeFile(t, vol, "/EFI/ubuntu/grubx64.efi", loader("grub"), epoch)
	writeFile(t, vol, "/boot/vmlinuz-6.2.0", loader("6.2.0"), epoch)
	writeFile(t, vol, "/boot/vmlinuz-6.1.0", loader("6.1.0"), epoch)

	s := newScanner(t, nil, scan.WithVolumes(vol))
	scan.SetReturnEntryFactory(s, func() *menu.Entry { return nil })

	result := s.ScanForBootloaders()

	require.Equal(t, []string{`\EFI\ubuntu\grubx64.efi`, `\boot\vmlinuz-6.1.0`}, loaderPaths(result.Menu.Entries))

	for _, entry := range result.Menu.Entries {
		assert.Nil(t, entry.SubScreen, entry.LoaderPath)
	}
}
