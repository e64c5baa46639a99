// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package scan_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/bootscan/pkg/config"
	"github.com/siderolabs/bootscan/pkg/menu"
	"github.com/siderolabs/bootscan/pkg/scan"
	"github.com/siderolabs/bootscan/pkg/volume"
)

type discovererFunc func(vol *volume.Volume, path string) (string, error)

func (f discovererFunc) Discover(vol *volume.Volume, path string) (string, error) {
	return f(vol, path)
}

func TestScanNetboot(t *testing.T) {
	t.Parallel()

	self := newVolume("ESP")
	writeFile(t, self, "/efi/tools/ipxe.efi", loader("ipxe"), epoch)
	writeFile(t, self, "/efi/tools/ipxe_discover.efi", loader("discover"), epoch)

	incomplete := newVolume("ESP")
	writeFile(t, incomplete, "/efi/tools/ipxe.efi", loader("ipxe"), epoch)

	cfg := configWith(func(o *config.Options) {
		o.ScanFor = "n"
	})

	for _, tc := range []struct {
		name       string
		self       *volume.Volume
		discoverer scan.Discoverer
		expected   []string
		warning    bool
	}{
		{
			name: "discovered",
			self: self,
			discoverer: discovererFunc(func(vol *volume.Volume, path string) (string, error) {
				if vol.Root != self.Root || path != `\efi\tools\ipxe_discover.efi` {
					return "", nil
				}

				return "http://boot.example.com/menu.ipxe", nil
			}),
			expected: []string{"Boot http://boot.example.com/menu.ipxe"},
		},
		{
			name:       "nothing discovered",
			self:       self,
			discoverer: discovererFunc(func(*volume.Volume, string) (string, error) { return "", nil }),
		},
		{
			name:       "discovery failure",
			self:       self,
			discoverer: discovererFunc(func(*volume.Volume, string) (string, error) { return "", errors.New("no link") }),
			warning:    true,
		},
		{
			name:       "discovery program missing",
			self:       incomplete,
			discoverer: discovererFunc(func(*volume.Volume, string) (string, error) { return "tftp://x", nil }),
		},
		{
			name: "no discoverer",
			self: self,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			setters := []scan.Option{scan.WithSelf(tc.self, `\EFI\refind\refind_x64.efi`)}
			if tc.discoverer != nil {
				setters = append(setters, scan.WithDiscoverer(tc.discoverer))
			}

			result := newScanner(t, cfg, setters...).ScanForBootloaders()

			assert.Equal(t, tc.expected, titles(result.Menu.Entries))

			if tc.warning {
				assert.ErrorContains(t, result.Warnings, "While Running Network Boot Discovery")
			}

			if len(tc.expected) == 0 {
				return
			}

			entry := result.Menu.Entries[0]
			assert.Equal(t, menu.OSTypeNetboot, entry.OSType)
			assert.Equal(t, 'N', entry.ShortcutLetter)
			assert.Equal(t, `\efi\tools\ipxe.efi`, entry.LoaderPath)

			require.NotNil(t, entry.Volume)
			assert.Equal(t, volume.DiskKindNet, entry.Volume.DiskKind)
			assert.Equal(t, "vol_net", entry.BadgeImage.Name)
			assert.Equal(t, volume.DiskKindInternal, tc.self.DiskKind)
		})
	}
}
