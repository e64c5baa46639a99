// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package v1alpha1 defines the YAML document describing scanner settings.
package v1alpha1

// Version is the version string for v1alpha1.
const Version = "v1alpha1"

// Config defines the v1alpha1 configuration file.
//
// Unset fields keep the stock defaults.
type Config struct {
	//   description: |
	//     Indicates the schema used to decode the contents.
	//   values:
	//     - "`v1alpha1`"
	ConfigVersion string `yaml:"version"`
	//   description: |
	//     Sweeps to run, in order: m (manual), i (internal), h (internal legacy),
	//     e (external), b (external legacy), o (optical), c (optical legacy),
	//     n (network), f (firmware).
	//   examples:
	//     - value: '"ieom"'
	ConfigScanFor string `yaml:"scanFor,omitempty"`
	//   description: |
	//     Extra directories scanned on every volume. A `Volume:` prefix limits a
	//     directory to matching volumes.
	ConfigAlsoScanDirs []string `yaml:"alsoScanDirs,omitempty"`
	//   description: |
	//     Volumes never scanned, by name or partition GUID.
	ConfigDontScanVolumes []string `yaml:"dontScanVolumes,omitempty"`
	//   description: |
	//     Directories never scanned, optionally prefixed with `Volume:`.
	ConfigDontScanDirs []string `yaml:"dontScanDirs,omitempty"`
	//   description: |
	//     Loader files never added, as `[Volume:][path\]file`.
	ConfigDontScanFiles []string `yaml:"dontScanFiles,omitempty"`
	//   description: |
	//     Firmware boot entries hidden when their label contains an element.
	ConfigDontScanFirmware []string `yaml:"dontScanFirmware,omitempty"`
	//   description: |
	//     Tool files never added, as `[Volume:][path\]file`.
	ConfigDontScanTools []string `yaml:"dontScanTools,omitempty"`
	//   description: |
	//     Windows recovery loader locations, optionally prefixed with `Volume:`.
	ConfigWindowsRecoveryFiles []string `yaml:"windowsRecoveryFiles,omitempty"`
	//   description: |
	//     macOS recovery loader locations.
	ConfigMacOSRecoveryFiles []string `yaml:"macOSRecoveryFiles,omitempty"`
	//   description: |
	//     Basename prefixes identifying Linux kernels.
	ConfigLinuxPrefixes []string `yaml:"linuxPrefixes,omitempty"`
	//   description: |
	//     Layout of the tools row.
	ConfigShowTools []string `yaml:"showTools,omitempty"`
	//   description: |
	//     Loader families launched in graphics mode.
	//   values:
	//     - osx
	//     - linux
	//     - elilo
	//     - grub
	//     - windows
	//     - opencore
	//     - clover
	ConfigGraphicsFor []string `yaml:"graphicsFor,omitempty"`
	//   description: |
	//     Menu elements to hide.
	//   values:
	//     - safemode
	//     - singleuser
	//     - hwtest
	//     - editor
	//     - badges
	ConfigHideUI []string `yaml:"hideUI,omitempty"`
	//   description: |
	//     Fold older kernels of one directory into the newest kernel's sub-menu.
	ConfigFoldLinuxKernels *bool `yaml:"foldLinuxKernels,omitempty"`
	//   description: |
	//     Scan kernels without a `.efi` extension.
	ConfigScanAllLinux *bool `yaml:"scanAllLinuxKernels,omitempty"`
	//   description: |
	//     Group APFS companion volumes under their system volume name.
	ConfigSyncAPFS *bool `yaml:"syncAPFS,omitempty"`
	//   description: |
	//     Honor the hidden-tag firmware variables.
	ConfigHiddenTags *bool `yaml:"hiddenTags,omitempty"`
	//   description: |
	//     Prefer `.VolumeIcon` images over every other icon source.
	ConfigHiddenIconsPrefer *bool `yaml:"hiddenIconsPrefer,omitempty"`
	//   description: |
	//     Never use `.VolumeIcon` images.
	ConfigHiddenIconsIgnore *bool `yaml:"hiddenIconsIgnore,omitempty"`
	//   description: |
	//     Boot the default entry without showing the menu.
	ConfigDirectBoot *bool `yaml:"directBoot,omitempty"`
	//   description: |
	//     Run the menu in text mode.
	ConfigTextOnly *bool `yaml:"textOnly,omitempty"`
	//   description: |
	//     SIP policy values rotated by the CSR tool, as hexadecimal strings.
	//   examples:
	//     - value: '[]string{"0x77", "0x0"}'
	ConfigCSRValues []string `yaml:"csrValues,omitempty"`
	//   description: |
	//     Manual boot stanzas.
	ConfigMenuEntries []*MenuEntry `yaml:"menuEntries,omitempty"`
}

// MenuEntry is a manual boot stanza.
type MenuEntry struct {
	//   description: |
	//     Menu title.
	EntryTitle string `yaml:"title"`
	//   description: |
	//     Volume holding the loader, by name or partition GUID.
	EntryVolume string `yaml:"volume,omitempty"`
	//   description: |
	//     Loader path on the volume.
	EntryLoader string `yaml:"loader"`
	//   description: |
	//     Load options.
	EntryOptions string `yaml:"options,omitempty"`
	//   description: |
	//     Initial ramdisk path.
	EntryInitrd string `yaml:"initrd,omitempty"`
	//   description: |
	//     OS family.
	//   values:
	//     - macos
	//     - linux
	//     - windows
	//     - elilo
	//     - xom
	//     - grub
	EntryOSType string `yaml:"ostype,omitempty"`
	//   description: |
	//     Icon path on the volume.
	EntryIcon string `yaml:"icon,omitempty"`
	//   description: |
	//     Keep the stanza but do not show it.
	EntryDisabled bool `yaml:"disabled,omitempty"`
}
