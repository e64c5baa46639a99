// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package config provides the immutable configuration snapshot read by the
// loader scanner.
//
// A Config is never modified after it is built. Scoped changes (hidden
// tags, Preboot handling) produce a new snapshot that lives for one scan.
package config

import (
	"slices"
	"strings"

	"github.com/siderolabs/bootscan/internal/pkg/pathutil"
)

// Stanza is a pre-parsed manual boot stanza.
type Stanza struct {
	Title    string
	Volume   string
	Loader   string
	Options  string
	Initrd   string
	OSType   string
	Icon     string
	Disabled bool
}

// Options are the settings a Config is built from.
type Options struct {
	ScanFor  string
	AlsoScan []string

	DontScanVolumes  []string
	DontScanDirs     []string
	DontScanFiles    []string
	DontScanFirmware []string
	DontScanTools    []string

	WindowsRecoveryFiles []string
	MacOSRecoveryFiles   []string
	LinuxPrefixes        []string

	ShowTools   []Tool
	GraphicsFor GraphicsFor
	HideUI      HideUI

	FoldLinuxKernels  bool
	ScanAllLinux      bool
	SyncAPFS          bool
	HiddenTags        bool
	HiddenIconsPrefer bool
	HiddenIconsIgnore bool
	DirectBoot        bool
	TextOnly          bool

	CSRValues []uint32
	Manual    []Stanza
}

// DefaultOptions returns the stock settings.
func DefaultOptions() Options {
	return Options{
		ScanFor:  "ieom",
		AlsoScan: []string{"boot"},

		DontScanVolumes: []string{"LRS_ESP"},
		DontScanFiles: []string{
			"shim.efi", "shim-fedora.efi", "shimx64.efi", "PreLoader.efi", "TextMode.efi",
			"ebounce.efi", "GraphicsConsole.efi", "MokManager.efi", "HashTool.efi",
			"HashTool-signed.efi", "fbx64.efi", "mmx64.efi",
		},

		WindowsRecoveryFiles: []string{
			`EFI\Microsoft\Boot\LrsBootmgr.efi`,
			`Recovery:\EFI\BOOT\bootx64.efi`,
			`Recovery:\EFI\BOOT\bootia32.efi`,
			`\EFI\OEM\Boot\bootmgfw.efi`,
		},
		MacOSRecoveryFiles: []string{`com.apple.recovery.boot\boot.efi`},
		LinuxPrefixes:      []string{"vmlinuz", "bzImage", "kernel"},

		ShowTools: []Tool{
			ToolShell, ToolMemtest, ToolGdisk, ToolAppleRecovery, ToolWindowsRecovery,
			ToolMOK, ToolAbout, ToolHiddenTags, ToolShutdown, ToolReboot, ToolFirmware, ToolFwupdate,
		},
		GraphicsFor: GraphicsForOSX,

		FoldLinuxKernels: true,
		ScanAllLinux:     true,
		SyncAPFS:         true,
		HiddenTags:       true,
	}
}

func (o Options) clone() Options {
	out := o

	out.AlsoScan = slices.Clone(o.AlsoScan)
	out.DontScanVolumes = slices.Clone(o.DontScanVolumes)
	out.DontScanDirs = slices.Clone(o.DontScanDirs)
	out.DontScanFiles = slices.Clone(o.DontScanFiles)
	out.DontScanFirmware = slices.Clone(o.DontScanFirmware)
	out.DontScanTools = slices.Clone(o.DontScanTools)
	out.WindowsRecoveryFiles = slices.Clone(o.WindowsRecoveryFiles)
	out.MacOSRecoveryFiles = slices.Clone(o.MacOSRecoveryFiles)
	out.LinuxPrefixes = slices.Clone(o.LinuxPrefixes)
	out.ShowTools = slices.Clone(o.ShowTools)
	out.CSRValues = slices.Clone(o.CSRValues)
	out.Manual = slices.Clone(o.Manual)

	return out
}

// Config is an immutable configuration snapshot.
type Config struct {
	opts Options
}

// New builds a snapshot from opts. Later changes to opts are not seen by
// the snapshot.
func New(opts Options) *Config {
	return &Config{opts: opts.clone()}
}

// Default returns a snapshot of DefaultOptions.
func Default() *Config {
	return New(DefaultOptions())
}

// Options returns a copy of the settings behind the snapshot.
func (c *Config) Options() Options {
	return c.opts.clone()
}

// ScanFor returns the lowercased sweep letters.
func (c *Config) ScanFor() string { return strings.ToLower(c.opts.ScanFor) }

// AlsoScan returns the extra directories scanned on every volume.
func (c *Config) AlsoScan() []string { return slices.Clone(c.opts.AlsoScan) }

// DontScanVolumes returns the deny-by-volume list.
func (c *Config) DontScanVolumes() []string { return slices.Clone(c.opts.DontScanVolumes) }

// DontScanDirs returns the deny-by-directory list.
func (c *Config) DontScanDirs() []string { return slices.Clone(c.opts.DontScanDirs) }

// DontScanFiles returns the deny-by-file list.
func (c *Config) DontScanFiles() []string { return slices.Clone(c.opts.DontScanFiles) }

// DontScanFirmware returns the firmware boot entry deny list.
func (c *Config) DontScanFirmware() []string { return slices.Clone(c.opts.DontScanFirmware) }

// DontScanTools returns the tool deny list.
func (c *Config) DontScanTools() []string { return slices.Clone(c.opts.DontScanTools) }

// WindowsRecoveryFiles returns the Windows recovery loader locations.
func (c *Config) WindowsRecoveryFiles() []string { return slices.Clone(c.opts.WindowsRecoveryFiles) }

// MacOSRecoveryFiles returns the macOS recovery loader locations.
func (c *Config) MacOSRecoveryFiles() []string { return slices.Clone(c.opts.MacOSRecoveryFiles) }

// LinuxPrefixes returns the basename prefixes of Linux kernels.
func (c *Config) LinuxPrefixes() []string { return slices.Clone(c.opts.LinuxPrefixes) }

// ShowTools returns the tools row layout.
func (c *Config) ShowTools() []Tool { return slices.Clone(c.opts.ShowTools) }

// GraphicsFor returns the graphics mode bits.
func (c *Config) GraphicsFor() GraphicsFor { return c.opts.GraphicsFor }

// HideUI returns the hidden user interface elements.
func (c *Config) HideUI() HideUI { return c.opts.HideUI }

// FoldLinuxKernels reports whether older kernels are folded into the newest one.
func (c *Config) FoldLinuxKernels() bool { return c.opts.FoldLinuxKernels }

// ScanAllLinux reports whether kernels without a .efi extension are scanned.
func (c *Config) ScanAllLinux() bool { return c.opts.ScanAllLinux }

// SyncAPFS reports whether APFS companion volumes are grouped.
func (c *Config) SyncAPFS() bool { return c.opts.SyncAPFS }

// HiddenTags reports whether hidden-tag variables are honored.
func (c *Config) HiddenTags() bool { return c.opts.HiddenTags }

// HiddenIconsPrefer reports whether .VolumeIcon images win over every other icon.
func (c *Config) HiddenIconsPrefer() bool { return c.opts.HiddenIconsPrefer }

// HiddenIconsIgnore reports whether .VolumeIcon images are never used.
func (c *Config) HiddenIconsIgnore() bool { return c.opts.HiddenIconsIgnore }

// DirectBoot reports whether the menu is bypassed.
func (c *Config) DirectBoot() bool { return c.opts.DirectBoot }

// AllowGraphicsMode reports whether icons are resolved at all.
func (c *Config) AllowGraphicsMode() bool { return !c.opts.TextOnly && !c.opts.DirectBoot }

// CSRValues returns the configured SIP policy values.
func (c *Config) CSRValues() []uint32 { return slices.Clone(c.opts.CSRValues) }

// Manual returns the manual boot stanzas.
func (c *Config) Manual() []Stanza { return slices.Clone(c.opts.Manual) }

// WithHiddenTags returns a snapshot whose deny-by-file list also holds tags
// and whose deny-by-volume list also holds legacy.
func (c *Config) WithHiddenTags(tags, legacy []string) *Config {
	opts := c.opts.clone()

	opts.DontScanFiles = pathutil.AppendUnique(opts.DontScanFiles, tags...)
	opts.DontScanVolumes = pathutil.AppendUnique(opts.DontScanVolumes, legacy...)

	return &Config{opts: opts}
}

// WithoutPreboot returns a snapshot with every Preboot entry removed from
// the file, directory and volume deny lists.
func (c *Config) WithoutPreboot() *Config {
	opts := c.opts.clone()

	opts.DontScanFiles = slices.DeleteFunc(opts.DontScanFiles, isPrebootItem)
	opts.DontScanDirs = slices.DeleteFunc(opts.DontScanDirs, isPrebootItem)
	opts.DontScanVolumes = slices.DeleteFunc(opts.DontScanVolumes, isPrebootItem)

	return &Config{opts: opts}
}

func isPrebootItem(item string) bool {
	return strings.EqualFold(item, "Preboot") || strings.Contains(strings.ToLower(item), "preboot:")
}
