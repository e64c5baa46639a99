// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package v1alpha1

import (
	"github.com/siderolabs/gen/xslices"
	"github.com/siderolabs/go-pointer"

	"github.com/siderolabs/bootscan/pkg/config"
)

// Options converts a validated document into scanner settings, starting from
// the stock defaults.
func (c *Config) Options() (config.Options, error) {
	opts := config.DefaultOptions()

	if c.ConfigScanFor != "" {
		opts.ScanFor = c.ConfigScanFor
	}

	overrideList(&opts.AlsoScan, c.ConfigAlsoScanDirs)
	overrideList(&opts.DontScanVolumes, c.ConfigDontScanVolumes)
	overrideList(&opts.DontScanDirs, c.ConfigDontScanDirs)
	overrideList(&opts.DontScanFiles, c.ConfigDontScanFiles)
	overrideList(&opts.DontScanFirmware, c.ConfigDontScanFirmware)
	overrideList(&opts.DontScanTools, c.ConfigDontScanTools)
	overrideList(&opts.WindowsRecoveryFiles, c.ConfigWindowsRecoveryFiles)
	overrideList(&opts.MacOSRecoveryFiles, c.ConfigMacOSRecoveryFiles)
	overrideList(&opts.LinuxPrefixes, c.ConfigLinuxPrefixes)

	if c.ConfigShowTools != nil {
		opts.ShowTools = make([]config.Tool, 0, len(c.ConfigShowTools))

		for _, name := range c.ConfigShowTools {
			tool, err := config.ParseTool(name)
			if err != nil {
				return config.Options{}, err
			}

			opts.ShowTools = append(opts.ShowTools, tool)
		}
	}

	if c.ConfigGraphicsFor != nil {
		g, err := config.ParseGraphicsFor(c.ConfigGraphicsFor)
		if err != nil {
			return config.Options{}, err
		}

		opts.GraphicsFor = g
	}

	h, err := config.ParseHideUI(c.ConfigHideUI)
	if err != nil {
		return config.Options{}, err
	}

	opts.HideUI = h

	overrideBool(&opts.FoldLinuxKernels, c.ConfigFoldLinuxKernels)
	overrideBool(&opts.ScanAllLinux, c.ConfigScanAllLinux)
	overrideBool(&opts.SyncAPFS, c.ConfigSyncAPFS)
	overrideBool(&opts.HiddenTags, c.ConfigHiddenTags)
	overrideBool(&opts.HiddenIconsPrefer, c.ConfigHiddenIconsPrefer)
	overrideBool(&opts.HiddenIconsIgnore, c.ConfigHiddenIconsIgnore)
	overrideBool(&opts.DirectBoot, c.ConfigDirectBoot)
	overrideBool(&opts.TextOnly, c.ConfigTextOnly)

	for _, value := range c.ConfigCSRValues {
		v, err := parseCSRValue(value)
		if err != nil {
			return config.Options{}, err
		}

		opts.CSRValues = append(opts.CSRValues, v)
	}

	opts.Manual = xslices.Map(
		xslices.Filter(c.ConfigMenuEntries, func(e *MenuEntry) bool { return e != nil }),
		func(e *MenuEntry) config.Stanza {
			return config.Stanza{
				Title:    e.EntryTitle,
				Volume:   e.EntryVolume,
				Loader:   e.EntryLoader,
				Options:  e.EntryOptions,
				Initrd:   e.EntryInitrd,
				OSType:   e.EntryOSType,
				Icon:     e.EntryIcon,
				Disabled: e.EntryDisabled,
			}
		},
	)

	return opts, nil
}

func overrideList(dst *[]string, src []string) {
	if src != nil {
		*dst = src
	}
}

func overrideBool(dst *bool, src *bool) {
	if src != nil {
		*dst = pointer.SafeDeref(src)
	}
}
