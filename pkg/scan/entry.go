// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package scan

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/siderolabs/bootscan/internal/pkg/pathutil"
	"github.com/siderolabs/bootscan/pkg/config"
	"github.com/siderolabs/bootscan/pkg/icon"
	"github.com/siderolabs/bootscan/pkg/menu"
	"github.com/siderolabs/bootscan/pkg/volume"
)

// AddLoaderEntry adds a top-level entry for the loader at loaderPath on vol
// and returns it, or nil when the volume cannot carry user loaders.
//
// title names the loader and defaults to its path. The entry gets its own
// copy of vol.
func (s *Scanner) AddLoaderEntry(loaderPath, title string, vol *volume.Volume, generateReturn bool) *menu.Entry {
	if vol == nil || vol.IsWindowsSupport() {
		return nil
	}

	if vol.FSType == volume.FSTypeAPFS && !vol.Role.Bootable() {
		return nil
	}

	vol = vol.Clone()

	var display string

	if s.cfg.SyncAPFS() && vol.Role == volume.RolePreboot {
		display = s.opts.Group.Name(loaderPath, vol)
		if display == "" {
			return nil
		}

		if strings.Contains(display, "PreBoot") {
			display = ""
		} else {
			vol.VolName = "PreBoot - " + display
		}
	}

	name := title
	if name == "" {
		name = loaderPath
	}

	entry := menu.InitializeLoaderEntry(nil)
	entry.Name = name
	entry.Row = 0
	entry.LoaderPath = pathutil.Absolute(loaderPath)
	entry.Volume = vol

	if !s.cfg.HideUI().Has(config.HideUIBadges) {
		entry.BadgeImage = vol.BadgeImage.Clone()
	}

	switch {
	case display != "":
		entry.Title = fmt.Sprintf("Boot %s from %s", name, display)
	case vol.VolName != "":
		entry.Title = fmt.Sprintf("Boot %s from %s", name, vol.VolName)
	default:
		entry.Title = fmt.Sprintf("Boot %s", name)
	}

	s.SetLoaderDefaults(entry, loaderPath, vol)
	s.GenerateSubScreen(entry, vol, generateReturn)
	s.addEntry(entry)

	s.logger.Info("found loader",
		zap.String("title", entry.Title),
		zap.String("volume", vol.Name()),
		zap.String("path", entry.LoaderPath),
		zap.Stringer("os", entry.OSType),
	)

	return entry
}

// addToolEntry adds a row-1 entry launching the tool at loaderPath on vol.
func (s *Scanner) addToolEntry(vol *volume.Volume, loaderPath, title string, image *icon.Image, shortcut rune, useGraphicsMode bool) *menu.Entry {
	entry := menu.InitializeLoaderEntry(nil)
	entry.Tag = menu.TagTool
	entry.Title = title
	entry.Name = title
	entry.Row = 1
	entry.ShortcutLetter = shortcut
	entry.Image = image
	entry.LoaderPath = pathutil.Absolute(loaderPath)
	entry.Volume = vol.Clone()
	entry.UseGraphicsMode = useGraphicsMode

	s.addEntry(entry)

	s.logger.Info("found tool",
		zap.String("title", title),
		zap.String("volume", vol.Name()),
		zap.String("path", entry.LoaderPath),
	)

	return entry
}

// addFunctionEntry adds a row-1 entry that runs a built-in function.
func (s *Scanner) addFunctionEntry(tag menu.Tag, title, builtin string, shortcut rune) *menu.Entry {
	entry := &menu.Entry{
		Title:          title,
		Tag:            tag,
		Row:            1,
		ShortcutLetter: shortcut,
		Image:          s.opts.Icons.Builtin(builtin),
		Enabled:        true,
	}

	s.addEntry(entry)

	return entry
}
