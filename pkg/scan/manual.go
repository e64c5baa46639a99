// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package scan

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/siderolabs/bootscan/internal/pkg/pathutil"
	"github.com/siderolabs/bootscan/pkg/config"
	"github.com/siderolabs/bootscan/pkg/menu"
	"github.com/siderolabs/bootscan/pkg/volume"
)

var stanzaOSTypes = map[string]menu.OSType{
	"macos":   menu.OSTypeMacOS,
	"osx":     menu.OSTypeMacOS,
	"linux":   menu.OSTypeLinux,
	"elilo":   menu.OSTypeELILO,
	"windows": menu.OSTypeWindows,
	"xom":     menu.OSTypeXOM,
	"grub":    menu.OSTypeGrub,
}

var stanzaGraphics = map[menu.OSType]config.GraphicsFor{
	menu.OSTypeMacOS:   config.GraphicsForOSX,
	menu.OSTypeLinux:   config.GraphicsForLinux,
	menu.OSTypeELILO:   config.GraphicsForELILO,
	menu.OSTypeWindows: config.GraphicsForWindows,
	menu.OSTypeXOM:     config.GraphicsForWindows,
	menu.OSTypeGrub:    config.GraphicsForGrub,
}

// ScanManual adds the enabled menu entries of the configuration.
func (s *Scanner) ScanManual() {
	for _, stanza := range s.cfg.Manual() {
		if stanza.Disabled {
			continue
		}

		vol := s.stanzaVolume(stanza)
		if vol == nil {
			s.logger.Debug("menu entry volume not found", zap.String("title", stanza.Title), zap.String("volume", stanza.Volume))

			continue
		}

		if !fileExists(vol, stanza.Loader) {
			s.logger.Debug("menu entry loader not found", zap.String("title", stanza.Title), zap.String("path", stanza.Loader))

			continue
		}

		s.addStanzaEntry(stanza, vol)
	}
}

// stanzaVolume resolves the volume a stanza boots from. Without a volume
// description the boot manager's own volume is used.
func (s *Scanner) stanzaVolume(stanza config.Stanza) *volume.Volume {
	if stanza.Volume == "" {
		return s.opts.SelfVolume
	}

	for _, vol := range s.opts.Volumes {
		if vol.MatchesDescription(stanza.Volume) {
			return vol
		}
	}

	return nil
}

func (s *Scanner) addStanzaEntry(stanza config.Stanza, vol *volume.Volume) *menu.Entry {
	vol = vol.Clone()

	entry := menu.InitializeLoaderEntry(nil)
	entry.Name = stanza.Title
	entry.Title = fmt.Sprintf("Boot %s", stanza.Title)
	entry.LoaderPath = pathutil.Absolute(stanza.Loader)
	entry.Volume = vol
	entry.OSType = stanzaOSTypes[strings.ToLower(stanza.OSType)]

	if vol.VolName != "" {
		entry.Title = fmt.Sprintf("Boot %s from %s", stanza.Title, vol.VolName)
	}

	if stanza.Initrd != "" {
		entry.InitrdPath = pathutil.Absolute(stanza.Initrd)
	}

	entry.LoadOptions = addInitrdToOptions(stanza.Options, entry.InitrdPath)

	if flag, ok := stanzaGraphics[entry.OSType]; ok {
		entry.UseGraphicsMode = s.cfg.GraphicsFor().Has(flag)
	}

	if r, _ := utf8.DecodeRuneInString(stanza.Title); r != utf8.RuneError {
		entry.ShortcutLetter = unicode.ToUpper(r)
	}

	if s.cfg.AllowGraphicsMode() {
		if stanza.Icon != "" {
			entry.Image = s.opts.Icons.LoadFile(vol.Root, stanza.Icon)
		}

		if entry.Image == nil {
			entry.Image = s.opts.Icons.LoadOSIcon(pathutil.Words(stanza.OSType), "unknown")
		}
	}

	if screen := s.InitializeSubScreen(entry); screen != nil {
		if ret := s.newReturnEntry(); ret != nil {
			screen.Add(ret)

			entry.SubScreen = screen
		} else {
			menu.FreeScreen(screen)
		}
	}

	s.addEntry(entry)

	s.logger.Info("added menu entry",
		zap.String("title", entry.Title),
		zap.String("volume", vol.Name()),
		zap.String("path", entry.LoaderPath),
	)

	return entry
}

// scanLegacy delegates a BIOS-mode sweep to the legacy scanner.
func (s *Scanner) scanLegacy(kind volume.DiskKind) {
	if s.opts.Legacy == nil {
		s.logger.Debug("legacy scan not available", zap.Stringer("kind", kind))

		return
	}

	entries, err := s.opts.Legacy.ScanLegacy(kind)
	if err != nil {
		s.warn(err, "While Scanning for Legacy Loaders on %s Disks", kind)
	}

	for _, entry := range entries {
		if entry != nil {
			s.addEntry(entry)
		}
	}
}
