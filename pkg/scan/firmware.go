// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package scan

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/siderolabs/bootscan/internal/pkg/efivarfs"
	"github.com/siderolabs/bootscan/internal/pkg/pathutil"
	"github.com/siderolabs/bootscan/pkg/hiddentags"
	"github.com/siderolabs/bootscan/pkg/icon"
	"github.com/siderolabs/bootscan/pkg/menu"
)

// ScanFirmwareDefined adds the firmware boot entries listed in BootOrder on
// the given row.
//
// With matchThis set only entries whose label contains one of its
// comma-delimited elements are added. Entries whose label contains an
// element of the firmware deny list are never added, and on row 0 neither
// are shells. img is used as the entry image when non-nil.
func (s *Scanner) ScanFirmwareDefined(row int, matchThis string, img *icon.Image) {
	deny, err := s.tags.ReadOptional(hiddentags.Firmware)
	if err != nil {
		s.warn(err, "While Reading Hidden Firmware Tags")
	}

	deny = pathutil.AppendUnique(deny, s.cfg.DontScanFirmware()...)

	if row == 0 {
		deny = pathutil.AppendUnique(deny, "shell")
	}

	entries, err := efivarfs.BootOrderEntries(s.opts.EFIVars)
	if err != nil {
		s.warn(err, "While Reading Firmware Boot Entries")
	}

	matches := pathutil.SplitList(matchThis)

	for _, bootEntry := range entries {
		label := bootEntry.Option.Description

		if pathutil.HasSubstringFold(label, deny) {
			s.logger.Debug("firmware entry excluded", zap.String("entry", bootEntry.Name()), zap.String("label", label))

			continue
		}

		if len(matches) > 0 && !pathutil.HasSubstringFold(label, matches) {
			continue
		}

		s.addEfiLoaderEntry(bootEntry, row, img)
	}
}

// addEfiLoaderEntry adds an entry rebooting into a firmware boot entry.
func (s *Scanner) addEfiLoaderEntry(bootEntry efivarfs.BootEntry, row int, img *icon.Image) *menu.Entry {
	title := bootEntry.Option.Description
	if title == "" {
		title = "Unknown"
	}

	entry := menu.InitializeLoaderEntry(nil)
	entry.Tag = menu.TagFirmwareLoader
	entry.Name = title
	entry.Title = fmt.Sprintf("Reboot to %s", title)
	entry.Row = row
	entry.EfiBootNum = bootEntry.Index
	entry.EfiLoaderPath = bootEntry.Option.FilePath.Clone()

	if row == 0 {
		entry.BadgeImage = s.opts.Icons.Builtin(icon.BuiltinVolumeEFI)
	}

	switch {
	case img != nil:
		entry.Image = img.Clone()
	case s.cfg.AllowGraphicsMode():
		entry.Image = s.opts.Icons.LoadOSIcon(pathutil.Words(title), "unknown")
	}

	s.addEntry(entry)

	s.logger.Info("found firmware entry",
		zap.String("title", entry.Title),
		zap.String("entry", bootEntry.Name()),
		zap.Stringer("path", entry.EfiLoaderPath),
	)

	return entry
}
