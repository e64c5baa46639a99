// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package scan

import (
	"errors"

	"go.uber.org/zap"

	"github.com/siderolabs/bootscan/pkg/config"
	"github.com/siderolabs/bootscan/pkg/hiddentags"
	"github.com/siderolabs/bootscan/pkg/menu"
	"github.com/siderolabs/bootscan/pkg/volume"
)

// ErrNoLoaders is reported in the warnings when a scan found nothing.
var ErrNoLoaders = errors.New("no boot loaders found")

// ScanForBootloaders rebuilds the main menu from scratch: it runs the
// sweeps selected by the scan-for setting in order and assigns shortcut
// digits to the leading loader entries.
//
// Hidden tags and, with volume grouping, the Preboot deny-list relaxation
// apply for the duration of the scan only.
func (s *Scanner) ScanForBootloaders() *Result {
	base := s.cfg

	defer func() {
		s.cfg = base
	}()

	s.menu = &menu.Screen{Title: "Main Menu"}
	s.warnings = nil

	s.cfg = s.scanSnapshot(base)
	s.macOSRecoveryFiles = s.cfg.MacOSRecoveryFiles()

	for _, letter := range s.cfg.ScanFor() {
		switch letter {
		case config.ScanForManual:
			s.ScanManual()
		case config.ScanForInternal:
			s.scanDiskKind(volume.DiskKindInternal)
		case config.ScanForInternalLegacy:
			s.scanLegacy(volume.DiskKindInternal)
		case config.ScanForExternal:
			s.scanDiskKind(volume.DiskKindExternal)
		case config.ScanForExternalLegacy:
			s.scanLegacy(volume.DiskKindExternal)
		case config.ScanForOptical:
			s.scanDiskKind(volume.DiskKindOptical)
		case config.ScanForOpticalLegacy:
			s.scanLegacy(volume.DiskKindOptical)
		case config.ScanForNetwork:
			s.ScanNetboot()
		case config.ScanForFirmware:
			s.ScanFirmwareDefined(0, "", nil)
		}
	}

	result := &Result{Menu: s.menu}

	if len(s.menu.Entries) == 0 {
		s.warn(ErrNoLoaders, "Could Not Find Boot Loaders")

		result.NoEntries = true
	} else {
		s.menu.AssignShortcutDigits()
	}

	result.Warnings = s.Warnings()

	s.logger.Info("scan complete", zap.Int("entries", len(s.menu.Entries)), zap.Bool("warnings", result.Warnings != nil))

	return result
}

// scanSnapshot derives the configuration used during one scan.
func (s *Scanner) scanSnapshot(cfg *config.Config) *config.Config {
	if cfg.HiddenTags() {
		tags, err := s.tags.ReadOptional(hiddentags.Tags)
		if err != nil {
			s.warn(err, "While Reading Hidden Tags")
		}

		legacy, err := s.tags.ReadOptional(hiddentags.Legacy)
		if err != nil {
			s.warn(err, "While Reading Hidden Legacy Tags")
		}

		cfg = cfg.WithHiddenTags(tags, legacy)
	}

	if cfg.SyncAPFS() {
		cfg = cfg.WithoutPreboot()
	}

	return cfg
}

func (s *Scanner) scanDiskKind(kind volume.DiskKind) {
	for _, vol := range s.opts.Volumes {
		if vol.DiskKind == kind {
			s.ScanVolume(vol)
		}
	}
}
