// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package scan

import (
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/siderolabs/gen/xerrors"
	"go.uber.org/zap"

	"github.com/siderolabs/bootscan/internal/pkg/pathutil"
	"github.com/siderolabs/bootscan/pkg/volume"
)

// ScanVolume adds the EFI loaders found on vol: the macOS, XOM and Windows
// loaders at their fixed locations, every loader directory, and finally
// the fallback loader unless one of the others duplicates it.
func (s *Scanner) ScanVolume(vol *volume.Volume) {
	if vol == nil || vol.Root == nil || vol.VolName == "" || !vol.IsReadable {
		return
	}

	if vol.IsWindowsSupport() {
		return
	}

	if vol.FSType == volume.FSTypeAPFS && !vol.Role.Bootable() {
		return
	}

	if s.cfg.SyncAPFS() && s.opts.Group.IsSkipped(vol) {
		s.logger.Debug("skipping grouped volume", zap.String("volume", vol.Name()))

		return
	}

	scanFallback := true

	if s.ShouldScan(vol, macOSLoaderDir) {
		if s.scanMacOSLoader(vol, macOSLoaderPath) {
			scanFallback = false
		}

		for _, dir := range s.guidDirs(vol) {
			if s.scanMacOSLoader(vol, pathutil.Join(dir, macOSLoaderPath)) {
				scanFallback = false
			}

			if vol.FSType != volume.FSTypeAPFS {
				s.addMacOSRecoveryFile(pathutil.Join(dir, "boot.efi"))
			}
		}

		if s.scanFixedLoader(vol, macOSXOMPath, "Windows XP (XoM)") {
			scanFallback = false
		}
	}

	if s.ShouldScan(vol, microsoftBootDir) {
		backup := pathutil.Join(microsoftBootDir, "bkpbootmgfw.efi")
		foundBackup := fileExists(vol, backup)

		if s.scanFixedLoader(vol, backup, "UEFI Windows (BRBackup)") {
			scanFallback = false
		}

		title := "Windows (UEFI)"
		if foundBackup {
			title = "Assumed UEFI Windows (Potentially GRUB)"
		}

		if s.scanFixedLoader(vol, pathutil.Join(microsoftBootDir, "bootmgfw.efi"), title) {
			scanFallback = false
		}
	}

	patterns := s.loaderPatterns()

	if s.ScanLoaderDir(vol, `\`, patterns) {
		scanFallback = false
	}

	infos, err := readDir(vol, "EFI")
	if err != nil && !xerrors.TagIs[expectedAbsent](err) {
		s.warn(err, "While Scanning the EFI System Partition on '%s'", vol.Name())
	}

	for _, info := range infos {
		if !info.IsDir() || strings.HasPrefix(info.Name(), ".") || strings.EqualFold(info.Name(), "tools") {
			continue
		}

		if s.ScanLoaderDir(vol, pathutil.Join("EFI", info.Name()), patterns) {
			scanFallback = false
		}
	}

	for _, also := range s.cfg.AlsoScan() {
		_, dir := pathutil.SplitVolume(also)

		dir = pathutil.Clean(dir)
		if dir == "" || !s.ShouldScan(vol, also) {
			continue
		}

		if s.ScanLoaderDir(vol, dir, patterns) {
			scanFallback = false
		}
	}

	if s.isSelfVolume(vol) && s.DuplicatesFallback(vol, s.opts.SelfPath) {
		scanFallback = false
	}

	if scanFallback &&
		fileExists(vol, fallbackFullName) &&
		s.ShouldScan(vol, fallbackDir) &&
		!filenameIn(vol, fallbackDir, fallbackBasename, s.cfg.DontScanFiles()) {
		s.AddLoaderEntry(fallbackFullName, "Fallback Loader", vol, true)
	}
}

// scanMacOSLoader adds the macOS loader at path, titled after the boot
// manager it chains to when one is installed beside it. It reports whether
// the loader duplicates the fallback loader.
func (s *Scanner) scanMacOSLoader(vol *volume.Volume, path string) bool {
	if !fileExists(vol, path) || filenameIn(vol, pathutil.Dir(path), pathutil.Base(path), s.cfg.DontScanFiles()) {
		return false
	}

	switch {
	case fileExists(vol, `EFI\refind\config.conf`) || fileExists(vol, `EFI\refind\refind.conf`):
		s.AddLoaderEntry(path, "RefindPlus", vol, true)
	case s.cfg.SyncAPFS() && s.opts.Group.IsSystem(vol):
		s.logger.Debug("macOS loader left to its preboot volume", zap.String("volume", vol.Name()))
	default:
		s.AddLoaderEntry(path, "MacOS", vol, true)
	}

	return s.DuplicatesFallback(vol, path)
}

// scanFixedLoader adds the loader at a well-known path under title and
// reports whether it duplicates the fallback loader.
func (s *Scanner) scanFixedLoader(vol *volume.Volume, path, title string) bool {
	if !fileExists(vol, path) || filenameIn(vol, pathutil.Dir(path), pathutil.Base(path), s.cfg.DontScanFiles()) {
		return false
	}

	s.AddLoaderEntry(path, title, vol, true)

	return s.DuplicatesFallback(vol, path)
}

// guidDirs lists the root directories of vol named after a GUID, where
// macOS keeps per-volume loader copies.
func (s *Scanner) guidDirs(vol *volume.Volume) []string {
	infos, err := readDir(vol, `\`)
	if err != nil {
		return nil
	}

	var dirs []string

	for _, info := range infos {
		if !info.IsDir() {
			continue
		}

		if _, err := uuid.Parse(info.Name()); err == nil {
			dirs = append(dirs, info.Name())
		}
	}

	return dirs
}

func (s *Scanner) addMacOSRecoveryFile(path string) {
	lower := strings.ToLower(path)

	if slices.ContainsFunc(s.macOSRecoveryFiles, func(item string) bool {
		return strings.Contains(strings.ToLower(item), lower)
	}) {
		return
	}

	s.macOSRecoveryFiles = append(s.macOSRecoveryFiles, path)
}
