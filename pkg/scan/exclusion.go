// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package scan

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/ryanuber/go-glob"
	"go.uber.org/zap"

	"github.com/siderolabs/bootscan/internal/pkg/pathutil"
	"github.com/siderolabs/bootscan/pkg/volume"
)

// ShouldScan reports whether path on vol is eligible for scanning.
//
// The result depends only on its arguments and the current configuration
// snapshot.
func (s *Scanner) ShouldScan(vol *volume.Volume, path string) bool {
	if vol == nil {
		return false
	}

	if s.isSelfDir(vol, path) {
		return false
	}

	if vol.FSType == volume.FSTypeAPFS {
		if !vol.Role.Bootable() {
			return false
		}

		if s.cfg.SyncAPFS() {
			for _, name := range []string{vol.VolName, sanitize(vol.VolName)} {
				if pathutil.ContainsFold(s.cfg.DontScanVolumes(), name+" - DATA") {
					return false
				}
			}
		}
	}

	denyVolumes := s.cfg.DontScanVolumes()

	if vol.PartGUID != uuid.Nil && pathutil.ContainsFold(denyVolumes, vol.PartGUID.String()) {
		return false
	}

	for _, name := range []string{vol.FsName, vol.VolName, vol.PartName} {
		if name != "" && pathutil.ContainsFold(denyVolumes, name) {
			return false
		}
	}

	volName, dir := pathutil.SplitVolume(path)
	if volName != "" {
		if !strings.EqualFold(volName, vol.FsName) && !strings.EqualFold(volName, vol.PartName) {
			return false
		}
	}

	dir = pathutil.Clean(dir)

	for _, denied := range s.cfg.DontScanDirs() {
		deniedVol, deniedDir := pathutil.SplitVolume(denied)

		if deniedVol != "" && !vol.MatchesDescription(deniedVol) {
			continue
		}

		if pathutil.EqualFold(deniedDir, dir) {
			s.logger.Debug("directory excluded", zap.String("volume", vol.Name()), zap.String("path", dir))

			return false
		}
	}

	return true
}

// filenameIn reports whether the file name in directory dir on vol is named
// by list. Each element has the form [Volume:][path\]file, where file may
// contain '*' wildcards. The volume and path parts only restrict the match
// when present.
func filenameIn(vol *volume.Volume, dir, name string, list []string) bool {
	for _, item := range list {
		itemVol, itemPath := pathutil.SplitVolume(item)

		itemDir := pathutil.Dir(itemPath)
		itemFile := pathutil.Base(itemPath)

		if itemFile == "" {
			continue
		}

		if !glob.Glob(strings.ToLower(itemFile), strings.ToLower(name)) {
			continue
		}

		if itemDir != "" && !pathutil.EqualFold(itemDir, dir) {
			continue
		}

		if itemVol != "" && (vol == nil || !vol.MatchesDescription(itemVol)) {
			continue
		}

		return true
	}

	return false
}

// sanitize drops every character that is not a letter, a digit, a space or
// one of "-_.".
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(" -_.", r) {
			return r
		}

		return -1
	}, s)
}
