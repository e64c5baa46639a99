// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package scan

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/siderolabs/bootscan/internal/pkg/pathutil"
	"github.com/siderolabs/bootscan/pkg/config"
	"github.com/siderolabs/bootscan/pkg/menu"
	"github.com/siderolabs/bootscan/pkg/volume"
)

var (
	kernelClues     = []string{"bzImage", "vmlinuz", "kernel"}
	windowsLoaders  = []string{"cdboot.efi", "bootmgr.efi", "bootmgfw.efi", "bkpbootmgfw.efi"}
	chainedConfigs  = []string{`EFI\refindplus\config.conf`, `EFI\refindplus\refind.conf`, `EFI\refind\config.conf`, `EFI\refind\refind.conf`}
	customIconExts  = []string{".png", ".icns"}
	refindPathClues = []string{"refindplus", "refind", "refit"}
)

// SetLoaderDefaults classifies the loader at loaderPath on vol and sets the
// OS type, default options, shortcut letter, graphics mode and icon of
// entry.
func (s *Scanner) SetLoaderDefaults(entry *menu.Entry, loaderPath string, vol *volume.Volume) {
	if entry == nil || vol == nil {
		return
	}

	nameClues := pathutil.Base(loaderPath)
	lowerName := strings.ToLower(nameClues)
	lowerPath := strings.ToLower(loaderPath)
	graphicsFor := s.cfg.GraphicsFor()

	var (
		hints    string
		shortcut rune
	)

	if s.cfg.AllowGraphicsMode() {
		if vol.DiskKind == volume.DiskKindNet {
			hints = pathutil.MergeUniqueWords(hints, entry.Title)
		} else {
			hints, shortcut = s.iconHints(entry, loaderPath, vol)
		}
	}

	getImage := s.cfg.AllowGraphicsMode() && entry.Image == nil

	switch {
	case pathutil.HasSubstringFold(nameClues, kernelClues):
		if vol.DiskKind != volume.DiskKindNet {
			hints = guessLinuxDistribution(hints, vol, loaderPath)
			entry.LoadOptions = mainLinuxOptions(vol, loaderPath)
			entry.InitrdPath = findInitrd(vol, loaderPath)
		}

		hints = pathutil.MergeUniqueWords(hints, "linux")
		entry.OSType = menu.OSTypeLinux
		shortcut = 'L'
		entry.UseGraphicsMode = graphicsFor.Has(config.GraphicsForLinux)

	case pathutil.HasSubstringFold(lowerPath, refindPathClues):
		for _, clue := range refindPathClues {
			if strings.Contains(lowerPath, clue) {
				hints = pathutil.MergeUniqueWords(hints, clue)

				break
			}
		}

		entry.OSType = menu.OSTypeRefind
		shortcut = 'R'

	case strings.HasSuffix(lowerPath, strings.ToLower(macOSLoaderPath)):
		if s.hasChainedConfig(vol) {
			hints = pathutil.MergeUniqueWords(hints, "refind")
			entry.OSType = menu.OSTypeRefind
			shortcut = 'R'
		} else {
			hints = pathutil.MergeUniqueWords(hints, "mac")
			entry.OSType = menu.OSTypeMacOS
			shortcut = 'M'
			entry.UseGraphicsMode = graphicsFor.Has(config.GraphicsForOSX)
		}

	case lowerName == "diags.efi":
		hints = pathutil.MergeUniqueWords(hints, "hwtest")

	case lowerName == "e.efi" || lowerName == "elilo.efi" || strings.Contains(lowerName, "elilo"):
		hints = pathutil.MergeUniqueWords(hints, "elilo,linux")
		entry.OSType = menu.OSTypeELILO

		if shortcut == 0 {
			shortcut = 'L'
		}

		entry.UseGraphicsMode = graphicsFor.Has(config.GraphicsForELILO)

	case strings.Contains(lowerName, "grub"):
		hints = pathutil.MergeUniqueWords(hints, "grub,linux")
		entry.OSType = menu.OSTypeGrub
		shortcut = 'G'
		entry.UseGraphicsMode = graphicsFor.Has(config.GraphicsForGrub)

	case pathutil.ContainsFold(windowsLoaders, lowerName):
		hints = pathutil.MergeUniqueWords(hints, "win8")
		entry.OSType = menu.OSTypeWindows
		shortcut = 'W'
		entry.UseGraphicsMode = graphicsFor.Has(config.GraphicsForWindows)

	case lowerName == "xom.efi":
		hints = pathutil.MergeUniqueWords(hints, "xom,win,win8")
		entry.OSType = menu.OSTypeXOM
		shortcut = 'W'
		entry.UseGraphicsMode = graphicsFor.Has(config.GraphicsForWindows)

	case strings.Contains(lowerName, "opencore"):
		entry.UseGraphicsMode = graphicsFor.Has(config.GraphicsForOpenCore)

	case strings.Contains(lowerName, "clover"):
		entry.UseGraphicsMode = graphicsFor.Has(config.GraphicsForClover)

	case strings.Contains(lowerName, "ipxe"):
		hints = pathutil.MergeUniqueWords(hints, "network")
		entry.OSType = menu.OSTypeNetboot
		shortcut = 'N'
	}

	entry.ShortcutLetter = unicode.ToUpper(shortcut)

	if getImage {
		entry.Image = s.opts.Icons.LoadOSIcon(pathutil.SplitList(hints), "unknown")
	}
}

// iconHints resolves the custom or volume icon of entry and collects the
// name hints of its location. The first letter of the loader's directory
// is returned as the shortcut candidate.
func (s *Scanner) iconHints(entry *menu.Entry, loaderPath string, vol *volume.Volume) (string, rune) {
	var (
		hints    string
		shortcut rune
	)

	if s.cfg.HiddenIconsPrefer() && !s.cfg.HiddenIconsIgnore() {
		entry.Image = vol.IconImage.Clone()
	}

	if entry.Image == nil {
		if !(s.cfg.SyncAPFS() && strings.Contains(strings.ToLower(loaderPath), strings.ToLower(macOSLoaderDir))) {
			base := pathutil.StripExt(pathutil.Absolute(loaderPath))

			for _, ext := range customIconExts {
				if img := s.opts.Icons.LoadFile(vol.Root, base+ext); img != nil {
					entry.Image = img

					break
				}
			}
		}

		if entry.Image == nil && !s.cfg.HiddenIconsIgnore() {
			entry.Image = vol.IconImage.Clone()
		}
	}

	if dir := pathutil.Base(pathutil.Dir(loaderPath)); dir != "" {
		hints = pathutil.MergeUniqueWords(hints, dir)
		shortcut, _ = utf8.DecodeRuneInString(dir)
	}

	if s.cfg.SyncAPFS() && strings.Contains(vol.FsName, "PreBoot") {
		if vol.Role == volume.RolePreboot {
			hints = pathutil.MergeUniqueWords(hints, s.opts.Group.Name(loaderPath, vol))
		} else {
			hints = pathutil.MergeUniqueWords(hints, vol.VolName)
		}
	} else {
		hints = pathutil.MergeUniqueWords(hints, vol.FsName)
	}

	hints = pathutil.MergeUniqueWords(hints, vol.PartName)

	return hints, shortcut
}

func (s *Scanner) hasChainedConfig(vol *volume.Volume) bool {
	for _, path := range chainedConfigs {
		if fileExists(vol, path) {
			return true
		}
	}

	return false
}
