// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package scan

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/siderolabs/bootscan/internal/pkg/efivarfs"
	"github.com/siderolabs/bootscan/internal/pkg/pathutil"
	"github.com/siderolabs/bootscan/pkg/config"
	"github.com/siderolabs/bootscan/pkg/hiddentags"
	"github.com/siderolabs/bootscan/pkg/icon"
	"github.com/siderolabs/bootscan/pkg/menu"
	"github.com/siderolabs/bootscan/pkg/volume"
)

// ScanForTools adds the tools row in the configured order.
func (s *Scanner) ScanForTools() {
	if s.cfg.DirectBoot() {
		s.logger.Debug("tools skipped in direct boot mode")

		return
	}

	mokDirs := mokLocations
	if s.selfDir != "" {
		mokDirs = pathutil.AppendUnique(append([]string(nil), mokLocations...), s.selfDir)
	}

	for _, tool := range s.cfg.ShowTools() {
		found := true

		switch tool {
		case config.ToolCleanNVRAM:
			s.addFunctionEntry(menu.TagCleanNVRAM, "Clean NVRAM", icon.BuiltinFuncCleanNVRAM, 0)
		case config.ToolShutdown:
			s.addFunctionEntry(menu.TagShutdown, "System Shutdown", icon.BuiltinFuncShutdown, 'U')
		case config.ToolReboot:
			s.addFunctionEntry(menu.TagReboot, "System Restart", icon.BuiltinFuncReset, 'R')
		case config.ToolAbout:
			s.addFunctionEntry(menu.TagAbout, "About RefindPlus", icon.BuiltinFuncAbout, 'A')
		case config.ToolExit:
			s.addFunctionEntry(menu.TagExit, "Exit RefindPlus", icon.BuiltinFuncExit, 0)
		case config.ToolInstall:
			s.addFunctionEntry(menu.TagInstall, "Install RefindPlus", icon.BuiltinFuncInstall, 0)
		case config.ToolBootorder:
			s.addFunctionEntry(menu.TagBootorder, "Manage Firmware Boot Order", icon.BuiltinFuncBootorder, 0)

		case config.ToolHiddenTags:
			if s.cfg.HiddenTags() {
				s.addFunctionEntry(menu.TagHidden, "Restore Hidden Tags", icon.BuiltinFuncHidden, 0)
			} else {
				found = false
			}

		case config.ToolFirmware:
			found = s.addFirmwareRebootEntry()

		case config.ToolCSRRotate:
			if len(s.cfg.CSRValues()) > 0 {
				s.addFunctionEntry(menu.TagCSRRotate, "Toggle SIP Policy", icon.BuiltinFuncCSR, 0)
			} else {
				found = false
			}

		case config.ToolShell:
			found = s.addSelfTools(shellNames, "UEFI Shell", icon.BuiltinToolShell, 'S')

			s.ScanFirmwareDefined(1, "Shell", s.opts.Icons.Builtin(icon.BuiltinToolShell))

		case config.ToolGPTSync:
			found = s.addSelfTools(gptsyncNames, "Hybrid MBR tool", icon.BuiltinToolPart, 'P')
		case config.ToolGdisk:
			found = s.addSelfTools(gdiskNames, "Partition Disks", icon.BuiltinToolPart, 'G')
		case config.ToolNetboot:
			found = s.addSelfTools(netbootNames, "Netboot", icon.BuiltinToolNetboot, 'N')

		case config.ToolMOK:
			found = s.FindTool(mokDirs, mokNames, "MOK Utility", icon.BuiltinToolMOK)
		case config.ToolFwupdate:
			found = s.FindTool(mokDirs, fwupdateNames, "Firmware Update", icon.BuiltinToolFwupdate)
		case config.ToolMemtest:
			found = s.FindTool(memtestDirs, memtestNames, "Memory Test", icon.BuiltinToolMemtest)

		case config.ToolWindowsRecovery:
			found = s.addWindowsRecovery()
		case config.ToolAppleRecovery:
			found = s.addMacOSRecovery()

		default:
			continue
		}

		if !found {
			s.logger.Debug("tool not found", zap.String("tool", string(tool)))
		}
	}
}

// addFirmwareRebootEntry adds the firmware setup entry when the firmware
// supports booting into its setup UI.
func (s *Scanner) addFirmwareRebootEntry() bool {
	supported, err := efivarfs.OsIndicationsSupported(s.opts.EFIVars)
	if err != nil {
		s.warn(err, "While Reading OsIndicationsSupported")

		return false
	}

	if supported&efivarfs.OSIndicationBootToFWUI == 0 {
		return false
	}

	s.addFunctionEntry(menu.TagFirmware, "Reboot into Firmware", icon.BuiltinFuncFirmware, 0)

	return true
}

// addSelfTools adds every valid tool among names on the boot manager's own
// volume.
func (s *Scanner) addSelfTools(names []string, title, builtin string, shortcut rune) bool {
	self := s.opts.SelfVolume
	if self == nil {
		return false
	}

	var found bool

	for _, name := range names {
		if s.IsValidTool(self, name) {
			s.addToolEntry(self, name, title, s.opts.Icons.Builtin(builtin), shortcut, false)

			found = true
		}
	}

	return found
}

// FindTool adds an entry for every valid tool named by a location and name
// pair on any volume.
func (s *Scanner) FindTool(locations, names []string, title, builtin string) bool {
	var found bool

	for _, location := range locations {
		for _, name := range names {
			path := pathutil.Join(location, name)

			for _, vol := range s.opts.Volumes {
				if vol.Root == nil || !s.IsValidTool(vol, path) {
					continue
				}

				s.addToolEntry(vol, path, title, s.opts.Icons.Builtin(builtin), 'S', false)

				found = true
			}
		}
	}

	return found
}

// addWindowsRecovery adds the configured Windows recovery loaders. Only
// fallback-style paths are considered.
func (s *Scanner) addWindowsRecovery() bool {
	var found bool

	for _, item := range s.cfg.WindowsRecoveryFiles() {
		volName, path := pathutil.SplitVolume(item)

		if !strings.Contains(strings.ToUpper(path), `\BOOT\BOOT`) {
			continue
		}

		for _, vol := range s.opts.Volumes {
			if vol.Root == nil {
				continue
			}

			if volName != "" && !strings.EqualFold(volName, vol.VolName) {
				continue
			}

			if !s.IsValidTool(vol, path) {
				continue
			}

			s.addToolEntry(vol, path, fmt.Sprintf("Recovery (Win) on %s", vol.VolName),
				s.opts.Icons.Builtin(icon.BuiltinToolWinRescue), 'R', true)

			found = true
		}
	}

	return found
}

// addMacOSRecovery adds the macOS recovery loaders: the recorded recovery
// files on every volume holding one, then with a single APFS container the
// recovery volume of each system volume.
func (s *Scanner) addMacOSRecovery() bool {
	var found bool

	volumes := slices.Clone(s.opts.Volumes)

	for _, hfs := range s.opts.Group.HFSRecovery {
		if !containsVolume(volumes, hfs) {
			volumes = append(volumes, hfs)
		}
	}

	for _, vol := range volumes {
		if vol.Root == nil {
			continue
		}

		for _, path := range s.macOSRecoveryFiles {
			if !s.IsValidTool(vol, path) {
				continue
			}

			s.addToolEntry(vol, path, fmt.Sprintf("Recovery (Mac) for %s", vol.Name()),
				s.opts.Icons.Builtin(icon.BuiltinToolAppleRescue), 'R', true)

			found = true
		}
	}

	if !s.opts.Group.SingleAPFS {
		return found
	}

	for _, recovery := range s.opts.Group.Recovery {
		var tag, path string

		if sys := s.opts.Group.SystemFor(recovery); sys != nil && (sys.Role == volume.RoleSystem || sys.Role == volume.RoleUndefined) {
			tag = "APFS Instance : " + sys.VolName

			if sys.VolUUID != uuid.Nil {
				path = pathutil.Join(strings.ToUpper(sys.VolUUID.String()), "boot.efi")
			}
		}

		if path == "" {
			s.logger.Debug("recovery volume without system volume", zap.String("volume", recovery.Name()))

			continue
		}

		s.addToolEntry(recovery, path, fmt.Sprintf("Recovery (Mac) for %s", tag),
			s.opts.Icons.Builtin(icon.BuiltinToolAppleRescue), 'R', false)

		found = true
	}

	return found
}

func containsVolume(volumes []*volume.Volume, vol *volume.Volume) bool {
	for _, v := range volumes {
		if v == vol || sameVolume(v, vol) {
			return true
		}
	}

	return false
}

// IsValidTool reports whether path on vol is a loadable tool that neither
// the HiddenTools variable nor the configured tool deny list names.
func (s *Scanner) IsValidTool(vol *volume.Volume, path string) bool {
	if !fileExists(vol, path) || !s.opts.Validator.IsValidLoader(vol, path) {
		return false
	}

	deny := append(s.loadHiddenTools(), s.cfg.DontScanTools()...)

	testDir, testFile := pathutil.Dir(path), pathutil.Base(path)

	for _, item := range deny {
		denyVol, denyPath := pathutil.SplitVolume(item)
		denyDir, denyFile := pathutil.Dir(denyPath), pathutil.Base(denyPath)

		if !strings.EqualFold(testFile, denyFile) {
			continue
		}

		if denyDir != "" && !pathutil.EqualFold(testDir, denyDir) {
			continue
		}

		if denyVol != "" && !vol.MatchesDescription(denyVol) {
			continue
		}

		s.logger.Debug("tool excluded", zap.String("volume", vol.Name()), zap.String("path", path))

		return false
	}

	return true
}

// loadHiddenTools reads the HiddenTools variable once. An unset or
// unreadable variable is remembered as empty.
func (s *Scanner) loadHiddenTools() []string {
	if !s.hiddenToolsLoaded {
		tools, err := s.tags.ReadOptional(hiddentags.Tools)
		if err != nil {
			s.warn(err, "While Reading Hidden Tools")
		}

		s.hiddenTools = tools
		s.hiddenToolsLoaded = true
	}

	return append([]string(nil), s.hiddenTools...)
}
