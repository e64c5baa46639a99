// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package config

import (
	"fmt"
	"strings"
)

// GraphicsFor is the set of loader families launched in graphics mode.
type GraphicsFor uint32

// Graphics mode bits.
const (
	GraphicsForOSX GraphicsFor = 1 << iota
	GraphicsForLinux
	GraphicsForELILO
	GraphicsForGrub
	GraphicsForWindows
	GraphicsForOpenCore
	GraphicsForClover
)

var graphicsForNames = map[string]GraphicsFor{
	"osx":      GraphicsForOSX,
	"linux":    GraphicsForLinux,
	"elilo":    GraphicsForELILO,
	"grub":     GraphicsForGrub,
	"windows":  GraphicsForWindows,
	"opencore": GraphicsForOpenCore,
	"clover":   GraphicsForClover,
}

// Has reports whether every bit of flag is set.
func (g GraphicsFor) Has(flag GraphicsFor) bool {
	return g&flag == flag
}

// ParseGraphicsFor parses a list of loader family names.
func ParseGraphicsFor(names []string) (GraphicsFor, error) {
	var g GraphicsFor

	for _, name := range names {
		bit, ok := graphicsForNames[strings.ToLower(name)]
		if !ok {
			return 0, fmt.Errorf("unknown graphics_for value %q", name)
		}

		g |= bit
	}

	return g, nil
}

// HideUI is the set of user interface elements the user asked to hide.
type HideUI uint32

// HideUI bits relevant to menu construction.
const (
	HideUISafeMode HideUI = 1 << iota
	HideUISingleUser
	HideUIHWTest
	HideUIEditor
	HideUIBadges
)

var hideUINames = map[string]HideUI{
	"safemode":   HideUISafeMode,
	"singleuser": HideUISingleUser,
	"hwtest":     HideUIHWTest,
	"editor":     HideUIEditor,
	"badges":     HideUIBadges,
}

// Has reports whether every bit of flag is set.
func (h HideUI) Has(flag HideUI) bool {
	return h&flag == flag
}

// ParseHideUI parses a list of hideui names.
func ParseHideUI(names []string) (HideUI, error) {
	var h HideUI

	for _, name := range names {
		bit, ok := hideUINames[strings.ToLower(name)]
		if !ok {
			return 0, fmt.Errorf("unknown hideui value %q", name)
		}

		h |= bit
	}

	return h, nil
}

// Tool is an entry of the tools row.
type Tool string

// Tools.
const (
	ToolShell           Tool = "shell"
	ToolMemtest         Tool = "memtest"
	ToolGPTSync         Tool = "gptsync"
	ToolGdisk           Tool = "gdisk"
	ToolAppleRecovery   Tool = "apple_recovery"
	ToolWindowsRecovery Tool = "windows_recovery"
	ToolMOK             Tool = "mok_tool"
	ToolAbout           Tool = "about"
	ToolHiddenTags      Tool = "hidden_tags"
	ToolExit            Tool = "exit"
	ToolReboot          Tool = "reboot"
	ToolShutdown        Tool = "shutdown"
	ToolInstall         Tool = "install"
	ToolBootorder       Tool = "bootorder"
	ToolNetboot         Tool = "netboot"
	ToolFwupdate        Tool = "fwupdate"
	ToolFirmware        Tool = "firmware"
	ToolCleanNVRAM      Tool = "clean_nvram"
	ToolCSRRotate       Tool = "csr_rotate"
)

var allTools = []Tool{
	ToolShell, ToolMemtest, ToolGPTSync, ToolGdisk, ToolAppleRecovery, ToolWindowsRecovery,
	ToolMOK, ToolAbout, ToolHiddenTags, ToolExit, ToolReboot, ToolShutdown, ToolInstall,
	ToolBootorder, ToolNetboot, ToolFwupdate, ToolFirmware, ToolCleanNVRAM, ToolCSRRotate,
}

// ParseTool parses a tool name.
func ParseTool(name string) (Tool, error) {
	for _, tool := range allTools {
		if strings.EqualFold(string(tool), name) {
			return tool, nil
		}
	}

	return "", fmt.Errorf("unknown tool %q", name)
}

// ScanFor letters select the sweeps run by a scan, in order.
const (
	ScanForManual          = 'm'
	ScanForInternal        = 'i'
	ScanForInternalLegacy  = 'h'
	ScanForExternal        = 'e'
	ScanForExternalLegacy  = 'b'
	ScanForOptical         = 'o'
	ScanForOpticalLegacy   = 'c'
	ScanForNetwork         = 'n'
	ScanForFirmware        = 'f'
	scanForValidCharacters = "mihebocnf"
)

// ValidateScanFor checks that every letter of s names a known sweep.
func ValidateScanFor(s string) error {
	for _, r := range strings.ToLower(s) {
		if !strings.ContainsRune(scanForValidCharacters, r) {
			return fmt.Errorf("unknown scanfor letter %q", r)
		}
	}

	return nil
}
