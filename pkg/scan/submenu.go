// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package scan

import (
	"fmt"
	"strings"

	"github.com/siderolabs/bootscan/internal/pkg/pathutil"
	"github.com/siderolabs/bootscan/pkg/config"
	"github.com/siderolabs/bootscan/pkg/menu"
	"github.com/siderolabs/bootscan/pkg/volume"
)

// variant is a fixed sub-menu entry of a loader family.
type variant struct {
	title    string
	options  string
	graphics bool
}

var eliloInfoLines = []string{
	"NOTE: This is an example. Entries",
	"marked with (*) may not work.",
}

// InitializeSubScreen creates the sub-menu of entry holding its default
// boot entry.
func (s *Scanner) InitializeSubScreen(entry *menu.Entry) *menu.Screen {
	if entry == nil {
		return nil
	}

	title := entry.Name
	if title == "" {
		title = pathutil.Base(entry.LoaderPath)
	}

	screen := &menu.Screen{
		Title:      fmt.Sprintf("Boot Options for %s on %s", title, s.subScreenVolumeName(entry)),
		TitleImage: entry.Image.Clone(),
		Hint1:      menu.SubScreenHint1,
		Hint2:      menu.SubScreenHint2,
	}

	if s.cfg.HideUI().Has(config.HideUIEditor) {
		screen.Hint2 = menu.SubScreenHint2NoEditor
	}

	version := kernelVersion(entry.LoaderPath)

	sub := menu.InitializeLoaderEntry(entry)
	sub.Title = fmt.Sprintf("Boot %swith Default Options", defaultEntryName(entry.OSType, screen.Title))
	sub.InitrdPath = replaceKernelVersion(sub.InitrdPath, version)
	sub.LoadOptions = addInitrdToOptions(replaceKernelVersion(sub.LoadOptions, version), sub.InitrdPath)

	screen.Add(sub)

	return screen
}

// defaultEntryName names the OS in the default sub-menu entry. A non-empty
// name ends with a space.
func defaultEntryName(osType menu.OSType, screenTitle string) string {
	switch osType { //nolint:exhaustive
	case menu.OSTypeMacOS:
		return "MacOS "
	case menu.OSTypeLinux:
		return "Linux "
	case menu.OSTypeWindows:
		switch {
		case strings.Contains(screenTitle, "UEFI"):
			return "Windows (UEFI) "
		case strings.Contains(screenTitle, "Legacy"):
			return "Windows (Legacy) "
		default:
			return "Windows "
		}
	case menu.OSTypeRefind:
		return "rEFIt Variant "
	case menu.OSTypeGrub:
		return "Grub "
	case menu.OSTypeXOM:
		return "XoM "
	case menu.OSTypeELILO:
		return "Elilo "
	}

	switch {
	case strings.Contains(screenTitle, "OpenCore"):
		return "OpenCore "
	case strings.Contains(screenTitle, "Clover"):
		return "Clover "
	default:
		return ""
	}
}

func (s *Scanner) subScreenVolumeName(entry *menu.Entry) string {
	vol := entry.Volume
	if vol == nil {
		return ""
	}

	if s.cfg.SyncAPFS() && vol.Role == volume.RolePreboot {
		if display := s.opts.Group.Name(entry.LoaderPath, vol); display != "" {
			return display
		}
	}

	if vol.VolName != "" {
		return vol.VolName
	}

	return vol.Name()
}

// GenerateSubScreen builds the sub-menu of entry with the variants of its
// loader family. With generateReturn a return entry closes the sub-menu;
// if that entry cannot be built the sub-menu is dropped.
func (s *Scanner) GenerateSubScreen(entry *menu.Entry, vol *volume.Volume, generateReturn bool) {
	screen := s.InitializeSubScreen(entry)
	if screen == nil {
		return
	}

	graphicsFor := s.cfg.GraphicsFor()

	switch entry.OSType { //nolint:exhaustive
	case menu.OSTypeMacOS:
		s.addMacOSVariants(screen, entry, vol)

	case menu.OSTypeLinux:
		s.addLinuxVariants(screen, entry, vol)

	case menu.OSTypeELILO:
		elilo := graphicsFor.Has(config.GraphicsForELILO)

		addVariants(screen, entry, []variant{
			{"Run ELILO in interactive mode", "-p", elilo},
			{`Boot Linux for a 17" iMac or a 15" MacBook Pro (*)`, "-d 0 i17", elilo},
			{`Boot Linux for a 20" iMac (*)`, "-d 0 i20", elilo},
			{"Boot Linux for a Mac Mini (*)", "-d 0 mini", elilo},
		})

		for _, line := range eliloInfoLines {
			screen.AddInfoLine(line)
		}

	case menu.OSTypeXOM:
		windows := graphicsFor.Has(config.GraphicsForWindows)

		addVariants(screen, entry, []variant{
			{"Boot Windows from Hard Disk", "-s -h", windows},
			{"Boot Windows from CD-ROM", "-s -c", windows},
			{"Run XOM in text mode", "-v", false},
		})
	}

	if generateReturn {
		ret := s.newReturnEntry()
		if ret == nil {
			menu.FreeScreen(screen)

			return
		}

		screen.Add(ret)
	}

	entry.SubScreen = screen
}

func addVariants(screen *menu.Screen, entry *menu.Entry, variants []variant) {
	for _, v := range variants {
		sub := menu.InitializeLoaderEntry(entry)
		sub.Title = v.title
		sub.LoadOptions = v.options
		sub.UseGraphicsMode = v.graphics

		screen.Add(sub)
	}
}

func (s *Scanner) addMacOSVariants(screen *menu.Screen, entry *menu.Entry, vol *volume.Volume) {
	osx := s.cfg.GraphicsFor().Has(config.GraphicsForOSX)
	hideUI := s.cfg.HideUI()

	addVariants(screen, entry, []variant{
		{"Boot MacOS with a 64-bit Kernel", "arch=x86_64", osx},
		{"Boot MacOS with a 32-bit Kernel", "arch=i386", osx},
		{"Boot MacOS in Verbose Mode", "-v", false},
		{"Boot MacOS in Verbose Mode (64-bit)", "-v arch=x86_64", false},
		{"Boot MacOS in Verbose Mode (32-bit)", "-v arch=i386", false},
	})

	if !hideUI.Has(config.HideUISafeMode) {
		addVariants(screen, entry, []variant{
			{"Boot MacOS in Safe Mode (Quiet)", "-x", false},
			{"Boot MacOS in Safe Mode (Verbose)", "-v -x", false},
		})
	}

	if !hideUI.Has(config.HideUISingleUser) {
		addVariants(screen, entry, []variant{
			{"Boot MacOS in Single User Mode (Quiet)", "-s", false},
			{"Boot MacOS in Single User Mode (Verbose)", "-v -s", false},
		})
	}

	if hideUI.Has(config.HideUIHWTest) {
		return
	}

	diagsVol := vol
	if s.cfg.SyncAPFS() && vol != nil && vol.Role == volume.RolePreboot {
		if sys := s.opts.Group.SystemFor(vol); sys != nil {
			diagsVol = sys
		}
	}

	if !fileExists(diagsVol, macOSDiagnostics) {
		return
	}

	sub := menu.InitializeLoaderEntry(entry)
	sub.Title = "Run Apple Hardware Test"
	sub.LoaderPath = pathutil.Absolute(macOSDiagnostics)
	sub.LoadOptions = ""
	sub.Volume = diagsVol.Clone()
	sub.UseGraphicsMode = osx

	screen.Add(sub)
}

// addLinuxVariants adds one entry per line of the kernel's options file.
// The first line retitles the default entry instead.
func (s *Scanner) addLinuxVariants(screen *menu.Screen, entry *menu.Entry, vol *volume.Volume) {
	lines, ok := readLinuxOptions(vol, entry.LoaderPath)
	if !ok || len(lines) == 0 {
		return
	}

	if len(lines[0]) > 1 && len(screen.Entries) > 0 {
		screen.Entries[0].Title = linuxVariantTitle(lines[0][0])
	}

	version := kernelVersion(entry.LoaderPath)
	initrd := findInitrd(vol, entry.LoaderPath)
	linux := s.cfg.GraphicsFor().Has(config.GraphicsForLinux)

	for _, tokens := range lines[1:] {
		if len(tokens) < 2 {
			continue
		}

		sub := menu.InitializeLoaderEntry(entry)
		sub.Title = linuxVariantTitle(tokens[0])
		sub.LoadOptions = addInitrdToOptions(replaceKernelVersion(tokens[1], version), initrd)
		sub.UseGraphicsMode = linux

		screen.Add(sub)
	}
}

func linuxVariantTitle(token string) string {
	if token == "" {
		return "Boot Linux"
	}

	return token
}
