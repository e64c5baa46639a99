// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package menu implements the boot menu object graph: entries, screens and
// their sub-screens.
//
// Every entry owns everything it points to except Volume.Root. Copies never
// alias the source, so a copy outlives any change to (or teardown of) the
// original.
package menu

import (
	"slices"

	"github.com/siderolabs/bootscan/internal/pkg/efivarfs"
	"github.com/siderolabs/bootscan/pkg/icon"
	"github.com/siderolabs/bootscan/pkg/volume"
)

// OSType is the operating system family a loader was classified as.
type OSType int

// OS types.
const (
	OSTypeUnknown OSType = iota
	OSTypeMacOS
	OSTypeLinux
	OSTypeWindows
	OSTypeELILO
	OSTypeXOM
	OSTypeGrub
	OSTypeRefind
	OSTypeNetboot
)

func (t OSType) String() string {
	switch t {
	case OSTypeUnknown:
		return "unknown"
	case OSTypeMacOS:
		return "macOS"
	case OSTypeLinux:
		return "Linux"
	case OSTypeWindows:
		return "Windows"
	case OSTypeELILO:
		return "ELILO"
	case OSTypeXOM:
		return "XOM"
	case OSTypeGrub:
		return "GRUB"
	case OSTypeRefind:
		return "rEFInd"
	case OSTypeNetboot:
		return "Netboot"
	default:
		return "unknown"
	}
}

// Tag identifies what selecting an entry does.
type Tag int

// Entry tags.
const (
	TagLoader Tag = iota
	TagFirmwareLoader
	TagTool
	TagAbout
	TagExit
	TagShutdown
	TagReboot
	TagInstall
	TagBootorder
	TagCleanNVRAM
	TagHidden
	TagFirmware
	TagCSRRotate
	TagReturn
)

var tagNames = map[Tag]string{
	TagLoader:         "loader",
	TagFirmwareLoader: "firmware-loader",
	TagTool:           "tool",
	TagAbout:          "about",
	TagExit:           "exit",
	TagShutdown:       "shutdown",
	TagReboot:         "reboot",
	TagInstall:        "install",
	TagBootorder:      "bootorder",
	TagCleanNVRAM:     "clean-nvram",
	TagHidden:         "hidden",
	TagFirmware:       "firmware",
	TagCSRRotate:      "csr-rotate",
	TagReturn:         "return",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}

	return "unknown"
}

// Sub-screen hint lines.
const (
	SubScreenHint1         = "Use arrow keys to move cursor; Enter to boot;"
	SubScreenHint2         = "Insert or F2 to edit options; Esc or Backspace to return to main menu"
	SubScreenHint2NoEditor = "Esc or Backspace to return to main menu"
)

// Entry is a menu entry.
//
// Loader-specific fields are zero for function entries (about, shutdown
// and friends).
type Entry struct {
	Title          string
	Tag            Tag
	Row            int
	ShortcutDigit  rune
	ShortcutLetter rune
	Image          *icon.Image
	BadgeImage     *icon.Image
	SubScreen      *Screen

	// Name is the loader title, used to title the sub-screen.
	Name        string
	LoaderPath  string
	Volume      *volume.Volume
	LoadOptions string
	InitrdPath  string
	OSType      OSType

	UseGraphicsMode bool
	Enabled         bool

	// EfiBootNum and EfiLoaderPath are set for firmware-defined entries.
	EfiBootNum    uint16
	EfiLoaderPath efivarfs.DevicePath
}

// Clone returns a deep copy of the entry including its sub-screen.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}

	out := *e
	out.Image = e.Image.Clone()
	out.BadgeImage = e.BadgeImage.Clone()
	out.SubScreen = e.SubScreen.Clone()
	out.Volume = e.Volume.Clone()
	out.EfiLoaderPath = e.EfiLoaderPath.Clone()

	return &out
}

// Screen is a titled list of entries.
type Screen struct {
	Title          string
	TitleImage     *icon.Image
	InfoLines      []string
	Entries        []*Entry
	TimeoutSeconds int
	TimeoutText    string
	Hint1          string
	Hint2          string
}

// Add appends an entry to the screen.
func (s *Screen) Add(e *Entry) {
	s.Entries = append(s.Entries, e)
}

// AddInfoLine appends an informational line to the screen.
func (s *Screen) AddInfoLine(line string) {
	s.InfoLines = append(s.InfoLines, line)
}

// Clone returns a deep copy of the screen and every entry on it.
func (s *Screen) Clone() *Screen {
	if s == nil {
		return nil
	}

	out := *s
	out.TitleImage = s.TitleImage.Clone()
	out.InfoLines = slices.Clone(s.InfoLines)

	if s.Entries != nil {
		out.Entries = make([]*Entry, 0, len(s.Entries))

		for _, e := range s.Entries {
			out.Entries = append(out.Entries, e.Clone())
		}
	}

	return &out
}

// AssignShortcutDigits gives the leading row-0 entries the digits 1 to 9
// and then 0. Entries after the tenth, or after the first entry on another
// row, keep no digit.
func (s *Screen) AssignShortcutDigits() {
	for i, e := range s.Entries {
		if e.Row != 0 {
			return
		}

		switch {
		case i < 9:
			e.ShortcutDigit = '1' + rune(i)
		case i == 9:
			e.ShortcutDigit = '0'
		default:
			return
		}
	}
}

// CopyScreen returns a deep copy of s.
func CopyScreen(s *Screen) *Screen {
	return s.Clone()
}

// CopyEntry returns a deep copy of e.
func CopyEntry(e *Entry) *Entry {
	return e.Clone()
}

// InitializeLoaderEntry returns an enabled loader entry.
//
// If template is non-nil its boot number, graphics flag, volume, loader
// path, options, initrd and firmware device path are copied. Titles,
// images and the OS type are not.
func InitializeLoaderEntry(template *Entry) *Entry {
	e := &Entry{
		Tag:     TagLoader,
		Enabled: true,
	}

	if template == nil {
		return e
	}

	e.EfiBootNum = template.EfiBootNum
	e.UseGraphicsMode = template.UseGraphicsMode
	e.Volume = template.Volume.Clone()
	e.LoaderPath = template.LoaderPath
	e.LoadOptions = template.LoadOptions
	e.InitrdPath = template.InitrdPath
	e.EfiLoaderPath = template.EfiLoaderPath.Clone()

	return e
}

// NewReturnEntry returns the entry that closes a sub-screen.
func NewReturnEntry() *Entry {
	return &Entry{
		Title:   "Return to Main Menu",
		Tag:     TagReturn,
		Row:     1,
		Enabled: true,
	}
}

// FreeEntry releases everything e owns, including its sub-screen. It is
// safe to call more than once.
func FreeEntry(e *Entry) {
	if e == nil {
		return
	}

	FreeScreen(e.SubScreen)

	*e = Entry{}
}

// FreeScreen releases the screen and every entry on it. It is safe to call
// more than once.
func FreeScreen(s *Screen) {
	if s == nil {
		return
	}

	for _, e := range s.Entries {
		FreeEntry(e)
	}

	*s = Screen{}
}
