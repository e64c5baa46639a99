// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package scan

import "github.com/siderolabs/bootscan/pkg/menu"

// SetReturnEntryFactory replaces the constructor of sub-menu return entries.
func SetReturnEntryFactory(s *Scanner, f func() *menu.Entry) {
	s.newReturnEntry = f
}

var (
	KernelVersion      = kernelVersion
	Tokenize           = tokenize
	FindInitrd         = findInitrd
	AddInitrdToOptions = addInitrdToOptions
	MainLinuxOptions   = mainLinuxOptions
	OptionsFromFstab   = optionsFromFstab
	GuessDistribution  = guessLinuxDistribution
	MatchPatterns      = matchPatterns
	FilenameIn         = filenameIn
)
