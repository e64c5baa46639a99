// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package scan

import (
	"go.uber.org/zap"

	"github.com/siderolabs/bootscan/pkg/icon"
	"github.com/siderolabs/bootscan/pkg/volume"
)

// ScanNetboot runs network boot discovery with the iPXE programs installed
// beside the boot manager and adds an entry for the location it returns.
func (s *Scanner) ScanNetboot() {
	self := s.opts.SelfVolume

	if self == nil || s.opts.Discoverer == nil {
		return
	}

	for _, path := range []string{ipxeName, ipxeDiscoverName} {
		if !fileExists(self, path) || !s.opts.Validator.IsValidLoader(self, path) {
			return
		}
	}

	location, err := s.opts.Discoverer.Discover(self, ipxeDiscoverName)
	if err != nil {
		s.warn(err, "While Running Network Boot Discovery")

		return
	}

	if location == "" {
		s.logger.Debug("network boot discovery returned no location")

		return
	}

	netVol := self.Clone()
	netVol.DiskKind = volume.DiskKindNet
	netVol.BadgeImage = s.opts.Icons.Builtin(icon.BuiltinVolumeNet)
	netVol.FsName = ""
	netVol.VolName = ""
	netVol.PartName = ""

	s.logger.Info("network boot location discovered", zap.String("location", location))

	s.AddLoaderEntry(ipxeName, location, netVol, true)
}
