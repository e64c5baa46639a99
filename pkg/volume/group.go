// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package volume

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Group associates the companion volumes of APFS containers, so that a
// Preboot volume can be shown under the name of the system volume it boots.
type Group struct {
	// System volumes of every container.
	System []*Volume
	// Data volumes of every container.
	Data []*Volume
	// Recovery volumes of every container.
	Recovery []*Volume
	// HFSRecovery lists the legacy HFS+ "Recovery HD" volumes.
	HFSRecovery []*Volume

	// Skip lists the partition GUIDs the user asked to skip.
	Skip []uuid.UUID
	// Remapped lists the volume UUIDs of system volumes that were remapped
	// to their Preboot companion.
	Remapped []uuid.UUID

	// SingleAPFS is set when exactly one APFS container is present.
	SingleAPFS bool
}

// Name resolves the display name for a loader at loaderPath on vol.
//
// With a single container the system volume sharing the partition GUID
// wins. Otherwise the system volume, then the data volume, whose volume UUID
// appears in the loader path is used. An empty string means no name could be
// resolved.
func (g *Group) Name(loaderPath string, vol *Volume) string {
	if g == nil || vol == nil {
		return ""
	}

	if g.SingleAPFS {
		if sys := g.SystemFor(vol); sys != nil {
			return sys.VolName
		}
	}

	lower := strings.ToLower(loaderPath)

	for _, list := range [][]*Volume{g.System, g.Data} {
		for _, candidate := range list {
			if candidate.VolUUID == uuid.Nil {
				continue
			}

			if strings.Contains(lower, candidate.VolUUID.String()) {
				return candidate.VolName
			}
		}
	}

	return ""
}

// SystemFor returns the system volume that shares the partition of vol.
func (g *Group) SystemFor(vol *Volume) *Volume {
	if g == nil || vol == nil {
		return nil
	}

	for _, sys := range g.System {
		if sys.PartGUID == vol.PartGUID {
			return sys
		}
	}

	return nil
}

// IsSystem reports whether vol is one of the known system volumes.
func (g *Group) IsSystem(vol *Volume) bool {
	if g == nil || vol == nil || vol.VolUUID == uuid.Nil {
		return false
	}

	return slices.ContainsFunc(g.System, func(sys *Volume) bool {
		return sys.VolUUID == vol.VolUUID
	})
}

// IsSkipped reports whether vol must be skipped because its container was
// excluded by the user (single container only) or it is a remapped system
// volume.
func (g *Group) IsSkipped(vol *Volume) bool {
	if g == nil || vol == nil {
		return false
	}

	if g.SingleAPFS && slices.Contains(g.Skip, vol.PartGUID) {
		return true
	}

	return vol.VolUUID != uuid.Nil && slices.Contains(g.Remapped, vol.VolUUID)
}
