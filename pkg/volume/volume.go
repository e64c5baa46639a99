// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package volume describes mounted volumes as seen by the loader scanner.
//
// Volumes are produced by an enumeration collaborator before a scan starts
// and are treated as read-only by the scanner, which works on deep copies
// whenever it needs to change them.
package volume

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/siderolabs/bootscan/pkg/icon"
)

// DiskKind is the kind of media a volume lives on.
type DiskKind int

// Disk kinds.
const (
	DiskKindInternal DiskKind = iota
	DiskKindExternal
	DiskKindOptical
	DiskKindNet
)

func (k DiskKind) String() string {
	switch k {
	case DiskKindInternal:
		return "internal"
	case DiskKindExternal:
		return "external"
	case DiskKindOptical:
		return "optical"
	case DiskKindNet:
		return "net"
	default:
		return "unknown"
	}
}

// ParseDiskKind parses a disk kind name as printed by String. Unknown names
// map to DiskKindInternal.
func ParseDiskKind(s string) DiskKind {
	for _, k := range []DiskKind{DiskKindExternal, DiskKindOptical, DiskKindNet} {
		if strings.EqualFold(k.String(), s) {
			return k
		}
	}

	return DiskKindInternal
}

// FSType is the filesystem type of a volume.
type FSType int

// Filesystem types.
const (
	FSTypeUnknown FSType = iota
	FSTypeWholeDisk
	FSTypeFAT
	FSTypeEXFAT
	FSTypeHFSPlus
	FSTypeAPFS
	FSTypeNTFS
	FSTypeExt2
	FSTypeExt3
	FSTypeExt4
	FSTypeXFS
	FSTypeBtrfs
	FSTypeReiserFS
	FSTypeJFS
	FSTypeISO9660
)

var fsTypeNames = map[FSType]string{
	FSTypeUnknown:   "unknown",
	FSTypeWholeDisk: "whole disk",
	FSTypeFAT:       "FAT",
	FSTypeEXFAT:     "exFAT",
	FSTypeHFSPlus:   "HFS+",
	FSTypeAPFS:      "APFS",
	FSTypeNTFS:      "NTFS",
	FSTypeExt2:      "ext2",
	FSTypeExt3:      "ext3",
	FSTypeExt4:      "ext4",
	FSTypeXFS:       "XFS",
	FSTypeBtrfs:     "btrfs",
	FSTypeReiserFS:  "ReiserFS",
	FSTypeJFS:       "JFS",
	FSTypeISO9660:   "ISO-9660",
}

func (t FSType) String() string {
	if name, ok := fsTypeNames[t]; ok {
		return name
	}

	return fsTypeNames[FSTypeUnknown]
}

// ParseFSType parses a filesystem type name as printed by String.
func ParseFSType(s string) FSType {
	for t, name := range fsTypeNames {
		if strings.EqualFold(name, s) {
			return t
		}
	}

	return FSTypeUnknown
}

// Role is the role of an APFS volume inside its container.
//
// RoleUndefined is also used for non-APFS volumes.
type Role uint16

// APFS volume roles.
const (
	RoleUndefined Role = 0x0000
	RoleSystem    Role = 0x0001
	RoleUser      Role = 0x0002
	RoleRecovery  Role = 0x0004
	RoleVM        Role = 0x0008
	RolePreboot   Role = 0x0010
	RoleInstaller Role = 0x0020
	RoleData      Role = 0x0040
	RoleBaseband  Role = 0x0080
	RoleUpdate    Role = 0x00C0
	RoleXART      Role = 0x0100
	RoleHardware  Role = 0x0140
	RoleBackup    Role = 0x0180
)

var roleNames = map[Role]string{
	RoleUndefined: "undefined",
	RoleSystem:    "system",
	RoleUser:      "user",
	RoleRecovery:  "recovery",
	RoleVM:        "vm",
	RolePreboot:   "preboot",
	RoleInstaller: "installer",
	RoleData:      "data",
	RoleBaseband:  "baseband",
	RoleUpdate:    "update",
	RoleXART:      "xart",
	RoleHardware:  "hardware",
	RoleBackup:    "backup",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}

	return fmt.Sprintf("role(%#06x)", uint16(r))
}

// ParseRole parses a role name as printed by String.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return RoleUndefined, nil
	}

	for r, name := range roleNames {
		if strings.EqualFold(name, s) {
			return r, nil
		}
	}

	return RoleUndefined, fmt.Errorf("unknown volume role %q", s)
}

// Bootable reports whether volumes of this role may carry user-bootable
// loaders. Support roles (recovery, VM, data and friends) never do.
func (r Role) Bootable() bool {
	switch r {
	case RoleUndefined, RoleSystem, RolePreboot:
		return true
	default:
		return false
	}
}

// Volume is one mounted filesystem.
type Volume struct {
	// Root is the volume's root directory. Files are addressed with
	// slash-separated absolute paths. A nil Root means the volume has no
	// usable filesystem.
	Root afero.Fs

	BadgeImage *icon.Image
	IconImage  *icon.Image

	FsName   string
	VolName  string
	PartName string

	PartGUID uuid.UUID
	VolUUID  uuid.UUID

	FSType   FSType
	DiskKind DiskKind
	Role     Role

	IsReadable bool
}

// Clone returns a deep copy of the volume.
//
// The root filesystem handle is shared: it is owned by the enumeration
// collaborator and outlives every copy.
func (v *Volume) Clone() *Volume {
	if v == nil {
		return nil
	}

	out := *v
	out.BadgeImage = v.BadgeImage.Clone()
	out.IconImage = v.IconImage.Clone()

	return &out
}

// Name returns the best human-readable name of the volume.
func (v *Volume) Name() string {
	switch {
	case v.VolName != "":
		return v.VolName
	case v.FsName != "":
		return v.FsName
	default:
		return v.PartName
	}
}

// IsWindowsSupport reports whether the volume is one of the NTFS support
// volumes Windows creates, which never carry loaders.
func (v *Volume) IsWindowsSupport() bool {
	if v.FSType != FSTypeNTFS {
		return false
	}

	for _, name := range []string{"System Reserved", "Basic Data Partition", "Microsoft Reserved Partition"} {
		if strings.EqualFold(v.VolName, name) {
			return true
		}
	}

	return false
}

// MatchesDescription reports whether desc names this volume, comparing
// case-insensitively against the filesystem, volume and partition names and
// the partition GUID.
func (v *Volume) MatchesDescription(desc string) bool {
	if desc == "" {
		return false
	}

	for _, name := range []string{v.FsName, v.VolName, v.PartName} {
		if name != "" && strings.EqualFold(name, desc) {
			return true
		}
	}

	if v.PartGUID != uuid.Nil && strings.EqualFold(v.PartGUID.String(), desc) {
		return true
	}

	return false
}
