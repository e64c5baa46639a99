// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package mount

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/siderolabs/bootscan/pkg/volume"
)

// VolumePoints returns the mount points of the volume directories under the
// prefix.
//
// Directories the manifest describes come first, in manifest order, then the
// remaining directories by name.
func VolumePoints(setters ...Option) (*Points, error) {
	opts := NewDefaultOptions(setters...)

	manifest, err := loadManifest(opts)
	if err != nil {
		return nil, err
	}

	entries, err := afero.ReadDir(opts.Fs, opts.Prefix)
	if err != nil {
		return nil, fmt.Errorf("error listing volumes in %s: %w", opts.Prefix, err)
	}

	dirs := make(map[string]string, len(entries))

	var names []string

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		if opts.MountFlags.Check(SkipHidden) && strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		dirs[strings.ToLower(entry.Name())] = entry.Name()
		names = append(names, entry.Name())
	}

	points := NewMountPoints()

	if manifest != nil {
		for _, attrs := range manifest.Volumes {
			name, ok := dirs[strings.ToLower(attrs.Dir)]
			if !ok {
				opts.Logger.Warn("manifest volume directory is missing", zap.String("dir", attrs.Dir))

				continue
			}

			points.Set(name, NewMountPoint(filepath.Join(opts.Prefix, name), name, attrs))
		}
	}

	for _, name := range names {
		if _, ok := points.Get(name); ok {
			continue
		}

		if opts.MountFlags.Check(SkipIfNoManifest) {
			opts.Logger.Debug("skipping volume directory not in manifest", zap.String("dir", name))

			continue
		}

		points.Set(name, NewMountPoint(filepath.Join(opts.Prefix, name), name, Attributes{Dir: name}))
	}

	return points, nil
}

// Volume builds the volume backed by the mount point.
//
// Names default to the directory name and the filesystem type to FAT.
func (p *Point) Volume(base afero.Fs, flags Flags) (*volume.Volume, error) {
	attrs := p.attrs

	vol := &volume.Volume{
		Root:       p.Root(base, flags),
		FsName:     attrs.FsName,
		VolName:    attrs.VolName,
		PartName:   attrs.PartName,
		FSType:     volume.FSTypeFAT,
		DiskKind:   volume.ParseDiskKind(attrs.Kind),
		IsReadable: !attrs.Unreadable,
	}

	if vol.FsName == "" && vol.VolName == "" {
		vol.VolName = p.target
	}

	if attrs.FSType != "" {
		vol.FSType = volume.ParseFSType(attrs.FSType)
	}

	var err error

	if vol.Role, err = volume.ParseRole(attrs.Role); err != nil {
		return nil, fmt.Errorf("volume %s: %w", p.target, err)
	}

	if attrs.PartGUID != "" {
		if vol.PartGUID, err = uuid.Parse(attrs.PartGUID); err != nil {
			return nil, fmt.Errorf("volume %s: invalid partition GUID: %w", p.target, err)
		}
	}

	if attrs.VolUUID != "" {
		if vol.VolUUID, err = uuid.Parse(attrs.VolUUID); err != nil {
			return nil, fmt.Errorf("volume %s: invalid volume UUID: %w", p.target, err)
		}
	}

	return vol, nil
}

// Volumes builds the volumes of every mount point and groups the APFS
// companion volumes.
func (mp *Points) Volumes(base afero.Fs, flags Flags) ([]*volume.Volume, *volume.Group, error) {
	var (
		result    *multierror.Error
		volumes   []*volume.Volume
		skipped   []bool
		group     = &volume.Group{}
		container = map[uuid.UUID]struct{}{}
		preboot   = map[uuid.UUID]struct{}{}
	)

	for _, p := range mp.All() {
		vol, err := p.Volume(base, flags)
		if err != nil {
			result = multierror.Append(result, err)

			continue
		}

		volumes = append(volumes, vol)
		skipped = append(skipped, p.attrs.Skip)
	}

	for i, vol := range volumes {
		switch vol.Role {
		case volume.RoleSystem:
			group.System = append(group.System, vol)
		case volume.RoleData:
			group.Data = append(group.Data, vol)
		case volume.RoleRecovery:
			group.Recovery = append(group.Recovery, vol)
		case volume.RolePreboot:
			preboot[vol.PartGUID] = struct{}{}
		}

		if vol.FSType == volume.FSTypeHFSPlus && strings.EqualFold(vol.VolName, "Recovery HD") {
			group.HFSRecovery = append(group.HFSRecovery, vol)
		}

		if vol.FSType != volume.FSTypeAPFS || vol.PartGUID == uuid.Nil {
			continue
		}

		container[vol.PartGUID] = struct{}{}

		if skipped[i] {
			group.Skip = append(group.Skip, vol.PartGUID)
		}
	}

	for _, sys := range group.System {
		if _, ok := preboot[sys.PartGUID]; ok && sys.VolUUID != uuid.Nil {
			group.Remapped = append(group.Remapped, sys.VolUUID)
		}
	}

	group.SingleAPFS = len(container) == 1

	return volumes, group, result.ErrorOrNil()
}

// Usage returns the number of files under the mount point and their total
// size.
func (p *Point) Usage(base afero.Fs) (files int, size uint64, err error) {
	err = afero.Walk(p.Root(base, ReadOnly), "/", func(_ string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.Mode().IsRegular() {
			files++
			size += uint64(info.Size())
		}

		return nil
	})

	return files, size, err
}

// Enumerate returns the volumes under the prefix and their grouping.
//
// A volume whose manifest entry is malformed is left out. The remaining
// volumes are still returned together with the aggregated errors; the group
// is nil only when the volumes could not be listed at all.
func Enumerate(setters ...Option) ([]*volume.Volume, *volume.Group, error) {
	opts := NewDefaultOptions(setters...)

	points, err := VolumePoints(setters...)
	if err != nil {
		return nil, nil, err
	}

	volumes, group, err := points.Volumes(opts.Fs, opts.MountFlags)

	opts.Logger.Debug("enumerated volumes", zap.Int("count", len(volumes)), zap.Bool("single_apfs", group.SingleAPFS))

	return volumes, group, err
}
