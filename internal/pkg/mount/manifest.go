// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package mount

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Manifest describes the volumes found under a prefix.
type Manifest struct {
	Volumes []Attributes `yaml:"volumes"`
}

// Attributes describes one volume directory.
type Attributes struct {
	Dir        string `yaml:"dir"`
	FsName     string `yaml:"fsName,omitempty"`
	VolName    string `yaml:"volName,omitempty"`
	PartName   string `yaml:"partName,omitempty"`
	PartGUID   string `yaml:"partGUID,omitempty"`
	VolUUID    string `yaml:"volUUID,omitempty"`
	FSType     string `yaml:"fsType,omitempty"`
	Kind       string `yaml:"kind,omitempty"`
	Role       string `yaml:"role,omitempty"`
	Unreadable bool   `yaml:"unreadable,omitempty"`
	// Skip excludes the APFS container of the volume.
	Skip bool `yaml:"skip,omitempty"`
}

// ParseManifest decodes a manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest

	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("error decoding manifest: %w", err)
	}

	seen := make(map[string]struct{}, len(m.Volumes))

	for i, attrs := range m.Volumes {
		if attrs.Dir == "" || strings.ContainsAny(attrs.Dir, `/\`) {
			return nil, fmt.Errorf("volume %d: invalid directory %q", i, attrs.Dir)
		}

		key := strings.ToLower(attrs.Dir)

		if _, ok := seen[key]; ok {
			return nil, fmt.Errorf("volume %d: duplicate directory %q", i, attrs.Dir)
		}

		seen[key] = struct{}{}
	}

	return &m, nil
}

// lookup returns the attributes of the volume stored in dir.
func (m *Manifest) lookup(dir string) (Attributes, bool) {
	if m == nil {
		return Attributes{}, false
	}

	for _, attrs := range m.Volumes {
		if strings.EqualFold(attrs.Dir, dir) {
			return attrs, true
		}
	}

	return Attributes{}, false
}

func loadManifest(opts *Options) (*Manifest, error) {
	if opts.Manifest == "" {
		return nil, nil //nolint:nilnil
	}

	data, err := afero.ReadFile(opts.Fs, filepath.Join(opts.Prefix, opts.Manifest))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil //nolint:nilnil
		}

		return nil, err
	}

	return ParseManifest(data)
}
