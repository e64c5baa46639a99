// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package mount exposes directory trees as the volumes a loader scan runs
// over.
//
// Every subdirectory of a prefix directory is one volume. A YAML manifest in
// the prefix may describe the volumes further (names, partition and volume
// UUIDs, filesystem type, APFS role).
package mount

import (
	"iter"
	"path/filepath"

	"github.com/spf13/afero"
)

// Point represents a directory exposed as a volume.
type Point struct {
	source string
	target string
	attrs  Attributes
}

// PointMap represents a unique set of mount points.
type PointMap = map[string]*Point

// Points represents an ordered set of mount points.
type Points struct {
	points PointMap
	order  []string
}

// NewMountPoint initializes and returns a Point struct.
func NewMountPoint(source, target string, attrs Attributes) *Point {
	return &Point{
		source: source,
		target: target,
		attrs:  attrs,
	}
}

// NewMountPoints initializes and returns a Points struct.
func NewMountPoints() *Points {
	return &Points{
		points: make(PointMap),
	}
}

// Source returns the directory backing the mount point.
func (p *Point) Source() string {
	return p.source
}

// Target returns the mount point name.
func (p *Point) Target() string {
	return p.target
}

// Attributes returns the manifest attributes of the mount point.
func (p *Point) Attributes() Attributes {
	return p.attrs
}

// Root returns the filesystem rooted at the mount point.
func (p *Point) Root(base afero.Fs, flags Flags) afero.Fs {
	root := afero.NewBasePathFs(base, filepath.Clean(p.source))

	if flags.Check(ReadOnly) {
		root = afero.NewReadOnlyFs(root)
	}

	return root
}

// Set adds a mount point, keeping the position of a replaced one.
func (mp *Points) Set(key string, value *Point) {
	if _, ok := mp.points[key]; !ok {
		mp.order = append(mp.order, key)
	}

	mp.points[key] = value
}

// Get returns a mount point by key.
func (mp *Points) Get(key string) (*Point, bool) {
	p, ok := mp.points[key]

	return p, ok
}

// Len returns the number of mount points.
func (mp *Points) Len() int {
	return len(mp.order)
}

// All iterates over the mount points in insertion order.
func (mp *Points) All() iter.Seq2[string, *Point] {
	return func(yield func(string, *Point) bool) {
		for _, key := range mp.order {
			if !yield(key, mp.points[key]) {
				return
			}
		}
	}
}
