// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package mount

import (
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DefaultManifest is the name of the manifest file looked up in the prefix.
const DefaultManifest = "volumes.yaml"

const (
	// ReadOnly is a flag for exposing the volume roots as readonly.
	ReadOnly Flags = 1 << iota
	// SkipIfNoManifest is a flag for skipping directories the manifest does
	// not describe.
	SkipIfNoManifest
	// SkipHidden is a flag for skipping directories whose name starts with a dot.
	SkipHidden
)

// Flags is the mount flags.
type Flags uint

// Options is the functional options struct.
type Options struct {
	Fs         afero.Fs
	Prefix     string
	Manifest   string
	MountFlags Flags
	Logger     *zap.Logger
}

// Option is the functional option func.
type Option func(*Options)

// Check checks if all provided flags are set.
func (f Flags) Check(flags Flags) bool {
	return (f & flags) == flags
}

// Intersects checks if at least one flag is set.
func (f Flags) Intersects(flags Flags) bool {
	return (f & flags) != 0
}

// WithFs sets the filesystem the volume directories are read from.
func WithFs(fs afero.Fs) Option {
	return func(args *Options) {
		args.Fs = fs
	}
}

// WithPrefix is a functional option for setting the directory holding the
// volume directories.
func WithPrefix(o string) Option {
	return func(args *Options) {
		args.Prefix = o
	}
}

// WithManifest sets the manifest file name, relative to the prefix.
//
// An empty name disables the manifest.
func WithManifest(name string) Option {
	return func(args *Options) {
		args.Manifest = name
	}
}

// WithFlags is a functional option to set up mount flags.
func WithFlags(flags Flags) Option {
	return func(args *Options) {
		args.MountFlags = flags
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(args *Options) {
		args.Logger = logger
	}
}

// NewDefaultOptions initializes a Options struct with default values.
func NewDefaultOptions(setters ...Option) *Options {
	opts := &Options{
		Fs:         afero.NewOsFs(),
		Prefix:     ".",
		Manifest:   DefaultManifest,
		MountFlags: ReadOnly | SkipHidden,
		Logger:     zap.NewNop(),
	}

	for _, setter := range setters {
		setter(opts)
	}

	return opts
}
