// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/siderolabs/bootscan/internal/pkg/efivarfs"
	"github.com/siderolabs/bootscan/internal/pkg/mount"
	"github.com/siderolabs/bootscan/pkg/config"
	"github.com/siderolabs/bootscan/pkg/config/configloader"
	"github.com/siderolabs/bootscan/pkg/logging"
	"github.com/siderolabs/bootscan/pkg/volume"
)

// Options are the global command line options.
type Options struct {
	ConfigPath   string
	VolumesDir   string
	Manifest     string
	ManifestOnly bool
	Self         string
	EFIVars      string
	Debug        bool
}

// environment is everything a command needs to run a scan.
type environment struct {
	logger *zap.Logger
	fs     afero.Fs

	cfg     *config.Config
	vars    efivarfs.ReadWriter
	volumes []*volume.Volume
	group   *volume.Group

	self     *volume.Volume
	selfPath string

	// warnings holds the volumes left out of the scan.
	warnings error
}

func (o *Options) mountOptions(fs afero.Fs, logger *zap.Logger) []mount.Option {
	flags := mount.ReadOnly | mount.SkipHidden
	if o.ManifestOnly {
		flags |= mount.SkipIfNoManifest
	}

	return []mount.Option{
		mount.WithFs(fs),
		mount.WithPrefix(o.VolumesDir),
		mount.WithManifest(o.Manifest),
		mount.WithFlags(flags),
		mount.WithLogger(logger),
	}
}

// openVariables opens the EFI variable store selected by the efivars option.
func (o *Options) openVariables(fs afero.Fs, write bool) efivarfs.ReadWriter {
	switch o.EFIVars {
	case "none", "":
		return &efivarfs.Mock{}
	case "firmware":
		return efivarfs.NewDefaultContextReadWriter()
	case efivarfs.DefaultPath:
		return efivarfs.NewSystemReaderWriter(write)
	default:
		return efivarfs.NewFilesystemReaderWriter(afero.NewBasePathFs(fs, o.EFIVars), write)
	}
}

// loadEnvironment reads the configuration, enumerates the volumes and opens
// the variable store.
func (o *Options) loadEnvironment(fs afero.Fs, logOutput io.Writer) (*environment, error) {
	env := &environment{
		logger: newLogger(logOutput, o.Debug),
		fs:     fs,
		cfg:    config.Default(),
	}

	if o.ConfigPath != "" {
		cfg, err := configloader.NewFromFile(fs, o.ConfigPath)
		if err != nil {
			return nil, err
		}

		env.cfg = cfg
	}

	volumes, group, err := mount.Enumerate(o.mountOptions(fs, env.logger)...)
	if group == nil {
		return nil, err
	}

	env.warnings = err

	env.volumes, env.group = volumes, group
	env.vars = o.openVariables(fs, false)

	if o.Self != "" {
		if env.self, env.selfPath, err = findSelf(volumes, o.Self); err != nil {
			return nil, err
		}
	}

	return env, nil
}

// newLogger returns the console logger, with colored levels on terminals.
func newLogger(w io.Writer, debug bool) *zap.Logger {
	var encoderOpts []logging.EncoderOption

	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		encoderOpts = append(encoderOpts, logging.WithColoredLevels())
	}

	return logging.Console(w, debug, encoderOpts...)
}

// findSelf resolves a "volume:path" location against the volumes.
func findSelf(volumes []*volume.Volume, location string) (*volume.Volume, string, error) {
	name, path, ok := strings.Cut(location, ":")
	if !ok || name == "" || path == "" {
		return nil, "", fmt.Errorf("invalid boot manager location %q, expected volume:path", location)
	}

	for _, vol := range volumes {
		if strings.EqualFold(vol.Name(), name) || vol.MatchesDescription(name) {
			return vol, path, nil
		}
	}

	return nil, "", fmt.Errorf("boot manager volume %q not found", name)
}
