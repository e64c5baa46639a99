// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/ryanuber/columnize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/siderolabs/bootscan/internal/pkg/mount"
	"github.com/siderolabs/bootscan/pkg/logging"
)

// volumesCmd represents the volumes command
var volumesCmd = &cobra.Command{
	Use:   "volumes",
	Short: "List the volumes a scan would run over",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVolumesCmd(afero.NewOsFs(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func runVolumesCmd(fs afero.Fs, out, errOut io.Writer) error {
	logger := newLogger(errOut, options.Debug)
	warnings := logging.NewWriter(logger, zapcore.WarnLevel)

	setters := options.mountOptions(fs, logger)

	points, err := mount.VolumePoints(setters...)
	if err != nil {
		return err
	}

	flags := mount.NewDefaultOptions(setters...).MountFlags

	lines := []string{"DIR | NAME | FS | KIND | ROLE | PART GUID | FILES | SIZE"}

	for dir, point := range points.All() {
		vol, err := point.Volume(fs, flags)
		if err != nil {
			fmt.Fprintln(warnings, err)

			continue
		}

		files, size, err := point.Usage(fs)
		if err != nil {
			return fmt.Errorf("error reading volume %s: %w", dir, err)
		}

		partGUID := "-"
		if vol.PartGUID != uuid.Nil {
			partGUID = vol.PartGUID.String()
		}

		lines = append(lines, fmt.Sprintf("%s | %s | %s | %s | %s | %s | %d | %s",
			dir, sanitize(vol.Name()), vol.FSType, vol.DiskKind, vol.Role, partGUID, files, humanize.Bytes(size)))
	}

	fmt.Fprintln(out, columnize.SimpleFormat(lines))

	return nil
}

func init() {
	rootCmd.AddCommand(volumesCmd)
}
