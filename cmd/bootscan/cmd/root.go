// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package cmd implements the bootscan commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/siderolabs/bootscan/internal/pkg/efivarfs"
	"github.com/siderolabs/bootscan/internal/pkg/mount"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "bootscan",
	Short:        "Discover boot loaders on a set of volumes",
	Long:         ``,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var options = &Options{}

func init() {
	rootCmd.PersistentFlags().StringVar(&options.ConfigPath, "config", "", "Path to the boot manager configuration document")
	rootCmd.PersistentFlags().StringVar(&options.VolumesDir, "volumes-dir", ".", "Directory holding one subdirectory per volume")
	rootCmd.PersistentFlags().StringVar(&options.Manifest, "manifest", mount.DefaultManifest, "Volume manifest file name inside the volumes directory, empty to disable")
	rootCmd.PersistentFlags().BoolVar(&options.ManifestOnly, "manifest-only", false, "Only use the volume directories the manifest describes")
	rootCmd.PersistentFlags().StringVar(&options.Self, "self", "", `Location of the boot manager binary, as "volume:path"`)
	rootCmd.PersistentFlags().StringVar(&options.EFIVars, "efivars", efivarfs.DefaultPath, `EFI variables source: an efivarfs directory, "firmware" or "none"`)
	rootCmd.PersistentFlags().BoolVar(&options.Debug, "debug", false, "Enable debug logging")
}
