// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/ryanuber/columnize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/siderolabs/bootscan/pkg/logging"
	"github.com/siderolabs/bootscan/pkg/menu"
	"github.com/siderolabs/bootscan/pkg/scan"
	"github.com/siderolabs/bootscan/pkg/volume"
)

var scanCmdFlags struct {
	tools           bool
	subScreens      bool
	netbootLocation string
}

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the volumes and print the boot menu",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScanCmd(afero.NewOsFs(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

// staticDiscoverer reports a fixed network boot location.
type staticDiscoverer string

func (d staticDiscoverer) Discover(*volume.Volume, string) (string, error) {
	return string(d), nil
}

func runScanCmd(fs afero.Fs, out, errOut io.Writer) error {
	env, err := options.loadEnvironment(fs, errOut)
	if err != nil {
		return err
	}

	setters := []scan.Option{
		scan.WithLogger(env.logger),
		scan.WithVolumes(env.volumes...),
		scan.WithGroup(env.group),
		scan.WithEFIVars(env.vars),
	}

	if env.self != nil {
		setters = append(setters, scan.WithSelf(env.self, env.selfPath))
	}

	if scanCmdFlags.netbootLocation != "" {
		setters = append(setters, scan.WithDiscoverer(staticDiscoverer(scanCmdFlags.netbootLocation)))
	}

	scanner := scan.NewScanner(env.cfg, setters...)

	result := scanner.ScanForBootloaders()

	if scanCmdFlags.tools {
		scanner.ScanForTools()
	}

	printWarnings(logging.NewWriter(env.logger, zapcore.WarnLevel), multierror.Append(env.warnings, scanner.Warnings()).ErrorOrNil())

	screen := scanner.Menu()

	if len(screen.Entries) == 0 {
		return scan.ErrNoLoaders
	}

	if result.NoEntries {
		fmt.Fprintln(errOut, "no boot loaders found, only tools are available")
	}

	fmt.Fprintln(out, columnize.SimpleFormat(formatMenu(screen, scanCmdFlags.subScreens)))

	return nil
}

// printWarnings writes one line per warning to w.
func printWarnings(w io.Writer, warnings error) {
	if warnings == nil {
		return
	}

	var merr *multierror.Error

	if !errors.As(warnings, &merr) {
		fmt.Fprintln(w, warnings)

		return
	}

	for _, err := range merr.Errors {
		fmt.Fprintln(w, err)
	}
}

// formatMenu renders a menu as columnize lines, one per entry.
func formatMenu(screen *menu.Screen, subScreens bool) []string {
	lines := []string{"ROW | KEY | TAG | TITLE | VOLUME | PATH | OPTIONS"}

	getWithPlaceholder := func(in string) string {
		if in == "" {
			return "-"
		}

		return in
	}

	var add func(e *menu.Entry, indent string)

	add = func(e *menu.Entry, indent string) {
		var volName string

		if e.Volume != nil {
			volName = e.Volume.Name()
		}

		path := e.LoaderPath
		if path == "" && e.EfiLoaderPath != nil {
			path = e.EfiLoaderPath.String()
		}

		lines = append(lines, fmt.Sprintf("%d | %s | %s | %s | %s | %s | %s",
			e.Row,
			getWithPlaceholder(shortcut(e)),
			e.Tag,
			indent+sanitize(e.Title),
			getWithPlaceholder(sanitize(volName)),
			getWithPlaceholder(path),
			getWithPlaceholder(sanitize(e.LoadOptions)),
		))

		if !subScreens || e.SubScreen == nil {
			return
		}

		for _, sub := range e.SubScreen.Entries {
			add(sub, indent+"- ")
		}
	}

	for _, e := range screen.Entries {
		add(e, "")
	}

	return lines
}

func shortcut(e *menu.Entry) string {
	var keys []string

	for _, r := range []rune{e.ShortcutDigit, e.ShortcutLetter} {
		if r != 0 {
			keys = append(keys, string(r))
		}
	}

	return strings.Join(keys, ",")
}

// sanitize keeps column separators out of free-form text.
func sanitize(s string) string {
	return strings.ReplaceAll(s, "|", "/")
}

func init() {
	scanCmd.Flags().BoolVar(&scanCmdFlags.tools, "tools", true, "Add the tool entries after the loaders")
	scanCmd.Flags().BoolVar(&scanCmdFlags.subScreens, "submenus", false, "Print the sub-screen entries below their loader")
	scanCmd.Flags().StringVar(&scanCmdFlags.netbootLocation, "netboot-location", "", "Report this location as the network boot discovery result")
	rootCmd.AddCommand(scanCmd)
}
