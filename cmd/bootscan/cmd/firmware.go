// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ryanuber/columnize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/siderolabs/bootscan/internal/pkg/efivarfs"
	"github.com/siderolabs/bootscan/pkg/logging"
)

// firmwareCmd represents the firmware command
var firmwareCmd = &cobra.Command{
	Use:   "firmware",
	Short: "Inspect and edit the firmware boot entries",
	Long:  ``,
}

var firmwareListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the boot entries in boot order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFirmwareList(afero.NewOsFs(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

var firmwareOrderCmd = &cobra.Command{
	Use:   "order <num>...",
	Short: "Replace the boot order",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFirmwareOrder(afero.NewOsFs(), args)
	},
}

var firmwareRenameCmd = &cobra.Command{
	Use:   "rename <num> <description>",
	Short: "Change the description of a boot entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFirmwareUpdate(afero.NewOsFs(), cmd.OutOrStdout(), args[0], func(opt *efivarfs.LoadOption) {
			opt.Description = args[1]
		})
	},
}

var firmwareEnableCmd = &cobra.Command{
	Use:   "enable <num>",
	Short: "Mark a boot entry active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFirmwareUpdate(afero.NewOsFs(), cmd.OutOrStdout(), args[0], func(opt *efivarfs.LoadOption) {
			opt.Inactive = false
		})
	},
}

var firmwareDisableCmd = &cobra.Command{
	Use:   "disable <num>",
	Short: "Mark a boot entry inactive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFirmwareUpdate(afero.NewOsFs(), cmd.OutOrStdout(), args[0], func(opt *efivarfs.LoadOption) {
			opt.Inactive = true
		})
	},
}

// parseBootNum accepts "0003", "3" and "Boot0003".
func parseBootNum(s string) (uint16, error) {
	trimmed := s
	if len(trimmed) > 4 && strings.EqualFold(trimmed[:4], "boot") {
		trimmed = trimmed[4:]
	}

	idx, err := strconv.ParseUint(trimmed, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid boot entry number %q", s)
	}

	return uint16(idx), nil
}

func runFirmwareList(fs afero.Fs, out, errOut io.Writer) error {
	entries, err := efivarfs.BootOrderEntries(options.openVariables(fs, false))
	if len(entries) == 0 && err != nil {
		return err
	}

	printWarnings(logging.NewWriter(newLogger(errOut, options.Debug), zapcore.WarnLevel), err)

	lines := []string{"NUM | DESCRIPTION | ACTIVE | PATH"}

	for _, entry := range entries {
		path := "-"
		if len(entry.Option.FilePath) > 0 {
			path = entry.Option.FilePath.String()
		}

		lines = append(lines, fmt.Sprintf("%04X | %s | %t | %s",
			entry.Index, sanitize(entry.Option.Description), !entry.Option.Inactive, sanitize(path)))
	}

	fmt.Fprintln(out, columnize.SimpleFormat(lines))

	return nil
}

func runFirmwareOrder(fs afero.Fs, args []string) error {
	vars := options.openVariables(fs, true)

	order := make(efivarfs.BootOrder, 0, len(args))

	for _, arg := range args {
		idx, err := parseBootNum(arg)
		if err != nil {
			return err
		}

		if _, err = efivarfs.GetBootEntry(vars, idx); err != nil {
			return fmt.Errorf("error reading Boot%04X: %w", idx, err)
		}

		order = append(order, idx)
	}

	return efivarfs.SetBootOrder(vars, order)
}

func runFirmwareUpdate(fs afero.Fs, out io.Writer, num string, update func(*efivarfs.LoadOption)) error {
	idx, err := parseBootNum(num)
	if err != nil {
		return err
	}

	opt, err := efivarfs.UpdateBootEntry(options.openVariables(fs, true), idx, update)
	if err != nil {
		return fmt.Errorf("error updating Boot%04X: %w", idx, err)
	}

	fmt.Fprintf(out, "Boot%04X: %s (active: %t)\n", idx, opt.Description, !opt.Inactive)

	return nil
}

func init() {
	firmwareCmd.AddCommand(firmwareListCmd, firmwareOrderCmd, firmwareRenameCmd, firmwareEnableCmd, firmwareDisableCmd)
	rootCmd.AddCommand(firmwareCmd)
}
