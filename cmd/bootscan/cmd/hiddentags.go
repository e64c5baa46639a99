// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/ryanuber/columnize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/siderolabs/bootscan/pkg/hiddentags"
)

var hiddenTagsCmdFlags struct {
	variable string
}

// hiddenTagsCmd represents the hidden-tags command
var hiddenTagsCmd = &cobra.Command{
	Use:   "hidden-tags",
	Short: "Manage the lists of hidden menu items",
	Long:  ``,
}

var hiddenTagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the hidden items",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHiddenTagsList(afero.NewOsFs(), cmd.OutOrStdout())
	},
}

var hiddenTagsAddCmd = &cobra.Command{
	Use:   "add <item>...",
	Short: "Hide items",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateHiddenTags(afero.NewOsFs(), func(s *hiddentags.Store, v hiddentags.Variable) error {
			return s.Add(v, args...)
		})
	},
}

var hiddenTagsRemoveCmd = &cobra.Command{
	Use:   "remove <item>...",
	Short: "Unhide items",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateHiddenTags(afero.NewOsFs(), func(s *hiddentags.Store, v hiddentags.Variable) error {
			return s.Remove(v, args...)
		})
	},
}

var hiddenTagsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Unhide every item of a list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateHiddenTags(afero.NewOsFs(), func(s *hiddentags.Store, v hiddentags.Variable) error {
			return s.Clear(v)
		})
	},
}

func parseVariable(name string) (hiddentags.Variable, error) {
	for _, v := range hiddentags.Variables {
		if strings.EqualFold(string(v), name) || strings.EqualFold(strings.TrimPrefix(string(v), "Hidden"), name) {
			return v, nil
		}
	}

	return "", fmt.Errorf("unknown hidden tag list %q", name)
}

func runHiddenTagsList(fs afero.Fs, out io.Writer) error {
	store := hiddentags.NewStore(options.openVariables(fs, false))

	variables := hiddentags.Variables

	if hiddenTagsCmdFlags.variable != "" {
		v, err := parseVariable(hiddenTagsCmdFlags.variable)
		if err != nil {
			return err
		}

		variables = []hiddentags.Variable{v}
	}

	lines := []string{"LIST | ITEM"}

	for _, v := range variables {
		items, err := store.ReadOptional(v)
		if err != nil {
			return err
		}

		for _, item := range items {
			lines = append(lines, fmt.Sprintf("%s | %s", v, sanitize(item)))
		}
	}

	fmt.Fprintln(out, columnize.SimpleFormat(lines))

	return nil
}

func updateHiddenTags(fs afero.Fs, update func(*hiddentags.Store, hiddentags.Variable) error) error {
	v := hiddentags.Tags

	if hiddenTagsCmdFlags.variable != "" {
		var err error

		if v, err = parseVariable(hiddenTagsCmdFlags.variable); err != nil {
			return err
		}
	}

	return update(hiddentags.NewStore(options.openVariables(fs, true)), v)
}

func init() {
	hiddenTagsCmd.PersistentFlags().StringVar(&hiddenTagsCmdFlags.variable, "list", "", "List to operate on: tags, legacy, tools or firmware (list defaults to all, other commands to tags)")
	hiddenTagsCmd.AddCommand(hiddenTagsListCmd, hiddenTagsAddCmd, hiddenTagsRemoveCmd, hiddenTagsClearCmd)
	rootCmd.AddCommand(hiddenTagsCmd)
}
