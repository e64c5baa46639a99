// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/bootscan/pkg/config"
)

func TestSnapshotIsImmutable(t *testing.T) {
	t.Parallel()

	opts := config.DefaultOptions()
	opts.DontScanDirs = []string{`\EFI\hidden`}

	cfg := config.New(opts)

	opts.DontScanDirs[0] = "changed"
	assert.Equal(t, []string{`\EFI\hidden`}, cfg.DontScanDirs())

	dirs := cfg.DontScanDirs()
	dirs[0] = "changed"
	assert.Equal(t, []string{`\EFI\hidden`}, cfg.DontScanDirs())

	back := cfg.Options()
	back.DontScanDirs[0] = "changed"
	assert.Equal(t, []string{`\EFI\hidden`}, cfg.DontScanDirs())
}

func TestWithHiddenTags(t *testing.T) {
	t.Parallel()

	opts := config.DefaultOptions()
	opts.DontScanFiles = []string{"shim.efi"}
	opts.DontScanVolumes = []string{"LRS_ESP"}

	base := config.New(opts)
	scoped := base.WithHiddenTags([]string{`ESP:\EFI\ubuntu\grubx64.efi`, "SHIM.EFI"}, []string{"Windows HD"})

	assert.Equal(t, []string{"shim.efi", `ESP:\EFI\ubuntu\grubx64.efi`}, scoped.DontScanFiles())
	assert.Equal(t, []string{"LRS_ESP", "Windows HD"}, scoped.DontScanVolumes())

	assert.Equal(t, []string{"shim.efi"}, base.DontScanFiles())
	assert.Equal(t, []string{"LRS_ESP"}, base.DontScanVolumes())
}

func TestWithoutPreboot(t *testing.T) {
	t.Parallel()

	opts := config.DefaultOptions()
	opts.DontScanFiles = []string{`Preboot:\System\Library\CoreServices\boot.efi`, "shim.efi"}
	opts.DontScanDirs = []string{`preboot:\EFI`, `\EFI\hidden`}
	opts.DontScanVolumes = []string{"PREBOOT", "Recovery"}

	base := config.New(opts)
	scoped := base.WithoutPreboot()

	assert.Equal(t, []string{"shim.efi"}, scoped.DontScanFiles())
	assert.Equal(t, []string{`\EFI\hidden`}, scoped.DontScanDirs())
	assert.Equal(t, []string{"Recovery"}, scoped.DontScanVolumes())

	assert.Len(t, base.DontScanFiles(), 2)
}

func TestAllowGraphicsMode(t *testing.T) {
	t.Parallel()

	opts := config.DefaultOptions()
	assert.True(t, config.New(opts).AllowGraphicsMode())

	opts.TextOnly = true
	assert.False(t, config.New(opts).AllowGraphicsMode())

	opts.TextOnly = false
	opts.DirectBoot = true
	assert.False(t, config.New(opts).AllowGraphicsMode())
}

func TestFlags(t *testing.T) {
	t.Parallel()

	g, err := config.ParseGraphicsFor([]string{"OSX", "linux"})
	require.NoError(t, err)
	assert.True(t, g.Has(config.GraphicsForOSX))
	assert.True(t, g.Has(config.GraphicsForLinux))
	assert.False(t, g.Has(config.GraphicsForWindows))

	_, err = config.ParseGraphicsFor([]string{"beos"})
	require.Error(t, err)

	h, err := config.ParseHideUI([]string{"hwtest", "editor"})
	require.NoError(t, err)
	assert.True(t, h.Has(config.HideUIHWTest))
	assert.False(t, h.Has(config.HideUISafeMode))

	tool, err := config.ParseTool("Shell")
	require.NoError(t, err)
	assert.Equal(t, config.ToolShell, tool)

	_, err = config.ParseTool("debugger")
	require.Error(t, err)

	require.NoError(t, config.ValidateScanFor("MIHEBOCNF"))
	require.Error(t, config.ValidateScanFor("ix"))
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	assert.Equal(t, "ieom", cfg.ScanFor())
	assert.Equal(t, []string{"boot"}, cfg.AlsoScan())
	assert.True(t, cfg.FoldLinuxKernels())
	assert.True(t, cfg.SyncAPFS())
	assert.Contains(t, cfg.ShowTools(), config.ToolShell)
	assert.Contains(t, cfg.DontScanFiles(), "shimx64.efi")
}
