// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package hiddentags_test

import (
	"testing"

	"github.com/siderolabs/gen/xerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/bootscan/internal/pkg/efivarfs"
	"github.com/siderolabs/bootscan/pkg/hiddentags"
)

func TestReadMissing(t *testing.T) {
	t.Parallel()

	store := hiddentags.NewStore(&efivarfs.Mock{})

	for _, v := range hiddentags.Variables {
		_, err := store.Read(v)
		require.Error(t, err)
		assert.True(t, xerrors.TagIs[hiddentags.NotSet](err))

		items, err := store.ReadOptional(v)
		require.NoError(t, err)
		assert.Empty(t, items)
	}
}

func TestReadWrite(t *testing.T) {
	t.Parallel()

	rw := &efivarfs.Mock{}
	require.NoError(t, efivarfs.WriteString(rw, efivarfs.ScopeRefind, "HiddenTags", ` ESP:\EFI\ubuntu\grubx64.efi , ,shellx64.efi`))

	store := hiddentags.NewStore(rw)

	items, err := store.Read(hiddentags.Tags)
	require.NoError(t, err)
	assert.Equal(t, []string{`ESP:\EFI\ubuntu\grubx64.efi`, "shellx64.efi"}, items)

	require.NoError(t, store.Add(hiddentags.Tags, "SHELLX64.EFI", "memtest86.efi"))

	items, err = store.Read(hiddentags.Tags)
	require.NoError(t, err)
	assert.Equal(t, []string{`ESP:\EFI\ubuntu\grubx64.efi`, "shellx64.efi", "memtest86.efi"}, items)

	require.NoError(t, store.Remove(hiddentags.Tags, "ShellX64.efi"))

	items, err = store.Read(hiddentags.Tags)
	require.NoError(t, err)
	assert.Equal(t, []string{`ESP:\EFI\ubuntu\grubx64.efi`, "memtest86.efi"}, items)

	require.NoError(t, store.Remove(hiddentags.Tags, `esp:\efi\ubuntu\grubx64.efi`, "memtest86.efi"))

	_, err = store.Read(hiddentags.Tags)
	assert.True(t, xerrors.TagIs[hiddentags.NotSet](err))

	require.NoError(t, store.Clear(hiddentags.Firmware))
}

func TestAddCreates(t *testing.T) {
	t.Parallel()

	rw := &efivarfs.Mock{}
	store := hiddentags.NewStore(rw)

	require.NoError(t, store.Add(hiddentags.Legacy, "Windows HD"))

	v, err := efivarfs.ReadString(rw, efivarfs.ScopeRefind, "HiddenLegacy")
	require.NoError(t, err)
	assert.Equal(t, "Windows HD", v)

	_, attrs, err := rw.Read(efivarfs.ScopeRefind, "HiddenLegacy")
	require.NoError(t, err)
	assert.Equal(t, efivarfs.AttrNonVolatile|efivarfs.AttrBootserviceAccess|efivarfs.AttrRuntimeAccess, attrs)
}
