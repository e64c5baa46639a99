// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package efivarfs_test

import (
	"io/fs"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/bootscan/internal/pkg/efivarfs"
)

func mustMarshal(t *testing.T, opt *efivarfs.LoadOption) []byte {
	t.Helper()

	raw, err := opt.Marshal()
	require.NoError(t, err)

	return raw
}

func TestBootOrderEntries(t *testing.T) {
	t.Parallel()

	shell := &efivarfs.LoadOption{
		Description: "UEFI Shell",
		FilePath:    efivarfs.DevicePath{efivarfs.FilePath(`\shell.efi`)},
	}

	windows := &efivarfs.LoadOption{
		Description: "Windows Boot Manager",
		FilePath:    efivarfs.DevicePath{efivarfs.FilePath(`\EFI\Microsoft\Boot\bootmgfw.efi`)},
	}

	for _, test := range []struct {
		name string
		mock *efivarfs.Mock

		expectedIndexes []uint16
		expectedError   bool
	}{
		{
			name: "no boot order",
			mock: &efivarfs.Mock{},
		},
		{
			name: "ordered with lowercase and missing entries",
			mock: &efivarfs.Mock{
				Variables: map[uuid.UUID]map[string]efivarfs.MockVariable{
					efivarfs.ScopeGlobal: {
						"BootOrder": {Data: efivarfs.BootOrder{0x000a, 0x0001, 0x0005}.Marshal()},
						"Boot000a":  {Data: mustMarshal(t, windows)},
						"Boot0001":  {Data: mustMarshal(t, shell)},
					},
				},
			},
			expectedIndexes: []uint16{0x000a, 0x0001},
		},
		{
			name: "corrupt entry",
			mock: &efivarfs.Mock{
				Variables: map[uuid.UUID]map[string]efivarfs.MockVariable{
					efivarfs.ScopeGlobal: {
						"BootOrder": {Data: efivarfs.BootOrder{0x0000, 0x0001}.Marshal()},
						"Boot0000":  {Data: []byte{0x01}},
						"Boot0001":  {Data: mustMarshal(t, shell)},
					},
				},
			},
			expectedIndexes: []uint16{0x0001},
			expectedError:   true,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			entries, err := efivarfs.BootOrderEntries(test.mock)
			if test.expectedError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			indexes := make([]uint16, 0, len(entries))

			for _, entry := range entries {
				indexes = append(indexes, entry.Index)
			}

			if test.expectedIndexes == nil {
				assert.Empty(t, indexes)
			} else {
				assert.Equal(t, test.expectedIndexes, indexes)
			}
		})
	}
}

func TestSetBootEntry(t *testing.T) {
	t.Parallel()

	mock := &efivarfs.Mock{}

	opt := &efivarfs.LoadOption{
		Description: "iPXE",
		FilePath:    efivarfs.DevicePath{efivarfs.FilePath(`\EFI\tools\ipxe.efi`)},
	}

	require.NoError(t, efivarfs.SetBootEntry(mock, 0x0003, opt))
	require.NoError(t, efivarfs.SetBootOrder(mock, efivarfs.BootOrder{0x0003}))

	entries, err := efivarfs.BootOrderEntries(mock)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, "Boot0003", entries[0].Name())
	assert.Equal(t, opt, entries[0].Option)
}

func TestUpdateBootEntry(t *testing.T) {
	t.Parallel()

	mock := &efivarfs.Mock{}

	opt := &efivarfs.LoadOption{
		Description:  "ubuntu",
		FilePath:     efivarfs.DevicePath{efivarfs.FilePath(`\EFI\ubuntu\shimx64.efi`)},
		OptionalData: []byte{1, 2},
	}

	require.NoError(t, efivarfs.SetBootEntry(mock, 0x0001, opt))

	updated, err := efivarfs.UpdateBootEntry(mock, 0x0001, func(o *efivarfs.LoadOption) {
		o.Description = "Ubuntu 24.04"
		o.Inactive = true
		o.OptionalData[0] = 9
	})
	require.NoError(t, err)

	assert.Equal(t, "Ubuntu 24.04", updated.Description)

	stored, err := efivarfs.GetBootEntry(mock, 0x0001)
	require.NoError(t, err)
	assert.Equal(t, updated, stored)
	assert.Equal(t, []byte{1, 2}, opt.OptionalData)

	_, err = efivarfs.UpdateBootEntry(mock, 0x0007, func(*efivarfs.LoadOption) {})
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestStrings(t *testing.T) {
	t.Parallel()

	mock := &efivarfs.Mock{}

	require.NoError(t, efivarfs.WriteString(mock, efivarfs.ScopeRefind, "HiddenTags", `\EFI\a.efi,\EFI\b.efi`))

	assert.Equal(t, []byte{'\\', 0, 'E', 0}, mock.Variables[efivarfs.ScopeRefind]["HiddenTags"].Data[:4])

	s, err := efivarfs.ReadString(mock, efivarfs.ScopeRefind, "HiddenTags")
	require.NoError(t, err)
	assert.Equal(t, `\EFI\a.efi,\EFI\b.efi`, s)

	_, err = efivarfs.ReadString(mock, efivarfs.ScopeRefind, "HiddenLegacy")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestOsIndicationsSupported(t *testing.T) {
	t.Parallel()

	mock := &efivarfs.Mock{}

	bits, err := efivarfs.OsIndicationsSupported(mock)
	require.NoError(t, err)
	assert.Zero(t, bits)

	require.NoError(t, mock.Write(efivarfs.ScopeGlobal, "OsIndicationsSupported", efivarfs.AttrRuntimeAccess, []byte{0x41, 0, 0, 0, 0, 0, 0, 0}))

	bits, err = efivarfs.OsIndicationsSupported(mock)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x41), bits)
	assert.NotZero(t, bits&efivarfs.OSIndicationBootToFWUI)

	require.NoError(t, mock.Write(efivarfs.ScopeGlobal, "OsIndicationsSupported", 0, []byte{0x01}))

	_, err = efivarfs.OsIndicationsSupported(mock)
	require.Error(t, err)
}

func TestFilesystemReaderWriter(t *testing.T) {
	t.Parallel()

	memFs := afero.NewMemMapFs()

	rw := efivarfs.NewFilesystemReaderWriter(memFs, true)

	require.NoError(t, rw.Write(efivarfs.ScopeGlobal, "BootOrder", efivarfs.AttrNonVolatile|efivarfs.AttrRuntimeAccess, []byte{0x01, 0x00}))
	require.NoError(t, rw.Write(efivarfs.ScopeRefind, "HiddenTags", efivarfs.AttrNonVolatile, []byte{0x00, 0x00}))

	raw, err := afero.ReadFile(memFs, "/BootOrder-8be4df61-93ca-11d2-aa0d-00e098032b8c")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x05, 0x00, 0x00, 0x00, 0x01, 0x00}, raw)

	data, attrs, err := rw.Read(efivarfs.ScopeGlobal, "BootOrder")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00}, data)
	assert.Equal(t, efivarfs.AttrNonVolatile|efivarfs.AttrRuntimeAccess, attrs)

	names, err := rw.List(efivarfs.ScopeGlobal)
	require.NoError(t, err)
	assert.Equal(t, []string{"BootOrder"}, names)

	_, _, err = rw.Read(efivarfs.ScopeGlobal, "BootNext")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	require.NoError(t, rw.Delete(efivarfs.ScopeRefind, "HiddenTags"))

	names, err = rw.List(efivarfs.ScopeRefind)
	require.NoError(t, err)
	assert.Empty(t, names)

	ro := efivarfs.NewFilesystemReaderWriter(memFs, false)

	require.Error(t, ro.Write(efivarfs.ScopeGlobal, "BootNext", 0, nil))
	require.Error(t, ro.Delete(efivarfs.ScopeGlobal, "BootOrder"))
}

func TestMock(t *testing.T) {
	t.Parallel()

	mock := &efivarfs.Mock{}

	require.NoError(t, mock.Write(efivarfs.ScopeGlobal, "b", 0, []byte{1}))
	require.NoError(t, mock.Write(efivarfs.ScopeGlobal, "a", 0, []byte{2}))

	names, err := mock.List(efivarfs.ScopeGlobal)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	data, _, err := mock.Read(efivarfs.ScopeGlobal, "a")
	require.NoError(t, err)

	data[0] = 9

	again, _, err := mock.Read(efivarfs.ScopeGlobal, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, again)

	assert.ErrorIs(t, mock.Delete(efivarfs.ScopeGlobal, "c"), fs.ErrNotExist)
}
