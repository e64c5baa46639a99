// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package efivarfs

import (
	"fmt"
	"io/fs"
	"slices"

	"github.com/google/uuid"
)

// MockVariable is a single variable stored in the Mock.
type MockVariable struct {
	Attrs Attribute
	Data  []byte
}

// Mock is an in-memory ReadWriter.
type Mock struct {
	Variables map[uuid.UUID]map[string]MockVariable
}

// Write implements ReadWriter.
func (m *Mock) Write(scope uuid.UUID, varName string, attrs Attribute, value []byte) error {
	if m.Variables == nil {
		m.Variables = map[uuid.UUID]map[string]MockVariable{}
	}

	if m.Variables[scope] == nil {
		m.Variables[scope] = map[string]MockVariable{}
	}

	m.Variables[scope][varName] = MockVariable{
		Attrs: attrs,
		Data:  slices.Clone(value),
	}

	return nil
}

// Delete implements ReadWriter.
func (m *Mock) Delete(scope uuid.UUID, varName string) error {
	if _, ok := m.Variables[scope][varName]; !ok {
		return fmt.Errorf("variable %s-%s: %w", varName, scope, fs.ErrNotExist)
	}

	delete(m.Variables[scope], varName)

	return nil
}

// Read implements ReadWriter.
func (m *Mock) Read(scope uuid.UUID, varName string) ([]byte, Attribute, error) {
	v, ok := m.Variables[scope][varName]
	if !ok {
		return nil, 0, fmt.Errorf("variable %s-%s: %w", varName, scope, fs.ErrNotExist)
	}

	return slices.Clone(v.Data), v.Attrs, nil
}

// List implements ReadWriter.
func (m *Mock) List(scope uuid.UUID) ([]string, error) {
	names := make([]string, 0, len(m.Variables[scope]))

	for name := range m.Variables[scope] {
		names = append(names, name)
	}

	slices.Sort(names)

	return names, nil
}
