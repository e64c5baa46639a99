// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package pathutil

import (
	"slices"
	"strings"

	"github.com/siderolabs/gen/xslices"
)

// SplitList splits a comma-delimited list, trimming whitespace and dropping
// empty elements.
func SplitList(list string) []string {
	if list == "" {
		return nil
	}

	return xslices.Filter(
		xslices.Map(strings.Split(list, ","), strings.TrimSpace),
		func(s string) bool { return s != "" },
	)
}

// JoinList is the inverse of SplitList.
func JoinList(items []string) string {
	return strings.Join(items, ",")
}

// ContainsFold reports whether any element of list equals s case-insensitively.
func ContainsFold(list []string, s string) bool {
	return slices.ContainsFunc(list, func(item string) bool {
		return strings.EqualFold(item, s)
	})
}

// HasSubstringFold reports whether s contains any element of list,
// case-insensitively.
func HasSubstringFold(s string, list []string) bool {
	s = strings.ToLower(s)

	return slices.ContainsFunc(list, func(item string) bool {
		return item != "" && strings.Contains(s, strings.ToLower(item))
	})
}

// AppendUnique appends items that are not already present (case-insensitively).
func AppendUnique(list []string, items ...string) []string {
	for _, item := range items {
		if item == "" || ContainsFold(list, item) {
			continue
		}

		list = append(list, item)
	}

	return list
}

func isWordBreak(r rune) bool {
	switch r {
	case ' ', '_', '-', '.', ',', '(', ')', '[', ']', '/', '\\':
		return true
	default:
		return false
	}
}

// Words splits a name into lower-case words, breaking at spaces,
// punctuation and path separators. Icon hints are built from these words.
func Words(name string) []string {
	return xslices.Map(strings.FieldsFunc(name, isWordBreak), strings.ToLower)
}

// MergeUniqueWords appends the words of name to a comma-delimited hint list,
// skipping words already present.
func MergeUniqueWords(list, name string) string {
	return JoinList(AppendUnique(SplitList(list), Words(name)...))
}
