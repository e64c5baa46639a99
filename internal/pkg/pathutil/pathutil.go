// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package pathutil implements helpers for EFI-style backslash paths and the
// comma-delimited lists used by boot manager configuration.
package pathutil

import (
	"strings"
)

// Separator is the EFI path separator.
const Separator = '\\'

// Clean converts forward slashes to backslashes, collapses repeated
// separators and drops a trailing separator (except for the root itself).
func Clean(path string) string {
	if path == "" {
		return ""
	}

	var sb strings.Builder

	sb.Grow(len(path))

	var prevSep bool

	for _, r := range path {
		if r == '/' {
			r = Separator
		}

		if r == Separator {
			if prevSep {
				continue
			}

			prevSep = true
		} else {
			prevSep = false
		}

		sb.WriteRune(r)
	}

	out := sb.String()

	if len(out) > 1 && out[len(out)-1] == Separator {
		out = out[:len(out)-1]
	}

	return out
}

// Absolute returns the cleaned path with a leading separator.
func Absolute(path string) string {
	path = Clean(path)

	if path == "" || path[0] != Separator {
		return string(Separator) + path
	}

	return path
}

// Relative returns the cleaned path without a leading separator.
func Relative(path string) string {
	return strings.TrimLeft(Clean(path), string(Separator))
}

// Join joins path elements with a single separator.
//
// Empty elements are skipped, and joining to the root keeps a single
// leading separator.
func Join(elem ...string) string {
	parts := make([]string, 0, len(elem))

	for _, e := range elem {
		if e != "" {
			parts = append(parts, e)
		}
	}

	return Clean(strings.Join(parts, string(Separator)))
}

// Base returns the last element of the path.
func Base(path string) string {
	path = Clean(path)

	if idx := strings.LastIndexByte(path, Separator); idx >= 0 {
		return path[idx+1:]
	}

	return path
}

// Dir returns everything before the last element, without a trailing
// separator. The directory of a root-level file is "\", and a bare name has
// no directory.
func Dir(path string) string {
	path = Clean(path)

	idx := strings.LastIndexByte(path, Separator)

	switch {
	case idx < 0:
		return ""
	case idx == 0:
		return string(Separator)
	default:
		return path[:idx]
	}
}

// Ext returns the extension of the last path element including the dot.
func Ext(path string) string {
	base := Base(path)

	if idx := strings.LastIndexByte(base, '.'); idx >= 0 {
		return base[idx:]
	}

	return ""
}

// StripExt removes the extension from the last path element.
func StripExt(path string) string {
	return strings.TrimSuffix(path, Ext(path))
}

// FSPath converts an EFI path into the slash-separated absolute form used
// to address files on a volume root.
func FSPath(path string) string {
	return strings.ReplaceAll(Absolute(path), string(Separator), "/")
}

// EqualFold compares two paths case-insensitively after cleaning them.
//
// A leading separator is not significant.
func EqualFold(a, b string) bool {
	return strings.EqualFold(Relative(a), Relative(b))
}

// SplitVolume splits a "Volume:path" string into its volume qualifier and
// path. Strings without a qualifier return an empty volume.
func SplitVolume(s string) (vol, path string) {
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return "", s
	}

	return s[:idx], s[idx+1:]
}
