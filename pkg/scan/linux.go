// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package scan

import (
	"bufio"
	"bytes"
	"strings"
	"unicode"

	"github.com/spf13/afero"

	"github.com/siderolabs/bootscan/internal/pkg/pathutil"
	"github.com/siderolabs/bootscan/pkg/volume"
)

const (
	linuxOptionsFile = "refind_linux.conf"
	kernelVersionTag = "${kernel_version}"
)

var initrdPrefixes = []string{"initrd", "initramfs", "booster"}

// isLinuxKernel reports whether a loader basename names a Linux kernel.
func (s *Scanner) isLinuxKernel(name string) bool {
	return pathutil.HasSubstringFold(pathutil.Base(name), s.cfg.LinuxPrefixes())
}

// isRescueKernel reports whether a kernel is a distribution rescue kernel,
// which never becomes the default of its directory.
func isRescueKernel(name string) bool {
	return strings.Contains(strings.ToLower(pathutil.Base(name)), "vmlinuz-0-rescue")
}

// kernelVersion returns the version part of a kernel file name: everything
// from the first digit to the last one. "vmlinuz-5.4.0-42-generic" yields
// "5.4.0-42".
func kernelVersion(path string) string {
	name := pathutil.Base(path)

	first := strings.IndexFunc(name, unicode.IsDigit)
	if first < 0 {
		return ""
	}

	last := strings.LastIndexFunc(name, unicode.IsDigit)

	return name[first : last+1]
}

// tokenize splits a configuration line into tokens. Double quotes group
// words and '#' starts a comment outside of quotes.
func tokenize(line string) []string {
	var (
		tokens  []string
		current strings.Builder
		quoted  bool
		inToken bool
	)

	flush := func() {
		if inToken {
			tokens = append(tokens, current.String())
		}

		current.Reset()

		inToken = false
	}

	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			inToken = true
		case r == '#' && !quoted:
			flush()

			return tokens
		case unicode.IsSpace(r) && !quoted:
			flush()
		default:
			current.WriteRune(r)

			inToken = true
		}
	}

	flush()

	return tokens
}

// readTokenLines reads every non-empty token line of a file.
func readTokenLines(vol *volume.Volume, path string) ([][]string, bool) {
	data, err := afero.ReadFile(vol.Root, pathutil.FSPath(path))
	if err != nil {
		return nil, false
	}

	var lines [][]string

	scanner := bufio.NewScanner(bytes.NewReader(data))

	for scanner.Scan() {
		if tokens := tokenize(scanner.Text()); len(tokens) > 0 {
			lines = append(lines, tokens)
		}
	}

	return lines, true
}

// readLinuxOptions reads the options file of a kernel: refind_linux.conf in
// the kernel's directory, or boot\refind_linux.conf on the volume.
func readLinuxOptions(vol *volume.Volume, loaderPath string) ([][]string, bool) {
	if vol == nil || vol.Root == nil {
		return nil, false
	}

	for _, candidate := range []string{
		pathutil.Join(pathutil.Dir(loaderPath), linuxOptionsFile),
		pathutil.Join("boot", linuxOptionsFile),
	} {
		if lines, ok := readTokenLines(vol, candidate); ok {
			return lines, true
		}
	}

	return nil, false
}

// findInitrd returns the path of the initial ramdisk matching a kernel, or
// an empty string.
//
// Candidates live in the kernel's directory, start with one of the initrd
// prefixes and carry the kernel version. The shortest name wins.
func findInitrd(vol *volume.Volume, loaderPath string) string {
	version := kernelVersion(loaderPath)

	dir := pathutil.Dir(pathutil.Absolute(loaderPath))

	infos, err := readDir(vol, dir)
	if err != nil {
		return ""
	}

	var best string

	for _, info := range infos {
		if info.IsDir() {
			continue
		}

		name := info.Name()
		lower := strings.ToLower(name)

		if !hasAnyPrefix(lower, initrdPrefixes) {
			continue
		}

		if version != "" && !strings.Contains(lower, strings.ToLower(version)) {
			continue
		}

		if best == "" || len(name) < len(best) {
			best = name
		}
	}

	if best == "" {
		return ""
	}

	return pathutil.Join(dir, best)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}

	return false
}

// addInitrdToOptions prefixes options with an initrd= argument.
func addInitrdToOptions(options, initrd string) string {
	if initrd == "" {
		return options
	}

	arg := "initrd=" + initrd

	if options == "" {
		return arg
	}

	if strings.Contains(options, arg) {
		return options
	}

	return arg + " " + options
}

func replaceKernelVersion(options, version string) string {
	return strings.ReplaceAll(options, kernelVersionTag, version)
}

// mainLinuxOptions builds the default options of a kernel: the first line
// of its options file, or a root= argument taken from etc/fstab, plus the
// matching initrd.
func mainLinuxOptions(vol *volume.Volume, loaderPath string) string {
	var options string

	if lines, ok := readLinuxOptions(vol, loaderPath); ok && len(lines) > 0 && len(lines[0]) > 1 {
		options = lines[0][1]
	} else {
		options = optionsFromFstab(vol)
	}

	initrd := findInitrd(vol, loaderPath)

	options = replaceKernelVersion(options, kernelVersion(loaderPath))

	return addInitrdToOptions(options, initrd)
}

// optionsFromFstab returns "ro root=<spec>" for the root filesystem named in
// etc/fstab, or an empty string.
func optionsFromFstab(vol *volume.Volume) string {
	lines, ok := readTokenLines(vol, `etc\fstab`)
	if !ok {
		return ""
	}

	for _, tokens := range lines {
		if len(tokens) >= 2 && tokens[1] == "/" {
			return "ro root=" + tokens[0]
		}
	}

	return ""
}

// guessLinuxDistribution adds distribution names to the icon hints: the ID
// from etc/os-release, plus fedora or redhat for kernels built by them.
func guessLinuxDistribution(hints string, vol *volume.Volume, loaderPath string) string {
	if data, err := afero.ReadFile(vol.Root, pathutil.FSPath(`etc\os-release`)); err == nil {
		scanner := bufio.NewScanner(bytes.NewReader(data))

		for scanner.Scan() {
			if id, ok := strings.CutPrefix(strings.TrimSpace(scanner.Text()), "ID="); ok {
				hints = pathutil.MergeUniqueWords(hints, strings.Trim(id, `"'`))
			}
		}
	}

	name := strings.ToLower(pathutil.Base(loaderPath))

	if strings.Contains(name, ".fc") {
		hints = pathutil.MergeUniqueWords(hints, "fedora")
	}

	if strings.Contains(name, ".el") {
		hints = pathutil.MergeUniqueWords(hints, "redhat")
	}

	return hints
}
