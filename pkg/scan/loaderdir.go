// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package scan

import (
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/siderolabs/gen/xerrors"
	"github.com/siderolabs/gen/xslices"
	"go.uber.org/zap"

	"github.com/siderolabs/bootscan/internal/pkg/pathutil"
	"github.com/siderolabs/bootscan/pkg/config"
	"github.com/siderolabs/bootscan/pkg/menu"
	"github.com/siderolabs/bootscan/pkg/volume"
)

// candidate is a loader file that survived the directory filters.
type candidate struct {
	path    string
	modTime time.Time
}

// loaderPatterns returns the comma-delimited patterns used to list loader
// directories.
func (s *Scanner) loaderPatterns() string {
	patterns := []string{loaderMatchPatterns}

	if s.cfg.ScanAllLinux() {
		patterns = append(patterns, xslices.Map(s.cfg.LinuxPrefixes(), func(prefix string) string {
			return prefix + "*"
		})...)
	}

	return pathutil.JoinList(patterns)
}

// matchPatterns reports whether name matches any of the comma-delimited
// patterns, case-insensitively.
func matchPatterns(name, patterns string) bool {
	name = strings.ToLower(name)

	for _, pattern := range pathutil.SplitList(patterns) {
		if ok, err := doublestar.Match(strings.ToLower(pattern), name); err == nil && ok {
			return true
		}
	}

	return false
}

// sortCandidates orders loaders newest first at one-second precision. Rescue
// kernels always go last. Ties keep their listing order.
func sortCandidates(candidates []candidate) {
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		aRescue, bRescue := isRescueKernel(a.path), isRescueKernel(b.path)

		switch {
		case aRescue && !bRescue:
			return 1
		case !aRescue && bRescue:
			return -1
		case aRescue && bRescue:
			return 0
		}

		return b.modTime.Truncate(time.Second).Compare(a.modTime.Truncate(time.Second))
	})
}

// ScanLoaderDir adds an entry for every loader in directory path on vol
// whose name matches patterns.
//
// It reports whether one of the loaders duplicates the fallback loader.
func (s *Scanner) ScanLoaderDir(vol *volume.Volume, path, patterns string) bool {
	if s.isSelfDir(vol, path) || !s.ShouldScan(vol, path) {
		return false
	}

	infos, err := readDir(vol, path)
	if err != nil {
		if !xerrors.TagIs[expectedAbsent](err) {
			if pathutil.Relative(path) == "" {
				s.warn(err, "While Scanning the Root Directory on '%s'", vol.Name())
			} else {
				s.warn(err, "While Scanning the '%s' Directory on '%s'", path, vol.Name())
			}
		}

		return false
	}

	var (
		found      bool
		candidates []candidate
	)

	for _, info := range infos {
		if !info.Mode().IsRegular() || !matchPatterns(info.Name(), patterns) {
			continue
		}

		fullName := pathutil.Join(path, info.Name())

		if !s.acceptLoaderFile(vol, path, fullName, info) {
			continue
		}

		if s.DuplicatesFallback(vol, fullName) {
			found = true
		}

		candidates = append(candidates, candidate{path: fullName, modTime: info.ModTime()})
	}

	sortCandidates(candidates)

	fold := s.cfg.FoldLinuxKernels()

	var firstKernel *menu.Entry

	for _, c := range candidates {
		isLinux := s.isLinuxKernel(c.path)

		if firstKernel != nil && isLinux && fold {
			s.AddKernelToSubmenu(firstKernel, c.path, vol)

			continue
		}

		entry := s.AddLoaderEntry(c.path, "", vol, !(isLinux && fold))

		if isLinux && firstKernel == nil {
			firstKernel = entry
		}
	}

	if firstKernel != nil && fold && firstKernel.SubScreen != nil {
		if ret := s.newReturnEntry(); ret != nil {
			firstKernel.SubScreen.Add(ret)
		} else {
			menu.FreeScreen(firstKernel.SubScreen)
			firstKernel.SubScreen = nil
		}
	}

	return found
}

// acceptLoaderFile applies the per-file filters of a directory scan.
func (s *Scanner) acceptLoaderFile(vol *volume.Volume, dir, fullName string, info fs.FileInfo) bool {
	name := info.Name()
	lower := strings.ToLower(name)

	switch {
	case strings.HasPrefix(name, "."):
		return false
	case strings.HasSuffix(lower, ".icns"), strings.HasSuffix(lower, ".png"):
		return false
	case pathutil.EqualFold(dir, fallbackDir) && strings.EqualFold(name, fallbackBasename):
		return false
	case filenameIn(vol, dir, name, shellNames):
		return false
	case s.IsSymbolicLink(vol, fullName, info.Size()):
		s.logger.Debug("skipping link-like loader", zap.String("volume", vol.Name()), zap.String("path", fullName))

		return false
	case hasSignedCounterpart(vol, fullName):
		return false
	case filenameIn(vol, dir, name, s.cfg.DontScanFiles()):
		s.logger.Debug("loader excluded", zap.String("volume", vol.Name()), zap.String("path", fullName))

		return false
	case !s.opts.Validator.IsValidLoader(vol, fullName):
		return false
	}

	return true
}

// AddKernelToSubmenu folds the kernel at fileName into the sub-menu of
// target, the newest kernel of the same directory. One entry is added per
// options line, each carrying this kernel's version and initrd. The entries
// keep the volume of target, which may carry a group display name.
func (s *Scanner) AddKernelToSubmenu(target *menu.Entry, fileName string, vol *volume.Volume) {
	if target == nil || target.SubScreen == nil {
		return
	}

	version := kernelVersion(fileName)
	initrd := findInitrd(vol, fileName)
	kernelName := pathutil.Base(fileName)

	for _, tokens := range linuxOptionLines(vol, fileName) {
		sub := menu.InitializeLoaderEntry(target)
		sub.Title = kernelName + ": " + tokens[0]
		sub.LoaderPath = pathutil.Absolute(fileName)
		sub.InitrdPath = initrd
		sub.LoadOptions = addInitrdToOptions(replaceKernelVersion(tokens[1], version), initrd)
		sub.UseGraphicsMode = s.cfg.GraphicsFor().Has(config.GraphicsForLinux)

		target.SubScreen.Add(sub)
	}
}

// linuxOptionLines returns the option lines of a kernel with at least a
// title and options. Without an options file a single line built from
// etc/fstab is returned.
func linuxOptionLines(vol *volume.Volume, loaderPath string) [][]string {
	var lines [][]string

	if all, ok := readLinuxOptions(vol, loaderPath); ok {
		lines = xslices.Filter(all, func(tokens []string) bool { return len(tokens) > 1 })
	}

	if len(lines) == 0 {
		lines = [][]string{{"Boot with standard options", optionsFromFstab(vol)}}
	}

	return lines
}
