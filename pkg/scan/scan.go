// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package scan discovers boot loaders on mounted volumes and in firmware
// boot entries, and builds the boot menu from them.
//
// A Scanner is single-threaded: a scan runs to completion once started and
// none of its methods may be called concurrently.
package scan

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/siderolabs/bootscan/internal/pkg/efivarfs"
	"github.com/siderolabs/bootscan/internal/pkg/pathutil"
	"github.com/siderolabs/bootscan/pkg/config"
	"github.com/siderolabs/bootscan/pkg/hiddentags"
	"github.com/siderolabs/bootscan/pkg/icon"
	"github.com/siderolabs/bootscan/pkg/logging"
	"github.com/siderolabs/bootscan/pkg/menu"
	"github.com/siderolabs/bootscan/pkg/volume"
)

// Well-known loader locations (x86-64).
const (
	macOSLoaderDir   = `System\Library\CoreServices`
	macOSLoaderPath  = `System\Library\CoreServices\boot.efi`
	macOSXOMPath     = `System\Library\CoreServices\xom.efi`
	macOSDiagnostics = `System\Library\CoreServices\.diagnostics\diags.efi`

	microsoftBootDir = `EFI\Microsoft\Boot`

	fallbackDir      = `EFI\BOOT`
	fallbackBasename = "bootx64.efi"
	fallbackFullName = `EFI\BOOT\bootx64.efi`

	loaderMatchPatterns = "*.efi"

	ipxeName         = `\efi\tools\ipxe.efi`
	ipxeDiscoverName = `\efi\tools\ipxe_discover.efi`
)

// Tool file names and locations.
var (
	shellNames    = []string{`\EFI\tools\shell.efi`, `\EFI\tools\shellx64.efi`, `\shell.efi`, `\shellx64.efi`}
	gptsyncNames  = []string{`\EFI\tools\gptsync.efi`, `\EFI\tools\gptsync_x64.efi`}
	gdiskNames    = []string{`\EFI\tools\gdisk.efi`, `\EFI\tools\gdisk_x64.efi`}
	netbootNames  = []string{ipxeName}
	mokLocations  = []string{`\EFI\tools`, `\EFI\fedora`, `\EFI\redhat`, `\EFI\ubuntu`, `\EFI\suse`, `\EFI\opensuse`, `\EFI\altlinux`}
	mokNames      = []string{"MokManager.efi", "HashTool.efi", "HashTool-signed.efi", "KeyTool.efi", "KeyTool-signed.efi", "mmx64.efi"}
	fwupdateNames = []string{"fwupx64.efi"}
	memtestDirs   = []string{`\EFI\tools`, `\EFI\tools\memtest86`, `\EFI\tools\memtest`, `\EFI\memtest86`, `\EFI\memtest`}
	memtestNames  = []string{"memtest86.efi", "memtest86_x64.efi", "memtest86x64.efi", "bootx64.efi"}
)

// Validator checks that a file is a loadable image for this platform.
type Validator interface {
	IsValidLoader(vol *volume.Volume, path string) bool
}

// ValidatorFunc adapts a function to a Validator.
type ValidatorFunc func(vol *volume.Volume, path string) bool

// IsValidLoader implements Validator.
func (f ValidatorFunc) IsValidLoader(vol *volume.Volume, path string) bool {
	return f(vol, path)
}

// Discoverer runs network boot discovery with the discovery program at path
// on vol. It returns the boot location, or an empty string.
type Discoverer interface {
	Discover(vol *volume.Volume, path string) (string, error)
}

// LegacyScanner scans volumes of one disk kind for BIOS-mode loaders.
type LegacyScanner interface {
	ScanLegacy(kind volume.DiskKind) ([]*menu.Entry, error)
}

// Options configure a Scanner.
type Options struct {
	// Logger receives scan progress. Defaults to a no-op logger.
	Logger *zap.Logger
	// Volumes is the enumerated volume list.
	Volumes []*volume.Volume
	// Group carries the APFS companion volumes.
	Group *volume.Group
	// SelfVolume and SelfPath locate the running boot manager.
	SelfVolume *volume.Volume
	SelfPath   string
	// EFIVars gives access to firmware variables.
	EFIVars efivarfs.ReadWriter
	// Icons resolves menu images.
	Icons icon.Loader
	// Validator checks loader binaries.
	Validator Validator
	// Discoverer runs network boot discovery. Optional.
	Discoverer Discoverer
	// Legacy scans for BIOS-mode loaders. Optional.
	Legacy LegacyScanner
}

// Option is the functional option func.
type Option func(*Options)

// DefaultOptions describes the default options to a Scanner.
func DefaultOptions() *Options {
	return &Options{
		Logger:    zap.NewNop(),
		Group:     &volume.Group{},
		EFIVars:   &efivarfs.Mock{},
		Icons:     icon.NameLoader{},
		Validator: NewPEValidator(),
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithVolumes sets the enumerated volumes.
func WithVolumes(volumes ...*volume.Volume) Option {
	return func(o *Options) {
		o.Volumes = volumes
	}
}

// WithGroup sets the APFS companion volume group.
func WithGroup(group *volume.Group) Option {
	return func(o *Options) {
		o.Group = group
	}
}

// WithSelf sets the volume and path of the running boot manager.
func WithSelf(vol *volume.Volume, path string) Option {
	return func(o *Options) {
		o.SelfVolume = vol
		o.SelfPath = path
	}
}

// WithEFIVars sets the firmware variable backend.
func WithEFIVars(rw efivarfs.ReadWriter) Option {
	return func(o *Options) {
		o.EFIVars = rw
	}
}

// WithIcons sets the icon loader.
func WithIcons(icons icon.Loader) Option {
	return func(o *Options) {
		o.Icons = icons
	}
}

// WithValidator sets the loader validator.
func WithValidator(v Validator) Option {
	return func(o *Options) {
		o.Validator = v
	}
}

// WithDiscoverer sets the network boot discoverer.
func WithDiscoverer(d Discoverer) Option {
	return func(o *Options) {
		o.Discoverer = d
	}
}

// WithLegacyScanner sets the legacy boot scanner.
func WithLegacyScanner(l LegacyScanner) Option {
	return func(o *Options) {
		o.Legacy = l
	}
}

// Result is the outcome of a full scan.
type Result struct {
	// Menu is the main menu, in discovery order.
	Menu *menu.Screen
	// NoEntries is set when no entry at all was found.
	NoEntries bool
	// Warnings collects the non-fatal problems met during the scan.
	Warnings error
}

// Scanner discovers boot loaders.
type Scanner struct {
	logger *zap.Logger
	opts   *Options
	cfg    *config.Config
	tags   *hiddentags.Store

	selfDir string

	menu     *menu.Screen
	warnings *multierror.Error

	macOSRecoveryFiles []string

	hiddenTools       []string
	hiddenToolsLoaded bool

	newReturnEntry func() *menu.Entry
}

// NewScanner creates a Scanner reading settings from cfg.
func NewScanner(cfg *config.Config, setters ...Option) *Scanner {
	opts := DefaultOptions()

	for _, setter := range setters {
		setter(opts)
	}

	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	if opts.Group == nil {
		opts.Group = &volume.Group{}
	}

	s := &Scanner{
		logger:         opts.Logger.With(logging.Component("scan")),
		opts:           opts,
		cfg:            cfg,
		tags:           hiddentags.NewStore(opts.EFIVars),
		menu:           &menu.Screen{Title: "Main Menu"},
		newReturnEntry: menu.NewReturnEntry,
	}

	if opts.SelfPath != "" {
		s.selfDir = pathutil.Dir(pathutil.Absolute(opts.SelfPath))
	}

	s.macOSRecoveryFiles = cfg.MacOSRecoveryFiles()

	return s
}

// Menu returns the main menu built so far.
func (s *Scanner) Menu() *menu.Screen {
	return s.menu
}

// Warnings returns the non-fatal problems met so far.
func (s *Scanner) Warnings() error {
	return s.warnings.ErrorOrNil()
}

func (s *Scanner) warn(err error, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	s.warnings = multierror.Append(s.warnings, fmt.Errorf("%s: %w", msg, err))

	s.logger.Warn(msg, zap.Error(err))
}

func (s *Scanner) addEntry(e *menu.Entry) {
	s.menu.Add(e)
}

// isSelfVolume reports whether vol is the volume the boot manager runs from.
//
// Volumes are the same when they share a root handle.
func (s *Scanner) isSelfVolume(vol *volume.Volume) bool {
	return sameVolume(vol, s.opts.SelfVolume)
}

// isSelfDir reports whether path on vol is the directory the boot manager
// runs from.
func (s *Scanner) isSelfDir(vol *volume.Volume, path string) bool {
	return s.selfDir != "" && pathutil.EqualFold(path, s.selfDir) && s.isSelfVolume(vol)
}

func sameVolume(a, b *volume.Volume) bool {
	if a == nil || b == nil || a.Root == nil {
		return false
	}

	return a.Root == b.Root
}
