// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package v1alpha1

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/hashicorp/go-multierror"

	"github.com/siderolabs/bootscan/pkg/config"
)

// Validate checks the document, reporting every problem found.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.ConfigVersion != Version {
		result = multierror.Append(result, fmt.Errorf("unsupported version %q", c.ConfigVersion))
	}

	if err := config.ValidateScanFor(c.ConfigScanFor); err != nil {
		result = multierror.Append(result, err)
	}

	if _, err := config.ParseGraphicsFor(c.ConfigGraphicsFor); err != nil {
		result = multierror.Append(result, err)
	}

	if _, err := config.ParseHideUI(c.ConfigHideUI); err != nil {
		result = multierror.Append(result, err)
	}

	for _, name := range c.ConfigShowTools {
		if _, err := config.ParseTool(name); err != nil {
			result = multierror.Append(result, err)
		}
	}

	for _, value := range c.ConfigCSRValues {
		if _, err := parseCSRValue(value); err != nil {
			result = multierror.Append(result, err)
		}
	}

	for i, entry := range c.ConfigMenuEntries {
		if entry == nil {
			result = multierror.Append(result, fmt.Errorf("menu entry %d is empty", i))

			continue
		}

		if err := entry.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("menu entry %d: %w", i, err))
		}
	}

	return result.ErrorOrNil()
}

// Validate checks a manual stanza.
func (e *MenuEntry) Validate() error {
	var result *multierror.Error

	if e.EntryTitle == "" {
		result = multierror.Append(result, errors.New("title is required"))
	}

	if e.EntryLoader == "" {
		result = multierror.Append(result, errors.New("loader is required"))
	}

	return result.ErrorOrNil()
}

func parseCSRValue(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid csr value %q: %w", s, err)
	}

	return uint32(v), nil
}
