// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package configloader provides methods to load scanner config.
package configloader

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/siderolabs/bootscan/pkg/config"
	"github.com/siderolabs/bootscan/pkg/config/types/v1alpha1"
)

// ErrNoConfig is returned when no configuration was found in the input.
var ErrNoConfig = errors.New("config not found")

// content represents the raw config data.
type content struct {
	Version string `yaml:"version"`
}

func newConfig(source []byte) (*config.Config, error) {
	var c content

	if err := yaml.Unmarshal(source, &c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	switch c.Version {
	case v1alpha1.Version:
		var doc v1alpha1.Config

		if err := yaml.Unmarshal(source, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s config: %w", c.Version, err)
		}

		if err := doc.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}

		opts, err := doc.Options()
		if err != nil {
			return nil, err
		}

		return config.New(opts), nil
	case "":
		return nil, ErrNoConfig
	default:
		return nil, fmt.Errorf("unknown version: %q", c.Version)
	}
}

// NewFromFile will take a filepath and attempt to parse a config file from it.
func NewFromFile(fs afero.Fs, filepath string) (*config.Config, error) {
	source, err := afero.ReadFile(fs, filepath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return newConfig(source)
}

// NewFromBytes will take a byteslice and attempt to parse a config file from it.
func NewFromBytes(source []byte) (*config.Config, error) {
	return newConfig(source)
}
