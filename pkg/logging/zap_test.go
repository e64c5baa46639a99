// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package logging_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/siderolabs/bootscan/pkg/logging"
)

func TestConsole(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		debug    bool
		expected []string
		missing  []string
	}{
		{
			expected: []string{"WARN", "loader skipped", `{"component": "scan"}`},
			missing:  []string{"scanning volume"},
		},
		{
			debug:    true,
			expected: []string{"loader skipped", "scanning volume"},
		},
	} {
		t.Run(fmt.Sprintf("debug=%v", tc.debug), func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			logger := logging.Console(&buf, tc.debug).With(logging.Component("scan"))
			logger.Debug("scanning volume", zap.String("volume", "ESP"))
			logger.Warn("loader skipped")

			for _, s := range tc.expected {
				assert.Contains(t, buf.String(), s)
			}

			for _, s := range tc.missing {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestLogWriter(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)

	w := logging.NewWriter(zap.New(core), zapcore.InfoLevel)

	n, err := w.Write([]byte("  Boot0001 added\n"))
	assert.NoError(t, err)
	assert.Equal(t, 17, n)

	quiet := logging.NewWriter(zap.New(core), zapcore.DebugLevel)

	n, err = quiet.Write([]byte("dropped"))
	assert.NoError(t, err)
	assert.Zero(t, n)

	entries := logs.TakeAll()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "Boot0001 added", entries[0].Message)
	}
}

func TestZapLoggerPanicsWithoutDestinations(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { logging.ZapLogger() })
}
