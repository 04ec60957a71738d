// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pdiddy/step-features/pkg/types"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		cfg   types.LogConfig
		level zap.AtomicLevel
	}{
		{"debug console", types.LogConfig{Level: "debug", Format: "console"}, zap.NewAtomicLevelAt(zap.DebugLevel)},
		{"warn json", types.LogConfig{Level: "warn", Format: "json"}, zap.NewAtomicLevelAt(zap.WarnLevel)},
		{"unknown level", types.LogConfig{Level: "loud"}, zap.NewAtomicLevelAt(zap.InfoLevel)},
		{"empty", types.LogConfig{}, zap.NewAtomicLevelAt(zap.InfoLevel)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tt.level.Level()))
			if tt.level.Level() > zap.DebugLevel {
				assert.False(t, log.Core().Enabled(tt.level.Level()-1))
			}
		})
	}
}

func TestNewDefault(t *testing.T) {
	log := NewDefault()
	require.NotNil(t, log)
	assert.True(t, log.Core().Enabled(zap.InfoLevel))
	assert.False(t, log.Core().Enabled(zap.DebugLevel))
}
