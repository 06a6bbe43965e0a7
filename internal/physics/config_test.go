package physics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "physics.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
gravity = [0.0, -20.0, 0.0]
tick-rate = 120.0
no-simulation = true

[debug]
draw-contact-points = true

[diagnostics]
every = "1s"
n = 2
`)

	c, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, [3]float64{0, -20, 0}, c.Gravity)
	assert.InDelta(t, 1.0/120, c.FixedTimeStep(), 1e-12)
	assert.True(t, c.NoSimulation)
	assert.True(t, c.Debug.DrawContactPoints)
	assert.False(t, c.Debug.DrawAABBs)
	assert.Equal(t, time.Second, c.Diagnostics.Every.Duration)
	assert.Equal(t, 2, c.Diagnostics.N)
	// Unset keys keep their defaults.
	assert.Equal(t, 8, c.MaxSubSteps)
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
tick-rate = 60.0
tickrate = 30.0
`)

	_, err := LoadConfig(path)

	var unknown ErrUnknownConfig
	require.True(t, errors.As(err, &unknown), "got %v", err)
	assert.Equal(t, ErrUnknownConfig{"tickrate"}, unknown)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "physics: unmarshal")

	_, err = LoadConfig(writeConfig(t, "tick-rate = -1.0\n"))
	assert.ErrorContains(t, err, "tick-rate must be positive")
}

func TestDiagnosticsRateLimit(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := newDiagnostics(zap.New(core), Limiter{Every: duration{time.Hour}, N: 2})

	for i := 0; i < 5; i++ {
		d.Warn(DiagDuplicatePair, "duplicate")
	}
	d.Warn(DiagRecoveryCap, "cap")

	assert.Equal(t, 3, logs.Len())
	assert.Equal(t, 3, d.Dropped(DiagDuplicatePair))
	assert.Equal(t, 0, d.Dropped(DiagRecoveryCap))
	assert.Equal(t, DiagRecoveryCap, logs.All()[2].ContextMap()["category"])
}
