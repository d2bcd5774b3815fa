package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battleship-p2p/internal/config"
)

func TestConsoleAndFile(t *testing.T) {
	opts := config.Default().Log
	opts.Level = "debug"
	opts.FilePath = filepath.Join(t.TempDir(), "logs", "node.log")
	var console bytes.Buffer

	log, closer, err := New(opts, &console)
	require.NoError(t, err)
	log.Debug().Str("shot", "(1, 2)").Msg("shot verified")
	require.NoError(t, closer.Close())
	t.Cleanup(Silence)

	assert.Contains(t, console.String(), "shot verified")
	data, err := os.ReadFile(opts.FilePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"shot verified"`)
	assert.Contains(t, string(data), `"shot":"(1, 2)"`)
}

func TestLevelFilters(t *testing.T) {
	opts := config.Default().Log
	opts.Level = "warn"
	var console bytes.Buffer
	log, _, err := New(opts, &console)
	require.NoError(t, err)
	t.Cleanup(Silence)
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "shown")
}

func TestBadLevel(t *testing.T) {
	opts := config.Default().Log
	opts.Level = "chatty"
	_, _, err := New(opts, nil)
	assert.Error(t, err)
}

func TestGnarkBridge(t *testing.T) {
	opts := config.Default().Log
	opts.Level = "debug"
	opts.GnarkLevel = "warn"
	_, _, err := New(opts, nil)
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, gnarklogger.Logger().GetLevel())

	Silence()
	assert.Equal(t, zerolog.Disabled, gnarklogger.Logger().GetLevel())
}
