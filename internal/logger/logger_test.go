package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	log, closer, err := New(path, "debug")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, log.GetLevel())

	log.Debug().Str("component", "test").Msg("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"logger initialized"`)
	assert.Contains(t, string(data), `"message":"hello"`)
}

func TestNewBadLevelFallsBackToInfo(t *testing.T) {
	log, closer, err := New(filepath.Join(t.TempDir(), "test.log"), "loud")
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestNewUnwritablePath(t *testing.T) {
	_, _, err := New(filepath.Join(t.TempDir(), "missing", "test.log"), "info")
	assert.Error(t, err)
}
