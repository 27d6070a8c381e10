// Package logger sets up the file logger. Stdout belongs to the TUI.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPath returns goplaying.log under the user config dir, or the temp
// dir when that is unavailable.
func DefaultPath() string {
	logPath := filepath.Join(os.TempDir(), "goplaying.log")
	configDir, err := os.UserConfigDir()
	if err == nil {
		dir := filepath.Join(configDir, "goplaying")
		if err := os.MkdirAll(dir, 0755); err == nil {
			logPath = filepath.Join(dir, "goplaying.log")
		}
	}
	return logPath
}

// New opens path for appending and returns a logger at level. An empty path
// uses DefaultPath. The returned closer releases the file.
func New(path, level string) (zerolog.Logger, io.Closer, error) {
	if path == "" {
		path = DefaultPath()
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return zerolog.Nop(), io.NopCloser(nil), fmt.Errorf("could not open log file: %w", err)
	}

	log := zerolog.New(file).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	log.Info().Str("path", path).Msg("logger initialized")
	return log, file, nil
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}
