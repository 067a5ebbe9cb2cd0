package valutatrade

import (
	"os"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger from configuration. The pretty console
// writer is meant for interactive use; JSON output fits the watch mode when
// piped to a file.
func NewLogger(cfg *Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.LogPretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
