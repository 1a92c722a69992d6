package config

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger creates a logger writing to out. The server logs to stdout; the
// shopper client logs to stderr so its own output stays readable.
func NewLogger(cfg LoggerConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(out).With().Timestamp().Logger()
}
