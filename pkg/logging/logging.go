package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Name is the name of the application that the logger is for.
type Name string

// Config is the configuration for a logger.
type Config struct {
	// name is the name of the application.
	name Name

	// w is the destination that log lines are written to.
	w io.Writer
}

// NewConfig creates a new logging configuration for the named application.
func NewConfig(name Name) *Config {
	return &Config{
		name: name,
		w:    os.Stdout,
	}
}

// WithWriter overrides the destination that log lines are written to.
func (c *Config) WithWriter(w io.Writer) *Config {
	c.w = w
	return c
}

// CommonLogger creates the logger used across the application. The level is
// taken from the LOG_LEVEL environment variable, defaulting to info.
func CommonLogger(c *Config) (*slog.Logger, error) {
	h := slog.NewJSONHandler(c.w, &slog.HandlerOptions{
		Level: levelFromEnv(),
	})
	l := slog.New(h).With(slog.String(KeyAppName, string(c.name)))
	slog.SetDefault(l)
	return l, nil
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
