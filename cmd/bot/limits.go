package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/vixenbot/vixen/pkg/logging"
	"github.com/vixenbot/vixen/pkg/ticketing"
	"gopkg.in/yaml.v3"
)

// limitsFile is the on-disk shape of the numeric budgets. Any field left
// zero falls back to its default.
type limitsFile struct {
	CooldownSeconds              int   `yaml:"cooldownSeconds"`
	CooldownSweepIntervalSeconds int   `yaml:"cooldownSweepIntervalSeconds"`
	TranscriptMaxMessages        int   `yaml:"transcriptMaxMessages"`
	TranscriptMaxChars           int   `yaml:"transcriptMaxChars"`
	AttachmentMaxFiles           int   `yaml:"attachmentMaxFiles"`
	AttachmentMaxBytes           int64 `yaml:"attachmentMaxBytes"`
	AttachmentTimeoutSeconds     int   `yaml:"attachmentTimeoutSeconds"`
	UploadBatchSize              int   `yaml:"uploadBatchSize"`
}

// loadLimits reads the limits file and overlays it on the defaults. A
// missing path means defaults.
func loadLimits(l *slog.Logger, path string) ticketing.Limits {
	limits := ticketing.DefaultLimits()
	if path == "" {
		return limits
	}

	data, err := os.ReadFile(path)
	if err != nil {
		l.Warn("Could not read limits file, using defaults",
			slog.String("path", path),
			slog.String(logging.KeyError, err.Error()),
		)
		return limits
	}

	parsed := new(limitsFile)
	if err := yaml.Unmarshal(data, parsed); err != nil {
		l.Warn("Could not parse limits file, using defaults",
			slog.String("path", path),
			slog.String(logging.KeyError, err.Error()),
		)
		return limits
	}

	if parsed.CooldownSeconds > 0 {
		limits.CooldownWindow = time.Duration(parsed.CooldownSeconds) * time.Second
	}
	if parsed.CooldownSweepIntervalSeconds > 0 {
		limits.CooldownSweepInterval = time.Duration(parsed.CooldownSweepIntervalSeconds) * time.Second
	}
	if parsed.TranscriptMaxMessages > 0 {
		limits.TranscriptMaxMessages = parsed.TranscriptMaxMessages
	}
	if parsed.TranscriptMaxChars > 0 {
		limits.TranscriptMaxChars = parsed.TranscriptMaxChars
	}
	if parsed.AttachmentMaxFiles > 0 {
		limits.AttachmentMaxFiles = parsed.AttachmentMaxFiles
	}
	if parsed.AttachmentMaxBytes > 0 {
		limits.AttachmentMaxBytes = parsed.AttachmentMaxBytes
	}
	if parsed.AttachmentTimeoutSeconds > 0 {
		limits.AttachmentTimeout = time.Duration(parsed.AttachmentTimeoutSeconds) * time.Second
	}
	if parsed.UploadBatchSize > 0 {
		limits.UploadBatchSize = parsed.UploadBatchSize
	}
	return limits
}
