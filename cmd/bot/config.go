package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

const (
	// PathMetrics is the path for metrics.
	PathMetrics = "/metrics"

	// PathHealth is the path for health check.
	PathHealth = "/health"
)

const (
	// AppName is the name of the application.
	AppName = "vixen"

	// EnvBotToken is the environment variable for the bot token.
	EnvBotToken = `BOT_TOKEN`

	// EnvStorePath is the environment variable for the ticket store file.
	EnvStorePath = `STORE_PATH`

	// EnvLimitsPath is the environment variable for the limits file.
	EnvLimitsPath = `LIMITS_PATH`

	// EnvMonitoringPort is the environment variable for the monitoring port.
	EnvMonitoringPort = `MONITORING_PORT`
)

var (
	// BotToken is the token for the bot.
	BotToken string

	// StorePath is the location of the ticket store file.
	StorePath string

	// LimitsPath is the location of the limits file.
	LimitsPath string

	// MonitoringPort is the port for the monitoring server.
	MonitoringPort string
)

func parseConfig(l *slog.Logger) {
	// A local .env file supplements the environment when present.
	if err := godotenv.Load(); err == nil {
		l.Debug("Loaded environment from .env file")
	}

	if envBT := os.Getenv(EnvBotToken); envBT != "" {
		l.Debug("Found bot token in environment", slog.String("key", EnvBotToken))
		BotToken = envBT
	}

	if envSP := os.Getenv(EnvStorePath); envSP != "" {
		l.Debug("Found store path in environment", slog.String("key", EnvStorePath))
		StorePath = envSP
	} else {
		StorePath = "tickets.json"
		l.Info("No store path provided in environment, defaulting to tickets.json", slog.String("key", EnvStorePath))
	}

	if envLP := os.Getenv(EnvLimitsPath); envLP != "" {
		l.Debug("Found limits path in environment", slog.String("key", EnvLimitsPath))
		LimitsPath = envLP
	}

	if envMP := os.Getenv(EnvMonitoringPort); envMP != "" {
		l.Debug("Found monitoring port in environment", slog.String("key", EnvMonitoringPort))
		MonitoringPort = envMP
	} else {
		// Default to 8080 if not provided.
		MonitoringPort = "8080"
		l.Info("No monitoring port provided in environment, defaulting to 8080", slog.String("key", EnvMonitoringPort))
	}

	if BotToken != "" {
		// All required environment variables have been provided.
		l.Debug("All required environment variables have been provided")
		return
	}

	l.Error("Not all required environment variables have been provided", slog.String("key", EnvBotToken))
	os.Exit(1)
}
