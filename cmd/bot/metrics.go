package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalDiscordGuilds is the total number of guilds the bot is currently in.
	TotalDiscordGuilds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: fmt.Sprintf("%s_discord_guilds_total", AppName),
		Help: "The total number of guilds the bot is in",
	})

	// TotalDiscordEvents is the total number of gateway events received.
	TotalDiscordEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: fmt.Sprintf("%s_discord_events_total", AppName),
		Help: "The total number of discord events received",
	}, []string{"event"})

	// HttpTotalRequests is the total number of http requests.
	HttpTotalRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: fmt.Sprintf("%s_http_requests_total", AppName),
		Help: "The total number of http requests",
	}, []string{"path", "method", "status_code"})

	// HttpRequestDuration is the duration of http requests.
	HttpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: fmt.Sprintf("%s_http_request_duration_seconds", AppName),
		Help: "The duration of http requests",
	}, []string{"path", "method", "status_code"})

	// InteractionDuration is the duration of ticket interaction handling.
	InteractionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: fmt.Sprintf("%s_interaction_duration_seconds", AppName),
		Help: "The duration of ticket interaction handling",
	}, []string{"interaction"})
)
