package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/bwmarrin/discordgo"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vixenbot/vixen/pkg/cooldown"
	"github.com/vixenbot/vixen/pkg/logging"
	"github.com/vixenbot/vixen/pkg/platform/discord"
	"github.com/vixenbot/vixen/pkg/request"
	"github.com/vixenbot/vixen/pkg/store"
	"github.com/vixenbot/vixen/pkg/tags"
	"github.com/vixenbot/vixen/pkg/ticketing"
	"github.com/vixenbot/vixen/pkg/transcript"
)

// IApp is the interface for the application.
type IApp interface {
	// Log returns the logger.
	Log() *slog.Logger

	// Session returns the discord session.
	Session() *discordgo.Session

	// Orchestrator returns the ticket orchestrator.
	Orchestrator() *ticketing.Orchestrator
}

type App struct {
	// Logger is the logger for the application.
	*slog.Logger

	// r is the router for the application.
	r *mux.Router

	// svr is the server for the application.
	svr *http.Server

	// s is the discord session.
	s *discordgo.Session

	// repo is the ticket store.
	repo store.Repository

	// orch is the ticket orchestrator.
	orch *ticketing.Orchestrator
}

// NewApp creates a new instance of App.
func NewApp(l *slog.Logger, r *mux.Router) *App {
	return &App{
		Logger: l,
		r:      r,
	}
}

func (a *App) Run() error {
	// Register bot.
	if err := a.RegisterBot(); err != nil {
		return fmt.Errorf("error registering bot: %w", err)
	}

	a.s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		a.Info(fmt.Sprintf("Logged in as %s#%s", r.User.Username, r.User.Discriminator))
	})

	// Build the ticket system around the session.
	a.repo = store.NewRepository(a.Logger, StorePath)
	adapter := discord.NewAdapter(a.s)
	a.orch = ticketing.New(
		a.Logger,
		a.repo,
		cooldown.New(),
		adapter,
		transcript.NewService(a.Logger, adapter),
		tags.NewReconciler(a.Logger, adapter),
		loadLimits(a.Logger, LimitsPath),
	)

	if err := a.RegisterDiscordHandlers(); err != nil {
		return fmt.Errorf("error registering discord handlers: %w", err)
	}

	// Open websocket.
	if err := a.s.Open(); err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}

	a.orch.StartCooldownSweep()

	a.Info("Bot is now running.")

	a.generateServer()
	a.setupRoutes()
	a.runServer()

	// Register listener for shutdown signal.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	// Process shutdown signal.
	for sig := range c {
		a.Info("Received shutdown signal", slog.String("signal", sig.String()))
		if err := a.ShutdownHook(); err != nil {
			a.Error("Error shutting down application", slog.String(logging.KeyError, err.Error()))
		}
		os.Exit(0)
	}
	return nil
}

func (a *App) ShutdownHook() error {
	// Stop the cooldown sweep.
	a.orch.StopCooldownSweep()

	// Drain the store's write queue.
	if err := a.repo.Close(); err != nil {
		return fmt.Errorf("error closing store: %w", err)
	}

	// Close the connection to Discord.
	if err := a.s.Close(); err != nil {
		return fmt.Errorf("error closing connection to Discord: %w", err)
	}
	return nil
}

func (a *App) RegisterBot() error {
	// Default the number of guilds to 0.
	TotalDiscordGuilds.Set(0)

	dg, err := discordgo.New("Bot " + BotToken)
	if err != nil {
		return fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsAllWithoutPrivileged | discordgo.IntentsGuildMembers

	a.s = dg
	return nil
}

func (a *App) runServer() {
	go func() {
		a.Info("Starting monitoring server")
		if err := a.svr.ListenAndServe(); err != nil {
			a.Error("Error starting monitoring server", slog.String(logging.KeyError, err.Error()))
			a.Warn("Monitoring server will not be available")
		}
	}()
}

func (a *App) setupRoutes() {
	// PathMetrics is the path for metrics.
	a.r.HandleFunc(PathMetrics, promhttp.Handler().ServeHTTP).Methods(http.MethodGet)

	// PathHealth is the path for health check.
	a.r.HandleFunc(PathHealth, middlewareHttp(a.healthCheck(), a)).Methods(http.MethodGet)

	// NotFoundHandler is the handler for 404.
	a.r.NotFoundHandler = request.NotFoundHandler(a.Logger)

	// MethodNotAllowedHandler is the handler for 405.
	a.r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(a.Logger)
}

func (a *App) generateServer() {
	a.svr = &http.Server{
		Addr:    ":" + MonitoringPort,
		Handler: a.r,
	}
}

func (a *App) RegisterDiscordHandlers() error {
	// Bot joined guild.
	a.s.AddHandler(guildJoinedHandler(a))

	// Bot left guild.
	a.s.AddHandler(guildLeaveHandler(a))

	// Count every gateway event by type.
	a.s.AddHandler(func(_ *discordgo.Session, e *discordgo.Event) {
		if e.Type != "" {
			TotalDiscordEvents.WithLabelValues(e.Type).Inc()
		}
	})

	// Interaction create handler.
	a.s.AddHandler(interactionHandler(a,
		// Button Controllers
		map[string]interactionProcessor{
			ticketing.OpenTicketButtonID:   openTicketButton,
			ticketing.AcceptTicketButtonID: acceptTicketButton,
			ticketing.CloseTicketButtonID:  closeTicketButton,
			ticketing.CloseRequestButtonID: closeRequestButton,
		},
		// Modal Controllers
		map[string]interactionProcessor{
			ticketing.CreateTicketModalID: createTicketModal,
			ticketing.CloseConfirmModalID: closeConfirmModal,
		}))
	return nil
}

func (a *App) Log() *slog.Logger {
	return a.Logger
}

func (a *App) Session() *discordgo.Session {
	return a.s
}

func (a *App) Orchestrator() *ticketing.Orchestrator {
	return a.orch
}
