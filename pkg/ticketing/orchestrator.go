// Package ticketing drives the ticket lifecycle: create, accept and close,
// plus the archiving that happens on the way out.
package ticketing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vixenbot/vixen/pkg/cooldown"
	"github.com/vixenbot/vixen/pkg/logging"
	"github.com/vixenbot/vixen/pkg/platform"
	"github.com/vixenbot/vixen/pkg/store"
	"github.com/vixenbot/vixen/pkg/tags"
	"github.com/vixenbot/vixen/pkg/transcript"
)

// Limits are the numeric budgets of the ticket system. They are supplied by
// configuration loading in cmd/bot.
type Limits struct {
	// CooldownWindow is the minimum time between ticket creations per user.
	CooldownWindow time.Duration

	// CooldownSweepInterval is how often stale cooldown entries are swept.
	// Independent of the window itself.
	CooldownSweepInterval time.Duration

	// TranscriptMaxMessages caps how many messages are fetched for the
	// transcript.
	TranscriptMaxMessages int

	// TranscriptMaxChars caps the rendered transcript size.
	TranscriptMaxChars int

	// AttachmentMaxFiles caps how many attachments are archived.
	AttachmentMaxFiles int

	// AttachmentMaxBytes caps the size of a single archived attachment.
	AttachmentMaxBytes int64

	// AttachmentTimeout bounds each attachment download.
	AttachmentTimeout time.Duration

	// UploadBatchSize is how many files ride on one archive message.
	UploadBatchSize int
}

// DefaultLimits are the budgets used when configuration does not override
// them.
func DefaultLimits() Limits {
	return Limits{
		CooldownWindow:        5 * time.Minute,
		CooldownSweepInterval: 15 * time.Minute,
		TranscriptMaxMessages: 500,
		TranscriptMaxChars:    100_000,
		AttachmentMaxFiles:    20,
		AttachmentMaxBytes:    8 << 20,
		AttachmentTimeout:     30 * time.Second,
		UploadBatchSize:       10,
	}
}

// Orchestrator coordinates the ticket state machine in response to inbound
// platform events.
type Orchestrator struct {
	// l is the logger.
	l *slog.Logger

	// repo is the ticket store.
	repo store.Repository

	// cooldowns guards ticket creation.
	cooldowns *cooldown.Tracker

	// p is the hosting platform.
	p platform.Platform

	// transcripts builds the close-time archive.
	transcripts *transcript.Service

	// tags keeps the log forum taxonomy converged.
	tags *tags.Reconciler

	// limits are the numeric budgets.
	limits Limits

	// now is the clock, swappable in tests.
	now func() time.Time
}

// New creates an orchestrator.
func New(
	l *slog.Logger,
	repo store.Repository,
	cooldowns *cooldown.Tracker,
	p platform.Platform,
	transcripts *transcript.Service,
	reconciler *tags.Reconciler,
	limits Limits,
) *Orchestrator {
	return &Orchestrator{
		l:           l.With(slog.String(logging.KeyComponent, "ticketing")),
		repo:        repo,
		cooldowns:   cooldowns,
		p:           p,
		transcripts: transcripts,
		tags:        reconciler,
		limits:      limits,
		now:         time.Now,
	}
}

// StartCooldownSweep starts the periodic cooldown sweep. Called once at
// process start.
func (o *Orchestrator) StartCooldownSweep() {
	o.cooldowns.StartSweep(o.limits.CooldownSweepInterval, o.limits.CooldownWindow)
}

// StopCooldownSweep stops the sweep. Called once at process stop.
func (o *Orchestrator) StopCooldownSweep() {
	o.cooldowns.StopSweep()
}

// HandleButtonEvent processes a button press.
func (o *Orchestrator) HandleButtonEvent(ctx context.Context, ev ButtonEvent) error {
	base, _ := SplitCustomID(ev.CustomID)
	switch base {
	case AcceptTicketButtonID:
		return o.acceptTicket(ctx, ev)
	case CloseTicketButtonID:
		return o.closeTicket(ctx, ev.GuildID, ev.ChannelID, ev.Actor, "", true)
	default:
		return &ValidationError{Reason: fmt.Sprintf("unknown control %q", ev.CustomID)}
	}
}

// HandleModalSubmitEvent processes a modal submission.
func (o *Orchestrator) HandleModalSubmitEvent(ctx context.Context, ev ModalSubmitEvent) error {
	base, arg := SplitCustomID(ev.CustomID)
	switch base {
	case CreateTicketModalID:
		return o.createTicket(ctx, ev, arg)
	case CloseConfirmModalID:
		return o.closeTicket(ctx, ev.GuildID, ev.ChannelID, ev.Actor, ev.Fields[FieldReason], false)
	default:
		return &ValidationError{Reason: fmt.Sprintf("unknown modal %q", ev.CustomID)}
	}
}
