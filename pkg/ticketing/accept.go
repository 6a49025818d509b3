package ticketing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vixenbot/vixen/pkg/entities"
	"github.com/vixenbot/vixen/pkg/logging"
)

// acceptTicket drives the Open -> Open "accept" transition.
func (o *Orchestrator) acceptTicket(ctx context.Context, ev ButtonEvent) error {
	cfg, err := o.repo.Get(ctx, ev.GuildID)
	if err != nil {
		return fmt.Errorf("getting guild configuration: %w", err)
	}

	if cfg.TicketsByThread[ev.ChannelID] == nil {
		return &ValidationError{Reason: "this channel is not an open ticket"}
	}
	if !ev.Actor.HasRole(cfg.SupportRoleID) {
		return &PermissionError{Reason: "only support staff can accept tickets"}
	}

	// The thread must still resolve; acceptance of a gone thread is
	// meaningless and the orphan will be cleaned up on the next create.
	if _, err := o.p.Channel(ctx, ev.ChannelID); err != nil {
		return fmt.Errorf("resolving ticket thread: %w", err)
	}

	var (
		first   bool
		updated *entities.TicketRecord
	)
	err = o.repo.Update(ctx, ev.GuildID, func(cfg *entities.GuildTicketConfig) (*entities.GuildTicketConfig, error) {
		rec := cfg.TicketsByThread[ev.ChannelID]
		if rec == nil {
			return nil, &ValidationError{Reason: "this channel is not an open ticket"}
		}
		first = rec.Accept(ev.Actor.ID, o.now())
		updated = rec
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("recording acceptance: %w", err)
	}

	// The "accepted" notification fires only for the first acceptor; later
	// acceptors extend the list silently.
	if first {
		if _, err := o.p.SendMessage(ctx, ev.ChannelID, fmt.Sprintf("<@%s> has accepted this ticket.", ev.Actor.ID)); err != nil {
			o.l.Error("Error sending acceptance notification",
				slog.String(logging.KeyThread, ev.ChannelID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}

	// The log entry reflects the full acceptor list on every acceptance.
	o.updateLogEntry(ctx, cfg.Panel(updated.Lang), updated, ev.ChannelID)

	o.l.Info("Ticket accepted",
		slog.String(logging.KeyGuild, ev.GuildID),
		slog.String(logging.KeyThread, ev.ChannelID),
		slog.String(logging.KeyUser, ev.Actor.ID),
		slog.Bool("first", first),
	)
	return nil
}

// updateLogEntry rewrites the log destination entry with current record
// state. Best effort: an already-deleted log entry is not an error that
// should surface to the accepting actor.
func (o *Orchestrator) updateLogEntry(ctx context.Context, panel *entities.PanelConfig, rec *entities.TicketRecord, threadID string) {
	var channelID, messageID string
	switch {
	case rec.LogThreadID != "" && rec.LogStarterMessageID != "":
		channelID, messageID = rec.LogThreadID, rec.LogStarterMessageID
	case rec.LogMessageID != "" && panel != nil:
		channelID, messageID = panel.LogChannelID, rec.LogMessageID
	default:
		return
	}

	if err := o.p.EditMessage(ctx, channelID, messageID, logEntryContent(rec, threadID)); err != nil {
		o.l.Error("Error updating log entry",
			slog.String(logging.KeyThread, threadID),
			slog.String(logging.KeyError, err.Error()),
		)
	}
}
