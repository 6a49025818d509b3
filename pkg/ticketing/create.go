package ticketing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vixenbot/vixen/pkg/entities"
	"github.com/vixenbot/vixen/pkg/logging"
	"github.com/vixenbot/vixen/pkg/platform"
	"github.com/vixenbot/vixen/pkg/tags"
)

// createTicket drives the Absent -> Open transition.
func (o *Orchestrator) createTicket(ctx context.Context, ev ModalSubmitEvent, lang string) error {
	cfg, err := o.repo.Get(ctx, ev.GuildID)
	if err != nil {
		return fmt.Errorf("getting guild configuration: %w", err)
	}

	panel := cfg.Panel(lang)
	if panel == nil || panel.ChannelID == "" {
		return &ValidationError{Reason: "the ticket system is not configured for this language"}
	}
	if ev.ChannelID != panel.ChannelID {
		return &ValidationError{Reason: "tickets can only be opened from the panel channel"}
	}

	subject := strings.TrimSpace(ev.Fields[FieldSubject])
	if subject == "" {
		return &ValidationError{Reason: "a subject is required to open a ticket"}
	}
	description := strings.TrimSpace(ev.Fields[FieldDescription])

	// Duplicate check, with orphan cleanup: a record whose thread no longer
	// resolves is silently dropped before the create proceeds.
	if threadID := cfg.OpenThreadID(lang, ev.Actor.ID); threadID != "" {
		_, chErr := o.p.Channel(ctx, threadID)
		switch {
		case chErr == nil:
			return &ConflictError{Reason: "you already have an open ticket", ExistingThreadID: threadID}
		case errors.Is(chErr, platform.ErrUnknownChannel):
			if err := o.repo.Update(ctx, ev.GuildID, func(cfg *entities.GuildTicketConfig) (*entities.GuildTicketConfig, error) {
				cfg.RemoveTicket(threadID)
				return nil, nil
			}); err != nil {
				return fmt.Errorf("cleaning up orphaned ticket: %w", err)
			}
			o.l.Info("Removed orphaned ticket record",
				slog.String(logging.KeyGuild, ev.GuildID),
				slog.String(logging.KeyThread, threadID),
			)
		default:
			return fmt.Errorf("resolving existing ticket thread: %w", chErr)
		}
	}

	cooldownKey := fmt.Sprintf("%s:%s", ev.GuildID, ev.Actor.ID)
	if remaining := o.cooldowns.Enforce(cooldownKey, o.limits.CooldownWindow); remaining > 0 {
		return &ConflictError{Reason: "please wait before opening another ticket", RemainingWait: remaining}
	}

	// Thread creation is the point of no return: failure here aborts with
	// no record written. Everything after it is independently fallible.
	thread, err := o.p.ThreadCreate(ctx, panel.ChannelID, threadName(ev.Actor, subject))
	if err != nil {
		return fmt.Errorf("creating ticket thread: %w", err)
	}

	rec := &entities.TicketRecord{
		OwnerID:        ev.Actor.ID,
		Lang:           lang,
		CreatedAt:      o.now().UTC(),
		PanelChannelID: panel.ChannelID,
		Subject:        subject,
		Description:    description,
	}

	if err := o.p.ThreadMemberAdd(ctx, thread.ID, ev.Actor.ID); err != nil {
		o.l.Error("Error adding ticket owner to thread",
			slog.String(logging.KeyThread, thread.ID),
			slog.String(logging.KeyError, err.Error()),
		)
	}

	if _, err := o.p.SendMessage(ctx, thread.ID, welcomeMessage(ev.Actor, rec)); err != nil {
		o.l.Error("Error sending welcome message",
			slog.String(logging.KeyThread, thread.ID),
			slog.String(logging.KeyError, err.Error()),
		)
	}

	o.createLogEntry(ctx, panel, rec, thread.ID)

	// Persist. The duplicate check above is read-then-act, so two
	// near-simultaneous creates can both reach this point; the mutator
	// re-checks under the store's write queue and the loser rolls back.
	conflict := false
	err = o.repo.Update(ctx, ev.GuildID, func(cfg *entities.GuildTicketConfig) (*entities.GuildTicketConfig, error) {
		if existing := cfg.OpenThreadID(lang, ev.Actor.ID); existing != "" && existing != thread.ID {
			conflict = true
			return nil, nil
		}
		cfg.PutTicket(thread.ID, rec)
		return nil, nil
	})
	if err != nil {
		o.rollbackThread(ctx, thread.ID)
		return fmt.Errorf("persisting ticket record: %w", err)
	}
	if conflict {
		o.rollbackThread(ctx, thread.ID)
		return &ConflictError{Reason: "you already have an open ticket"}
	}

	o.l.Info("Ticket created",
		slog.String(logging.KeyGuild, ev.GuildID),
		slog.String(logging.KeyUser, ev.Actor.ID),
		slog.String(logging.KeyLang, lang),
		slog.String(logging.KeyThread, thread.ID),
	)
	return nil
}

// createLogEntry mirrors the new ticket onto the log destination. Best
// effort: the ticket exists with or without its log entry.
func (o *Orchestrator) createLogEntry(ctx context.Context, panel *entities.PanelConfig, rec *entities.TicketRecord, threadID string) {
	if panel.LogChannelID == "" {
		return
	}

	ch, err := o.p.Channel(ctx, panel.LogChannelID)
	if err != nil {
		o.l.Error("Error resolving log destination",
			slog.String("log_channel", panel.LogChannelID),
			slog.String(logging.KeyError, err.Error()),
		)
		return
	}

	content := logEntryContent(rec, threadID)

	if ch.Kind == platform.KindForum {
		var tagIDs []string
		ids, err := o.tags.Ensure(ctx, panel.LogChannelID)
		if err != nil {
			o.l.Error("Error reconciling log forum tags", slog.String(logging.KeyError, err.Error()))
		} else if id := ids[tags.TagInfo]; id != "" {
			tagIDs = []string{id}
		}

		logThreadID, starterID, err := o.p.ForumThreadStart(ctx, panel.LogChannelID, rec.Subject, content, tagIDs)
		if err != nil {
			o.l.Error("Error creating log thread", slog.String(logging.KeyError, err.Error()))
			return
		}
		rec.LogThreadID = logThreadID
		rec.LogStarterMessageID = starterID
		return
	}

	msgID, err := o.p.SendMessage(ctx, panel.LogChannelID, content)
	if err != nil {
		o.l.Error("Error creating log message", slog.String(logging.KeyError, err.Error()))
		return
	}
	rec.LogMessageID = msgID
}

// rollbackThread removes a thread whose ticket record never made it into
// the store.
func (o *Orchestrator) rollbackThread(ctx context.Context, threadID string) {
	if err := o.p.DeleteChannel(ctx, threadID); err != nil {
		o.l.Error("Error rolling back ticket thread",
			slog.String(logging.KeyThread, threadID),
			slog.String(logging.KeyError, err.Error()),
		)
	}
}

func threadName(actor Actor, subject string) string {
	name := actor.Username
	if name == "" {
		name = actor.ID
	}
	title := fmt.Sprintf("%s - %s", name, subject)
	if len(title) > 100 {
		// Channel names are capped by the platform.
		title = title[:100]
	}
	return title
}

func welcomeMessage(actor Actor, rec *entities.TicketRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<@%s>, your ticket has been created.\n", actor.ID)
	fmt.Fprintf(&b, "**Subject:** %s\n", rec.Subject)
	if rec.Description != "" {
		fmt.Fprintf(&b, "**Description:** %s\n", rec.Description)
	}
	b.WriteString("Please provide any additional info you deem relevant to help us answer faster.")
	return b.String()
}

// logEntryContent renders the log destination entry. It is rewritten on
// every acceptance so the acceptor list stays current.
func logEntryContent(rec *entities.TicketRecord, threadID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New ticket by <@%s> in <#%s>\n", rec.OwnerID, threadID)
	fmt.Fprintf(&b, "**Subject:** %s\n", rec.Subject)
	if rec.Description != "" {
		fmt.Fprintf(&b, "**Description:** %s\n", rec.Description)
	}
	if len(rec.AcceptedByIDs) > 0 {
		mentions := make([]string, 0, len(rec.AcceptedByIDs))
		for _, id := range rec.AcceptedByIDs {
			mentions = append(mentions, fmt.Sprintf("<@%s>", id))
		}
		fmt.Fprintf(&b, "**Accepted by:** %s\n", strings.Join(mentions, ", "))
	}
	return b.String()
}
