package ticketing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vixenbot/vixen/pkg/entities"
	"github.com/vixenbot/vixen/pkg/logging"
	"github.com/vixenbot/vixen/pkg/platform"
	"github.com/vixenbot/vixen/pkg/tags"
	"github.com/vixenbot/vixen/pkg/transcript"
)

// closeTicket drives the Open -> Absent transition. The fast path is
// support-only; the confirmation path (with a reason) is open to the owner
// as well.
func (o *Orchestrator) closeTicket(ctx context.Context, guildID, threadID string, actor Actor, reason string, fastPath bool) error {
	cfg, err := o.repo.Get(ctx, guildID)
	if err != nil {
		return fmt.Errorf("getting guild configuration: %w", err)
	}

	rec := cfg.TicketsByThread[threadID]
	if rec == nil {
		return &ValidationError{Reason: "this channel is not an open ticket"}
	}

	isSupport := actor.HasRole(cfg.SupportRoleID)
	if fastPath && !isSupport {
		return &PermissionError{Reason: "only support staff can close a ticket directly"}
	}
	if !fastPath && !isSupport && actor.ID != rec.OwnerID {
		return &PermissionError{Reason: "only the ticket owner or support staff can close this ticket"}
	}

	panel := cfg.Panel(rec.Lang)

	// Everything from here on is best effort except the record deletion:
	// the persisted record is the authoritative lifecycle signal.
	if _, err := o.p.SendMessage(ctx, threadID, closeAnnouncement(actor, reason)); err != nil {
		o.l.Error("Error announcing closure",
			slog.String(logging.KeyThread, threadID),
			slog.String(logging.KeyError, err.Error()),
		)
	}

	// Close-time audit mutation, for the archive and for anything reading
	// the store during the close.
	if err := o.repo.Update(ctx, guildID, func(cfg *entities.GuildTicketConfig) (*entities.GuildTicketConfig, error) {
		if r := cfg.TicketsByThread[threadID]; r != nil {
			r.ClosedBy = actor.ID
			r.CloseReason = reason
		}
		return nil, nil
	}); err != nil {
		o.l.Error("Error recording close audit fields", slog.String(logging.KeyError, err.Error()))
	}
	rec.ClosedBy = actor.ID
	rec.CloseReason = reason

	o.archiveTicket(ctx, panel, rec, threadID)

	// Stale join/claim controls on the original log entry.
	o.disableLogControls(ctx, panel, rec)

	// The authoritative transition. Archiving failures above do not stop
	// it.
	if err := o.repo.Update(ctx, guildID, func(cfg *entities.GuildTicketConfig) (*entities.GuildTicketConfig, error) {
		cfg.RemoveTicket(threadID)
		return nil, nil
	}); err != nil {
		return fmt.Errorf("deleting ticket record: %w", err)
	}

	// Thread teardown, with lock+archive as the degraded fallback.
	if err := o.p.DeleteChannel(ctx, threadID); err != nil {
		o.l.Warn("Error deleting ticket thread, falling back to lock and archive",
			slog.String(logging.KeyThread, threadID),
			slog.String(logging.KeyError, err.Error()),
		)
		if err := o.p.LockAndArchiveThread(ctx, threadID); err != nil {
			o.l.Error("Error locking ticket thread",
				slog.String(logging.KeyThread, threadID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}

	o.l.Info("Ticket closed",
		slog.String(logging.KeyGuild, guildID),
		slog.String(logging.KeyThread, threadID),
		slog.String(logging.KeyUser, actor.ID),
	)
	return nil
}

// archiveTicket publishes the transcript and attachments to the log
// destination. Best effort throughout; a failure here never blocks the
// close.
func (o *Orchestrator) archiveTicket(ctx context.Context, panel *entities.PanelConfig, rec *entities.TicketRecord, threadID string) {
	destination := rec.LogThreadID
	if destination == "" && panel != nil {
		destination = panel.LogChannelID
	}
	if destination == "" {
		o.l.Warn("No log destination for ticket archive", slog.String(logging.KeyThread, threadID))
		return
	}

	messages, err := o.transcripts.FetchMessages(ctx, threadID, o.limits.TranscriptMaxMessages)
	if err != nil {
		o.l.Error("Error fetching ticket history, skipping archive",
			slog.String(logging.KeyThread, threadID),
			slog.String(logging.KeyError, err.Error()),
		)
		return
	}

	text := transcript.BuildTranscript(messages, o.limits.TranscriptMaxChars)
	attachments, skipped := o.transcripts.CollectAttachments(ctx, messages,
		o.limits.AttachmentMaxFiles, o.limits.AttachmentMaxBytes, o.limits.AttachmentTimeout)

	files := append([]*platform.File{{
		Name:        "transcript.txt",
		ContentType: "text/plain",
		Reader:      strings.NewReader(text),
	}}, attachments...)

	if err := o.transcripts.SendBatched(ctx, destination, closeSummary(rec, skipped), files, o.limits.UploadBatchSize); err != nil {
		o.l.Error("Error publishing ticket archive",
			slog.String(logging.KeyThread, threadID),
			slog.String(logging.KeyError, err.Error()),
		)
	}

	o.mirrorResolved(ctx, panel, rec)
}

// mirrorResolved posts a minimal resolved summary under the resolved tag
// when the log destination is a forum, for later search.
func (o *Orchestrator) mirrorResolved(ctx context.Context, panel *entities.PanelConfig, rec *entities.TicketRecord) {
	if panel == nil || panel.LogChannelID == "" {
		return
	}

	ch, err := o.p.Channel(ctx, panel.LogChannelID)
	if err != nil || ch.Kind != platform.KindForum {
		return
	}

	ids, err := o.tags.Ensure(ctx, panel.LogChannelID)
	if err != nil {
		o.l.Error("Error reconciling log forum tags", slog.String(logging.KeyError, err.Error()))
		return
	}

	var tagIDs []string
	if id := ids[tags.TagResolved]; id != "" {
		tagIDs = []string{id}
	}

	title := fmt.Sprintf("Resolved: %s", rec.Subject)
	content := fmt.Sprintf("Ticket by <@%s> resolved by <@%s>.", rec.OwnerID, rec.ClosedBy)
	if _, _, err := o.p.ForumThreadStart(ctx, panel.LogChannelID, title, content, tagIDs); err != nil {
		o.l.Error("Error posting resolved summary", slog.String(logging.KeyError, err.Error()))
	}
}

// disableLogControls disables the stale join/claim controls on the original
// log entry. Best effort: the entry may already be gone.
func (o *Orchestrator) disableLogControls(ctx context.Context, panel *entities.PanelConfig, rec *entities.TicketRecord) {
	var channelID, messageID string
	switch {
	case rec.LogThreadID != "" && rec.LogStarterMessageID != "":
		channelID, messageID = rec.LogThreadID, rec.LogStarterMessageID
	case rec.LogMessageID != "" && panel != nil:
		channelID, messageID = panel.LogChannelID, rec.LogMessageID
	default:
		return
	}

	if err := o.p.DisableMessageControls(ctx, channelID, messageID); err != nil {
		o.l.Error("Error disabling stale log controls", slog.String(logging.KeyError, err.Error()))
	}
}

func closeAnnouncement(actor Actor, reason string) string {
	if reason != "" {
		return fmt.Sprintf("This ticket is being closed by <@%s>: %s", actor.ID, reason)
	}
	return fmt.Sprintf("This ticket is being closed by <@%s>.", actor.ID)
}

// closeSummary is the primary payload of the archive message.
func closeSummary(rec *entities.TicketRecord, skipped []transcript.Skipped) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticket by <@%s> closed by <@%s>.\n", rec.OwnerID, rec.ClosedBy)
	fmt.Fprintf(&b, "**Subject:** %s\n", rec.Subject)
	if rec.CloseReason != "" {
		fmt.Fprintf(&b, "**Reason:** %s\n", rec.CloseReason)
	}
	if len(rec.AcceptedByIDs) > 0 {
		mentions := make([]string, 0, len(rec.AcceptedByIDs))
		for _, id := range rec.AcceptedByIDs {
			mentions = append(mentions, fmt.Sprintf("<@%s>", id))
		}
		fmt.Fprintf(&b, "**Handled by:** %s\n", strings.Join(mentions, ", "))
	}
	if len(skipped) > 0 {
		fmt.Fprintf(&b, "%d attachment(s) could not be archived.\n", len(skipped))
	}
	return b.String()
}
