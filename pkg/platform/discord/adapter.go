// Package discord implements the platform contract on top of a discordgo
// session.
package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/vixenbot/vixen/pkg/platform"
)

// threadAutoArchiveMinutes is the auto-archive duration requested for
// ticket threads (7 days, the longest Discord allows).
const threadAutoArchiveMinutes = 10080

// Adapter implements platform.Platform against a discordgo session.
type Adapter struct {
	// s is the discord session.
	s *discordgo.Session
}

// NewAdapter creates an adapter over the session.
func NewAdapter(s *discordgo.Session) *Adapter {
	return &Adapter{s: s}
}

func (a *Adapter) Channel(ctx context.Context, id string) (*platform.Channel, error) {
	ch, err := a.s.Channel(id, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError(err, "getting channel")
	}
	return mapChannel(ch), nil
}

func (a *Adapter) ThreadCreate(ctx context.Context, channelID, name string) (*platform.Channel, error) {
	thread, err := a.s.ThreadStartComplex(channelID, &discordgo.ThreadStart{
		Name:                name,
		AutoArchiveDuration: threadAutoArchiveMinutes,
		Type:                discordgo.ChannelTypeGuildPrivateThread,
		Invitable:           false,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError(err, "starting thread")
	}
	return mapChannel(thread), nil
}

func (a *Adapter) ThreadMemberAdd(ctx context.Context, threadID, userID string) error {
	if err := a.s.ThreadMemberAdd(threadID, userID, discordgo.WithContext(ctx)); err != nil {
		return mapError(err, "adding thread member")
	}
	return nil
}

func (a *Adapter) SendMessage(ctx context.Context, channelID, content string) (string, error) {
	msg, err := a.s.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return "", mapError(err, "sending message")
	}
	return msg.ID, nil
}

func (a *Adapter) SendFiles(ctx context.Context, channelID, content string, files []*platform.File) (string, error) {
	send := &discordgo.MessageSend{
		Content: content,
		Files:   make([]*discordgo.File, 0, len(files)),
	}
	for _, f := range files {
		send.Files = append(send.Files, &discordgo.File{
			Name:        f.Name,
			ContentType: f.ContentType,
			Reader:      f.Reader,
		})
	}

	msg, err := a.s.ChannelMessageSendComplex(channelID, send, discordgo.WithContext(ctx))
	if err != nil {
		return "", mapError(err, "sending files")
	}
	return msg.ID, nil
}

func (a *Adapter) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	if _, err := a.s.ChannelMessageEdit(channelID, messageID, content, discordgo.WithContext(ctx)); err != nil {
		return mapError(err, "editing message")
	}
	return nil
}

// DisableMessageControls disables every button on the message, leaving the
// content and layout in place.
func (a *Adapter) DisableMessageControls(ctx context.Context, channelID, messageID string) error {
	msg, err := a.s.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return mapError(err, "getting message")
	}

	changed := false
	for _, comp := range msg.Components {
		row, ok := comp.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			button, ok := inner.(*discordgo.Button)
			if !ok || button.Disabled {
				continue
			}
			button.Disabled = true
			changed = true
		}
	}
	if !changed {
		return nil
	}

	if _, err := a.s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Components: &msg.Components,
	}, discordgo.WithContext(ctx)); err != nil {
		return mapError(err, "editing message components")
	}
	return nil
}

func (a *Adapter) MessagesBefore(ctx context.Context, channelID, beforeID string, limit int) ([]*platform.Message, error) {
	msgs, err := a.s.ChannelMessages(channelID, limit, beforeID, "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError(err, "getting messages")
	}

	out := make([]*platform.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, mapMessage(m))
	}
	return out, nil
}

func (a *Adapter) ForumThreadStart(ctx context.Context, forumID, name, content string, tagIDs []string) (string, string, error) {
	thread, err := a.s.ForumThreadStartComplex(forumID, &discordgo.ThreadStart{
		Name:                name,
		AutoArchiveDuration: threadAutoArchiveMinutes,
		AppliedTags:         tagIDs,
	}, &discordgo.MessageSend{
		Content: content,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", "", mapError(err, "starting forum thread")
	}

	// The starter message of a forum post shares the thread's ID.
	return thread.ID, thread.ID, nil
}

func (a *Adapter) ForumTags(ctx context.Context, forumID string) ([]platform.Tag, error) {
	ch, err := a.s.Channel(forumID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError(err, "getting forum channel")
	}

	tags := make([]platform.Tag, 0, len(ch.AvailableTags))
	for _, t := range ch.AvailableTags {
		tags = append(tags, platform.Tag{ID: t.ID, Name: t.Name})
	}
	return tags, nil
}

func (a *Adapter) UpdateForumTags(ctx context.Context, forumID string, tags []platform.Tag) ([]platform.Tag, error) {
	forumTags := make([]discordgo.ForumTag, 0, len(tags))
	for _, t := range tags {
		forumTags = append(forumTags, discordgo.ForumTag{ID: t.ID, Name: t.Name})
	}

	ch, err := a.s.ChannelEditComplex(forumID, &discordgo.ChannelEdit{
		AvailableTags: &forumTags,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError(err, "editing forum tags")
	}

	out := make([]platform.Tag, 0, len(ch.AvailableTags))
	for _, t := range ch.AvailableTags {
		out = append(out, platform.Tag{ID: t.ID, Name: t.Name})
	}
	return out, nil
}

func (a *Adapter) DeleteChannel(ctx context.Context, id string) error {
	if _, err := a.s.ChannelDelete(id, discordgo.WithContext(ctx)); err != nil {
		return mapError(err, "deleting channel")
	}
	return nil
}

func (a *Adapter) LockAndArchiveThread(ctx context.Context, threadID string) error {
	locked := true
	archived := true
	if _, err := a.s.ChannelEditComplex(threadID, &discordgo.ChannelEdit{
		Locked:   &locked,
		Archived: &archived,
	}, discordgo.WithContext(ctx)); err != nil {
		return mapError(err, "locking thread")
	}
	return nil
}

func mapChannel(ch *discordgo.Channel) *platform.Channel {
	out := &platform.Channel{
		ID:       ch.ID,
		ParentID: ch.ParentID,
		Name:     ch.Name,
	}
	switch ch.Type {
	case discordgo.ChannelTypeGuildText:
		out.Kind = platform.KindText
	case discordgo.ChannelTypeGuildCategory:
		out.Kind = platform.KindCategory
	case discordgo.ChannelTypeGuildForum:
		out.Kind = platform.KindForum
	case discordgo.ChannelTypeGuildPublicThread, discordgo.ChannelTypeGuildPrivateThread, discordgo.ChannelTypeGuildNewsThread:
		out.Kind = platform.KindThread
	default:
		out.Kind = platform.KindOther
	}
	return out
}

func mapMessage(m *discordgo.Message) *platform.Message {
	out := &platform.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
	if m.Author != nil {
		out.AuthorID = m.Author.ID
		out.AuthorName = m.Author.Username
	}
	for _, att := range m.Attachments {
		out.Attachments = append(out.Attachments, platform.Attachment{
			ID:   att.ID,
			Name: att.Filename,
			URL:  att.URL,
			Size: int64(att.Size),
		})
	}
	return out
}

// mapError wraps the discord error, translating "unknown channel" REST
// errors into the sentinel the orchestrator checks for.
func mapError(err error, action string) error {
	restErr := new(discordgo.RESTError)
	if errors.As(err, &restErr) && restErr.Message != nil &&
		restErr.Message.Code == discordgo.ErrCodeUnknownChannel {
		return fmt.Errorf("%s: %w", action, platform.ErrUnknownChannel)
	}
	return fmt.Errorf("%s: %w", action, err)
}
