// Package platform defines the thread/channel contract the ticket system
// consumes from the hosting chat platform. The discord subpackage provides
// the production implementation; tests use in-memory fakes.
package platform

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrUnknownChannel is returned when a referenced channel or thread no
// longer resolves. The orchestrator uses it to detect orphaned tickets.
var ErrUnknownChannel = errors.New("platform: unknown channel")

// ChannelKind classifies a channel for the few distinctions the ticket
// system cares about.
type ChannelKind int

const (
	KindText ChannelKind = iota
	KindCategory
	KindForum
	KindThread
	KindOther
)

// Channel is a channel or thread reference.
type Channel struct {
	ID       string
	ParentID string
	Name     string
	Kind     ChannelKind
}

// Attachment is a file attached to a message.
type Attachment struct {
	ID   string
	Name string
	URL  string
	Size int64
}

// Message is one message of a conversation.
type Message struct {
	ID          string
	ChannelID   string
	AuthorID    string
	AuthorName  string
	Content     string
	Timestamp   time.Time
	Attachments []Attachment
}

// File is an upload payload.
type File struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// Tag is a categorization label on a forum channel.
type Tag struct {
	ID   string
	Name string
}

// Platform is the set of channel, thread, message and tag operations the
// ticket system performs against the hosting platform.
type Platform interface {
	// Channel resolves a channel or thread by ID. It returns
	// ErrUnknownChannel when the ID no longer resolves.
	Channel(ctx context.Context, id string) (*Channel, error)

	// ThreadCreate starts a private thread under the channel.
	ThreadCreate(ctx context.Context, channelID, name string) (*Channel, error)

	// ThreadMemberAdd adds the user to the thread.
	ThreadMemberAdd(ctx context.Context, threadID, userID string) error

	// SendMessage posts plain content and returns the new message's ID.
	SendMessage(ctx context.Context, channelID, content string) (string, error)

	// SendFiles posts content with file attachments and returns the new
	// message's ID.
	SendFiles(ctx context.Context, channelID, content string, files []*File) (string, error)

	// EditMessage replaces the content of a message.
	EditMessage(ctx context.Context, channelID, messageID, content string) error

	// DisableMessageControls disables any interactive controls still
	// attached to the message, leaving its content intact.
	DisableMessageControls(ctx context.Context, channelID, messageID string) error

	// MessagesBefore returns up to limit messages older than beforeID,
	// newest first. An empty beforeID starts from the end of the channel.
	MessagesBefore(ctx context.Context, channelID, beforeID string, limit int) ([]*Message, error)

	// ForumThreadStart opens a forum post with the given applied tags and
	// returns the new thread and the ID of its starter message.
	ForumThreadStart(ctx context.Context, forumID, name, content string, tagIDs []string) (threadID, starterMessageID string, err error)

	// ForumTags lists the tags available on the forum channel.
	ForumTags(ctx context.Context, forumID string) ([]Tag, error)

	// UpdateForumTags replaces the forum's tag list and returns the
	// resulting tags, with platform-assigned IDs filled in.
	UpdateForumTags(ctx context.Context, forumID string, tags []Tag) ([]Tag, error)

	// DeleteChannel deletes a channel or thread.
	DeleteChannel(ctx context.Context, id string) error

	// LockAndArchiveThread locks and archives a thread. Used as the
	// fallback when deletion fails.
	LockAndArchiveThread(ctx context.Context, threadID string) error
}
