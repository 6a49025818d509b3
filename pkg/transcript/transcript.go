// Package transcript renders bounded plain-text transcripts of ticket
// threads and collects their attachments under size, count and time
// budgets.
package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/vixenbot/vixen/pkg/logging"
	"github.com/vixenbot/vixen/pkg/platform"
	"golang.org/x/time/rate"
)

// fetchBatchSize is the fixed page size used when walking a thread's
// history backwards.
const fetchBatchSize = 100

// emptyTranscriptLine is rendered when a conversation has no messages.
const emptyTranscriptLine = "(no messages)\n"

// Service fetches conversations and turns them into an archive payload.
type Service struct {
	// l is the logger.
	l *slog.Logger

	// p is the hosting platform.
	p platform.Platform

	// client performs attachment downloads.
	client httpDoer

	// limiter paces attachment downloads so a large ticket does not
	// hammer the CDN.
	limiter *rate.Limiter
}

// httpDoer is the slice of http.Client the downloader needs.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewService creates a transcript service.
func NewService(l *slog.Logger, p platform.Platform) *Service {
	return &Service{
		l:       l.With(slog.String(logging.KeyComponent, "transcript")),
		p:       p,
		client:  http.DefaultClient,
		limiter: rate.NewLimiter(rate.Limit(5), 5),
	}
}

// FetchMessages pages backwards through the thread in fixed batches until
// maxCount messages are collected or the conversation is exhausted. The
// result is sorted chronologically.
func (s *Service) FetchMessages(ctx context.Context, threadID string, maxCount int) ([]*platform.Message, error) {
	var out []*platform.Message
	before := ""

	for len(out) < maxCount {
		limit := fetchBatchSize
		if remaining := maxCount - len(out); remaining < limit {
			limit = remaining
		}

		batch, err := s.p.MessagesBefore(ctx, threadID, before, limit)
		if err != nil {
			return nil, fmt.Errorf("fetching messages: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		out = append(out, batch...)

		// Batches come back newest first; the last entry is the oldest
		// seen so far and anchors the next page.
		before = batch[len(batch)-1].ID
		if len(batch) < limit {
			break
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// BuildTranscript renders one line per message and stops before any line
// would push the accumulated size past maxChars. The output is
// deterministic for identical input, and an empty conversation yields a
// placeholder line.
func BuildTranscript(messages []*platform.Message, maxChars int) string {
	if len(messages) == 0 {
		return emptyTranscriptLine
	}

	var b strings.Builder
	for _, m := range messages {
		line := renderLine(m)
		if b.Len()+len(line) > maxChars {
			break
		}
		b.WriteString(line)
	}

	if b.Len() == 0 {
		return emptyTranscriptLine
	}
	return b.String()
}

func renderLine(m *platform.Message) string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(m.Timestamp.UTC().Format("2006-01-02 15:04:05"))
	b.WriteString("] ")

	author := m.AuthorName
	if author == "" {
		author = m.AuthorID
	}
	b.WriteString(author)
	b.WriteString(": ")
	b.WriteString(strings.ReplaceAll(m.Content, "\n", `\n`))

	for _, att := range m.Attachments {
		b.WriteString(" ")
		b.WriteString(att.URL)
	}
	b.WriteString("\n")
	return b.String()
}
