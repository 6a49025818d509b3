// Package tags keeps the ticket taxonomy on a log forum consistent and
// duplicate-free.
package tags

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/vixenbot/vixen/pkg/logging"
	"github.com/vixenbot/vixen/pkg/platform"
)

// Taxonomy names. Ticket log posts are labelled with exactly these.
const (
	TagInfo       = "info"
	TagInProgress = "in-progress"
	TagResolved   = "resolved"
)

// taxonomy is the full fixed tag set, in display order.
var taxonomy = []string{TagInfo, TagInProgress, TagResolved}

// legacyNames maps retired tag names to their current name. A tag found
// under a legacy name is renamed in place rather than duplicated.
var legacyNames = map[string]string{
	"in progress": TagInProgress,
	"open":        TagInfo,
	"done":        TagResolved,
}

// Reconciler ensures the taxonomy exists on a forum channel.
type Reconciler struct {
	// l is the logger.
	l *slog.Logger

	// p is the hosting platform.
	p platform.Platform
}

// NewReconciler creates a reconciler.
func NewReconciler(l *slog.Logger, p platform.Platform) *Reconciler {
	return &Reconciler{
		l: l.With(slog.String(logging.KeyComponent, "tags")),
		p: p,
	}
}

// Ensure converges the forum's tags on the taxonomy and returns the tag IDs
// keyed by taxonomy name. Matching is case-insensitive and tolerant of a
// decorative prefix; legacy names are renamed in place. Repeat invocations
// on a converged forum issue no mutating calls.
func (r *Reconciler) Ensure(ctx context.Context, forumID string) (map[string]string, error) {
	existing, err := r.p.ForumTags(ctx, forumID)
	if err != nil {
		return nil, fmt.Errorf("listing forum tags: %w", err)
	}

	dirty := false
	for _, want := range taxonomy {
		idx := findTag(existing, want)
		if idx >= 0 {
			continue
		}

		// A legacy-named tag is renamed, anything else is appended.
		if idx = findLegacyTag(existing, want); idx >= 0 {
			r.l.Info("Renaming legacy tag",
				slog.String("from", existing[idx].Name),
				slog.String("to", want),
			)
			existing[idx].Name = want
		} else {
			existing = append(existing, platform.Tag{Name: want})
		}
		dirty = true
	}

	if dirty {
		existing, err = r.p.UpdateForumTags(ctx, forumID, existing)
		if err != nil {
			return nil, fmt.Errorf("updating forum tags: %w", err)
		}
	}

	ids := make(map[string]string, len(taxonomy))
	for _, want := range taxonomy {
		if idx := findTag(existing, want); idx >= 0 {
			ids[want] = existing[idx].ID
		}
	}
	return ids, nil
}

// findTag returns the index of the tag matching the taxonomy name, or -1.
func findTag(tags []platform.Tag, name string) int {
	for i, t := range tags {
		if normalize(t.Name) == name {
			return i
		}
	}
	return -1
}

// findLegacyTag returns the index of a tag whose legacy name maps to the
// taxonomy name, or -1.
func findLegacyTag(tags []platform.Tag, name string) int {
	for i, t := range tags {
		if legacyNames[normalize(t.Name)] == name {
			return i
		}
	}
	return -1
}

// normalize lowercases the tag name and strips an optional decorative
// prefix (anything before the first letter or digit, e.g. an emoji and its
// separating space).
func normalize(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	start := strings.IndexFunc(name, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	})
	if start < 0 {
		return name
	}
	return name[start:]
}
