package tags

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vixenbot/vixen/pkg/logging"
	"github.com/vixenbot/vixen/pkg/platform"
)

// forumFake holds a forum's tag list and counts mutating calls.
type forumFake struct {
	platform.Platform

	tags    []platform.Tag
	nextID  int
	updates int
}

func (f *forumFake) ForumTags(_ context.Context, _ string) ([]platform.Tag, error) {
	out := make([]platform.Tag, len(f.tags))
	copy(out, f.tags)
	return out, nil
}

func (f *forumFake) UpdateForumTags(_ context.Context, _ string, tags []platform.Tag) ([]platform.Tag, error) {
	f.updates++
	for i := range tags {
		if tags[i].ID == "" {
			f.nextID++
			tags[i].ID = fmt.Sprintf("tag-%d", f.nextID)
		}
	}
	f.tags = make([]platform.Tag, len(tags))
	copy(f.tags, tags)
	return tags, nil
}

func newTestReconciler(t *testing.T, fake *forumFake) *Reconciler {
	t.Helper()

	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	return NewReconciler(l, fake)
}

func TestEnsure_CreatesMissingTags(t *testing.T) {
	fake := new(forumFake)
	r := newTestReconciler(t, fake)

	ids, err := r.Ensure(context.Background(), "forum-1")
	require.NoError(t, err)
	require.Equal(t, 1, fake.updates)
	require.Len(t, fake.tags, 3)
	require.Len(t, ids, 3)
	require.NotEmpty(t, ids[TagInfo])
	require.NotEmpty(t, ids[TagInProgress])
	require.NotEmpty(t, ids[TagResolved])
}

func TestEnsure_Idempotent(t *testing.T) {
	fake := new(forumFake)
	r := newTestReconciler(t, fake)

	first, err := r.Ensure(context.Background(), "forum-1")
	require.NoError(t, err)
	require.Equal(t, 1, fake.updates)

	// A second run on a converged forum performs zero mutating calls.
	second, err := r.Ensure(context.Background(), "forum-1")
	require.NoError(t, err)
	require.Equal(t, 1, fake.updates, "converged reconciliation must not mutate")
	require.Equal(t, first, second)
	require.Len(t, fake.tags, 3, "no duplicate tags")
}

func TestEnsure_MatchingTolerance(t *testing.T) {
	tests := []struct {
		name     string
		existing []platform.Tag
	}{
		{
			name: "CaseInsensitive",
			existing: []platform.Tag{
				{ID: "t1", Name: "Info"},
				{ID: "t2", Name: "In-Progress"},
				{ID: "t3", Name: "RESOLVED"},
			},
		},
		{
			name: "DecorativePrefix",
			existing: []platform.Tag{
				{ID: "t1", Name: "\U0001F4CC info"},
				{ID: "t2", Name: "\U0001F6E0 in-progress"},
				{ID: "t3", Name: "✅ resolved"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &forumFake{tags: tt.existing}
			r := newTestReconciler(t, fake)

			ids, err := r.Ensure(context.Background(), "forum-1")
			require.NoError(t, err)
			require.Zero(t, fake.updates, "existing tags must be recognized, not recreated")
			require.Equal(t, "t1", ids[TagInfo])
			require.Equal(t, "t2", ids[TagInProgress])
			require.Equal(t, "t3", ids[TagResolved])
		})
	}
}

func TestEnsure_RenamesLegacyTag(t *testing.T) {
	fake := &forumFake{tags: []platform.Tag{
		{ID: "t1", Name: "info"},
		{ID: "t2", Name: "In Progress"},
		{ID: "t3", Name: "resolved"},
	}}
	r := newTestReconciler(t, fake)

	ids, err := r.Ensure(context.Background(), "forum-1")
	require.NoError(t, err)
	require.Equal(t, 1, fake.updates)
	require.Len(t, fake.tags, 3, "legacy tag renamed in place, not duplicated")
	require.Equal(t, "t2", ids[TagInProgress], "renamed tag keeps its ID")

	// Converged after the rename.
	_, err = r.Ensure(context.Background(), "forum-1")
	require.NoError(t, err)
	require.Equal(t, 1, fake.updates)
}
