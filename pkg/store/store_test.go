package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vixenbot/vixen/pkg/entities"
	"github.com/vixenbot/vixen/pkg/logging"
)

func newTestRepository(t *testing.T) (Repository, string) {
	t.Helper()

	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	path := filepath.Join(t.TempDir(), "tickets.json")
	r := NewRepository(l, path)
	t.Cleanup(func() {
		require.NoError(t, r.Close())
	})
	return r, path
}

func TestRepository_GetEmpty(t *testing.T) {
	r, _ := newTestRepository(t)

	cfg, err := r.Get(context.Background(), "guild-1")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Empty(t, cfg.OpenTickets)
	require.Empty(t, cfg.TicketsByThread)
}

func TestRepository_UpdatePersists(t *testing.T) {
	r, path := newTestRepository(t)
	ctx := context.Background()

	err := r.Update(ctx, "guild-1", func(cfg *entities.GuildTicketConfig) (*entities.GuildTicketConfig, error) {
		cfg.SupportRoleID = "role-1"
		cfg.Panels["en"] = &entities.PanelConfig{ChannelID: "chan-1", LogChannelID: "log-1"}
		return nil, nil
	})
	require.NoError(t, err)

	// The file on disk reflects the update.
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	doc := new(entities.Document)
	require.NoError(t, json.Unmarshal(data, doc))
	require.Equal(t, 1, doc.Version)
	require.Equal(t, "role-1", doc.Guilds["guild-1"].TicketSystem.SupportRoleID)
	require.Equal(t, "chan-1", doc.Guilds["guild-1"].TicketSystem.Panels["en"].ChannelID)

	// The read path sees the update too (cache was invalidated).
	cfg, err := r.Get(ctx, "guild-1")
	require.NoError(t, err)
	require.Equal(t, "role-1", cfg.SupportRoleID)
}

func TestRepository_ConcurrentUpdatesAreNotLost(t *testing.T) {
	r, _ := newTestRepository(t)
	ctx := context.Background()

	const n = 50

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			err := r.Update(ctx, "guild-1", func(cfg *entities.GuildTicketConfig) (*entities.GuildTicketConfig, error) {
				threadID := fmt.Sprintf("thread-%d", i)
				cfg.PutTicket(threadID, &entities.TicketRecord{
					OwnerID: fmt.Sprintf("user-%d", i),
					Lang:    "en",
				})
				return nil, nil
			})
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	cfg, err := r.Get(ctx, "guild-1")
	require.NoError(t, err)
	require.Len(t, cfg.TicketsByThread, n, "every concurrent update must survive")
	require.Len(t, cfg.OpenTickets, n)
}

func TestRepository_MutatorReplacement(t *testing.T) {
	r, _ := newTestRepository(t)
	ctx := context.Background()

	replacement := entities.NewGuildTicketConfig()
	replacement.SupportRoleID = "replaced"

	err := r.Update(ctx, "guild-1", func(cfg *entities.GuildTicketConfig) (*entities.GuildTicketConfig, error) {
		return replacement, nil
	})
	require.NoError(t, err)

	cfg, err := r.Get(ctx, "guild-1")
	require.NoError(t, err)
	require.Equal(t, "replaced", cfg.SupportRoleID)
}

func TestRepository_MutatorErrorDoesNotPersist(t *testing.T) {
	r, path := newTestRepository(t)
	ctx := context.Background()

	err := r.Update(ctx, "guild-1", func(cfg *entities.GuildTicketConfig) (*entities.GuildTicketConfig, error) {
		cfg.SupportRoleID = "should-not-persist"
		return nil, fmt.Errorf("mutator failed")
	})
	require.Error(t, err)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr), "nothing should have been written")
}

func TestRepository_CorruptFileIsBackedUpAndReset(t *testing.T) {
	r, path := newTestRepository(t)
	ctx := context.Background()

	corrupt := []byte(`{"version": 1, "guilds": {`)
	require.NoError(t, os.WriteFile(path, corrupt, 0o644))

	cfg, err := r.Get(ctx, "guild-1")
	require.NoError(t, err, "corruption must self-heal, not fail")
	require.Empty(t, cfg.TicketsByThread)

	// The original bytes are recoverable under a timestamped backup.
	matches, err := filepath.Glob(path + ".corrupt.*")
	require.NoError(t, err)
	require.Len(t, matches, 1)

	backed, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	require.Equal(t, corrupt, backed)
}

func TestRepository_CloseRejectsFurtherUpdates(t *testing.T) {
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	r := NewRepository(l, filepath.Join(t.TempDir(), "tickets.json"))
	require.NoError(t, r.Close())
	require.NoError(t, r.Close(), "Close is idempotent")

	err = r.Update(context.Background(), "guild-1", func(cfg *entities.GuildTicketConfig) (*entities.GuildTicketConfig, error) {
		return nil, nil
	})
	require.ErrorIs(t, err, ErrClosed)
}
