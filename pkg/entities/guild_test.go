package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestGuildTicketConfig_JSONLayout(t *testing.T) {
	t.Parallel()

	cfg := NewGuildTicketConfig()
	cfg.SupportRoleID = "role-1"
	cfg.Panels["en"] = &PanelConfig{
		CategoryID:     "cat-1",
		ChannelID:      "chan-1",
		LogChannelID:   "log-1",
		PanelMessageID: "msg-1",
	}
	cfg.PutTicket("thread-1", &TicketRecord{
		OwnerID:   "user-1",
		Lang:      "en",
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Subject:   "help",
	})

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	// The panel must be a sibling of supportRoleId, not nested under a
	// panels key.
	raw := make(map[string]json.RawMessage)
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "supportRoleId")
	require.Contains(t, raw, "en")
	require.Contains(t, raw, "openTickets")
	require.Contains(t, raw, "ticketsByThread")
	require.NotContains(t, raw, "panels")

	got := new(GuildTicketConfig)
	require.NoError(t, json.Unmarshal(data, got))
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestGuildTicketConfig_MarshalRejectsReservedLanguage(t *testing.T) {
	t.Parallel()

	cfg := NewGuildTicketConfig()
	cfg.Panels["openTickets"] = new(PanelConfig)

	_, err := json.Marshal(cfg)
	require.Error(t, err)
}

func TestGuildTicketConfig_UnmarshalDefaultsMaps(t *testing.T) {
	t.Parallel()

	got := new(GuildTicketConfig)
	require.NoError(t, json.Unmarshal([]byte(`{"supportRoleId":"role-1"}`), got))
	require.Equal(t, "role-1", got.SupportRoleID)
	require.NotNil(t, got.OpenTickets)
	require.NotNil(t, got.TicketsByThread)
	require.NotNil(t, got.Panels)
}

func TestGuildTicketConfig_TicketIndex(t *testing.T) {
	t.Parallel()

	cfg := NewGuildTicketConfig()
	rec := &TicketRecord{OwnerID: "user-1", Lang: "en"}
	cfg.PutTicket("thread-1", rec)

	require.Equal(t, "thread-1", cfg.OpenThreadID("en", "user-1"))
	require.Equal(t, "", cfg.OpenThreadID("de", "user-1"))

	cfg.RemoveTicket("thread-1")
	require.Equal(t, "", cfg.OpenThreadID("en", "user-1"))
	require.Empty(t, cfg.TicketsByThread)

	// Removing an unknown thread is a no-op.
	cfg.RemoveTicket("thread-404")
}

func TestTicketRecord_Accept(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)

	rec := new(TicketRecord)

	first := rec.Accept("staff-1", now)
	require.True(t, first)
	require.NotNil(t, rec.AcceptedAt)
	require.Equal(t, now, *rec.AcceptedAt)

	// A second acceptance extends the list but not the timestamp.
	first = rec.Accept("staff-2", later)
	require.False(t, first)
	require.Equal(t, now, *rec.AcceptedAt)
	require.Equal(t, []string{"staff-1", "staff-2"}, rec.AcceptedByIDs)

	// Re-acceptance by the same user changes nothing.
	first = rec.Accept("staff-1", later)
	require.False(t, first)
	require.Equal(t, []string{"staff-1", "staff-2"}, rec.AcceptedByIDs)
}
