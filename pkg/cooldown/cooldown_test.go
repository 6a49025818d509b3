package cooldown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTracker_Enforce(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	window := 5 * time.Minute

	tests := []struct {
		name    string
		elapsed time.Duration
		want    time.Duration
	}{
		{
			name:    "ImmediateRetry",
			elapsed: 0,
			want:    window,
		},
		{
			name:    "PartWayThroughWindow",
			elapsed: 2 * time.Minute,
			want:    3 * time.Minute,
		},
		{
			name:    "WindowElapsed",
			elapsed: window,
			want:    0,
		},
		{
			name:    "LongAfterWindow",
			elapsed: time.Hour,
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New()
			now := base
			tr.now = func() time.Time { return now }

			require.Zero(t, tr.Enforce("g1:u1", window), "first attempt is always allowed")

			now = base.Add(tt.elapsed)
			require.Equal(t, tt.want, tr.Enforce("g1:u1", window))
		})
	}
}

func TestTracker_DeniedAttemptDoesNotExtendWindow(t *testing.T) {
	tr := New()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now := base
	tr.now = func() time.Time { return now }

	window := 10 * time.Minute
	require.Zero(t, tr.Enforce("g1:u1", window))

	// A denied attempt part-way through must not refresh the timestamp.
	now = base.Add(4 * time.Minute)
	require.Equal(t, 6*time.Minute, tr.Enforce("g1:u1", window))

	now = base.Add(window)
	require.Zero(t, tr.Enforce("g1:u1", window), "window measured from the allowed attempt")
}

func TestTracker_KeysAreIndependent(t *testing.T) {
	tr := New()
	window := 5 * time.Minute

	require.Zero(t, tr.Enforce("g1:u1", window))
	require.Zero(t, tr.Enforce("g1:u2", window), "other users are unaffected")
	require.Zero(t, tr.Enforce("g2:u1", window), "other guilds are unaffected")
	require.NotZero(t, tr.Enforce("g1:u1", window))
}

func TestTracker_SweepDropsStaleEntries(t *testing.T) {
	tr := New()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now := base
	tr.now = func() time.Time { return now }

	window := 5 * time.Minute
	require.Zero(t, tr.Enforce("stale", window))

	now = base.Add(2*window - time.Second)
	require.Zero(t, tr.Enforce("fresh", window))

	// "stale" is just inside the retention horizon, so both survive.
	tr.sweep(window)
	require.Equal(t, 2, tr.size())

	now = base.Add(2*window + time.Second)
	tr.sweep(window)
	require.Equal(t, 1, tr.size(), "entries older than twice the window are dropped")
}

func TestTracker_StartStopSweep(t *testing.T) {
	tr := New()
	tr.StartSweep(10*time.Millisecond, time.Minute)
	tr.StartSweep(10*time.Millisecond, time.Minute) // no-op

	tr.StopSweep()
	tr.StopSweep() // no-op
}
