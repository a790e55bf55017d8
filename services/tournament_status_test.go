package services_test

import (
	"context"
	"testing"
	"time"

	"bgmi-arena/models"
	"bgmi-arena/services"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ist = time.FixedZone("IST", 5*60*60+30*60)

func TestComputeStatus(t *testing.T) {
	start := time.Date(2025, 3, 14, 18, 30, 0, 0, ist)

	tests := []struct {
		name string
		now  time.Time
		want models.TournamentStatus
	}{
		{"one minute before", start.Add(-time.Minute), models.TournamentUpcoming},
		{"at start", start, models.TournamentLive},
		{"one minute after", start.Add(time.Minute), models.TournamentLive},
		{"last second of window", start.Add(services.LiveWindow - time.Second), models.TournamentLive},
		{"window end", start.Add(services.LiveWindow), models.TournamentCompleted},
		{"three hours after", start.Add(3 * time.Hour), models.TournamentCompleted},
		{"previous day", start.Add(-24 * time.Hour), models.TournamentUpcoming},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := services.ComputeStatus(tt.now, "2025-03-14", "18:30")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeStatusUsesCallerLocation(t *testing.T) {
	// 13:00 UTC is 18:30 IST.
	now := time.Date(2025, 3, 14, 13, 1, 0, 0, time.UTC)

	got, err := services.ComputeStatus(now.In(ist), "2025-03-14", "18:30")
	require.NoError(t, err)
	assert.Equal(t, models.TournamentLive, got)

	got, err = services.ComputeStatus(now, "2025-03-14", "18:30")
	require.NoError(t, err)
	assert.Equal(t, models.TournamentUpcoming, got)
}

func TestComputeStatusBadInput(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, tc := range []struct{ date, clock string }{
		{"2025-03-14", ""},
		{"14/03/2025", "18:30"},
		{"2025-03-14", "6pm"},
		{"", ""},
	} {
		got, err := services.ComputeStatus(now, tc.date, tc.clock)
		assert.Error(t, err, "%q %q", tc.date, tc.clock)
		assert.Equal(t, models.TournamentUpcoming, got)
	}
}

func TestRefreshStatuses(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2025, 3, 14, 19, 0, 0, 0, time.UTC)
	env.tournaments.Now = func() time.Time { return now }

	mk := func(date, clock string, status models.TournamentStatus) string {
		tr := env.tournament(t, 10, 0)
		require.NoError(t, env.db.Model(tr).Updates(map[string]any{"date": date, "time": clock, "status": status}).Error)
		return tr.ID
	}
	live := mk("2025-03-14", "18:30", models.TournamentUpcoming)
	done := mk("2025-03-14", "10:00", models.TournamentLive)
	future := mk("2025-03-15", "10:00", models.TournamentUpcoming)
	noTime := mk("2025-03-14", "", models.TournamentUpcoming)

	n, err := env.tournaments.RefreshStatuses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	statusOf := func(id string) models.TournamentStatus {
		var tr models.Tournament
		require.NoError(t, env.db.First(&tr, "id = ?", id).Error)
		return tr.Status
	}
	assert.Equal(t, models.TournamentLive, statusOf(live))
	assert.Equal(t, models.TournamentCompleted, statusOf(done))
	assert.Equal(t, models.TournamentUpcoming, statusOf(future))
	assert.Equal(t, models.TournamentUpcoming, statusOf(noTime))

	n, err = env.tournaments.RefreshStatuses(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "second run has nothing to change")

	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.StatusUpdates))
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.StatusRuns))
}

func TestStatusGatesWalletJoin(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2025, 3, 14, 18, 31, 0, 0, time.UTC)
	env.tournaments.Now = func() time.Time { return now }

	tr := env.tournament(t, 10, 10)
	require.NoError(t, env.db.Model(tr).Updates(map[string]any{"date": "2025-03-14", "time": "18:30"}).Error)
	c := env.contestant(t, 100)

	_, err := env.tournaments.RefreshStatuses(context.Background())
	require.NoError(t, err)

	_, err = env.joins.JoinWithWallet(context.Background(), walletJoin(c.ID, tr.ID))
	assert.Error(t, err)
	assert.Equal(t, int64(100), env.reload(t, c.ID).WalletBalance)
}
