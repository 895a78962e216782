package services

import (
	"testing"

	"learning-progress-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditMovesBothLedgers(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPoints(db)

	require.NoError(t, svc.Credit("user-1", 30, "test"))
	require.NoError(t, svc.Credit("user-1", 20, "test"))

	var p models.Profile
	require.NoError(t, db.Where("id = ?", "user-1").First(&p).Error)
	assert.Equal(t, int64(50), p.Points)

	var g models.UserGamification
	require.NoError(t, db.Where("user_id = ?", "user-1").First(&g).Error)
	assert.Equal(t, int64(50), g.Points)
	require.NotNil(t, g.LastPlayedAt)
}

func TestCreditNonPositiveIsNoop(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPoints(db)

	require.NoError(t, svc.Credit("user-1", 0, "test"))
	require.NoError(t, svc.Credit("user-1", -5, "test"))

	var count int64
	require.NoError(t, db.Model(&models.Profile{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRankSharedOnTies(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPoints(db)

	require.NoError(t, svc.Credit("alice", 300, "test"))
	require.NoError(t, svc.Credit("bob", 200, "test"))
	require.NoError(t, svc.Credit("carol", 200, "test"))
	require.NoError(t, svc.Credit("dave", 100, "test"))

	expect := map[string]struct{ points, rank int64 }{
		"alice": {300, 1},
		"bob":   {200, 2},
		"carol": {200, 2},
		"dave":  {100, 4},
	}
	for user, want := range expect {
		summary, err := svc.GetPoints(user)
		require.NoError(t, err)
		assert.Equal(t, want.points, summary.Points, user)
		assert.Equal(t, want.rank, summary.Rank, user)
	}
}

func TestGetPointsUnknownUserStartsAtZero(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPoints(db)

	require.NoError(t, svc.Credit("alice", 10, "test"))

	summary, err := svc.GetPoints("newcomer")
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.Points)
	assert.Equal(t, int64(2), summary.Rank)
}

func TestLeaderboardGlobalFromSQL(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPoints(db)

	require.NoError(t, svc.Credit("alice", 300, "test"))
	require.NoError(t, svc.Credit("bob", 100, "test"))
	require.NoError(t, svc.Credit("carol", 200, "test"))

	rows, err := svc.Leaderboard("global", 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "alice", rows[0].UserID)
	assert.Equal(t, int64(1), rows[0].Rank)
	assert.Equal(t, "carol", rows[1].UserID)
	assert.Equal(t, int64(2), rows[1].Rank)
}

func TestLeaderboardWeeklyFallsBackWithoutRedis(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPoints(db)

	require.NoError(t, svc.Credit("alice", 50, "test"))

	rows, err := svc.Leaderboard("weekly", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0].UserID)
}

func TestLeaderboardUnknownScope(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPoints(db)

	_, err := svc.Leaderboard("decade", 10)
	assert.Error(t, err)
}
