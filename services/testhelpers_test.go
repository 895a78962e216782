package services

import (
	"testing"

	"learning-progress-system/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB returns a migrated in-memory database. The pool is capped at one
// connection so every goroutine shares the same in-memory store and writes
// serialize at the pool.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.UserActivity{},
		&models.UserMetrics{},
		&models.UserLanguageProgress{},
		&models.Badge{},
		&models.UserBadge{},
		&models.UserGamification{},
		&models.Challenge{},
		&models.UserChallenge{},
		&models.UserSkillProgress{},
		&models.Profile{},
	))
	return db
}

func newTestPoints(db *gorm.DB) *PointsService {
	return NewPointsService(db, nil, WeekModeCalendar)
}
