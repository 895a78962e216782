package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"learning-progress-system/models"
	"learning-progress-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newGamificationApp(t *testing.T) (*fiber.App, *gorm.DB, *services.ChallengeService) {
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

	points := services.NewPointsService(db, nil, services.WeekModeCalendar)
	challenges := services.NewChallengeService(db, points, services.WeekModeCalendar)
	badges := services.NewBadgeService(db, points, challenges)

	app := fiber.New()
	SetupGamificationRoutes(app, badges, challenges, points)
	return app, db, challenges
}

func postJSON(t *testing.T, app *fiber.App, userID, path string, payload interface{}) int {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", userID)

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestAdminGrantAdvancesXPChallenges(t *testing.T) {
	app, db, challenges := newGamificationApp(t)

	require.NoError(t, challenges.CreateChallenge(&models.Challenge{
		ChallengeType: models.ChallengeWeekly,
		Title:         "Point Hunter",
		TriggerType:   models.TriggerXPEarned,
		Target:        500,
		RewardXP:      250,
		ExpiresAt:     time.Now().Add(24 * time.Hour),
	}))
	require.NoError(t, challenges.EnsureActiveChallenges("member-1"))

	status := postJSON(t, app, "admin-1", "/s/admin/points/grant", fiber.Map{
		"user_id": "member-1",
		"points":  60,
		"reason":  "beta tester",
	})
	assert.Equal(t, fiber.StatusOK, status)

	var p models.Profile
	require.NoError(t, db.Where("id = ?", "member-1").First(&p).Error)
	assert.Equal(t, int64(60), p.Points)

	var uc models.UserChallenge
	require.NoError(t, db.Where("user_id = ?", "member-1").First(&uc).Error)
	assert.Equal(t, int64(60), uc.CurrentProgress)
	assert.False(t, uc.Completed)
}

func TestQuizRouteStoresScore(t *testing.T) {
	app, db, _ := newGamificationApp(t)

	status := postJSON(t, app, "user-1", "/s/language/Python/quiz", fiber.Map{
		"passed": true,
		"score":  92,
	})
	assert.Equal(t, fiber.StatusOK, status)

	var lp models.UserLanguageProgress
	require.NoError(t, db.Where("user_id = ? AND language_id = ?", "user-1", "Python").First(&lp).Error)
	assert.True(t, lp.QuizCompleted)
	assert.Equal(t, int64(92), lp.QuizScore)
}

func TestSecuredRoutesRequireUserHeader(t *testing.T) {
	app, _, _ := newGamificationApp(t)

	req := httptest.NewRequest("GET", "/s/user/points", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
