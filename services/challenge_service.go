package services

import (
	"log"
	"time"

	"learning-progress-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChallengeService struct {
	DB       *gorm.DB
	Points   *PointsService
	WeekMode string // WeekModeCalendar or WeekModeRolling
}

func NewChallengeService(db *gorm.DB, points *PointsService, weekMode string) *ChallengeService {
	if weekMode != WeekModeRolling {
		weekMode = WeekModeCalendar
	}
	return &ChallengeService{DB: db, Points: points, WeekMode: weekMode}
}

// EnsureActiveChallenges instantiates the current catalog for the user when
// no unexpired instance exists. Expired incomplete instances are left in
// place — regeneration supersedes, never deletes.
func (s *ChallengeService) EnsureActiveChallenges(userID string) error {
	now := time.Now()

	var active int64
	if err := s.DB.Model(&models.UserChallenge{}).
		Where("user_id = ? AND expires_at > ?", userID, now).
		Count(&active).Error; err != nil {
		return err
	}
	if active > 0 {
		return nil
	}

	defs, err := s.activeCatalog(now)
	if err != nil {
		return err
	}

	for _, d := range defs {
		uc := models.UserChallenge{
			ID:          uuid.NewString(),
			UserID:      userID,
			ChallengeID: d.ID,
			Target:      d.Target,
			ExpiresAt:   d.ExpiresAt,
		}
		if err := s.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "challenge_id"}},
			DoNothing: true,
		}).Create(&uc).Error; err != nil {
			return err
		}
	}
	return nil
}

// UpdateProgress advances every active, incomplete instance matching the
// trigger. The increment is an additive column expression and completion is
// a single conditional update, so the reward credit fires exactly once even
// under concurrent triggers. Challenge rewards do not feed xp_earned
// challenges themselves.
func (s *ChallengeService) UpdateProgress(userID string, trigger models.ChallengeTrigger, amount int64) error {
	if amount <= 0 {
		return nil
	}
	now := time.Now()

	var instances []models.UserChallenge
	if err := s.DB.Preload("Challenge").
		Joins("JOIN challenges ON challenges.id = user_challenges.challenge_id").
		Where("user_challenges.user_id = ? AND user_challenges.completed = ? AND user_challenges.expires_at > ? AND challenges.trigger_type = ?",
			userID, false, now, trigger).
		Find(&instances).Error; err != nil {
		return err
	}

	step := amount
	if trigger != models.TriggerXPEarned {
		step = 1
	}

	for _, uc := range instances {
		if err := s.DB.Model(&models.UserChallenge{}).
			Where("id = ? AND completed = ?", uc.ID, false).
			UpdateColumn("current_progress", gorm.Expr("current_progress + ?", step)).Error; err != nil {
			return err
		}

		res := s.DB.Model(&models.UserChallenge{}).
			Where("id = ? AND completed = ? AND current_progress >= target", uc.ID, false).
			Update("completed", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			continue
		}

		if err := s.Points.Credit(userID, uc.Challenge.RewardXP, "challenge:"+uc.Challenge.Title); err != nil {
			log.Printf("⚠️ [CHALLENGE] reward credit failed for %s (%s): %v", userID, uc.Challenge.Title, err)
			continue
		}
		log.Printf("🏁 Challenge completed: %s → %s (+%d XP)", uc.Challenge.Title, userID, uc.Challenge.RewardXP)
	}
	return nil
}

// GetUserChallenges returns the user's current window, generating it first
// when needed.
func (s *ChallengeService) GetUserChallenges(userID string) ([]models.UserChallenge, error) {
	if err := s.EnsureActiveChallenges(userID); err != nil {
		return nil, err
	}

	var instances []models.UserChallenge
	err := s.DB.Preload("Challenge").
		Where("user_id = ? AND expires_at > ?", userID, time.Now()).
		Order("expires_at ASC").
		Find(&instances).Error
	return instances, err
}

// CreateChallenge adds a catalog definition (admin surface).
func (s *ChallengeService) CreateChallenge(def *models.Challenge) error {
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	return s.DB.Create(def).Error
}

// activeCatalog returns the unexpired definitions, seeding the default set
// when the window has lapsed entirely.
func (s *ChallengeService) activeCatalog(now time.Time) ([]models.Challenge, error) {
	var defs []models.Challenge
	if err := s.DB.Where("expires_at > ?", now).Find(&defs).Error; err != nil {
		return nil, err
	}
	if len(defs) > 0 {
		return defs, nil
	}

	if err := s.seedCatalog(now); err != nil {
		return nil, err
	}
	err := s.DB.Where("expires_at > ?", now).Find(&defs).Error
	return defs, err
}

func (s *ChallengeService) seedCatalog(now time.Time) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Challenge{}).
			Where("expires_at > ?", now).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		day := endOfDay(now)
		week := s.endOfWeek(now)
		defs := []models.Challenge{
			{ID: uuid.NewString(), ChallengeType: models.ChallengeDaily, Title: "Daily Learner",
				TriggerType: models.TriggerLessonCompleted, Target: 5, RewardXP: 50, ExpiresAt: day},
			{ID: uuid.NewString(), ChallengeType: models.ChallengeDaily, Title: "Exercise Sprint",
				TriggerType: models.TriggerExerciseCompleted, Target: 3, RewardXP: 75, ExpiresAt: day},
			{ID: uuid.NewString(), ChallengeType: models.ChallengeWeekly, Title: "Weekly Grind",
				TriggerType: models.TriggerExerciseCompleted, Target: 20, RewardXP: 300, ExpiresAt: week},
			{ID: uuid.NewString(), ChallengeType: models.ChallengeWeekly, Title: "Point Hunter",
				TriggerType: models.TriggerXPEarned, Target: 500, RewardXP: 250, ExpiresAt: week},
		}
		if err := tx.Create(&defs).Error; err != nil {
			return err
		}

		log.Printf("🗓️ Seeded %d challenge definitions (daily until %s, weekly until %s)",
			len(defs), day.Format(time.RFC3339), week.Format(time.RFC3339))
		return nil
	})
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
}

// endOfWeek honors CHALLENGE_WEEK_MODE: calendar weeks end Monday 00:00,
// rolling windows run a flat seven days from now.
func (s *ChallengeService) endOfWeek(t time.Time) time.Time {
	if s.WeekMode == WeekModeRolling {
		return t.Add(7 * 24 * time.Hour)
	}
	y, m, d := t.Date()
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	monday := time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, -daysSinceMonday)
	return monday.AddDate(0, 0, 7)
}
