package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"learning-progress-system/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MasteryBadgePoints is credited once per "<Language> Mastery" award.
const MasteryBadgePoints = 100

type BadgeService struct {
	DB         *gorm.DB
	Points     *PointsService
	Challenges *ChallengeService
}

func NewBadgeService(db *gorm.DB, points *PointsService, challenges *ChallengeService) *BadgeService {
	return &BadgeService{DB: db, Points: points, Challenges: challenges}
}

// TrackSummaryRead latches summary_read for the language, then re-checks
// mastery eligibility.
func (s *BadgeService) TrackSummaryRead(userID, language string) error {
	if err := s.setLanguageFlag(userID, language, "summary_read"); err != nil {
		return err
	}
	return s.maybeAwardMastery(userID, language)
}

// TrackQuizCompletion latches quiz_completed when the quiz was passed and
// keeps the best passing score. A failed attempt still ensures the progress
// row exists but flips nothing and stores no score.
func (s *BadgeService) TrackQuizCompletion(userID, language string, passed bool, score int64) error {
	if !passed {
		return s.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "language_id"}},
			DoNothing: true,
		}).Create(&models.UserLanguageProgress{
			ID:         uuid.NewString(),
			UserID:     userID,
			LanguageID: language,
		}).Error
	}
	if err := s.setLanguageFlag(userID, language, "quiz_completed"); err != nil {
		return err
	}
	if score > 0 {
		if err := s.DB.Model(&models.UserLanguageProgress{}).
			Where("user_id = ? AND language_id = ? AND quiz_score < ?", userID, language, score).
			Update("quiz_score", score).Error; err != nil {
			return err
		}
	}
	return s.maybeAwardMastery(userID, language)
}

// setLanguageFlag upserts one false→true transition on the per-language row.
func (s *BadgeService) setLanguageFlag(userID, language, column string) error {
	row := models.UserLanguageProgress{
		ID:         uuid.NewString(),
		UserID:     userID,
		LanguageID: language,
	}
	switch column {
	case "summary_read":
		row.SummaryRead = true
	case "quiz_completed":
		row.QuizCompleted = true
	default:
		return fmt.Errorf("badge: unknown language flag %q", column)
	}

	return s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "language_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			column:         true,
			"last_updated": time.Now(),
		}),
	}).Create(&row).Error
}

// maybeAwardMastery awards "<Language> Mastery" when both flags are set.
// The user_badges insert is the exactly-once gate: only the insert that
// actually creates the row credits points. A replay (insert hits the unique
// index) re-latches badge_earned and the badge-name list but never
// re-credits.
func (s *BadgeService) maybeAwardMastery(userID, language string) error {
	var lp models.UserLanguageProgress
	if err := s.DB.Where("user_id = ? AND language_id = ?", userID, language).
		First(&lp).Error; err != nil {
		return err
	}
	if !lp.SummaryRead || !lp.QuizCompleted || lp.BadgeEarned {
		return nil
	}

	badge, err := s.ensureBadge(language)
	if err != nil {
		return err
	}

	res := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
		DoNothing: true,
	}).Create(&models.UserBadge{
		ID:      uuid.NewString(),
		UserID:  userID,
		BadgeID: badge.ID,
	})
	if res.Error != nil {
		return res.Error
	}
	won := res.RowsAffected > 0

	if err := s.DB.Model(&models.UserLanguageProgress{}).
		Where("id = ?", lp.ID).
		Update("badge_earned", true).Error; err != nil {
		log.Printf("⚠️ [BADGE] failed to latch badge_earned for %s/%s: %v", userID, language, err)
	}

	if won {
		if err := s.Points.Credit(userID, badge.Points, "badge:"+badge.Name); err != nil {
			return fmt.Errorf("badge credit: %w", err)
		}
		log.Printf("🎖️ Badge awarded: %s → %s (+%d pts)", badge.Name, userID, badge.Points)
		if s.Challenges != nil {
			if err := s.Challenges.UpdateProgress(userID, models.TriggerXPEarned, badge.Points); err != nil {
				log.Printf("⚠️ [BADGE] xp_earned challenge trigger failed for %s: %v", userID, err)
			}
		}
	}

	return s.appendBadgeName(userID, badge.Name)
}

// ensureBadge lazily creates the catalog row for the language.
func (s *BadgeService) ensureBadge(language string) (*models.Badge, error) {
	name := language + " Mastery"

	var b models.Badge
	err := s.DB.Where("name = ?", name).First(&b).Error
	if err == nil {
		return &b, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	b = models.Badge{
		ID:          uuid.NewString(),
		Name:        name,
		Description: fmt.Sprintf("Read the %s summary and passed its quiz", language),
		Icon:        slug.Make(name),
		Points:      MasteryBadgePoints,
	}
	if err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&b).Error; err != nil {
		return nil, err
	}

	// Re-read so a concurrent creator's row wins.
	if err := s.DB.Where("name = ?", name).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// appendBadgeName keeps the denormalized gamification badge list in sync.
// Idempotent: the name is appended only when missing. The write is a
// compare-and-swap on the previously read list, retried on contention, so
// concurrent awards for the same user never drop each other's name.
func (s *BadgeService) appendBadgeName(userID, name string) error {
	for attempt := 0; attempt < 5; attempt++ {
		var g models.UserGamification
		err := s.DB.Where("user_id = ?", userID).First(&g).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			g = models.UserGamification{
				ID:     uuid.NewString(),
				UserID: userID,
				Badges: datatypes.JSON([]byte("[]")),
			}
			if err := s.DB.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}},
				DoNothing: true,
			}).Create(&g).Error; err != nil {
				return err
			}
			if err := s.DB.Where("user_id = ?", userID).First(&g).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		var names []string
		if len(g.Badges) > 0 {
			if err := json.Unmarshal(g.Badges, &names); err != nil {
				names = nil
			}
		}
		for _, n := range names {
			if n == name {
				return nil
			}
		}
		names = append(names, name)

		buf, err := json.Marshal(names)
		if err != nil {
			return err
		}

		q := s.DB.Model(&models.UserGamification{}).Where("user_id = ?", userID)
		if len(g.Badges) == 0 {
			q = q.Where("(badges IS NULL OR badges = ?)", "[]")
		} else {
			q = q.Where("badges = ?", string(g.Badges))
		}
		res := q.Update("badges", datatypes.JSON(buf))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		// Lost the swap to a concurrent writer; re-read and retry.
	}
	return fmt.Errorf("badge: badge list contended for %s", userID)
}

// UserBadgeView is the joined shape served to the UI.
type UserBadgeView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Points      int64     `json:"points"`
	EarnedAt    time.Time `json:"earned_at"`
}

// ListUserBadges returns every badge the user earned, newest first.
func (s *BadgeService) ListUserBadges(userID string) ([]UserBadgeView, error) {
	var views []UserBadgeView
	err := s.DB.Raw(`
		SELECT ub.id, b.name, b.description, b.icon, b.points, ub.earned_at
		FROM user_badges ub
		INNER JOIN badges b ON b.id = ub.badge_id
		WHERE ub.user_id = ?
		ORDER BY ub.earned_at DESC
	`, userID).Scan(&views).Error
	return views, err
}

// LanguageProgress returns the per-language milestone row, or nil when the
// user hasn't touched the language yet.
func (s *BadgeService) LanguageProgress(userID, language string) (*models.UserLanguageProgress, error) {
	var lp models.UserLanguageProgress
	if err := s.DB.Where("user_id = ? AND language_id = ?", userID, language).
		First(&lp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &lp, nil
}
