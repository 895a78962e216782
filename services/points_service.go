package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"learning-progress-system/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Redis leaderboard keys. The global set mirrors profiles.points and is
// rebuilt by the leaderboard worker; weekly/day sets accumulate credits as
// they happen and expire on their own.
const (
	GlobalLeaderboardKey = "leaderboard:global"
	weekKeyPrefix        = "leaderboard:week:"
	dayKeyPrefix         = "leaderboard:day:"
)

const (
	WeekModeCalendar = "calendar"
	WeekModeRolling  = "rolling"
)

// PointsService is the single write path for every point ledger: Profile
// points, the UserGamification total and the redis leaderboard sets all move
// through Credit and nowhere else.
type PointsService struct {
	DB       *gorm.DB
	RDB      *redis.Client // optional; nil disables the redis read views
	WeekMode string        // WeekModeCalendar or WeekModeRolling
}

func NewPointsService(db *gorm.DB, rdb *redis.Client, weekMode string) *PointsService {
	if weekMode != WeekModeRolling {
		weekMode = WeekModeCalendar
	}
	return &PointsService{DB: db, RDB: rdb, WeekMode: weekMode}
}

// EnsureProfile creates the local profile mirror row if it doesn't exist yet
// (the sync worker fills in username/email later).
func (s *PointsService) EnsureProfile(userID string) error {
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&models.Profile{ID: userID}).Error
}

// Credit adds points to the user's ledgers. Both SQL writes are additive
// column expressions, so concurrent credits never lose updates.
func (s *PointsService) Credit(userID string, points int64, reason string) error {
	if points <= 0 {
		return nil
	}
	if err := s.EnsureProfile(userID); err != nil {
		return err
	}

	now := time.Now()
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Profile{}).
			Where("id = ?", userID).
			UpdateColumn("points", gorm.Expr("points + ?", points)).Error; err != nil {
			return err
		}

		row := models.UserGamification{
			ID:           uuid.NewString(),
			UserID:       userID,
			Points:       points,
			Badges:       datatypes.JSON([]byte("[]")),
			LastPlayedAt: &now,
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"points":         gorm.Expr("points + ?", points),
				"last_played_at": now,
				"updated_at":     now,
			}),
		}).Create(&row).Error
	})
	if err != nil {
		return err
	}

	s.bumpLeaderboards(userID, points, now)
	log.Printf("💠 Points credited: %s +%d (%s)", userID, points, reason)
	return nil
}

// bumpLeaderboards feeds the redis read views. Best effort: a redis failure
// is logged and never fails the credit.
func (s *PointsService) bumpLeaderboards(userID string, points int64, now time.Time) {
	if s.RDB == nil {
		return
	}
	ctx := context.Background()
	pipe := s.RDB.Pipeline()
	pipe.ZIncrBy(ctx, GlobalLeaderboardKey, float64(points), userID)
	pipe.ZIncrBy(ctx, weekKey(now), float64(points), userID)
	pipe.Expire(ctx, weekKey(now), 14*24*time.Hour)
	pipe.ZIncrBy(ctx, dayKey(now), float64(points), userID)
	pipe.Expire(ctx, dayKey(now), 8*24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("⚠️ [POINTS] redis leaderboard update failed for %s: %v", userID, err)
	}
}

// PointsSummary is what the UI shows on the profile header.
type PointsSummary struct {
	UserID string `json:"user_id"`
	Points int64  `json:"points"`
	Rank   int64  `json:"rank"`
}

// GetPoints reads the authoritative profile ledger and computes rank as
// 1 + count(profiles with strictly more points); equal totals share a rank.
func (s *PointsService) GetPoints(userID string) (*PointsSummary, error) {
	var p models.Profile
	if err := s.DB.Where("id = ?", userID).First(&p).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if err := s.EnsureProfile(userID); err != nil {
			return nil, err
		}
		p = models.Profile{ID: userID}
	}

	var higher int64
	if err := s.DB.Model(&models.Profile{}).
		Where("points > ?", p.Points).
		Count(&higher).Error; err != nil {
		return nil, err
	}

	return &PointsSummary{UserID: userID, Points: p.Points, Rank: higher + 1}, nil
}

// LeaderboardRow is one entry of a leaderboard read.
type LeaderboardRow struct {
	Rank     int64  `json:"rank"`
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	Points   int64  `json:"points"`
}

// Leaderboard returns the top entries for scope "global" or "weekly".
// Global prefers the redis mirror and falls back to a profiles scan; weekly
// reads the per-window sets and, without redis, degrades to the global scan.
func (s *PointsService) Leaderboard(scope string, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	switch scope {
	case "weekly":
		if s.RDB == nil {
			log.Println("⚠️ [POINTS] weekly leaderboard requested without redis — serving global standings")
			return s.leaderboardFromSQL(limit)
		}
		return s.leaderboardFromRedis(s.weeklyKey(time.Now()), limit)
	case "", "global":
		if s.RDB != nil {
			rows, err := s.leaderboardFromRedis(GlobalLeaderboardKey, limit)
			if err == nil && len(rows) > 0 {
				return rows, nil
			}
			if err != nil {
				log.Printf("⚠️ [POINTS] redis leaderboard read failed, falling back to SQL: %v", err)
			}
		}
		return s.leaderboardFromSQL(limit)
	default:
		return nil, fmt.Errorf("leaderboard: unknown scope %q", scope)
	}
}

// weeklyKey resolves the window per configuration: one calendar-week set, or
// a transient union of the last seven day sets in rolling mode.
func (s *PointsService) weeklyKey(now time.Time) string {
	if s.WeekMode != WeekModeRolling {
		return weekKey(now)
	}

	ctx := context.Background()
	keys := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		keys = append(keys, dayKey(now.AddDate(0, 0, -i)))
	}
	dest := "leaderboard:rolling7d"
	if err := s.RDB.ZUnionStore(ctx, dest, &redis.ZStore{Keys: keys}).Err(); err != nil {
		log.Printf("⚠️ [POINTS] rolling window union failed: %v", err)
	}
	s.RDB.Expire(ctx, dest, 5*time.Minute)
	return dest
}

func (s *PointsService) leaderboardFromRedis(key string, limit int) ([]LeaderboardRow, error) {
	ctx := context.Background()
	entries, err := s.RDB.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.Member.(string))
	}
	names := map[string]string{}
	if len(ids) > 0 {
		var profiles []models.Profile
		if err := s.DB.Where("id IN ?", ids).Find(&profiles).Error; err != nil {
			return nil, err
		}
		for _, p := range profiles {
			names[p.ID] = p.Username
		}
	}

	rows := make([]LeaderboardRow, 0, len(entries))
	for i, e := range entries {
		id := e.Member.(string)
		rows = append(rows, LeaderboardRow{
			Rank:     int64(i + 1),
			UserID:   id,
			Username: names[id],
			Points:   int64(e.Score),
		})
	}
	return rows, nil
}

func (s *PointsService) leaderboardFromSQL(limit int) ([]LeaderboardRow, error) {
	var profiles []models.Profile
	if err := s.DB.Order("points DESC").Limit(limit).Find(&profiles).Error; err != nil {
		return nil, err
	}

	rows := make([]LeaderboardRow, 0, len(profiles))
	for i, p := range profiles {
		rows = append(rows, LeaderboardRow{
			Rank:     int64(i + 1),
			UserID:   p.ID,
			Username: p.Username,
			Points:   p.Points,
		})
	}
	return rows, nil
}

func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%s%d-W%02d", weekKeyPrefix, year, week)
}

func dayKey(t time.Time) string {
	return dayKeyPrefix + t.Format("2006-01-02")
}
