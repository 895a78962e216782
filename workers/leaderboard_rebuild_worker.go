package workers

import (
	"context"
	"log"
	"time"

	"learning-progress-system/models"
	"learning-progress-system/services"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// PollLeaderboard periodically re-mirrors the authoritative profile point
// totals into the global redis leaderboard set, healing a flushed or
// restarted redis. Weekly sets are credit-fed only and are not rebuilt here.
func PollLeaderboard(ctx context.Context, db *gorm.DB, rdb *redis.Client, pollInterval time.Duration) {
	if rdb == nil {
		log.Println("Leaderboard rebuild worker disabled (no redis configured)")
		return
	}
	log.Println("Starting leaderboard rebuild polling…")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Leaderboard rebuild polling stopped.")
			return
		case <-ticker.C:
			var profiles []models.Profile
			if err := db.Where("points > 0").Find(&profiles).Error; err != nil {
				log.Printf("❌ Leaderboard rebuild query failed: %v", err)
				continue
			}
			if len(profiles) == 0 {
				continue
			}

			pipe := rdb.Pipeline()
			for _, p := range profiles {
				pipe.ZAdd(ctx, services.GlobalLeaderboardKey, redis.Z{
					Score:  float64(p.Points),
					Member: p.ID,
				})
			}
			if _, err := pipe.Exec(ctx); err != nil {
				log.Printf("❌ Leaderboard rebuild pipeline failed: %v", err)
				continue
			}
			log.Printf("✅ Rebuilt global leaderboard mirror (%d entries)", len(profiles))
		}
	}
}
