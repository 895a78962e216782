// services/scheduler.go
package services

import (
	"log"
	"time"

	"learning-progress-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartChallengeScheduler keeps the challenge catalog alive: once the
// current daily/weekly definitions expire, the next sweep reseeds them so
// EnsureActiveChallenges always finds a window to instantiate.
func (s *ChallengeService) StartChallengeScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every hour: roll the catalog over and report stale instances
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			now := time.Now()
			defs, err := s.activeCatalog(now)
			if err != nil {
				log.Printf("[Scheduler] challenge catalog refresh failed: %v", err)
				return
			}

			var stale int64
			if err := s.DB.Model(&models.UserChallenge{}).
				Where("expires_at <= ? AND completed = ?", now, false).
				Count(&stale).Error; err != nil {
				log.Printf("[Scheduler] stale instance count failed: %v", err)
				return
			}

			log.Printf("✅ [Scheduler] %d challenge definitions active, %d expired incomplete instances awaiting regeneration",
				len(defs), stale)
		}),
	)
}
