// workers/profile_sync_worker.go
package workers

import (
	"context"
	"log"
	"time"

	"learning-progress-system/models"
	"learning-progress-system/services"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileSyncWorker mirrors the profile service's users into the local
// profiles table. It only ever writes identity columns — points belong to
// this service and are never overwritten by a sync.
type ProfileSyncWorker struct {
	db       *gorm.DB
	client   *services.ProfileServiceClient
	interval time.Duration
}

func NewProfileSyncWorker(db *gorm.DB, client *services.ProfileServiceClient) *ProfileSyncWorker {
	return &ProfileSyncWorker{
		db:       db,
		client:   client,
		interval: 1 * time.Minute,
	}
}

func (w *ProfileSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Profile Sync Worker (profile-service → profiles)…")
	go w.run(ctx)
}

func (w *ProfileSyncWorker) run(ctx context.Context) {
	// Initial backfill from the beginning of time
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial profile sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.syncBatch(ctx, w.getLastSyncTime()); err != nil {
				log.Printf("❌ Profile sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Profile Sync Worker stopped")
			return
		}
	}
}

// getLastSyncTime finds the most recent UpdatedAt in the local mirror.
func (w *ProfileSyncWorker) getLastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw("SELECT MAX(updated_at) FROM profiles WHERE deleted_at IS NULL").Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0)
	}
	return lastTime
}

func (w *ProfileSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	remotes, err := w.client.FetchChangedProfiles(ctx, since)
	if err != nil {
		return err
	}
	if len(remotes) == 0 {
		return nil
	}

	var upserted, failed int
	for _, r := range remotes {
		local := models.Profile{
			ID:       r.ID,
			Username: r.Username,
			Email:    r.Email,
		}
		// Points deliberately excluded from the update set
		if err := w.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "email", "updated_at"}),
		}).Create(&local).Error; err != nil {
			failed++
			log.Printf("[SYNC] ⚠️ Failed to upsert profile (id=%q, username=%q): %v", r.ID, r.Username, err)
		} else {
			upserted++
		}
	}

	log.Printf("[SYNC] ✅ Synced %d profile(s) (%d upserted, %d errors) since %s",
		len(remotes), upserted, failed, since.UTC().Format(time.RFC3339))
	return nil
}
