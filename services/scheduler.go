// services/scheduler.go
package services

import (
	"time"

	"battlepass-backend/models"

	"github.com/go-co-op/gocron/v2"
)

// StartSeasonScheduler closes battlepasses whose season window has
// lapsed. Closing only flips state; the terminal reconciliation pass
// that finalizes the season happens in the matching loop.
func (s *BattlepassService) StartSeasonScheduler(seasonLength time.Duration) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: close seasons past their window
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			cutoff := time.Now().UTC().Add(-seasonLength)
			var passes []models.Battlepass
			err := s.DB.Where("active = ? AND start_date <= ?", true, cutoff).
				Find(&passes).Error
			if err != nil {
				s.Log.Errorf("[Scheduler] DB error: %v", err)
				return
			}

			for _, bp := range passes {
				if err := s.CloseBattlepass(bp.ID); err != nil {
					s.Log.Errorf("[Scheduler] failed to close battlepass %s: %v", bp.ChainID, err)
				} else {
					s.Log.Infof("✅ season ended for battlepass %s", bp.ChainID)
				}
			}
		}),
	)
}
