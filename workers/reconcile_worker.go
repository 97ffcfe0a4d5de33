package workers

import (
	"context"
	"time"

	"battlepass-backend/services"

	"github.com/sirupsen/logrus"
)

// ReconcileWorker drives the matching engine on a single cooperative
// loop: one full pass over every unfinalized battlepass, then re-arm.
// The next tick is scheduled only after the current pass returns, so
// two passes can never overlap.
type ReconcileWorker struct {
	matcher  *services.MatchingService
	log      *logrus.Logger
	interval time.Duration
}

func NewReconcileWorker(matcher *services.MatchingService, log *logrus.Logger, interval time.Duration) *ReconcileWorker {
	if interval <= 0 {
		interval = 1 * time.Minute
	}
	return &ReconcileWorker{
		matcher:  matcher,
		log:      log,
		interval: interval,
	}
}

func (w *ReconcileWorker) Run(ctx context.Context) {
	w.log.Infof("🔁 starting quest reconciliation loop (every %s)", w.interval)
	for {
		w.matcher.RunPass(ctx)
		select {
		case <-ctx.Done():
			w.log.Info("⏹️ quest reconciliation loop stopped")
			return
		case <-time.After(w.interval):
		}
	}
}
