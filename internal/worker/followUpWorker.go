package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shutterdesk/shutterdesk/internal/service"
)

// ProposalFollowUpWorker watches for proposals that have sat unanswered
// past the follow-up window and queues a nudge for each one.
type ProposalFollowUpWorker struct {
	bookingService service.BookingService
	interval       time.Duration
}

func NewProposalFollowUpWorker(bookingService service.BookingService, interval time.Duration) *ProposalFollowUpWorker {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &ProposalFollowUpWorker{
		bookingService: bookingService,
		interval:       interval,
	}
}

func (w *ProposalFollowUpWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.Info("Proposal follow-up worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Proposal follow-up worker stopped")
			return
		case <-ticker.C:
			w.checkStaleProposals(ctx)
		}
	}
}

func (w *ProposalFollowUpWorker) checkStaleProposals(ctx context.Context) {
	logrus.Debug("Checking for stale proposals")

	if err := w.bookingService.QueueProposalFollowUps(ctx); err != nil {
		logrus.Errorf("Failed to queue proposal follow-ups: %v", err)
	}
}

// GetStats returns worker metadata for the health endpoint
func (w *ProposalFollowUpWorker) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"worker_type": "proposal_follow_up",
		"interval":    w.interval.String(),
		"status":      "running",
	}
}
