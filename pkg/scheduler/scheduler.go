package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shutterdesk/shutterdesk/internal/service"
)

// Scheduler periodically queues payment reminders for bookings with money
// still owed ahead of their session date.
type Scheduler struct {
	bookingService service.BookingService
	interval       time.Duration
}

func NewScheduler(bookingService service.BookingService, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		bookingService: bookingService,
		interval:       interval,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logrus.Info("Payment reminder scheduler started")

	for {
		select {
		case <-ticker.C:
			if err := s.bookingService.QueuePaymentReminders(ctx); err != nil {
				logrus.Errorf("Failed to queue payment reminders: %v", err)
			}
		case <-ctx.Done():
			logrus.Info("Payment reminder scheduler stopped")
			return
		}
	}
}
