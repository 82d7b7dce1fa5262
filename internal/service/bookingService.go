package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	repository "github.com/shutterdesk/shutterdesk/internal/database/postgres"
	"github.com/shutterdesk/shutterdesk/internal/entity"
)

// MilestoneInput is one entry of the payment schedule supplied at booking
// creation.
type MilestoneInput struct {
	Name   string  `json:"name" binding:"required,min=1,max=100"`
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// CreateBookingRequest carries the data for a new booking.
type CreateBookingRequest struct {
	ClientID      string           `json:"client_id" binding:"required,uuid"`
	Title         string           `json:"title" binding:"required,min=2,max=255"`
	SessionDate   time.Time        `json:"session_date" binding:"required"`
	TotalPrice    float64          `json:"total_price" binding:"required,gt=0"`
	DepositAmount *float64         `json:"deposit_amount,omitempty" binding:"omitempty,gt=0"`
	Milestones    []MilestoneInput `json:"milestones,omitempty"`
	AsInquiry     bool             `json:"as_inquiry,omitempty"`
}

// UpdateBookingRequest carries partial booking updates.
type UpdateBookingRequest struct {
	Title         *string    `json:"title,omitempty" binding:"omitempty,min=2,max=255"`
	SessionDate   *time.Time `json:"session_date,omitempty"`
	TotalPrice    *float64   `json:"total_price,omitempty" binding:"omitempty,gt=0"`
	DepositAmount *float64   `json:"deposit_amount,omitempty" binding:"omitempty,gt=0"`
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	clientRepo  repository.ClientRepository
	queue       TaskPublisher
	followUpAge time.Duration
	reminderAge time.Duration
}

// NewBookingService creates a new BookingService instance.
func NewBookingService(
	bookingRepo repository.BookingRepository,
	clientRepo repository.ClientRepository,
	queue TaskPublisher,
	followUpAfterDays int,
	reminderGraceDays int,
) BookingService {
	if followUpAfterDays <= 0 {
		followUpAfterDays = 5
	}
	if reminderGraceDays <= 0 {
		reminderGraceDays = 14
	}
	return &bookingService{
		bookingRepo: bookingRepo,
		clientRepo:  clientRepo,
		queue:       queue,
		followUpAge: time.Duration(followUpAfterDays) * 24 * time.Hour,
		reminderAge: time.Duration(reminderGraceDays) * 24 * time.Hour,
	}
}

// milestoneSumTolerance absorbs float drift when comparing a schedule
// against the booking total.
const milestoneSumTolerance = 0.01

func (s *bookingService) CreateBooking(ctx context.Context, req *CreateBookingRequest) (*entity.Booking, error) {
	if _, err := s.clientRepo.GetByID(ctx, req.ClientID); err != nil {
		return nil, fmt.Errorf("client not found: %w", err)
	}

	milestones := make(entity.Milestones, 0, len(req.Milestones))
	for _, in := range req.Milestones {
		milestones = append(milestones, entity.Milestone{
			ID:     uuid.New().String(),
			Name:   in.Name,
			Amount: in.Amount,
			Status: entity.MilestoneStatusPending,
		})
	}

	// The schedule must cover the price exactly. This is the only place the
	// sum is checked; reconciliation trusts whatever is stored.
	if len(milestones) > 0 {
		diff := milestones.Total() - req.TotalPrice
		if diff > milestoneSumTolerance || diff < -milestoneSumTolerance {
			return nil, entity.ErrMilestoneSumMismatch
		}
	}

	status := entity.BookingStatusDraft
	if req.AsInquiry {
		status = entity.BookingStatusInquiry
	}

	booking := &entity.Booking{
		ID:                uuid.New().String(),
		ClientID:          req.ClientID,
		Title:             req.Title,
		SessionDate:       req.SessionDate,
		TotalPrice:        req.TotalPrice,
		DepositAmount:     req.DepositAmount,
		PaymentStatus:     entity.PaymentStatusPendingDeposit,
		Status:            status,
		PaymentMilestones: milestones,
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"client_id":  booking.ClientID,
		"total":      booking.TotalPrice,
		"milestones": len(milestones),
	}).Info("Booking created")

	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id string) (*entity.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) GetAllBookings(ctx context.Context) ([]*entity.Booking, error) {
	bookings, err := s.bookingRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get all bookings: %w", err)
	}
	return bookings, nil
}

func (s *bookingService) GetClientBookings(ctx context.Context, clientID string) ([]*entity.Booking, error) {
	bookings, err := s.bookingRepo.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get client bookings: %w", err)
	}
	return bookings, nil
}

func (s *bookingService) UpdateBooking(ctx context.Context, id string, req *UpdateBookingRequest) (*entity.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if booking.Status == entity.BookingStatusCompleted {
		return nil, fmt.Errorf("%w: completed bookings cannot be edited", entity.ErrInvalidBookingStatus)
	}

	if req.Title != nil {
		booking.Title = *req.Title
	}
	if req.SessionDate != nil {
		booking.SessionDate = *req.SessionDate
	}
	if req.TotalPrice != nil {
		booking.TotalPrice = *req.TotalPrice
	}
	if req.DepositAmount != nil {
		booking.DepositAmount = req.DepositAmount
	}

	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	return booking, nil
}

func (s *bookingService) DeleteBooking(ctx context.Context, id string) error {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if booking.Status == entity.BookingStatusActive {
		return fmt.Errorf("%w: active bookings cannot be deleted", entity.ErrInvalidBookingStatus)
	}

	if err := s.bookingRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}

	return nil
}

// SendProposal moves a draft or inquiry into PROPOSAL_SENT and queues the
// proposal email carrying the client-portal signing link.
func (s *bookingService) SendProposal(ctx context.Context, bookingID string) error {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}

	switch booking.Status {
	case entity.BookingStatusDraft, entity.BookingStatusInquiry, entity.BookingStatusProposalSent:
		// proposal may be sent or re-sent
	default:
		return fmt.Errorf("%w: cannot send proposal from status %s", entity.ErrInvalidBookingStatus, booking.Status)
	}

	client, err := s.clientRepo.GetByID(ctx, booking.ClientID)
	if err != nil {
		return fmt.Errorf("failed to resolve client: %w", err)
	}

	if err := s.bookingRepo.UpdateStatus(ctx, bookingID, entity.BookingStatusProposalSent); err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	if s.queue != nil {
		task := &Task{
			ID:   fmt.Sprintf("proposal_%s_%d", booking.ID, time.Now().Unix()),
			Type: TaskTypeSendNotification,
			Data: map[string]interface{}{
				"notification_type": NotificationProposalSent,
				"booking_id":        booking.ID,
				"booking_title":     booking.Title,
				"client_email":      client.Email,
				"client_name":       client.Name,
				"total_price":       booking.TotalPrice,
			},
			MaxRetries: 3,
		}
		if err := s.queue.Publish(ctx, task); err != nil {
			logrus.Errorf("Failed to queue proposal notification for booking %s: %v", booking.ID, err)
		}
	}

	return nil
}

func (s *bookingService) GetBookingStats(ctx context.Context) (*entity.BookingStats, error) {
	stats, err := s.bookingRepo.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}
	return stats, nil
}

// QueuePaymentReminders scans active bookings with money still owed and
// queues a reminder for each pending milestone on a booking whose session
// date is inside the reminder window.
func (s *bookingService) QueuePaymentReminders(ctx context.Context) error {
	if s.queue == nil {
		return nil
	}

	bookings, err := s.bookingRepo.GetUnpaidActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to get unpaid active bookings: %w", err)
	}

	cutoff := time.Now().Add(s.reminderAge)
	queued := 0

	for _, booking := range bookings {
		if booking.SessionDate.After(cutoff) {
			continue
		}

		client, err := s.clientRepo.GetByID(ctx, booking.ClientID)
		if err != nil {
			logrus.Warnf("Skipping reminder for booking %s: %v", booking.ID, err)
			continue
		}

		for _, m := range booking.PaymentMilestones {
			if m.Status != entity.MilestoneStatusPending {
				continue
			}
			task := &Task{
				ID:   fmt.Sprintf("reminder_%s_%s", booking.ID, m.ID),
				Type: TaskTypePaymentReminder,
				Data: map[string]interface{}{
					"booking_id":     booking.ID,
					"booking_title":  booking.Title,
					"milestone_id":   m.ID,
					"milestone_name": m.Name,
					"amount":         m.Amount,
					"client_email":   client.Email,
					"client_name":    client.Name,
				},
				MaxRetries: 3,
			}
			if err := s.queue.Publish(ctx, task); err != nil {
				logrus.Errorf("Failed to queue payment reminder for booking %s: %v", booking.ID, err)
				continue
			}
			queued++
		}
	}

	if queued > 0 {
		logrus.Infof("Queued %d payment reminders", queued)
	}
	return nil
}

// QueueProposalFollowUps nudges the photographer about proposals that have
// sat unanswered past the follow-up window.
func (s *bookingService) QueueProposalFollowUps(ctx context.Context) error {
	if s.queue == nil {
		return nil
	}

	before := time.Now().Add(-s.followUpAge)
	bookings, err := s.bookingRepo.GetStaleProposals(ctx, before)
	if err != nil {
		return fmt.Errorf("failed to get stale proposals: %w", err)
	}

	for _, booking := range bookings {
		task := &Task{
			ID:   fmt.Sprintf("followup_%s_%d", booking.ID, time.Now().Unix()),
			Type: TaskTypeProposalFollowUp,
			Data: map[string]interface{}{
				"booking_id":    booking.ID,
				"booking_title": booking.Title,
				"client_id":     booking.ClientID,
				"proposal_age":  time.Since(booking.UpdatedAt).String(),
			},
			MaxRetries: 3,
		}
		if err := s.queue.Publish(ctx, task); err != nil {
			logrus.Errorf("Failed to queue proposal follow-up for booking %s: %v", booking.ID, err)
		}
	}

	return nil
}
