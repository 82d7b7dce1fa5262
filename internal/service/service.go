package service

import (
	"context"
	"time"

	"github.com/shutterdesk/shutterdesk/internal/entity"
)

// BookingService covers the photographer-facing booking lifecycle.
type BookingService interface {
	// Basic operations
	CreateBooking(ctx context.Context, req *CreateBookingRequest) (*entity.Booking, error)
	GetBooking(ctx context.Context, id string) (*entity.Booking, error)
	GetAllBookings(ctx context.Context) ([]*entity.Booking, error)
	GetClientBookings(ctx context.Context, clientID string) ([]*entity.Booking, error)
	UpdateBooking(ctx context.Context, id string, req *UpdateBookingRequest) (*entity.Booking, error)
	DeleteBooking(ctx context.Context, id string) error

	// Lifecycle operations
	SendProposal(ctx context.Context, bookingID string) error
	GetBookingStats(ctx context.Context) (*entity.BookingStats, error)

	// Background operations
	QueuePaymentReminders(ctx context.Context) error
	QueueProposalFollowUps(ctx context.Context) error
}

// ClientService covers the photographer's client book.
type ClientService interface {
	CreateClient(ctx context.Context, req *CreateClientRequest) (*entity.Client, error)
	GetClient(ctx context.Context, id string) (*entity.Client, error)
	GetClientByEmail(ctx context.Context, email string) (*entity.Client, error)
	GetAllClients(ctx context.Context) ([]*entity.Client, error)
	UpdateClient(ctx context.Context, id string, req *UpdateClientRequest) (*entity.Client, error)
	DeleteClient(ctx context.Context, id string) error
}

// PaymentService creates checkout sessions for the client portal and
// reconciles completed ones reported by the payment provider.
type PaymentService interface {
	CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSessionInfo, error)
	HandleCheckoutCompleted(ctx context.Context, ev *CheckoutEvent) error
}

// TaskPublisher is the post-commit outbox: notification work is enqueued
// here and delivered by the queue consumer, never inline.
type TaskPublisher interface {
	Publish(ctx context.Context, task *Task) error
}

// Task represents a queued unit of work.
type Task struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	ExecuteAt  time.Time              `json:"execute_at"`
	MaxRetries int                    `json:"max_retries"`
	Attempts   int                    `json:"attempts"`
}

// Task type constants
const (
	TaskTypeSendNotification = "send_notification"
	TaskTypePaymentReminder  = "payment_reminder"
	TaskTypeProposalFollowUp = "proposal_follow_up"
)

// Notification subtypes carried in send_notification task data.
const (
	NotificationPaymentSuccess = "payment_success"
	NotificationDepositPaid    = "deposit_paid"
	NotificationFinalPayment   = "final_payment"
	NotificationProposalSent   = "proposal_sent"
)
