package repository

import (
	"context"
	"time"

	"github.com/shutterdesk/shutterdesk/internal/entity"
)

type BookingRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, booking *entity.Booking) error
	GetByID(ctx context.Context, id string) (*entity.Booking, error)
	Update(ctx context.Context, booking *entity.Booking) error
	UpdateStatus(ctx context.Context, id string, status entity.BookingStatus) error
	Delete(ctx context.Context, id string) error

	// UpdatePayment persists the reconciler's patch as a single atomic
	// write. The version argument makes it a compare-and-swap: a concurrent
	// reconciliation bumps the version and the late writer gets
	// entity.ErrConcurrentUpdate instead of silently losing milestones.
	UpdatePayment(ctx context.Context, id string, version int64, patch *entity.PaymentPatch) error

	// Query operations
	GetAll(ctx context.Context) ([]*entity.Booking, error)
	GetByClientID(ctx context.Context, clientID string) ([]*entity.Booking, error)
	GetByStatus(ctx context.Context, status entity.BookingStatus) ([]*entity.Booking, error)

	// Dashboard and background-job queries
	GetStats(ctx context.Context) (*entity.BookingStats, error)
	GetUnpaidActive(ctx context.Context) ([]*entity.Booking, error)
	GetStaleProposals(ctx context.Context, before time.Time) ([]*entity.Booking, error)
}

type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	GetByID(ctx context.Context, id string) (*entity.Client, error)
	GetByEmail(ctx context.Context, email string) (*entity.Client, error)
	GetAll(ctx context.Context) ([]*entity.Client, error)
	Update(ctx context.Context, client *entity.Client) error
	Delete(ctx context.Context, id string) error
}
