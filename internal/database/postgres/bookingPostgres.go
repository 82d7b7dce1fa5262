package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shutterdesk/shutterdesk/internal/entity"
)

type bookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) BookingRepository {
	return &bookingRepository{db: db}
}

const bookingColumns = `
	id, client_id, title, session_date, total_price, deposit_amount,
	payment_status, status, payment_milestones, stripe_payment_intent_id,
	version, created_at, updated_at
`

func scanBooking(row interface{ Scan(...interface{}) error }) (*entity.Booking, error) {
	var booking entity.Booking
	var deposit sql.NullFloat64

	err := row.Scan(
		&booking.ID,
		&booking.ClientID,
		&booking.Title,
		&booking.SessionDate,
		&booking.TotalPrice,
		&deposit,
		&booking.PaymentStatus,
		&booking.Status,
		&booking.PaymentMilestones,
		&booking.StripePaymentIntentID,
		&booking.Version,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if deposit.Valid {
		booking.DepositAmount = &deposit.Float64
	}

	// Legacy status aliases are normalized here so the service layer only
	// sees the canonical set.
	booking.Status = entity.NormalizeBookingStatus(booking.Status)

	return &booking, nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (
			id, client_id, title, session_date, total_price, deposit_amount,
			payment_status, status, payment_milestones, stripe_payment_intent_id,
			version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	now := time.Now()

	var deposit interface{}
	if booking.DepositAmount != nil {
		deposit = *booking.DepositAmount
	}

	_, err := r.db.ExecContext(ctx, query,
		booking.ID,
		booking.ClientID,
		booking.Title,
		booking.SessionDate,
		booking.TotalPrice,
		deposit,
		booking.PaymentStatus,
		booking.Status,
		booking.PaymentMilestones,
		booking.StripePaymentIntentID,
		booking.Version,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return booking, nil
}

func (r *bookingRepository) Update(ctx context.Context, booking *entity.Booking) error {
	query := `
		UPDATE bookings
		SET client_id = $1, title = $2, session_date = $3, total_price = $4,
		    deposit_amount = $5, payment_milestones = $6, updated_at = $7
		WHERE id = $8
	`

	var deposit interface{}
	if booking.DepositAmount != nil {
		deposit = *booking.DepositAmount
	}

	result, err := r.db.ExecContext(ctx, query,
		booking.ClientID,
		booking.Title,
		booking.SessionDate,
		booking.TotalPrice,
		deposit,
		booking.PaymentMilestones,
		time.Now(),
		booking.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrBookingNotFound
	}

	booking.UpdatedAt = time.Now()
	return nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id string, status entity.BookingStatus) error {
	query := `UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrBookingNotFound
	}

	return nil
}

// UpdatePayment writes the full reconciled payment state in one statement.
// The WHERE clause on version makes the read-modify-write safe against a
// concurrent webhook delivery for the same booking.
func (r *bookingRepository) UpdatePayment(ctx context.Context, id string, version int64, patch *entity.PaymentPatch) error {
	query := `
		UPDATE bookings
		SET payment_milestones = $1, payment_status = $2, status = $3,
		    stripe_payment_intent_id = $4, version = version + 1, updated_at = $5
		WHERE id = $6 AND version = $7
	`

	result, err := r.db.ExecContext(ctx, query,
		patch.PaymentMilestones,
		patch.PaymentStatus,
		patch.Status,
		patch.StripePaymentIntentID,
		time.Now(),
		id,
		version,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking payment state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Zero rows means either the booking vanished or someone else bumped
		// the version between our read and this write.
		var exists bool
		checkErr := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists)
		if checkErr != nil {
			return fmt.Errorf("failed to check booking existence: %w", checkErr)
		}
		if !exists {
			return entity.ErrBookingNotFound
		}
		return entity.ErrConcurrentUpdate
	}

	return nil
}

func (r *bookingRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM bookings WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrBookingNotFound
	}

	return nil
}

func (r *bookingRepository) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*entity.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}

	return bookings, nil
}

func (r *bookingRepository) GetAll(ctx context.Context) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC`
	return r.queryBookings(ctx, query)
}

func (r *bookingRepository) GetByClientID(ctx context.Context, clientID string) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE client_id = $1 ORDER BY created_at DESC`
	return r.queryBookings(ctx, query, clientID)
}

func (r *bookingRepository) GetByStatus(ctx context.Context, status entity.BookingStatus) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = $1 ORDER BY created_at DESC`
	return r.queryBookings(ctx, query, status)
}

// GetStats aggregates the dashboard numbers for the photographer.
func (r *bookingRepository) GetStats(ctx context.Context) (*entity.BookingStats, error) {
	query := `
		SELECT
			COUNT(*) AS total_bookings,
			COALESCE(SUM(CASE WHEN status = 'draft' THEN 1 ELSE 0 END), 0) AS draft_bookings,
			COALESCE(SUM(CASE WHEN status = 'Inquiry' THEN 1 ELSE 0 END), 0) AS inquiry_bookings,
			COALESCE(SUM(CASE WHEN status IN ('PROPOSAL_SENT', 'contract_sent', 'Sent') THEN 1 ELSE 0 END), 0) AS proposals_sent,
			COALESCE(SUM(CASE WHEN status = 'Active' THEN 1 ELSE 0 END), 0) AS active_bookings,
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) AS completed_bookings,
			COALESCE(SUM(total_price), 0) AS total_booked
		FROM bookings
	`

	var stats entity.BookingStats
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalBookings,
		&stats.DraftBookings,
		&stats.InquiryBookings,
		&stats.ProposalsSent,
		&stats.ActiveBookings,
		&stats.CompletedBookings,
		&stats.TotalBooked,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	// Collected revenue lives inside the milestone schedule.
	query = `
		SELECT COALESCE(SUM((m->>'amount')::numeric), 0)
		FROM bookings b, jsonb_array_elements(b.payment_milestones) m
		WHERE m->>'status' = 'paid'
	`
	if err := r.db.QueryRowContext(ctx, query).Scan(&stats.TotalCollected); err != nil {
		return nil, fmt.Errorf("failed to get collected revenue: %w", err)
	}

	stats.Outstanding = stats.TotalBooked - stats.TotalCollected
	return &stats, nil
}

// GetUnpaidActive returns active bookings that still have money owed; the
// reminder scheduler decides per milestone whether a notification is due.
func (r *bookingRepository) GetUnpaidActive(ctx context.Context) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'Active'
		  AND payment_status IN ('PENDING_DEPOSIT', 'DEPOSIT_PAID', 'partial', 'pending')
		ORDER BY session_date ASC
	`
	return r.queryBookings(ctx, query)
}

func (r *bookingRepository) GetStaleProposals(ctx context.Context, before time.Time) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status IN ('PROPOSAL_SENT', 'contract_sent', 'Sent')
		  AND updated_at < $1
		ORDER BY updated_at ASC
	`
	return r.queryBookings(ctx, query, before)
}
