package entity

import (
	"time"
)

type BookingStatus string

const (
	BookingStatusDraft        BookingStatus = "draft"
	BookingStatusInquiry      BookingStatus = "Inquiry"
	BookingStatusProposalSent BookingStatus = "PROPOSAL_SENT"
	BookingStatusActive       BookingStatus = "Active"
	BookingStatusCompleted    BookingStatus = "completed"
)

// Legacy aliases still present in rows written by earlier releases.
const (
	legacyStatusContractSent BookingStatus = "contract_sent"
	legacyStatusSent         BookingStatus = "Sent"
)

// NormalizeBookingStatus maps legacy proposal aliases onto the canonical
// status. Applied at the repository boundary so the rest of the code only
// ever sees the closed set of statuses.
func NormalizeBookingStatus(s BookingStatus) BookingStatus {
	switch s {
	case legacyStatusContractSent, legacyStatusSent:
		return BookingStatusProposalSent
	default:
		return s
	}
}

type PaymentStatus string

const (
	PaymentStatusPendingDeposit PaymentStatus = "PENDING_DEPOSIT"
	PaymentStatusDepositPaid    PaymentStatus = "DEPOSIT_PAID"
	PaymentStatusPartial        PaymentStatus = "partial"
	PaymentStatusPaid           PaymentStatus = "paid"
	PaymentStatusPending        PaymentStatus = "pending"
)

type Booking struct {
	ID                    string        `json:"id" db:"id"`
	ClientID              string        `json:"client_id" db:"client_id"`
	Title                 string        `json:"title" db:"title"`
	SessionDate           time.Time     `json:"session_date" db:"session_date"`
	TotalPrice            float64       `json:"total_price" db:"total_price"`
	DepositAmount         *float64      `json:"deposit_amount" db:"deposit_amount"`
	PaymentStatus         PaymentStatus `json:"payment_status" db:"payment_status"`
	Status                BookingStatus `json:"status" db:"status"`
	PaymentMilestones     Milestones    `json:"payment_milestones" db:"payment_milestones"`
	StripePaymentIntentID string        `json:"stripe_payment_intent_id" db:"stripe_payment_intent_id"`
	Version               int64         `json:"version" db:"version"`
	CreatedAt             time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at" db:"updated_at"`
}

const defaultDepositFraction = 0.20

// EffectiveDeposit returns the standalone deposit amount, defaulting to 20%
// of the total price when no explicit deposit was set.
func (b *Booking) EffectiveDeposit() float64 {
	if b.DepositAmount != nil {
		return *b.DepositAmount
	}
	return b.TotalPrice * defaultDepositFraction
}

// PaymentPatch is the booking slice the reconciler is allowed to write.
// It is persisted atomically as a single update keyed by booking id.
type PaymentPatch struct {
	PaymentMilestones     Milestones
	PaymentStatus         PaymentStatus
	Status                BookingStatus
	StripePaymentIntentID string
}
