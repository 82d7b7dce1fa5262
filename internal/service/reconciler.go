package service

import (
	"time"

	"github.com/shutterdesk/shutterdesk/internal/entity"
)

// PaymentKind discriminates the two reconciliation paths carried in checkout
// metadata: a deposit always targets the reserved "Deposit" milestone, a
// milestone payment targets the milestone with the matching id.
type PaymentKind string

const (
	PaymentKindDeposit   PaymentKind = "deposit"
	PaymentKindMilestone PaymentKind = "milestone"
)

// CheckoutEvent is the reconciler's view of a verified
// checkout.session.completed notification.
type CheckoutEvent struct {
	BookingID       string
	Kind            PaymentKind
	MilestoneID     string
	BaseAmount      float64
	AmountPaid      float64
	SessionID       string
	PaymentIntentID string
}

// ReconcileResult is the deterministic outcome of applying a checkout event
// to a booking: the patch to persist plus the notifications to enqueue after
// the patch has been committed.
type ReconcileResult struct {
	Patch          entity.PaymentPatch
	TotalPaid      float64
	IsFinalPayment bool

	NotifyClientPaymentSuccess bool
	NotifyOwnerDepositPaid     bool
	NotifyOwnerFinalPayment    bool
}

// Reconcile computes the next payment state of a booking for a checkout
// event. It is a pure function: same booking, event and clock yield the same
// result, and replaying an event against the already-updated booking is a
// no-op on milestone state (paid_at is set exactly once).
func Reconcile(booking *entity.Booking, ev *CheckoutEvent, now time.Time) *ReconcileResult {
	updated := make(entity.Milestones, len(booking.PaymentMilestones))
	copy(updated, booking.PaymentMilestones)

	for i := range updated {
		if !targetsMilestone(ev, &updated[i]) {
			continue
		}
		if updated[i].Status == entity.MilestoneStatusPaid {
			// Replay of an already-settled payment: leave paid_at and the
			// session reference untouched.
			continue
		}
		paidAt := now
		updated[i].Status = entity.MilestoneStatusPaid
		updated[i].PaidAt = &paidAt
		updated[i].StripeCheckoutSessionID = ev.SessionID
	}

	totalPaid := updated.TotalPaid()

	// Bookings created before milestone-based deposit tracking carry the
	// deposit only as a standalone column. Count it exactly once, and never
	// when a "Deposit" milestone exists in the schedule.
	if (ev.Kind == PaymentKindDeposit || booking.PaymentStatus == entity.PaymentStatusDepositPaid) &&
		!updated.HasDeposit() {
		totalPaid += booking.EffectiveDeposit()
	}

	isFinal := totalPaid >= booking.TotalPrice

	paymentStatus := booking.PaymentStatus
	status := booking.Status

	switch ev.Kind {
	case PaymentKindDeposit:
		// A deposit never completes a booking, even when it covers the full
		// price.
		paymentStatus = entity.PaymentStatusDepositPaid
		status = entity.BookingStatusActive
	default:
		if isFinal {
			paymentStatus = entity.PaymentStatusPaid
			status = entity.BookingStatusCompleted
		} else if totalPaid > 0 {
			paymentStatus = entity.PaymentStatusPartial
		}
	}

	res := &ReconcileResult{
		Patch: entity.PaymentPatch{
			PaymentMilestones:     updated,
			PaymentStatus:         paymentStatus,
			Status:                status,
			StripePaymentIntentID: ev.PaymentIntentID,
		},
		TotalPaid:      totalPaid,
		IsFinalPayment: isFinal,
	}

	if isFinal {
		res.NotifyClientPaymentSuccess = true
	}
	if ev.Kind == PaymentKindDeposit && paymentStatus == entity.PaymentStatusDepositPaid {
		res.NotifyOwnerDepositPaid = true
	} else if isFinal {
		res.NotifyOwnerFinalPayment = true
	}

	return res
}

func targetsMilestone(ev *CheckoutEvent, m *entity.Milestone) bool {
	if ev.Kind == PaymentKindDeposit {
		return m.Name == entity.DepositMilestoneName
	}
	return ev.MilestoneID != "" && m.ID == ev.MilestoneID
}
