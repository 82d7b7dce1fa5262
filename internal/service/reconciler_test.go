package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shutterdesk/shutterdesk/internal/entity"
)

func floatPtr(v float64) *float64 { return &v }

func testBooking(total float64, deposit *float64, milestones entity.Milestones) *entity.Booking {
	return &entity.Booking{
		ID:                "b-1",
		ClientID:          "c-1",
		Title:             "Wedding Shoot",
		TotalPrice:        total,
		DepositAmount:     deposit,
		PaymentStatus:     entity.PaymentStatusPendingDeposit,
		Status:            entity.BookingStatusProposalSent,
		PaymentMilestones: milestones,
	}
}

func depositEvent() *CheckoutEvent {
	return &CheckoutEvent{
		BookingID:       "b-1",
		Kind:            PaymentKindDeposit,
		AmountPaid:      200,
		SessionID:       "cs_1",
		PaymentIntentID: "pi_1",
	}
}

func milestoneEvent(milestoneID string, amount float64) *CheckoutEvent {
	return &CheckoutEvent{
		BookingID:   "b-1",
		Kind:        PaymentKindMilestone,
		MilestoneID: milestoneID,
		AmountPaid:  amount,
		SessionID:   "cs_2",
	}
}

func TestReconcileDepositWithoutMilestones(t *testing.T) {
	booking := testBooking(1000, floatPtr(200), nil)
	now := time.Now()

	res := Reconcile(booking, depositEvent(), now)

	assert.Equal(t, entity.PaymentStatusDepositPaid, res.Patch.PaymentStatus)
	assert.Equal(t, entity.BookingStatusActive, res.Patch.Status)
	assert.Equal(t, 200.0, res.TotalPaid)
	assert.False(t, res.IsFinalPayment)
	assert.True(t, res.NotifyOwnerDepositPaid)
	assert.False(t, res.NotifyClientPaymentSuccess)
	assert.Equal(t, "pi_1", res.Patch.StripePaymentIntentID)
}

func TestReconcileDepositDefaultsToTwentyPercent(t *testing.T) {
	booking := testBooking(1000, nil, nil)

	res := Reconcile(booking, depositEvent(), time.Now())

	assert.Equal(t, 200.0, res.TotalPaid)
	assert.Equal(t, entity.PaymentStatusDepositPaid, res.Patch.PaymentStatus)
}

func TestReconcileDepositTargetsDepositMilestone(t *testing.T) {
	booking := testBooking(1000, floatPtr(200), entity.Milestones{
		{ID: "m-1", Name: "Deposit", Amount: 300, Status: entity.MilestoneStatusPending},
		{ID: "m-2", Name: "Final", Amount: 700, Status: entity.MilestoneStatusPending},
	})
	now := time.Now()

	res := Reconcile(booking, depositEvent(), now)

	dep := res.Patch.PaymentMilestones.FindByID("m-1")
	require.NotNil(t, dep)
	assert.Equal(t, entity.MilestoneStatusPaid, dep.Status)
	require.NotNil(t, dep.PaidAt)
	assert.Equal(t, "cs_1", dep.StripeCheckoutSessionID)

	// The milestone amount counts, not the standalone deposit column
	assert.Equal(t, 300.0, res.TotalPaid)

	final := res.Patch.PaymentMilestones.FindByID("m-2")
	require.NotNil(t, final)
	assert.Equal(t, entity.MilestoneStatusPending, final.Status)
}

func TestReconcileDepositNeverCompletesBooking(t *testing.T) {
	// Deposit covers the whole price yet the booking stays Active
	booking := testBooking(200, floatPtr(200), nil)

	res := Reconcile(booking, depositEvent(), time.Now())

	assert.True(t, res.IsFinalPayment)
	assert.Equal(t, entity.PaymentStatusDepositPaid, res.Patch.PaymentStatus)
	assert.Equal(t, entity.BookingStatusActive, res.Patch.Status)
}

func TestReconcileMilestonePartialPayment(t *testing.T) {
	booking := testBooking(1000, nil, entity.Milestones{
		{ID: "m-1", Name: "Deposit", Amount: 300, Status: entity.MilestoneStatusPending},
		{ID: "m-2", Name: "Final", Amount: 700, Status: entity.MilestoneStatusPending},
	})
	booking.Status = entity.BookingStatusActive

	res := Reconcile(booking, milestoneEvent("m-1", 300), time.Now())

	assert.Equal(t, 300.0, res.TotalPaid)
	assert.False(t, res.IsFinalPayment)
	assert.Equal(t, entity.PaymentStatusPartial, res.Patch.PaymentStatus)
	// Non-final milestone payments leave the booking status alone
	assert.Equal(t, entity.BookingStatusActive, res.Patch.Status)
	assert.False(t, res.NotifyClientPaymentSuccess)
	assert.False(t, res.NotifyOwnerFinalPayment)
}

func TestReconcileMilestoneFinalPayment(t *testing.T) {
	paidAt := time.Now().Add(-time.Hour)
	booking := testBooking(1000, nil, entity.Milestones{
		{ID: "m-1", Name: "Deposit", Amount: 300, Status: entity.MilestoneStatusPaid, PaidAt: &paidAt},
		{ID: "m-2", Name: "Final", Amount: 700, Status: entity.MilestoneStatusPending},
	})
	booking.Status = entity.BookingStatusActive
	booking.PaymentStatus = entity.PaymentStatusDepositPaid

	res := Reconcile(booking, milestoneEvent("m-2", 700), time.Now())

	assert.Equal(t, 1000.0, res.TotalPaid)
	assert.True(t, res.IsFinalPayment)
	assert.Equal(t, entity.PaymentStatusPaid, res.Patch.PaymentStatus)
	assert.Equal(t, entity.BookingStatusCompleted, res.Patch.Status)
	assert.True(t, res.NotifyClientPaymentSuccess)
	assert.True(t, res.NotifyOwnerFinalPayment)
	assert.False(t, res.NotifyOwnerDepositPaid)
}

func TestReconcileLegacyDepositCountedOnce(t *testing.T) {
	// Booking predates milestone-based deposit tracking: deposit lives only
	// in the standalone column and payment_status is already DEPOSIT_PAID.
	booking := testBooking(1000, floatPtr(200), entity.Milestones{
		{ID: "m-2", Name: "Final", Amount: 800, Status: entity.MilestoneStatusPending},
	})
	booking.PaymentStatus = entity.PaymentStatusDepositPaid
	booking.Status = entity.BookingStatusActive

	res := Reconcile(booking, milestoneEvent("m-2", 800), time.Now())

	// 800 milestone + 200 legacy deposit
	assert.Equal(t, 1000.0, res.TotalPaid)
	assert.True(t, res.IsFinalPayment)
	assert.Equal(t, entity.PaymentStatusPaid, res.Patch.PaymentStatus)
}

func TestReconcileLegacyDepositNotAddedWhenDepositMilestoneExists(t *testing.T) {
	booking := testBooking(1000, floatPtr(200), entity.Milestones{
		{ID: "m-1", Name: "Deposit", Amount: 300, Status: entity.MilestoneStatusPending},
	})
	booking.PaymentStatus = entity.PaymentStatusDepositPaid

	res := Reconcile(booking, milestoneEvent("m-1", 300), time.Now())

	// Only the milestone amount, never milestone + column
	assert.Equal(t, 300.0, res.TotalPaid)
}

func TestReconcileIdempotent(t *testing.T) {
	tests := []struct {
		name  string
		event func() *CheckoutEvent
		setup func() *entity.Booking
	}{
		{
			name:  "deposit replay",
			event: depositEvent,
			setup: func() *entity.Booking {
				return testBooking(1000, floatPtr(200), entity.Milestones{
					{ID: "m-1", Name: "Deposit", Amount: 200, Status: entity.MilestoneStatusPending},
					{ID: "m-2", Name: "Final", Amount: 800, Status: entity.MilestoneStatusPending},
				})
			},
		},
		{
			name:  "milestone replay",
			event: func() *CheckoutEvent { return milestoneEvent("m-2", 800) },
			setup: func() *entity.Booking {
				return testBooking(1000, nil, entity.Milestones{
					{ID: "m-1", Name: "Deposit", Amount: 200, Status: entity.MilestoneStatusPaid},
					{ID: "m-2", Name: "Final", Amount: 800, Status: entity.MilestoneStatusPending},
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := tt.setup()
			first := Reconcile(booking, tt.event(), time.Now())

			// Apply the first result, then replay the same event later
			replayed := *booking
			replayed.PaymentMilestones = first.Patch.PaymentMilestones
			replayed.PaymentStatus = first.Patch.PaymentStatus
			replayed.Status = first.Patch.Status

			second := Reconcile(&replayed, tt.event(), time.Now().Add(time.Hour))

			assert.Equal(t, first.Patch.PaymentStatus, second.Patch.PaymentStatus)
			assert.Equal(t, first.Patch.Status, second.Patch.Status)
			assert.Equal(t, first.TotalPaid, second.TotalPaid)

			for i := range first.Patch.PaymentMilestones {
				a := first.Patch.PaymentMilestones[i]
				b := second.Patch.PaymentMilestones[i]
				assert.Equal(t, a.Status, b.Status)
				assert.Equal(t, a.StripeCheckoutSessionID, b.StripeCheckoutSessionID)
				if a.PaidAt != nil {
					require.NotNil(t, b.PaidAt)
					assert.True(t, a.PaidAt.Equal(*b.PaidAt), "paid_at must not move on replay")
				}
			}
		})
	}
}

func TestReconcileUnknownMilestoneLeavesStateUnchanged(t *testing.T) {
	booking := testBooking(1000, nil, entity.Milestones{
		{ID: "m-1", Name: "Deposit", Amount: 200, Status: entity.MilestoneStatusPending},
	})

	res := Reconcile(booking, milestoneEvent("does-not-exist", 500), time.Now())

	assert.Equal(t, 0.0, res.TotalPaid)
	assert.Equal(t, booking.PaymentStatus, res.Patch.PaymentStatus)
	assert.Equal(t, booking.Status, res.Patch.Status)
}

func TestReconcileDoesNotMutateInput(t *testing.T) {
	booking := testBooking(1000, nil, entity.Milestones{
		{ID: "m-1", Name: "Deposit", Amount: 200, Status: entity.MilestoneStatusPending},
	})

	_ = Reconcile(booking, depositEvent(), time.Now())

	assert.Equal(t, entity.MilestoneStatusPending, booking.PaymentMilestones[0].Status)
	assert.Nil(t, booking.PaymentMilestones[0].PaidAt)
	assert.Equal(t, entity.PaymentStatusPendingDeposit, booking.PaymentStatus)
}
