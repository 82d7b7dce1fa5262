package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shutterdesk/shutterdesk/internal/entity"
)

type reminderBookingRepo struct {
	fakeBookingRepo
	unpaidActive   []*entity.Booking
	staleProposals []*entity.Booking
}

func (f *reminderBookingRepo) GetUnpaidActive(ctx context.Context) ([]*entity.Booking, error) {
	return f.unpaidActive, nil
}

func (f *reminderBookingRepo) GetStaleProposals(ctx context.Context, before time.Time) ([]*entity.Booking, error) {
	return f.staleProposals, nil
}

func TestCreateBookingValidatesMilestoneSum(t *testing.T) {
	repo := newFakeBookingRepo()
	clients := &fakeClientRepo{clients: map[string]*entity.Client{"c-1": clientFixture()}}
	svc := NewBookingService(repo, clients, nil, 5, 14)

	tests := []struct {
		name       string
		milestones []MilestoneInput
		wantErr    error
	}{
		{
			name: "exact sum",
			milestones: []MilestoneInput{
				{Name: "Deposit", Amount: 300},
				{Name: "Final", Amount: 700},
			},
		},
		{
			name: "within tolerance",
			milestones: []MilestoneInput{
				{Name: "Deposit", Amount: 333.33},
				{Name: "Mid", Amount: 333.33},
				{Name: "Final", Amount: 333.34},
			},
		},
		{
			name: "mismatch",
			milestones: []MilestoneInput{
				{Name: "Deposit", Amount: 300},
				{Name: "Final", Amount: 600},
			},
			wantErr: entity.ErrMilestoneSumMismatch,
		},
		{
			name: "no schedule is fine",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking, err := svc.CreateBooking(context.Background(), &CreateBookingRequest{
				ClientID:    "c-1",
				Title:       "Portrait Session",
				SessionDate: time.Now().AddDate(0, 1, 0),
				TotalPrice:  1000,
				Milestones:  tt.milestones,
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, booking.ID)
			assert.Equal(t, entity.BookingStatusDraft, booking.Status)
			assert.Equal(t, entity.PaymentStatusPendingDeposit, booking.PaymentStatus)
			assert.Len(t, booking.PaymentMilestones, len(tt.milestones))
			for _, m := range booking.PaymentMilestones {
				assert.NotEmpty(t, m.ID)
				assert.Equal(t, entity.MilestoneStatusPending, m.Status)
			}
		})
	}
}

func TestCreateBookingAsInquiry(t *testing.T) {
	repo := newFakeBookingRepo()
	clients := &fakeClientRepo{clients: map[string]*entity.Client{"c-1": clientFixture()}}
	svc := NewBookingService(repo, clients, nil, 5, 14)

	booking, err := svc.CreateBooking(context.Background(), &CreateBookingRequest{
		ClientID:    "c-1",
		Title:       "Portrait Session",
		SessionDate: time.Now().AddDate(0, 1, 0),
		TotalPrice:  500,
		AsInquiry:   true,
	})

	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusInquiry, booking.Status)
}

func TestSendProposal(t *testing.T) {
	tests := []struct {
		name      string
		status    entity.BookingStatus
		wantErr   bool
		wantTasks int
	}{
		{name: "from draft", status: entity.BookingStatusDraft, wantTasks: 1},
		{name: "from inquiry", status: entity.BookingStatusInquiry, wantTasks: 1},
		{name: "resend", status: entity.BookingStatusProposalSent, wantTasks: 1},
		{name: "from active", status: entity.BookingStatusActive, wantErr: true},
		{name: "from completed", status: entity.BookingStatusCompleted, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := paidBookingFixture()
			booking.Status = tt.status
			repo := newFakeBookingRepo(booking)
			clients := &fakeClientRepo{clients: map[string]*entity.Client{"c-1": clientFixture()}}
			pub := &fakePublisher{}
			svc := NewBookingService(repo, clients, pub, 5, 14)

			err := svc.SendProposal(context.Background(), "b-1")

			if tt.wantErr {
				assert.ErrorIs(t, err, entity.ErrInvalidBookingStatus)
				assert.Empty(t, pub.tasks)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, entity.BookingStatusProposalSent, booking.Status)
			require.Len(t, pub.tasks, tt.wantTasks)
			assert.Equal(t, TaskTypeSendNotification, pub.tasks[0].Type)
			assert.Equal(t, NotificationProposalSent, pub.tasks[0].Data["notification_type"])
			assert.Equal(t, "ana@example.com", pub.tasks[0].Data["client_email"])
		})
	}
}

func TestQueuePaymentReminders(t *testing.T) {
	soon := time.Now().AddDate(0, 0, 7)
	farOut := time.Now().AddDate(0, 6, 0)

	dueBooking := paidBookingFixture()
	dueBooking.SessionDate = soon

	distantBooking := paidBookingFixture()
	distantBooking.ID = "b-2"
	distantBooking.SessionDate = farOut

	repo := &reminderBookingRepo{unpaidActive: []*entity.Booking{dueBooking, distantBooking}}
	clients := &fakeClientRepo{clients: map[string]*entity.Client{"c-1": clientFixture()}}
	pub := &fakePublisher{}
	svc := NewBookingService(repo, clients, pub, 5, 14)

	err := svc.QueuePaymentReminders(context.Background())
	require.NoError(t, err)

	// Only the booking inside the reminder window, only its pending milestone
	require.Len(t, pub.tasks, 1)
	task := pub.tasks[0]
	assert.Equal(t, TaskTypePaymentReminder, task.Type)
	assert.Equal(t, "reminder_b-1_m-2", task.ID)
	assert.Equal(t, "Final", task.Data["milestone_name"])
	assert.Equal(t, 700.0, task.Data["amount"])
}

func TestQueueProposalFollowUps(t *testing.T) {
	stale := paidBookingFixture()
	stale.Status = entity.BookingStatusProposalSent
	stale.UpdatedAt = time.Now().AddDate(0, 0, -10)

	repo := &reminderBookingRepo{staleProposals: []*entity.Booking{stale}}
	clients := &fakeClientRepo{clients: map[string]*entity.Client{"c-1": clientFixture()}}
	pub := &fakePublisher{}
	svc := NewBookingService(repo, clients, pub, 5, 14)

	err := svc.QueueProposalFollowUps(context.Background())
	require.NoError(t, err)

	require.Len(t, pub.tasks, 1)
	assert.Equal(t, TaskTypeProposalFollowUp, pub.tasks[0].Type)
	assert.Equal(t, "b-1", pub.tasks[0].Data["booking_id"])
}
