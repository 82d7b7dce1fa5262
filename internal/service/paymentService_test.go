package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shutterdesk/shutterdesk/internal/entity"
	"github.com/shutterdesk/shutterdesk/pkg/payments"
)

type fakeBookingRepo struct {
	bookings  map[string]*entity.Booking
	updateErr error

	lastPatchID      string
	lastPatchVersion int64
	lastPatch        *entity.PaymentPatch
}

func newFakeBookingRepo(bookings ...*entity.Booking) *fakeBookingRepo {
	m := make(map[string]*entity.Booking, len(bookings))
	for _, b := range bookings {
		m[b.ID] = b
	}
	return &fakeBookingRepo{bookings: m}
}

func (f *fakeBookingRepo) Create(ctx context.Context, booking *entity.Booking) error {
	f.bookings[booking.ID] = booking
	return nil
}

func (f *fakeBookingRepo) GetByID(ctx context.Context, id string) (*entity.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, entity.ErrBookingNotFound
	}
	return b, nil
}

func (f *fakeBookingRepo) Update(ctx context.Context, booking *entity.Booking) error { return nil }

func (f *fakeBookingRepo) UpdateStatus(ctx context.Context, id string, status entity.BookingStatus) error {
	b, ok := f.bookings[id]
	if !ok {
		return entity.ErrBookingNotFound
	}
	b.Status = status
	return nil
}

func (f *fakeBookingRepo) Delete(ctx context.Context, id string) error { return nil }

func (f *fakeBookingRepo) UpdatePayment(ctx context.Context, id string, version int64, patch *entity.PaymentPatch) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.lastPatchID = id
	f.lastPatchVersion = version
	f.lastPatch = patch
	return nil
}

func (f *fakeBookingRepo) GetAll(ctx context.Context) ([]*entity.Booking, error) { return nil, nil }
func (f *fakeBookingRepo) GetByClientID(ctx context.Context, clientID string) ([]*entity.Booking, error) {
	return nil, nil
}
func (f *fakeBookingRepo) GetByStatus(ctx context.Context, status entity.BookingStatus) ([]*entity.Booking, error) {
	return nil, nil
}
func (f *fakeBookingRepo) GetStats(ctx context.Context) (*entity.BookingStats, error) {
	return nil, nil
}
func (f *fakeBookingRepo) GetUnpaidActive(ctx context.Context) ([]*entity.Booking, error) {
	return nil, nil
}
func (f *fakeBookingRepo) GetStaleProposals(ctx context.Context, before time.Time) ([]*entity.Booking, error) {
	return nil, nil
}

type fakeClientRepo struct {
	clients map[string]*entity.Client
}

func (f *fakeClientRepo) Create(ctx context.Context, client *entity.Client) error { return nil }

func (f *fakeClientRepo) GetByID(ctx context.Context, id string) (*entity.Client, error) {
	c, ok := f.clients[id]
	if !ok {
		return nil, entity.ErrClientNotFound
	}
	return c, nil
}

func (f *fakeClientRepo) GetByEmail(ctx context.Context, email string) (*entity.Client, error) {
	return nil, entity.ErrClientNotFound
}
func (f *fakeClientRepo) GetAll(ctx context.Context) ([]*entity.Client, error)    { return nil, nil }
func (f *fakeClientRepo) Update(ctx context.Context, client *entity.Client) error { return nil }
func (f *fakeClientRepo) Delete(ctx context.Context, id string) error             { return nil }

type fakePublisher struct {
	tasks      []*Task
	publishErr error
}

func (f *fakePublisher) Publish(ctx context.Context, task *Task) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.tasks = append(f.tasks, task)
	return nil
}

type fakeCheckoutProvider struct {
	lastParams *payments.CheckoutParams
	session    *payments.CheckoutSession
	err        error
}

func (f *fakeCheckoutProvider) CreateCheckoutSession(ctx context.Context, p *payments.CheckoutParams) (*payments.CheckoutSession, error) {
	f.lastParams = p
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func paidBookingFixture() *entity.Booking {
	return &entity.Booking{
		ID:         "b-1",
		ClientID:   "c-1",
		Title:      "Wedding Shoot",
		TotalPrice: 1000,
		Status:     entity.BookingStatusActive,
		Version:    4,
		PaymentMilestones: entity.Milestones{
			{ID: "m-1", Name: "Deposit", Amount: 300, Status: entity.MilestoneStatusPaid},
			{ID: "m-2", Name: "Final", Amount: 700, Status: entity.MilestoneStatusPending},
		},
		PaymentStatus: entity.PaymentStatusDepositPaid,
	}
}

func clientFixture() *entity.Client {
	return &entity.Client{ID: "c-1", Email: "ana@example.com", Name: "Ana"}
}

func TestHandleCheckoutCompletedPersistsBeforeNotifying(t *testing.T) {
	repo := newFakeBookingRepo(paidBookingFixture())
	clients := &fakeClientRepo{clients: map[string]*entity.Client{"c-1": clientFixture()}}
	pub := &fakePublisher{}

	svc := NewPaymentService(repo, clients, nil, pub)

	ev := &CheckoutEvent{
		BookingID:   "b-1",
		Kind:        PaymentKindMilestone,
		MilestoneID: "m-2",
		AmountPaid:  700,
		SessionID:   "cs_9",
	}

	err := svc.HandleCheckoutCompleted(context.Background(), ev)
	require.NoError(t, err)

	// CAS write carried the version read with the booking
	assert.Equal(t, "b-1", repo.lastPatchID)
	assert.Equal(t, int64(4), repo.lastPatchVersion)
	require.NotNil(t, repo.lastPatch)
	assert.Equal(t, entity.PaymentStatusPaid, repo.lastPatch.PaymentStatus)

	// Final payment: client receipt plus owner notification
	require.Len(t, pub.tasks, 2)
	types := []string{pub.tasks[0].Data["notification_type"].(string), pub.tasks[1].Data["notification_type"].(string)}
	assert.Contains(t, types, NotificationPaymentSuccess)
	assert.Contains(t, types, NotificationFinalPayment)
}

func TestHandleCheckoutCompletedBookingNotFound(t *testing.T) {
	repo := newFakeBookingRepo()
	clients := &fakeClientRepo{}
	svc := NewPaymentService(repo, clients, nil, &fakePublisher{})

	err := svc.HandleCheckoutCompleted(context.Background(), &CheckoutEvent{BookingID: "ghost", Kind: PaymentKindDeposit})
	assert.ErrorIs(t, err, entity.ErrBookingNotFound)
}

func TestHandleCheckoutCompletedPersistFailureIsReturned(t *testing.T) {
	repo := newFakeBookingRepo(paidBookingFixture())
	repo.updateErr = entity.ErrConcurrentUpdate
	clients := &fakeClientRepo{clients: map[string]*entity.Client{"c-1": clientFixture()}}
	pub := &fakePublisher{}
	svc := NewPaymentService(repo, clients, nil, pub)

	err := svc.HandleCheckoutCompleted(context.Background(), &CheckoutEvent{
		BookingID: "b-1", Kind: PaymentKindMilestone, MilestoneID: "m-2", SessionID: "cs_9",
	})

	assert.ErrorIs(t, err, entity.ErrConcurrentUpdate)
	// Nothing may be queued when persistence failed
	assert.Empty(t, pub.tasks)
}

func TestHandleCheckoutCompletedQueueFailureIsSwallowed(t *testing.T) {
	repo := newFakeBookingRepo(paidBookingFixture())
	clients := &fakeClientRepo{clients: map[string]*entity.Client{"c-1": clientFixture()}}
	pub := &fakePublisher{publishErr: errors.New("redis down")}
	svc := NewPaymentService(repo, clients, nil, pub)

	err := svc.HandleCheckoutCompleted(context.Background(), &CheckoutEvent{
		BookingID: "b-1", Kind: PaymentKindMilestone, MilestoneID: "m-2", SessionID: "cs_9",
	})

	assert.NoError(t, err)
}

func TestCreateCheckoutSession(t *testing.T) {
	tests := []struct {
		name    string
		booking func() *entity.Booking
		req     *CheckoutRequest
		want    *payments.CheckoutParams
		wantErr error
	}{
		{
			name:    "deposit uses deposit milestone amount",
			booking: paidBookingFixture,
			req:     &CheckoutRequest{BookingID: "b-1", Kind: "deposit"},
			wantErr: errors.New("deposit for booking b-1 is already paid"),
		},
		{
			name: "deposit falls back to deposit column",
			booking: func() *entity.Booking {
				b := paidBookingFixture()
				b.PaymentMilestones = nil
				b.PaymentStatus = entity.PaymentStatusPendingDeposit
				dep := 250.0
				b.DepositAmount = &dep
				return b
			},
			req:  &CheckoutRequest{BookingID: "b-1", Kind: "deposit"},
			want: &payments.CheckoutParams{BookingID: "b-1", Kind: "deposit", Amount: 250},
		},
		{
			name:    "milestone by id",
			booking: paidBookingFixture,
			req:     &CheckoutRequest{BookingID: "b-1", Kind: "milestone", MilestoneID: "m-2"},
			want:    &payments.CheckoutParams{BookingID: "b-1", Kind: "milestone", MilestoneID: "m-2", Amount: 700},
		},
		{
			name:    "unknown milestone",
			booking: paidBookingFixture,
			req:     &CheckoutRequest{BookingID: "b-1", Kind: "milestone", MilestoneID: "nope"},
			wantErr: entity.ErrMilestoneNotFound,
		},
		{
			name: "already paid milestone",
			booking: func() *entity.Booking {
				b := paidBookingFixture()
				b.PaymentMilestones[1].Status = entity.MilestoneStatusPaid
				return b
			},
			req:     &CheckoutRequest{BookingID: "b-1", Kind: "milestone", MilestoneID: "m-2"},
			wantErr: errors.New(`milestone "Final" is already paid`),
		},
		{
			name: "fully paid booking",
			booking: func() *entity.Booking {
				b := paidBookingFixture()
				b.PaymentStatus = entity.PaymentStatusPaid
				return b
			},
			req:     &CheckoutRequest{BookingID: "b-1", Kind: "milestone", MilestoneID: "m-2"},
			wantErr: errors.New("booking b-1 is already fully paid"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeBookingRepo(tt.booking())
			clients := &fakeClientRepo{clients: map[string]*entity.Client{"c-1": clientFixture()}}
			provider := &fakeCheckoutProvider{session: &payments.CheckoutSession{ID: "cs_new", URL: "https://pay.example/cs_new"}}
			svc := NewPaymentService(repo, clients, provider, nil)

			info, err := svc.CreateCheckoutSession(context.Background(), tt.req)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr.Error())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "cs_new", info.SessionID)
			require.NotNil(t, provider.lastParams)
			assert.Equal(t, tt.want.BookingID, provider.lastParams.BookingID)
			assert.Equal(t, tt.want.Kind, provider.lastParams.Kind)
			assert.Equal(t, tt.want.MilestoneID, provider.lastParams.MilestoneID)
			assert.Equal(t, tt.want.Amount, provider.lastParams.Amount)
			assert.Equal(t, "ana@example.com", provider.lastParams.CustomerEmail)
		})
	}
}
