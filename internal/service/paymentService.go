package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	repository "github.com/shutterdesk/shutterdesk/internal/database/postgres"
	"github.com/shutterdesk/shutterdesk/internal/entity"
	"github.com/shutterdesk/shutterdesk/pkg/payments"
)

// CheckoutRequest asks for a hosted payment page for one schedule entry.
type CheckoutRequest struct {
	BookingID   string `json:"booking_id" binding:"required,uuid"`
	Kind        string `json:"kind" binding:"required,oneof=deposit milestone"`
	MilestoneID string `json:"milestone_id,omitempty"`
}

// CheckoutSessionInfo is returned to the client portal for redirecting to
// the payment page.
type CheckoutSessionInfo struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// CheckoutProvider abstracts the payment processor for session creation.
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, p *payments.CheckoutParams) (*payments.CheckoutSession, error)
}

type paymentService struct {
	bookingRepo repository.BookingRepository
	clientRepo  repository.ClientRepository
	provider    CheckoutProvider
	queue       TaskPublisher
}

// NewPaymentService creates a new PaymentService instance.
func NewPaymentService(
	bookingRepo repository.BookingRepository,
	clientRepo repository.ClientRepository,
	provider CheckoutProvider,
	queue TaskPublisher,
) PaymentService {
	return &paymentService{
		bookingRepo: bookingRepo,
		clientRepo:  clientRepo,
		provider:    provider,
		queue:       queue,
	}
}

func (s *paymentService) CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSessionInfo, error) {
	booking, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	if booking.PaymentStatus == entity.PaymentStatusPaid {
		return nil, fmt.Errorf("booking %s is already fully paid", booking.ID)
	}

	var amount float64
	var label string
	var milestoneID string

	switch PaymentKind(req.Kind) {
	case PaymentKindDeposit:
		amount = booking.EffectiveDeposit()
		label = fmt.Sprintf("Deposit — %s", booking.Title)
		if dep := findDepositMilestone(booking.PaymentMilestones); dep != nil {
			if dep.Status == entity.MilestoneStatusPaid {
				return nil, fmt.Errorf("deposit for booking %s is already paid", booking.ID)
			}
			amount = dep.Amount
		}
	case PaymentKindMilestone:
		m := booking.PaymentMilestones.FindByID(req.MilestoneID)
		if m == nil {
			return nil, entity.ErrMilestoneNotFound
		}
		if m.Status == entity.MilestoneStatusPaid {
			return nil, fmt.Errorf("milestone %q is already paid", m.Name)
		}
		amount = m.Amount
		milestoneID = m.ID
		label = fmt.Sprintf("%s — %s", m.Name, booking.Title)
	default:
		return nil, fmt.Errorf("%w: unknown payment kind %q", entity.ErrInvalidInput, req.Kind)
	}

	var email string
	if client, err := s.clientRepo.GetByID(ctx, booking.ClientID); err == nil {
		email = client.Email
	}

	sess, err := s.provider.CreateCheckoutSession(ctx, &payments.CheckoutParams{
		BookingID:     booking.ID,
		Kind:          req.Kind,
		MilestoneID:   milestoneID,
		Label:         label,
		Amount:        amount,
		CustomerEmail: email,
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"kind":       req.Kind,
		"amount":     amount,
		"session_id": sess.ID,
	}).Info("Checkout session created")

	return &CheckoutSessionInfo{SessionID: sess.ID, URL: sess.URL}, nil
}

// HandleCheckoutCompleted reconciles a verified checkout event into booking
// state. The persistence write must succeed before any notification is
// queued; queue failures are logged and swallowed so the provider still gets
// its success acknowledgment.
func (s *paymentService) HandleCheckoutCompleted(ctx context.Context, ev *CheckoutEvent) error {
	booking, err := s.bookingRepo.GetByID(ctx, ev.BookingID)
	if err != nil {
		return err
	}

	res := Reconcile(booking, ev, time.Now())

	if err := s.bookingRepo.UpdatePayment(ctx, booking.ID, booking.Version, &res.Patch); err != nil {
		return fmt.Errorf("failed to persist reconciled payment state: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"booking_id":     booking.ID,
		"kind":           ev.Kind,
		"total_paid":     res.TotalPaid,
		"final_payment":  res.IsFinalPayment,
		"payment_status": res.Patch.PaymentStatus,
	}).Info("Payment reconciled")

	s.queueNotifications(ctx, booking, ev, res)
	return nil
}

func (s *paymentService) queueNotifications(ctx context.Context, booking *entity.Booking, ev *CheckoutEvent, res *ReconcileResult) {
	if s.queue == nil {
		return
	}

	var clientEmail, clientName string
	if client, err := s.clientRepo.GetByID(ctx, booking.ClientID); err == nil {
		clientEmail = client.Email
		clientName = client.Name
	} else {
		logrus.Warnf("Could not resolve client for booking %s: %v", booking.ID, err)
	}

	publish := func(subtype string, extra map[string]interface{}) {
		data := map[string]interface{}{
			"notification_type": subtype,
			"booking_id":        booking.ID,
			"booking_title":     booking.Title,
			"client_email":      clientEmail,
			"client_name":       clientName,
			"amount_paid":       ev.AmountPaid,
			"total_paid":        res.TotalPaid,
			"total_price":       booking.TotalPrice,
		}
		for k, v := range extra {
			data[k] = v
		}
		task := &Task{
			ID:         fmt.Sprintf("%s_%s_%s", subtype, booking.ID, ev.SessionID),
			Type:       TaskTypeSendNotification,
			Data:       data,
			MaxRetries: 3,
		}
		if err := s.queue.Publish(ctx, task); err != nil {
			logrus.Errorf("Failed to queue %s notification for booking %s: %v", subtype, booking.ID, err)
		}
	}

	if res.NotifyClientPaymentSuccess && clientEmail != "" {
		publish(NotificationPaymentSuccess, nil)
	}
	if res.NotifyOwnerDepositPaid {
		publish(NotificationDepositPaid, nil)
	} else if res.NotifyOwnerFinalPayment {
		publish(NotificationFinalPayment, nil)
	}
}

func findDepositMilestone(ms entity.Milestones) *entity.Milestone {
	for i := range ms {
		if ms[i].Name == entity.DepositMilestoneName {
			return &ms[i]
		}
	}
	return nil
}
