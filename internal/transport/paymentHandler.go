package transport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v81"

	"github.com/shutterdesk/shutterdesk/internal/entity"
	"github.com/shutterdesk/shutterdesk/internal/service"
	"github.com/shutterdesk/shutterdesk/pkg/payments"
)

// WebhookVerifier authenticates raw webhook payloads.
type WebhookVerifier interface {
	VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error)
}

type PaymentHandler struct {
	paymentService service.PaymentService
	verifier       WebhookVerifier
}

func NewPaymentHandler(paymentService service.PaymentService, verifier WebhookVerifier) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		verifier:       verifier,
	}
}

// CreateCheckoutSession returns a hosted payment page URL for one schedule
// entry of a booking.
func (h *PaymentHandler) CreateCheckoutSession(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: err.Error()})
		return
	}

	info, err := h.paymentService.CreateCheckoutSession(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Success: false, Error: "Booking not found"})
		case errors.Is(err, entity.ErrMilestoneNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Success: false, Error: "Milestone not found"})
		default:
			c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, info)
}

// HandleStripeWebhook is Stripe's entry point. The contract with Stripe:
// 2xx acknowledges delivery, anything else gets the event redelivered.
// Permanent data problems are therefore acknowledged and logged, only
// signature failures and transient persistence errors are surfaced.
func (h *PaymentHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	event, err := h.verifier.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		logrus.Warnf("Webhook signature verification failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	if event.Type != "checkout.session.completed" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	sess, err := payments.ParseCheckoutSession(&event)
	if err != nil {
		logrus.Errorf("Failed to parse checkout session from event %s: %v", event.ID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event payload"})
		return
	}

	ev, ok := checkoutEventFromSession(sess)
	if !ok {
		// Not one of ours, or created before the metadata contract. Ack so
		// Stripe stops redelivering.
		logrus.Warnf("Checkout session %s carries no reconciliation metadata, ignoring", sess.ID)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := h.paymentService.HandleCheckoutCompleted(c.Request.Context(), ev); err != nil {
		if errors.Is(err, entity.ErrBookingNotFound) {
			logrus.Warnf("Webhook for unknown booking %s, acknowledging", ev.BookingID)
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		logrus.Errorf("Failed to reconcile checkout session %s: %v", ev.SessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// checkoutEventFromSession maps session metadata onto a reconciliation
// event. Sessions without a booking reference are not reconcilable.
func checkoutEventFromSession(sess *stripe.CheckoutSession) (*service.CheckoutEvent, bool) {
	bookingID := sess.Metadata[payments.MetaBookingID]
	if bookingID == "" {
		return nil, false
	}

	kind := service.PaymentKind(sess.Metadata[payments.MetaType])
	if kind != service.PaymentKindDeposit && kind != service.PaymentKindMilestone {
		kind = service.PaymentKindDeposit
	}

	baseAmount := payments.ParseBaseAmount(sess.Metadata[payments.MetaBaseAmount])
	amountPaid := baseAmount
	if sess.AmountTotal > 0 {
		amountPaid = payments.CentsToDollars(sess.AmountTotal)
	}

	ev := &service.CheckoutEvent{
		BookingID:   bookingID,
		Kind:        kind,
		MilestoneID: sess.Metadata[payments.MetaMilestoneID],
		BaseAmount:  baseAmount,
		AmountPaid:  amountPaid,
		SessionID:   sess.ID,
	}
	if sess.PaymentIntent != nil {
		ev.PaymentIntentID = sess.PaymentIntent.ID
	}

	return ev, true
}
