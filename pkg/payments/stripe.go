package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/shutterdesk/shutterdesk/config"
)

// Metadata keys of the checkout contract. Set at session creation, read back
// by the webhook handler.
const (
	MetaBookingID   = "bookingId"
	MetaType        = "type"
	MetaMilestoneID = "milestoneId"
	MetaBaseAmount  = "baseAmount"
)

// CheckoutParams describes one payment to collect through Stripe Checkout.
type CheckoutParams struct {
	BookingID     string
	Kind          string // "deposit" or "milestone"
	MilestoneID   string
	Label         string
	Amount        float64
	CustomerEmail string
}

// CheckoutSession is the slice of a created Stripe session the rest of the
// app cares about.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type Client struct {
	webhookSecret string
	currency      string
	successURL    string
	cancelURL     string
}

func NewClient(cfg *config.StripeConfig) *Client {
	stripe.Key = cfg.SecretKey
	return &Client{
		webhookSecret: cfg.WebhookSecret,
		currency:      cfg.Currency,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
	}
}

// CreateCheckoutSession creates a single-payment checkout session with the
// reconciliation metadata embedded.
func (c *Client) CreateCheckoutSession(ctx context.Context, p *CheckoutParams) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(c.currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.Label),
					},
					UnitAmount: stripe.Int64(DollarsToCents(p.Amount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(c.successURL),
		CancelURL:  stripe.String(c.cancelURL),
	}
	params.Context = ctx

	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}

	params.AddMetadata(MetaBookingID, p.BookingID)
	params.AddMetadata(MetaType, p.Kind)
	if p.MilestoneID != "" {
		params.AddMetadata(MetaMilestoneID, p.MilestoneID)
	}
	params.AddMetadata(MetaBaseAmount, strconv.FormatFloat(p.Amount, 'f', 2, 64))

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// VerifyWebhook checks the Stripe-Signature header against the shared
// endpoint secret and returns the parsed event.
func (c *Client) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, c.webhookSecret)
}

// ParseCheckoutSession unmarshals the session object out of a
// checkout.session.completed event.
func ParseCheckoutSession(ev *stripe.Event) (*stripe.CheckoutSession, error) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse checkout session payload: %w", err)
	}
	return &sess, nil
}

// DollarsToCents converts a decimal amount to the integer minor units Stripe
// expects.
func DollarsToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CentsToDollars converts Stripe minor units back to a decimal amount.
func CentsToDollars(cents int64) float64 {
	return float64(cents) / 100
}

// ParseBaseAmount parses the baseAmount metadata value; malformed or absent
// values yield zero.
func ParseBaseAmount(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
