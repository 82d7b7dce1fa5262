package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DepositMilestoneName is the reserved milestone name with special
// reconciliation behavior: deposit checkout events always target it.
const DepositMilestoneName = "Deposit"

type MilestoneStatus string

const (
	MilestoneStatusPending MilestoneStatus = "pending"
	MilestoneStatusPaid    MilestoneStatus = "paid"
)

// Milestone is a named partial-payment obligation within a booking's
// payment schedule. Insertion order is schedule order, not payment order.
type Milestone struct {
	ID                      string          `json:"id"`
	Name                    string          `json:"name"`
	Amount                  float64         `json:"amount"`
	Status                  MilestoneStatus `json:"status"`
	PaidAt                  *time.Time      `json:"paid_at,omitempty"`
	StripeCheckoutSessionID string          `json:"stripe_checkout_session_id,omitempty"`
}

// Milestones is the ordered payment schedule, stored as a JSONB column.
type Milestones []Milestone

func (m Milestones) Value() (driver.Value, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m)
}

func (m *Milestones) Scan(value interface{}) error {
	if value == nil {
		*m = Milestones{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*m = ParseMilestones(string(v))
	case string:
		*m = ParseMilestones(v)
	default:
		return fmt.Errorf("cannot scan type %T into Milestones", value)
	}
	return nil
}

// ParseMilestones decodes a stored milestone sequence. Rows written by early
// releases hold doubly-encoded JSON strings, and a handful hold garbage; an
// unparsable value reconciles as an empty schedule rather than failing the
// whole payment flow.
func ParseMilestones(raw string) Milestones {
	if raw == "" || raw == "null" {
		return Milestones{}
	}

	var ms Milestones
	if err := json.Unmarshal([]byte(raw), &ms); err == nil {
		return ms
	}

	// Doubly-encoded: the column holds a JSON string containing JSON.
	var inner string
	if err := json.Unmarshal([]byte(raw), &inner); err == nil {
		if err := json.Unmarshal([]byte(inner), &ms); err == nil {
			return ms
		}
	}

	return Milestones{}
}

// TotalPaid sums the amounts of all paid milestones.
func (m Milestones) TotalPaid() float64 {
	var total float64
	for _, ms := range m {
		if ms.Status == MilestoneStatusPaid {
			total += ms.Amount
		}
	}
	return total
}

// Total sums all milestone amounts regardless of status.
func (m Milestones) Total() float64 {
	var total float64
	for _, ms := range m {
		total += ms.Amount
	}
	return total
}

// HasDeposit reports whether the schedule contains the reserved deposit
// milestone.
func (m Milestones) HasDeposit() bool {
	for _, ms := range m {
		if ms.Name == DepositMilestoneName {
			return true
		}
	}
	return false
}

// FindByID returns the milestone with the given id, or nil.
func (m Milestones) FindByID(id string) *Milestone {
	for i := range m {
		if m[i].ID == id {
			return &m[i]
		}
	}
	return nil
}
