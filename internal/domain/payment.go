package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment types
const (
	PaymentTypeOnce      = "once"
	PaymentTypeRepeating = "repeating"
)

// Payment methods
const (
	PaymentMethodTwint = "twint"
	PaymentMethodOther = "other"
)

// Payment statuses. Anything else found in the store is reported as paid.
const (
	PaymentStatusPaid      = "paid"
	PaymentStatusPending   = "pending"
	PaymentStatusCancelled = "cancelled"
)

// Intervals of repeating payments
const (
	IntervalMonthly   = "monthly"
	IntervalQuarterly = "quarterly"
	IntervalSemester  = "semester"
	IntervalYearly    = "yearly"
)

// Payment is a read-only snapshot of one payment collected by a dialoger
type Payment struct {
	ID              string          `json:"id" db:"id"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	Type            string          `json:"type" db:"payment_type"`
	Method          string          `json:"method" db:"method"`
	HasFirstPayment bool            `json:"has_first_payment" db:"has_first_payment"`
	Interval        string          `json:"interval" db:"payment_interval"`
	PaymentStatus   string          `json:"payment_status" db:"payment_status"`
	DialogerShare   decimal.Decimal `json:"dialoger_share" db:"dialoger_share"`
	Timestamp       time.Time       `json:"timestamp" db:"paid_at"`
	FirstName       string          `json:"first" db:"first_name"`
	LastName        string          `json:"last" db:"last_name"`
	DialogerID      string          `json:"dialoger" db:"dialoger_id"`
	LocationID      string          `json:"location" db:"location_id"`
}

// IsRepeating reports whether the payment is a recurring (LSV) payment.
func (p *Payment) IsRepeating() bool {
	return p.Type == PaymentTypeRepeating
}
