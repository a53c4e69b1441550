package report

import (
	"github.com/segyhp/dialoger-export/internal/domain"

	"github.com/shopspring/decimal"
)

// Bucket is one of the three mutually exclusive summary categories
type Bucket int

const (
	BucketOnce Bucket = iota
	BucketLSVWithInitial
	BucketLSVWithoutInitial
)

// Method labels
const (
	MethodSumUp              = "SumUp"
	MethodTwint              = "Twint"
	MethodLSVSumUp           = "LSV + SumUp"
	MethodLSVTwint           = "LSV + Twint"
	MethodLSVWithoutFirstPay = "LSV ohne Erstzahlung"
)

// Status labels
const (
	StatusPaid      = "Bezahlt"
	StatusPending   = "Ausstehend"
	StatusCancelled = "Zurückgenommen"
)

// Interval labels
const (
	IntervalOnce      = "Einmalig"
	IntervalMonthly   = "Monatlich"
	IntervalQuarterly = "Quartalsweise"
	IntervalSemester  = "Semesterweise"
	IntervalYearly    = "Jährlich"
	IntervalUnknown   = "Unbekannt"
)

// Category is the labelled classification of one payment
type Category struct {
	Method   string
	Status   string
	Interval string
	Bucket   Bucket
}

// Classify labels a payment. Every input has a defined result.
func Classify(p *domain.Payment) Category {
	repeating := p.IsRepeating()
	method, bucket := MethodLabel(repeating, p.Method, p.HasFirstPayment)
	return Category{
		Method:   method,
		Status:   StatusLabel(p.PaymentStatus),
		Interval: IntervalLabel(repeating, p.Interval),
		Bucket:   bucket,
	}
}

// MethodLabel maps the payment kind to its label and summary bucket.
// Anything not repeating counts as a one-time payment.
func MethodLabel(repeating bool, method string, hasFirstPayment bool) (string, Bucket) {
	twint := method == domain.PaymentMethodTwint

	if !repeating {
		if twint {
			return MethodTwint, BucketOnce
		}
		return MethodSumUp, BucketOnce
	}

	if !hasFirstPayment {
		return MethodLSVWithoutFirstPay, BucketLSVWithoutInitial
	}
	if twint {
		return MethodLSVTwint, BucketLSVWithInitial
	}
	return MethodLSVSumUp, BucketLSVWithInitial
}

// StatusLabel maps a payment status. Unset or unknown statuses are reported
// as paid; older app versions did not write a status at all.
func StatusLabel(status string) string {
	switch status {
	case domain.PaymentStatusPaid:
		return StatusPaid
	case domain.PaymentStatusPending:
		return StatusPending
	case domain.PaymentStatusCancelled:
		return StatusCancelled
	default:
		return StatusPaid
	}
}

// IntervalLabel maps the interval of a repeating payment. One-time payments
// are always "Einmalig".
func IntervalLabel(repeating bool, interval string) string {
	if !repeating {
		return IntervalOnce
	}

	switch interval {
	case domain.IntervalMonthly:
		return IntervalMonthly
	case domain.IntervalQuarterly:
		return IntervalQuarterly
	case domain.IntervalSemester:
		return IntervalSemester
	case domain.IntervalYearly:
		return IntervalYearly
	default:
		return IntervalUnknown
	}
}

// Summary holds the running bucket totals of one sheet
type Summary struct {
	Once              decimal.Decimal
	LSVWithInitial    decimal.Decimal
	LSVWithoutInitial decimal.Decimal
}

// Add accumulates amount into bucket b
func (s *Summary) Add(b Bucket, amount decimal.Decimal) {
	switch b {
	case BucketOnce:
		s.Once = s.Once.Add(amount)
	case BucketLSVWithInitial:
		s.LSVWithInitial = s.LSVWithInitial.Add(amount)
	case BucketLSVWithoutInitial:
		s.LSVWithoutInitial = s.LSVWithoutInitial.Add(amount)
	}
}

// Total is the sum of all three buckets
func (s Summary) Total() decimal.Decimal {
	return s.Once.Add(s.LSVWithInitial).Add(s.LSVWithoutInitial)
}
