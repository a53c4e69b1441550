package report

import (
	"time"

	"github.com/segyhp/dialoger-export/internal/domain"
	"github.com/segyhp/dialoger-export/pkg/utils"

	"github.com/shopspring/decimal"
)

// Row is one payment projected onto the fixed report columns
type Row struct {
	Date           string
	Dialoger       string
	Location       string
	Amount         decimal.Decimal
	DialogerShare  decimal.Decimal
	Method         string
	Status         string
	Interval       string
	DonorLastName  string
	DonorFirstName string
}

// Values returns the cell values in column order
func (r Row) Values() []any {
	return []any{
		r.Date,
		r.Dialoger,
		r.Location,
		r.Amount,
		r.DialogerShare,
		r.Method,
		r.Status,
		r.Interval,
		r.DonorLastName,
		r.DonorFirstName,
	}
}

// Project converts a payment into a report row. The date is taken in loc;
// a nil loc means UTC.
func Project(p *domain.Payment, users, locations *Directory, loc *time.Location) (Row, Category) {
	if loc == nil {
		loc = time.UTC
	}
	category := Classify(p)

	return Row{
		Date:           utils.FormatSwissDate(p.Timestamp.In(loc)),
		Dialoger:       users.Name(p.DialogerID),
		Location:       locations.Name(p.LocationID),
		Amount:         p.Amount,
		DialogerShare:  utils.RoundHalfUp(p.Amount.Mul(p.DialogerShare), 2),
		Method:         category.Method,
		Status:         category.Status,
		Interval:       category.Interval,
		DonorLastName:  p.LastName,
		DonorFirstName: p.FirstName,
	}, category
}
