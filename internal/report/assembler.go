package report

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/segyhp/dialoger-export/internal/domain"
	"github.com/segyhp/dialoger-export/internal/repository"
	customError "github.com/segyhp/dialoger-export/pkg/errors"

	"golang.org/x/sync/errgroup"
)

// AllPaymentsSheetName names the first sheet holding every payment of the range
const AllPaymentsSheetName = "Alle Leistungen"

const maxSheetNameLength = 31

// Assembler builds export workbooks from the store
type Assembler struct {
	payments  repository.PaymentRepository
	users     repository.UserRepository
	locations repository.LocationRepository
	loc       *time.Location
}

// NewAssembler creates an Assembler. Dates in the sheets are rendered in loc.
func NewAssembler(
	payments repository.PaymentRepository,
	users repository.UserRepository,
	locations repository.LocationRepository,
	loc *time.Location,
) *Assembler {
	if loc == nil {
		loc = time.UTC
	}
	return &Assembler{
		payments:  payments,
		users:     users,
		locations: locations,
		loc:       loc,
	}
}

// Generate builds the workbook for payments in [start, end). Any failing
// query aborts the whole run.
func (a *Assembler) Generate(ctx context.Context, start, end time.Time) (*Workbook, error) {
	if end.Before(start) {
		return nil, customError.WrapInvalidDateRange(start, end)
	}

	var (
		payments  []*domain.Payment
		users     []*domain.User
		locations []*domain.Location
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		payments, err = a.payments.ListInRange(gctx, start, end)
		if err != nil {
			return customError.WrapQueryFailure("payments", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		users, err = a.users.ListNonAdmin(gctx)
		if err != nil {
			return customError.WrapQueryFailure("users", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		locations, err = a.locations.List(gctx)
		if err != nil {
			return customError.WrapQueryFailure("locations", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	userDir := NewUserDirectory(users)
	builder := NewSheetBuilder(userDir, NewLocationDirectory(locations), a.loc)
	names := newSheetNamer()

	workbook := &Workbook{Sheets: make([]*Sheet, 0, userDir.Len()+1)}
	workbook.Sheets = append(workbook.Sheets, builder.Build(names.next(AllPaymentsSheetName), payments))

	byDialoger := partitionByDialoger(payments)
	for _, id := range userDir.IDs() {
		name, _ := userDir.Lookup(id)
		workbook.Sheets = append(workbook.Sheets, builder.Build(names.next(name), byDialoger[id]))
	}

	return workbook, nil
}

// partitionByDialoger groups payments by dialoger id, keeping their order
func partitionByDialoger(payments []*domain.Payment) map[string][]*domain.Payment {
	groups := make(map[string][]*domain.Payment)
	for _, p := range payments {
		groups[p.DialogerID] = append(groups[p.DialogerID], p)
	}
	return groups
}

// sheetNamer produces names that spreadsheet applications accept: no
// reserved characters, at most 31 characters, not blank and unique.
type sheetNamer struct {
	used map[string]bool
}

func newSheetNamer() *sheetNamer {
	return &sheetNamer{used: make(map[string]bool)}
}

var sheetNameReplacer = strings.NewReplacer(
	":", "-", "\\", "-", "/", "-", "?", "-", "*", "-", "[", "-", "]", "-",
)

func (n *sheetNamer) next(name string) string {
	base := trimSheetName(sheetNameReplacer.Replace(name))
	if base == "" {
		base = UnknownName
	}
	// truncation can expose a quote or space at the new end
	base = trimSheetName(truncateRunes(base, maxSheetNameLength))

	candidate := base
	for i := 2; n.used[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		candidate = trimSheetName(truncateRunes(base, maxSheetNameLength-len(suffix))) + suffix
	}
	n.used[strings.ToLower(candidate)] = true

	return candidate
}

// trimSheetName drops surrounding whitespace and single quotes, which xlsx
// does not allow at either end of a sheet name
func trimSheetName(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\''
	})
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
