package report_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/segyhp/dialoger-export/internal/domain"
	"github.com/segyhp/dialoger-export/internal/report"
	customError "github.com/segyhp/dialoger-export/pkg/errors"
	"github.com/segyhp/dialoger-export/tests/mocks"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	payments  *mocks.MockPaymentRepository
	users     *mocks.MockUserRepository
	locations *mocks.MockLocationRepository
	assembler *report.Assembler
}

func newFixture() *fixture {
	f := &fixture{
		payments:  &mocks.MockPaymentRepository{},
		users:     &mocks.MockUserRepository{},
		locations: &mocks.MockLocationRepository{},
	}
	f.assembler = report.NewAssembler(f.payments, f.users, f.locations, time.UTC)
	return f
}

var (
	rangeStart = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	rangeEnd   = rangeStart.AddDate(0, 0, 1)
)

func payment(id, dialoger string, amount int64) *domain.Payment {
	return &domain.Payment{
		ID:            id,
		Amount:        decimal.NewFromInt(amount),
		Type:          domain.PaymentTypeOnce,
		DialogerShare: decimal.RequireFromString("0.5"),
		Timestamp:     rangeStart.Add(time.Hour),
		DialogerID:    dialoger,
	}
}

func TestAssembler_Generate(t *testing.T) {
	f := newFixture()

	payments := []*domain.Payment{
		payment("p1", "u2", 10),
		payment("p2", "u1", 20),
		payment("p3", "ghost", 30),
		payment("p4", "u2", 40),
	}
	users := []*domain.User{
		{ID: "u1", First: "Anna", Last: "Muster", Role: domain.RoleDialoger},
		{ID: "u2", First: "Beat", Last: "Keller", Role: domain.RoleDialoger},
		{ID: "u3", First: "Cla", Last: "Caduff", Role: domain.RoleDialoger},
	}

	f.payments.On("ListInRange", mock.Anything, rangeStart, rangeEnd).Return(payments, nil)
	f.users.On("ListNonAdmin", mock.Anything).Return(users, nil)
	f.locations.On("List", mock.Anything).Return([]*domain.Location{}, nil)

	wb, err := f.assembler.Generate(context.Background(), rangeStart, rangeEnd)
	require.NoError(t, err)

	names := make([]string, 0, len(wb.Sheets))
	for _, s := range wb.Sheets {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{report.AllPaymentsSheetName, "Anna Muster", "Beat Keller", "Cla Caduff"}, names)

	all := wb.Sheet(report.AllPaymentsSheetName)
	require.NotNil(t, all)
	assert.Len(t, all.Rows, 4)
	assert.Equal(t, report.UnknownName, all.Rows[2].Dialoger)
	assert.True(t, all.Summary.Total().Equal(decimal.NewFromInt(100)))

	beat := wb.Sheet("Beat Keller")
	require.Len(t, beat.Rows, 2)
	assert.True(t, beat.Rows[0].Amount.Equal(decimal.NewFromInt(10)))
	assert.True(t, beat.Rows[1].Amount.Equal(decimal.NewFromInt(40)))

	// payments of unknown dialogers only appear on the all-payments sheet
	perDialoger := 0
	for _, s := range wb.Sheets[1:] {
		perDialoger += len(s.Rows)
	}
	assert.Equal(t, 3, perDialoger)

	cla := wb.Sheet("Cla Caduff")
	assert.Empty(t, cla.Rows)
	assert.Empty(t, cla.Formats)

	f.payments.AssertExpectations(t)
	f.users.AssertExpectations(t)
	f.locations.AssertExpectations(t)
}

func TestAssembler_Generate_Empty(t *testing.T) {
	f := newFixture()
	f.payments.On("ListInRange", mock.Anything, rangeStart, rangeEnd).Return([]*domain.Payment{}, nil)
	f.users.On("ListNonAdmin", mock.Anything).Return([]*domain.User{}, nil)
	f.locations.On("List", mock.Anything).Return([]*domain.Location{}, nil)

	wb, err := f.assembler.Generate(context.Background(), rangeStart, rangeEnd)
	require.NoError(t, err)

	require.Len(t, wb.Sheets, 1)
	assert.Empty(t, wb.Sheets[0].Rows)
	assert.True(t, wb.Sheets[0].Summary.Total().IsZero())
}

func TestAssembler_Generate_QueryFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
	}{
		{
			name: "payments",
			setup: func(f *fixture) {
				f.payments.On("ListInRange", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))
				f.users.On("ListNonAdmin", mock.Anything).Return([]*domain.User{}, nil).Maybe()
				f.locations.On("List", mock.Anything).Return([]*domain.Location{}, nil).Maybe()
			},
		},
		{
			name: "users",
			setup: func(f *fixture) {
				f.payments.On("ListInRange", mock.Anything, mock.Anything, mock.Anything).Return([]*domain.Payment{}, nil).Maybe()
				f.users.On("ListNonAdmin", mock.Anything).Return(nil, errors.New("permission denied"))
				f.locations.On("List", mock.Anything).Return([]*domain.Location{}, nil).Maybe()
			},
		},
		{
			name: "locations",
			setup: func(f *fixture) {
				f.payments.On("ListInRange", mock.Anything, mock.Anything, mock.Anything).Return([]*domain.Payment{}, nil).Maybe()
				f.users.On("ListNonAdmin", mock.Anything).Return([]*domain.User{}, nil).Maybe()
				f.locations.On("List", mock.Anything).Return(nil, errors.New("timeout"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setup(f)

			wb, err := f.assembler.Generate(context.Background(), rangeStart, rangeEnd)

			assert.Nil(t, wb)
			require.Error(t, err)
			assert.ErrorIs(t, err, customError.ErrQueryFailure)
			assert.Equal(t, customError.ErrCodeQueryFailure, customError.Code(err))
			assert.Contains(t, err.Error(), tt.name)
		})
	}
}

func TestAssembler_Generate_InvalidRange(t *testing.T) {
	f := newFixture()

	_, err := f.assembler.Generate(context.Background(), rangeEnd, rangeStart)

	assert.ErrorIs(t, err, customError.ErrInvalidDateRange)
	f.payments.AssertNotCalled(t, "ListInRange", mock.Anything, mock.Anything, mock.Anything)
}

func TestAssembler_Generate_ZeroWidthRange(t *testing.T) {
	f := newFixture()
	users := []*domain.User{{ID: "u1", First: "Anna", Last: "Muster", Role: domain.RoleDialoger}}
	f.payments.On("ListInRange", mock.Anything, rangeStart, rangeStart).Return([]*domain.Payment{}, nil)
	f.users.On("ListNonAdmin", mock.Anything).Return(users, nil)
	f.locations.On("List", mock.Anything).Return([]*domain.Location{}, nil)

	wb, err := f.assembler.Generate(context.Background(), rangeStart, rangeStart)
	require.NoError(t, err)

	require.Len(t, wb.Sheets, 2)
	for _, s := range wb.Sheets {
		assert.Empty(t, s.Rows, s.Name)
		assert.Empty(t, s.Formats, s.Name)
		assert.Equal(t, report.Columns, s.Columns, s.Name)
		assert.True(t, s.Summary.Total().IsZero(), s.Name)
	}
	f.payments.AssertExpectations(t)
}

func TestAssembler_Generate_Idempotent(t *testing.T) {
	f := newFixture()
	payments := []*domain.Payment{
		payment("p1", "u1", 10),
		payment("p2", "u2", 25),
		payment("p3", "u1", 40),
	}
	payments[1].Type = domain.PaymentTypeRepeating
	payments[1].Interval = domain.IntervalQuarterly
	users := []*domain.User{
		{ID: "u1", First: "Anna", Last: "Muster", Role: domain.RoleDialoger},
		{ID: "u2", First: "Beat", Last: "Keller", Role: domain.RoleDialoger},
	}
	f.payments.On("ListInRange", mock.Anything, rangeStart, rangeEnd).Return(payments, nil)
	f.users.On("ListNonAdmin", mock.Anything).Return(users, nil)
	f.locations.On("List", mock.Anything).Return([]*domain.Location{}, nil)

	first, err := f.assembler.Generate(context.Background(), rangeStart, rangeEnd)
	require.NoError(t, err)
	second, err := f.assembler.Generate(context.Background(), rangeStart, rangeEnd)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	f.payments.AssertNumberOfCalls(t, "ListInRange", 2)
}

func TestAssembler_Generate_PartitionWithKnownDialogers(t *testing.T) {
	f := newFixture()
	payments := []*domain.Payment{
		payment("p1", "u1", 10),
		payment("p2", "u2", 20),
		payment("p3", "u3", 30),
		payment("p4", "u1", 40),
		payment("p5", "u2", 50),
	}
	users := []*domain.User{
		{ID: "u1", First: "Anna", Last: "Muster", Role: domain.RoleDialoger},
		{ID: "u2", First: "Beat", Last: "Keller", Role: domain.RoleDialoger},
		{ID: "u3", First: "Cla", Last: "Caduff", Role: domain.RoleDialoger},
	}
	f.payments.On("ListInRange", mock.Anything, rangeStart, rangeEnd).Return(payments, nil)
	f.users.On("ListNonAdmin", mock.Anything).Return(users, nil)
	f.locations.On("List", mock.Anything).Return([]*domain.Location{}, nil)

	wb, err := f.assembler.Generate(context.Background(), rangeStart, rangeEnd)
	require.NoError(t, err)

	all := wb.Sheet(report.AllPaymentsSheetName)
	require.NotNil(t, all)

	rows := 0
	total := decimal.Zero
	for _, s := range wb.Sheets[1:] {
		rows += len(s.Rows)
		total = total.Add(s.Summary.Total())
	}
	assert.Equal(t, len(all.Rows), rows)
	assert.True(t, all.Summary.Total().Equal(total), "per-dialoger totals %s, all %s", total, all.Summary.Total())
}

func TestAssembler_SheetNames(t *testing.T) {
	f := newFixture()
	users := []*domain.User{
		{ID: "u1", First: "Anna", Last: "Muster"},
		{ID: "u2", First: "anna", Last: "muster"},
		{ID: "u3", First: "Jean-Luc", Last: "Picard/Enterprise: NCC [1701]"},
		{ID: "u4", First: "", Last: ""},
		{ID: "u5", First: "Alle", Last: "Leistungen"},
		{ID: "u6", First: "Annemarie-Claude", Last: "Bernasconi-Vo'Donnell"},
		{ID: "u7", First: "Annemarie-Claude", Last: "Bernasconi-Vo'Donnell"},
		{ID: "u8", First: "'Quoted'", Last: ""},
	}
	f.payments.On("ListInRange", mock.Anything, rangeStart, rangeEnd).Return([]*domain.Payment{}, nil)
	f.users.On("ListNonAdmin", mock.Anything).Return(users, nil)
	f.locations.On("List", mock.Anything).Return([]*domain.Location{}, nil)

	wb, err := f.assembler.Generate(context.Background(), rangeStart, rangeEnd)
	require.NoError(t, err)

	names := make([]string, 0, len(wb.Sheets))
	for _, s := range wb.Sheets {
		names = append(names, s.Name)
		assert.LessOrEqual(t, len([]rune(s.Name)), 31)
		assert.False(t, strings.ContainsAny(s.Name, `:\/?*[]`))
		assert.False(t, strings.HasPrefix(s.Name, "'") || strings.HasSuffix(s.Name, "'"), s.Name)
		assert.Equal(t, strings.TrimSpace(s.Name), s.Name)
	}
	assert.Equal(t, []string{
		report.AllPaymentsSheetName,
		"Anna Muster",
		"anna muster (2)",
		"Jean-Luc Picard-Enterprise- NCC",
		report.UnknownName,
		"Alle Leistungen (2)",
		"Annemarie-Claude Bernasconi-Vo",
		"Annemarie-Claude Bernasconi (2)",
		"Quoted",
	}, names)
}
