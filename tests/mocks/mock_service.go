package mocks

import (
	"context"
	"time"

	"github.com/segyhp/dialoger-export/internal/domain"
	"github.com/segyhp/dialoger-export/internal/mailer"
	"github.com/segyhp/dialoger-export/internal/report"
	"github.com/stretchr/testify/mock"
)

type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) Location() *time.Location {
	args := m.Called()
	if args.Get(0) == nil {
		return time.UTC
	}
	return args.Get(0).(*time.Location)
}

func (m *MockExportService) BuildExport(ctx context.Context, trigger string, start, end time.Time) (*domain.Export, error) {
	args := m.Called(ctx, trigger, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Export), args.Error(1)
}

func (m *MockExportService) EmailExport(ctx context.Context, trigger string, start, end time.Time) (*domain.ExportResponse, error) {
	args := m.Called(ctx, trigger, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExportResponse), args.Error(1)
}

// NewMockExportService creates a new mock export service instance
func NewMockExportService() *MockExportService {
	return &MockExportService{}
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, start, end time.Time) (*report.Workbook, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Workbook), args.Error(1)
}

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(wb *report.Workbook) ([]byte, error) {
	args := m.Called(wb)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg *mailer.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
