package mocks

import (
	"context"
	"time"

	"github.com/segyhp/dialoger-export/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) ListInRange(ctx context.Context, start, end time.Time) ([]*domain.Payment, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) ListNonAdmin(ctx context.Context) ([]*domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) List(ctx context.Context) ([]*domain.Location, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Location), args.Error(1)
}

type MockConfigRepository struct {
	mock.Mock
}

func (m *MockConfigRepository) GetExportConfig(ctx context.Context) (*domain.ExportConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExportConfig), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Claim(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedger) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
