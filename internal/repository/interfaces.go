package repository

import (
	"context"
	"errors"
	"time"

	"github.com/segyhp/dialoger-export/internal/domain"
)

// ErrExportConfigNotFound is returned when the delivery configuration document is absent
var ErrExportConfigNotFound = errors.New("export config not found")

// PaymentRepository defines the read operations on payment records
type PaymentRepository interface {
	// ListInRange returns all payments with start <= timestamp < end,
	// ordered by timestamp and id
	ListInRange(ctx context.Context, start, end time.Time) ([]*domain.Payment, error)
}

// UserRepository defines the read operations on users
type UserRepository interface {
	// ListNonAdmin returns every user whose role is not admin
	ListNonAdmin(ctx context.Context) ([]*domain.User, error)
}

// LocationRepository defines the read operations on locations
type LocationRepository interface {
	// List returns all locations
	List(ctx context.Context) ([]*domain.Location, error)
}

// ConfigRepository gives access to configuration stored alongside the data
type ConfigRepository interface {
	// GetExportConfig returns the auto-export delivery configuration
	GetExportConfig(ctx context.Context) (*domain.ExportConfig, error)
}

// Store bundles the repositories of one backend
type Store struct {
	Payments  PaymentRepository
	Users     UserRepository
	Locations LocationRepository
	Config    ConfigRepository
}
