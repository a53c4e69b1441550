package repository

import "github.com/jmoiron/sqlx"

// NewPostgresStore wires the sqlx repositories into a Store
func NewPostgresStore(db *sqlx.DB) *Store {
	return &Store{
		Payments:  NewPaymentRepository(db),
		Users:     NewUserRepository(db),
		Locations: NewLocationRepository(db),
		Config:    NewConfigRepository(db),
	}
}
