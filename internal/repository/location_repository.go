package repository

import (
	"context"

	"github.com/segyhp/dialoger-export/internal/domain"

	"github.com/jmoiron/sqlx"
)

type locationRepository struct {
	db *sqlx.DB
}

func NewLocationRepository(db *sqlx.DB) LocationRepository {
	return &locationRepository{db: db}
}

func (r *locationRepository) List(ctx context.Context) ([]*domain.Location, error) {
	query := `
		SELECT id, name, town
		FROM locations
		ORDER BY id
	`

	locations := []*domain.Location{}
	err := r.db.SelectContext(ctx, &locations, query)
	if err != nil {
		return nil, err
	}

	return locations, nil
}
