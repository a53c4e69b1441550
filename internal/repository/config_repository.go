package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/segyhp/dialoger-export/internal/domain"

	"github.com/jmoiron/sqlx"
)

type configRepository struct {
	db *sqlx.DB
}

func NewConfigRepository(db *sqlx.DB) ConfigRepository {
	return &configRepository{db: db}
}

func (r *configRepository) GetExportConfig(ctx context.Context) (*domain.ExportConfig, error) {
	query := `
		SELECT email
		FROM export_config
		WHERE id = 'autoexport'
	`

	var cfg domain.ExportConfig
	err := r.db.GetContext(ctx, &cfg, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExportConfigNotFound
	}
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
