package repository

import (
	"context"

	"github.com/segyhp/dialoger-export/internal/domain"

	"github.com/jmoiron/sqlx"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// ListNonAdmin orders by role and id, the same order the document store
// uses for an inequality filter on role. Users without a role are excluded,
// as the document store skips documents missing the filtered field.
func (r *userRepository) ListNonAdmin(ctx context.Context) ([]*domain.User, error) {
	query := `
		SELECT id, first_name, last_name, role, linked
		FROM users
		WHERE role IS NOT NULL AND role <> $1
		ORDER BY role, id
	`

	users := []*domain.User{}
	err := r.db.SelectContext(ctx, &users, query, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}

	return users, nil
}
