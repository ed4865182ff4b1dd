package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventx/internal/domain"
)

type clubRepository struct {
	DB *sql.DB
}

func NewClubRepository(db *sql.DB) domain.ClubRepository {
	return &clubRepository{DB: db}
}

func (r *clubRepository) GetByID(ctx context.Context, id string) (*domain.Club, error) {
	query := `
		SELECT id, name, description, logo_url, created_at, updated_at
		FROM clubs
		WHERE id = $1
	`
	c := &domain.Club{}
	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.LogoURL, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}
