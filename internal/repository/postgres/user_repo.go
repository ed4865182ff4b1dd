package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventx/internal/domain"
)

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `id, username, password_hash, salt, role, club_id, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	u := &domain.User{}
	var role string
	var clubID sql.NullString
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Salt, &role, &clubID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	u.Role = domain.Role(role)
	if clubID.Valid {
		u.ClubID = &clubID.String
	}
	return u, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.DB.QueryRowContext(ctx, query, username))
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.DB.QueryRowContext(ctx, query, id))
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, hash, salt string, updatedAt time.Time) error {
	query := `
		UPDATE users
		SET password_hash = $1, salt = $2, updated_at = $3
		WHERE id = $4
	`
	res, err := r.DB.ExecContext(ctx, query, hash, salt, updatedAt, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
