package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"eventx/internal/domain"
)

const eventsTitleConstraint = "events_creator_title_key"

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

const eventColumns = `id, club_id, creator_id, title, description, long_description, date_time, location,
	price, poster_url, poster_public_id, poster_hash, coordinators, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*domain.Event, error) {
	e := &domain.Event{}
	var coordinators []byte
	err := row.Scan(
		&e.ID, &e.ClubID, &e.CreatorID, &e.Title, &e.Description, &e.LongDescription, &e.DateTime, &e.Location,
		&e.Price, &e.Poster.URL, &e.Poster.PublicID, &e.Poster.Hash, &coordinators, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(coordinators) > 0 {
		if err := json.Unmarshal(coordinators, &e.Coordinators); err != nil {
			return nil, fmt.Errorf("decode coordinators: %w", err)
		}
	}
	if e.Coordinators == nil {
		e.Coordinators = []domain.Coordinator{}
	}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	coordinators, err := json.Marshal(e.Coordinators)
	if err != nil {
		return fmt.Errorf("encode coordinators: %w", err)
	}
	query := `
		INSERT INTO events (club_id, creator_id, title, description, long_description, date_time, location,
			price, poster_url, poster_public_id, poster_hash, coordinators, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	err = r.DB.QueryRowContext(ctx, query,
		e.ClubID, e.CreatorID, e.Title, e.Description, e.LongDescription, e.DateTime, e.Location,
		e.Price, e.Poster.URL, e.Poster.PublicID, e.Poster.Hash, coordinators, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if name, ok := uniqueConstraint(err); ok && name == eventsTitleConstraint {
		return domain.ErrDuplicateEventTitle
	}
	return err
}

// validEventID reports whether id can be compared with the uuid column.
// Anything else cannot name an event and is treated as not found.
func validEventID(id string) bool {
	return uuid.Validate(id) == nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if !validEventID(id) {
		return nil, domain.ErrNotFound
	}
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 AND deleted_at IS NULL`
	return scanEvent(r.DB.QueryRowContext(ctx, query, id))
}

func (r *eventRepository) GetByCreatorAndTitle(ctx context.Context, creatorID, title string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE creator_id = $1 AND title = $2 AND deleted_at IS NULL`
	return scanEvent(r.DB.QueryRowContext(ctx, query, creatorID, title))
}

func (r *eventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE deleted_at IS NULL ORDER BY date_time ASC`
	return r.list(ctx, query)
}

func (r *eventRepository) ListByCreator(ctx context.Context, creatorID string) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE creator_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`
	return r.list(ctx, query, creatorID)
}

func (r *eventRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	coordinators, err := json.Marshal(e.Coordinators)
	if err != nil {
		return fmt.Errorf("encode coordinators: %w", err)
	}
	query := `
		UPDATE events
		SET title = $1, description = $2, long_description = $3, date_time = $4, location = $5, price = $6,
			poster_url = $7, poster_public_id = $8, poster_hash = $9, coordinators = $10, updated_at = $11
		WHERE id = $12 AND deleted_at IS NULL
	`
	if !validEventID(e.ID) {
		return domain.ErrNotFound
	}
	res, err := r.DB.ExecContext(ctx, query,
		e.Title, e.Description, e.LongDescription, e.DateTime, e.Location, e.Price,
		e.Poster.URL, e.Poster.PublicID, e.Poster.Hash, coordinators, e.UpdatedAt, e.ID,
	)
	if err != nil {
		if name, ok := uniqueConstraint(err); ok && name == eventsTitleConstraint {
			return domain.ErrDuplicateEventTitle
		}
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

// Delete hides the event. The row stays so its bookings and payment orders
// keep their foreign key.
func (r *eventRepository) Delete(ctx context.Context, id string) error {
	if !validEventID(id) {
		return domain.ErrNotFound
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE events SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
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
