package domain

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// Coordinator is a contact person listed on an event.
type Coordinator struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// Poster is a hosted image reference.
type Poster struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Hash     string `json:"hash,omitempty"`
}

// Event is a club-hosted activity. A zero Price means the event is free.
// swagger:model Event
type Event struct {
	ID              string          `json:"id"`
	ClubID          string          `json:"club_id"`
	CreatorID       string          `json:"creator_id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	LongDescription string          `json:"long_description"`
	DateTime        time.Time       `json:"date_time"`
	Location        string          `json:"location"`
	Price           decimal.Decimal `json:"price" swaggertype:"string"`
	Poster          Poster          `json:"poster"`
	Coordinators    []Coordinator   `json:"coordinators"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// IsFree reports whether booking the event needs no payment.
func (e *Event) IsFree() bool {
	return e.Price.IsZero()
}

// EventInput carries the writable fields of an event.
type EventInput struct {
	Title           string
	Description     string
	LongDescription string
	DateTime        time.Time
	Location        string
	Price           decimal.Decimal
	Coordinators    []Coordinator
}

// EventPatch replaces any subset of event fields; nil means unchanged.
type EventPatch struct {
	Title           *string
	Description     *string
	LongDescription *string
	DateTime        *time.Time
	Location        *string
	Price           *decimal.Decimal
	Coordinators    []Coordinator
}

// Upload is an image file submitted by a client.
type Upload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// ImageHost stores poster images at a hosting provider.
type ImageHost interface {
	Upload(ctx context.Context, upload *Upload, folder string) (*Poster, error)
	Destroy(ctx context.Context, publicID string) error
}

// UploadGuard marks an upload request as in flight for a bounded time.
type UploadGuard interface {
	// Acquire returns false when the key is already held.
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	GetByCreatorAndTitle(ctx context.Context, creatorID, title string) (*Event, error)
	List(ctx context.Context) ([]*Event, error)
	ListByCreator(ctx context.Context, creatorID string) ([]*Event, error)
	Update(ctx context.Context, event *Event) error
	Delete(ctx context.Context, id string) error
}

// EventService defines event management operations.
type EventService interface {
	CreateEvent(ctx context.Context, caller Identity, input *EventInput, poster *Upload) (*Event, error)
	GetEvent(ctx context.Context, id string) (*Event, error)
	ListEvents(ctx context.Context) ([]*Event, error)
	ListMyEvents(ctx context.Context, caller Identity) ([]*Event, error)
	UpdateEvent(ctx context.Context, caller Identity, id string, patch *EventPatch, poster *Upload) (*Event, error)
	DeleteEvent(ctx context.Context, caller Identity, id string) error
}
