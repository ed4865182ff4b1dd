package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"eventx/internal/domain"
)

const posterFolder = "eventx/events"

type eventService struct {
	eventRepo      domain.EventRepository
	images         domain.ImageHost
	uploads        domain.UploadGuard
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewEventService(eventRepo domain.EventRepository,
	images domain.ImageHost,
	uploads domain.UploadGuard,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		images:         images,
		uploads:        uploads,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, caller domain.Identity, input *domain.EventInput, poster *domain.Upload) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !caller.IsClubAdmin() {
		return nil, domain.ErrForbidden
	}
	if err := validateEventInput(input); err != nil {
		return nil, err
	}
	if poster == nil || poster.Body == nil {
		return nil, fmt.Errorf("%w: poster image is required", domain.ErrInvalidInput)
	}

	hash := posterHash(poster, caller.UserID)
	key := caller.UserID + ":" + strings.ToLower(input.Title) + ":" + hash
	ok, err := s.uploads.Acquire(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("acquire upload marker: %w", err)
	}
	if !ok {
		return nil, domain.ErrUploadInProgress
	}
	defer func() {
		if err := s.uploads.Release(context.WithoutCancel(ctx), key); err != nil {
			s.logger.WarnContext(ctx, "release upload marker failed", "error", err)
		}
	}()

	if _, err := s.eventRepo.GetByCreatorAndTitle(ctx, caller.UserID, input.Title); err == nil {
		return nil, domain.ErrDuplicateEventTitle
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check event title: %w", err)
	}

	hosted, err := s.images.Upload(ctx, poster, posterFolder)
	if err != nil {
		return nil, fmt.Errorf("upload poster: %w", err)
	}
	hosted.Hash = hash

	now := time.Now()
	event := &domain.Event{
		ClubID:          caller.ClubID,
		CreatorID:       caller.UserID,
		Title:           input.Title,
		Description:     input.Description,
		LongDescription: input.LongDescription,
		DateTime:        input.DateTime,
		Location:        input.Location,
		Price:           input.Price,
		Poster:          *hosted,
		Coordinators:    input.Coordinators,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		s.destroyPoster(ctx, hosted.PublicID)
		if errors.Is(err, domain.ErrDuplicateEventTitle) {
			return nil, err
		}
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (s *eventService) ListMyEvents(ctx context.Context, caller domain.Identity) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !caller.IsClubAdmin() {
		return nil, domain.ErrForbidden
	}
	events, err := s.eventRepo.ListByCreator(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

// UpdateEvent applies patch. A new poster replaces the old one, which is
// destroyed only after the row points at the new image.
func (s *eventService) UpdateEvent(ctx context.Context, caller domain.Identity, id string, patch *domain.EventPatch, poster *domain.Upload) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.ownedEvent(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	applyEventPatch(event, patch)
	if err := validateEventInput(&domain.EventInput{
		Title:        event.Title,
		Description:  event.Description,
		DateTime:     event.DateTime,
		Location:     event.Location,
		Price:        event.Price,
		Coordinators: event.Coordinators,
	}); err != nil {
		return nil, err
	}

	oldPoster := event.Poster
	if poster != nil && poster.Body != nil {
		hosted, err := s.images.Upload(ctx, poster, posterFolder)
		if err != nil {
			return nil, fmt.Errorf("upload poster: %w", err)
		}
		hosted.Hash = posterHash(poster, caller.UserID)
		event.Poster = *hosted
	}
	event.UpdatedAt = time.Now()

	if err := s.eventRepo.Update(ctx, event); err != nil {
		if event.Poster.PublicID != oldPoster.PublicID {
			s.destroyPoster(ctx, event.Poster.PublicID)
		}
		if errors.Is(err, domain.ErrDuplicateEventTitle) {
			return nil, err
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	if event.Poster.PublicID != oldPoster.PublicID {
		s.destroyPoster(ctx, oldPoster.PublicID)
	}
	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, caller domain.Identity, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.ownedEvent(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrEventNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	s.destroyPoster(ctx, event.Poster.PublicID)
	return nil
}

func (s *eventService) ownedEvent(ctx context.Context, caller domain.Identity, id string) (*domain.Event, error) {
	if !caller.IsClubAdmin() {
		return nil, domain.ErrForbidden
	}
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.CreatorID != caller.UserID {
		return nil, domain.ErrForbidden
	}
	return event, nil
}

// destroyPoster is best-effort; a leaked image only costs storage.
func (s *eventService) destroyPoster(ctx context.Context, publicID string) {
	if publicID == "" {
		return
	}
	if err := s.images.Destroy(context.WithoutCancel(ctx), publicID); err != nil {
		s.logger.WarnContext(ctx, "destroy poster failed", "public_id", publicID, "error", err)
	}
}

func applyEventPatch(e *domain.Event, p *domain.EventPatch) {
	if p == nil {
		return
	}
	if p.Title != nil {
		e.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.LongDescription != nil {
		e.LongDescription = *p.LongDescription
	}
	if p.DateTime != nil {
		e.DateTime = *p.DateTime
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Price != nil {
		e.Price = *p.Price
	}
	if p.Coordinators != nil {
		e.Coordinators = p.Coordinators
	}
}

func validateEventInput(in *domain.EventInput) error {
	if in == nil {
		return fmt.Errorf("%w: event data is required", domain.ErrInvalidInput)
	}
	var errs []string
	if strings.TrimSpace(in.Title) == "" {
		errs = append(errs, "title is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		errs = append(errs, "description is required")
	}
	if strings.TrimSpace(in.Location) == "" {
		errs = append(errs, "location is required")
	}
	if in.DateTime.IsZero() {
		errs = append(errs, "date_time is required")
	}
	if in.Price.IsNegative() {
		errs = append(errs, "price must be zero or positive")
	}
	if len(in.Coordinators) == 0 {
		errs = append(errs, "at least one coordinator is required")
	}
	for i, c := range in.Coordinators {
		if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Contact) == "" {
			errs = append(errs, fmt.Sprintf("coordinator %d needs a name and contact", i+1))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(errs, "; "))
	}
	return nil
}

// posterHash fingerprints an upload by name, size and uploader.
func posterHash(u *domain.Upload, userID string) string {
	sum := md5.Sum([]byte(u.Filename + "_" + strconv.FormatInt(u.Size, 10) + "_" + userID))
	return hex.EncodeToString(sum[:])
}
