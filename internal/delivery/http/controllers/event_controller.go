package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"eventx/internal/delivery/http/helpers"
	"eventx/internal/delivery/http/middleware"
	"eventx/internal/domain"
)

const (
	maxEventFormMemory = 10 << 20
	maxPosterSize      = 5 << 20
	posterField        = "poster"
)

// EventSuccessResponse is the success envelope for a single event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventListSuccessResponse is the success envelope for event lists.
type EventListSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type EventController struct {
	Logger         *slog.Logger
	Service        domain.EventService
	ExposeInternal bool
}

func NewEventController(logger *slog.Logger, svc domain.EventService, exposeInternal bool) *EventController {
	return &EventController{
		Logger:         logger,
		Service:        svc,
		ExposeInternal: exposeInternal,
	}
}

// eventForm reads the multipart event fields. Absent fields stay nil.
type eventForm struct {
	title           *string
	description     *string
	longDescription *string
	dateTime        *time.Time
	location        *string
	price           *decimal.Decimal
	coordinators    []domain.Coordinator
	hasCoordinators bool
}

func parseEventForm(form *multipart.Form) (*eventForm, []string) {
	var (
		f    eventForm
		errs []string
	)
	value := func(key string) (string, bool) {
		v, ok := form.Value[key]
		if !ok || len(v) == 0 {
			return "", false
		}
		return strings.TrimSpace(v[0]), true
	}

	if v, ok := value("title"); ok {
		f.title = &v
	}
	if v, ok := value("description"); ok {
		f.description = &v
	}
	if v, ok := value("longDescription"); ok {
		f.longDescription = &v
	}
	if v, ok := value("location"); ok {
		f.location = &v
	}
	if v, ok := value("dateTime"); ok {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			errs = append(errs, "dateTime must be an RFC 3339 timestamp")
		} else {
			f.dateTime = &t
		}
	}
	if v, ok := value("price"); ok {
		p, err := decimal.NewFromString(v)
		if err != nil {
			errs = append(errs, "price must be a number")
		} else {
			f.price = &p
		}
	}
	if v, ok := value("coordinators"); ok {
		f.hasCoordinators = true
		if err := json.Unmarshal([]byte(v), &f.coordinators); err != nil {
			errs = append(errs, "coordinators must be a JSON array of {name, contact}")
		}
	}
	return &f, errs
}

func (f *eventForm) input() *domain.EventInput {
	in := &domain.EventInput{Coordinators: f.coordinators}
	if f.title != nil {
		in.Title = *f.title
	}
	if f.description != nil {
		in.Description = *f.description
	}
	if f.longDescription != nil {
		in.LongDescription = *f.longDescription
	}
	if f.dateTime != nil {
		in.DateTime = *f.dateTime
	}
	if f.location != nil {
		in.Location = *f.location
	}
	if f.price != nil {
		in.Price = *f.price
	}
	return in
}

func (f *eventForm) patch() *domain.EventPatch {
	p := &domain.EventPatch{
		Title:           f.title,
		Description:     f.description,
		LongDescription: f.longDescription,
		DateTime:        f.dateTime,
		Location:        f.location,
		Price:           f.price,
	}
	if f.hasCoordinators {
		p.Coordinators = f.coordinators
	}
	return p
}

// readPoster returns the uploaded poster, or nil when none was sent. The
// caller closes the returned file.
func readPoster(r *http.Request) (*domain.Upload, multipart.File, error) {
	file, header, err := r.FormFile(posterField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if header.Size > maxPosterSize {
		file.Close()
		return nil, nil, fmt.Errorf("%w: poster must be at most %d MB", domain.ErrInvalidInput, maxPosterSize>>20)
	}
	if ct := header.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		file.Close()
		return nil, nil, fmt.Errorf("%w: poster must be an image", domain.ErrInvalidInput)
	}
	return &domain.Upload{Filename: header.Filename, Size: header.Size, Body: file}, file, nil
}

// parseMultipart reads the event form and the optional poster. It writes the
// 400 itself and returns ok=false on failure.
func (c *EventController) parseMultipart(w http.ResponseWriter, r *http.Request) (*eventForm, *domain.Upload, multipart.File, bool) {
	if err := r.ParseMultipartForm(maxEventFormMemory); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "expected multipart/form-data body")
		return nil, nil, nil, false
	}
	form, errs := parseEventForm(r.MultipartForm)
	if len(errs) > 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, strings.Join(errs, "; "))
		return nil, nil, nil, false
	}
	poster, file, err := readPoster(r)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return nil, nil, nil, false
	}
	return form, poster, file, true
}

// CreateEvent godoc
// @Summary Create an event
// @Description Club admin only. Multipart form with title, description, longDescription, dateTime (RFC 3339), location, price, coordinators (JSON array of {name, contact}) and a required poster image.
// @Tags events
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title, unique per club admin"
// @Param description formData string true "Short description"
// @Param longDescription formData string false "Long description"
// @Param dateTime formData string true "Start time (RFC 3339)"
// @Param location formData string true "Location"
// @Param price formData string true "Price, 0 for free events"
// @Param coordinators formData string true "JSON array of {name, contact}"
// @Param poster formData file true "Poster image"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: DUPLICATE_EVENT_TITLE or UPLOAD_IN_PROGRESS"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	form, poster, file, ok := c.parseMultipart(w, r)
	if !ok {
		return
	}
	if file != nil {
		defer file.Close()
	}

	event, err := c.Service.CreateEvent(r.Context(), caller, form.input(), poster)
	if err != nil {
		respondError(c.Logger, c.ExposeInternal, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// ListEvents godoc
// @Summary List events
// @Description Returns every event ordered by start time.
// @Tags events
// @Produce json
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := c.Service.ListEvents(r.Context())
	if err != nil {
		respondError(c.Logger, c.ExposeInternal, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// ListMyEvents godoc
// @Summary List my events
// @Description Club admin only. Returns the events created by the caller.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/mine [get]
func (c *EventController) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	events, err := c.Service.ListMyEvents(r.Context(), caller)
	if err != nil {
		respondError(c.Logger, c.ExposeInternal, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// GetEvent godoc
// @Summary Get an event
// @Tags events
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: EVENT_NOT_FOUND"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventId} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := c.Service.GetEvent(r.Context(), r.PathValue("eventId"))
	if err != nil {
		respondError(c.Logger, c.ExposeInternal, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Owner only. Multipart form; every field is optional and omitted fields are unchanged. A new poster replaces the old one, which is deleted from the image host after the update is stored.
// @Tags events
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Param title formData string false "Title"
// @Param description formData string false "Short description"
// @Param longDescription formData string false "Long description"
// @Param dateTime formData string false "Start time (RFC 3339)"
// @Param location formData string false "Location"
// @Param price formData string false "Price"
// @Param coordinators formData string false "JSON array of {name, contact}"
// @Param poster formData file false "Replacement poster image"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: EVENT_NOT_FOUND"
// @Failure 409 {object} helpers.APIResponse "error.code: DUPLICATE_EVENT_TITLE"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventId} [put]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	form, poster, file, ok := c.parseMultipart(w, r)
	if !ok {
		return
	}
	if file != nil {
		defer file.Close()
	}

	event, err := c.Service.UpdateEvent(r.Context(), caller, r.PathValue("eventId"), form.patch(), poster)
	if err != nil {
		respondError(c.Logger, c.ExposeInternal, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Owner only. Also deletes the hosted poster.
// @Tags events
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Success 204 "deleted"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: EVENT_NOT_FOUND"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventId} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.DeleteEvent(r.Context(), caller, r.PathValue("eventId")); err != nil {
		respondError(c.Logger, c.ExposeInternal, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
