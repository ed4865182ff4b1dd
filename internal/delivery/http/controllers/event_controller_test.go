package controllers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventx/internal/delivery/http/helpers"
	"eventx/internal/domain"
)

type fakeEventService struct {
	gotInput     *domain.EventInput
	gotPatch     *domain.EventPatch
	gotPoster    []byte
	gotFilename  string
	gotDeletedID string
	event        *domain.Event
	events       []*domain.Event
	err          error
}

func (f *fakeEventService) readPoster(poster *domain.Upload) {
	if poster == nil {
		return
	}
	f.gotFilename = poster.Filename
	f.gotPoster, _ = io.ReadAll(poster.Body)
}

func (f *fakeEventService) CreateEvent(_ context.Context, _ domain.Identity, input *domain.EventInput, poster *domain.Upload) (*domain.Event, error) {
	f.gotInput = input
	f.readPoster(poster)
	return f.event, f.err
}

func (f *fakeEventService) GetEvent(_ context.Context, _ string) (*domain.Event, error) {
	return f.event, f.err
}

func (f *fakeEventService) ListEvents(_ context.Context) ([]*domain.Event, error) {
	return f.events, f.err
}

func (f *fakeEventService) ListMyEvents(_ context.Context, _ domain.Identity) ([]*domain.Event, error) {
	return f.events, f.err
}

func (f *fakeEventService) UpdateEvent(_ context.Context, _ domain.Identity, _ string, patch *domain.EventPatch, poster *domain.Upload) (*domain.Event, error) {
	f.gotPatch = patch
	f.readPoster(poster)
	return f.event, f.err
}

func (f *fakeEventService) DeleteEvent(_ context.Context, _ domain.Identity, id string) error {
	f.gotDeletedID = id
	return f.err
}

type formFile struct {
	name        string
	contentType string
	body        []byte
}

func multipartBody(t *testing.T, fields map[string]string, file *formFile) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="poster"; filename="`+file.name+`"`)
		h.Set("Content-Type", file.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func eventFields() map[string]string {
	return map[string]string{
		"title":        "Hack Night",
		"description":  "24h build",
		"dateTime":     "2026-11-02T09:00:00+05:30",
		"location":     "Lab 3",
		"price":        "499.50",
		"coordinators": `[{"name":"Ravi","contact":"9000000000"}]`,
	}
}

func TestEventController_CreateEvent(t *testing.T) {
	png := &formFile{name: "poster.png", contentType: "image/png", body: []byte("\x89PNG fake")}

	tests := []struct {
		name       string
		fields     map[string]string
		file       *formFile
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{name: "created", fields: eventFields(), file: png, wantStatus: http.StatusCreated},
		{name: "bad price", fields: map[string]string{"price": "free"}, file: png, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "bad coordinators", fields: map[string]string{"coordinators": "Ravi"}, file: png, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "bad date", fields: map[string]string{"dateTime": "next friday"}, file: png, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "poster not an image", fields: eventFields(), file: &formFile{name: "x.pdf", contentType: "application/pdf", body: []byte("%PDF")}, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "duplicate title", fields: eventFields(), file: png, svcErr: domain.ErrDuplicateEventTitle, wantStatus: http.StatusConflict, wantCode: helpers.ErrCodeDuplicateEventTitle},
		{name: "upload in flight", fields: eventFields(), file: png, svcErr: domain.ErrUploadInProgress, wantStatus: http.StatusConflict, wantCode: helpers.ErrCodeUploadInProgress},
		{name: "not a club admin", fields: eventFields(), file: png, svcErr: domain.ErrForbidden, wantStatus: http.StatusForbidden, wantCode: helpers.ErrCodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeEventService{event: &domain.Event{ID: "ev-1", Title: "Hack Night"}, err: tt.svcErr}
			ctrl := NewEventController(testLogger(), svc, false)

			body, contentType := multipartBody(t, tt.fields, tt.file)
			req := withIdentity(httptest.NewRequest(http.MethodPost, "/events", body), clubAdmin)
			req.Header.Set("Content-Type", contentType)
			rr := httptest.NewRecorder()
			ctrl.CreateEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantCode != "" {
				apiErr := decodeEnvelope(t, rr, nil)
				require.NotNil(t, apiErr)
				assert.Equal(t, tt.wantCode, apiErr.Code)
				return
			}
			require.NotNil(t, svc.gotInput)
			assert.Equal(t, "Hack Night", svc.gotInput.Title)
			assert.Equal(t, "499.5", svc.gotInput.Price.String())
			assert.True(t, svc.gotInput.DateTime.Equal(time.Date(2026, 11, 2, 3, 30, 0, 0, time.UTC)))
			assert.Equal(t, []domain.Coordinator{{Name: "Ravi", Contact: "9000000000"}}, svc.gotInput.Coordinators)
			assert.Equal(t, "poster.png", svc.gotFilename)
			assert.Equal(t, png.body, svc.gotPoster)
		})
	}
}

func TestEventController_CreateEvent_notMultipart(t *testing.T) {
	ctrl := NewEventController(testLogger(), &fakeEventService{}, false)
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/events", bytes.NewBufferString(`{"title":"x"}`)), clubAdmin)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	ctrl.CreateEvent(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEventController_UpdateEvent_partialPatch(t *testing.T) {
	svc := &fakeEventService{event: &domain.Event{ID: "ev-1"}}
	ctrl := NewEventController(testLogger(), svc, false)

	body, contentType := multipartBody(t, map[string]string{"location": "Main Hall"}, nil)
	req := withIdentity(httptest.NewRequest(http.MethodPut, "/events/ev-1", body), clubAdmin)
	req.Header.Set("Content-Type", contentType)
	req.SetPathValue("eventId", "ev-1")
	rr := httptest.NewRecorder()
	ctrl.UpdateEvent(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, svc.gotPatch)
	require.NotNil(t, svc.gotPatch.Location)
	assert.Equal(t, "Main Hall", *svc.gotPatch.Location)
	assert.Nil(t, svc.gotPatch.Title)
	assert.Nil(t, svc.gotPatch.Price)
	assert.Nil(t, svc.gotPatch.Coordinators)
	assert.Empty(t, svc.gotFilename)
}

func TestEventController_DeleteEvent(t *testing.T) {
	svc := &fakeEventService{}
	ctrl := NewEventController(testLogger(), svc, false)

	req := withIdentity(httptest.NewRequest(http.MethodDelete, "/events/ev-1", nil), clubAdmin)
	req.SetPathValue("eventId", "ev-1")
	rr := httptest.NewRecorder()
	ctrl.DeleteEvent(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "ev-1", svc.gotDeletedID)

	svc.err = domain.ErrEventNotFound
	rr = httptest.NewRecorder()
	ctrl.DeleteEvent(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEventController_ListEvents(t *testing.T) {
	svc := &fakeEventService{events: []*domain.Event{{ID: "ev-1"}, {ID: "ev-2"}}}
	ctrl := NewEventController(testLogger(), svc, false)

	rr := httptest.NewRecorder()
	ctrl.ListEvents(rr, httptest.NewRequest(http.MethodGet, "/events", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var got []*domain.Event
	require.Nil(t, decodeEnvelope(t, rr, &got))
	assert.Len(t, got, 2)
}
