package cloudinary

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventx/internal/domain"
)

type fakeUploadAPI struct {
	params    uploader.UploadParams
	destroyed string
	result    *uploader.UploadResult
	err       error
}

func (f *fakeUploadAPI) Upload(_ context.Context, _ interface{}, p uploader.UploadParams) (*uploader.UploadResult, error) {
	f.params = p
	return f.result, f.err
}

func (f *fakeUploadAPI) Destroy(_ context.Context, p uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.destroyed = p.PublicID
	return &uploader.DestroyResult{Result: "ok"}, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestImageHost_Upload(t *testing.T) {
	fake := &fakeUploadAPI{result: &uploader.UploadResult{
		SecureURL: "https://res.cloudinary.com/demo/image/upload/events/p1.png",
		PublicID:  "events/p1",
	}}
	h := &imageHost{api: fake, logger: discardLogger()}

	poster, err := h.Upload(context.Background(), &domain.Upload{Filename: "p1.png", Body: strings.NewReader("img")}, "events")
	require.NoError(t, err)
	assert.Equal(t, "events/p1", poster.PublicID)
	assert.Equal(t, "events", fake.params.Folder)
	assert.Equal(t, "image", fake.params.ResourceType)
}

func TestImageHost_Upload_apiError(t *testing.T) {
	fake := &fakeUploadAPI{result: &uploader.UploadResult{Error: api.ErrorResp{Message: "Invalid image file"}}}
	h := &imageHost{api: fake, logger: discardLogger()}

	_, err := h.Upload(context.Background(), &domain.Upload{Body: strings.NewReader("x")}, "events")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid image file")
}

func TestImageHost_Destroy(t *testing.T) {
	fake := &fakeUploadAPI{}
	h := &imageHost{api: fake, logger: discardLogger()}

	require.NoError(t, h.Destroy(context.Background(), "events/p1"))
	assert.Equal(t, "events/p1", fake.destroyed)

	fake.destroyed = ""
	require.NoError(t, h.Destroy(context.Background(), ""))
	assert.Empty(t, fake.destroyed)

	fake.err = errors.New("boom")
	assert.Error(t, h.Destroy(context.Background(), "events/p2"))
}

func TestNewImageHost_disabled(t *testing.T) {
	h, err := NewImageHost("", discardLogger())
	require.NoError(t, err)
	_, err = h.Upload(context.Background(), &domain.Upload{}, "events")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
