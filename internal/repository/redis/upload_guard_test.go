package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadGuard_Acquire(t *testing.T) {
	ctx := context.Background()
	ttl := 5 * time.Minute

	tests := []struct {
		name    string
		setup   func(mock redismock.ClientMock)
		want    bool
		wantErr bool
	}{
		{
			name: "first request acquires",
			setup: func(mock redismock.ClientMock) {
				mock.ExpectSetNX("eventx:upload:k1", "in-flight", ttl).SetVal(true)
			},
			want: true,
		},
		{
			name: "concurrent request is refused",
			setup: func(mock redismock.ClientMock) {
				mock.ExpectSetNX("eventx:upload:k1", "in-flight", ttl).SetVal(false)
			},
			want: false,
		},
		{
			name: "redis failure",
			setup: func(mock redismock.ClientMock) {
				mock.ExpectSetNX("eventx:upload:k1", "in-flight", ttl).SetErr(errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock := redismock.NewClientMock()
			tt.setup(mock)

			got, err := NewUploadGuard(client, ttl).Acquire(ctx, "k1")
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUploadGuard_Release(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectDel("eventx:upload:k1").SetVal(1)

	require.NoError(t, NewUploadGuard(client, time.Minute).Release(context.Background(), "k1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
