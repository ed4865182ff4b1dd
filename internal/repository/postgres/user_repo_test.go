package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventx/internal/domain"
)

func TestUserRepository_GetByUsername(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	cols := []string{"id", "username", "password_hash", "salt", "role", "club_id", "created_at", "updated_at"}

	tests := []struct {
		name     string
		mock     func(mock sqlmock.Sqlmock)
		wantErr  error
		wantClub bool
	}{
		{
			name: "club admin",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE username = $1`)).
					WithArgs("robotics").
					WillReturnRows(sqlmock.NewRows(cols).AddRow("u1", "robotics", "hash", "salt", "club-admin", "c1", now, now))
			},
			wantClub: true,
		},
		{
			name: "regular user has no club",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE username = $1`)).
					WithArgs("robotics").
					WillReturnRows(sqlmock.NewRows(cols).AddRow("u1", "robotics", "hash", "salt", "user", nil, now, now))
			},
		},
		{
			name: "not found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM users`).WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			u, err := NewUserRepository(db).GetByUsername(ctx, "robotics")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "robotics", u.Username)
				assert.Equal(t, tt.wantClub, u.IsClubAdmin())
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE users`).
			WithArgs("new-hash", "new-salt", at, "u1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, NewUserRepository(db).UpdatePassword(ctx, "u1", "new-hash", "new-salt", at))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows affected", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE users`).WillReturnResult(sqlmock.NewResult(0, 0))
		err = NewUserRepository(db).UpdatePassword(ctx, "missing", "h", "s", at)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}
