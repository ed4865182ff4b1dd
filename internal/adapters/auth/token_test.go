package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventx/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestJWTIssuer_Issue(t *testing.T) {
	secret := "test-secret"
	issuer := NewJWTIssuer(secret)

	token, err := issuer.Issue(&domain.User{
		ID:       "user-123",
		Username: "techclub",
		Role:     domain.RoleClubAdmin,
		ClubID:   strPtr("club-1"),
	}, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(*jwtClaims)
	require.True(t, ok)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "techclub", claims.Username)
	assert.Equal(t, "club-admin", claims.Role)
	assert.Equal(t, "club-1", claims.ClubID)
}

func TestJWTVerifier_Verify(t *testing.T) {
	secret := "test-secret"
	issuer := NewJWTIssuer(secret)
	verifier := NewJWTVerifier(secret)

	t.Run("round trip student", func(t *testing.T) {
		token, err := issuer.Issue(&domain.User{ID: "u1", Username: "alice", Role: domain.RoleUser}, time.Hour)
		require.NoError(t, err)

		id, err := verifier.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, domain.Identity{UserID: "u1", Role: domain.RoleUser}, id)
		assert.False(t, id.IsClubAdmin())
	})

	t.Run("round trip club admin", func(t *testing.T) {
		token, err := issuer.Issue(&domain.User{ID: "u2", Role: domain.RoleClubAdmin, ClubID: strPtr("c1")}, time.Hour)
		require.NoError(t, err)

		id, err := verifier.Verify(token)
		require.NoError(t, err)
		assert.True(t, id.IsClubAdmin())
		assert.Equal(t, "c1", id.ClubID)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := issuer.Issue(&domain.User{ID: "u1", Role: domain.RoleUser}, -time.Minute)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewJWTIssuer("other").Issue(&domain.User{ID: "u1", Role: domain.RoleUser}, time.Hour)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	})

	t.Run("club admin without club", func(t *testing.T) {
		token, err := issuer.Issue(&domain.User{ID: "u3", Role: domain.RoleClubAdmin}, time.Hour)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := verifier.Verify("not-a-jwt")
		assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	})
}
