package domain

import (
	"context"
	"time"
)

// Role is the role tag carried by every user.
type Role string

const (
	RoleUser      Role = "user"
	RoleClubAdmin Role = "club-admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleClubAdmin
}

// User represents a registered account. Club-admins reference exactly one club.
// swagger:model User
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	Role         Role      `json:"role"`
	ClubID       *string   `json:"club_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsClubAdmin reports whether the user administers a club.
func (u *User) IsClubAdmin() bool {
	return u.Role == RoleClubAdmin && u.ClubID != nil && *u.ClubID != ""
}

// Club is a host organization owning events.
// swagger:model Club
type Club struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	LogoURL     string    `json:"logo_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Identity is the authenticated caller extracted from a token.
type Identity struct {
	UserID string
	Role   Role
	ClubID string
}

// IsClubAdmin reports whether the caller administers a club.
func (i Identity) IsClubAdmin() bool {
	return i.Role == RoleClubAdmin && i.ClubID != ""
}

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(user *User, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the caller identity.
type TokenVerifier interface {
	Verify(token string) (Identity, error)
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdatePassword(ctx context.Context, id, hash, salt string, updatedAt time.Time) error
}

// ClubRepository defines read access to clubs.
type ClubRepository interface {
	GetByID(ctx context.Context, id string) (*Club, error)
}

// AuthService defines login and profile lookups.
type AuthService interface {
	Login(ctx context.Context, username, password string) (token string, user *User, err error)
	Me(ctx context.Context, userID string) (*User, *Club, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
}
