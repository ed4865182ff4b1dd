package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventx/internal/domain"
)

const minPasswordLen = 8

type authService struct {
	userRepo    domain.UserRepository
	clubRepo    domain.ClubRepository
	hasher      domain.PasswordHasher
	tokenIssuer domain.TokenIssuer
	tokenExpiry time.Duration
}

// NewAuthService creates an AuthService with the given repositories and auth ports.
func NewAuthService(userRepo domain.UserRepository, clubRepo domain.ClubRepository, hasher domain.PasswordHasher, tokenIssuer domain.TokenIssuer, tokenExpiry time.Duration) domain.AuthService {
	return &authService{
		userRepo:    userRepo,
		clubRepo:    clubRepo,
		hasher:      hasher,
		tokenIssuer: tokenIssuer,
		tokenExpiry: tokenExpiry,
	}
}

func (s *authService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("get user: %w", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	if user.Role == domain.RoleClubAdmin && !user.IsClubAdmin() {
		return "", nil, fmt.Errorf("club-admin %s has no club: %w", user.ID, domain.ErrForbidden)
	}

	token, err := s.tokenIssuer.Issue(user, s.tokenExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

func (s *authService) Me(ctx context.Context, userID string) (*domain.User, *domain.Club, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrUnauthorized
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	if user.ClubID == nil {
		return user, nil, nil
	}
	club, err := s.clubRepo.GetByID(ctx, *user.ClubID)
	if err != nil {
		return nil, nil, fmt.Errorf("get club: %w", err)
	}
	return user, club, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if len(next) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLen)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrUnauthorized
		}
		return fmt.Errorf("get user: %w", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, current); err != nil {
		return domain.ErrInvalidCredentials
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(salt, next)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash, salt, time.Now()); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
