package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/recipe-box/internal/model"
	"github.com/iliyamo/recipe-box/internal/repository"
	"github.com/iliyamo/recipe-box/internal/utils"
)

// maxUsernameLen matches the users.username column width.
const maxUsernameLen = 191

// AuthService registers users and checks their credentials.
type AuthService struct {
	users  repository.UserStore
	hasher *utils.PasswordHasher
}

func NewAuthService(users repository.UserStore, hasher *utils.PasswordHasher) *AuthService {
	return &AuthService{users: users, hasher: hasher}
}

// Register stores a new user with a bcrypt hash of password.  The username
// is kept exactly as given; comparisons are case-sensitive.
func (s *AuthService) Register(ctx context.Context, username, password string) (model.User, error) {
	if strings.TrimSpace(username) == "" {
		return model.User{}, missing("username")
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return model.User{}, &ValidationError{Field: "username", Reason: fmt.Sprintf("must be at most %d characters", maxUsernameLen)}
	}
	if password == "" {
		return model.User{}, missing("password")
	}
	hash, err := s.hasher.Hash(password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return model.User{}, &ValidationError{Field: "password", Reason: "must be at most 72 bytes"}
	}
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.users.Create(ctx, model.User{Username: username, PasswordHash: hash})
}

// Authenticate returns the user whose credentials match.  Unknown users
// still pay for one bcrypt comparison so response timing does not reveal
// which usernames exist.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (model.User, error) {
	if username == "" || password == "" {
		s.hasher.Burn(password)
		return model.User{}, ErrInvalidCredentials
	}
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		s.hasher.Burn(password)
		return model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, err
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return model.User{}, ErrInvalidCredentials
	}
	return u, nil
}
