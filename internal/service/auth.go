// Package service contains the business logic layer: validation, the
// authentication rules, and the post ownership gate. Handlers parse HTTP
// and delegate here; repositories only ever see already-decided operations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/miniblog/internal/apperror"
	"github.com/sakif/miniblog/internal/auth"
	"github.com/sakif/miniblog/internal/model"
	"github.com/sakif/miniblog/internal/repository"
)

const (
	MaxUsernameLength = 32
	MinPasswordLength = 8
)

// genericLoginFailure is the one message both "unknown username" and "wrong
// password" produce. Distinguishing them would let an attacker enumerate
// which usernames exist.
const genericLoginFailure = "invalid username or password"

// AuthService handles registration and login.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all dependencies injected.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the authenticated user with the issued session token,
// so the handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a new account.
//
// The password is bcrypt-hashed before anything touches the store — the
// plaintext is never persisted or logged. Username uniqueness is enforced by
// the store's UNIQUE constraint, not a read-then-insert check, so two
// concurrent registrations of the same name cannot both succeed; the loser
// gets apperror.ErrConflict and no partial state is left behind.
func (s *AuthService) Register(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)

	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", "password is too long")
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// ErrConflict (duplicate username) passes through untouched.
		return nil, err
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login verifies credentials and issues a session token.
//
// Both failure modes — no such user, wrong password — return the same
// generic apperror.Unauthorized. Note the password verification still runs
// against a dummy hash when the user doesn't exist; skipping it would make
// the unknown-username path measurably faster than the wrong-password path.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		s.passwords.Verify(dummyHash, password)
		return nil, apperror.Unauthorized(genericLoginFailure)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized(genericLoginFailure)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}

	s.logger.Info("user logged in",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns the user for the given ID. Backs the /auth/me lookup
// after the middleware has already validated the session token.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	if id <= 0 {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.users.GetUserByID(ctx, id)
}

// dummyHash is a valid bcrypt hash of an unguessable string, used to equalize
// login timing when the username doesn't exist.
const dummyHash = "$2a$12$K3JNi5xUQbYzQd0N8EZUJeQpfG9jW2hQ9yDm4tZvHs1aT7rR6bC0u"
