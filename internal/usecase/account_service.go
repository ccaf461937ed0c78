package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"tradesim/internal/domain"
)

const minPasswordLength = 6

// AccountService handles registration, authentication and session issuance
type AccountService struct {
	users        domain.UserRepository
	sessions     domain.SessionRepository
	startingCash decimal.Decimal
	sessionTTL   time.Duration
}

// NewAccountService creates a new AccountService
func NewAccountService(
	users domain.UserRepository,
	sessions domain.SessionRepository,
	startingCash decimal.Decimal,
	sessionTTL time.Duration,
) *AccountService {
	return &AccountService{
		users:        users,
		sessions:     sessions,
		startingCash: startingCash,
		sessionTTL:   sessionTTL,
	}
}

// Register creates a new user with the starting cash balance
func (as *AccountService) Register(ctx context.Context, username, password, confirmation string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", domain.ErrMissingField)
	}
	if password == "" || confirmation == "" {
		return nil, fmt.Errorf("%w: password and confirmation are required", domain.ErrMissingField)
	}
	if len(password) < minPasswordLength {
		return nil, domain.ErrPasswordTooShort
	}
	if password != confirmation {
		return nil, domain.ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		Cash:         as.startingCash,
		CreatedAt:    time.Now(),
	}

	if err := as.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Authenticate verifies a username/password pair. Both an unknown username
// and a wrong password map to ErrInvalidCredentials so the response does not
// reveal which field was wrong.
func (as *AccountService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrMissingField)
	}

	user, err := as.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return user, nil
}

// StartSession issues a fresh session for the user. Any prior sessions are
// cleared first, so a login invalidates older tokens.
func (as *AccountService) StartSession(ctx context.Context, userID uuid.UUID) (*domain.Session, error) {
	if err := as.sessions.DeleteByUser(ctx, userID); err != nil {
		return nil, err
	}

	now := time.Now()
	session := &domain.Session{
		Token:     uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(as.sessionTTL),
	}

	if err := as.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// EndSession destroys a session token
func (as *AccountService) EndSession(ctx context.Context, token uuid.UUID) error {
	return as.sessions.Delete(ctx, token)
}
