package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create creates a new user. A username collision yields ErrDuplicateUsername.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByUsername retrieves a user by username; ErrNotFound if absent
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// LedgerTx exposes ledger operations bound to one open database transaction
// holding the user's balance row lock. Everything done through it commits
// together or not at all.
type LedgerTx interface {
	// Cash returns the user's current cash balance
	Cash(ctx context.Context) (decimal.Decimal, error)

	// SetCash overwrites the user's cash balance
	SetCash(ctx context.Context, amount decimal.Decimal) error

	// Append inserts one immutable transaction row
	Append(ctx context.Context, txn *Transaction) error

	// NetShares returns the signed sum of shares for a symbol
	NetShares(ctx context.Context, symbol string) (int64, error)
}

// LedgerRepository defines the interface for ledger data operations
type LedgerRepository interface {
	// GetCash returns the user's cash balance; ErrNotFound if the user is absent
	GetCash(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)

	// SetCash unconditionally overwrites the user's cash balance
	SetCash(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error

	// Append inserts one immutable transaction row
	Append(ctx context.Context, txn *Transaction) error

	// Holdings returns net shares per symbol over all of a user's transactions
	Holdings(ctx context.Context, userID uuid.UUID) (map[string]int64, error)

	// ListByUser returns all of a user's transactions in chronological order
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Transaction, error)

	// Trade runs fn inside a single database transaction that holds the
	// user's balance row lock, serializing concurrent trades for that user
	Trade(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, tx LedgerTx) error) error
}

// SessionRepository defines the interface for session token operations
type SessionRepository interface {
	// Create stores a new session
	Create(ctx context.Context, session *Session) error

	// GetByToken retrieves a live session; expired or absent yields ErrNotFound
	GetByToken(ctx context.Context, token uuid.UUID) (*Session, error)

	// Delete removes a session by token
	Delete(ctx context.Context, token uuid.UUID) error

	// DeleteByUser removes all of a user's sessions
	DeleteByUser(ctx context.Context, userID uuid.UUID) error

	// PurgeExpired removes expired sessions and reports how many were removed
	PurgeExpired(ctx context.Context) (int64, error)
}
