package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"tradesim/internal/domain"
)

// LedgerRepositoryImpl implements the LedgerRepository interface
type LedgerRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(db *pgxpool.Pool) domain.LedgerRepository {
	return &LedgerRepositoryImpl{db: db}
}

// GetCash returns the user's cash balance
func (r *LedgerRepositoryImpl) GetCash(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	return getCash(ctx, r.db, userID, false)
}

// SetCash unconditionally overwrites the user's cash balance
func (r *LedgerRepositoryImpl) SetCash(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	return setCash(ctx, r.db, userID, amount)
}

// Append inserts one immutable transaction row
func (r *LedgerRepositoryImpl) Append(ctx context.Context, txn *domain.Transaction) error {
	return appendTransaction(ctx, r.db, txn)
}

// Holdings returns net shares per symbol over all of a user's transactions
func (r *LedgerRepositoryImpl) Holdings(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	query := `
		SELECT symbol, SUM(shares)
		FROM transactions
		WHERE user_id = $1
		GROUP BY symbol
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate holdings: %w", err)
	}
	defer rows.Close()

	holdings := make(map[string]int64)
	for rows.Next() {
		var symbol string
		var shares int64
		if err := rows.Scan(&symbol, &shares); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings[symbol] = shares
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

// ListByUser returns all of a user's transactions in chronological order
func (r *LedgerRepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Transaction, error) {
	query := `
		SELECT id, user_id, symbol, shares, price::text, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		txn := &domain.Transaction{}
		var price string
		if err := rows.Scan(&txn.ID, &txn.UserID, &txn.Symbol, &txn.Shares, &price, &txn.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("failed to parse transaction price: %w", err)
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txns, nil
}

// Trade runs fn inside a single database transaction holding the user's
// balance row lock. Concurrent trades for the same user queue on that lock,
// so a sufficiency check and the writes it guards are atomic.
func (r *LedgerRepositoryImpl) Trade(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, tx domain.LedgerTx) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadWrite})
	if err != nil {
		return fmt.Errorf("failed to begin trade transaction: %w", err)
	}

	// Take the per-user lock up front; released on commit or rollback
	if _, err := getCash(ctx, tx, userID, true); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := fn(ctx, &ledgerTx{tx: tx, userID: userID}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit trade transaction: %w", err)
	}
	return nil
}

// ledgerTx binds ledger operations to an open pgx transaction
type ledgerTx struct {
	tx     pgx.Tx
	userID uuid.UUID
}

func (t *ledgerTx) Cash(ctx context.Context) (decimal.Decimal, error) {
	return getCash(ctx, t.tx, t.userID, false)
}

func (t *ledgerTx) SetCash(ctx context.Context, amount decimal.Decimal) error {
	return setCash(ctx, t.tx, t.userID, amount)
}

func (t *ledgerTx) Append(ctx context.Context, txn *domain.Transaction) error {
	return appendTransaction(ctx, t.tx, txn)
}

func (t *ledgerTx) NetShares(ctx context.Context, symbol string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(shares), 0)
		FROM transactions
		WHERE user_id = $1 AND symbol = $2
	`

	var shares int64
	if err := t.tx.QueryRow(ctx, query, t.userID, symbol).Scan(&shares); err != nil {
		return 0, fmt.Errorf("failed to sum shares: %w", err)
	}
	return shares, nil
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getCash(ctx context.Context, q querier, userID uuid.UUID, forUpdate bool) (decimal.Decimal, error) {
	query := `SELECT cash::text FROM users WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var cash string
	if err := q.QueryRow(ctx, query, userID).Scan(&cash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to read cash balance: %w", err)
	}

	amount, err := decimal.NewFromString(cash)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse cash balance: %w", err)
	}
	return amount, nil
}

func setCash(ctx context.Context, q querier, userID uuid.UUID, amount decimal.Decimal) error {
	tag, err := q.Exec(ctx, `UPDATE users SET cash = $2::numeric WHERE id = $1`, userID, amount.String())
	if err != nil {
		return fmt.Errorf("failed to update cash balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func appendTransaction(ctx context.Context, q querier, txn *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, symbol, shares, price, created_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6)
	`

	_, err := q.Exec(ctx, query,
		txn.ID,
		txn.UserID,
		txn.Symbol,
		txn.Shares,
		txn.Price.String(),
		txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}
