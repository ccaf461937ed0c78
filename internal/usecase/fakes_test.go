package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradesim/internal/domain"
)

// fakeQuotes serves quotes from a fixed table; unknown symbols miss
type fakeQuotes struct {
	quotes map[string]*domain.Quote
	err    error
}

func (f *fakeQuotes) Lookup(ctx context.Context, symbol string) (*domain.Quote, error) {
	if f.err != nil {
		return nil, f.err
	}
	q, ok := f.quotes[strings.ToUpper(symbol)]
	if !ok {
		return nil, domain.ErrUnknownSymbol
	}
	return q, nil
}

// fakeLedger is an in-memory LedgerRepository. Trade holds a mutex for the
// whole callback, mirroring the per-user row lock of the real store, and
// rolls back on error.
type fakeLedger struct {
	mu   sync.Mutex
	cash map[uuid.UUID]decimal.Decimal
	txns []*domain.Transaction
}

func newFakeLedger(userID uuid.UUID, cash decimal.Decimal) *fakeLedger {
	return &fakeLedger{
		cash: map[uuid.UUID]decimal.Decimal{userID: cash},
	}
}

func (f *fakeLedger) GetCash(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCash(userID)
}

func (f *fakeLedger) SetCash(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setCash(userID, amount)
}

func (f *fakeLedger) Append(ctx context.Context, txn *domain.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendTxn(txn)
	return nil
}

func (f *fakeLedger) Holdings(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	holdings := make(map[string]int64)
	for _, txn := range f.txns {
		if txn.UserID == userID {
			holdings[txn.Symbol] += txn.Shares
		}
	}
	return holdings, nil
}

func (f *fakeLedger) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Transaction
	for _, txn := range f.txns {
		if txn.UserID == userID {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (f *fakeLedger) Trade(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, tx domain.LedgerTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.cash[userID]; !ok {
		return domain.ErrNotFound
	}

	snapshotCash := f.cash[userID]
	snapshotLen := len(f.txns)

	if err := fn(ctx, &fakeLedgerTx{ledger: f, userID: userID}); err != nil {
		f.cash[userID] = snapshotCash
		f.txns = f.txns[:snapshotLen]
		return err
	}
	return nil
}

// unsynchronized accessors, caller holds the lock

func (f *fakeLedger) getCash(userID uuid.UUID) (decimal.Decimal, error) {
	cash, ok := f.cash[userID]
	if !ok {
		return decimal.Zero, domain.ErrNotFound
	}
	return cash, nil
}

func (f *fakeLedger) setCash(userID uuid.UUID, amount decimal.Decimal) error {
	if _, ok := f.cash[userID]; !ok {
		return domain.ErrNotFound
	}
	f.cash[userID] = amount
	return nil
}

func (f *fakeLedger) appendTxn(txn *domain.Transaction) {
	f.txns = append(f.txns, txn)
}

type fakeLedgerTx struct {
	ledger *fakeLedger
	userID uuid.UUID
}

func (t *fakeLedgerTx) Cash(ctx context.Context) (decimal.Decimal, error) {
	return t.ledger.getCash(t.userID)
}

func (t *fakeLedgerTx) SetCash(ctx context.Context, amount decimal.Decimal) error {
	return t.ledger.setCash(t.userID, amount)
}

func (t *fakeLedgerTx) Append(ctx context.Context, txn *domain.Transaction) error {
	t.ledger.appendTxn(txn)
	return nil
}

func (t *fakeLedgerTx) NetShares(ctx context.Context, symbol string) (int64, error) {
	var net int64
	for _, txn := range t.ledger.txns {
		if txn.UserID == t.userID && txn.Symbol == symbol {
			net += txn.Shares
		}
	}
	return net, nil
}

// fakeUsers is an in-memory UserRepository
type fakeUsers struct {
	mu     sync.Mutex
	byName map[string]*domain.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byName: make(map[string]*domain.User)}
}

func (f *fakeUsers) Create(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byName[user.Username]; ok {
		return domain.ErrDuplicateUsername
	}
	u := *user
	f.byName[user.Username] = &u
	return nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byName {
		if u.ID == id {
			out := *u
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUsers) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byName[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *u
	return &out, nil
}

// fakeSessions is an in-memory SessionRepository
type fakeSessions struct {
	mu      sync.Mutex
	byToken map[uuid.UUID]*domain.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byToken: make(map[uuid.UUID]*domain.Session)}
}

func (f *fakeSessions) Create(ctx context.Context, session *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := *session
	f.byToken[session.Token] = &s
	return nil
}

func (f *fakeSessions) GetByToken(ctx context.Context, token uuid.UUID) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byToken[token]
	if !ok || s.Expired(time.Now()) {
		return nil, domain.ErrNotFound
	}
	out := *s
	return &out, nil
}

func (f *fakeSessions) Delete(ctx context.Context, token uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byToken, token)
	return nil
}

func (f *fakeSessions) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, s := range f.byToken {
		if s.UserID == userID {
			delete(f.byToken, token)
		}
	}
	return nil
}

func (f *fakeSessions) PurgeExpired(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	now := time.Now()
	for token, s := range f.byToken {
		if s.Expired(now) {
			delete(f.byToken, token)
			removed++
		}
	}
	return removed, nil
}

func (f *fakeSessions) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byToken)
}
