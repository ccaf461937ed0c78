package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is one immutable ledger row. Shares are signed: positive for a
// buy, negative for a sell, so net holdings for a symbol are the plain sum of
// its rows and cash movement is always -shares*price.
type Transaction struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Symbol    string          `json:"symbol"`
	Shares    int64           `json:"shares"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

// CashDelta returns the effect of this transaction on the cash balance:
// negative for buys, positive for sells.
func (t *Transaction) CashDelta() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Shares)).Neg()
}
