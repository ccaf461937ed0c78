package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradesim/internal/domain"
	"tradesim/internal/metrics"
)

// TradingService handles core trading logic: portfolio, buy, sell, history
// and quote lookup. All operations take an already-authenticated user ID.
type TradingService struct {
	ledger domain.LedgerRepository
	quotes domain.QuoteProvider
}

// NewTradingService creates a new TradingService
func NewTradingService(ledger domain.LedgerRepository, quotes domain.QuoteProvider) *TradingService {
	return &TradingService{
		ledger: ledger,
		quotes: quotes,
	}
}

// Portfolio computes the derived view of a user's positions. Each symbol with
// a non-zero net position is valued at the current quote; a symbol the
// provider can no longer resolve is rendered with PriceAvailable=false and
// left out of the grand total instead of failing the whole view.
func (ts *TradingService) Portfolio(ctx context.Context, userID uuid.UUID) (*domain.Portfolio, error) {
	holdings, err := ts.ledger.Holdings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate holdings: %w", err)
	}

	cash, err := ts.ledger.GetCash(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cash balance: %w", err)
	}

	symbols := make([]string, 0, len(holdings))
	for symbol, shares := range holdings {
		if shares != 0 {
			symbols = append(symbols, symbol)
		}
	}
	sort.Strings(symbols)

	portfolio := &domain.Portfolio{
		Holdings: make([]domain.Holding, 0, len(symbols)),
		Cash:     cash,
		Total:    cash,
	}

	for _, symbol := range symbols {
		line := domain.Holding{
			Symbol: symbol,
			Shares: holdings[symbol],
		}

		quote, err := ts.quotes.Lookup(ctx, symbol)
		if err == nil {
			line.Name = quote.Name
			line.Price = quote.Price
			line.Value = quote.Price.Mul(decimal.NewFromInt(line.Shares))
			line.PriceAvailable = true
			portfolio.Total = portfolio.Total.Add(line.Value)
		}

		portfolio.Holdings = append(portfolio.Holdings, line)
	}

	return portfolio, nil
}

// Buy purchases shares of a symbol at the current market price. The balance
// check, balance write and ledger insert run under the user's row lock, so
// two concurrent buys cannot both pass a sufficiency check that only one of
// them can afford.
func (ts *TradingService) Buy(ctx context.Context, userID uuid.UUID, symbol string, shares int64) (*domain.Transaction, error) {
	symbol, err := validateOrder(symbol, shares)
	if err != nil {
		return nil, err
	}

	quote, err := ts.quotes.Lookup(ctx, symbol)
	if err != nil {
		return nil, err
	}

	txn := &domain.Transaction{
		ID:        uuid.New(),
		UserID:    userID,
		Symbol:    quote.Symbol,
		Shares:    shares,
		Price:     quote.Price,
		CreatedAt: time.Now(),
	}
	cost := quote.Price.Mul(decimal.NewFromInt(shares))

	err = ts.ledger.Trade(ctx, userID, func(ctx context.Context, tx domain.LedgerTx) error {
		cash, err := tx.Cash(ctx)
		if err != nil {
			return err
		}
		remaining := cash.Sub(cost)
		if remaining.IsNegative() {
			return domain.ErrInsufficientFunds
		}
		if err := tx.SetCash(ctx, remaining); err != nil {
			return err
		}
		return tx.Append(ctx, txn)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientFunds) {
			metrics.TradesRejected.WithLabelValues("insufficient_funds").Inc()
		}
		return nil, err
	}

	metrics.TradesTotal.WithLabelValues("buy").Inc()
	return txn, nil
}

// Sell disposes of shares of a symbol at the current market price. Net
// holdings are recomputed from the ledger inside the same locked transaction
// that writes the balance, so the position can never be driven negative.
func (ts *TradingService) Sell(ctx context.Context, userID uuid.UUID, symbol string, shares int64) (*domain.Transaction, error) {
	symbol, err := validateOrder(symbol, shares)
	if err != nil {
		return nil, err
	}

	quote, err := ts.quotes.Lookup(ctx, symbol)
	if err != nil {
		return nil, err
	}

	txn := &domain.Transaction{
		ID:        uuid.New(),
		UserID:    userID,
		Symbol:    quote.Symbol,
		Shares:    -shares,
		Price:     quote.Price,
		CreatedAt: time.Now(),
	}
	proceeds := quote.Price.Mul(decimal.NewFromInt(shares))

	err = ts.ledger.Trade(ctx, userID, func(ctx context.Context, tx domain.LedgerTx) error {
		held, err := tx.NetShares(ctx, quote.Symbol)
		if err != nil {
			return err
		}
		if shares > held {
			return domain.ErrInsufficientShares
		}
		cash, err := tx.Cash(ctx)
		if err != nil {
			return err
		}
		if err := tx.SetCash(ctx, cash.Add(proceeds)); err != nil {
			return err
		}
		return tx.Append(ctx, txn)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientShares) {
			metrics.TradesRejected.WithLabelValues("insufficient_shares").Inc()
		}
		return nil, err
	}

	metrics.TradesTotal.WithLabelValues("sell").Inc()
	return txn, nil
}

// OwnedSymbols returns the symbols the user currently holds, sorted
func (ts *TradingService) OwnedSymbols(ctx context.Context, userID uuid.UUID) ([]string, error) {
	holdings, err := ts.ledger.Holdings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate holdings: %w", err)
	}

	symbols := make([]string, 0, len(holdings))
	for symbol, shares := range holdings {
		if shares != 0 {
			symbols = append(symbols, symbol)
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// History returns all of a user's transactions in chronological order
func (ts *TradingService) History(ctx context.Context, userID uuid.UUID) ([]*domain.Transaction, error) {
	return ts.ledger.ListByUser(ctx, userID)
}

// Quote looks up the current name and price for a symbol
func (ts *TradingService) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrInvalidInput)
	}
	return ts.quotes.Lookup(ctx, symbol)
}

func validateOrder(symbol string, shares int64) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", fmt.Errorf("%w: symbol is required", domain.ErrInvalidInput)
	}
	if shares <= 0 {
		return "", fmt.Errorf("%w: shares must be a positive integer", domain.ErrInvalidInput)
	}
	return symbol, nil
}
