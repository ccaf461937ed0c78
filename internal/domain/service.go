package domain

import "context"

// QuoteProvider defines the interface for looking up market quotes
type QuoteProvider interface {
	// Lookup returns the current name and price for a symbol.
	// An unresolvable symbol yields ErrUnknownSymbol.
	Lookup(ctx context.Context, symbol string) (*Quote, error)
}
