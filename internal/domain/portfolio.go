package domain

import "github.com/shopspring/decimal"

// Holding is one portfolio line: the net position in a symbol valued at the
// current market price. PriceAvailable is false when the quote provider can no
// longer resolve the symbol; such lines carry a zero price and are excluded
// from the portfolio total.
type Holding struct {
	Symbol         string          `json:"symbol"`
	Name           string          `json:"name"`
	Shares         int64           `json:"shares"`
	Price          decimal.Decimal `json:"price"`
	Value          decimal.Decimal `json:"value"`
	PriceAvailable bool            `json:"price_available"`
}

// Portfolio is the derived view of a user's positions plus cash
type Portfolio struct {
	Holdings []Holding       `json:"holdings"`
	Cash     decimal.Decimal `json:"cash"`
	Total    decimal.Decimal `json:"total"`
}
