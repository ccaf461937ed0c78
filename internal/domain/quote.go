package domain

import "github.com/shopspring/decimal"

// Quote is a symbol's current name and price as reported by the price source
type Quote struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}
