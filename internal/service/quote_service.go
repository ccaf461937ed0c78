package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tradesim/internal/domain"
	"tradesim/internal/metrics"
)

// QuoteService fetches current quotes from an external price API
type QuoteService struct {
	httpClient *http.Client
	baseURL    string
}

// NewQuoteService creates a new QuoteService. The timeout bounds every
// lookup; there is no retry and no caching.
func NewQuoteService(baseURL string, timeout time.Duration) *QuoteService {
	return &QuoteService{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Lookup fetches the current name and price for a symbol
func (s *QuoteService) Lookup(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, domain.ErrUnknownSymbol
	}

	endpoint := fmt.Sprintf("%s/quote?symbol=%s", s.baseURL, url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create quote request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		metrics.QuoteLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("quote lookup for %s failed: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		metrics.QuoteLookups.WithLabelValues("unknown").Inc()
		return nil, domain.ErrUnknownSymbol
	}
	if resp.StatusCode != http.StatusOK {
		metrics.QuoteLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("quote API error for %s: status=%d", symbol, resp.StatusCode)
	}

	var body struct {
		Symbol string          `json:"symbol"`
		Name   string          `json:"name"`
		Price  decimal.Decimal `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.QuoteLookups.WithLabelValues("unknown").Inc()
		return nil, domain.ErrUnknownSymbol
	}
	if body.Price.LessThanOrEqual(decimal.Zero) {
		metrics.QuoteLookups.WithLabelValues("unknown").Inc()
		return nil, domain.ErrUnknownSymbol
	}

	metrics.QuoteLookups.WithLabelValues("ok").Inc()
	return &domain.Quote{
		Symbol: symbol,
		Name:   body.Name,
		Price:  body.Price,
	}, nil
}
