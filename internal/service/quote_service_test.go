package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesim/internal/domain"
)

func newQuoteServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestLookup(t *testing.T) {
	srv := newQuoteServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "ACME", r.URL.Query().Get("symbol"))
		fmt.Fprint(w, `{"symbol":"ACME","name":"Acme Corp","price":"123.45"}`)
	})

	qs := NewQuoteService(srv.URL, time.Second)
	quote, err := qs.Lookup(context.Background(), "ACME")
	require.NoError(t, err)

	assert.Equal(t, "ACME", quote.Symbol)
	assert.Equal(t, "Acme Corp", quote.Name)
	assert.True(t, quote.Price.Equal(decimal.RequireFromString("123.45")))
}

func TestLookupNormalizesSymbol(t *testing.T) {
	srv := newQuoteServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ACME", r.URL.Query().Get("symbol"))
		fmt.Fprint(w, `{"symbol":"ACME","name":"Acme Corp","price":50}`)
	})

	qs := NewQuoteService(srv.URL, time.Second)
	quote, err := qs.Lookup(context.Background(), "  acme ")
	require.NoError(t, err)
	assert.Equal(t, "ACME", quote.Symbol)
}

func TestLookupUnknownSymbol(t *testing.T) {
	srv := newQuoteServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	qs := NewQuoteService(srv.URL, time.Second)
	_, err := qs.Lookup(context.Background(), "NOPE")
	assert.ErrorIs(t, err, domain.ErrUnknownSymbol)
}

func TestLookupEmptySymbol(t *testing.T) {
	qs := NewQuoteService("http://localhost:0", time.Second)
	_, err := qs.Lookup(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrUnknownSymbol)
}

func TestLookupMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"zero price", `{"symbol":"ACME","name":"Acme Corp","price":0}`},
		{"negative price", `{"symbol":"ACME","name":"Acme Corp","price":"-1.50"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newQuoteServer(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			})

			qs := NewQuoteService(srv.URL, time.Second)
			_, err := qs.Lookup(context.Background(), "ACME")
			assert.ErrorIs(t, err, domain.ErrUnknownSymbol)
		})
	}
}

func TestLookupServerError(t *testing.T) {
	srv := newQuoteServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	qs := NewQuoteService(srv.URL, time.Second)
	_, err := qs.Lookup(context.Background(), "ACME")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUnknownSymbol)
}

func TestLookupTimeout(t *testing.T) {
	srv := newQuoteServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})

	qs := NewQuoteService(srv.URL, 20*time.Millisecond)
	_, err := qs.Lookup(context.Background(), "ACME")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUnknownSymbol)
}
