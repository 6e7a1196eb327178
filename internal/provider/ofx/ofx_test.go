package ofx_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"remitcompare/internal/httpx"
	"remitcompare/internal/provider/ofx"
	"remitcompare/internal/quote"
)

func TestFetchQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/PublicSite.ApiService/SpotRateHistory/spot/1000/GBP/EUR", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"CustomerRate":   1.08,
			"InterbankRate":  1.0845,
			"Fee":            5.0,
			"DeliveryWindow": "1-2 business days",
		})
	}))
	defer srv.Close()

	a := ofx.New(ofx.Config{BaseURL: srv.URL}, httpx.New(5*time.Second))
	req := quote.Request{Source: "GBP", Target: "EUR", Amount: decimal.NewFromInt(1000)}
	q, err := a.FetchQuote(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, "ofx", q.ProviderID)
	require.Equal(t, quote.SourceLive, q.Source)
	require.Equal(t, quote.MethodBankTransfer, q.PaymentMethod)
	require.Equal(t, "1.08", q.Rate.String())
	require.Equal(t, "5", q.Fee.String())
	// the fee is deducted before conversion: (1000 - 5) * 1.08
	require.Equal(t, "1074.6", q.ReceivedAmount.String())
	require.Equal(t, "1-2 business days", q.DeliveryEstimate)
}

func TestFetchQuote_MissingRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"Fee": 5.0})
	}))
	defer srv.Close()

	a := ofx.New(ofx.Config{BaseURL: srv.URL}, httpx.New(5*time.Second))
	req := quote.Request{Source: "GBP", Target: "EUR", Amount: decimal.NewFromInt(1000)}
	_, err := a.FetchQuote(context.Background(), req)
	require.Error(t, err)
}

func TestFetchQuote_MissingFeeIsZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"CustomerRate": 1.1})
	}))
	defer srv.Close()

	a := ofx.New(ofx.Config{BaseURL: srv.URL}, httpx.New(5*time.Second))
	req := quote.Request{Source: "GBP", Target: "EUR", Amount: decimal.NewFromInt(100)}
	q, err := a.FetchQuote(context.Background(), req)
	require.NoError(t, err)
	require.True(t, q.Fee.IsZero())
	require.Equal(t, "110", q.ReceivedAmount.String())
}
