package instarem_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"remitcompare/internal/httpx"
	"remitcompare/internal/provider/instarem"
	"remitcompare/internal/quote"
)

func newServer(t *testing.T, tokenCalls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			atomic.AddInt32(tokenCalls, 1)
			require.NoError(t, r.ParseForm())
			require.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
			require.Equal(t, "id-1", r.PostForm.Get("client_id"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "tok-abc",
				"expires_in":   3600,
			})
		case "/v1/public/prices/computed-value":
			require.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))
			require.Equal(t, "EUR", r.URL.Query().Get("source_currency"))
			require.Equal(t, "USD", r.URL.Query().Get("destination_currency"))
			require.Equal(t, "DE", r.URL.Query().Get("country_code"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"exchange_rate":   1.075,
				"transaction_fee": 4.5,
				"receive_amount":  1070.16,
				"delivery_time":   "1-2 business days",
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestFetchQuote(t *testing.T) {
	var tokenCalls int32
	srv := newServer(t, &tokenCalls)
	defer srv.Close()

	a := instarem.New(instarem.Config{
		BaseURL:      srv.URL,
		ClientID:     "id-1",
		ClientSecret: "secret-1",
	}, httpx.New(5*time.Second))

	req := quote.Request{Source: "EUR", Target: "USD", Amount: decimal.NewFromInt(1000)}
	q, err := a.FetchQuote(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, "instarem", q.ProviderID)
	require.Equal(t, quote.SourceLive, q.Source)
	require.Equal(t, "1.075", q.Rate.String())
	require.Equal(t, "4.5", q.Fee.String())
	require.Equal(t, "1070.16", q.ReceivedAmount.String())
	require.Equal(t, "1-2 business days", q.DeliveryEstimate)
}

func TestFetchQuote_TokenCachedAcrossCalls(t *testing.T) {
	var tokenCalls int32
	srv := newServer(t, &tokenCalls)
	defer srv.Close()

	a := instarem.New(instarem.Config{BaseURL: srv.URL, ClientID: "id-1"}, httpx.New(5*time.Second))
	req := quote.Request{Source: "EUR", Target: "USD", Amount: decimal.NewFromInt(1000)}

	_, err := a.FetchQuote(context.Background(), req)
	require.NoError(t, err)
	_, err = a.FetchQuote(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls), "token must be reused until expiry")
}

func TestFetchQuote_CountryOverride(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
		default:
			got = r.URL.Query().Get("country_code")
			_ = json.NewEncoder(w).Encode(map[string]any{"exchange_rate": 1.0, "receive_amount": 1.0})
		}
	}))
	defer srv.Close()

	a := instarem.New(instarem.Config{
		BaseURL:          srv.URL,
		CountryOverrides: map[string]string{"EUR": "FR"},
	}, httpx.New(5*time.Second))

	req := quote.Request{Source: "EUR", Target: "USD", Amount: decimal.NewFromInt(100)}
	_, err := a.FetchQuote(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "FR", got)
}

func TestFetchQuote_EmptyTokenFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"expires_in": 3600})
	}))
	defer srv.Close()

	a := instarem.New(instarem.Config{BaseURL: srv.URL}, httpx.New(5*time.Second))
	req := quote.Request{Source: "EUR", Target: "USD", Amount: decimal.NewFromInt(100)}
	_, err := a.FetchQuote(context.Background(), req)
	require.Error(t, err)
}
