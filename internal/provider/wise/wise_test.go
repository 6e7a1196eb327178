package wise_test

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
	"remitcompare/internal/provider"
	"remitcompare/internal/provider/wise"
	"remitcompare/internal/quote"
)

func request() quote.Request {
	return quote.Request{Source: "EUR", Target: "USD", Amount: decimal.NewFromInt(1000)}
}

func TestFetchQuote_PrefersNonCardPayIn(t *testing.T) {
	var quotedPayIn string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/payment-methods":
			require.Equal(t, "EUR", r.URL.Query().Get("sourceCurrency"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"payIn": []map[string]any{
					{"id": "pm-1", "type": "DEBIT_CARD"},
					{"id": "pm-2", "type": "BANK_TRANSFER"},
					{"id": "pm-3", "type": "CREDIT_CARD"},
				},
			})
		case "/v3/quotes":
			require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			quotedPayIn = body["payIn"].(string)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"rate":              1.08,
				"targetAmount":      1073.52,
				"fee":               map[string]any{"total": 6.0},
				"estimatedDelivery": "within 24 hours",
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	a := wise.New(wise.Config{BaseURL: srv.URL, APIKey: "test-key"}, httpx.New(5*time.Second))
	q, err := a.FetchQuote(context.Background(), request())
	require.NoError(t, err)

	require.Equal(t, "pm-2", quotedPayIn, "non-card option must be preferred")
	require.Equal(t, "wise", q.ProviderID)
	require.Equal(t, quote.SourceLive, q.Source)
	require.Equal(t, quote.MethodBankTransfer, q.PaymentMethod)
	require.Equal(t, "1.08", q.Rate.String())
	require.Equal(t, "6", q.Fee.String())
	require.Equal(t, "1073.52", q.ReceivedAmount.String())
	require.Equal(t, "within 24 hours", q.DeliveryEstimate)
}

func TestFetchQuote_FallsBackToFirstPayIn(t *testing.T) {
	var quotedPayIn string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/payment-methods":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"payIn": []map[string]any{
					{"id": "pm-1", "type": "DEBIT_CARD"},
					{"id": "pm-2", "type": "CREDIT_CARD"},
				},
			})
		case "/v3/quotes":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			quotedPayIn = body["payIn"].(string)
			_ = json.NewEncoder(w).Encode(map[string]any{"rate": 1.08, "targetAmount": 1073.52})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	a := wise.New(wise.Config{BaseURL: srv.URL}, httpx.New(5*time.Second))
	q, err := a.FetchQuote(context.Background(), request())
	require.NoError(t, err)
	require.Equal(t, "pm-1", quotedPayIn, "first option is the fallback when all are cards")
	require.Equal(t, quote.MethodDebitCard, q.PaymentMethod)
}

func TestFetchQuote_MissingRateIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/payment-methods":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"payIn": []map[string]any{{"id": "pm-1", "type": "BANK_TRANSFER"}},
			})
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{"targetAmount": 1073.52})
		}
	}))
	defer srv.Close()

	a := wise.New(wise.Config{BaseURL: srv.URL}, httpx.New(5*time.Second))
	_, err := a.FetchQuote(context.Background(), request())
	require.Error(t, err)
	require.Equal(t, provider.ReasonMalformed, provider.Classify("wise", err).Reason)
}

func TestFetchQuote_UpstreamErrorIsProtocol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := wise.New(wise.Config{BaseURL: srv.URL}, httpx.New(5*time.Second))
	_, err := a.FetchQuote(context.Background(), request())
	require.Error(t, err)
	require.Equal(t, provider.ReasonProtocol, provider.Classify("wise", err).Reason)
}
