package revolut

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"remitcompare/internal/httpx"
	"remitcompare/internal/provider"
	"remitcompare/internal/quote"
)

// Config controls the Revolut adapter behavior.
type Config struct {
	Name    string
	BaseURL string
	APIKey  string // sent as X-Api-Key
	Headers map[string]string
}

// Adapter fetches quotes from the Revolut exchange quote endpoint.
type Adapter struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Adapter {
	if cfg.Name == "" {
		cfg.Name = "revolut"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.revolut.com"
	}
	return &Adapter{cfg: cfg, client: hc}
}

func (a *Adapter) Name() string { return a.cfg.Name }

func (a *Adapter) FetchQuote(ctx context.Context, req quote.Request) (quote.Quote, error) {
	payload := map[string]any{
		"fromCurrency": req.Source,
		"toCurrency":   req.Target,
		"amount":       req.Amount,
	}
	body, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/api/exchange/quote", bytes.NewReader(body))
	if err != nil {
		return quote.Quote{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if a.cfg.APIKey != "" {
		httpReq.Header.Set("X-Api-Key", a.cfg.APIKey)
	}
	for k, v := range a.cfg.Headers {
		httpReq.Header.Set(k, v)
	}

	var resp quoteResponse
	if err := a.client.DoJSON(ctx, httpReq, &resp); err != nil {
		return quote.Quote{}, err
	}
	if resp.Rate == nil || resp.Rate.Rate == nil {
		return quote.Quote{}, provider.Malformed("rate.rate")
	}
	if resp.Recipient == nil || resp.Recipient.Amount == nil {
		return quote.Quote{}, provider.Malformed("recipient.amount")
	}

	fee := decimal.Zero
	if resp.Fee != nil && resp.Fee.Amount != nil {
		fee = *resp.Fee.Amount
	}
	return quote.Quote{
		ProviderID:       a.cfg.Name,
		Rate:             *resp.Rate.Rate,
		Fee:              fee,
		SentAmount:       req.Amount,
		ReceivedAmount:   *resp.Recipient.Amount,
		DeliveryEstimate: resp.ETA,
		PaymentMethod:    quote.MethodDebitCard,
		Source:           quote.SourceLive,
		FetchedAt:        time.Now().UTC(),
	}, nil
}

type quoteResponse struct {
	Rate      *rateBlock  `json:"rate"`
	Fee       *feeBlock   `json:"fee"`
	Recipient *amtBlock   `json:"recipient"`
	ETA       string      `json:"eta"`
}

type rateBlock struct {
	Rate *decimal.Decimal `json:"rate"`
}

type feeBlock struct {
	Amount *decimal.Decimal `json:"amount"`
}

type amtBlock struct {
	Amount *decimal.Decimal `json:"amount"`
}
