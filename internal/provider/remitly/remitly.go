package remitly

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"remitcompare/internal/currency"
	"remitcompare/internal/httpx"
	"remitcompare/internal/provider"
	"remitcompare/internal/quote"
)

// Config controls the Remitly adapter behavior.
type Config struct {
	Name    string
	BaseURL string
	Headers map[string]string
	// CountryOverrides adjusts the corridor country guess where Remitly's
	// conduit naming diverges from the shared table.
	CountryOverrides map[string]string
}

// Adapter fetches quotes from the public Remitly calculator. The corridor
// is addressed by a conduit string built from guessed country codes.
type Adapter struct {
	cfg       Config
	client    *httpx.Client
	countries *currency.Lookup
}

func New(cfg Config, hc *httpx.Client) *Adapter {
	if cfg.Name == "" {
		cfg.Name = "remitly"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.remitly.io"
	}
	return &Adapter{cfg: cfg, client: hc, countries: currency.NewLookup(cfg.CountryOverrides)}
}

func (a *Adapter) Name() string { return a.cfg.Name }

func (a *Adapter) FetchQuote(ctx context.Context, req quote.Request) (quote.Quote, error) {
	conduit := fmt.Sprintf("%s:%s-%s:%s",
		a.countries.CountryFor(req.Source), req.Source,
		a.countries.CountryFor(req.Target), req.Target)

	q := url.Values{}
	q.Set("conduit", conduit)
	q.Set("anchor", "SEND")
	q.Set("amount", req.Amount.String())
	u := a.cfg.BaseURL + "/v3/calculator/estimate?" + q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return quote.Quote{}, err
	}
	for k, v := range a.cfg.Headers {
		httpReq.Header.Set(k, v)
	}

	var resp estimateResponse
	if err := a.client.DoJSON(ctx, httpReq, &resp); err != nil {
		return quote.Quote{}, err
	}
	if resp.ExchangeRate == nil || resp.ExchangeRate.BaseRate == nil {
		return quote.Quote{}, provider.Malformed("exchange_rate.base_rate")
	}
	if resp.EstimatedReceiveAmount == nil {
		return quote.Quote{}, provider.Malformed("estimated_receive_amount")
	}

	fee := decimal.Zero
	if resp.Fee != nil && resp.Fee.TotalFeeAmount != nil {
		fee = *resp.Fee.TotalFeeAmount
	}
	method := quote.MethodBankTransfer
	if resp.PaymentMethod != "" {
		method = quote.ParsePaymentMethod(resp.PaymentMethod)
	}
	return quote.Quote{
		ProviderID:       a.cfg.Name,
		Rate:             *resp.ExchangeRate.BaseRate,
		Fee:              fee,
		SentAmount:       req.Amount,
		ReceivedAmount:   *resp.EstimatedReceiveAmount,
		DeliveryEstimate: resp.DeliverySpeed,
		PaymentMethod:    method,
		Source:           quote.SourceLive,
		FetchedAt:        time.Now().UTC(),
	}, nil
}

type estimateResponse struct {
	ExchangeRate           *rateBlock       `json:"exchange_rate"`
	Fee                    *feeBlock        `json:"fee"`
	EstimatedReceiveAmount *decimal.Decimal `json:"estimated_receive_amount"`
	DeliverySpeed          string           `json:"delivery_speed"`
	PaymentMethod          string           `json:"payment_method"`
}

type rateBlock struct {
	BaseRate *decimal.Decimal `json:"base_rate"`
}

type feeBlock struct {
	TotalFeeAmount *decimal.Decimal `json:"total_fee_amount"`
}
