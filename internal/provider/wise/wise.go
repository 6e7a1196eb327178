package wise

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"remitcompare/internal/httpx"
	"remitcompare/internal/provider"
	"remitcompare/internal/quote"
)

// Config controls the Wise adapter behavior.
type Config struct {
	Name    string
	BaseURL string
	APIKey  string // sent as Bearer token
	Headers map[string]string
}

// Adapter fetches quotes from the Wise API. Quoting is a two-step call:
// the available pay-in options for the corridor are listed first and a
// non-card option is preferred, then the quote is created against it.
type Adapter struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Adapter {
	if cfg.Name == "" {
		cfg.Name = "wise"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.transferwise.com"
	}
	return &Adapter{cfg: cfg, client: hc}
}

func (a *Adapter) Name() string { return a.cfg.Name }

func (a *Adapter) FetchQuote(ctx context.Context, req quote.Request) (quote.Quote, error) {
	opt, err := a.lookupPayIn(ctx, req)
	if err != nil {
		return quote.Quote{}, err
	}

	payload := map[string]any{
		"sourceCurrency": req.Source,
		"targetCurrency": req.Target,
		"sourceAmount":   req.Amount,
		"payIn":          opt.ID,
		"payOut":         "BANK_TRANSFER",
	}
	body, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/v3/quotes", bytes.NewReader(body))
	if err != nil {
		return quote.Quote{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	a.setHeaders(httpReq)

	var resp quoteResponse
	if err := a.client.DoJSON(ctx, httpReq, &resp); err != nil {
		return quote.Quote{}, err
	}
	if resp.Rate == nil {
		return quote.Quote{}, provider.Malformed("rate")
	}
	if resp.TargetAmount == nil {
		return quote.Quote{}, provider.Malformed("targetAmount")
	}

	fee := decimal.Zero
	if resp.Fee != nil {
		fee = resp.Fee.Total
	}
	return quote.Quote{
		ProviderID:       a.cfg.Name,
		Rate:             *resp.Rate,
		Fee:              fee,
		SentAmount:       req.Amount,
		ReceivedAmount:   *resp.TargetAmount,
		DeliveryEstimate: resp.EstimatedDelivery,
		PaymentMethod:    quote.ParsePaymentMethod(opt.Type),
		Source:           quote.SourceLive,
		FetchedAt:        time.Now().UTC(),
	}, nil
}

// lookupPayIn lists the corridor's pay-in options and picks one:
// the first non-card option wins, the first available is the fallback.
func (a *Adapter) lookupPayIn(ctx context.Context, req quote.Request) (payInOption, error) {
	u := a.cfg.BaseURL + "/v1/payment-methods?sourceCurrency=" + req.Source + "&targetCurrency=" + req.Target
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return payInOption{}, err
	}
	a.setHeaders(httpReq)

	var resp methodsResponse
	if err := a.client.DoJSON(ctx, httpReq, &resp); err != nil {
		return payInOption{}, err
	}
	if len(resp.PayIn) == 0 {
		return payInOption{}, provider.Malformed("payIn")
	}
	for _, o := range resp.PayIn {
		if !isCard(o.Type) {
			return o, nil
		}
	}
	return resp.PayIn[0], nil
}

func isCard(t string) bool {
	t = strings.ToUpper(t)
	return strings.Contains(t, "CARD")
}

func (a *Adapter) setHeaders(req *http.Request) {
	if a.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	}
	for k, v := range a.cfg.Headers {
		req.Header.Set(k, v)
	}
}

type methodsResponse struct {
	PayIn []payInOption `json:"payIn"`
}

type payInOption struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type quoteResponse struct {
	Rate              *decimal.Decimal `json:"rate"`
	TargetAmount      *decimal.Decimal `json:"targetAmount"`
	Fee               *feeBlock        `json:"fee"`
	EstimatedDelivery string           `json:"estimatedDelivery"`
}

type feeBlock struct {
	Total decimal.Decimal `json:"total"`
}
