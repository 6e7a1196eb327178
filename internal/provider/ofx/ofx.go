package ofx

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"remitcompare/internal/httpx"
	"remitcompare/internal/provider"
	"remitcompare/internal/quote"
)

// Config controls the OFX adapter behavior.
type Config struct {
	Name    string
	BaseURL string
	Headers map[string]string
}

// Adapter fetches quotes from the public OFX rate calculator.
// The endpoint is unauthenticated; the quote is a single GET.
type Adapter struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Adapter {
	if cfg.Name == "" {
		cfg.Name = "ofx"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.ofx.com"
	}
	return &Adapter{cfg: cfg, client: hc}
}

func (a *Adapter) Name() string { return a.cfg.Name }

func (a *Adapter) FetchQuote(ctx context.Context, req quote.Request) (quote.Quote, error) {
	u := fmt.Sprintf("%s/PublicSite.ApiService/SpotRateHistory/spot/%s/%s/%s",
		a.cfg.BaseURL, req.Amount.String(), req.Source, req.Target)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return quote.Quote{}, err
	}
	for k, v := range a.cfg.Headers {
		httpReq.Header.Set(k, v)
	}

	var resp spotResponse
	if err := a.client.DoJSON(ctx, httpReq, &resp); err != nil {
		return quote.Quote{}, err
	}
	if resp.CustomerRate == nil {
		return quote.Quote{}, provider.Malformed("CustomerRate")
	}

	fee := decimal.Zero
	if resp.Fee != nil {
		fee = *resp.Fee
	}
	// OFX reports the converted amount before its transfer fee; normalize
	// to the fee-before-conversion convention.
	received := quote.ComputeReceived(req.Amount, fee, *resp.CustomerRate)

	return quote.Quote{
		ProviderID:       a.cfg.Name,
		Rate:             *resp.CustomerRate,
		Fee:              fee,
		SentAmount:       req.Amount,
		ReceivedAmount:   received,
		DeliveryEstimate: resp.DeliveryWindow,
		PaymentMethod:    quote.MethodBankTransfer,
		Source:           quote.SourceLive,
		FetchedAt:        time.Now().UTC(),
	}, nil
}

type spotResponse struct {
	CustomerRate   *decimal.Decimal `json:"CustomerRate"`
	InterbankRate  *decimal.Decimal `json:"InterbankRate"`
	Fee            *decimal.Decimal `json:"Fee"`
	DeliveryWindow string           `json:"DeliveryWindow"`
}
