package instarem

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"remitcompare/internal/currency"
	"remitcompare/internal/httpx"
	"remitcompare/internal/provider"
	"remitcompare/internal/quote"
)

// Config controls the InstaReM adapter behavior.
type Config struct {
	Name         string
	BaseURL      string
	ClientID     string
	ClientSecret string
	// CountryOverrides replaces the shared currency->country guess for
	// corridors where InstaReM's country semantics diverge.
	CountryOverrides map[string]string
}

// Adapter fetches quotes from the InstaReM API. Calls are authenticated
// with an OAuth client-credentials token that is cached until expiry.
type Adapter struct {
	cfg       Config
	client    *httpx.Client
	countries *currency.Lookup

	mu         sync.Mutex
	token      string
	tokenUntil time.Time
}

func New(cfg Config, hc *httpx.Client) *Adapter {
	if cfg.Name == "" {
		cfg.Name = "instarem"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.instarem.com"
	}
	return &Adapter{cfg: cfg, client: hc, countries: currency.NewLookup(cfg.CountryOverrides)}
}

func (a *Adapter) Name() string { return a.cfg.Name }

func (a *Adapter) FetchQuote(ctx context.Context, req quote.Request) (quote.Quote, error) {
	tok, err := a.accessToken(ctx)
	if err != nil {
		return quote.Quote{}, err
	}

	q := url.Values{}
	q.Set("source_currency", req.Source)
	q.Set("destination_currency", req.Target)
	q.Set("source_amount", req.Amount.String())
	q.Set("country_code", a.countries.CountryFor(req.Source))
	u := a.cfg.BaseURL + "/v1/public/prices/computed-value?" + q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return quote.Quote{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+tok)

	var resp priceResponse
	if err := a.client.DoJSON(ctx, httpReq, &resp); err != nil {
		return quote.Quote{}, err
	}
	if resp.ExchangeRate == nil {
		return quote.Quote{}, provider.Malformed("exchange_rate")
	}
	if resp.ReceiveAmount == nil {
		return quote.Quote{}, provider.Malformed("receive_amount")
	}

	fee := decimal.Zero
	if resp.TransactionFee != nil {
		fee = *resp.TransactionFee
	}
	return quote.Quote{
		ProviderID:       a.cfg.Name,
		Rate:             *resp.ExchangeRate,
		Fee:              fee,
		SentAmount:       req.Amount,
		ReceivedAmount:   *resp.ReceiveAmount,
		DeliveryEstimate: resp.DeliveryTime,
		PaymentMethod:    quote.MethodBankTransfer,
		Source:           quote.SourceLive,
		FetchedAt:        time.Now().UTC(),
	}, nil
}

// accessToken returns the cached token or fetches a fresh one.
// A minute of slack keeps a token from expiring mid-quote.
func (a *Adapter) accessToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	if a.token != "" && time.Now().Before(a.tokenUntil) {
		tok := a.token
		a.mu.Unlock()
		return tok, nil
	}
	a.mu.Unlock()

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", a.cfg.ClientID)
	form.Set("client_secret", a.cfg.ClientSecret)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp tokenResponse
	if err := a.client.DoJSON(ctx, httpReq, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", provider.Malformed("access_token")
	}

	ttl := time.Duration(resp.ExpiresIn) * time.Second
	if ttl > time.Minute {
		ttl -= time.Minute
	}
	a.mu.Lock()
	a.token = resp.AccessToken
	a.tokenUntil = time.Now().Add(ttl)
	a.mu.Unlock()
	return resp.AccessToken, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type priceResponse struct {
	ExchangeRate   *decimal.Decimal `json:"exchange_rate"`
	TransactionFee *decimal.Decimal `json:"transaction_fee"`
	ReceiveAmount  *decimal.Decimal `json:"receive_amount"`
	DeliveryTime   string           `json:"delivery_time"`
}
