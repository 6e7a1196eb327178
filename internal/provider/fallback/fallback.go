package fallback

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"remitcompare/internal/quote"
)

// FeeTier maps a minimum send amount to a flat fee in source currency.
type FeeTier struct {
	MinAmount decimal.Decimal
	Fee       decimal.Decimal
}

// Config holds the deterministic rate and fee tables. Defaults are hoisted
// here rather than scattered as literals so tests can override them.
type Config struct {
	// Rates is keyed "SRC_DST", e.g. "GBP_EUR".
	Rates map[string]decimal.Decimal
	// DefaultRate applies to unmapped pairs.
	DefaultRate decimal.Decimal
	// FeeTiers is consulted highest threshold first.
	FeeTiers []FeeTier
	// Margins is the per-provider spread subtracted from the table rate.
	// Only providers present here are eligible for fallback substitution.
	Margins map[string]decimal.Decimal
	// DeliveryEstimate is attached verbatim to every mock quote.
	DeliveryEstimate string
}

// DefaultConfig returns the reference tables: a dozen major corridors,
// a 1.1 default rate and fees stepping up at 1000 and 5000.
func DefaultConfig() Config {
	return Config{
		Rates: map[string]decimal.Decimal{
			"EUR_USD": dec("1.08"),
			"USD_EUR": dec("0.92"),
			"GBP_EUR": dec("1.17"),
			"EUR_GBP": dec("0.85"),
			"GBP_USD": dec("1.27"),
			"USD_GBP": dec("0.79"),
			"EUR_CHF": dec("0.94"),
			"USD_INR": dec("83.2"),
			"GBP_INR": dec("105.6"),
			"USD_PHP": dec("56.1"),
			"EUR_PLN": dec("4.31"),
			"USD_MXN": dec("17.1"),
		},
		DefaultRate: dec("1.1"),
		FeeTiers: []FeeTier{
			{MinAmount: dec("5000"), Fee: dec("14.99")},
			{MinAmount: dec("1000"), Fee: dec("7.99")},
			{MinAmount: decimal.Zero, Fee: dec("2.99")},
		},
		Margins: map[string]decimal.Decimal{
			"wise":     dec("0.004"),
			"ofx":      dec("0.012"),
			"instarem": dec("0.008"),
			"remitly":  dec("0.015"),
			"revolut":  dec("0.006"),
		},
		DeliveryEstimate: "1-3 business days",
	}
}

// Provider produces deterministic synthetic quotes for providers whose
// live call failed, so the caller never sees an empty slot for them.
type Provider struct {
	cfg Config
}

func New(cfg Config) *Provider {
	if cfg.DefaultRate.IsZero() {
		cfg.DefaultRate = dec("1.1")
	}
	// highest threshold first
	sort.Slice(cfg.FeeTiers, func(i, j int) bool {
		return cfg.FeeTiers[i].MinAmount.GreaterThan(cfg.FeeTiers[j].MinAmount)
	})
	return &Provider{cfg: cfg}
}

// Covers reports whether a deterministic mock policy exists for the
// provider. Without one the aggregator omits the provider instead.
func (p *Provider) Covers(providerID string) bool {
	_, ok := p.cfg.Margins[providerID]
	return ok
}

// MockQuote always returns a usable quote; it never fails.
func (p *Provider) MockQuote(providerID string, req quote.Request) quote.Quote {
	rate, ok := p.cfg.Rates[req.Source+"_"+req.Target]
	if !ok {
		rate = p.cfg.DefaultRate
	}
	if margin, ok := p.cfg.Margins[providerID]; ok {
		rate = rate.Mul(decimal.NewFromInt(1).Sub(margin))
	}
	fee := p.feeFor(req.Amount)
	return quote.Quote{
		ProviderID:       providerID,
		Rate:             rate,
		Fee:              fee,
		SentAmount:       req.Amount,
		ReceivedAmount:   quote.ComputeReceived(req.Amount, fee, rate),
		DeliveryEstimate: p.cfg.DeliveryEstimate,
		PaymentMethod:    quote.MethodBankTransfer,
		Source:           quote.SourceFallback,
		FetchedAt:        time.Now().UTC(),
	}
}

func (p *Provider) feeFor(amount decimal.Decimal) decimal.Decimal {
	for _, t := range p.cfg.FeeTiers {
		if amount.GreaterThanOrEqual(t.MinAmount) {
			return t.Fee
		}
	}
	return decimal.Zero
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
