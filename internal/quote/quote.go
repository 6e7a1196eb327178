package quote

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"remitcompare/internal/currency"
)

// Source tags where a quote came from. Exactly one applies to each quote.
type Source string

const (
	SourceLive     Source = "live"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
)

// PaymentMethod is the normalized funding method for a quote.
type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodDebitCard    PaymentMethod = "debit_card"
	MethodCreditCard   PaymentMethod = "credit_card"
	MethodCashPickup   PaymentMethod = "cash_pickup"
	MethodMobileWallet PaymentMethod = "mobile_wallet"
	MethodUnknown      PaymentMethod = "unknown"
)

// ParsePaymentMethod maps provider-reported method strings onto the
// normalized enum. Unrecognized values collapse to MethodUnknown.
func ParsePaymentMethod(s string) PaymentMethod {
	switch normalizeMethod(s) {
	case "bank_transfer", "bank", "banktransfer", "bank_account", "ach", "sepa", "wire":
		return MethodBankTransfer
	case "debit_card", "debit", "debitcard", "card":
		return MethodDebitCard
	case "credit_card", "credit", "creditcard":
		return MethodCreditCard
	case "cash_pickup", "cash", "cashpickup":
		return MethodCashPickup
	case "mobile_wallet", "wallet", "mobilewallet", "mobile_money":
		return MethodMobileWallet
	default:
		return MethodUnknown
	}
}

func normalizeMethod(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == ' ' || r == '-':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// Quote is the canonical offer shape produced by every adapter.
//
// ReceivedAmount always reflects the provider fee. The house convention is
// fee-before-conversion: ReceivedAmount = (SentAmount - Fee) x Rate.
// Adapters that receive a target amount on the wire pass it through
// verbatim (the provider has already applied its own fee); adapters that
// only get rate and fee compute it with the convention above.
type Quote struct {
	ProviderID       string          `json:"provider_id"`
	Rate             decimal.Decimal `json:"rate"`
	Fee              decimal.Decimal `json:"fee"`
	SentAmount       decimal.Decimal `json:"sent_amount"`
	ReceivedAmount   decimal.Decimal `json:"received_amount"`
	DeliveryEstimate string          `json:"delivery_estimate,omitempty"`
	PaymentMethod    PaymentMethod   `json:"payment_method"`
	Source           Source          `json:"source"`
	FetchedAt        time.Time       `json:"fetched_at"`
}

// ComputeReceived applies the canonical fee-before-conversion formula.
// Negative results clamp to zero so the ReceivedAmount >= 0 invariant holds
// even when a fee exceeds the send amount.
func ComputeReceived(sent, fee, rate decimal.Decimal) decimal.Decimal {
	recv := sent.Sub(fee).Mul(rate)
	if recv.IsNegative() {
		return decimal.Zero
	}
	return recv
}

// Valid reports whether the quote satisfies the model invariants.
func (q Quote) Valid() bool {
	if q.ProviderID == "" || q.Source == "" {
		return false
	}
	return q.Rate.IsPositive() && !q.ReceivedAmount.IsNegative()
}

var (
	// ErrInvalidRequest marks a malformed comparison request. It is the
	// only adapter-independent error surfaced synchronously to callers.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNoProviders is returned when neither a live nor a fallback quote
	// could be produced for any registered provider.
	ErrNoProviders = errors.New("no providers available")
)

// Request identifies one comparison: a corridor plus a send amount.
// The triple is also the cache key; distinct amounts are distinct entries.
type Request struct {
	Source string          `json:"source_currency"`
	Target string          `json:"target_currency"`
	Amount decimal.Decimal `json:"send_amount"`
}

// Validate rejects unknown currency codes and non-positive amounts.
func (r Request) Validate() error {
	if !isCode(r.Source) || !currency.Supported(r.Source) {
		return fmt.Errorf("%w: unsupported source currency %q", ErrInvalidRequest, r.Source)
	}
	if !isCode(r.Target) || !currency.Supported(r.Target) {
		return fmt.Errorf("%w: unsupported target currency %q", ErrInvalidRequest, r.Target)
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("%w: send amount must be positive, got %s", ErrInvalidRequest, r.Amount)
	}
	return nil
}

// Key is the canonical cache key for the request triple.
func (r Request) Key() string {
	return r.Source + ":" + r.Target + ":" + r.Amount.String()
}

func isCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
