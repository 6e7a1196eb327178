package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"

	"remitcompare/internal/httpx"
	"remitcompare/internal/quote"
)

// Adapter translates a canonical request into one provider's wire protocol
// and its response back into the canonical Quote. Adapters hold no shared
// mutable state beyond their own payload caches.
type Adapter interface {
	Name() string
	FetchQuote(ctx context.Context, req quote.Request) (quote.Quote, error)
}

// Reason classifies an adapter failure so the aggregator can decide whether
// to substitute fallback data, omit the provider, or just log.
type Reason string

const (
	ReasonNetwork   Reason = "network"
	ReasonTimeout   Reason = "timeout"
	ReasonProtocol  Reason = "protocol"
	ReasonMalformed Reason = "malformed_response"
)

// Failure is an adapter-level error. It never propagates past the
// aggregator as a whole-request failure.
type Failure struct {
	Provider string
	Reason   Reason
	Err      error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s: %v", f.Provider, f.Reason, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// MalformedError marks a syntactically valid payload missing required
// fields (no rate or no receive amount).
type MalformedError struct {
	Field string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("payload missing required field %q", e.Field)
}

// Malformed builds the failure for a payload missing a required field.
func Malformed(field string) error { return &MalformedError{Field: field} }

// Classify wraps err into a Failure with a taxonomy reason.
func Classify(name string, err error) *Failure {
	f := &Failure{Provider: name, Err: err}
	var (
		statusErr    *httpx.StatusError
		malformedErr *MalformedError
		syntaxErr    *json.SyntaxError
		typeErr      *json.UnmarshalTypeError
		netErr       net.Error
		urlErr       *url.Error
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded), os.IsTimeout(err):
		f.Reason = ReasonTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		f.Reason = ReasonTimeout
	case errors.Is(err, context.Canceled):
		// caller went away; not a provider timeout
		f.Reason = ReasonNetwork
	case errors.As(err, &statusErr):
		f.Reason = ReasonProtocol
	case errors.As(err, &malformedErr), errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		f.Reason = ReasonMalformed
	case errors.As(err, &urlErr), errors.As(err, &netErr):
		f.Reason = ReasonNetwork
	default:
		f.Reason = ReasonNetwork
	}
	return f
}
