package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"remitcompare/internal/aggregate"
	"remitcompare/internal/quote"
	"remitcompare/internal/rank"
)

// comparer is what the handler needs from the aggregator.
type comparer interface {
	Compare(ctx context.Context, req quote.Request, opts aggregate.Options) ([]quote.Quote, error)
}

type compareResponse struct {
	Quotes []quote.Quote `json:"quotes"`
}

func handleCompare(w http.ResponseWriter, r *http.Request, agg comparer) {
	q := r.URL.Query()

	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil {
		http.Error(w, "invalid amount", http.StatusBadRequest)
		return
	}
	sortBy, err := rank.ParseKey(q.Get("sort_by"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	direction, err := rank.ParseDirection(q.Get("direction"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := quote.Request{
		Source: q.Get("from"),
		Target: q.Get("to"),
		Amount: amount,
	}
	opts := aggregate.Options{
		SortBy:             sortBy,
		Direction:          direction,
		SkipCachedFallback: q.Get("skip_cached_fallback") == "1",
	}

	quotes, err := agg.Compare(r.Context(), req, opts)
	switch {
	case errors.Is(err, quote.ErrInvalidRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, quote.ErrNoProviders):
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	case err != nil:
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, compareResponse{Quotes: quotes})
}
