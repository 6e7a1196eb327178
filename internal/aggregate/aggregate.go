package aggregate

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"remitcompare/internal/cache"
	"remitcompare/internal/metrics"
	"remitcompare/internal/provider"
	"remitcompare/internal/provider/fallback"
	"remitcompare/internal/quote"
	"remitcompare/internal/rank"
	"remitcompare/internal/rating"
)

// DefaultAdapterTimeout bounds each provider call independently.
const DefaultAdapterTimeout = 5 * time.Second

// Options select the ordering of a comparison result.
type Options struct {
	SortBy    rank.Key
	Direction rank.Direction
	// SkipCachedFallback forces a fresh fan-out when the cached entry was
	// produced by a partial-failure pass.
	SkipCachedFallback bool
}

// Aggregator fans a request out to every registered adapter, tolerates
// partial failure, substitutes deterministic mock data where a policy
// exists, caches the merged pass and ranks the result.
type Aggregator struct {
	adapters       []provider.Adapter
	fallback       *fallback.Provider
	cache          *cache.Cache
	ratings        *rating.Overlay
	adapterTimeout time.Duration
	log            *zap.Logger

	sf singleflight.Group
}

func New(adapters []provider.Adapter, fb *fallback.Provider, c *cache.Cache, ratings *rating.Overlay, adapterTimeout time.Duration, log *zap.Logger) *Aggregator {
	if adapterTimeout <= 0 {
		adapterTimeout = DefaultAdapterTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{
		adapters:       adapters,
		fallback:       fb,
		cache:          c,
		ratings:        ratings,
		adapterTimeout: adapterTimeout,
		log:            log,
	}
}

// Compare returns the ranked offer list for req. It fails only on a
// malformed request or when not a single live or fallback quote could be
// produced; individual provider failures are absorbed here.
func (a *Aggregator) Compare(ctx context.Context, req quote.Request, opts Options) ([]quote.Quote, error) {
	metrics.CompareRequests.Inc()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	key := req.Key()
	if snap, ok := a.cache.Get(key); ok && !(opts.SkipCachedFallback && snap.ContainsFallback) {
		metrics.CacheHits.Inc()
		out := retag(snap.Quotes, quote.SourceCache)
		a.order(ctx, out, opts)
		a.log.Debug("served from cache", zap.String("key", key), zap.Int("quotes", len(out)))
		return out, nil
	}
	metrics.CacheMisses.Inc()

	// Coalesce identical concurrent misses; each caller still gets its own
	// copy to rank.
	v, err, _ := a.sf.Do(key, func() (any, error) {
		merged, err := a.fanOut(ctx, req)
		if err != nil {
			return nil, err
		}
		a.cache.Put(key, merged)
		return merged, nil
	})
	if err != nil {
		return nil, err
	}

	out := retag(v.([]quote.Quote), "")
	a.order(ctx, out, opts)
	return out, nil
}

// fanOut calls every adapter concurrently, each under its own timeout.
// A timed-out or failed call affects only its own provider; the merge is
// independent of completion order.
func (a *Aggregator) fanOut(ctx context.Context, req quote.Request) ([]quote.Quote, error) {
	type result struct {
		name string
		q    quote.Quote
		err  error
	}
	ch := make(chan result, len(a.adapters))
	for _, ad := range a.adapters {
		ad := ad
		go func() {
			callCtx, cancel := context.WithTimeout(ctx, a.adapterTimeout)
			defer cancel()
			q, err := ad.FetchQuote(callCtx, req)
			ch <- result{name: ad.Name(), q: q, err: err}
		}()
	}

	merged := make([]quote.Quote, 0, len(a.adapters))
	for i := 0; i < len(a.adapters); i++ {
		r := <-ch
		if r.err == nil && !r.q.Valid() {
			r.err = provider.Malformed("rate")
		}
		if r.err == nil {
			r.q.Source = quote.SourceLive
			merged = append(merged, r.q)
			metrics.AdapterOutcomes.WithLabelValues(r.name, "success").Inc()
			continue
		}

		f := provider.Classify(r.name, r.err)
		metrics.AdapterOutcomes.WithLabelValues(r.name, string(f.Reason)).Inc()
		if a.fallback != nil && a.fallback.Covers(r.name) {
			metrics.FallbackSubstitutions.WithLabelValues(r.name).Inc()
			a.log.Warn("substituting fallback quote",
				zap.String("provider", r.name),
				zap.String("reason", string(f.Reason)),
				zap.Error(f.Err))
			merged = append(merged, a.fallback.MockQuote(r.name, req))
			continue
		}
		a.log.Warn("omitting provider",
			zap.String("provider", r.name),
			zap.String("reason", string(f.Reason)),
			zap.Error(f.Err))
	}

	if len(merged) == 0 {
		return nil, quote.ErrNoProviders
	}
	return merged, nil
}

// order ranks quotes in place. Ratings are only resolved when the caller
// sorts by rating; the overlay is bounded and never fails, so this cannot
// stall the compare path.
func (a *Aggregator) order(ctx context.Context, quotes []quote.Quote, opts Options) {
	var ratings map[string]decimal.Decimal
	if opts.SortBy == rank.KeyRating && a.ratings != nil {
		keys := make([]string, 0, len(quotes))
		for _, q := range quotes {
			keys = append(keys, q.ProviderID)
		}
		resolved := a.ratings.GetAll(ctx, keys)
		ratings = make(map[string]decimal.Decimal, len(resolved))
		for k, r := range resolved {
			ratings[k] = r.Value
		}
	}
	rank.Sort(quotes, opts.SortBy, opts.Direction, ratings)
}

// retag copies quotes, optionally rewriting their source tag.
func retag(in []quote.Quote, src quote.Source) []quote.Quote {
	out := make([]quote.Quote, len(in))
	copy(out, in)
	if src != "" {
		for i := range out {
			out[i].Source = src
		}
	}
	return out
}
