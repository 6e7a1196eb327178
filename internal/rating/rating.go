package rating

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Rating is a provider trust score. Value is always populated: the overlay
// never answers "no rating", only IsFallback=true when nothing
// authoritative exists.
type Rating struct {
	ProviderKey string          `json:"provider_key"`
	Value       decimal.Decimal `json:"value"`
	ReviewCount int             `json:"review_count"`
	SourceTag   string          `json:"source_tag"`
	IsFallback  bool            `json:"is_fallback"`
	LastUpdated time.Time       `json:"last_updated"`
}

// StaticEntry is one row of the local reputation table.
type StaticEntry struct {
	Value     decimal.Decimal
	Reviews   int
	SourceTag string
}

// Config carries the overlay defaults, hoisted out of the code so tests
// can override them.
type Config struct {
	DefaultValue   decimal.Decimal
	DefaultReviews int
	// Problematic providers skip every tier and get the default rating:
	// their reputation APIs have been historically unreliable.
	Problematic []string
	LiveTimeout time.Duration
	CacheTTL    time.Duration
}

func DefaultConfig() Config {
	return Config{
		DefaultValue:   decimal.RequireFromString("4.0"),
		DefaultReviews: 100,
		LiveTimeout:    5 * time.Second,
		CacheTTL:       time.Hour,
	}
}

// DefaultTable is the built-in reputation table for the known providers.
func DefaultTable() map[string]StaticEntry {
	return map[string]StaticEntry{
		"wise":     {Value: decimal.RequireFromString("4.6"), Reviews: 254311, SourceTag: "editorial"},
		"ofx":      {Value: decimal.RequireFromString("4.2"), Reviews: 7852, SourceTag: "editorial"},
		"instarem": {Value: decimal.RequireFromString("4.3"), Reviews: 5120, SourceTag: "editorial"},
		"remitly":  {Value: decimal.RequireFromString("4.1"), Reviews: 41230, SourceTag: "editorial"},
	}
}

// ReputationSource is a live reputation lookup. *TrustAPIClient implements it.
type ReputationSource interface {
	Lookup(ctx context.Context, providerKey string) (Score, error)
}

type cachedScore struct {
	rating Rating
	until  time.Time
}

// Overlay resolves provider ratings through tiers, short-circuiting on the
// first hit: problematic list, static table (exact then key variants),
// live API (cached, coalesced), fixed default. It never fails and never
// blocks the quote path beyond its own bounded timeout.
type Overlay struct {
	cfg         Config
	table       map[string]StaticEntry
	source      ReputationSource
	log         *zap.Logger
	problematic map[string]struct{}

	mu     sync.RWMutex
	cached map[string]cachedScore
	sf     singleflight.Group
}

func NewOverlay(cfg Config, table map[string]StaticEntry, source ReputationSource, log *zap.Logger) *Overlay {
	if cfg.DefaultValue.IsZero() {
		cfg.DefaultValue = decimal.RequireFromString("4.0")
	}
	if cfg.DefaultReviews == 0 {
		cfg.DefaultReviews = 100
	}
	if cfg.LiveTimeout <= 0 {
		cfg.LiveTimeout = 5 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}
	norm := make(map[string]StaticEntry, len(table))
	for k, v := range table {
		norm[normalizeKey(k)] = v
	}
	prob := make(map[string]struct{}, len(cfg.Problematic))
	for _, p := range cfg.Problematic {
		prob[normalizeKey(p)] = struct{}{}
	}
	return &Overlay{
		cfg:         cfg,
		table:       norm,
		source:      source,
		log:         log,
		problematic: prob,
		cached:      make(map[string]cachedScore),
	}
}

// Get resolves a rating for providerKey. It always returns a usable value.
func (o *Overlay) Get(ctx context.Context, providerKey string) Rating {
	key := normalizeKey(providerKey)
	if _, bad := o.problematic[key]; bad {
		return o.fallback(providerKey)
	}

	for _, v := range keyVariants(providerKey) {
		if e, ok := o.table[v]; ok {
			return Rating{
				ProviderKey: providerKey,
				Value:       e.Value,
				ReviewCount: e.Reviews,
				SourceTag:   e.SourceTag,
				LastUpdated: time.Now().UTC(),
			}
		}
	}

	if o.source != nil {
		if r, ok := o.cachedRating(key); ok {
			return r
		}
		v, err, _ := o.sf.Do(key, func() (any, error) {
			liveCtx, cancel := context.WithTimeout(ctx, o.cfg.LiveTimeout)
			defer cancel()
			return o.source.Lookup(liveCtx, providerKey)
		})
		if err == nil {
			score := v.(Score)
			if !scoreInRange(score.Value) {
				// out of the 1..5 band; treated like a failed lookup and
				// not cached, so a later sane value can still land
				o.log.Warn("live reputation score out of range",
					zap.String("provider", providerKey),
					zap.String("value", score.Value.String()))
				return o.fallback(providerKey)
			}
			r := Rating{
				ProviderKey: providerKey,
				Value:       score.Value,
				ReviewCount: score.Reviews,
				SourceTag:   "live",
				LastUpdated: time.Now().UTC(),
			}
			o.mu.Lock()
			o.cached[key] = cachedScore{rating: r, until: time.Now().Add(o.cfg.CacheTTL)}
			o.mu.Unlock()
			return r
		}
		o.log.Warn("live reputation lookup failed", zap.String("provider", providerKey), zap.Error(err))
	}

	return o.fallback(providerKey)
}

// GetAll resolves ratings for all keys concurrently. Quote delivery never
// waits on this; callers run it separately or only for rating-sorted output.
func (o *Overlay) GetAll(ctx context.Context, providerKeys []string) map[string]Rating {
	out := make(map[string]Rating, len(providerKeys))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, k := range providerKeys {
		k := k
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := o.Get(ctx, k)
			mu.Lock()
			out[k] = r
			mu.Unlock()
		}()
	}
	wg.Wait()
	return out
}

func (o *Overlay) cachedRating(key string) (Rating, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	c, ok := o.cached[key]
	if !ok || time.Now().After(c.until) {
		return Rating{}, false
	}
	return c.rating, true
}

func (o *Overlay) fallback(providerKey string) Rating {
	return Rating{
		ProviderKey: providerKey,
		Value:       o.cfg.DefaultValue,
		ReviewCount: o.cfg.DefaultReviews,
		SourceTag:   "default",
		IsFallback:  true,
		LastUpdated: time.Now().UTC(),
	}
}

// scoreInRange bounds a reputation value to the 1..5 rating scale.
func scoreInRange(v decimal.Decimal) bool {
	return v.GreaterThanOrEqual(decimal.NewFromInt(1)) && v.LessThanOrEqual(decimal.NewFromInt(5))
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

// keyVariants lists lookup candidates in preference order: normalized,
// lower-cased, prefix/suffix-stripped, then the original request key.
func keyVariants(k string) []string {
	norm := normalizeKey(k)
	variants := []string{norm, strings.ToLower(k)}
	base := norm
	base = strings.TrimPrefix(base, "www.")
	base = strings.TrimPrefix(base, "api.")
	if i := strings.IndexAny(base, "-."); i > 0 {
		base = base[:i]
	}
	variants = append(variants, base, k)
	return variants
}
