package main

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"remitcompare/internal/config"
	"remitcompare/internal/httpx"
	"remitcompare/internal/provider"
	"remitcompare/internal/provider/fallback"
	"remitcompare/internal/provider/instarem"
	"remitcompare/internal/provider/ofx"
	"remitcompare/internal/provider/ratelimit"
	"remitcompare/internal/provider/remitly"
	"remitcompare/internal/provider/revolut"
	"remitcompare/internal/provider/wise"
	"remitcompare/internal/rating"
)

func buildAdapters(cfg config.Config, hc *httpx.Client) []provider.Adapter {
	var adapters []provider.Adapter
	if cfg.Wise.Enabled {
		a := wise.New(wise.Config{
			Name:    "wise",
			BaseURL: cfg.Wise.Endpoint,
			APIKey:  cfg.Wise.APIKey,
			Headers: map[string]string{"Accept-Minor-Version": "1"},
		}, hc)
		adapters = append(adapters, limited(a, cfg.Wise))
	}
	if cfg.OFX.Enabled {
		a := ofx.New(ofx.Config{Name: "ofx", BaseURL: cfg.OFX.Endpoint}, hc)
		adapters = append(adapters, limited(a, cfg.OFX))
	}
	if cfg.InstaRem.Enabled {
		a := instarem.New(instarem.Config{
			Name:             "instarem",
			BaseURL:          cfg.InstaRem.Endpoint,
			ClientID:         cfg.InstaRem.ClientID,
			ClientSecret:     cfg.InstaRem.ClientSecret,
			CountryOverrides: cfg.InstaRem.CountryOverrides,
		}, hc)
		adapters = append(adapters, limited(a, cfg.InstaRem))
	}
	if cfg.Remitly.Enabled {
		a := remitly.New(remitly.Config{
			Name:             "remitly",
			BaseURL:          cfg.Remitly.Endpoint,
			CountryOverrides: cfg.Remitly.CountryOverrides,
		}, hc)
		adapters = append(adapters, limited(a, cfg.Remitly))
	}
	if cfg.Revolut.Enabled {
		a := revolut.New(revolut.Config{
			Name:    "revolut",
			BaseURL: cfg.Revolut.Endpoint,
			APIKey:  cfg.Revolut.APIKey,
		}, hc)
		adapters = append(adapters, limited(a, cfg.Revolut))
	}
	return adapters
}

// limited wraps an adapter with rate limiting per its config.
// Prefer token bucket with burst if RPM is set, otherwise min-interval.
func limited(a provider.Adapter, pc config.Provider) provider.Adapter {
	if pc.MaxRequestsPerMinute > 0 {
		rate := float64(pc.MaxRequestsPerMinute) / 60.0
		burst := pc.Burst
		if burst <= 0 {
			burst = 1
		}
		return &ratelimit.TokenBucketAdapter{A: a, TB: ratelimit.NewTokenBucket(rate, burst)}
	}
	if pc.MinRequestIntervalSec > 0 {
		return &ratelimit.MinInterval{A: a, Interval: time.Duration(pc.MinRequestIntervalSec) * time.Second}
	}
	return a
}

func buildFallback(cfg config.Config) *fallback.Provider {
	fc := fallback.DefaultConfig()
	if cfg.Fallback.DefaultRate > 0 {
		fc.DefaultRate = decimal.NewFromFloat(cfg.Fallback.DefaultRate)
	}
	if len(cfg.Fallback.Rates) > 0 {
		fc.Rates = make(map[string]decimal.Decimal, len(cfg.Fallback.Rates))
		for k, v := range cfg.Fallback.Rates {
			fc.Rates[k] = decimal.NewFromFloat(v)
		}
	}
	if len(cfg.Fallback.Margins) > 0 {
		fc.Margins = make(map[string]decimal.Decimal, len(cfg.Fallback.Margins))
		for k, v := range cfg.Fallback.Margins {
			fc.Margins[k] = decimal.NewFromFloat(v)
		}
	}
	return fallback.New(fc)
}

func buildOverlay(cfg config.Config, hc *httpx.Client, log *zap.Logger) *rating.Overlay {
	rc := rating.DefaultConfig()
	if cfg.Rating.DefaultValue > 0 {
		rc.DefaultValue = decimal.NewFromFloat(cfg.Rating.DefaultValue)
	}
	if cfg.Rating.DefaultReviews > 0 {
		rc.DefaultReviews = cfg.Rating.DefaultReviews
	}
	if cfg.Rating.LiveTimeoutSec > 0 {
		rc.LiveTimeout = time.Duration(cfg.Rating.LiveTimeoutSec) * time.Second
	}
	if cfg.Rating.CacheTTLSec > 0 {
		rc.CacheTTL = time.Duration(cfg.Rating.CacheTTLSec) * time.Second
	}
	rc.Problematic = cfg.Rating.Problematic

	var source rating.ReputationSource
	if cfg.Rating.Enabled {
		opts := []rating.TrustAPIClientOption{
			rating.WithHTTPClient(hc.HTTP),
			rating.WithHeader(http.Header{"User-Agent": []string{"remitcompare/1.0"}}),
		}
		if cfg.Rating.Endpoint != "" {
			opts = append(opts, rating.WithBaseURL(cfg.Rating.Endpoint))
		}
		client, err := rating.NewTrustAPIClient(cfg.Rating.APIKey, opts...)
		if err != nil {
			log.Warn("rating client", zap.Error(err))
		} else {
			source = client
		}
	}
	return rating.NewOverlay(rc, rating.DefaultTable(), source, log)
}
