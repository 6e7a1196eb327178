package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"remitcompare/internal/aggregate"
	"remitcompare/internal/cache"
	"remitcompare/internal/config"
	"remitcompare/internal/httpx"
	"remitcompare/internal/provider"
	"remitcompare/internal/provider/fallback"
	"remitcompare/internal/provider/instarem"
	"remitcompare/internal/provider/ofx"
	"remitcompare/internal/provider/remitly"
	"remitcompare/internal/provider/revolut"
	"remitcompare/internal/provider/wise"
	"remitcompare/internal/quote"
	"remitcompare/internal/rank"
	"remitcompare/internal/rating"
)

func main() {
	var from, to, amountStr, sortBy, direction, configPath string
	var withRatings bool
	var timeout int

	flag.StringVar(&from, "from", "EUR", "source currency (ISO code)")
	flag.StringVar(&to, "to", "USD", "target currency (ISO code)")
	flag.StringVar(&amountStr, "amount", "1000", "send amount")
	flag.StringVar(&sortBy, "sort", "", "sort key: received_amount|rate|fee|rating")
	flag.StringVar(&direction, "direction", "", "sort direction: asc|desc")
	flag.BoolVar(&withRatings, "ratings", false, "include provider ratings in the output")
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.yaml (optional)")
	flag.IntVar(&timeout, "timeout", 15, "request timeout seconds")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if timeout > 0 {
		cfg.Server.RequestTimeoutSec = timeout
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "amount: %v\n", err)
		os.Exit(1)
	}
	key, err := rank.ParseKey(sortBy)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	dir, err := rank.ParseDirection(direction)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := zap.NewNop()
	hc := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)

	var adapters []provider.Adapter
	if cfg.Wise.Enabled {
		adapters = append(adapters, wise.New(wise.Config{Name: "wise", BaseURL: cfg.Wise.Endpoint, APIKey: cfg.Wise.APIKey}, hc))
	}
	if cfg.OFX.Enabled {
		adapters = append(adapters, ofx.New(ofx.Config{Name: "ofx", BaseURL: cfg.OFX.Endpoint}, hc))
	}
	if cfg.InstaRem.Enabled {
		adapters = append(adapters, instarem.New(instarem.Config{
			Name: "instarem", BaseURL: cfg.InstaRem.Endpoint,
			ClientID: cfg.InstaRem.ClientID, ClientSecret: cfg.InstaRem.ClientSecret,
			CountryOverrides: cfg.InstaRem.CountryOverrides,
		}, hc))
	}
	if cfg.Remitly.Enabled {
		adapters = append(adapters, remitly.New(remitly.Config{
			Name: "remitly", BaseURL: cfg.Remitly.Endpoint,
			CountryOverrides: cfg.Remitly.CountryOverrides,
		}, hc))
	}
	if cfg.Revolut.Enabled {
		adapters = append(adapters, revolut.New(revolut.Config{Name: "revolut", BaseURL: cfg.Revolut.Endpoint, APIKey: cfg.Revolut.APIKey}, hc))
	}
	if len(adapters) == 0 {
		fmt.Fprintln(os.Stderr, "no provider adapters enabled")
		os.Exit(1)
	}

	overlay := rating.NewOverlay(rating.DefaultConfig(), rating.DefaultTable(), nil, log)
	agg := aggregate.New(
		adapters,
		fallback.New(fallback.DefaultConfig()),
		cache.New(time.Duration(cfg.Aggregator.CacheTTLSec)*time.Second),
		overlay,
		time.Duration(cfg.Aggregator.AdapterTimeoutSec)*time.Second,
		log,
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.RequestTimeoutSec)*time.Second)
	defer cancel()

	req := quote.Request{Source: from, Target: to, Amount: amount}
	quotes, err := agg.Compare(ctx, req, aggregate.Options{SortBy: key, Direction: dir})
	if err != nil {
		fmt.Fprintf(os.Stderr, "compare: %v\n", err)
		os.Exit(1)
	}

	out := map[string]any{"quotes": quotes}
	if withRatings {
		keys := make([]string, 0, len(quotes))
		for _, q := range quotes {
			keys = append(keys, q.ProviderID)
		}
		out["ratings"] = overlay.GetAll(ctx, keys)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}
}
