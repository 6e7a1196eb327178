package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Server struct {
	Port              string `yaml:"port" env:"PORT" env-default:"8080"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec" env:"REQUEST_TIMEOUT_SEC" env-default:"15"`
}

// Provider is the per-adapter block. API credentials are only ever read
// from the environment, never from the config file.
type Provider struct {
	Enabled               bool              `yaml:"enabled"`
	Endpoint              string            `yaml:"endpoint"`
	APIKey                string            `yaml:"-"`
	ClientID              string            `yaml:"-"`
	ClientSecret          string            `yaml:"-"`
	CountryOverrides      map[string]string `yaml:"country_overrides"`
	MaxRequestsPerMinute  int               `yaml:"max_requests_per_minute"`
	MinRequestIntervalSec int               `yaml:"min_request_interval_sec"`
	Burst                 int               `yaml:"burst"`
}

type Aggregator struct {
	AdapterTimeoutSec int `yaml:"adapter_timeout_sec" env:"ADAPTER_TIMEOUT_SEC" env-default:"5"`
	CacheTTLSec       int `yaml:"cache_ttl_sec" env:"CACHE_TTL_SEC" env-default:"120"`
}

type Fallback struct {
	DefaultRate float64            `yaml:"default_rate"`
	Rates       map[string]float64 `yaml:"rates"`
	Margins     map[string]float64 `yaml:"margins"`
}

type Rating struct {
	Enabled        bool     `yaml:"enabled"`
	Endpoint       string   `yaml:"endpoint"`
	APIKey         string   `yaml:"-"`
	DefaultValue   float64  `yaml:"default_value"`
	DefaultReviews int      `yaml:"default_reviews"`
	LiveTimeoutSec int      `yaml:"live_timeout_sec"`
	CacheTTLSec    int      `yaml:"cache_ttl_sec"`
	Problematic    []string `yaml:"problematic"`
}

type Config struct {
	Env        string     `yaml:"env" env:"APP_ENV" env-default:"production"`
	Server     Server     `yaml:"server"`
	Aggregator Aggregator `yaml:"aggregator"`
	Wise       Provider   `yaml:"wise"`
	OFX        Provider   `yaml:"ofx"`
	InstaRem   Provider   `yaml:"instarem"`
	Remitly    Provider   `yaml:"remitly"`
	Revolut    Provider   `yaml:"revolut"`
	Fallback   Fallback   `yaml:"fallback"`
	Rating     Rating     `yaml:"rating"`
}

func Default() Config {
	return Config{
		Env:        "production",
		Server:     Server{Port: "8080", RequestTimeoutSec: 15},
		Aggregator: Aggregator{AdapterTimeoutSec: 5, CacheTTLSec: 120},
		Wise:       Provider{Enabled: true, Endpoint: "https://api.transferwise.com"},
		OFX:        Provider{Enabled: true, Endpoint: "https://api.ofx.com"},
		InstaRem:   Provider{Enabled: true, Endpoint: "https://api.instarem.com"},
		Remitly:    Provider{Enabled: true, Endpoint: "https://api.remitly.io"},
		Revolut:    Provider{Enabled: true, Endpoint: "https://www.revolut.com"},
		Rating: Rating{
			Enabled:        true,
			DefaultValue:   4.0,
			DefaultReviews: 100,
			LiveTimeoutSec: 5,
			CacheTTLSec:    3600,
		},
	}
}

// Load reads YAML config from path. If path is empty or the file does not
// exist, defaults are used. Environment variables override select fields.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		err := cleanenv.ReadConfig(path, &cfg)
		if err == nil {
			applyEnv(&cfg)
			return cfg, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		// missing file falls through to the env overlay
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("read env: %w", err)
	}
	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv pulls credentials and enable flags from the environment.
func applyEnv(cfg *Config) {
	if v := os.Getenv("WISE_API_KEY"); v != "" {
		cfg.Wise.APIKey = v
	}
	if v := os.Getenv("INSTAREM_CLIENT_ID"); v != "" {
		cfg.InstaRem.ClientID = v
	}
	if v := os.Getenv("INSTAREM_CLIENT_SECRET"); v != "" {
		cfg.InstaRem.ClientSecret = v
	}
	if v := os.Getenv("REVOLUT_API_KEY"); v != "" {
		cfg.Revolut.APIKey = v
	}
	if v := os.Getenv("RATING_API_KEY"); v != "" {
		cfg.Rating.APIKey = v
	}
	if v := os.Getenv("RATING_ENDPOINT"); v != "" {
		cfg.Rating.Endpoint = v
	}
	for _, p := range []struct {
		env string
		dst *bool
	}{
		{"WISE_ENABLED", &cfg.Wise.Enabled},
		{"OFX_ENABLED", &cfg.OFX.Enabled},
		{"INSTAREM_ENABLED", &cfg.InstaRem.Enabled},
		{"REMITLY_ENABLED", &cfg.Remitly.Enabled},
		{"REVOLUT_ENABLED", &cfg.Revolut.Enabled},
		{"RATING_ENABLED", &cfg.Rating.Enabled},
	} {
		switch os.Getenv(p.env) {
		case "1", "true", "yes", "y":
			*p.dst = true
		case "0", "false", "no", "n":
			*p.dst = false
		}
	}
}
