package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configurable game and server parameters.
type Config struct {
	// APIBaseURL is the base URL of the card service (generate-cards, generate-hint).
	APIBaseURL    string `json:"api_base_url" yaml:"api_base_url"`
	HTTPTimeoutMS int    `json:"http_timeout_ms" yaml:"http_timeout_ms"`

	TimeLimitSec    int `json:"time_limit_sec" yaml:"time_limit_sec"`
	TickIntervalMS  int `json:"tick_interval_ms" yaml:"tick_interval_ms"`
	ScorePerMatch   int `json:"score_per_match" yaml:"score_per_match"`
	MismatchDelayMS int `json:"mismatch_delay_ms" yaml:"mismatch_delay_ms"`

	WSPort int `json:"ws_port" yaml:"ws_port"`

	// AllowedOrigins is the CORS allow list for the HTTP API.
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`

	// DatabaseURL enables result persistence when set.
	DatabaseURL string `json:"database_url" yaml:"database_url"`
	// NeonAuthBaseURL enables player identity (history) when set.
	NeonAuthBaseURL string `json:"neon_auth_base_url" yaml:"neon_auth_base_url"`

	// NATSURL enables session event publishing when set.
	NATSURL           string `json:"nats_url" yaml:"nats_url"`
	NATSSubjectPrefix string `json:"nats_subject_prefix" yaml:"nats_subject_prefix"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		APIBaseURL:        "https://j09zmmpra4.execute-api.us-east-1.amazonaws.com/dev",
		HTTPTimeoutMS:     10000,
		TimeLimitSec:      60,
		TickIntervalMS:    1000,
		ScorePerMatch:     10,
		MismatchDelayMS:   1000,
		WSPort:            8080,
		AllowedOrigins:    []string{"*"},
		NATSSubjectPrefix: "memory",
	}
}

// TickInterval is the countdown period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// MismatchDelay is how long a mismatched pair stays face up.
func (c *Config) MismatchDelay() time.Duration {
	return time.Duration(c.MismatchDelayMS) * time.Millisecond
}

// HTTPTimeout bounds each request to the card service.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}

// Load reads configuration from an optional config.json or config.yaml file
// in the working directory, then applies environment variable overrides.
// Fields not set in either source retain their default values.
func Load() *Config {
	return loadFrom("config.json", "config.yaml")
}

func loadFrom(jsonPath, yamlPath string) *Config {
	cfg := Defaults()

	if data, err := os.ReadFile(jsonPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			slog.Warn("failed to parse config file", "tag", "config", "path", jsonPath, "err", err)
		}
	} else if data, err := os.ReadFile(yamlPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			slog.Warn("failed to parse config file", "tag", "config", "path", yamlPath, "err", err)
		}
	}

	overrideString(&cfg.APIBaseURL, "API_BASE_URL")
	overrideInt(&cfg.HTTPTimeoutMS, "HTTP_TIMEOUT_MS")
	overrideInt(&cfg.TimeLimitSec, "TIME_LIMIT_SEC")
	overrideInt(&cfg.TickIntervalMS, "TICK_INTERVAL_MS")
	overrideInt(&cfg.ScorePerMatch, "SCORE_PER_MATCH")
	overrideInt(&cfg.MismatchDelayMS, "MISMATCH_DELAY_MS")
	overrideInt(&cfg.WSPort, "WS_PORT")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.NeonAuthBaseURL, "NEON_AUTH_BASE_URL")
	overrideString(&cfg.NATSURL, "NATS_URL")
	overrideString(&cfg.NATSSubjectPrefix, "NATS_SUBJECT_PREFIX")
	overrideList(&cfg.AllowedOrigins, "ALLOWED_ORIGINS")

	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	cfg.Normalize()
	return cfg
}

// Normalize resets out-of-range timing and scoring values to their defaults.
// The tick interval must be positive; delays, limits and the match reward must not be negative.
func (c *Config) Normalize() {
	def := Defaults()
	atLeast(&c.TickIntervalMS, 1, def.TickIntervalMS, "tick_interval_ms")
	atLeast(&c.HTTPTimeoutMS, 1, def.HTTPTimeoutMS, "http_timeout_ms")
	atLeast(&c.TimeLimitSec, 0, def.TimeLimitSec, "time_limit_sec")
	atLeast(&c.MismatchDelayMS, 0, def.MismatchDelayMS, "mismatch_delay_ms")
	atLeast(&c.ScorePerMatch, 0, def.ScorePerMatch, "score_per_match")
}

func atLeast(field *int, floor, def int, name string) {
	if *field < floor {
		slog.Warn("out of range value for "+name+"; using default", "tag", "config", "value", *field, "default", def)
		*field = def
	}
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			slog.Warn("invalid value for "+envKey, "tag", "config", "value", val)
		}
	}
}

func overrideString(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

// overrideList splits a comma-separated variable, dropping empty entries.
func overrideList(field *[]string, envKey string) {
	val := os.Getenv(envKey)
	if val == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) > 0 {
		*field = out
	}
}
