package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Provider names accepted by GEOCODER_PROVIDER and SEARCH_PROVIDER.
const (
	ProviderGoogle   = "google"
	ProviderMapbox   = "mapbox"
	ProviderOverpass = "overpass"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr           string
	LogLevel           string
	LogFormat          string
	ShutdownTimeout    time.Duration
	StaticDir          string
	CORSAllowedOrigins []string

	// Per-client request admission.
	RateLimitWindow        time.Duration
	RateLimitMax           int
	RateLimitMaxClients    int
	RateLimitSweepInterval time.Duration

	// Model call admission. A zero slot timeout waits indefinitely.
	ModelMaxConcurrency int
	ModelSlotTimeout    time.Duration

	GeocoderProvider string
	SearchProvider   string
	GoogleMapsAPIKey string
	MapboxToken      string
	GeocodeTimeout   time.Duration
	SearchTimeout    time.Duration
	OverpassURL      string

	SearchRadiiMiles    []float64
	SearchMinResults    int
	SearchMaxResults    int
	FallbackCount       int
	SearchRatePerSecond float64
	SearchRateBurst     int

	GeminiAPIKey string
	GeminiModel  string
	ModelTimeout time.Duration

	// Estimate events are published only when brokers are configured.
	KafkaBrokers        []string
	KafkaEstimatesTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:            sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:            sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:     shutdownTimeout,
		StaticDir:           os.Getenv("STATIC_DIR"),
		CORSAllowedOrigins:  splitList(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		GeocoderProvider:    strings.ToLower(sharedcfg.EnvOrDefault("GEOCODER_PROVIDER", ProviderGoogle)),
		SearchProvider:      strings.ToLower(sharedcfg.EnvOrDefault("SEARCH_PROVIDER", ProviderGoogle)),
		GoogleMapsAPIKey:    os.Getenv("GOOGLE_MAPS_API_KEY"),
		MapboxToken:         os.Getenv("MAPBOX_TOKEN"),
		OverpassURL:         sharedcfg.EnvOrDefault("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiModel:         sharedcfg.EnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		KafkaBrokers:        splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaEstimatesTopic: sharedcfg.EnvOrDefault("KAFKA_ESTIMATES_TOPIC", "groomer-price-estimates"),
	}

	durations := []struct {
		key       string
		def       string
		dst       *time.Duration
		allowZero bool
	}{
		{"RATE_LIMIT_WINDOW", "1h", &cfg.RateLimitWindow, false},
		{"RATE_LIMIT_SWEEP_INTERVAL", "10m", &cfg.RateLimitSweepInterval, false},
		{"MODEL_SLOT_TIMEOUT", "0s", &cfg.ModelSlotTimeout, true},
		{"GEOCODE_TIMEOUT", "5s", &cfg.GeocodeTimeout, false},
		{"SEARCH_TIMEOUT", "8s", &cfg.SearchTimeout, false},
		{"MODEL_TIMEOUT", "30s", &cfg.ModelTimeout, false},
	}
	for _, d := range durations {
		v, err := parseDuration(d.key, d.def, d.allowZero)
		if err != nil {
			return nil, err
		}
		*d.dst = v
	}

	ints := []struct {
		key string
		def int
		dst *int
	}{
		{"RATE_LIMIT_MAX", 60, &cfg.RateLimitMax},
		{"RATE_LIMIT_MAX_CLIENTS", 10000, &cfg.RateLimitMaxClients},
		{"MODEL_MAX_CONCURRENCY", 5, &cfg.ModelMaxConcurrency},
		{"SEARCH_MIN_RESULTS", 8, &cfg.SearchMinResults},
		{"SEARCH_MAX_RESULTS", 12, &cfg.SearchMaxResults},
		{"FALLBACK_COUNT", 10, &cfg.FallbackCount},
		{"SEARCH_RATE_BURST", 5, &cfg.SearchRateBurst},
	}
	for _, i := range ints {
		v, err := parsePositiveInt(i.key, i.def)
		if err != nil {
			return nil, err
		}
		*i.dst = v
	}

	cfg.SearchRatePerSecond, err = parsePositiveFloat("SEARCH_RATE_PER_SECOND", 10)
	if err != nil {
		return nil, err
	}

	cfg.SearchRadiiMiles, err = parseRadii(sharedcfg.EnvOrDefault("SEARCH_RADII_MILES", "10,20,30,40"))
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if !slices.Contains([]string{ProviderGoogle, ProviderMapbox}, c.GeocoderProvider) {
		return fmt.Errorf("invalid GEOCODER_PROVIDER %q: want google or mapbox", c.GeocoderProvider)
	}
	if !slices.Contains([]string{ProviderGoogle, ProviderOverpass}, c.SearchProvider) {
		return fmt.Errorf("invalid SEARCH_PROVIDER %q: want google or overpass", c.SearchProvider)
	}
	if c.SearchMinResults > c.SearchMaxResults {
		return errors.New("SEARCH_MIN_RESULTS must not exceed SEARCH_MAX_RESULTS")
	}
	if c.FallbackCount > c.SearchMaxResults {
		return errors.New("FALLBACK_COUNT must not exceed SEARCH_MAX_RESULTS")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaEstimatesTopic == "" {
		return errors.New("KAFKA_ESTIMATES_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// EventsEnabled reports whether estimate events should be published.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parsePositiveFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive number", key)
	}
	return f, nil
}

// parseRadii parses a comma-separated, strictly ascending list of miles.
func parseRadii(s string) ([]float64, error) {
	parts := splitList(s)
	if len(parts) == 0 {
		return nil, errors.New("SEARCH_RADII_MILES is required")
	}
	radii := make([]float64, 0, len(parts))
	for _, p := range parts {
		r, err := strconv.ParseFloat(p, 64)
		if err != nil || r <= 0 {
			return nil, fmt.Errorf("invalid SEARCH_RADII_MILES entry %q", p)
		}
		if len(radii) > 0 && r <= radii[len(radii)-1] {
			return nil, errors.New("SEARCH_RADII_MILES must be strictly ascending")
		}
		radii = append(radii, r)
	}
	return radii, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
