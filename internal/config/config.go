package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL      string `validate:"required"`
	NATSURL          string
	MetricsAddr      string
	HafasURL         string `validate:"required,url"`
	HafasUserAgent   string `validate:"required"`
	HafasTimeout     time.Duration
	FetchInterval    time.Duration
	StopsPerCycle    int `validate:"gt=0"`
	DeparturesWindow time.Duration
	Region           Region `validate:"required"`
}

func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{}

	// Database URL: prefer DATABASE_URL / PG_DSN, else build from PG* vars
	dsn := firstNonEmpty(
		os.Getenv("DATABASE_URL"),
		os.Getenv("PG_DSN"),
	)
	if dsn == "" {
		host := getenvDefault("PGHOST", "127.0.0.1")
		port := getenvDefault("PGPORT", "5432")
		user := getenvDefault("PGUSER", "postgres")
		pass := os.Getenv("PGPASSWORD")
		db := os.Getenv("PGDATABASE")
		if db == "" {
			return nil, errors.New("PGDATABASE or DATABASE_URL must be set")
		}
		sslmode := getenvDefault("PGSSLMODE", "disable")
		if pass != "" {
			cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", urlEscape(user), urlEscape(pass), host, port, db, sslmode)
		} else {
			cfg.DatabaseURL = fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", urlEscape(user), host, port, db, sslmode)
		}
	} else {
		cfg.DatabaseURL = dsn
	}

	// NATS publishing is optional; empty URL disables it.
	cfg.NATSURL = os.Getenv("NATS_URL")

	// Metrics listen address (e.g., ":9102"). Empty disables the metrics server.
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	cfg.HafasURL = strings.TrimRight(getenvDefault("HAFAS_URL", ""), "/")
	cfg.HafasUserAgent = getenvDefault("HAFAS_USER_AGENT",
		"GrazRealtimeTransportMonitor/1.0 (https://github.com/ledahosn/holding-graz-statistik)")

	// Upstream request timeout (seconds)
	if v := os.Getenv("HAFAS_TIMEOUT_SEC"); v != "" {
		sec, err := strconv.Atoi(v)
		if err != nil || sec <= 0 {
			return nil, fmt.Errorf("invalid HAFAS_TIMEOUT_SEC: %q", v)
		}
		cfg.HafasTimeout = time.Duration(sec) * time.Second
	} else {
		cfg.HafasTimeout = 15 * time.Second
	}

	// Polling period (seconds)
	if v := os.Getenv("FETCH_INTERVAL_SEC"); v != "" {
		sec, err := strconv.Atoi(v)
		if err != nil || sec <= 0 {
			return nil, fmt.Errorf("invalid FETCH_INTERVAL_SEC: %q", v)
		}
		cfg.FetchInterval = time.Duration(sec) * time.Second
	} else {
		cfg.FetchInterval = 45 * time.Second
	}

	// Stops polled per cycle (also bounds departure fetch concurrency)
	if v := os.Getenv("STOPS_PER_CYCLE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid STOPS_PER_CYCLE: %q", v)
		}
		cfg.StopsPerCycle = n
	} else {
		cfg.StopsPerCycle = 5
	}

	// Departures lookahead window (minutes)
	if v := os.Getenv("DEPARTURES_WINDOW_MIN"); v != "" {
		min, err := strconv.Atoi(v)
		if err != nil || min <= 0 {
			return nil, fmt.Errorf("invalid DEPARTURES_WINDOW_MIN: %q", v)
		}
		cfg.DeparturesWindow = time.Duration(min) * time.Minute
	} else {
		cfg.DeparturesWindow = 120 * time.Minute
	}

	// Region profile: Graz defaults, optionally replaced by a YAML file.
	if path := os.Getenv("REGION_FILE"); path != "" {
		region, err := LoadRegion(path)
		if err != nil {
			return nil, fmt.Errorf("load region file %s: %w", path, err)
		}
		cfg.Region = *region
	} else {
		cfg.Region = DefaultRegion()
	}

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func urlEscape(s string) string {
	// Minimal escape for DSN user/pass with special chars
	r := strings.NewReplacer("@", "%40", ":", "%3A", "/", "%2F", "?", "%3F", "#", "%23")
	return r.Replace(s)
}
