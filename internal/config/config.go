package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress      string
	DatabaseURI     string
	KafkaBrokers    []string
	NotifyTopic     string
	NotifyBuffer    int
	NotifyWorkers   int
	CommissionRate  decimal.Decimal
	ShutdownTimeout time.Duration
}

const (
	defaultRunAddress      = ":8080"
	defaultKafkaBrokers    = "localhost:9092"
	defaultNotifyTopic     = "order-status-changed"
	defaultNotifyBuffer    = 256
	defaultNotifyWorkers   = 2
	defaultCommissionRate  = "0.10"
	defaultShutdownTimeout = 10 * time.Second
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:      getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:     getString(lookup, "DATABASE_URI", ""),
		NotifyTopic:     getString(lookup, "NOTIFY_TOPIC", defaultNotifyTopic),
		NotifyBuffer:    getInt(lookup, "NOTIFY_BUFFER", defaultNotifyBuffer),
		NotifyWorkers:   getInt(lookup, "NOTIFY_WORKERS", defaultNotifyWorkers),
		ShutdownTimeout: getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	brokers := getString(lookup, "KAFKA_BROKERS", defaultKafkaBrokers)
	rateStr := getString(lookup, "COMMISSION_RATE", defaultCommissionRate)

	fs := flag.NewFlagSet("marketplace", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	shutdownTimeoutStr := cfg.ShutdownTimeout.String()

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&brokers, "brokers", brokers, "Kafka broker list, comma separated")
	fs.StringVar(&cfg.NotifyTopic, "notify-topic", cfg.NotifyTopic, "Kafka topic for status notifications")
	fs.IntVar(&cfg.NotifyBuffer, "notify-buffer", cfg.NotifyBuffer, "Notification dispatch queue size")
	fs.IntVar(&cfg.NotifyWorkers, "notify-workers", cfg.NotifyWorkers, "Number of notification dispatch workers")
	fs.StringVar(&rateStr, "commission-rate", rateStr, "Platform commission rate applied to vendor parts")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.CommissionRate, err = decimal.NewFromString(rateStr); err != nil {
		return nil, fmt.Errorf("invalid commission rate: %w", err)
	}
	if cfg.CommissionRate.IsNegative() || cfg.CommissionRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("commission rate must be within [0, 1]")
	}

	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
		}
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("kafka brokers must be provided")
	}

	if cfg.NotifyBuffer <= 0 {
		cfg.NotifyBuffer = defaultNotifyBuffer
	}

	if cfg.NotifyWorkers <= 0 {
		cfg.NotifyWorkers = defaultNotifyWorkers
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
