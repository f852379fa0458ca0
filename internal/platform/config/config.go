package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"rotalink.local/internal/app/sharelink"
)

const (
	StoreDriverRedis  = "redis"
	StoreDriverMemory = "memory"

	EventsDriverChannel = "channel"
	EventsDriverKafka   = "kafka"
)

// StoreConfig is everything needed to reach the shared share store.
type StoreConfig struct {
	Driver        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int

	// Timeout bounds every store call made on behalf of one request.
	Timeout time.Duration

	// memory driver only
	MemoryMaxItems int64
	MemoryMaxBytes int64
}

type Config struct {
	Addr              string
	IdleTimeout       time.Duration // idle keep-alive connections are closed after this
	ShutdownTimeout   time.Duration // upper bound for draining in-flight requests
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration

	LogLevel    slog.Level
	LogFormat   string
	ServiceName string

	PprofEnabled bool
	AdminAddr    string

	Store StoreConfig

	// Host values (host[:port]) the public API answers issue requests on.
	// The issuing origin is only derived from one of these.
	SharePublicHosts []string

	// Allow-list for issued links, besides the request's own origin.
	SharePreviewOrigins []string
	ShareProductionHost string

	RateLimitEnabled        bool
	RateLimitIssuePerMinute int

	TracingEnabled   bool
	OtlpGrpcEndpoint string

	EventsDriver string
	KafkaBrokers []string
	KafkaTopic   string
}

func defaults() Config {
	return Config{
		Addr:              ":9999",
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,

		LogLevel:    slog.LevelInfo,
		LogFormat:   "json",
		ServiceName: "rotalink",

		PprofEnabled: false,
		AdminAddr:    "127.0.0.1:6060",

		Store: StoreConfig{
			Driver:         StoreDriverRedis,
			RedisPoolSize:  10,
			Timeout:        3 * time.Second,
			MemoryMaxItems: 100_000,
			MemoryMaxBytes: 64 << 20,
		},

		SharePublicHosts: []string{"localhost:9999", "127.0.0.1:9999"},

		RateLimitEnabled:        true,
		RateLimitIssuePerMinute: 10,

		TracingEnabled:   false,
		OtlpGrpcEndpoint: "127.0.0.1:4317",

		EventsDriver: EventsDriverChannel,
		KafkaBrokers: []string{"localhost:9092"},
		KafkaTopic:   "share-events",
	}
}

// Load applies defaults, then .env, then the process environment, and
// validates the result for the API server. Malformed values are reported,
// not ignored.
func Load() (Config, error) {
	cfg, err := read()
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadEvents is Load for the share events consumer. Only logging and Kafka
// settings are validated; the store and HTTP settings are never used there.
func LoadEvents() (Config, error) {
	cfg, err := read()
	if err != nil {
		return cfg, err
	}
	if err := cfg.ValidateEvents(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func read() (Config, error) {
	cfg := defaults()

	_ = godotenv.Load(".env")

	var errs []error
	dur := func(name string, dst *time.Duration) {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = d
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = b
		}
	}
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}

	str("ADDR", &cfg.Addr)
	dur("IDLE_TIMEOUT", &cfg.IdleTimeout)
	dur("SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)
	dur("READ_HEADER_TIMEOUT", &cfg.ReadHeaderTimeout)
	dur("READ_TIMEOUT", &cfg.ReadTimeout)
	dur("WRITE_TIMEOUT", &cfg.WriteTimeout)

	if v, ok := os.LookupEnv("LOG_LEVEL"); ok && v != "" {
		lvl, err := ParseLevel(v)
		if err != nil {
			errs = append(errs, err)
		}
		cfg.LogLevel = lvl
	}
	str("LOG_FORMAT", &cfg.LogFormat)
	str("SERVICE_NAME", &cfg.ServiceName)

	boolean("PPROF_ENABLED", &cfg.PprofEnabled)
	str("ADMIN_ADDR", &cfg.AdminAddr)

	// Store
	str("STORE_DRIVER", &cfg.Store.Driver)
	str("REDIS_ADDR", &cfg.Store.RedisAddr)
	str("REDIS_PASSWORD", &cfg.Store.RedisPassword)
	integer("REDIS_DB", &cfg.Store.RedisDB)
	integer("REDIS_POOL_SIZE", &cfg.Store.RedisPoolSize)
	dur("STORE_TIMEOUT", &cfg.Store.Timeout)

	// Allow-list
	if v, ok := os.LookupEnv("SHARE_PUBLIC_HOSTS"); ok && v != "" {
		cfg.SharePublicHosts = splitList(v)
	}
	if v, ok := os.LookupEnv("SHARE_PREVIEW_ORIGINS"); ok && v != "" {
		cfg.SharePreviewOrigins = splitList(v)
	}
	str("SHARE_PRODUCTION_HOST", &cfg.ShareProductionHost)

	// RateLimit
	boolean("RATELIMIT_ENABLED", &cfg.RateLimitEnabled)
	integer("RATELIMIT_ISSUE_PER_MINUTE", &cfg.RateLimitIssuePerMinute)

	// Tracing
	boolean("TRACING_ENABLED", &cfg.TracingEnabled)
	str("OTLP_GRPC_ENDPOINT", &cfg.OtlpGrpcEndpoint)

	// Events
	str("EVENTS_DRIVER", &cfg.EventsDriver)
	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok && v != "" {
		cfg.KafkaBrokers = splitList(v)
	}
	str("KAFKA_TOPIC", &cfg.KafkaTopic)

	if err := errors.Join(errs...); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ValidateEvents checks what cmd/shareevents needs.
func (c Config) ValidateEvents() error {
	var errs []error
	if err := c.validateLogFormat(); err != nil {
		errs = append(errs, err)
	}
	if len(c.KafkaBrokers) == 0 || c.KafkaTopic == "" {
		errs = append(errs, errors.New("the share events consumer needs KAFKA_BROKERS and KAFKA_TOPIC"))
	}
	return errors.Join(errs...)
}

func (c Config) validateLogFormat() error {
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	return nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error

	for name, d := range map[string]time.Duration{
		"IDLE_TIMEOUT":        c.IdleTimeout,
		"SHUTDOWN_TIMEOUT":    c.ShutdownTimeout,
		"READ_HEADER_TIMEOUT": c.ReadHeaderTimeout,
		"READ_TIMEOUT":        c.ReadTimeout,
		"WRITE_TIMEOUT":       c.WriteTimeout,
		"STORE_TIMEOUT":       c.Store.Timeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}

	if err := c.validateLogFormat(); err != nil {
		errs = append(errs, err)
	}

	switch c.Store.Driver {
	case StoreDriverRedis:
		if c.Store.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when STORE_DRIVER=redis"))
		}
		if c.Store.RedisDB < 0 {
			errs = append(errs, fmt.Errorf("REDIS_DB must not be negative, got %d", c.Store.RedisDB))
		}
		if c.Store.RedisPoolSize <= 0 {
			errs = append(errs, fmt.Errorf("REDIS_POOL_SIZE must be positive, got %d", c.Store.RedisPoolSize))
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be redis or memory, got %q", c.Store.Driver))
	}

	if len(c.SharePublicHosts) == 0 {
		errs = append(errs, errors.New("SHARE_PUBLIC_HOSTS must list at least one host"))
	}
	for _, h := range c.SharePublicHosts {
		if strings.Contains(h, "://") || strings.ContainsAny(h, "/?#@ ") {
			errs = append(errs, fmt.Errorf("SHARE_PUBLIC_HOSTS: %q must be host[:port]", h))
		}
	}

	for _, p := range c.SharePreviewOrigins {
		if _, err := sharelink.CompileOriginPattern(p); err != nil {
			errs = append(errs, fmt.Errorf("SHARE_PREVIEW_ORIGINS: %w", err))
		}
	}

	if c.RateLimitEnabled {
		if c.RateLimitIssuePerMinute <= 0 {
			errs = append(errs, fmt.Errorf("RATELIMIT_ISSUE_PER_MINUTE must be positive, got %d", c.RateLimitIssuePerMinute))
		}
		// The sliding window lives in Redis.
		if c.Store.RedisAddr == "" {
			errs = append(errs, errors.New("RATELIMIT_ENABLED needs REDIS_ADDR"))
		}
	}

	switch c.EventsDriver {
	case EventsDriverChannel:
	case EventsDriverKafka:
		if len(c.KafkaBrokers) == 0 || c.KafkaTopic == "" {
			errs = append(errs, errors.New("EVENTS_DRIVER=kafka needs KAFKA_BROKERS and KAFKA_TOPIC"))
		}
	default:
		errs = append(errs, fmt.Errorf("EVENTS_DRIVER must be channel or kafka, got %q", c.EventsDriver))
	}

	if c.TracingEnabled && c.OtlpGrpcEndpoint == "" {
		errs = append(errs, errors.New("TRACING_ENABLED needs OTLP_GRPC_ENDPOINT"))
	}

	return errors.Join(errs...)
}

// ParseLevel accepts debug, info, warn (or warning) and error.
func ParseLevel(v string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: unknown level %q", v)
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
