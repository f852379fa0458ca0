package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"ADDR", "IDLE_TIMEOUT", "SHUTDOWN_TIMEOUT", "READ_HEADER_TIMEOUT", "READ_TIMEOUT", "WRITE_TIMEOUT",
		"LOG_LEVEL", "LOG_FORMAT", "SERVICE_NAME", "PPROF_ENABLED", "ADMIN_ADDR",
		"STORE_DRIVER", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_POOL_SIZE", "STORE_TIMEOUT",
		"SHARE_PUBLIC_HOSTS", "SHARE_PREVIEW_ORIGINS", "SHARE_PRODUCTION_HOST",
		"RATELIMIT_ENABLED", "RATELIMIT_ISSUE_PER_MINUTE",
		"TRACING_ENABLED", "OTLP_GRPC_ENDPOINT",
		"EVENTS_DRIVER", "KAFKA_BROKERS", "KAFKA_TOPIC",
	} {
		t.Setenv(name, "")
	}
}

func TestConfigLoad_UsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Addr != ":9999" {
		t.Fatalf("Addr: got %q, want %q", cfg.Addr, ":9999")
	}
	if cfg.AdminAddr != "127.0.0.1:6060" {
		t.Fatalf("AdminAddr: got %q", cfg.AdminAddr)
	}
	if cfg.IdleTimeout != 60*time.Second || cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("timeouts: got idle=%v shutdown=%v", cfg.IdleTimeout, cfg.ShutdownTimeout)
	}
	if cfg.ReadHeaderTimeout != 5*time.Second || cfg.ReadTimeout != 10*time.Second || cfg.WriteTimeout != 10*time.Second {
		t.Fatalf("timeouts: got header=%v read=%v write=%v", cfg.ReadHeaderTimeout, cfg.ReadTimeout, cfg.WriteTimeout)
	}
	if cfg.Store.Driver != StoreDriverRedis || cfg.Store.Timeout != 3*time.Second || cfg.Store.RedisPoolSize != 10 {
		t.Fatalf("store: got %+v", cfg.Store)
	}
	if cfg.ServiceName != "rotalink" || cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("logging: got service=%q level=%v", cfg.ServiceName, cfg.LogLevel)
	}
	if !cfg.RateLimitEnabled || cfg.RateLimitIssuePerMinute != 10 {
		t.Fatalf("ratelimit: got enabled=%v limit=%d", cfg.RateLimitEnabled, cfg.RateLimitIssuePerMinute)
	}
	if cfg.EventsDriver != EventsDriverChannel || cfg.KafkaTopic != "share-events" {
		t.Fatalf("events: got driver=%q topic=%q", cfg.EventsDriver, cfg.KafkaTopic)
	}
	if len(cfg.SharePublicHosts) != 2 || cfg.SharePublicHosts[0] != "localhost:9999" {
		t.Fatalf("SharePublicHosts: got %q", cfg.SharePublicHosts)
	}
}

func TestConfigLoad_ReadsEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADDR", ":18080")
	t.Setenv("IDLE_TIMEOUT", "2m")
	t.Setenv("STORE_TIMEOUT", "750ms")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("SHARE_PUBLIC_HOSTS", "rota.example.org, api.rota.example.org:8443")
	t.Setenv("SHARE_PREVIEW_ORIGINS", "https://rota-*.vercel.app, https://rota-*.pages.dev")
	t.Setenv("SHARE_PRODUCTION_HOST", "rota.example.org")
	t.Setenv("RATELIMIT_ISSUE_PER_MINUTE", "30")
	t.Setenv("EVENTS_DRIVER", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Addr != ":18080" || cfg.IdleTimeout != 2*time.Minute {
		t.Fatalf("server: got addr=%q idle=%v", cfg.Addr, cfg.IdleTimeout)
	}
	if cfg.Store.Timeout != 750*time.Millisecond || cfg.Store.RedisAddr != "redis:6379" || cfg.Store.RedisDB != 2 {
		t.Fatalf("store: got %+v", cfg.Store)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel: got %v", cfg.LogLevel)
	}
	if len(cfg.SharePreviewOrigins) != 2 || cfg.SharePreviewOrigins[1] != "https://rota-*.pages.dev" {
		t.Fatalf("SharePreviewOrigins: got %q", cfg.SharePreviewOrigins)
	}
	if len(cfg.SharePublicHosts) != 2 || cfg.SharePublicHosts[1] != "api.rota.example.org:8443" {
		t.Fatalf("SharePublicHosts: got %q", cfg.SharePublicHosts)
	}
	if cfg.ShareProductionHost != "rota.example.org" {
		t.Fatalf("ShareProductionHost: got %q", cfg.ShareProductionHost)
	}
	if cfg.RateLimitIssuePerMinute != 30 {
		t.Fatalf("RateLimitIssuePerMinute: got %d", cfg.RateLimitIssuePerMinute)
	}
	if cfg.EventsDriver != EventsDriverKafka || len(cfg.KafkaBrokers) != 2 {
		t.Fatalf("events: got driver=%q brokers=%q", cfg.EventsDriver, cfg.KafkaBrokers)
	}
}

func TestConfigLoad_MemoryDriverWithoutRedis(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("RATELIMIT_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Driver != StoreDriverMemory {
		t.Fatalf("Driver: got %q", cfg.Store.Driver)
	}
}

func TestConfigLoad_FailsFast(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"redis without address", map[string]string{}, "REDIS_ADDR is required"},
		{"unknown driver", map[string]string{"STORE_DRIVER": "etcd", "REDIS_ADDR": "r:6379"}, "STORE_DRIVER"},
		{"bad duration", map[string]string{"REDIS_ADDR": "r:6379", "READ_TIMEOUT": "soon"}, "READ_TIMEOUT"},
		{"negative timeout", map[string]string{"REDIS_ADDR": "r:6379", "STORE_TIMEOUT": "-1s"}, "STORE_TIMEOUT must be positive"},
		{"bad preview origin", map[string]string{"REDIS_ADDR": "r:6379", "SHARE_PREVIEW_ORIGINS": "rota-*.vercel.app"}, "SHARE_PREVIEW_ORIGINS"},
		{"preview origin with path", map[string]string{"REDIS_ADDR": "r:6379", "SHARE_PREVIEW_ORIGINS": "https://rota-*.vercel.app/app"}, "SHARE_PREVIEW_ORIGINS"},
		{"preview origin without host", map[string]string{"REDIS_ADDR": "r:6379", "SHARE_PREVIEW_ORIGINS": "https://"}, "SHARE_PREVIEW_ORIGINS"},
		{"public host with scheme", map[string]string{"REDIS_ADDR": "r:6379", "SHARE_PUBLIC_HOSTS": "https://rota.example.org"}, "SHARE_PUBLIC_HOSTS"},
		{"zero rate limit", map[string]string{"REDIS_ADDR": "r:6379", "RATELIMIT_ISSUE_PER_MINUTE": "0"}, "RATELIMIT_ISSUE_PER_MINUTE"},
		{"bad bool", map[string]string{"REDIS_ADDR": "r:6379", "PPROF_ENABLED": "yes please"}, "PPROF_ENABLED"},
		{"bad log level", map[string]string{"REDIS_ADDR": "r:6379", "LOG_LEVEL": "loud"}, "LOG_LEVEL"},
		{"unknown events driver", map[string]string{"REDIS_ADDR": "r:6379", "EVENTS_DRIVER": "nats"}, "EVENTS_DRIVER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigLoadEvents_KafkaOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("EVENTS_DRIVER", "kafka")
	t.Setenv("KAFKA_BROKERS", "kafka:9092")

	cfg, err := LoadEvents()
	if err != nil {
		t.Fatalf("LoadEvents: %v", err)
	}
	if len(cfg.KafkaBrokers) != 1 || cfg.KafkaBrokers[0] != "kafka:9092" || cfg.KafkaTopic != "share-events" {
		t.Fatalf("kafka: got brokers=%q topic=%q", cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	// The API config is still rejected without Redis.
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "REDIS_ADDR") {
		t.Fatalf("Load: got %v, want a REDIS_ADDR error", err)
	}
}

func TestConfigLoadEvents_FailsFast(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}, "LOG_FORMAT"},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}, "LOG_LEVEL"},
		{"blank brokers", map[string]string{"KAFKA_BROKERS": " , "}, "KAFKA_BROKERS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadEvents()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("LoadEvents: got %v, want an error mentioning %q", err, tt.wantErr)
			}
		})
	}
}
