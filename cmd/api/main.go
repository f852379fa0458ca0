package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"rotalink.local/gee"
	"rotalink.local/gee/middleware"
	"rotalink.local/internal/app/sharelink"
	"rotalink.local/internal/app/sharelink/events"
	sharehttpapi "rotalink.local/internal/app/sharelink/httpapi"
	"rotalink.local/internal/app/sharelink/store"
	"rotalink.local/internal/platform/cache"
	"rotalink.local/internal/platform/config"
	"rotalink.local/internal/platform/httpmiddleware"
	"rotalink.local/internal/platform/httpserver"
	"rotalink.local/internal/platform/metrics"
	"rotalink.local/internal/platform/ratelimit"
	"rotalink.local/internal/platform/trace"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	slog.SetDefault(newLogger(cfg))

	metrics.Init()

	if cfg.TracingEnabled {
		shutdown, err := trace.InitTrace(cfg.OtlpGrpcEndpoint, cfg.ServiceName, version)
		if err != nil {
			log.Fatal(err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				slog.Error("trace shutdown failed", "err", err)
			}
		}()
	} else {
		slog.Warn("tracing disabled by config", "TRACING_ENABLED", false)
	}

	// Redis backs the share store and the rate limiter. One client per process.
	var redisClient *redis.Client
	if cfg.Store.RedisAddr != "" {
		redisClient, err = cache.NewRedisClient(context.Background(), cfg.Store)
		if err != nil {
			log.Fatal(err)
		}
		defer redisClient.Close()
		slog.Info("redis connected", "addr", cfg.Store.RedisAddr, "db", cfg.Store.RedisDB)
	}

	var shareStore interface {
		sharelink.Store
		sharelink.Pinger
	}
	switch cfg.Store.Driver {
	case config.StoreDriverRedis:
		shareStore = store.NewRedisStore(redisClient)
	case config.StoreDriverMemory:
		mem, err := store.NewMemoryStore(cfg.Store.MemoryMaxItems, cfg.Store.MemoryMaxBytes)
		if err != nil {
			log.Fatal(err)
		}
		defer mem.Close()
		shareStore = mem
		slog.Warn("share store is in-process memory; links do not survive restarts")
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimitEnabled {
		limiter = ratelimit.NewLimiter(redisClient)
	} else {
		slog.Warn("rate limit disabled by config", "RATELIMIT_ENABLED", false)
	}

	allow, err := sharelink.NewAllowList(cfg.SharePreviewOrigins, cfg.ShareProductionHost)
	if err != nil {
		log.Fatal(err)
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var collector events.Collector
	switch cfg.EventsDriver {
	case config.EventsDriverKafka:
		slog.Info("share events go to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
		collector = events.NewKafkaCollector(cfg.KafkaBrokers, cfg.KafkaTopic)
	default:
		channelCollector := events.NewChannelCollector(10000)
		collector = channelCollector
		go events.NewConsumer(channelCollector.Events(), events.LogFlush).Run(stopCtx)
	}
	defer collector.Close()

	issuer := sharelink.NewIssuer(shareStore, allow, sharelink.WithEvents(collector))
	resolver := sharelink.NewResolver(shareStore, sharelink.WithEvents(collector))

	r := gee.New()
	r.Use(gee.Recovery(), middleware.ReqID(), middleware.AccessLog(), httpmiddleware.Metrics(), httpmiddleware.TraceName())
	sharehttpapi.RegisterRoutes(r, sharehttpapi.Deps{
		Issuer:         issuer,
		Resolver:       resolver,
		PublicHosts:    cfg.SharePublicHosts,
		Limiter:        limiter,
		IssuePerMinute: cfg.RateLimitIssuePerMinute,
		StoreTimeout:   cfg.Store.Timeout,
	})

	publicHandler := http.Handler(r)
	if cfg.TracingEnabled {
		publicHandler = otelhttp.NewHandler(r, "http")
	}
	publicSrv := httpserver.New(cfg, publicHandler)
	adminSrv := httpserver.NewAdmin(cfg, newAdminMux(cfg, shareStore))

	errch := make(chan error, 2)
	go func() {
		errch <- httpserver.RunWithGracefulShutdownContext(publicSrv, cfg.ShutdownTimeout, stopCtx)
	}()
	go func() {
		errch <- httpserver.RunWithGracefulShutdownContext(adminSrv, cfg.ShutdownTimeout, stopCtx)
	}()
	slog.Info("rotalink started", "addr", cfg.Addr, "admin_addr", cfg.AdminAddr, "store", cfg.Store.Driver, "version", version)

	if err := <-errch; err != nil {
		stop()
		select {
		case <-errch:
		case <-time.After(cfg.ShutdownTimeout + time.Second):
		}
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}

	stop()
	<-errch
	slog.Info("rotalink stopped")
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var h slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.LogFormat == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(h).With("service", cfg.ServiceName)
}

// newAdminMux serves metrics, readiness and build info. Bind it to loopback or
// a private network only.
func newAdminMux(cfg config.Config, ready sharelink.Pinger) *http.ServeMux {
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())

	adminMux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), cfg.Store.Timeout)
		defer cancel()
		if err := ready.Ping(ctx); err != nil {
			slog.Error("readiness: store ping failed", "err", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("store unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	adminMux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"service_name": cfg.ServiceName,
			"version":      version,
			"commit":       commit,
			"build_time":   buildTime,
			"go_version":   runtime.Version(),
		})
	})

	if cfg.PprofEnabled {
		adminMux.HandleFunc("/debug/pprof/", pprof.Index)
		adminMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		adminMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		adminMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		adminMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return adminMux
}
