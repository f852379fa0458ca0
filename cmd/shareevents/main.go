// Command shareevents reads share events back from Kafka and logs batch
// summaries. It pairs with EVENTS_DRIVER=kafka on the API.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"rotalink.local/internal/app/sharelink/events"
	"rotalink.local/internal/platform/config"
)

func main() {
	cfg, err := config.LoadEvents()
	if err != nil {
		log.Fatal(err)
	}
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var h slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.LogFormat == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h).With("service", cfg.ServiceName+"-share-events"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source := events.NewKafkaSource(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.ServiceName+"-share-events")
	defer func() {
		if err := source.Close(); err != nil {
			slog.Error("kafka reader close failed", "err", err)
		}
	}()

	slog.Info("share events consumer started", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	events.NewConsumer(source.Events(ctx), events.LogFlush).Run(ctx)
	slog.Info("share events consumer stopped")
}
