package sharelink

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"rotalink.local/internal/app/sharelink/events"
	"rotalink.local/internal/platform/metrics"
)

// Resolver maps share ids back to long URLs. Every failure, including store
// outages, surfaces as ErrNotFound.
type Resolver struct {
	store Store
	opts  options
}

func NewResolver(store Store, opts ...Option) *Resolver {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Resolver{store: store, opts: o}
}

// Resolve performs at most one store read and never writes.
// A malformed id is rejected without touching the store.
func (r *Resolver) Resolve(ctx context.Context, id string) (string, error) {
	if !ValidShareID(id) {
		metrics.ShareResolves.WithLabelValues("bad_shape").Inc()
		return "", ErrNotFound
	}

	ctx, span := tracer.Start(ctx, "sharelink.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("share.id", id))

	rec, err := r.store.Get(ctx, Key(id))
	if errors.Is(err, ErrNotFound) {
		metrics.ShareResolves.WithLabelValues("miss").Inc()
		return "", ErrNotFound
	}
	if err != nil {
		metrics.ShareResolves.WithLabelValues("store_error").Inc()
		slog.Error("share store read failed", "share_id", id, "err", err)
		span.RecordError(err)
		return "", ErrNotFound
	}
	if rec.LongURL == "" {
		metrics.ShareResolves.WithLabelValues("bad_record").Inc()
		slog.Warn("share record has no longUrl", "share_id", id)
		return "", ErrNotFound
	}
	if rec.Expired(r.opts.now()) {
		metrics.ShareResolves.WithLabelValues("miss").Inc()
		return "", ErrNotFound
	}

	metrics.ShareResolves.WithLabelValues("hit").Inc()
	r.opts.events.Collect(events.ShareEvent{
		Kind:       events.KindResolved,
		ShareID:    id,
		ScheduleID: rec.ScheduleID,
		At:         r.opts.now().UTC(),
	})
	return rec.LongURL, nil
}
