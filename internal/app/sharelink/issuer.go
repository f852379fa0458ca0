package sharelink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"rotalink.local/internal/app/sharelink/events"
	"rotalink.local/internal/platform/metrics"
)

var tracer = otel.Tracer("rotalink.local/internal/app/sharelink")

// Issued is returned to the caller after a confirmed write.
type Issued struct {
	ShortURL  string
	ShareID   string
	ExpiresAt time.Time
}

// Option configures an Issuer or a Resolver.
type Option func(*options)

type options struct {
	newID  IDFunc
	now    func() time.Time
	events events.Collector
}

func defaultOptions() options {
	return options{
		newID:  NewShareID,
		now:    time.Now,
		events: events.Nop{},
	}
}

// WithIDFunc replaces the share id generator.
func WithIDFunc(fn IDFunc) Option {
	return func(o *options) { o.newID = fn }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithEvents sends share events to c.
func WithEvents(c events.Collector) Option {
	return func(o *options) {
		if c != nil {
			o.events = c
		}
	}
}

// Issuer turns long URLs into short ones. It holds no mutable state and is
// safe for concurrent use.
type Issuer struct {
	store Store
	allow *AllowList
	opts  options
}

func NewIssuer(store Store, allow *AllowList, opts ...Option) *Issuer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if allow == nil {
		allow = &AllowList{}
	}
	return &Issuer{store: store, allow: allow, opts: o}
}

// Issue validates longURL, stores a new mapping and reads it back before
// answering. origin is the scheme://host[:port] the request arrived on; the
// short URL is built from it.
//
// Leading and trailing whitespace is stripped from longURL before anything
// else, so the stored and resolved URL is the trimmed form.
//
// Collisions are not checked: a second write under the same id replaces the
// first.
func (i *Issuer) Issue(ctx context.Context, longURL, origin string) (Issued, error) {
	ctx, span := tracer.Start(ctx, "sharelink.Issue")
	defer span.End()

	longURL = strings.TrimSpace(longURL)
	if longURL == "" {
		metrics.ShareIssues.WithLabelValues("empty_url").Inc()
		return Issued{}, ErrEmptyURL
	}
	u, err := url.Parse(longURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		metrics.ShareIssues.WithLabelValues("invalid_url").Inc()
		return Issued{}, ErrInvalidURL
	}
	if !i.allow.Allowed(longURL, u, origin) {
		metrics.ShareIssues.WithLabelValues("domain_not_allowed").Inc()
		slog.Info("share rejected: domain not allowed", "host", u.Host, "origin", origin)
		return Issued{}, ErrDomainNotAllowed
	}

	id := i.opts.newID()
	rec := NewRecord(longURL, i.opts.now())
	key := Key(id)
	span.SetAttributes(
		attribute.String("share.id", id),
		attribute.String("share.schedule_id", rec.ScheduleID),
	)

	if err := i.store.Set(ctx, key, rec, ShareTTL); err != nil {
		metrics.ShareIssues.WithLabelValues("store_error").Inc()
		slog.Error("share store write failed", "share_id", id, "err", err)
		span.SetStatus(codes.Error, "store write failed")
		span.RecordError(err)
		return Issued{}, fmt.Errorf("%w: set %s: %w", ErrStoreUnavailable, key, err)
	}

	got, err := i.store.Get(ctx, key)
	switch {
	case errors.Is(err, ErrNotFound):
		metrics.ShareIssues.WithLabelValues("not_confirmed").Inc()
		slog.Error("share write not confirmed: record missing after set", "share_id", id)
		span.SetStatus(codes.Error, "write not confirmed")
		return Issued{}, fmt.Errorf("%w: %s missing after set", ErrWriteNotConfirmed, key)
	case err != nil:
		metrics.ShareIssues.WithLabelValues("store_error").Inc()
		slog.Error("share confirmation read failed", "share_id", id, "err", err)
		span.SetStatus(codes.Error, "confirmation read failed")
		span.RecordError(err)
		return Issued{}, fmt.Errorf("%w: get %s: %w", ErrStoreUnavailable, key, err)
	case got.LongURL != rec.LongURL:
		metrics.ShareIssues.WithLabelValues("not_confirmed").Inc()
		slog.Error("share write not confirmed: record differs after set", "share_id", id)
		span.SetStatus(codes.Error, "write not confirmed")
		return Issued{}, fmt.Errorf("%w: %s holds a different record", ErrWriteNotConfirmed, key)
	}

	metrics.ShareIssues.WithLabelValues("ok").Inc()
	i.opts.events.Collect(events.ShareEvent{
		Kind:       events.KindIssued,
		ShareID:    id,
		ScheduleID: rec.ScheduleID,
		At:         rec.CreatedAt,
	})
	slog.Debug("share issued", "share_id", id, "schedule_id", rec.ScheduleID)

	return Issued{
		ShortURL:  strings.TrimSuffix(origin, "/") + "/s/" + id,
		ShareID:   id,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}
