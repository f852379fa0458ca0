package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rotalink.local/internal/app/sharelink"
	"rotalink.local/internal/platform/metrics"
)

var tracer = otel.Tracer("rotalink.local/internal/app/sharelink/store")

func encode(rec sharelink.Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode share record: %w", err)
	}
	return data, nil
}

func decode(key string, data []byte) (sharelink.Record, error) {
	var rec sharelink.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return sharelink.Record{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return rec, nil
}

// observe records one store call. A miss is not an error.
func observe(backend, op string, start time.Time, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, sharelink.ErrNotFound):
		result = "miss"
	default:
		result = "error"
	}
	metrics.StoreOperations.WithLabelValues(backend, op, result).Inc()
	metrics.StoreOperationDurationSeconds.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, sharelink.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
