package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"rotalink.local/internal/platform/metrics"
)

// KafkaCollector publishes events as JSON, keyed by share id.
type KafkaCollector struct {
	writer *kafka.Writer
}

func NewKafkaCollector(brokers []string, topic string) *KafkaCollector {
	return &KafkaCollector{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			Async:        true,
			BatchTimeout: 100 * time.Millisecond,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					slog.Error("share events: kafka write failed", "err", err, "count", len(messages))
				}
			},
		},
	}
}

func (k *KafkaCollector) Collect(event ShareEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("share events: marshal failed", "err", err)
		return
	}
	// Async writer: this only enqueues. Delivery errors arrive in Completion.
	err = k.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(event.ShareID),
		Value: data,
	})
	if err != nil {
		metrics.ShareEvents.WithLabelValues(string(event.Kind), "dropped").Inc()
		slog.Error("share events: kafka enqueue failed", "err", err)
		return
	}
	metrics.ShareEvents.WithLabelValues(string(event.Kind), "published").Inc()
}

func (k *KafkaCollector) Close() {
	if err := k.writer.Close(); err != nil {
		slog.Error("share events: kafka writer close failed", "err", err)
	}
}

// KafkaSource reads events back from the topic for offline consumers.
type KafkaSource struct {
	reader *kafka.Reader
}

func NewKafkaSource(brokers []string, topic, groupID string) *KafkaSource {
	return &KafkaSource{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
	}
}

// Events starts a reader goroutine. The channel is closed when ctx is done.
func (k *KafkaSource) Events(ctx context.Context) <-chan ShareEvent {
	out := make(chan ShareEvent, 100)
	go func() {
		defer close(out)
		for {
			msg, err := k.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Error("share events: kafka read failed", "err", err)
				select {
				case <-time.After(time.Second):
				case <-ctx.Done():
					return
				}
				continue
			}

			var event ShareEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				slog.Error("share events: unmarshal failed", "err", err, "offset", msg.Offset)
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (k *KafkaSource) Close() error {
	return k.reader.Close()
}
