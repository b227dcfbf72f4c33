// Package publisher mirrors audit entries to Kafka for downstream SIEM and
// retention pipelines. The mirror is fire-and-forget: the store row written
// by the Recorder is the queryable record, and a produce failure is only
// diagnosed, matching the best-effort audit contract.
package publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/twmb/franz-go/pkg/kgo"

	"maternidad/internal/audit"
)

// Kafka publishes audit entries asynchronously on a single topic, keyed by
// subject so per-entity history stays ordered within a partition.
type Kafka struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafka connects to the given seed brokers. Returns nil if no seeds are
// configured (mirror disabled).
func NewKafka(seeds []string, topic string, logger *slog.Logger) (*Kafka, error) {
	if len(seeds) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(seeds...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, err
	}
	return &Kafka{client: client, topic: topic, logger: logger}, nil
}

// Emit produces one entry without waiting for the broker. Failures are
// logged and dropped.
func (k *Kafka) Emit(entry audit.Entry) {
	payload, err := json.Marshal(entry)
	if err != nil {
		k.logger.Warn("audit mirror marshal failed", "error", err, "entry_id", entry.ID)
		return
	}
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(string(entry.SubjectType) + "/" + strconv.FormatInt(entry.SubjectID, 10)),
		Value: payload,
	}
	k.client.Produce(context.Background(), record, func(_ *kgo.Record, err error) {
		if err != nil {
			k.logger.Warn("audit mirror produce failed", "error", err, "entry_id", entry.ID)
		}
	})
}

// Close flushes pending records and releases the client.
func (k *Kafka) Close(ctx context.Context) {
	if err := k.client.Flush(ctx); err != nil {
		k.logger.Warn("audit mirror flush failed", "error", err)
	}
	k.client.Close()
}
