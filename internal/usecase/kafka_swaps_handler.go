package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"LPQuant/internal/domain/models"
	domrepo "LPQuant/internal/domain/repository"
	pkgkafka "LPQuant/pkg/kafka"
)

// KafkaSwapsHandler lands published swaps in the swap store.
type KafkaSwapsHandler struct {
	topic   string
	proc    *SwapProcessor
	metrics domrepo.Metrics
}

func NewKafkaSwapsHandler(topic string, proc *SwapProcessor, metrics domrepo.Metrics) *KafkaSwapsHandler {
	return &KafkaSwapsHandler{topic: topic, proc: proc, metrics: metrics}
}

func (h *KafkaSwapsHandler) Topic() string { return h.topic }

// Handle decodes one swap. Duplicates are ignored by the store, so redelivery
// is harmless.
func (h *KafkaSwapsHandler) Handle(ctx context.Context, b []byte) error {
	var s models.Swap
	if err := json.Unmarshal(b, &s); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode swap: %w", err)
	}
	if s.PoolID == "" || s.TxDigest == "" {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode swap: missing pool_id or tx_digest")
	}
	if s.TimestampMs > 0 {
		h.metrics.RecordLatency("ingest_e2e", time.Since(time.UnixMilli(s.TimestampMs)).Seconds())
	}

	start := time.Now()
	_, err := h.proc.Persist(ctx, []*models.Swap{&s})
	h.metrics.RecordLatency("consumer_store", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaSwapsHandler)(nil)
