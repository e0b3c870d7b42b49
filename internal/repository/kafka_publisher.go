package repository

import (
	"context"

	"LPQuant/internal/domain/models"
	"LPQuant/internal/domain/repository"
	pkgkafka "LPQuant/pkg/kafka"
)

// KafkaPublisher implements Publisher for Kafka. Swaps are keyed by pool id
// so one pool's events stay ordered within a partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, s *models.Swap) error {
	return p.producer.Publish(ctx, p.topic, []byte(s.PoolID), s)
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, swaps []*models.Swap) error {
	if len(swaps) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(swaps))
	for _, s := range swaps {
		if s == nil {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{Key: []byte(s.PoolID), Value: s})
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
