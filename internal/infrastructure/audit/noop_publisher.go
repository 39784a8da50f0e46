package audit

import (
	"context"

	"github.com/fraudguard/fraudguard/internal/domain/models"
	"github.com/fraudguard/fraudguard/internal/domain/service"
)

// NoopPublisher discards all events. Used when no Kafka brokers are
// configured.
type NoopPublisher struct{}

var _ service.AlertPublisher = NoopPublisher{}

// NewNoopPublisher returns the discarding publisher.
func NewNoopPublisher() NoopPublisher {
	return NoopPublisher{}
}

func (NoopPublisher) Publish(context.Context, models.FraudAlert) error {
	return nil
}

func (NoopPublisher) PublishTraining(context.Context, models.TrainingCompleted) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}
