// Package audit publishes fraud alerts to Kafka for downstream case
// management and investigation tooling.
package audit

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/fraudguard/fraudguard/internal/config"
	"github.com/fraudguard/fraudguard/internal/domain/models"
	"github.com/fraudguard/fraudguard/internal/domain/service"
	"github.com/fraudguard/fraudguard/pkg/logger"
)

// KafkaAlertPublisher is the Kafka-backed AlertPublisher. Messages are keyed
// by user so alerts for one user land in order on the same partition.
type KafkaAlertPublisher struct {
	writer *kafka.Writer
	logger logger.Logger
}

var _ service.AlertPublisher = (*KafkaAlertPublisher)(nil)

// NewKafkaAlertPublisher creates the publisher over the configured brokers.
func NewKafkaAlertPublisher(cfg config.KafkaConfig, log logger.Logger) *KafkaAlertPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.AlertTopic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
	}
	return &KafkaAlertPublisher{
		writer: writer,
		logger: log.WithComponent("KafkaAlertPublisher"),
	}
}

// Publish sends one fraud alert. Failures are returned to the caller, which
// treats alert publication as best-effort.
func (p *KafkaAlertPublisher) Publish(ctx context.Context, alert models.FraudAlert) error {
	bytes, err := json.Marshal(alert)
	if err != nil {
		p.logger.Error(ctx, "failed to marshal fraud alert", err)
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(alert.UserID),
		Value:   bytes,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte("fraud_alert")}},
	})
	if err != nil {
		p.logger.Error(ctx, "failed to write alert to kafka", err, logger.Fields{
			"prediction_id": alert.PredictionID,
		})
	}
	return err
}

// PublishTraining emits a training-completed event.
func (p *KafkaAlertPublisher) PublishTraining(ctx context.Context, event models.TrainingCompleted) error {
	bytes, err := json.Marshal(event)
	if err != nil {
		p.logger.Error(ctx, "failed to marshal training event", err)
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Value:   bytes,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte("training_completed")}},
	})
	if err != nil {
		p.logger.Error(ctx, "failed to write training event to kafka", err)
	}
	return err
}

// Close closes the underlying Kafka writer.
func (p *KafkaAlertPublisher) Close() error {
	return p.writer.Close()
}
