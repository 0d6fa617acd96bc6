package service

import (
	"context"
	"time"

	"marketplace-service/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

// logPublishError records a failed publish. Events never fail the request that produced them.
func logPublishError(logger *zap.Logger, eventType string, err error) {
	if err != nil {
		logger.Error("Failed to publish event", zap.String("event_type", eventType), zap.Error(err))
	}
}

// NoopPublisher drops every event. Used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderCreated(context.Context, *models.OrderCreatedEvent) error {
	return nil
}

func (NoopPublisher) PublishOrderStateChanged(context.Context, *models.OrderStateChangedEvent) error {
	return nil
}

func (NoopPublisher) PublishOfferResponded(context.Context, *models.OfferRespondedEvent) error {
	return nil
}

func (NoopPublisher) PublishRatingCreated(context.Context, *models.RatingCreatedEvent) error {
	return nil
}

func (NoopPublisher) PublishShipmentCreated(context.Context, *models.ShipmentCreatedEvent) error {
	return nil
}

func (NoopPublisher) PublishShipmentTracked(context.Context, *models.ShipmentTrackedEvent) error {
	return nil
}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return NoopPublisher{}
	}
	return p
}
