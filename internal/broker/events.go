package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"marketplace-service/internal/models"
	"marketplace-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderCreated publishes OrderCreated event
func (ep *EventPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOrderStateChanged publishes OrderStateChanged event
func (ep *EventPublisher) PublishOrderStateChanged(ctx context.Context, event *models.OrderStateChangedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOfferResponded publishes OfferResponded event
func (ep *EventPublisher) PublishOfferResponded(ctx context.Context, event *models.OfferRespondedEvent) error {
	key := fmt.Sprintf("offer-%d", event.OfferID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishRatingCreated publishes RatingCreated event
func (ep *EventPublisher) PublishRatingCreated(ctx context.Context, event *models.RatingCreatedEvent) error {
	key := fmt.Sprintf("user-%d", event.RateeID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishShipmentCreated publishes ShipmentCreated event
func (ep *EventPublisher) PublishShipmentCreated(ctx context.Context, event *models.ShipmentCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishShipmentTracked publishes ShipmentTracked event
func (ep *EventPublisher) PublishShipmentTracked(ctx context.Context, event *models.ShipmentTrackedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// events of one order share a partition so consumers see them in order
func orderKey(orderID int64) string {
	return fmt.Sprintf("order-%d", orderID)
}

// EventHandler routes incoming events to registered handlers
type EventHandler struct {
	onOrderCreated      func(context.Context, *models.OrderCreatedEvent) error
	onOrderStateChanged func(context.Context, *models.OrderStateChangedEvent) error
	onShipmentTracked   func(context.Context, *models.ShipmentTrackedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnOrderCreated registers a handler for OrderCreated events
func (eh *EventHandler) OnOrderCreated(handler func(context.Context, *models.OrderCreatedEvent) error) {
	eh.onOrderCreated = handler
}

// OnOrderStateChanged registers a handler for OrderStateChanged events
func (eh *EventHandler) OnOrderStateChanged(handler func(context.Context, *models.OrderStateChangedEvent) error) {
	eh.onOrderStateChanged = handler
}

// OnShipmentTracked registers a handler for ShipmentTracked events
func (eh *EventHandler) OnShipmentTracked(handler func(context.Context, *models.ShipmentTrackedEvent) error) {
	eh.onShipmentTracked = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	logger := util.GetLogger()
	logger.Debug("Handling event",
		zap.String("event_type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeOrderCreated:
		if eh.onOrderCreated != nil {
			var event models.OrderCreatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderCreated event: %w", err)
			}
			return eh.onOrderCreated(ctx, &event)
		}

	case models.EventTypeOrderStateChanged:
		if eh.onOrderStateChanged != nil {
			var event models.OrderStateChangedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderStateChanged event: %w", err)
			}
			return eh.onOrderStateChanged(ctx, &event)
		}

	case models.EventTypeShipmentTracked:
		if eh.onShipmentTracked != nil {
			var event models.ShipmentTrackedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ShipmentTracked event: %w", err)
			}
			return eh.onShipmentTracked(ctx, &event)
		}

	default:
		logger.Debug("Unhandled event type", zap.String("event_type", baseEvent.EventType))
	}

	return nil
}
