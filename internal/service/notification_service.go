package service

import (
	"context"
	"fmt"

	"marketplace-service/internal/models"
	"marketplace-service/internal/util"

	"go.uber.org/zap"
)

// NotificationService turns consumed domain events into system messages.
// Every handler is idempotent on the event id.
type NotificationService struct {
	events   EventLog
	orders   OrderRepository
	messages *MessageService
	logger   *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(events EventLog, orders OrderRepository, messages *MessageService) *NotificationService {
	return &NotificationService{
		events:   events,
		orders:   orders,
		messages: messages,
		logger:   util.GetLogger(),
	}
}

// HandleOrderCreated tells the seller about a new order
func (ns *NotificationService) HandleOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	ctx, span := util.StartSpan(ctx, "NotificationService.HandleOrderCreated")
	defer span.End()

	return ns.once(ctx, event.BaseEvent, func() error {
		orderID := event.OrderID
		return ns.messages.Notify(ctx, event.BuyerID, event.SellerID, &orderID,
			fmt.Sprintf("Nueva orden #%d", event.OrderID),
			fmt.Sprintf("Recibiste una nueva orden por %d unidad(es). Total: $%s", event.Quantity, event.Total.StringFixed(2)))
	})
}

// HandleOrderStateChanged tells the buyer their order moved
func (ns *NotificationService) HandleOrderStateChanged(ctx context.Context, event *models.OrderStateChangedEvent) error {
	ctx, span := util.StartSpan(ctx, "NotificationService.HandleOrderStateChanged")
	defer span.End()

	return ns.once(ctx, event.BaseEvent, func() error {
		orderID := event.OrderID
		return ns.messages.Notify(ctx, event.SellerID, event.BuyerID, &orderID,
			fmt.Sprintf("Orden #%d: %s", event.OrderID, event.To),
			fmt.Sprintf("Tu orden pasó de %s a %s", event.From, event.To))
	})
}

// HandleShipmentTracked tells the buyer about a carrier update
func (ns *NotificationService) HandleShipmentTracked(ctx context.Context, event *models.ShipmentTrackedEvent) error {
	ctx, span := util.StartSpan(ctx, "NotificationService.HandleShipmentTracked")
	defer span.End()

	return ns.once(ctx, event.BaseEvent, func() error {
		order, err := ns.orders.GetOrderByID(ctx, event.OrderID)
		if err != nil {
			return fmt.Errorf("failed to get order: %w", err)
		}
		body := fmt.Sprintf("Tu envío está: %s", event.State)
		if event.TrackingNumber != nil {
			body = fmt.Sprintf("%s (seguimiento %s)", body, *event.TrackingNumber)
		}
		return ns.messages.Notify(ctx, order.SellerID, order.BuyerID, &order.ID,
			fmt.Sprintf("Envío de la orden #%d", order.ID), body)
	})
}

func (ns *NotificationService) once(ctx context.Context, event models.BaseEvent, handle func() error) error {
	processed, err := ns.events.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		ns.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	if err := handle(); err != nil {
		return err
	}
	util.NotificationsSentTotal.WithLabelValues(event.EventType).Inc()

	if err := ns.events.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		ns.logger.Error("Failed to mark event processed", zap.Error(err))
	}
	return nil
}
