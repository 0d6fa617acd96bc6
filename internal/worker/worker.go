package worker

import (
	"context"

	"marketplace-service/internal/broker"
	"marketplace-service/internal/service"
	"marketplace-service/internal/util"
)

// NotificationWorker consumes marketplace events and writes system messages
type NotificationWorker struct {
	consumer      *broker.Consumer
	eventHandler  *broker.EventHandler
	notifications *service.NotificationService
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(
	consumer *broker.Consumer,
	notifications *service.NotificationService,
) *NotificationWorker {
	return &NotificationWorker{
		consumer:      consumer,
		eventHandler:  NewEventHandler(notifications),
		notifications: notifications,
	}
}

// NewEventHandler routes the events the notification service cares about
func NewEventHandler(notifications *service.NotificationService) *broker.EventHandler {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderCreated(notifications.HandleOrderCreated)
	eventHandler.OnOrderStateChanged(notifications.HandleOrderStateChanged)
	eventHandler.OnShipmentTracked(notifications.HandleShipmentTracked)
	return eventHandler
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	util.GetLogger().Info("Starting notification worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	util.GetLogger().Info("Stopping notification worker")
	return w.consumer.Close()
}
