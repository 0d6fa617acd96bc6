package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeOrderCreated      = "ORDER_CREATED"
	EventTypeOrderStateChanged = "ORDER_STATE_CHANGED"
	EventTypeOfferResponded    = "OFFER_RESPONDED"
	EventTypeRatingCreated     = "RATING_CREATED"
	EventTypeShipmentCreated   = "SHIPMENT_CREATED"
	EventTypeShipmentTracked   = "SHIPMENT_TRACKED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCreatedEvent published after an order is committed
type OrderCreatedEvent struct {
	BaseEvent
	OrderID    int64           `json:"order_id"`
	BuyerID    int64           `json:"buyer_id"`
	SellerID   int64           `json:"seller_id"`
	ProductID  int64           `json:"product_id"`
	Quantity   int             `json:"quantity"`
	Total      decimal.Decimal `json:"total"`
	Commission decimal.Decimal `json:"commission"`
}

// OrderStateChangedEvent published when the seller moves an order
type OrderStateChangedEvent struct {
	BaseEvent
	OrderID  int64      `json:"order_id"`
	BuyerID  int64      `json:"buyer_id"`
	SellerID int64      `json:"seller_id"`
	From     OrderState `json:"from"`
	To       OrderState `json:"to"`
}

// OfferRespondedEvent published when a vendor answers an offer
type OfferRespondedEvent struct {
	BaseEvent
	OfferID   int64           `json:"offer_id"`
	ProductID int64           `json:"product_id"`
	BuyerID   int64           `json:"buyer_id"`
	State     OfferState      `json:"state"`
	Price     decimal.Decimal `json:"price"`
}

// RatingCreatedEvent published when a buyer rates a seller
type RatingCreatedEvent struct {
	BaseEvent
	RatingID int64 `json:"rating_id"`
	RaterID  int64 `json:"rater_id"`
	RateeID  int64 `json:"ratee_id"`
	OrderID  int64 `json:"order_id"`
	Stars    int   `json:"stars"`
}

// ShipmentCreatedEvent published when a shipment is opened for an order
type ShipmentCreatedEvent struct {
	BaseEvent
	ShipmentID int64 `json:"shipment_id"`
	OrderID    int64 `json:"order_id"`
	CarrierID  int64 `json:"carrier_id"`
}

// ShipmentTrackedEvent published for every ingested tracking update
type ShipmentTrackedEvent struct {
	BaseEvent
	ShipmentID     int64     `json:"shipment_id"`
	OrderID        int64     `json:"order_id"`
	State          string    `json:"state"`
	TrackingNumber *string   `json:"tracking_number"`
	OccurredAt     time.Time `json:"occurred_at"`
}
