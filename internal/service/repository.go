package service

import (
	"context"
	"time"

	"marketplace-service/internal/models"
)

// UserRepository reads users and their wallet links
type UserRepository interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateWallet(ctx context.Context, userID int64, kind models.WalletKind, active bool, account string) (*models.User, error)
}

// ProductRepository persists the catalog
type ProductRepository interface {
	ListActiveProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	ListProductsByVendor(ctx context.Context, vendorID int64) ([]models.Product, error)
	ListProductsByState(ctx context.Context, state models.ProductState) ([]models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	ViewProduct(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	// UpdateProduct must run apply on the current row and persist it atomically
	UpdateProduct(ctx context.Context, id int64, apply func(*models.Product) error) (*models.Product, error)
	SetProductState(ctx context.Context, id int64, state models.ProductState) error
}

// CommissionRepository persists commission percentages
type CommissionRepository interface {
	ListCommissions(ctx context.Context) ([]models.Commission, error)
	GetActiveCommission(ctx context.Context, category string) (*models.Commission, error)
	UpsertCommission(ctx context.Context, c *models.Commission) error
}

// OrderRepository persists orders. PlaceOrder must lock the product, run check and
// apply the stock decrement and order insert as one atomic unit.
type OrderRepository interface {
	PlaceOrder(ctx context.Context, order *models.Order, check func(*models.Product) error) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	UpdateOrderState(ctx context.Context, id int64, state models.OrderState) (*models.Order, error)
	ListOrdersByBuyer(ctx context.Context, buyerID int64) ([]models.Order, error)
	ListOrdersBySeller(ctx context.Context, sellerID int64) ([]models.Order, error)
}

// RatingRepository persists ratings. CreateRating returns a Conflict error for a
// second rating of the same (rater, order) pair.
type RatingRepository interface {
	CreateRating(ctx context.Context, rating *models.Rating) error
	RatingExists(ctx context.Context, raterID, orderID int64) (bool, error)
	ListRatingsForUser(ctx context.Context, userID int64) ([]models.Rating, error)
}

type QuestionRepository interface {
	CreateQuestion(ctx context.Context, q *models.Question) error
	GetQuestionByID(ctx context.Context, id int64) (*models.Question, error)
	ListQuestionsByProduct(ctx context.Context, productID int64) ([]models.Question, error)
	AnswerQuestion(ctx context.Context, q *models.Question) error
}

// OfferRepository persists offers. RespondOffer locks the offer and its product,
// runs apply and stores both.
type OfferRepository interface {
	CreateOffer(ctx context.Context, offer *models.Offer) error
	GetOfferByID(ctx context.Context, id int64) (*models.Offer, error)
	ListOffersByProduct(ctx context.Context, productID int64) ([]models.Offer, error)
	RespondOffer(ctx context.Context, id int64, apply func(*models.Offer, *models.Product) error) (*models.Offer, error)
}

type MessageRepository interface {
	CreateMessage(ctx context.Context, m *models.Message) error
	GetMessageByID(ctx context.Context, id int64) (*models.Message, error)
	ListMessagesForUser(ctx context.Context, userID int64) ([]models.Message, error)
	MarkMessageRead(ctx context.Context, id int64) error
}

// ShipmentRepository persists carriers, shipments and their tracking log
type ShipmentRepository interface {
	ListCarriers(ctx context.Context, activeOnly bool) ([]models.Carrier, error)
	GetCarrierByID(ctx context.Context, id int64) (*models.Carrier, error)
	EnsureCarriers(ctx context.Context, carriers []models.Carrier) error
	CreateShipment(ctx context.Context, sh *models.Shipment) error
	GetShipmentByID(ctx context.Context, id int64) (*models.Shipment, error)
	FindShipmentByProviderID(ctx context.Context, providerID string) (*models.Shipment, error)
	FindShipmentByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipment, error)
	ListTrackingEvents(ctx context.Context, shipmentID int64) ([]models.TrackingEvent, error)
	ApplyTrackingUpdate(ctx context.Context, sh *models.Shipment, event *models.TrackingEvent) error
}

// EventLog remembers consumed events
type EventLog interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// Repository is the full storage contract, satisfied by store.Store and memstore.Store
type Repository interface {
	UserRepository
	ProductRepository
	CommissionRepository
	OrderRepository
	RatingRepository
	QuestionRepository
	OfferRepository
	MessageRepository
	ShipmentRepository
	EventLog
	Ping(ctx context.Context) error
	Close() error
}

// Cache is the slice of Redis the services use. A nil Cache disables caching and locking.
type Cache interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	ReleaseLock(ctx context.Context, key, token string) error
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// EventPublisher emits domain events after commits
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderStateChanged(ctx context.Context, event *models.OrderStateChangedEvent) error
	PublishOfferResponded(ctx context.Context, event *models.OfferRespondedEvent) error
	PublishRatingCreated(ctx context.Context, event *models.RatingCreatedEvent) error
	PublishShipmentCreated(ctx context.Context, event *models.ShipmentCreatedEvent) error
	PublishShipmentTracked(ctx context.Context, event *models.ShipmentTrackedEvent) error
}
