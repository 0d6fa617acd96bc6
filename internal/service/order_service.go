package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"
	"marketplace-service/internal/util"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// OrderService handles order business logic
type OrderService struct {
	orders      OrderRepository
	users       UserRepository
	commissions *CommissionService
	cache       Cache
	publisher   EventPublisher
	lockTTL     time.Duration
	logger      *zap.Logger
}

// NewOrderService creates a new order service. cache may be nil.
func NewOrderService(
	orders OrderRepository,
	users UserRepository,
	commissions *CommissionService,
	cache Cache,
	publisher EventPublisher,
	lockTTL time.Duration,
) *OrderService {
	return &OrderService{
		orders:      orders,
		users:       users,
		commissions: commissions,
		cache:       cache,
		publisher:   publisherOrNoop(publisher),
		lockTTL:     lockTTL,
		logger:      util.GetLogger(),
	}
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	ProductID       int64   `json:"producto_id"`
	Quantity        *int    `json:"cantidad"`
	PaymentMethod   string  `json:"metodo_pago"`
	DeliveryAddress *string `json:"direccion_entrega"`
	IdempotencyKey  string  `json:"-"`
}

// UpdateOrderStateRequest carries the new order state
type UpdateOrderStateRequest struct {
	State string `json:"estado"`
}

// CreateOrder buys a product for the caller. The returned flag is false when the
// idempotency key matched an order created earlier.
func (s *OrderService) CreateOrder(ctx context.Context, actor models.Actor, req *CreateOrderRequest) (*models.Order, bool, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder",
		attribute.Int64("buyer_id", actor.UserID),
		attribute.Int64("product_id", req.ProductID))
	defer span.End()

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if req.ProductID <= 0 {
		return nil, false, s.fail(apperror.InvalidRequest("producto_id es requerido"))
	}
	if quantity < 1 {
		return nil, false, s.fail(apperror.InvalidRequest("La cantidad debe ser al menos 1"))
	}
	kind, ok := models.ParseWalletKind(req.PaymentMethod)
	if !ok {
		return nil, false, s.fail(apperror.InvalidRequest("Método de pago inválido: %s", req.PaymentMethod))
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	if key != "" {
		existing, err := s.replay(ctx, actor, key)
		if err != nil || existing != nil {
			return existing, false, err
		}

		release, err := s.lock(ctx, "order:idempotency:"+key)
		if err != nil {
			return nil, false, s.fail(err)
		}
		defer release()

		// a request holding the lock may have finished between the first lookup and ours
		existing, err = s.replay(ctx, actor, key)
		if err != nil || existing != nil {
			return existing, false, err
		}
	}

	buyer, err := s.users.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return nil, false, s.fail(err)
	}

	order := &models.Order{
		BuyerID:         buyer.ID,
		ProductID:       req.ProductID,
		Quantity:        quantity,
		PaymentMethod:   kind,
		State:           models.OrderPending,
		DeliveryAddress: req.DeliveryAddress,
	}
	if key != "" {
		order.IdempotencyKey = &key
	}

	var category string
	check := func(p *models.Product) error {
		if quantity > p.Stock {
			return apperror.InsufficientStock("Stock insuficiente. Disponible: %d", p.Stock)
		}
		if p.VendorID == buyer.ID {
			return apperror.InvalidRequest("No puedes comprar tu propio producto")
		}
		if !models.IsLinked(buyer, kind) {
			return apperror.WalletNotLinked("Debes vincular tu cuenta de %s para pagar con este método", kind.Label())
		}
		category = p.Category
		return nil
	}

	start := time.Now()
	err = s.orders.PlaceOrder(ctx, order, check)
	util.OrderPlacementLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		if apperror.KindOf(err) == apperror.KindInternal {
			util.RecordError(span, err)
		}
		return nil, false, s.fail(err)
	}
	span.SetAttributes(attribute.Int64("order_id", order.ID))

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("product_id", order.ProductID),
		zap.Int64("buyer_id", order.BuyerID),
		zap.Int("quantity", order.Quantity),
		zap.String("total", order.Total.String()))

	fee, err := s.commissions.CommissionFor(ctx, category, order.Total)
	if err != nil {
		s.logger.Warn("Failed to resolve commission", zap.Int64("order_id", order.ID), zap.Error(err))
		fee = decimal.Zero
	}

	event := &models.OrderCreatedEvent{
		BaseEvent:  newBaseEvent(models.EventTypeOrderCreated),
		OrderID:    order.ID,
		BuyerID:    order.BuyerID,
		SellerID:   order.SellerID,
		ProductID:  order.ProductID,
		Quantity:   order.Quantity,
		Total:      order.Total,
		Commission: fee,
	}
	logPublishError(s.logger, event.EventType, s.publisher.PublishOrderCreated(ctx, event))

	return order, true, nil
}

// replay returns the order already created for key, or nil
func (s *OrderService) replay(ctx context.Context, actor models.Actor, key string) (*models.Order, error) {
	existing, err := s.orders.GetOrderByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existing == nil {
		return nil, nil
	}
	if existing.BuyerID != actor.UserID {
		return nil, apperror.Conflict("La clave de idempotencia ya fue utilizada")
	}

	s.logger.Info("Duplicate order request detected",
		zap.String("idempotency_key", key),
		zap.Int64("order_id", existing.ID))
	return existing, nil
}

// lock serialises requests sharing an idempotency key. Without a cache the unique
// column on orders is the only guard.
func (s *OrderService) lock(ctx context.Context, key string) (func(), error) {
	if s.cache == nil {
		return func() {}, nil
	}

	token, ok, err := s.cache.AcquireLock(ctx, key, s.lockTTL)
	if err != nil {
		s.logger.Warn("Idempotency lock unavailable", zap.String("key", key), zap.Error(err))
		return func() {}, nil
	}
	if !ok {
		return nil, apperror.Conflict("Ya hay una solicitud en curso con esta clave de idempotencia")
	}

	return func() {
		if err := s.cache.ReleaseLock(context.Background(), key, token); err != nil {
			s.logger.Warn("Failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

func (s *OrderService) fail(err error) error {
	util.OrdersFailedTotal.WithLabelValues(string(apperror.KindOf(err))).Inc()
	return err
}

// UpdateOrderState moves an order to a new state. Only the seller may do it.
func (s *OrderService) UpdateOrderState(ctx context.Context, actor models.Actor, orderID int64, req *UpdateOrderStateRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateOrderState")
	defer span.End()

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.SellerID != actor.UserID {
		return nil, apperror.Forbidden("Solo el vendedor puede actualizar el estado de la orden")
	}

	next := models.OrderState(req.State)
	if !next.Valid() {
		return nil, apperror.InvalidRequest("Estado inválido: %s", req.State)
	}
	if !models.CanTransition(order.State, next) {
		return nil, apperror.InvalidRequest("No se puede pasar de %s a %s", order.State, next)
	}

	previous := order.State
	updated, err := s.orders.UpdateOrderState(ctx, orderID, next)
	if err != nil {
		return nil, err
	}

	util.OrderStateChangesTotal.WithLabelValues(string(next)).Inc()
	s.logger.Info("Order state changed",
		zap.Int64("order_id", orderID),
		zap.String("from", string(previous)),
		zap.String("to", string(next)))

	event := &models.OrderStateChangedEvent{
		BaseEvent: newBaseEvent(models.EventTypeOrderStateChanged),
		OrderID:   updated.ID,
		BuyerID:   updated.BuyerID,
		SellerID:  updated.SellerID,
		From:      previous,
		To:        next,
	}
	logPublishError(s.logger, event.EventType, s.publisher.PublishOrderStateChanged(ctx, event))

	return updated, nil
}

// GetOrder retrieves an order visible to its buyer or seller
func (s *OrderService) GetOrder(ctx context.Context, actor models.Actor, orderID int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder")
	defer span.End()

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsParty(actor.UserID) {
		return nil, apperror.Forbidden("No autorizado")
	}
	return order, nil
}

// ListPurchases returns the caller's orders as buyer
func (s *OrderService) ListPurchases(ctx context.Context, actor models.Actor) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListPurchases")
	defer span.End()

	return s.orders.ListOrdersByBuyer(ctx, actor.UserID)
}

// ListSales returns the caller's orders as seller
func (s *OrderService) ListSales(ctx context.Context, actor models.Actor) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListSales")
	defer span.End()

	return s.orders.ListOrdersBySeller(ctx, actor.UserID)
}
