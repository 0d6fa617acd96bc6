package memstore

import (
	"context"
	"sort"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"
)

const orderNotFound = "Orden no encontrada"

// PlaceOrder checks and decrements stock and inserts the order under the store lock
func (s *Store) PlaceOrder(ctx context.Context, order *models.Order, check func(*models.Product) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[order.ProductID]
	if !ok || p.State != models.ProductActive {
		return notFound("Producto no encontrado o no disponible")
	}

	snapshot := cloneProduct(p)
	if err := check(&snapshot); err != nil {
		return err
	}

	if order.IdempotencyKey != nil {
		if _, dup := s.orderKeys[*order.IdempotencyKey]; dup {
			return apperror.Conflict("Ya existe una orden para esta clave de idempotencia")
		}
	}

	p.Stock -= order.Quantity
	if p.Stock == 0 {
		p.State = models.ProductSold
	}

	order.ID = s.nextID()
	order.SellerID = p.VendorID
	order.UnitPrice = p.Price
	order.ComputeTotal()
	order.CreatedAt = s.now()
	order.UpdatedAt = order.CreatedAt

	stored := *order
	s.orders[order.ID] = &stored
	if order.IdempotencyKey != nil {
		s.orderKeys[*order.IdempotencyKey] = order.ID
	}
	return nil
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, notFound(orderNotFound)
	}
	out := *o
	return &out, nil
}

// GetOrderByIdempotencyKey returns nil when no order carries the key
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.orderKeys[key]
	if !ok {
		return nil, nil
	}
	out := *s.orders[id]
	return &out, nil
}

// UpdateOrderState sets the order state and recomputes the total
func (s *Store) UpdateOrderState(ctx context.Context, id int64, state models.OrderState) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, notFound(orderNotFound)
	}
	o.State = state
	o.ComputeTotal()
	o.UpdatedAt = s.now()
	out := *o
	return &out, nil
}

// ListOrdersByBuyer retrieves the purchases of a user
func (s *Store) ListOrdersByBuyer(ctx context.Context, buyerID int64) ([]models.Order, error) {
	return s.listOrders(func(o *models.Order) bool { return o.BuyerID == buyerID }), nil
}

// ListOrdersBySeller retrieves the sales of a user
func (s *Store) ListOrdersBySeller(ctx context.Context, sellerID int64) ([]models.Order, error) {
	return s.listOrders(func(o *models.Order) bool { return o.SellerID == sellerID }), nil
}

func (s *Store) listOrders(keep func(*models.Order) bool) []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Order{}
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out
}

// CreateRating inserts a rating, rejecting a second one for the same rater and order
func (s *Store) CreateRating(ctx context.Context, rating *models.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var key *ratingKey
	if rating.OrderID != nil {
		key = &ratingKey{rater: rating.RaterID, order: *rating.OrderID}
		if _, dup := s.ratingKeys[*key]; dup {
			return apperror.Conflict("Ya calificaste esta orden")
		}
	}

	rating.ID = s.nextID()
	rating.CreatedAt = s.now()
	stored := *rating
	s.ratings[rating.ID] = &stored
	if key != nil {
		s.ratingKeys[*key] = rating.ID
	}
	return nil
}

// RatingExists reports whether the rater already rated the order
func (s *Store) RatingExists(ctx context.Context, raterID, orderID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.ratingKeys[ratingKey{rater: raterID, order: orderID}]
	return ok, nil
}

// ListRatingsForUser returns the ratings a user received, newest first
func (s *Store) ListRatingsForUser(ctx context.Context, userID int64) ([]models.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Rating{}
	for _, r := range s.ratings {
		if r.RateeID == userID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}
