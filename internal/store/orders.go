package store

import (
	"context"
	"database/sql"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"

	"github.com/jmoiron/sqlx"
)

const orderNotFound = "Orden no encontrada"

// PlaceOrder locks the active product row, lets check veto the purchase, then decrements
// stock, marks the product Sold when stock reaches zero and inserts the order, all in one
// transaction. Seller, unit price and total are taken from the locked product.
func (s *Store) PlaceOrder(ctx context.Context, order *models.Order, check func(*models.Product) error) error {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var product models.Product
		err := tx.GetContext(ctx, &product,
			"SELECT * FROM products WHERE id = $1 AND estado = $2 FOR UPDATE",
			order.ProductID, models.ProductActive)
		if err != nil {
			return notFound(err, "Producto no encontrado o no disponible")
		}

		if err := check(&product); err != nil {
			return err
		}

		remaining := product.Stock - order.Quantity
		state := product.State
		if remaining == 0 {
			state = models.ProductSold
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE products SET stock = $1, estado = $2 WHERE id = $3",
			remaining, state, product.ID)
		if err != nil {
			return err
		}

		order.SellerID = product.VendorID
		order.UnitPrice = product.Price
		order.ComputeTotal()

		query := `
			INSERT INTO orders (comprador_id, vendedor_id, producto_id, cantidad, precio_unitario, precio_total,
				metodo_pago, estado, direccion_entrega, idempotency_key)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id, fecha_creacion, fecha_actualizacion`

		return tx.QueryRowxContext(ctx, query,
			order.BuyerID, order.SellerID, order.ProductID, order.Quantity, order.UnitPrice, order.Total,
			order.PaymentMethod, order.State, order.DeliveryAddress, order.IdempotencyKey,
		).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	})
	if isUniqueViolation(err) {
		return apperror.Conflict("Ya existe una orden para esta clave de idempotencia")
	}
	return err
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id); err != nil {
		return nil, notFound(err, orderNotFound)
	}
	return &order, nil
}

// GetOrderByIdempotencyKey retrieves an order by idempotency key
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE idempotency_key = $1", key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderState sets the order state. The total is recomputed from the frozen unit price.
func (s *Store) UpdateOrderState(ctx context.Context, id int64, state models.OrderState) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, `
		UPDATE orders SET estado = $1, precio_total = precio_unitario * cantidad, fecha_actualizacion = NOW()
		WHERE id = $2
		RETURNING *`, state, id)
	if err != nil {
		return nil, notFound(err, orderNotFound)
	}
	return &order, nil
}

// ListOrdersByBuyer retrieves the purchases of a user
func (s *Store) ListOrdersByBuyer(ctx context.Context, buyerID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE comprador_id = $1 ORDER BY fecha_creacion DESC, id DESC", buyerID)
	return orders, err
}

// ListOrdersBySeller retrieves the sales of a user
func (s *Store) ListOrdersBySeller(ctx context.Context, sellerID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE vendedor_id = $1 ORDER BY fecha_creacion DESC, id DESC", sellerID)
	return orders, err
}
