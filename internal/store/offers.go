package store

import (
	"context"

	"marketplace-service/internal/models"

	"github.com/jmoiron/sqlx"
)

const offerNotFound = "Oferta no encontrada"

// CreateOffer inserts a pending offer
func (s *Store) CreateOffer(ctx context.Context, offer *models.Offer) error {
	query := `
		INSERT INTO offers (producto_id, comprador_id, precio_ofertado, mensaje, estado)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, fecha_creacion`

	return s.db.QueryRowxContext(ctx, query,
		offer.ProductID, offer.BuyerID, offer.Price, offer.Message, offer.State,
	).Scan(&offer.ID, &offer.CreatedAt)
}

// GetOfferByID retrieves an offer by ID
func (s *Store) GetOfferByID(ctx context.Context, id int64) (*models.Offer, error) {
	var offer models.Offer
	if err := s.db.GetContext(ctx, &offer, "SELECT * FROM offers WHERE id = $1", id); err != nil {
		return nil, notFound(err, offerNotFound)
	}
	return &offer, nil
}

// ListOffersByProduct returns the offers made on a product, newest first
func (s *Store) ListOffersByProduct(ctx context.Context, productID int64) ([]models.Offer, error) {
	var offers []models.Offer
	err := s.db.SelectContext(ctx, &offers,
		"SELECT * FROM offers WHERE producto_id = $1 ORDER BY fecha_creacion DESC, id DESC", productID)
	return offers, err
}

// RespondOffer locks the offer and its product, lets apply decide the outcome, then persists
// the offer state and the (possibly changed) product price together.
func (s *Store) RespondOffer(ctx context.Context, id int64, apply func(*models.Offer, *models.Product) error) (*models.Offer, error) {
	var offer models.Offer
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &offer, "SELECT * FROM offers WHERE id = $1 FOR UPDATE", id); err != nil {
			return notFound(err, offerNotFound)
		}

		var product models.Product
		if err := tx.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1 FOR UPDATE", offer.ProductID); err != nil {
			return notFound(err, productNotFound)
		}

		if err := apply(&offer, &product); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE offers SET estado = $1, fecha_respuesta = $2 WHERE id = $3",
			offer.State, offer.RespondedAt, offer.ID); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, "UPDATE products SET precio = $1 WHERE id = $2", product.Price, product.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &offer, nil
}
