package store

import (
	"context"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"
)

// CreateRating inserts a rating. The (calificador_id, orden_id) constraint rejects duplicates.
func (s *Store) CreateRating(ctx context.Context, rating *models.Rating) error {
	query := `
		INSERT INTO ratings (calificador_id, calificado_id, orden_id, estrellas, comentario)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, fecha_creacion`

	err := s.db.QueryRowxContext(ctx, query,
		rating.RaterID, rating.RateeID, rating.OrderID, rating.Stars, rating.Comment,
	).Scan(&rating.ID, &rating.CreatedAt)
	if isUniqueViolation(err) {
		return apperror.Conflict("Ya calificaste esta orden")
	}
	return err
}

// RatingExists reports whether the rater already rated the order
func (s *Store) RatingExists(ctx context.Context, raterID, orderID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM ratings WHERE calificador_id = $1 AND orden_id = $2)", raterID, orderID)
	return exists, err
}

// ListRatingsForUser returns the ratings a user received, newest first
func (s *Store) ListRatingsForUser(ctx context.Context, userID int64) ([]models.Rating, error) {
	var ratings []models.Rating
	err := s.db.SelectContext(ctx, &ratings,
		"SELECT * FROM ratings WHERE calificado_id = $1 ORDER BY fecha_creacion DESC, id DESC", userID)
	return ratings, err
}
