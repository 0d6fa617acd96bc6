package store

import (
	"context"

	"marketplace-service/internal/models"
)

// ListCommissions returns every commission row by category
func (s *Store) ListCommissions(ctx context.Context) ([]models.Commission, error) {
	var commissions []models.Commission
	err := s.db.SelectContext(ctx, &commissions, "SELECT * FROM commissions ORDER BY categoria")
	return commissions, err
}

// GetActiveCommission returns the active commission of a category
func (s *Store) GetActiveCommission(ctx context.Context, category string) (*models.Commission, error) {
	var c models.Commission
	err := s.db.GetContext(ctx, &c,
		"SELECT * FROM commissions WHERE categoria = $1 AND activa ORDER BY id LIMIT 1", category)
	if err != nil {
		return nil, notFound(err, "Comisión no encontrada")
	}
	return &c, nil
}

// UpsertCommission creates or replaces the commission of a category
func (s *Store) UpsertCommission(ctx context.Context, c *models.Commission) error {
	query := `
		INSERT INTO commissions (categoria, porcentaje, activa)
		VALUES ($1, $2, $3)
		ON CONFLICT (categoria) DO UPDATE
			SET porcentaje = EXCLUDED.porcentaje, activa = EXCLUDED.activa, fecha_actualizacion = NOW()
		RETURNING id, fecha_creacion, fecha_actualizacion`

	return s.db.QueryRowxContext(ctx, query, c.Category, c.Percentage, c.Active).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}
