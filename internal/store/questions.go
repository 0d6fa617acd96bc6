package store

import (
	"context"

	"marketplace-service/internal/models"
)

// CreateQuestion inserts a question
func (s *Store) CreateQuestion(ctx context.Context, q *models.Question) error {
	return s.db.QueryRowxContext(ctx,
		"INSERT INTO questions (producto_id, usuario_id, pregunta) VALUES ($1, $2, $3) RETURNING id, fecha_pregunta",
		q.ProductID, q.UserID, q.Text,
	).Scan(&q.ID, &q.AskedAt)
}

// GetQuestionByID retrieves a question by ID
func (s *Store) GetQuestionByID(ctx context.Context, id int64) (*models.Question, error) {
	var q models.Question
	if err := s.db.GetContext(ctx, &q, "SELECT * FROM questions WHERE id = $1", id); err != nil {
		return nil, notFound(err, "Pregunta no encontrada")
	}
	return &q, nil
}

// ListQuestionsByProduct returns the questions of a product, newest first
func (s *Store) ListQuestionsByProduct(ctx context.Context, productID int64) ([]models.Question, error) {
	var questions []models.Question
	err := s.db.SelectContext(ctx, &questions,
		"SELECT * FROM questions WHERE producto_id = $1 ORDER BY fecha_pregunta DESC, id DESC", productID)
	return questions, err
}

// AnswerQuestion stores the answer, the answerer and the answer time
func (s *Store) AnswerQuestion(ctx context.Context, q *models.Question) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE questions SET respuesta = $1, respondida_por_id = $2, fecha_respuesta = $3 WHERE id = $4",
		q.Answer, q.AnsweredBy, q.AnsweredAt, q.ID)
	if err != nil {
		return err
	}
	return expectRow(res, "Pregunta no encontrada")
}
