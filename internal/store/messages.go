package store

import (
	"context"

	"marketplace-service/internal/models"
)

// CreateMessage inserts a message
func (s *Store) CreateMessage(ctx context.Context, m *models.Message) error {
	query := `
		INSERT INTO messages (orden_id, remitente_id, destinatario_id, asunto, mensaje)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, leido, fecha_envio`

	return s.db.QueryRowxContext(ctx, query,
		m.OrderID, m.SenderID, m.RecipientID, m.Subject, m.Body,
	).Scan(&m.ID, &m.Read, &m.SentAt)
}

// GetMessageByID retrieves a message by ID
func (s *Store) GetMessageByID(ctx context.Context, id int64) (*models.Message, error) {
	var m models.Message
	if err := s.db.GetContext(ctx, &m, "SELECT * FROM messages WHERE id = $1", id); err != nil {
		return nil, notFound(err, "Mensaje no encontrado")
	}
	return &m, nil
}

// ListMessagesForUser returns messages sent or received by the user, newest first
func (s *Store) ListMessagesForUser(ctx context.Context, userID int64) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.SelectContext(ctx, &messages, `
		SELECT * FROM messages
		WHERE remitente_id = $1 OR destinatario_id = $1
		ORDER BY fecha_envio DESC, id DESC`, userID)
	return messages, err
}

// MarkMessageRead flags a message as read
func (s *Store) MarkMessageRead(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "UPDATE messages SET leido = TRUE WHERE id = $1", id)
	if err != nil {
		return err
	}
	return expectRow(res, "Mensaje no encontrado")
}
