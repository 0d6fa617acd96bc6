package service

import (
	"context"
	"strings"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"
	"marketplace-service/internal/util"

	"go.uber.org/zap"
)

// MessageService handles direct messages between users
type MessageService struct {
	messages MessageRepository
	users    UserRepository
	orders   OrderRepository
	logger   *zap.Logger
}

// NewMessageService creates a new message service
func NewMessageService(messages MessageRepository, users UserRepository, orders OrderRepository) *MessageService {
	return &MessageService{
		messages: messages,
		users:    users,
		orders:   orders,
		logger:   util.GetLogger(),
	}
}

// SendMessageRequest is a new message from the caller
type SendMessageRequest struct {
	RecipientID int64   `json:"destinatario_id"`
	Body        string  `json:"mensaje"`
	Subject     *string `json:"asunto"`
	OrderID     *int64  `json:"orden_id"`
}

// Send delivers a message. When it references an existing order the sender must be
// one of its parties; an unknown order is dropped from the message.
func (s *MessageService) Send(ctx context.Context, actor models.Actor, req *SendMessageRequest) (*models.Message, error) {
	ctx, span := util.StartSpan(ctx, "MessageService.Send")
	defer span.End()

	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, apperror.InvalidRequest("El mensaje es requerido")
	}
	if _, err := s.users.GetUserByID(ctx, req.RecipientID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		SenderID:    actor.UserID,
		RecipientID: req.RecipientID,
		Subject:     req.Subject,
		Body:        body,
	}

	if req.OrderID != nil {
		order, err := s.orders.GetOrderByID(ctx, *req.OrderID)
		switch {
		case apperror.KindOf(err) == apperror.KindNotFound:
			// sent without the order reference
		case err != nil:
			return nil, err
		case !order.IsParty(actor.UserID):
			return nil, apperror.Forbidden("No autorizado para esta orden")
		default:
			msg.OrderID = &order.ID
		}
	}

	if err := s.messages.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Notify writes a system message; used by the notification worker
func (s *MessageService) Notify(ctx context.Context, from, to int64, orderID *int64, subject, body string) error {
	msg := &models.Message{
		SenderID:    from,
		RecipientID: to,
		OrderID:     orderID,
		Subject:     &subject,
		Body:        body,
	}
	return s.messages.CreateMessage(ctx, msg)
}

// List returns messages sent or received by the caller, newest first
func (s *MessageService) List(ctx context.Context, actor models.Actor) ([]models.Message, error) {
	ctx, span := util.StartSpan(ctx, "MessageService.List")
	defer span.End()

	return s.messages.ListMessagesForUser(ctx, actor.UserID)
}

// MarkRead flags a message as read. Only its recipient may do it.
func (s *MessageService) MarkRead(ctx context.Context, actor models.Actor, messageID int64) (*models.Message, error) {
	ctx, span := util.StartSpan(ctx, "MessageService.MarkRead")
	defer span.End()

	msg, err := s.messages.GetMessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.RecipientID != actor.UserID {
		return nil, apperror.Forbidden("No autorizado")
	}
	if err := s.messages.MarkMessageRead(ctx, messageID); err != nil {
		return nil, err
	}
	msg.Read = true
	return msg, nil
}
