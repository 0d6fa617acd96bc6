package service

import (
	"context"
	"strings"
	"time"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"
	"marketplace-service/internal/util"

	"go.uber.org/zap"
)

// QuestionService handles public questions on products
type QuestionService struct {
	questions QuestionRepository
	products  ProductRepository
	logger    *zap.Logger
}

// NewQuestionService creates a new question service
func NewQuestionService(questions QuestionRepository, products ProductRepository) *QuestionService {
	return &QuestionService{
		questions: questions,
		products:  products,
		logger:    util.GetLogger(),
	}
}

type AskQuestionRequest struct {
	ProductID int64  `json:"producto_id"`
	Text      string `json:"pregunta"`
}

type AnswerQuestionRequest struct {
	Answer string `json:"respuesta"`
}

// Ask records a question on an active product
func (s *QuestionService) Ask(ctx context.Context, actor models.Actor, req *AskQuestionRequest) (*models.Question, error) {
	ctx, span := util.StartSpan(ctx, "QuestionService.Ask")
	defer span.End()

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, apperror.InvalidRequest("La pregunta es requerida")
	}

	product, err := s.products.GetProductByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if product.State != models.ProductActive {
		return nil, apperror.NotFound("Producto no encontrado")
	}

	q := &models.Question{ProductID: product.ID, UserID: actor.UserID, Text: text}
	if err := s.questions.CreateQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// ListByProduct returns every question of a product, newest first
func (s *QuestionService) ListByProduct(ctx context.Context, productID int64) ([]models.Question, error) {
	ctx, span := util.StartSpan(ctx, "QuestionService.ListByProduct")
	defer span.End()

	if _, err := s.products.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.questions.ListQuestionsByProduct(ctx, productID)
}

// Answer lets the product's vendor answer a question
func (s *QuestionService) Answer(ctx context.Context, actor models.Actor, questionID int64, req *AnswerQuestionRequest) (*models.Question, error) {
	ctx, span := util.StartSpan(ctx, "QuestionService.Answer")
	defer span.End()

	answer := strings.TrimSpace(req.Answer)
	if answer == "" {
		return nil, apperror.InvalidRequest("La respuesta es requerida")
	}

	q, err := s.questions.GetQuestionByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	product, err := s.products.GetProductByID(ctx, q.ProductID)
	if err != nil {
		return nil, err
	}
	if product.VendorID != actor.UserID {
		return nil, apperror.Forbidden("Solo el vendedor puede responder")
	}

	now := time.Now()
	answeredBy := actor.UserID
	q.Answer = &answer
	q.AnsweredBy = &answeredBy
	q.AnsweredAt = &now
	if err := s.questions.AnswerQuestion(ctx, q); err != nil {
		return nil, err
	}

	s.logger.Info("Question answered", zap.Int64("question_id", q.ID), zap.Int64("product_id", q.ProductID))
	return q, nil
}
