package memstore

import (
	"context"
	"sort"

	"marketplace-service/internal/models"
)

// CreateQuestion inserts a question
func (s *Store) CreateQuestion(ctx context.Context, q *models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q.ID = s.nextID()
	q.AskedAt = s.now()
	stored := *q
	s.questions[q.ID] = &stored
	return nil
}

// GetQuestionByID retrieves a question by ID
func (s *Store) GetQuestionByID(ctx context.Context, id int64) (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[id]
	if !ok {
		return nil, notFound("Pregunta no encontrada")
	}
	out := *q
	return &out, nil
}

// ListQuestionsByProduct returns the questions of a product, newest first
func (s *Store) ListQuestionsByProduct(ctx context.Context, productID int64) ([]models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Question{}
	for _, q := range s.questions {
		if q.ProductID == productID {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].AskedAt, out[j].AskedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

// AnswerQuestion stores the answer, the answerer and the answer time
func (s *Store) AnswerQuestion(ctx context.Context, q *models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.questions[q.ID]
	if !ok {
		return notFound("Pregunta no encontrada")
	}
	stored.Answer = q.Answer
	stored.AnsweredBy = q.AnsweredBy
	stored.AnsweredAt = q.AnsweredAt
	return nil
}

// CreateOffer inserts a pending offer
func (s *Store) CreateOffer(ctx context.Context, offer *models.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	offer.ID = s.nextID()
	offer.CreatedAt = s.now()
	stored := *offer
	s.offers[offer.ID] = &stored
	return nil
}

// GetOfferByID retrieves an offer by ID
func (s *Store) GetOfferByID(ctx context.Context, id int64) (*models.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.offers[id]
	if !ok {
		return nil, notFound("Oferta no encontrada")
	}
	out := *o
	return &out, nil
}

// ListOffersByProduct returns the offers made on a product, newest first
func (s *Store) ListOffersByProduct(ctx context.Context, productID int64) ([]models.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Offer{}
	for _, o := range s.offers {
		if o.ProductID == productID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

// RespondOffer applies the vendor decision to the offer and its product atomically
func (s *Store) RespondOffer(ctx context.Context, id int64, apply func(*models.Offer, *models.Product) error) (*models.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.offers[id]
	if !ok {
		return nil, notFound("Oferta no encontrada")
	}
	product, ok := s.products[stored.ProductID]
	if !ok {
		return nil, notFound(productNotFound)
	}

	offer := *stored
	p := cloneProduct(product)
	if err := apply(&offer, &p); err != nil {
		return nil, err
	}

	*stored = offer
	product.Price = p.Price
	return &offer, nil
}

// CreateMessage inserts a message
func (s *Store) CreateMessage(ctx context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = s.nextID()
	m.Read = false
	m.SentAt = s.now()
	stored := *m
	s.messages[m.ID] = &stored
	return nil
}

// GetMessageByID retrieves a message by ID
func (s *Store) GetMessageByID(ctx context.Context, id int64) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[id]
	if !ok {
		return nil, notFound("Mensaje no encontrado")
	}
	out := *m
	return &out, nil
}

// ListMessagesForUser returns messages sent or received by the user, newest first
func (s *Store) ListMessagesForUser(ctx context.Context, userID int64) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Message{}
	for _, m := range s.messages {
		if m.SenderID == userID || m.RecipientID == userID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].SentAt, out[j].SentAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

// MarkMessageRead flags a message as read
func (s *Store) MarkMessageRead(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[id]
	if !ok {
		return notFound("Mensaje no encontrado")
	}
	m.Read = true
	return nil
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.processed[eventID]
	return ok, nil
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.processed[eventID]; !ok {
		s.processed[eventID] = eventType
	}
	return nil
}
