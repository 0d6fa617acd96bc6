package service

import (
	"context"
	"fmt"
	"time"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"
	"marketplace-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Reputation is the average of stars rounded to two places, nil when there are no ratings
func Reputation(stars []int) *decimal.Decimal {
	if len(stars) == 0 {
		return nil
	}
	sum := 0
	for _, s := range stars {
		sum += s
	}
	avg := decimal.NewFromInt(int64(sum)).DivRound(decimal.NewFromInt(int64(len(stars))), 2)
	return &avg
}

// maxReputationCacheTTL bounds how long a summary computed before a new rating
// can outlive that rating's invalidation
const maxReputationCacheTTL = time.Minute

// RatingService handles post-purchase feedback
type RatingService struct {
	ratings   RatingRepository
	orders    OrderRepository
	users     UserRepository
	cache     Cache
	cacheTTL  time.Duration
	publisher EventPublisher
	logger    *zap.Logger
}

// NewRatingService creates a new rating service. cache may be nil; cacheTTL is capped
// at maxReputationCacheTTL.
func NewRatingService(
	ratings RatingRepository,
	orders OrderRepository,
	users UserRepository,
	cache Cache,
	cacheTTL time.Duration,
	publisher EventPublisher,
) *RatingService {
	if cacheTTL <= 0 || cacheTTL > maxReputationCacheTTL {
		cacheTTL = maxReputationCacheTTL
	}
	return &RatingService{
		ratings:   ratings,
		orders:    orders,
		users:     users,
		cache:     cache,
		cacheTTL:  cacheTTL,
		publisher: publisherOrNoop(publisher),
		logger:    util.GetLogger(),
	}
}

// CreateRatingRequest rates the seller of an order
type CreateRatingRequest struct {
	OrderID int64   `json:"orden_id"`
	Stars   int     `json:"estrellas"`
	Comment *string `json:"comentario"`
}

// UserRatings is the public reputation summary of a user
type UserRatings struct {
	Ratings    []models.Rating  `json:"calificaciones"`
	Reputation *decimal.Decimal `json:"reputacion"`
	Total      int              `json:"total"`
}

func reputationKey(userID int64) string {
	return fmt.Sprintf("reputation:%d", userID)
}

// CreateRating stores the buyer's rating of the seller. A second rating of the same
// order fails with Conflict, also under concurrent submission.
func (s *RatingService) CreateRating(ctx context.Context, actor models.Actor, req *CreateRatingRequest) (*models.Rating, error) {
	ctx, span := util.StartSpan(ctx, "RatingService.CreateRating")
	defer span.End()

	if req.Stars < 1 || req.Stars > 5 {
		return nil, apperror.InvalidRequest("Las estrellas deben estar entre 1 y 5")
	}

	order, err := s.orders.GetOrderByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != actor.UserID {
		return nil, apperror.Forbidden("Solo el comprador puede calificar esta orden")
	}

	exists, err := s.ratings.RatingExists(ctx, actor.UserID, order.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.Conflict("Ya calificaste esta orden")
	}

	orderID := order.ID
	rating := &models.Rating{
		RaterID: actor.UserID,
		RateeID: order.SellerID,
		OrderID: &orderID,
		Stars:   req.Stars,
		Comment: req.Comment,
	}
	if err := s.ratings.CreateRating(ctx, rating); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, reputationKey(rating.RateeID)); err != nil {
			s.logger.Warn("Failed to invalidate reputation cache", zap.Int64("user_id", rating.RateeID), zap.Error(err))
		}
	}

	util.RatingsCreatedTotal.Inc()
	s.logger.Info("Rating created",
		zap.Int64("rating_id", rating.ID),
		zap.Int64("order_id", orderID),
		zap.Int("stars", rating.Stars))

	event := &models.RatingCreatedEvent{
		BaseEvent: newBaseEvent(models.EventTypeRatingCreated),
		RatingID:  rating.ID,
		RaterID:   rating.RaterID,
		RateeID:   rating.RateeID,
		OrderID:   orderID,
		Stars:     rating.Stars,
	}
	logPublishError(s.logger, event.EventType, s.publisher.PublishRatingCreated(ctx, event))

	return rating, nil
}

// GetUserRatings returns the ratings a user received with the derived reputation
func (s *RatingService) GetUserRatings(ctx context.Context, userID int64) (*UserRatings, error) {
	ctx, span := util.StartSpan(ctx, "RatingService.GetUserRatings")
	defer span.End()

	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	key := reputationKey(userID)
	if s.cache != nil {
		var cached UserRatings
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("Reputation cache read failed", zap.Int64("user_id", userID), zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	ratings, err := s.ratings.ListRatingsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	stars := make([]int, len(ratings))
	for i, r := range ratings {
		stars[i] = r.Stars
	}
	summary := &UserRatings{
		Ratings:    ratings,
		Reputation: Reputation(stars),
		Total:      len(ratings),
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, summary, s.cacheTTL); err != nil {
			s.logger.Warn("Reputation cache write failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	return summary, nil
}
