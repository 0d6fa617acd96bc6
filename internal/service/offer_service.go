package service

import (
	"context"
	"time"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"
	"marketplace-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OfferService handles price negotiation on products
type OfferService struct {
	offers    OfferRepository
	products  ProductRepository
	publisher EventPublisher
	logger    *zap.Logger
}

// NewOfferService creates a new offer service
func NewOfferService(offers OfferRepository, products ProductRepository, publisher EventPublisher) *OfferService {
	return &OfferService{
		offers:    offers,
		products:  products,
		publisher: publisherOrNoop(publisher),
		logger:    util.GetLogger(),
	}
}

// CreateOfferRequest proposes a lower price for a product
type CreateOfferRequest struct {
	ProductID int64           `json:"producto_id"`
	Price     decimal.Decimal `json:"precio_ofertado"`
	Message   *string         `json:"mensaje"`
}

// RespondOfferRequest carries the vendor decision
type RespondOfferRequest struct {
	Action models.OfferDecision `json:"accion"`
}

// CreateOffer records a pending offer from the caller
func (s *OfferService) CreateOffer(ctx context.Context, actor models.Actor, req *CreateOfferRequest) (*models.Offer, error) {
	ctx, span := util.StartSpan(ctx, "OfferService.CreateOffer")
	defer span.End()

	product, err := s.products.GetProductByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if product.State != models.ProductActive {
		return nil, apperror.NotFound("Producto no encontrado o no disponible")
	}
	if product.VendorID == actor.UserID {
		return nil, apperror.InvalidRequest("No puedes hacer una oferta en tu propio producto")
	}
	if !req.Price.IsPositive() {
		return nil, apperror.InvalidRequest("El precio ofertado debe ser mayor a cero")
	}
	if req.Price.GreaterThanOrEqual(product.Price) {
		return nil, apperror.InvalidRequest("La oferta debe ser menor al precio actual")
	}

	offer := &models.Offer{
		ProductID: product.ID,
		BuyerID:   actor.UserID,
		Price:     req.Price,
		Message:   req.Message,
		State:     models.OfferPending,
	}
	if err := s.offers.CreateOffer(ctx, offer); err != nil {
		return nil, err
	}

	s.logger.Info("Offer created",
		zap.Int64("offer_id", offer.ID),
		zap.Int64("product_id", offer.ProductID),
		zap.String("price", offer.Price.String()))
	return offer, nil
}

// RespondOffer lets the product's vendor accept or reject a pending offer.
// Accepting overwrites the product price with the offered price.
func (s *OfferService) RespondOffer(ctx context.Context, actor models.Actor, offerID int64, req *RespondOfferRequest) (*models.Offer, error) {
	ctx, span := util.StartSpan(ctx, "OfferService.RespondOffer")
	defer span.End()

	offer, err := s.offers.RespondOffer(ctx, offerID, func(o *models.Offer, p *models.Product) error {
		if p.VendorID != actor.UserID {
			return apperror.Forbidden("Solo el vendedor puede responder esta oferta")
		}
		if o.State != models.OfferPending {
			return apperror.Conflict("Esta oferta ya fue respondida")
		}

		now := time.Now()
		switch req.Action {
		case models.DecisionAccept:
			o.State = models.OfferAccepted
			p.Price = o.Price
		case models.DecisionReject:
			o.State = models.OfferRejected
		default:
			return apperror.InvalidRequest("Acción inválida: %s", req.Action)
		}
		o.RespondedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	util.OffersRespondedTotal.WithLabelValues(string(req.Action)).Inc()
	s.logger.Info("Offer responded",
		zap.Int64("offer_id", offer.ID),
		zap.String("state", string(offer.State)))

	event := &models.OfferRespondedEvent{
		BaseEvent: newBaseEvent(models.EventTypeOfferResponded),
		OfferID:   offer.ID,
		ProductID: offer.ProductID,
		BuyerID:   offer.BuyerID,
		State:     offer.State,
		Price:     offer.Price,
	}
	logPublishError(s.logger, event.EventType, s.publisher.PublishOfferResponded(ctx, event))

	return offer, nil
}

// ListProductOffers returns the offers on a product to its vendor
func (s *OfferService) ListProductOffers(ctx context.Context, actor models.Actor, productID int64) ([]models.Offer, error) {
	ctx, span := util.StartSpan(ctx, "OfferService.ListProductOffers")
	defer span.End()

	product, err := s.products.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.VendorID != actor.UserID {
		return nil, apperror.Forbidden("Solo el vendedor puede ver las ofertas")
	}
	return s.offers.ListOffersByProduct(ctx, productID)
}
