package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"
	"marketplace-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	quoteBase        = decimal.NewFromInt(1200)
	quotePerKg       = decimal.NewFromInt(350)
	quotePerRankStep = decimal.NewFromInt(250)
)

// QuoteCost is the simulated carrier price for a parcel: 1200 + weight*350 + rank*250,
// rounded to cents. rank is the 1-based position of the carrier in the active listing.
func QuoteCost(weightKg decimal.Decimal, rank int) decimal.Decimal {
	return quoteBase.
		Add(weightKg.Mul(quotePerKg)).
		Add(quotePerRankStep.Mul(decimal.NewFromInt(int64(rank)))).
		Round(2)
}

// QuoteDays is the simulated delivery estimate for the carrier at rank
func QuoteDays(rank int) int {
	return 2 + rank
}

// webhookTimeLayouts are tried in order; naive timestamps are read as UTC
var webhookTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseEventTime parses a provider timestamp, falling back to now when it is not usable
func ParseEventTime(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now
	}
	for _, layout := range webhookTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return now
}

// ShippingService quotes, creates and tracks shipments
type ShippingService struct {
	shipments     ShipmentRepository
	orders        OrderRepository
	products      ProductRepository
	publisher     EventPublisher
	currency      string
	webhookSecret string
	now           func() time.Time
	logger        *zap.Logger
}

// NewShippingService creates a new shipping service. An empty webhookSecret disables the header check.
func NewShippingService(
	shipments ShipmentRepository,
	orders OrderRepository,
	products ProductRepository,
	publisher EventPublisher,
	currency string,
	webhookSecret string,
) *ShippingService {
	return &ShippingService{
		shipments:     shipments,
		orders:        orders,
		products:      products,
		publisher:     publisherOrNoop(publisher),
		currency:      currency,
		webhookSecret: webhookSecret,
		now:           time.Now,
		logger:        util.GetLogger(),
	}
}

// QuoteRequest asks for carrier prices for a product
type QuoteRequest struct {
	ProductID int64            `json:"producto_id"`
	Quantity  *int             `json:"cantidad"`
	OriginZip string           `json:"origen_cp"`
	DestZip   string           `json:"destino_cp"`
	WeightKg  *decimal.Decimal `json:"peso_kg"`
	HeightCm  *decimal.Decimal `json:"alto_cm"`
	WidthCm   *decimal.Decimal `json:"ancho_cm"`
	LengthCm  *decimal.Decimal `json:"largo_cm"`
}

// QuoteOption is the offer of one carrier
type QuoteOption struct {
	CarrierID     int64           `json:"carrier_id"`
	CarrierCode   string          `json:"carrier_codigo"`
	CarrierName   string          `json:"carrier_nombre"`
	Cost          decimal.Decimal `json:"costo"`
	Currency      string          `json:"moneda"`
	EstimatedDays int             `json:"dias_estimados"`
}

// Quote is the answer to a QuoteRequest. Nothing is persisted.
type Quote struct {
	ProductID int64           `json:"producto_id"`
	Quantity  int             `json:"cantidad"`
	OriginZip string          `json:"origen_cp"`
	DestZip   string          `json:"destino_cp"`
	WeightKg  decimal.Decimal `json:"peso_kg"`
	HeightCm  decimal.Decimal `json:"alto_cm"`
	WidthCm   decimal.Decimal `json:"ancho_cm"`
	LengthCm  decimal.Decimal `json:"largo_cm"`
	Options   []QuoteOption   `json:"opciones"`
}

// CreateShipmentRequest opens a shipment for an order
type CreateShipmentRequest struct {
	OrderID        int64            `json:"order_id"`
	CarrierID      int64            `json:"carrier_id"`
	Cost           *decimal.Decimal `json:"costo"`
	EstimatedDays  *int             `json:"dias_estimados"`
	ProviderID     *string          `json:"proveedor_envio_id"`
	TrackingNumber *string          `json:"tracking_number"`
}

// resolveDimension prefers a positive override, then the stored product value
func resolveDimension(override *decimal.Decimal, stored decimal.NullDecimal) decimal.Decimal {
	if override != nil && override.IsPositive() {
		return *override
	}
	if stored.Valid {
		return stored.Decimal
	}
	return decimal.Zero
}

// Quote prices the parcel with every active carrier
func (s *ShippingService) Quote(ctx context.Context, req *QuoteRequest) (*Quote, error) {
	ctx, span := util.StartSpan(ctx, "ShippingService.Quote")
	defer span.End()

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	switch {
	case req.ProductID <= 0:
		return nil, apperror.InvalidRequest("producto_id es requerido para cotizar")
	case quantity < 1:
		return nil, apperror.InvalidRequest("La cantidad debe ser al menos 1")
	case strings.TrimSpace(req.OriginZip) == "" || strings.TrimSpace(req.DestZip) == "":
		return nil, apperror.InvalidRequest("origen_cp y destino_cp son requeridos")
	}

	product, err := s.products.GetProductByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if product.State != models.ProductActive {
		return nil, apperror.NotFound("Producto no encontrado")
	}

	unitWeight := resolveDimension(req.WeightKg, product.WeightKg)
	if !unitWeight.IsPositive() {
		return nil, apperror.InvalidRequest("Falta peso del producto para cotizar")
	}

	carriers, err := s.shipments.ListCarriers(ctx, true)
	if err != nil {
		return nil, err
	}

	quote := &Quote{
		ProductID: product.ID,
		Quantity:  quantity,
		OriginZip: req.OriginZip,
		DestZip:   req.DestZip,
		WeightKg:  unitWeight.Mul(decimal.NewFromInt(int64(quantity))),
		HeightCm:  resolveDimension(req.HeightCm, product.HeightCm),
		WidthCm:   resolveDimension(req.WidthCm, product.WidthCm),
		LengthCm:  resolveDimension(req.LengthCm, product.LengthCm),
		Options:   make([]QuoteOption, 0, len(carriers)),
	}
	for i, c := range carriers {
		rank := i + 1
		quote.Options = append(quote.Options, QuoteOption{
			CarrierID:     c.ID,
			CarrierCode:   c.Code,
			CarrierName:   c.Name,
			Cost:          QuoteCost(quote.WeightKg, rank),
			Currency:      s.currency,
			EstimatedDays: QuoteDays(rank),
		})
	}

	util.ShippingQuotesTotal.Inc()
	return quote, nil
}

// ListCarriers returns the active carriers in quoting order
func (s *ShippingService) ListCarriers(ctx context.Context) ([]models.Carrier, error) {
	ctx, span := util.StartSpan(ctx, "ShippingService.ListCarriers")
	defer span.End()

	return s.shipments.ListCarriers(ctx, true)
}

// SeedCarriers stores the default catalogue when no carrier exists
func (s *ShippingService) SeedCarriers(ctx context.Context, carriers []models.Carrier) error {
	return s.shipments.EnsureCarriers(ctx, carriers)
}

// CreateShipment opens a shipment in state Created. Orders may have several shipments.
func (s *ShippingService) CreateShipment(ctx context.Context, actor models.Actor, req *CreateShipmentRequest) (*models.Shipment, error) {
	ctx, span := util.StartSpan(ctx, "ShippingService.CreateShipment")
	defer span.End()

	if req.OrderID <= 0 || req.CarrierID <= 0 {
		return nil, apperror.InvalidRequest("order_id y carrier_id son requeridos")
	}

	order, err := s.orders.GetOrderByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if !order.IsParty(actor.UserID) {
		return nil, apperror.Forbidden("No autorizado")
	}

	carrier, err := s.shipments.GetCarrierByID(ctx, req.CarrierID)
	if err != nil && apperror.KindOf(err) != apperror.KindNotFound {
		return nil, err
	}
	if carrier == nil || !carrier.Active {
		return nil, apperror.InvalidRequest("Proveedor inválido")
	}

	shipment := &models.Shipment{
		OrderID:        order.ID,
		CarrierID:      &carrier.ID,
		Currency:       s.currency,
		State:          models.ShipmentCreated,
		EstimatedDays:  req.EstimatedDays,
		ProviderID:     nonEmpty(req.ProviderID),
		TrackingNumber: nonEmpty(req.TrackingNumber),
		Metadata:       models.JSONMap{},
	}
	if req.Cost != nil {
		shipment.Cost = decimal.NewNullDecimal(*req.Cost)
	}
	if err := s.shipments.CreateShipment(ctx, shipment); err != nil {
		return nil, err
	}

	util.ShipmentsCreatedTotal.WithLabelValues(carrier.Code).Inc()
	s.logger.Info("Shipment created",
		zap.Int64("shipment_id", shipment.ID),
		zap.Int64("order_id", order.ID),
		zap.String("carrier", carrier.Code))

	event := &models.ShipmentCreatedEvent{
		BaseEvent:  newBaseEvent(models.EventTypeShipmentCreated),
		ShipmentID: shipment.ID,
		OrderID:    order.ID,
		CarrierID:  carrier.ID,
	}
	logPublishError(s.logger, event.EventType, s.publisher.PublishShipmentCreated(ctx, event))

	return shipment, nil
}

// GetShipment returns a shipment with its tracking log to a party of the order
func (s *ShippingService) GetShipment(ctx context.Context, actor models.Actor, id int64) (*models.Shipment, error) {
	ctx, span := util.StartSpan(ctx, "ShippingService.GetShipment")
	defer span.End()

	shipment, err := s.shipments.GetShipmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.GetOrderByID(ctx, shipment.OrderID)
	if err != nil {
		return nil, err
	}
	if !order.IsParty(actor.UserID) {
		return nil, apperror.Forbidden("No autorizado")
	}

	shipment.Tracking, err = s.shipments.ListTrackingEvents(ctx, shipment.ID)
	if err != nil {
		return nil, err
	}
	return shipment, nil
}

// AuthorizeWebhook checks the shared secret header when a secret is configured
func (s *ShippingService) AuthorizeWebhook(header string) error {
	if s.webhookSecret == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(header), []byte(s.webhookSecret)) != 1 {
		util.WebhooksRejectedTotal.Inc()
		return apperror.Forbidden("Webhook no autorizado")
	}
	return nil
}

// IngestTrackingWebhook applies a carrier update. The shipment is matched by provider id,
// then by tracking number. Present fields overwrite, the payload replaces the metadata and
// a tracking event is always appended, so repeated deliveries produce repeated events.
func (s *ShippingService) IngestTrackingWebhook(ctx context.Context, payload map[string]interface{}) (*models.Shipment, *models.TrackingEvent, error) {
	ctx, span := util.StartSpan(ctx, "ShippingService.IngestTrackingWebhook")
	defer span.End()

	var (
		shipment *models.Shipment
		err      error
	)
	if providerID, ok := payloadString(payload, "proveedor_envio_id"); ok {
		if shipment, err = s.shipments.FindShipmentByProviderID(ctx, providerID); err != nil {
			return nil, nil, err
		}
	}
	trackingNumber, hasTracking := payloadString(payload, "tracking_number")
	if shipment == nil && hasTracking {
		if shipment, err = s.shipments.FindShipmentByTrackingNumber(ctx, trackingNumber); err != nil {
			return nil, nil, err
		}
	}
	if shipment == nil {
		return nil, nil, apperror.NotFound("Envío no encontrado")
	}

	state, hasState := payloadString(payload, "estado")
	if hasState {
		shipment.State = models.ShipmentState(state)
	}
	if v, ok := payloadString(payload, "tracking_url"); ok {
		shipment.TrackingURL = &v
	}
	if v, ok := payloadString(payload, "etiqueta_url"); ok {
		shipment.LabelURL = &v
	}
	if hasTracking {
		shipment.TrackingNumber = &trackingNumber
	}
	shipment.Metadata = models.JSONMap(payload).Clone()

	now := s.now()
	rawTime, _ := payloadString(payload, "fecha_evento")
	event := &models.TrackingEvent{
		State:      models.DefaultTrackingState,
		OccurredAt: ParseEventTime(rawTime, now),
	}
	if hasState {
		event.State = state
	}
	if v, ok := payloadString(payload, "descripcion"); ok {
		event.Description = &v
	}

	if err := s.shipments.ApplyTrackingUpdate(ctx, shipment, event); err != nil {
		return nil, nil, err
	}

	util.TrackingEventsIngestedTotal.Inc()
	s.logger.Info("Tracking update ingested",
		zap.Int64("shipment_id", shipment.ID),
		zap.String("state", event.State))

	published := &models.ShipmentTrackedEvent{
		BaseEvent:      newBaseEvent(models.EventTypeShipmentTracked),
		ShipmentID:     shipment.ID,
		OrderID:        shipment.OrderID,
		State:          event.State,
		TrackingNumber: shipment.TrackingNumber,
		OccurredAt:     event.OccurredAt,
	}
	logPublishError(s.logger, published.EventType, s.publisher.PublishShipmentTracked(ctx, published))

	return shipment, event, nil
}

// payloadString reads a non-empty scalar from a webhook payload
func payloadString(payload map[string]interface{}, key string) (string, bool) {
	var s string
	switch v := payload[key].(type) {
	case string:
		s = v
	case json.Number:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	default:
		return "", false
	}
	if s == "" {
		return "", false
	}
	return s, true
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
