package service

import (
	"encoding/json"
	"testing"
	"time"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCarriers = []models.Carrier{
	{Code: "moova", Name: "Moova", Active: true},
	{Code: "envio_pack", Name: "EnvioPack", Active: true},
	{Code: "oca", Name: "OCA", Active: false},
}

func TestQuoteCost(t *testing.T) {
	assert.Equal(t, "2400.00", QuoteCost(decimal.NewFromInt(2), 1).StringFixed(2))
	assert.Equal(t, "2650.00", QuoteCost(decimal.NewFromInt(2), 2).StringFixed(2))
	assert.Equal(t, "1626.75", QuoteCost(decimal.RequireFromString("0.505"), 1).StringFixed(2))
	assert.Equal(t, 3, QuoteDays(1))
	assert.Equal(t, 4, QuoteDays(2))
}

func TestParseEventTime(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now, ParseEventTime("", now))
	assert.Equal(t, now, ParseEventTime("ayer a la tarde", now))
	assert.Equal(t, time.Date(2024, 4, 30, 9, 30, 0, 0, time.UTC), ParseEventTime("2024-04-30T09:30:00Z", now))
	assert.Equal(t, time.Date(2024, 4, 30, 9, 30, 0, 0, time.UTC), ParseEventTime("2024-04-30 09:30:00", now))
}

func TestQuote(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.shipping.SeedCarriers(f.ctx, testCarriers))
	seller := f.user(t, "seller")
	p := f.product(t, seller, "100", 3, "Libros")

	quote, err := f.shipping.Quote(f.ctx, &QuoteRequest{ProductID: p.ID, OriginZip: "1000", DestZip: "5000"})
	require.NoError(t, err)
	require.Len(t, quote.Options, 2)

	assert.Equal(t, "EnvioPack", quote.Options[0].CarrierName)
	assert.Equal(t, "2400.00", quote.Options[0].Cost.StringFixed(2))
	assert.Equal(t, 3, quote.Options[0].EstimatedDays)
	assert.Equal(t, "ARS", quote.Options[0].Currency)
	assert.Equal(t, "Moova", quote.Options[1].CarrierName)
	assert.Equal(t, "2650.00", quote.Options[1].Cost.StringFixed(2))
	assert.Equal(t, 4, quote.Options[1].EstimatedDays)

	// effective weight is the unit weight times the quantity
	qty := 2
	override := decimal.NewFromInt(1)
	quote, err = f.shipping.Quote(f.ctx, &QuoteRequest{ProductID: p.ID, Quantity: &qty, WeightKg: &override, OriginZip: "1000", DestZip: "5000"})
	require.NoError(t, err)
	assert.Equal(t, "2", quote.WeightKg.String())
	assert.Equal(t, "2400.00", quote.Options[0].Cost.StringFixed(2))
}

func TestQuoteErrors(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.shipping.SeedCarriers(f.ctx, testCarriers))
	seller := f.user(t, "seller")
	p := f.product(t, seller, "100", 3, "Libros")

	weightless, err := f.catalog.CreateProduct(f.ctx, seller, &CreateProductRequest{Title: "Sin peso", Price: decimal.NewFromInt(10), Category: "Libros"})
	require.NoError(t, err)

	_, err = f.shipping.Quote(f.ctx, &QuoteRequest{ProductID: p.ID, OriginZip: "1000"})
	assert.Equal(t, apperror.KindInvalidRequest, apperror.KindOf(err))

	_, err = f.shipping.Quote(f.ctx, &QuoteRequest{ProductID: 999, OriginZip: "1000", DestZip: "5000"})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = f.shipping.Quote(f.ctx, &QuoteRequest{ProductID: weightless.ID, OriginZip: "1000", DestZip: "5000"})
	assert.Equal(t, apperror.KindInvalidRequest, apperror.KindOf(err))

	require.NoError(t, f.catalog.DeleteProduct(f.ctx, seller, p.ID))
	_, err = f.shipping.Quote(f.ctx, &QuoteRequest{ProductID: p.ID, OriginZip: "1000", DestZip: "5000"})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func (f *fixture) shipment(t *testing.T) (models.Actor, models.Actor, *models.Order, []models.Carrier) {
	t.Helper()
	require.NoError(t, f.shipping.SeedCarriers(f.ctx, testCarriers))
	carriers, err := f.store.ListCarriers(f.ctx, false)
	require.NoError(t, err)

	seller := f.user(t, "seller")
	buyer := f.user(t, "buyer", models.WalletMercadoPago)
	p := f.product(t, seller, "100", 3, "Libros")
	return seller, buyer, f.order(t, buyer, p.ID, 1), carriers
}

func carrierByCode(carriers []models.Carrier, code string) models.Carrier {
	for _, c := range carriers {
		if c.Code == code {
			return c
		}
	}
	return models.Carrier{}
}

func TestCreateShipment(t *testing.T) {
	f := newFixture(t)
	seller, buyer, order, carriers := f.shipment(t)
	stranger := f.user(t, "stranger")
	moova := carrierByCode(carriers, "moova")
	oca := carrierByCode(carriers, "oca")

	_, err := f.shipping.CreateShipment(f.ctx, buyer, &CreateShipmentRequest{OrderID: order.ID})
	assert.Equal(t, apperror.KindInvalidRequest, apperror.KindOf(err))

	_, err = f.shipping.CreateShipment(f.ctx, buyer, &CreateShipmentRequest{OrderID: 999, CarrierID: moova.ID})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = f.shipping.CreateShipment(f.ctx, stranger, &CreateShipmentRequest{OrderID: order.ID, CarrierID: moova.ID})
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	_, err = f.shipping.CreateShipment(f.ctx, buyer, &CreateShipmentRequest{OrderID: order.ID, CarrierID: oca.ID})
	assert.Equal(t, apperror.KindInvalidRequest, apperror.KindOf(err))
	assert.Equal(t, "Proveedor inválido", apperror.MessageOf(err))

	_, err = f.shipping.CreateShipment(f.ctx, buyer, &CreateShipmentRequest{OrderID: order.ID, CarrierID: 999})
	assert.Equal(t, apperror.KindInvalidRequest, apperror.KindOf(err))

	cost := decimal.RequireFromString("2650.00")
	days := 4
	sh, err := f.shipping.CreateShipment(f.ctx, seller, &CreateShipmentRequest{OrderID: order.ID, CarrierID: moova.ID, Cost: &cost, EstimatedDays: &days})
	require.NoError(t, err)
	assert.Equal(t, models.ShipmentCreated, sh.State)
	assert.Equal(t, "ARS", sh.Currency)
	assert.True(t, sh.Cost.Valid)

	// several shipments per order are allowed
	_, err = f.shipping.CreateShipment(f.ctx, buyer, &CreateShipmentRequest{OrderID: order.ID, CarrierID: moova.ID})
	require.NoError(t, err)
}

func TestIngestTrackingWebhook(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f.shipping.now = func() time.Time { return now }
	_, buyer, order, carriers := f.shipment(t)
	moova := carrierByCode(carriers, "moova")

	providerID := "MV-1"
	sh, err := f.shipping.CreateShipment(f.ctx, buyer, &CreateShipmentRequest{OrderID: order.ID, CarrierID: moova.ID, ProviderID: &providerID})
	require.NoError(t, err)

	payload := map[string]interface{}{
		"proveedor_envio_id": "MV-1",
		"estado":             "En camino",
		"tracking_number":    "TN-99",
		"tracking_url":       "https://moova.example/TN-99",
		"fecha_evento":       "no es una fecha",
		"extra":              json.Number("7"),
	}
	updated, event, err := f.shipping.IngestTrackingWebhook(f.ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, sh.ID, updated.ID)
	assert.Equal(t, models.ShipmentInTransit, updated.State)
	assert.Equal(t, "TN-99", *updated.TrackingNumber)
	assert.Equal(t, now, event.OccurredAt)
	assert.Equal(t, "En camino", event.State)

	// metadata is replaced, not merged
	_, event, err = f.shipping.IngestTrackingWebhook(f.ctx, map[string]interface{}{"tracking_number": "TN-99"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTrackingState, event.State)

	stored, err := f.shipping.GetShipment(f.ctx, buyer, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JSONMap{"tracking_number": "TN-99"}, stored.Metadata)
	assert.Equal(t, models.ShipmentInTransit, stored.State)
	assert.Equal(t, "https://moova.example/TN-99", *stored.TrackingURL)
	assert.Len(t, stored.Tracking, 2)

	_, _, err = f.shipping.IngestTrackingWebhook(f.ctx, map[string]interface{}{"tracking_number": "nope"})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	_, _, err = f.shipping.IngestTrackingWebhook(f.ctx, map[string]interface{}{})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestIngestTrackingWebhookAppendsDuplicates(t *testing.T) {
	f := newFixture(t)
	_, buyer, order, carriers := f.shipment(t)
	tn := "TN-1"
	sh, err := f.shipping.CreateShipment(f.ctx, buyer, &CreateShipmentRequest{OrderID: order.ID, CarrierID: carrierByCode(carriers, "envio_pack").ID, TrackingNumber: &tn})
	require.NoError(t, err)

	payload := map[string]interface{}{
		"tracking_number": "TN-1",
		"estado":          "Entregado",
		"fecha_evento":    "2024-04-30T09:30:00Z",
	}
	for i := 0; i < 2; i++ {
		_, event, err := f.shipping.IngestTrackingWebhook(f.ctx, payload)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 4, 30, 9, 30, 0, 0, time.UTC), event.OccurredAt)
	}

	events, err := f.store.ListTrackingEvents(f.ctx, sh.ID)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	var tracked int
	for _, e := range f.publisher.all() {
		if _, ok := e.(*models.ShipmentTrackedEvent); ok {
			tracked++
		}
	}
	assert.Equal(t, 2, tracked)
}

func TestAuthorizeWebhook(t *testing.T) {
	open := NewShippingService(nil, nil, nil, nil, "ARS", "")
	assert.NoError(t, open.AuthorizeWebhook(""))

	guarded := NewShippingService(nil, nil, nil, nil, "ARS", "s3cret")
	assert.NoError(t, guarded.AuthorizeWebhook("s3cret"))
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(guarded.AuthorizeWebhook("")))
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(guarded.AuthorizeWebhook("wrong")))
}
