package memstore

import (
	"context"
	"errors"
	"testing"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(t *testing.T, s *Store, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Title:     "Lampara",
		Price:     decimal.NewFromInt(40),
		Category:  "Hogar",
		Condition: models.ConditionUsed,
		Stock:     stock,
		VendorID:  1,
		State:     models.ProductActive,
		Images:    []models.ProductImage{{URL: "a.jpg"}},
	}
	require.NoError(t, s.CreateProduct(context.Background(), p))
	return p
}

func TestReturnedProductsAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProduct(t, s, 1)

	got, err := s.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	got.Stock = 99
	got.Images[0].URL = "changed.jpg"

	again, err := s.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Stock)
	assert.Equal(t, "a.jpg", again.Images[0].URL)
}

func TestPlaceOrderVetoKeepsStock(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProduct(t, s, 3)
	veto := errors.New("vetoed")

	order := &models.Order{BuyerID: 2, ProductID: p.ID, Quantity: 1, State: models.OrderPending}
	err := s.PlaceOrder(ctx, order, func(*models.Product) error { return veto })
	assert.ErrorIs(t, err, veto)

	stored, err := s.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Stock)

	key := "k-1"
	order.IdempotencyKey = &key
	require.NoError(t, s.PlaceOrder(ctx, order, func(*models.Product) error { return nil }))
	assert.Equal(t, int64(1), order.SellerID)
	assert.Equal(t, "40", order.Total.String())

	dup := &models.Order{BuyerID: 2, ProductID: p.ID, Quantity: 1, IdempotencyKey: &key}
	err = s.PlaceOrder(ctx, dup, func(*models.Product) error { return nil })
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	found, err := s.GetOrderByIdempotencyKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	stored, err = s.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Stock)
}

func TestUpdateProductSeesLatestStock(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProduct(t, s, 2)

	order := &models.Order{BuyerID: 2, ProductID: p.ID, Quantity: 1, State: models.OrderPending}
	require.NoError(t, s.PlaceOrder(ctx, order, func(*models.Product) error { return nil }))

	veto := errors.New("vetoed")
	_, err := s.UpdateProduct(ctx, p.ID, func(edit *models.Product) error {
		edit.Title = "Nunca"
		return veto
	})
	assert.ErrorIs(t, err, veto)

	updated, err := s.UpdateProduct(ctx, p.ID, func(edit *models.Product) error {
		assert.Equal(t, 1, edit.Stock)
		edit.Title = "Lampara de pie"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Lampara de pie", updated.Title)
	assert.Equal(t, 1, updated.Stock)
	assert.Len(t, updated.Images, 1)

	_, err = s.UpdateProduct(ctx, p.ID+100, func(*models.Product) error { return nil })
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestRespondOfferIsAllOrNothing(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProduct(t, s, 1)
	offer := &models.Offer{ProductID: p.ID, BuyerID: 2, Price: decimal.NewFromInt(30), State: models.OfferPending}
	require.NoError(t, s.CreateOffer(ctx, offer))

	_, err := s.RespondOffer(ctx, offer.ID, func(o *models.Offer, prod *models.Product) error {
		o.State = models.OfferAccepted
		prod.Price = o.Price
		return apperror.Conflict("nope")
	})
	require.Error(t, err)

	stored, err := s.GetOfferByID(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferPending, stored.State)
	product, err := s.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, product.Price.Equal(decimal.NewFromInt(40)))
}

func TestEnsureCarriersSeedsOnce(t *testing.T) {
	s := New()
	ctx := context.Background()
	carriers := []models.Carrier{
		{Code: "moova", Name: "Moova", Active: true},
		{Code: "oca", Name: "OCA", Active: false},
	}

	require.NoError(t, s.EnsureCarriers(ctx, carriers))
	require.NoError(t, s.EnsureCarriers(ctx, carriers))

	all, err := s.ListCarriers(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := s.ListCarriers(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "moova", active[0].Code)
}

func TestFindShipmentReturnsLowestID(t *testing.T) {
	s := New()
	ctx := context.Background()
	tracking := "TRK-9"

	first := &models.Shipment{OrderID: 1, State: models.ShipmentCreated, TrackingNumber: &tracking}
	second := &models.Shipment{OrderID: 2, State: models.ShipmentCreated, TrackingNumber: &tracking}
	require.NoError(t, s.CreateShipment(ctx, first))
	require.NoError(t, s.CreateShipment(ctx, second))

	found, err := s.FindShipmentByTrackingNumber(ctx, tracking)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)

	missing, err := s.FindShipmentByProviderID(ctx, "none")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
