package store

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"
	"marketplace-service/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ service.Repository = (*Store)(nil)

// newTestStore connects to TEST_DATABASE_URL and applies the schema
func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Integration test - set TEST_DATABASE_URL")
	}

	store, err := NewStore(url, 10, 5)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func createUser(t *testing.T, store *Store) *models.User {
	t.Helper()
	name := uuid.NewString()
	u := &models.User{Email: name + "@example.com", Username: name, Name: "Test"}
	models.SetWallet(u, models.WalletMercadoPago, true, "mp-"+name)
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}

func createProduct(t *testing.T, store *Store, vendorID int64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Title:     "Producto " + uuid.NewString(),
		Price:     decimal.RequireFromString("150.25"),
		Category:  "Libros",
		Condition: models.ConditionNew,
		Stock:     stock,
		VendorID:  vendorID,
		State:     models.ProductActive,
		Images:    []models.ProductImage{{URL: "a.jpg"}, {URL: "b.jpg"}},
	}
	require.NoError(t, store.CreateProduct(context.Background(), p))
	return p
}

func newOrder(buyerID, productID int64, quantity int) *models.Order {
	return &models.Order{
		BuyerID:       buyerID,
		ProductID:     productID,
		Quantity:      quantity,
		PaymentMethod: models.WalletMercadoPago,
		State:         models.OrderPending,
	}
}

func stockCheck(p *models.Product, quantity int) error {
	if p.Stock < quantity {
		return apperror.InsufficientStock("Stock insuficiente. Disponible: %d", p.Stock)
	}
	return nil
}

func TestPlaceOrderSellsOutProduct(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seller := createUser(t, store)
	buyer := createUser(t, store)
	product := createProduct(t, store, seller.ID, 2)

	order := newOrder(buyer.ID, product.ID, 2)
	err := store.PlaceOrder(ctx, order, func(p *models.Product) error { return stockCheck(p, 2) })
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
	assert.Equal(t, seller.ID, order.SellerID)
	assert.Equal(t, "300.50", order.Total.StringFixed(2))

	stored, err := store.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Stock)
	assert.Equal(t, models.ProductSold, stored.State)
	assert.Len(t, stored.Images, 2)

	err = store.PlaceOrder(ctx, newOrder(buyer.ID, product.ID, 1), func(p *models.Product) error { return nil })
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestPlaceOrderConcurrentNoOversell(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seller := createUser(t, store)
	buyer := createUser(t, store)
	product := createProduct(t, store, seller.ID, 3)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.PlaceOrder(ctx, newOrder(buyer.ID, product.ID, 1), func(p *models.Product) error { return stockCheck(p, 1) })
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, success)
	stored, err := store.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Stock)
	assert.Equal(t, models.ProductSold, stored.State)
}

func TestUpdateProductWaitsForConcurrentOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seller := createUser(t, store)
	buyer := createUser(t, store)
	product := createProduct(t, store, seller.ID, 1)

	placed := make(chan error, 1)
	updated, err := store.UpdateProduct(ctx, product.ID, func(p *models.Product) error {
		go func() {
			placed <- store.PlaceOrder(ctx, newOrder(buyer.ID, product.ID, 1), func(p *models.Product) error { return stockCheck(p, 1) })
		}()
		p.Title = "Editado"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Editado", updated.Title)
	require.NoError(t, <-placed)

	stored, err := store.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Editado", stored.Title)
	assert.Equal(t, 0, stored.Stock)
	assert.Equal(t, models.ProductSold, stored.State)
}

func TestUpdateProductVetoLeavesRow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seller := createUser(t, store)
	product := createProduct(t, store, seller.ID, 1)

	_, err := store.UpdateProduct(ctx, product.ID, func(p *models.Product) error {
		p.Title = "Nunca"
		return apperror.Forbidden("No tienes permiso para editar este producto")
	})
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	stored, err := store.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.Title, stored.Title)

	_, err = store.UpdateProduct(ctx, -1, func(p *models.Product) error { return nil })
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestShipmentAcceptsLongProviderReferences(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seller := createUser(t, store)
	buyer := createUser(t, store)
	product := createProduct(t, store, seller.ID, 1)

	order := newOrder(buyer.ID, product.ID, 1)
	require.NoError(t, store.PlaceOrder(ctx, order, func(p *models.Product) error { return nil }))

	providerID := strings.Repeat("p", 150) + uuid.NewString()
	tracking := strings.Repeat("t", 150) + uuid.NewString()
	sh := &models.Shipment{
		OrderID:        order.ID,
		Currency:       "ARS",
		State:          models.ShipmentCreated,
		ProviderID:     &providerID,
		TrackingNumber: &tracking,
		Metadata:       models.JSONMap{},
	}
	require.NoError(t, store.CreateShipment(ctx, sh))

	found, err := store.FindShipmentByProviderID(ctx, providerID)
	require.NoError(t, err)
	assert.Equal(t, sh.ID, found.ID)
	require.NotNil(t, found.TrackingNumber)
	assert.Equal(t, tracking, *found.TrackingNumber)
}

func TestPlaceOrderIdempotencyKeyIsUnique(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seller := createUser(t, store)
	buyer := createUser(t, store)
	product := createProduct(t, store, seller.ID, 5)
	key := uuid.NewString()

	first := newOrder(buyer.ID, product.ID, 1)
	first.IdempotencyKey = &key
	require.NoError(t, store.PlaceOrder(ctx, first, func(p *models.Product) error { return nil }))

	second := newOrder(buyer.ID, product.ID, 1)
	second.IdempotencyKey = &key
	err := store.PlaceOrder(ctx, second, func(p *models.Product) error { return nil })
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	found, err := store.GetOrderByIdempotencyKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	stored, err := store.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Stock)
}

func TestCreateRatingUniquePerOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seller := createUser(t, store)
	buyer := createUser(t, store)
	product := createProduct(t, store, seller.ID, 1)
	order := newOrder(buyer.ID, product.ID, 1)
	require.NoError(t, store.PlaceOrder(ctx, order, func(p *models.Product) error { return nil }))

	rating := &models.Rating{RaterID: buyer.ID, RateeID: seller.ID, OrderID: &order.ID, Stars: 5}
	require.NoError(t, store.CreateRating(ctx, rating))

	again := &models.Rating{RaterID: buyer.ID, RateeID: seller.ID, OrderID: &order.ID, Stars: 1}
	err := store.CreateRating(ctx, again)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	exists, err := store.RatingExists(ctx, buyer.ID, order.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUpdateWallet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := createUser(t, store)

	updated, err := store.UpdateWallet(ctx, user.ID, models.WalletBrubank, true, "bru-1")
	require.NoError(t, err)
	assert.True(t, models.IsLinked(updated, models.WalletBrubank))

	updated, err = store.UpdateWallet(ctx, user.ID, models.WalletMercadoPago, false, "")
	require.NoError(t, err)
	assert.False(t, models.IsLinked(updated, models.WalletMercadoPago))
	assert.Nil(t, updated.MercadoPagoAcct)

	_, err = store.UpdateWallet(ctx, -1, models.WalletLemon, true, "x")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestEventLog(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	eventID := uuid.NewString()

	processed, err := store.IsEventProcessed(ctx, eventID)
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, store.MarkEventProcessed(ctx, eventID, models.EventTypeOrderCreated))
	require.NoError(t, store.MarkEventProcessed(ctx, eventID, models.EventTypeOrderCreated))

	processed, err = store.IsEventProcessed(ctx, eventID)
	require.NoError(t, err)
	assert.True(t, processed)
}
