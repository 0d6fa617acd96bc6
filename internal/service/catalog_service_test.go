package service

import (
	"context"
	"testing"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"
	"marketplace-service/internal/store/memstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProductKeepsFiveImages(t *testing.T) {
	f := newFixture(t)
	seller := f.user(t, "seller")

	p, err := f.catalog.CreateProduct(f.ctx, seller, &CreateProductRequest{
		Title:    "Camara",
		Price:    decimal.NewFromInt(500),
		Category: "Fotografia",
		Images:   []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg", "f.jpg", "g.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, seller.UserID, p.VendorID)
	assert.Equal(t, models.ProductActive, p.State)
	assert.Equal(t, models.ConditionNew, p.Condition)
	assert.Equal(t, 1, p.Stock)
	require.Len(t, p.Images, models.MaxProductImages)
	assert.Equal(t, "a.jpg", p.Images[0].URL)
	assert.Equal(t, "e.jpg", p.Images[4].URL)

	_, err = f.catalog.CreateProduct(f.ctx, seller, &CreateProductRequest{Price: decimal.NewFromInt(1), Category: "X"})
	assert.Equal(t, apperror.KindInvalidRequest, apperror.KindOf(err))

	_, err = f.catalog.CreateProduct(f.ctx, seller, &CreateProductRequest{Title: "X", Price: decimal.NewFromInt(1), Category: "X", Condition: "Roto"})
	assert.Equal(t, apperror.KindInvalidRequest, apperror.KindOf(err))
}

func TestListProductsFiltersAndSorts(t *testing.T) {
	f := newFixture(t)
	seller := f.user(t, "seller")

	book := f.product(t, seller, "10", 1, "Libros")
	lamp := f.product(t, seller, "20", 1, "Hogar")
	paused := f.product(t, seller, "30", 1, "Libros")
	state := models.ProductPaused
	_, err := f.catalog.UpdateProduct(f.ctx, seller, paused.ID, &UpdateProductRequest{State: &state})
	require.NoError(t, err)

	all, err := f.catalog.ListProducts(f.ctx, models.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, lamp.ID, all[0].ID)

	books, err := f.catalog.ListProducts(f.ctx, models.ProductFilter{Category: "Libros"})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, book.ID, books[0].ID)

	found, err := f.catalog.ListProducts(f.ctx, models.ProductFilter{Search: "hogar"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, lamp.ID, found[0].ID)

	for i := 0; i < 3; i++ {
		_, err := f.catalog.GetProduct(f.ctx, book.ID)
		require.NoError(t, err)
	}
	viewed, err := f.catalog.GetProduct(f.ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, viewed.Views)

	byViews, err := f.catalog.ListProducts(f.ctx, models.ProductFilter{SortBy: "visitas"})
	require.NoError(t, err)
	assert.Equal(t, book.ID, byViews[0].ID)

	_, err = f.catalog.GetProduct(f.ctx, paused.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	mine, err := f.catalog.MyProducts(f.ctx, seller)
	require.NoError(t, err)
	assert.Len(t, mine, 3)
}

func TestUpdateAndDeleteProductOwnerOnly(t *testing.T) {
	f := newFixture(t)
	seller := f.user(t, "seller")
	other := f.user(t, "other")
	p := f.product(t, seller, "10", 1, "Libros")

	price := decimal.NewFromInt(15)
	_, err := f.catalog.UpdateProduct(f.ctx, other, p.ID, &UpdateProductRequest{Price: &price})
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	sold := models.ProductSold
	_, err = f.catalog.UpdateProduct(f.ctx, seller, p.ID, &UpdateProductRequest{State: &sold})
	assert.Equal(t, apperror.KindInvalidRequest, apperror.KindOf(err))

	updated, err := f.catalog.UpdateProduct(f.ctx, seller, p.ID, &UpdateProductRequest{Price: &price})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(price))

	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(f.catalog.DeleteProduct(f.ctx, other, p.ID)))
	require.NoError(t, f.catalog.DeleteProduct(f.ctx, seller, p.ID))

	stored, err := f.store.GetProductByID(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProductRemoved, stored.State)

	_, err = f.catalog.UpdateProduct(f.ctx, seller, p.ID, &UpdateProductRequest{Price: &price})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

// interleavedProducts commits the between step just before the edit reaches the store,
// like an order or offer landing while the vendor's edit is in flight
type interleavedProducts struct {
	*memstore.Store
	between func()
}

func (s *interleavedProducts) UpdateProduct(ctx context.Context, id int64, apply func(*models.Product) error) (*models.Product, error) {
	if s.between != nil {
		s.between()
		s.between = nil
	}
	return s.Store.UpdateProduct(ctx, id, apply)
}

func TestUpdateProductKeepsConcurrentOrder(t *testing.T) {
	f := newFixture(t)
	seller := f.user(t, "seller")
	buyer := f.user(t, "buyer", models.WalletMercadoPago)
	late := f.user(t, "late", models.WalletMercadoPago)
	p := f.product(t, seller, "10", 1, "Libros")

	products := &interleavedProducts{Store: f.store}
	products.between = func() { f.order(t, buyer, p.ID, 1) }
	catalog := NewCatalogService(products)

	title := "Libro firmado"
	updated, err := catalog.UpdateProduct(f.ctx, seller, p.ID, &UpdateProductRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, 0, updated.Stock)
	assert.Equal(t, models.ProductSold, updated.State)

	stored, err := f.store.GetProductByID(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Stock)
	assert.Equal(t, models.ProductSold, stored.State)

	quantity := 1
	_, _, err = f.orders.CreateOrder(f.ctx, late, &CreateOrderRequest{
		ProductID:     p.ID,
		Quantity:      &quantity,
		PaymentMethod: string(models.WalletMercadoPago),
	})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestUpdateProductKeepsConcurrentOfferPrice(t *testing.T) {
	f := newFixture(t)
	seller := f.user(t, "seller")
	buyer := f.user(t, "buyer")
	p := f.product(t, seller, "100", 1, "Libros")

	offer, err := f.offers.CreateOffer(f.ctx, buyer, &CreateOfferRequest{ProductID: p.ID, Price: decimal.NewFromInt(80)})
	require.NoError(t, err)

	products := &interleavedProducts{Store: f.store}
	products.between = func() {
		_, err := f.offers.RespondOffer(f.ctx, seller, offer.ID, &RespondOfferRequest{Action: models.DecisionAccept})
		require.NoError(t, err)
	}
	catalog := NewCatalogService(products)

	description := "Tapa dura"
	updated, err := catalog.UpdateProduct(f.ctx, seller, p.ID, &UpdateProductRequest{Description: &description})
	require.NoError(t, err)
	assert.Equal(t, description, updated.Description)
	assert.Equal(t, "80.00", updated.Price.StringFixed(2))
}

func TestSetProductStateStaffOnly(t *testing.T) {
	f := newFixture(t)
	seller := f.user(t, "seller")
	p := f.product(t, seller, "10", 1, "Libros")

	_, err := f.catalog.SetProductState(f.ctx, seller, p.ID, models.ProductPaused)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	staff := models.Actor{UserID: seller.UserID + 100, IsStaff: true}
	_, err = f.catalog.SetProductState(f.ctx, staff, p.ID, "Perdido")
	assert.Equal(t, apperror.KindInvalidRequest, apperror.KindOf(err))

	updated, err := f.catalog.SetProductState(f.ctx, staff, p.ID, models.ProductSold)
	require.NoError(t, err)
	assert.Equal(t, models.ProductSold, updated.State)
}
