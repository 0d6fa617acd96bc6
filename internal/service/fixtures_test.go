package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"marketplace-service/internal/models"
	"marketplace-service/internal/store/memstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var _ Repository = (*memstore.Store)(nil)

type fixture struct {
	ctx       context.Context
	store     *memstore.Store
	cache     *fakeCache
	publisher *recordingPublisher

	catalog     *CatalogService
	commissions *CommissionService
	orders      *OrderService
	offers      *OfferService
	ratings     *RatingService
	shipping    *ShippingService
	messages    *MessageService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	cache := newFakeCache()
	pub := &recordingPublisher{}
	commissions := NewCommissionService(st, st)

	return &fixture{
		ctx:         context.Background(),
		store:       st,
		cache:       cache,
		publisher:   pub,
		catalog:     NewCatalogService(st),
		commissions: commissions,
		orders:      NewOrderService(st, st, commissions, cache, pub, time.Minute),
		offers:      NewOfferService(st, st, pub),
		ratings:     NewRatingService(st, st, st, cache, time.Minute, pub),
		shipping:    NewShippingService(st, st, st, pub, "ARS", ""),
		messages:    NewMessageService(st, st, st),
	}
}

// user creates an account with the given wallets linked
func (f *fixture) user(t *testing.T, name string, wallets ...models.WalletKind) models.Actor {
	t.Helper()
	u := &models.User{Email: name + "@example.com", Username: name, Name: name}
	for _, kind := range wallets {
		require.True(t, models.SetWallet(u, kind, true, name+"-"+string(kind)))
	}
	require.NoError(t, f.store.CreateUser(f.ctx, u))
	return models.Actor{UserID: u.ID}
}

func (f *fixture) product(t *testing.T, vendor models.Actor, price string, stock int, category string) *models.Product {
	t.Helper()
	p, err := f.catalog.CreateProduct(f.ctx, vendor, &CreateProductRequest{
		Title:    "Producto " + category,
		Price:    decimal.RequireFromString(price),
		Category: category,
		Stock:    &stock,
		WeightKg: decimal.NewNullDecimal(decimal.NewFromInt(2)),
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) order(t *testing.T, buyer models.Actor, productID int64, quantity int) *models.Order {
	t.Helper()
	o, created, err := f.orders.CreateOrder(f.ctx, buyer, &CreateOrderRequest{
		ProductID:     productID,
		Quantity:      &quantity,
		PaymentMethod: string(models.WalletMercadoPago),
	})
	require.NoError(t, err)
	require.True(t, created)
	return o
}

type fakeCache struct {
	mu     sync.Mutex
	locks  map[string]string
	values map[string]interface{}
	ttls   map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{locks: map[string]string{}, values: map[string]interface{}{}, ttls: map[string]time.Duration{}}
}

func (c *fakeCache) AcquireLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, held := c.locks[key]; held {
		return "", false, nil
	}
	token := key + "-token"
	c.locks[key] = token
	return token, true, nil
}

func (c *fakeCache) ReleaseLock(_ context.Context, key, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locks[key] == token {
		delete(c.locks, key)
	}
	return nil
}

func (c *fakeCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return false, nil
	}
	*dest.(*UserRatings) = *v.(*UserRatings)
	return true, nil
}

func (c *fakeCache) SetJSON(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.values, k)
	}
	return nil
}

func (c *fakeCache) cached(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.values[key]
	return ok
}

func (c *fakeCache) ttl(key string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttls[key]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []interface{}
}

func (p *recordingPublisher) record(e interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) all() []interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]interface{}{}, p.events...)
}

func (p *recordingPublisher) PublishOrderCreated(_ context.Context, e *models.OrderCreatedEvent) error {
	return p.record(e)
}

func (p *recordingPublisher) PublishOrderStateChanged(_ context.Context, e *models.OrderStateChangedEvent) error {
	return p.record(e)
}

func (p *recordingPublisher) PublishOfferResponded(_ context.Context, e *models.OfferRespondedEvent) error {
	return p.record(e)
}

func (p *recordingPublisher) PublishRatingCreated(_ context.Context, e *models.RatingCreatedEvent) error {
	return p.record(e)
}

func (p *recordingPublisher) PublishShipmentCreated(_ context.Context, e *models.ShipmentCreatedEvent) error {
	return p.record(e)
}

func (p *recordingPublisher) PublishShipmentTracked(_ context.Context, e *models.ShipmentTrackedEvent) error {
	return p.record(e)
}
