// Package memstore is an in-memory implementation of the marketplace repositories.
// It honours the same contract as the PostgreSQL store (row locking is replaced by a
// single mutex) and backs STORE_DRIVER=memory and the service tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"
)

type ratingKey struct {
	rater int64
	order int64
}

type Store struct {
	mu sync.Mutex

	seq int64
	now func() time.Time

	users       map[int64]*models.User
	products    map[int64]*models.Product
	commissions map[string]*models.Commission
	orders      map[int64]*models.Order
	orderKeys   map[string]int64
	ratings     map[int64]*models.Rating
	ratingKeys  map[ratingKey]int64
	questions   map[int64]*models.Question
	offers      map[int64]*models.Offer
	messages    map[int64]*models.Message
	carriers    map[int64]*models.Carrier
	shipments   map[int64]*models.Shipment
	tracking    map[int64][]models.TrackingEvent
	processed   map[string]string
}

// New creates an empty store
func New() *Store {
	return &Store{
		now:         time.Now,
		users:       make(map[int64]*models.User),
		products:    make(map[int64]*models.Product),
		commissions: make(map[string]*models.Commission),
		orders:      make(map[int64]*models.Order),
		orderKeys:   make(map[string]int64),
		ratings:     make(map[int64]*models.Rating),
		ratingKeys:  make(map[ratingKey]int64),
		questions:   make(map[int64]*models.Question),
		offers:      make(map[int64]*models.Offer),
		messages:    make(map[int64]*models.Message),
		carriers:    make(map[int64]*models.Carrier),
		shipments:   make(map[int64]*models.Shipment),
		tracking:    make(map[int64][]models.TrackingEvent),
		processed:   make(map[string]string),
	}
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func notFound(msg string) error {
	return &apperror.Error{Kind: apperror.KindNotFound, Message: msg}
}

// CreateUser inserts a user
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return apperror.Conflict("El usuario ya existe")
		}
	}

	user.ID = s.nextID()
	user.CreatedAt = s.now()
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, notFound("Usuario no encontrado")
	}
	out := *u
	return &out, nil
}

// UpdateWallet links or unlinks one wallet of the user
func (s *Store) UpdateWallet(ctx context.Context, userID int64, kind models.WalletKind, active bool, account string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, notFound("Usuario no encontrado")
	}
	if !models.SetWallet(u, kind, active, account) {
		return nil, apperror.InvalidRequest("Método de pago no soportado: %s", kind)
	}
	out := *u
	return &out, nil
}

// newestFirst orders by timestamp then id, both descending
func newestFirst(ti, tj time.Time, idi, idj int64) bool {
	if !ti.Equal(tj) {
		return ti.After(tj)
	}
	return idi > idj
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func sortProducts(products []models.Product, byViews bool) {
	sort.Slice(products, func(i, j int) bool {
		if byViews && products[i].Views != products[j].Views {
			return products[i].Views > products[j].Views
		}
		return newestFirst(products[i].PublishedAt, products[j].PublishedAt, products[i].ID, products[j].ID)
	})
}

func sortCommissions(commissions []models.Commission) {
	sort.Slice(commissions, func(i, j int) bool { return commissions[i].Category < commissions[j].Category })
}
