package memstore

import (
	"context"

	"marketplace-service/internal/models"
)

const productNotFound = "Producto no encontrado"

func cloneProduct(p *models.Product) models.Product {
	out := *p
	out.Images = append([]models.ProductImage{}, p.Images...)
	return out
}

func (s *Store) selectProducts(keep func(*models.Product) bool) []models.Product {
	out := []models.Product{}
	for _, p := range s.products {
		if keep(p) {
			out = append(out, cloneProduct(p))
		}
	}
	return out
}

// ListActiveProducts returns the public catalog
func (s *Store) ListActiveProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := s.selectProducts(func(p *models.Product) bool {
		if p.State != models.ProductActive {
			return false
		}
		if filter.Category != "" && p.Category != filter.Category {
			return false
		}
		if filter.Search != "" && !containsFold(p.Title, filter.Search) && !containsFold(p.Description, filter.Search) {
			return false
		}
		return true
	})
	sortProducts(products, filter.SortBy == "visitas")
	return products, nil
}

// ListProductsByVendor returns every product of a vendor regardless of state
func (s *Store) ListProductsByVendor(ctx context.Context, vendorID int64) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := s.selectProducts(func(p *models.Product) bool { return p.VendorID == vendorID })
	sortProducts(products, false)
	return products, nil
}

// ListProductsByState returns all products in the given state
func (s *Store) ListProductsByState(ctx context.Context, state models.ProductState) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.selectProducts(func(p *models.Product) bool { return p.State == state }), nil
}

// GetProductByID retrieves a product in any state
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, notFound(productNotFound)
	}
	out := cloneProduct(p)
	return &out, nil
}

// ViewProduct fetches an active product and counts the visit
func (s *Store) ViewProduct(ctx context.Context, id int64) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok || p.State != models.ProductActive {
		return nil, notFound(productNotFound)
	}
	p.Views++
	out := cloneProduct(p)
	return &out, nil
}

// CreateProduct inserts the product and its images
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product.ID = s.nextID()
	product.PublishedAt = s.now()
	product.Views = 0
	for i := range product.Images {
		product.Images[i].ID = s.nextID()
		product.Images[i].ProductID = product.ID
		product.Images[i].UploadedAt = product.PublishedAt
	}
	stored := cloneProduct(product)
	s.products[product.ID] = &stored
	return nil
}

// UpdateProduct applies the edit to a copy under the store lock and stores it when apply succeeds
func (s *Store) UpdateProduct(ctx context.Context, id int64, apply func(*models.Product) error) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, notFound(productNotFound)
	}

	edited := cloneProduct(p)
	if err := apply(&edited); err != nil {
		return nil, err
	}

	p.Title = edited.Title
	p.Description = edited.Description
	p.Price = edited.Price
	p.Category = edited.Category
	p.Condition = edited.Condition
	p.Stock = edited.Stock
	p.FreeShipping = edited.FreeShipping
	p.State = edited.State
	p.WeightKg = edited.WeightKg
	p.HeightCm = edited.HeightCm
	p.WidthCm = edited.WidthCm
	p.LengthCm = edited.LengthCm

	out := cloneProduct(p)
	return &out, nil
}

// SetProductState changes only the state of a product
func (s *Store) SetProductState(ctx context.Context, id int64, state models.ProductState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return notFound(productNotFound)
	}
	p.State = state
	return nil
}

// ListCommissions returns every commission row by category
func (s *Store) ListCommissions(ctx context.Context) ([]models.Commission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Commission, 0, len(s.commissions))
	for _, c := range s.commissions {
		out = append(out, *c)
	}
	sortCommissions(out)
	return out, nil
}

// GetActiveCommission returns the active commission of a category
func (s *Store) GetActiveCommission(ctx context.Context, category string) (*models.Commission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.commissions[category]
	if !ok || !c.Active {
		return nil, notFound("Comisión no encontrada")
	}
	out := *c
	return &out, nil
}

// UpsertCommission creates or replaces the commission of a category
func (s *Store) UpsertCommission(ctx context.Context, c *models.Commission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if existing, ok := s.commissions[c.Category]; ok {
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
	} else {
		c.ID = s.nextID()
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	stored := *c
	s.commissions[c.Category] = &stored
	return nil
}
