package store

import (
	"context"
	"strconv"
	"strings"

	"marketplace-service/internal/models"

	"github.com/jmoiron/sqlx"
)

const productNotFound = "Producto no encontrado"

// ListActiveProducts returns the public catalog
func (s *Store) ListActiveProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	var (
		conds = []string{"estado = $1"}
		args  = []interface{}{models.ProductActive}
	)

	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, "categoria = $"+strconv.Itoa(len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := strconv.Itoa(len(args))
		conds = append(conds, "(titulo ILIKE $"+n+" OR descripcion ILIKE $"+n+")")
	}

	order := "fecha_publicacion DESC, id DESC"
	if filter.SortBy == "visitas" {
		order = "visitas DESC, fecha_publicacion DESC, id DESC"
	}

	query := "SELECT * FROM products WHERE " + strings.Join(conds, " AND ") + " ORDER BY " + order

	var products []models.Product
	if err := s.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, err
	}
	return products, s.attachImages(ctx, products)
}

// ListProductsByVendor returns every product of a vendor regardless of state
func (s *Store) ListProductsByVendor(ctx context.Context, vendorID int64) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE vendedor_id = $1 ORDER BY fecha_publicacion DESC, id DESC", vendorID)
	if err != nil {
		return nil, err
	}
	return products, s.attachImages(ctx, products)
}

// ListProductsByState returns all products in the given state
func (s *Store) ListProductsByState(ctx context.Context, state models.ProductState) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE estado = $1 ORDER BY id", state)
	return products, err
}

// GetProductByID retrieves a product in any state, with its images
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id); err != nil {
		return nil, notFound(err, productNotFound)
	}
	if err := s.loadImages(ctx, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// ViewProduct fetches an active product and counts the visit
func (s *Store) ViewProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product,
		"UPDATE products SET visitas = visitas + 1 WHERE id = $1 AND estado = $2 RETURNING *",
		id, models.ProductActive)
	if err != nil {
		return nil, notFound(err, productNotFound)
	}
	if err := s.loadImages(ctx, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts the product and its images in one transaction
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO products (titulo, descripcion, precio, categoria, condicion, stock, envio_gratis,
				vendedor_id, estado, peso_kg, alto_cm, ancho_cm, largo_cm)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id, fecha_publicacion, visitas`

		err := tx.QueryRowxContext(ctx, query,
			product.Title, product.Description, product.Price, product.Category, product.Condition,
			product.Stock, product.FreeShipping, product.VendorID, product.State,
			product.WeightKg, product.HeightCm, product.WidthCm, product.LengthCm,
		).Scan(&product.ID, &product.PublishedAt, &product.Views)
		if err != nil {
			return err
		}

		for i := range product.Images {
			img := &product.Images[i]
			img.ProductID = product.ID
			err := tx.QueryRowxContext(ctx,
				"INSERT INTO product_images (producto_id, imagen) VALUES ($1, $2) RETURNING id, fecha_subida",
				img.ProductID, img.URL,
			).Scan(&img.ID, &img.UploadedAt)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateProduct locks the product row, lets apply edit it, then writes the editable fields back
// in the same transaction, so an order or offer committed meanwhile is never overwritten.
func (s *Store) UpdateProduct(ctx context.Context, id int64, apply func(*models.Product) error) (*models.Product, error) {
	var product models.Product
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1 FOR UPDATE", id); err != nil {
			return notFound(err, productNotFound)
		}

		if err := apply(&product); err != nil {
			return err
		}

		query := `
			UPDATE products SET titulo = $1, descripcion = $2, precio = $3, categoria = $4, condicion = $5,
				stock = $6, envio_gratis = $7, estado = $8, peso_kg = $9, alto_cm = $10, ancho_cm = $11, largo_cm = $12
			WHERE id = $13`

		_, err := tx.ExecContext(ctx, query,
			product.Title, product.Description, product.Price, product.Category, product.Condition,
			product.Stock, product.FreeShipping, product.State,
			product.WeightKg, product.HeightCm, product.WidthCm, product.LengthCm,
			product.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := s.loadImages(ctx, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// SetProductState changes only the state of a product
func (s *Store) SetProductState(ctx context.Context, id int64, state models.ProductState) error {
	res, err := s.db.ExecContext(ctx, "UPDATE products SET estado = $1 WHERE id = $2", state, id)
	if err != nil {
		return err
	}
	return expectRow(res, productNotFound)
}

func (s *Store) loadImages(ctx context.Context, product *models.Product) error {
	product.Images = []models.ProductImage{}
	return s.db.SelectContext(ctx, &product.Images,
		"SELECT * FROM product_images WHERE producto_id = $1 ORDER BY id", product.ID)
}

// attachImages loads the images of many products with a single query
func (s *Store) attachImages(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]int64, len(products))
	byID := make(map[int64]*models.Product, len(products))
	for i := range products {
		ids[i] = products[i].ID
		products[i].Images = []models.ProductImage{}
		byID[products[i].ID] = &products[i]
	}

	query, args, err := sqlx.In("SELECT * FROM product_images WHERE producto_id IN (?) ORDER BY id", ids)
	if err != nil {
		return err
	}
	query = s.db.Rebind(query)

	var images []models.ProductImage
	if err := s.db.SelectContext(ctx, &images, query, args...); err != nil {
		return err
	}
	for _, img := range images {
		p := byID[img.ProductID]
		p.Images = append(p.Images, img)
	}
	return nil
}
