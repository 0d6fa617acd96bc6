package service

import (
	"context"
	"strings"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"
	"marketplace-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogService handles product listings
type CatalogService struct {
	products ProductRepository
	logger   *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(products ProductRepository) *CatalogService {
	return &CatalogService{
		products: products,
		logger:   util.GetLogger(),
	}
}

// CreateProductRequest is the input for publishing a product
type CreateProductRequest struct {
	Title        string                  `json:"titulo"`
	Description  string                  `json:"descripcion"`
	Price        decimal.Decimal         `json:"precio"`
	Category     string                  `json:"categoria"`
	Condition    models.ProductCondition `json:"condicion"`
	Stock        *int                    `json:"stock"`
	FreeShipping bool                    `json:"envio_gratis"`
	WeightKg     decimal.NullDecimal     `json:"peso_kg"`
	HeightCm     decimal.NullDecimal     `json:"alto_cm"`
	WidthCm      decimal.NullDecimal     `json:"ancho_cm"`
	LengthCm     decimal.NullDecimal     `json:"largo_cm"`
	Images       []string                `json:"imagenes"`
}

// UpdateProductRequest carries the fields to change; nil fields are left untouched
type UpdateProductRequest struct {
	Title        *string                  `json:"titulo"`
	Description  *string                  `json:"descripcion"`
	Price        *decimal.Decimal         `json:"precio"`
	Category     *string                  `json:"categoria"`
	Condition    *models.ProductCondition `json:"condicion"`
	Stock        *int                     `json:"stock"`
	FreeShipping *bool                    `json:"envio_gratis"`
	State        *models.ProductState     `json:"estado"`
	WeightKg     *decimal.Decimal         `json:"peso_kg"`
	HeightCm     *decimal.Decimal         `json:"alto_cm"`
	WidthCm      *decimal.Decimal         `json:"ancho_cm"`
	LengthCm     *decimal.Decimal         `json:"largo_cm"`
}

// ListProducts returns active products matching the filter
func (s *CatalogService) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListProducts")
	defer span.End()

	filter.Search = strings.TrimSpace(filter.Search)
	return s.products.ListActiveProducts(ctx, filter)
}

// GetProduct returns an active product and counts the visit
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetProduct")
	defer span.End()

	return s.products.ViewProduct(ctx, id)
}

// MyProducts returns every product of the caller regardless of state
func (s *CatalogService) MyProducts(ctx context.Context, actor models.Actor) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.MyProducts")
	defer span.End()

	return s.products.ListProductsByVendor(ctx, actor.UserID)
}

// CreateProduct publishes a product owned by the caller. Images beyond the limit are dropped.
func (s *CatalogService) CreateProduct(ctx context.Context, actor models.Actor, req *CreateProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	product := &models.Product{
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Price:        req.Price,
		Category:     strings.TrimSpace(req.Category),
		Condition:    req.Condition,
		Stock:        1,
		FreeShipping: req.FreeShipping,
		VendorID:     actor.UserID,
		State:        models.ProductActive,
		WeightKg:     req.WeightKg,
		HeightCm:     req.HeightCm,
		WidthCm:      req.WidthCm,
		LengthCm:     req.LengthCm,
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if product.Condition == "" {
		product.Condition = models.ConditionNew
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	images := req.Images
	if len(images) > models.MaxProductImages {
		images = images[:models.MaxProductImages]
	}
	product.Images = make([]models.ProductImage, 0, len(images))
	for _, url := range images {
		if url = strings.TrimSpace(url); url != "" {
			product.Images = append(product.Images, models.ProductImage{URL: url})
		}
	}

	if err := s.products.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.Int64("vendor_id", product.VendorID),
		zap.Int("images", len(product.Images)))
	return product, nil
}

// UpdateProduct edits a product owned by the caller. The patch is applied to the locked
// row, so stock, state and price changed by concurrent orders or offers are preserved
// unless the request sets them.
func (s *CatalogService) UpdateProduct(ctx context.Context, actor models.Actor, id int64, req *UpdateProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpdateProduct")
	defer span.End()

	if req.State != nil && !req.State.VendorSettable() {
		return nil, apperror.InvalidRequest("Estado inválido: %s", *req.State)
	}

	product, err := s.products.UpdateProduct(ctx, id, func(product *models.Product) error {
		if err := checkOwner(product, actor, "No tienes permiso para editar este producto"); err != nil {
			return err
		}
		req.apply(product)
		return validateProduct(product)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product updated", zap.Int64("product_id", id), zap.Int64("vendor_id", actor.UserID))
	return product, nil
}

// apply copies the non-nil fields of the request onto product
func (req *UpdateProductRequest) apply(product *models.Product) {
	if req.Title != nil {
		product.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Category != nil {
		product.Category = strings.TrimSpace(*req.Category)
	}
	if req.Condition != nil {
		product.Condition = *req.Condition
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.FreeShipping != nil {
		product.FreeShipping = *req.FreeShipping
	}
	if req.State != nil {
		product.State = *req.State
	}
	setDimension(&product.WeightKg, req.WeightKg)
	setDimension(&product.HeightCm, req.HeightCm)
	setDimension(&product.WidthCm, req.WidthCm)
	setDimension(&product.LengthCm, req.LengthCm)
}

// DeleteProduct hides a product owned by the caller. The row is kept for existing orders.
func (s *CatalogService) DeleteProduct(ctx context.Context, actor models.Actor, id int64) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteProduct")
	defer span.End()

	if _, err := s.ownedProduct(ctx, actor, id, "No tienes permiso para eliminar este producto"); err != nil {
		return err
	}
	if err := s.products.SetProductState(ctx, id, models.ProductRemoved); err != nil {
		return err
	}

	s.logger.Info("Product removed", zap.Int64("product_id", id), zap.Int64("vendor_id", actor.UserID))
	return nil
}

// SetProductState lets staff force any product state
func (s *CatalogService) SetProductState(ctx context.Context, actor models.Actor, id int64, state models.ProductState) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.SetProductState")
	defer span.End()

	if !actor.IsStaff {
		return nil, apperror.Forbidden("Solo el personal puede cambiar el estado de un producto")
	}
	if !state.Valid() {
		return nil, apperror.InvalidRequest("Estado inválido: %s", state)
	}
	if err := s.products.SetProductState(ctx, id, state); err != nil {
		return nil, err
	}

	s.logger.Info("Product state forced by staff",
		zap.Int64("product_id", id),
		zap.String("state", string(state)),
		zap.Int64("staff_id", actor.UserID))
	return s.products.GetProductByID(ctx, id)
}

// ownedProduct loads a product that is not removed and checks the caller is its vendor
func (s *CatalogService) ownedProduct(ctx context.Context, actor models.Actor, id int64, denied string) (*models.Product, error) {
	product, err := s.products.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(product, actor, denied); err != nil {
		return nil, err
	}
	return product, nil
}

func checkOwner(product *models.Product, actor models.Actor, denied string) error {
	if product.State == models.ProductRemoved {
		return apperror.NotFound("Producto no encontrado")
	}
	if product.VendorID != actor.UserID {
		return &apperror.Error{Kind: apperror.KindForbidden, Message: denied}
	}
	return nil
}

func setDimension(dst *decimal.NullDecimal, v *decimal.Decimal) {
	if v != nil {
		*dst = decimal.NewNullDecimal(*v)
	}
}

func validateProduct(p *models.Product) error {
	switch {
	case p.Title == "":
		return apperror.InvalidRequest("El título es requerido")
	case p.Category == "":
		return apperror.InvalidRequest("La categoría es requerida")
	case p.Price.IsNegative():
		return apperror.InvalidRequest("El precio no puede ser negativo")
	case p.Stock < 0:
		return apperror.InvalidRequest("El stock no puede ser negativo")
	case !p.Condition.Valid():
		return apperror.InvalidRequest("Condición inválida: %s", p.Condition)
	}
	for _, d := range []decimal.NullDecimal{p.WeightKg, p.HeightCm, p.WidthCm, p.LengthCm} {
		if d.Valid && d.Decimal.IsNegative() {
			return apperror.InvalidRequest("Las dimensiones no pueden ser negativas")
		}
	}
	return nil
}
