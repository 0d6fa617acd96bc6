package service

import (
	"context"
	"sort"
	"strings"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"
	"marketplace-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// Commission returns amount * percentage / 100
func Commission(amount, percentage decimal.Decimal) decimal.Decimal {
	return amount.Mul(percentage).Div(hundred)
}

// CommissionService resolves sale fees per category
type CommissionService struct {
	commissions CommissionRepository
	products    ProductRepository
	logger      *zap.Logger
}

// NewCommissionService creates a new commission service
func NewCommissionService(commissions CommissionRepository, products ProductRepository) *CommissionService {
	return &CommissionService{
		commissions: commissions,
		products:    products,
		logger:      util.GetLogger(),
	}
}

// UpsertCommissionRequest sets the percentage of a category
type UpsertCommissionRequest struct {
	Category   string          `json:"categoria"`
	Percentage decimal.Decimal `json:"porcentaje"`
	Active     *bool           `json:"activa"`
}

// CategoryCommission is the per category breakdown of the totals report
type CategoryCommission struct {
	Category   string           `json:"categoria"`
	Percentage *decimal.Decimal `json:"porcentaje"`
	Potential  decimal.Decimal  `json:"comision_potencial"`
	Realised   decimal.Decimal  `json:"comision_real"`
	Active     int              `json:"productos_activos"`
	Sold       int              `json:"productos_vendidos"`
}

// CommissionTotals aggregates fees over active (potential) and sold (realised) products
type CommissionTotals struct {
	Potential          decimal.Decimal      `json:"comisiones_potenciales"`
	Realised           decimal.Decimal      `json:"comisiones_reales"`
	Categories         []CategoryCommission `json:"categorias"`
	MissingCommissions []string             `json:"categorias_sin_comision"`
}

// CommissionFor returns the fee for amount in category; zero when the category has no active commission
func (s *CommissionService) CommissionFor(ctx context.Context, category string, amount decimal.Decimal) (decimal.Decimal, error) {
	c, err := s.commissions.GetActiveCommission(ctx, category)
	if apperror.KindOf(err) == apperror.KindNotFound {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return Commission(amount, c.Percentage), nil
}

// ListCommissions returns every commission row (staff only)
func (s *CommissionService) ListCommissions(ctx context.Context, actor models.Actor) ([]models.Commission, error) {
	ctx, span := util.StartSpan(ctx, "CommissionService.ListCommissions")
	defer span.End()

	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return s.commissions.ListCommissions(ctx)
}

// UpsertCommission creates or replaces a category commission (staff only)
func (s *CommissionService) UpsertCommission(ctx context.Context, actor models.Actor, req *UpsertCommissionRequest) (*models.Commission, error) {
	ctx, span := util.StartSpan(ctx, "CommissionService.UpsertCommission")
	defer span.End()

	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	category := strings.TrimSpace(req.Category)
	if category == "" {
		return nil, apperror.InvalidRequest("La categoría es requerida")
	}
	if req.Percentage.IsNegative() || req.Percentage.GreaterThan(hundred) {
		return nil, apperror.InvalidRequest("El porcentaje debe estar entre 0 y 100")
	}

	c := &models.Commission{Category: category, Percentage: req.Percentage, Active: true}
	if req.Active != nil {
		c.Active = *req.Active
	}
	if err := s.commissions.UpsertCommission(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("Commission saved",
		zap.String("category", c.Category),
		zap.String("percentage", c.Percentage.String()),
		zap.Bool("active", c.Active))
	return c, nil
}

// Totals computes potential and realised commissions (staff only). Categories without an
// active commission contribute zero and are listed as missing.
func (s *CommissionService) Totals(ctx context.Context, actor models.Actor) (*CommissionTotals, error) {
	ctx, span := util.StartSpan(ctx, "CommissionService.Totals")
	defer span.End()

	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	commissions, err := s.commissions.ListCommissions(ctx)
	if err != nil {
		return nil, err
	}
	rates := make(map[string]decimal.Decimal, len(commissions))
	known := make(map[string]bool, len(commissions))
	for _, c := range commissions {
		known[c.Category] = true
		if c.Active {
			rates[c.Category] = c.Percentage
		}
	}

	active, err := s.products.ListProductsByState(ctx, models.ProductActive)
	if err != nil {
		return nil, err
	}
	sold, err := s.products.ListProductsByState(ctx, models.ProductSold)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string]*CategoryCommission)
	row := func(category string) *CategoryCommission {
		r, ok := byCategory[category]
		if !ok {
			r = &CategoryCommission{Category: category}
			if pct, ok := rates[category]; ok {
				r.Percentage = &pct
			}
			byCategory[category] = r
		}
		return r
	}

	totals := &CommissionTotals{Potential: decimal.Zero, Realised: decimal.Zero}
	for _, p := range active {
		r := row(p.Category)
		r.Active++
		if pct, ok := rates[p.Category]; ok {
			fee := Commission(p.Price, pct)
			r.Potential = r.Potential.Add(fee)
			totals.Potential = totals.Potential.Add(fee)
		}
	}
	for _, p := range sold {
		r := row(p.Category)
		r.Sold++
		if pct, ok := rates[p.Category]; ok {
			fee := Commission(p.Price, pct)
			r.Realised = r.Realised.Add(fee)
			totals.Realised = totals.Realised.Add(fee)
		}
	}

	totals.Categories = make([]CategoryCommission, 0, len(byCategory))
	totals.MissingCommissions = []string{}
	for category, r := range byCategory {
		totals.Categories = append(totals.Categories, *r)
		if !known[category] {
			totals.MissingCommissions = append(totals.MissingCommissions, category)
		}
	}
	sort.Slice(totals.Categories, func(i, j int) bool {
		return totals.Categories[i].Category < totals.Categories[j].Category
	})
	sort.Strings(totals.MissingCommissions)
	return totals, nil
}

func requireStaff(actor models.Actor) error {
	if !actor.IsStaff {
		return apperror.Forbidden("Solo el personal puede acceder a este recurso")
	}
	return nil
}
