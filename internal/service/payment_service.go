package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"
	"marketplace-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Transaction is the gateway's record of a charge
type Transaction struct {
	ID     string            `json:"id"`
	Kind   models.WalletKind `json:"tipo"`
	Amount decimal.Decimal   `json:"monto"`
	State  string            `json:"estado"`
	Date   string            `json:"fecha"`
}

const transactionDateLayout = "2006-01-02 15:04:05"

// PaymentGateway charges a linked wallet account
type PaymentGateway interface {
	Charge(ctx context.Context, kind models.WalletKind, account string, amount decimal.Decimal) (*Transaction, error)
}

// SimulatedGateway approves every charge without contacting any provider
type SimulatedGateway struct {
	now func() time.Time
}

func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{now: time.Now}
}

// Charge returns a completed transaction with id <KIND>-<unix seconds>
func (g *SimulatedGateway) Charge(ctx context.Context, kind models.WalletKind, account string, amount decimal.Decimal) (*Transaction, error) {
	now := g.now()
	return &Transaction{
		ID:     fmt.Sprintf("%s-%d", strings.ToUpper(string(kind)), now.Unix()),
		Kind:   kind,
		Amount: amount,
		State:  "Completado",
		Date:   now.Format(transactionDateLayout),
	}, nil
}

// PaymentMethod describes a supported wallet
type PaymentMethod struct {
	ID          models.WalletKind `json:"id"`
	Name        string            `json:"nombre"`
	Description string            `json:"descripcion"`
	Icon        string            `json:"icono"`
}

var paymentMethods = map[models.WalletKind]PaymentMethod{
	models.WalletMercadoPago: {Description: "Paga con tu cuenta de Mercado Pago", Icon: "💳"},
	models.WalletLemon:       {Description: "Paga con tu billetera Lemon", Icon: "🍋"},
	models.WalletBrubank:     {Description: "Paga con tu cuenta Brubank", Icon: "🏦"},
}

// PaymentService handles payments through a gateway
type PaymentService struct {
	users   UserRepository
	gateway PaymentGateway
	logger  *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(users UserRepository, gateway PaymentGateway) *PaymentService {
	return &PaymentService{
		users:   users,
		gateway: gateway,
		logger:  util.GetLogger(),
	}
}

// ProcessPaymentRequest charges one of the caller's wallets
type ProcessPaymentRequest struct {
	Kind   string          `json:"tipo"`
	Amount decimal.Decimal `json:"monto"`
}

// Methods lists the supported payment methods
func (ps *PaymentService) Methods() []PaymentMethod {
	methods := make([]PaymentMethod, 0, len(models.WalletKinds))
	for _, kind := range models.WalletKinds {
		m := paymentMethods[kind]
		m.ID = kind
		m.Name = kind.Label()
		methods = append(methods, m)
	}
	return methods
}

// ProcessPayment charges the caller's wallet, which must be linked
func (ps *PaymentService) ProcessPayment(ctx context.Context, actor models.Actor, req *ProcessPaymentRequest) (*Transaction, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.ProcessPayment")
	defer span.End()

	kind, ok := models.ParseWalletKind(req.Kind)
	if !ok {
		return nil, apperror.InvalidRequest("Tipo de billetera no válido")
	}
	if !req.Amount.IsPositive() {
		return nil, apperror.InvalidRequest("El monto debe ser mayor a cero")
	}

	user, err := ps.users.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !models.IsLinked(user, kind) {
		util.PaymentFailedTotal.Inc()
		return nil, apperror.WalletNotLinked("La billetera %s no está conectada", kind)
	}

	util.PaymentAttemptsTotal.Inc()
	start := time.Now()
	defer func() {
		util.PaymentProcessingLatency.Observe(time.Since(start).Seconds())
	}()

	tx, err := ps.gateway.Charge(ctx, kind, models.AccountOf(user, kind), req.Amount)
	if err != nil {
		util.PaymentFailedTotal.Inc()
		return nil, fmt.Errorf("payment gateway: %w", err)
	}

	util.PaymentSuccessTotal.Inc()
	ps.logger.Info("Payment processed",
		zap.Int64("user_id", user.ID),
		zap.String("tx_id", tx.ID),
		zap.String("amount", tx.Amount.String()))
	return tx, nil
}
