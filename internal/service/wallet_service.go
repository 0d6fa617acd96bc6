package service

import (
	"context"
	"strings"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"
	"marketplace-service/internal/util"

	"go.uber.org/zap"
)

// WalletService links and unlinks the caller's payment accounts
type WalletService struct {
	users  UserRepository
	logger *zap.Logger
}

// NewWalletService creates a new wallet service
func NewWalletService(users UserRepository) *WalletService {
	return &WalletService{users: users, logger: util.GetLogger()}
}

type ConnectWalletRequest struct {
	Kind    string `json:"tipo"`
	Account string `json:"cuenta"`
}

type DisconnectWalletRequest struct {
	Kind string `json:"tipo"`
}

// Wallets returns the caller's wallet links
func (s *WalletService) Wallets(ctx context.Context, actor models.Actor) (map[models.WalletKind]models.WalletLink, error) {
	user, err := s.users.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return models.Wallets(user), nil
}

// Connect links a wallet account
func (s *WalletService) Connect(ctx context.Context, actor models.Actor, req *ConnectWalletRequest) (map[models.WalletKind]models.WalletLink, error) {
	ctx, span := util.StartSpan(ctx, "WalletService.Connect")
	defer span.End()

	kind, ok := models.ParseWalletKind(req.Kind)
	if !ok {
		return nil, apperror.InvalidRequest("Tipo de billetera no válido")
	}
	account := strings.TrimSpace(req.Account)
	if account == "" {
		return nil, apperror.InvalidRequest("La cuenta es requerida")
	}

	user, err := s.users.UpdateWallet(ctx, actor.UserID, kind, true, account)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Wallet connected", zap.Int64("user_id", user.ID), zap.String("wallet", string(kind)))
	return models.Wallets(user), nil
}

// Disconnect unlinks a wallet and clears its account
func (s *WalletService) Disconnect(ctx context.Context, actor models.Actor, req *DisconnectWalletRequest) (map[models.WalletKind]models.WalletLink, error) {
	ctx, span := util.StartSpan(ctx, "WalletService.Disconnect")
	defer span.End()

	kind, ok := models.ParseWalletKind(req.Kind)
	if !ok {
		return nil, apperror.InvalidRequest("Tipo de billetera no válido")
	}

	user, err := s.users.UpdateWallet(ctx, actor.UserID, kind, false, "")
	if err != nil {
		return nil, err
	}
	s.logger.Info("Wallet disconnected", zap.Int64("user_id", user.ID), zap.String("wallet", string(kind)))
	return models.Wallets(user), nil
}
