package store

import (
	"context"
	"fmt"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"
)

// CreateUser inserts a user. Registration lives elsewhere; this is used for seeding and tests.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, username, nombre, is_staff,
			mercadopago_activa, mercadopago_cuenta, lemon_activa, lemon_cuenta, brubank_activa, brubank_cuenta)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, fecha_creacion`

	err := s.db.QueryRowxContext(ctx, query,
		user.Email, user.Username, user.Name, user.IsStaff,
		user.MercadoPagoActive, user.MercadoPagoAcct,
		user.LemonActive, user.LemonAcct,
		user.BrubankActive, user.BrubankAcct,
	).Scan(&user.ID, &user.CreatedAt)
	if isUniqueViolation(err) {
		return apperror.Conflict("El usuario ya existe")
	}
	return err
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err != nil {
		return nil, notFound(err, "Usuario no encontrado")
	}
	return &user, nil
}

var walletColumns = map[models.WalletKind][2]string{
	models.WalletMercadoPago: {"mercadopago_activa", "mercadopago_cuenta"},
	models.WalletLemon:       {"lemon_activa", "lemon_cuenta"},
	models.WalletBrubank:     {"brubank_activa", "brubank_cuenta"},
}

// UpdateWallet links or unlinks one wallet of the user. Unlinking clears the account.
func (s *Store) UpdateWallet(ctx context.Context, userID int64, kind models.WalletKind, active bool, account string) (*models.User, error) {
	cols, ok := walletColumns[kind]
	if !ok {
		return nil, apperror.InvalidRequest("Método de pago no soportado: %s", kind)
	}

	var acct *string
	if active {
		acct = &account
	}

	query := fmt.Sprintf("UPDATE users SET %s = $1, %s = $2 WHERE id = $3 RETURNING *", cols[0], cols[1])

	var user models.User
	if err := s.db.GetContext(ctx, &user, query, active, acct, userID); err != nil {
		return nil, notFound(err, "Usuario no encontrado")
	}
	return &user, nil
}
