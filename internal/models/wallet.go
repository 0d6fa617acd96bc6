package models

import "strings"

// WalletKind identifies an external payment account a user can link
type WalletKind string

const (
	WalletMercadoPago WalletKind = "mercadopago"
	WalletLemon       WalletKind = "lemon"
	WalletBrubank     WalletKind = "brubank"
)

// WalletKinds lists the supported wallets in display order
var WalletKinds = []WalletKind{WalletMercadoPago, WalletLemon, WalletBrubank}

var walletLabels = map[WalletKind]string{
	WalletMercadoPago: "Mercado Pago",
	WalletLemon:       "Lemon",
	WalletBrubank:     "Brubank",
}

// ParseWalletKind normalises s and reports whether it names a known wallet
func ParseWalletKind(s string) (WalletKind, bool) {
	kind := WalletKind(strings.ToLower(strings.TrimSpace(s)))
	_, ok := walletLabels[kind]
	return kind, ok
}

// Valid reports whether k is a known wallet
func (k WalletKind) Valid() bool {
	_, ok := walletLabels[k]
	return ok
}

// Label is the human readable wallet name
func (k WalletKind) Label() string {
	return walletLabels[k]
}

// slot returns pointers to the user's active flag and account for kind
func (u *User) slot(kind WalletKind) (*bool, **string) {
	switch kind {
	case WalletMercadoPago:
		return &u.MercadoPagoActive, &u.MercadoPagoAcct
	case WalletLemon:
		return &u.LemonActive, &u.LemonAcct
	case WalletBrubank:
		return &u.BrubankActive, &u.BrubankAcct
	}
	return nil, nil
}

// IsLinked reports whether the user has the wallet active
func IsLinked(u *User, kind WalletKind) bool {
	active, _ := u.slot(kind)
	return active != nil && *active
}

// AccountOf returns the linked account identifier, empty when the wallet is not active
func AccountOf(u *User, kind WalletKind) string {
	active, acct := u.slot(kind)
	if active == nil || !*active || *acct == nil {
		return ""
	}
	return **acct
}

// SetWallet links (active=true) or unlinks the wallet. Unlinking clears the account.
func SetWallet(u *User, kind WalletKind, active bool, account string) bool {
	flag, acct := u.slot(kind)
	if flag == nil {
		return false
	}
	*flag = active
	if active {
		*acct = &account
	} else {
		*acct = nil
	}
	return true
}

// WalletLink is the public shape of one wallet link
type WalletLink struct {
	Active  bool    `json:"activa"`
	Account *string `json:"cuenta"`
}

// Wallets returns every wallet link of the user keyed by kind
func Wallets(u *User) map[WalletKind]WalletLink {
	out := make(map[WalletKind]WalletLink, len(WalletKinds))
	for _, kind := range WalletKinds {
		link := WalletLink{Active: IsLinked(u, kind)}
		if link.Active {
			acct := AccountOf(u, kind)
			link.Account = &acct
		}
		out[kind] = link
	}
	return out
}
