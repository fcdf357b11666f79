package domain

import "time"

// DefaultRole is assigned to accounts that don't request one explicitly,
// including every account created through federation.
const DefaultRole = "USER"

// Account is the canonical identity record. Local accounts carry a password
// hash and no provider pair; federated accounts carry a provider pair and no
// password hash.
type Account struct {
	ID           int64
	Email        string // globally unique, subject of every issued token
	Name         string
	PasswordHash *string // nil for accounts created purely via federation
	Role         string  // flat role string, e.g. "USER" or "ADMIN"
	Provider     *string
	ProviderID   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsFederated reports whether the account originates from an external
// identity provider.
func (a Account) IsFederated() bool {
	return a.Provider != nil && a.ProviderID != nil
}
