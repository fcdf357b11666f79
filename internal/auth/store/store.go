package store

import (
	"context"
	"errors"

	"github.com/meongtory/auth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite)
// implement this. Everything this subsystem persists is a simple point
// read or single-row write, so there is no transaction surface; the one
// write-contention point, RefreshTokens.Put, is an atomic upsert inside
// the driver.
type Store interface {
	Accounts() Accounts
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Accounts interface {
	// GetByEmail returns the account owning the given email.
	GetByEmail(ctx context.Context, email string) (domain.Account, error)

	// GetByProvider returns the account linked to an external identity.
	GetByProvider(ctx context.Context, provider, providerID string) (domain.Account, error)

	// Create inserts a new account and returns it with its assigned id.
	// A duplicate email or (provider, provider_id) pair yields
	// ErrAlreadyExists.
	Create(ctx context.Context, a domain.Account) (domain.Account, error)
}

type RefreshTokens interface {
	// Put stores token as the single outstanding refresh token for email,
	// replacing any prior record (last writer wins).
	Put(ctx context.Context, email, token string) error

	// Matches reports whether a record exists for email and its token
	// string equals the presented one exactly. Absence is a normal false,
	// not an error.
	Matches(ctx context.Context, email, token string) (bool, error)

	// Clear deletes the record for email. Clearing an absent record is
	// not an error.
	Clear(ctx context.Context, email string) error
}
