package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/meongtory/auth/internal/auth/domain"
)

type accountsRepo struct {
	db *sql.DB
}

const accountColumns = `account_id, email, name, password_hash, role, provider, provider_id, created_at, updated_at`

func (r *accountsRepo) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	return scanAccount(row)
}

func (r *accountsRepo) GetByProvider(
	ctx context.Context,
	provider, providerID string,
) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE provider = ? AND provider_id = ?`,
		provider, providerID)
	return scanAccount(row)
}

func (r *accountsRepo) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	now := time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (email, name, password_hash, role, provider, provider_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Email,
		a.Name,
		mapOptionalString(a.PasswordHash),
		a.Role,
		mapOptionalString(a.Provider),
		mapOptionalString(a.ProviderID),
		now,
		now,
	)
	if err != nil {
		return domain.Account{}, mapConstraint(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.Account{}, err
	}

	a.ID = id
	a.CreatedAt = now
	a.UpdatedAt = now
	return a, nil
}

func scanAccount(row *sql.Row) (domain.Account, error) {
	var (
		a            domain.Account
		passwordHash sql.NullString
		provider     sql.NullString
		providerID   sql.NullString
	)

	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.Name,
		&passwordHash,
		&a.Role,
		&provider,
		&providerID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}

	a.PasswordHash = mapNullStringPtr(passwordHash)
	a.Provider = mapNullStringPtr(provider)
	a.ProviderID = mapNullStringPtr(providerID)
	return a, nil
}
