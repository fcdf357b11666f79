package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/meongtory/auth/internal/auth/domain"
	"github.com/meongtory/auth/internal/auth/federation"
	"github.com/meongtory/auth/internal/auth/store"
	"github.com/meongtory/auth/pkg/slogx"
)

// FederationService turns a provider profile payload into a logged-in
// session: normalize the attributes, upsert the matching account keyed by
// (provider, provider id), and issue a token pair through the single
// issuance path.
type FederationService struct {
	Store  store.Store
	Tokens *TokenService
}

// fallbackEmailDomain is used when a provider withholds the email; the
// synthesized address is stable per identity so repeated logins land on
// the same account.
const fallbackEmailDomain = "social.meongtory.shop"

// Login completes a federated login from a provider's raw profile
// attributes. Repeated logins with the same external identity reuse the
// existing account; only the tokens are new.
func (s *FederationService) Login(
	ctx context.Context,
	provider string,
	attrs map[string]any,
) (domain.Account, domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	identity, err := federation.Parse(provider, attrs)
	if err != nil {
		return domain.Account{}, domain.TokenPair{}, err
	}

	account, err := s.ensureAccount(ctx, identity)
	if err != nil {
		return domain.Account{}, domain.TokenPair{}, err
	}

	pair, err := s.Tokens.IssueSession(ctx, account)
	if err != nil {
		return domain.Account{}, domain.TokenPair{}, err
	}

	l.Info("federated login",
		slog.String("provider", identity.Provider),
		slog.String("email", account.Email))
	return account, pair, nil
}

// ensureAccount finds the account linked to the external identity,
// creating it on first login. A create that loses a concurrent race falls
// back to re-reading the winner's row.
func (s *FederationService) ensureAccount(
	ctx context.Context,
	identity domain.CanonicalIdentity,
) (domain.Account, error) {
	account, err := s.Store.Accounts().GetByProvider(ctx, identity.Provider, identity.ProviderID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, err
	}

	email := identity.Email
	if email == "" {
		email = fmt.Sprintf("%s_%s@%s", identity.Provider, identity.ProviderID, fallbackEmailDomain)
	}

	created, err := s.Store.Accounts().Create(ctx, domain.Account{
		Email:      email,
		Name:       identity.Name,
		Role:       domain.DefaultRole,
		Provider:   &identity.Provider,
		ProviderID: &identity.ProviderID,
	})
	if err == nil {
		return created, nil
	}
	if errors.Is(err, store.ErrAlreadyExists) {
		return s.Store.Accounts().GetByProvider(ctx, identity.Provider, identity.ProviderID)
	}
	return domain.Account{}, err
}
