package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/meongtory/auth/internal/auth/domain"
	"github.com/meongtory/auth/internal/auth/store"
	"github.com/meongtory/auth/pkg/cryptox"
	"github.com/meongtory/auth/pkg/slogx"
)

var (
	ErrEmailTaken     = errors.New("email_taken")
	ErrBadCredentials = errors.New("bad_credentials")
)

// AccountService covers local (password) account lifecycle: registration,
// credential login, logout and profile lookup.
type AccountService struct {
	Store  store.Store
	Tokens *TokenService
}

// Register creates a local account with an argon2id password hash and the
// default role.
func (s *AccountService) Register(ctx context.Context, email, password, name string) (domain.Account, error) {
	l := slogx.FromContext(ctx)

	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.Account{}, err
	}

	account, err := s.Store.Accounts().Create(ctx, domain.Account{
		Email:        email,
		Name:         name,
		PasswordHash: &hash,
		Role:         domain.DefaultRole,
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			l.Info("registration rejected: email taken", slog.String("email", email))
			return domain.Account{}, ErrEmailTaken
		}
		return domain.Account{}, err
	}

	l.Info("account registered", slog.String("email", email))
	return account, nil
}

// Login verifies credentials and issues a session pair. A missing account
// and a wrong password are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, email, password string) (domain.Account, domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	account, err := s.Store.Accounts().GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, domain.TokenPair{}, ErrBadCredentials
		}
		return domain.Account{}, domain.TokenPair{}, err
	}

	// Federated accounts carry no password hash and cannot log in locally.
	if account.PasswordHash == nil {
		l.Info("login rejected: account has no password", slog.String("email", account.Email))
		return domain.Account{}, domain.TokenPair{}, ErrBadCredentials
	}

	if err := cryptox.VerifyPassword(password, *account.PasswordHash); err != nil {
		l.Info("login rejected: password mismatch", slog.String("email", account.Email))
		return domain.Account{}, domain.TokenPair{}, ErrBadCredentials
	}

	pair, err := s.Tokens.IssueSession(ctx, account)
	if err != nil {
		return domain.Account{}, domain.TokenPair{}, err
	}
	return account, pair, nil
}

// Logout empties the account's refresh token slot. Logging out an account
// with no stored token is a no-op.
func (s *AccountService) Logout(ctx context.Context, email string) error {
	if err := s.Store.RefreshTokens().Clear(ctx, email); err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("session cleared", slog.String("email", email))
	return nil
}

// UserInfo returns the profile of the account owning email.
func (s *AccountService) UserInfo(ctx context.Context, email string) (domain.Account, error) {
	account, err := s.Store.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, ErrUnknownAccount
		}
		return domain.Account{}, err
	}
	return account, nil
}
