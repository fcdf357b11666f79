package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/meongtory/auth/internal/auth/domain"
	"github.com/meongtory/auth/internal/auth/store"
	"github.com/meongtory/auth/pkg/jwtx"
	"github.com/meongtory/auth/pkg/slogx"
)

var (
	ErrInvalidRefresh = errors.New("invalid_refresh_token")
	ErrUnknownAccount = errors.New("unknown_account")
)

// TokenService issues session token pairs and renews access tokens
// against the single-slot refresh token store.
type TokenService struct {
	Codec *jwtx.Codec
	Store store.Store
}

// IssueSession mints a fresh access/refresh pair for an account and
// persists the refresh token as the account's single outstanding one,
// displacing whatever was stored before. This is the only issuance path;
// every successful login event of any kind funnels through here.
func (s *TokenService) IssueSession(ctx context.Context, account domain.Account) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	access, err := s.Codec.Issue(account.Email, account.Role, jwtx.KindAccess)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := s.Codec.Issue(account.Email, account.Role, jwtx.KindRefresh)
	if err != nil {
		return domain.TokenPair{}, err
	}

	if err := s.Store.RefreshTokens().Put(ctx, account.Email, refresh); err != nil {
		return domain.TokenPair{}, err
	}

	l.Info("session issued", slog.String("email", account.Email), slog.String("role", account.Role))
	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh validates a presented refresh token against both its signature
// and the stored slot, then issues a new access token. The refresh token
// itself is echoed back unrotated; its lifetime bounds the session.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	if !s.Codec.Validate(refreshToken) {
		l.Info("refresh rejected: token invalid or expired")
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	email, err := s.Codec.Subject(refreshToken)
	if err != nil {
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	account, err := s.Store.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Warn("refresh rejected: subject has no account", slog.String("email", email))
			return domain.TokenPair{}, ErrUnknownAccount
		}
		return domain.TokenPair{}, err
	}

	// A well-signed token that is not the stored one is stale: the slot
	// was replaced by a later login or emptied by logout.
	ok, err := s.Store.RefreshTokens().Matches(ctx, email, refreshToken)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if !ok {
		l.Info("refresh rejected: token not current", slog.String("email", email))
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	access, err := s.Codec.Issue(account.Email, account.Role, jwtx.KindAccess)
	if err != nil {
		return domain.TokenPair{}, err
	}

	l.Info("access token renewed", slog.String("email", email))
	return domain.TokenPair{AccessToken: access, RefreshToken: refreshToken}, nil
}
