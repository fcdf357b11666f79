package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/meongtory/auth/internal/auth/store"
	"github.com/meongtory/auth/pkg/httpx"
	"github.com/meongtory/auth/pkg/jwtx"
	"github.com/meongtory/auth/pkg/slogx"
)

// Session token headers. The frontend sends whichever it holds; the
// interceptor consults Access_Token first and falls back to
// Refresh_Token only when no access token is present at all.
const (
	HeaderAccessToken  = "Access_Token"
	HeaderRefreshToken = "Refresh_Token"
)

// TokenInterceptor authenticates every request that carries a session
// token and annotates its context with the verified identity. Requests
// without either header pass through unauthenticated; route-level guards
// decide whether that is acceptable.
//
// A present-but-invalid Access_Token is a hard 401. A bare Refresh_Token
// must additionally still be the account's stored one, otherwise 400.
func TokenInterceptor(codec *jwtx.Codec, st store.Store, frontendURL string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := slogx.FromContext(ctx)

			if access := r.Header.Get(HeaderAccessToken); access != "" {
				claims, err := codec.Claims(access)
				if err != nil {
					l.Warn("access token rejected", slog.String("path", r.URL.Path))
					reject(w, r, frontendURL, http.StatusUnauthorized,
						"invalid_token", "access token is invalid or expired")
					return
				}

				// The identity's role is the account's current one, not
				// whatever the token was minted with.
				account, err := st.Accounts().GetByEmail(ctx, claims.Subject)
				if err != nil {
					if errors.Is(err, store.ErrNotFound) {
						l.Warn("access token subject has no account", slog.String("email", claims.Subject))
						reject(w, r, frontendURL, http.StatusUnauthorized,
							"unknown_account", "no account for this session")
						return
					}
					httpx.WriteError(w, http.StatusInternalServerError,
						"server_error", "could not verify session")
					return
				}

				next.ServeHTTP(w, r.WithContext(withIdentity(ctx, account.Email, account.Role)))
				return
			}

			if refresh := r.Header.Get(HeaderRefreshToken); refresh != "" {
				claims, err := codec.Claims(refresh)
				if err != nil {
					l.Error("refresh token rejected", slog.String("path", r.URL.Path))
					reject(w, r, frontendURL, http.StatusBadRequest,
						"invalid_refresh_token", "refresh token is invalid or expired")
					return
				}

				ok, err := st.RefreshTokens().Matches(ctx, claims.Subject, refresh)
				if err != nil {
					httpx.WriteError(w, http.StatusInternalServerError,
						"server_error", "could not verify session")
					return
				}
				if !ok {
					l.Error("refresh token not current", slog.String("email", claims.Subject))
					reject(w, r, frontendURL, http.StatusBadRequest,
						"invalid_refresh_token", "refresh token is no longer active")
					return
				}

				next.ServeHTTP(w, r.WithContext(withIdentity(ctx, claims.Subject, claims.Role)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireIdentity guards endpoints that only make sense for an
// authenticated caller.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if email, _ := r.Context().Value(httpx.CtxKeyEmail).(string); email == "" {
			httpx.WriteError(w, http.StatusUnauthorized,
				"unauthenticated", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func withIdentity(ctx context.Context, email, role string) context.Context {
	ctx = context.WithValue(ctx, httpx.CtxKeyEmail, email)
	return context.WithValue(ctx, httpx.CtxKeyRole, role)
}

// reject answers API calls with a JSON error and anything else with a
// redirect to the frontend login page.
func reject(w http.ResponseWriter, r *http.Request, frontendURL string, status int, code, message string) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		httpx.WriteError(w, status, code, message)
		return
	}
	http.Redirect(w, r, frontendURL+"/login", http.StatusFound)
}
