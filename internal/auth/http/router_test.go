package http

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/meongtory/auth/internal/auth/domain"
	"github.com/meongtory/auth/internal/auth/oauth"
	"github.com/meongtory/auth/internal/auth/service"
	"github.com/meongtory/auth/internal/auth/store"
	"github.com/meongtory/auth/internal/auth/store/drivers/sqlite"
	"github.com/meongtory/auth/pkg/jwtx"

	"github.com/stretchr/testify/require"
)

const testFrontend = "https://app.example.com"

func testSecret(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i * 7)
	}
	return base64.StdEncoding.EncodeToString(key)
}

type env struct {
	router *Router
	store  store.Store
	codec  *jwtx.Codec
	tokens *service.TokenService
}

func newEnv(t *testing.T, opts ...jwtx.Option) *env {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	codec, err := jwtx.NewCodec(testSecret(t), opts...)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens := &service.TokenService{Codec: codec, Store: st}
	r := NewRouter(codec, testFrontend, "test", st, logger)
	r.TokenService = tokens
	r.AccountService = &service.AccountService{Store: st, Tokens: tokens}
	r.FederationService = &service.FederationService{Store: st, Tokens: tokens}
	r.OAuthClients = oauth.NewClients(oauth.Credentials{}, oauth.Credentials{}, oauth.Credentials{})
	r.ApplyRoutes()

	return &env{router: r, store: st, codec: codec, tokens: tokens}
}

func (e *env) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) registerAndLogin(t *testing.T, email, password string) domain.TokenPair {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/accounts/register", map[string]string{
		"email": email, "password": password, "name": "Test User",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/api/accounts/login", map[string]string{
		"email": email, "password": password,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var pair domain.TokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	return pair
}

func TestRegisterLoginMe(t *testing.T) {
	e := newEnv(t)
	pair := e.registerAndLogin(t, "alice@example.com", "s3cret-pass")

	rec := e.do(t, http.MethodGet, "/api/accounts/me", nil, map[string]string{
		HeaderAccessToken: pair.AccessToken,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var profile accountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	require.Equal(t, "alice@example.com", profile.Email)
	require.Equal(t, "USER", profile.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	e := newEnv(t)
	e.registerAndLogin(t, "alice@example.com", "s3cret-pass")

	rec := e.do(t, http.MethodPost, "/api/accounts/login", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInterceptor(t *testing.T) {
	t.Run("NoTokensPassesThroughUnauthenticated", func(t *testing.T) {
		e := newEnv(t)

		// Public probe works without tokens.
		rec := e.do(t, http.MethodGet, "/livez", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		// Guarded endpoint does not.
		rec = e.do(t, http.MethodGet, "/api/accounts/me", nil, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("InvalidAccessTokenIs401", func(t *testing.T) {
		e := newEnv(t)

		rec := e.do(t, http.MethodGet, "/api/accounts/me", nil, map[string]string{
			HeaderAccessToken: "garbage.token.here",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ExpiredAccessTokenIs401", func(t *testing.T) {
		start := time.Now()
		now := start
		e := newEnv(t, jwtx.WithClock(func() time.Time { return now }))
		pair := e.registerAndLogin(t, "alice@example.com", "s3cret-pass")

		now = start.Add(jwtx.AccessTokenTTL + time.Minute)
		rec := e.do(t, http.MethodGet, "/api/accounts/me", nil, map[string]string{
			HeaderAccessToken: pair.AccessToken,
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("AccessTokenWinsOverRefreshToken", func(t *testing.T) {
		// When both headers are present only the access token is
		// consulted: a bad access token fails even next to a good
		// refresh token.
		e := newEnv(t)
		pair := e.registerAndLogin(t, "alice@example.com", "s3cret-pass")

		rec := e.do(t, http.MethodGet, "/api/accounts/me", nil, map[string]string{
			HeaderAccessToken:  "garbage.token.here",
			HeaderRefreshToken: pair.RefreshToken,
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("BareRefreshTokenAuthenticates", func(t *testing.T) {
		e := newEnv(t)
		pair := e.registerAndLogin(t, "alice@example.com", "s3cret-pass")

		rec := e.do(t, http.MethodGet, "/api/accounts/me", nil, map[string]string{
			HeaderRefreshToken: pair.RefreshToken,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("StaleRefreshTokenIs400", func(t *testing.T) {
		e := newEnv(t)
		pair := e.registerAndLogin(t, "alice@example.com", "s3cret-pass")

		// Logout empties the slot; the still-signed token is now stale.
		rec := e.do(t, http.MethodPost, "/api/accounts/logout", nil, map[string]string{
			HeaderAccessToken: pair.AccessToken,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = e.do(t, http.MethodGet, "/api/accounts/me", nil, map[string]string{
			HeaderRefreshToken: pair.RefreshToken,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("BrowserPathsRedirectToLogin", func(t *testing.T) {
		e := newEnv(t)

		req := httptest.NewRequest(http.MethodGet, "/livez", nil)
		req.Header.Set(HeaderAccessToken, "garbage.token.here")
		rec := httptest.NewRecorder()
		e.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, testFrontend+"/login", rec.Header().Get("Location"))
	})
}

func TestRefreshEndpoint(t *testing.T) {
	t.Run("BodyToken", func(t *testing.T) {
		e := newEnv(t)
		pair := e.registerAndLogin(t, "alice@example.com", "s3cret-pass")

		rec := e.do(t, http.MethodPost, "/api/accounts/refresh", map[string]string{
			"refreshToken": pair.RefreshToken,
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var renewed domain.TokenPair
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &renewed))
		require.Equal(t, pair.RefreshToken, renewed.RefreshToken)
		require.True(t, e.codec.Validate(renewed.AccessToken))
	})

	t.Run("HeaderToken", func(t *testing.T) {
		e := newEnv(t)
		pair := e.registerAndLogin(t, "alice@example.com", "s3cret-pass")

		rec := e.do(t, http.MethodPost, "/api/accounts/refresh", nil, map[string]string{
			HeaderRefreshToken: pair.RefreshToken,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("MissingToken", func(t *testing.T) {
		e := newEnv(t)

		rec := e.do(t, http.MethodPost, "/api/accounts/refresh", nil, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("AfterLogout", func(t *testing.T) {
		e := newEnv(t)
		pair := e.registerAndLogin(t, "alice@example.com", "s3cret-pass")

		rec := e.do(t, http.MethodPost, "/api/accounts/logout", nil, map[string]string{
			HeaderAccessToken: pair.AccessToken,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = e.do(t, http.MethodPost, "/api/accounts/refresh", map[string]string{
			"refreshToken": pair.RefreshToken,
		}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogoutRequiresIdentity(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/accounts/logout", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReadyz(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/readyz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "ok", health.Checks["database"])
}

func TestOAuth2Authorize(t *testing.T) {
	t.Run("ConfiguredProviderRedirects", func(t *testing.T) {
		h := &OAuth2Handler{
			Clients: oauth.NewClients(oauth.Credentials{
				ClientID:     "client-123",
				ClientSecret: "secret",
				RedirectURL:  "https://auth.example.com/oauth2/callback/google",
			}, oauth.Credentials{}, oauth.Credentials{}),
			FrontendURL: testFrontend,
		}

		req := httptest.NewRequest(http.MethodGet, "/oauth2/authorize/google", nil)
		req.SetPathValue("provider", "google")
		rec := httptest.NewRecorder()
		h.HandleAuthorize(rec, req)

		require.Equal(t, http.StatusFound, rec.Code)

		location := rec.Header().Get("Location")
		require.Contains(t, location, "accounts.google.com")
		require.Contains(t, location, "client-123")
		require.Contains(t, location, "state=")

		var found bool
		for _, c := range rec.Result().Cookies() {
			if c.Name == "oauth2_state" && c.Value != "" {
				found = true
			}
		}
		require.True(t, found, "state cookie must be set")
	})

	t.Run("UnknownProviderIs404", func(t *testing.T) {
		e := newEnv(t)

		rec := e.do(t, http.MethodGet, "/oauth2/authorize/github", nil, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestFederatedCallbackStateMismatch(t *testing.T) {
	e := newEnv(t)

	req := httptest.NewRequest(http.MethodGet,
		"/oauth2/callback/google?code=abc&state=forged", nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Contains(t, rec.Header().Get("Location"), testFrontend+"/login?error=state_mismatch")
}
