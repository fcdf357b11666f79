package http

import (
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/meongtory/auth/internal/auth/oauth"
	"github.com/meongtory/auth/internal/auth/service"
	"github.com/meongtory/auth/pkg/httpx"
	"github.com/meongtory/auth/pkg/slogx"
)

const stateCookie = "oauth2_state"

// OAuth2Handler drives the browser-facing half of federated login:
// redirect the user to the provider, then on callback exchange the code,
// normalize the profile and hand the browser back to the frontend with a
// fresh session.
type OAuth2Handler struct {
	Clients     *oauth.Clients
	Federation  *service.FederationService
	FrontendURL string
}

// HandleAuthorize sends the browser to the provider's consent screen with
// an anti-forgery state bound to a short-lived cookie.
func (h *OAuth2Handler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")

	state, err := randomState()
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not start login")
		return
	}

	redirect, err := h.Clients.AuthCodeURL(provider, state)
	if err != nil {
		httpx.WriteError(w, http.StatusNotFound, "unknown_provider", "unsupported identity provider")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/oauth2",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, redirect, http.StatusFound)
}

// HandleCallback completes the provider round trip. Success lands the
// browser on the frontend with the session material in the fragment-free
// query string; any failure lands on the frontend login page with an
// error code.
func (h *OAuth2Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := slogx.FromContext(ctx)
	provider := r.PathValue("provider")

	if errCode := r.URL.Query().Get("error"); errCode != "" {
		l.Warn("provider returned error", slog.String("provider", provider), slog.String("error", errCode))
		h.failLogin(w, r, "provider_denied")
		return
	}

	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(stateCookie)
	if err != nil || state == "" || cookie.Value != state {
		l.Warn("state mismatch on callback", slog.String("provider", provider))
		h.failLogin(w, r, "state_mismatch")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.failLogin(w, r, "missing_code")
		return
	}

	attrs, err := h.Clients.FetchProfile(ctx, provider, code)
	if err != nil {
		l.Error("profile fetch failed", slog.String("provider", provider), "err", err)
		h.failLogin(w, r, "exchange_failed")
		return
	}

	account, pair, err := h.Federation.Login(ctx, provider, attrs)
	if err != nil {
		l.Error("federated login failed", slog.String("provider", provider), "err", err)
		h.failLogin(w, r, "login_failed")
		return
	}

	// Expire the state cookie.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/oauth2", MaxAge: -1})

	// The frontend reads the session from the redirect query; the headers
	// duplicate it for non-browser callers.
	w.Header().Set(HeaderAccessToken, pair.AccessToken)
	w.Header().Set(HeaderRefreshToken, pair.RefreshToken)

	q := url.Values{}
	q.Set("success", "true")
	q.Set("accessToken", pair.AccessToken)
	q.Set("refreshToken", pair.RefreshToken)
	q.Set("email", account.Email)
	q.Set("name", account.Name)
	q.Set("role", account.Role)

	http.Redirect(w, r, h.FrontendURL+"/?"+q.Encode(), http.StatusFound)
}

func (h *OAuth2Handler) failLogin(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, h.FrontendURL+"/login?error="+url.QueryEscape(code), http.StatusFound)
}

func randomState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
