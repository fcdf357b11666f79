package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/meongtory/auth/internal/auth/oauth"
	"github.com/meongtory/auth/internal/auth/service"
	"github.com/meongtory/auth/internal/auth/store"
	"github.com/meongtory/auth/pkg/httpx"
	"github.com/meongtory/auth/pkg/jwtx"
	"github.com/meongtory/auth/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	codec        *jwtx.Codec
	frontendURL  string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store             store.Store
	TokenService      *service.TokenService
	AccountService    *service.AccountService
	FederationService *service.FederationService
	OAuthClients      *oauth.Clients
}

func NewRouter(
	codec *jwtx.Codec,
	frontendURL, buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		codec:        codec,
		frontendURL:  frontendURL,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		TokenInterceptor(codec, st, frontendURL),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAccounts()
	r.registerOAuth2()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAccounts() {
	h := &AccountsHandler{
		Accounts: r.AccountService,
		Tokens:   r.TokenService,
	}

	// Credential endpoints take the brunt of abuse, so they get the
	// strict budget.
	r.Mux.Handle("POST /api/accounts/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))

	r.Mux.Handle("POST /api/accounts/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))

	r.Mux.Handle("POST /api/accounts/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		))

	r.Mux.Handle("POST /api/accounts/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			RequireIdentity,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		))

	r.Mux.Handle("GET /api/accounts/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			RequireIdentity,
			httpx.RateLimitByIP(httpx.LenientLimit),
		))
}

func (r *Router) registerOAuth2() {
	h := &OAuth2Handler{
		Clients:     r.OAuthClients,
		Federation:  r.FederationService,
		FrontendURL: r.frontendURL,
	}

	r.Mux.Handle("GET /oauth2/authorize/{provider}",
		httpx.Chain(http.HandlerFunc(h.HandleAuthorize),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		))

	r.Mux.Handle("GET /oauth2/callback/{provider}",
		httpx.Chain(http.HandlerFunc(h.HandleCallback),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
