// Package oauth holds the outbound OAuth2 clients for the supported
// identity providers: building the authorization redirect, exchanging the
// callback code for an access token, and fetching the raw profile payload
// that the federation package then normalizes.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/meongtory/auth/internal/auth/federation"

	"golang.org/x/oauth2"
)

var ErrUnknownProvider = errors.New("oauth: unknown provider")

// Credentials is the per-provider client registration issued by the
// provider's developer console.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type provider struct {
	config      *oauth2.Config
	userInfoURL string
}

// Clients dispatches OAuth2 flows to the configured providers. Providers
// without credentials are simply absent; requesting one yields
// ErrUnknownProvider.
type Clients struct {
	providers map[string]provider
	client    *http.Client
}

var (
	googleEndpoint = oauth2.Endpoint{
		AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
		TokenURL: "https://oauth2.googleapis.com/token",
	}
	kakaoEndpoint = oauth2.Endpoint{
		AuthURL:  "https://kauth.kakao.com/oauth/authorize",
		TokenURL: "https://kauth.kakao.com/oauth/token",
	}
	naverEndpoint = oauth2.Endpoint{
		AuthURL:  "https://nid.naver.com/oauth2.0/authorize",
		TokenURL: "https://nid.naver.com/oauth2.0/token",
	}
)

// NewClients builds the provider dispatch table from whatever credentials
// are configured. A provider with an empty client id is left out.
func NewClients(google, kakao, naver Credentials) *Clients {
	c := &Clients{
		providers: make(map[string]provider),
		client:    &http.Client{Timeout: 10 * time.Second},
	}

	if google.ClientID != "" {
		c.providers[federation.ProviderGoogle] = provider{
			config: &oauth2.Config{
				ClientID:     google.ClientID,
				ClientSecret: google.ClientSecret,
				RedirectURL:  google.RedirectURL,
				Scopes:       []string{"openid", "email", "profile"},
				Endpoint:     googleEndpoint,
			},
			userInfoURL: "https://www.googleapis.com/oauth2/v3/userinfo",
		}
	}

	if kakao.ClientID != "" {
		c.providers[federation.ProviderKakao] = provider{
			config: &oauth2.Config{
				ClientID:     kakao.ClientID,
				ClientSecret: kakao.ClientSecret,
				RedirectURL:  kakao.RedirectURL,
				Scopes:       []string{"profile_nickname", "account_email"},
				Endpoint:     kakaoEndpoint,
			},
			userInfoURL: "https://kapi.kakao.com/v2/user/me",
		}
	}

	if naver.ClientID != "" {
		c.providers[federation.ProviderNaver] = provider{
			config: &oauth2.Config{
				ClientID:     naver.ClientID,
				ClientSecret: naver.ClientSecret,
				RedirectURL:  naver.RedirectURL,
				Endpoint:     naverEndpoint,
			},
			userInfoURL: "https://openapi.naver.com/v1/nid/me",
		}
	}

	return c
}

// AuthCodeURL builds the provider's authorization redirect URL carrying
// the given anti-forgery state.
func (c *Clients) AuthCodeURL(name, state string) (string, error) {
	p, ok := c.providers[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p.config.AuthCodeURL(state), nil
}

// FetchProfile exchanges the callback code for an access token and
// retrieves the provider's raw profile payload.
func (c *Clients) FetchProfile(ctx context.Context, name, code string) (map[string]any, error) {
	p, ok := c.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.client)

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("oauth: code exchange with %s failed: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	token.SetAuthHeader(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oauth: profile fetch from %s failed: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oauth: profile fetch from %s returned %d", name, resp.StatusCode)
	}

	var attrs map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&attrs); err != nil {
		return nil, fmt.Errorf("oauth: decoding %s profile: %w", name, err)
	}
	return attrs, nil
}
