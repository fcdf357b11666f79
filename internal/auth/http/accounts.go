package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/meongtory/auth/internal/auth/service"
	"github.com/meongtory/auth/pkg/httpx"
	"github.com/meongtory/auth/pkg/slogx"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type accountResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type loginResponse struct {
	ID           int64  `json:"id"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
}

type AccountsHandler struct {
	Accounts *service.AccountService
	Tokens   *service.TokenService
}

func (h *AccountsHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email, password and name are required")
		return
	}

	account, err := h.Accounts.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			httpx.WriteError(w, http.StatusConflict, "email_taken", "an account with this email already exists")
			return
		}
		slogx.FromContext(r.Context()).Error("registration failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not create account")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, accountResponse{
		ID:    account.ID,
		Email: account.Email,
		Name:  account.Name,
		Role:  account.Role,
	})
}

func (h *AccountsHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	account, pair, err := h.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrBadCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized, "bad_credentials", "email or password is incorrect")
			return
		}
		slogx.FromContext(r.Context()).Error("login failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not log in")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		ID:           account.ID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Email:        account.Email,
		Name:         account.Name,
		Role:         account.Role,
	})
}

// HandleLogout clears the caller's refresh token slot. Requires an
// authenticated identity on the context.
func (h *AccountsHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	email, _ := r.Context().Value(httpx.CtxKeyEmail).(string)

	if err := h.Accounts.Logout(r.Context(), email); err != nil {
		slogx.FromContext(r.Context()).Error("logout failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not log out")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// HandleRefresh exchanges a still-active refresh token for a new access
// token. The refresh token may arrive in the body or in the
// Refresh_Token header.
func (h *AccountsHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	token := req.RefreshToken
	if token == "" {
		token = r.Header.Get(HeaderRefreshToken)
	}
	if token == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "refresh token is required")
		return
	}

	pair, err := h.Tokens.Refresh(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRefresh):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_refresh_token", "refresh token is invalid, expired or no longer active")
		case errors.Is(err, service.ErrUnknownAccount):
			httpx.WriteError(w, http.StatusUnauthorized, "unknown_account", "no account for this session")
		default:
			slogx.FromContext(r.Context()).Error("refresh failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not refresh session")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}

func (h *AccountsHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	email, _ := r.Context().Value(httpx.CtxKeyEmail).(string)

	account, err := h.Accounts.UserInfo(r.Context(), email)
	if err != nil {
		if errors.Is(err, service.ErrUnknownAccount) {
			httpx.WriteError(w, http.StatusUnauthorized, "unknown_account", "no account for this session")
			return
		}
		slogx.FromContext(r.Context()).Error("profile lookup failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not load profile")
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, accountResponse{
		ID:    account.ID,
		Email: account.Email,
		Name:  account.Name,
		Role:  account.Role,
	})
}
