package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/schmeconomics/schmeconomics/internal/auth/service"
	"github.com/schmeconomics/schmeconomics/pkg/authsdk"
	"github.com/schmeconomics/schmeconomics/pkg/httpx"
)

// AuthHandler serves sign-in, sign-out and refresh.
type AuthHandler struct {
	Auth                *service.AuthService
	AccessTokenLifetime time.Duration
	TrustProxyHeaders   bool
}

// HandleSignIn godoc
//
//	@Summary		Sign in
//	@Description	Verifies name and password, returns an access token and sets the refreshToken cookie.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.SignInRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.TokenResponse
//	@Failure		400		{object}	httpx.APIError
//	@Failure		401		{object}	httpx.APIError
//	@Failure		429		{object}	httpx.APIError
//	@Router			/v1/auth/signin [post]
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SignInRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.ErrBadRequest.WithDescription("invalid JSON body").WriteError(w)
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.Password == "" {
		httpx.ErrBadRequest.WithDescription("name and password are required").WriteError(w)
		return
	}

	ip := httpx.ClientIP(r, h.TrustProxyHeaders)
	res, err := h.Auth.SignIn(r.Context(), req.Name, req.Password, ip)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	setRefreshCookie(w, res.RefreshToken, res.ExpiresAt)
	httpx.WriteJSON(w, http.StatusOK, h.tokenResponse(res.AccessToken))
}

// HandleSignOut godoc
//
//	@Summary		Sign out
//	@Description	Revokes the session of the refreshToken cookie, if any, and clears the cookie.
//	@Tags			Auth
//	@Success		200
//	@Failure		500	{object}	httpx.APIError
//	@Router			/v1/auth/signout [post]
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(authsdk.RefreshTokenCookie); err == nil && c.Value != "" {
		ip := httpx.ClientIP(r, h.TrustProxyHeaders)
		if err := h.Auth.SignOut(r.Context(), c.Value, ip); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}

	clearRefreshCookie(w)
	httpx.NoCache(w)
	w.WriteHeader(http.StatusOK)
}

// HandleRefresh godoc
//
//	@Summary		Refresh tokens
//	@Description	Rotates the refreshToken cookie and returns a new access token.
//	@Description	Presenting a superseded refresh token revokes the whole session.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.TokenResponse
//	@Failure		400	{object}	httpx.APIError
//	@Failure		404	{object}	httpx.APIError
//	@Failure		500	{object}	httpx.APIError
//	@Router			/v1/auth/refresh [post]
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(authsdk.RefreshTokenCookie)
	if err != nil || c.Value == "" {
		httpx.ErrBadRequest.WithDescription("Refresh token missing").WriteError(w)
		return
	}

	ip := httpx.ClientIP(r, h.TrustProxyHeaders)
	res, err := h.Auth.RefreshToken(r.Context(), ip, c.Value)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	setRefreshCookie(w, res.RefreshToken, res.ExpiresAt)
	httpx.WriteJSON(w, http.StatusOK, h.tokenResponse(res.AccessToken))
}

func (h *AuthHandler) tokenResponse(access string) authsdk.TokenResponse {
	return authsdk.TokenResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.AccessTokenLifetime.Seconds()),
	}
}

func setRefreshCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     authsdk.RefreshTokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     authsdk.RefreshTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
