package http_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/schmeconomics/schmeconomics/pkg/authsdk"
)

func TestSignIn(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	t.Run("success", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/auth/signin", authsdk.SignInRequest{Name: "alice", Password: testPassword})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

		var tok authsdk.TokenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
		require.NotEmpty(t, tok.AccessToken)
		require.Equal(t, "Bearer", tok.TokenType)
		require.Equal(t, 300, tok.ExpiresIn)

		c := refreshCookieOf(t, rec)
		require.True(t, c.HttpOnly)
		require.True(t, c.Secure)
		require.Equal(t, http.SameSiteStrictMode, c.SameSite)
		require.Equal(t, "/", c.Path)
		require.WithinDuration(t, time.Now().Add(7*24*time.Hour), c.Expires, time.Minute)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/auth/signin", authsdk.SignInRequest{Name: "alice", Password: "nope-nope"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "invalid_credentials", decodeError(t, rec).Code)
	})

	t.Run("unknown user looks the same", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/auth/signin", authsdk.SignInRequest{Name: "mallory", Password: testPassword})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "invalid credentials", decodeError(t, rec).Description)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/auth/signin", authsdk.SignInRequest{Name: "alice"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/auth/signin", `{"name":`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSignIn_RateLimitedPerName(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	bad := authsdk.SignInRequest{Name: "alice", Password: "wrong-password"}
	for range 5 {
		require.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/v1/auth/signin", bad).Code)
	}
	rec := env.do(t, http.MethodPost, "/v1/auth/signin", bad)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Another name from the same address is still allowed.
	env.signIn(t, "admin")
}

func TestRefresh(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	_, first := env.signIn(t, "alice")

	rec := env.do(t, http.MethodPost, "/v1/auth/refresh", nil, withRefresh(first.Value))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	second := refreshCookieOf(t, rec)
	require.NotEqual(t, first.Value, second.Value)

	var tok authsdk.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	require.NotEmpty(t, tok.AccessToken)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/v1/users/me", nil, withBearer(tok.AccessToken)).Code)

	// Replaying the superseded token revokes the family.
	rec = env.do(t, http.MethodPost, "/v1/auth/refresh", nil, withRefresh(first.Value))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "refresh token does not match", decodeError(t, rec).Description)

	rec = env.do(t, http.MethodPost, "/v1/auth/refresh", nil, withRefresh(second.Value))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "refresh token is stale", decodeError(t, rec).Description)
}

func TestRefresh_Rejections(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	tests := []struct {
		name       string
		opts       []reqOpt
		wantStatus int
		wantDesc   string
	}{
		{"missing cookie", nil, http.StatusBadRequest, "Refresh token missing"},
		{"malformed", []reqOpt{withRefresh("no-separator")}, http.StatusBadRequest, "malformed refresh token"},
		{"unknown family", []reqOpt{withRefresh("family.token")}, http.StatusNotFound, "refresh token not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/v1/auth/refresh", nil, tt.opts...)
			require.Equal(t, tt.wantStatus, rec.Code)
			require.Equal(t, tt.wantDesc, decodeError(t, rec).Description)
		})
	}
}

func TestSignOut(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	_, cookie := env.signIn(t, "alice")

	rec := env.do(t, http.MethodPost, "/v1/auth/signout", nil, withRefresh(cookie.Value))
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := refreshCookieOf(t, rec)
	require.Empty(t, cleared.Value)
	require.Less(t, cleared.MaxAge, 0)

	rec = env.do(t, http.MethodPost, "/v1/auth/refresh", nil, withRefresh(cookie.Value))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "refresh token is stale", decodeError(t, rec).Description)

	t.Run("without cookie", func(t *testing.T) {
		require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/v1/auth/signout", nil).Code)
	})

	t.Run("garbage cookie", func(t *testing.T) {
		require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/v1/auth/signout", nil, withRefresh("garbage")).Code)
	})
}
