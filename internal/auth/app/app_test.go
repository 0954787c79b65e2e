package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/schmeconomics/schmeconomics/pkg/authsdk"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Database.File = filepath.Join(dir, "auth.db")
	cfg.Secrets.PepperFile = filepath.Join(dir, "pepper")
	cfg.Secrets.MasterKey = "test-master-key"
	cfg.Bootstrap.AdminName = "root"
	cfg.Bootstrap.AdminPassword = "correct-horse"
	cfg.Log.Level = "error"
	return cfg
}

func signIn(t *testing.T, h http.Handler, name, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(authsdk.SignInRequest{Name: name, Password: password})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/signin", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNew_BootstrapsAdminAndServes(t *testing.T) {
	cfg := testConfig(t)

	application, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.db.Close() })

	rec := signIn(t, application.Handler(), "root", "correct-horse")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tok authsdk.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	require.NotEmpty(t, tok.AccessToken)
	require.Equal(t, int(cfg.Tokens.Lifetime.Seconds()), tok.ExpiresIn)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	me := httptest.NewRecorder()
	application.Handler().ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code, me.Body.String())

	var user authsdk.UserResponse
	require.NoError(t, json.Unmarshal(me.Body.Bytes(), &user))
	require.Equal(t, "root", user.Name)
	require.Equal(t, "Admin", user.Role)
}

func TestNew_ReopensWithoutRebootstrap(t *testing.T) {
	cfg := testConfig(t)

	first, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, first.db.Close())

	// a different configured password must not replace the stored admin
	cfg.Bootstrap.AdminPassword = "another-password"
	second, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.db.Close() })

	require.Equal(t, http.StatusOK, signIn(t, second.Handler(), "root", "correct-horse").Code)
	require.Equal(t, http.StatusUnauthorized, signIn(t, second.Handler(), "root", "another-password").Code)
}

func TestNew_GeneratedAdminPassword(t *testing.T) {
	cfg := testConfig(t)
	cfg.Bootstrap.AdminPassword = ""

	application, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.db.Close() })

	ok, err := application.bootstrapService.IsBootstrapped(t.Context())
	require.NoError(t, err)
	require.True(t, ok)
}

func TestNew_InvalidBootstrapAdmin(t *testing.T) {
	cfg := testConfig(t)
	cfg.Bootstrap.AdminPassword = "short"

	_, err := New(cfg)
	require.Error(t, err)
}
