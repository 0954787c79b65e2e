package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/schmeconomics/schmeconomics/internal/auth/domain"
	authhttp "github.com/schmeconomics/schmeconomics/internal/auth/http"
	"github.com/schmeconomics/schmeconomics/internal/auth/service"
	"github.com/schmeconomics/schmeconomics/internal/auth/store"
	"github.com/schmeconomics/schmeconomics/internal/auth/store/drivers/sqlite"
	"github.com/schmeconomics/schmeconomics/pkg/authsdk"
	"github.com/schmeconomics/schmeconomics/pkg/cryptox"
	"github.com/schmeconomics/schmeconomics/pkg/jwtx"
)

const testPassword = "password1"

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain$" + password, nil }

func (plainHasher) Verify(encodedHash, password string) error {
	if encodedHash != "plain$"+password {
		return errors.New("mismatch")
	}
	return nil
}

type testEnv struct {
	router *authhttp.Router
	store  *sqlite.Store
	admin  domain.User
	user   domain.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	st, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "auth.db")))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	sealer, err := cryptox.NewSealer([]byte("test master key"))
	require.NoError(t, err)
	secrets, err := jwtx.NewSecretManager(jwtx.SecretManagerOptions{
		Store: store.NewSecretStoreAdapter(st, sealer),
	})
	require.NoError(t, err)
	tokens, err := jwtx.NewAccessTokenProvider(jwtx.AccessTokenOptions{
		Secrets:  secrets,
		Issuer:   "schmeconomics",
		Audience: "schmeconomics",
	})
	require.NoError(t, err)
	refresh, err := service.NewRefreshTokenService(st, service.RefreshTokenConfig{}, nil)
	require.NoError(t, err)

	users := &service.UserService{Store: st, Hasher: plainHasher{}}
	admin, err := users.CreateUser(ctx, "admin", testPassword, domain.RoleAdmin)
	require.NoError(t, err)
	user, err := users.CreateUser(ctx, "alice", testPassword, domain.RoleUser)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := authhttp.NewRouter(tokens, secrets, "test", st, logger)
	r.AuthService = &service.AuthService{Store: st, Hasher: plainHasher{}, Tokens: tokens, Refresh: refresh}
	r.UserService = users
	r.AccessTokenLifetime = tokens.Lifetime()
	r.ApplyRoutes()

	return &testEnv{router: r, store: st, admin: admin, user: user}
}

type reqOpt func(*http.Request)

func withBearer(token string) reqOpt {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withRefresh(token string) reqOpt {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: authsdk.RefreshTokenCookie, Value: token})
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, opts ...reqOpt) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// signIn returns the access token and refresh cookie for name.
func (e *testEnv) signIn(t *testing.T, name string) (string, *http.Cookie) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/v1/auth/signin", authsdk.SignInRequest{Name: name, Password: testPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tok authsdk.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	return tok.AccessToken, refreshCookieOf(t, rec)
}

func refreshCookieOf(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == authsdk.RefreshTokenCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", authsdk.RefreshTokenCookie)
	return nil
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) authsdk.APIError {
	t.Helper()
	var e authsdk.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e), rec.Body.String())
	return e
}

func decodeUser(t *testing.T, rec *httptest.ResponseRecorder) authsdk.UserResponse {
	t.Helper()
	var u authsdk.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u), rec.Body.String())
	return u
}

