package auth_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/schmeconomics/schmeconomics/pkg/authsdk"
)

// TestPostgresBackend runs the core flow against the postgres driver.
func TestPostgresBackend(t *testing.T) {
	baseURL := setupAuthWithPostgres(t)
	client := authsdk.NewSDKClient(baseURL)

	health, err := client.Readyz(t.Context())
	assertHealthy(t, health, err)

	session := signInAdmin(t, client)
	old := session.RefreshToken()
	require.NoError(t, session.Refresh(t.Context()))
	require.NotEqual(t, old, session.RefreshToken())

	_, _, err = client.Refresh(t.Context(), old)
	requireStatus(t, err, http.StatusBadRequest)

	require.NoError(t, session.SignOut(t.Context()))
}
