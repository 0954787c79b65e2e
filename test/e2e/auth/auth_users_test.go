package auth_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/schmeconomics/schmeconomics/pkg/authsdk"
)

func ptr[T any](v T) *T { return &v }

func TestUserManagement(t *testing.T) {
	baseURL := setupAuthContainer(t)
	client := authsdk.NewSDKClient(baseURL)
	admin := signInAdmin(t, client)

	created, err := admin.CreateUser(t.Context(), authsdk.CreateUserRequest{
		Name:     "alice",
		Password: "alice-password",
	})
	require.NoError(t, err)
	require.Equal(t, "alice", created.Name)
	require.Equal(t, "User", created.Role)

	_, err = admin.CreateUser(t.Context(), authsdk.CreateUserRequest{Name: "alice", Password: "alice-password"})
	requireStatus(t, err, http.StatusConflict)

	alice, err := client.SignIn(t.Context(), "alice", "alice-password")
	require.NoError(t, err)

	byName, err := alice.GetUserByName(t.Context(), "alice")
	require.NoError(t, err)
	require.Equal(t, created.ID, byName.ID)

	// users cannot administer others
	_, err = alice.CreateUser(t.Context(), authsdk.CreateUserRequest{Name: "mallory", Password: "mallory-password"})
	requireStatus(t, err, http.StatusForbidden)

	_, err = alice.UpdateUser(t.Context(), authsdk.UpdateUserRequest{
		UserID: ptr(byName.ID),
		Name:   ptr("alicia"),
	})
	require.NoError(t, err)

	// an admin password reset revokes alice's refresh tokens
	_, err = admin.UpdateUser(t.Context(), authsdk.UpdateUserRequest{
		UserID:   ptr(created.ID),
		Password: ptr("reset-password"),
	})
	require.NoError(t, err)

	err = alice.Refresh(t.Context())
	requireStatus(t, err, http.StatusBadRequest)

	_, err = admin.DeleteUser(t.Context(), created.ID)
	require.NoError(t, err)

	_, err = admin.GetUser(t.Context(), created.ID)
	requireStatus(t, err, http.StatusNotFound)
}
