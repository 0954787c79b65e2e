package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/schmeconomics/schmeconomics/internal/auth/domain"
	"github.com/schmeconomics/schmeconomics/internal/auth/store"
	"github.com/schmeconomics/schmeconomics/internal/auth/store/drivers/sqlite"
	"github.com/schmeconomics/schmeconomics/pkg/idx"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "auth.db")))
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUser(t *testing.T, s store.Store, name string) domain.User {
	t.Helper()
	u := domain.User{
		ID:           idx.New().String(),
		Name:         name,
		Role:         domain.RoleUser,
		PasswordHash: "hash",
		CreatedAt:    t0,
		UpdatedAt:    t0,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func TestApplyMigrationsIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	empty, err := s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	u := seedUser(t, s, "alice")

	t.Run("get by id and name", func(t *testing.T) {
		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u, got)

		got, err = s.Users().GetUserByName(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := s.Users().GetUserByName(ctx, "nobody")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate name", func(t *testing.T) {
		dup := u
		dup.ID = idx.New().String()
		err := s.Users().CreateUser(ctx, dup)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("update", func(t *testing.T) {
		upd := u
		upd.Name = "alice2"
		upd.Role = domain.RoleAdmin
		upd.UpdatedAt = t0.Add(time.Minute)
		require.NoError(t, s.Users().UpdateUser(ctx, upd))

		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "alice2", got.Name)
		require.Equal(t, domain.RoleAdmin, got.Role)
		require.Equal(t, t0.Add(time.Minute), got.UpdatedAt)
	})

	t.Run("update missing", func(t *testing.T) {
		err := s.Users().UpdateUser(ctx, domain.User{ID: "missing", Name: "x", Role: domain.RoleUser})
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		v := seedUser(t, s, "victim")
		require.NoError(t, s.Users().DeleteUser(ctx, v.ID))
		require.ErrorIs(t, s.Users().DeleteUser(ctx, v.ID), store.ErrNotFound)
	})
}

func TestSecrets(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	repo := s.Secrets()

	_, err := repo.OldestSecretCreatedAt(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)

	for i, at := range []time.Time{t0, t0.Add(150 * time.Millisecond), t0.Add(time.Hour)} {
		id, err := repo.CreateSecret(ctx, domain.Secret{Bytes: []byte{byte(i)}, CreatedAt: at})
		require.NoError(t, err)
		require.Equal(t, int64(i+1), id)
	}

	list, err := repo.ListSecrets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, []byte{2}, list[0].Bytes, "newest first")
	require.Equal(t, t0, list[2].CreatedAt)

	oldest, err := repo.OldestSecretCreatedAt(ctx)
	require.NoError(t, err)
	require.Equal(t, t0, oldest)

	n, err := repo.CountSecretsCreatedSince(ctx, t0.Add(150*time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	deleted, err := repo.DeleteSecretsCreatedBefore(ctx, t0.Add(150*time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)

	oldest, err = repo.OldestSecretCreatedAt(ctx)
	require.NoError(t, err)
	require.Equal(t, t0.Add(time.Hour), oldest)
}

func newFamily(userID string) domain.RefreshFamily {
	active := "active-" + idx.New().String()
	return domain.RefreshFamily{
		ID:                idx.New().String(),
		UserID:            userID,
		FamilyToken:       "family-" + idx.New().String(),
		ActiveToken:       &active,
		ExpiresAt:         t0.Add(7 * 24 * time.Hour),
		RecentIPAddresses: []string{"1.1.1.1"},
		CreatedAt:         t0,
		UpdatedAt:         t0,
	}
}

func TestRefreshFamilies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	repo := s.RefreshFamilies()
	u := seedUser(t, s, "bob")

	t.Run("create and get", func(t *testing.T) {
		f := newFamily(u.ID)
		require.NoError(t, repo.CreateRefreshFamily(ctx, f))

		got, err := repo.GetRefreshFamilyByFamilyToken(ctx, f.FamilyToken)
		require.NoError(t, err)
		require.Equal(t, f, got)

		_, err = repo.GetRefreshFamilyByFamilyToken(ctx, "nope")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("rotate compares previous active token", func(t *testing.T) {
		f := newFamily(u.ID)
		require.NoError(t, repo.CreateRefreshFamily(ctx, f))
		prev := *f.ActiveToken

		next := "next"
		f.ActiveToken = &next
		f.RecentIPAddresses = append(f.RecentIPAddresses, "2.2.2.2")
		f.UpdatedAt = t0.Add(time.Minute)
		require.NoError(t, repo.RotateRefreshFamily(ctx, f, prev))

		err := repo.RotateRefreshFamily(ctx, f, prev)
		require.ErrorIs(t, err, store.ErrConflict)

		got, err := repo.GetRefreshFamilyByFamilyToken(ctx, f.FamilyToken)
		require.NoError(t, err)
		require.Equal(t, "next", *got.ActiveToken)
		require.Equal(t, []string{"1.1.1.1", "2.2.2.2"}, got.RecentIPAddresses)
	})

	t.Run("update revokes", func(t *testing.T) {
		f := newFamily(u.ID)
		require.NoError(t, repo.CreateRefreshFamily(ctx, f))

		f.Revoke(t0.Add(time.Hour))
		require.NoError(t, repo.UpdateRefreshFamily(ctx, f))

		got, err := repo.GetRefreshFamilyByFamilyToken(ctx, f.FamilyToken)
		require.NoError(t, err)
		require.Nil(t, got.ActiveToken)
		require.NotNil(t, got.RevokedAt)
		require.Equal(t, t0.Add(time.Hour), *got.RevokedAt)
	})

	t.Run("revoke all for user", func(t *testing.T) {
		other := seedUser(t, s, "carol")
		for range 3 {
			require.NoError(t, repo.CreateRefreshFamily(ctx, newFamily(other.ID)))
		}
		n, err := repo.RevokeUserRefreshFamilies(ctx, other.ID, t0)
		require.NoError(t, err)
		require.Equal(t, int64(3), n)

		n, err = repo.RevokeUserRefreshFamilies(ctx, other.ID, t0)
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("delete expired", func(t *testing.T) {
		other := seedUser(t, s, "dave")
		old := newFamily(other.ID)
		old.ExpiresAt = t0.Add(-time.Hour)
		require.NoError(t, repo.CreateRefreshFamily(ctx, old))

		n, err := repo.DeleteExpiredRefreshFamilies(ctx, t0)
		require.NoError(t, err)
		require.Equal(t, int64(1), n)
	})

	t.Run("cascade on user delete", func(t *testing.T) {
		other := seedUser(t, s, "erin")
		f := newFamily(other.ID)
		require.NoError(t, repo.CreateRefreshFamily(ctx, f))
		require.NoError(t, s.Users().DeleteUser(ctx, other.ID))

		_, err := repo.GetRefreshFamilyByFamilyToken(ctx, f.FamilyToken)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestWithTx(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		seedUser(t, tx, "rolled-back")
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Users().GetUserByName(ctx, "rolled-back")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		seedUser(t, tx, "committed")
		_, err := tx.Tx(ctx)
		require.ErrorIs(t, err, sql.ErrTxDone)

		// nested WithTx joins the outer transaction
		return tx.WithTx(ctx, func(inner store.Tx) error {
			seedUser(t, inner, "nested")
			return nil
		})
	}))

	_, err = s.Users().GetUserByName(ctx, "committed")
	require.NoError(t, err)
	_, err = s.Users().GetUserByName(ctx, "nested")
	require.NoError(t, err)

	err = s.WithTx(ctx, func(tx store.Tx) error {
		seedUser(t, tx, "outer")
		return tx.WithTx(ctx, func(store.Tx) error { return boom })
	})
	require.ErrorIs(t, err, boom)
	_, err = s.Users().GetUserByName(ctx, "outer")
	require.ErrorIs(t, err, store.ErrNotFound)
}
