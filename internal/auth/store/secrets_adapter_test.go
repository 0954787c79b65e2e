package store_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/schmeconomics/schmeconomics/internal/auth/store"
	"github.com/schmeconomics/schmeconomics/internal/auth/store/drivers/sqlite"
	"github.com/schmeconomics/schmeconomics/pkg/clockx"
	"github.com/schmeconomics/schmeconomics/pkg/cryptox"
	"github.com/schmeconomics/schmeconomics/pkg/jwtx"
)

func newAdapter(t *testing.T) (*sqlite.Store, *store.SecretStoreAdapter) {
	t.Helper()
	s, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "auth.db")))
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })

	sealer, err := cryptox.NewSealer([]byte("test-master-key"))
	require.NoError(t, err)
	return s, store.NewSecretStoreAdapter(s, sealer)
}

func TestSecretStoreAdapter_SealsAtRest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, adapter := newAdapter(t)

	key := bytes.Repeat([]byte{0x42}, 64)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	oldest, ok, err := adapter.RotateSecrets(ctx, now.Add(-time.Hour), now.Add(-30*time.Minute),
		func() (jwtx.SecretRecord, error) {
			return jwtx.SecretRecord{Key: key, CreatedAt: now}, nil
		})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, now, oldest)

	raw, err := s.Secrets().ListSecrets(ctx)
	require.NoError(t, err)
	require.Len(t, raw, 1)
	require.NotEqual(t, key, raw[0].Bytes)

	records, err := adapter.ListSecrets(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, key, records[0].Key)
}

func TestSecretStoreAdapter_RotationScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, adapter := newAdapter(t)

	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := clockx.NewFake(t0)
	m, err := jwtx.NewSecretManager(jwtx.SecretManagerOptions{
		Store:    adapter,
		Lifetime: 200 * time.Millisecond,
		Clock:    clock,
	})
	require.NoError(t, err)

	count := func() int {
		n := 0
		for _, err := range m.Secrets(ctx) {
			require.NoError(t, err)
			n++
		}
		return n
	}

	require.Equal(t, 1, count())

	clock.Set(t0.Add(150 * time.Millisecond))
	require.Equal(t, 2, count())

	clock.Set(t0.Add(225 * time.Millisecond))
	require.Equal(t, 1, count())

	raw, err := s.Secrets().ListSecrets(ctx)
	require.NoError(t, err)
	require.Len(t, raw, 1)
	require.Equal(t, t0.Add(150*time.Millisecond), raw[0].CreatedAt)
}

func TestSecretStoreAdapter_WrongMasterKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, adapter := newAdapter(t)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	_, _, err := adapter.RotateSecrets(ctx, now.Add(-time.Hour), now, func() (jwtx.SecretRecord, error) {
		return jwtx.SecretRecord{Key: []byte("k"), CreatedAt: now}, nil
	})
	require.NoError(t, err)

	other, err := cryptox.NewSealer([]byte("another-key"))
	require.NoError(t, err)
	_, err = store.NewSecretStoreAdapter(s, other).ListSecrets(ctx)
	require.Error(t, err)
}
