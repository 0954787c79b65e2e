package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/schmeconomics/schmeconomics/internal/auth/domain"
	"github.com/schmeconomics/schmeconomics/internal/auth/service"
	"github.com/schmeconomics/schmeconomics/internal/auth/store"
	"github.com/schmeconomics/schmeconomics/internal/auth/store/drivers/sqlite"
	"github.com/schmeconomics/schmeconomics/pkg/clockx"
	"github.com/schmeconomics/schmeconomics/pkg/idx"
	"github.com/schmeconomics/schmeconomics/pkg/jwtx"
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

// plainHasher stores passwords with a prefix so tests stay fast.
type plainHasher struct{}

var errMismatch = errors.New("mismatch")

func (plainHasher) Hash(password string) (string, error) { return "plain$" + password, nil }

func (plainHasher) Verify(encodedHash, password string) error {
	if encodedHash != "plain$"+password {
		return errMismatch
	}
	return nil
}

func seedUser(t *testing.T, s store.Store, name, password string, role domain.Role) domain.User {
	t.Helper()
	hash, _ := plainHasher{}.Hash(password)
	u := domain.User{
		ID:           idx.New().String(),
		Name:         name,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    t0,
		UpdatedAt:    t0,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func newRefreshService(t *testing.T, s store.Store, clock clockx.Clock, cfg service.RefreshTokenConfig) *service.RefreshTokenService {
	t.Helper()
	svc, err := service.NewRefreshTokenService(s, cfg, clock)
	require.NoError(t, err)
	return svc
}

// memSecretStore keeps secrets in memory for token tests.
type memSecretStore struct {
	mu      sync.Mutex
	records []jwtx.SecretRecord
}

func (m *memSecretStore) RotateSecrets(
	_ context.Context,
	expiredAt, freshSince time.Time,
	generate func() (jwtx.SecretRecord, error),
) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[:0]
	fresh := false
	for _, r := range m.records {
		if r.CreatedAt.After(expiredAt) {
			kept = append(kept, r)
			fresh = fresh || !r.CreatedAt.Before(freshSince)
		}
	}
	m.records = kept
	if !fresh {
		rec, err := generate()
		if err != nil {
			return time.Time{}, false, err
		}
		m.records = append([]jwtx.SecretRecord{rec}, m.records...)
	}
	if len(m.records) == 0 {
		return time.Time{}, false, nil
	}
	return m.records[len(m.records)-1].CreatedAt, true, nil
}

func (m *memSecretStore) ListSecrets(context.Context) ([]jwtx.SecretRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.records), nil
}
