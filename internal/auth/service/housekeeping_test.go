package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/schmeconomics/schmeconomics/internal/auth/domain"
	"github.com/schmeconomics/schmeconomics/internal/auth/service"
	"github.com/schmeconomics/schmeconomics/pkg/clockx"
)

func TestHousekeeping_Cleanup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	clock := clockx.NewFake(t0)
	u := seedUser(t, s, "alice", "password1", domain.RoleUser)

	refresh := newRefreshService(t, s, clock, service.RefreshTokenConfig{Lifetime: time.Hour})
	old, err := refresh.CreateNewToken(ctx, u.ID, "1.1.1.1")
	require.NoError(t, err)

	_, err = s.Secrets().CreateSecret(ctx, domain.Secret{Bytes: []byte("old"), CreatedAt: t0})
	require.NoError(t, err)

	clock.Set(t0.Add(48 * time.Hour))
	fresh, err := refresh.CreateNewToken(ctx, u.ID, "1.1.1.1")
	require.NoError(t, err)
	_, err = s.Secrets().CreateSecret(ctx, domain.Secret{Bytes: []byte("new"), CreatedAt: clock.Now()})
	require.NoError(t, err)

	hk := service.NewHousekeepingService(s, slog.New(slog.NewTextHandler(io.Discard, nil)), "", 24*time.Hour, 24*time.Hour)
	hk.Clock = clock
	hk.Cleanup()

	_, err = s.RefreshFamilies().GetRefreshFamilyByFamilyToken(ctx, familyOf(t, old.Token))
	require.Error(t, err, "expired family past retention is reaped")
	_, err = s.RefreshFamilies().GetRefreshFamilyByFamilyToken(ctx, familyOf(t, fresh.Token))
	require.NoError(t, err)

	secrets, err := s.Secrets().ListSecrets(ctx)
	require.NoError(t, err)
	require.Len(t, secrets, 1)
	require.Equal(t, []byte("new"), secrets[0].Bytes)
}

func TestHousekeeping_StartStop(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hk := service.NewHousekeepingService(s, logger, "@every 1h", 0, 0)
	require.Equal(t, service.DefaultFamilyRetention, hk.FamilyRetention)
	require.NoError(t, hk.Start())
	hk.Stop()

	bad := service.NewHousekeepingService(s, logger, "not a schedule", 0, 0)
	require.Error(t, bad.Start())
	bad.Stop()
}
