package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/schmeconomics/schmeconomics/internal/auth/domain"
	"github.com/schmeconomics/schmeconomics/internal/auth/store"
	"github.com/schmeconomics/schmeconomics/internal/auth/store/drivers/sqlite/gen"
)

type refreshFamiliesRepo struct {
	q *gen.Queries
}

func (r *refreshFamiliesRepo) CreateRefreshFamily(ctx context.Context, f domain.RefreshFamily) error {
	err := r.q.CreateRefreshFamily(ctx, gen.CreateRefreshFamilyParams{
		ID:                f.ID,
		UserID:            f.UserID,
		FamilyToken:       f.FamilyToken,
		ActiveToken:       mapOptionalString(f.ActiveToken),
		ExpiresAt:         f.ExpiresAt.UTC(),
		RevokedAt:         mapOptionalTime(f.RevokedAt),
		RecentIpAddresses: joinIPs(f.RecentIPAddresses),
		CreatedAt:         f.CreatedAt.UTC(),
		UpdatedAt:         f.UpdatedAt.UTC(),
	})
	return mapUniqueViolation(err)
}

func (r *refreshFamiliesRepo) GetRefreshFamilyByFamilyToken(
	ctx context.Context,
	familyToken string,
) (domain.RefreshFamily, error) {
	row, err := r.q.GetRefreshFamilyByFamilyToken(ctx, familyToken)
	if err != nil {
		return domain.RefreshFamily{}, mapNotFound(err)
	}
	return mapRefreshFamily(row), nil
}

func (r *refreshFamiliesRepo) UpdateRefreshFamily(ctx context.Context, f domain.RefreshFamily) error {
	return mapAffected(r.q.UpdateRefreshFamily(ctx, gen.UpdateRefreshFamilyParams{
		ActiveToken:       mapOptionalString(f.ActiveToken),
		ExpiresAt:         f.ExpiresAt.UTC(),
		RevokedAt:         mapOptionalTime(f.RevokedAt),
		RecentIpAddresses: joinIPs(f.RecentIPAddresses),
		UpdatedAt:         f.UpdatedAt.UTC(),
		ID:                f.ID,
	}))
}

func (r *refreshFamiliesRepo) RotateRefreshFamily(
	ctx context.Context,
	f domain.RefreshFamily,
	previousActive string,
) error {
	n, err := r.q.RotateRefreshFamily(ctx, gen.RotateRefreshFamilyParams{
		ActiveToken:       mapOptionalString(f.ActiveToken),
		ExpiresAt:         f.ExpiresAt.UTC(),
		RevokedAt:         mapOptionalTime(f.RevokedAt),
		RecentIpAddresses: joinIPs(f.RecentIPAddresses),
		UpdatedAt:         f.UpdatedAt.UTC(),
		ID:                f.ID,
		PreviousActive:    sql.NullString{String: previousActive, Valid: true},
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrConflict
	}
	return nil
}

func (r *refreshFamiliesRepo) RevokeUserRefreshFamilies(ctx context.Context, userID string, at time.Time) (int64, error) {
	return r.q.RevokeUserRefreshFamilies(ctx, gen.RevokeUserRefreshFamiliesParams{
		RevokedAt: sql.NullTime{Time: at.UTC(), Valid: true},
		UserID:    userID,
	})
}

func (r *refreshFamiliesRepo) DeleteExpiredRefreshFamilies(ctx context.Context, before time.Time) (int64, error) {
	return r.q.DeleteExpiredRefreshFamilies(ctx, before.UTC())
}
