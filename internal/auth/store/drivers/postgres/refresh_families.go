package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/schmeconomics/schmeconomics/internal/auth/domain"
	"github.com/schmeconomics/schmeconomics/internal/auth/store"
)

type refreshFamiliesRepo struct {
	db DBTX
}

func (r *refreshFamiliesRepo) CreateRefreshFamily(ctx context.Context, f domain.RefreshFamily) error {
	query := `
		INSERT INTO refresh_families (
			id, user_id, family_token, active_token, expires_at, revoked_at,
			recent_ip_addresses, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.UserID, f.FamilyToken, nullString(f.ActiveToken), f.ExpiresAt.UTC(), nullTime(f.RevokedAt),
		strings.Join(f.RecentIPAddresses, " "), f.CreatedAt.UTC(), f.UpdatedAt.UTC())
	return mapUniqueViolation(err)
}

func (r *refreshFamiliesRepo) GetRefreshFamilyByFamilyToken(
	ctx context.Context,
	familyToken string,
) (domain.RefreshFamily, error) {
	query := `
		SELECT id, user_id, family_token, active_token, expires_at, revoked_at,
		       recent_ip_addresses, created_at, updated_at
		FROM refresh_families
		WHERE family_token = $1
	`
	var (
		f       domain.RefreshFamily
		active  sql.NullString
		revoked sql.NullTime
		ips     string
	)
	err := r.db.QueryRowContext(ctx, query, familyToken).Scan(
		&f.ID, &f.UserID, &f.FamilyToken, &active, &f.ExpiresAt, &revoked, &ips, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return domain.RefreshFamily{}, mapNotFound(err)
	}
	f.ActiveToken = stringPtr(active)
	f.RevokedAt = timePtr(revoked)
	f.RecentIPAddresses = splitIPs(ips)
	f.ExpiresAt = f.ExpiresAt.UTC()
	f.CreatedAt = f.CreatedAt.UTC()
	f.UpdatedAt = f.UpdatedAt.UTC()
	return f, nil
}

func (r *refreshFamiliesRepo) UpdateRefreshFamily(ctx context.Context, f domain.RefreshFamily) error {
	query := `
		UPDATE refresh_families
		SET active_token = $1, expires_at = $2, revoked_at = $3,
		    recent_ip_addresses = $4, updated_at = $5
		WHERE id = $6
	`
	return mapAffected(r.db.ExecContext(ctx, query,
		nullString(f.ActiveToken), f.ExpiresAt.UTC(), nullTime(f.RevokedAt),
		strings.Join(f.RecentIPAddresses, " "), f.UpdatedAt.UTC(), f.ID))
}

func (r *refreshFamiliesRepo) RotateRefreshFamily(
	ctx context.Context,
	f domain.RefreshFamily,
	previousActive string,
) error {
	query := `
		UPDATE refresh_families
		SET active_token = $1, expires_at = $2, revoked_at = $3,
		    recent_ip_addresses = $4, updated_at = $5
		WHERE id = $6 AND active_token IS NOT DISTINCT FROM $7
	`
	n, err := rowsAffected(r.db.ExecContext(ctx, query,
		nullString(f.ActiveToken), f.ExpiresAt.UTC(), nullTime(f.RevokedAt),
		strings.Join(f.RecentIPAddresses, " "), f.UpdatedAt.UTC(), f.ID, previousActive))
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrConflict
	}
	return nil
}

func (r *refreshFamiliesRepo) RevokeUserRefreshFamilies(ctx context.Context, userID string, at time.Time) (int64, error) {
	query := `
		UPDATE refresh_families
		SET active_token = NULL, revoked_at = $1, updated_at = $1
		WHERE user_id = $2 AND revoked_at IS NULL
	`
	return rowsAffected(r.db.ExecContext(ctx, query, at.UTC(), userID))
}

func (r *refreshFamiliesRepo) DeleteExpiredRefreshFamilies(ctx context.Context, before time.Time) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx, `DELETE FROM refresh_families WHERE expires_at < $1`, before.UTC()))
}
