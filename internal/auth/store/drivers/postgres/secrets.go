package postgres

import (
	"context"
	"time"

	"github.com/schmeconomics/schmeconomics/internal/auth/domain"
)

type secretsRepo struct {
	db DBTX
}

func (r *secretsRepo) CreateSecret(ctx context.Context, s domain.Secret) (int64, error) {
	query := `
		INSERT INTO secrets (secret, created_at)
		VALUES ($1, $2)
		RETURNING id
	`
	var id int64
	if err := r.db.QueryRowContext(ctx, query, s.Bytes, s.CreatedAt.UTC()).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *secretsRepo) ListSecrets(ctx context.Context) ([]domain.Secret, error) {
	query := `
		SELECT id, secret, created_at
		FROM secrets
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Secret
	for rows.Next() {
		var s domain.Secret
		if err := rows.Scan(&s.ID, &s.Bytes, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.CreatedAt = s.CreatedAt.UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *secretsRepo) DeleteSecretsCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx, `DELETE FROM secrets WHERE created_at <= $1`, cutoff.UTC()))
}

func (r *secretsRepo) CountSecretsCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM secrets WHERE created_at >= $1`, since.UTC()).Scan(&n)
	return n, err
}

func (r *secretsRepo) OldestSecretCreatedAt(ctx context.Context) (time.Time, error) {
	var t time.Time
	err := r.db.QueryRowContext(ctx, `SELECT created_at FROM secrets ORDER BY created_at ASC, id ASC LIMIT 1`).Scan(&t)
	if err != nil {
		return time.Time{}, mapNotFound(err)
	}
	return t.UTC(), nil
}
