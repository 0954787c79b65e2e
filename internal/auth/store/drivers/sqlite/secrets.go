package sqlite

import (
	"context"
	"time"

	"github.com/schmeconomics/schmeconomics/internal/auth/domain"
	"github.com/schmeconomics/schmeconomics/internal/auth/store/drivers/sqlite/gen"
)

type secretsRepo struct {
	q *gen.Queries
}

func (r *secretsRepo) CreateSecret(ctx context.Context, s domain.Secret) (int64, error) {
	return r.q.CreateSecret(ctx, gen.CreateSecretParams{
		Secret:    s.Bytes,
		CreatedAt: s.CreatedAt.UTC(),
	})
}

func (r *secretsRepo) ListSecrets(ctx context.Context) ([]domain.Secret, error) {
	rows, err := r.q.ListSecrets(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Secret, len(rows))
	for i, row := range rows {
		out[i] = mapSecret(row)
	}
	return out, nil
}

func (r *secretsRepo) DeleteSecretsCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.q.DeleteSecretsCreatedBefore(ctx, cutoff.UTC())
}

func (r *secretsRepo) CountSecretsCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	return r.q.CountSecretsCreatedSince(ctx, since.UTC())
}

func (r *secretsRepo) OldestSecretCreatedAt(ctx context.Context) (time.Time, error) {
	t, err := r.q.OldestSecretCreatedAt(ctx)
	if err != nil {
		return time.Time{}, mapNotFound(err)
	}
	return t.UTC(), nil
}
