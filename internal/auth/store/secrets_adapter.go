package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/schmeconomics/schmeconomics/internal/auth/domain"
	"github.com/schmeconomics/schmeconomics/pkg/cryptox"
	"github.com/schmeconomics/schmeconomics/pkg/jwtx"
)

// SecretStoreAdapter adapts the store.Store interface to the jwtx.SecretStore
// interface. This allows the jwtx package to work with signing secrets
// without depending on the domain package directly. Secret bytes are sealed
// before they are written and opened when read back.
type SecretStoreAdapter struct {
	store  Store
	sealer *cryptox.Sealer
}

// NewSecretStoreAdapter creates a new adapter that implements jwtx.SecretStore
// using a store.Store.
func NewSecretStoreAdapter(store Store, sealer *cryptox.Sealer) *SecretStoreAdapter {
	return &SecretStoreAdapter{store: store, sealer: sealer}
}

// RotateSecrets runs the delete/create/oldest sequence in one transaction.
func (a *SecretStoreAdapter) RotateSecrets(
	ctx context.Context,
	expiredAt, freshSince time.Time,
	generate func() (jwtx.SecretRecord, error),
) (time.Time, bool, error) {
	var (
		oldest time.Time
		ok     bool
	)
	err := a.store.WithTx(ctx, func(tx Tx) error {
		secrets := tx.Secrets()

		if _, err := secrets.DeleteSecretsCreatedBefore(ctx, expiredAt); err != nil {
			return fmt.Errorf("delete expired secrets: %w", err)
		}

		fresh, err := secrets.CountSecretsCreatedSince(ctx, freshSince)
		if err != nil {
			return fmt.Errorf("count fresh secrets: %w", err)
		}

		if fresh == 0 {
			rec, err := generate()
			if err != nil {
				return fmt.Errorf("generate secret: %w", err)
			}
			sealed, err := a.sealer.Seal(rec.Key)
			if err != nil {
				return fmt.Errorf("seal secret: %w", err)
			}
			if _, err := secrets.CreateSecret(ctx, domain.Secret{
				Bytes:     sealed,
				CreatedAt: rec.CreatedAt,
			}); err != nil {
				return fmt.Errorf("create secret: %w", err)
			}
		}

		oldest, err = secrets.OldestSecretCreatedAt(ctx)
		switch {
		case errors.Is(err, ErrNotFound):
			return nil
		case err != nil:
			return fmt.Errorf("oldest secret: %w", err)
		}
		ok = true
		return nil
	})
	if err != nil {
		return time.Time{}, false, err
	}
	return oldest, ok, nil
}

// ListSecrets returns every secret, newest first, with the key material
// opened.
func (a *SecretStoreAdapter) ListSecrets(ctx context.Context) ([]jwtx.SecretRecord, error) {
	secrets, err := a.store.Secrets().ListSecrets(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]jwtx.SecretRecord, len(secrets))
	for i, s := range secrets {
		key, err := a.sealer.Open(s.Bytes)
		if err != nil {
			return nil, fmt.Errorf("open secret %d: %w", s.ID, err)
		}
		records[i] = jwtx.SecretRecord{
			ID:        s.ID,
			Key:       key,
			CreatedAt: s.CreatedAt,
		}
	}
	return records, nil
}
