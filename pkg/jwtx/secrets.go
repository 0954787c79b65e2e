package jwtx

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/schmeconomics/schmeconomics/pkg/clockx"
	"github.com/schmeconomics/schmeconomics/pkg/cryptox"
	"github.com/schmeconomics/schmeconomics/pkg/slogx"
)

const (
	// DefaultSecretLifetime is how long a signing secret stays valid.
	DefaultSecretLifetime = 24 * time.Hour

	// DefaultSecretSize is the secret length in bytes.
	DefaultSecretSize = cryptox.TokenSize1024

	// MinSecretSize is 512 bits.
	MinSecretSize = cryptox.TokenSize512
)

var (
	ErrNoSecretEntryFound = errors.New("jwtx: no secret entries found in data source")
	ErrSecretStore        = errors.New("jwtx: secret store error")
	ErrCancelled          = errors.New("jwtx: cancelled")
)

// SecretRecord is a stored HMAC signing secret. It is kept free of the
// domain package so jwtx does not depend on the store.
type SecretRecord struct {
	ID        int64
	Key       []byte
	CreatedAt time.Time
}

// SecretStore persists signing secrets.
type SecretStore interface {
	// RotateSecrets deletes every secret created at or before expiredAt and,
	// when no remaining secret was created at or after freshSince, stores the
	// secret returned by generate. Both steps commit together or not at all.
	// It returns the creation time of the oldest remaining secret; ok is
	// false when the store is empty afterwards.
	RotateSecrets(
		ctx context.Context,
		expiredAt, freshSince time.Time,
		generate func() (SecretRecord, error),
	) (oldest time.Time, ok bool, err error)

	// ListSecrets returns every stored secret, newest first.
	ListSecrets(ctx context.Context) ([]SecretRecord, error)
}

// SecretManagerOptions configures a SecretManager.
type SecretManagerOptions struct {
	Store SecretStore

	// Lifetime of a single secret. A new secret is created once the newest
	// one is older than Lifetime/2, so two generations overlap.
	Lifetime time.Duration

	// SecretSize in bytes, at least MinSecretSize.
	SecretSize int

	Clock clockx.Clock
}

// SecretManager keeps a rotating set of HMAC secrets in a SecretStore. The
// only in-process state is the next time a rotation pass is due; racing
// callers may both rotate, which at worst creates an extra secret.
type SecretManager struct {
	store    SecretStore
	lifetime time.Duration
	size     int
	clock    clockx.Clock

	// unix nanoseconds, 0 forces a pass on the next call
	nextRefresh atomic.Int64
}

// NewSecretManager validates opts and returns a manager. No store access
// happens until the first call to Secrets.
func NewSecretManager(opts SecretManagerOptions) (*SecretManager, error) {
	if opts.Store == nil {
		return nil, errors.New("jwtx: secret store is required")
	}
	if opts.Lifetime <= 0 {
		opts.Lifetime = DefaultSecretLifetime
	}
	if opts.SecretSize == 0 {
		opts.SecretSize = DefaultSecretSize
	}
	if opts.SecretSize < MinSecretSize {
		return nil, fmt.Errorf("jwtx: secret size %d is below the %d byte minimum", opts.SecretSize, MinSecretSize)
	}

	return &SecretManager{
		store:    opts.Store,
		lifetime: opts.Lifetime,
		size:     opts.SecretSize,
		clock:    clockx.OrSystem(opts.Clock),
	}, nil
}

// Lifetime returns the configured secret lifetime.
func (m *SecretManager) Lifetime() time.Duration { return m.lifetime }

// Secrets yields the valid secrets newest first, running a rotation pass
// first when one is due. Iteration stops after the first error. A cancelled
// ctx yields ErrCancelled before the next element.
func (m *SecretManager) Secrets(ctx context.Context) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(nil, cancelled(err))
			return
		}

		if err := m.refreshIfDue(ctx); err != nil {
			yield(nil, err)
			return
		}

		records, err := m.store.ListSecrets(ctx)
		if err != nil {
			yield(nil, storeError(err))
			return
		}

		cutoff := m.clock.Now().Add(-m.lifetime)
		yielded := false
		for _, rec := range records {
			if err := ctx.Err(); err != nil {
				yield(nil, cancelled(err))
				return
			}
			if !rec.CreatedAt.After(cutoff) {
				continue
			}
			yielded = true
			if !yield(rec.Key, nil) {
				return
			}
		}

		if !yielded {
			yield(nil, ErrNoSecretEntryFound)
		}
	}
}

// Current returns the newest valid secret.
func (m *SecretManager) Current(ctx context.Context) ([]byte, error) {
	for key, err := range m.Secrets(ctx) {
		return key, err
	}
	return nil, ErrNoSecretEntryFound
}

// Refresh forces a rotation pass regardless of the cached schedule.
func (m *SecretManager) Refresh(ctx context.Context) error {
	m.nextRefresh.Store(0)
	return m.refreshIfDue(ctx)
}

func (m *SecretManager) refreshIfDue(ctx context.Context) error {
	now := m.clock.Now()
	if next := m.nextRefresh.Load(); next != 0 && now.UnixNano() < next {
		return nil
	}

	created := false
	oldest, ok, err := m.store.RotateSecrets(ctx, now.Add(-m.lifetime), now.Add(-m.lifetime/2),
		func() (SecretRecord, error) {
			key, err := cryptox.RandomBytes(m.size)
			if err != nil {
				return SecretRecord{}, err
			}
			created = true
			return SecretRecord{Key: key, CreatedAt: now}, nil
		},
	)
	if err != nil {
		return storeError(err)
	}
	if !ok {
		return ErrNoSecretEntryFound
	}

	next := oldest.Add(m.lifetime / 2)
	m.nextRefresh.Store(next.UnixNano())

	if created {
		slogx.FromContext(ctx).Info("created signing secret",
			slog.Time("oldest_secret", oldest),
			slog.Time("next_refresh", next),
		)
	}
	return nil
}

func cancelled(err error) error {
	return fmt.Errorf("%w: %w", ErrCancelled, err)
}

func storeError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return cancelled(err)
	}
	return fmt.Errorf("%w: %w", ErrSecretStore, err)
}
