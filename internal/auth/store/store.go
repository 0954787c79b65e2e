package store

import (
	"context"
	"errors"
	"time"

	"github.com/schmeconomics/schmeconomics/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict is returned by conditional updates whose precondition no
	// longer holds.
	ErrConflict = errors.New("store: conflict")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and so a Tx-scoped store cannot start a second transaction.
type Store interface {
	Users() Users
	Secrets() Secrets
	RefreshFamilies() RefreshFamilies

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByName is used during sign-in. Names are unique.
	GetUserByName(ctx context.Context, name string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the name is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUser writes name, role and password hash and bumps updated_at.
	UpdateUser(ctx context.Context, u domain.User) error

	// DeleteUser cascades to refresh_families (per schema).
	DeleteUser(ctx context.Context, id string) error

	IsEmpty(ctx context.Context) (bool, error)
}

type Secrets interface {
	// CreateSecret stores a secret and returns its sequence id.
	CreateSecret(ctx context.Context, s domain.Secret) (int64, error)

	// ListSecrets returns every secret, newest first.
	ListSecrets(ctx context.Context) ([]domain.Secret, error)

	// DeleteSecretsCreatedBefore removes secrets created at or before cutoff.
	DeleteSecretsCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// CountSecretsCreatedSince counts secrets created at or after since.
	CountSecretsCreatedSince(ctx context.Context, since time.Time) (int64, error)

	// OldestSecretCreatedAt returns ErrNotFound when there are no secrets.
	OldestSecretCreatedAt(ctx context.Context) (time.Time, error)
}

type RefreshFamilies interface {
	CreateRefreshFamily(ctx context.Context, f domain.RefreshFamily) error

	GetRefreshFamilyByFamilyToken(ctx context.Context, familyToken string) (domain.RefreshFamily, error)

	// UpdateRefreshFamily writes the mutable columns unconditionally.
	UpdateRefreshFamily(ctx context.Context, f domain.RefreshFamily) error

	// RotateRefreshFamily writes the mutable columns only while the stored
	// active token still equals previousActive. Returns ErrConflict otherwise.
	RotateRefreshFamily(ctx context.Context, f domain.RefreshFamily, previousActive string) error

	// RevokeUserRefreshFamilies revokes every usable family of a user.
	RevokeUserRefreshFamilies(ctx context.Context, userID string, at time.Time) (int64, error)

	// DeleteExpiredRefreshFamilies removes families that expired before the
	// given time.
	DeleteExpiredRefreshFamilies(ctx context.Context, before time.Time) (int64, error)
}
