package sqlite

import (
	"context"
	"database/sql"

	"github.com/schmeconomics/schmeconomics/internal/auth/store"
	"github.com/schmeconomics/schmeconomics/internal/auth/store/drivers/sqlite/gen"
)

// txStore runs every repo against one *sql.Tx. The owner of the
// transaction commits or rolls it back.
type txStore struct {
	tx *sql.Tx
	q  *gen.Queries
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx, q: gen.New(tx)}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error                   { return nil }
func (t *txStore) Ping(ctx context.Context) error { return nil }
func (t *txStore) ApplyMigrations() error         { return nil }

// Tx refuses to open a second transaction on the same connection.
func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, sql.ErrTxDone
}

// WithTx joins the enclosing transaction. fn's error propagates so the
// outer WithTx rolls everything back.
func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return fn(t)
}

func (t *txStore) Users() store.Users                     { return &usersRepo{q: t.q} }
func (t *txStore) Secrets() store.Secrets                 { return &secretsRepo{q: t.q} }
func (t *txStore) RefreshFamilies() store.RefreshFamilies { return &refreshFamiliesRepo{q: t.q} }
