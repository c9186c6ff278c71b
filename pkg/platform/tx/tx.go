// Package tx carries an open SQL transaction through context so that every
// store touched by one engine operation joins the same transaction, and
// defines the Runner boundary services mutate through.
package tx

import (
	"context"
	"database/sql"
	"sync"
	"time"

	dErrors "hostelcore/pkg/domain-errors"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Runner provides a transactional boundary for engine mutations.
// Implementations wrap a database transaction or, in-memory, a coarse lock.
// Either the whole closure commits or none of its writes survive.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// defaultMutexTimeout bounds how long an in-memory transaction may hold the lock.
const defaultMutexTimeout = 5 * time.Second

// MutexRunner serializes transactions with a single mutex. It backs unit
// tests and database-less runs; concurrent callers observe the same
// one-at-a-time semantics the serializable SQL runner provides.
type MutexRunner struct {
	mu      sync.Mutex
	timeout time.Duration
}

func NewMutexRunner() *MutexRunner {
	return &MutexRunner{timeout: defaultMutexTimeout}
}

func (r *MutexRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}
