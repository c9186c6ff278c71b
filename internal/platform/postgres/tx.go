package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	dErrors "hostelcore/pkg/domain-errors"
	"hostelcore/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// pq error codes signalling the transaction lost a race and may be retried.
const (
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

// TxRunner executes closures inside serializable transactions. The open
// *sql.Tx rides the context so every store touched by the closure joins the
// same transaction. Serialization conflicts retry the whole closure up to
// the configured budget, then surface as contention.
type TxRunner struct {
	db         *sql.DB
	maxRetries int
	timeout    time.Duration
	onConflict func()
}

func NewTxRunner(db *sql.DB, maxRetries int) *TxRunner {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &TxRunner{db: db, maxRetries: maxRetries, timeout: defaultTxTimeout}
}

// OnConflict registers a callback invoked once per retried conflict,
// used for metrics.
func (r *TxRunner) OnConflict(fn func()) *TxRunner {
	r.onConflict = fn
	return r
}

func (r *TxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		err := r.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err
		if r.onConflict != nil {
			r.onConflict()
		}
	}
	return dErrors.Wrap(lastErr, dErrors.CodeContention, "transaction retry budget exhausted")
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	sqlTx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(tx.WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func retryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == serializationFailure || pqErr.Code == deadlockDetected
	}
	return false
}
