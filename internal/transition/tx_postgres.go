package transition

import (
	"context"
	"database/sql"
	"time"

	dErrors "trustbase/pkg/domain-errors"
	txcontext "trustbase/pkg/platform/tx"
)

const defaultPostgresTxTimeout = 5 * time.Second

// PostgresTx runs each transition unit inside one database transaction. The
// *sql.Tx travels in the context so every store touched by the unit
// participates in it, and the chain's tail lock plus the previous_hash
// uniqueness constraint serialize concurrent appends.
type PostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresTx(db *sql.DB) *PostgresTx {
	return &PostgresTx{db: db}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultPostgresTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	return tx.Commit()
}
