package transition

import (
	"context"
	"sync"
	"time"

	dErrors "trustbase/pkg/domain-errors"
)

// defaultTxTimeout is the maximum duration for one transition unit.
const defaultTxTimeout = 5 * time.Second

// SerialTx runs each unit under one process-wide mutex. The chain append is
// a global serialization point anyway, so in-memory mode gains nothing from
// finer locking; serializing the whole unit also makes it atomic with
// respect to other units without rollback support.
type SerialTx struct {
	mu      sync.Mutex
	timeout time.Duration
}

func NewSerialTx() *SerialTx {
	return &SerialTx{}
}

func (t *SerialTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}
