package aggregates

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/pillars-backend/internal/platform/dbctx"
)

// TxRunner is the commit boundary for a chat turn: items, memory and
// gamification are written in one transaction or not at all.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

// TxOption tunes a runner.
type TxOption func(*gormTxRunner)

// WithRetries sets how many extra attempts a transaction gets after a
// serialization failure, deadlock or busy SQLite file.
func WithRetries(n int, backoff time.Duration) TxOption {
	return func(r *gormTxRunner) {
		if n >= 0 {
			r.retries = n
		}
		if backoff > 0 {
			r.backoff = backoff
		}
	}
}

type gormTxRunner struct {
	db      *gorm.DB
	retries int
	backoff time.Duration
}

func NewGormTxRunner(db *gorm.DB, opts ...TxOption) TxRunner {
	r := &gormTxRunner{db: db, retries: 2, backoff: 25 * time.Millisecond}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return NewError(CodeInternal, "aggregate.tx", "transaction runner has nil db", nil)
	}
	var err error
	for attempt := 0; ; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(dbctx.Context{Ctx: ctx, Tx: tx})
		})
		if err == nil || attempt >= r.retries || !retryable(ctx, err) {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(r.backoff * time.Duration(attempt+1)):
		}
	}
}

// retryable is true for lock and serialization failures. Caller errors that
// are already classified, and cancellations, are returned as is.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var aggErr *Error
	if errors.As(err, &aggErr) {
		return aggErr.Code == CodeRetryable
	}
	return IsCode(MapError("aggregate.tx", err), CodeRetryable)
}
