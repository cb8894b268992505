package uow

import (
	"context"
	"errors"
	"sync"
)

// ErrTransient marks a transaction that lost a write conflict. Nothing it did
// is visible; running the whole unit again is safe.
var ErrTransient = errors.New("uow: transient transaction conflict")

type commitHooks struct {
	mu  sync.Mutex
	fns []func(ctx context.Context)
}

type hooksKey struct{}

// AfterCommit defers fn until the unit bound to ctx has committed. It is
// dropped when the unit rolls back. Without a bound unit fn runs at once.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	if h, ok := ctx.Value(hooksKey{}).(*commitHooks); ok {
		h.mu.Lock()
		h.fns = append(h.fns, fn)
		h.mu.Unlock()
		return
	}
	fn(ctx)
}

// Committed runs the hooks registered on execCtx with ctx, outside the
// finished transaction.
func Committed(ctx, execCtx context.Context) {
	h, ok := execCtx.Value(hooksKey{}).(*commitHooks)
	if !ok {
		return
	}
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn(ctx)
	}
}

func withCommitHooks(ctx context.Context) context.Context {
	return context.WithValue(ctx, hooksKey{}, &commitHooks{})
}
