package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type ctxKey struct{}

func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, ctxKey{}, unit)
}

func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(ctxKey{}).(UnitOfWork)
	return unit, ok && unit != nil
}

// Run executes fn inside the unit already bound to ctx, or inside a fresh one
// from factory which is committed when fn succeeds.
func Run[R any](ctx context.Context, factory UoWFactory, opts TxOptions, fn func(ctx context.Context, unit UnitOfWork) (R, error)) (R, error) {
	var zero R
	if unit, ok := FromContext(ctx); ok {
		return fn(ctx, unit)
	}
	if factory == nil {
		return zero, ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return zero, err
	}
	execCtx := Bind(ctx, unit)
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(execCtx)
		}
	}()
	res, err := fn(execCtx, unit)
	if err != nil {
		return zero, err
	}
	if opts.ReadOnly {
		return res, nil
	}
	if err := unit.Commit(execCtx); err != nil {
		return zero, err
	}
	committed = true
	Committed(ctx, execCtx)
	return res, nil
}
