package middleware

import (
	"context"
	"errors"

	"apexrentals/internal/app/commands"
	"apexrentals/internal/app/uow"
)

type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// TransactionAttempts bounds how often a command is re-run after losing a
// write conflict.
const TransactionAttempts = 3

// Transaction runs every command inside a unit of work that is committed only
// when the handler succeeds. A unit that fails with uow.ErrTransient is rolled
// back and the command runs again in a fresh unit. Hooks registered with
// uow.AfterCommit run once the commit succeeded.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			opts := uow.TxOptions{}
			if optsProvider != nil {
				opts = optsProvider(cmd)
			}
			var (
				res any
				err error
			)
			for attempt := 0; attempt < TransactionAttempts; attempt++ {
				res, err = runUnit(ctx, factory, opts, next, cmd)
				if !errors.Is(err, uow.ErrTransient) || ctx.Err() != nil {
					break
				}
			}
			return res, err
		})
	}
}

func runUnit(ctx context.Context, factory uow.UoWFactory, opts uow.TxOptions, next commands.Bus, cmd commands.Command) (any, error) {
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	execCtx := uow.Bind(ctx, unit)
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(execCtx)
		}
	}()

	res, err := next.Dispatch(execCtx, cmd)
	if err != nil {
		return nil, err
	}
	if err := unit.Commit(execCtx); err != nil {
		return nil, err
	}
	committed = true
	uow.Committed(ctx, execCtx)
	return res, nil
}
