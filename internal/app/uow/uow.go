package uow

import (
	"context"

	domainassets "apexrentals/internal/domain/assets"
	domainbooking "apexrentals/internal/domain/booking"
	domainreviews "apexrentals/internal/domain/reviews"
	domainuser "apexrentals/internal/domain/user"
)

// UnitOfWork groups the repositories one command touches. Backends that
// support transactions commit or roll back all of them together.
type UnitOfWork interface {
	Assets() domainassets.Repository
	Bookings() domainbooking.Repository
	Reviews() domainreviews.Repository
	Users() domainuser.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}

// ContextInjector is implemented by units that carry a driver session or
// transaction which repositories pick up from the context.
type ContextInjector interface {
	InjectContext(ctx context.Context) context.Context
}

// Bind stores unit in ctx, letting the unit add its own driver state first.
func Bind(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(ContextInjector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return ContextWithUnitOfWork(withCommitHooks(ctx), unit)
}
