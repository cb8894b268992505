package middleware

import (
	"context"
	"errors"
	"fmt"

	"apexrentals/internal/app/commands"
	"apexrentals/internal/app/queries"
	domainuser "apexrentals/internal/domain/user"
)

var ErrForbidden = errors.New("middleware: role not permitted")

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// RoleRestricted is implemented by messages that only some roles may send.
type RoleRestricted interface {
	ActorRole() domainuser.Role
	AllowedRoles() []domainuser.Role
}

// RoleAuthorizer rejects RoleRestricted messages whose actor role is not allowed.
// Messages without role restrictions pass through.
type RoleAuthorizer struct{}

func (RoleAuthorizer) Authorize(_ context.Context, message any) error {
	restricted, ok := message.(RoleRestricted)
	if !ok {
		return nil
	}
	role := restricted.ActorRole()
	for _, allowed := range restricted.AllowedRoles() {
		if role == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrForbidden, role)
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return next.Ask(ctx, q)
		})
	}
}
