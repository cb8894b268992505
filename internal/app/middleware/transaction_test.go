package middleware_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apexrentals/internal/app/commands"
	"apexrentals/internal/app/middleware"
	"apexrentals/internal/app/uow"
	domainassets "apexrentals/internal/domain/assets"
	domainbooking "apexrentals/internal/domain/booking"
	domainreviews "apexrentals/internal/domain/reviews"
	domainuser "apexrentals/internal/domain/user"
)

type recordingFactory struct {
	mu  sync.Mutex
	log []string
}

func (f *recordingFactory) Begin(context.Context, uow.TxOptions) (uow.UnitOfWork, error) {
	f.note("begin")
	return &recordingUnit{factory: f}, nil
}

func (f *recordingFactory) note(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log = append(f.log, s)
}

func (f *recordingFactory) entries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.log...)
}

type recordingUnit struct {
	factory *recordingFactory
}

func (u *recordingUnit) Assets() domainassets.Repository    { return nil }
func (u *recordingUnit) Bookings() domainbooking.Repository { return nil }
func (u *recordingUnit) Reviews() domainreviews.Repository  { return nil }
func (u *recordingUnit) Users() domainuser.Repository       { return nil }

func (u *recordingUnit) Commit(context.Context) error {
	u.factory.note("commit")
	return nil
}

func (u *recordingUnit) Rollback(context.Context) error {
	u.factory.note("rollback")
	return nil
}

type bookCommand struct{}

func (bookCommand) Key() string { return "test.book" }

func busFunc(fn func(ctx context.Context) (any, error)) commands.Bus {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[bookCommand, any](bus, bookCommand{}.Key(), commands.HandlerFunc[bookCommand, any](func(ctx context.Context, _ bookCommand) (any, error) {
		return fn(ctx)
	}))
	return bus
}

func TestTransactionRerunsUnitAfterWriteConflict(t *testing.T) {
	factory := &recordingFactory{}
	calls := 0
	bus := middleware.ChainCommands(busFunc(func(ctx context.Context) (any, error) {
		calls++
		if calls == 1 {
			return nil, fmt.Errorf("%w: lock bump", uow.ErrTransient)
		}
		// the second run sees the winner's booking
		return nil, domainbooking.ErrBookingConflict
	}), middleware.Transaction(factory, nil))

	_, err := bus.Dispatch(context.Background(), bookCommand{})
	require.ErrorIs(t, err, domainbooking.ErrBookingConflict)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"begin", "rollback", "begin", "rollback"}, factory.entries())
}

func TestTransactionGivesUpAfterBoundedAttempts(t *testing.T) {
	factory := &recordingFactory{}
	calls := 0
	bus := middleware.ChainCommands(busFunc(func(ctx context.Context) (any, error) {
		calls++
		return nil, uow.ErrTransient
	}), middleware.Transaction(factory, nil))

	_, err := bus.Dispatch(context.Background(), bookCommand{})
	require.ErrorIs(t, err, uow.ErrTransient)
	assert.Equal(t, middleware.TransactionAttempts, calls)
}

func TestAfterCommitHooksRunOnlyOnceCommitted(t *testing.T) {
	factory := &recordingFactory{}
	fail := errors.New("handler failed")
	var shouldFail bool
	bus := middleware.ChainCommands(busFunc(func(ctx context.Context) (any, error) {
		uow.AfterCommit(ctx, func(context.Context) { factory.note("hook") })
		if shouldFail {
			return nil, fail
		}
		return "ok", nil
	}), middleware.Transaction(factory, nil))

	res, err := bus.Dispatch(context.Background(), bookCommand{})
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
	assert.Equal(t, []string{"begin", "commit", "hook"}, factory.entries())

	factory.log = nil
	shouldFail = true
	_, err = bus.Dispatch(context.Background(), bookCommand{})
	require.ErrorIs(t, err, fail)
	assert.Equal(t, []string{"begin", "rollback"}, factory.entries())
}

func TestAfterCommitWithoutUnitRunsImmediately(t *testing.T) {
	ran := false
	uow.AfterCommit(context.Background(), func(context.Context) { ran = true })
	assert.True(t, ran)
}
