package schedule

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apexrentals/internal/app/commands"
	"apexrentals/internal/app/dto"
	bookinghandlers "apexrentals/internal/app/handlers/booking"
	domainuser "apexrentals/internal/domain/user"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestAddRejectsBadSpecAndDuplicates(t *testing.T) {
	s := New(quietLogger(), time.Second)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Add("cleanup", "@every 1h", noop))
	assert.ErrorIs(t, s.Add("cleanup", "@every 1h", noop), ErrDuplicateJob)
	assert.Error(t, s.Add("broken", "not a spec", noop))
}

func TestRunExecutesJobsUntilCancelled(t *testing.T) {
	s := New(quietLogger(), time.Second)
	ran := make(chan struct{}, 4)
	require.NoError(t, s.Add("tick", "@every 1s", func(context.Context) error {
		ran <- struct{}{}
		return errors.New("ignored")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestCleanupExpiredJobDispatchesAsAdmin(t *testing.T) {
	bus := commands.NewInMemoryBus()
	var got bookinghandlers.CleanupExpiredCommand
	commands.RegisterHandler[bookinghandlers.CleanupExpiredCommand, *dto.CleanupResult](bus, bookinghandlers.CleanupExpiredCommand{}.Key(),
		commands.HandlerFunc[bookinghandlers.CleanupExpiredCommand, *dto.CleanupResult](func(ctx context.Context, cmd bookinghandlers.CleanupExpiredCommand) (*dto.CleanupResult, error) {
			got = cmd
			return &dto.CleanupResult{Deleted: 2}, nil
		}))

	require.NoError(t, CleanupExpiredJob(bus, quietLogger())(context.Background()))
	assert.Equal(t, SystemActorID, got.ActorID)
	assert.Equal(t, domainuser.RoleAdmin, got.ActorRole)
	assert.False(t, got.OnlyMine)
}
