package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainassets "apexrentals/internal/domain/assets"
	domainbooking "apexrentals/internal/domain/booking"
	"apexrentals/internal/domain/shared/daterange"
	"apexrentals/internal/domain/shared/money"
	domainuser "apexrentals/internal/domain/user"
)

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := daterange.Parse(s)
	require.NoError(t, err)
	return d
}

func newBooking(t *testing.T, id, asset string, client domainuser.ID, start, end string) *domainbooking.Booking {
	t.Helper()
	dr, err := daterange.New(mustDay(t, start), mustDay(t, end))
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:          domainbooking.BookingID(id),
		AssetID:     domainassets.AssetID(asset),
		OwnerID:     "owner-1",
		ClientID:    client,
		Range:       dr,
		PricePerDay: money.MustRate(1000, "USD"),
		CreatedAt:   mustDay(t, "2030-01-01"),
	})
	require.NoError(t, err)
	return b
}

func TestInsertRejectsOverlapOnSameAsset(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository()

	require.NoError(t, repo.Insert(ctx, newBooking(t, "b1", "yacht-1", "c1", "2030-06-10", "2030-06-15")))

	err := repo.Insert(ctx, newBooking(t, "b2", "yacht-1", "c2", "2030-06-14", "2030-06-16"))
	assert.ErrorIs(t, err, domainbooking.ErrBookingConflict)

	// adjacent ranges share only a boundary
	require.NoError(t, repo.Insert(ctx, newBooking(t, "b3", "yacht-1", "c2", "2030-06-15", "2030-06-18")))
	// other assets are independent
	require.NoError(t, repo.Insert(ctx, newBooking(t, "b4", "car-1", "c2", "2030-06-10", "2030-06-15")))

	windows, err := repo.WindowsByAsset(ctx, "yacht-1", domainbooking.BlockingStatuses())
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, domainbooking.BookingID("b1"), windows[0].BookingID)
	assert.Equal(t, domainbooking.BookingID("b3"), windows[1].BookingID)
}

func TestInsertIgnoresCancelledBookings(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository()
	first := newBooking(t, "b1", "yacht-1", "c1", "2030-06-10", "2030-06-15")
	require.NoError(t, repo.Insert(ctx, first))

	loaded, err := repo.ByID(ctx, "b1")
	require.NoError(t, err)
	require.NoError(t, loaded.Transition(domainbooking.Actor{ID: "c1", Role: domainuser.RoleClient}, domainbooking.StatusCancelled, mustDay(t, "2030-01-02")))
	require.NoError(t, repo.Save(ctx, loaded))

	require.NoError(t, repo.Insert(ctx, newBooking(t, "b2", "yacht-1", "c2", "2030-06-12", "2030-06-14")))
}

// Many clients race for the same dates; exactly one may win.
func TestConcurrentInsertAllowsSingleWinner(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository()
	const racers = 32

	var (
		wg        sync.WaitGroup
		wins      atomic.Int32
		conflicts atomic.Int32
		start     = make(chan struct{})
	)
	for i := 0; i < racers; i++ {
		b := newBooking(t, fmt.Sprintf("b%d", i), "yacht-1", domainuser.ID(fmt.Sprintf("c%d", i)), "2030-06-10", "2030-06-15")
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := repo.Insert(ctx, b)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, domainbooking.ErrBookingConflict):
				conflicts.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
	assert.EqualValues(t, racers-1, conflicts.Load())
	windows, err := repo.WindowsByAsset(ctx, "yacht-1", domainbooking.BlockingStatuses())
	require.NoError(t, err)
	assert.Len(t, windows, 1)
}

func TestSaveDetectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository()
	require.NoError(t, repo.Insert(ctx, newBooking(t, "b1", "yacht-1", "c1", "2030-06-10", "2030-06-15")))

	a, err := repo.ByID(ctx, "b1")
	require.NoError(t, err)
	b, err := repo.ByID(ctx, "b1")
	require.NoError(t, err)

	now := mustDay(t, "2030-01-02")
	require.NoError(t, a.Transition(domainbooking.Actor{ID: "owner-1", Role: domainuser.RoleOwner}, domainbooking.StatusConfirmed, now))
	require.NoError(t, repo.Save(ctx, a))

	require.NoError(t, b.Transition(domainbooking.Actor{ID: "c1", Role: domainuser.RoleClient}, domainbooking.StatusCancelled, now))
	assert.ErrorIs(t, repo.Save(ctx, b), domainbooking.ErrConcurrentUpdate)

	stored, err := repo.ByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusConfirmed, stored.Status)
}

func TestListsAndExpiredCleanup(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository()
	require.NoError(t, repo.Insert(ctx, newBooking(t, "old-1", "yacht-1", "c1", "2030-01-01", "2030-01-03")))
	require.NoError(t, repo.Insert(ctx, newBooking(t, "old-2", "car-1", "c2", "2030-01-02", "2030-01-04")))
	require.NoError(t, repo.Insert(ctx, newBooking(t, "future", "yacht-1", "c1", "2030-03-01", "2030-03-03")))

	mine, err := repo.ListByClient(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	received, err := repo.ListByOwner(ctx, "owner-1")
	require.NoError(t, err)
	assert.Len(t, received, 3)

	purged, err := repo.DeleteExpiredPending(ctx, mustDay(t, "2030-02-01"), "c2")
	require.NoError(t, err)
	require.Len(t, purged, 1)
	assert.Equal(t, domainbooking.BookingID("old-2"), purged[0].ID)

	purged, err = repo.DeleteExpiredPending(ctx, mustDay(t, "2030-02-01"), "")
	require.NoError(t, err)
	require.Len(t, purged, 1)
	assert.Equal(t, domainbooking.BookingID("old-1"), purged[0].ID)

	_, err = repo.ByID(ctx, "old-1")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
	_, err = repo.ByID(ctx, "future")
	assert.NoError(t, err)
}
