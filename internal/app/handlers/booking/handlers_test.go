package booking_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookinghandlers "apexrentals/internal/app/handlers/booking"
	"apexrentals/internal/app/outbox"
	domainassets "apexrentals/internal/domain/assets"
	domainbooking "apexrentals/internal/domain/booking"
	"apexrentals/internal/domain/shared/daterange"
	"apexrentals/internal/domain/shared/money"
	domainuser "apexrentals/internal/domain/user"
	"apexrentals/internal/infra/storage/memory"
)

type fixture struct {
	factory memory.Factory
	outbox  *memory.Outbox
	cache   *memory.WindowCache
	now     time.Time

	create     *bookinghandlers.CreateBookingHandler
	transition *bookinghandlers.TransitionStatusHandler
	check      *bookinghandlers.CheckAvailabilityHandler
	windows    *bookinghandlers.ListWindowsHandler
	get        *bookinghandlers.GetBookingHandler
	mine       *bookinghandlers.MyBookingsHandler
	cleanup    *bookinghandlers.CleanupExpiredHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		factory: memory.NewFactory(),
		outbox:  memory.NewOutbox(),
		cache:   memory.NewWindowCache(time.Minute),
		now:     time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := bookinghandlers.Clock(func() time.Time { return f.now })
	events := outbox.Recorder{Outbox: f.outbox}

	f.create = &bookinghandlers.CreateBookingHandler{UoWFactory: f.factory, Events: events, Cache: f.cache, Clock: clock, Logger: logger}
	f.transition = &bookinghandlers.TransitionStatusHandler{UoWFactory: f.factory, Events: events, Cache: f.cache, Clock: clock, Logger: logger}
	f.check = &bookinghandlers.CheckAvailabilityHandler{UoWFactory: f.factory, Cache: f.cache, Clock: clock, Logger: logger}
	f.windows = &bookinghandlers.ListWindowsHandler{UoWFactory: f.factory}
	f.get = &bookinghandlers.GetBookingHandler{UoWFactory: f.factory}
	f.mine = &bookinghandlers.MyBookingsHandler{UoWFactory: f.factory}
	f.cleanup = &bookinghandlers.CleanupExpiredHandler{UoWFactory: f.factory, Events: events, Cache: f.cache, Clock: clock, Logger: logger}

	asset, err := domainassets.NewAsset(domainassets.CreateParams{
		ID:          "yacht-1",
		Owner:       "owner-1",
		Title:       "Azure Dream",
		Category:    domainassets.CategoryYacht,
		PricePerDay: money.MustRate(1000, "USD"),
		Location:    "Monaco",
		Now:         f.now,
	})
	require.NoError(t, err)
	require.NoError(t, f.factory.AssetsRepo.Save(context.Background(), asset))
	return f
}

func (f *fixture) day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := daterange.Parse(s)
	require.NoError(t, err)
	return d
}

func (f *fixture) book(t *testing.T, id, client, start, end string) error {
	t.Helper()
	_, err := f.create.Handle(context.Background(), bookinghandlers.CreateBookingCommand{
		BookingID:  id,
		AssetID:    "yacht-1",
		ClientID:   client,
		ClientRole: domainuser.RoleClient,
		StartDate:  f.day(t, start),
		EndDate:    f.day(t, end),
	})
	return err
}

func TestCreateBookingRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.create.Handle(ctx, bookinghandlers.CreateBookingCommand{
		BookingID:      "bk-1",
		AssetID:        "yacht-1",
		ClientID:       "client-1",
		ClientRole:     domainuser.RoleClient,
		StartDate:      f.day(t, "2030-06-10"),
		EndDate:        f.day(t, "2030-06-15"),
		SpecialRequest: "  champagne on arrival ",
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, 5, created.Days)
	assert.EqualValues(t, 500000, created.Total.AmountCents)
	assert.Equal(t, "owner-1", created.OwnerID)
	assert.Equal(t, "champagne on arrival", created.SpecialRequest)
	assert.Equal(t, []string{"booking.requested"}, f.outbox.Pending())

	fetched, err := f.get.Handle(ctx, bookinghandlers.GetBookingQuery{BookingID: "bk-1", ViewerID: "owner-1", ViewerRole: domainuser.RoleOwner})
	require.NoError(t, err)
	assert.Equal(t, *created, fetched)

	_, err = f.get.Handle(ctx, bookinghandlers.GetBookingQuery{BookingID: "bk-1", ViewerID: "stranger", ViewerRole: domainuser.RoleClient})
	assert.ErrorIs(t, err, domainbooking.ErrNotAuthorized)

	mine, err := f.mine.Handle(ctx, bookinghandlers.MyBookingsQuery{UserID: "client-1"})
	require.NoError(t, err)
	assert.Len(t, mine.Made, 1)
	assert.Empty(t, mine.Received)
}

func TestCreateBookingRejectsOverlap(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.book(t, "bk-1", "client-1", "2030-06-10", "2030-06-15"))

	err := f.book(t, "bk-2", "client-2", "2030-06-14", "2030-06-20")
	assert.ErrorIs(t, err, domainbooking.ErrBookingConflict)

	require.NoError(t, f.book(t, "bk-3", "client-2", "2030-06-15", "2030-06-20"))
}

func TestCreateBookingRequiresClientRole(t *testing.T) {
	f := newFixture(t)
	_, err := f.create.Handle(context.Background(), bookinghandlers.CreateBookingCommand{
		BookingID:  "bk-1",
		AssetID:    "yacht-1",
		ClientID:   "owner-2",
		ClientRole: domainuser.RoleOwner,
		StartDate:  f.day(t, "2030-06-10"),
		EndDate:    f.day(t, "2030-06-15"),
	})
	assert.ErrorIs(t, err, domainbooking.ErrNotAuthorized)
}

func TestCreateBookingValidatesRangeAndAsset(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.book(t, "bk-1", "client-1", "2030-06-15", "2030-06-15"), domainbooking.ErrInvalidRange)
	assert.ErrorIs(t, f.book(t, "bk-1", "client-1", "2029-12-30", "2030-01-03"), domainbooking.ErrInvalidRange)

	_, err := f.create.Handle(context.Background(), bookinghandlers.CreateBookingCommand{
		BookingID: "bk-1", AssetID: "missing", ClientID: "client-1", ClientRole: domainuser.RoleClient,
		StartDate: f.day(t, "2030-06-10"), EndDate: f.day(t, "2030-06-11"),
	})
	assert.ErrorIs(t, err, domainassets.ErrNotFound)
}

func TestTransitionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.book(t, "bk-1", "client-1", "2030-06-10", "2030-06-15"))

	_, err := f.transition.Handle(ctx, bookinghandlers.TransitionStatusCommand{BookingID: "bk-1", ActorID: "client-1", ActorRole: domainuser.RoleClient, Status: "confirmed"})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidTransition)

	_, err = f.transition.Handle(ctx, bookinghandlers.TransitionStatusCommand{BookingID: "bk-1", ActorID: "stranger", ActorRole: domainuser.RoleOwner, Status: "confirmed"})
	assert.ErrorIs(t, err, domainbooking.ErrNotAuthorized)

	confirmed, err := f.transition.Handle(ctx, bookinghandlers.TransitionStatusCommand{BookingID: "bk-1", ActorID: "owner-1", ActorRole: domainuser.RoleOwner, Status: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", confirmed.Status)

	_, err = f.transition.Handle(ctx, bookinghandlers.TransitionStatusCommand{BookingID: "bk-1", ActorID: "owner-1", ActorRole: domainuser.RoleOwner, Status: "completed"})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidTransition, "cannot complete before the range ends")

	_, err = f.transition.Handle(ctx, bookinghandlers.TransitionStatusCommand{BookingID: "bk-1", ActorID: "owner-1", ActorRole: domainuser.RoleOwner, Status: "archived"})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidTransition)

	f.now = f.day(t, "2030-06-16")
	completed, err := f.transition.Handle(ctx, bookinghandlers.TransitionStatusCommand{BookingID: "bk-1", ActorID: "owner-1", ActorRole: domainuser.RoleOwner, Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, "completed", completed.Status)
	assert.Equal(t, []string{"booking.requested", "booking.confirmed", "booking.completed"}, f.outbox.Pending())
}

func TestCancelledBookingFreesDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.book(t, "bk-1", "client-1", "2030-06-10", "2030-06-15"))

	_, err := f.transition.Handle(ctx, bookinghandlers.TransitionStatusCommand{BookingID: "bk-1", ActorID: "client-1", ActorRole: domainuser.RoleClient, Status: "cancelled"})
	require.NoError(t, err)

	require.NoError(t, f.book(t, "bk-2", "client-2", "2030-06-12", "2030-06-14"))
}

func TestCheckAvailabilityUsesCacheUntilInvalidated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	query := bookinghandlers.CheckAvailabilityQuery{AssetID: "yacht-1", StartDate: f.day(t, "2030-06-12"), EndDate: f.day(t, "2030-06-14")}

	res, err := f.check.Handle(ctx, query)
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Equal(t, 2, res.Days)
	assert.EqualValues(t, 200000, res.Total.AmountCents)
	_, cached, _ := f.cache.Windows(ctx, "yacht-1")
	assert.True(t, cached)

	require.NoError(t, f.book(t, "bk-1", "client-1", "2030-06-10", "2030-06-15"))
	_, cached, _ = f.cache.Windows(ctx, "yacht-1")
	assert.False(t, cached, "create invalidates the asset's windows")

	res, err = f.check.Handle(ctx, query)
	require.NoError(t, err)
	assert.False(t, res.Available)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, "bk-1", res.Conflicts[0].BookingID)
	assert.Equal(t, "2030-06-10", res.Conflicts[0].StartDate)
}

func TestCheckAvailabilityReportsUnlistedAsset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asset, err := f.factory.AssetsRepo.ByID(ctx, "yacht-1")
	require.NoError(t, err)
	asset.SetAvailability(false, f.now)
	require.NoError(t, f.factory.AssetsRepo.Save(ctx, asset))

	res, err := f.check.Handle(ctx, bookinghandlers.CheckAvailabilityQuery{AssetID: "yacht-1", StartDate: f.day(t, "2030-06-12"), EndDate: f.day(t, "2030-06-14")})
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Empty(t, res.Conflicts)

	assert.ErrorIs(t, f.book(t, "bk-1", "client-1", "2030-06-12", "2030-06-14"), domainbooking.ErrAssetUnavailable)
}

func TestListWindowsFiltersStatuses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.book(t, "bk-2", "client-1", "2030-07-01", "2030-07-05"))
	require.NoError(t, f.book(t, "bk-1", "client-1", "2030-06-01", "2030-06-05"))
	_, err := f.transition.Handle(ctx, bookinghandlers.TransitionStatusCommand{BookingID: "bk-2", ActorID: "owner-1", ActorRole: domainuser.RoleOwner, Status: "cancelled"})
	require.NoError(t, err)

	blocking, err := f.windows.Handle(ctx, bookinghandlers.ListWindowsQuery{AssetID: "yacht-1"})
	require.NoError(t, err)
	require.Len(t, blocking.Items, 1)
	assert.Equal(t, "bk-1", blocking.Items[0].BookingID)

	all, err := f.windows.Handle(ctx, bookinghandlers.ListWindowsQuery{AssetID: "yacht-1", Statuses: []string{"pending,cancelled", "pending"}})
	require.NoError(t, err)
	require.Len(t, all.Items, 2)
	assert.Equal(t, "2030-06-01", all.Items[0].StartDate)

	_, err = f.windows.Handle(ctx, bookinghandlers.ListWindowsQuery{AssetID: "yacht-1", Statuses: []string{"bogus"}})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidStatus)
}

func TestCleanupExpiredPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.book(t, "bk-old", "client-1", "2030-01-05", "2030-01-07"))
	require.NoError(t, f.book(t, "bk-other", "client-2", "2030-01-08", "2030-01-09"))
	require.NoError(t, f.book(t, "bk-new", "client-1", "2030-03-01", "2030-03-03"))
	f.now = f.day(t, "2030-02-01")

	_, err := f.cleanup.Handle(ctx, bookinghandlers.CleanupExpiredCommand{ActorID: "client-1", ActorRole: domainuser.RoleClient})
	assert.ErrorIs(t, err, domainbooking.ErrNotAuthorized)

	res, err := f.cleanup.Handle(ctx, bookinghandlers.CleanupExpiredCommand{ActorID: "client-1", ActorRole: domainuser.RoleClient, OnlyMine: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, "2030-02-01", res.Before)

	res, err = f.cleanup.Handle(ctx, bookinghandlers.CleanupExpiredCommand{ActorID: "admin-1", ActorRole: domainuser.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)

	_, err = f.get.Handle(ctx, bookinghandlers.GetBookingQuery{BookingID: "bk-new", ViewerID: "client-1", ViewerRole: domainuser.RoleClient})
	assert.NoError(t, err)
	_, err = f.get.Handle(ctx, bookinghandlers.GetBookingQuery{BookingID: "bk-old", ViewerID: "client-1", ViewerRole: domainuser.RoleClient})
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
}
