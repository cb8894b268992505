package reviews_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	reviewhandlers "apexrentals/internal/app/handlers/reviews"
	"apexrentals/internal/app/outbox"
	domainassets "apexrentals/internal/domain/assets"
	domainbooking "apexrentals/internal/domain/booking"
	domainreviews "apexrentals/internal/domain/reviews"
	"apexrentals/internal/domain/shared/daterange"
	"apexrentals/internal/domain/shared/money"
	domainuser "apexrentals/internal/domain/user"
	"apexrentals/internal/infra/storage/memory"
)

func seedCompletedBooking(t *testing.T, factory memory.Factory) {
	t.Helper()
	ctx := context.Background()
	created := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	asset, err := domainassets.NewAsset(domainassets.CreateParams{
		ID: "car-1", Owner: "owner-1", Title: "Roadster", Category: domainassets.CategoryCar,
		PricePerDay: money.MustRate(300, "USD"), Location: "Nice", Now: created,
	})
	require.NoError(t, err)
	require.NoError(t, factory.AssetsRepo.Save(ctx, asset))

	dr, err := daterange.New(created.AddDate(0, 0, 5), created.AddDate(0, 0, 7))
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID: "bk-1", AssetID: "car-1", OwnerID: "owner-1", ClientID: "client-1",
		Range: dr, PricePerDay: asset.PricePerDay, CreatedAt: created,
	})
	require.NoError(t, err)
	require.NoError(t, factory.BookingsRepo.Insert(ctx, b))
	owner := domainbooking.Actor{ID: "owner-1", Role: domainuser.RoleOwner}
	require.NoError(t, b.Transition(owner, domainbooking.StatusConfirmed, created))
	require.NoError(t, factory.BookingsRepo.Save(ctx, b))
	require.NoError(t, b.Transition(owner, domainbooking.StatusCompleted, created.AddDate(0, 0, 8)))
	require.NoError(t, factory.BookingsRepo.Save(ctx, b))
}

func TestSubmitAndListReviews(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedCompletedBooking(t, factory)
	ob := memory.NewOutbox()
	submit := &reviewhandlers.SubmitReviewHandler{UoWFactory: factory, Events: outbox.Recorder{Outbox: ob}}
	list := &reviewhandlers.ListAssetReviewsHandler{UoWFactory: factory}

	_, err := submit.Handle(ctx, reviewhandlers.SubmitReviewCommand{BookingID: "bk-1", ReviewerID: "client-1", RevieweeID: "owner-1", Type: "asset", Rating: 5, Comment: "superb"})
	require.NoError(t, err)
	_, err = submit.Handle(ctx, reviewhandlers.SubmitReviewCommand{BookingID: "bk-1", ReviewerID: "owner-1", RevieweeID: "client-1", Type: "asset", Rating: 4})
	require.NoError(t, err)
	_, err = submit.Handle(ctx, reviewhandlers.SubmitReviewCommand{BookingID: "bk-1", ReviewerID: "owner-1", RevieweeID: "client-1", Type: "user", Rating: 2})
	require.NoError(t, err)

	_, err = submit.Handle(ctx, reviewhandlers.SubmitReviewCommand{BookingID: "bk-1", ReviewerID: "client-1", RevieweeID: "owner-1", Type: "asset", Rating: 1})
	assert.ErrorIs(t, err, domainreviews.ErrAlreadyReviewed)

	_, err = submit.Handle(ctx, reviewhandlers.SubmitReviewCommand{BookingID: "bk-1", ReviewerID: "stranger", RevieweeID: "owner-1", Type: "asset", Rating: 3})
	assert.ErrorIs(t, err, domainreviews.ErrNotParticipant)

	res, err := list.Handle(ctx, reviewhandlers.ListAssetReviewsQuery{AssetID: "car-1", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Len(t, res.Items, 1)
	assert.Equal(t, 4.5, res.AverageRating)
	assert.Len(t, ob.Pending(), 3)

	_, err = list.Handle(ctx, reviewhandlers.ListAssetReviewsQuery{AssetID: "missing"})
	assert.ErrorIs(t, err, domainassets.ErrNotFound)
}

func tickingClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func seedUser(t *testing.T, factory memory.Factory, id string, role domainuser.Role) {
	t.Helper()
	u, err := domainuser.NewUser(domainuser.CreateParams{
		ID: domainuser.ID(id), Email: id + "@example.com", Name: id, PasswordHash: "hash", Role: role,
	})
	require.NoError(t, err)
	require.NoError(t, factory.UsersRepo.Save(context.Background(), u))
}

func TestUserAndMyReviews(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedCompletedBooking(t, factory)
	seedUser(t, factory, "owner-1", domainuser.RoleOwner)
	seedUser(t, factory, "client-1", domainuser.RoleClient)
	submit := &reviewhandlers.SubmitReviewHandler{
		UoWFactory: factory,
		Events:     outbox.Recorder{Outbox: memory.NewOutbox()},
		Now:        tickingClock(time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC)),
	}

	for _, cmd := range []reviewhandlers.SubmitReviewCommand{
		{BookingID: "bk-1", ReviewerID: "client-1", RevieweeID: "owner-1", Type: "asset", Rating: 5},
		{BookingID: "bk-1", ReviewerID: "client-1", RevieweeID: "owner-1", Type: "user", Rating: 4},
		{BookingID: "bk-1", ReviewerID: "owner-1", RevieweeID: "client-1", Type: "user", Rating: 2},
	} {
		_, err := submit.Handle(ctx, cmd)
		require.NoError(t, err)
	}

	users := &reviewhandlers.UserReviewsHandler{UoWFactory: factory}
	ownerReviews, err := users.Handle(ctx, reviewhandlers.UserReviewsQuery{UserID: "owner-1"})
	require.NoError(t, err)
	require.Equal(t, 1, ownerReviews.Total)
	assert.Equal(t, "user", ownerReviews.Items[0].Type)
	assert.Equal(t, 4.0, ownerReviews.AverageRating)

	_, err = users.Handle(ctx, reviewhandlers.UserReviewsQuery{UserID: "ghost"})
	assert.ErrorIs(t, err, domainuser.ErrNotFound)

	mine := &reviewhandlers.MyReviewsHandler{UoWFactory: factory}
	client, err := mine.Handle(ctx, reviewhandlers.MyReviewsQuery{UserID: "client-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, client.TotalGiven)
	assert.Equal(t, 1, client.TotalReceived)
	assert.Equal(t, 2.0, client.AverageRating)
	assert.Equal(t, "user", client.Given[0].Type, "newest first")

	owner, err := mine.Handle(ctx, reviewhandlers.MyReviewsQuery{UserID: "owner-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, owner.TotalReceived)
	assert.Equal(t, 4.5, owner.AverageRating)
}

func TestReviewEligibility(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedCompletedBooking(t, factory)
	submit := &reviewhandlers.SubmitReviewHandler{UoWFactory: factory, Events: outbox.Recorder{Outbox: memory.NewOutbox()}}
	eligibility := &reviewhandlers.ReviewEligibilityHandler{UoWFactory: factory}

	res, err := eligibility.Handle(ctx, reviewhandlers.ReviewEligibilityQuery{BookingID: "bk-1", ViewerID: "client-1"})
	require.NoError(t, err)
	assert.True(t, res.CanReview)
	require.Len(t, res.PossibleReviews, 2)
	assert.Equal(t, "user", res.PossibleReviews[0].Type)
	assert.Equal(t, "asset", res.PossibleReviews[1].Type)
	assert.Equal(t, "owner-1", res.PossibleReviews[1].RevieweeID)
	assert.Equal(t, "bk-1", res.Booking.ID)

	_, err = submit.Handle(ctx, reviewhandlers.SubmitReviewCommand{BookingID: "bk-1", ReviewerID: "client-1", RevieweeID: "owner-1", Type: "asset", Rating: 5})
	require.NoError(t, err)
	res, err = eligibility.Handle(ctx, reviewhandlers.ReviewEligibilityQuery{BookingID: "bk-1", ViewerID: "client-1"})
	require.NoError(t, err)
	require.Len(t, res.PossibleReviews, 1)
	assert.Equal(t, "user", res.PossibleReviews[0].Type)

	_, err = submit.Handle(ctx, reviewhandlers.SubmitReviewCommand{BookingID: "bk-1", ReviewerID: "owner-1", RevieweeID: "client-1", Type: "user", Rating: 4})
	require.NoError(t, err)
	res, err = eligibility.Handle(ctx, reviewhandlers.ReviewEligibilityQuery{BookingID: "bk-1", ViewerID: "owner-1"})
	require.NoError(t, err)
	assert.False(t, res.CanReview)
	assert.Empty(t, res.PossibleReviews)
	assert.NotEmpty(t, res.Reason)

	_, err = eligibility.Handle(ctx, reviewhandlers.ReviewEligibilityQuery{BookingID: "bk-1", ViewerID: "stranger"})
	assert.ErrorIs(t, err, domainreviews.ErrNotParticipant)

	_, err = eligibility.Handle(ctx, reviewhandlers.ReviewEligibilityQuery{BookingID: "missing", ViewerID: "client-1"})
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
}

func TestReviewEligibilityForUnfinishedBooking(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	start := time.Date(2030, 2, 1, 0, 0, 0, 0, time.UTC)
	dr, err := daterange.New(start, start.AddDate(0, 0, 2))
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID: "bk-2", AssetID: "car-1", OwnerID: "owner-1", ClientID: "client-1",
		Range: dr, PricePerDay: money.MustRate(100, "USD"), CreatedAt: start.AddDate(0, 0, -5),
	})
	require.NoError(t, err)
	require.NoError(t, factory.BookingsRepo.Insert(ctx, b))

	res, err := (&reviewhandlers.ReviewEligibilityHandler{UoWFactory: factory}).Handle(ctx,
		reviewhandlers.ReviewEligibilityQuery{BookingID: "bk-2", ViewerID: "client-1"})
	require.NoError(t, err)
	assert.False(t, res.CanReview)
	assert.Equal(t, "booking is not completed", res.Reason)
	assert.Equal(t, "pending", res.Booking.Status)
}
