// Package wiring registers every command and query handler on the buses and
// wraps them in the middleware chain. main and the HTTP tests share it.
package wiring

import (
	"log/slog"
	"time"

	"apexrentals/internal/app/commands"
	"apexrentals/internal/app/dto"
	assethandlers "apexrentals/internal/app/handlers/assets"
	bookinghandlers "apexrentals/internal/app/handlers/booking"
	earningshandlers "apexrentals/internal/app/handlers/earnings"
	reviewhandlers "apexrentals/internal/app/handlers/reviews"
	"apexrentals/internal/app/middleware"
	"apexrentals/internal/app/outbox"
	"apexrentals/internal/app/queries"
	"apexrentals/internal/app/uow"
)

type Deps struct {
	UoW          uow.UoWFactory
	Outbox       outbox.Outbox
	Idempotency  middleware.IdempotencyStore
	Cache        bookinghandlers.WindowCache
	Images       assethandlers.ImageStore
	EventHeaders outbox.HeaderSource
	Currency     string
	Now          func() time.Time
	Logger       *slog.Logger
}

type Buses struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func Build(d Deps) Buses {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := d.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	clock := bookinghandlers.Clock(now)
	events := outbox.Recorder{Outbox: d.Outbox, Headers: d.EventHeaders}

	cmdBus := commands.NewInMemoryBus()
	commands.RegisterHandler[bookinghandlers.CreateBookingCommand, *dto.Booking](cmdBus, bookinghandlers.CreateBookingCommand{}.Key(),
		&bookinghandlers.CreateBookingHandler{UoWFactory: d.UoW, Events: events, Cache: d.Cache, Clock: clock, Logger: logger})
	commands.RegisterHandler[bookinghandlers.TransitionStatusCommand, *dto.Booking](cmdBus, bookinghandlers.TransitionStatusCommand{}.Key(),
		&bookinghandlers.TransitionStatusHandler{UoWFactory: d.UoW, Events: events, Cache: d.Cache, Clock: clock, Logger: logger})
	commands.RegisterHandler[bookinghandlers.CleanupExpiredCommand, *dto.CleanupResult](cmdBus, bookinghandlers.CleanupExpiredCommand{}.Key(),
		&bookinghandlers.CleanupExpiredHandler{UoWFactory: d.UoW, Events: events, Cache: d.Cache, Clock: clock, Logger: logger})
	commands.RegisterHandler[assethandlers.CreateAssetCommand, *dto.Asset](cmdBus, assethandlers.CreateAssetCommand{}.Key(),
		&assethandlers.CreateAssetHandler{UoWFactory: d.UoW, Events: events, Currency: d.Currency, Now: now, Logger: logger})
	commands.RegisterHandler[assethandlers.UpdateAssetCommand, *dto.Asset](cmdBus, assethandlers.UpdateAssetCommand{}.Key(),
		&assethandlers.UpdateAssetHandler{UoWFactory: d.UoW, Events: events, Now: now, Logger: logger})
	commands.RegisterHandler[assethandlers.DeleteAssetCommand, *assethandlers.DeleteAssetResult](cmdBus, assethandlers.DeleteAssetCommand{}.Key(),
		&assethandlers.DeleteAssetHandler{UoWFactory: d.UoW, Events: events, Now: now, Logger: logger})
	commands.RegisterHandler[assethandlers.AttachImageCommand, *dto.Asset](cmdBus, assethandlers.AttachImageCommand{}.Key(),
		&assethandlers.AttachImageHandler{UoWFactory: d.UoW, Store: d.Images, Now: now, Logger: logger})
	commands.RegisterHandler[reviewhandlers.SubmitReviewCommand, *dto.Review](cmdBus, reviewhandlers.SubmitReviewCommand{}.Key(),
		&reviewhandlers.SubmitReviewHandler{UoWFactory: d.UoW, Events: events, Now: now, Logger: logger})

	qryBus := queries.NewInMemoryBus()
	queries.RegisterHandler[bookinghandlers.CheckAvailabilityQuery, dto.Availability](qryBus, bookinghandlers.CheckAvailabilityQuery{}.Key(),
		&bookinghandlers.CheckAvailabilityHandler{UoWFactory: d.UoW, Cache: d.Cache, Clock: clock, Logger: logger})
	queries.RegisterHandler[bookinghandlers.ListWindowsQuery, dto.BookingWindowCollection](qryBus, bookinghandlers.ListWindowsQuery{}.Key(),
		&bookinghandlers.ListWindowsHandler{UoWFactory: d.UoW})
	queries.RegisterHandler[bookinghandlers.GetBookingQuery, dto.Booking](qryBus, bookinghandlers.GetBookingQuery{}.Key(),
		&bookinghandlers.GetBookingHandler{UoWFactory: d.UoW})
	queries.RegisterHandler[bookinghandlers.MyBookingsQuery, dto.MyBookings](qryBus, bookinghandlers.MyBookingsQuery{}.Key(),
		&bookinghandlers.MyBookingsHandler{UoWFactory: d.UoW})
	queries.RegisterHandler[assethandlers.GetAssetQuery, dto.Asset](qryBus, assethandlers.GetAssetQuery{}.Key(),
		&assethandlers.GetAssetHandler{UoWFactory: d.UoW})
	queries.RegisterHandler[assethandlers.SearchAssetsQuery, dto.AssetCollection](qryBus, assethandlers.SearchAssetsQuery{}.Key(),
		&assethandlers.SearchAssetsHandler{UoWFactory: d.UoW})
	queries.RegisterHandler[assethandlers.OwnerAssetsQuery, dto.AssetCollection](qryBus, assethandlers.OwnerAssetsQuery{}.Key(),
		&assethandlers.OwnerAssetsHandler{UoWFactory: d.UoW})
	queries.RegisterHandler[earningshandlers.OwnerEarningsQuery, dto.Earnings](qryBus, earningshandlers.OwnerEarningsQuery{}.Key(),
		&earningshandlers.OwnerEarningsHandler{UoWFactory: d.UoW, Currency: d.Currency})
	queries.RegisterHandler[reviewhandlers.ListAssetReviewsQuery, dto.ReviewCollection](qryBus, reviewhandlers.ListAssetReviewsQuery{}.Key(),
		&reviewhandlers.ListAssetReviewsHandler{UoWFactory: d.UoW, Logger: logger})
	queries.RegisterHandler[reviewhandlers.UserReviewsQuery, dto.UserReviews](qryBus, reviewhandlers.UserReviewsQuery{}.Key(),
		&reviewhandlers.UserReviewsHandler{UoWFactory: d.UoW})
	queries.RegisterHandler[reviewhandlers.MyReviewsQuery, dto.MyReviews](qryBus, reviewhandlers.MyReviewsQuery{}.Key(),
		&reviewhandlers.MyReviewsHandler{UoWFactory: d.UoW})
	queries.RegisterHandler[reviewhandlers.ReviewEligibilityQuery, dto.ReviewEligibility](qryBus, reviewhandlers.ReviewEligibilityQuery{}.Key(),
		&reviewhandlers.ReviewEligibilityHandler{UoWFactory: d.UoW})

	validator := middleware.NewStructValidator()
	cmdMiddleware := []middleware.CommandMiddleware{
		middleware.Logging(logger),
		middleware.Validation(validator),
		middleware.Authorization(middleware.RoleAuthorizer{}),
	}
	if d.Idempotency != nil {
		cmdMiddleware = append(cmdMiddleware, middleware.Idempotency(d.Idempotency, nil))
	}
	cmdMiddleware = append(cmdMiddleware, middleware.Transaction(d.UoW, nil))
	if d.Outbox != nil {
		cmdMiddleware = append(cmdMiddleware, middleware.OutboxFlush(d.Outbox))
	}

	return Buses{
		Commands: middleware.ChainCommands(cmdBus, cmdMiddleware...),
		Queries: middleware.ChainQueries(qryBus,
			middleware.QueryValidation(validator),
			middleware.QueryAuthorization(middleware.RoleAuthorizer{}),
		),
	}
}
