package booking

import (
	"context"
	"log/slog"
	"time"

	"apexrentals/internal/app/commands"
	"apexrentals/internal/app/dto"
	"apexrentals/internal/app/middleware"
	"apexrentals/internal/app/outbox"
	"apexrentals/internal/app/uow"
	domainassets "apexrentals/internal/domain/assets"
	domainbooking "apexrentals/internal/domain/booking"
	domainuser "apexrentals/internal/domain/user"
)

const createBookingKey = "booking.create"

type CreateBookingCommand struct {
	BookingID       string          `json:"booking_id" validate:"required"`
	AssetID         string          `json:"asset_id" validate:"required"`
	ClientID        string          `json:"client_id" validate:"required"`
	ClientRole      domainuser.Role `json:"-"`
	StartDate       time.Time       `json:"start_date" validate:"required"`
	EndDate         time.Time       `json:"end_date" validate:"required"`
	SpecialRequest  string          `json:"special_request" validate:"max=2000"`
	IdempotencyKeyV string          `json:"-"`
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) IdempotencyKey() string {
	if c.IdempotencyKeyV == "" {
		return ""
	}
	return c.ClientID + ":" + c.IdempotencyKeyV
}

func (c CreateBookingCommand) ResultPrototype() any { return &dto.Booking{} }

// CreateBookingHandler books an asset for a client. The availability check
// here is a fast path; the repository's Insert is what actually guards
// against overlapping bookings.
type CreateBookingHandler struct {
	UoWFactory uow.UoWFactory
	Events     outbox.Recorder
	Cache      WindowCache
	Clock      Clock
	Logger     *slog.Logger
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*dto.Booking, error) {
	if cmd.ClientRole != domainuser.RoleClient {
		return nil, domainbooking.ErrNotAuthorized
	}
	now := h.Clock.now()

	created, err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) (*domainbooking.Booking, error) {
		asset, err := unit.Assets().ByID(ctx, domainassets.AssetID(cmd.AssetID))
		if err != nil {
			return nil, err
		}
		if !asset.Available {
			return nil, domainbooking.ErrAssetUnavailable
		}
		windows, err := unit.Bookings().WindowsByAsset(ctx, asset.ID, domainbooking.BlockingStatuses())
		if err != nil {
			return nil, err
		}
		availability, err := domainbooking.CheckAvailability(asset.ID, cmd.StartDate, cmd.EndDate, windows, now)
		if err != nil {
			return nil, err
		}
		if !availability.Available {
			return nil, domainbooking.ErrBookingConflict
		}

		b, err := domainbooking.NewBooking(domainbooking.CreateParams{
			ID:             domainbooking.BookingID(cmd.BookingID),
			AssetID:        asset.ID,
			OwnerID:        domainuser.ID(asset.Owner),
			ClientID:       domainuser.ID(cmd.ClientID),
			Range:          availability.Range,
			PricePerDay:    asset.PricePerDay,
			SpecialRequest: cmd.SpecialRequest,
			CreatedAt:      now,
		})
		if err != nil {
			return nil, err
		}
		if err := unit.Bookings().Insert(ctx, b); err != nil {
			return nil, err
		}
		if err := h.Events.Record(ctx, b.Drain()); err != nil {
			return nil, err
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, h.Cache, h.Logger, created.AssetID)
	if h.Logger != nil {
		h.Logger.Info("booking requested",
			"booking_id", created.ID,
			"asset_id", created.AssetID,
			"client_id", created.ClientID,
			"range", created.Range.String(),
			"total_cents", created.Total.Amount,
		)
	}
	result := dto.MapBooking(created)
	return &result, nil
}

var _ commands.Handler[CreateBookingCommand, *dto.Booking] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = CreateBookingCommand{}
