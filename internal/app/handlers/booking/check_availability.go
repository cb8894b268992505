package booking

import (
	"context"
	"log/slog"
	"time"

	"apexrentals/internal/app/dto"
	"apexrentals/internal/app/queries"
	"apexrentals/internal/app/uow"
	domainassets "apexrentals/internal/domain/assets"
	domainbooking "apexrentals/internal/domain/booking"
	"apexrentals/internal/domain/shared/daterange"
)

const checkAvailabilityKey = "booking.availability"

// CheckAvailabilityQuery is the advisory pre-check shown before booking. Its
// answer may be stale by up to the cache TTL.
type CheckAvailabilityQuery struct {
	AssetID   string    `json:"asset_id" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
	Cache      WindowCache
	Clock      Clock
	Logger     *slog.Logger
}

func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (dto.Availability, error) {
	assetID := domainassets.AssetID(q.AssetID)
	type snapshot struct {
		asset   *domainassets.Asset
		windows []domainbooking.Window
	}
	snap, err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) (snapshot, error) {
		asset, err := unit.Assets().ByID(ctx, assetID)
		if err != nil {
			return snapshot{}, err
		}
		windows, err := h.windows(ctx, unit, assetID)
		if err != nil {
			return snapshot{}, err
		}
		return snapshot{asset: asset, windows: windows}, nil
	})
	if err != nil {
		return dto.Availability{}, err
	}

	availability, err := domainbooking.CheckAvailability(assetID, q.StartDate, q.EndDate, snap.windows, h.Clock.now())
	if err != nil {
		return dto.Availability{}, err
	}
	quote, err := domainbooking.ComputeTotalPrice(availability.Range.Start, availability.Range.End, snap.asset.PricePerDay)
	if err != nil {
		return dto.Availability{}, err
	}
	return dto.Availability{
		AssetID:   string(assetID),
		StartDate: availability.Range.Start.Format(daterange.DateLayout),
		EndDate:   availability.Range.End.Format(daterange.DateLayout),
		Available: availability.Available && snap.asset.Available,
		Conflicts: dto.MapWindows(availability.Conflicts),
		Days:      quote.Days,
		Total:     dto.MapMoney(quote.Total),
	}, nil
}

func (h *CheckAvailabilityHandler) windows(ctx context.Context, unit uow.UnitOfWork, assetID domainassets.AssetID) ([]domainbooking.Window, error) {
	if h.Cache != nil {
		cached, ok, err := h.Cache.Windows(ctx, assetID)
		if err == nil && ok {
			return cached, nil
		}
		if err != nil && h.Logger != nil {
			h.Logger.Warn("availability cache read failed", "asset_id", assetID, "error", err)
		}
	}
	windows, err := unit.Bookings().WindowsByAsset(ctx, assetID, domainbooking.BlockingStatuses())
	if err != nil {
		return nil, err
	}
	if h.Cache != nil {
		if err := h.Cache.StoreWindows(ctx, assetID, windows); err != nil && h.Logger != nil {
			h.Logger.Warn("availability cache write failed", "asset_id", assetID, "error", err)
		}
	}
	return windows, nil
}

var _ queries.Handler[CheckAvailabilityQuery, dto.Availability] = (*CheckAvailabilityHandler)(nil)
