package booking

import (
	"context"
	"log/slog"
	"time"

	"apexrentals/internal/app/uow"
	domainassets "apexrentals/internal/domain/assets"
	domainbooking "apexrentals/internal/domain/booking"
)

// WindowCache keeps advisory copies of an asset's blocking windows. It is
// consulted by read paths only; the write path always asks the store.
type WindowCache interface {
	Windows(ctx context.Context, assetID domainassets.AssetID) ([]domainbooking.Window, bool, error)
	StoreWindows(ctx context.Context, assetID domainassets.AssetID, windows []domainbooking.Window) error
	Invalidate(ctx context.Context, assetID domainassets.AssetID) error
}

type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// invalidate drops the cached windows once the surrounding unit of work has
// committed, so a concurrent read cannot re-cache the pre-commit state.
func invalidate(ctx context.Context, cache WindowCache, logger *slog.Logger, assetID domainassets.AssetID) {
	if cache == nil {
		return
	}
	uow.AfterCommit(ctx, func(ctx context.Context) {
		if err := cache.Invalidate(ctx, assetID); err != nil && logger != nil {
			logger.Warn("availability cache invalidation failed", "asset_id", assetID, "error", err)
		}
	})
}
