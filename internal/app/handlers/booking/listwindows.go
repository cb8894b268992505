package booking

import (
	"context"
	"sort"
	"strings"

	"apexrentals/internal/app/dto"
	"apexrentals/internal/app/queries"
	"apexrentals/internal/app/uow"
	domainassets "apexrentals/internal/domain/assets"
	domainbooking "apexrentals/internal/domain/booking"
)

const listWindowsKey = "booking.windows"

// ListWindowsQuery returns an asset's bookings reduced to dates and status,
// ordered by start date. No statuses means pending and confirmed.
type ListWindowsQuery struct {
	AssetID  string   `json:"asset_id" validate:"required"`
	Statuses []string `json:"statuses"`
}

func (q ListWindowsQuery) Key() string { return listWindowsKey }

type ListWindowsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListWindowsHandler) Handle(ctx context.Context, q ListWindowsQuery) (dto.BookingWindowCollection, error) {
	statuses, err := parseStatuses(q.Statuses)
	if err != nil {
		return dto.BookingWindowCollection{}, err
	}
	assetID := domainassets.AssetID(q.AssetID)
	windows, err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) ([]domainbooking.Window, error) {
		if _, err := unit.Assets().ByID(ctx, assetID); err != nil {
			return nil, err
		}
		return unit.Bookings().WindowsByAsset(ctx, assetID, statuses)
	})
	if err != nil {
		return dto.BookingWindowCollection{}, err
	}
	sort.SliceStable(windows, func(i, j int) bool {
		return windows[i].Range.Start.Before(windows[j].Range.Start)
	})
	return dto.BookingWindowCollection{AssetID: q.AssetID, Items: dto.MapWindows(windows)}, nil
}

func parseStatuses(raw []string) ([]domainbooking.Status, error) {
	out := make([]domainbooking.Status, 0, len(raw))
	seen := make(map[domainbooking.Status]struct{}, len(raw))
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			status, err := domainbooking.ParseStatus(part)
			if err != nil {
				return nil, err
			}
			if _, dup := seen[status]; dup {
				continue
			}
			seen[status] = struct{}{}
			out = append(out, status)
		}
	}
	if len(out) == 0 {
		return domainbooking.BlockingStatuses(), nil
	}
	return out, nil
}

var _ queries.Handler[ListWindowsQuery, dto.BookingWindowCollection] = (*ListWindowsHandler)(nil)
