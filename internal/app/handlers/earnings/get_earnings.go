package earnings

import (
	"context"
	"sort"

	"apexrentals/internal/app/dto"
	"apexrentals/internal/app/middleware"
	"apexrentals/internal/app/queries"
	"apexrentals/internal/app/uow"
	domainassets "apexrentals/internal/domain/assets"
	domainbooking "apexrentals/internal/domain/booking"
	"apexrentals/internal/domain/shared/money"
	domainuser "apexrentals/internal/domain/user"
)

const (
	ownerEarningsKey = "earnings.owner"
	recentLimit      = 10
)

type OwnerEarningsQuery struct {
	OwnerID   string          `json:"owner_id" validate:"required"`
	OwnerRole domainuser.Role `json:"-"`
}

func (q OwnerEarningsQuery) Key() string                { return ownerEarningsKey }
func (q OwnerEarningsQuery) ActorRole() domainuser.Role { return q.OwnerRole }
func (q OwnerEarningsQuery) AllowedRoles() []domainuser.Role {
	return []domainuser.Role{domainuser.RoleOwner}
}

// OwnerEarningsHandler sums bookings received on the owner's assets. Cancelled
// bookings are ignored; completed ones count as confirmed.
type OwnerEarningsHandler struct {
	UoWFactory uow.UoWFactory
	Currency   string
}

func (h *OwnerEarningsHandler) Handle(ctx context.Context, q OwnerEarningsQuery) (dto.Earnings, error) {
	type snapshot struct {
		bookings []*domainbooking.Booking
		assets   map[domainassets.AssetID]*domainassets.Asset
	}
	snap, err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) (snapshot, error) {
		received, err := unit.Bookings().ListByOwner(ctx, domainuser.ID(q.OwnerID))
		if err != nil {
			return snapshot{}, err
		}
		owned, err := unit.Assets().Search(ctx, domainassets.SearchParams{Owner: domainassets.OwnerID(q.OwnerID), Limit: 200})
		if err != nil {
			return snapshot{}, err
		}
		byID := make(map[domainassets.AssetID]*domainassets.Asset, len(owned))
		for _, a := range owned {
			byID[a.ID] = a
		}
		return snapshot{bookings: received, assets: byID}, nil
	})
	if err != nil {
		return dto.Earnings{}, err
	}
	return Summarize(q.OwnerID, h.currency(), snap.bookings, snap.assets), nil
}

func (h *OwnerEarningsHandler) currency() string {
	if h.Currency == "" {
		return money.DefaultCurrency
	}
	return h.Currency
}

// Summarize builds the earnings view. Bookings in another currency than the
// reporting one are left out of the sums.
func Summarize(ownerID, currency string, bookings []*domainbooking.Booking, assets map[domainassets.AssetID]*domainassets.Asset) dto.Earnings {
	var confirmed, pending int64
	var confirmedCount, pendingCount int
	perAsset := make(map[domainassets.AssetID]*dto.AssetEarnings)
	perAssetCents := make(map[domainassets.AssetID]int64)
	counted := make([]*domainbooking.Booking, 0, len(bookings))

	for _, b := range bookings {
		if b.Status == domainbooking.StatusCancelled || b.Total.Currency != currency {
			continue
		}
		counted = append(counted, b)
		switch b.Status {
		case domainbooking.StatusConfirmed, domainbooking.StatusCompleted:
			confirmed += b.Total.Amount
			confirmedCount++
		case domainbooking.StatusPending:
			pending += b.Total.Amount
			pendingCount++
		}
		entry, ok := perAsset[b.AssetID]
		if !ok {
			entry = &dto.AssetEarnings{AssetID: string(b.AssetID)}
			if a, found := assets[b.AssetID]; found {
				entry.Title = a.Title
				entry.Category = string(a.Category)
			}
			perAsset[b.AssetID] = entry
		}
		entry.Bookings++
		perAssetCents[b.AssetID] += b.Total.Amount
	}

	byAsset := make([]dto.AssetEarnings, 0, len(perAsset))
	for id, entry := range perAsset {
		entry.Earnings = dto.MapMoney(money.Money{Amount: perAssetCents[id], Currency: currency})
		byAsset = append(byAsset, *entry)
	}
	sort.Slice(byAsset, func(i, j int) bool {
		if byAsset[i].Earnings.AmountCents == byAsset[j].Earnings.AmountCents {
			return byAsset[i].AssetID < byAsset[j].AssetID
		}
		return byAsset[i].Earnings.AmountCents > byAsset[j].Earnings.AmountCents
	})

	sort.SliceStable(counted, func(i, j int) bool { return counted[i].CreatedAt.After(counted[j].CreatedAt) })
	if len(counted) > recentLimit {
		counted = counted[:recentLimit]
	}

	return dto.Earnings{
		OwnerID:        ownerID,
		Currency:       currency,
		Total:          dto.MapMoney(money.Money{Amount: confirmed + pending, Currency: currency}),
		Confirmed:      dto.MapMoney(money.Money{Amount: confirmed, Currency: currency}),
		Pending:        dto.MapMoney(money.Money{Amount: pending, Currency: currency}),
		BookingsCount:  confirmedCount + pendingCount,
		ConfirmedCount: confirmedCount,
		PendingCount:   pendingCount,
		ByAsset:        byAsset,
		Recent:         dto.MapBookings(counted),
	}
}

var (
	_ queries.Handler[OwnerEarningsQuery, dto.Earnings] = (*OwnerEarningsHandler)(nil)
	_ middleware.RoleRestricted                         = OwnerEarningsQuery{}
)
