package booking

import (
	"fmt"
	"time"

	"apexrentals/internal/domain/assets"
	"apexrentals/internal/domain/shared/daterange"
	"apexrentals/internal/domain/shared/money"
)

// Availability is the outcome of CheckAvailability.
type Availability struct {
	AssetID   assets.AssetID
	Range     daterange.DateRange
	Available bool
	Conflicts []Window
}

// Quote is the outcome of ComputeTotalPrice.
type Quote struct {
	Range daterange.DateRange
	Days  int
	Rate  money.Rate
	Total money.Money
}

// CheckAvailability decides whether [start, end) is bookable against the
// existing windows of one asset. Both dates are reduced to days first; only
// pending and confirmed windows block. It has no side effects.
func CheckAvailability(assetID assets.AssetID, start, end time.Time, existing []Window, now time.Time) (Availability, error) {
	requested, err := daterange.New(start, end)
	if err != nil {
		return Availability{}, err
	}
	if requested.Start.Before(daterange.Day(now)) {
		return Availability{}, ErrDateInPast
	}
	conflicts := FindConflicts(requested, existing)
	return Availability{
		AssetID:   assetID,
		Range:     requested,
		Available: len(conflicts) == 0,
		Conflicts: conflicts,
	}, nil
}

// FindConflicts returns the blocking windows that intersect requested, in
// input order. The result is never nil.
func FindConflicts(requested daterange.DateRange, existing []Window) []Window {
	conflicts := make([]Window, 0)
	for _, w := range existing {
		if !w.Status.Blocking() {
			continue
		}
		if requested.Overlaps(w.Range) {
			conflicts = append(conflicts, w)
		}
	}
	return conflicts
}

// ComputeTotalPrice bills ceil((end-start)/24h) days at pricePerDay and
// rounds the total to cents, half-up.
func ComputeTotalPrice(start, end time.Time, pricePerDay money.Rate) (Quote, error) {
	dr, err := daterange.New(start, end)
	if err != nil {
		return Quote{}, err
	}
	days := dr.Days()
	if days <= 0 {
		return Quote{}, ErrInvalidRange
	}
	if !pricePerDay.IsPositive() {
		return Quote{}, ErrInvalidPrice
	}
	total, err := pricePerDay.Times(int64(days))
	if err != nil {
		return Quote{}, fmt.Errorf("%w: %w", ErrInvalidPrice, err)
	}
	return Quote{
		Range: dr,
		Days:  days,
		Rate:  pricePerDay,
		Total: total,
	}, nil
}
