package booking

import (
	"time"

	"apexrentals/internal/domain/assets"
	"apexrentals/internal/domain/shared/daterange"
	"apexrentals/internal/domain/shared/money"
	"apexrentals/internal/domain/user"
)

type BookingRequested struct {
	BookingID BookingID
	AssetID   assets.AssetID
	OwnerID   user.ID
	ClientID  user.ID
	Range     daterange.DateRange
	Total     money.Money
	At        time.Time
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

// BookingStatusChanged is published as booking.<new status>.
type BookingStatusChanged struct {
	BookingID BookingID
	AssetID   assets.AssetID
	From      Status
	To        Status
	ActorID   user.ID
	At        time.Time
}

func (e BookingStatusChanged) EventName() string     { return "booking." + string(e.To) }
func (e BookingStatusChanged) AggregateID() string   { return string(e.BookingID) }
func (e BookingStatusChanged) OccurredAt() time.Time { return e.At }

// BookingExpired is emitted per purged pending booking by the cleanup job.
type BookingExpired struct {
	BookingID BookingID
	AssetID   assets.AssetID
	At        time.Time
}

func (e BookingExpired) EventName() string     { return "booking.expired" }
func (e BookingExpired) AggregateID() string   { return string(e.BookingID) }
func (e BookingExpired) OccurredAt() time.Time { return e.At }
