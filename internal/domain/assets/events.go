package assets

import "time"

type AssetListed struct {
	AssetID  AssetID
	OwnerID  OwnerID
	Category Category
	At       time.Time
}

func (e AssetListed) EventName() string     { return "asset.listed" }
func (e AssetListed) AggregateID() string   { return string(e.AssetID) }
func (e AssetListed) OccurredAt() time.Time { return e.At }

type AssetUpdated struct {
	AssetID AssetID
	At      time.Time
}

func (e AssetUpdated) EventName() string     { return "asset.updated" }
func (e AssetUpdated) AggregateID() string   { return string(e.AssetID) }
func (e AssetUpdated) OccurredAt() time.Time { return e.At }

type AssetAvailabilityChanged struct {
	AssetID   AssetID
	Available bool
	At        time.Time
}

func (e AssetAvailabilityChanged) EventName() string     { return "asset.availability_changed" }
func (e AssetAvailabilityChanged) AggregateID() string   { return string(e.AssetID) }
func (e AssetAvailabilityChanged) OccurredAt() time.Time { return e.At }

type AssetDeleted struct {
	AssetID AssetID
	OwnerID OwnerID
	At      time.Time
}

func (e AssetDeleted) EventName() string     { return "asset.deleted" }
func (e AssetDeleted) AggregateID() string   { return string(e.AssetID) }
func (e AssetDeleted) OccurredAt() time.Time { return e.At }
