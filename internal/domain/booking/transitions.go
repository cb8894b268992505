package booking

import (
	"time"

	"apexrentals/internal/domain/user"
)

// Actor is whoever asks for a status change.
type Actor struct {
	ID   user.ID
	Role user.Role
}

type party string

const (
	partyOwner  party = "owner"
	partyClient party = "client"
)

type transitionKey struct {
	from Status
	to   Status
}

var transitions = map[transitionKey][]party{
	{StatusPending, StatusConfirmed}:   {partyOwner},
	{StatusPending, StatusCancelled}:   {partyOwner, partyClient},
	{StatusConfirmed, StatusCancelled}: {partyClient},
	{StatusConfirmed, StatusCompleted}: {partyOwner},
}

// CanTransition reports whether from -> to appears in the transition table
// for anyone.
func CanTransition(from, to Status) bool {
	_, ok := transitions[transitionKey{from, to}]
	return ok
}

// Transition moves the booking to the requested status on behalf of actor.
// Non-participants get ErrNotAuthorized; anything outside the table, or
// completing before the end date has passed, gets ErrInvalidTransition.
func (b *Booking) Transition(actor Actor, to Status, now time.Time) error {
	if !b.IsParticipant(actor.ID) {
		return ErrNotAuthorized
	}
	allowed, ok := transitions[transitionKey{b.Status, to}]
	if !ok {
		return ErrInvalidTransition
	}
	if !partyAllowed(allowed, b.partyOf(actor)) {
		return ErrInvalidTransition
	}
	if to == StatusCompleted && !now.After(b.Range.End) {
		return ErrInvalidTransition
	}

	from := b.Status
	b.Status = to
	b.UpdatedAt = now.UTC()
	b.Record(BookingStatusChanged{
		BookingID: b.ID,
		AssetID:   b.AssetID,
		From:      from,
		To:        to,
		ActorID:   actor.ID,
		At:        b.UpdatedAt,
	})
	return nil
}

func (b *Booking) partyOf(actor Actor) party {
	if actor.ID == b.OwnerID {
		return partyOwner
	}
	return partyClient
}

func partyAllowed(allowed []party, p party) bool {
	for _, candidate := range allowed {
		if candidate == p {
			return true
		}
	}
	return false
}
