package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"apexrentals/internal/domain/assets"
	"apexrentals/internal/domain/shared/daterange"
	"apexrentals/internal/domain/shared/events"
	"apexrentals/internal/domain/shared/money"
	"apexrentals/internal/domain/user"
)

var (
	// ErrInvalidRange covers malformed or reversed dates.
	ErrInvalidRange = daterange.ErrInvalidRange
	ErrDateInPast   = fmt.Errorf("%w: dates must not be before today", ErrInvalidRange)

	ErrInvalidPrice      = errors.New("booking: price per day must be positive")
	ErrBookingConflict   = errors.New("booking: dates overlap an existing booking")
	ErrInvalidTransition = errors.New("booking: invalid status transition")
	ErrNotAuthorized     = errors.New("booking: actor is not allowed to perform this action")
	ErrBookingNotFound   = errors.New("booking: not found")
	ErrAssetUnavailable  = errors.New("booking: asset is not available for booking")
	ErrInvalidStatus     = errors.New("booking: unknown status")
	ErrConcurrentUpdate  = errors.New("booking: concurrent update")
	ErrIDRequired        = errors.New("booking: id is required")
	ErrAssetRequired     = errors.New("booking: asset is required")
	ErrClientRequired    = errors.New("booking: client is required")
	ErrSelfBooking       = errors.New("booking: owners cannot book their own asset")
)

type BookingID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending, nil
	case StatusConfirmed:
		return StatusConfirmed, nil
	case StatusCancelled:
		return StatusCancelled, nil
	case StatusCompleted:
		return StatusCompleted, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

// Blocking reports whether a booking in this status holds its dates.
func (s Status) Blocking() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// BlockingStatuses are the statuses that take part in overlap checks.
func BlockingStatuses() []Status {
	return []Status{StatusPending, StatusConfirmed}
}

// Window is the slice of a booking the evaluator needs.
type Window struct {
	BookingID BookingID
	Range     daterange.DateRange
	Status    Status
}

type Booking struct {
	ID             BookingID
	AssetID        assets.AssetID
	OwnerID        user.ID
	ClientID       user.ID
	Range          daterange.DateRange
	Days           int
	Total          money.Money
	Status         Status
	SpecialRequest string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	// Insert re-checks overlap against blocking bookings of the same asset
	// and stores the booking in one atomic step. Fails with ErrBookingConflict.
	Insert(ctx context.Context, booking *Booking) error
	// Save persists a status change; stale versions fail with ErrConcurrentUpdate.
	Save(ctx context.Context, booking *Booking) error
	WindowsByAsset(ctx context.Context, assetID assets.AssetID, statuses []Status) ([]Window, error)
	ListByClient(ctx context.Context, clientID user.ID) ([]*Booking, error)
	ListByOwner(ctx context.Context, ownerID user.ID) ([]*Booking, error)
	// DeleteExpiredPending removes pending bookings starting before the given
	// day and returns them. A non-empty participant limits the purge to
	// bookings that user made or received.
	DeleteExpiredPending(ctx context.Context, before time.Time, participant user.ID) ([]*Booking, error)
}

type CreateParams struct {
	ID             BookingID
	AssetID        assets.AssetID
	OwnerID        user.ID
	ClientID       user.ID
	Range          daterange.DateRange
	PricePerDay    money.Rate
	SpecialRequest string
	CreatedAt      time.Time
}

// NewBooking prices the range and returns a pending booking.
func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.AssetID)) == "" {
		return nil, ErrAssetRequired
	}
	if strings.TrimSpace(string(params.ClientID)) == "" {
		return nil, ErrClientRequired
	}
	if params.OwnerID == params.ClientID {
		return nil, ErrSelfBooking
	}
	quote, err := ComputeTotalPrice(params.Range.Start, params.Range.End, params.PricePerDay)
	if err != nil {
		return nil, err
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	b := &Booking{
		ID:             params.ID,
		AssetID:        params.AssetID,
		OwnerID:        params.OwnerID,
		ClientID:       params.ClientID,
		Range:          quote.Range,
		Days:           quote.Days,
		Total:          quote.Total,
		Status:         StatusPending,
		SpecialRequest: strings.TrimSpace(params.SpecialRequest),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	b.Record(BookingRequested{
		BookingID: b.ID,
		AssetID:   b.AssetID,
		OwnerID:   b.OwnerID,
		ClientID:  b.ClientID,
		Range:     b.Range,
		Total:     b.Total,
		At:        now,
	})
	return b, nil
}

func (b *Booking) Window() Window {
	return Window{BookingID: b.ID, Range: b.Range, Status: b.Status}
}

// IsParticipant reports whether id is the booking's client or the asset owner.
func (b *Booking) IsParticipant(id user.ID) bool {
	return id != "" && (id == b.ClientID || id == b.OwnerID)
}

// Clone returns a copy without pending events.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	c.EventRecorder = events.EventRecorder{}
	return &c
}

// MarkExpired records that a pending booking was purged before it started.
func (b *Booking) MarkExpired(now time.Time) {
	b.Record(BookingExpired{BookingID: b.ID, AssetID: b.AssetID, At: now.UTC()})
}
