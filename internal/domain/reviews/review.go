package reviews

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"apexrentals/internal/domain/assets"
	"apexrentals/internal/domain/booking"
	"apexrentals/internal/domain/shared/events"
	"apexrentals/internal/domain/user"
)

var (
	ErrInvalidRating       = errors.New("reviews: rating must be between 1 and 5")
	ErrInvalidType         = errors.New("reviews: type must be asset or user")
	ErrBookingNotCompleted = errors.New("reviews: only completed bookings can be reviewed")
	ErrNotParticipant      = errors.New("reviews: reviewer did not take part in the booking")
	ErrInvalidReviewee     = errors.New("reviews: reviewee must be the other participant")
	ErrSelfReview          = errors.New("reviews: cannot review yourself")
	ErrAlreadyReviewed     = errors.New("reviews: already reviewed")
	ErrNotFound            = errors.New("reviews: not found")
)

type ReviewID string

type Type string

const (
	TypeAsset Type = "asset"
	TypeUser  Type = "user"
)

func ParseType(raw string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(raw))) {
	case TypeAsset:
		return TypeAsset, nil
	case TypeUser:
		return TypeUser, nil
	default:
		return "", ErrInvalidType
	}
}

type Review struct {
	ID         ReviewID
	BookingID  booking.BookingID
	AssetID    assets.AssetID
	ReviewerID user.ID
	RevieweeID user.ID
	Type       Type
	Rating     int
	Comment    string
	CreatedAt  time.Time
	events.EventRecorder
}

// Key identifies the one review allowed per booking, reviewer, reviewee and type.
type Key struct {
	BookingID  booking.BookingID
	ReviewerID user.ID
	RevieweeID user.ID
	Type       Type
}

func (r *Review) Key() Key {
	return Key{BookingID: r.BookingID, ReviewerID: r.ReviewerID, RevieweeID: r.RevieweeID, Type: r.Type}
}

type Repository interface {
	Exists(ctx context.Context, key Key) (bool, error)
	// Save fails with ErrAlreadyReviewed when the key is taken.
	Save(ctx context.Context, review *Review) error
	ListByAsset(ctx context.Context, assetID assets.AssetID) ([]*Review, error)
	// ListByReviewee and ListByReviewer return every type, newest first.
	ListByReviewee(ctx context.Context, revieweeID user.ID) ([]*Review, error)
	ListByReviewer(ctx context.Context, reviewerID user.ID) ([]*Review, error)
}

type SubmitParams struct {
	ID         ReviewID
	Booking    *booking.Booking
	ReviewerID user.ID
	RevieweeID user.ID
	Type       Type
	Rating     int
	Comment    string
	CreatedAt  time.Time
}

// Submit validates the review against the booking it refers to.
func Submit(params SubmitParams) (*Review, error) {
	if params.Rating < 1 || params.Rating > 5 {
		return nil, ErrInvalidRating
	}
	kind, err := ParseType(string(params.Type))
	if err != nil {
		return nil, err
	}
	b := params.Booking
	if b == nil {
		return nil, booking.ErrBookingNotFound
	}
	if b.Status != booking.StatusCompleted {
		return nil, ErrBookingNotCompleted
	}
	if !b.IsParticipant(params.ReviewerID) {
		return nil, ErrNotParticipant
	}
	if params.ReviewerID == params.RevieweeID {
		return nil, ErrSelfReview
	}
	if !b.IsParticipant(params.RevieweeID) {
		return nil, ErrInvalidReviewee
	}

	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	review := &Review{
		ID:         params.ID,
		BookingID:  b.ID,
		AssetID:    b.AssetID,
		ReviewerID: params.ReviewerID,
		RevieweeID: params.RevieweeID,
		Type:       kind,
		Rating:     params.Rating,
		Comment:    strings.TrimSpace(params.Comment),
		CreatedAt:  now.UTC(),
	}
	review.Record(ReviewSubmitted{
		ReviewID:  review.ID,
		BookingID: review.BookingID,
		AssetID:   review.AssetID,
		Type:      review.Type,
		Rating:    review.Rating,
		At:        review.CreatedAt,
	})
	return review, nil
}

// Candidates lists the reviews the viewer may still write for a booking,
// before existing reviews are subtracted. Clients review both the owner and
// the asset; owners review the client.
func Candidates(b *booking.Booking, viewer user.ID) ([]Key, error) {
	if b == nil {
		return nil, booking.ErrBookingNotFound
	}
	if !b.IsParticipant(viewer) {
		return nil, ErrNotParticipant
	}
	if b.Status != booking.StatusCompleted {
		return nil, ErrBookingNotCompleted
	}
	if viewer == b.OwnerID {
		return []Key{{BookingID: b.ID, ReviewerID: viewer, RevieweeID: b.ClientID, Type: TypeUser}}, nil
	}
	return []Key{
		{BookingID: b.ID, ReviewerID: viewer, RevieweeID: b.OwnerID, Type: TypeUser},
		{BookingID: b.ID, ReviewerID: viewer, RevieweeID: b.OwnerID, Type: TypeAsset},
	}, nil
}

// OfType keeps the reviews of one type, preserving order.
func OfType(list []*Review, kind Type) []*Review {
	out := make([]*Review, 0, len(list))
	for _, r := range list {
		if r.Type == kind {
			out = append(out, r)
		}
	}
	return out
}

// AverageRating rounds the mean rating to one decimal; zero for no reviews.
func AverageRating(list []*Review) float64 {
	if len(list) == 0 {
		return 0
	}
	sum := 0
	for _, r := range list {
		sum += r.Rating
	}
	return math.Round(float64(sum)/float64(len(list))*10) / 10
}
