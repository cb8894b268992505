package reviews

import (
	"context"
	"errors"

	"apexrentals/internal/app/dto"
	"apexrentals/internal/app/queries"
	"apexrentals/internal/app/uow"
	domainbooking "apexrentals/internal/domain/booking"
	domainreviews "apexrentals/internal/domain/reviews"
	domainuser "apexrentals/internal/domain/user"
)

const reviewEligibilityKey = "reviews.eligibility"

// ReviewEligibilityQuery reports which reviews the viewer may still submit
// for a booking. Strangers get ErrNotParticipant; an unfinished booking is
// an answer, not an error.
type ReviewEligibilityQuery struct {
	BookingID string `json:"booking_id" validate:"required"`
	ViewerID  string `json:"viewer_id" validate:"required"`
}

func (q ReviewEligibilityQuery) Key() string { return reviewEligibilityKey }

type ReviewEligibilityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ReviewEligibilityHandler) Handle(ctx context.Context, q ReviewEligibilityQuery) (dto.ReviewEligibility, error) {
	viewer := domainuser.ID(q.ViewerID)
	return uow.Run(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) (dto.ReviewEligibility, error) {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(q.BookingID))
		if err != nil {
			return dto.ReviewEligibility{}, err
		}
		out := dto.ReviewEligibility{PossibleReviews: []dto.PossibleReview{}, Booking: dto.MapBooking(b)}

		candidates, err := domainreviews.Candidates(b, viewer)
		if errors.Is(err, domainreviews.ErrBookingNotCompleted) {
			out.Reason = "booking is not completed"
			return out, nil
		}
		if err != nil {
			return dto.ReviewEligibility{}, err
		}
		for _, key := range candidates {
			taken, err := unit.Reviews().Exists(ctx, key)
			if err != nil {
				return dto.ReviewEligibility{}, err
			}
			if taken {
				continue
			}
			out.PossibleReviews = append(out.PossibleReviews, dto.PossibleReview{
				Type:        string(key.Type),
				RevieweeID:  string(key.RevieweeID),
				Description: describe(key, b),
			})
		}
		out.CanReview = len(out.PossibleReviews) > 0
		if !out.CanReview {
			out.Reason = "all reviews already submitted"
		}
		return out, nil
	})
}

func describe(key domainreviews.Key, b *domainbooking.Booking) string {
	switch {
	case key.Type == domainreviews.TypeAsset:
		return "Review the asset"
	case key.RevieweeID == b.OwnerID:
		return "Review the owner"
	default:
		return "Review the client"
	}
}

var _ queries.Handler[ReviewEligibilityQuery, dto.ReviewEligibility] = (*ReviewEligibilityHandler)(nil)
