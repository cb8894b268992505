package reviews

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"apexrentals/internal/app/commands"
	"apexrentals/internal/app/dto"
	"apexrentals/internal/app/outbox"
	"apexrentals/internal/app/uow"
	domainbooking "apexrentals/internal/domain/booking"
	domainreviews "apexrentals/internal/domain/reviews"
	domainuser "apexrentals/internal/domain/user"
)

const submitReviewKey = "reviews.submit"

// SubmitReviewCommand reviews the asset or the other participant of a
// completed booking.
type SubmitReviewCommand struct {
	ReviewID   string `json:"review_id"`
	BookingID  string `json:"booking_id" validate:"required"`
	ReviewerID string `json:"reviewer_id" validate:"required"`
	RevieweeID string `json:"reviewee_id" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=asset user"`
	Rating     int    `json:"rating" validate:"min=1,max=5"`
	Comment    string `json:"comment" validate:"max=2000"`
}

func (c SubmitReviewCommand) Key() string { return submitReviewKey }

type SubmitReviewHandler struct {
	UoWFactory uow.UoWFactory
	Events     outbox.Recorder
	Now        func() time.Time
	Logger     *slog.Logger
}

func (h *SubmitReviewHandler) Handle(ctx context.Context, cmd SubmitReviewCommand) (*dto.Review, error) {
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now().UTC()
	}
	id := cmd.ReviewID
	if id == "" {
		id = uuid.NewString()
	}

	review, err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) (*domainreviews.Review, error) {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return nil, err
		}
		review, err := domainreviews.Submit(domainreviews.SubmitParams{
			ID:         domainreviews.ReviewID(id),
			Booking:    b,
			ReviewerID: domainuser.ID(cmd.ReviewerID),
			RevieweeID: domainuser.ID(cmd.RevieweeID),
			Type:       domainreviews.Type(cmd.Type),
			Rating:     cmd.Rating,
			Comment:    cmd.Comment,
			CreatedAt:  now,
		})
		if err != nil {
			return nil, err
		}
		exists, err := unit.Reviews().Exists(ctx, review.Key())
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, domainreviews.ErrAlreadyReviewed
		}
		if err := unit.Reviews().Save(ctx, review); err != nil {
			return nil, err
		}
		if err := h.Events.Record(ctx, review.Drain()); err != nil {
			return nil, err
		}
		return review, nil
	})
	if err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("review submitted", "review_id", review.ID, "booking_id", review.BookingID, "type", review.Type, "rating", review.Rating)
	}
	result := dto.MapReview(review)
	return &result, nil
}

var _ commands.Handler[SubmitReviewCommand, *dto.Review] = (*SubmitReviewHandler)(nil)
