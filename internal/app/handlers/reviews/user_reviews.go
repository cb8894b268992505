package reviews

import (
	"context"

	"apexrentals/internal/app/dto"
	"apexrentals/internal/app/queries"
	"apexrentals/internal/app/uow"
	domainreviews "apexrentals/internal/domain/reviews"
	domainuser "apexrentals/internal/domain/user"
)

const (
	userReviewsKey = "reviews.user.list"
	myReviewsKey   = "reviews.mine"
)

// UserReviewsQuery lists the user-type reviews a person received.
type UserReviewsQuery struct {
	UserID string `json:"user_id" validate:"required"`
}

func (q UserReviewsQuery) Key() string { return userReviewsKey }

type UserReviewsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *UserReviewsHandler) Handle(ctx context.Context, q UserReviewsQuery) (dto.UserReviews, error) {
	userID := domainuser.ID(q.UserID)
	received, err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) ([]*domainreviews.Review, error) {
		if _, err := unit.Users().ByID(ctx, userID); err != nil {
			return nil, err
		}
		return unit.Reviews().ListByReviewee(ctx, userID)
	})
	if err != nil {
		return dto.UserReviews{}, err
	}
	list := domainreviews.OfType(received, domainreviews.TypeUser)
	return dto.UserReviews{
		UserID:        q.UserID,
		Items:         dto.MapReviews(list),
		Total:         len(list),
		AverageRating: domainreviews.AverageRating(list),
	}, nil
}

// MyReviewsQuery returns both directions for the caller. AverageRating
// covers every review received, asset reviews included.
type MyReviewsQuery struct {
	UserID string `json:"user_id" validate:"required"`
}

func (q MyReviewsQuery) Key() string { return myReviewsKey }

type MyReviewsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *MyReviewsHandler) Handle(ctx context.Context, q MyReviewsQuery) (dto.MyReviews, error) {
	userID := domainuser.ID(q.UserID)
	type lists struct {
		given, received []*domainreviews.Review
	}
	res, err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) (lists, error) {
		given, err := unit.Reviews().ListByReviewer(ctx, userID)
		if err != nil {
			return lists{}, err
		}
		received, err := unit.Reviews().ListByReviewee(ctx, userID)
		if err != nil {
			return lists{}, err
		}
		return lists{given: given, received: received}, nil
	})
	if err != nil {
		return dto.MyReviews{}, err
	}
	return dto.MyReviews{
		Given:         dto.MapReviews(res.given),
		Received:      dto.MapReviews(res.received),
		TotalGiven:    len(res.given),
		TotalReceived: len(res.received),
		AverageRating: domainreviews.AverageRating(res.received),
	}, nil
}

var _ queries.Handler[UserReviewsQuery, dto.UserReviews] = (*UserReviewsHandler)(nil)
var _ queries.Handler[MyReviewsQuery, dto.MyReviews] = (*MyReviewsHandler)(nil)
