package dto

import (
	"time"

	domainreviews "apexrentals/internal/domain/reviews"
)

type Review struct {
	ID         string    `json:"id"`
	BookingID  string    `json:"booking_id"`
	AssetID    string    `json:"asset_id"`
	ReviewerID string    `json:"reviewer_id"`
	RevieweeID string    `json:"reviewee_id"`
	Type       string    `json:"type"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type ReviewCollection struct {
	AssetID       string   `json:"asset_id"`
	Items         []Review `json:"items"`
	Total         int      `json:"total"`
	AverageRating float64  `json:"average_rating"`
}

type UserReviews struct {
	UserID        string   `json:"user_id"`
	Items         []Review `json:"items"`
	Total         int      `json:"total"`
	AverageRating float64  `json:"average_rating"`
}

type MyReviews struct {
	Given         []Review `json:"given"`
	Received      []Review `json:"received"`
	TotalGiven    int      `json:"total_given"`
	TotalReceived int      `json:"total_received"`
	AverageRating float64  `json:"average_rating"`
}

type PossibleReview struct {
	Type        string `json:"type"`
	RevieweeID  string `json:"reviewee_id"`
	Description string `json:"description"`
}

type ReviewEligibility struct {
	CanReview       bool             `json:"can_review"`
	Reason          string           `json:"reason,omitempty"`
	PossibleReviews []PossibleReview `json:"possible_reviews"`
	Booking         Booking          `json:"booking"`
}

func MapReviews(list []*domainreviews.Review) []Review {
	out := make([]Review, 0, len(list))
	for _, review := range list {
		out = append(out, MapReview(review))
	}
	return out
}

func MapReview(review *domainreviews.Review) Review {
	if review == nil {
		return Review{}
	}
	return Review{
		ID:         string(review.ID),
		BookingID:  string(review.BookingID),
		AssetID:    string(review.AssetID),
		ReviewerID: string(review.ReviewerID),
		RevieweeID: string(review.RevieweeID),
		Type:       string(review.Type),
		Rating:     review.Rating,
		Comment:    review.Comment,
		CreatedAt:  review.CreatedAt,
	}
}
