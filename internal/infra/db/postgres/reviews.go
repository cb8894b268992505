package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	domainassets "apexrentals/internal/domain/assets"
	domainbooking "apexrentals/internal/domain/booking"
	domainreviews "apexrentals/internal/domain/reviews"
	domainuser "apexrentals/internal/domain/user"
)

type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Exists(ctx context.Context, key domainreviews.Key) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, conn(ctx, r.db), &exists, `SELECT EXISTS (
		SELECT 1 FROM reviews WHERE booking_id = $1 AND reviewer_id = $2 AND reviewee_id = $3 AND type = $4)`,
		string(key.BookingID), string(key.ReviewerID), string(key.RevieweeID), string(key.Type))
	return exists, err
}

func (r *ReviewRepository) Save(ctx context.Context, review *domainreviews.Review) error {
	_, err := sqlx.NamedExecContext(ctx, conn(ctx, r.db), `INSERT INTO reviews
		(id, booking_id, asset_id, reviewer_id, reviewee_id, type, rating, comment, created_at)
		VALUES (:id, :booking_id, :asset_id, :reviewer_id, :reviewee_id, :type, :rating, :comment, :created_at)`,
		reviewRow{
			ID:         string(review.ID),
			BookingID:  string(review.BookingID),
			AssetID:    string(review.AssetID),
			ReviewerID: string(review.ReviewerID),
			RevieweeID: string(review.RevieweeID),
			Type:       string(review.Type),
			Rating:     review.Rating,
			Comment:    review.Comment,
			CreatedAt:  review.CreatedAt,
		})
	if pqCode(err) == codeUniqueViolation {
		return domainreviews.ErrAlreadyReviewed
	}
	return err
}

const reviewColumns = `id, booking_id, asset_id, reviewer_id, reviewee_id, type, rating, comment, created_at`

func (r *ReviewRepository) ListByAsset(ctx context.Context, assetID domainassets.AssetID) ([]*domainreviews.Review, error) {
	return r.list(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE asset_id = $1 AND type = $2 ORDER BY created_at DESC, id`,
		string(assetID), string(domainreviews.TypeAsset))
}

func (r *ReviewRepository) ListByReviewee(ctx context.Context, revieweeID domainuser.ID) ([]*domainreviews.Review, error) {
	return r.list(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE reviewee_id = $1 ORDER BY created_at DESC, id`, string(revieweeID))
}

func (r *ReviewRepository) ListByReviewer(ctx context.Context, reviewerID domainuser.ID) ([]*domainreviews.Review, error) {
	return r.list(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE reviewer_id = $1 ORDER BY created_at DESC, id`, string(reviewerID))
}

func (r *ReviewRepository) list(ctx context.Context, query string, args ...any) ([]*domainreviews.Review, error) {
	var rows []reviewRow
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]*domainreviews.Review, 0, len(rows))
	for _, row := range rows {
		out = append(out, &domainreviews.Review{
			ID:         domainreviews.ReviewID(row.ID),
			BookingID:  domainbooking.BookingID(row.BookingID),
			AssetID:    domainassets.AssetID(row.AssetID),
			ReviewerID: domainuser.ID(row.ReviewerID),
			RevieweeID: domainuser.ID(row.RevieweeID),
			Type:       domainreviews.Type(row.Type),
			Rating:     row.Rating,
			Comment:    row.Comment,
			CreatedAt:  row.CreatedAt.UTC(),
		})
	}
	return out, nil
}

type reviewRow struct {
	ID         string    `db:"id"`
	BookingID  string    `db:"booking_id"`
	AssetID    string    `db:"asset_id"`
	ReviewerID string    `db:"reviewer_id"`
	RevieweeID string    `db:"reviewee_id"`
	Type       string    `db:"type"`
	Rating     int       `db:"rating"`
	Comment    string    `db:"comment"`
	CreatedAt  time.Time `db:"created_at"`
}

var _ domainreviews.Repository = (*ReviewRepository)(nil)
