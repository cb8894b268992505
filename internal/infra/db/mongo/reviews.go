package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainassets "apexrentals/internal/domain/assets"
	domainbooking "apexrentals/internal/domain/booking"
	domainreviews "apexrentals/internal/domain/reviews"
	domainuser "apexrentals/internal/domain/user"
)

// ReviewRepository relies on a unique index over the review key.
type ReviewRepository struct {
	col *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{col: db.Collection("reviews")}
}

func (r *ReviewRepository) Exists(ctx context.Context, key domainreviews.Key) (bool, error) {
	err := r.col.FindOne(ctx, keyFilter(key), options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *ReviewRepository) Save(ctx context.Context, review *domainreviews.Review) error {
	if _, err := r.col.InsertOne(ctx, newReviewDocument(review)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainreviews.ErrAlreadyReviewed
		}
		return err
	}
	return nil
}

func (r *ReviewRepository) ListByAsset(ctx context.Context, assetID domainassets.AssetID) ([]*domainreviews.Review, error) {
	return r.find(ctx, bson.M{"asset_id": string(assetID), "type": string(domainreviews.TypeAsset)})
}

func (r *ReviewRepository) ListByReviewee(ctx context.Context, revieweeID domainuser.ID) ([]*domainreviews.Review, error) {
	return r.find(ctx, bson.M{"reviewee_id": string(revieweeID)})
}

func (r *ReviewRepository) ListByReviewer(ctx context.Context, reviewerID domainuser.ID) ([]*domainreviews.Review, error) {
	return r.find(ctx, bson.M{"reviewer_id": string(reviewerID)})
}

func (r *ReviewRepository) find(ctx context.Context, filter bson.M) ([]*domainreviews.Review, error) {
	cur, err := r.col.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	var docs []reviewDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainreviews.Review, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

func keyFilter(key domainreviews.Key) bson.M {
	return bson.M{
		"booking_id":  string(key.BookingID),
		"reviewer_id": string(key.ReviewerID),
		"reviewee_id": string(key.RevieweeID),
		"type":        string(key.Type),
	}
}

type reviewDocument struct {
	ID         string    `bson:"_id"`
	BookingID  string    `bson:"booking_id"`
	AssetID    string    `bson:"asset_id"`
	ReviewerID string    `bson:"reviewer_id"`
	RevieweeID string    `bson:"reviewee_id"`
	Type       string    `bson:"type"`
	Rating     int       `bson:"rating"`
	Comment    string    `bson:"comment,omitempty"`
	CreatedAt  time.Time `bson:"created_at"`
}

func newReviewDocument(r *domainreviews.Review) reviewDocument {
	return reviewDocument{
		ID:         string(r.ID),
		BookingID:  string(r.BookingID),
		AssetID:    string(r.AssetID),
		ReviewerID: string(r.ReviewerID),
		RevieweeID: string(r.RevieweeID),
		Type:       string(r.Type),
		Rating:     r.Rating,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt,
	}
}

func (d reviewDocument) toAggregate() *domainreviews.Review {
	return &domainreviews.Review{
		ID:         domainreviews.ReviewID(d.ID),
		BookingID:  domainbooking.BookingID(d.BookingID),
		AssetID:    domainassets.AssetID(d.AssetID),
		ReviewerID: domainuser.ID(d.ReviewerID),
		RevieweeID: domainuser.ID(d.RevieweeID),
		Type:       domainreviews.Type(d.Type),
		Rating:     d.Rating,
		Comment:    d.Comment,
		CreatedAt:  d.CreatedAt.UTC(),
	}
}

var _ domainreviews.Repository = (*ReviewRepository)(nil)
