package memory

import (
	"context"
	"sort"
	"sync"

	domainassets "apexrentals/internal/domain/assets"
	domainreviews "apexrentals/internal/domain/reviews"
	domainuser "apexrentals/internal/domain/user"
)

type ReviewRepository struct {
	mu    sync.RWMutex
	items map[domainreviews.Key]*domainreviews.Review
}

func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{items: make(map[domainreviews.Key]*domainreviews.Review)}
}

func (r *ReviewRepository) Exists(ctx context.Context, key domainreviews.Key) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.items[key]
	return ok, nil
}

func (r *ReviewRepository) Save(ctx context.Context, review *domainreviews.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := review.Key()
	if _, ok := r.items[key]; ok {
		return domainreviews.ErrAlreadyReviewed
	}
	stored := *review
	stored.ClearEvents()
	r.items[key] = &stored
	return nil
}

func (r *ReviewRepository) ListByAsset(ctx context.Context, assetID domainassets.AssetID) ([]*domainreviews.Review, error) {
	return r.filter(func(review *domainreviews.Review) bool {
		return review.AssetID == assetID && review.Type == domainreviews.TypeAsset
	}), nil
}

func (r *ReviewRepository) ListByReviewee(ctx context.Context, revieweeID domainuser.ID) ([]*domainreviews.Review, error) {
	return r.filter(func(review *domainreviews.Review) bool { return review.RevieweeID == revieweeID }), nil
}

func (r *ReviewRepository) ListByReviewer(ctx context.Context, reviewerID domainuser.ID) ([]*domainreviews.Review, error) {
	return r.filter(func(review *domainreviews.Review) bool { return review.ReviewerID == reviewerID }), nil
}

func (r *ReviewRepository) filter(keep func(*domainreviews.Review) bool) []*domainreviews.Review {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainreviews.Review, 0)
	for _, review := range r.items {
		if !keep(review) {
			continue
		}
		c := *review
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

var _ domainreviews.Repository = (*ReviewRepository)(nil)
