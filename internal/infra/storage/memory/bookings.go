package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainassets "apexrentals/internal/domain/assets"
	domainbooking "apexrentals/internal/domain/booking"
	domainuser "apexrentals/internal/domain/user"
)

// BookingRepository holds one mutex across the overlap check and the insert,
// so two overlapping Insert calls can never both succeed.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return b.Clone(), nil
}

func (r *BookingRepository) Insert(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[b.ID]; exists {
		return domainbooking.ErrBookingConflict
	}
	if b.Status.Blocking() {
		if conflicts := domainbooking.FindConflicts(b.Range, r.windowsLocked(b.AssetID, domainbooking.BlockingStatuses())); len(conflicts) > 0 {
			return domainbooking.ErrBookingConflict
		}
	}
	b.Version = 1
	r.items[b.ID] = b.Clone()
	return nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[b.ID]
	if !ok {
		return domainbooking.ErrBookingNotFound
	}
	if existing.Version != b.Version {
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version++
	r.items[b.ID] = b.Clone()
	return nil
}

func (r *BookingRepository) WindowsByAsset(ctx context.Context, assetID domainassets.AssetID, statuses []domainbooking.Status) ([]domainbooking.Window, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.windowsLocked(assetID, statuses), nil
}

func (r *BookingRepository) windowsLocked(assetID domainassets.AssetID, statuses []domainbooking.Status) []domainbooking.Window {
	out := make([]domainbooking.Window, 0)
	for _, b := range r.items {
		if b.AssetID != assetID || !statusIn(b.Status, statuses) {
			continue
		}
		out = append(out, b.Window())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Range.Start.Equal(out[j].Range.Start) {
			return out[i].BookingID < out[j].BookingID
		}
		return out[i].Range.Start.Before(out[j].Range.Start)
	})
	return out
}

func (r *BookingRepository) ListByClient(ctx context.Context, clientID domainuser.ID) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool { return b.ClientID == clientID }), nil
}

func (r *BookingRepository) ListByOwner(ctx context.Context, ownerID domainuser.ID) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool { return b.OwnerID == ownerID }), nil
}

func (r *BookingRepository) DeleteExpiredPending(ctx context.Context, before time.Time, participant domainuser.ID) ([]*domainbooking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	purged := make([]*domainbooking.Booking, 0)
	for id, b := range r.items {
		if b.Status != domainbooking.StatusPending || !b.Range.Start.Before(before) {
			continue
		}
		if participant != "" && !b.IsParticipant(participant) {
			continue
		}
		purged = append(purged, b.Clone())
		delete(r.items, id)
	}
	return purged, nil
}

func (r *BookingRepository) filter(keep func(*domainbooking.Booking) bool) []*domainbooking.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if keep(b) {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func statusIn(status domainbooking.Status, set []domainbooking.Status) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
