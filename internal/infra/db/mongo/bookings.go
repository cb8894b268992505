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
	"apexrentals/internal/domain/shared/daterange"
	"apexrentals/internal/domain/shared/money"
	domainuser "apexrentals/internal/domain/user"
)

const (
	bookingsCollection = "bookings"
	locksCollection    = "booking_locks"
)

// BookingRepository serialises inserts per asset by bumping a lock document
// inside the same transaction as the overlap query and the insert. Two
// overlapping transactions write the same lock document, so at most one commits.
type BookingRepository struct {
	db    *mongo.Database
	col   *mongo.Collection
	locks *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{db: db, col: db.Collection(bookingsCollection), locks: db.Collection(locksCollection)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Insert(ctx context.Context, b *domainbooking.Booking) error {
	if mongo.SessionFromContext(ctx) != nil {
		// A concurrent insert for the same asset bumped the lock first. The
		// caller re-runs the unit and the retry's overlap query decides.
		return txError(r.insertLocked(ctx, b))
	}
	session, err := r.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)
	// WithTransaction retries transient conflicts; the retry then sees the
	// winner's booking and reports the overlap.
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, r.insertLocked(sc, b)
	})
	return err
}

func (r *BookingRepository) insertLocked(ctx context.Context, b *domainbooking.Booking) error {
	if b.Status.Blocking() {
		_, err := r.locks.UpdateOne(ctx,
			bson.M{"_id": string(b.AssetID)},
			bson.M{"$inc": bson.M{"seq": 1}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return err
		}
		n, err := r.col.CountDocuments(ctx, overlapFilter(b.AssetID, b.Range))
		if err != nil {
			return err
		}
		if n > 0 {
			return domainbooking.ErrBookingConflict
		}
	}
	doc := newBookingDocument(b)
	doc.Version = 1
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainbooking.ErrBookingConflict
		}
		return err
	}
	b.Version = 1
	return nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	doc.Version = b.Version + 1
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID, "version": b.Version}, doc)
	if err != nil {
		return txError(err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.ByID(ctx, b.ID); err != nil {
			return err
		}
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) WindowsByAsset(ctx context.Context, assetID domainassets.AssetID, statuses []domainbooking.Status) ([]domainbooking.Window, error) {
	filter := bson.M{"asset_id": string(assetID), "status": bson.M{"$in": statusStrings(statuses)}}
	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}, {Key: "_id", Value: 1}})
	docs, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := make([]domainbooking.Window, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate().Window())
	}
	return out, nil
}

func (r *BookingRepository) ListByClient(ctx context.Context, clientID domainuser.ID) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"client_id": string(clientID)})
}

func (r *BookingRepository) ListByOwner(ctx context.Context, ownerID domainuser.ID) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"owner_id": string(ownerID)})
}

func (r *BookingRepository) DeleteExpiredPending(ctx context.Context, before time.Time, participant domainuser.ID) ([]*domainbooking.Booking, error) {
	filter := expiredFilter(before, participant)
	docs, err := r.find(ctx, filter, options.Find())
	if err != nil {
		return nil, err
	}
	purged := make([]*domainbooking.Booking, 0, len(docs))
	for _, d := range docs {
		// status is re-checked so a booking confirmed meanwhile survives
		res, err := r.col.DeleteOne(ctx, bson.M{"_id": d.ID, "status": string(domainbooking.StatusPending)})
		if err != nil {
			return purged, err
		}
		if res.DeletedCount == 1 {
			purged = append(purged, d.toAggregate())
		}
	}
	return purged, nil
}

func (r *BookingRepository) list(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	docs, err := r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]bookingDocument, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func overlapFilter(assetID domainassets.AssetID, rng daterange.DateRange) bson.M {
	return bson.M{
		"asset_id": string(assetID),
		"status":   bson.M{"$in": statusStrings(domainbooking.BlockingStatuses())},
		"start":    bson.M{"$lt": rng.End},
		"end":      bson.M{"$gt": rng.Start},
	}
}

func expiredFilter(before time.Time, participant domainuser.ID) bson.M {
	filter := bson.M{
		"status": string(domainbooking.StatusPending),
		"start":  bson.M{"$lt": before},
	}
	if participant != "" {
		filter["$or"] = bson.A{
			bson.M{"client_id": string(participant)},
			bson.M{"owner_id": string(participant)},
		}
	}
	return filter
}

func statusStrings(statuses []domainbooking.Status) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

type bookingDocument struct {
	ID             string    `bson:"_id"`
	AssetID        string    `bson:"asset_id"`
	OwnerID        string    `bson:"owner_id"`
	ClientID       string    `bson:"client_id"`
	Start          time.Time `bson:"start"`
	End            time.Time `bson:"end"`
	Days           int       `bson:"days"`
	TotalCents     int64     `bson:"total_cents"`
	Currency       string    `bson:"currency"`
	Status         string    `bson:"status"`
	SpecialRequest string    `bson:"special_request,omitempty"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
	Version        int64     `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:             string(b.ID),
		AssetID:        string(b.AssetID),
		OwnerID:        string(b.OwnerID),
		ClientID:       string(b.ClientID),
		Start:          b.Range.Start,
		End:            b.Range.End,
		Days:           b.Days,
		TotalCents:     b.Total.Amount,
		Currency:       b.Total.Currency,
		Status:         string(b.Status),
		SpecialRequest: b.SpecialRequest,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
		Version:        b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:             domainbooking.BookingID(d.ID),
		AssetID:        domainassets.AssetID(d.AssetID),
		OwnerID:        domainuser.ID(d.OwnerID),
		ClientID:       domainuser.ID(d.ClientID),
		Range:          daterange.DateRange{Start: daterange.Day(d.Start.UTC()), End: daterange.Day(d.End.UTC())},
		Days:           d.Days,
		Total:          money.Money{Amount: d.TotalCents, Currency: d.Currency},
		Status:         domainbooking.Status(d.Status),
		SpecialRequest: d.SpecialRequest,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
		Version:        d.Version,
	}
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
