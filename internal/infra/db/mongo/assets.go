package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainassets "apexrentals/internal/domain/assets"
	"apexrentals/internal/domain/shared/money"
)

type AssetRepository struct {
	col *mongo.Collection
}

func NewAssetRepository(db *mongo.Database) *AssetRepository {
	return &AssetRepository{col: db.Collection("assets")}
}

func (r *AssetRepository) ByID(ctx context.Context, id domainassets.AssetID) (*domainassets.Asset, error) {
	var doc assetDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainassets.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save upserts with an optimistic version check.
func (r *AssetRepository) Save(ctx context.Context, asset *domainassets.Asset) error {
	doc := newAssetDocument(asset)
	doc.Version = asset.Version + 1
	res, err := r.col.ReplaceOne(ctx,
		bson.M{"_id": doc.ID, "version": asset.Version},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainassets.ErrConcurrentUpdate
		}
		return txError(err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainassets.ErrConcurrentUpdate
	}
	asset.Version = doc.Version
	return nil
}

func (r *AssetRepository) Delete(ctx context.Context, id domainassets.AssetID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainassets.ErrNotFound
	}
	return nil
}

func (r *AssetRepository) Search(ctx context.Context, params domainassets.SearchParams) ([]*domainassets.Asset, error) {
	n := params.Normalized()
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(n.Offset)).
		SetLimit(int64(n.Limit))
	cur, err := r.col.Find(ctx, searchFilter(n), opts)
	if err != nil {
		return nil, err
	}
	var docs []assetDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainassets.Asset, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

// searchFilter expects normalized params.
func searchFilter(p domainassets.SearchParams) bson.M {
	filter := bson.M{}
	if p.Owner != "" {
		filter["owner_id"] = string(p.Owner)
	}
	if p.Category != "" {
		filter["category"] = string(p.Category)
	}
	if p.LocationQuery != "" {
		filter["location"] = primitive.Regex{Pattern: regexp.QuoteMeta(p.LocationQuery), Options: "i"}
	}
	price := bson.M{}
	if p.PriceMinUnits > 0 {
		price["$gte"] = p.PriceMinUnits
	}
	if p.PriceMaxUnits > 0 {
		price["$lte"] = p.PriceMaxUnits
	}
	if len(price) > 0 {
		filter["price_units"] = price
	}
	if p.OnlyAvailable {
		filter["available"] = true
	}
	return filter
}

type assetDocument struct {
	ID          string          `bson:"_id"`
	OwnerID     string          `bson:"owner_id"`
	Title       string          `bson:"title"`
	Description string          `bson:"description,omitempty"`
	Category    string          `bson:"category"`
	Brand       string          `bson:"brand,omitempty"`
	Model       string          `bson:"model,omitempty"`
	Year        int             `bson:"year,omitempty"`
	Capacity    int             `bson:"capacity"`
	PriceUnits  int64           `bson:"price_units"`
	Currency    string          `bson:"currency"`
	Location    string          `bson:"location"`
	Latitude    *float64        `bson:"latitude,omitempty"`
	Longitude   *float64        `bson:"longitude,omitempty"`
	Available   bool            `bson:"available"`
	Images      []imageDocument `bson:"images"`
	CreatedAt   time.Time       `bson:"created_at"`
	UpdatedAt   time.Time       `bson:"updated_at"`
	Version     int64           `bson:"version"`
}

type imageDocument struct {
	URL     string `bson:"url"`
	Primary bool   `bson:"primary"`
}

func newAssetDocument(a *domainassets.Asset) assetDocument {
	images := make([]imageDocument, 0, len(a.Images))
	for _, img := range a.Images {
		images = append(images, imageDocument{URL: img.URL, Primary: img.Primary})
	}
	return assetDocument{
		ID:          string(a.ID),
		OwnerID:     string(a.Owner),
		Title:       a.Title,
		Description: a.Description,
		Category:    string(a.Category),
		Brand:       a.Brand,
		Model:       a.Model,
		Year:        a.Year,
		Capacity:    a.Capacity,
		PriceUnits:  a.PricePerDay.Units,
		Currency:    a.PricePerDay.Currency,
		Location:    a.Location,
		Latitude:    a.Latitude,
		Longitude:   a.Longitude,
		Available:   a.Available,
		Images:      images,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		Version:     a.Version,
	}
}

func (d assetDocument) toAggregate() *domainassets.Asset {
	images := make([]domainassets.Image, 0, len(d.Images))
	for _, img := range d.Images {
		images = append(images, domainassets.Image{URL: img.URL, Primary: img.Primary})
	}
	return &domainassets.Asset{
		ID:          domainassets.AssetID(d.ID),
		Owner:       domainassets.OwnerID(d.OwnerID),
		Title:       d.Title,
		Description: d.Description,
		Category:    domainassets.Category(d.Category),
		Brand:       d.Brand,
		Model:       d.Model,
		Year:        d.Year,
		Capacity:    d.Capacity,
		PricePerDay: money.Rate{Units: d.PriceUnits, Currency: d.Currency},
		Location:    d.Location,
		Latitude:    d.Latitude,
		Longitude:   d.Longitude,
		Available:   d.Available,
		Images:      images,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
		Version:     d.Version,
	}
}

var _ domainassets.Repository = (*AssetRepository)(nil)
