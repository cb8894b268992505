package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	domainassets "apexrentals/internal/domain/assets"
	"apexrentals/internal/domain/shared/money"
)

type AssetRepository struct {
	db *sqlx.DB
}

func NewAssetRepository(db *sqlx.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

const assetColumns = `id, owner_id, title, description, category, brand, model, year, capacity,
	price_units, currency, location, latitude, longitude, available, images, created_at, updated_at, version`

func (r *AssetRepository) ByID(ctx context.Context, id domainassets.AssetID) (*domainassets.Asset, error) {
	var row assetRow
	err := sqlx.GetContext(ctx, conn(ctx, r.db), &row, `SELECT `+assetColumns+` FROM assets WHERE id = $1`, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainassets.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toAggregate()
}

// Save inserts new assets and updates existing ones under a version check.
func (r *AssetRepository) Save(ctx context.Context, asset *domainassets.Asset) error {
	row, err := newAssetRow(asset)
	if err != nil {
		return err
	}
	row.Version = asset.Version + 1
	query := `INSERT INTO assets (` + assetColumns + `)
		VALUES (:id, :owner_id, :title, :description, :category, :brand, :model, :year, :capacity,
			:price_units, :currency, :location, :latitude, :longitude, :available, :images, :created_at, :updated_at, :version)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title, description = EXCLUDED.description, category = EXCLUDED.category,
			brand = EXCLUDED.brand, model = EXCLUDED.model, year = EXCLUDED.year, capacity = EXCLUDED.capacity,
			price_units = EXCLUDED.price_units, currency = EXCLUDED.currency, location = EXCLUDED.location,
			latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude, available = EXCLUDED.available,
			images = EXCLUDED.images, updated_at = EXCLUDED.updated_at, version = EXCLUDED.version
		WHERE assets.version = :prev_version`
	res, err := sqlx.NamedExecContext(ctx, conn(ctx, r.db), query, versionedAssetRow{assetRow: row, PrevVersion: asset.Version})
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domainassets.ErrConcurrentUpdate
	}
	asset.Version = row.Version
	return nil
}

func (r *AssetRepository) Delete(ctx context.Context, id domainassets.AssetID) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM assets WHERE id = $1`, string(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domainassets.ErrNotFound
	}
	return nil
}

func (r *AssetRepository) Search(ctx context.Context, params domainassets.SearchParams) ([]*domainassets.Asset, error) {
	where, args := searchClause(params.Normalized())
	n := params.Normalized()
	args = append(args, n.Limit, n.Offset)
	query := fmt.Sprintf(`SELECT %s FROM assets %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		assetColumns, where, len(args)-1, len(args))
	var rows []assetRow
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]*domainassets.Asset, 0, len(rows))
	for _, row := range rows {
		asset, err := row.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, asset)
	}
	return out, nil
}

// searchClause expects normalized params and numbers placeholders from $1.
func searchClause(p domainassets.SearchParams) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if p.Owner != "" {
		add("owner_id = $%d", string(p.Owner))
	}
	if p.Category != "" {
		add("category = $%d", string(p.Category))
	}
	if p.LocationQuery != "" {
		add("location ILIKE $%d", "%"+escapeLike(p.LocationQuery)+"%")
	}
	if p.PriceMinUnits > 0 {
		add("price_units >= $%d", p.PriceMinUnits)
	}
	if p.PriceMaxUnits > 0 {
		add("price_units <= $%d", p.PriceMaxUnits)
	}
	if p.OnlyAvailable {
		conds = append(conds, "available")
	}
	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type assetRow struct {
	ID          string          `db:"id"`
	OwnerID     string          `db:"owner_id"`
	Title       string          `db:"title"`
	Description string          `db:"description"`
	Category    string          `db:"category"`
	Brand       string          `db:"brand"`
	Model       string          `db:"model"`
	Year        int             `db:"year"`
	Capacity    int             `db:"capacity"`
	PriceUnits  int64           `db:"price_units"`
	Currency    string          `db:"currency"`
	Location    string          `db:"location"`
	Latitude    sql.NullFloat64 `db:"latitude"`
	Longitude   sql.NullFloat64 `db:"longitude"`
	Available   bool            `db:"available"`
	Images      string          `db:"images"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
	Version     int64           `db:"version"`
}

type versionedAssetRow struct {
	assetRow
	PrevVersion int64 `db:"prev_version"`
}

type imageJSON struct {
	URL     string `json:"url"`
	Primary bool   `json:"primary"`
}

func newAssetRow(a *domainassets.Asset) (assetRow, error) {
	images := make([]imageJSON, 0, len(a.Images))
	for _, img := range a.Images {
		images = append(images, imageJSON{URL: img.URL, Primary: img.Primary})
	}
	raw, err := json.Marshal(images)
	if err != nil {
		return assetRow{}, err
	}
	return assetRow{
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
		Latitude:    nullFloat(a.Latitude),
		Longitude:   nullFloat(a.Longitude),
		Available:   a.Available,
		Images:      string(raw),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		Version:     a.Version,
	}, nil
}

func (r assetRow) toAggregate() (*domainassets.Asset, error) {
	var images []imageJSON
	if len(r.Images) > 0 {
		if err := json.Unmarshal([]byte(r.Images), &images); err != nil {
			return nil, fmt.Errorf("postgres: asset %s images: %w", r.ID, err)
		}
	}
	out := make([]domainassets.Image, 0, len(images))
	for _, img := range images {
		out = append(out, domainassets.Image{URL: img.URL, Primary: img.Primary})
	}
	return &domainassets.Asset{
		ID:          domainassets.AssetID(r.ID),
		Owner:       domainassets.OwnerID(r.OwnerID),
		Title:       r.Title,
		Description: r.Description,
		Category:    domainassets.Category(r.Category),
		Brand:       r.Brand,
		Model:       r.Model,
		Year:        r.Year,
		Capacity:    r.Capacity,
		PricePerDay: money.Rate{Units: r.PriceUnits, Currency: strings.TrimSpace(r.Currency)},
		Location:    r.Location,
		Latitude:    floatPtr(r.Latitude),
		Longitude:   floatPtr(r.Longitude),
		Available:   r.Available,
		Images:      out,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
		Version:     r.Version,
	}, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

var _ domainassets.Repository = (*AssetRepository)(nil)
