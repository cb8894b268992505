package assets

import (
	"context"
	"errors"
	"strings"
	"time"

	"apexrentals/internal/domain/shared/events"
	"apexrentals/internal/domain/shared/money"
)

var (
	ErrIDRequired       = errors.New("assets: id is required")
	ErrOwnerRequired    = errors.New("assets: owner is required")
	ErrTitleRequired    = errors.New("assets: title is required")
	ErrLocationRequired = errors.New("assets: location is required")
	ErrInvalidCategory  = errors.New("assets: invalid category")
	ErrInvalidPrice     = errors.New("assets: price per day must be positive")
	ErrInvalidCapacity  = errors.New("assets: capacity must be non-negative")
	ErrImageURLRequired = errors.New("assets: image url is required")
	ErrNotOwned         = errors.New("assets: asset is not owned by user")
	ErrNotFound         = errors.New("assets: not found")
	ErrActiveBookings   = errors.New("assets: asset has pending or confirmed bookings")
	ErrConcurrentUpdate = errors.New("assets: concurrent update")
)

type AssetID string
type OwnerID string

type Category string

const (
	CategoryYacht Category = "yacht"
	CategoryCar   Category = "car"
	CategoryJet   Category = "jet"
	CategoryOther Category = "other"
)

func ParseCategory(raw string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryYacht:
		return CategoryYacht, nil
	case CategoryCar:
		return CategoryCar, nil
	case CategoryJet:
		return CategoryJet, nil
	case CategoryOther:
		return CategoryOther, nil
	default:
		return "", ErrInvalidCategory
	}
}

type Image struct {
	URL     string
	Primary bool
}

type Asset struct {
	ID          AssetID
	Owner       OwnerID
	Title       string
	Description string
	Category    Category
	Brand       string
	Model       string
	Year        int
	Capacity    int
	PricePerDay money.Rate
	Location    string
	Latitude    *float64
	Longitude   *float64
	Available   bool
	Images      []Image
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id AssetID) (*Asset, error)
	Save(ctx context.Context, asset *Asset) error
	Delete(ctx context.Context, id AssetID) error
	Search(ctx context.Context, params SearchParams) ([]*Asset, error)
}

type CreateParams struct {
	ID          AssetID
	Owner       OwnerID
	Title       string
	Description string
	Category    Category
	Brand       string
	Model       string
	Year        int
	Capacity    int
	PricePerDay money.Rate
	Location    string
	Latitude    *float64
	Longitude   *float64
	Now         time.Time
}

func NewAsset(params CreateParams) (*Asset, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.Owner)) == "" {
		return nil, ErrOwnerRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if strings.TrimSpace(params.Location) == "" {
		return nil, ErrLocationRequired
	}
	category, err := ParseCategory(string(params.Category))
	if err != nil {
		return nil, err
	}
	if !params.PricePerDay.IsPositive() {
		return nil, ErrInvalidPrice
	}
	if params.Capacity < 0 {
		return nil, ErrInvalidCapacity
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	asset := &Asset{
		ID:          params.ID,
		Owner:       params.Owner,
		Title:       strings.TrimSpace(params.Title),
		Description: strings.TrimSpace(params.Description),
		Category:    category,
		Brand:       strings.TrimSpace(params.Brand),
		Model:       strings.TrimSpace(params.Model),
		Year:        params.Year,
		Capacity:    params.Capacity,
		PricePerDay: params.PricePerDay,
		Location:    strings.TrimSpace(params.Location),
		Latitude:    params.Latitude,
		Longitude:   params.Longitude,
		Available:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	asset.Record(AssetListed{AssetID: asset.ID, OwnerID: asset.Owner, Category: asset.Category, At: now})
	return asset, nil
}

// UpdateParams carries optional changes; nil fields are left untouched.
type UpdateParams struct {
	Title       *string
	Description *string
	Category    *Category
	Brand       *string
	Model       *string
	Year        *int
	Capacity    *int
	PricePerDay *money.Rate
	Location    *string
	Latitude    *float64
	Longitude   *float64
	Available   *bool
	Now         time.Time
}

func (a *Asset) Update(params UpdateParams) error {
	next := *a
	if params.Title != nil {
		if strings.TrimSpace(*params.Title) == "" {
			return ErrTitleRequired
		}
		next.Title = strings.TrimSpace(*params.Title)
	}
	if params.Description != nil {
		next.Description = strings.TrimSpace(*params.Description)
	}
	if params.Category != nil {
		category, err := ParseCategory(string(*params.Category))
		if err != nil {
			return err
		}
		next.Category = category
	}
	if params.Brand != nil {
		next.Brand = strings.TrimSpace(*params.Brand)
	}
	if params.Model != nil {
		next.Model = strings.TrimSpace(*params.Model)
	}
	if params.Year != nil {
		next.Year = *params.Year
	}
	if params.Capacity != nil {
		if *params.Capacity < 0 {
			return ErrInvalidCapacity
		}
		next.Capacity = *params.Capacity
	}
	if params.PricePerDay != nil {
		if !params.PricePerDay.IsPositive() {
			return ErrInvalidPrice
		}
		next.PricePerDay = *params.PricePerDay
	}
	if params.Location != nil {
		if strings.TrimSpace(*params.Location) == "" {
			return ErrLocationRequired
		}
		next.Location = strings.TrimSpace(*params.Location)
	}
	if params.Latitude != nil {
		next.Latitude = params.Latitude
	}
	if params.Longitude != nil {
		next.Longitude = params.Longitude
	}

	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	a.Title = next.Title
	a.Description = next.Description
	a.Category = next.Category
	a.Brand = next.Brand
	a.Model = next.Model
	a.Year = next.Year
	a.Capacity = next.Capacity
	a.PricePerDay = next.PricePerDay
	a.Location = next.Location
	a.Latitude = next.Latitude
	a.Longitude = next.Longitude
	a.UpdatedAt = now
	a.Record(AssetUpdated{AssetID: a.ID, At: now})

	if params.Available != nil {
		a.SetAvailability(*params.Available, now)
	}
	return nil
}

func (a *Asset) SetAvailability(available bool, now time.Time) {
	if a.Available == available {
		return
	}
	a.Available = available
	a.UpdatedAt = now.UTC()
	a.Record(AssetAvailabilityChanged{AssetID: a.ID, Available: available, At: a.UpdatedAt})
}

// AddImage appends an image; a primary image moves to the front and demotes
// the previous one.
func (a *Asset) AddImage(url string, primary bool, now time.Time) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrImageURLRequired
	}
	if len(a.Images) == 0 {
		primary = true
	}
	img := Image{URL: url, Primary: primary}
	if primary {
		for i := range a.Images {
			a.Images[i].Primary = false
		}
		a.Images = append([]Image{img}, a.Images...)
	} else {
		a.Images = append(a.Images, img)
	}
	a.UpdatedAt = now.UTC()
	return nil
}

func (a *Asset) EnsureOwnedBy(owner OwnerID) error {
	if a.Owner != owner {
		return ErrNotOwned
	}
	return nil
}

// Clone returns a deep copy without pending events.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	c := *a
	c.EventRecorder = events.EventRecorder{}
	c.Images = append([]Image(nil), a.Images...)
	return &c
}

// Retire records the deletion; the repository removes the document.
func (a *Asset) Retire(now time.Time) {
	a.Available = false
	a.UpdatedAt = now.UTC()
	a.Record(AssetDeleted{AssetID: a.ID, OwnerID: a.Owner, At: a.UpdatedAt})
}
