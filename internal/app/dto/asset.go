package dto

import (
	"time"

	domainassets "apexrentals/internal/domain/assets"
)

type AssetImage struct {
	URL     string `json:"url"`
	Primary bool   `json:"primary"`
}

type Asset struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"owner_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Category    string       `json:"category"`
	Brand       string       `json:"brand,omitempty"`
	Model       string       `json:"model,omitempty"`
	Year        int          `json:"year,omitempty"`
	Capacity    int          `json:"capacity,omitempty"`
	PricePerDay float64      `json:"price_per_day"`
	Currency    string       `json:"currency"`
	Location    string       `json:"location"`
	Latitude    *float64     `json:"latitude,omitempty"`
	Longitude   *float64     `json:"longitude,omitempty"`
	Available   bool         `json:"available"`
	Images      []AssetImage `json:"images"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type AssetCollection struct {
	Items  []Asset `json:"items"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

func MapAsset(a *domainassets.Asset) Asset {
	if a == nil {
		return Asset{}
	}
	images := make([]AssetImage, 0, len(a.Images))
	for _, img := range a.Images {
		images = append(images, AssetImage{URL: img.URL, Primary: img.Primary})
	}
	return Asset{
		ID:          string(a.ID),
		OwnerID:     string(a.Owner),
		Title:       a.Title,
		Description: a.Description,
		Category:    string(a.Category),
		Brand:       a.Brand,
		Model:       a.Model,
		Year:        a.Year,
		Capacity:    a.Capacity,
		PricePerDay: a.PricePerDay.Decimal(),
		Currency:    a.PricePerDay.Currency,
		Location:    a.Location,
		Latitude:    a.Latitude,
		Longitude:   a.Longitude,
		Available:   a.Available,
		Images:      images,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func MapAssets(list []*domainassets.Asset) []Asset {
	out := make([]Asset, 0, len(list))
	for _, a := range list {
		out = append(out, MapAsset(a))
	}
	return out
}
