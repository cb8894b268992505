package client

import (
	"net/url"
	"strconv"
	"strings"
)

type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Name     string  `json:"name" validate:"required"`
	Password string  `json:"password" validate:"required,min=8"`
	Phone    *string `json:"phone,omitempty"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=client owner"`
}

func (r RegisterRequest) Validate() error { return validateRequest(r) }

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r LoginRequest) Validate() error { return validateRequest(r) }

type CreateAssetRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Type        string   `json:"type" validate:"required,oneof=yacht car jet other"`
	PricePerDay float64  `json:"price_per_day" validate:"gt=0"`
	Location    string   `json:"location" validate:"required"`
	Description *string  `json:"description,omitempty"`
	Brand       *string  `json:"brand,omitempty"`
	Model       *string  `json:"model,omitempty"`
	Year        *int     `json:"year,omitempty" validate:"omitempty,min=1900,max=2100"`
	Capacity    *int     `json:"capacity,omitempty" validate:"omitempty,min=0"`
	Currency    *string  `json:"currency,omitempty" validate:"omitempty,len=3"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
}

func (r CreateAssetRequest) Validate() error { return validateRequest(r) }

// UpdateAssetRequest sends only the fields that are set.
type UpdateAssetRequest struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Type        *string  `json:"type,omitempty" validate:"omitempty,oneof=yacht car jet other"`
	PricePerDay *float64 `json:"price_per_day,omitempty" validate:"omitempty,gt=0"`
	Location    *string  `json:"location,omitempty" validate:"omitempty,min=1"`
	Description *string  `json:"description,omitempty"`
	Brand       *string  `json:"brand,omitempty"`
	Model       *string  `json:"model,omitempty"`
	Year        *int     `json:"year,omitempty" validate:"omitempty,min=1900,max=2100"`
	Capacity    *int     `json:"capacity,omitempty" validate:"omitempty,min=0"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
	Available   *bool    `json:"available,omitempty"`
}

func (r UpdateAssetRequest) Validate() error { return validateRequest(r) }

type SearchAssetsRequest struct {
	Type     *string  `validate:"omitempty,oneof=yacht car jet other"`
	Location *string  `validate:"omitempty"`
	MinPrice *float64 `validate:"omitempty,min=0"`
	MaxPrice *float64 `validate:"omitempty,min=0"`
	Limit    *int     `validate:"omitempty,min=1,max=200"`
	Offset   *int     `validate:"omitempty,min=0"`
}

func (r SearchAssetsRequest) Validate() error { return validateRequest(r) }

func (r SearchAssetsRequest) values() url.Values {
	q := url.Values{}
	setString(q, "type", r.Type)
	setString(q, "location", r.Location)
	setFloat(q, "min_price", r.MinPrice)
	setFloat(q, "max_price", r.MaxPrice)
	setInt(q, "limit", r.Limit)
	setInt(q, "offset", r.Offset)
	return q
}

// CreateBookingRequest dates are calendar days, "2006-01-02".
type CreateBookingRequest struct {
	AssetID        string  `json:"asset_id" validate:"required"`
	StartDate      string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate        string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	SpecialRequest *string `json:"special_request,omitempty" validate:"omitempty,max=2000"`
	IdempotencyKey string  `json:"-"`
}

func (r CreateBookingRequest) Validate() error { return validateRequest(r) }

type TransitionRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed cancelled completed"`
}

func (r TransitionRequest) Validate() error { return validateRequest(r) }

type AvailabilityRequest struct {
	StartDate string `validate:"required,datetime=2006-01-02"`
	EndDate   string `validate:"required,datetime=2006-01-02"`
}

func (r AvailabilityRequest) Validate() error { return validateRequest(r) }

type SubmitReviewRequest struct {
	BookingID  string  `json:"booking_id" validate:"required"`
	RevieweeID string  `json:"reviewee_id" validate:"required"`
	Type       string  `json:"type" validate:"required,oneof=asset user"`
	Rating     int     `json:"rating" validate:"min=1,max=5"`
	Comment    *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

func (r SubmitReviewRequest) Validate() error { return validateRequest(r) }

func setString(q url.Values, key string, v *string) {
	if v != nil && strings.TrimSpace(*v) != "" {
		q.Set(key, *v)
	}
}

func setFloat(q url.Values, key string, v *float64) {
	if v != nil {
		q.Set(key, strconv.FormatFloat(*v, 'f', -1, 64))
	}
}

func setInt(q url.Values, key string, v *int) {
	if v != nil {
		q.Set(key, strconv.Itoa(*v))
	}
}

// Ptr is a helper for filling optional request fields.
func Ptr[T any](v T) *T { return &v }
