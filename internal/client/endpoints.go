package client

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"apexrentals/internal/app/dto"
)

func (c *Client) Register(ctx context.Context, req RegisterRequest) (dto.AuthResponse, error) {
	var out dto.AuthResponse
	if err := req.Validate(); err != nil {
		return out, err
	}
	err := c.do(ctx, Anonymous(), call{method: http.MethodPost, path: "/auth/register", body: req}, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (dto.AuthResponse, error) {
	var out dto.AuthResponse
	if err := req.Validate(); err != nil {
		return out, err
	}
	err := c.do(ctx, Anonymous(), call{method: http.MethodPost, path: "/auth/login", body: req}, &out)
	return out, err
}

func (c *Client) Logout(ctx context.Context, cred Credential) error {
	return c.do(ctx, cred, call{method: http.MethodPost, path: "/auth/logout"}, nil)
}

func (c *Client) Me(ctx context.Context, cred Credential) (dto.UserProfile, error) {
	var out dto.UserProfile
	err := c.do(ctx, cred, call{method: http.MethodGet, path: "/auth/me"}, &out)
	return out, err
}

func (c *Client) SearchAssets(ctx context.Context, cred Credential, req SearchAssetsRequest) (dto.AssetCollection, error) {
	var out dto.AssetCollection
	if err := req.Validate(); err != nil {
		return out, err
	}
	err := c.do(ctx, cred, call{method: http.MethodGet, path: "/assets", query: req.values()}, &out)
	return out, err
}

func (c *Client) GetAsset(ctx context.Context, cred Credential, assetID string) (dto.Asset, error) {
	var out dto.Asset
	err := c.do(ctx, cred, call{method: http.MethodGet, path: "/assets/" + url.PathEscape(assetID)}, &out)
	return out, err
}

func (c *Client) CreateAsset(ctx context.Context, cred Credential, req CreateAssetRequest) (dto.Asset, error) {
	var out dto.Asset
	if err := req.Validate(); err != nil {
		return out, err
	}
	err := c.do(ctx, cred, call{method: http.MethodPost, path: "/assets", body: req}, &out)
	return out, err
}

func (c *Client) UpdateAsset(ctx context.Context, cred Credential, assetID string, req UpdateAssetRequest) (dto.Asset, error) {
	var out dto.Asset
	if err := req.Validate(); err != nil {
		return out, err
	}
	err := c.do(ctx, cred, call{method: http.MethodPut, path: "/assets/" + url.PathEscape(assetID), body: req}, &out)
	return out, err
}

func (c *Client) DeleteAsset(ctx context.Context, cred Credential, assetID string) error {
	return c.do(ctx, cred, call{method: http.MethodDelete, path: "/assets/" + url.PathEscape(assetID)}, nil)
}

func (c *Client) UploadAssetImage(ctx context.Context, cred Credential, assetID, fileName string, content io.Reader, primary bool) (dto.Asset, error) {
	var out dto.Asset
	body, contentType, err := multipartFile(fileName, content, map[string]string{"primary": strconv.FormatBool(primary)})
	if err != nil {
		return out, err
	}
	err = c.do(ctx, cred, call{
		method:      http.MethodPost,
		path:        "/assets/" + url.PathEscape(assetID) + "/images",
		rawBody:     body,
		contentType: contentType,
	}, &out)
	return out, err
}

func (c *Client) OwnerAssets(ctx context.Context, cred Credential) (dto.AssetCollection, error) {
	var out dto.AssetCollection
	err := c.do(ctx, cred, call{method: http.MethodGet, path: "/owner/assets"}, &out)
	return out, err
}

func (c *Client) OwnerEarnings(ctx context.Context, cred Credential) (dto.Earnings, error) {
	var out dto.Earnings
	err := c.do(ctx, cred, call{method: http.MethodGet, path: "/owner/earnings"}, &out)
	return out, err
}

func (c *Client) CheckAvailability(ctx context.Context, cred Credential, assetID string, req AvailabilityRequest) (dto.Availability, error) {
	var out dto.Availability
	if err := req.Validate(); err != nil {
		return out, err
	}
	q := url.Values{"start_date": {req.StartDate}, "end_date": {req.EndDate}}
	err := c.do(ctx, cred, call{method: http.MethodGet, path: "/assets/" + url.PathEscape(assetID) + "/availability", query: q}, &out)
	return out, err
}

// BookingWindows lists an asset's booking windows ordered by start date.
// No statuses means pending and confirmed.
func (c *Client) BookingWindows(ctx context.Context, cred Credential, assetID string, statuses ...string) (dto.BookingWindowCollection, error) {
	var out dto.BookingWindowCollection
	var q url.Values
	if len(statuses) > 0 {
		q = url.Values{"status": {strings.Join(statuses, ",")}}
	}
	err := c.do(ctx, cred, call{method: http.MethodGet, path: "/assets/" + url.PathEscape(assetID) + "/bookings", query: q}, &out)
	return out, err
}

func (c *Client) CreateBooking(ctx context.Context, cred Credential, req CreateBookingRequest) (dto.Booking, error) {
	var out dto.Booking
	if err := req.Validate(); err != nil {
		return out, err
	}
	err := c.do(ctx, cred, call{
		method:  http.MethodPost,
		path:    "/bookings",
		body:    req,
		headers: map[string]string{"Idempotency-Key": req.IdempotencyKey},
	}, &out)
	return out, err
}

func (c *Client) TransitionBooking(ctx context.Context, cred Credential, bookingID string, req TransitionRequest) (dto.Booking, error) {
	var out dto.Booking
	if err := req.Validate(); err != nil {
		return out, err
	}
	err := c.do(ctx, cred, call{method: http.MethodPatch, path: "/bookings/" + url.PathEscape(bookingID), body: req}, &out)
	return out, err
}

func (c *Client) GetBooking(ctx context.Context, cred Credential, bookingID string) (dto.Booking, error) {
	var out dto.Booking
	err := c.do(ctx, cred, call{method: http.MethodGet, path: "/bookings/" + url.PathEscape(bookingID)}, &out)
	return out, err
}

func (c *Client) MyBookings(ctx context.Context, cred Credential) (dto.MyBookings, error) {
	var out dto.MyBookings
	err := c.do(ctx, cred, call{method: http.MethodGet, path: "/me/bookings"}, &out)
	return out, err
}

func (c *Client) CleanupExpired(ctx context.Context, cred Credential, onlyMine bool) (dto.CleanupResult, error) {
	var out dto.CleanupResult
	var q url.Values
	if onlyMine {
		q = url.Values{"only_mine": {"true"}}
	}
	err := c.do(ctx, cred, call{method: http.MethodPost, path: "/admin/bookings/cleanup-expired", query: q}, &out)
	return out, err
}

func (c *Client) SubmitReview(ctx context.Context, cred Credential, req SubmitReviewRequest) (dto.Review, error) {
	var out dto.Review
	if err := req.Validate(); err != nil {
		return out, err
	}
	err := c.do(ctx, cred, call{method: http.MethodPost, path: "/reviews", body: req}, &out)
	return out, err
}

func (c *Client) AssetReviews(ctx context.Context, cred Credential, assetID string) (dto.ReviewCollection, error) {
	var out dto.ReviewCollection
	err := c.do(ctx, cred, call{method: http.MethodGet, path: "/assets/" + url.PathEscape(assetID) + "/reviews"}, &out)
	return out, err
}

// UserReviews lists the user-type reviews a person received, newest first.
func (c *Client) UserReviews(ctx context.Context, cred Credential, userID string) (dto.UserReviews, error) {
	var out dto.UserReviews
	err := c.do(ctx, cred, call{method: http.MethodGet, path: "/users/" + url.PathEscape(userID) + "/reviews"}, &out)
	return out, err
}

func (c *Client) MyReviews(ctx context.Context, cred Credential) (dto.MyReviews, error) {
	var out dto.MyReviews
	err := c.do(ctx, cred, call{method: http.MethodGet, path: "/me/reviews"}, &out)
	return out, err
}

func (c *Client) ReviewEligibility(ctx context.Context, cred Credential, bookingID string) (dto.ReviewEligibility, error) {
	var out dto.ReviewEligibility
	err := c.do(ctx, cred, call{method: http.MethodGet, path: "/bookings/" + url.PathEscape(bookingID) + "/review-eligibility"}, &out)
	return out, err
}
