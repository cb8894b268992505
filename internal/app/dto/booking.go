package dto

import (
	"time"

	domainbooking "apexrentals/internal/domain/booking"
	"apexrentals/internal/domain/shared/daterange"
)

type Booking struct {
	ID             string    `json:"id"`
	AssetID        string    `json:"asset_id"`
	OwnerID        string    `json:"owner_id"`
	ClientID       string    `json:"client_id"`
	StartDate      string    `json:"start_date"`
	EndDate        string    `json:"end_date"`
	Days           int       `json:"days"`
	Total          Money     `json:"total"`
	Status         string    `json:"status"`
	SpecialRequest string    `json:"special_request,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type BookingWindow struct {
	BookingID string `json:"booking_id,omitempty"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
}

type BookingWindowCollection struct {
	AssetID string          `json:"asset_id"`
	Items   []BookingWindow `json:"items"`
}

type Availability struct {
	AssetID   string          `json:"asset_id"`
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
	Available bool            `json:"available"`
	Conflicts []BookingWindow `json:"conflicts"`
	Days      int             `json:"days"`
	Total     Money           `json:"total"`
}

// MyBookings splits a user's bookings into those they made and those made
// on their assets.
type MyBookings struct {
	Made     []Booking `json:"made"`
	Received []Booking `json:"received"`
}

type CleanupResult struct {
	Deleted int       `json:"deleted"`
	Before  string    `json:"before"`
	RanAt   time.Time `json:"ran_at"`
}

func MapBooking(b *domainbooking.Booking) Booking {
	if b == nil {
		return Booking{}
	}
	return Booking{
		ID:             string(b.ID),
		AssetID:        string(b.AssetID),
		OwnerID:        string(b.OwnerID),
		ClientID:       string(b.ClientID),
		StartDate:      b.Range.Start.Format(daterange.DateLayout),
		EndDate:        b.Range.End.Format(daterange.DateLayout),
		Days:           b.Days,
		Total:          MapMoney(b.Total),
		Status:         string(b.Status),
		SpecialRequest: b.SpecialRequest,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

func MapBookings(list []*domainbooking.Booking) []Booking {
	out := make([]Booking, 0, len(list))
	for _, b := range list {
		out = append(out, MapBooking(b))
	}
	return out
}

func MapWindow(w domainbooking.Window) BookingWindow {
	return BookingWindow{
		BookingID: string(w.BookingID),
		StartDate: w.Range.Start.Format(daterange.DateLayout),
		EndDate:   w.Range.End.Format(daterange.DateLayout),
		Status:    string(w.Status),
	}
}

func MapWindows(list []domainbooking.Window) []BookingWindow {
	out := make([]BookingWindow, 0, len(list))
	for _, w := range list {
		out = append(out, MapWindow(w))
	}
	return out
}
