package dto

// Earnings summarises an owner's booking revenue. Confirmed includes
// completed bookings; cancelled bookings count nowhere.
type Earnings struct {
	OwnerID        string          `json:"owner_id"`
	Currency       string          `json:"currency"`
	Total          Money           `json:"total"`
	Confirmed      Money           `json:"confirmed"`
	Pending        Money           `json:"pending"`
	BookingsCount  int             `json:"bookings_count"`
	ConfirmedCount int             `json:"confirmed_count"`
	PendingCount   int             `json:"pending_count"`
	ByAsset        []AssetEarnings `json:"by_asset"`
	Recent         []Booking       `json:"recent"`
}

type AssetEarnings struct {
	AssetID  string `json:"asset_id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Earnings Money  `json:"earnings"`
	Bookings int    `json:"bookings"`
}
