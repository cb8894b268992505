package assets

import (
	"sort"
	"strings"
)

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 200
)

// SearchParams describe catalogue filters and paging options. Prices are in
// rate units (see money.RateScale); zero means unbounded.
type SearchParams struct {
	Owner         OwnerID
	Category      Category
	LocationQuery string
	PriceMinUnits int64
	PriceMaxUnits int64
	OnlyAvailable bool
	Limit         int
	Offset        int
}

// Normalized returns a sanitized copy of params.
func (p SearchParams) Normalized() SearchParams {
	n := p
	n.Category = Category(strings.ToLower(strings.TrimSpace(string(n.Category))))
	n.LocationQuery = strings.ToLower(strings.TrimSpace(n.LocationQuery))
	if n.PriceMinUnits < 0 {
		n.PriceMinUnits = 0
	}
	if n.PriceMaxUnits > 0 && n.PriceMaxUnits < n.PriceMinUnits {
		n.PriceMaxUnits = 0
	}
	if n.Limit <= 0 {
		n.Limit = defaultSearchLimit
	}
	if n.Limit > maxSearchLimit {
		n.Limit = maxSearchLimit
	}
	if n.Offset < 0 {
		n.Offset = 0
	}
	return n
}

// Matches reports whether the asset passes every filter. Expects normalized params.
func (p SearchParams) Matches(a *Asset) bool {
	if a == nil {
		return false
	}
	if p.Owner != "" && a.Owner != p.Owner {
		return false
	}
	if p.Category != "" && a.Category != p.Category {
		return false
	}
	if p.LocationQuery != "" && !strings.Contains(strings.ToLower(a.Location), p.LocationQuery) {
		return false
	}
	if p.PriceMinUnits > 0 && a.PricePerDay.Units < p.PriceMinUnits {
		return false
	}
	if p.PriceMaxUnits > 0 && a.PricePerDay.Units > p.PriceMaxUnits {
		return false
	}
	if p.OnlyAvailable && !a.Available {
		return false
	}
	return true
}

// Apply filters, orders newest first and pages the given assets.
func (p SearchParams) Apply(all []*Asset) []*Asset {
	n := p.Normalized()
	matched := make([]*Asset, 0, len(all))
	for _, a := range all {
		if n.Matches(a) {
			matched = append(matched, a)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if n.Offset >= len(matched) {
		return []*Asset{}
	}
	end := n.Offset + n.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[n.Offset:end]
}
