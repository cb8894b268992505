package daterange

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: end must be after start")
	ErrInvalidDate  = errors.New("daterange: unrecognised date format")
)

// DateLayout is the wire format for date-only values.
const DateLayout = "2006-01-02"

const day = 24 * time.Hour

// Day maps t to midnight UTC of its calendar date. The date is read in t's own
// location, so "2024-06-01T23:30:00-05:00" is June 1st, not June 2nd.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Parse accepts "2006-01-02" or RFC 3339 and returns the normalised day.
func Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(DateLayout, value); err == nil {
		return Day(t), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return Day(t), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

// DateRange represents the half-open interval of days [Start, End).
type DateRange struct {
	Start time.Time
	End   time.Time
}

// New normalises both ends to days and validates start < end.
func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: Day(start), End: Day(end)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ErrInvalidRange
	}
	if !dr.End.After(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Days is the billable length; partial days round up.
func (dr DateRange) Days() int {
	return int(math.Ceil(float64(dr.End.Sub(dr.Start)) / float64(day)))
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.Start.Before(other.End) && other.Start.Before(dr.End)
}

func (dr DateRange) Contains(other DateRange) bool {
	return !other.Start.Before(dr.Start) && !other.End.After(dr.End)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = Day(t)
	return !t.Before(dr.Start) && t.Before(dr.End)
}

func (dr DateRange) Adjacent(other DateRange) bool {
	return dr.End.Equal(other.Start) || dr.Start.Equal(other.End)
}

func (dr DateRange) String() string {
	return dr.Start.Format(DateLayout) + "/" + dr.End.Format(DateLayout)
}
