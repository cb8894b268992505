package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	domainassets "apexrentals/internal/domain/assets"
	domainbooking "apexrentals/internal/domain/booking"
	"apexrentals/internal/domain/shared/daterange"
	"apexrentals/internal/domain/shared/money"
	domainuser "apexrentals/internal/domain/user"
)

// BookingRepository leaves the no-overlap rule to the bookings_no_overlap
// exclusion constraint, which holds across concurrent transactions.
type BookingRepository struct {
	db *sqlx.DB
}

func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, asset_id, owner_id, client_id, start_date, end_date, days, total_cents,
	currency, status, special_request, created_at, updated_at, version`

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var row bookingRow
	err := sqlx.GetContext(ctx, conn(ctx, r.db), &row, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainbooking.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toAggregate(), nil
}

func (r *BookingRepository) Insert(ctx context.Context, b *domainbooking.Booking) error {
	row := newBookingRow(b)
	row.Version = 1
	_, err := sqlx.NamedExecContext(ctx, conn(ctx, r.db), `INSERT INTO bookings (`+bookingColumns+`)
		VALUES (:id, :asset_id, :owner_id, :client_id, :start_date, :end_date, :days, :total_cents,
			:currency, :status, :special_request, :created_at, :updated_at, :version)`, row)
	if err != nil {
		return mapBookingError(err)
	}
	b.Version = 1
	return nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE bookings
		SET status = $1, updated_at = $2, version = version + 1
		WHERE id = $3 AND version = $4`,
		string(b.Status), b.UpdatedAt, string(b.ID), b.Version)
	if err != nil {
		return mapBookingError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.ByID(ctx, b.ID); err != nil {
			return err
		}
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version++
	return nil
}

func (r *BookingRepository) WindowsByAsset(ctx context.Context, assetID domainassets.AssetID, statuses []domainbooking.Status) ([]domainbooking.Window, error) {
	var rows []bookingRow
	err := sqlx.SelectContext(ctx, conn(ctx, r.db), &rows, `SELECT `+bookingColumns+` FROM bookings
		WHERE asset_id = $1 AND status = ANY($2)
		ORDER BY start_date, id`, string(assetID), pq.Array(statusStrings(statuses)))
	if err != nil {
		return nil, err
	}
	out := make([]domainbooking.Window, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toAggregate().Window())
	}
	return out, nil
}

func (r *BookingRepository) ListByClient(ctx context.Context, clientID domainuser.ID) ([]*domainbooking.Booking, error) {
	return r.list(ctx, `client_id = $1`, string(clientID))
}

func (r *BookingRepository) ListByOwner(ctx context.Context, ownerID domainuser.ID) ([]*domainbooking.Booking, error) {
	return r.list(ctx, `owner_id = $1`, string(ownerID))
}

func (r *BookingRepository) DeleteExpiredPending(ctx context.Context, before time.Time, participant domainuser.ID) ([]*domainbooking.Booking, error) {
	var rows []bookingRow
	err := sqlx.SelectContext(ctx, conn(ctx, r.db), &rows, `DELETE FROM bookings
		WHERE status = 'pending' AND start_date < $1
			AND ($2 = '' OR client_id = $2 OR owner_id = $2)
		RETURNING `+bookingColumns, daterange.Day(before), string(participant))
	if err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toAggregate())
	}
	return out, nil
}

func (r *BookingRepository) list(ctx context.Context, where string, arg any) ([]*domainbooking.Booking, error) {
	var rows []bookingRow
	err := sqlx.SelectContext(ctx, conn(ctx, r.db), &rows, `SELECT `+bookingColumns+` FROM bookings WHERE `+where+` ORDER BY created_at DESC`, arg)
	if err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toAggregate())
	}
	return out, nil
}

func mapBookingError(err error) error {
	switch pqCode(err) {
	case codeExclusionViolation, codeUniqueViolation:
		return domainbooking.ErrBookingConflict
	case codeSerialization:
		return domainbooking.ErrConcurrentUpdate
	}
	return err
}

func statusStrings(statuses []domainbooking.Status) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

type bookingRow struct {
	ID             string    `db:"id"`
	AssetID        string    `db:"asset_id"`
	OwnerID        string    `db:"owner_id"`
	ClientID       string    `db:"client_id"`
	StartDate      time.Time `db:"start_date"`
	EndDate        time.Time `db:"end_date"`
	Days           int       `db:"days"`
	TotalCents     int64     `db:"total_cents"`
	Currency       string    `db:"currency"`
	Status         string    `db:"status"`
	SpecialRequest string    `db:"special_request"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
	Version        int64     `db:"version"`
}

func newBookingRow(b *domainbooking.Booking) bookingRow {
	return bookingRow{
		ID:             string(b.ID),
		AssetID:        string(b.AssetID),
		OwnerID:        string(b.OwnerID),
		ClientID:       string(b.ClientID),
		StartDate:      b.Range.Start,
		EndDate:        b.Range.End,
		Days:           b.Days,
		TotalCents:     b.Total.Amount,
		Currency:       b.Total.Currency,
		Status:         string(b.Status),
		SpecialRequest: b.SpecialRequest,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
		Version:        b.Version,
	}
}

func (r bookingRow) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:             domainbooking.BookingID(r.ID),
		AssetID:        domainassets.AssetID(r.AssetID),
		OwnerID:        domainuser.ID(r.OwnerID),
		ClientID:       domainuser.ID(r.ClientID),
		Range:          daterange.DateRange{Start: daterange.Day(r.StartDate), End: daterange.Day(r.EndDate)},
		Days:           r.Days,
		Total:          money.Money{Amount: r.TotalCents, Currency: r.Currency},
		Status:         domainbooking.Status(r.Status),
		SpecialRequest: r.SpecialRequest,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
		Version:        r.Version,
	}
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
