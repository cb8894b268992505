package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"apexrentals/internal/app/uow"
	domainassets "apexrentals/internal/domain/assets"
	domainbooking "apexrentals/internal/domain/booking"
	domainreviews "apexrentals/internal/domain/reviews"
	domainuser "apexrentals/internal/domain/user"
)

var ErrUnitOfWorkNotConfigured = errors.New("postgres: unit of work factory missing database")

// Factory opens one SQL transaction per unit.
type Factory struct {
	DB *sqlx.DB

	AssetsRepo   domainassets.Repository
	BookingsRepo domainbooking.Repository
	ReviewsRepo  domainreviews.Repository
	UsersRepo    domainuser.Repository
}

func NewFactory(db *sqlx.DB) Factory {
	return Factory{
		DB:           db,
		AssetsRepo:   NewAssetRepository(db),
		BookingsRepo: NewBookingRepository(db),
		ReviewsRepo:  NewReviewRepository(db),
		UsersRepo:    NewUserRepository(db),
	}
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	tx, err := f.DB.BeginTxx(ctx, &sql.TxOptions{ReadOnly: opts.ReadOnly, Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	return &Unit{factory: f, tx: tx}, nil
}

type Unit struct {
	factory Factory
	tx      *sqlx.Tx
}

func (u *Unit) Assets() domainassets.Repository    { return u.factory.AssetsRepo }
func (u *Unit) Bookings() domainbooking.Repository { return u.factory.BookingsRepo }
func (u *Unit) Reviews() domainreviews.Repository  { return u.factory.ReviewsRepo }
func (u *Unit) Users() domainuser.Repository       { return u.factory.UsersRepo }

func (u *Unit) Commit(ctx context.Context) error {
	err := u.tx.Commit()
	if pqCode(err) == codeSerialization {
		return domainbooking.ErrConcurrentUpdate
	}
	return err
}

// Rollback after Commit is a no-op.
func (u *Unit) Rollback(ctx context.Context) error {
	if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, txKey{}, u.tx)
}

var _ uow.UoWFactory = Factory{}
