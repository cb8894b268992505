package memory

import (
	"context"
	"errors"

	"apexrentals/internal/app/uow"
	domainassets "apexrentals/internal/domain/assets"
	domainbooking "apexrentals/internal/domain/booking"
	domainreviews "apexrentals/internal/domain/reviews"
	domainuser "apexrentals/internal/domain/user"
)

var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory hands out units over shared in-memory repositories. Units provide
// no isolation; each repository call is atomic on its own.
type Factory struct {
	AssetsRepo   domainassets.Repository
	BookingsRepo domainbooking.Repository
	ReviewsRepo  domainreviews.Repository
	UsersRepo    domainuser.Repository
}

// NewFactory builds a factory over fresh empty repositories.
func NewFactory() Factory {
	return Factory{
		AssetsRepo:   NewAssetRepository(),
		BookingsRepo: NewBookingRepository(),
		ReviewsRepo:  NewReviewRepository(),
		UsersRepo:    NewUserRepository(),
	}
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.AssetsRepo == nil || f.BookingsRepo == nil || f.ReviewsRepo == nil || f.UsersRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{factory: f}, nil
}

type Unit struct {
	factory Factory
}

func (u *Unit) Assets() domainassets.Repository    { return u.factory.AssetsRepo }
func (u *Unit) Bookings() domainbooking.Repository { return u.factory.BookingsRepo }
func (u *Unit) Reviews() domainreviews.Repository  { return u.factory.ReviewsRepo }
func (u *Unit) Users() domainuser.Repository       { return u.factory.UsersRepo }

func (u *Unit) Commit(ctx context.Context) error   { return nil }
func (u *Unit) Rollback(ctx context.Context) error { return nil }

var _ uow.UoWFactory = Factory{}
