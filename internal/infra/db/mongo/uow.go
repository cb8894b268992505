package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"apexrentals/internal/app/uow"
	domainassets "apexrentals/internal/domain/assets"
	domainbooking "apexrentals/internal/domain/booking"
	domainreviews "apexrentals/internal/domain/reviews"
	domainuser "apexrentals/internal/domain/user"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	AssetsRepo   domainassets.Repository
	BookingsRepo domainbooking.Repository
	ReviewsRepo  domainreviews.Repository
	UsersRepo    domainuser.Repository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:           db,
		AssetsRepo:   NewAssetRepository(db),
		BookingsRepo: NewBookingRepository(db),
		ReviewsRepo:  NewReviewRepository(db),
		UsersRepo:    NewUserRepository(db),
	}
}

// Begin starts a MongoDB session/transaction. Read-only units skip the
// transaction and read with majority concern.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	unit := &Unit{factory: f, session: session}
	if opts.ReadOnly {
		return unit, nil
	}
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	unit.inTxn = true
	return unit, nil
}

type Unit struct {
	factory Factory
	session mongo.Session
	inTxn   bool
}

func (u *Unit) Assets() domainassets.Repository    { return u.factory.AssetsRepo }
func (u *Unit) Bookings() domainbooking.Repository { return u.factory.BookingsRepo }
func (u *Unit) Reviews() domainreviews.Repository  { return u.factory.ReviewsRepo }
func (u *Unit) Users() domainuser.Repository       { return u.factory.UsersRepo }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if !u.inTxn {
		return nil
	}
	return txError(u.session.CommitTransaction(ctx))
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if !u.inTxn {
		return nil
	}
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

func isTransient(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorLabel("TransientTransactionError")
}

// txError marks write conflicts inside a transaction as uow.ErrTransient so
// the unit is re-run instead of surfacing a driver error.
func txError(err error) error {
	if err != nil && isTransient(err) {
		return fmt.Errorf("%w: %w", uow.ErrTransient, err)
	}
	return err
}

var _ uow.UoWFactory = Factory{}
