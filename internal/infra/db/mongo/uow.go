package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"

	"roomstay/internal/app/uow"
	domainbooking "roomstay/internal/domain/booking"
	domaincatalog "roomstay/internal/domain/catalog"
	domaindiscounts "roomstay/internal/domain/discounts"
	domainpayments "roomstay/internal/domain/payments"
	domainreviews "roomstay/internal/domain/reviews"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	CatalogRepo      domaincatalog.Reader
	BookingRepo      domainbooking.Repository
	TransactionsRepo domainpayments.Repository
	DiscountsRepo    domaindiscounts.Repository
	ReviewsRepo      domainreviews.Repository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:               db,
		CatalogRepo:      NewCatalogRepository(db),
		BookingRepo:      NewBookingRepository(db),
		TransactionsRepo: NewTransactionRepository(db),
		DiscountsRepo:    NewDiscountRepository(db),
		ReviewsRepo:      NewReviewRepository(db),
	}
}

// Begin starts a MongoDB session/transaction. Read-only units read a
// snapshot so multi-collection queries are consistent.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if opts.ReadOnly {
		txnOpts = txnOpts.SetReadConcern(readconcern.Snapshot())
	}
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		session:      session,
		catalog:      f.CatalogRepo,
		booking:      f.BookingRepo,
		transactions: f.TransactionsRepo,
		discounts:    f.DiscountsRepo,
		reviews:      f.ReviewsRepo,
	}, nil
}

type Unit struct {
	session mongo.Session

	catalog      domaincatalog.Reader
	booking      domainbooking.Repository
	transactions domainpayments.Repository
	discounts    domaindiscounts.Repository
	reviews      domainreviews.Repository
}

func (u *Unit) Catalog() domaincatalog.Reader           { return u.catalog }
func (u *Unit) Booking() domainbooking.Repository       { return u.booking }
func (u *Unit) Transactions() domainpayments.Repository { return u.transactions }
func (u *Unit) Discounts() domaindiscounts.Repository   { return u.discounts }
func (u *Unit) Reviews() domainreviews.Repository       { return u.reviews }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.ContextInjector = (*Unit)(nil)
