package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "roomstay/internal/domain/booking"
	domainpayments "roomstay/internal/domain/payments"
)

// TransactionRepository relies on the unique booking_id index for the
// one-transaction-per-booking rule.
type TransactionRepository struct {
	col *mongo.Collection
}

func NewTransactionRepository(db *mongo.Database) *TransactionRepository {
	return &TransactionRepository{col: db.Collection(colTransactions)}
}

func (r *TransactionRepository) Append(ctx context.Context, tx *domainpayments.Transaction) error {
	if _, err := r.col.InsertOne(ctx, newTransactionDocument(tx)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainpayments.ErrDuplicateTransaction
		}
		return err
	}
	return nil
}

func (r *TransactionRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) (*domainpayments.Transaction, error) {
	var doc transactionDocument
	if err := r.col.FindOne(ctx, bson.M{"booking_id": string(bookingID)}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domainpayments.ErrTransactionNotFound
		}
		return nil, err
	}
	return doc.toTransaction(), nil
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID string) ([]*domainpayments.Transaction, error) {
	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var docs []transactionDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainpayments.Transaction, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toTransaction())
	}
	return out, nil
}

type transactionDocument struct {
	ID            string        `bson:"_id"`
	BookingID     string        `bson:"booking_id"`
	UserID        string        `bson:"user_id"`
	Amount        moneyDocument `bson:"amount"`
	Method        string        `bson:"payment_method"`
	Status        string        `bson:"status"`
	TransactionID string        `bson:"transaction_id"`
	PaidAt        int64         `bson:"paid_at"`
	CreatedAt     int64         `bson:"created_at"`
}

func newTransactionDocument(tx *domainpayments.Transaction) transactionDocument {
	return transactionDocument{
		ID:            tx.ID,
		BookingID:     string(tx.BookingID),
		UserID:        tx.UserID,
		Amount:        newMoneyDocument(tx.Amount),
		Method:        string(tx.Method),
		Status:        string(tx.Status),
		TransactionID: tx.TransactionID,
		PaidAt:        tx.PaidAt.UnixMilli(),
		CreatedAt:     tx.CreatedAt.UnixMilli(),
	}
}

func (d transactionDocument) toTransaction() *domainpayments.Transaction {
	return &domainpayments.Transaction{
		ID:            d.ID,
		BookingID:     domainbooking.BookingID(d.BookingID),
		UserID:        d.UserID,
		Amount:        d.Amount.toMoney(),
		Method:        domainpayments.Method(d.Method),
		Status:        domainpayments.Status(d.Status),
		TransactionID: d.TransactionID,
		PaidAt:        timestampToTime(d.PaidAt),
		CreatedAt:     timestampToTime(d.CreatedAt),
	}
}

var _ domainpayments.Repository = (*TransactionRepository)(nil)
