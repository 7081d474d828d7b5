package memory

import (
	"context"
	"sort"

	domainbooking "roomstay/internal/domain/booking"
	domainpayments "roomstay/internal/domain/payments"
)

type transactionView struct{ u *Unit }

func transactions(t *tables) map[domainbooking.BookingID]*domainpayments.Transaction {
	return t.transactions
}

// Append keeps at most one transaction per booking.
func (v transactionView) Append(ctx context.Context, tx *domainpayments.Transaction) error {
	if err := v.u.writable(); err != nil {
		return err
	}
	if _, exists := lookup(v.u, transactions, tx.BookingID); exists {
		return domainpayments.ErrDuplicateTransaction
	}
	c := *tx
	v.u.staged.transactions[tx.BookingID] = &c
	return nil
}

func (v transactionView) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) (*domainpayments.Transaction, error) {
	tx, ok := lookup(v.u, transactions, bookingID)
	if !ok {
		return nil, domainpayments.ErrTransactionNotFound
	}
	c := *tx
	return &c, nil
}

func (v transactionView) ListByUser(ctx context.Context, userID string) ([]*domainpayments.Transaction, error) {
	out := make([]*domainpayments.Transaction, 0)
	scan(v.u, transactions, func(tx *domainpayments.Transaction) {
		if tx.UserID == userID {
			c := *tx
			out = append(out, &c)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

var _ domainpayments.Repository = transactionView{}
