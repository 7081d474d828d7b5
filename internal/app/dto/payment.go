package dto

import (
	"time"

	domainpayments "roomstay/internal/domain/payments"
)

type Transaction struct {
	ID            string    `json:"id"`
	BookingID     string    `json:"booking_id"`
	UserID        string    `json:"user_id"`
	Amount        MoneyDTO  `json:"amount"`
	Method        string    `json:"payment_method"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transaction_id"`
	PaidAt        time.Time `json:"paid_at"`
}

func MapTransaction(tx *domainpayments.Transaction) Transaction {
	return Transaction{
		ID:            tx.ID,
		BookingID:     string(tx.BookingID),
		UserID:        tx.UserID,
		Amount:        MapMoney(tx.Amount),
		Method:        string(tx.Method),
		Status:        string(tx.Status),
		TransactionID: tx.TransactionID,
		PaidAt:        tx.PaidAt,
	}
}

type TransactionCollection struct {
	Items []Transaction `json:"items"`
}

// PaymentReceipt is the result of paying a booking.
type PaymentReceipt struct {
	Booking     BookingTransition `json:"booking"`
	Transaction Transaction       `json:"transaction"`
}
