package payments

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"roomstay/internal/app/policies"
	domainbooking "roomstay/internal/domain/booking"
	domainpayments "roomstay/internal/domain/payments"
	"roomstay/internal/domain/shared/money"
)

// SimulatedGateway approves every charge and issues a TXN-<uuid> reference.
type SimulatedGateway struct {
	Logger *slog.Logger
}

func (g SimulatedGateway) Charge(ctx context.Context, bookingID domainbooking.BookingID, amount money.Money, method domainpayments.Method) (domainpayments.Capture, error) {
	if err := ctx.Err(); err != nil {
		return domainpayments.Capture{}, err
	}
	capture := domainpayments.Capture{
		TransactionID: "TXN-" + uuid.NewString(),
		Status:        domainpayments.StatusSuccess,
		At:            time.Now().UTC(),
	}
	if g.Logger != nil {
		g.Logger.DebugContext(ctx, "simulated capture", "booking_id", bookingID, "amount", amount.Amount, "currency", amount.Currency, "method", method, "transaction_id", capture.TransactionID)
	}
	return capture, nil
}

var _ policies.PaymentGateway = SimulatedGateway{}
