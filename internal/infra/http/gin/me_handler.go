package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"roomstay/internal/app/dto"
	bookingapp "roomstay/internal/app/handlers/booking"
	reviewsapp "roomstay/internal/app/handlers/reviews"
	transactionsapp "roomstay/internal/app/handlers/transactions"
	"roomstay/internal/app/queries"
)

// MeHandler serves the caller's own bookings, payments and, for owners,
// the reviews left on their rooms.
type MeHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h MeHandler) ListBookings(c *gin.Context) {
	user, ok := requireAuth(c)
	if !ok {
		return
	}
	result, err := queries.Ask[bookingapp.ListGuestBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries,
		bookingapp.ListGuestBookingsQuery{Principal: user})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h MeHandler) ListTransactions(c *gin.Context) {
	user, ok := requireAuth(c)
	if !ok {
		return
	}
	result, err := queries.Ask[transactionsapp.ListUserTransactionsQuery, dto.TransactionCollection](c.Request.Context(), h.Queries,
		transactionsapp.ListUserTransactionsQuery{Principal: user})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h MeHandler) OwnerReviews(c *gin.Context) {
	user, ok := requireAuth(c)
	if !ok {
		return
	}
	result, err := queries.Ask[reviewsapp.ListOwnerReviewsQuery, dto.ReviewCollection](c.Request.Context(), h.Queries,
		reviewsapp.ListOwnerReviewsQuery{Principal: user})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ MeHTTP = MeHandler{}
