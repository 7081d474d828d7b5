package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"roomstay/internal/app/commands"
	"roomstay/internal/app/dto"
	bookingapp "roomstay/internal/app/handlers/booking"
	reviewsapp "roomstay/internal/app/handlers/reviews"
	"roomstay/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	RoomID          string `json:"room_id"`
	CheckIn         string `json:"check_in"`
	CheckOut        string `json:"check_out"`
	Guests          int    `json:"guests"`
	SpecialRequests string `json:"special_requests"`
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requireAuth(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	dates, fields := parseDates([2]string{"check_in", req.CheckIn}, [2]string{"check_out", req.CheckOut})
	if len(fields) > 0 {
		badRequest(c, "invalid booking dates", fields...)
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		Principal:       user,
		RoomID:          req.RoomID,
		CheckIn:         dates[0],
		CheckOut:        dates[1],
		Guests:          req.Guests,
		SpecialRequests: req.SpecialRequests,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type payBookingRequest struct {
	PaymentMethod string `json:"payment_method"`
}

func (h BookingHandler) Pay(c *gin.Context) {
	user, ok := requireAuth(c)
	if !ok {
		return
	}
	var req payBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cmd := bookingapp.PayBookingCommand{
		Principal:       user,
		BookingID:       c.Param("id"),
		Method:          req.PaymentMethod,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.PayBookingCommand, *dto.PaymentReceipt](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Cancel(c *gin.Context) {
	user, ok := requireAuth(c)
	if !ok {
		return
	}
	var req cancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	cmd := bookingapp.CancelBookingCommand{Principal: user, BookingID: c.Param("id"), Reason: req.Reason}
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, *dto.BookingTransition](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Confirm(c *gin.Context) {
	user, ok := requireAuth(c)
	if !ok {
		return
	}
	cmd := bookingapp.ConfirmBookingCommand{Principal: user, BookingID: c.Param("id")}
	result, err := commands.Dispatch[bookingapp.ConfirmBookingCommand, *dto.BookingTransition](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Complete(c *gin.Context) {
	user, ok := requireAuth(c)
	if !ok {
		return
	}
	cmd := bookingapp.CompleteBookingCommand{Principal: user, BookingID: c.Param("id")}
	result, err := commands.Dispatch[bookingapp.CompleteBookingCommand, *dto.BookingTransition](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ReviewEligibility(c *gin.Context) {
	user, ok := requireAuth(c)
	if !ok {
		return
	}
	q := bookingapp.ReviewEligibilityQuery{Principal: user, BookingID: c.Param("id")}
	result, err := queries.Ask[bookingapp.ReviewEligibilityQuery, dto.ReviewEligibility](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Review answers 201 for a first review and 200 when it revised one.
func (h BookingHandler) Review(c *gin.Context) {
	user, ok := requireAuth(c)
	if !ok {
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cmd := reviewsapp.AddOrUpdateReviewCommand{Principal: user, BookingID: c.Param("id"), Rating: req.Rating, Comment: req.Comment}
	result, err := commands.Dispatch[reviewsapp.AddOrUpdateReviewCommand, *dto.ReviewSubmission](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

// ReviewByID returns the caller's review of the booked room. The review id
// segment is optional.
func (h BookingHandler) ReviewByID(c *gin.Context) {
	user, ok := requireAuth(c)
	if !ok {
		return
	}
	q := reviewsapp.ReviewByBookingQuery{Principal: user, BookingID: c.Param("id"), ReviewID: c.Param("reviewId")}
	result, err := queries.Ask[reviewsapp.ReviewByBookingQuery, dto.Review](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}
