package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"roomstay/internal/app/dto"
	bookingapp "roomstay/internal/app/handlers/booking"
	discountsapp "roomstay/internal/app/handlers/discounts"
	"roomstay/internal/app/queries"
)

// RoomHandler serves the public room reads.
type RoomHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h RoomHandler) Availability(c *gin.Context) {
	dates, fields := parseDates([2]string{"check_in", c.Query("check_in")}, [2]string{"check_out", c.Query("check_out")})
	if len(fields) > 0 {
		badRequest(c, "check_in and check_out query parameters are required", fields...)
		return
	}
	q := bookingapp.RoomAvailabilityQuery{RoomID: c.Param("id"), CheckIn: dates[0], CheckOut: dates[1]}
	result, err := queries.Ask[bookingapp.RoomAvailabilityQuery, dto.Availability](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RoomHandler) CurrentDiscount(c *gin.Context) {
	q := discountsapp.CurrentDiscountQuery{RoomID: c.Param("id")}
	result, err := queries.Ask[discountsapp.CurrentDiscountQuery, dto.CurrentDiscount](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ RoomHTTP = RoomHandler{}
