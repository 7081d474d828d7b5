package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"roomstay/internal/app/commands"
	"roomstay/internal/app/dto"
	discountsapp "roomstay/internal/app/handlers/discounts"
	"roomstay/internal/app/queries"
)

type DiscountHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type addDiscountRequest struct {
	RoomID    string   `json:"room_id"`
	Name      string   `json:"name"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Rate      *float64 `json:"rate"`
}

func (h DiscountHandler) Create(c *gin.Context) {
	user, ok := requireAuth(c)
	if !ok {
		return
	}
	var req addDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	dates, fields := parseDates([2]string{"start_date", req.StartDate}, [2]string{"end_date", req.EndDate})
	if len(fields) > 0 {
		badRequest(c, "invalid discount dates", fields...)
		return
	}
	cmd := discountsapp.AddDiscountCommand{
		Principal: user,
		RoomID:    req.RoomID,
		Name:      req.Name,
		StartDate: dates[0],
		EndDate:   dates[1],
		Rate:      req.Rate,
	}
	result, err := commands.Dispatch[discountsapp.AddDiscountCommand, *dto.Discount](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h DiscountHandler) List(c *gin.Context) {
	user, ok := requireAuth(c)
	if !ok {
		return
	}
	result, err := queries.Ask[discountsapp.ListOwnerDiscountsQuery, dto.DiscountCollection](c.Request.Context(), h.Queries,
		discountsapp.ListOwnerDiscountsQuery{Principal: user})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ DiscountHTTP = DiscountHandler{}
