package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"roomstay/internal/domain/shared/apperr"
)

var kindStatus = map[apperr.Kind]int{
	apperr.InvalidInput:       http.StatusBadRequest,
	apperr.NotFound:           http.StatusNotFound,
	apperr.CapacityExceeded:   http.StatusBadRequest,
	apperr.Conflict:           http.StatusConflict,
	apperr.Unauthorized:       http.StatusForbidden,
	apperr.AlreadyPaid:        http.StatusConflict,
	apperr.AlreadyCancelled:   http.StatusConflict,
	apperr.Immutable:          http.StatusConflict,
	apperr.InvalidTransition:  http.StatusConflict,
	apperr.NotPaid:            http.StatusBadRequest,
	apperr.NotCompleted:       http.StatusBadRequest,
	apperr.InvariantViolation: http.StatusInternalServerError,
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Success bool                    `json:"success"`
	Kind    apperr.Kind             `json:"kind"`
	Message string                  `json:"message"`
	Fields  []apperr.FieldViolation `json:"fields,omitempty"`
}

// writeError renders err with its kind. Internal failures keep their
// message out of the response.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	status := StatusFor(kind)
	body := errorBody{Kind: kind, Message: err.Error(), Fields: apperr.FieldsOf(err)}
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Message != "" && len(appErr.Fields) == 0 {
		body.Message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		if logger != nil {
			logger.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "kind", kind, "error", err)
		}
		if kind != apperr.InvariantViolation {
			body.Kind = apperr.Internal
			body.Message = "internal error"
		}
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, message string, fields ...apperr.FieldViolation) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Kind: apperr.InvalidInput, Message: message, Fields: fields})
}

// parseDate accepts a calendar date or an RFC 3339 instant.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// parseDates parses the named date fields, collecting one violation per bad field.
func parseDates(pairs ...[2]string) ([]time.Time, []apperr.FieldViolation) {
	out := make([]time.Time, len(pairs))
	var fields []apperr.FieldViolation
	for i, p := range pairs {
		t, err := parseDate(p[1])
		if err != nil {
			fields = append(fields, apperr.FieldViolation{Field: p[0], Rule: "date"})
			continue
		}
		out[i] = t
	}
	return out, fields
}
