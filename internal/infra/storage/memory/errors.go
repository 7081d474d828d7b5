package memory

import (
	"errors"

	"roomstay/internal/domain/shared/apperr"
)

var (
	errReadOnly   = errors.New("memory: write in read-only unit of work")
	errUnitClosed = errors.New("memory: unit of work already finished")
)

var errReviewExists = apperr.New(apperr.Conflict, "memory: room already reviewed by user")
