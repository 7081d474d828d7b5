package reviews

import (
	"errors"
	"testing"
	"time"

	"roomstay/internal/domain/shared/apperr"
)

func TestSubmitAndRevise(t *testing.T) {
	now := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	r, err := Submit(SubmitParams{ID: "rv", RoomID: "r", UserID: "u", BookingID: "b1", Rating: 4, Comment: " nice "})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if r.Comment != "nice" || !r.Visible {
		t.Fatalf("unexpected review %+v", r)
	}
	r.ClearEvents()

	if err := r.Revise("b2", 0, "", now); !errors.Is(err, apperr.InvalidInput) {
		t.Fatalf("rating 0: expected InvalidInput, got %v", err)
	}
	if err := r.Revise("b2", 5, "great", now); err != nil {
		t.Fatalf("Revise: %v", err)
	}
	evs := r.PendingEvents()
	if len(evs) != 1 || evs[0].EventName() != "review.updated" {
		t.Fatalf("expected review.updated, got %v", evs)
	}
	if r.Rating != 5 || r.BookingID != "b2" || !r.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected review after revise %+v", r)
	}
}

func TestSubmitRejectsRatingOutOfRange(t *testing.T) {
	for _, rating := range []int{0, 6, -1} {
		if _, err := Submit(SubmitParams{ID: "x", Rating: rating}); !errors.Is(err, ErrInvalidRating) {
			t.Fatalf("rating %d: expected ErrInvalidRating, got %v", rating, err)
		}
	}
}
