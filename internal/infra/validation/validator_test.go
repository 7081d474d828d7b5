package validation

import (
	"context"
	"errors"
	"testing"
	"time"

	"roomstay/internal/domain/shared/apperr"
)

type sample struct {
	RoomID   string    `validate:"required"`
	CheckIn  time.Time `validate:"required"`
	Guests   int       `validate:"min=1"`
	Rate     *float64  `validate:"required,min=0,max=100"`
	Optional string
}

func TestValidateCollectsEveryViolation(t *testing.T) {
	rate := 120.0
	err := New().Validate(context.Background(), sample{Rate: &rate})
	if !errors.Is(err, apperr.InvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
	got := map[string]string{}
	for _, f := range apperr.FieldsOf(err) {
		got[f.Field] = f.Rule
	}
	want := map[string]string{"room_id": "required", "check_in": "required", "guests": "min", "rate": "max"}
	for field, rule := range want {
		if got[field] != rule {
			t.Fatalf("field %s: rule %q, want %q (all: %v)", field, got[field], rule, got)
		}
	}
}

func TestValidatePassesValidMessage(t *testing.T) {
	rate := 0.0
	msg := &sample{RoomID: "r", CheckIn: time.Now(), Guests: 1, Rate: &rate}
	if err := New().Validate(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestValidateIgnoresNonStruct(t *testing.T) {
	if err := New().Validate(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
