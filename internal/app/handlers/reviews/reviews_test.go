package reviews

import (
	"testing"

	"roomstay/internal/domain/auth"
)

func TestReviewLockIsScopedToTheBooking(t *testing.T) {
	guest := auth.Principal{ID: "guest-1", Role: auth.RoleUser}
	a := AddOrUpdateReviewCommand{Principal: guest, BookingID: " b-1 ", Rating: 5}
	b := AddOrUpdateReviewCommand{Principal: guest, BookingID: "b-2", Rating: 4}

	keys := a.LockKeys()
	if len(keys) != 1 || keys[0] != "booking:b-1" {
		t.Fatalf("lock keys = %v", keys)
	}
	for _, ka := range a.LockKeys() {
		for _, kb := range b.LockKeys() {
			if ka == kb {
				t.Fatalf("reviews of different bookings share lock %q", ka)
			}
		}
	}
}
