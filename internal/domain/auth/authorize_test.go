package auth

import "testing"

func TestAuthorize(t *testing.T) {
	guest := Principal{ID: "u1", Role: RoleUser}
	owner := Principal{ID: "o1", Role: RolePropertyOwner}
	admin := Principal{ID: "a1", Role: RoleAdmin}

	cases := []struct {
		name   string
		p      Principal
		action Action
		res    Resource
		want   bool
	}{
		{"guest cancels own booking", guest, ActionCancelBooking, Resource{GuestID: "u1"}, true},
		{"guest cancels foreign booking", guest, ActionCancelBooking, Resource{GuestID: "u2"}, false},
		{"owner completes own room booking", owner, ActionCompleteBooking, Resource{OwnerID: "o1"}, true},
		{"owner completes foreign room booking", owner, ActionCompleteBooking, Resource{OwnerID: "o2"}, false},
		{"guest cannot complete", guest, ActionCompleteBooking, Resource{OwnerID: "u1"}, false},
		{"owner cannot pay", owner, ActionPayBooking, Resource{GuestID: "o1"}, false},
		{"admin still needs ownership", admin, ActionCancelBooking, Resource{GuestID: "u1"}, false},
		{"admin may list discounts", admin, ActionListDiscounts, Resource{}, true},
		{"anonymous rejected", Principal{}, ActionCreateBooking, Resource{}, false},
		{"missing owner fact rejected", owner, ActionAddDiscount, Resource{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Authorize(tc.p, tc.action, tc.res); got != tc.want {
				t.Fatalf("Authorize = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	for raw, want := range map[string]Role{"user": RoleUser, "propertyOwner": RolePropertyOwner, "ADMIN": RoleAdmin} {
		got, ok := ParseRole(raw)
		if !ok || got != want {
			t.Fatalf("ParseRole(%q) = %q, %v", raw, got, ok)
		}
	}
	if _, ok := ParseRole("root"); ok {
		t.Fatalf("unexpected role accepted")
	}
}
