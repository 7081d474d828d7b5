package auth

// Action names an operation subject to a capability check.
type Action string

const (
	ActionCreateBooking   Action = "booking.create"
	ActionPayBooking      Action = "booking.pay"
	ActionCancelBooking   Action = "booking.cancel"
	ActionConfirmBooking  Action = "booking.confirm"
	ActionCompleteBooking Action = "booking.complete"
	ActionReviewBooking   Action = "booking.review"
	ActionViewBookings    Action = "booking.list"
	ActionAddDiscount     Action = "discount.add"
	ActionListDiscounts   Action = "discount.list"
	ActionListOwnReviews  Action = "review.list_owner"
)

var capabilities = map[Role]map[Action]bool{
	RoleUser: {
		ActionCreateBooking: true,
		ActionPayBooking:    true,
		ActionCancelBooking: true,
		ActionReviewBooking: true,
		ActionViewBookings:  true,
	},
	RolePropertyOwner: {
		ActionConfirmBooking:  true,
		ActionCompleteBooking: true,
		ActionViewBookings:    true,
		ActionAddDiscount:     true,
		ActionListDiscounts:   true,
		ActionListOwnReviews:  true,
	},
}

// Resource carries the ownership facts an action is checked against.
// Empty fields are not checked.
type Resource struct {
	GuestID string
	OwnerID string
}

// Permits reports whether the role may attempt the action at all.
func Permits(role Role, action Action) bool {
	if role == RoleAdmin {
		return true
	}
	return capabilities[role][action]
}

// Authorize combines the role capability with ownership of the resource.
// Ownership is enforced for every role, admin included.
func Authorize(p Principal, action Action, res Resource) bool {
	if !p.Authenticated() || !Permits(p.Role, action) {
		return false
	}
	switch action {
	case ActionPayBooking, ActionCancelBooking, ActionReviewBooking:
		return res.GuestID != "" && res.GuestID == p.ID
	case ActionConfirmBooking, ActionCompleteBooking, ActionAddDiscount:
		return res.OwnerID != "" && res.OwnerID == p.ID
	}
	return true
}
