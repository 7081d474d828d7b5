package reviews

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"roomstay/internal/app/commands"
	"roomstay/internal/app/dto"
	handlersupport "roomstay/internal/app/handlers/support"
	"roomstay/internal/app/middleware"
	"roomstay/internal/app/outbox"
	"roomstay/internal/app/policies"
	"roomstay/internal/app/uow"
	"roomstay/internal/domain/auth"
	domainbooking "roomstay/internal/domain/booking"
	domaincatalog "roomstay/internal/domain/catalog"
	domainreviews "roomstay/internal/domain/reviews"
)

const (
	submitReviewKey     = "review.submit"
	listOwnerReviewsKey = "review.list_owner"
	reviewByBookingKey  = "review.by_booking"
)

type AddOrUpdateReviewCommand struct {
	Principal auth.Principal
	BookingID string `validate:"required"`
	Rating    int    `validate:"min=1,max=5"`
	Comment   string `validate:"max=2000"`
}

func (c AddOrUpdateReviewCommand) Key() string           { return submitReviewKey }
func (c AddOrUpdateReviewCommand) Actor() auth.Principal { return c.Principal }
func (c AddOrUpdateReviewCommand) Action() auth.Action   { return auth.ActionReviewBooking }

// LockKeys serializes writes per booking. Two bookings of one room by the same
// guest race on the (room, user) unique index instead, and the retried loser
// revises the winner's review.
func (c AddOrUpdateReviewCommand) LockKeys() []string {
	return []string{"booking:" + strings.TrimSpace(c.BookingID)}
}

// AddOrUpdateReviewHandler writes the caller's single review of the booked
// room once the stay is paid and completed.
type AddOrUpdateReviewHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Clock   policies.Clock
	Logger  *slog.Logger
}

func (h *AddOrUpdateReviewHandler) Handle(ctx context.Context, cmd AddOrUpdateReviewCommand) (*dto.ReviewSubmission, error) {
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}
	b, err := unit.Booking().ByID(ctx, domainbooking.BookingID(strings.TrimSpace(cmd.BookingID)))
	if err != nil {
		return nil, err
	}
	if err := b.ReviewEligibility(cmd.Principal.ID); err != nil {
		return nil, err
	}
	room, err := unit.Catalog().Room(ctx, b.RoomID)
	if err != nil {
		return nil, err
	}

	now := policies.Now(h.Clock)
	review, err := unit.Reviews().ByRoomAndUser(ctx, room.ID, cmd.Principal.ID)
	created := false
	switch {
	case errors.Is(err, domainreviews.ErrNotFound):
		review, err = domainreviews.Submit(domainreviews.SubmitParams{
			ID:        domainreviews.ReviewID(uuid.NewString()),
			RoomID:    room.ID,
			UserID:    cmd.Principal.ID,
			BookingID: b.ID,
			Rating:    cmd.Rating,
			Comment:   cmd.Comment,
			CreatedAt: now,
		})
		if err != nil {
			return nil, err
		}
		created = true
	case err != nil:
		return nil, err
	default:
		if err := review.Revise(b.ID, cmd.Rating, cmd.Comment, now); err != nil {
			return nil, err
		}
	}
	if err := unit.Reviews().Save(ctx, review); err != nil {
		return nil, err
	}
	if err := outbox.Record(ctx, h.Outbox, h.Encoder, review); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "review saved", "review_id", review.ID, "room_id", room.ID, "created", created)
	}
	return &dto.ReviewSubmission{Review: dto.MapReview(review, dto.MapRoomSnapshot(room.ID, room)), Created: created}, nil
}

type ListOwnerReviewsQuery struct {
	Principal auth.Principal
}

func (q ListOwnerReviewsQuery) Key() string           { return listOwnerReviewsKey }
func (q ListOwnerReviewsQuery) Actor() auth.Principal { return q.Principal }
func (q ListOwnerReviewsQuery) Action() auth.Action   { return auth.ActionListOwnReviews }

type ListOwnerReviewsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListOwnerReviewsHandler) Handle(ctx context.Context, q ListOwnerReviewsQuery) (dto.ReviewCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	rooms, err := unit.Catalog().RoomsByOwner(execCtx, q.Principal.ID)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	items := []dto.Review{}
	if len(rooms) == 0 {
		return dto.ReviewCollection{Items: items}, nil
	}
	byID := make(map[domaincatalog.RoomID]*domaincatalog.Room, len(rooms))
	ids := make([]domaincatalog.RoomID, 0, len(rooms))
	for _, r := range rooms {
		byID[r.ID] = r
		ids = append(ids, r.ID)
	}
	found, err := unit.Reviews().ListByRooms(execCtx, ids)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].UpdatedAt.After(found[j].UpdatedAt)
	})
	for _, r := range found {
		if !r.Visible {
			continue
		}
		items = append(items, dto.MapReview(r, dto.MapRoomSnapshot(r.RoomID, byID[r.RoomID])))
	}
	return dto.ReviewCollection{Items: items}, nil
}

// ReviewByBookingQuery fetches the caller's review written against a booking.
// ReviewID is optional; when set it must name that review.
type ReviewByBookingQuery struct {
	Principal auth.Principal
	BookingID string `validate:"required"`
	ReviewID  string
}

func (q ReviewByBookingQuery) Key() string           { return reviewByBookingKey }
func (q ReviewByBookingQuery) Actor() auth.Principal { return q.Principal }
func (q ReviewByBookingQuery) Action() auth.Action   { return auth.ActionReviewBooking }

type ReviewByBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ReviewByBookingHandler) Handle(ctx context.Context, q ReviewByBookingQuery) (dto.Review, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Review{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	b, err := unit.Booking().ByID(execCtx, domainbooking.BookingID(strings.TrimSpace(q.BookingID)))
	if err != nil {
		return dto.Review{}, err
	}
	if !auth.Authorize(q.Principal, auth.ActionReviewBooking, auth.Resource{GuestID: b.GuestID}) {
		return dto.Review{}, domainbooking.ErrNotGuest
	}
	review, err := unit.Reviews().ByRoomAndUser(execCtx, b.RoomID, b.GuestID)
	if err != nil {
		return dto.Review{}, err
	}
	if id := strings.TrimSpace(q.ReviewID); id != "" && string(review.ID) != id {
		return dto.Review{}, domainreviews.ErrNotFound
	}
	room, err := unit.Catalog().Room(execCtx, b.RoomID)
	if err != nil && !errors.Is(err, domaincatalog.ErrRoomNotFound) {
		return dto.Review{}, err
	}
	return dto.MapReview(review, dto.MapRoomSnapshot(b.RoomID, room)), nil
}

var (
	_ commands.Handler[AddOrUpdateReviewCommand, *dto.ReviewSubmission] = (*AddOrUpdateReviewHandler)(nil)
	_ middleware.SerializedCommand                                      = AddOrUpdateReviewCommand{}
)
