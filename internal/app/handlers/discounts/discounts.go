package discounts

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"roomstay/internal/app/commands"
	"roomstay/internal/app/dto"
	handlersupport "roomstay/internal/app/handlers/support"
	"roomstay/internal/app/middleware"
	"roomstay/internal/app/outbox"
	"roomstay/internal/app/policies"
	"roomstay/internal/app/services/pricing"
	"roomstay/internal/app/uow"
	"roomstay/internal/domain/auth"
	domaincatalog "roomstay/internal/domain/catalog"
	domaindiscounts "roomstay/internal/domain/discounts"
	"roomstay/internal/domain/shared/apperr"
)

const (
	addDiscountKey        = "discount.add"
	currentDiscountKey    = "discount.current"
	listOwnerDiscountsKey = "discount.list_owner"
)

var ErrNotRoomOwner = apperr.New(apperr.Unauthorized, "discounts: requester does not own the room")

type AddDiscountCommand struct {
	Principal auth.Principal
	RoomID    string    `validate:"required"`
	Name      string    `validate:"required,max=120"`
	StartDate time.Time `validate:"required"`
	EndDate   time.Time `validate:"required"`
	Rate      *float64  `validate:"required,min=0,max=100"`
}

func (c AddDiscountCommand) Key() string           { return addDiscountKey }
func (c AddDiscountCommand) Actor() auth.Principal { return c.Principal }
func (c AddDiscountCommand) Action() auth.Action   { return auth.ActionAddDiscount }
func (c AddDiscountCommand) LockKeys() []string {
	return []string{"discount:" + strings.TrimSpace(c.RoomID)}
}

// AddDiscountHandler stores a promotion for a room the caller owns. Periods
// of one room never overlap, so at most one discount is in force per day.
type AddDiscountHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Clock   policies.Clock
	Logger  *slog.Logger
}

func (h *AddDiscountHandler) Handle(ctx context.Context, cmd AddDiscountCommand) (*dto.Discount, error) {
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}
	roomID := domaincatalog.RoomID(strings.TrimSpace(cmd.RoomID))
	room, err := unit.Catalog().Room(ctx, roomID)
	if err != nil {
		return nil, err
	}
	property, err := unit.Catalog().Property(ctx, room.PropertyID)
	if err != nil {
		return nil, err
	}
	if !auth.Authorize(cmd.Principal, auth.ActionAddDiscount, auth.Resource{OwnerID: property.OwnerID}) {
		return nil, ErrNotRoomOwner
	}

	rate := -1.0
	if cmd.Rate != nil {
		rate = *cmd.Rate
	}
	now := policies.Now(h.Clock)
	discount, err := domaindiscounts.NewRoomDiscount(domaindiscounts.NewParams{
		ID:        domaindiscounts.DiscountID(uuid.NewString()),
		RoomID:    room.ID,
		Name:      cmd.Name,
		Start:     cmd.StartDate,
		End:       cmd.EndDate,
		Rate:      rate,
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	overlapping, err := unit.Discounts().Overlapping(ctx, room.ID, discount.Period)
	if err != nil {
		return nil, err
	}
	if len(overlapping) > 0 {
		return nil, domaindiscounts.ErrOverlappingDiscount
	}
	if err := unit.Discounts().Save(ctx, discount); err != nil {
		return nil, err
	}
	if err := outbox.Record(ctx, h.Outbox, h.Encoder, discount); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "discount added", "discount_id", discount.ID, "room_id", room.ID, "rate", discount.Rate)
	}
	result := dto.MapDiscount(discount, dto.MapRoomSnapshot(room.ID, room))
	return &result, nil
}

type CurrentDiscountQuery struct {
	RoomID string `validate:"required"`
}

func (q CurrentDiscountQuery) Key() string { return currentDiscountKey }

type ListOwnerDiscountsQuery struct {
	Principal auth.Principal
}

func (q ListOwnerDiscountsQuery) Key() string           { return listOwnerDiscountsKey }
func (q ListOwnerDiscountsQuery) Actor() auth.Principal { return q.Principal }
func (q ListOwnerDiscountsQuery) Action() auth.Action   { return auth.ActionListDiscounts }

type QueryHandler struct {
	UoWFactory uow.UoWFactory
	Clock      policies.Clock
	Logger     *slog.Logger
}

func (h *QueryHandler) CurrentDiscount(ctx context.Context, q CurrentDiscountQuery) (dto.CurrentDiscount, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.CurrentDiscount{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	room, err := unit.Catalog().Room(execCtx, domaincatalog.RoomID(strings.TrimSpace(q.RoomID)))
	if err != nil {
		return dto.CurrentDiscount{}, err
	}
	now := policies.Now(h.Clock)
	resolver := pricing.Resolver{Discounts: unit.Discounts(), Logger: h.Logger}
	current, err := resolver.CurrentDiscount(execCtx, room.ID, now)
	if err != nil {
		return dto.CurrentDiscount{}, err
	}
	out := dto.CurrentDiscount{
		RoomID:           string(room.ID),
		AsOf:             now.Format(time.DateOnly),
		NightlyBase:      dto.MapMoney(room.PricePerNight),
		NightlyEffective: dto.MapMoney(room.PricePerNight),
	}
	if current != nil {
		d := dto.MapDiscount(current, dto.MapRoomSnapshot(room.ID, room))
		out.Discount = &d
		effective, err := room.PricePerNight.PercentOff(current.Rate)
		if err != nil {
			return dto.CurrentDiscount{}, apperr.Wrap(apperr.InvariantViolation, "discounts: stored rate out of range", err)
		}
		out.NightlyEffective = dto.MapMoney(effective)
	}
	return out, nil
}

// ListOwnerDiscounts lists discounts across every room the caller owns,
// latest period start first.
func (h *QueryHandler) ListOwnerDiscounts(ctx context.Context, q ListOwnerDiscountsQuery) (dto.DiscountCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.DiscountCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	rooms, err := unit.Catalog().RoomsByOwner(execCtx, q.Principal.ID)
	if err != nil {
		return dto.DiscountCollection{}, err
	}
	if len(rooms) == 0 {
		return dto.DiscountCollection{Items: []dto.Discount{}}, nil
	}
	byID := make(map[domaincatalog.RoomID]*domaincatalog.Room, len(rooms))
	ids := make([]domaincatalog.RoomID, 0, len(rooms))
	for _, r := range rooms {
		byID[r.ID] = r
		ids = append(ids, r.ID)
	}
	found, err := unit.Discounts().ListByRooms(execCtx, ids)
	if err != nil {
		return dto.DiscountCollection{}, err
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Period.Start.After(found[j].Period.Start)
	})
	items := make([]dto.Discount, 0, len(found))
	for _, d := range found {
		items = append(items, dto.MapDiscount(d, dto.MapRoomSnapshot(d.RoomID, byID[d.RoomID])))
	}
	return dto.DiscountCollection{Items: items}, nil
}

var (
	_ commands.Handler[AddDiscountCommand, *dto.Discount] = (*AddDiscountHandler)(nil)
	_ middleware.SerializedCommand                        = AddDiscountCommand{}
	_ middleware.Guarded                                  = ListOwnerDiscountsQuery{}
)
