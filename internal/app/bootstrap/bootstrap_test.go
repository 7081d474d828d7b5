package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"roomstay/internal/app/commands"
	"roomstay/internal/app/dto"
	bookingapp "roomstay/internal/app/handlers/booking"
	discountsapp "roomstay/internal/app/handlers/discounts"
	reviewsapp "roomstay/internal/app/handlers/reviews"
	transactionsapp "roomstay/internal/app/handlers/transactions"
	"roomstay/internal/app/policies"
	"roomstay/internal/app/queries"
	"roomstay/internal/domain/auth"
	domainbooking "roomstay/internal/domain/booking"
	domaincatalog "roomstay/internal/domain/catalog"
	domaindiscounts "roomstay/internal/domain/discounts"
	"roomstay/internal/domain/shared/apperr"
	"roomstay/internal/domain/shared/money"
	lockmemory "roomstay/internal/infra/lock/memory"
	"roomstay/internal/infra/payments"
	"roomstay/internal/infra/storage/memory"
	"roomstay/internal/infra/validation"
)

var (
	today = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	day0  = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	guest  = auth.Principal{ID: "guest-1", Role: auth.RoleUser}
	guest2 = auth.Principal{ID: "guest-2", Role: auth.RoleUser}
	owner  = auth.Principal{ID: "owner-1", Role: auth.RolePropertyOwner}
	other  = auth.Principal{ID: "owner-2", Role: auth.RolePropertyOwner}
)

type env struct {
	store *memory.Store
	buses Buses
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	if err := store.UpsertProperty(ctx, &domaincatalog.Property{ID: "p1", OwnerID: owner.ID, Name: "Lakeside"}); err != nil {
		t.Fatalf("UpsertProperty: %v", err)
	}
	if err := store.UpsertProperty(ctx, &domaincatalog.Property{ID: "p2", OwnerID: other.ID, Name: "Hilltop"}); err != nil {
		t.Fatalf("UpsertProperty: %v", err)
	}
	for _, r := range []*domaincatalog.Room{
		{ID: "r1", PropertyID: "p1", Name: "Deluxe", RoomNumber: "101", Capacity: 2, PricePerNight: money.Must(100, "INR"), Active: true},
		{ID: "r2", PropertyID: "p2", Name: "Suite", RoomNumber: "201", Capacity: 4, PricePerNight: money.Must(250, "INR"), Active: true},
	} {
		if err := store.UpsertRoom(ctx, r); err != nil {
			t.Fatalf("UpsertRoom: %v", err)
		}
	}
	buses := Build(Deps{
		UoWFactory:   store,
		Outbox:       store.Outbox(),
		Idempotency:  memory.NewIdempotencyStore(),
		Locker:       lockmemory.NewLocker(),
		Gateway:      payments.SimulatedGateway{},
		Validator:    validation.New(),
		Clock:        policies.FixedClock{T: today},
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		RefundPolicy: domainbooking.RefundAlways,
		RetryBackoff: []time.Duration{time.Millisecond, 2 * time.Millisecond},
	})
	return &env{store: store, buses: buses}
}

func (e *env) book(p auth.Principal, room string, from time.Time, nights, guests int) (*dto.Booking, error) {
	return commands.Dispatch[bookingapp.CreateBookingCommand, *dto.Booking](context.Background(), e.buses.Commands, bookingapp.CreateBookingCommand{
		Principal: p,
		RoomID:    room,
		CheckIn:   from,
		CheckOut:  from.AddDate(0, 0, nights),
		Guests:    guests,
	})
}

func (e *env) pay(p auth.Principal, id, method string) (*dto.PaymentReceipt, error) {
	return commands.Dispatch[bookingapp.PayBookingCommand, *dto.PaymentReceipt](context.Background(), e.buses.Commands,
		bookingapp.PayBookingCommand{Principal: p, BookingID: id, Method: method})
}

func (e *env) cancel(p auth.Principal, id string) (*dto.BookingTransition, error) {
	return commands.Dispatch[bookingapp.CancelBookingCommand, *dto.BookingTransition](context.Background(), e.buses.Commands,
		bookingapp.CancelBookingCommand{Principal: p, BookingID: id})
}

func (e *env) complete(p auth.Principal, id string) (*dto.BookingTransition, error) {
	return commands.Dispatch[bookingapp.CompleteBookingCommand, *dto.BookingTransition](context.Background(), e.buses.Commands,
		bookingapp.CompleteBookingCommand{Principal: p, BookingID: id})
}

func (e *env) review(p auth.Principal, id string, rating int) (*dto.ReviewSubmission, error) {
	return commands.Dispatch[reviewsapp.AddOrUpdateReviewCommand, *dto.ReviewSubmission](context.Background(), e.buses.Commands,
		reviewsapp.AddOrUpdateReviewCommand{Principal: p, BookingID: id, Rating: rating, Comment: "ok"})
}

func (e *env) addDiscount(p auth.Principal, room string, start, end time.Time, rate float64) (*dto.Discount, error) {
	return commands.Dispatch[discountsapp.AddDiscountCommand, *dto.Discount](context.Background(), e.buses.Commands,
		discountsapp.AddDiscountCommand{Principal: p, RoomID: room, Name: "Promo", StartDate: start, EndDate: end, Rate: &rate})
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected %s, got %v (kind %s)", kind, err, apperr.KindOf(err))
	}
}

func TestConcurrentAdmissionsAdmitExactlyOne(t *testing.T) {
	e := newEnv(t)
	const n = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := auth.Principal{ID: fmt.Sprintf("guest-%d", i), Role: auth.RoleUser}
			_, err := e.book(p, "r1", day0, 3, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, apperr.Conflict):
				conflicts++
			default:
				t.Errorf("unexpected error %v", err)
			}
		}(i)
	}
	wg.Wait()
	if successes != 1 || conflicts != n-1 {
		t.Fatalf("successes=%d conflicts=%d", successes, conflicts)
	}
}

func TestDisjointAndAdjacentRangesAreAdmitted(t *testing.T) {
	e := newEnv(t)
	if _, err := e.book(guest, "r1", day0, 3, 1); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if _, err := e.book(guest2, "r1", day0.AddDate(0, 0, 3), 2, 1); err != nil {
		t.Fatalf("adjacent booking should be admitted: %v", err)
	}
	if _, err := e.book(guest2, "r1", day0.AddDate(0, 0, 10), 1, 1); err != nil {
		t.Fatalf("disjoint booking should be admitted: %v", err)
	}
	_, err := e.book(guest2, "r1", day0.AddDate(0, 0, 2), 2, 1)
	wantKind(t, err, apperr.Conflict)
}

func TestCancelledBookingFreesDates(t *testing.T) {
	e := newEnv(t)
	b, err := e.book(guest, "r1", day0, 2, 1)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := e.cancel(guest, b.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := e.book(guest2, "r1", day0, 2, 1); err != nil {
		t.Fatalf("dates of a cancelled booking should be free: %v", err)
	}
}

func TestAdmissionRejections(t *testing.T) {
	e := newEnv(t)
	_, err := e.book(guest, "missing", day0, 1, 1)
	wantKind(t, err, apperr.NotFound)

	_, err = e.book(guest, "r1", day0, 1, 3)
	wantKind(t, err, apperr.CapacityExceeded)

	_, err = e.book(guest, "r1", day0, 0, 1)
	wantKind(t, err, apperr.InvalidInput)

	_, err = e.book(guest, "r1", day0, 1, 0)
	wantKind(t, err, apperr.InvalidInput)

	_, err = e.book(owner, "r1", day0, 1, 1)
	wantKind(t, err, apperr.Unauthorized)
}

func TestAdmissionPricesWithCurrentDiscount(t *testing.T) {
	e := newEnv(t)
	b, err := e.book(guest, "r1", day0, 3, 2)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if b.TotalAmount.Amount != 300 {
		t.Fatalf("expected 300 without discount, got %d", b.TotalAmount.Amount)
	}
	if b.Status != "pending" || b.PaymentStatus != "unpaid" {
		t.Fatalf("unexpected initial state %s/%s", b.Status, b.PaymentStatus)
	}

	if _, err := e.addDiscount(owner, "r1", today.AddDate(0, 0, -1), today.AddDate(0, 0, 5), 20); err != nil {
		t.Fatalf("addDiscount: %v", err)
	}
	b, err = e.book(guest, "r1", day0.AddDate(0, 0, 7), 3, 1)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if b.TotalAmount.Amount != 240 || b.Price.NightlyEffective.Amount != 80 {
		t.Fatalf("expected 240 total at 80/night, got %d at %d", b.TotalAmount.Amount, b.Price.NightlyEffective.Amount)
	}
}

func TestOverlappingStoredDiscountsFailAdmission(t *testing.T) {
	e := newEnv(t)
	for _, id := range []string{"d1", "d2"} {
		d, err := domaindiscounts.NewRoomDiscount(domaindiscounts.NewParams{
			ID: domaindiscounts.DiscountID(id), RoomID: "r1", Name: id,
			Start: today.AddDate(0, 0, -2), End: today.AddDate(0, 0, 2), Rate: 10,
		})
		if err != nil {
			t.Fatalf("NewRoomDiscount: %v", err)
		}
		e.store.SeedDiscount(d)
	}
	_, err := e.book(guest, "r1", day0, 2, 1)
	wantKind(t, err, apperr.InvariantViolation)
}

func TestDiscountAdministration(t *testing.T) {
	e := newEnv(t)
	start := day0
	if _, err := e.addDiscount(owner, "r1", start, start.AddDate(0, 0, 9), 15); err != nil {
		t.Fatalf("addDiscount: %v", err)
	}
	_, err := e.addDiscount(owner, "r1", start.AddDate(0, 0, 9), start.AddDate(0, 0, 12), 10)
	wantKind(t, err, apperr.Conflict)

	_, err = e.addDiscount(other, "r1", start.AddDate(0, 1, 0), start.AddDate(0, 1, 2), 10)
	wantKind(t, err, apperr.Unauthorized)

	_, err = e.addDiscount(owner, "r1", start.AddDate(0, 1, 5), start.AddDate(0, 1, 2), 10)
	wantKind(t, err, apperr.InvalidInput)

	_, err = e.addDiscount(owner, "r1", start.AddDate(0, 2, 0), start.AddDate(0, 2, 1), 120)
	wantKind(t, err, apperr.InvalidInput)

	if _, err := e.addDiscount(owner, "r1", start.AddDate(0, 0, 10), start.AddDate(0, 0, 12), 10); err != nil {
		t.Fatalf("the day after the previous period should be free: %v", err)
	}

	list, err := queries.Ask[discountsapp.ListOwnerDiscountsQuery, dto.DiscountCollection](context.Background(), e.buses.Queries,
		discountsapp.ListOwnerDiscountsQuery{Principal: owner})
	if err != nil {
		t.Fatalf("ListOwnerDiscounts: %v", err)
	}
	if len(list.Items) != 2 || list.Items[0].StartDate != "2026-04-11" {
		t.Fatalf("unexpected discounts %+v", list.Items)
	}
}

func TestPaymentIsRecordedOnce(t *testing.T) {
	e := newEnv(t)
	b, err := e.book(guest, "r1", day0, 2, 1)
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	_, err = e.pay(guest, b.ID, "bitcoin")
	wantKind(t, err, apperr.InvalidInput)
	_, err = e.pay(guest2, b.ID, "card")
	wantKind(t, err, apperr.Unauthorized)
	_, err = e.pay(guest, "nope", "card")
	wantKind(t, err, apperr.NotFound)

	receipt, err := e.pay(guest, b.ID, "UPI")
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if receipt.Booking.PaymentStatus != "paid" || receipt.Transaction.Amount.Amount != 200 || receipt.Transaction.Method != "upi" {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	_, err = e.pay(guest, b.ID, "card")
	wantKind(t, err, apperr.AlreadyPaid)

	txs, err := queries.Ask[transactionsapp.ListUserTransactionsQuery, dto.TransactionCollection](context.Background(), e.buses.Queries,
		transactionsapp.ListUserTransactionsQuery{Principal: guest})
	if err != nil {
		t.Fatalf("ListUserTransactions: %v", err)
	}
	if len(txs.Items) != 1 {
		t.Fatalf("expected one transaction, got %d", len(txs.Items))
	}
}

func TestConcurrentPaymentsCaptureOnce(t *testing.T) {
	e := newEnv(t)
	b, err := e.book(guest, "r1", day0, 2, 1)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		paid int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.pay(guest, b.ID, "card")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				paid++
			} else if !errors.Is(err, apperr.AlreadyPaid) {
				t.Errorf("unexpected error %v", err)
			}
		}()
	}
	wg.Wait()
	if paid != 1 {
		t.Fatalf("expected exactly one payment, got %d", paid)
	}
}

func TestCancelCompleteRaceEndsInOneTerminalState(t *testing.T) {
	e := newEnv(t)
	const rounds = 20
	winners := make(map[string]string, rounds)
	for i := 0; i < rounds; i++ {
		b, err := e.book(guest, "r1", day0.AddDate(0, 0, 2*i), 1, 1)
		if err != nil {
			t.Fatalf("book %d: %v", i, err)
		}
		var (
			wg                  sync.WaitGroup
			cancelErr, complErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, cancelErr = e.cancel(guest, b.ID)
		}()
		go func() {
			defer wg.Done()
			_, complErr = e.complete(owner, b.ID)
		}()
		wg.Wait()

		switch {
		case cancelErr == nil && complErr != nil:
			wantKind(t, complErr, apperr.InvalidTransition)
			winners[b.ID] = "cancelled"
		case complErr == nil && cancelErr != nil:
			wantKind(t, cancelErr, apperr.Immutable)
			winners[b.ID] = "completed"
		default:
			t.Fatalf("round %d: cancel=%v complete=%v, want exactly one winner", i, cancelErr, complErr)
		}
	}

	list, err := queries.Ask[bookingapp.ListGuestBookingsQuery, dto.BookingCollection](context.Background(), e.buses.Queries,
		bookingapp.ListGuestBookingsQuery{Principal: guest})
	if err != nil {
		t.Fatalf("ListGuestBookings: %v", err)
	}
	if len(list.Items) != rounds {
		t.Fatalf("expected %d bookings, got %d", rounds, len(list.Items))
	}
	for _, b := range list.Items {
		if b.Status != winners[b.ID] {
			t.Fatalf("booking %s status = %s, winner was %s", b.ID, b.Status, winners[b.ID])
		}
	}
}

func TestConcurrentOverlappingDiscountsAdmitOne(t *testing.T) {
	e := newEnv(t)
	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		added     int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := day0.AddDate(0, 0, i)
			_, err := e.addDiscount(owner, "r1", start, start.AddDate(0, 0, n), 10)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				added++
			case errors.Is(err, apperr.Conflict):
				conflicts++
			default:
				t.Errorf("unexpected error %v", err)
			}
		}(i)
	}
	wg.Wait()
	if added != 1 || conflicts != n-1 {
		t.Fatalf("added=%d conflicts=%d", added, conflicts)
	}

	// Admission still resolves a single discount for the room.
	if _, err := e.book(guest, "r1", day0.AddDate(0, 0, n), 1, 1); err != nil {
		t.Fatalf("book after concurrent discounts: %v", err)
	}
}

func TestTerminalStatesAreImmutable(t *testing.T) {
	e := newEnv(t)
	cancelled, _ := e.book(guest, "r1", day0, 1, 1)
	if _, err := e.cancel(guest, cancelled.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err := e.cancel(guest, cancelled.ID)
	wantKind(t, err, apperr.AlreadyCancelled)
	_, err = e.pay(guest, cancelled.ID, "card")
	wantKind(t, err, apperr.Immutable)
	_, err = e.complete(owner, cancelled.ID)
	wantKind(t, err, apperr.InvalidTransition)

	done, _ := e.book(guest, "r1", day0.AddDate(0, 0, 5), 1, 1)
	_, err = e.complete(other, done.ID)
	wantKind(t, err, apperr.Unauthorized)
	if _, err := e.complete(owner, done.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	_, err = e.cancel(guest, done.ID)
	wantKind(t, err, apperr.Immutable)
	_, err = e.complete(owner, done.ID)
	wantKind(t, err, apperr.InvalidTransition)
	_, err = e.cancel(guest2, done.ID)
	wantKind(t, err, apperr.Unauthorized)
}

func TestCancelRefundsUnderDefaultPolicy(t *testing.T) {
	e := newEnv(t)
	b, _ := e.book(guest, "r1", day0, 1, 1)
	res, err := e.cancel(guest, b.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if res.Status != "cancelled" || res.PaymentStatus != "refunded" {
		t.Fatalf("unexpected transition %+v", res)
	}
}

func TestReviewGate(t *testing.T) {
	e := newEnv(t)
	b, _ := e.book(guest, "r1", day0, 2, 1)

	_, err := e.review(guest2, b.ID, 5)
	wantKind(t, err, apperr.Unauthorized)
	_, err = e.review(guest, b.ID, 5)
	wantKind(t, err, apperr.NotPaid)

	if _, err := e.pay(guest, b.ID, "wallet"); err != nil {
		t.Fatalf("pay: %v", err)
	}
	_, err = e.review(guest, b.ID, 5)
	wantKind(t, err, apperr.NotCompleted)

	elig, err := queries.Ask[bookingapp.ReviewEligibilityQuery, dto.ReviewEligibility](context.Background(), e.buses.Queries,
		bookingapp.ReviewEligibilityQuery{Principal: guest, BookingID: b.ID})
	if err != nil || elig.Eligible || elig.Kind != string(apperr.NotCompleted) {
		t.Fatalf("unexpected eligibility %+v, %v", elig, err)
	}

	if _, err := e.complete(owner, b.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	_, err = e.review(guest, b.ID, 6)
	wantKind(t, err, apperr.InvalidInput)

	first, err := e.review(guest, b.ID, 4)
	if err != nil || !first.Created {
		t.Fatalf("first review: %+v, %v", first, err)
	}
	second, err := e.review(guest, b.ID, 2)
	if err != nil || second.Created || second.Review.ID != first.Review.ID || second.Review.Rating != 2 {
		t.Fatalf("second review should update the first: %+v, %v", second, err)
	}

	list, err := queries.Ask[reviewsapp.ListOwnerReviewsQuery, dto.ReviewCollection](context.Background(), e.buses.Queries,
		reviewsapp.ListOwnerReviewsQuery{Principal: owner})
	if err != nil || len(list.Items) != 1 {
		t.Fatalf("owner reviews: %+v, %v", list, err)
	}

	bookings, err := queries.Ask[bookingapp.ListGuestBookingsQuery, dto.BookingCollection](context.Background(), e.buses.Queries,
		bookingapp.ListGuestBookingsQuery{Principal: guest})
	if err != nil || len(bookings.Items) != 1 || bookings.Items[0].CanReview == nil || !*bookings.Items[0].CanReview {
		t.Fatalf("guest bookings: %+v, %v", bookings, err)
	}
}

func (e *env) settle(t *testing.T, host auth.Principal, room string, from time.Time) *dto.Booking {
	t.Helper()
	b, err := e.book(guest, room, from, 1, 1)
	if err != nil {
		t.Fatalf("book %s: %v", room, err)
	}
	if _, err := e.pay(guest, b.ID, "wallet"); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if _, err := e.complete(host, b.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	return b
}

func TestReviewByBooking(t *testing.T) {
	e := newEnv(t)
	b := e.settle(t, owner, "r1", day0)
	ask := func(p auth.Principal, reviewID string) (dto.Review, error) {
		return queries.Ask[reviewsapp.ReviewByBookingQuery, dto.Review](context.Background(), e.buses.Queries,
			reviewsapp.ReviewByBookingQuery{Principal: p, BookingID: b.ID, ReviewID: reviewID})
	}

	_, err := ask(guest, "")
	wantKind(t, err, apperr.NotFound)

	sub, err := e.review(guest, b.ID, 4)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	got, err := ask(guest, sub.Review.ID)
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if got.ID != sub.Review.ID || got.Rating != 4 || got.Comment != "ok" || got.Room.ID != "r1" {
		t.Fatalf("unexpected review %+v", got)
	}
	if _, err := ask(guest, ""); err != nil {
		t.Fatalf("without id: %v", err)
	}

	_, err = ask(guest, "missing")
	wantKind(t, err, apperr.NotFound)
	_, err = ask(guest2, sub.Review.ID)
	wantKind(t, err, apperr.Unauthorized)
	_, err = ask(owner, sub.Review.ID)
	wantKind(t, err, apperr.Unauthorized)

	_, err = queries.Ask[reviewsapp.ReviewByBookingQuery, dto.Review](context.Background(), e.buses.Queries,
		reviewsapp.ReviewByBookingQuery{Principal: guest, BookingID: "nope"})
	wantKind(t, err, apperr.NotFound)
}

func TestGuestReviewsTwoRoomsConcurrently(t *testing.T) {
	e := newEnv(t)
	bookings := []*dto.Booking{e.settle(t, owner, "r1", day0), e.settle(t, other, "r2", day0)}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		subs []*dto.ReviewSubmission
	)
	for _, b := range bookings {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			sub, err := e.review(guest, id, 5)
			if err != nil {
				t.Errorf("review %s: %v", id, err)
				return
			}
			mu.Lock()
			subs = append(subs, sub)
			mu.Unlock()
		}(b.ID)
	}
	wg.Wait()
	if len(subs) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(subs))
	}
	for _, sub := range subs {
		if !sub.Created {
			t.Fatalf("review of %s should be new", sub.Review.Room.ID)
		}
	}
	if subs[0].Review.Room.ID == subs[1].Review.Room.ID {
		t.Fatalf("both reviews landed on room %s", subs[0].Review.Room.ID)
	}
}

func TestRepeatStayReviewsConverge(t *testing.T) {
	e := newEnv(t)
	first := e.settle(t, owner, "r1", day0)
	second := e.settle(t, owner, "r1", day0.AddDate(0, 0, 3))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		ids     = map[string]bool{}
	)
	for i, b := range []*dto.Booking{first, second} {
		wg.Add(1)
		go func(id string, rating int) {
			defer wg.Done()
			sub, err := e.review(guest, id, rating)
			if err != nil {
				t.Errorf("review %s: %v", id, err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if sub.Created {
				created++
			}
			ids[sub.Review.ID] = true
		}(b.ID, 3+i)
	}
	wg.Wait()
	if created != 1 || len(ids) != 1 {
		t.Fatalf("created=%d distinct=%d, want one review", created, len(ids))
	}
}

func TestIdempotentAdmission(t *testing.T) {
	e := newEnv(t)
	cmd := bookingapp.CreateBookingCommand{
		Principal: guest, RoomID: "r1", CheckIn: day0, CheckOut: day0.AddDate(0, 0, 2), Guests: 1,
		IdempotencyKeyV: "key-1",
	}
	first, err := commands.Dispatch[bookingapp.CreateBookingCommand, *dto.Booking](context.Background(), e.buses.Commands, cmd)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	again, err := commands.Dispatch[bookingapp.CreateBookingCommand, *dto.Booking](context.Background(), e.buses.Commands, cmd)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("replay returned %s, want %s", again.ID, first.ID)
	}

	cmd.Principal = guest2
	_, err = commands.Dispatch[bookingapp.CreateBookingCommand, *dto.Booking](context.Background(), e.buses.Commands, cmd)
	wantKind(t, err, apperr.Conflict)
	// The rejection is remembered with its kind.
	_, err = commands.Dispatch[bookingapp.CreateBookingCommand, *dto.Booking](context.Background(), e.buses.Commands, cmd)
	wantKind(t, err, apperr.Conflict)
}

func TestOutboxCollectsLifecycleEvents(t *testing.T) {
	e := newEnv(t)
	b, _ := e.book(guest, "r1", day0, 1, 1)
	_, _ = e.pay(guest, b.ID, "cod")
	_, _ = e.cancel(guest, b.ID)

	var names []string
	for _, rec := range e.store.Outbox().Records() {
		names = append(names, rec.Name)
	}
	want := []string{"booking.requested", "booking.paid", "booking.cancelled"}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Fatalf("events = %v, want %v", names, want)
	}
}

func TestRoomAvailabilityQuery(t *testing.T) {
	e := newEnv(t)
	if _, err := e.book(guest, "r1", day0, 2, 1); err != nil {
		t.Fatalf("book: %v", err)
	}
	ask := func(from time.Time, nights int) dto.Availability {
		t.Helper()
		res, err := queries.Ask[bookingapp.RoomAvailabilityQuery, dto.Availability](context.Background(), e.buses.Queries,
			bookingapp.RoomAvailabilityQuery{RoomID: "r1", CheckIn: from, CheckOut: from.AddDate(0, 0, nights)})
		if err != nil {
			t.Fatalf("RoomAvailability: %v", err)
		}
		return res
	}
	if ask(day0.AddDate(0, 0, 1), 2).Available {
		t.Fatalf("overlapping range reported available")
	}
	if !ask(day0.AddDate(0, 0, 2), 2).Available {
		t.Fatalf("adjacent range reported unavailable")
	}
}
