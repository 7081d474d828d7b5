package mongo

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"roomstay/internal/app/middleware"
	"roomstay/internal/app/uow"
	domainbooking "roomstay/internal/domain/booking"
	domaincatalog "roomstay/internal/domain/catalog"
	domaindiscounts "roomstay/internal/domain/discounts"
	domainreviews "roomstay/internal/domain/reviews"
)

// testFactory needs a replica set, since units run in session transactions.
func testFactory(t *testing.T) Factory {
	t.Helper()
	uri := os.Getenv("ROOMSTAY_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("ROOMSTAY_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	name := "roomstay_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	client, err := New(ctx, uri, name, 10*time.Second)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_ = client.DB.Drop(context.Background())
		_ = client.Close(context.Background())
	})
	if err := EnsureIndexes(ctx, client.DB); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	return NewFactory(client.DB)
}

func begin(t *testing.T, f Factory) (uow.UnitOfWork, context.Context) {
	t.Helper()
	unit, err := f.Begin(context.Background(), uow.TxOptions{})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	return unit, uow.Bind(context.Background(), unit)
}

func spring(id string) *domaindiscounts.RoomDiscount {
	return &domaindiscounts.RoomDiscount{
		ID:     domaindiscounts.DiscountID(id),
		RoomID: "r1",
		Name:   "Spring " + id,
		Period: domaindiscounts.Period{
			Start: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		},
		Rate:      20,
		CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestConcurrentDiscountSavesOnOneRoomConflict(t *testing.T) {
	f := testFactory(t)
	u1, ctx1 := begin(t, f)
	u2, ctx2 := begin(t, f)

	for _, tc := range []struct {
		unit uow.UnitOfWork
		ctx  context.Context
	}{{u1, ctx1}, {u2, ctx2}} {
		found, err := tc.unit.Discounts().Overlapping(tc.ctx, "r1", spring("x").Period)
		if err != nil || len(found) != 0 {
			t.Fatalf("Overlapping = %v, %v", found, err)
		}
	}
	if err := u1.Discounts().Save(ctx1, spring("d1")); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	err := u2.Discounts().Save(ctx2, spring("d2"))
	if !middleware.IsWriteConflict(err) {
		t.Fatalf("second Save = %v, want a retryable write conflict", err)
	}
	_ = u2.Rollback(ctx2)
	if err := u1.Commit(ctx1); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	u3, ctx3 := begin(t, f)
	defer u3.Rollback(ctx3)
	found, err := u3.Discounts().Overlapping(ctx3, "r1", spring("x").Period)
	if err != nil || len(found) != 1 || found[0].ID != "d1" {
		t.Fatalf("stored discounts = %v, %v", found, err)
	}
}

func TestDiscountGuardIsSeparateFromBookingGuard(t *testing.T) {
	f := testFactory(t)
	u1, ctx1 := begin(t, f)
	u2, ctx2 := begin(t, f)
	if err := bumpGuard(ctx1, f.DB.Collection(colRoomGuards), string(domaincatalog.RoomID("r1"))); err != nil {
		t.Fatalf("booking guard: %v", err)
	}
	if err := u2.Discounts().Save(ctx2, spring("d1")); err != nil {
		t.Fatalf("discount Save next to an admission: %v", err)
	}
	if err := u1.Commit(ctx1); err != nil {
		t.Fatalf("Commit admission: %v", err)
	}
	if err := u2.Commit(ctx2); err != nil {
		t.Fatalf("Commit discount: %v", err)
	}
}

func TestDuplicateFirstReviewIsRetryable(t *testing.T) {
	f := testFactory(t)
	review := func(id, bookingID string) *domainreviews.Review {
		r, err := domainreviews.Submit(domainreviews.SubmitParams{
			ID: domainreviews.ReviewID(id), RoomID: "r1", UserID: "u1", BookingID: domainbooking.BookingID(bookingID),
			Rating: 4, CreatedAt: time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		return r
	}
	u1, ctx1 := begin(t, f)
	u2, ctx2 := begin(t, f)
	if err := u1.Reviews().Save(ctx1, review("rv1", "b1")); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if err := u1.Commit(ctx1); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	err := u2.Reviews().Save(ctx2, review("rv2", "b2"))
	if !middleware.IsWriteConflict(err) {
		t.Fatalf("second Save = %v, want a retryable write conflict", err)
	}
	_ = u2.Rollback(ctx2)

	u3, ctx3 := begin(t, f)
	defer u3.Rollback(ctx3)
	got, err := u3.Reviews().ByRoomAndUser(ctx3, "r1", "u1")
	if err != nil || got.ID != "rv1" {
		t.Fatalf("stored review = %+v, %v", got, err)
	}
}
