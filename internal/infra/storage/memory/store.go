package memory

import (
	"context"
	"sync"

	"roomstay/internal/app/uow"
	domainbooking "roomstay/internal/domain/booking"
	domaincatalog "roomstay/internal/domain/catalog"
	domaindiscounts "roomstay/internal/domain/discounts"
	domainpayments "roomstay/internal/domain/payments"
	domainreviews "roomstay/internal/domain/reviews"
	infraoutbox "roomstay/internal/infra/outbox"
)

type reviewKey struct {
	room domaincatalog.RoomID
	user string
}

// tables is one snapshot of every collection; the store holds the committed
// one and each writing unit stages its changes in another.
type tables struct {
	rooms        map[domaincatalog.RoomID]*domaincatalog.Room
	properties   map[domaincatalog.PropertyID]*domaincatalog.Property
	bookings     map[domainbooking.BookingID]*domainbooking.Booking
	transactions map[domainbooking.BookingID]*domainpayments.Transaction
	discounts    map[domaindiscounts.DiscountID]*domaindiscounts.RoomDiscount
	reviews      map[reviewKey]*domainreviews.Review
	outbox       []*infraoutbox.EventDocument
}

func newTables() *tables {
	return &tables{
		rooms:        make(map[domaincatalog.RoomID]*domaincatalog.Room),
		properties:   make(map[domaincatalog.PropertyID]*domaincatalog.Property),
		bookings:     make(map[domainbooking.BookingID]*domainbooking.Booking),
		transactions: make(map[domainbooking.BookingID]*domainpayments.Transaction),
		discounts:    make(map[domaindiscounts.DiscountID]*domaindiscounts.RoomDiscount),
		reviews:      make(map[reviewKey]*domainreviews.Review),
	}
}

// Store is a serializable in-memory database. A writing unit holds the
// store lock from Begin until Commit or Rollback, read-only units share it.
type Store struct {
	mu     sync.RWMutex
	data   *tables
	signal infraoutbox.Signal
}

func NewStore() *Store {
	return &Store{data: newTables(), signal: infraoutbox.NewSignal()}
}

// Begin implements uow.UoWFactory.
func (s *Store) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u := &Unit{store: s, readOnly: opts.ReadOnly}
	if opts.ReadOnly {
		s.mu.RLock()
	} else {
		s.mu.Lock()
		u.staged = newTables()
	}
	return u, nil
}

// Unit is one transaction against the Store. It is not safe for concurrent use.
type Unit struct {
	store    *Store
	readOnly bool
	staged   *tables
	done     bool
}

func (u *Unit) Catalog() domaincatalog.Reader           { return catalogView{u} }
func (u *Unit) Booking() domainbooking.Repository       { return bookingView{u} }
func (u *Unit) Transactions() domainpayments.Repository { return transactionView{u} }
func (u *Unit) Discounts() domaindiscounts.Repository   { return discountView{u} }
func (u *Unit) Reviews() domainreviews.Repository       { return reviewView{u} }

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return nil
	}
	if !u.readOnly {
		u.apply()
	}
	u.release()
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.release()
	return nil
}

func (u *Unit) release() {
	u.done = true
	if u.readOnly {
		u.store.mu.RUnlock()
		return
	}
	u.staged = nil
	u.store.mu.Unlock()
}

func (u *Unit) apply() {
	base, st := u.store.data, u.staged
	for k, v := range st.rooms {
		base.rooms[k] = v
	}
	for k, v := range st.properties {
		base.properties[k] = v
	}
	for k, v := range st.bookings {
		base.bookings[k] = v
	}
	for k, v := range st.transactions {
		base.transactions[k] = v
	}
	for k, v := range st.discounts {
		base.discounts[k] = v
	}
	for k, v := range st.reviews {
		base.reviews[k] = v
	}
	base.outbox = append(base.outbox, st.outbox...)
}

func (u *Unit) writable() error {
	if u.done {
		return errUnitClosed
	}
	if u.readOnly {
		return errReadOnly
	}
	return nil
}

// lookup reads through the staged changes to the committed data.
func lookup[K comparable, V any](u *Unit, pick func(*tables) map[K]V, key K) (V, bool) {
	if u.staged != nil {
		if v, ok := pick(u.staged)[key]; ok {
			return v, true
		}
	}
	v, ok := pick(u.store.data)[key]
	return v, ok
}

// scan visits the merged view once per key.
func scan[K comparable, V any](u *Unit, pick func(*tables) map[K]V, visit func(V)) {
	var staged map[K]V
	if u.staged != nil {
		staged = pick(u.staged)
		for _, v := range staged {
			visit(v)
		}
	}
	for k, v := range pick(u.store.data) {
		if _, shadowed := staged[k]; shadowed {
			continue
		}
		visit(v)
	}
}

var _ uow.UoWFactory = (*Store)(nil)
