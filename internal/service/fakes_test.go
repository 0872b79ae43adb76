package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/event-seat-booking/internal/cache"
	"github.com/iliyamo/event-seat-booking/internal/model"
	"github.com/iliyamo/event-seat-booking/internal/queue"
	"github.com/iliyamo/event-seat-booking/internal/repository"
)

// memInventory is an in-memory InventoryStore.  LockEvent takes a per-event
// mutex held until the transaction ends, standing in for SELECT ... FOR
// UPDATE; writes are staged and applied only on commit.
type memInventory struct {
	mu       sync.Mutex
	events   map[uint64]model.Event
	users    map[uint64]model.User
	bookings map[uint64]model.Booking
	nextID   uint64
	rowLocks map[uint64]*sync.Mutex
	txErr    error
	stall    bool // LockEvent blocks until its context ends
}

func newMemInventory() *memInventory {
	return &memInventory{
		events:   map[uint64]model.Event{},
		users:    map[uint64]model.User{},
		bookings: map[uint64]model.Booking{},
		rowLocks: map[uint64]*sync.Mutex{},
		nextID:   100,
	}
}

func (m *memInventory) addEvent(ev model.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[ev.ID] = ev
}

func (m *memInventory) addUser(u model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *memInventory) booked(eventID uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookedLocked(eventID)
}

func (m *memInventory) bookedLocked(eventID uint64) int {
	n := 0
	for _, b := range m.bookings {
		if b.EventID == eventID {
			n += b.SeatsBooked
		}
	}
	return n
}

func (m *memInventory) bookingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}

func (m *memInventory) rowLock(eventID uint64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rowLocks[eventID]
	if !ok {
		l = &sync.Mutex{}
		m.rowLocks[eventID] = l
	}
	return l
}

func (m *memInventory) InTx(ctx context.Context, fn func(tx repository.InventoryTx) error) error {
	if m.txErr != nil {
		return m.txErr
	}
	tx := &memTx{m: m, locked: map[uint64]bool{}, eventUpdates: map[uint64]model.Event{}}
	defer tx.release()
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

type memTx struct {
	m            *memInventory
	locked       map[uint64]bool
	held         []*sync.Mutex
	inserts      []model.Booking
	deletes      []uint64
	eventUpdates map[uint64]model.Event
	eventDeletes []uint64
}

func (t *memTx) lock(eventID uint64) {
	if t.locked[eventID] {
		return
	}
	l := t.m.rowLock(eventID)
	l.Lock()
	t.locked[eventID] = true
	t.held = append(t.held, l)
}

func (t *memTx) release() {
	for _, l := range t.held {
		l.Unlock()
	}
}

func (t *memTx) commit() {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	for _, b := range t.inserts {
		t.m.bookings[b.ID] = b
	}
	for _, id := range t.deletes {
		delete(t.m.bookings, id)
	}
	for id, ev := range t.eventUpdates {
		t.m.events[id] = ev
	}
	for _, id := range t.eventDeletes {
		delete(t.m.events, id)
	}
}

func (t *memTx) LockEvent(ctx context.Context, eventID uint64) (model.EventView, error) {
	if t.m.stall {
		<-ctx.Done()
		return model.EventView{}, ctx.Err()
	}
	t.lock(eventID)
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	ev, ok := t.m.events[eventID]
	if !ok {
		return model.EventView{}, repository.ErrNotFound
	}
	booked := t.m.bookedLocked(eventID)
	return model.EventView{Event: ev, BookedSeats: booked, AvailableSeats: ev.TotalSeats - booked}, nil
}

func (t *memTx) GetUser(_ context.Context, userID uint64) (model.User, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	u, ok := t.m.users[userID]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (t *memTx) InsertBooking(_ context.Context, b *model.Booking) error {
	t.m.mu.Lock()
	t.m.nextID++
	b.ID = t.m.nextID
	t.m.mu.Unlock()
	b.CreatedAt = time.Now().UTC()
	t.inserts = append(t.inserts, *b)
	return nil
}

func (t *memTx) LockBooking(_ context.Context, bookingID uint64) (model.BookingDetail, error) {
	t.m.mu.Lock()
	b, ok := t.m.bookings[bookingID]
	t.m.mu.Unlock()
	if !ok {
		return model.BookingDetail{}, repository.ErrNotFound
	}
	t.lock(b.EventID)
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if _, ok := t.m.bookings[bookingID]; !ok {
		return model.BookingDetail{}, repository.ErrNotFound
	}
	u := t.m.users[b.UserID]
	ev := t.m.events[b.EventID]
	return model.BookingDetail{Booking: b, UserName: u.Name, UserEmail: u.Email, EventTitle: ev.Title, EventDate: ev.EventDate}, nil
}

func (t *memTx) DeleteBooking(_ context.Context, bookingID uint64) error {
	t.deletes = append(t.deletes, bookingID)
	return nil
}

func (t *memTx) UpdateEvent(_ context.Context, e *model.Event) error {
	e.UpdatedAt = time.Now().UTC()
	t.eventUpdates[e.ID] = *e
	return nil
}

func (t *memTx) DeleteEvent(_ context.Context, eventID uint64) error {
	t.eventDeletes = append(t.eventDeletes, eventID)
	return nil
}

// memEvents answers EventReader calls from the same memInventory.
type memEvents struct{ m *memInventory }

func (r memEvents) Create(_ context.Context, title, description string, date time.Time, totalSeats int) (model.Event, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.nextID++
	ev := model.Event{ID: r.m.nextID, Title: title, Description: description, EventDate: date, TotalSeats: totalSeats}
	r.m.events[ev.ID] = ev
	return ev, nil
}

func (r memEvents) List(ctx context.Context) ([]model.EventView, error) {
	r.m.mu.Lock()
	ids := make([]uint64, 0, len(r.m.events))
	for id := range r.m.events {
		ids = append(ids, id)
	}
	r.m.mu.Unlock()
	out := make([]model.EventView, 0, len(ids))
	for _, id := range ids {
		v, err := r.GetView(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (r memEvents) GetView(_ context.Context, id uint64) (model.EventView, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	ev, ok := r.m.events[id]
	if !ok {
		return model.EventView{}, repository.ErrNotFound
	}
	booked := r.m.bookedLocked(id)
	return model.EventView{Event: ev, BookedSeats: booked, AvailableSeats: ev.TotalSeats - booked}, nil
}

func (r memEvents) Availability(ctx context.Context, id uint64) (model.Availability, error) {
	v, err := r.GetView(ctx, id)
	if err != nil {
		return model.Availability{}, err
	}
	return model.Availability{EventID: id, TotalSeats: v.TotalSeats, BookedSeats: v.BookedSeats, AvailableSeats: v.AvailableSeats}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
	err    error
}

func (p *recordingPublisher) PublishBookingEvent(_ context.Context, ev queue.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) published() []queue.BookingEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.BookingEvent(nil), p.events...)
}

// failingInvalidator simulates an unreachable cache on the write path.
type failingInvalidator struct{ calls int }

func (f *failingInvalidator) InvalidatePattern(context.Context, string) (int64, error) {
	f.calls++
	return 0, errors.New("dial tcp: connection refused")
}

type fixture struct {
	inv    *memInventory
	mr     *miniredis.Miniredis
	cache  *cache.RedisCache
	pub    *recordingPublisher
	engine *ReservationEngine
	events *EventService
	now    time.Time
}

var (
	testNow   = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	testCache = CacheSettings{TTL: 300 * time.Second, AvailabilityTTL: 60 * time.Second, Timeout: time.Second}
)

// newFixture wires the engine and event service over memInventory and a
// miniredis-backed cache.  A non-nil inv replaces the cache invalidator on
// the write path.
func newFixture(t *testing.T, inv Invalidator) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = rc.Close() })

	if inv == nil {
		inv = rc
	}
	f := &fixture{inv: newMemInventory(), mr: mr, cache: rc, pub: &recordingPublisher{}, now: testNow}
	log := zap.NewNop()
	effects := NewPostCommit(inv, f.pub, time.Second, time.Second, log)
	f.engine = NewReservationEngine(f.inv, effects, 5*time.Second, log)
	f.engine.now = func() time.Time { return f.now }
	f.events = NewEventService(memEvents{f.inv}, f.inv, rc, effects, testCache, 5*time.Second, log)
	f.events.now = func() time.Time { return f.now }

	f.inv.addEvent(model.Event{ID: 1, Title: "Jazz Night", EventDate: testNow.Add(48 * time.Hour), TotalSeats: 10})
	f.inv.addUser(model.User{ID: 1, Name: "Ada", Email: "ada@example.com"})
	f.inv.addUser(model.User{ID: 2, Name: "Grace", Email: "grace@example.com"})
	return f
}

func (f *fixture) seedCache(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, f.mr.Set(k, `{}`))
	}
}
