package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/event-seat-booking/internal/cache"
	"github.com/iliyamo/event-seat-booking/internal/model"
	"github.com/iliyamo/event-seat-booking/internal/repository"
)

// Cache is the read-through cache in front of event reads.
type Cache interface {
	Invalidator
	Get(ctx context.Context, key string, dest any) error
	Put(ctx context.Context, key string, value any, ttl time.Duration) error
}

// EventReader reads and inserts events outside the inventory lock.
type EventReader interface {
	Create(ctx context.Context, title, description string, date time.Time, totalSeats int) (model.Event, error)
	List(ctx context.Context) ([]model.EventView, error)
	GetView(ctx context.Context, id uint64) (model.EventView, error)
	Availability(ctx context.Context, id uint64) (model.Availability, error)
}

// CacheSettings holds the TTLs and timeout used by read-through lookups.
type CacheSettings struct {
	TTL             time.Duration
	AvailabilityTTL time.Duration
	Timeout         time.Duration
}

// EventService serves event reads through the cache and performs event
// writes, invalidating every cached view the write can affect.
type EventService struct {
	events  EventReader
	store   InventoryStore
	cache   Cache
	effects *PostCommit
	cfg     CacheSettings
	timeout time.Duration
	now     func() time.Time
	log     *zap.Logger
}

func NewEventService(events EventReader, store InventoryStore, c Cache, effects *PostCommit, cfg CacheSettings, storeTimeout time.Duration, log *zap.Logger) *EventService {
	return &EventService{
		events:  events,
		store:   store,
		cache:   c,
		effects: effects,
		cfg:     cfg,
		timeout: storeTimeout,
		now:     func() time.Time { return time.Now().UTC() },
		log:     log.Named("events"),
	}
}

// EventInput carries the fields of a new event.
type EventInput struct {
	Title       string
	Description string
	EventDate   time.Time
	TotalSeats  int
}

// EventPatch carries the fields to change on an event; nil means keep.
type EventPatch struct {
	Title       *string
	Description *string
	EventDate   *time.Time
	TotalSeats  *int
}

// readThrough returns the cached value at key or loads, stores and returns
// it.  Any cache failure degrades to a plain load.
func readThrough[T any](ctx context.Context, s *EventService, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var v T
	cctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	err := s.cache.Get(cctx, key, &v)
	cancel()
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	lctx, lcancel := context.WithTimeout(ctx, s.timeout)
	defer lcancel()
	v, err = load(lctx)
	if err != nil {
		return v, err
	}

	cctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	if err := s.cache.Put(cctx, key, v, ttl); err != nil {
		s.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}

// ListEvents returns every event with its seat counts, soonest first.
func (s *EventService) ListEvents(ctx context.Context) ([]model.EventView, error) {
	v, err := readThrough(ctx, s, cache.AllEventsKey, s.cfg.TTL, s.events.List)
	if err != nil {
		return nil, classify(s.log, "list events", err)
	}
	return v, nil
}

// GetEvent returns one event with its seat counts.
func (s *EventService) GetEvent(ctx context.Context, id uint64) (model.EventView, error) {
	v, err := readThrough(ctx, s, cache.EventKey(id), s.cfg.TTL, func(ctx context.Context) (model.EventView, error) {
		return s.events.GetView(ctx, id)
	})
	if err != nil {
		return model.EventView{}, storeErr(s.log, "get event", "event", err)
	}
	return v, nil
}

// Availability returns the seat snapshot of one event.  It is cached with
// the shorter availability TTL.
func (s *EventService) Availability(ctx context.Context, id uint64) (model.Availability, error) {
	v, err := readThrough(ctx, s, cache.AvailabilityKey(id), s.cfg.AvailabilityTTL, func(ctx context.Context) (model.Availability, error) {
		return s.events.Availability(ctx, id)
	})
	if err != nil {
		return model.Availability{}, storeErr(s.log, "event availability", "event", err)
	}
	return v, nil
}

// CreateEvent inserts an event and drops the cached event list.
func (s *EventService) CreateEvent(ctx context.Context, in EventInput) (model.Event, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateEvent(in.Title, in.TotalSeats); err != nil {
		return model.Event{}, err
	}
	if err := s.validateDate(in.EventDate); err != nil {
		return model.Event{}, err
	}
	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ev, err := s.events.Create(sctx, in.Title, strings.TrimSpace(in.Description), in.EventDate, in.TotalSeats)
	if err != nil {
		return model.Event{}, classify(s.log, "create event", err)
	}
	s.effects.Run(ctx, []string{"events:*"}, nil)
	return ev, nil
}

// UpdateEvent applies p under the event lock.  Capacity cannot drop below
// the seats already booked.
func (s *EventService) UpdateEvent(ctx context.Context, id uint64, p EventPatch) (model.EventView, error) {
	var out model.EventView
	txCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err := s.store.InTx(txCtx, func(tx repository.InventoryTx) error {
		v, err := tx.LockEvent(txCtx, id)
		if err != nil {
			return notFoundAs(err, "event")
		}
		ev := v.Event
		if p.Title != nil {
			ev.Title = strings.TrimSpace(*p.Title)
		}
		if p.Description != nil {
			ev.Description = strings.TrimSpace(*p.Description)
		}
		if p.EventDate != nil {
			if err := s.validateDate(*p.EventDate); err != nil {
				return err
			}
			ev.EventDate = p.EventDate.UTC()
		}
		if p.TotalSeats != nil {
			ev.TotalSeats = *p.TotalSeats
		}
		if err := validateEvent(ev.Title, ev.TotalSeats); err != nil {
			return err
		}
		if ev.TotalSeats < v.BookedSeats {
			return &InvalidStateError{Reason: "total_seats cannot be lower than the seats already booked"}
		}
		if err := tx.UpdateEvent(txCtx, &ev); err != nil {
			return err
		}
		out = model.EventView{Event: ev, BookedSeats: v.BookedSeats, AvailableSeats: ev.TotalSeats - v.BookedSeats}
		return nil
	})
	if err != nil {
		return model.EventView{}, classify(s.log, "update event", err)
	}
	s.effects.Run(ctx, cache.EventPatterns(id), nil)
	return out, nil
}

// DeleteEvent removes an event that has no bookings.
func (s *EventService) DeleteEvent(ctx context.Context, id uint64) error {
	txCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err := s.store.InTx(txCtx, func(tx repository.InventoryTx) error {
		v, err := tx.LockEvent(txCtx, id)
		if err != nil {
			return notFoundAs(err, "event")
		}
		if v.BookedSeats > 0 {
			return conflict("event has bookings")
		}
		return tx.DeleteEvent(txCtx, id)
	})
	if err != nil {
		return classify(s.log, "delete event", err)
	}
	s.effects.Run(ctx, cache.EventPatterns(id), nil)
	return nil
}

func validateEvent(title string, totalSeats int) error {
	switch {
	case title == "":
		return &ValidationError{Field: "title", Reason: "is required"}
	case totalSeats <= 0:
		return &ValidationError{Field: "total_seats", Reason: "must be greater than 0"}
	}
	return nil
}

// validateDate rejects a missing date and one that is not in the future.
func (s *EventService) validateDate(date time.Time) error {
	switch {
	case date.IsZero():
		return &ValidationError{Field: "event_date", Reason: "is required"}
	case !date.After(s.now()):
		return &ValidationError{Field: "event_date", Reason: "must be in the future"}
	}
	return nil
}
