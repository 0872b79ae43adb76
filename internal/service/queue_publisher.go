package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iliyamo/event-seat-booking/internal/queue"
)

// BusPublisher encodes booking events as JSON and publishes them on the
// subject named by their kind.
type BusPublisher struct {
	bus queue.Publisher
}

func NewBusPublisher(bus queue.Publisher) *BusPublisher { return &BusPublisher{bus: bus} }

// PublishBookingEvent returns once the broker has accepted the message.
func (p *BusPublisher) PublishBookingEvent(ctx context.Context, ev queue.BookingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Kind, err)
	}
	return p.bus.Publish(ctx, ev.Kind, body)
}
