package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/event-seat-booking/internal/queue"
)

// Invalidator removes cache entries matching a glob pattern.
type Invalidator interface {
	InvalidatePattern(ctx context.Context, pattern string) (int64, error)
}

// EventPublisher emits booking events to the bus.
type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, ev queue.BookingEvent) error
}

// PostCommit runs the side effects of a committed write: cache
// invalidation first, then event publication.  Each step has its own
// timeout; a failing pattern or publish is logged and the rest still runs.
// Nothing here can fail the write that triggered it.
type PostCommit struct {
	cache          Invalidator
	pub            EventPublisher
	cacheTimeout   time.Duration
	publishTimeout time.Duration
	log            *zap.Logger
}

func NewPostCommit(cache Invalidator, pub EventPublisher, cacheTimeout, publishTimeout time.Duration, log *zap.Logger) *PostCommit {
	return &PostCommit{
		cache:          cache,
		pub:            pub,
		cacheTimeout:   cacheTimeout,
		publishTimeout: publishTimeout,
		log:            log.Named("post-commit"),
	}
}

// Run invalidates patterns and publishes ev when it is non-nil.  It
// ignores cancellation of ctx so a client disconnect after commit does not
// skip the side effects.
func (p *PostCommit) Run(ctx context.Context, patterns []string, ev *queue.BookingEvent) {
	ctx = context.WithoutCancel(ctx)
	p.invalidate(ctx, patterns)
	if ev != nil {
		p.publish(ctx, *ev)
	}
}

func (p *PostCommit) invalidate(ctx context.Context, patterns []string) {
	if len(patterns) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, p.cacheTimeout)
	defer cancel()
	var removed int64
	for _, pattern := range patterns {
		n, err := p.cache.InvalidatePattern(ctx, pattern)
		if err != nil {
			// stale entries expire within one TTL
			p.log.Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
			continue
		}
		removed += n
	}
	p.log.Debug("cache invalidated", zap.Strings("patterns", patterns), zap.Int64("removed", removed))
}

func (p *PostCommit) publish(ctx context.Context, ev queue.BookingEvent) {
	ctx, cancel := context.WithTimeout(ctx, p.publishTimeout)
	defer cancel()
	if err := p.pub.PublishBookingEvent(ctx, ev); err != nil {
		p.log.Error("publish booking event failed",
			zap.String("kind", ev.Kind),
			zap.Uint64("booking_id", ev.BookingID),
			zap.Error(err))
		return
	}
	p.log.Debug("booking event published", zap.String("kind", ev.Kind), zap.Uint64("booking_id", ev.BookingID))
}
