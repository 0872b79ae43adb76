package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/event-seat-booking/internal/queue"
)

// stuckPublisher never gets an ack and returns when its deadline passes.
type stuckPublisher struct {
	mu       sync.Mutex
	deadline bool
	err      error
}

func (p *stuckPublisher) PublishBookingEvent(ctx context.Context, _ queue.BookingEvent) error {
	_, ok := ctx.Deadline()
	<-ctx.Done()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deadline, p.err = ok, ctx.Err()
	return ctx.Err()
}

// patternRecorder fails the patterns listed in fail and records every call.
type patternRecorder struct {
	mu    sync.Mutex
	fail  map[string]bool
	tried []string
}

func (r *patternRecorder) InvalidatePattern(_ context.Context, pattern string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tried = append(r.tried, pattern)
	if r.fail[pattern] {
		return 0, errors.New("i/o timeout")
	}
	return 1, nil
}

func TestPostCommitPublishIsBoundedByTimeout(t *testing.T) {
	pub := &stuckPublisher{}
	pc := NewPostCommit(&patternRecorder{}, pub, time.Second, 50*time.Millisecond, zap.NewNop())

	start := time.Now()
	pc.Run(context.Background(), nil, &queue.BookingEvent{Kind: queue.SubjectBookingCreated, BookingID: 1})
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
	assert.True(t, pub.deadline)
	assert.ErrorIs(t, pub.err, context.DeadlineExceeded)
}

func TestPostCommitIgnoresCallerCancellation(t *testing.T) {
	inv := &patternRecorder{}
	pub := &recordingPublisher{}
	pc := NewPostCommit(inv, pub, time.Second, time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pc.Run(ctx, []string{"events:*"}, &queue.BookingEvent{Kind: queue.SubjectBookingCreated, BookingID: 9})

	assert.Equal(t, []string{"events:*"}, inv.tried)
	require.Len(t, pub.published(), 1)
	assert.Equal(t, uint64(9), pub.published()[0].BookingID)
}

func TestPostCommitTriesEveryPattern(t *testing.T) {
	inv := &patternRecorder{fail: map[string]bool{"events:*": true}}
	pub := &recordingPublisher{}
	pc := NewPostCommit(inv, pub, time.Second, time.Second, zap.NewNop())

	patterns := []string{"events:*", "event:4", "event:4:*"}
	pc.Run(context.Background(), patterns, &queue.BookingEvent{Kind: queue.SubjectBookingCancelled, BookingID: 2})

	assert.Equal(t, patterns, inv.tried)
	assert.Len(t, pub.published(), 1, "publish still runs after a failed invalidation")
}
