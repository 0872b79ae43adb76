package cache

import "fmt"

// Key layout.  Every key derived from one event starts with "event:{id}" so
// a single pattern pair removes them all.
const AllEventsKey = "events:all"

func EventKey(id uint64) string { return fmt.Sprintf("event:%d", id) }

func AvailabilityKey(id uint64) string { return fmt.Sprintf("event:%d:availability", id) }

// EventPatterns lists the invalidation patterns for a write touching one
// event.  "event:{id}:*" is used instead of "event:{id}*" so event 1 never
// sweeps event 12.
func EventPatterns(id uint64) []string {
	return []string{"events:*", EventKey(id), EventKey(id) + ":*"}
}
