// Package realtime fans Postgres change notifications out to in-process
// subscribers.
//
// A Listener holds one LISTEN connection and publishes every decoded
// notification to a Hub. Subscribers register per table with a trip filter
// and receive events on a buffered channel. Events carry no row data: they
// only tell the subscriber which table to refetch.
package realtime

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/backend/internal/metrics"
)

// Table names a watched table.
type Table string

const (
	TableActivities   Table = "activities"
	TableVotes        Table = "activity_votes"
	TableParticipants Table = "trip_participants"
)

// Tables lists every watched table.
var Tables = []Table{TableActivities, TableVotes, TableParticipants}

// Op is the kind of row change.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpResync Op = "resync"
)

// Event announces that a row of Table belonging to TripID changed.
// An Event with a zero TripID is a broadcast and reaches every subscription
// on Table.
type Event struct {
	Table  Table     `json:"table"`
	Op     Op        `json:"event"`
	TripID uuid.UUID `json:"trip_id"`
	ID     uuid.UUID `json:"id"`
}

// Filter restricts a subscription to one trip. A zero TripID matches all trips.
type Filter struct {
	TripID uuid.UUID
}

func (f Filter) match(e Event) bool {
	return f.TripID == uuid.Nil || e.TripID == uuid.Nil || f.TripID == e.TripID
}

// DefaultBuffer is the per-subscription channel capacity.
const DefaultBuffer = 8

// Subscription receives events for one table. C is closed by Unsubscribe.
type Subscription struct {
	C <-chan Event

	c      chan Event
	table  Table
	filter Filter
}

// Hub is a fan-out point for change events. The zero value is not usable;
// call NewHub.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
	log    *slog.Logger
}

// NewHub returns an empty hub whose subscriptions buffer DefaultBuffer events.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: DefaultBuffer,
		log:    log,
	}
}

// Subscribe registers interest in changes to table matching f.
func (h *Hub) Subscribe(table Table, f Filter) *Subscription {
	c := make(chan Event, h.buffer)
	s := &Subscription{C: c, c: c, table: table, filter: f}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Unsubscribe removes s and closes its channel. Calling it twice is a no-op.
func (h *Hub) Unsubscribe(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	close(s.c)
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Resync tells every subscriber of every table to refetch. The listener
// calls it after reconnecting, since notifications sent while it was away
// are gone.
func (h *Hub) Resync() {
	for _, t := range Tables {
		h.Publish(Event{Table: t, Op: OpResync})
	}
}

// Publish delivers e to every matching subscription without blocking.
// When a subscriber's buffer is full the event is dropped for that subscriber:
// it already has an undelivered event for the same table, and each event
// triggers a full refetch, so nothing is lost.
func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subs {
		if s.table != e.Table || !s.filter.match(e) {
			continue
		}
		select {
		case s.c <- e:
		default:
			metrics.RealtimeDropped.Inc()
			h.log.Debug("realtime: subscriber buffer full, event dropped",
				"table", e.Table, "trip_id", e.TripID)
		}
	}
}
