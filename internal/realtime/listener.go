package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pkordes/trip-planner/backend/internal/metrics"
)

// Channel is the NOTIFY channel the change triggers publish on.
const Channel = "trip_changes"

// ErrNoTrip is returned by Decode for notifications that carry no trip_id,
// such as a vote row whose activity was deleted in the same statement.
var ErrNoTrip = errors.New("realtime: notification has no trip_id")

// Listener forwards Postgres notifications on Channel to a Hub.
type Listener struct {
	pool       *pgxpool.Pool
	hub        *Hub
	log        *slog.Logger
	retryDelay time.Duration

	// listened is set once the first LISTEN succeeds; later ones resync.
	listened bool
}

// NewListener returns a listener that publishes into hub.
func NewListener(pool *pgxpool.Pool, hub *Hub, log *slog.Logger) *Listener {
	return &Listener{pool: pool, hub: hub, log: log, retryDelay: 2 * time.Second}
}

// Run listens until ctx is cancelled, reconnecting after connection errors.
// It returns nil on cancellation.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		l.log.Warn("realtime: listener disconnected, retrying", "error", err, "retry_in", l.retryDelay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.retryDelay):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("realtime.Listener.listen: acquire: %w", err)
	}
	defer func() {
		// The connection goes back to the pool; it must not keep listening.
		cctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if _, err := conn.Exec(cctx, "UNLISTEN *"); err != nil {
			conn.Conn().Close(cctx)
		}
		conn.Release()
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return fmt.Errorf("realtime.Listener.listen: listen: %w", err)
	}
	l.log.Info("realtime: listening", "channel", Channel)
	if l.listened {
		metrics.RealtimeResyncs.Inc()
		l.hub.Resync()
	}
	l.listened = true

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("realtime.Listener.listen: wait: %w", err)
		}
		l.handle(n.Payload)
	}
}

func (l *Listener) handle(payload string) {
	e, err := Decode(payload)
	if err != nil {
		l.log.Debug("realtime: notification skipped", "error", err, "payload", payload)
		return
	}
	metrics.RealtimeEvents.WithLabelValues(string(e.Table)).Inc()
	l.hub.Publish(e)
}

// Decode parses a trigger payload.
func Decode(payload string) (Event, error) {
	var raw struct {
		Table  Table         `json:"table"`
		Op     Op            `json:"event"`
		TripID uuid.NullUUID `json:"trip_id"`
		ID     uuid.UUID     `json:"id"`
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return Event{}, fmt.Errorf("realtime.Decode: %w", err)
	}
	if !raw.TripID.Valid {
		return Event{}, ErrNoTrip
	}
	return Event{Table: raw.Table, Op: raw.Op, TripID: raw.TripID.UUID, ID: raw.ID}, nil
}
