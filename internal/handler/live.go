package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/pkordes/trip-planner/backend/internal/coordinator"
	"github.com/pkordes/trip-planner/backend/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	liveSendBuffer = 16
)

// Message types on a live connection.
const (
	liveBoard    = "board"
	liveNotice   = "notice"
	liveError    = "error"
	liveVote     = "vote"
	liveFinalize = "finalize"
	liveView     = "view"
)

// LiveMessage is sent from the server to a live client.
// Board is set for "board", Message for "notice", Error for "error".
type LiveMessage struct {
	Type    string             `json:"type"`
	Board   *coordinator.Board `json:"board,omitempty"`
	Message string             `json:"message,omitempty"`
	Error   *ErrorDetail       `json:"error,omitempty"`
}

// LiveCommand is sent from a live client to the server.
//
//	{"type":"vote","activity_id":"…","value":true}
//	{"type":"finalize","activity_id":"…"}
//	{"type":"view","search":"…","status":"voting","category":"food","sort":"name_asc","group":true}
type LiveCommand struct {
	Type       string    `json:"type"`
	ActivityID uuid.UUID `json:"activity_id"`
	Value      bool      `json:"value"`
	Search     string    `json:"search"`
	Status     string    `json:"status"`
	Category   string    `json:"category"`
	Sort       string    `json:"sort"`
	Group      bool      `json:"group"`
}

// Live handles GET /trips/{tripId}/live.
//
// It opens a coordinator session for the caller, upgrades to a WebSocket and
// keeps the session following the change feed until the client goes away.
// Every change pushes a fresh board; votes and finalizes sent by the client
// are answered with a notice or an error. Closing the connection closes the
// session, which unsubscribes it from the feed.
//
// Authorization failures are reported as normal HTTP errors before the upgrade.
func (s *Server) Live(w http.ResponseWriter, r *http.Request) {
	userID, tripID, ok := s.tripScope(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Subscribe before the initial load so nothing committed in between is missed.
	sess := coordinator.New(s.sessions, tripID, userID)
	sess.Start(ctx)
	defer sess.Close()
	if err := sess.Refresh(ctx); err != nil {
		s.fail(w, r, err, "trip")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.log.DebugContext(ctx, "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	metrics.LiveSessions.Inc()
	defer metrics.LiveSessions.Dec()

	lc := &liveConn{
		conn:    conn,
		sess:    sess,
		cancel:  cancel,
		send:    make(chan LiveMessage, liveSendBuffer),
		dirty:   make(chan struct{}, 1),
		limiter: rate.NewLimiter(s.actionRate, 1),
		opts:    coordinator.ViewOptions{},
	}
	sess.OnChange(lc.markDirty)

	done := make(chan struct{})
	go func() {
		defer close(done)
		lc.writePump(ctx)
	}()

	lc.markDirty()
	lc.readPump(ctx, s)

	cancel()
	<-done
}

// liveConn is the state of one live connection. Only writePump writes to
// conn; everything else goes through send or dirty.
type liveConn struct {
	conn    *websocket.Conn
	sess    *coordinator.Session
	cancel  context.CancelFunc
	send    chan LiveMessage
	dirty   chan struct{}
	limiter *rate.Limiter

	mu   sync.Mutex
	opts coordinator.ViewOptions
}

// markDirty schedules a board push. Pending pushes coalesce.
func (lc *liveConn) markDirty() {
	select {
	case lc.dirty <- struct{}{}:
	default:
	}
}

func (lc *liveConn) viewOptions() coordinator.ViewOptions {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.opts
}

func (lc *liveConn) setViewOptions(opts coordinator.ViewOptions) {
	lc.mu.Lock()
	lc.opts = opts
	lc.mu.Unlock()
	lc.markDirty()
}

func (lc *liveConn) push(ctx context.Context, m LiveMessage) {
	select {
	case lc.send <- m:
	case <-ctx.Done():
	}
}

func (lc *liveConn) pushError(ctx context.Context, err error, what string) {
	_, detail := classify(err, what)
	lc.push(ctx, LiveMessage{Type: liveError, Error: &detail})
}

func (lc *liveConn) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		var err error
		select {
		case <-ctx.Done():
			_ = lc.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case <-lc.dirty:
			board := lc.sess.View(lc.viewOptions())
			err = lc.write(LiveMessage{Type: liveBoard, Board: &board})
		case m := <-lc.send:
			err = lc.write(m)
		case <-ticker.C:
			err = lc.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		}
		if err != nil {
			// Unblock readPump; the handler tears down the rest.
			lc.cancel()
			_ = lc.conn.Close()
			return
		}
	}
}

func (lc *liveConn) write(m LiveMessage) error {
	_ = lc.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return lc.conn.WriteJSON(m)
}

func (lc *liveConn) readPump(ctx context.Context, s *Server) {
	lc.conn.SetReadLimit(maxMessageSize)
	_ = lc.conn.SetReadDeadline(time.Now().Add(pongWait))
	lc.conn.SetPongHandler(func(string) error {
		return lc.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd LiveCommand
		if err := lc.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.DebugContext(ctx, "live connection closed", "error", err)
			}
			return
		}
		_ = lc.conn.SetReadDeadline(time.Now().Add(pongWait))
		lc.handle(ctx, s, cmd)
	}
}

func (lc *liveConn) handle(ctx context.Context, s *Server, cmd LiveCommand) {
	switch cmd.Type {
	case liveView:
		opts, err := viewOptions(cmd.Search, cmd.Status, cmd.Category, cmd.Sort, cmd.Group)
		if err != nil {
			lc.pushError(ctx, err, "trip")
			return
		}
		lc.setViewOptions(opts)

	case liveVote, liveFinalize:
		if !lc.limiter.Allow() {
			lc.push(ctx, LiveMessage{Type: liveError, Error: &ErrorDetail{
				Code: "rate_limited", Message: "too many actions, slow down",
			}})
			return
		}
		var (
			notice string
			err    error
		)
		if cmd.Type == liveVote {
			notice, err = lc.sess.CastVote(ctx, cmd.ActivityID, cmd.Value)
		} else {
			status, ferr := lc.sess.Finalize(ctx, cmd.ActivityID)
			notice, err = coordinator.FinalizeNotice(status), ferr
		}
		if err != nil {
			if status, _ := classify(err, "activity"); status == http.StatusInternalServerError {
				s.log.ErrorContext(ctx, "live action failed", "type", cmd.Type, "activity_id", cmd.ActivityID, "error", err)
			}
			lc.pushError(ctx, err, "activity")
			return
		}
		lc.push(ctx, LiveMessage{Type: liveNotice, Message: notice})

	default:
		lc.push(ctx, LiveMessage{Type: liveError, Error: &ErrorDetail{
			Code: "bad_request", Message: "unknown message type " + `"` + cmd.Type + `"`,
		}})
	}
}
