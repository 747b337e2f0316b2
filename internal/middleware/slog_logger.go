// Package middleware provides HTTP middleware for the trip planner API server:
// request logging, CORS, body size limits, and bearer token authentication.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type logSlotKey struct{}

// logSlot lets middleware further down the chain report the authenticated
// user back to the request logger, which only writes after next returns.
type logSlot struct {
	userID uuid.UUID
}

// NewSlogLogger returns a middleware that logs each request as a structured
// JSON line via the provided slog.Logger. It captures method, path, the chi
// route pattern, HTTP status, bytes written, duration, the request ID set by
// chi's RequestID middleware, and the user ID once NewAuthHandler has run.
//
// 5xx responses are logged at error level and 4xx at warn.
// Wire it after chimiddleware.RequestID so the request ID is available.
func NewSlogLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			slot := &logSlot{}
			r = r.WithContext(context.WithValue(r.Context(), logSlotKey{}, slot))

			// WrapResponseWriter intercepts WriteHeader so we can read the
			// status code after the downstream handler has run.
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimiddleware.GetReqID(r.Context()),
			}
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				attrs = append(attrs, "route", rc.RoutePattern())
			}
			if slot.userID != uuid.Nil {
				attrs = append(attrs, "user_id", slot.userID)
			}

			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}
			log.Log(r.Context(), level, "request", attrs...)
		})
	}
}

// reportUser records the authenticated user on the request's log line.
func reportUser(ctx context.Context, userID uuid.UUID) {
	if slot, ok := ctx.Value(logSlotKey{}).(*logSlot); ok {
		slot.userID = userID
	}
}
