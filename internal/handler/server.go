// Package handler implements the HTTP and WebSocket handlers for the trip
// planner API. All handlers are methods on Server; Routes wires them into a
// chi router that follows spec/openapi.yaml. Methods are split into
// domain-specific files (health.go, trip.go, activity.go, live.go, etc.) but
// all share the same Server struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/pkordes/trip-planner/backend/internal/coordinator"
	"github.com/pkordes/trip-planner/backend/internal/domain"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, userID uuid.UUID, trip domain.Trip) (domain.Trip, error)
	GetByID(ctx context.Context, userID, tripID uuid.UUID) (domain.Trip, error)
	ListForUser(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error)
	Update(ctx context.Context, userID uuid.UUID, trip domain.Trip) (domain.Trip, error)
	Delete(ctx context.Context, userID, tripID uuid.UUID) error
	Join(ctx context.Context, userID uuid.UUID, inviteCode string) (domain.Trip, error)
	Participants(ctx context.Context, userID, tripID uuid.UUID) ([]domain.Participant, error)
	Leave(ctx context.Context, userID, tripID uuid.UUID) error
}

// ActivityServicer defines the activity operations that do not go through a
// coordinator session.
type ActivityServicer interface {
	Create(ctx context.Context, userID uuid.UUID, a domain.Activity, requireVoting bool) (domain.Activity, error)
	GetByID(ctx context.Context, userID, tripID, activityID uuid.UUID) (domain.Activity, error)
	Update(ctx context.Context, userID uuid.UUID, a domain.Activity, requireVoting *bool) (domain.Activity, error)
	Delete(ctx context.Context, userID, tripID, activityID uuid.UUID) error
}

// VoteServicer reads a user's own vote.
type VoteServicer interface {
	Mine(ctx context.Context, userID, tripID, activityID uuid.UUID) (domain.Vote, bool, error)
}

// ExportServicer defines the export operation the export handler depends on.
type ExportServicer interface {
	Export(ctx context.Context, userID, tripID uuid.UUID) ([]domain.ExportRow, error)
}

// Services groups the Server's business dependencies.
// Sessions is used to open a coordinator session per board read, vote,
// finalize, and live connection.
type Services struct {
	Trips      TripServicer
	Activities ActivityServicer
	Votes      VoteServicer
	Export     ExportServicer
	Sessions   coordinator.Deps
}

// Options configures the transport side of the Server.
type Options struct {
	// Auth authenticates every route except /healthz, /openapi.yaml and
	// /metrics. It must put the user ID in the context via
	// middleware.WithUserID.
	Auth func(http.Handler) http.Handler

	// AllowedOrigins are checked on WebSocket upgrades. "*" allows any
	// origin; requests without an Origin header are always allowed.
	AllowedOrigins []string

	// ActionsPerSecond limits votes and finalizes per live connection.
	ActionsPerSecond float64

	Log *slog.Logger
}

// Server implements every API endpoint.
// Methods are in domain-specific files but all operate on this struct.
type Server struct {
	trips      TripServicer
	activities ActivityServicer
	votes      VoteServicer
	export     ExportServicer
	sessions   coordinator.Deps

	auth       func(http.Handler) http.Handler
	upgrader   websocket.Upgrader
	actionRate rate.Limit
	log        *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(svc Services, opts Options) *Server {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Auth == nil {
		opts.Auth = func(next http.Handler) http.Handler { return next }
	}
	if opts.ActionsPerSecond <= 0 {
		opts.ActionsPerSecond = 5
	}
	origins := opts.AllowedOrigins
	return &Server{
		trips:      svc.Trips,
		activities: svc.Activities,
		votes:      svc.Votes,
		export:     svc.Export,
		sessions:   svc.Sessions,
		auth:       opts.Auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
			},
		},
		actionRate: rate.Limit(opts.ActionsPerSecond),
		log:        opts.Log,
	}
}

// Routes returns the API router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.auth)

		r.Route("/trips", func(r chi.Router) {
			r.Get("/", s.ListTrips)
			r.Post("/", s.CreateTrip)
			r.Post("/join", s.JoinTrip)

			r.Route("/{tripId}", func(r chi.Router) {
				r.Get("/", s.GetTrip)
				r.Put("/", s.UpdateTrip)
				r.Delete("/", s.DeleteTrip)

				r.Get("/participants", s.ListParticipants)
				r.Delete("/participants/me", s.LeaveTrip)

				r.Get("/activities", s.ListActivities)
				r.Post("/activities", s.CreateActivity)
				r.Route("/activities/{activityId}", func(r chi.Router) {
					r.Get("/", s.GetActivity)
					r.Put("/", s.UpdateActivity)
					r.Delete("/", s.DeleteActivity)
					r.Get("/vote", s.GetMyVote)
					r.Put("/vote", s.CastVote)
					r.Post("/finalize", s.FinalizeActivity)
				})

				r.Get("/export", s.GetExport)
				r.Get("/live", s.Live)
			})
		})
	})

	return r
}
