package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/backend/internal/coordinator"
	"github.com/pkordes/trip-planner/backend/internal/domain"
	"github.com/pkordes/trip-planner/backend/internal/handler"
	"github.com/pkordes/trip-planner/backend/internal/middleware"
	"github.com/pkordes/trip-planner/backend/internal/realtime"
)

// ---- service mocks ---------------------------------------------------------
// Each method is a function field; set only the ones your test needs.

type mockTripServicer struct {
	create       func(ctx context.Context, userID uuid.UUID, trip domain.Trip) (domain.Trip, error)
	getByID      func(ctx context.Context, userID, tripID uuid.UUID) (domain.Trip, error)
	listForUser  func(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error)
	update       func(ctx context.Context, userID uuid.UUID, trip domain.Trip) (domain.Trip, error)
	delete       func(ctx context.Context, userID, tripID uuid.UUID) error
	join         func(ctx context.Context, userID uuid.UUID, code string) (domain.Trip, error)
	participants func(ctx context.Context, userID, tripID uuid.UUID) ([]domain.Participant, error)
	leave        func(ctx context.Context, userID, tripID uuid.UUID) error
}

func (m *mockTripServicer) Create(ctx context.Context, userID uuid.UUID, t domain.Trip) (domain.Trip, error) {
	return m.create(ctx, userID, t)
}
func (m *mockTripServicer) GetByID(ctx context.Context, userID, tripID uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, userID, tripID)
}
func (m *mockTripServicer) ListForUser(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	return m.listForUser(ctx, userID, p)
}
func (m *mockTripServicer) Update(ctx context.Context, userID uuid.UUID, t domain.Trip) (domain.Trip, error) {
	return m.update(ctx, userID, t)
}
func (m *mockTripServicer) Delete(ctx context.Context, userID, tripID uuid.UUID) error {
	return m.delete(ctx, userID, tripID)
}
func (m *mockTripServicer) Join(ctx context.Context, userID uuid.UUID, code string) (domain.Trip, error) {
	return m.join(ctx, userID, code)
}
func (m *mockTripServicer) Participants(ctx context.Context, userID, tripID uuid.UUID) ([]domain.Participant, error) {
	return m.participants(ctx, userID, tripID)
}
func (m *mockTripServicer) Leave(ctx context.Context, userID, tripID uuid.UUID) error {
	return m.leave(ctx, userID, tripID)
}

type mockActivityServicer struct {
	create  func(ctx context.Context, userID uuid.UUID, a domain.Activity, requireVoting bool) (domain.Activity, error)
	getByID func(ctx context.Context, userID, tripID, activityID uuid.UUID) (domain.Activity, error)
	update  func(ctx context.Context, userID uuid.UUID, a domain.Activity, requireVoting *bool) (domain.Activity, error)
	delete  func(ctx context.Context, userID, tripID, activityID uuid.UUID) error
}

func (m *mockActivityServicer) Create(ctx context.Context, userID uuid.UUID, a domain.Activity, requireVoting bool) (domain.Activity, error) {
	return m.create(ctx, userID, a, requireVoting)
}
func (m *mockActivityServicer) GetByID(ctx context.Context, userID, tripID, activityID uuid.UUID) (domain.Activity, error) {
	return m.getByID(ctx, userID, tripID, activityID)
}
func (m *mockActivityServicer) Update(ctx context.Context, userID uuid.UUID, a domain.Activity, requireVoting *bool) (domain.Activity, error) {
	return m.update(ctx, userID, a, requireVoting)
}
func (m *mockActivityServicer) Delete(ctx context.Context, userID, tripID, activityID uuid.UUID) error {
	return m.delete(ctx, userID, tripID, activityID)
}

type mockVoteServicer struct {
	mine func(ctx context.Context, userID, tripID, activityID uuid.UUID) (domain.Vote, bool, error)
}

func (m *mockVoteServicer) Mine(ctx context.Context, userID, tripID, activityID uuid.UUID) (domain.Vote, bool, error) {
	return m.mine(ctx, userID, tripID, activityID)
}

type mockExportServicer struct {
	export func(ctx context.Context, userID, tripID uuid.UUID) ([]domain.ExportRow, error)
}

func (m *mockExportServicer) Export(ctx context.Context, userID, tripID uuid.UUID) ([]domain.ExportRow, error) {
	return m.export(ctx, userID, tripID)
}

// compile-time checks: the mocks must satisfy the handler interfaces.
var (
	_ handler.TripServicer     = (*mockTripServicer)(nil)
	_ handler.ActivityServicer = (*mockActivityServicer)(nil)
	_ handler.VoteServicer     = (*mockVoteServicer)(nil)
	_ handler.ExportServicer   = (*mockExportServicer)(nil)
)

// ---- in-memory trip for coordinator sessions -------------------------------

// tripWorld backs coordinator sessions in handler tests. Like the service
// layer it rejects strangers and lets only owners change a status.
type tripWorld struct {
	mu           sync.Mutex
	trip         domain.Trip
	participants []domain.Participant
	activities   []domain.Activity
	votes        []domain.Vote
	failLists    error

	// onListActivities, if set, runs at the start of every ListByTrip.
	onListActivities func()
}

var (
	_ coordinator.TripReader    = (*tripWorld)(nil)
	_ coordinator.ActivityStore = (*tripWorld)(nil)
	_ coordinator.VoteStore     = (*tripWorld)(nil)
)

// newTripWorld returns a trip with an owner, one other participant, and a
// single voting activity costing 100.
func newTripWorld() (w *tripWorld, owner, member uuid.UUID, activityID uuid.UUID) {
	owner, member, activityID = uuid.New(), uuid.New(), uuid.New()
	tripID := uuid.New()
	cost := 100.0
	w = &tripWorld{
		trip: domain.Trip{ID: tripID, Name: "Lisbon", Currency: "USD", StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		participants: []domain.Participant{
			{TripID: tripID, UserID: owner, IsOwner: true},
			{TripID: tripID, UserID: member},
		},
		activities: []domain.Activity{{
			ID: activityID, TripID: tripID, Title: "Sunset sail", Cost: &cost,
			Category: domain.CategoryAdventure, Status: domain.StatusVoting, CreatedBy: member,
		}},
	}
	return w, owner, member, activityID
}

func (w *tripWorld) member(userID uuid.UUID) (domain.Participant, error) {
	p, ok := domain.FindParticipant(w.participants, userID)
	if !ok {
		return domain.Participant{}, fmt.Errorf("%w: not a participant of this trip", domain.ErrForbidden)
	}
	return p, nil
}

func (w *tripWorld) GetByID(_ context.Context, userID, tripID uuid.UUID) (domain.Trip, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if tripID != w.trip.ID {
		return domain.Trip{}, domain.ErrNotFound
	}
	if _, err := w.member(userID); err != nil {
		return domain.Trip{}, err
	}
	return w.trip, nil
}

func (w *tripWorld) Participants(_ context.Context, userID, _ uuid.UUID) ([]domain.Participant, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.member(userID); err != nil {
		return nil, err
	}
	return append([]domain.Participant(nil), w.participants...), nil
}

func (w *tripWorld) ListByTrip(_ context.Context, userID, _ uuid.UUID) ([]domain.Activity, error) {
	if w.onListActivities != nil {
		w.onListActivities()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failLists != nil {
		return nil, w.failLists
	}
	if _, err := w.member(userID); err != nil {
		return nil, err
	}
	return append([]domain.Activity(nil), w.activities...), nil
}

func (w *tripWorld) SetStatus(_ context.Context, userID, activityID uuid.UUID, status domain.Status) (domain.Activity, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, err := w.member(userID)
	if err != nil {
		return domain.Activity{}, err
	}
	if !p.IsOwner {
		return domain.Activity{}, fmt.Errorf("%w: only a trip owner may do this", domain.ErrForbidden)
	}
	for i := range w.activities {
		if w.activities[i].ID == activityID {
			w.activities[i].Status = status
			return w.activities[i], nil
		}
	}
	return domain.Activity{}, domain.ErrNotFound
}

func (w *tripWorld) ListByActivityIDs(_ context.Context, userID, _ uuid.UUID, _ []uuid.UUID) ([]domain.Vote, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.member(userID); err != nil {
		return nil, err
	}
	return append([]domain.Vote(nil), w.votes...), nil
}

func (w *tripWorld) Create(_ context.Context, userID, activityID uuid.UUID, value bool) (domain.Vote, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.votes {
		if w.votes[i].ActivityID == activityID && w.votes[i].UserID == userID {
			w.votes[i].Value = value
			return w.votes[i], nil
		}
	}
	v := domain.Vote{ID: uuid.New(), ActivityID: activityID, UserID: userID, Value: value}
	w.votes = append(w.votes, v)
	return v, nil
}

func (w *tripWorld) UpdateValue(_ context.Context, _, voteID uuid.UUID, value bool) (domain.Vote, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.votes {
		if w.votes[i].ID == voteID {
			w.votes[i].Value = value
			return w.votes[i], nil
		}
	}
	return domain.Vote{}, domain.ErrNotFound
}

func (w *tripWorld) addVote(userID, activityID uuid.UUID, value bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.votes = append(w.votes, domain.Vote{ID: uuid.New(), ActivityID: activityID, UserID: userID, Value: value})
}

func (w *tripWorld) deps(hub *realtime.Hub) coordinator.Deps {
	return coordinator.Deps{Trips: w, Activities: w, Votes: w, Feed: hub, Log: testLogger()}
}

// ---- helpers ---------------------------------------------------------------

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// asUser is an auth middleware stand-in that authenticates every request as userID.
func asUser(userID uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUserID(r.Context(), userID)))
		})
	}
}

// denyAll rejects every protected request.
func denyAll(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
}

// newHTTPHandler wires a Server with the given services, authenticated as userID.
// This mirrors how main.go wires it in production, minus the JWT check.
func newHTTPHandler(svc handler.Services, userID uuid.UUID) http.Handler {
	return handler.NewServer(svc, handler.Options{Auth: asUser(userID), Log: testLogger()}).Routes()
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decodeError(t *testing.T, body io.Reader) handler.ErrorDetail {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp.Error
}

func dateStr(t time.Time) string {
	return t.Format("2006-01-02")
}

func stringsReader(s string) io.Reader {
	return bytes.NewBufferString(s)
}
