// Package coordinator holds the voting coordinator: a session-scoped cache of
// one trip's activities, votes and participants for one user, kept in sync
// with Postgres through realtime change events.
//
// A Session is created when a user opens a trip (a live connection, or a
// single HTTP request) and must be closed when they leave. Close unsubscribes
// from the change feed; a Session that is never closed keeps refetching.
//
// The Session does not check authorization itself. Every write goes through
// the service layer, which rejects non-participants, non-owners finalizing,
// and votes on activities that are not open.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pkordes/trip-planner/backend/internal/domain"
	"github.com/pkordes/trip-planner/backend/internal/metrics"
	"github.com/pkordes/trip-planner/backend/internal/notifier"
	"github.com/pkordes/trip-planner/backend/internal/realtime"
)

// TripReader loads the trip and its participants on behalf of userID.
type TripReader interface {
	GetByID(ctx context.Context, userID, tripID uuid.UUID) (domain.Trip, error)
	Participants(ctx context.Context, userID, tripID uuid.UUID) ([]domain.Participant, error)
}

// ActivityStore lists a trip's activities and changes their status.
type ActivityStore interface {
	ListByTrip(ctx context.Context, userID, tripID uuid.UUID) ([]domain.Activity, error)
	SetStatus(ctx context.Context, userID, activityID uuid.UUID, status domain.Status) (domain.Activity, error)
}

// VoteStore reads and writes votes.
type VoteStore interface {
	ListByActivityIDs(ctx context.Context, userID, tripID uuid.UUID, ids []uuid.UUID) ([]domain.Vote, error)
	Create(ctx context.Context, userID, activityID uuid.UUID, value bool) (domain.Vote, error)
	UpdateValue(ctx context.Context, userID, voteID uuid.UUID, value bool) (domain.Vote, error)
}

// Subscriber is the change feed. *realtime.Hub satisfies it.
type Subscriber interface {
	Subscribe(table realtime.Table, f realtime.Filter) *realtime.Subscription
	Unsubscribe(s *realtime.Subscription)
}

// Deps are the collaborators shared by every Session.
type Deps struct {
	Trips      TripReader
	Activities ActivityStore
	Votes      VoteStore
	Feed       Subscriber
	Notifier   notifier.Notifier // optional
	Log        *slog.Logger
}

// notifyTimeout bounds a finalize notification, which outlives the request
// that triggered it.
const notifyTimeout = 10 * time.Second

// watched are the tables a started Session reconciles on.
var watched = []realtime.Table{
	realtime.TableActivities,
	realtime.TableVotes,
	realtime.TableParticipants,
}

// Session is one user's view of one trip.
type Session struct {
	deps   Deps
	log    *slog.Logger
	tripID uuid.UUID
	userID uuid.UUID

	mu           sync.RWMutex
	trip         domain.Trip
	activities   []domain.Activity
	votes        []domain.Vote
	participants []domain.Participant
	onChange     func()

	// reconcileMu serializes refetches and finalize writes so an older
	// response cannot overwrite a newer one.
	reconcileMu sync.Mutex

	startOnce sync.Once
	subs      []*realtime.Subscription
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New returns an empty, unsubscribed session. Call Refresh to load it and
// Start to follow changes.
func New(deps Deps, tripID, userID uuid.UUID) *Session {
	if deps.Notifier == nil {
		deps.Notifier = notifier.Nop{}
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	return &Session{
		deps:   deps,
		log:    deps.Log.With("trip_id", tripID, "user_id", userID),
		tripID: tripID,
		userID: userID,
		stop:   make(chan struct{}),
	}
}

// Open is New followed by Refresh.
func Open(ctx context.Context, deps Deps, tripID, userID uuid.UUID) (*Session, error) {
	s := New(deps, tripID, userID)
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Refresh loads the full state. Trip, participants and activities are fetched
// concurrently; votes follow, scoped to the loaded activities.
func (s *Session) Refresh(ctx context.Context) error {
	s.reconcileMu.Lock()
	defer s.reconcileMu.Unlock()

	var (
		trip         domain.Trip
		participants []domain.Participant
		activities   []domain.Activity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		trip, err = s.deps.Trips.GetByID(gctx, s.userID, s.tripID)
		return err
	})
	g.Go(func() error {
		var err error
		participants, err = s.deps.Trips.Participants(gctx, s.userID, s.tripID)
		return err
	})
	g.Go(func() error {
		var err error
		activities, err = s.deps.Activities.ListByTrip(gctx, s.userID, s.tripID)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("coordinator.Session.Refresh: %w", err)
	}

	votes, err := s.deps.Votes.ListByActivityIDs(ctx, s.userID, s.tripID, domain.ActivityIDs(activities))
	if err != nil {
		return fmt.Errorf("coordinator.Session.Refresh: votes: %w", err)
	}

	s.mu.Lock()
	s.trip = trip
	s.participants = participants
	s.activities = activities
	s.votes = votes
	s.mu.Unlock()
	return nil
}

// Start subscribes to the change feed and reconciles on every event until
// Close is called or ctx is done. Only the first call subscribes.
//
// Call Start before Refresh so nothing committed between the two is missed.
func (s *Session) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		f := realtime.Filter{TripID: s.tripID}
		for _, table := range watched {
			sub := s.deps.Feed.Subscribe(table, f)
			s.subs = append(s.subs, sub)

			s.wg.Add(1)
			go s.follow(ctx, sub)
		}
	})
}

func (s *Session) follow(ctx context.Context, sub *realtime.Subscription) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case e, ok := <-sub.C:
			if !ok {
				return
			}
			// Failures are logged inside Reconcile; the next event retries.
			_ = s.Reconcile(ctx, e)
		}
	}
}

// Close unsubscribes from the change feed and waits for in-flight reconciles
// to finish. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		for _, sub := range s.subs {
			s.deps.Feed.Unsubscribe(sub)
		}
		s.wg.Wait()
		s.subs = nil
	})
}

// OnChange registers fn to be called after every successful reconcile or
// finalize. fn runs on the goroutine that made the change and must not block.
func (s *Session) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Session) changed() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Reconcile refetches the table e names and replaces the cached copy
// wholesale. On failure the cache is left as it was and the error is logged
// and returned.
func (s *Session) Reconcile(ctx context.Context, e realtime.Event) error {
	s.reconcileMu.Lock()
	err := s.reconcile(ctx, e.Table)
	s.reconcileMu.Unlock()

	if err != nil {
		metrics.Reconciles.WithLabelValues(string(e.Table), "error").Inc()
		s.log.WarnContext(ctx, "reconcile failed", "table", e.Table, "error", err)
		return fmt.Errorf("coordinator.Session.Reconcile: %w", err)
	}
	metrics.Reconciles.WithLabelValues(string(e.Table), "ok").Inc()
	s.changed()
	return nil
}

// reconcile must be called with reconcileMu held.
func (s *Session) reconcile(ctx context.Context, table realtime.Table) error {
	switch table {
	case realtime.TableActivities:
		acts, err := s.deps.Activities.ListByTrip(ctx, s.userID, s.tripID)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.activities = acts
		s.mu.Unlock()

	case realtime.TableVotes:
		s.mu.RLock()
		ids := domain.ActivityIDs(s.activities)
		s.mu.RUnlock()

		votes, err := s.deps.Votes.ListByActivityIDs(ctx, s.userID, s.tripID, ids)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.votes = votes
		s.mu.Unlock()

	case realtime.TableParticipants:
		ps, err := s.deps.Trips.Participants(ctx, s.userID, s.tripID)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.participants = ps
		s.mu.Unlock()

	default:
		return fmt.Errorf("unknown table %q", table)
	}
	return nil
}

// CastVote records the user's vote on a voting activity and returns the
// confirmation to show them. An existing vote is updated in place.
//
// The cache is not touched before the write succeeds. Afterwards the votes
// are refetched so this session sees its own vote without waiting for the
// change event; a failed refetch is only logged.
func (s *Session) CastVote(ctx context.Context, activityID uuid.UUID, value bool) (string, error) {
	s.mu.RLock()
	act, ok := s.findActivity(activityID)
	existing, voted := s.findVote(activityID, s.userID)
	s.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("coordinator.Session.CastVote: %w", domain.ErrNotFound)
	}
	if act.Status != domain.StatusVoting {
		return "", fmt.Errorf("coordinator.Session.CastVote: %w", domain.ErrNotVoting)
	}

	var err error
	result := "created"
	if voted {
		result = "updated"
		_, err = s.deps.Votes.UpdateValue(ctx, s.userID, existing.ID, value)
	} else {
		_, err = s.deps.Votes.Create(ctx, s.userID, activityID, value)
	}
	if err != nil {
		metrics.VotesCast.WithLabelValues("error").Inc()
		return "", fmt.Errorf("coordinator.Session.CastVote: %w", err)
	}
	metrics.VotesCast.WithLabelValues(result).Inc()

	_ = s.Reconcile(ctx, realtime.Event{Table: realtime.TableVotes, TripID: s.tripID})
	return VoteNotice(value), nil
}

// VoteNotice is the confirmation shown after a successful vote.
func VoteNotice(value bool) string {
	if value {
		return "You voted for this activity."
	}
	return "You voted against this activity."
}

// Finalize closes voting on an activity: a strict majority of cast votes
// confirms it, anything else leaves it pending. It fails with
// domain.ErrNoVotes when nobody has voted, without writing.
//
// On success the cached status is updated immediately rather than waiting
// for the change event. The decision notification is sent in the background.
func (s *Session) Finalize(ctx context.Context, activityID uuid.UUID) (domain.Status, error) {
	s.reconcileMu.Lock()

	s.mu.RLock()
	act, ok := s.findActivity(activityID)
	tally := domain.CountVotes(s.votes, activityID)
	trip := s.trip
	s.mu.RUnlock()

	switch {
	case !ok:
		s.reconcileMu.Unlock()
		return "", fmt.Errorf("coordinator.Session.Finalize: %w", domain.ErrNotFound)
	case act.Status != domain.StatusVoting:
		s.reconcileMu.Unlock()
		metrics.Finalizations.WithLabelValues("not_voting").Inc()
		return "", fmt.Errorf("coordinator.Session.Finalize: %w", domain.ErrNotVoting)
	case tally.Total() == 0:
		s.reconcileMu.Unlock()
		metrics.Finalizations.WithLabelValues("no_votes").Inc()
		return "", fmt.Errorf("coordinator.Session.Finalize: %w", domain.ErrNoVotes)
	}

	status := tally.Decide()
	if _, err := s.deps.Activities.SetStatus(ctx, s.userID, activityID, status); err != nil {
		s.reconcileMu.Unlock()
		metrics.Finalizations.WithLabelValues("error").Inc()
		return "", fmt.Errorf("coordinator.Session.Finalize: %w", err)
	}
	metrics.Finalizations.WithLabelValues(string(status)).Inc()

	s.mu.Lock()
	for i := range s.activities {
		if s.activities[i].ID == activityID {
			s.activities[i].Status = status
		}
	}
	s.mu.Unlock()
	s.reconcileMu.Unlock()

	go s.notify(context.WithoutCancel(ctx), notifier.Decision{
		TripName:      trip.Name,
		ActivityTitle: act.Title,
		Status:        status,
		Tally:         tally,
	})

	s.changed()
	return status, nil
}

func (s *Session) notify(ctx context.Context, d notifier.Decision) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	if err := s.deps.Notifier.NotifyDecision(ctx, d); err != nil {
		s.log.WarnContext(ctx, "finalize notification failed", "activity", d.ActivityTitle, "error", err)
	}
}

// FinalizeNotice is the confirmation shown after a successful finalize.
func FinalizeNotice(status domain.Status) string {
	if status == domain.StatusConfirmed {
		return "Voting closed: the activity is confirmed."
	}
	return "Voting closed: the activity stays pending."
}

// findActivity and findVote must be called with mu held.
func (s *Session) findActivity(id uuid.UUID) (domain.Activity, bool) {
	for _, a := range s.activities {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Activity{}, false
}

func (s *Session) findVote(activityID, userID uuid.UUID) (domain.Vote, bool) {
	for _, v := range s.votes {
		if v.ActivityID == activityID && v.UserID == userID {
			return v, true
		}
	}
	return domain.Vote{}, false
}
