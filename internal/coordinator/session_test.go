package coordinator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/backend/internal/domain"
	"github.com/pkordes/trip-planner/backend/internal/notifier"
	"github.com/pkordes/trip-planner/backend/internal/realtime"
)

// memStore is an in-memory stand-in for the service layer. It upserts votes
// on (activity, user) the way the database does.
type memStore struct {
	mu           sync.Mutex
	trip         domain.Trip
	participants []domain.Participant
	activities   []domain.Activity
	votes        []domain.Vote

	// Injected failures.
	writeErr error
	listErr  error

	setStatusCalls int
	voteListIDs    [][]uuid.UUID

	// afterListActivities, if set, runs after ListByTrip has read its rows.
	afterListActivities func()
}

var (
	_ TripReader    = (*memStore)(nil)
	_ ActivityStore = (*memStore)(nil)
	_ VoteStore     = (*memStore)(nil)
)

func (m *memStore) GetByID(_ context.Context, _, _ uuid.UUID) (domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return domain.Trip{}, m.listErr
	}
	return m.trip, nil
}

func (m *memStore) Participants(_ context.Context, _, _ uuid.UUID) ([]domain.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]domain.Participant(nil), m.participants...), nil
}

func (m *memStore) ListByTrip(_ context.Context, _, _ uuid.UUID) ([]domain.Activity, error) {
	m.mu.Lock()
	if m.listErr != nil {
		m.mu.Unlock()
		return nil, m.listErr
	}
	acts := append([]domain.Activity(nil), m.activities...)
	hook := m.afterListActivities
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	return acts, nil
}

func (m *memStore) SetStatus(_ context.Context, _, activityID uuid.UUID, status domain.Status) (domain.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setStatusCalls++
	if m.writeErr != nil {
		return domain.Activity{}, m.writeErr
	}
	for i := range m.activities {
		if m.activities[i].ID == activityID {
			m.activities[i].Status = status
			return m.activities[i], nil
		}
	}
	return domain.Activity{}, domain.ErrNotFound
}

func (m *memStore) ListByActivityIDs(_ context.Context, _, _ uuid.UUID, ids []uuid.UUID) ([]domain.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.voteListIDs = append(m.voteListIDs, ids)
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Vote
	for _, v := range m.votes {
		for _, id := range ids {
			if v.ActivityID == id {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

func (m *memStore) Create(_ context.Context, userID, activityID uuid.UUID, value bool) (domain.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return domain.Vote{}, m.writeErr
	}
	for i := range m.votes {
		if m.votes[i].ActivityID == activityID && m.votes[i].UserID == userID {
			m.votes[i].Value = value
			return m.votes[i], nil
		}
	}
	v := domain.Vote{ID: uuid.New(), ActivityID: activityID, UserID: userID, Value: value}
	m.votes = append(m.votes, v)
	return v, nil
}

func (m *memStore) UpdateValue(_ context.Context, userID, voteID uuid.UUID, value bool) (domain.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return domain.Vote{}, m.writeErr
	}
	for i := range m.votes {
		if m.votes[i].ID == voteID {
			if m.votes[i].UserID != userID {
				return domain.Vote{}, domain.ErrForbidden
			}
			m.votes[i].Value = value
			return m.votes[i], nil
		}
	}
	return domain.Vote{}, domain.ErrNotFound
}

func (m *memStore) votesFor(activityID, userID uuid.UUID) []domain.Vote {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Vote
	for _, v := range m.votes {
		if v.ActivityID == activityID && v.UserID == userID {
			out = append(out, v)
		}
	}
	return out
}

type mockNotifier struct {
	notifyFn func(d notifier.Decision) error
}

func (m *mockNotifier) NotifyDecision(_ context.Context, d notifier.Decision) error {
	return m.notifyFn(d)
}

// fixture is a trip with an owner plus three more participants and one
// voting activity.
type fixture struct {
	store    *memStore
	hub      *realtime.Hub
	owner    uuid.UUID
	users    []uuid.UUID // users[0] is the owner
	activity domain.Activity
}

func newFixture(t *testing.T, participants int) *fixture {
	t.Helper()
	tripID := uuid.New()
	f := &fixture{
		store: &memStore{
			trip: domain.Trip{ID: tripID, Name: "Lisbon", Currency: "USD"},
		},
		hub: realtime.NewHub(testLogger()),
	}
	for i := 0; i < participants; i++ {
		u := uuid.New()
		f.users = append(f.users, u)
		f.store.participants = append(f.store.participants, domain.Participant{
			ID: uuid.New(), TripID: tripID, UserID: u, IsOwner: i == 0,
		})
	}
	f.owner = f.users[0]

	cost := 100.0
	f.activity = domain.Activity{
		ID:        uuid.New(),
		TripID:    tripID,
		Title:     "Sunset sail",
		Cost:      &cost,
		Category:  domain.CategoryAdventure,
		Status:    domain.InitialStatus(true),
		CreatedBy: f.users[len(f.users)-1],
	}
	f.store.activities = []domain.Activity{f.activity}
	return f
}

func (f *fixture) deps() Deps {
	return Deps{
		Trips:      f.store,
		Activities: f.store,
		Votes:      f.store,
		Feed:       f.hub,
		Log:        testLogger(),
	}
}

func (f *fixture) open(t *testing.T, user uuid.UUID) *Session {
	t.Helper()
	s, err := Open(context.Background(), f.deps(), f.store.trip.ID, user)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Refresh ---------------------------------------------------------------

func TestSession_Refresh_LoadsState(t *testing.T) {
	f := newFixture(t, 3)
	f.store.votes = []domain.Vote{
		{ID: uuid.New(), ActivityID: f.activity.ID, UserID: f.users[1], Value: true},
		{ID: uuid.New(), ActivityID: uuid.New(), UserID: f.users[1], Value: true}, // another trip's activity
	}

	s := f.open(t, f.owner)

	assert.Equal(t, "Lisbon", s.Trip().Name)
	assert.Equal(t, 3, s.ParticipantCount())
	assert.True(t, s.IsOwner())
	require.Len(t, s.Activities(), 1)
	assert.Len(t, s.Votes(), 1, "votes must be scoped to loaded activities")
	require.Len(t, f.store.voteListIDs, 1)
	assert.Equal(t, []uuid.UUID{f.activity.ID}, f.store.voteListIDs[0])
}

func TestSession_Refresh_Error(t *testing.T) {
	f := newFixture(t, 2)
	f.store.listErr = errors.New("db down")

	_, err := Open(context.Background(), f.deps(), f.store.trip.ID, f.owner)

	assert.Error(t, err)
}

// --- CastVote --------------------------------------------------------------

func TestSession_CastVote_CreatesThenUpdates(t *testing.T) {
	f := newFixture(t, 3)
	user := f.users[1]
	s := f.open(t, user)
	ctx := context.Background()

	notice, err := s.CastVote(ctx, f.activity.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "You voted for this activity.", notice)

	voted, value := s.UserVote(f.activity.ID)
	assert.True(t, voted)
	assert.True(t, value)

	notice, err = s.CastVote(ctx, f.activity.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "You voted against this activity.", notice)

	// Exactly one row, holding the latest value.
	rows := f.store.votesFor(f.activity.ID, user)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].Value)

	voted, value = s.UserVote(f.activity.ID)
	assert.True(t, voted)
	assert.False(t, value)
}

func TestSession_CastVote_StaleCacheStillOneRow(t *testing.T) {
	f := newFixture(t, 2)
	user := f.users[1]
	s := f.open(t, user)

	// Another tab votes; this session has not reconciled yet.
	_, err := f.store.Create(context.Background(), user, f.activity.ID, true)
	require.NoError(t, err)

	_, err = s.CastVote(context.Background(), f.activity.ID, false)
	require.NoError(t, err)

	rows := f.store.votesFor(f.activity.ID, user)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].Value)
}

func TestSession_CastVote_NotVoting(t *testing.T) {
	f := newFixture(t, 2)
	f.store.activities[0].Status = domain.StatusPending
	s := f.open(t, f.users[1])

	_, err := s.CastVote(context.Background(), f.activity.ID, true)

	assert.ErrorIs(t, err, domain.ErrNotVoting)
	assert.Empty(t, f.store.votes)
}

func TestSession_CastVote_UnknownActivity(t *testing.T) {
	f := newFixture(t, 2)
	s := f.open(t, f.users[1])

	_, err := s.CastVote(context.Background(), uuid.New(), true)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSession_CastVote_FailureLeavesCacheUnchanged(t *testing.T) {
	f := newFixture(t, 3)
	f.store.votes = []domain.Vote{
		{ID: uuid.New(), ActivityID: f.activity.ID, UserID: f.users[1], Value: true},
		{ID: uuid.New(), ActivityID: f.activity.ID, UserID: f.users[2], Value: false},
	}
	s := f.open(t, f.users[1])
	before := s.Votes()

	f.store.writeErr = errors.New("connection reset")
	_, err := s.CastVote(context.Background(), f.activity.ID, false)

	require.Error(t, err)
	assert.Equal(t, before, s.Votes())
	assert.Equal(t, domain.Tally{Yes: 1, No: 1}, s.Tally(f.activity.ID))
}

// --- Finalize --------------------------------------------------------------

func TestSession_Finalize(t *testing.T) {
	tests := []struct {
		name  string
		votes []bool
		want  domain.Status
	}{
		{name: "majority confirms", votes: []bool{true, true, false}, want: domain.StatusConfirmed},
		{name: "tie stays pending", votes: []bool{true, false}, want: domain.StatusPending},
		{name: "no majority stays pending", votes: []bool{true, false, false}, want: domain.StatusPending},
		{name: "single yes confirms", votes: []bool{true}, want: domain.StatusConfirmed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, 4)
			for i, v := range tc.votes {
				f.store.votes = append(f.store.votes, domain.Vote{
					ID: uuid.New(), ActivityID: f.activity.ID, UserID: f.users[i], Value: v,
				})
			}
			s := f.open(t, f.owner)

			got, err := s.Finalize(context.Background(), f.activity.ID)

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, 1, f.store.setStatusCalls)
			assert.Equal(t, tc.want, s.Activities()[0].Status, "cache should reflect the decision immediately")
		})
	}
}

func TestSession_Finalize_NoVotes(t *testing.T) {
	f := newFixture(t, 3)
	s := f.open(t, f.owner)

	_, err := s.Finalize(context.Background(), f.activity.ID)

	assert.ErrorIs(t, err, domain.ErrNoVotes)
	assert.Zero(t, f.store.setStatusCalls)
	assert.Equal(t, domain.StatusVoting, s.Activities()[0].Status)
}

func TestSession_Finalize_NotVoting(t *testing.T) {
	f := newFixture(t, 3)
	f.store.activities[0].Status = domain.StatusConfirmed
	s := f.open(t, f.owner)

	_, err := s.Finalize(context.Background(), f.activity.ID)

	assert.ErrorIs(t, err, domain.ErrNotVoting)
	assert.Zero(t, f.store.setStatusCalls)
}

func TestSession_Finalize_WriteFailureKeepsStatus(t *testing.T) {
	f := newFixture(t, 2)
	f.store.votes = []domain.Vote{{ID: uuid.New(), ActivityID: f.activity.ID, UserID: f.owner, Value: true}}
	s := f.open(t, f.owner)
	f.store.writeErr = domain.ErrForbidden

	_, err := s.Finalize(context.Background(), f.activity.ID)

	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, domain.StatusVoting, s.Activities()[0].Status)
}

func TestSession_Finalize_NotifiesAndFiresOnChange(t *testing.T) {
	f := newFixture(t, 2)
	f.store.votes = []domain.Vote{{ID: uuid.New(), ActivityID: f.activity.ID, UserID: f.owner, Value: true}}

	got := make(chan notifier.Decision, 1)
	deps := f.deps()
	deps.Notifier = &mockNotifier{notifyFn: func(d notifier.Decision) error {
		got <- d
		return errors.New("discord unavailable") // must not fail the finalize
	}}
	s, err := Open(context.Background(), deps, f.store.trip.ID, f.owner)
	require.NoError(t, err)
	defer s.Close()

	changes := 0
	s.OnChange(func() { changes++ })

	status, err := s.Finalize(context.Background(), f.activity.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, status)
	assert.Equal(t, 1, changes)
	select {
	case d := <-got:
		assert.Equal(t, notifier.Decision{
			TripName: "Lisbon", ActivityTitle: "Sunset sail",
			Status: domain.StatusConfirmed, Tally: domain.Tally{Yes: 1},
		}, d)
	case <-time.After(2 * time.Second):
		t.Fatal("decision was not sent")
	}
}

func TestSession_Finalize_SlowNotifierDoesNotBlock(t *testing.T) {
	f := newFixture(t, 2)
	f.store.votes = []domain.Vote{{ID: uuid.New(), ActivityID: f.activity.ID, UserID: f.owner, Value: false}}

	release := make(chan struct{})
	defer close(release)
	deps := f.deps()
	deps.Notifier = &mockNotifier{notifyFn: func(notifier.Decision) error {
		<-release
		return nil
	}}
	s, err := Open(context.Background(), deps, f.store.trip.ID, f.owner)
	require.NoError(t, err)
	defer s.Close()

	// A cancelled request context must not abort the background send either.
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan domain.Status, 1)
	go func() {
		status, err := s.Finalize(ctx, f.activity.ID)
		assert.NoError(t, err)
		done <- status
	}()

	select {
	case status := <-done:
		assert.Equal(t, domain.StatusPending, status)
	case <-time.After(2 * time.Second):
		t.Fatal("finalize waited for the notifier")
	}
	cancel()
}

// A reconcile that read the activities before the status write must not put
// the old status back once it lands.
func TestSession_Finalize_SurvivesInFlightReconcile(t *testing.T) {
	f := newFixture(t, 2)
	f.store.votes = []domain.Vote{{ID: uuid.New(), ActivityID: f.activity.ID, UserID: f.owner, Value: true}}
	s := f.open(t, f.owner)

	fetched := make(chan struct{})
	release := make(chan struct{})
	f.store.mu.Lock()
	f.store.afterListActivities = func() {
		close(fetched)
		<-release
	}
	f.store.mu.Unlock()

	reconciled := make(chan error, 1)
	go func() {
		reconciled <- s.Reconcile(context.Background(), realtime.Event{Table: realtime.TableActivities, TripID: f.store.trip.ID})
	}()
	<-fetched

	f.store.mu.Lock()
	f.store.afterListActivities = nil
	f.store.mu.Unlock()

	finalized := make(chan error, 1)
	go func() {
		_, err := s.Finalize(context.Background(), f.activity.ID)
		finalized <- err
	}()

	// Give Finalize the chance to run ahead of the stale reconcile.
	time.Sleep(50 * time.Millisecond)
	close(release)

	require.NoError(t, <-reconciled)
	require.NoError(t, <-finalized)
	assert.Equal(t, domain.StatusConfirmed, s.Activities()[0].Status)
	assert.False(t, s.View(ViewOptions{}).Activities[0].CanFinalize)
}

// --- Derived reads ---------------------------------------------------------

func TestSession_VotePercentage_UsesParticipantCount(t *testing.T) {
	f := newFixture(t, 5)
	f.store.votes = []domain.Vote{
		{ID: uuid.New(), ActivityID: f.activity.ID, UserID: f.users[0], Value: true},
		{ID: uuid.New(), ActivityID: f.activity.ID, UserID: f.users[1], Value: true},
		{ID: uuid.New(), ActivityID: f.activity.ID, UserID: f.users[2], Value: false},
	}
	s := f.open(t, f.owner)

	assert.Equal(t, 40, s.VotePercentage(f.activity.ID))
	assert.Equal(t, 3, s.Tally(f.activity.ID).Total())
	assert.Len(t, s.ActivityVotes(f.activity.ID), 3)
}

func TestSession_CostPerPerson(t *testing.T) {
	f := newFixture(t, 4)
	s := f.open(t, f.owner)

	got := s.CostPerPerson(s.Activities()[0])

	require.NotNil(t, got)
	assert.InDelta(t, 25.0, *got, 0.0001)
	assert.Nil(t, s.CostPerPerson(domain.Activity{}))
}

func TestSession_UserVote_NotVoted(t *testing.T) {
	f := newFixture(t, 2)
	s := f.open(t, f.users[1])

	voted, _ := s.UserVote(f.activity.ID)

	assert.False(t, voted)
}

// --- Reconcile -------------------------------------------------------------

func TestSession_Reconcile_Idempotent(t *testing.T) {
	f := newFixture(t, 3)
	s := f.open(t, f.owner)
	ctx := context.Background()

	// Someone else votes and adds an activity.
	_, err := f.store.Create(ctx, f.users[2], f.activity.ID, true)
	require.NoError(t, err)
	f.store.activities = append(f.store.activities, domain.Activity{ID: uuid.New(), Title: "Fado night", Status: domain.StatusPending})

	for _, table := range []realtime.Table{realtime.TableActivities, realtime.TableVotes} {
		ev := realtime.Event{Table: table, TripID: f.store.trip.ID}
		require.NoError(t, s.Reconcile(ctx, ev))
		acts1, votes1 := s.Activities(), s.Votes()

		require.NoError(t, s.Reconcile(ctx, ev))
		assert.Equal(t, acts1, s.Activities())
		assert.Equal(t, votes1, s.Votes())
	}

	assert.Len(t, s.Activities(), 2)
	assert.Equal(t, domain.Tally{Yes: 1}, s.Tally(f.activity.ID))
}

func TestSession_Reconcile_Participants(t *testing.T) {
	f := newFixture(t, 2)
	s := f.open(t, f.owner)

	f.store.participants = append(f.store.participants, domain.Participant{ID: uuid.New(), UserID: uuid.New()})
	require.NoError(t, s.Reconcile(context.Background(), realtime.Event{Table: realtime.TableParticipants}))

	assert.Equal(t, 3, s.ParticipantCount())
}

func TestSession_Reconcile_FailureKeepsState(t *testing.T) {
	f := newFixture(t, 2)
	f.store.votes = []domain.Vote{{ID: uuid.New(), ActivityID: f.activity.ID, UserID: f.owner, Value: true}}
	s := f.open(t, f.owner)
	acts, votes := s.Activities(), s.Votes()

	changes := 0
	s.OnChange(func() { changes++ })
	f.store.listErr = errors.New("timeout")

	assert.Error(t, s.Reconcile(context.Background(), realtime.Event{Table: realtime.TableActivities}))
	assert.Error(t, s.Reconcile(context.Background(), realtime.Event{Table: realtime.TableVotes}))

	assert.Equal(t, acts, s.Activities())
	assert.Equal(t, votes, s.Votes())
	assert.Zero(t, changes)
}

// --- Start / Close ---------------------------------------------------------

func TestSession_StartReconcilesOnEvents(t *testing.T) {
	f := newFixture(t, 2)
	s := f.open(t, f.owner)

	changed := make(chan struct{}, 4)
	s.OnChange(func() { changed <- struct{}{} })
	s.Start(context.Background())
	assert.Equal(t, 3, f.hub.Len())

	_, err := f.store.Create(context.Background(), f.users[1], f.activity.ID, false)
	require.NoError(t, err)
	f.hub.Publish(realtime.Event{Table: realtime.TableVotes, TripID: f.store.trip.ID})

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not reconcile")
	}
	assert.Equal(t, domain.Tally{No: 1}, s.Tally(f.activity.ID))
}

func TestSession_StartTwiceSubscribesOnce(t *testing.T) {
	f := newFixture(t, 2)
	s := f.open(t, f.owner)

	s.Start(context.Background())
	s.Start(context.Background())

	assert.Equal(t, 3, f.hub.Len())
}

func TestSession_ResyncReconcilesEveryTable(t *testing.T) {
	f := newFixture(t, 2)
	s := f.open(t, f.owner)

	changed := make(chan struct{}, 4)
	s.OnChange(func() { changed <- struct{}{} })
	s.Start(context.Background())

	// Written while the listener was away: no change event for it.
	_, err := f.store.Create(context.Background(), f.users[1], f.activity.ID, true)
	require.NoError(t, err)
	f.hub.Resync()

	for i := 0; i < len(watched); i++ {
		select {
		case <-changed:
		case <-time.After(2 * time.Second):
			t.Fatal("session did not reconcile on resync")
		}
	}
	assert.Equal(t, domain.Tally{Yes: 1}, s.Tally(f.activity.ID))
}

func TestSession_IgnoresOtherTrips(t *testing.T) {
	f := newFixture(t, 2)
	s := f.open(t, f.owner)

	changed := make(chan struct{}, 1)
	s.OnChange(func() { changed <- struct{}{} })
	s.Start(context.Background())

	f.hub.Publish(realtime.Event{Table: realtime.TableVotes, TripID: uuid.New()})

	select {
	case <-changed:
		t.Fatal("event for another trip must not reach the session")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSession_CloseUnsubscribes(t *testing.T) {
	f := newFixture(t, 2)
	s := f.open(t, f.owner)
	s.Start(context.Background())
	require.Equal(t, 3, f.hub.Len())

	s.Close()
	s.Close()

	assert.Equal(t, 0, f.hub.Len())
}

// --- Scenarios -------------------------------------------------------------

// Four participants; A and B vote yes, C votes no; the owner finalizes.
func TestScenario_MajorityConfirms(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()
	a, b, c := f.users[1], f.users[2], f.users[3]

	for user, value := range map[uuid.UUID]bool{a: true, b: true, c: false} {
		_, err := f.open(t, user).CastVote(ctx, f.activity.ID, value)
		require.NoError(t, err)
	}

	owner := f.open(t, f.owner)
	tally := owner.Tally(f.activity.ID)
	assert.Equal(t, 3, tally.Total())
	assert.Equal(t, 2, tally.Yes)
	assert.Equal(t, 1, tally.No)
	assert.Equal(t, 50, owner.VotePercentage(f.activity.ID))

	status, err := owner.Finalize(ctx, f.activity.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, status)
}

// Same setup, but B changes their vote to no before the owner finalizes.
func TestScenario_ChangedVoteLeavesPending(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()
	a, b, c := f.users[1], f.users[2], f.users[3]

	sessB := f.open(t, b)
	_, err := f.open(t, a).CastVote(ctx, f.activity.ID, true)
	require.NoError(t, err)
	_, err = sessB.CastVote(ctx, f.activity.ID, true)
	require.NoError(t, err)
	_, err = f.open(t, c).CastVote(ctx, f.activity.ID, false)
	require.NoError(t, err)

	_, err = sessB.CastVote(ctx, f.activity.ID, false)
	require.NoError(t, err)
	require.Len(t, f.store.votesFor(f.activity.ID, b), 1)

	owner := f.open(t, f.owner)
	assert.Equal(t, domain.Tally{Yes: 1, No: 2}, owner.Tally(f.activity.ID))

	status, err := owner.Finalize(ctx, f.activity.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, status)
}
