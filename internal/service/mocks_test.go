package service_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/backend/internal/domain"
	"github.com/pkordes/trip-planner/backend/internal/repo"
)

// Hand-written test doubles for the repo interfaces.
// Each method is a function field; set only the ones your test needs.

type mockTripRepo struct {
	create          func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID         func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	getByInviteCode func(ctx context.Context, code string) (domain.Trip, error)
	listByUserPaged func(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error)
	update          func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	delete          func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.create(ctx, trip)
}
func (m *mockTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripRepo) GetByInviteCode(ctx context.Context, code string) (domain.Trip, error) {
	return m.getByInviteCode(ctx, code)
}
func (m *mockTripRepo) ListByUserPaged(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	return m.listByUserPaged(ctx, userID, p)
}
func (m *mockTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.update(ctx, trip)
}
func (m *mockTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}

type mockParticipantRepo struct {
	add        func(ctx context.Context, tripID, userID uuid.UUID, isOwner bool) (domain.Participant, error)
	get        func(ctx context.Context, tripID, userID uuid.UUID) (domain.Participant, error)
	listByTrip func(ctx context.Context, tripID uuid.UUID) ([]domain.Participant, error)
	remove     func(ctx context.Context, tripID, userID uuid.UUID) error
}

func (m *mockParticipantRepo) Add(ctx context.Context, tripID, userID uuid.UUID, isOwner bool) (domain.Participant, error) {
	return m.add(ctx, tripID, userID, isOwner)
}
func (m *mockParticipantRepo) Get(ctx context.Context, tripID, userID uuid.UUID) (domain.Participant, error) {
	return m.get(ctx, tripID, userID)
}
func (m *mockParticipantRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Participant, error) {
	return m.listByTrip(ctx, tripID)
}
func (m *mockParticipantRepo) Remove(ctx context.Context, tripID, userID uuid.UUID) error {
	return m.remove(ctx, tripID, userID)
}

type mockActivityRepo struct {
	create     func(ctx context.Context, a domain.Activity) (domain.Activity, error)
	getByID    func(ctx context.Context, id uuid.UUID) (domain.Activity, error)
	listByTrip func(ctx context.Context, tripID uuid.UUID) ([]domain.Activity, error)
	update     func(ctx context.Context, a domain.Activity) (domain.Activity, error)
	setStatus  func(ctx context.Context, id uuid.UUID, status domain.Status) error
	delete     func(ctx context.Context, id uuid.UUID) error
}

func (m *mockActivityRepo) Create(ctx context.Context, a domain.Activity) (domain.Activity, error) {
	return m.create(ctx, a)
}
func (m *mockActivityRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Activity, error) {
	return m.getByID(ctx, id)
}
func (m *mockActivityRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Activity, error) {
	return m.listByTrip(ctx, tripID)
}
func (m *mockActivityRepo) Update(ctx context.Context, a domain.Activity) (domain.Activity, error) {
	return m.update(ctx, a)
}
func (m *mockActivityRepo) SetStatus(ctx context.Context, id uuid.UUID, status domain.Status) error {
	return m.setStatus(ctx, id, status)
}
func (m *mockActivityRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}

type mockVoteRepo struct {
	create               func(ctx context.Context, v domain.Vote) (domain.Vote, error)
	updateValue          func(ctx context.Context, id uuid.UUID, value bool) (domain.Vote, error)
	getByID              func(ctx context.Context, id uuid.UUID) (domain.Vote, error)
	getByActivityAndUser func(ctx context.Context, activityID, userID uuid.UUID) (domain.Vote, error)
	listByActivityIDs    func(ctx context.Context, ids []uuid.UUID) ([]domain.Vote, error)
}

func (m *mockVoteRepo) Create(ctx context.Context, v domain.Vote) (domain.Vote, error) {
	return m.create(ctx, v)
}
func (m *mockVoteRepo) UpdateValue(ctx context.Context, id uuid.UUID, value bool) (domain.Vote, error) {
	return m.updateValue(ctx, id, value)
}
func (m *mockVoteRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Vote, error) {
	return m.getByID(ctx, id)
}
func (m *mockVoteRepo) GetByActivityAndUser(ctx context.Context, activityID, userID uuid.UUID) (domain.Vote, error) {
	return m.getByActivityAndUser(ctx, activityID, userID)
}
func (m *mockVoteRepo) ListByActivityIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Vote, error) {
	return m.listByActivityIDs(ctx, ids)
}

// compile-time checks: the mocks must satisfy the repo interfaces.
var (
	_ repo.TripRepo        = (*mockTripRepo)(nil)
	_ repo.ParticipantRepo = (*mockParticipantRepo)(nil)
	_ repo.ActivityRepo    = (*mockActivityRepo)(nil)
	_ repo.VoteRepo        = (*mockVoteRepo)(nil)
)

// roles returns a ParticipantRepo whose Get answers from the given map.
// Users missing from the map are not on the trip.
func roles(byUser map[uuid.UUID]bool) *mockParticipantRepo {
	return &mockParticipantRepo{
		get: func(_ context.Context, tripID, userID uuid.UUID) (domain.Participant, error) {
			isOwner, ok := byUser[userID]
			if !ok {
				return domain.Participant{}, domain.ErrNotFound
			}
			return domain.Participant{TripID: tripID, UserID: userID, IsOwner: isOwner}, nil
		},
	}
}
