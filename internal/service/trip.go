// Package service contains the business logic for the trip planner API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
//
// Services are also the authorization boundary: every method takes the
// acting user's ID and rejects non-participants, and owner-only or
// creator-only actions, with domain.ErrForbidden. Callers above (handlers,
// the voting coordinator) do not re-check.
package service

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/backend/internal/domain"
	"github.com/pkordes/trip-planner/backend/internal/repo"
)

// inviteAttempts bounds retries when a generated invite code collides.
const inviteAttempts = 3

// TripService implements business logic for Trip operations.
type TripService struct {
	trips        repo.TripRepo
	participants repo.ParticipantRepo
	access       membership
}

// NewTripService constructs a TripService backed by the provided repos.
func NewTripService(trips repo.TripRepo, participants repo.ParticipantRepo) *TripService {
	return &TripService{trips: trips, participants: participants, access: membership{participants}}
}

// Create validates and persists a new trip, then makes its creator an owner.
// The invite code is always generated here; any value on trip is ignored.
func (s *TripService) Create(ctx context.Context, userID uuid.UUID, trip domain.Trip) (domain.Trip, error) {
	trip.Name = strings.TrimSpace(trip.Name)
	trip.CreatedBy = userID
	if trip.Currency == "" {
		trip.Currency = domain.DefaultCurrency
	}
	trip.Currency = strings.ToUpper(trip.Currency)
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, err
	}

	var (
		created domain.Trip
		err     error
	)
	for i := 0; i < inviteAttempts; i++ {
		trip.InviteCode = newInviteCode()
		created, err = s.trips.Create(ctx, trip)
		if !errors.Is(err, domain.ErrConflict) {
			break
		}
	}
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}

	if _, err := s.participants.Add(ctx, created.ID, userID, true); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: add owner: %w", err)
	}
	return created, nil
}

// GetByID returns a trip the user participates in.
func (s *TripService) GetByID(ctx context.Context, userID, tripID uuid.UUID) (domain.Trip, error) {
	if _, err := s.access.participant(ctx, tripID, userID); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return trip, nil
}

// ListForUser returns one page of the user's trips and the total count.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TripService) ListForUser(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	trips, total, err := s.trips.ListByUserPaged(ctx, userID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.ListForUser: %w", err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return trips, total, nil
}

// Update validates and persists changes to a trip. Owner only.
// The invite code and creator cannot be changed.
func (s *TripService) Update(ctx context.Context, userID uuid.UUID, trip domain.Trip) (domain.Trip, error) {
	if _, err := s.access.owner(ctx, trip.ID, userID); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	trip.Name = strings.TrimSpace(trip.Name)
	if trip.Currency == "" {
		trip.Currency = domain.DefaultCurrency
	}
	trip.Currency = strings.ToUpper(trip.Currency)
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, err
	}
	result, err := s.trips.Update(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	return result, nil
}

// Delete removes a trip and everything on it. Owner only.
func (s *TripService) Delete(ctx context.Context, userID, tripID uuid.UUID) error {
	if _, err := s.access.owner(ctx, tripID, userID); err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	if err := s.trips.Delete(ctx, tripID); err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	return nil
}

// Join adds the user to the trip behind inviteCode. Joining a trip the user
// is already on is not an error and keeps their existing role.
func (s *TripService) Join(ctx context.Context, userID uuid.UUID, inviteCode string) (domain.Trip, error) {
	code := strings.ToUpper(strings.TrimSpace(inviteCode))
	if code == "" {
		return domain.Trip{}, fmt.Errorf("%w: invite_code is required", domain.ErrValidation)
	}
	trip, err := s.trips.GetByInviteCode(ctx, code)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Join: %w", err)
	}
	if _, err := s.participants.Add(ctx, trip.ID, userID, false); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Join: %w", err)
	}
	return trip, nil
}

// Participants lists everyone on the trip. The caller must be one of them.
func (s *TripService) Participants(ctx context.Context, userID, tripID uuid.UUID) ([]domain.Participant, error) {
	if _, err := s.access.participant(ctx, tripID, userID); err != nil {
		return nil, fmt.Errorf("service.TripService.Participants: %w", err)
	}
	ps, err := s.participants.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.Participants: %w", err)
	}
	if ps == nil {
		ps = []domain.Participant{}
	}
	return ps, nil
}

// Leave removes the user from the trip. The last owner cannot leave; they
// must delete the trip instead.
func (s *TripService) Leave(ctx context.Context, userID, tripID uuid.UUID) error {
	me, err := s.access.participant(ctx, tripID, userID)
	if err != nil {
		return fmt.Errorf("service.TripService.Leave: %w", err)
	}
	if me.IsOwner {
		ps, err := s.participants.ListByTrip(ctx, tripID)
		if err != nil {
			return fmt.Errorf("service.TripService.Leave: %w", err)
		}
		owners := 0
		for _, p := range ps {
			if p.IsOwner {
				owners++
			}
		}
		if owners <= 1 {
			return fmt.Errorf("%w: the last owner cannot leave the trip", domain.ErrConflict)
		}
	}
	if err := s.participants.Remove(ctx, tripID, userID); err != nil {
		return fmt.Errorf("service.TripService.Leave: %w", err)
	}
	return nil
}

// newInviteCode returns 8 random characters from the base32 alphabet.
func newInviteCode() string {
	var b [5]byte
	_, _ = rand.Read(b[:])
	return base32.StdEncoding.EncodeToString(b[:])
}
