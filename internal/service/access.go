package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/backend/internal/domain"
	"github.com/pkordes/trip-planner/backend/internal/repo"
)

// membership resolves a user's role on a trip. Every service method that
// takes a userID goes through it before touching trip data.
type membership struct {
	participants repo.ParticipantRepo
}

// participant returns userID's participant row on tripID.
// Returns domain.ErrForbidden when the user is not on the trip.
func (m membership) participant(ctx context.Context, tripID, userID uuid.UUID) (domain.Participant, error) {
	p, err := m.participants.Get(ctx, tripID, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Participant{}, fmt.Errorf("%w: not a participant of this trip", domain.ErrForbidden)
	}
	if err != nil {
		return domain.Participant{}, err
	}
	return p, nil
}

// owner is participant plus the owner flag check.
func (m membership) owner(ctx context.Context, tripID, userID uuid.UUID) (domain.Participant, error) {
	p, err := m.participant(ctx, tripID, userID)
	if err != nil {
		return domain.Participant{}, err
	}
	if !p.IsOwner {
		return domain.Participant{}, fmt.Errorf("%w: only a trip owner may do this", domain.ErrForbidden)
	}
	return p, nil
}
