package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/backend/internal/domain"
	"github.com/pkordes/trip-planner/backend/internal/repo"
)

// VoteService implements business logic for votes.
// Only participants vote, only on activities open for voting, and a vote can
// only be changed by the user who cast it.
type VoteService struct {
	votes      repo.VoteRepo
	activities repo.ActivityRepo
	access     membership
}

// NewVoteService constructs a VoteService backed by the provided repos.
func NewVoteService(votes repo.VoteRepo, activities repo.ActivityRepo, participants repo.ParticipantRepo) *VoteService {
	return &VoteService{votes: votes, activities: activities, access: membership{participants}}
}

// Create records userID's vote on activityID. If the user already voted the
// existing row is overwritten, so a stale client can never create a second one.
func (s *VoteService) Create(ctx context.Context, userID, activityID uuid.UUID, value bool) (domain.Vote, error) {
	if err := s.votable(ctx, userID, activityID); err != nil {
		return domain.Vote{}, fmt.Errorf("service.VoteService.Create: %w", err)
	}
	v, err := s.votes.Create(ctx, domain.Vote{ActivityID: activityID, UserID: userID, Value: value})
	if err != nil {
		return domain.Vote{}, fmt.Errorf("service.VoteService.Create: %w", err)
	}
	return v, nil
}

// UpdateValue changes the value of one of userID's own votes.
func (s *VoteService) UpdateValue(ctx context.Context, userID, voteID uuid.UUID, value bool) (domain.Vote, error) {
	existing, err := s.votes.GetByID(ctx, voteID)
	if err != nil {
		return domain.Vote{}, fmt.Errorf("service.VoteService.UpdateValue: %w", err)
	}
	if existing.UserID != userID {
		return domain.Vote{}, fmt.Errorf("service.VoteService.UpdateValue: %w: not your vote", domain.ErrForbidden)
	}
	if err := s.votable(ctx, userID, existing.ActivityID); err != nil {
		return domain.Vote{}, fmt.Errorf("service.VoteService.UpdateValue: %w", err)
	}
	v, err := s.votes.UpdateValue(ctx, voteID, value)
	if err != nil {
		return domain.Vote{}, fmt.Errorf("service.VoteService.UpdateValue: %w", err)
	}
	return v, nil
}

// Mine returns userID's vote on activityID and whether one exists.
func (s *VoteService) Mine(ctx context.Context, userID, tripID, activityID uuid.UUID) (domain.Vote, bool, error) {
	if _, err := s.access.participant(ctx, tripID, userID); err != nil {
		return domain.Vote{}, false, fmt.Errorf("service.VoteService.Mine: %w", err)
	}
	v, err := s.votes.GetByActivityAndUser(ctx, activityID, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Vote{}, false, nil
	}
	if err != nil {
		return domain.Vote{}, false, fmt.Errorf("service.VoteService.Mine: %w", err)
	}
	return v, true, nil
}

// ListByActivityIDs returns every vote on the given activities of tripID.
// Always returns a non-nil slice so callers can safely range over it.
func (s *VoteService) ListByActivityIDs(ctx context.Context, userID, tripID uuid.UUID, ids []uuid.UUID) ([]domain.Vote, error) {
	if _, err := s.access.participant(ctx, tripID, userID); err != nil {
		return nil, fmt.Errorf("service.VoteService.ListByActivityIDs: %w", err)
	}
	votes, err := s.votes.ListByActivityIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("service.VoteService.ListByActivityIDs: %w", err)
	}
	if votes == nil {
		votes = []domain.Vote{}
	}
	return votes, nil
}

// votable checks userID is on the activity's trip and the activity is open.
func (s *VoteService) votable(ctx context.Context, userID, activityID uuid.UUID) error {
	a, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return err
	}
	if _, err := s.access.participant(ctx, a.TripID, userID); err != nil {
		return err
	}
	if a.Status != domain.StatusVoting {
		return domain.ErrNotVoting
	}
	return nil
}
