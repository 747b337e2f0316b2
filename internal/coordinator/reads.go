package coordinator

import (
	"slices"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/backend/internal/domain"
)

// Trip returns the cached trip.
func (s *Session) Trip() domain.Trip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trip
}

// Activities returns a copy of the cached activities in fetch order.
func (s *Session) Activities() []domain.Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.activities)
}

// Votes returns a copy of every cached vote.
func (s *Session) Votes() []domain.Vote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.votes)
}

// ParticipantCount is the denominator for percentages and cost splits.
func (s *Session) ParticipantCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.participants)
}

// IsOwner reports whether the session's user owns the trip.
func (s *Session) IsOwner() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := domain.FindParticipant(s.participants, s.userID)
	return ok && p.IsOwner
}

// UserVote reports whether the session's user has voted on activityID and,
// if so, how.
func (s *Session) UserVote(activityID uuid.UUID) (voted, value bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.findVote(activityID, s.userID)
	return ok, v.Value
}

// ActivityVotes returns every cached vote on activityID.
func (s *Session) ActivityVotes(activityID uuid.UUID) []domain.Vote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Vote
	for _, v := range s.votes {
		if v.ActivityID == activityID {
			out = append(out, v)
		}
	}
	return out
}

// Tally counts the cached votes on activityID.
func (s *Session) Tally(activityID uuid.UUID) domain.Tally {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CountVotes(s.votes, activityID)
}

// VotePercentage is the share of all participants, voters or not, who voted
// yes on activityID.
func (s *Session) VotePercentage(activityID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CountVotes(s.votes, activityID).Percentage(len(s.participants))
}

// CostPerPerson splits a.Cost across the trip's participants.
func (s *Session) CostPerPerson(a domain.Activity) *float64 {
	return domain.CostPerPerson(a.Cost, s.ParticipantCount())
}
