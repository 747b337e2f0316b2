package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/backend/internal/domain"
	"github.com/pkordes/trip-planner/backend/internal/repo"
)

// ExportService assembles a flat itinerary export of one trip.
type ExportService struct {
	trips        repo.TripRepo
	activities   repo.ActivityRepo
	votes        repo.VoteRepo
	participants repo.ParticipantRepo
	access       membership
}

// NewExportService constructs an ExportService backed by the provided repos.
func NewExportService(trips repo.TripRepo, activities repo.ActivityRepo, votes repo.VoteRepo, participants repo.ParticipantRepo) *ExportService {
	return &ExportService{
		trips:        trips,
		activities:   activities,
		votes:        votes,
		participants: participants,
		access:       membership{participants},
	}
}

// Export returns one ExportRow per activity of tripID, in itinerary order,
// with the tally at export time. Always returns a non-nil slice.
func (s *ExportService) Export(ctx context.Context, userID, tripID uuid.UUID) ([]domain.ExportRow, error) {
	if _, err := s.access.participant(ctx, tripID, userID); err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: get trip: %w", err)
	}
	acts, err := s.activities.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: list activities: %w", err)
	}
	votes, err := s.votes.ListByActivityIDs(ctx, domain.ActivityIDs(acts))
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: list votes: %w", err)
	}
	ps, err := s.participants.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: list participants: %w", err)
	}

	rows := make([]domain.ExportRow, 0, len(acts))
	for _, a := range acts {
		t := domain.CountVotes(votes, a.ID)
		rows = append(rows, domain.ExportRow{
			TripName:      trip.Name,
			Currency:      trip.Currency,
			Title:         a.Title,
			Category:      a.Category,
			Status:        a.Status,
			Date:          a.Date,
			StartTime:     a.StartTime,
			EndTime:       a.EndTime,
			Location:      a.Location,
			Cost:          a.Cost,
			YesVotes:      t.Yes,
			NoVotes:       t.No,
			CostPerPerson: domain.CostPerPerson(a.Cost, len(ps)),
		})
	}
	return rows, nil
}
