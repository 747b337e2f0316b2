package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/backend/internal/domain"
	"github.com/pkordes/trip-planner/backend/internal/repo"
)

// ActivityService implements business logic for Activity operations.
//
// Any participant may propose an activity. Only its creator or a trip owner
// may edit or delete it. Editing may reopen or close voting; only an owner
// may set an arbitrary status.
type ActivityService struct {
	activities repo.ActivityRepo
	access     membership
}

// NewActivityService constructs an ActivityService backed by the provided repos.
func NewActivityService(activities repo.ActivityRepo, participants repo.ParticipantRepo) *ActivityService {
	return &ActivityService{activities: activities, access: membership{participants}}
}

// Create validates and persists a new activity on a.TripID proposed by userID.
// It starts in voting when requireVoting is set, otherwise pending.
func (s *ActivityService) Create(ctx context.Context, userID uuid.UUID, a domain.Activity, requireVoting bool) (domain.Activity, error) {
	if _, err := s.access.participant(ctx, a.TripID, userID); err != nil {
		return domain.Activity{}, fmt.Errorf("service.ActivityService.Create: %w", err)
	}
	a.Title = strings.TrimSpace(a.Title)
	a.CreatedBy = userID
	a.Status = domain.InitialStatus(requireVoting)
	if a.Category == "" {
		a.Category = domain.CategoryOther
	}
	if err := validateActivity(a); err != nil {
		return domain.Activity{}, err
	}
	result, err := s.activities.Create(ctx, a)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("service.ActivityService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns one activity of tripID.
// Returns domain.ErrNotFound if the activity belongs to another trip.
func (s *ActivityService) GetByID(ctx context.Context, userID, tripID, activityID uuid.UUID) (domain.Activity, error) {
	if _, err := s.access.participant(ctx, tripID, userID); err != nil {
		return domain.Activity{}, fmt.Errorf("service.ActivityService.GetByID: %w", err)
	}
	a, err := s.inTrip(ctx, tripID, activityID)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("service.ActivityService.GetByID: %w", err)
	}
	return a, nil
}

// ListByTrip returns every activity of a trip, scheduled ones first.
// Always returns a non-nil slice so callers can safely range over it.
func (s *ActivityService) ListByTrip(ctx context.Context, userID, tripID uuid.UUID) ([]domain.Activity, error) {
	if _, err := s.access.participant(ctx, tripID, userID); err != nil {
		return nil, fmt.Errorf("service.ActivityService.ListByTrip: %w", err)
	}
	acts, err := s.activities.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.ActivityService.ListByTrip: %w", err)
	}
	if acts == nil {
		acts = []domain.Activity{}
	}
	return acts, nil
}

// Update validates and persists changes to an activity's descriptive fields.
// a.TripID must match the stored trip and a.Status is ignored. requireVoting,
// when set, moves the status as domain.EditedStatus describes.
func (s *ActivityService) Update(ctx context.Context, userID uuid.UUID, a domain.Activity, requireVoting *bool) (domain.Activity, error) {
	existing, err := s.modifiable(ctx, userID, a.TripID, a.ID)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("service.ActivityService.Update: %w", err)
	}
	a.Title = strings.TrimSpace(a.Title)
	a.CreatedBy = existing.CreatedBy
	a.Status = existing.Status
	if a.Category == "" {
		a.Category = existing.Category
	}
	if err := validateActivity(a); err != nil {
		return domain.Activity{}, err
	}
	result, err := s.activities.Update(ctx, a)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("service.ActivityService.Update: %w", err)
	}

	status := domain.EditedStatus(existing.Status, requireVoting)
	if status != existing.Status {
		if err := s.activities.SetStatus(ctx, a.ID, status); err != nil {
			return domain.Activity{}, fmt.Errorf("service.ActivityService.Update: status: %w", err)
		}
		result.Status = status
	}
	return result, nil
}

// Delete removes an activity and its votes. Creator or owner only.
func (s *ActivityService) Delete(ctx context.Context, userID, tripID, activityID uuid.UUID) error {
	if _, err := s.modifiable(ctx, userID, tripID, activityID); err != nil {
		return fmt.Errorf("service.ActivityService.Delete: %w", err)
	}
	if err := s.activities.Delete(ctx, activityID); err != nil {
		return fmt.Errorf("service.ActivityService.Delete: %w", err)
	}
	return nil
}

// SetStatus moves an activity to status. Owner only.
func (s *ActivityService) SetStatus(ctx context.Context, userID, activityID uuid.UUID, status domain.Status) (domain.Activity, error) {
	if !status.Valid() {
		return domain.Activity{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	a, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("service.ActivityService.SetStatus: %w", err)
	}
	if _, err := s.access.owner(ctx, a.TripID, userID); err != nil {
		return domain.Activity{}, fmt.Errorf("service.ActivityService.SetStatus: %w", err)
	}
	if err := s.activities.SetStatus(ctx, activityID, status); err != nil {
		return domain.Activity{}, fmt.Errorf("service.ActivityService.SetStatus: %w", err)
	}
	a.Status = status
	return a, nil
}

// modifiable loads an activity of tripID and checks userID may change it.
func (s *ActivityService) modifiable(ctx context.Context, userID, tripID, activityID uuid.UUID) (domain.Activity, error) {
	p, err := s.access.participant(ctx, tripID, userID)
	if err != nil {
		return domain.Activity{}, err
	}
	a, err := s.inTrip(ctx, tripID, activityID)
	if err != nil {
		return domain.Activity{}, err
	}
	if !a.CanModify(userID, p.IsOwner) {
		return domain.Activity{}, fmt.Errorf("%w: only the creator or a trip owner may change this activity", domain.ErrForbidden)
	}
	return a, nil
}

func (s *ActivityService) inTrip(ctx context.Context, tripID, activityID uuid.UUID) (domain.Activity, error) {
	a, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return domain.Activity{}, err
	}
	if a.TripID != tripID {
		return domain.Activity{}, domain.ErrNotFound
	}
	return a, nil
}
