package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Category classifies an activity. The set is closed: ParseCategory rejects
// anything that is not one of the constants below.
type Category string

const (
	CategoryAdventure   Category = "adventure"
	CategoryFood        Category = "food"
	CategorySightseeing Category = "sightseeing"
	CategoryOther       Category = "other"
)

// Categories lists every valid Category in display order.
var Categories = []Category{CategoryAdventure, CategoryFood, CategorySightseeing, CategoryOther}

// ParseCategory converts s into a Category.
// Returns ErrValidation for unknown values.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown category %q", ErrValidation, s)
	}
	return c, nil
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryAdventure, CategoryFood, CategorySightseeing, CategoryOther:
		return true
	}
	return false
}

// Status is the lifecycle state of an activity. The set is closed.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusPending   Status = "pending"
	StatusVoting    Status = "voting"
)

// Statuses lists every valid Status.
var Statuses = []Status{StatusConfirmed, StatusPending, StatusVoting}

// ParseStatus converts s into a Status.
// Returns ErrValidation for unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
	return st, nil
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusConfirmed, StatusPending, StatusVoting:
		return true
	}
	return false
}

// InitialStatus is the status a new activity starts in.
func InitialStatus(requireVoting bool) Status {
	if requireVoting {
		return StatusVoting
	}
	return StatusPending
}

// EditedStatus is the status an activity moves to when its creator or an
// owner edits it. A nil requireVoting keeps current. True (re)opens voting.
// False takes a voting activity out of voting; a decided activity stays put.
func EditedStatus(current Status, requireVoting *bool) Status {
	switch {
	case requireVoting == nil:
		return current
	case *requireVoting:
		return StatusVoting
	case current == StatusVoting:
		return StatusPending
	}
	return current
}

// Activity is a proposed trip event with scheduling, cost, and category metadata.
//
// Date holds a calendar date (time part zero, UTC) and is nil when the activity
// is unscheduled. StartTime and EndTime are "HH:MM" strings or empty.
// Cost is nil when unknown and never negative.
type Activity struct {
	ID          uuid.UUID  `json:"id"`
	TripID      uuid.UUID  `json:"trip_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	StartTime   string     `json:"start_time,omitempty"`
	EndTime     string     `json:"end_time,omitempty"`
	Location    string     `json:"location,omitempty"`
	LocationLat *float64   `json:"location_lat,omitempty"`
	LocationLng *float64   `json:"location_lng,omitempty"`
	ExternalURL string     `json:"external_url,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	Cost        *float64   `json:"cost,omitempty"`
	Category    Category   `json:"category"`
	Status      Status     `json:"status"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CanModify reports whether a user may edit or delete the activity:
// its creator, or any trip owner.
func (a Activity) CanModify(userID uuid.UUID, isOwner bool) bool {
	return isOwner || a.CreatedBy == userID
}

// ActivityIDs returns the IDs of acts in order.
func ActivityIDs(acts []Activity) []uuid.UUID {
	ids := make([]uuid.UUID, len(acts))
	for i, a := range acts {
		ids[i] = a.ID
	}
	return ids
}
