package domain

import (
	"time"

	"github.com/google/uuid"
)

// Vote is one participant's yes/no opinion on one activity.
// There is at most one Vote per (ActivityID, UserID); voting again updates
// Value in place.
type Vote struct {
	ID         uuid.UUID `json:"id"`
	ActivityID uuid.UUID `json:"activity_id"`
	UserID     uuid.UUID `json:"user_id"`
	Value      bool      `json:"vote"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
