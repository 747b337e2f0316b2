package domain

import (
	"time"

	"github.com/google/uuid"
)

// Participant links a user to a trip. A trip may have several owners; a
// decision taken by any one of them is equally authoritative.
type Participant struct {
	ID        uuid.UUID `json:"id"`
	TripID    uuid.UUID `json:"trip_id"`
	UserID    uuid.UUID `json:"user_id"`
	IsOwner   bool      `json:"is_owner"`
	CreatedAt time.Time `json:"created_at"`
}

// FindParticipant returns the participant record for userID, if any.
func FindParticipant(ps []Participant, userID uuid.UUID) (Participant, bool) {
	for _, p := range ps {
		if p.UserID == userID {
			return p, true
		}
	}
	return Participant{}, false
}
