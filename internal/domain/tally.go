package domain

import (
	"math"

	"github.com/google/uuid"
)

// Tally counts the yes and no votes cast for a single activity.
type Tally struct {
	Yes int `json:"yes"`
	No  int `json:"no"`
}

// CountVotes tallies the votes in vs that belong to activityID.
func CountVotes(vs []Vote, activityID uuid.UUID) Tally {
	var t Tally
	for _, v := range vs {
		if v.ActivityID != activityID {
			continue
		}
		if v.Value {
			t.Yes++
		} else {
			t.No++
		}
	}
	return t
}

// Total is the number of votes cast.
func (t Tally) Total() int {
	return t.Yes + t.No
}

// Decide returns the status a voting activity moves to when finalized.
// A strict majority of cast votes confirms it; a tie or a no-majority leaves
// it pending. Participants who did not vote are ignored here.
func (t Tally) Decide() Status {
	if t.Yes > t.No {
		return StatusConfirmed
	}
	return StatusPending
}

// Percentage is the share of yes votes over all trip participants, rounded
// to the nearest integer. Non-voters count against the activity, unlike in
// Decide. Returns 0 when participants is 0.
func (t Tally) Percentage(participants int) int {
	if participants <= 0 {
		return 0
	}
	return int(math.Round(float64(t.Yes) / float64(participants) * 100))
}

// CostPerPerson splits cost evenly across participants.
// Returns nil when the cost is unknown or there are no participants.
func CostPerPerson(cost *float64, participants int) *float64 {
	if cost == nil || participants <= 0 {
		return nil
	}
	per := *cost / float64(participants)
	return &per
}
