package domain

import "time"

// ExportRow is a single row of a trip itinerary export.
// It is a flat, denormalized view: one row per activity, with trip fields
// repeated for every activity. Trips with no activities yield no rows.
type ExportRow struct {
	// Trip fields, repeated for every activity on the trip.
	TripName string
	Currency string

	// Activity fields.
	Title     string
	Category  Category
	Status    Status
	Date      *time.Time
	StartTime string
	EndTime   string
	Location  string
	Cost      *float64

	// Tally at export time.
	YesVotes      int
	NoVotes       int
	CostPerPerson *float64
}
