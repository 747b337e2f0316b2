// Package domain contains the core data types for the trip planner.
// Besides google/uuid and golang.org/x/text it has no external dependencies,
// and it is imported by every other internal package.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultCurrency is used when a trip is created without a currency code.
const DefaultCurrency = "USD"

// Trip represents a single planned trip.
// A trip is the top-level aggregate; participants and activities belong to it.
// Currency is the ISO 4217 code used to format every cost figure on the trip.
type Trip struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Destination string     `json:"destination"`
	Description string     `json:"description,omitempty"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Currency    string     `json:"currency"`
	Budget      *float64   `json:"budget,omitempty"` // nil when no budget was set
	InviteCode  string     `json:"invite_code"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
