package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/trip-planner/backend/internal/domain"
)

// TripRequest is the body of POST /trips and PUT /trips/{tripId}.
type TripRequest struct {
	Name        string              `json:"name"`
	Destination *string             `json:"destination,omitempty"`
	Description *string             `json:"description,omitempty"`
	StartDate   *openapi_types.Date `json:"start_date"`
	EndDate     *openapi_types.Date `json:"end_date,omitempty"`
	Currency    *string             `json:"currency,omitempty"`
	Budget      *float64            `json:"budget,omitempty"`
}

// Trip is the API representation of a trip.
type Trip struct {
	Id          openapi_types.UUID  `json:"id"`
	Name        string              `json:"name"`
	Destination string              `json:"destination"`
	Description *string             `json:"description,omitempty"`
	StartDate   openapi_types.Date  `json:"start_date"`
	EndDate     *openapi_types.Date `json:"end_date,omitempty"`
	Currency    string              `json:"currency"`
	Budget      *float64            `json:"budget,omitempty"`
	InviteCode  string              `json:"invite_code"`
	CreatedBy   openapi_types.UUID  `json:"created_by"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// TripList is the body of GET /trips.
type TripList struct {
	Data       []Trip     `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// JoinTripRequest is the body of POST /trips/join.
type JoinTripRequest struct {
	InviteCode string `json:"invite_code"`
}

// Participant is one member of a trip.
type Participant struct {
	UserId   openapi_types.UUID `json:"user_id"`
	IsOwner  bool               `json:"is_owner"`
	JoinedAt time.Time          `json:"joined_at"`
}

// MessageResponse confirms a mutation. Data carries the affected resource
// when there is one.
type MessageResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	var body TripRequest
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err, "trip")
		return
	}
	trip, err := requestToTrip(uuid.Nil, body)
	if err != nil {
		s.fail(w, r, err, "trip")
		return
	}

	created, err := s.trips.Create(r.Context(), userID, trip)
	if err != nil {
		s.fail(w, r, err, "trip")
		return
	}
	writeJSON(w, http.StatusCreated, MessageResponse{Message: "Trip created.", Data: tripToResponse(created)})
}

// ListTrips handles GET /trips.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	var page, limit *int
	if err := queryParam(r, "page", &page); err != nil {
		s.fail(w, r, err, "trip")
		return
	}
	if err := queryParam(r, "limit", &limit); err != nil {
		s.fail(w, r, err, "trip")
		return
	}

	params := domain.NewPaginationParams(page, limit)
	trips, total, err := s.trips.ListForUser(r.Context(), userID, params)
	if err != nil {
		s.fail(w, r, err, "trip")
		return
	}

	data := make([]Trip, len(trips))
	for i, t := range trips {
		data[i] = tripToResponse(t)
	}
	writeJSON(w, http.StatusOK, TripList{
		Data: data,
		Pagination: Pagination{
			Page:       params.Page,
			Limit:      params.Limit,
			Total:      int(total),
			TotalPages: params.TotalPages(total),
		},
	})
}

// GetTrip handles GET /trips/{tripId}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	userID, tripID, ok := s.tripScope(w, r)
	if !ok {
		return
	}
	trip, err := s.trips.GetByID(r.Context(), userID, tripID)
	if err != nil {
		s.fail(w, r, err, "trip")
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// UpdateTrip handles PUT /trips/{tripId}. Owners only.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	userID, tripID, ok := s.tripScope(w, r)
	if !ok {
		return
	}
	var body TripRequest
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err, "trip")
		return
	}
	trip, err := requestToTrip(tripID, body)
	if err != nil {
		s.fail(w, r, err, "trip")
		return
	}

	updated, err := s.trips.Update(r.Context(), userID, trip)
	if err != nil {
		s.fail(w, r, err, "trip")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Trip updated.", Data: tripToResponse(updated)})
}

// DeleteTrip handles DELETE /trips/{tripId}. Owners only.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	userID, tripID, ok := s.tripScope(w, r)
	if !ok {
		return
	}
	if err := s.trips.Delete(r.Context(), userID, tripID); err != nil {
		s.fail(w, r, err, "trip")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Trip deleted."})
}

// JoinTrip handles POST /trips/join.
func (s *Server) JoinTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	var body JoinTripRequest
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err, "trip")
		return
	}
	trip, err := s.trips.Join(r.Context(), userID, body.InviteCode)
	if err != nil {
		s.fail(w, r, err, "trip")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: fmt.Sprintf("You joined %s.", trip.Name), Data: tripToResponse(trip)})
}

// ListParticipants handles GET /trips/{tripId}/participants.
func (s *Server) ListParticipants(w http.ResponseWriter, r *http.Request) {
	userID, tripID, ok := s.tripScope(w, r)
	if !ok {
		return
	}
	ps, err := s.trips.Participants(r.Context(), userID, tripID)
	if err != nil {
		s.fail(w, r, err, "trip")
		return
	}
	out := make([]Participant, len(ps))
	for i, p := range ps {
		out[i] = Participant{UserId: p.UserID, IsOwner: p.IsOwner, JoinedAt: p.CreatedAt}
	}
	writeJSON(w, http.StatusOK, out)
}

// LeaveTrip handles DELETE /trips/{tripId}/participants/me.
func (s *Server) LeaveTrip(w http.ResponseWriter, r *http.Request) {
	userID, tripID, ok := s.tripScope(w, r)
	if !ok {
		return
	}
	if err := s.trips.Leave(r.Context(), userID, tripID); err != nil {
		s.fail(w, r, err, "trip")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "You left the trip."})
}

// tripScope resolves the caller and the {tripId} path parameter.
func (s *Server) tripScope(w http.ResponseWriter, r *http.Request) (userID, tripID uuid.UUID, ok bool) {
	userID, ok = s.user(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	tripID, err := pathUUID(r, "tripId")
	if err != nil {
		s.fail(w, r, err, "trip")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, tripID, true
}

// --- mapping helpers --------------------------------------------------------

// requestToTrip converts a TripRequest body into a domain.Trip with the given ID.
// Returns an error if the start date is missing.
func requestToTrip(id uuid.UUID, body TripRequest) (domain.Trip, error) {
	if body.StartDate == nil {
		return domain.Trip{}, fmt.Errorf("%w: start_date is required", domain.ErrValidation)
	}
	t := domain.Trip{
		ID:        id,
		Name:      body.Name,
		StartDate: body.StartDate.Time,
		Budget:    body.Budget,
	}
	if body.EndDate != nil {
		ed := body.EndDate.Time
		t.EndDate = &ed
	}
	if body.Destination != nil {
		t.Destination = *body.Destination
	}
	if body.Description != nil {
		t.Description = *body.Description
	}
	if body.Currency != nil {
		t.Currency = *body.Currency
	}
	return t, nil
}

// tripToResponse converts a domain.Trip into the API Trip type.
func tripToResponse(t domain.Trip) Trip {
	resp := Trip{
		Id:          t.ID,
		Name:        t.Name,
		Destination: t.Destination,
		StartDate:   openapi_types.Date{Time: t.StartDate},
		Currency:    t.Currency,
		Budget:      t.Budget,
		InviteCode:  t.InviteCode,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.Description != "" {
		resp.Description = &t.Description
	}
	if t.EndDate != nil {
		ed := openapi_types.Date{Time: *t.EndDate}
		resp.EndDate = &ed
	}
	return resp
}
