package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/trip-planner/backend/internal/coordinator"
	"github.com/pkordes/trip-planner/backend/internal/domain"
)

// ActivityRequest is the body of POST and PUT on activities.
// On create RequireVoting true starts the activity in voting, otherwise it
// starts pending. On update it is optional: true reopens voting and false
// closes it without a decision.
type ActivityRequest struct {
	Title         string              `json:"title"`
	Description   *string             `json:"description,omitempty"`
	Date          *openapi_types.Date `json:"date,omitempty"`
	StartTime     *string             `json:"start_time,omitempty"`
	EndTime       *string             `json:"end_time,omitempty"`
	Location      *string             `json:"location,omitempty"`
	LocationLat   *float64            `json:"location_lat,omitempty"`
	LocationLng   *float64            `json:"location_lng,omitempty"`
	ExternalURL   *string             `json:"external_url,omitempty"`
	ImageURL      *string             `json:"image_url,omitempty"`
	Cost          *float64            `json:"cost,omitempty"`
	Category      *string             `json:"category,omitempty"`
	RequireVoting *bool               `json:"require_voting,omitempty"`
}

// Activity is the API representation of an activity.
type Activity struct {
	Id          openapi_types.UUID  `json:"id"`
	TripId      openapi_types.UUID  `json:"trip_id"`
	Title       string              `json:"title"`
	Description *string             `json:"description,omitempty"`
	Date        *openapi_types.Date `json:"date,omitempty"`
	StartTime   *string             `json:"start_time,omitempty"`
	EndTime     *string             `json:"end_time,omitempty"`
	Location    *string             `json:"location,omitempty"`
	LocationLat *float64            `json:"location_lat,omitempty"`
	LocationLng *float64            `json:"location_lng,omitempty"`
	ExternalURL *string             `json:"external_url,omitempty"`
	ImageURL    *string             `json:"image_url,omitempty"`
	Cost        *float64            `json:"cost,omitempty"`
	Category    string              `json:"category"`
	Status      string              `json:"status"`
	CreatedBy   openapi_types.UUID  `json:"created_by"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// VoteRequest is the body of PUT .../vote.
type VoteRequest struct {
	Value *bool `json:"value"`
}

// MyVote is the body of GET .../vote.
type MyVote struct {
	Voted bool  `json:"voted"`
	Value *bool `json:"value,omitempty"`
}

// FinalizeResult is the data of a successful finalize.
type FinalizeResult struct {
	Status string `json:"status"`
}

// ListActivities handles GET /trips/{tripId}/activities.
// It returns the trip's board: every activity matching the filters with its
// tally, vote share, per-person cost and the caller's permissions, plus the
// budget summary. Query parameters: search, status, category,
// sort (date_asc|date_desc|name_asc|name_desc|category) and group=true to
// also bucket activities by date.
func (s *Server) ListActivities(w http.ResponseWriter, r *http.Request) {
	userID, tripID, ok := s.tripScope(w, r)
	if !ok {
		return
	}
	opts, err := viewOptionsFromQuery(r)
	if err != nil {
		s.fail(w, r, err, "trip")
		return
	}

	sess, err := coordinator.Open(r.Context(), s.sessions, tripID, userID)
	if err != nil {
		s.fail(w, r, err, "trip")
		return
	}
	defer sess.Close()

	writeJSON(w, http.StatusOK, sess.View(opts))
}

// CreateActivity handles POST /trips/{tripId}/activities.
func (s *Server) CreateActivity(w http.ResponseWriter, r *http.Request) {
	userID, tripID, ok := s.tripScope(w, r)
	if !ok {
		return
	}
	var body ActivityRequest
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err, "trip")
		return
	}
	a := requestToActivity(tripID, uuid.Nil, body)
	requireVoting := body.RequireVoting != nil && *body.RequireVoting

	created, err := s.activities.Create(r.Context(), userID, a, requireVoting)
	if err != nil {
		s.fail(w, r, err, "trip")
		return
	}
	writeJSON(w, http.StatusCreated, MessageResponse{Message: "Activity added.", Data: activityToResponse(created)})
}

// GetActivity handles GET /trips/{tripId}/activities/{activityId}.
func (s *Server) GetActivity(w http.ResponseWriter, r *http.Request) {
	userID, tripID, activityID, ok := s.activityScope(w, r)
	if !ok {
		return
	}
	a, err := s.activities.GetByID(r.Context(), userID, tripID, activityID)
	if err != nil {
		s.fail(w, r, err, "activity")
		return
	}
	writeJSON(w, http.StatusOK, activityToResponse(a))
}

// UpdateActivity handles PUT /trips/{tripId}/activities/{activityId}.
// Only the creator or a trip owner may edit; the status is not editable here.
func (s *Server) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	userID, tripID, activityID, ok := s.activityScope(w, r)
	if !ok {
		return
	}
	var body ActivityRequest
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err, "activity")
		return
	}
	updated, err := s.activities.Update(r.Context(), userID, requestToActivity(tripID, activityID, body), body.RequireVoting)
	if err != nil {
		s.fail(w, r, err, "activity")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Activity updated.", Data: activityToResponse(updated)})
}

// DeleteActivity handles DELETE /trips/{tripId}/activities/{activityId}.
func (s *Server) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	userID, tripID, activityID, ok := s.activityScope(w, r)
	if !ok {
		return
	}
	if err := s.activities.Delete(r.Context(), userID, tripID, activityID); err != nil {
		s.fail(w, r, err, "activity")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Activity deleted."})
}

// GetMyVote handles GET /trips/{tripId}/activities/{activityId}/vote.
func (s *Server) GetMyVote(w http.ResponseWriter, r *http.Request) {
	userID, tripID, activityID, ok := s.activityScope(w, r)
	if !ok {
		return
	}
	v, voted, err := s.votes.Mine(r.Context(), userID, tripID, activityID)
	if err != nil {
		s.fail(w, r, err, "activity")
		return
	}
	resp := MyVote{Voted: voted}
	if voted {
		resp.Value = &v.Value
	}
	writeJSON(w, http.StatusOK, resp)
}

// CastVote handles PUT /trips/{tripId}/activities/{activityId}/vote.
// Voting again replaces the caller's previous vote.
func (s *Server) CastVote(w http.ResponseWriter, r *http.Request) {
	userID, tripID, activityID, ok := s.activityScope(w, r)
	if !ok {
		return
	}
	var body VoteRequest
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err, "activity")
		return
	}
	if body.Value == nil {
		s.fail(w, r, fmt.Errorf("%w: value is required", domain.ErrValidation), "activity")
		return
	}

	sess, err := coordinator.Open(r.Context(), s.sessions, tripID, userID)
	if err != nil {
		s.fail(w, r, err, "trip")
		return
	}
	defer sess.Close()

	notice, err := sess.CastVote(r.Context(), activityID, *body.Value)
	if err != nil {
		s.fail(w, r, err, "activity")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: notice})
}

// FinalizeActivity handles POST /trips/{tripId}/activities/{activityId}/finalize.
// Owners only. A strict majority of cast votes confirms the activity;
// otherwise it goes back to pending.
func (s *Server) FinalizeActivity(w http.ResponseWriter, r *http.Request) {
	userID, tripID, activityID, ok := s.activityScope(w, r)
	if !ok {
		return
	}
	sess, err := coordinator.Open(r.Context(), s.sessions, tripID, userID)
	if err != nil {
		s.fail(w, r, err, "trip")
		return
	}
	defer sess.Close()

	status, err := sess.Finalize(r.Context(), activityID)
	if err != nil {
		s.fail(w, r, err, "activity")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{
		Message: coordinator.FinalizeNotice(status),
		Data:    FinalizeResult{Status: string(status)},
	})
}

// activityScope resolves the caller and both path parameters.
func (s *Server) activityScope(w http.ResponseWriter, r *http.Request) (userID, tripID, activityID uuid.UUID, ok bool) {
	userID, tripID, ok = s.tripScope(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}
	activityID, err := pathUUID(r, "activityId")
	if err != nil {
		s.fail(w, r, err, "activity")
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}
	return userID, tripID, activityID, true
}

// viewOptionsFromQuery binds the board's filter parameters.
func viewOptionsFromQuery(r *http.Request) (coordinator.ViewOptions, error) {
	var (
		search, status, category, sort *string
		group                          *bool
	)
	for name, dest := range map[string]any{
		"search": &search, "status": &status, "category": &category, "sort": &sort, "group": &group,
	} {
		if err := queryParam(r, name, dest); err != nil {
			return coordinator.ViewOptions{}, err
		}
	}
	return viewOptions(deref(search), deref(status), deref(category), deref(sort), group != nil && *group)
}

// viewOptions validates raw filter values. Empty values mean "no filter".
// Shared by the board endpoint and live connections.
func viewOptions(search, status, category, sort string, group bool) (coordinator.ViewOptions, error) {
	q := domain.ActivityQuery{Search: search}
	var err error
	if status != "" {
		if q.Status, err = domain.ParseStatus(status); err != nil {
			return coordinator.ViewOptions{}, err
		}
	}
	if category != "" {
		if q.Category, err = domain.ParseCategory(category); err != nil {
			return coordinator.ViewOptions{}, err
		}
	}
	if q.Sort, err = domain.ParseSortOrder(sort); err != nil {
		return coordinator.ViewOptions{}, err
	}
	return coordinator.ViewOptions{Query: q, GroupByDate: group}, nil
}

// --- mapping helpers --------------------------------------------------------

// requestToActivity converts an ActivityRequest body into a domain.Activity.
// Validation happens in the service layer.
func requestToActivity(tripID, id uuid.UUID, body ActivityRequest) domain.Activity {
	a := domain.Activity{
		ID:          id,
		TripID:      tripID,
		Title:       body.Title,
		Description: deref(body.Description),
		StartTime:   deref(body.StartTime),
		EndTime:     deref(body.EndTime),
		Location:    deref(body.Location),
		LocationLat: body.LocationLat,
		LocationLng: body.LocationLng,
		ExternalURL: deref(body.ExternalURL),
		ImageURL:    deref(body.ImageURL),
		Cost:        body.Cost,
		Category:    domain.Category(deref(body.Category)),
	}
	if body.Date != nil {
		d := body.Date.Time
		a.Date = &d
	}
	return a
}

// activityToResponse converts a domain.Activity into the API Activity type.
// Empty strings become nil pointers (omitted in JSON).
func activityToResponse(a domain.Activity) Activity {
	resp := Activity{
		Id:          a.ID,
		TripId:      a.TripID,
		Title:       a.Title,
		Description: optional(a.Description),
		StartTime:   optional(a.StartTime),
		EndTime:     optional(a.EndTime),
		Location:    optional(a.Location),
		LocationLat: a.LocationLat,
		LocationLng: a.LocationLng,
		ExternalURL: optional(a.ExternalURL),
		ImageURL:    optional(a.ImageURL),
		Cost:        a.Cost,
		Category:    string(a.Category),
		Status:      string(a.Status),
		CreatedBy:   a.CreatedBy,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if a.Date != nil {
		resp.Date = &openapi_types.Date{Time: *a.Date}
	}
	return resp
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
