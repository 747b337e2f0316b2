package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pkordes/trip-planner/backend/internal/domain"
)

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorDetail as {"error": {...}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

var (
	// errBadRequest marks input rejected before reaching the service layer
	// (malformed JSON, unparseable path or query parameters).
	errBadRequest = errors.New("bad request")
	errTooLarge   = errors.New("request body is too large")
)

// classify maps an error to a status code and a client-safe body.
// what names the resource for 404 messages (e.g. "trip").
// Anything not recognised is an internal error; its text is never shown.
func classify(err error, what string) (int, ErrorDetail) {
	switch {
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge, ErrorDetail{Code: "payload_too_large", Message: errTooLarge.Error()}
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, ErrorDetail{Code: "bad_request", Message: unwrapMessage(err, errBadRequest)}
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, ErrorDetail{Code: "validation_error", Message: unwrapMessage(err, domain.ErrValidation)}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, ErrorDetail{Code: "forbidden", Message: unwrapMessage(err, domain.ErrForbidden)}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrorDetail{Code: "not_found", Message: what + " not found"}
	case errors.Is(err, domain.ErrNotVoting):
		return http.StatusConflict, ErrorDetail{Code: "not_voting", Message: domain.ErrNotVoting.Error()}
	case errors.Is(err, domain.ErrNoVotes):
		return http.StatusConflict, ErrorDetail{Code: "no_votes", Message: domain.ErrNoVotes.Error()}
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, ErrorDetail{Code: "conflict", Message: unwrapMessage(err, domain.ErrConflict)}
	}
	return http.StatusInternalServerError, ErrorDetail{Code: "internal_error", Message: "internal server error"}
}

// fail writes the error response for err and logs internal errors.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, what string) {
	status, detail := classify(err, what)
	if status == http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: detail})
}

// unwrapMessage extracts the human-readable part that follows sentinel in a
// wrapped error.
// e.g. "service.TripService.Create: validation error: name: cannot be blank." → "name: cannot be blank."
// Falls back to the sentinel's own text when nothing follows it.
func unwrapMessage(err, sentinel error) string {
	msg := err.Error()
	marker := sentinel.Error() + ": "
	if i := strings.LastIndex(msg, marker); i >= 0 && len(msg) > i+len(marker) {
		return msg[i+len(marker):]
	}
	return sentinel.Error()
}

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
