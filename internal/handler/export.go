package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/trip-planner/backend/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"trip_name", "currency", "title", "category", "status", "date",
	"start_time", "end_time", "location", "cost",
	"yes_votes", "no_votes", "cost_per_person",
}

// ExportRow is one line of GET /trips/{tripId}/export in JSON form.
type ExportRow struct {
	TripName      string              `json:"trip_name"`
	Currency      string              `json:"currency"`
	Title         string              `json:"title"`
	Category      string              `json:"category"`
	Status        string              `json:"status"`
	Date          *openapi_types.Date `json:"date,omitempty"`
	StartTime     *string             `json:"start_time,omitempty"`
	EndTime       *string             `json:"end_time,omitempty"`
	Location      *string             `json:"location,omitempty"`
	Cost          *float64            `json:"cost,omitempty"`
	YesVotes      int                 `json:"yes_votes"`
	NoVotes       int                 `json:"no_votes"`
	CostPerPerson *float64            `json:"cost_per_person,omitempty"`
}

// GetExport handles GET /trips/{tripId}/export.
// It returns the trip's itinerary as one row per activity with its tally.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	userID, tripID, ok := s.tripScope(w, r)
	if !ok {
		return
	}
	var format *string
	if err := queryParam(r, "format", &format); err != nil {
		s.fail(w, r, err, "trip")
		return
	}
	wantCSV := false
	if format != nil {
		switch *format {
		case "csv":
			wantCSV = true
		case "json":
		default:
			s.fail(w, r, fmt.Errorf("%w: format must be csv or json", domain.ErrValidation), "trip")
			return
		}
	}

	rows, err := s.export.Export(r.Context(), userID, tripID)
	if err != nil {
		s.fail(w, r, err, "trip")
		return
	}

	if wantCSV {
		writeCSV(w, rows)
		return
	}
	out := make([]ExportRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, domainRowToResponse(row))
	}
	writeJSON(w, http.StatusOK, out)
}

// writeCSV encodes domain rows as CSV with a download filename.
func writeCSV(w http.ResponseWriter, rows []domain.ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	// bytes.Buffer.Write never returns an error.
	_ = cw.Write(csvHeaders)
	for _, r := range rows {
		_ = cw.Write(domainRowToCSVRecord(r))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="itinerary.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// domainRowToResponse maps a domain.ExportRow to the API ExportRow type.
// Fields that are empty strings become nil pointers (omitempty in JSON).
func domainRowToResponse(r domain.ExportRow) ExportRow {
	row := ExportRow{
		TripName:      r.TripName,
		Currency:      r.Currency,
		Title:         r.Title,
		Category:      string(r.Category),
		Status:        string(r.Status),
		StartTime:     optional(r.StartTime),
		EndTime:       optional(r.EndTime),
		Location:      optional(r.Location),
		Cost:          r.Cost,
		YesVotes:      r.YesVotes,
		NoVotes:       r.NoVotes,
		CostPerPerson: r.CostPerPerson,
	}
	if r.Date != nil {
		row.Date = &openapi_types.Date{Time: *r.Date}
	}
	return row
}

// domainRowToCSVRecord encodes a domain.ExportRow as a flat string slice.
// Missing dates and amounts are encoded as empty strings; amounts use two
// decimals without a currency symbol so spreadsheets can sum them.
func domainRowToCSVRecord(r domain.ExportRow) []string {
	date := ""
	if r.Date != nil {
		date = r.Date.Format(openapi_types.DateFormat)
	}
	return []string{
		r.TripName,
		r.Currency,
		r.Title,
		string(r.Category),
		string(r.Status),
		date,
		r.StartTime,
		r.EndTime,
		r.Location,
		formatAmount(r.Cost),
		strconv.Itoa(r.YesVotes),
		strconv.Itoa(r.NoVotes),
		formatAmount(r.CostPerPerson),
	}
}

// formatAmount returns v with two decimals, or "" if v is nil.
func formatAmount(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
