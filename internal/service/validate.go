package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"golang.org/x/text/currency"

	"github.com/pkordes/trip-planner/backend/internal/domain"
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

var (
	errBadCategory = errors.New("must be one of adventure, food, sightseeing, other")
	errBadStatus   = errors.New("must be one of confirmed, pending, voting")
	errBadCurrency = errors.New("must be an ISO 4217 currency code")
)

// validationError wraps ozzo's field errors in domain.ErrValidation so the
// handler maps them to 422 while keeping the per-field message.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
}

// validateTrip enforces the rules shared by trip Create and Update.
//   - Name is required (whitespace-only names are rejected), 100 chars at most.
//   - Currency is a known ISO 4217 code.
//   - Budget, if set, is not negative.
//   - EndDate, if set, is not before StartDate.
func validateTrip(t domain.Trip) error {
	err := validation.Errors{
		"name":       validation.Validate(strings.TrimSpace(t.Name), validation.Required, validation.RuneLength(1, 100)),
		"start_date": validation.Validate(t.StartDate, validation.Required),
		"currency":   validation.Validate(t.Currency, validation.Required, validation.By(isCurrency)),
		"budget":     validation.Validate(t.Budget, validation.Min(0.0)),
	}.Filter()
	if err != nil {
		return validationError(err)
	}
	if t.EndDate != nil && t.EndDate.Before(t.StartDate) {
		return fmt.Errorf("%w: end_date must not be before start_date", domain.ErrValidation)
	}
	return nil
}

// validateActivity enforces the rules shared by activity Create and Update.
func validateActivity(a domain.Activity) error {
	title := strings.TrimSpace(a.Title)
	err := validation.Errors{
		"title":        validation.Validate(title, validation.Required, validation.RuneLength(2, 100)),
		"category":     validation.Validate(a.Category, validation.Required, validation.By(isCategory)),
		"status":       validation.Validate(a.Status, validation.Required, validation.By(isStatus)),
		"cost":         validation.Validate(a.Cost, validation.Min(0.0)),
		"start_time":   validation.Validate(a.StartTime, validation.Match(clockPattern)),
		"end_time":     validation.Validate(a.EndTime, validation.Match(clockPattern)),
		"external_url": validation.Validate(a.ExternalURL, is.URL),
		"image_url":    validation.Validate(a.ImageURL, is.URL),
		"location_lat": validation.Validate(a.LocationLat, validation.Min(-90.0), validation.Max(90.0)),
		"location_lng": validation.Validate(a.LocationLng, validation.Min(-180.0), validation.Max(180.0)),
	}.Filter()
	return validationError(err)
}

func isCategory(v interface{}) error {
	if c, ok := v.(domain.Category); !ok || !c.Valid() {
		return errBadCategory
	}
	return nil
}

func isStatus(v interface{}) error {
	if s, ok := v.(domain.Status); !ok || !s.Valid() {
		return errBadStatus
	}
	return nil
}

func isCurrency(v interface{}) error {
	s, _ := v.(string)
	if _, err := currency.ParseISO(s); err != nil || len(s) != 3 {
		return errBadCurrency
	}
	return nil
}
