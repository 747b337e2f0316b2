package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/trip-planner/backend/internal/domain"
)

// ActivityRepo defines the persistence operations for Activities.
type ActivityRepo interface {
	// Create inserts a new activity and returns the persisted record.
	// Returns domain.ErrNotFound if the trip does not exist.
	Create(ctx context.Context, a domain.Activity) (domain.Activity, error)

	// GetByID retrieves a single activity.
	// Returns domain.ErrNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Activity, error)

	// ListByTrip returns every activity of a trip, scheduled ones first by
	// date, then by creation time.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Activity, error)

	// Update overwrites the descriptive fields of an activity. Status is not
	// touched; use SetStatus.
	Update(ctx context.Context, a domain.Activity) (domain.Activity, error)

	// SetStatus changes only the status of an activity.
	// Returns domain.ErrNotFound if it does not exist.
	SetStatus(ctx context.Context, id uuid.UUID, status domain.Status) error

	// Delete removes an activity and, by cascade, its votes.
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgActivityRepo struct {
	db db
}

// NewActivityRepo constructs an ActivityRepo backed by the provided db connection.
func NewActivityRepo(db db) ActivityRepo {
	return &pgActivityRepo{db: db}
}

// category and status are stored as Postgres enums; they are cast to text on
// the way out so they scan straight into the string-based domain types.
const activityColumns = `id, trip_id, title, description, date, start_time, end_time,
		location, location_lat, location_lng, external_url, image_url, cost,
		category::text, status::text, created_by, created_at, updated_at`

func (r *pgActivityRepo) Create(ctx context.Context, a domain.Activity) (domain.Activity, error) {
	const q = `
		INSERT INTO activities (trip_id, title, description, date, start_time, end_time,
		                        location, location_lat, location_lng, external_url, image_url,
		                        cost, category, status, created_by)
		VALUES (@trip_id, @title, @description, @date, @start_time, @end_time,
		        @location, @location_lat, @location_lng, @external_url, @image_url,
		        @cost, @category::activity_category_type, @status::activity_status_type, @created_by)
		RETURNING ` + activityColumns

	args := activityArgs(a)
	args["trip_id"] = a.TripID
	args["status"] = string(a.Status)
	args["created_by"] = a.CreatedBy

	result, err := scanActivity(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Activity{}, fmt.Errorf("repo.ActivityRepo.Create: %w", mapError(err))
	}
	return result, nil
}

func (r *pgActivityRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Activity, error) {
	const q = `SELECT ` + activityColumns + ` FROM activities WHERE id = @id`

	result, err := scanActivity(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Activity{}, fmt.Errorf("repo.ActivityRepo.GetByID: %w", mapError(err))
	}
	return result, nil
}

func (r *pgActivityRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Activity, error) {
	const q = `
		SELECT ` + activityColumns + `
		FROM activities
		WHERE trip_id = @trip_id
		ORDER BY date ASC NULLS LAST, created_at, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.ActivityRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	var out []domain.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ActivityRepo.ListByTrip: scan: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ActivityRepo.ListByTrip: rows: %w", err)
	}
	return out, nil
}

func (r *pgActivityRepo) Update(ctx context.Context, a domain.Activity) (domain.Activity, error) {
	const q = `
		UPDATE activities
		SET title        = @title,
		    description  = @description,
		    date         = @date,
		    start_time   = @start_time,
		    end_time     = @end_time,
		    location     = @location,
		    location_lat = @location_lat,
		    location_lng = @location_lng,
		    external_url = @external_url,
		    image_url    = @image_url,
		    cost         = @cost,
		    category     = @category::activity_category_type,
		    updated_at   = now()
		WHERE id = @id
		RETURNING ` + activityColumns

	args := activityArgs(a)
	args["id"] = a.ID

	result, err := scanActivity(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Activity{}, fmt.Errorf("repo.ActivityRepo.Update: %w", mapError(err))
	}
	return result, nil
}

func (r *pgActivityRepo) SetStatus(ctx context.Context, id uuid.UUID, status domain.Status) error {
	const q = `
		UPDATE activities
		SET status = @status::activity_status_type, updated_at = now()
		WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "status": string(status)})
	if err != nil {
		return fmt.Errorf("repo.ActivityRepo.SetStatus: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ActivityRepo.SetStatus: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgActivityRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM activities WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.ActivityRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ActivityRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// activityArgs holds the arguments shared by Create and Update.
func activityArgs(a domain.Activity) pgx.NamedArgs {
	return pgx.NamedArgs{
		"title":        a.Title,
		"description":  a.Description,
		"date":         a.Date, // nil becomes NULL
		"start_time":   a.StartTime,
		"end_time":     a.EndTime,
		"location":     a.Location,
		"location_lat": a.LocationLat,
		"location_lng": a.LocationLng,
		"external_url": a.ExternalURL,
		"image_url":    a.ImageURL,
		"cost":         a.Cost,
		"category":     string(a.Category),
	}
}

func scanActivity(s scanner) (domain.Activity, error) {
	var (
		a                     domain.Activity
		id, tripID, createdBy pgtype.UUID
		date                  pgtype.Date
		category, status      string
	)

	err := s.Scan(&id, &tripID, &a.Title, &a.Description, &date, &a.StartTime, &a.EndTime,
		&a.Location, &a.LocationLat, &a.LocationLng, &a.ExternalURL, &a.ImageURL, &a.Cost,
		&category, &status, &createdBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return domain.Activity{}, err
	}

	a.ID = uuid.UUID(id.Bytes)
	a.TripID = uuid.UUID(tripID.Bytes)
	a.CreatedBy = uuid.UUID(createdBy.Bytes)
	a.Category = domain.Category(category)
	a.Status = domain.Status(status)
	if date.Valid {
		d := date.Time
		a.Date = &d
	}
	return a, nil
}
