package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/trip-planner/backend/internal/domain"
)

// ParticipantRepo defines the persistence operations for trip_participants.
type ParticipantRepo interface {
	// Add links userID to tripID. Idempotent: when the pair already exists the
	// existing row is returned unchanged (an owner never loses the flag by
	// re-joining through an invite code).
	Add(ctx context.Context, tripID, userID uuid.UUID, isOwner bool) (domain.Participant, error)

	// Get returns the participant row for (tripID, userID).
	// Returns domain.ErrNotFound if the user is not on the trip.
	Get(ctx context.Context, tripID, userID uuid.UUID) (domain.Participant, error)

	// ListByTrip returns every participant of a trip ordered by join time.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Participant, error)

	// Remove unlinks userID from tripID.
	// Returns domain.ErrNotFound if the user was not on the trip.
	Remove(ctx context.Context, tripID, userID uuid.UUID) error
}

// pgParticipantRepo is the Postgres implementation of ParticipantRepo.
type pgParticipantRepo struct {
	db db
}

// NewParticipantRepo constructs a ParticipantRepo backed by the provided db connection.
func NewParticipantRepo(db db) ParticipantRepo {
	return &pgParticipantRepo{db: db}
}

// Add upserts the (trip, user) pair. The DO UPDATE SET no-op makes RETURNING
// fire on conflict as well.
func (r *pgParticipantRepo) Add(ctx context.Context, tripID, userID uuid.UUID, isOwner bool) (domain.Participant, error) {
	const q = `
		INSERT INTO trip_participants (trip_id, user_id, is_owner)
		VALUES (@trip_id, @user_id, @is_owner)
		ON CONFLICT (trip_id, user_id) DO UPDATE SET trip_id = EXCLUDED.trip_id
		RETURNING id, trip_id, user_id, is_owner, created_at`

	args := pgx.NamedArgs{"trip_id": tripID, "user_id": userID, "is_owner": isOwner}
	p, err := scanParticipant(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Participant{}, fmt.Errorf("repo.ParticipantRepo.Add: %w", mapError(err))
	}
	return p, nil
}

func (r *pgParticipantRepo) Get(ctx context.Context, tripID, userID uuid.UUID) (domain.Participant, error) {
	const q = `
		SELECT id, trip_id, user_id, is_owner, created_at
		FROM trip_participants
		WHERE trip_id = @trip_id AND user_id = @user_id`

	p, err := scanParticipant(r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "user_id": userID}))
	if err != nil {
		return domain.Participant{}, fmt.Errorf("repo.ParticipantRepo.Get: %w", mapError(err))
	}
	return p, nil
}

func (r *pgParticipantRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Participant, error) {
	const q = `
		SELECT id, trip_id, user_id, is_owner, created_at
		FROM trip_participants
		WHERE trip_id = @trip_id
		ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.ParticipantRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	var out []domain.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ParticipantRepo.ListByTrip: scan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ParticipantRepo.ListByTrip: rows: %w", err)
	}
	return out, nil
}

func (r *pgParticipantRepo) Remove(ctx context.Context, tripID, userID uuid.UUID) error {
	const q = `DELETE FROM trip_participants WHERE trip_id = @trip_id AND user_id = @user_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"trip_id": tripID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("repo.ParticipantRepo.Remove: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ParticipantRepo.Remove: %w", domain.ErrNotFound)
	}
	return nil
}

func scanParticipant(s scanner) (domain.Participant, error) {
	var (
		p              domain.Participant
		id, trip, user pgtype.UUID
	)
	if err := s.Scan(&id, &trip, &user, &p.IsOwner, &p.CreatedAt); err != nil {
		return domain.Participant{}, err
	}
	p.ID = uuid.UUID(id.Bytes)
	p.TripID = uuid.UUID(trip.Bytes)
	p.UserID = uuid.UUID(user.Bytes)
	return p, nil
}
