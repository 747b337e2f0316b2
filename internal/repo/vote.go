package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/trip-planner/backend/internal/domain"
)

// VoteRepo defines the persistence operations for activity_votes.
type VoteRepo interface {
	// Create records a vote. A second vote by the same user on the same
	// activity overwrites the first, so callers racing each other converge
	// on a single row.
	Create(ctx context.Context, v domain.Vote) (domain.Vote, error)

	// UpdateValue changes the value of an existing vote.
	// Returns domain.ErrNotFound if it does not exist.
	UpdateValue(ctx context.Context, id uuid.UUID, value bool) (domain.Vote, error)

	// GetByID retrieves a single vote.
	// Returns domain.ErrNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Vote, error)

	// GetByActivityAndUser returns userID's vote on activityID.
	// Returns domain.ErrNotFound when the user has not voted.
	GetByActivityAndUser(ctx context.Context, activityID, userID uuid.UUID) (domain.Vote, error)

	// ListByActivityIDs returns every vote on any of the given activities.
	// An empty ids slice yields an empty result without a round trip.
	ListByActivityIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Vote, error)
}

type pgVoteRepo struct {
	db db
}

// NewVoteRepo constructs a VoteRepo backed by the provided db connection.
func NewVoteRepo(db db) VoteRepo {
	return &pgVoteRepo{db: db}
}

const voteColumns = `id, activity_id, user_id, vote, created_at, updated_at`

func (r *pgVoteRepo) Create(ctx context.Context, v domain.Vote) (domain.Vote, error) {
	const q = `
		INSERT INTO activity_votes (activity_id, user_id, vote)
		VALUES (@activity_id, @user_id, @vote)
		ON CONFLICT ON CONSTRAINT activity_votes_activity_user_key
		DO UPDATE SET vote = EXCLUDED.vote, updated_at = now()
		RETURNING ` + voteColumns

	args := pgx.NamedArgs{"activity_id": v.ActivityID, "user_id": v.UserID, "vote": v.Value}
	result, err := scanVote(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Vote{}, fmt.Errorf("repo.VoteRepo.Create: %w", mapError(err))
	}
	return result, nil
}

func (r *pgVoteRepo) UpdateValue(ctx context.Context, id uuid.UUID, value bool) (domain.Vote, error) {
	const q = `
		UPDATE activity_votes
		SET vote = @vote, updated_at = now()
		WHERE id = @id
		RETURNING ` + voteColumns

	result, err := scanVote(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "vote": value}))
	if err != nil {
		return domain.Vote{}, fmt.Errorf("repo.VoteRepo.UpdateValue: %w", mapError(err))
	}
	return result, nil
}

func (r *pgVoteRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Vote, error) {
	const q = `SELECT ` + voteColumns + ` FROM activity_votes WHERE id = @id`

	result, err := scanVote(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Vote{}, fmt.Errorf("repo.VoteRepo.GetByID: %w", mapError(err))
	}
	return result, nil
}

func (r *pgVoteRepo) GetByActivityAndUser(ctx context.Context, activityID, userID uuid.UUID) (domain.Vote, error) {
	const q = `
		SELECT ` + voteColumns + `
		FROM activity_votes
		WHERE activity_id = @activity_id AND user_id = @user_id`

	result, err := scanVote(r.db.QueryRow(ctx, q, pgx.NamedArgs{"activity_id": activityID, "user_id": userID}))
	if err != nil {
		return domain.Vote{}, fmt.Errorf("repo.VoteRepo.GetByActivityAndUser: %w", mapError(err))
	}
	return result, nil
}

func (r *pgVoteRepo) ListByActivityIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Vote, error) {
	if len(ids) == 0 {
		return []domain.Vote{}, nil
	}

	const q = `
		SELECT ` + voteColumns + `
		FROM activity_votes
		WHERE activity_id = ANY(@ids::uuid[])
		ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"ids": uuidStrings(ids)})
	if err != nil {
		return nil, fmt.Errorf("repo.VoteRepo.ListByActivityIDs: %w", err)
	}
	defer rows.Close()

	var out []domain.Vote
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.VoteRepo.ListByActivityIDs: scan: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.VoteRepo.ListByActivityIDs: rows: %w", err)
	}
	return out, nil
}

func scanVote(s scanner) (domain.Vote, error) {
	var (
		v                    domain.Vote
		id, activityID, user pgtype.UUID
	)
	if err := s.Scan(&id, &activityID, &user, &v.Value, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return domain.Vote{}, err
	}
	v.ID = uuid.UUID(id.Bytes)
	v.ActivityID = uuid.UUID(activityID.Bytes)
	v.UserID = uuid.UUID(user.Bytes)
	return v, nil
}
