package repo

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/trip-planner/backend/internal/domain"
)

// mapError translates driver errors into domain sentinels so the layers
// above never import pgx. Unrecognised errors are returned unchanged.
// Sentinel messages stay client-safe: constraint names and driver text are
// not included, since the handler may show them to the caller.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return fmt.Errorf("%w: a record with the same unique value already exists", domain.ErrConflict)
	case pgerrcode.ForeignKeyViolation:
		return domain.ErrNotFound
	case pgerrcode.CheckViolation, pgerrcode.InvalidTextRepresentation, pgerrcode.NotNullViolation:
		return fmt.Errorf("%w: value rejected by a database constraint", domain.ErrValidation)
	}
	return err
}

// uuidStrings renders ids for use with `= ANY(@ids::uuid[])`.
func uuidStrings[T fmt.Stringer](ids []T) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
