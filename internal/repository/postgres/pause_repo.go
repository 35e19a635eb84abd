// internal/repository/postgres/pause_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contracts-service/internal/domain/pause"
	xerrors "contracts-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PauseRepository struct {
	db *pgxpool.Pool
}

func NewPauseRepository(db *pgxpool.Pool) *PauseRepository {
	return &PauseRepository{db: db}
}

// Insert stores an open interval. The partial unique index on open intervals turns a
// second open pause for the same client into xerrors.ErrConflict.
func (r *PauseRepository) Insert(ctx context.Context, p *pause.PauseInterval) error {
	query := `
		INSERT INTO pause_intervals (id, client_id, start_date, reason, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query, p.ID, p.ClientID, p.StartDate, p.Reason, p.CreatedBy).Scan(&p.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: client %s already has an open pause", xerrors.ErrConflict, p.ClientID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert pause: %w", err)
	}
	return nil
}

// FindOpenByClient returns the most recently started open interval.
func (r *PauseRepository) FindOpenByClient(ctx context.Context, clientID string) (*pause.PauseInterval, error) {
	query := `
		SELECT id, client_id, start_date, end_date, reason, days_duration, applied, created_by, created_at
		FROM pause_intervals
		WHERE client_id = $1 AND end_date IS NULL
		ORDER BY start_date DESC
		LIMIT 1
	`
	var p pause.PauseInterval
	err := r.db.QueryRow(ctx, query, clientID).Scan(
		&p.ID, &p.ClientID, &p.StartDate, &p.EndDate, &p.Reason, &p.DaysDuration, &p.Applied, &p.CreatedBy, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find open pause: %w", err)
	}
	return &p, nil
}

// Close ends an interval only if it is still open, so two concurrent resumes cannot
// both count the same days.
func (r *PauseRepository) Close(ctx context.Context, id string, endDate time.Time, days int) error {
	query := `
		UPDATE pause_intervals
		SET end_date = $2, days_duration = $3, applied = TRUE
		WHERE id = $1 AND end_date IS NULL
	`
	result, err := r.db.Exec(ctx, query, id, endDate, days)
	if err != nil {
		return fmt.Errorf("failed to close pause: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: pause %s already closed", xerrors.ErrConflict, id)
	}
	return nil
}

// Reopen undoes Close after the contract could not be saved.
func (r *PauseRepository) Reopen(ctx context.Context, id string) error {
	query := `
		UPDATE pause_intervals
		SET end_date = NULL, days_duration = NULL, applied = FALSE
		WHERE id = $1
	`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to reopen pause: %w", err)
	}
	return nil
}

func (r *PauseRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM pause_intervals WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete pause: %w", err)
	}
	return nil
}

func (r *PauseRepository) ListByClient(ctx context.Context, clientID string) ([]pause.PauseInterval, error) {
	query := `
		SELECT id, client_id, start_date, end_date, reason, days_duration, applied, created_by, created_at
		FROM pause_intervals
		WHERE client_id = $1
		ORDER BY start_date DESC
	`
	rows, err := r.db.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pauses: %w", err)
	}
	defer rows.Close()

	var out []pause.PauseInterval
	for rows.Next() {
		var p pause.PauseInterval
		if err := rows.Scan(
			&p.ID, &p.ClientID, &p.StartDate, &p.EndDate, &p.Reason, &p.DaysDuration, &p.Applied, &p.CreatedBy, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pause: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
