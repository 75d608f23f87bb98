package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fleetsight/telemetry-agent/internal/models"
)

// RunsStore persists collection run records.
type RunsStore struct {
	db *sql.DB
}

func NewRunsStore(db *sql.DB) *RunsStore {
	return &RunsStore{db: db}
}

// Create inserts a new run. StartedAt is set by the database.
func (s *RunsStore) Create(ctx context.Context, run *models.CollectionRun) error {
	_, err := s.db.ExecContext(ctx, queryInsertRun,
		run.ID.String(), run.PeriodStart, run.PeriodEnd, string(run.State), run.TotalTasks, run.Completed)
	return err
}

// UpdateProgress stores the task counters of a running collection.
func (s *RunsStore) UpdateProgress(ctx context.Context, id uuid.UUID, completed, total int) error {
	_, err := s.db.ExecContext(ctx, queryUpdateRunProgress, completed, total, id.String())
	return err
}

// Finish moves a run into a terminal state.
func (s *RunsStore) Finish(ctx context.Context, id uuid.UUID, state models.RunState, errMsg string) error {
	_, err := s.db.ExecContext(ctx, queryFinishRun, string(state), errMsg, id.String())
	return err
}

// Get retrieves one run by id.
func (s *RunsStore) Get(ctx context.Context, id uuid.UUID) (*models.CollectionRun, error) {
	return s.scanRun(s.db.QueryRowContext(ctx, queryGetRun, id.String()))
}

// Latest retrieves the most recently started run.
func (s *RunsStore) Latest(ctx context.Context) (*models.CollectionRun, error) {
	return s.scanRun(s.db.QueryRowContext(ctx, queryLatestRun))
}

func (s *RunsStore) scanRun(row *sql.Row) (*models.CollectionRun, error) {
	var (
		run        models.CollectionRun
		id         string
		state      string
		errMsg     sql.NullString
		finishedAt sql.NullTime
	)
	err := row.Scan(&id, &run.PeriodStart, &run.PeriodEnd, &state,
		&run.TotalTasks, &run.Completed, &errMsg, &run.StartedAt, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	run.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parsing run id: %w", err)
	}
	run.State = models.RunState(state)
	run.Error = errMsg.String
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	return &run, nil
}
