package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/fleetsight/telemetry-agent/internal/models"
)

// ResultsStore archives telemetry summaries keyed by task identity. The
// summary itself is stored as JSON; re-collecting the same sheet and
// vehicle overwrites the previous row, mirroring the in-memory merge.
type ResultsStore struct {
	db *sql.DB
}

func NewResultsStore(db *sql.DB) *ResultsStore {
	return &ResultsStore{db: db}
}

// Save upserts one task outcome.
func (s *ResultsStore) Save(ctx context.Context, runID uuid.UUID, task models.FetchTask, summary *models.TelemetrySummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	_, err = s.db.ExecContext(ctx, queryUpsertResult,
		task.SheetRef, task.VehicleID, runID.String(), task.VehicleName, task.RegNumber,
		task.WindowStart, task.WindowEnd, string(payload))
	return err
}

// ListByRun returns every archived result of one run.
func (s *ResultsStore) ListByRun(ctx context.Context, runID uuid.UUID) ([]models.ArchivedResult, error) {
	rows, err := s.db.QueryContext(ctx, queryResultsByRun, runID.String())
	if err != nil {
		return nil, err
	}
	return scanResults(rows)
}

// ListByPeriod returns results whose windows overlap [from, to).
func (s *ResultsStore) ListByPeriod(ctx context.Context, from, to time.Time) ([]models.ArchivedResult, error) {
	rows, err := s.db.QueryContext(ctx, queryResultsByPeriod, to, from)
	if err != nil {
		return nil, err
	}
	return scanResults(rows)
}

func scanResults(rows *sql.Rows) ([]models.ArchivedResult, error) {
	defer func() { _ = rows.Close() }()

	results := []models.ArchivedResult{}
	for rows.Next() {
		var (
			r       models.ArchivedResult
			runID   string
			payload string
		)
		if err := rows.Scan(&runID, &r.SheetRef, &r.VehicleID, &r.VehicleName, &r.RegNumber,
			&r.WindowStart, &r.WindowEnd, &payload, &r.CollectedAt); err != nil {
			return nil, err
		}

		id, err := uuid.Parse(runID)
		if err != nil {
			return nil, fmt.Errorf("parsing run id: %w", err)
		}
		r.RunID = id

		if err := json.Unmarshal([]byte(payload), &r.Summary); err != nil {
			return nil, fmt.Errorf("decoding summary for %s/%d: %w", r.SheetRef, r.VehicleID, err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
