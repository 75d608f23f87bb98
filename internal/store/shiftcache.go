package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/fleetsight/telemetry-agent/internal/models"
)

// ShiftCacheStore keeps per-shift telemetry summaries so repeated shift
// views of the same vehicle do not refetch settled windows.
type ShiftCacheStore struct {
	db *sql.DB
}

func NewShiftCacheStore(db *sql.DB) *ShiftCacheStore {
	return &ShiftCacheStore{db: db}
}

// Get returns the cached summary of one vehicle-shift, or ErrNotFound.
func (s *ShiftCacheStore) Get(ctx context.Context, vehicleID int64, shiftKey string) (*models.TelemetrySummary, error) {
	row := s.db.QueryRowContext(ctx, queryGetShiftCache, vehicleID, shiftKey)

	var payload string
	err := row.Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var summary models.TelemetrySummary
	if err := json.Unmarshal([]byte(payload), &summary); err != nil {
		return nil, fmt.Errorf("decoding cached summary: %w", err)
	}
	return &summary, nil
}

// Save upserts the summary of one vehicle-shift.
func (s *ShiftCacheStore) Save(ctx context.Context, vehicleID int64, shiftKey string, summary *models.TelemetrySummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	_, err = s.db.ExecContext(ctx, queryUpsertShiftCache, vehicleID, shiftKey, string(payload))
	return err
}

// Purge drops cache entries fetched before the cutoff.
func (s *ShiftCacheStore) Purge(ctx context.Context, before time.Time) error {
	_, err := s.db.ExecContext(ctx, queryPurgeShiftCache, before)
	return err
}
