package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/fleetsight/telemetry-agent/internal/models"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("not found")

// CredentialsStore handles the single credentials record. Tokens are kept
// as a JSON array in one column; the row id is fixed to 1.
type CredentialsStore struct {
	db *sql.DB
}

// NewCredentialsStore creates a new credentials store.
func NewCredentialsStore(db *sql.DB) *CredentialsStore {
	return &CredentialsStore{db: db}
}

// Get retrieves the stored credentials.
func (s *CredentialsStore) Get(ctx context.Context) (*models.Credentials, error) {
	row := s.db.QueryRowContext(ctx, queryGetCredentials)

	var c models.Credentials
	var tokens string
	err := row.Scan(&c.BaseURL, &tokens, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tokens), &c.Tokens); err != nil {
		return nil, fmt.Errorf("decoding stored tokens: %w", err)
	}
	return &c, nil
}

// Save stores or updates the credentials.
func (s *CredentialsStore) Save(ctx context.Context, creds *models.Credentials) error {
	tokens, err := json.Marshal(creds.Tokens)
	if err != nil {
		return fmt.Errorf("encoding tokens: %w", err)
	}
	_, err = s.db.ExecContext(ctx, queryUpsertCredentials, creds.BaseURL, string(tokens))
	return err
}

// Delete removes the stored credentials.
func (s *CredentialsStore) Delete(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, queryDeleteCredentials)
	return err
}
