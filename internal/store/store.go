package store

import "database/sql"

// Store provides access to all storage repositories.
type Store struct {
	db          *sql.DB
	credentials *CredentialsStore
	runs        *RunsStore
	results     *ResultsStore
	shiftCache  *ShiftCacheStore
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:          db,
		credentials: NewCredentialsStore(db),
		runs:        NewRunsStore(db),
		results:     NewResultsStore(db),
		shiftCache:  NewShiftCacheStore(db),
	}
}

func (s *Store) Credentials() *CredentialsStore {
	return s.credentials
}

func (s *Store) Runs() *RunsStore {
	return s.runs
}

func (s *Store) Results() *ResultsStore {
	return s.results
}

func (s *Store) ShiftCache() *ShiftCacheStore {
	return s.shiftCache
}

func (s *Store) Close() error {
	return s.db.Close()
}
