package models

import "time"

// Credentials holds the TMS endpoint and its access tokens. During a
// collection run each token is exclusively owned by one worker, so the
// token count caps the run's parallelism.
type Credentials struct {
	BaseURL   string
	Tokens    []string
	CreatedAt time.Time
	UpdatedAt time.Time
}
