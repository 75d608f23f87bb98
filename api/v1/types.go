package v1

import (
	"time"

	"github.com/fleetsight/telemetry-agent/internal/models"
)

// CollectorStatus is the wire form of the collector state.
type CollectorStatus struct {
	Status         string    `json:"status"`
	Error          *string   `json:"error,omitempty"`
	HasCredentials bool      `json:"hasCredentials"`
	RunID          *string   `json:"runId,omitempty"`
	Progress       *Progress `json:"progress,omitempty"`
}

type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

type StartCollectionRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

type StartCollectionResponse struct {
	RunID string `json:"runId"`
	From  string `json:"from"`
	To    string `json:"to"`
}

type CredentialsRequest struct {
	BaseURL string   `json:"baseUrl"`
	Tokens  []string `json:"tokens" binding:"required"`
}

// CredentialsStatus reports whether credentials are configured without
// echoing the tokens back.
type CredentialsStatus struct {
	Configured bool   `json:"configured"`
	BaseURL    string `json:"baseUrl,omitempty"`
	Tokens     int    `json:"tokens"`
}

type CollectionRun struct {
	ID         string     `json:"id"`
	From       string     `json:"from"`
	To         string     `json:"to"`
	State      string     `json:"state"`
	Progress   Progress   `json:"progress"`
	Error      *string    `json:"error,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

type ResultsResponse struct {
	Run     *CollectionRun          `json:"run,omitempty"`
	Results []models.ArchivedResult `json:"results"`
}

type Shift struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	From  string `json:"from"`
	To    string `json:"to"`
}

type ShiftTelemetry struct {
	Shift
	Summary *models.TelemetrySummary `json:"summary"`
}
