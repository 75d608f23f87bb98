package models

import (
	"time"

	"github.com/google/uuid"
)

// CollectorState represents the current state of the collector.
type CollectorState string

const (
	// CollectorStateReady - waiting for a collection request
	CollectorStateReady CollectorState = "ready"
	// CollectorStateVerifying - checking credentials against the TMS API
	CollectorStateVerifying CollectorState = "verifying"
	// CollectorStateCollecting - async collection in progress
	CollectorStateCollecting CollectorState = "collecting"
	// CollectorStateCollected - last collection finished successfully
	CollectorStateCollected CollectorState = "collected"
	// CollectorStateError - error during verification or collection
	CollectorStateError CollectorState = "error"
)

// Progress counts completed tasks of a collection run.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// CollectorStatus holds the current collector state and metadata.
type CollectorStatus struct {
	State          CollectorState
	Error          string
	HasCredentials bool
	RunID          string
	Progress       Progress
}

// RunState is the terminal-or-running state of a persisted collection run.
type RunState string

const (
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
	RunStateFailed    RunState = "failed"
	RunStateCancelled RunState = "cancelled"
)

// CollectionRun is the persisted record of one batch collection.
type CollectionRun struct {
	ID          uuid.UUID
	PeriodStart time.Time
	PeriodEnd   time.Time
	State       RunState
	TotalTasks  int
	Completed   int
	Error       string
	StartedAt   time.Time
	FinishedAt  *time.Time
}

// ArchivedResult is one stored task outcome, keyed by sheet and vehicle.
type ArchivedResult struct {
	RunID       uuid.UUID         `json:"runId"`
	SheetRef    string            `json:"sheetRef"`
	VehicleID   int64             `json:"vehicleId"`
	VehicleName string            `json:"vehicleName,omitempty"`
	RegNumber   string            `json:"regNumber,omitempty"`
	WindowStart time.Time         `json:"windowStart"`
	WindowEnd   time.Time         `json:"windowEnd"`
	Summary     *TelemetrySummary `json:"summary"`
	CollectedAt time.Time         `json:"collectedAt"`
}
