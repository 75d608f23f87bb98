package models

import "time"

// Shift is one clipped half-day window of a split period. Key names the
// full grid bucket the window belongs to; Start and End carry the clipped
// range actually covered.
type Shift struct {
	Key   string    `json:"key"`
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ShiftTelemetry tags a telemetry summary with the shift it was fetched for.
type ShiftTelemetry struct {
	Shift   Shift             `json:"shift"`
	Summary *TelemetrySummary `json:"summary"`
}
