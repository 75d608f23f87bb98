package v1

import (
	"github.com/fleetsight/telemetry-agent/internal/models"
)

func (s *CollectorStatus) FromModel(m models.CollectorStatus) {
	s.Status = string(m.State)
	s.HasCredentials = m.HasCredentials
	if m.Error != "" {
		s.Error = &m.Error
	}
	if m.RunID != "" {
		s.RunID = &m.RunID
		progress := Progress(m.Progress)
		s.Progress = &progress
	}
}

func (r *CollectionRun) FromModel(m *models.CollectionRun) {
	r.ID = m.ID.String()
	r.From = models.FormatDateTime(m.PeriodStart)
	r.To = models.FormatDateTime(m.PeriodEnd)
	r.State = string(m.State)
	r.Progress = Progress{Completed: m.Completed, Total: m.TotalTasks}
	if m.Error != "" {
		r.Error = &m.Error
	}
	r.StartedAt = m.StartedAt
	r.FinishedAt = m.FinishedAt
}

func (s *Shift) FromModel(m models.Shift) {
	s.Key = m.Key
	s.Label = m.Label
	s.From = models.FormatDateTime(m.Start)
	s.To = models.FormatDateTime(m.End)
}

func (s *ShiftTelemetry) FromModel(m models.ShiftTelemetry) {
	s.Shift.FromModel(m.Shift)
	s.Summary = m.Summary
}
