// Package telemetry normalizes raw monitoring payloads into compact
// summaries: derived hour figures, parking durations and a decimated GPS
// track.
package telemetry

import (
	"math"
	"time"

	"github.com/fleetsight/telemetry-agent/internal/models"
	"github.com/fleetsight/telemetry-agent/internal/tms"
)

// DefaultTrackInterval is the minimum spacing kept between interior track
// points.
const DefaultTrackInterval = 20 * time.Minute

// Parse normalizes a raw monitoring payload with the default track
// interval.
func Parse(raw *tms.RawMonitoring) *models.TelemetrySummary {
	return ParseWithTrackInterval(raw, DefaultTrackInterval)
}

// ParseWithTrackInterval normalizes a raw monitoring payload. A nil payload
// yields the empty summary that stands in for untracked vehicles and failed
// tasks.
func ParseWithTrackInterval(raw *tms.RawMonitoring, interval time.Duration) *models.TelemetrySummary {
	s := &models.TelemetrySummary{
		Fuels:    []models.FuelRecord{},
		Parkings: []models.ParkingEvent{},
		Track:    []models.TrackPoint{},
	}
	if raw == nil {
		return s
	}

	s.UnitUID = raw.MOUID
	s.UnitName = raw.NameMO
	s.Distance = raw.Distance
	s.MovingSeconds = raw.MovingTime
	s.EngineSeconds = raw.EngineTime
	s.IdleSeconds = raw.EngineIdlingTime
	s.MovingHours = secondsToHours(raw.MovingTime)
	s.EngineHours = secondsToHours(raw.EngineTime)
	s.IdleHours = secondsToHours(raw.EngineIdlingTime)
	s.LastActivity = raw.LastActivityTime

	for _, f := range raw.Fuels {
		s.Fuels = append(s.Fuels, models.FuelRecord{
			Name:       f.FuelName,
			Charges:    f.Charges,
			Discharges: f.Discharges,
			Rate:       f.Rate,
			ValueBegin: f.ValueBegin,
			ValueEnd:   f.ValueEnd,
		})
	}

	totalMinutes := 0.0
	for _, p := range raw.Parkings {
		ev := models.ParkingEvent{
			Begin:   p.Begin,
			End:     p.End,
			Address: p.Address,
			Lat:     p.Lat,
			Lon:     p.Lon,
		}
		begin, errBegin := models.ParseDateTime(p.Begin)
		end, errEnd := models.ParseDateTime(p.End)
		if errBegin == nil && errEnd == nil {
			minutes := round(end.Sub(begin).Minutes(), 1)
			ev.DurationMinutes = &minutes
			totalMinutes += minutes
		}
		s.Parkings = append(s.Parkings, ev)
	}
	s.ParkingCount = len(s.Parkings)
	if totalMinutes != 0 {
		s.ParkingTotalHours = round(totalMinutes/60, 2)
	}

	s.Track = decimate(trackPoints(raw.Track), interval)
	return s
}

// trackPoints keeps only samples that carry both coordinates.
func trackPoints(raw []tms.RawPoint) []models.TrackPoint {
	points := make([]models.TrackPoint, 0, len(raw))
	for _, p := range raw {
		if p.Lat == nil || p.Lon == nil {
			continue
		}
		points = append(points, models.TrackPoint{
			Lat:   *p.Lat,
			Lon:   *p.Lon,
			Time:  p.Time,
			Speed: p.Speed,
		})
	}
	return points
}

// decimate thins a track so interior points sit at least interval apart,
// always keeping the first and last point. Interior points with unparseable
// timestamps are dropped; when the first point itself has no parseable
// timestamp, the next parseable point becomes the spacing origin.
func decimate(points []models.TrackPoint, interval time.Duration) []models.TrackPoint {
	if len(points) <= 2 {
		return points
	}

	out := []models.TrackPoint{points[0]}
	lastKept, err := models.ParseDateTime(points[0].Time)
	haveOrigin := err == nil

	for _, p := range points[1 : len(points)-1] {
		t, err := models.ParseDateTime(p.Time)
		if err != nil {
			continue
		}
		if haveOrigin && t.Sub(lastKept) < interval {
			continue
		}
		out = append(out, p)
		lastKept, haveOrigin = t, true
	}
	return append(out, points[len(points)-1])
}

func secondsToHours(seconds *float64) *float64 {
	if seconds == nil || *seconds == 0 {
		return nil
	}
	hours := round(*seconds/3600, 2)
	return &hours
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
