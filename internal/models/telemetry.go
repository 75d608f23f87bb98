package models

// TelemetrySummary is the normalized outcome of one monitoring fetch.
// Pointer fields distinguish values absent from the payload from real
// zeroes. An all-empty summary stands in for vehicles the remote service
// does not track and for tasks that failed terminally.
type TelemetrySummary struct {
	UnitUID       string   `json:"unitUid,omitempty"`
	UnitName      string   `json:"unitName,omitempty"`
	Distance      *float64 `json:"distance"`
	MovingSeconds *float64 `json:"movingSeconds"`
	EngineSeconds *float64 `json:"engineSeconds"`
	IdleSeconds   *float64 `json:"idleSeconds"`
	MovingHours   *float64 `json:"movingHours"`
	EngineHours   *float64 `json:"engineHours"`
	IdleHours     *float64 `json:"idleHours"`
	LastActivity  string   `json:"lastActivity,omitempty"`

	Fuels             []FuelRecord   `json:"fuels"`
	Parkings          []ParkingEvent `json:"parkings"`
	ParkingCount      int            `json:"parkingCount"`
	ParkingTotalHours float64        `json:"parkingTotalHours"`
	Track             []TrackPoint   `json:"track"`
}

// FuelRecord describes one fuel sensor over the fetched window.
type FuelRecord struct {
	Name       string   `json:"name,omitempty"`
	Charges    *float64 `json:"charges"`
	Discharges *float64 `json:"discharges"`
	Rate       *float64 `json:"rate"`
	ValueBegin *float64 `json:"valueBegin"`
	ValueEnd   *float64 `json:"valueEnd"`
}

// ParkingEvent is one parking interval. DurationMinutes is filled only when
// both bounds carry parseable timestamps.
type ParkingEvent struct {
	Begin           string   `json:"begin,omitempty"`
	End             string   `json:"end,omitempty"`
	Address         string   `json:"address,omitempty"`
	DurationMinutes *float64 `json:"durationMinutes"`
	Lat             *float64 `json:"lat"`
	Lon             *float64 `json:"lon"`
}

// TrackPoint is one GPS sample of a decimated track.
type TrackPoint struct {
	Lat   float64  `json:"lat"`
	Lon   float64  `json:"lon"`
	Time  string   `json:"time,omitempty"`
	Speed *float64 `json:"speed"`
}
