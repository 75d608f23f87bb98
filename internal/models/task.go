package models

import (
	"fmt"
	"time"
)

// TaskKey identifies a fetch task: one route sheet paired with one of its
// vehicles. When extraction produces duplicate keys the last collected
// result wins during the merge.
type TaskKey struct {
	SheetRef  string
	VehicleID int64
}

func (k TaskKey) String() string {
	return fmt.Sprintf("%s/%d", k.SheetRef, k.VehicleID)
}

// FetchTask is one unit of collection work: monitoring data for a single
// vehicle over a single planned window. Immutable once extracted.
type FetchTask struct {
	SheetRef    string
	VehicleID   int64
	VehicleName string
	RegNumber   string
	WindowStart time.Time
	WindowEnd   time.Time
}

func (t FetchTask) Key() TaskKey {
	return TaskKey{SheetRef: t.SheetRef, VehicleID: t.VehicleID}
}
