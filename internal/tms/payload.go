package tms

// Wire payloads of the TMS API. Field names follow the service's JSON.
// Numeric fields are pointers because the service omits them freely; the
// parsers treat absent and present identically to how the service means
// them, never as zeroes.

type sheetList struct {
	List []RouteSheet `json:"list"`
}

// RouteSheet is one route sheet with its vehicle references and planned
// window.
type RouteSheet struct {
	TSNumber    string       `json:"tsNumber"`
	DateOut     string       `json:"dateOut"`
	DateOutPlan string       `json:"dateOutPlan"`
	DateInPlan  string       `json:"dateInPlan"`
	Status      string       `json:"status"`
	CloseList   string       `json:"closeList"`
	Vehicles    []VehicleRef `json:"ts"`
	Calcs       []SheetCalc  `json:"calcs"`
	Glonass     *GlonassData `json:"glonassData"`
}

// Ref is the sheet's stable identity: sheet number plus departure date.
func (s RouteSheet) Ref() string {
	return s.TSNumber + "_" + s.DateOut
}

// Route sheet statuses as reported by the service.
const (
	SheetStatusPrinting  = "PRINTING"
	SheetStatusClosed    = "CLOSED"
	SheetStatusGivedBack = "GIVED_BACK"
	SheetStatusNotUsed   = "NOTUSED"
	SheetStatusCreate    = "CREATE"
)

// VehicleRef identifies a monitored vehicle attached to a sheet. IDMO is
// the monitoring system's vehicle id; a zero IDMO means the vehicle is not
// monitored.
type VehicleRef struct {
	IDMO      int64  `json:"idMO"`
	RegNumber string `json:"regNumber"`
	NameMO    string `json:"nameMO"`
}

// SheetCalc is one planned work item of a sheet.
type SheetCalc struct {
	OrderDescr   string     `json:"orderDescr"`
	TotalClock   *float64   `json:"totalClock"`
	IdleClock    *float64   `json:"idleClock"`
	ObjectExpend string     `json:"objectExpend"`
	Route        *CalcRoute `json:"route"`
}

type CalcRoute struct {
	Distance *float64 `json:"distance"`
	Time     *float64 `json:"time"`
}

// GlonassData carries the service's own telemetry aggregate for closed
// sheets.
type GlonassData struct {
	Distance   *float64 `json:"distance"`
	EngineTime *float64 `json:"engineTime"`
}

type orderList struct {
	List []Order `json:"list"`
}

// Order is one transport order with its first-leg route.
type Order struct {
	Number        int64       `json:"number"`
	Status        string      `json:"status"`
	DateProcessed string      `json:"dateProcessed"`
	Orders        []OrderItem `json:"orders"`
}

// OrderItem is one cargo line of an order.
type OrderItem struct {
	NameCargo    string        `json:"nameCargo"`
	WeightCargo  *float64      `json:"weightCargo"`
	VolumeCargo  *float64      `json:"volumeCargo"`
	CountTS      *int          `json:"countTs"`
	CntTrip      *int          `json:"cntTrip"`
	Route        *OrderRoute   `json:"route"`
	ObjectExpend *ObjectExpend `json:"objectExpend"`
}

type OrderRoute struct {
	Distance    *float64     `json:"distance"`
	Time        *float64     `json:"time"`
	TimeZoneTag string       `json:"timeZoneTag"`
	Polyline    string       `json:"polyline"`
	Points      []RoutePoint `json:"points"`
}

type RoutePoint struct {
	Address string  `json:"address"`
	Date    string  `json:"date"`
	Time    string  `json:"time"`
	LatLon  *LatLon `json:"latLon"`
}

type LatLon struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// ObjectExpend is the cost object an order is billed against.
type ObjectExpend struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// RawMonitoring is the getMonitoringStats payload for one vehicle and
// window.
type RawMonitoring struct {
	MOUID            string       `json:"moUid"`
	NameMO           string       `json:"nameMO"`
	Distance         *float64     `json:"distance"`
	MovingTime       *float64     `json:"movingTime"`
	EngineTime       *float64     `json:"engineTime"`
	EngineIdlingTime *float64     `json:"engineIdlingTime"`
	LastActivityTime string       `json:"lastActivityTime"`
	Fuels            []RawFuel    `json:"fuels"`
	Parkings         []RawParking `json:"parkings"`
	Track            []RawPoint   `json:"track"`
}

type RawFuel struct {
	FuelName   string   `json:"fuelName"`
	Charges    *float64 `json:"charges"`
	Discharges *float64 `json:"discharges"`
	Rate       *float64 `json:"rate"`
	ValueBegin *float64 `json:"valueBegin"`
	ValueEnd   *float64 `json:"valueEnd"`
}

type RawParking struct {
	Begin   string   `json:"begin"`
	End     string   `json:"end"`
	Address string   `json:"address"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

type RawPoint struct {
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
	Time  string   `json:"time"`
	Speed *float64 `json:"speed"`
}
