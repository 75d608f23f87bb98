package config

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
)

type ServerModeType string

const (
	ServerModeProd ServerModeType = "prod"
	ServerModeDev  ServerModeType = "dev"
)

type Configuration struct {
	Server    Server
	Agent     Agent
	TMS       TMS
	Collector Collector

	// Log
	LogFormat string `default:"console"`
	LogLevel  string `default:"info"`
}

type Server struct {
	HTTPPort      int    `default:"8080"`
	Mode          string `default:"dev"`
	StaticsFolder string
}

type Agent struct {
	DataFolder   string
	NumWorkers   int `default:"2"`
	SyncEnabled  bool
	SyncInterval time.Duration `default:"1h"`
}

// TMS configures the transport management API transport shared by every
// credential-bound client.
type TMS struct {
	BaseURL      string `default:"https://tt.tis-online.com/tt/api/v3"`
	Tokens       []string
	Timeout      time.Duration `default:"30s"`
	MaxAttempts  int           `default:"3"`
	RateRetryCap int           `default:"5"`
}

type Collector struct {
	VehicleCooldown time.Duration `default:"30s"`
	TrackInterval   time.Duration `default:"20m"`
	VehicleClass    string
}

// Default returns a Configuration with every default tag applied.
func Default() *Configuration {
	c := &Configuration{}
	defaults.MustSet(c)
	return c
}

func (s Server) DebugMap() map[string]any {
	return map[string]any{
		"HTTPPort":      s.HTTPPort,
		"Mode":          s.Mode,
		"StaticsFolder": s.StaticsFolder,
	}
}

func (a Agent) DebugMap() map[string]any {
	return map[string]any{
		"DataFolder":   a.DataFolder,
		"NumWorkers":   a.NumWorkers,
		"SyncEnabled":  a.SyncEnabled,
		"SyncInterval": a.SyncInterval.String(),
	}
}

func (t TMS) DebugMap() map[string]any {
	return map[string]any{
		"BaseURL":      t.BaseURL,
		"Tokens":       fmt.Sprintf("%d token(s)", len(t.Tokens)),
		"Timeout":      t.Timeout.String(),
		"MaxAttempts":  t.MaxAttempts,
		"RateRetryCap": t.RateRetryCap,
	}
}

func (c Collector) DebugMap() map[string]any {
	return map[string]any{
		"VehicleCooldown": c.VehicleCooldown.String(),
		"TrackInterval":   c.TrackInterval.String(),
		"VehicleClass":    c.VehicleClass,
	}
}
