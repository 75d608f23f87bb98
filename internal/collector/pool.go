package collector

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fleetsight/telemetry-agent/internal/models"
	"github.com/fleetsight/telemetry-agent/internal/shifts"
	"github.com/fleetsight/telemetry-agent/internal/telemetry"
	"github.com/fleetsight/telemetry-agent/internal/tms"
)

// DefaultCooldown is the minimum spacing between requests targeting the
// same vehicle within one worker.
const DefaultCooldown = 30 * time.Second

var ErrNoClients = errors.New("no clients configured")

// Progress is invoked after every finished task with the number of tasks
// completed so far across all workers and the batch total.
type Progress func(completed, total int)

// Config tunes a pool. Zero values fall back to the defaults.
type Config struct {
	Cooldown      time.Duration
	TrackInterval time.Duration
}

// Pool fans a task batch out over one worker per credential-bound client.
// Workers own their pacer and result map; the only shared state is the
// progress counter and the final merge.
type Pool struct {
	clients []*tms.Client
	cfg     Config
}

func NewPool(clients []*tms.Client, cfg Config) (*Pool, error) {
	if len(clients) == 0 {
		return nil, ErrNoClients
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.TrackInterval <= 0 {
		cfg.TrackInterval = telemetry.DefaultTrackInterval
	}
	return &Pool{clients: clients, cfg: cfg}, nil
}

// Collect fetches telemetry for every task and returns summaries keyed by
// task identity. Individual task failures degrade to empty summaries; the
// batch itself always completes. With a single client the batch runs
// sequentially; with more, tasks are dealt round-robin and every worker
// interleaves only its own share.
func (p *Pool) Collect(ctx context.Context, tasks []models.FetchTask, progress Progress) map[models.TaskKey]*models.TelemetrySummary {
	track := newTracker(len(tasks), progress)

	if len(p.clients) == 1 {
		return p.run(ctx, p.clients[0], Interleave(tasks), track)
	}

	parts := make([][]models.FetchTask, len(p.clients))
	for i, t := range tasks {
		parts[i%len(p.clients)] = append(parts[i%len(p.clients)], t)
	}

	merged := make(map[models.TaskKey]*models.TelemetrySummary, len(tasks))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i, client := range p.clients {
		if len(parts[i]) == 0 {
			continue
		}
		wg.Add(1)
		go func(client *tms.Client, part []models.FetchTask) {
			defer wg.Done()
			local := p.run(ctx, client, Interleave(part), track)
			mu.Lock()
			for k, v := range local {
				merged[k] = v
			}
			mu.Unlock()
		}(client, parts[i])
	}
	wg.Wait()
	return merged
}

// CollectShifts fetches shift-granularity telemetry for one vehicle across
// [from, to) on the pool's first client, one request per shift, tagging
// every summary with its shift.
func (p *Pool) CollectShifts(ctx context.Context, vehicleID int64, from, to time.Time) []models.ShiftTelemetry {
	client := p.clients[0]
	pacer := NewPacer(p.cfg.Cooldown)

	split := shifts.Split(from, to)
	out := make([]models.ShiftTelemetry, 0, len(split))
	for _, shift := range split {
		if err := pacer.Wait(ctx, vehicleID); err != nil {
			zap.S().Warnw("shift collection interrupted", "vehicle", vehicleID, "shift", shift.Key, "error", err)
			out = append(out, models.ShiftTelemetry{Shift: shift, Summary: telemetry.Parse(nil)})
			continue
		}
		task := models.FetchTask{
			SheetRef:    shift.Key,
			VehicleID:   vehicleID,
			WindowStart: shift.Start,
			WindowEnd:   shift.End,
		}
		out = append(out, models.ShiftTelemetry{Shift: shift, Summary: p.fetch(ctx, client, task)})
	}
	return out
}

// run is one worker's sequential loop over its share of the batch.
func (p *Pool) run(ctx context.Context, client *tms.Client, tasks []models.FetchTask, track *tracker) map[models.TaskKey]*models.TelemetrySummary {
	results := make(map[models.TaskKey]*models.TelemetrySummary, len(tasks))
	pacer := NewPacer(p.cfg.Cooldown)

	for _, task := range tasks {
		if err := pacer.Wait(ctx, task.VehicleID); err != nil {
			zap.S().Warnw("collection interrupted", "task", task.Key(), "error", err)
			results[task.Key()] = telemetry.Parse(nil)
			track.done()
			continue
		}
		results[task.Key()] = p.fetch(ctx, client, task)
		track.done()
	}
	return results
}

// fetch runs one monitoring request. Terminal failures and untracked
// vehicles both degrade to the empty summary so a batch never dies on a
// single vehicle.
func (p *Pool) fetch(ctx context.Context, client *tms.Client, task models.FetchTask) *models.TelemetrySummary {
	res, err := client.MonitoringStats(ctx, task.VehicleID, task.WindowStart, task.WindowEnd)
	if err != nil {
		zap.S().Warnw("monitoring fetch failed", "task", task.Key(), "error", err)
		return telemetry.Parse(nil)
	}
	if !res.Found {
		zap.S().Debugw("vehicle not tracked in window", "task", task.Key())
		return telemetry.Parse(nil)
	}
	return telemetry.ParseWithTrackInterval(res.Raw, p.cfg.TrackInterval)
}

// tracker serializes progress reporting across workers.
type tracker struct {
	mu        sync.Mutex
	completed int
	total     int
	report    Progress
}

func newTracker(total int, report Progress) *tracker {
	return &tracker{total: total, report: report}
}

func (t *tracker) done() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed++
	if t.report != nil {
		t.report(t.completed, t.total)
	}
}
