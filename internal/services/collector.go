package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fleetsight/telemetry-agent/internal/collector"
	"github.com/fleetsight/telemetry-agent/internal/config"
	"github.com/fleetsight/telemetry-agent/internal/models"
	"github.com/fleetsight/telemetry-agent/internal/shifts"
	"github.com/fleetsight/telemetry-agent/internal/store"
	"github.com/fleetsight/telemetry-agent/internal/tms"
	"github.com/fleetsight/telemetry-agent/pkg/scheduler"
)

var (
	ErrCollectionInProgress = errors.New("collection already in progress")
	ErrNoCredentials        = errors.New("no credentials configured")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidPeriod        = errors.New("invalid collection period")
)

// Period bounds one collection request.
type Period struct {
	From time.Time
	To   time.Time
}

type CollectorService struct {
	scheduler *scheduler.Scheduler
	store     *store.Store
	cfg       *config.Configuration

	mu            sync.RWMutex
	state         models.CollectorState
	lastError     error
	runID         uuid.UUID
	progress      models.Progress
	collectFuture *models.Future[models.Result[any]]
}

func NewCollectorService(s *scheduler.Scheduler, st *store.Store, cfg *config.Configuration) *CollectorService {
	c := &CollectorService{
		scheduler: s,
		store:     st,
		cfg:       cfg,
		state:     models.CollectorStateReady,
	}

	// Log whether credentials exist from a previous run
	_, err := st.Credentials().Get(context.Background())
	if err == nil {
		zap.S().Info("collector initialized with existing credentials")
	} else {
		zap.S().Info("collector initialized, awaiting credentials")
	}

	return c
}

// GetStatus returns the current collector status.
func (c *CollectorService) GetStatus(ctx context.Context) models.CollectorStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := models.CollectorStatus{
		State:    c.state,
		Progress: c.progress,
	}

	if c.lastError != nil {
		status.Error = c.lastError.Error()
	}
	if c.runID != uuid.Nil {
		status.RunID = c.runID.String()
	}

	// Check if credentials exist
	_, err := c.store.Credentials().Get(ctx)
	status.HasCredentials = err == nil

	return status
}

func (c *CollectorService) setState(state models.CollectorState) {
	zap.S().Debugw("collector state transition", "from", c.state, "to", state)
	c.state = state
	if state != models.CollectorStateError {
		c.lastError = nil
	}
}

func (c *CollectorService) setError(err error) {
	c.state = models.CollectorStateError
	c.lastError = err
}

// Start verifies the stored credentials against the TMS API, records a new
// run and launches async collection over the period. It returns the run id.
func (c *CollectorService) Start(ctx context.Context, period Period) (uuid.UUID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Check if collection is already in progress using the future
	if c.collectFuture != nil && !c.collectFuture.IsResolved() {
		return uuid.Nil, ErrCollectionInProgress
	}

	if !period.From.Before(period.To) {
		return uuid.Nil, fmt.Errorf("%w: start %s is not before end %s",
			ErrInvalidPeriod, models.FormatDateTime(period.From), models.FormatDateTime(period.To))
	}

	creds, err := c.store.Credentials().Get(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return uuid.Nil, ErrNoCredentials
	}
	if err != nil {
		return uuid.Nil, err
	}

	clients := buildClients(creds, c.cfg.TMS)

	c.setState(models.CollectorStateVerifying)

	zap.S().Info("verifying TMS credentials")
	if err := clients[0].Ping(ctx); err != nil {
		verifyErr := fmt.Errorf("%w: %s", ErrInvalidCredentials, err)
		c.setError(verifyErr)
		return uuid.Nil, verifyErr
	}
	zap.S().Info("TMS credentials verified successfully")

	run := &models.CollectionRun{
		ID:          uuid.New(),
		PeriodStart: period.From,
		PeriodEnd:   period.To,
		State:       models.RunStateRunning,
	}
	if err := c.store.Runs().Create(ctx, run); err != nil {
		c.setError(err)
		return uuid.Nil, err
	}

	c.runID = run.ID
	c.progress = models.Progress{}
	c.startCollectionJob(clients, run.ID, period)

	return run.ID, nil
}

// Stop cancels any running collection but keeps credentials for retry.
func (c *CollectorService) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Cancel running job if any (this triggers context cancellation in the job)
	if c.collectFuture != nil && !c.collectFuture.IsResolved() {
		c.collectFuture.Stop()
	}
	c.collectFuture = nil

	c.setState(models.CollectorStateReady)
	return nil
}

// startCollectionJob schedules the batch collection over the route sheets of
// the period. Caller holds the lock.
func (c *CollectorService) startCollectionJob(clients []*tms.Client, runID uuid.UUID, period Period) {
	c.collectFuture = c.scheduler.AddWork(func(ctx context.Context) (any, error) {
		c.mu.Lock()
		c.setState(models.CollectorStateCollecting)
		c.mu.Unlock()

		zap.S().Infow("starting telemetry collection",
			"run", runID,
			"from", models.FormatDateTime(period.From),
			"to", models.FormatDateTime(period.To))

		archived, err := c.runCollection(ctx, clients, runID, period)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				zap.S().Infow("telemetry collection cancelled", "run", runID)
				_ = c.store.Runs().Finish(context.Background(), runID, models.RunStateCancelled, "")
				return nil, err
			}

			zap.S().Errorw("telemetry collection failed", "run", runID, "error", err)
			_ = c.store.Runs().Finish(context.Background(), runID, models.RunStateFailed, err.Error())
			c.mu.Lock()
			c.setError(err)
			c.mu.Unlock()
			return nil, err
		}

		if err := c.store.Runs().Finish(ctx, runID, models.RunStateCompleted, ""); err != nil {
			zap.S().Errorw("failed to finish run record", "run", runID, "error", err)
		}

		zap.S().Infow("telemetry collection completed", "run", runID, "results", archived)

		c.mu.Lock()
		c.setState(models.CollectorStateCollected)
		c.mu.Unlock()

		return archived, nil
	})
}

// runCollection resolves the period to tasks, collects them through the pool
// and archives every summary. It returns the number of archived results.
func (c *CollectorService) runCollection(ctx context.Context, clients []*tms.Client, runID uuid.UUID, period Period) (int, error) {
	sheets, err := clients[0].RouteSheets(ctx, period.From, period.To)
	if err != nil {
		return 0, fmt.Errorf("listing route sheets: %w", err)
	}

	tasks := collector.ExtractTasks(sheets, c.cfg.Collector.VehicleClass)

	c.mu.Lock()
	c.progress = models.Progress{Total: len(tasks)}
	c.mu.Unlock()
	if err := c.store.Runs().UpdateProgress(ctx, runID, 0, len(tasks)); err != nil {
		return 0, err
	}

	if len(tasks) == 0 {
		zap.S().Infow("no vehicles to collect in period", "run", runID, "sheets", len(sheets))
		return 0, nil
	}

	pool, err := collector.NewPool(clients, collector.Config{
		Cooldown:      c.cfg.Collector.VehicleCooldown,
		TrackInterval: c.cfg.Collector.TrackInterval,
	})
	if err != nil {
		return 0, err
	}

	summaries := pool.Collect(ctx, tasks, func(completed, total int) {
		c.mu.Lock()
		c.progress = models.Progress{Completed: completed, Total: total}
		c.mu.Unlock()
		_ = c.store.Runs().UpdateProgress(context.Background(), runID, completed, total)
	})
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	byKey := make(map[models.TaskKey]models.FetchTask, len(tasks))
	for _, task := range tasks {
		byKey[task.Key()] = task
	}
	for key, summary := range summaries {
		if err := c.store.Results().Save(ctx, runID, byKey[key], summary); err != nil {
			return 0, fmt.Errorf("archiving result %s: %w", key, err)
		}
	}

	return len(summaries), nil
}

// SaveCredentials validates and stores TMS credentials. The base URL falls
// back to the configured default when omitted.
func (c *CollectorService) SaveCredentials(ctx context.Context, creds *models.Credentials) error {
	if len(creds.Tokens) == 0 {
		return fmt.Errorf("%w: at least one token required", ErrInvalidCredentials)
	}
	if creds.BaseURL == "" {
		creds.BaseURL = c.cfg.TMS.BaseURL
	}
	return c.store.Credentials().Save(ctx, creds)
}

// GetCredentials retrieves stored credentials.
func (c *CollectorService) GetCredentials(ctx context.Context) (*models.Credentials, error) {
	return c.store.Credentials().Get(ctx)
}

// DeleteCredentials removes stored credentials.
func (c *CollectorService) DeleteCredentials(ctx context.Context) error {
	return c.store.Credentials().Delete(ctx)
}

// HasCredentials checks if credentials exist.
func (c *CollectorService) HasCredentials(ctx context.Context) (bool, error) {
	_, err := c.store.Credentials().Get(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Run retrieves one persisted run record.
func (c *CollectorService) Run(ctx context.Context, id uuid.UUID) (*models.CollectionRun, error) {
	return c.store.Runs().Get(ctx, id)
}

// LatestRun retrieves the most recently started run record.
func (c *CollectorService) LatestRun(ctx context.Context) (*models.CollectionRun, error) {
	return c.store.Runs().Latest(ctx)
}

// Results returns the archived results of one run.
func (c *CollectorService) Results(ctx context.Context, runID uuid.UUID) ([]models.ArchivedResult, error) {
	return c.store.Results().ListByRun(ctx, runID)
}

// ResultsForPeriod returns archived results whose windows overlap [from, to).
func (c *CollectorService) ResultsForPeriod(ctx context.Context, from, to time.Time) ([]models.ArchivedResult, error) {
	return c.store.Results().ListByPeriod(ctx, from, to)
}

// VehicleShifts returns shift-granularity telemetry for one vehicle over
// [from, to]. Settled shifts are served from the cache when every shift of
// the range is present; otherwise the whole range is refetched and shifts
// that already ended are cached for next time.
func (c *CollectorService) VehicleShifts(ctx context.Context, vehicleID int64, from, to string) ([]models.ShiftTelemetry, error) {
	start, end, err := shifts.Range(from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPeriod, err)
	}

	split := shifts.Split(start, end)
	if len(split) == 0 {
		return []models.ShiftTelemetry{}, nil
	}

	cached := make([]models.ShiftTelemetry, 0, len(split))
	hit := true
	for _, shift := range split {
		summary, err := c.store.ShiftCache().Get(ctx, vehicleID, shift.Key)
		if errors.Is(err, store.ErrNotFound) {
			hit = false
			break
		}
		if err != nil {
			return nil, err
		}
		cached = append(cached, models.ShiftTelemetry{Shift: shift, Summary: summary})
	}
	if hit {
		zap.S().Debugw("shift telemetry served from cache", "vehicle", vehicleID, "shifts", len(cached))
		return cached, nil
	}

	creds, err := c.store.Credentials().Get(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoCredentials
	}
	if err != nil {
		return nil, err
	}

	pool, err := collector.NewPool(buildClients(creds, c.cfg.TMS), collector.Config{
		Cooldown:      c.cfg.Collector.VehicleCooldown,
		TrackInterval: c.cfg.Collector.TrackInterval,
	})
	if err != nil {
		return nil, err
	}

	fetched := pool.CollectShifts(ctx, vehicleID, start, end)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now()
	for _, item := range fetched {
		// Only shifts that already ended are settled enough to cache.
		if item.Shift.End.After(now) {
			continue
		}
		if err := c.store.ShiftCache().Save(ctx, vehicleID, item.Shift.Key, item.Summary); err != nil {
			zap.S().Warnw("failed to cache shift telemetry", "vehicle", vehicleID, "shift", item.Shift.Key, "error", err)
		}
	}

	return fetched, nil
}

// buildClients turns stored credentials into one client per token sharing a
// single transport.
func buildClients(creds *models.Credentials, cfg config.TMS) []*tms.Client {
	base := tms.NewClient(tms.Config{
		BaseURL:      creds.BaseURL,
		Token:        creds.Tokens[0],
		Timeout:      cfg.Timeout,
		MaxAttempts:  cfg.MaxAttempts,
		RateRetryCap: cfg.RateRetryCap,
	})

	clients := make([]*tms.Client, 0, len(creds.Tokens))
	clients = append(clients, base)
	for _, token := range creds.Tokens[1:] {
		clients = append(clients, base.WithToken(token))
	}
	return clients
}
