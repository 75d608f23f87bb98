package scheduler

import (
	"context"
	"sync"

	"github.com/fleetsight/telemetry-agent/internal/models"
)

// WorkFn is a cancellable unit of work.
type WorkFn func(ctx context.Context) (any, error)

type job struct {
	ctx    context.Context
	cancel context.CancelFunc
	fn     WorkFn
	future *models.Future[models.Result[any]]
}

// Scheduler runs queued work on a fixed pool of workers. Every job gets its
// own cancellable context, exposed through the returned future's Stop.
type Scheduler struct {
	queue chan job
	wg    sync.WaitGroup
}

func NewScheduler(workers int) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	s := &Scheduler{queue: make(chan job, 64)}
	s.wg.Add(workers)
	for range workers {
		go s.worker()
	}
	return s
}

func (s *Scheduler) worker() {
	defer s.wg.Done()
	for j := range s.queue {
		value, err := j.fn(j.ctx)
		j.cancel()
		j.future.Resolve(models.Result[any]{Value: value, Err: err})
	}
}

// AddWork queues fn and returns its future. Blocks when the queue is full.
func (s *Scheduler) AddWork(fn WorkFn) *models.Future[models.Result[any]] {
	ctx, cancel := context.WithCancel(context.Background())
	j := job{
		ctx:    ctx,
		cancel: cancel,
		fn:     fn,
		future: models.NewFuture[models.Result[any]](cancel),
	}
	s.queue <- j
	return j.future
}

// Close stops accepting work and waits for in-flight jobs to finish.
func (s *Scheduler) Close() {
	close(s.queue)
	s.wg.Wait()
}
