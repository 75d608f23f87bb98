package collector

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces the per-vehicle request cooldown of a single worker. Each
// vehicle gets its own single-slot limiter refilling once per cooldown, so
// the wait before a request is the cooldown minus whatever already elapsed.
//
// A Pacer belongs to one worker and is not safe for concurrent use. Workers
// deliberately do not share pacers: their credentials are throttled
// independently by the service.
type Pacer struct {
	cooldown time.Duration
	limits   map[int64]*rate.Limiter
}

func NewPacer(cooldown time.Duration) *Pacer {
	return &Pacer{
		cooldown: cooldown,
		limits:   make(map[int64]*rate.Limiter),
	}
}

func (p *Pacer) limiter(vehicleID int64) *rate.Limiter {
	lim, ok := p.limits[vehicleID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(p.cooldown), 1)
		p.limits[vehicleID] = lim
	}
	return lim
}

// Delay reserves the vehicle's next slot as of now and returns how long the
// caller would have to wait for it.
func (p *Pacer) Delay(vehicleID int64, now time.Time) time.Duration {
	return p.limiter(vehicleID).ReserveN(now, 1).DelayFrom(now)
}

// Wait blocks until the vehicle's cooldown admits the next request or ctx
// is cancelled. The reservation is taken when Wait returns, so the cooldown
// window opens before the request fires, not after the response lands.
func (p *Pacer) Wait(ctx context.Context, vehicleID int64) error {
	res := p.limiter(vehicleID).Reserve()
	delay := res.Delay()
	if delay == 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		res.Cancel()
		return ctx.Err()
	}
}
