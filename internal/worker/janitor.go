package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ayo6706/merchant-gateway/internal/observability"
	"go.uber.org/zap"
)

// Sweeper drops entries that have outlived their lifetime.
type Sweeper interface {
	Sweep(now time.Time) int
}

// Janitor periodically sweeps idle flows and expired in-memory sessions.
type Janitor struct {
	sweepers map[string]Sweeper
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewJanitor creates a janitor with a one-minute interval.
func NewJanitor() *Janitor {
	return &Janitor{
		sweepers: make(map[string]Sweeper),
		interval: time.Minute,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Register adds a sweeper under name. Register before Run.
func (j *Janitor) Register(name string, s Sweeper) *Janitor {
	j.sweepers[name] = s
	return j
}

// WithPollInterval sets the sweep interval.
func (j *Janitor) WithPollInterval(interval time.Duration) *Janitor {
	if interval > 0 {
		j.interval = interval
	}
	return j
}

// Start blocks, sweeping at the configured interval until ctx is done or
// Stop is called.
func (j *Janitor) Start(ctx context.Context) {
	zap.L().Info("janitor starting", zap.Duration("interval", j.interval), zap.Int("sweepers", len(j.sweepers)))
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("janitor context canceled")
			return
		case <-j.stopCh:
			zap.L().Info("janitor stop signal received")
			return
		case <-ticker.C:
			j.SweepOnce()
		}
	}
}

// SweepOnce runs every sweeper immediately and returns the total removed.
func (j *Janitor) SweepOnce() int {
	now := j.now()
	total := 0
	for name, s := range j.sweepers {
		n := s.Sweep(now)
		total += n
		if n > 0 {
			zap.L().Info("janitor swept entries", zap.String("sweeper", name), zap.Int("removed", n))
		}
	}
	observability.IncrementWorkerRun("janitor", "ok")
	return total
}

// Stop signals the janitor to stop. Safe to call more than once.
func (j *Janitor) Stop() {
	j.stopOnce.Do(func() { close(j.stopCh) })
}

// Run starts the janitor and returns a function that stops it.
func (j *Janitor) Run(ctx context.Context) func() {
	go j.Start(ctx)
	return j.Stop
}

func (j *Janitor) String() string {
	return fmt.Sprintf("Janitor(interval=%v, sweepers=%d)", j.interval, len(j.sweepers))
}
