package scheduler

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/rgehrsitz/payoutgo/internal/calculation"
	"github.com/robfig/cron/v3"
)

// LoadFunc builds a fresh calculation engine from the on-disk reference data.
type LoadFunc func() (*calculation.CalculationEngine, error)

// ApplyFunc installs a freshly loaded engine.
type ApplyFunc func(*calculation.CalculationEngine)

// Reloader periodically reloads the life table and regulatory config so a running
// server picks up new minimum pension steps and fund rates without a restart.
type Reloader struct {
	Cron  *cron.Cron
	Load  LoadFunc
	Apply ApplyFunc

	mu       sync.Mutex
	reloads  int
	failures int
	lastErr  error
}

// NewReloader creates a Reloader. Specs use the six-field cron format with seconds,
// or descriptors such as "@every 1h" and "@daily".
func NewReloader(load LoadFunc, apply ApplyFunc) *Reloader {
	return &Reloader{
		Cron:  cron.New(cron.WithSeconds()),
		Load:  load,
		Apply: apply,
	}
}

// Register schedules the reload task.
func (r *Reloader) Register(spec string) error {
	if _, err := r.Cron.AddFunc(spec, func() { _ = r.RunNow() }); err != nil {
		return fmt.Errorf("register reload task %q: %w", spec, err)
	}
	return nil
}

// RunNow reloads immediately. A failed load keeps the current engine.
func (r *Reloader) RunNow() error {
	engine, err := r.Load()

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.failures++
		r.lastErr = err
		slog.Error("reference data reload failed, keeping current engine", "error", err)
		return err
	}
	r.Apply(engine)
	r.reloads++
	r.lastErr = nil
	slog.Info("reference data reloaded", "table", engine.Table.Name(), "reloads", r.reloads)
	return nil
}

// Stats reports how many reloads succeeded and failed, and the last failure if the
// most recent attempt failed.
func (r *Reloader) Stats() (reloads, failures int, lastErr error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reloads, r.failures, r.lastErr
}

// Start starts the cron scheduler.
func (r *Reloader) Start() {
	r.Cron.Start()
	slog.Info("reload scheduler started", "entries", len(r.Cron.Entries()))
}

// Stop stops the cron scheduler and waits for a running reload to finish.
func (r *Reloader) Stop() {
	<-r.Cron.Stop().Done()
	slog.Info("reload scheduler stopped")
}
