// Package syncd runs the camera node's periodic background sync.
package syncd

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/chamada/internal/attendance"
	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
	"github.com/saturnino-fabrica-de-software/chamada/internal/roster"
)

const DefaultInterval = time.Minute

// Store is what the daemon reads the roster from and publishes heartbeats to.
type Store interface {
	ListStudents(ctx context.Context) ([]domain.Student, error)
	PutStatus(ctx context.Context, node string, status domain.SystemStatus) error
}

type Config struct {
	Node         string
	Interval     time.Duration
	StoreTimeout time.Duration
	Location     *time.Location
}

// Daemon recarrega o roster, publica o heartbeat e limpa o cache de
// deduplicação quando a data local muda.
type Daemon struct {
	store  Store
	roster *roster.Roster
	cache  *attendance.Cache
	active func() bool
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	lastDate string
	lastSync time.Time
}

// New builds a daemon. active reports the camera activation state; nil
// publishes camera_active=false.
func New(st Store, r *roster.Roster, cache *attendance.Cache, active func() bool, cfg Config, logger *slog.Logger) *Daemon {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = attendance.DefaultStoreTimeout
	}
	if active == nil {
		active = func() bool { return false }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{
		store:  st,
		roster: r,
		cache:  cache,
		active: active,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the time source.
func (d *Daemon) WithClock(now func() time.Time) *Daemon {
	d.now = now
	return d
}

// Run ticks once immediately and then every interval until ctx is done.
func (d *Daemon) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	d.logger.Info("sync daemon started", "interval", d.cfg.Interval)
	d.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("sync daemon stopped")
			return
		case <-ticker.C:
			d.Tick(ctx)
		}
	}
}

// Tick runs one sync round. Each step fails independently.
func (d *Daemon) Tick(ctx context.Context) {
	now := d.now()
	if d.cfg.Location != nil {
		now = now.In(d.cfg.Location)
	}

	if err := d.reloadRoster(ctx, now); err != nil {
		d.logger.Error("failed to reload roster", "error", err, "kept", d.roster.Snapshot().Len())
	}

	if err := d.publishHeartbeat(ctx, now); err != nil {
		d.logger.Error("failed to publish heartbeat", "error", err)
	}

	d.checkRollover(now)
}

func (d *Daemon) reloadRoster(ctx context.Context, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	defer cancel()

	students, err := d.store.ListStudents(ctx)
	if err != nil {
		return fmt.Errorf("list students: %w", err)
	}

	snap := d.roster.Replace(students, now)
	d.logger.Info("loaded known faces", "count", snap.Len(), "students", len(students))
	return nil
}

func (d *Daemon) publishHeartbeat(ctx context.Context, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	defer cancel()

	active := d.active()
	status := domain.SystemStatus{
		Status:       domain.StatusConnected,
		LastUpdate:   now,
		CameraActive: &active,
	}
	if err := d.store.PutStatus(ctx, d.cfg.Node, status); err != nil {
		return err
	}

	d.mu.Lock()
	d.lastSync = now
	d.mu.Unlock()
	return nil
}

func (d *Daemon) checkRollover(now time.Time) {
	today := now.Format(domain.DateLayout)

	d.mu.Lock()
	previous := d.lastDate
	d.lastDate = today
	d.mu.Unlock()

	if previous != "" && previous != today {
		d.cache.Reset()
		d.logger.Info("daily attendance cache cleared", "previous", previous, "today", today)
	}
}

// LastSync is the time of the last successful heartbeat.
func (d *Daemon) LastSync() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastSync
}
