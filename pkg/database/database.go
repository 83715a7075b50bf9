package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"aqi-forecast/pkg/metrics"
	"aqi-forecast/pkg/observe"
)

// Config holds database connection configuration
type Config struct {
	Driver              string
	DSN                 string
	MaxOpenConns        int
	MaxIdleConns        int
	ConnMaxLifetime     time.Duration
	PoolMonitorInterval time.Duration
}

// DB wraps sqlx.DB with query logging and metrics. Queries are written with
// '?' placeholders and rebound for the driver in use.
type DB struct {
	db        *sqlx.DB
	l         *observe.Logger
	metrics   *metrics.Collector
	config    Config
	scheduler *gocron.Scheduler
}

// Open connects and pings the database.
func Open(ctx context.Context, cfg Config, l *observe.Logger, m *metrics.Collector) (*DB, error) {
	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	l.Info("database connection established", map[string]any{
		"driver":         cfg.Driver,
		"max_open_conns": cfg.MaxOpenConns,
		"max_idle_conns": cfg.MaxIdleConns,
	})

	return &DB{
		db:      db,
		l:       l,
		metrics: m,
		config:  cfg,
	}, nil
}

// StartPoolMonitor publishes pool statistics every PoolMonitorInterval.
func (d *DB) StartPoolMonitor() error {
	if d.config.PoolMonitorInterval <= 0 {
		return nil
	}

	s := gocron.NewScheduler(time.UTC)
	if _, err := s.Every(d.config.PoolMonitorInterval).SingletonMode().Do(d.recordPoolStats); err != nil {
		return fmt.Errorf("failed to schedule pool monitor: %w", err)
	}

	s.StartAsync()
	d.scheduler = s

	return nil
}

func (d *DB) recordPoolStats() {
	stats := d.db.Stats()

	d.metrics.UpdateDBConnectionPool(stats.InUse, stats.Idle, stats.OpenConnections)

	if d.config.MaxOpenConns > 0 {
		utilization := float64(stats.InUse) / float64(d.config.MaxOpenConns)
		if utilization > 0.8 {
			d.l.Warning("database connection pool utilization high", map[string]any{
				"in_use":      stats.InUse,
				"idle":        stats.Idle,
				"total":       stats.OpenConnections,
				"max_open":    d.config.MaxOpenConns,
				"utilization": fmt.Sprintf("%.2f%%", utilization*100),
			})
		}
	}
}

func (d *DB) Close() error {
	if d.scheduler != nil {
		d.scheduler.Stop()
	}
	return d.db.Close()
}

// Unwrap returns the underlying sqlx.DB.
func (d *DB) Unwrap() *sqlx.DB {
	return d.db
}

// SelectContext runs a multi-row query into dest.
func (d *DB) SelectContext(ctx context.Context, queryType string, dest any, query string, args ...any) error {
	timer := metrics.NewTimer(d.metrics.DBQueryDuration.WithLabelValues(queryType))
	defer func() {
		elapsed := timer.ObserveDuration()
		d.l.Debug("query executed", map[string]any{
			"query_type":  queryType,
			"duration_ms": elapsed.Milliseconds(),
		})
	}()

	if err := d.db.SelectContext(ctx, dest, d.db.Rebind(query), args...); err != nil {
		d.metrics.RecordDBError("select_error")
		d.l.Error(err, map[string]any{"query_type": queryType})
		return err
	}

	return nil
}

// HealthCheck pings the database.
func (d *DB) HealthCheck(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}
