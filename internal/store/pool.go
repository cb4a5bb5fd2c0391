// Package store owns all persistent state for the core: items, learning
// records and user profiles, behind a pool-backed, metrics-instrumented
// sqlx.DB. It is modeled on the teacher's internal/database package
// (sqlx + dual sqlite3/postgres dialect) and mugisham37-DriveMaster's
// OptimizedPool (connection-pool statistics, slow-query tracking).
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/example/bilingualtutor/internal/config"
	"github.com/example/bilingualtutor/internal/errs"
	"github.com/example/bilingualtutor/internal/logger"
)

// Pool wraps a sqlx.DB with a bounded-wait acquisition semaphore and
// query-timing metrics, the explicit version of the teacher's
// SetMaxOpenConns/SetMaxIdleConns pair (spec §4.2's connection
// management contract).
type Pool struct {
	db      *sqlx.DB
	driver  string
	sem     chan struct{}
	waitFor time.Duration
	metrics *Metrics
	log     *logger.Logger
}

// Open establishes the pool-backed connection described by cfg,
// configuring WAL, synchronous=normal, foreign keys and a shared cache
// for sqlite, and running schema migrations.
func Open(cfg config.StoreConfig, log *logger.Logger) (*Pool, error) {
	var dsn string
	switch cfg.Driver {
	case "sqlite3", "":
		if dir := filepath.Dir(cfg.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errs.Wrap(errs.Corrupt, err, "create store directory")
			}
		}
		dsn = fmt.Sprintf("file:%s?cache=shared&_foreign_keys=on&_journal_mode=WAL&_synchronous=NORMAL", cfg.DSN)
	case "postgres":
		dsn = cfg.DSN
	default:
		return nil, errs.InvalidInputf("unsupported store driver %q", cfg.Driver)
	}

	driverName := cfg.Driver
	if driverName == "" {
		driverName = "sqlite3"
	}

	db, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, errs.Wrap(errs.Transient, err, "connect to store")
	}

	if driverName == "sqlite3" {
		// SQLite allows only one writer, so database/sql keeps a single
		// connection here; the semaphore below bounds how many callers
		// proceed at once, and those callers share this connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, errs.Wrap(errs.Corrupt, err, "enable foreign keys")
		}
	} else {
		poolMax := cfg.PoolMax
		if poolMax <= 0 {
			poolMax = 8
		}
		db.SetMaxOpenConns(poolMax)
		db.SetMaxIdleConns(poolMax)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	poolMax := cfg.PoolMax
	if poolMax <= 0 {
		poolMax = 8
	}
	waitFor := cfg.PoolAcquireTimeout
	if waitFor <= 0 {
		waitFor = 2 * time.Second
	}

	p := &Pool{
		db:      db,
		driver:  driverName,
		sem:     make(chan struct{}, poolMax),
		waitFor: waitFor,
		metrics: newMetrics(cfg.SlowQueryThreshold, cfg.SlowQueryWindowSize),
		log:     log,
	}

	if err := p.migrate(); err != nil {
		return nil, err
	}

	return p, nil
}

// Close releases the underlying connection.
func (p *Pool) Close() error {
	return p.db.Close()
}

// DriverName reports the dialect backing this pool ("sqlite3" or "postgres").
func (p *Pool) DriverName() string { return p.driver }

// Rebind converts a query written with '?' placeholders into the
// dialect this pool actually speaks.
func (p *Pool) Rebind(query string) string { return p.db.Rebind(query) }

// Stats returns a point-in-time snapshot of the store's observability
// counters (spec §4.2): never used to gate requests, only exposed.
func (p *Pool) Stats() Snapshot { return p.metrics.snapshot() }

// Vacuum asks the store to reclaim space and refresh planner
// statistics, backing the `vacuum` CLI command (spec §6).
func (p *Pool) Vacuum(ctx context.Context) error {
	release, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	return p.withTimed("vacuum", func() error {
		if p.driver == "postgres" {
			_, err := p.db.Exec("VACUUM ANALYZE")
			return err
		}
		if _, err := p.db.Exec("VACUUM"); err != nil {
			return err
		}
		_, err := p.db.Exec("ANALYZE")
		return err
	})
}

// acquire blocks up to p.waitFor for a pool slot, returning a
// Transient pool-exhausted error past that bound (spec §4.2/§5).
func (p *Pool) acquire(ctx context.Context) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, p.waitFor)
	defer cancel()

	select {
	case p.sem <- struct{}{}:
		return func() { <-p.sem }, nil
	case <-waitCtx.Done():
		return nil, errs.Wrap(errs.Transient, waitCtx.Err(), "pool exhausted: no connection available within wait bound")
	case <-ctx.Done():
		return nil, errs.Wrap(errs.Timeout, ctx.Err(), "request deadline expired waiting for connection")
	}
}

// withTimed instruments a unit of work with query-count/duration
// metrics and logs slow queries, without ever letting the timing gate
// the caller's result.
func (p *Pool) withTimed(label string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	p.metrics.record(label, d, err)
	if p.metrics.isSlow(d) && p.log != nil {
		p.log.Warnf("slow query %s took %s", label, d)
	}
	return err
}

// txLabel strips excess whitespace from a SQL statement for metrics
// labeling without leaking bound parameter values into logs.
func txLabel(query string) string {
	fields := strings.Fields(query)
	if len(fields) > 6 {
		fields = fields[:6]
	}
	return strings.Join(fields, " ")
}
