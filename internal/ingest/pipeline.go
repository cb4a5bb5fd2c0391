package ingest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/example/bilingualtutor/internal/errs"
	"github.com/example/bilingualtutor/internal/logger"
	"github.com/example/bilingualtutor/internal/models"
)

// Store is the subset of internal/store.Pool the pipeline needs.
type Store interface {
	BatchInsertItems(ctx context.Context, items []models.Item) (inserted int, skipped int, err error)
	SelectVocabulary(ctx context.Context, language models.Language, level models.Level, excludeItemIDs []int64, limit int) ([]models.Item, error)
	SelectGrammar(ctx context.Context, language models.Language, level models.Level, excludeItemIDs []int64, limit int) ([]models.Item, error)
	SelectReading(ctx context.Context, language models.Language, level models.Level, excludeItemIDs []int64, limit int) ([]models.Item, error)
}

// Stats is the per-run summary spec §4.4 requires, published on run
// completion.
type Stats struct {
	Requests   int           `json:"requests"`
	Successes  int           `json:"successes"`
	Failures   int           `json:"failures"`
	Retries    int           `json:"retries"`
	Inserted   int           `json:"inserted"`
	Skipped    int           `json:"skipped"`
	Dropped    int           `json:"dropped"`
	Elapsed    time.Duration `json:"elapsed"`
	FailedSrc  []string      `json:"failed_sources"`
}

// RequestsPerSecond is req/s over Elapsed.
func (s Stats) RequestsPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Requests) / s.Elapsed.Seconds()
}

// Pipeline runs one ingest pass over a set of Sources.
type Pipeline struct {
	store       Store
	log         *logger.Logger
	batchSize   int
	incremental bool
	normalizer  Normalizer

	mu   sync.Mutex
	seen map[string]struct{}
}

// Config controls one Pipeline run.
type Config struct {
	BatchSize   int
	Incremental bool
}

// NewPipeline builds a Pipeline over store.
func NewPipeline(store Store, log *logger.Logger, cfg Config) *Pipeline {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Pipeline{
		store:       store,
		log:         log,
		batchSize:   batchSize,
		incremental: cfg.Incremental,
		seen:        make(map[string]struct{}),
	}
}

func dedupKey(language models.Language, headword string) string {
	return string(language) + "|" + strings.ToLower(headword)
}

// Seed populates the in-memory dedup set from items already known to
// the store (spec §4.4: "seeded on startup").
func (p *Pipeline) Seed(existing []models.Item) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, item := range existing {
		p.seen[dedupKey(item.Language, item.Headword)] = struct{}{}
	}
}

// Run fetches every source it is given, normalizes, deduplicates, and
// inserts via the Store's batch path. It does not check Source.Enabled;
// SourceFile.Sources drops disabled sources before they get here. A
// failed source does not abort the run (spec §4.4's failure semantics).
func (p *Pipeline) Run(ctx context.Context, sources []Source) Stats {
	start := time.Now()
	var stats Stats
	var pending []models.Item

	flush := func() {
		if len(pending) == 0 {
			return
		}
		inserted, skipped, err := p.store.BatchInsertItems(ctx, pending)
		if err != nil {
			stats.Failures++
			if p.log != nil {
				p.log.WithContext(ctx).Errorf("batch insert failed, rolled back: %v", err)
			}
		} else {
			stats.Inserted += inserted
			stats.Skipped += skipped
		}
		pending = pending[:0]
	}

	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}

		items, srcStats, err := p.runSource(ctx, src)
		stats.Requests += srcStats.requests
		stats.Retries += srcStats.retries
		stats.Dropped += srcStats.dropped

		if err != nil {
			stats.Failures++
			stats.FailedSrc = append(stats.FailedSrc, src.Name)
			if p.log != nil {
				p.log.WithContext(ctx).Warnf("source %s failed: %v", src.Name, err)
			}
			continue
		}
		stats.Successes++

		for _, item := range items {
			key := dedupKey(item.Language, item.Headword)

			p.mu.Lock()
			_, known := p.seen[key]
			if p.incremental && known {
				p.mu.Unlock()
				stats.Skipped++
				continue
			}
			p.seen[key] = struct{}{}
			p.mu.Unlock()

			pending = append(pending, item)
			if len(pending) >= p.batchSize {
				flush()
			}
		}
	}
	flush()

	stats.Elapsed = time.Since(start)
	return stats
}

type sourceStats struct {
	requests int
	retries  int
	dropped  int
}

// runSource fetches and normalizes one source, falling back to the
// built-in seed when backup_builtin is set and the fetch exhausts
// retries (spec §4.4).
func (p *Pipeline) runSource(ctx context.Context, src Source) ([]models.Item, sourceStats, error) {
	var stats sourceStats

	fetcher := NewFetcher(src, p.log, time.Now().UnixNano())
	body, err := fetcher.Fetch(ctx, src, "")
	stats.requests++

	if err != nil {
		if errs.Is(err, errs.Transient) || errs.Is(err, errs.RateLimited) {
			stats.retries++
		}
		if src.BackupBuiltin {
			var seeded []models.Item
			for _, level := range src.Levels {
				seeded = append(seeded, BuiltinSeed(src.Language, level)...)
			}
			return seeded, stats, nil
		}
		return nil, stats, err
	}

	items, dropped, err := p.normalizer.Normalize(src, body)
	stats.dropped = dropped
	if err != nil {
		return nil, stats, err
	}
	return items, stats, nil
}
