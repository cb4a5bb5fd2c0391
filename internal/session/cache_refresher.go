package session

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/example/bilingualtutor/internal/logger"
)

// CacheRefresher periodically recomputes each active user's due-count
// into an in-memory cache the Session Engine can consult before hitting
// the store, adapted from the teacher's internal/scheduler cron ticker
// (which drove Telegram reminders; the cache-refresh concern survives,
// the notification concern does not).
type CacheRefresher struct {
	cron   *cron.Cron
	log    *logger.Logger
	userFn func(ctx context.Context) ([]string, error)
	dueFn  func(ctx context.Context, userID string, now time.Time) (int, error)

	mu    sync.RWMutex
	cache map[string]int
}

// NewCacheRefresher builds a refresher. userFn lists active users;
// dueFn computes one user's current due count.
func NewCacheRefresher(log *logger.Logger, userFn func(ctx context.Context) ([]string, error), dueFn func(ctx context.Context, userID string, now time.Time) (int, error)) *CacheRefresher {
	return &CacheRefresher{
		cron:   cron.New(),
		log:    log,
		userFn: userFn,
		dueFn:  dueFn,
		cache:  make(map[string]int),
	}
}

// Start schedules the refresh at the given cron spec (default hourly:
// "0 * * * *") and begins running it in the background.
func (r *CacheRefresher) Start(ctx context.Context, spec string) error {
	if spec == "" {
		spec = "0 * * * *"
	}
	if _, err := r.cron.AddFunc(spec, func() { r.refresh(ctx) }); err != nil {
		return fmt.Errorf("schedule cache refresh: %w", err)
	}
	r.cron.Start()

	go func() {
		<-ctx.Done()
		r.cron.Stop()
	}()
	return nil
}

func (r *CacheRefresher) refresh(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil && r.log != nil {
			r.log.Errorf("recovered from panic in cache refresh: %v\n%s", rec, debug.Stack())
		}
	}()

	users, err := r.userFn(ctx)
	if err != nil {
		if r.log != nil {
			r.log.WithContext(ctx).Warnf("cache refresh: list users: %v", err)
		}
		return
	}

	now := time.Now()
	next := make(map[string]int, len(users))
	for _, userID := range users {
		count, err := r.dueFn(ctx, userID, now)
		if err != nil {
			if r.log != nil {
				r.log.WithContext(ctx).Warnf("cache refresh: due count for %s: %v", userID, err)
			}
			continue
		}
		next[userID] = count
	}

	r.mu.Lock()
	r.cache = next
	r.mu.Unlock()
}

// DueCount returns the cached due count for a user, and whether the
// cache had an entry for them.
func (r *CacheRefresher) DueCount(userID string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.cache[userID]
	return n, ok
}

// Stop halts the cron ticker.
func (r *CacheRefresher) Stop() {
	r.cron.Stop()
}
