package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/example/bilingualtutor/internal/errs"
	"github.com/example/bilingualtutor/internal/logger"
)

// Fetcher wraps hashicorp/go-retryablehttp with the fetch contract from
// spec §4.4: user-agent rotation, a rate limiter, retry with backoff
// bounded by the source's attempt count, and a hard per-request
// timeout. One Fetcher instance belongs to a single ingest run.
type Fetcher struct {
	client  *retryablehttp.Client
	uaPool  *UserAgentPool
	limiter *RateLimiter
	log     *logger.Logger
}

// NewFetcher builds a Fetcher configured from src.
func NewFetcher(src Source, log *logger.Logger, seed int64) *Fetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = maxInt(src.MaxAttempts-1, 0)
	client.RetryWaitMin = initialDelayOrDefault(src.InitialDelay)
	backoff := src.BackoffFactor
	if backoff <= 0 {
		backoff = 2.0
	}
	client.RetryWaitMax = time.Duration(float64(client.RetryWaitMin) * backoff * float64(maxInt(client.RetryMax, 1)))
	client.Logger = nil
	client.CheckRetry = retryCheck
	client.HTTPClient.Timeout = timeoutOrDefault(src.RequestTimeout)

	return &Fetcher{
		client:  client,
		uaPool:  NewUserAgentPool(seed),
		limiter: NewRateLimiter(durationOrDefault(src.MinDelay, time.Second), durationOrDefault(src.MaxDelay, 3*time.Second), seed),
		log:     log,
	}
}

// retryCheck treats only transient network errors and 429/5xx as
// retryable; other 4xx statuses abort immediately (spec §4.4 item 3).
func retryCheck(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return true, nil
	}
	if resp.StatusCode >= 500 {
		return true, nil
	}
	if resp.StatusCode >= 400 {
		return false, nil
	}
	return false, nil
}

// Fetch performs one rate-limited, retried GET against src's source,
// returning the response body.
func (f *Fetcher) Fetch(ctx context.Context, src Source, path string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, errs.Wrap(errs.Timeout, err, "rate limit wait cancelled")
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, src.BaseURL+path, nil)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidInput, err, "build request")
	}
	req.Header.Set("User-Agent", f.uaPool.Next())
	req.Header.Set("Accept", "application/json,text/html,text/csv;q=0.9,*/*;q=0.8")
	for k, v := range src.Headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if f.log != nil {
			f.log.Warnf("fetch %s%s failed after retries: %v", src.BaseURL, path, err)
		}
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			return nil, errs.Wrap(errs.RateLimited, err, "rate limited by source")
		}
		return nil, errs.Wrap(errs.Transient, err, "fetch source")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errs.New(errs.RateLimited, fmt.Sprintf("source returned 429 for %s%s", src.BaseURL, path))
	}
	if resp.StatusCode >= 400 {
		return nil, errs.New(errs.InvalidInput, fmt.Sprintf("source returned status %d for %s%s", resp.StatusCode, src.BaseURL, path))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.Transient, err, "read response body")
	}
	return body, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func initialDelayOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Second
	}
	return d
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}

func durationOrDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
