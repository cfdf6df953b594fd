package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// MaxRetries bounds the attempts Load makes on retryable errors.
const MaxRetries = 3

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// backoff is swapped in tests.
var backoff = Backoff

// Fetch asks src for a catalog, retrying retryable failures up to
// MaxRetries times. It returns the last error when every attempt fails.
func Fetch(ctx context.Context, src Source, log *slog.Logger) (*Catalog, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	var lastErr error
	for attempt := range MaxRetries {
		cat, err := src.Fetch(ctx)
		if err == nil {
			return cat, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == MaxRetries-1 {
			break
		}
		log.Warn("retryable catalog error", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("fetch catalog: %w", ctx.Err())
		case <-time.After(backoff(attempt)):
		}
	}
	return nil, fmt.Errorf("fetch catalog: %w", lastErr)
}

// Load is Fetch with the fallback applied: any failure, or an empty
// catalog, yields Builtin. The error, if any, is returned alongside so
// callers can report it.
func Load(ctx context.Context, src Source, log *slog.Logger) (*Catalog, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if src == nil {
		return Builtin(), nil
	}
	cat, err := Fetch(ctx, src, log)
	if err != nil {
		log.Error("catalog load failed, using builtin list", "error", err)
		return Builtin(), err
	}
	if cat.Empty() {
		log.Warn("catalog is empty, using builtin list", "source", cat.Source)
		return Builtin(), nil
	}
	log.Info("catalog loaded", "source", cat.Source, "version", cat.Version, "terms", cat.Len())
	return cat, nil
}

// Shared holds the process-wide catalog. Editors receive the current
// catalog read-only; Refresh replaces it for editors created afterwards and
// for those the caller pushes it to.
type Shared struct {
	mu    sync.RWMutex
	src   Source
	log   *slog.Logger
	cur   *Catalog
	err   error
	group singleflight.Group
}

func NewShared(src Source, log *slog.Logger) *Shared {
	return &Shared{src: src, log: log}
}

// Get returns the current catalog, loading it on first use. Concurrent
// callers share one load.
func (s *Shared) Get(ctx context.Context) (*Catalog, error) {
	s.mu.RLock()
	cur, err := s.cur, s.err
	s.mu.RUnlock()
	if cur != nil {
		return cur, err
	}
	return s.do(ctx, true)
}

// Current returns the loaded catalog without loading, or nil.
func (s *Shared) Current() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Refresh reloads from the source. The fallback catalog replaces the
// current one only when nothing has been loaded yet. A refresh already in
// flight is joined rather than repeated.
func (s *Shared) Refresh(ctx context.Context) (*Catalog, error) {
	return s.do(ctx, false)
}

func (s *Shared) do(ctx context.Context, reuse bool) (*Catalog, error) {
	v, err, _ := s.group.Do("load", func() (any, error) {
		if reuse {
			s.mu.RLock()
			cur, err := s.cur, s.err
			s.mu.RUnlock()
			if cur != nil {
				return cur, err
			}
		}
		return s.refresh(ctx)
	})
	cat, _ := v.(*Catalog)
	return cat, err
}

func (s *Shared) refresh(ctx context.Context) (*Catalog, error) {
	cat, err := Load(ctx, s.src, s.log)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil && s.cur != nil {
		return s.cur, err
	}
	s.cur, s.err = cat, err
	return cat, err
}
