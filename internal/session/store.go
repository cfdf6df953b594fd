// Package session keeps the live editor engines of the host service, keyed by
// a random ID and evicted after a period of inactivity.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/copyedit/internal/catalog"
	"github.com/dgallion1/copyedit/internal/editor"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrFull     = errors.New("session limit reached")
)

const (
	DefaultTTL         = 30 * time.Minute
	DefaultMaxSessions = 1000
	cleanupInterval    = time.Minute
)

// Session is one editor instance plus bookkeeping.
type Session struct {
	ID        string
	Title     string
	CreatedAt time.Time
	Engine    *editor.Engine

	mu        sync.Mutex
	updatedAt time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.updatedAt = now
	s.mu.Unlock()
}

// UpdatedAt returns the time of last access.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Snapshot is a JSON-safe summary of a session.
type Snapshot struct {
	ID        string      `json:"session_id"`
	Title     string      `json:"title,omitempty"`
	Mode      editor.Mode `json:"mode"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:        s.ID,
		Title:     s.Title,
		Mode:      s.Engine.Mode(),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt(),
	}
}

// Options configure a Store and the engines it creates.
type Options struct {
	TTL          time.Duration
	MaxSessions  int
	Debounce     time.Duration
	HistoryLimit int
	Catalog      *catalog.Shared
	Recorder     editor.Recorder
	Logger       *slog.Logger
}

// Store is a thread-safe in-memory session registry with TTL eviction.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	opts     Options
	log      *slog.Logger
	now      func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewStore(opts Options) *Store {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Store{
		sessions: make(map[string]*Session),
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

// Create starts a new engine holding markup. When the store is full, expired
// sessions are evicted first.
func (s *Store) Create(title, markup string) (*Session, error) {
	id := uuid.NewString()
	log := s.log.With("session_id", id)
	opts := editor.Options{
		Logger:       log,
		Debounce:     s.opts.Debounce,
		HistoryLimit: s.opts.HistoryLimit,
		Recorder:     s.opts.Recorder,
	}
	if shared := s.opts.Catalog; shared != nil {
		if cur := shared.Current(); cur != nil {
			opts.Catalog = cur
		} else {
			opts.LoadCatalog = shared.Get
		}
	}

	s.mu.Lock()
	if len(s.sessions) >= s.opts.MaxSessions {
		s.cleanupLocked()
	}
	if len(s.sessions) >= s.opts.MaxSessions {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w (%d)", ErrFull, s.opts.MaxSessions)
	}
	now := s.now()
	sess := &Session{
		ID:        id,
		Title:     title,
		CreatedAt: now,
		Engine:    editor.New(markup, opts),
		updatedAt: now,
	}
	s.sessions[id] = sess
	s.mu.Unlock()

	log.Info("session created", "title", title)
	return sess, nil
}

// Get returns a session and marks it used.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	sess.touch(s.now())
	return sess, nil
}

// Delete closes and removes a session.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	sess.Engine.Close()
	s.log.Info("session deleted", "session_id", id)
	return nil
}

// List returns snapshots of every session, newest first.
func (s *Store) List() []Snapshot {
	s.mu.Lock()
	out := make([]Snapshot, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.Snapshot())
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup removes expired sessions and returns how many were evicted.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleanupLocked()
}

func (s *Store) cleanupLocked() int {
	now := s.now()
	n := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.UpdatedAt()) > s.opts.TTL {
			sess.Engine.Close()
			delete(s.sessions, id)
			n++
		}
	}
	if n > 0 {
		s.log.Info("expired sessions evicted", "count", n, "remaining", len(s.sessions))
	}
	return n
}

// Broadcast pushes cat to every open engine, after a catalog refresh.
func (s *Store) Broadcast(cat *catalog.Catalog) int {
	s.mu.Lock()
	targets := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		targets = append(targets, sess)
	}
	s.mu.Unlock()

	n := 0
	for _, sess := range targets {
		if err := sess.Engine.SetCatalog(cat); err != nil {
			s.log.Warn("catalog push failed", "session_id", sess.ID, "error", err)
			continue
		}
		n++
	}
	return n
}

// Start launches the cleanup loop.
func (s *Store) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// Stop ends the cleanup loop and closes every engine.
func (s *Store) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.Engine.Close()
		delete(s.sessions, id)
	}
}
