package store

import (
	"context"
	"sync"

	"github.com/mwantia/coordtree/data"
)

// Session wraps a shared store so that a single client connection can be
// closed independently. Close waits for in-flight calls to return; calls
// issued afterwards fail with data.ErrClosed.
type Session struct {
	store Store
	id    string

	mu      sync.RWMutex
	closed  bool
	onClose func() error
}

func NewSession(id string, s Store, onClose func() error) *Session {
	return &Session{
		store:   s,
		id:      id,
		onClose: onClose,
	}
}

// ID returns the identifier assigned to this session.
func (s *Session) ID() string {
	return s.id
}

// Name returns the identifier name of the wrapped store.
func (s *Session) Name() string {
	return s.store.Name()
}

func (s *Session) acquire() error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return data.ErrClosed
	}

	return nil
}

func (s *Session) Create(ctx context.Context, path string, payload []byte, mode CreateMode) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.mu.RUnlock()

	return s.store.Create(ctx, path, payload, mode)
}

func (s *Session) Get(ctx context.Context, path string) ([]byte, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.mu.RUnlock()

	return s.store.Get(ctx, path)
}

func (s *Session) Set(ctx context.Context, path string, payload []byte) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.mu.RUnlock()

	return s.store.Set(ctx, path, payload)
}

func (s *Session) Exists(ctx context.Context, path string) (bool, error) {
	if err := s.acquire(); err != nil {
		return false, err
	}
	defer s.mu.RUnlock()

	return s.store.Exists(ctx, path)
}

func (s *Session) Children(ctx context.Context, path string) ([]string, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.mu.RUnlock()

	return s.store.Children(ctx, path)
}

func (s *Session) Delete(ctx context.Context, path string) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.mu.RUnlock()

	return s.store.Delete(ctx, path)
}

// Close marks the session closed and runs the release hook exactly once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return data.ErrClosed
	}
	s.closed = true

	if s.onClose != nil {
		return s.onClose()
	}

	return nil
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.closed
}
