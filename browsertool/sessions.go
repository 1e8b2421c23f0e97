package browsertool

import (
	"context"
	"fmt"
	"sync"
)

type session struct {
	mu     sync.Mutex
	driver Driver
}

// Sessions maps page ids to live driver sessions. Sessions are created
// lazily on first navigation, and every operation on a session runs under
// that session's mutex so two tool calls can never interleave on one page.
type Sessions struct {
	mu       sync.Mutex
	factory  DriverFactory
	sessions map[string]*session
}

// NewSessions returns an empty session manager backed by factory.
func NewSessions(factory DriverFactory) *Sessions {
	return &Sessions{
		factory:  factory,
		sessions: make(map[string]*session),
	}
}

// with runs fn against the driver for id while holding the session mutex.
// When create is set a missing session is created first; otherwise a missing
// session is an error telling the caller to navigate.
func (s *Sessions) with(ctx context.Context, id string, create bool, fn func(Driver) (any, error)) (any, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		if !create {
			s.mu.Unlock()
			return nil, noPageError(id)
		}
		sess = &session{}
		s.sessions[id] = sess
	}
	s.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.driver == nil {
		if !create {
			return nil, noPageError(id)
		}
		driver, err := s.factory(ctx)
		if err != nil {
			return nil, fmt.Errorf("create browser session %q: %w", id, err)
		}
		sess.driver = driver
	}
	return fn(sess.driver)
}

// Close shuts down the session for id and removes it.
func (s *Sessions) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if !ok {
		return noPageError(id)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.driver == nil {
		return noPageError(id)
	}
	return sess.driver.Close(ctx)
}

// CloseAll shuts down every session. The first close error is returned but
// all sessions are removed regardless.
func (s *Sessions) CloseAll(ctx context.Context) error {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	var firstErr error
	for _, sess := range all {
		sess.mu.Lock()
		if sess.driver != nil {
			if err := sess.driver.Close(ctx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		sess.mu.Unlock()
	}
	return firstErr
}

// Len reports the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func noPageError(id string) error {
	return fmt.Errorf("no page found with id %q, call browser_navigate first", id)
}
