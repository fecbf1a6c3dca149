// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in process Store.  A session lives for the TTL from its
// last Put, reads don't extend it, and it's dropped the next time it's read
// after that.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	nowFunc  func() time.Time
}

type memoryEntry struct {
	s       *Session
	expires time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a MemoryStore.  Supported options: WithTTL, WithNow
func NewMemoryStore(opt ...Option) *MemoryStore {
	opts := getOpts(opt...)
	return &MemoryStore{
		sessions: map[string]memoryEntry{},
		ttl:      opts.withTTL,
		nowFunc:  opts.withNowFunc,
	}
}

// Get implements Store
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	const op = "MemoryStore.Get"
	if id == "" {
		return nil, fmt.Errorf("%s: session id is empty: %w", op, ErrInvalidParameter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return &Session{}, nil
	}
	if e.expires.Before(m.now()) {
		delete(m.sessions, id)
		return &Session{}, nil
	}
	return e.s.Clone(), nil
}

// Put implements Store
func (m *MemoryStore) Put(_ context.Context, id string, s *Session) error {
	const op = "MemoryStore.Put"
	if id == "" {
		return fmt.Errorf("%s: session id is empty: %w", op, ErrInvalidParameter)
	}
	if s == nil {
		return fmt.Errorf("%s: session is nil: %w", op, ErrNilParameter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = memoryEntry{s: s.Clone(), expires: m.now().Add(m.ttl)}
	return nil
}

// Clear implements Store
func (m *MemoryStore) Clear(_ context.Context, id string) error {
	const op = "MemoryStore.Clear"
	if id == "" {
		return fmt.Errorf("%s: session id is empty: %w", op, ErrInvalidParameter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions, including expired sessions that
// haven't been read since they expired.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *MemoryStore) now() time.Time {
	if m.nowFunc != nil {
		return m.nowFunc()
	}
	return time.Now() // fallback to this default
}
