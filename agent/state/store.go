package state

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var ErrInvalidSession = errors.New("session id is empty")

const (
	// DefaultCapacity is the live-session ceiling before eviction kicks in.
	DefaultCapacity = 100
)

// SessionStore is a bounded in-memory session map.
//
// Eviction: when the live count exceeds the capacity, the half of the
// capacity whose session ids sort lowest lexicographically is removed. This
// is deliberately not a recency policy; it reproduces the store's documented
// behavior and is pinned by tests.
//
// Lock serializes turns per session id: runs for distinct ids proceed
// concurrently, runs for the same id are end-to-end exclusive.
type SessionStore struct {
	mu       sync.RWMutex
	capacity int
	sessions map[string]*ConversationState

	lockMu sync.Mutex
	locks  map[string]*sessionLock

	now func() time.Time
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewSessionStore builds a store with the given ceiling; zero or negative
// falls back to DefaultCapacity.
func NewSessionStore(capacity int) *SessionStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &SessionStore{
		capacity: capacity,
		sessions: make(map[string]*ConversationState),
		locks:    make(map[string]*sessionLock),
		now:      time.Now,
	}
}

// Lock acquires the per-session run lock and returns its release function.
func (s *SessionStore) Lock(sessionID string) func() {
	s.lockMu.Lock()
	entry, ok := s.locks[sessionID]
	if !ok {
		entry = &sessionLock{}
		s.locks[sessionID] = entry
	}
	entry.refs++
	s.lockMu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		s.lockMu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.lockMu.Unlock()
	}
}

// GetOrCreate returns a deep copy of the existing state, or initializes and
// commits a fresh one.
func (s *SessionStore) GetOrCreate(sessionID, userID string) (*ConversationState, error) {
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.sessions[sessionID]; ok {
		return st.Clone(), nil
	}

	st := NewConversationState(sessionID, userID, s.now())
	s.sessions[sessionID] = st
	s.evictLocked()
	return st.Clone(), nil
}

// Get returns a deep copy of the stored state.
func (s *SessionStore) Get(sessionID string) (*ConversationState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return st.Clone(), true
}

// Put upserts the session state and applies eviction when over capacity.
func (s *SessionStore) Put(sessionID string, st *ConversationState) error {
	if sessionID == "" {
		return ErrInvalidSession
	}
	if st == nil {
		return errors.New("session state is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = st.Clone()
	s.evictLocked()
	return nil
}

// Delete removes the session. Reports whether it existed.
func (s *SessionStore) Delete(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	return ok
}

// Len is the live session count.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// TotalMessages sums transcript lengths across all live sessions.
func (s *SessionStore) TotalMessages() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, st := range s.sessions {
		total += len(st.Messages)
	}
	return total
}

// evictLocked drops the capacity/2 lexicographically-smallest ids once the
// count exceeds the ceiling. Caller holds s.mu.
func (s *SessionStore) evictLocked() {
	if len(s.sessions) <= s.capacity {
		return
	}

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	batch := s.capacity / 2
	if batch > len(ids) {
		batch = len(ids)
	}
	for _, id := range ids[:batch] {
		delete(s.sessions, id)
	}
}
