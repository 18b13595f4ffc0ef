package service

import (
	"sync"
	"time"

	"github.com/noah-isme/homeschool-planner-api/internal/models"
)

// planSession is the working copy of one student plan. mu serialises every edit to it.
// An evicted session is no longer reachable from the store and must not be edited.
type planSession struct {
	mu       sync.Mutex
	plan     models.StudentPlan
	saved    int
	lastSeen time.Time
	evicted  bool
}

type sessionStore struct {
	mu    sync.RWMutex
	items map[string]*planSession
}

func newSessionStore() *sessionStore {
	return &sessionStore{items: make(map[string]*planSession)}
}

func (s *sessionStore) Get(key string) (*planSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.items[key]
	return sess, ok
}

// PutIfAbsent stores sess unless another goroutine loaded the same key first, in which
// case the existing session wins.
func (s *sessionStore) PutIfAbsent(key string, sess *planSession) *planSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.items[key]; ok {
		return existing
	}
	s.items[key] = sess
	return sess
}

func (s *sessionStore) Delete(key string) {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
}

// Snapshot copies the current sessions. Session locks are never taken while the store
// lock is held.
func (s *sessionStore) Snapshot() map[string]*planSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*planSession, len(s.items))
	for key, sess := range s.items {
		out[key] = sess
	}
	return out
}

func (s *sessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
