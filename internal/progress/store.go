package progress

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by stores when no document exists for the key.
var ErrNotFound = errors.New("progress: not found")

// RemoteStore is the server-authoritative progress store, keyed by
// (user, course). Writes are last-write-wins per entity.
type RemoteStore interface {
	Get(ctx context.Context, userID, courseID string) (*UserCourseProgress, error)
	Put(ctx context.Context, p *UserCourseProgress) error
}

// LocalCache is the durable client-side copy of the same document, used as
// fallback when the remote store is unreachable.
type LocalCache interface {
	Get(ctx context.Context, userID, courseID string) (*UserCourseProgress, error)
	Put(ctx context.Context, p *UserCourseProgress) error
}

// MemoryStore is an in-memory RemoteStore/LocalCache for tests, with an
// injectable failure.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*UserCourseProgress

	// Err, when set, is returned by every call; simulates an unreachable
	// store.
	Err error

	// PutCalls counts writes, for write-through assertions.
	PutCalls int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*UserCourseProgress)}
}

func (s *MemoryStore) Get(_ context.Context, userID, courseID string) (*UserCourseProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	p, ok := s.docs[userID+"/"+courseID]
	if !ok {
		return nil, ErrNotFound
	}
	return p.clone(), nil
}

func (s *MemoryStore) Put(_ context.Context, p *UserCourseProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PutCalls++
	if s.Err != nil {
		return s.Err
	}
	if s.docs == nil {
		s.docs = make(map[string]*UserCourseProgress)
	}
	s.docs[p.UserID+"/"+p.CourseID] = p.clone()
	return nil
}
