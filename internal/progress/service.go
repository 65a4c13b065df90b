package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrRemoteSync is returned by Update when the merged value committed to the
// local cache but the remote write failed. Callers should surface it as a
// non-blocking warning: the next Update re-attempts a remote write with the
// latest merged state, which naturally catches up lost writes.
var ErrRemoteSync = errors.New("progress: remote sync failed, local copy retained")

// State is the per-course load state.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateRemoteLoaded
	StateLocalFallback
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateRemoteLoaded:
		return "remote_loaded"
	case StateLocalFallback:
		return "local_fallback"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// entry is the mutable per-(user, course) state. The local cache plus this
// value are the only mutable shared resources; both are guarded by mu.
type entry struct {
	mu    sync.Mutex
	state State
	value *UserCourseProgress
}

// Service owns the progress merge/fallback state machine. Remote is
// authoritative when reachable; the local cache is the resilience fallback
// and is always written before the remote write is attempted, so a crash
// between the two never loses the local copy.
type Service struct {
	remote RemoteStore
	local  LocalCache
	events EventLogger

	defaultGoal int

	mu      sync.Mutex
	entries map[string]*entry

	// onChange, when set, is invoked after every committed update with the
	// merged value. Used for live statistics pushes.
	onChange func(p *UserCourseProgress)
}

// NewService creates a progress service. events may be nil.
func NewService(remote RemoteStore, local LocalCache, events EventLogger) *Service {
	if events == nil {
		events = NopEventLogger{}
	}
	return &Service{
		remote:      remote,
		local:       local,
		events:      events,
		defaultGoal: DefaultPerformanceGoal,
		entries:     make(map[string]*entry),
	}
}

// SetDefaultGoal overrides the performance goal used when synthesizing
// defaults for a user with no stored progress anywhere.
func (s *Service) SetDefaultGoal(goal int) {
	s.defaultGoal = goal
}

// OnChange registers a callback invoked after every committed update.
func (s *Service) OnChange(fn func(p *UserCourseProgress)) {
	s.onChange = fn
}

func (s *Service) entryFor(userID, courseID string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := userID + "/" + courseID
	e, ok := s.entries[key]
	if !ok {
		e = &entry{state: StateUninitialized}
		s.entries[key] = e
	}
	return e
}

// State returns the current load state for a (user, course) pair.
func (s *Service) State(userID, courseID string) State {
	e := s.entryFor(userID, courseID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Load resolves the user's progress for a course. Remote wins when
// reachable and overwrites the local cache; on remote failure the local
// cache is the fallback; with neither, defaults are synthesized and
// persisted locally. Load never fails: the worst case is defaults.
func (s *Service) Load(ctx context.Context, userID, courseID string) (*UserCourseProgress, error) {
	e := s.entryFor(userID, courseID)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = StateLoading

	if remote, err := s.remote.Get(ctx, userID, courseID); err == nil {
		if err := s.local.Put(ctx, remote); err != nil {
			slog.Warn("failed to refresh local progress cache",
				"user_id", userID, "course_id", courseID, "error", err)
		}
		e.value = remote
		e.state = StateRemoteLoaded
		s.logEvent(userID, courseID, EventRemoteLoaded, nil)
		e.state = StateReady
		return remote.clone(), nil
	} else if !errors.Is(err, ErrNotFound) {
		slog.Warn("remote progress unavailable, trying local cache",
			"user_id", userID, "course_id", courseID, "error", err)
	}

	if cached, err := s.local.Get(ctx, userID, courseID); err == nil {
		e.value = cached
		e.state = StateLocalFallback
		s.logEvent(userID, courseID, EventLocalFallback, nil)
		e.state = StateReady
		return cached.clone(), nil
	} else if !errors.Is(err, ErrNotFound) {
		slog.Warn("local progress cache unreadable",
			"user_id", userID, "course_id", courseID, "error", err)
	}

	defaults := Defaults(userID, courseID)
	defaults.PerformanceGoal = s.defaultGoal
	if err := s.local.Put(ctx, defaults); err != nil {
		slog.Warn("failed to persist default progress locally",
			"user_id", userID, "course_id", courseID, "error", err)
	}
	e.value = defaults
	s.logEvent(userID, courseID, EventDefaultsCreated, nil)
	e.state = StateReady
	return defaults.clone(), nil
}

// Update merges the partial into the current value optimistically: the
// in-memory value and local cache commit first, then the remote write is
// attempted. On remote failure the merged value is still returned alongside
// ErrRemoteSync. The last local write always wins over prior remote state;
// there is no cross-device merge.
func (s *Service) Update(ctx context.Context, userID, courseID string, u Update) (*UserCourseProgress, error) {
	e := s.entryFor(userID, courseID)
	e.mu.Lock()

	if e.value == nil {
		// Callers normally Load first; resolve current state if they didn't.
		e.mu.Unlock()
		if _, err := s.Load(ctx, userID, courseID); err != nil {
			return nil, err
		}
		e.mu.Lock()
	}

	e.value.apply(u)
	merged := e.value.clone()

	if err := s.local.Put(ctx, merged); err != nil {
		// Local commit failing is the one unrecoverable write path.
		e.mu.Unlock()
		return nil, fmt.Errorf("commit progress locally: %w", err)
	}

	// The remote write stays under the entry lock so concurrent updates to
	// the same (user, course) reach the remote store in commit order; a
	// newer merged value can never be overwritten remotely by an older one.
	remoteErr := s.remote.Put(ctx, merged)
	e.mu.Unlock()

	if s.onChange != nil {
		s.onChange(merged.clone())
	}

	if remoteErr != nil {
		s.logEvent(userID, courseID, EventRemoteSyncFailed, map[string]any{"error": remoteErr.Error()})
		slog.Warn("remote progress write failed, local copy retained",
			"user_id", userID, "course_id", courseID, "error", remoteErr)
		return merged, ErrRemoteSync
	}

	return merged, nil
}

func (s *Service) logEvent(userID, courseID, eventType string, data map[string]any) {
	if err := s.events.LogEvent(Event{
		UserID:    userID,
		CourseID:  courseID,
		EventType: eventType,
		Data:      data,
	}); err != nil {
		slog.Warn("failed to log sync event", "type", eventType, "error", err)
	}
}
