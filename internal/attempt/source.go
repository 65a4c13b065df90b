package attempt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllSourcesUnavailable is returned by Fetcher.Fetch when every configured
// source failed. Statistics must be withheld in that case, never zeroed: an
// empty result would imply "no attempts" when the truth is "unknown".
var ErrAllSourcesUnavailable = errors.New("attempt: all sources unavailable")

// ErrEmpty is returned by a source that is reachable but holds no rows for
// the student. The fetcher falls back to the next source; when fallback ends
// on an empty store the student simply has no attempts yet, which is an
// empty success, not a failure.
var ErrEmpty = errors.New("attempt: source returned no rows")

// A Source fetches a student's attempts from one backing store.
type Source interface {
	// Fetch returns the student's attempts, or an error when the store is
	// unreachable, the schema is absent, or the result is empty.
	Fetch(ctx context.Context, studentID string) ([]Record, error)
	// Table identifies which schema the source reads.
	Table() Table
}

// Fetcher tries sources in fixed priority order and returns the first
// non-empty result. The fallback is sequential rather than racing both
// stores, trading latency for not doubling load on the backing store.
type Fetcher struct {
	sources []Source
}

// NewFetcher creates a fetcher over the given sources, tried in order.
func NewFetcher(sources ...Source) *Fetcher {
	return &Fetcher{sources: sources}
}

// Fetch returns the student's attempts from the first source that responds
// with rows. Individual source failures are recovered and logged. When the
// fallback chain ends on a reachable-but-empty store the truth is "no
// attempts", so Fetch succeeds with no records; ErrAllSourcesUnavailable is
// reserved for the case where the last word came from an unreachable store
// and the truth is "unknown".
func (f *Fetcher) Fetch(ctx context.Context, studentID string) ([]Record, error) {
	if len(f.sources) == 0 {
		return nil, ErrAllSourcesUnavailable
	}

	var causes []error
	var lastErr error
	for _, src := range f.sources {
		records, err := src.Fetch(ctx, studentID)
		if err != nil {
			if errors.Is(err, ErrEmpty) {
				slog.Debug("attempt source empty, falling back",
					"table", src.Table().String(),
					"student_id", studentID,
				)
			} else {
				slog.Warn("attempt source unavailable, falling back",
					"table", src.Table().String(),
					"student_id", studentID,
					"error", err,
				)
				causes = append(causes, fmt.Errorf("%s: %w", src.Table(), err))
			}
			lastErr = err
			continue
		}
		return records, nil
	}

	if errors.Is(lastErr, ErrEmpty) {
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrAllSourcesUnavailable, errors.Join(causes...))
}

// MemorySource is an in-memory Source for tests, with injectable records and
// error.
type MemorySource struct {
	Records []Record
	Err     error
	Schema  Table

	// FetchCalls counts Fetch invocations, for fallback-order assertions.
	FetchCalls int
}

func (s *MemorySource) Fetch(_ context.Context, studentID string) ([]Record, error) {
	s.FetchCalls++
	if s.Err != nil {
		return nil, s.Err
	}
	var out []Record
	for _, r := range s.Records {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

func (s *MemorySource) Table() Table {
	return s.Schema
}
