package stats

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prepdesk/progress-engine/internal/attempt"
	"github.com/prepdesk/progress-engine/internal/curriculum"
)

// AttemptFetcher fetches a student's raw attempts from the backing stores.
type AttemptFetcher interface {
	Fetch(ctx context.Context, studentID string) ([]attempt.Record, error)
}

// Service runs the full pipeline: fetch raw attempts, deduplicate, aggregate
// against a curriculum tree. The aggregation itself is pure computation over
// an immutable snapshot, safe to run concurrently per request.
type Service struct {
	fetcher AttemptFetcher
}

// NewService creates a statistics service over the given fetcher.
func NewService(fetcher AttemptFetcher) *Service {
	return &Service{fetcher: fetcher}
}

// ForStudent computes statistics for every node of the tree from the
// student's deduplicated attempts. When every attempt source is unavailable
// the error propagates and no statistics are returned; callers should show
// "temporarily unavailable" rather than zeros.
func (s *Service) ForStudent(ctx context.Context, tree *curriculum.Tree, studentID string) (map[string]NodeStatistics, error) {
	records, err := s.fetcher.Fetch(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("fetch attempts for %s: %w", studentID, err)
	}

	deduped := attempt.Dedupe(records)
	stats := AggregateTree(tree, deduped)

	slog.Debug("statistics computed",
		"student_id", studentID,
		"raw_attempts", len(records),
		"deduped_attempts", len(deduped),
		"nodes", len(stats),
	)
	return stats, nil
}
