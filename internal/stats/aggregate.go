// Package stats computes per-node accuracy statistics by matching
// deduplicated attempts against curriculum filter groups.
package stats

import (
	"log/slog"
	"math"

	"github.com/prepdesk/progress-engine/internal/attempt"
	"github.com/prepdesk/progress-engine/internal/curriculum"
)

// NodeStatistics is the derived accuracy rollup for one curriculum node.
// It is recomputed per request and never the system of record.
type NodeStatistics struct {
	NodeID        string `json:"node_id"`
	TotalAttempts int    `json:"total_attempts"`
	Correct       int    `json:"correct"`
	Wrong         int    `json:"wrong"`
	AccuracyPct   int    `json:"accuracy_pct"`
}

// Aggregate evaluates one node's filter groups against the deduplicated
// attempt set. AccuracyPct is 0 when no attempts match.
func Aggregate(node *curriculum.Node, deduped []attempt.Record) NodeStatistics {
	stats := NodeStatistics{}
	if node != nil {
		stats.NodeID = node.ID
	} else {
		slog.Warn("aggregating against nil curriculum node, treating as wildcard")
	}
	for _, a := range deduped {
		if !node.Matches(a) {
			continue
		}
		stats.TotalAttempts++
		if a.IsCorrect {
			stats.Correct++
		}
	}
	stats.Wrong = stats.TotalAttempts - stats.Correct
	if stats.TotalAttempts > 0 {
		stats.AccuracyPct = int(math.Round(100 * float64(stats.Correct) / float64(stats.TotalAttempts)))
	}
	return stats
}

// AggregateTree computes statistics for every node in the tree. Each node is
// evaluated independently against its own filter groups: a discipline's
// numbers are not the sum of its topics, because an attempt can match the
// discipline-level group without matching any topic's narrower one.
//
// One shared pass over the attempt slice per node, O(nodes × attempts).
// Both are bounded and recomputation is infrequent, so no topic index is
// kept.
func AggregateTree(tree *curriculum.Tree, deduped []attempt.Record) map[string]NodeStatistics {
	out := make(map[string]NodeStatistics, tree.Len())
	tree.Walk(func(n *curriculum.Node, _ int) {
		out[n.ID] = Aggregate(n, deduped)
	})
	return out
}
