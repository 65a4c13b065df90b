package curriculum

import (
	"github.com/prepdesk/progress-engine/internal/attempt"
)

// Matches reports whether the attempt satisfies any of the node's filter
// groups. A node with zero groups is a match-all wildcard. Comparisons are
// case-sensitive exact string equality; the curriculum editor owns vocabulary
// consistency, this predicate does not normalize.
func (n *Node) Matches(a attempt.Record) bool {
	if n == nil {
		// Missing filter data degrades to wildcard: overbroad statistics
		// beat no statistics. The aggregation layer warns once; the
		// predicate stays silent so it can run per attempt.
		return true
	}
	if len(n.FilterGroups) == 0 {
		return true
	}
	for _, g := range n.FilterGroups {
		if g.Matches(a) {
			return true
		}
	}
	return false
}

// Matches reports whether the attempt satisfies every non-empty field of the
// group. Boards, subjects and institutions match by exact membership; topics
// match on non-empty overlap with the attempt's topic-tag set.
func (g FilterGroup) Matches(a attempt.Record) bool {
	if len(g.Boards) > 0 && !contains(g.Boards, a.Board) {
		return false
	}
	if len(g.Institutions) > 0 && !contains(g.Institutions, a.Institution) {
		return false
	}
	if len(g.Subjects) > 0 && !intersects(g.Subjects, a.Subjects) {
		return false
	}
	if len(g.Topics) > 0 && !intersects(g.Topics, a.Topics) {
		return false
	}
	return true
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
