package curriculum

// Node is one level of the verticalized syllabus: discipline, topic, or
// subtopic. Nodes carry matching rules, never cached counts — statistics are
// always recomputed from the filter groups and the attempt set.
type Node struct {
	ID           string        `yaml:"id" json:"id"`
	Title        string        `yaml:"title" json:"title"`
	ParentID     string        `yaml:"parent_id,omitempty" json:"parent_id,omitempty"`
	FilterGroups []FilterGroup `yaml:"filter_groups,omitempty" json:"filter_groups,omitempty"`
}

// FilterGroup is one alternative match rule. A node matches an attempt when
// any of its groups does (OR across groups); within a group every non-empty
// field must match (AND). An empty field set leaves that field unconstrained.
type FilterGroup struct {
	Boards       []string `yaml:"boards,omitempty" json:"boards,omitempty"`
	Subjects     []string `yaml:"subjects,omitempty" json:"subjects,omitempty"`
	Topics       []string `yaml:"topics,omitempty" json:"topics,omitempty"`
	Institutions []string `yaml:"institutions,omitempty" json:"institutions,omitempty"`
}

// Wildcard reports whether the group constrains nothing. Legacy and
// incompletely configured nodes produce these; they are intentional, not an
// error.
func (g FilterGroup) Wildcard() bool {
	return len(g.Boards) == 0 && len(g.Subjects) == 0 &&
		len(g.Topics) == 0 && len(g.Institutions) == 0
}
