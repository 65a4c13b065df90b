// Package attempt normalizes student question-attempt records from the two
// historical storage schemas into one canonical shape and collapses repeated
// attempts into a single current verdict per question.
package attempt

import "time"

// Table identifies which storage schema a record came from.
type Table int

const (
	// TableCurrent is the per-question upsert table, one row per
	// (student, question) pair, deduplicated at the storage layer.
	TableCurrent Table = iota
	// TableLegacy is the flat append-only answer log.
	TableLegacy
)

func (t Table) String() string {
	switch t {
	case TableCurrent:
		return "current"
	case TableLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// Record is a canonical, post-normalization attempt. Records are never
// mutated after ingest; each fetch produces a fresh transient slice.
type Record struct {
	StudentID   string    `json:"student_id"`
	QuestionID  string    `json:"question_id"`
	Discipline  string    `json:"discipline"`
	Board       string    `json:"board"`
	Institution string    `json:"institution"`
	Topics      []string  `json:"topics"`
	Subjects    []string  `json:"subjects"`
	IsCorrect   bool      `json:"is_correct"`
	OccurredAt  time.Time `json:"occurred_at"`
	Source      Table     `json:"source"`
}

// Dedupe collapses attempts to one entry per (student, question): the record
// with the greatest OccurredAt wins, ties broken in favour of TableCurrent.
// First-encounter order of winners is preserved, so the function is
// idempotent: Dedupe(Dedupe(a)) == Dedupe(a).
func Dedupe(records []Record) []Record {
	type key struct{ student, question string }

	index := make(map[key]int, len(records))
	out := make([]Record, 0, len(records))

	for _, r := range records {
		k := key{r.StudentID, r.QuestionID}
		i, seen := index[k]
		if !seen {
			index[k] = len(out)
			out = append(out, r)
			continue
		}
		if supersedes(r, out[i]) {
			out[i] = r
		}
	}
	return out
}

// supersedes reports whether candidate should replace current as the
// student's verdict on a question.
func supersedes(candidate, current Record) bool {
	if candidate.OccurredAt.After(current.OccurredAt) {
		return true
	}
	if candidate.OccurredAt.Equal(current.OccurredAt) {
		return candidate.Source == TableCurrent && current.Source == TableLegacy
	}
	return false
}
