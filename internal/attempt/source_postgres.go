package attempt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// CurrentSource reads the per-question upsert table. One row per
// (student, question) pair; the storage layer already keeps only the most
// recent verdict, so rows arrive pre-deduplicated.
type CurrentSource struct {
	pool *pgxpool.Pool
}

// NewCurrentSource creates a source over the question_progress table.
func NewCurrentSource(pool *pgxpool.Pool) (*CurrentSource, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &CurrentSource{pool: pool}, nil
}

func (s *CurrentSource) Table() Table {
	return TableCurrent
}

func (s *CurrentSource) Fetch(ctx context.Context, studentID string) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT question_id, discipline, board, institution, topics, subjects, is_correct, answered_at
		 FROM question_progress
		 WHERE student_id = $1`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("query question_progress: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows, studentID, TableCurrent)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	return records, nil
}

// LegacySource reads the flat append-only answer log, newest first. Unlike
// the current table it may hold several rows per question; deduplication is
// the caller's job.
type LegacySource struct {
	pool *pgxpool.Pool
}

// NewLegacySource creates a source over the answer_log table.
func NewLegacySource(pool *pgxpool.Pool) (*LegacySource, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &LegacySource{pool: pool}, nil
}

func (s *LegacySource) Table() Table {
	return TableLegacy
}

func (s *LegacySource) Fetch(ctx context.Context, studentID string) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT question_id, discipline, board, institution, topics, subjects, is_correct, answered_at
		 FROM answer_log
		 WHERE student_id = $1
		 ORDER BY answered_at DESC`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("query answer_log: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows, studentID, TableLegacy)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	return records, nil
}

// rowScanner is the subset of pgx.Rows both sources iterate.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRecords(rows rowScanner, studentID string, table Table) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var (
			r           Record
			topics      []byte
			subjects    []byte
			board       *string
			institution *string
		)
		if err := rows.Scan(
			&r.QuestionID,
			&r.Discipline,
			&board,
			&institution,
			&topics,
			&subjects,
			&r.IsCorrect,
			&r.OccurredAt,
		); err != nil {
			// One malformed row must not abort the fetch for the rest.
			slog.Warn("skipping malformed attempt row",
				"table", table.String(),
				"student_id", studentID,
				"error", err,
			)
			continue
		}
		r.StudentID = studentID
		r.Source = table
		if board != nil {
			r.Board = *board
		}
		if institution != nil {
			r.Institution = *institution
		}
		r.Topics = coerceStringSet(topics, table, r.QuestionID)
		r.Subjects = coerceStringSet(subjects, table, r.QuestionID)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", table, err)
	}
	return records, nil
}

// coerceStringSet decodes a jsonb set column. Null, non-array, or otherwise
// malformed values coerce to an empty set instead of failing the fetch; the
// historical data contains all three shapes.
func coerceStringSet(raw []byte, table Table, questionID string) []string {
	if len(raw) == 0 {
		return nil
	}

	var values []any
	if err := json.Unmarshal(raw, &values); err != nil {
		slog.Warn("coercing malformed set column to empty set",
			"table", table.String(),
			"question_id", questionID,
		)
		return nil
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
