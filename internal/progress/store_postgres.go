package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore is the remote, server-authoritative progress store. The
// document is stored as one jsonb row per (user, course); writes overwrite
// whole documents, last write wins.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a remote progress store over the
// user_course_progress table.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Get(ctx context.Context, userID, courseID string) (*UserCourseProgress, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc
		 FROM user_course_progress
		 WHERE user_id = $1 AND course_id = $2`,
		userID, courseID,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get progress: %w", err)
	}

	return decodeDocument(doc, userID, courseID)
}

func (s *PostgresStore) Put(ctx context.Context, p *UserCourseProgress) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO user_course_progress (user_id, course_id, doc, updated_at)
		 VALUES ($1, $2, $3::jsonb, $4)
		 ON CONFLICT (user_id, course_id)
		 DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`,
		p.UserID, p.CourseID, doc, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

// decodeDocument validates and unmarshals a stored progress document.
// Invalid documents are reported as ErrNotFound so callers fall through to
// defaults instead of loading a half-broken state.
func decodeDocument(doc []byte, userID, courseID string) (*UserCourseProgress, error) {
	if err := ValidateDocument(doc); err != nil {
		slog.Warn("discarding invalid progress document",
			"user_id", userID,
			"course_id", courseID,
			"error", err,
		)
		return nil, ErrNotFound
	}

	var p UserCourseProgress
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("unmarshal progress: %w", err)
	}
	if p.SubjectsData == nil {
		p.SubjectsData = map[string]TopicEntry{}
	}
	return &p, nil
}
