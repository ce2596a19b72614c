package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

const (
	assessmentsTable = "content_history"

	// DefaultListLimit applies when Filter.Limit is not positive.
	DefaultListLimit = 50

	// sqliteTimeLayout keeps fixed-width fractions so text order is time order.
	sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// ErrNotFound is returned when no assessment has the requested ID.
var ErrNotFound = errors.New("assessment not found")

var assessmentColumns = []string{
	"id", "source_url", "title", "content_summary", "signal_score", "is_signal",
	"rejection_reason", "category_code", "estimated_read_time_seconds", "analyzed_at",
}

// selectColumns returns assessmentColumns plus the has-embedding flag and,
// when withEmbedding is set, the vector itself.
func selectColumns(withEmbedding bool) []string {
	cols := make([]string, 0, len(assessmentColumns)+2)
	cols = append(cols, assessmentColumns...)
	cols = append(cols, "embedding IS NOT NULL")
	if withEmbedding {
		cols = append(cols, "embedding")
	}
	return cols
}

// InsertAssessment stores a and returns its ID. A missing ID or timestamp
// is filled in.
func (db *DB) InsertAssessment(ctx context.Context, a *Assessment) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.AnalyzedAt.IsZero() {
		a.AnalyzedAt = time.Now().UTC()
	}
	a.HasEmbedding = a.Embedding != nil

	var embedding any
	if a.Embedding != nil {
		embedding = pgvector.NewVector(a.Embedding)
	}

	query, args, err := db.sb.Insert(assessmentsTable).
		Columns(append(assessmentColumns, "embedding")...).
		Values(
			a.ID, a.SourceURL, a.Title, a.ContentSummary, a.SignalScore, a.IsSignal,
			a.RejectionReason, a.CategoryCode, a.EstimatedReadTimeSeconds, db.timeValue(a.AnalyzedAt),
			embedding,
		).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("building insert: %w", err)
	}

	if _, err := db.conn.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("inserting assessment: %w", err)
	}
	return a.ID, nil
}

// ListAssessments returns the newest assessments first, without embeddings.
func (db *DB) ListAssessments(ctx context.Context, f Filter) ([]Assessment, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	q := db.sb.Select(selectColumns(false)...).
		From(assessmentsTable).
		OrderBy("analyzed_at DESC").
		Limit(uint64(limit))
	if f.IsSignal != nil {
		q = q.Where(sq.Eq{"is_signal": *f.IsSignal})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing assessments: %w", err)
	}
	defer rows.Close()

	var out []Assessment
	for rows.Next() {
		var a Assessment
		if err := scanAssessment(rows, &a, false); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetAssessment returns one assessment including its embedding.
func (db *DB) GetAssessment(ctx context.Context, id string) (*Assessment, error) {
	// Postgres rejects malformed values for a UUID column.
	if db.dialect == Postgres {
		if _, err := uuid.Parse(id); err != nil {
			return nil, ErrNotFound
		}
	}

	query, args, err := db.sb.Select(selectColumns(true)...).
		From(assessmentsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	var a Assessment
	if err := scanAssessment(db.conn.QueryRowContext(ctx, query, args...), &a, true); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// GetStats aggregates counts, read time and the mean score.
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	query, args, err := db.sb.Select(
		"COUNT(*)",
		"COALESCE(SUM(CASE WHEN is_signal THEN 1 ELSE 0 END), 0)",
		"COALESCE(SUM(estimated_read_time_seconds), 0)",
		"COALESCE(SUM(CASE WHEN is_signal THEN 0 ELSE estimated_read_time_seconds END), 0)",
		"COALESCE(AVG(signal_score), 0)",
	).From(assessmentsTable).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	var s Stats
	err = db.conn.QueryRowContext(ctx, query, args...).Scan(
		&s.Total, &s.Signals, &s.TotalReadTimeSeconds, &s.BlockedReadTimeSeconds, &s.AvgScore,
	)
	if err != nil {
		return nil, fmt.Errorf("computing stats: %w", err)
	}
	s.Noise = s.Total - s.Signals
	return &s, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanAssessment reads the columns of selectColumns(withEmbedding).
func scanAssessment(row scanner, a *Assessment, withEmbedding bool) error {
	var (
		title, summary, category sql.NullString
		score                    sql.NullFloat64
		rejection                sql.NullString
		analyzedAt               string
		embedding                sql.NullString
	)
	dest := []any{
		&a.ID, &a.SourceURL, &title, &summary, &score, &a.IsSignal,
		&rejection, &category, &a.EstimatedReadTimeSeconds, &analyzedAt,
		&a.HasEmbedding,
	}
	if withEmbedding {
		dest = append(dest, &embedding)
	}

	if err := row.Scan(dest...); err != nil {
		return err
	}

	a.Title = title.String
	a.ContentSummary = summary.String
	a.SignalScore = score.Float64
	a.CategoryCode = category.String
	if rejection.Valid {
		a.RejectionReason = &rejection.String
	}

	t, err := time.Parse(time.RFC3339Nano, analyzedAt)
	if err != nil {
		return fmt.Errorf("parsing analyzed_at %q: %w", analyzedAt, err)
	}
	a.AnalyzedAt = t

	if embedding.Valid {
		var v pgvector.Vector
		if err := v.Scan(embedding.String); err != nil {
			return fmt.Errorf("decoding embedding: %w", err)
		}
		a.Embedding = v.Slice()
	}
	return nil
}

// timeValue converts t to the representation stored by the dialect.
func (db *DB) timeValue(t time.Time) any {
	if db.dialect == SQLite {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t
}
