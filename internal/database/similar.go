package database

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	sq "github.com/Masterminds/squirrel"
	"github.com/pgvector/pgvector-go"
)

// ErrNoEmbedding is returned when the reference assessment has no vector.
var ErrNoEmbedding = errors.New("assessment has no embedding")

// Match is an assessment and its cosine distance to a reference.
type Match struct {
	Assessment
	Distance float64
}

// SimilarAssessments returns the assessments closest to id by cosine
// distance, nearest first. The reference itself is excluded.
func (db *DB) SimilarAssessments(ctx context.Context, id string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 10
	}

	ref, err := db.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	if ref.Embedding == nil {
		return nil, ErrNoEmbedding
	}

	if db.dialect == Postgres {
		return db.similarPostgres(ctx, ref, limit)
	}
	return db.similarSQLite(ctx, ref, limit)
}

// similarPostgres lets pgvector order by the <=> operator.
func (db *DB) similarPostgres(ctx context.Context, ref *Assessment, limit int) ([]Match, error) {
	query, args, err := db.sb.Select(selectColumns(false)...).
		Column(sq.Expr("embedding <=> ? AS distance", pgvector.NewVector(ref.Embedding))).
		From(assessmentsTable).
		Where(sq.NotEq{"id": ref.ID}).
		Where("embedding IS NOT NULL").
		OrderBy("distance").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying similar assessments: %w", err)
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var m Match
		if err := scanAssessment(distanceScanner{rows, &m.Distance}, &m.Assessment, false); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// similarSQLite ranks every stored vector in memory.
func (db *DB) similarSQLite(ctx context.Context, ref *Assessment, limit int) ([]Match, error) {
	query, args, err := db.sb.Select(selectColumns(true)...).
		From(assessmentsTable).
		Where(sq.NotEq{"id": ref.ID}).
		Where("embedding IS NOT NULL").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying similar assessments: %w", err)
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var m Match
		if err := scanAssessment(rows, &m.Assessment, true); err != nil {
			return nil, err
		}
		if len(m.Embedding) != len(ref.Embedding) {
			continue
		}
		m.Distance = CosineDistance(ref.Embedding, m.Embedding)
		m.Embedding = nil
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// distanceScanner appends the trailing distance column to a row scan.
type distanceScanner struct {
	row      scanner
	distance *float64
}

func (d distanceScanner) Scan(dest ...any) error {
	return d.row.Scan(append(dest, d.distance)...)
}

// CosineDistance returns 1 - cos(a, b). Zero vectors are at distance 1.
func CosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
