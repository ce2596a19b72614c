package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func signal(url string, score float64, readTime int) *Assessment {
	return &Assessment{
		SourceURL:                url,
		Title:                    "Title of " + url,
		ContentSummary:           "Novel method",
		SignalScore:              score,
		IsSignal:                 true,
		CategoryCode:             "PROFESSIONAL",
		EstimatedReadTimeSeconds: readTime,
	}
}

func noise(url string, score float64, readTime int) *Assessment {
	return &Assessment{
		SourceURL:                url,
		Title:                    "Title of " + url,
		ContentSummary:           "Sensationalist clickbait",
		SignalScore:              score,
		IsSignal:                 false,
		RejectionReason:          ptr("Sensationalist clickbait"),
		CategoryCode:             "NEWS",
		EstimatedReadTimeSeconds: readTime,
	}
}

func vector(seed float32) []float32 {
	v := make([]float32, 768)
	for i := range v {
		v[i] = seed + float32(i)/1000
	}
	return v
}

func TestDialectFor(t *testing.T) {
	assert.Equal(t, Postgres, DialectFor("postgres://user:pw@db:5432/signal_engine"))
	assert.Equal(t, Postgres, DialectFor("postgresql://db/signal_engine"))
	assert.Equal(t, SQLite, DialectFor("/var/lib/signalengine/signalengine.db"))
	assert.Equal(t, SQLite, DialectFor("file:/tmp/x.db"))
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "postgres://user:***@db:5432/signal_engine", redact("postgres://user:password@db:5432/signal_engine"))
	assert.Equal(t, "postgres://db/x", redact("postgres://db/x"))
}

func TestOpenStripsFilePrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "s.db")
	db, err := Open("file:" + path)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, path, db.Path())
	assert.Equal(t, SQLite, db.Dialect())
	assert.Equal(t, "SQLite", db.Describe())
}

func TestInsertAndGetAssessment(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	a := signal("https://example.com/paper", 0.92, 300)
	a.Embedding = vector(0.25)

	id, err := db.InsertAssessment(ctx, a)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, a.ID)
	assert.False(t, a.AnalyzedAt.IsZero())

	got, err := db.GetAssessment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/paper", got.SourceURL)
	assert.Equal(t, "Title of https://example.com/paper", got.Title)
	assert.Equal(t, "Novel method", got.ContentSummary)
	assert.InDelta(t, 0.92, got.SignalScore, 1e-9)
	assert.True(t, got.IsSignal)
	assert.Nil(t, got.RejectionReason)
	assert.Equal(t, "PROFESSIONAL", got.CategoryCode)
	assert.Equal(t, 300, got.EstimatedReadTimeSeconds)
	require.Len(t, got.Embedding, 768)
	assert.True(t, got.HasEmbedding)
	assert.InDelta(t, a.Embedding[10], got.Embedding[10], 1e-6)
	assert.WithinDuration(t, a.AnalyzedAt, got.AnalyzedAt, time.Millisecond)
}

func TestInsertWithoutEmbedding(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.InsertAssessment(ctx, noise("https://example.com/bait", 0.05, 60))
	require.NoError(t, err)

	got, err := db.GetAssessment(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.Embedding)
	assert.False(t, got.HasEmbedding)
	assert.False(t, got.IsSignal)
	require.NotNil(t, got.RejectionReason)
	assert.Equal(t, "Sensationalist clickbait", *got.RejectionReason)
}

func TestGetAssessmentNotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetAssessment(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetAssessmentMalformedIDOnPostgres(t *testing.T) {
	db := &DB{dialect: Postgres}
	_, err := db.GetAssessment(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.SimilarAssessments(context.Background(), "not-a-uuid", 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListReportsEmbeddingPresence(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	with := signal("https://with.com", 0.9, 10)
	with.Embedding = vector(1)
	for _, a := range []*Assessment{with, signal("https://without.com", 0.9, 10)} {
		_, err := db.InsertAssessment(ctx, a)
		require.NoError(t, err)
	}

	all, err := db.ListAssessments(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, a := range all {
		assert.Nil(t, a.Embedding)
		assert.Equal(t, a.SourceURL == "https://with.com", a.HasEmbedding, a.SourceURL)
	}
}

func TestIdenticalAssessmentsAreSeparateRecords(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id1, err := db.InsertAssessment(ctx, signal("https://example.com/same", 0.8, 100))
	require.NoError(t, err)
	id2, err := db.InsertAssessment(ctx, signal("https://example.com/same", 0.8, 100))
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	all, err := db.ListAssessments(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListAssessmentsFilterAndOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, a := range []*Assessment{
		signal("https://a.com", 0.9, 100),
		noise("https://b.com", 0.1, 50),
		signal("https://c.com", 0.7, 200),
	} {
		a.AnalyzedAt = base.Add(time.Duration(i) * time.Minute)
		a.Embedding = vector(float32(i))
		_, err := db.InsertAssessment(ctx, a)
		require.NoError(t, err)
	}

	all, err := db.ListAssessments(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "https://c.com", all[0].SourceURL)
	assert.Equal(t, "https://a.com", all[2].SourceURL)
	assert.Nil(t, all[0].Embedding)

	signals, err := db.ListAssessments(ctx, Filter{IsSignal: boolPtr(true)})
	require.NoError(t, err)
	require.Len(t, signals, 2)
	for _, a := range signals {
		assert.True(t, a.IsSignal)
	}

	blocked, err := db.ListAssessments(ctx, Filter{IsSignal: boolPtr(false)})
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, "https://b.com", blocked[0].SourceURL)

	limited, err := db.ListAssessments(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "https://c.com", limited[0].SourceURL)
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	empty, err := db.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, *empty)

	for _, a := range []*Assessment{
		signal("https://a.com", 0.9, 100),
		noise("https://b.com", 0.1, 50),
		signal("https://c.com", 0.8, 200),
	} {
		_, err := db.InsertAssessment(ctx, a)
		require.NoError(t, err)
	}

	stats, err := db.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Signals)
	assert.Equal(t, 1, stats.Noise)
	assert.Equal(t, 350, stats.TotalReadTimeSeconds)
	assert.Equal(t, 50, stats.BlockedReadTimeSeconds)
	assert.InDelta(t, 0.6, stats.AvgScore, 1e-9)
}

func TestInsertFailsOnClosedDB(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Close())

	_, err := db.InsertAssessment(context.Background(), signal("https://a.com", 0.9, 1))
	assert.Error(t, err)
}
