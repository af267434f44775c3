package vectorstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func openTestIndex(t *testing.T, path string, dim int) *SQLiteIndex {
	t.Helper()

	idx, err := NewSQLiteIndex(path, dim, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSQLiteIndex() error = %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestSQLiteIndex_UpsertReplacesByID(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t, filepath.Join(t.TempDir(), "index.db"), 3)

	entry := Entry{
		ID:       "sub-1",
		Vector:   []float32{1, 0, 0},
		Text:     "first version",
		Metadata: Metadata{AssignmentID: "a1", StudentID: "s1", SourceDocID: "sub-1"},
	}
	if err := idx.Upsert(ctx, entry); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	entry.Vector = []float32{0, 1, 0}
	entry.Text = "second version"
	if err := idx.Upsert(ctx, entry); err != nil {
		t.Fatalf("Upsert() replace error = %v", err)
	}

	got, err := idx.Get(ctx, "sub-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil {
		t.Fatal("Get() = nil, want entry")
	}
	if got.Text != "second version" {
		t.Errorf("Text = %q, want %q", got.Text, "second version")
	}
	if got.Vector[1] != 1 {
		t.Errorf("Vector = %v, want replaced vector", got.Vector)
	}
	if got.Metadata.AssignmentID != "a1" || got.Metadata.StudentID != "s1" {
		t.Errorf("Metadata = %+v, want a1/s1", got.Metadata)
	}
}

func TestSQLiteIndex_WrongDimensionRejected(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t, filepath.Join(t.TempDir(), "index.db"), 3)

	err := idx.Upsert(ctx, Entry{ID: "x", Vector: []float32{1, 2}})
	if err == nil {
		t.Fatal("Upsert() with short vector: error = nil, want dimension error")
	}

	if _, err := idx.QueryBySimilarity(ctx, []float32{1, 2, 3, 4}, 1); err == nil {
		t.Fatal("QueryBySimilarity() with long vector: error = nil, want dimension error")
	}
}

func TestSQLiteIndex_QueryRanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t, filepath.Join(t.TempDir(), "index.db"), 3)

	entries := []Entry{
		{ID: "exact", Vector: []float32{1, 0, 0}},
		{ID: "close", Vector: []float32{1, 0.5, 0}},
		{ID: "orthogonal", Vector: []float32{0, 0, 1}},
	}
	for _, e := range entries {
		if err := idx.Upsert(ctx, e); err != nil {
			t.Fatalf("Upsert(%s) error = %v", e.ID, err)
		}
	}

	matches, err := idx.QueryBySimilarity(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("QueryBySimilarity() error = %v", err)
	}

	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2", len(matches))
	}
	if matches[0].ID != "exact" {
		t.Errorf("matches[0].ID = %q, want %q", matches[0].ID, "exact")
	}
	if matches[1].ID != "close" {
		t.Errorf("matches[1].ID = %q, want %q", matches[1].ID, "close")
	}
	if matches[0].Score < matches[1].Score {
		t.Errorf("scores not descending: %v", matches)
	}
}

func TestSQLiteIndex_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.db")

	idx, err := NewSQLiteIndex(path, 3, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSQLiteIndex() error = %v", err)
	}
	if err := idx.Upsert(ctx, Entry{ID: "durable", Vector: []float32{0.5, 0.5, 0}, Text: "kept"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened := openTestIndex(t, path, 3)
	got, err := reopened.Get(ctx, "durable")
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if got == nil || got.Text != "kept" {
		t.Fatalf("Get() after reopen = %+v, want persisted entry", got)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-6 || diff < -1e-6 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}
