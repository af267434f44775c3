package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // driver: sqlite
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id            TEXT PRIMARY KEY,
	vector        BLOB NOT NULL,
	text          TEXT NOT NULL,
	assignment_id TEXT NOT NULL DEFAULT '',
	student_id    TEXT NOT NULL DEFAULT '',
	source_doc_id TEXT NOT NULL DEFAULT '',
	updated_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_assignment ON entries (assignment_id);
`

// SQLiteIndex persists vectors in a local sqlite file, one row per entry.
// Vector, text and metadata live in the same row, so an upsert is atomic
// by construction.
type SQLiteIndex struct {
	db     *sql.DB
	dim    int
	logger zerolog.Logger
}

func NewSQLiteIndex(path string, dim int, logger zerolog.Logger) (*SQLiteIndex, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector index: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure index schema: %w", err)
	}

	logger.Info().Str("path", path).Int("dimension", dim).Msg("Vector index opened")

	return &SQLiteIndex{db: db, dim: dim, logger: logger}, nil
}

func (s *SQLiteIndex) Upsert(ctx context.Context, entry Entry) error {
	if len(entry.Vector) != s.dim {
		return fmt.Errorf("vector dimension %d does not match index dimension %d", len(entry.Vector), s.dim)
	}

	query := `
		INSERT INTO entries (id, vector, text, assignment_id, student_id, source_doc_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			vector = excluded.vector,
			text = excluded.text,
			assignment_id = excluded.assignment_id,
			student_id = excluded.student_id,
			source_doc_id = excluded.source_doc_id,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		encodeVector(entry.Vector),
		entry.Text,
		entry.Metadata.AssignmentID,
		entry.Metadata.StudentID,
		entry.Metadata.SourceDocID,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert index entry: %w", err)
	}

	return nil
}

func (s *SQLiteIndex) QueryBySimilarity(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if len(vector) != s.dim {
		return nil, fmt.Errorf("query vector dimension %d does not match index dimension %d", len(vector), s.dim)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, vector FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan index: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan index row: %w", err)
		}

		stored, err := decodeVector(blob)
		if err != nil {
			s.logger.Warn().Str("id", id).Err(err).Msg("Skipping undecodable index entry")
			continue
		}

		matches = append(matches, Match{ID: id, Score: CosineSimilarity(vector, stored)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate index rows: %w", err)
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if k > 0 && k < len(matches) {
		matches = matches[:k]
	}

	return matches, nil
}

func (s *SQLiteIndex) Get(ctx context.Context, id string) (*Entry, error) {
	query := `
		SELECT id, vector, text, assignment_id, student_id, source_doc_id
		FROM entries
		WHERE id = $1
	`

	entry := &Entry{}
	var blob []byte

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&entry.ID,
		&blob,
		&entry.Text,
		&entry.Metadata.AssignmentID,
		&entry.Metadata.StudentID,
		&entry.Metadata.SourceDocID,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get index entry: %w", err)
	}

	entry.Vector, err = decodeVector(blob)
	if err != nil {
		return nil, fmt.Errorf("failed to decode stored vector: %w", err)
	}

	return entry, nil
}

func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

// encodeVector packs a vector as little-endian float32 bits.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
