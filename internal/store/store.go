// Package store persists the chunk-level translation memory and a journal
// of document runs in a local sqlite database. Memory hits let a re-run of
// a failed chapter skip chunks that already translated cleanly.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// New opens (and migrates) the database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	-- chunk_memory caches successful chunk translations across runs
	CREATE TABLE IF NOT EXISTS chunk_memory (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		provider TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		usage_count INTEGER DEFAULT 1,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_text, target_lang, provider)
	);

	-- runs journals each document translation attempt
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		book TEXT NOT NULL,
		chapter_index INTEGER NOT NULL,
		provider TEXT NOT NULL,
		status TEXT NOT NULL,
		detail TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_chunk_memory_lookup ON chunk_memory(source_text, target_lang, provider);
	CREATE INDEX IF NOT EXISTS idx_runs_book ON runs(book, chapter_index);
	`

	_, err := s.db.Exec(schema)
	return err
}

// GetChunk returns the cached translation for a chunk, if present.
func (s *Store) GetChunk(ctx context.Context, sourceText, targetLang, provider string) (string, bool, error) {
	var translated string
	err := s.db.QueryRowContext(ctx,
		`SELECT translated_text FROM chunk_memory WHERE source_text = ? AND target_lang = ? AND provider = ?`,
		normalizeText(sourceText), targetLang, provider).Scan(&translated)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE chunk_memory SET usage_count = usage_count + 1, last_used = ? WHERE source_text = ? AND target_lang = ? AND provider = ?`,
		time.Now(), normalizeText(sourceText), targetLang, provider)

	return translated, true, err
}

// SaveChunk records a successful chunk translation.
func (s *Store) SaveChunk(ctx context.Context, sourceText, targetLang, provider, translatedText string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO chunk_memory (id, source_text, target_lang, provider, translated_text, usage_count, last_used, created_at) VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
		uuid.New().String(), normalizeText(sourceText), targetLang, provider, translatedText, time.Now(), time.Now())
	return err
}

// SaveRun journals the outcome of one document translation. status is
// "success" or "failed"; detail carries the failure reason.
func (s *Store) SaveRun(ctx context.Context, book string, chapterIndex int, provider, status, detail string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, book, chapter_index, provider, status, detail) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), book, chapterIndex, provider, status, detail)
	return err
}

// Stats summarizes the memory store.
type Stats struct {
	CachedChunks int
	TotalRuns    int
	FailedRuns   int
}

// GetStats returns counts for the cache command.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunk_memory`).Scan(&st.CachedChunks); err != nil {
		return st, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&st.TotalRuns); err != nil {
		return st, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE status = 'failed'`).Scan(&st.FailedRuns); err != nil {
		return st, err
	}
	return st, nil
}

// ClearMemory drops every cached chunk translation.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chunk_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}

func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
