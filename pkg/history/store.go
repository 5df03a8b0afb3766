package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned when a run id is not present in the store.
var ErrRunNotFound = errors.New("history: run not found")

// SetupSchema creates the history tables in db. It is idempotent and safe to
// call on an already-initialized database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaRuns = `
CREATE TABLE IF NOT EXISTS wordgen_runs (
    run_id          TEXT PRIMARY KEY,
    started_at      DATETIME NOT NULL,
    finished_at     DATETIME,
    input_path      TEXT NOT NULL,
    level           INTEGER NOT NULL,
    words_requested INTEGER NOT NULL,
    words_written   INTEGER NOT NULL DEFAULT 0,
    words_failed    INTEGER NOT NULL DEFAULT 0
);
`
		schemaWords = `
CREATE TABLE IF NOT EXISTS wordgen_words (
    word            TEXT PRIMARY KEY,
    first_run_id    TEXT NOT NULL,
    times_generated INTEGER NOT NULL DEFAULT 1,
    first_seen      DATETIME NOT NULL,
    last_seen       DATETIME NOT NULL
);
`
		indexLastSeen   = `CREATE INDEX IF NOT EXISTS idx_wordgen_words_last_seen ON wordgen_words (last_seen);`
		indexWordNoCase = `CREATE INDEX IF NOT EXISTS idx_wordgen_words_word_nocase ON wordgen_words (word COLLATE NOCASE);`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaRuns); err != nil {
		return fmt.Errorf("could not create runs schema: %w", err)
	}

	if _, err = tx.Exec(schemaWords); err != nil {
		return fmt.Errorf("could not create words schema: %w", err)
	}

	if _, err = tx.Exec(indexLastSeen); err != nil {
		return fmt.Errorf("could not create words index: %w", err)
	}

	if _, err = tx.Exec(indexWordNoCase); err != nil {
		return fmt.Errorf("could not create words index: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// RunInfo describes one generation run.
type RunInfo struct {
	ID             string     `json:"run_id"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	InputPath      string     `json:"input_path"`
	Level          int        `json:"level"`
	WordsRequested int        `json:"words_requested"`
	WordsWritten   int        `json:"words_written"`
	WordsFailed    int        `json:"words_failed"`
}

// WordInfo describes a word that has been generated at least once.
type WordInfo struct {
	Word           string    `json:"word"`
	FirstRunID     string    `json:"first_run_id"`
	TimesGenerated int       `json:"times_generated"`
	FirstSeen      time.Time `json:"first_seen"`
	LastSeen       time.Time `json:"last_seen"`
}

// Summary is a high-level overview of the store contents.
type Summary struct {
	Runs          int64 `json:"runs"`
	DistinctWords int64 `json:"distinct_words"`
	TotalWords    int64 `json:"total_words"`
}

// Store records generation runs and the words they produced.
type Store struct {
	db             *sql.DB
	stmtInsertRun  *sql.Stmt
	stmtFinishRun  *sql.Stmt
	stmtUpsertWord *sql.Stmt
	stmtSeen       *sql.Stmt
	stmtRuns       *sql.Stmt
	stmtTopWords   *sql.Stmt
	logger         *slog.Logger
}

// NewStore prepares the statements used by the Store. SetupSchema must have
// been called on db first.
func NewStore(db *sql.DB) (*Store, error) {

	stmtInsertRun, err := db.Prepare(`INSERT INTO wordgen_runs (run_id, started_at, input_path, level, words_requested) VALUES (?, ?, ?, ?, ?);`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare stmtInsertRun: %w", err)
	}

	stmtFinishRun, err := db.Prepare(`UPDATE wordgen_runs SET finished_at = ?, words_written = ?, words_failed = ? WHERE run_id = ?;`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare stmtFinishRun: %w", err)
	}

	stmtUpsertWord, err := db.Prepare(`INSERT INTO wordgen_words (word, first_run_id, first_seen, last_seen) VALUES (?, ?, ?, ?) ON CONFLICT(word) DO UPDATE SET times_generated = times_generated + 1, last_seen = excluded.last_seen;`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare stmtUpsertWord: %w", err)
	}

	stmtSeen, err := db.Prepare(`SELECT COUNT(*) FROM wordgen_words WHERE word = ? COLLATE NOCASE;`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare stmtSeen: %w", err)
	}

	stmtRuns, err := db.Prepare(`SELECT run_id, started_at, finished_at, input_path, level, words_requested, words_written, words_failed FROM wordgen_runs ORDER BY started_at DESC, rowid DESC LIMIT ?;`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare stmtRuns: %w", err)
	}

	stmtTopWords, err := db.Prepare(`SELECT word, first_run_id, times_generated, first_seen, last_seen FROM wordgen_words ORDER BY times_generated DESC, word ASC LIMIT ?;`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare stmtTopWords: %w", err)
	}

	return &Store{
		db:             db,
		stmtInsertRun:  stmtInsertRun,
		stmtFinishRun:  stmtFinishRun,
		stmtUpsertWord: stmtUpsertWord,
		stmtSeen:       stmtSeen,
		stmtRuns:       stmtRuns,
		stmtTopWords:   stmtTopWords,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases the prepared statements. The database itself is left open.
func (s *Store) Close() {
	_ = s.stmtInsertRun.Close()
	_ = s.stmtFinishRun.Close()
	_ = s.stmtUpsertWord.Close()
	_ = s.stmtSeen.Close()
	_ = s.stmtRuns.Close()
	_ = s.stmtTopWords.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// BeginRun records the start of a run and returns info with its ID and
// StartedAt filled in.
func (s *Store) BeginRun(ctx context.Context, info RunInfo) (RunInfo, error) {
	info.ID = uuid.NewString()
	info.StartedAt = time.Now().UTC()
	info.FinishedAt = nil

	if _, err := s.stmtInsertRun.ExecContext(ctx, info.ID, info.StartedAt, info.InputPath, info.Level, info.WordsRequested); err != nil {
		return RunInfo{}, fmt.Errorf("could not insert run: %w", err)
	}
	s.logger.Debug("Run started", "run_id", info.ID, "input", info.InputPath, "level", info.Level)
	return info, nil
}

// FinishRun stores the final counters of a run started with BeginRun.
func (s *Store) FinishRun(ctx context.Context, info RunInfo) (RunInfo, error) {
	now := time.Now().UTC()
	res, err := s.stmtFinishRun.ExecContext(ctx, now, info.WordsWritten, info.WordsFailed, info.ID)
	if err != nil {
		return info, fmt.Errorf("could not finish run %s: %w", info.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return info, fmt.Errorf("could not finish run %s: %w", info.ID, err)
	}
	if n == 0 {
		return info, fmt.Errorf("could not finish run %s: %w", info.ID, ErrRunNotFound)
	}
	info.FinishedAt = &now
	s.logger.Debug("Run finished", "run_id", info.ID, "written", info.WordsWritten, "failed", info.WordsFailed)
	return info, nil
}

// RecordWords stores every word of a run in a single transaction. Surrounding
// whitespace is trimmed and empty words are skipped.
func (s *Store) RecordWords(ctx context.Context, runID string, words []string) error {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	stmt := tx.StmtContext(ctx, s.stmtUpsertWord)
	recorded := 0
	for _, w := range words {
		w = normalize(w)
		if w == "" {
			continue
		}
		if _, err = stmt.ExecContext(ctx, w, runID, now, now); err != nil {
			return fmt.Errorf("could not record word %q: %w", w, err)
		}
		recorded++
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit words: %w", err)
	}
	s.logger.Debug("Words recorded", "run_id", runID, "count", recorded)
	return nil
}

// Seen reports whether word has been recorded before, ignoring ASCII case,
// so "Cat" and "cat" count as the same word.
func (s *Store) Seen(ctx context.Context, word string) (bool, error) {
	var n int
	if err := s.stmtSeen.QueryRowContext(ctx, normalize(word)).Scan(&n); err != nil {
		return false, fmt.Errorf("could not look up word %q: %w", word, err)
	}
	return n > 0, nil
}

// Runs returns up to limit runs, most recent first.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunInfo, error) {
	rows, err := s.stmtRuns.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("could not query runs: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var runs []RunInfo
	for rows.Next() {
		var r RunInfo
		var finished sql.NullTime
		if err = rows.Scan(&r.ID, &r.StartedAt, &finished, &r.InputPath, &r.Level, &r.WordsRequested, &r.WordsWritten, &r.WordsFailed); err != nil {
			return nil, fmt.Errorf("could not scan run: %w", err)
		}
		if finished.Valid {
			r.FinishedAt = &finished.Time
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// TopWords returns up to limit words, most frequently generated first.
func (s *Store) TopWords(ctx context.Context, limit int) ([]WordInfo, error) {
	rows, err := s.stmtTopWords.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("could not query words: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var words []WordInfo
	for rows.Next() {
		var w WordInfo
		if err = rows.Scan(&w.Word, &w.FirstRunID, &w.TimesGenerated, &w.FirstSeen, &w.LastSeen); err != nil {
			return nil, fmt.Errorf("could not scan word: %w", err)
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// Stats returns a summary of the store.
func (s *Store) Stats(ctx context.Context) (Summary, error) {
	var sum Summary
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM wordgen_runs").Scan(&sum.Runs); err != nil {
		return sum, fmt.Errorf("could not count runs: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*), COALESCE(SUM(times_generated), 0) FROM wordgen_words").Scan(&sum.DistinctWords, &sum.TotalWords); err != nil {
		return sum, fmt.Errorf("could not count words: %w", err)
	}
	return sum, nil
}

// Forget deletes words last generated before olderThan and returns how many
// were removed.
func (s *Store) Forget(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM wordgen_words WHERE last_seen < ?", olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("could not forget words: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("could not forget words: %w", err)
	}
	s.logger.Info("Forgot old words", "count", n, "older_than", olderThan)
	return n, nil
}

// normalize strips the separator a word may carry in running-text mode.
func normalize(word string) string {
	return strings.TrimSpace(word)
}
