package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/texdiff/internal"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS comparisons (
		id TEXT PRIMARY KEY,
		old_path TEXT NOT NULL,
		new_path TEXT NOT NULL,
		old_hash TEXT NOT NULL,
		new_hash TEXT NOT NULL,
		output_path TEXT,
		addition_colour TEXT NOT NULL,
		deletion_colour TEXT NOT NULL,
		provider TEXT NOT NULL,
		additions INTEGER DEFAULT 0,
		deletions INTEGER DEFAULT 0,
		warnings INTEGER DEFAULT 0,
		from_cache BOOLEAN DEFAULT FALSE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- comparison_output caches highlighted diffs by document content and style
	CREATE TABLE IF NOT EXISTS comparison_output (
		id TEXT PRIMARY KEY,
		old_hash TEXT NOT NULL,
		new_hash TEXT NOT NULL,
		addition_colour TEXT NOT NULL,
		deletion_colour TEXT NOT NULL,
		provider TEXT NOT NULL,
		output_text TEXT NOT NULL,
		additions INTEGER DEFAULT 0,
		deletions INTEGER DEFAULT 0,
		usage_count INTEGER DEFAULT 1,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(old_hash, new_hash, addition_colour, deletion_colour, provider)
	);

	CREATE INDEX IF NOT EXISTS idx_output_lookup ON comparison_output(old_hash, new_hash);
	CREATE INDEX IF NOT EXISTS idx_comparisons_created ON comparisons(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// OutputKey identifies a cached highlighted diff.
type OutputKey struct {
	OldHash        string
	NewHash        string
	AdditionColour string
	DeletionColour string
	Provider       string
}

// CachedOutput is a highlighted diff with the change counts it was
// produced with.
type CachedOutput struct {
	Text      string
	Additions int
	Deletions int
}

func (s *Store) SaveComparison(ctx context.Context, c internal.Comparison) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO comparisons (id, old_path, new_path, old_hash, new_hash, output_path, addition_colour, deletion_colour, provider, additions, deletions, warnings, from_cache, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OldPath, c.NewPath, c.OldHash, c.NewHash, c.OutputPath, c.AdditionColour, c.DeletionColour,
		c.Provider, c.Additions, c.Deletions, c.Warnings, c.FromCache, c.Timestamp)
	return err
}

func (s *Store) GetCachedOutput(ctx context.Context, key OutputKey) (CachedOutput, bool, error) {
	var out CachedOutput
	err := s.db.QueryRowContext(ctx,
		`SELECT output_text, additions, deletions FROM comparison_output
		 WHERE old_hash = ? AND new_hash = ? AND addition_colour = ? AND deletion_colour = ? AND provider = ?`,
		key.OldHash, key.NewHash, key.AdditionColour, key.DeletionColour, key.Provider).Scan(&out.Text, &out.Additions, &out.Deletions)

	if err == sql.ErrNoRows {
		return CachedOutput{}, false, nil
	}
	if err != nil {
		return CachedOutput{}, false, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE comparison_output SET usage_count = usage_count + 1, last_used = ?
		 WHERE old_hash = ? AND new_hash = ? AND addition_colour = ? AND deletion_colour = ? AND provider = ?`,
		time.Now(), key.OldHash, key.NewHash, key.AdditionColour, key.DeletionColour, key.Provider)

	return out, true, err
}

func (s *Store) SaveOutput(ctx context.Context, key OutputKey, out CachedOutput) error {
	id := fmt.Sprintf("out_%d", time.Now().UnixNano())
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO comparison_output (id, old_hash, new_hash, addition_colour, deletion_colour, provider, output_text, additions, deletions, usage_count, last_used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		id, key.OldHash, key.NewHash, key.AdditionColour, key.DeletionColour, key.Provider,
		out.Text, out.Additions, out.Deletions, time.Now(), time.Now())
	return err
}

// ListComparisons returns the recorded runs, newest first. limit ≤ 0 means all.
func (s *Store) ListComparisons(ctx context.Context, limit int) ([]internal.Comparison, error) {
	query := `SELECT id, old_path, new_path, old_hash, new_hash, COALESCE(output_path, ''), addition_colour, deletion_colour,
		provider, additions, deletions, warnings, from_cache, created_at
		FROM comparisons ORDER BY created_at DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []internal.Comparison
	for rows.Next() {
		var c internal.Comparison
		if err := rows.Scan(&c.ID, &c.OldPath, &c.NewPath, &c.OldHash, &c.NewHash, &c.OutputPath,
			&c.AdditionColour, &c.DeletionColour, &c.Provider, &c.Additions, &c.Deletions,
			&c.Warnings, &c.FromCache, &c.Timestamp); err != nil {
			return nil, err
		}
		results = append(results, c)
	}

	return results, rows.Err()
}

// HistoryStats summarises recorded comparisons and cached output.
type HistoryStats struct {
	Comparisons    int
	CacheHits      int
	TotalAdditions int
	TotalDeletions int
	CachedOutputs  int
	CacheUsage     int
}

func (s *Store) Stats(ctx context.Context) (*HistoryStats, error) {
	stats := &HistoryStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN from_cache THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(additions), 0),
			COALESCE(SUM(deletions), 0)
		FROM comparisons`).Scan(
		&stats.Comparisons,
		&stats.CacheHits,
		&stats.TotalAdditions,
		&stats.TotalDeletions,
	)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(usage_count), 0) FROM comparison_output`).Scan(
		&stats.CachedOutputs,
		&stats.CacheUsage,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// DeleteComparison removes a recorded run by ID.
func (s *Store) DeleteComparison(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comparisons WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("comparison not found: %s", id)
	}
	return nil
}

// ClearOutput removes every cached output and returns how many were deleted.
func (s *Store) ClearOutput(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comparison_output`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ClearHistory removes every recorded comparison.
func (s *Store) ClearHistory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comparisons`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ContentHash returns a hex SHA-256 of text after Unicode NFC
// normalization. Surrounding white space is significant: a trailing blank
// line decides whether a flattened document keeps its last paragraph.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(norm.NFC.String(text)))
	return hex.EncodeToString(sum[:])
}
