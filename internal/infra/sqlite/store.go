// Package sqlite keeps preferences and quiz results in a local SQLite file,
// the single-device counterpart of the Postgres store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"flag-quiz-service/internal/domain"
	_ "modernc.org/sqlite"
)

// Store implements the preference and result stores on SQLite.
type Store struct {
	db *sql.DB
}

// Open creates the database file if needed and applies the schema.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS preferences (
		player_id TEXT PRIMARY KEY,
		choices INTEGER NOT NULL,
		regions TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS quiz_results (
		id TEXT PRIMARY KEY,
		player_id TEXT NOT NULL,
		total_guesses INTEGER NOT NULL,
		correct_answers INTEGER NOT NULL,
		score REAL NOT NULL,
		choices INTEGER NOT NULL,
		regions TEXT NOT NULL,
		completed_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_quiz_results_player ON quiz_results(player_id, completed_at);
	`
	_, err := s.db.Exec(query)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) GetPreferences(ctx context.Context, playerID string) (domain.Preferences, error) {
	var (
		prefs   domain.Preferences
		regions string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT choices, regions FROM preferences WHERE player_id = ?`, playerID,
	).Scan(&prefs.Choices, &regions)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Preferences{}, domain.ErrPreferencesNotFound
	}
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("load preferences: %w", err)
	}
	prefs.Regions = splitRegions(regions)
	return prefs, nil
}

func (s *Store) SavePreferences(ctx context.Context, playerID string, prefs domain.Preferences) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (player_id, choices, regions, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(player_id) DO UPDATE SET
			choices = excluded.choices,
			regions = excluded.regions,
			updated_at = excluded.updated_at`,
		playerID, prefs.Choices, strings.Join(prefs.Regions, ","), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

func (s *Store) SaveResult(ctx context.Context, result domain.QuizResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quiz_results (id, player_id, total_guesses, correct_answers, score, choices, regions, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID, result.PlayerID, result.TotalGuesses, result.CorrectAnswers,
		result.Score, result.Choices, strings.Join(result.Regions, ","), result.CompletedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (s *Store) ListResults(ctx context.Context, playerID string, limit int) ([]domain.QuizResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, player_id, total_guesses, correct_answers, score, choices, regions, completed_at
		FROM quiz_results
		WHERE player_id = ?
		ORDER BY completed_at DESC
		LIMIT ?`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	results := []domain.QuizResult{}
	for rows.Next() {
		var (
			r         domain.QuizResult
			regions   string
			completed int64
		)
		if err := rows.Scan(&r.ID, &r.PlayerID, &r.TotalGuesses, &r.CorrectAnswers, &r.Score, &r.Choices, &regions, &completed); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Regions = splitRegions(regions)
		r.CompletedAt = time.UnixMilli(completed).UTC()
		results = append(results, r)
	}
	return results, rows.Err()
}

func splitRegions(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
