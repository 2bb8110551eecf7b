package postgres

import (
	"context"
	"errors"
	"fmt"

	"flag-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Store persists preferences and quiz results in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) GetPreferences(ctx context.Context, playerID string) (domain.Preferences, error) {
	var prefs domain.Preferences
	err := s.pool.QueryRow(ctx,
		`SELECT choices, regions FROM preferences WHERE player_id=$1`, playerID,
	).Scan(&prefs.Choices, &prefs.Regions)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Preferences{}, domain.ErrPreferencesNotFound
	}
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("load preferences: %w", err)
	}
	return prefs, nil
}

func (s *Store) SavePreferences(ctx context.Context, playerID string, prefs domain.Preferences) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO preferences (player_id, choices, regions, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (player_id) DO UPDATE
		SET choices=EXCLUDED.choices, regions=EXCLUDED.regions, updated_at=EXCLUDED.updated_at`,
		playerID, prefs.Choices, prefs.Regions,
	)
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

func (s *Store) SaveResult(ctx context.Context, result domain.QuizResult) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO quiz_results (id, player_id, total_guesses, correct_answers, score, choices, regions, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		result.ID, result.PlayerID, result.TotalGuesses, result.CorrectAnswers,
		result.Score, result.Choices, result.Regions, result.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (s *Store) ListResults(ctx context.Context, playerID string, limit int) ([]domain.QuizResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, player_id, total_guesses, correct_answers, score, choices, regions, completed_at
		FROM quiz_results
		WHERE player_id=$1
		ORDER BY completed_at DESC
		LIMIT $2`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	results := make([]domain.QuizResult, 0, limit)
	for rows.Next() {
		var r domain.QuizResult
		if err := rows.Scan(&r.ID, &r.PlayerID, &r.TotalGuesses, &r.CorrectAnswers, &r.Score, &r.Choices, &r.Regions, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return results, nil
}
