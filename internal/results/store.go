package results

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/qcm-trainer/backend/internal/models"
)

// Store keeps finished quiz results. It satisfies the recorder interface
// the quiz engine writes through when a session finishes.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append records one finished quiz. The engine fills everything except
// ID and CreatedAt.
func (s *Store) Append(ctx context.Context, result models.Result) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results (id, chapter_label, score, total, percentage, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		result.ID, result.ChapterLabel, result.Score, result.Total,
		result.Percentage, result.CreatedAt)
	if err != nil {
		return fmt.Errorf("append result: %w", err)
	}
	return nil
}

// ListAll returns every recorded result, newest first.
func (s *Store) ListAll(ctx context.Context) ([]models.Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chapter_label, score, total, percentage, created_at
		 FROM results ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []models.Result
	for rows.Next() {
		var r models.Result
		err := rows.Scan(&r.ID, &r.ChapterLabel, &r.Score, &r.Total,
			&r.Percentage, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
