// Package progress persists which puzzles each user has solved.
package progress

import (
	"context"
	"database/sql"
	"time"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Record upserts one row keyed by (userID, puzzleID).
func (s *Store) Record(ctx context.Context, userID, puzzleID string, solved bool) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO puzzle_progress (user_id, puzzle_id, solved, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(user_id, puzzle_id) DO UPDATE
            SET solved=excluded.solved, updated_at=excluded.updated_at`,
		userID, puzzleID, solved, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// Solved lists the puzzle IDs the user has solved, oldest update first.
func (s *Store) Solved(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT puzzle_id
        FROM puzzle_progress
        WHERE user_id=? AND solved=1
        ORDER BY updated_at ASC, puzzle_id ASC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
