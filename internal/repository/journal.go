package repository

import (
	"context"
	"fmt"

	"github.com/Foy7er/FinQuest/internal/model"
)

// AppendJournal records a balance change. ID and CreatedAt are filled in.
func (s *PostgresStore) AppendJournal(ctx context.Context, entry *model.JournalEntry) error {
	const query = `
		INSERT INTO journal (user_id, amount, field, type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`

	err := s.q.QueryRow(ctx, query,
		entry.UserID, entry.Amount, string(entry.Field), entry.Type, entry.Description,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append journal: %w", err)
	}

	return nil
}

// ListJournal retrieves the most recent entries for a user.
func (s *PostgresStore) ListJournal(ctx context.Context, userID int64, limit int) ([]model.JournalEntry, error) {
	const query = `
		SELECT id, user_id, amount, field, type, description, created_at
		FROM journal
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := s.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal: %w", err)
	}
	defer rows.Close()

	var entries []model.JournalEntry
	for rows.Next() {
		var e model.JournalEntry
		err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Amount,
			&e.Field,
			&e.Type,
			&e.Description,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal: %w", err)
	}

	return entries, nil
}
