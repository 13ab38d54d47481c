package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// ExerciseImport is one row of a content upload batch.
type ExerciseImport struct {
	CategoryID  int64           `json:"category_id"`
	GroupID     *uuid.UUID      `json:"group_id,omitempty"`
	OrderIndex  *int            `json:"order_index,omitempty"`
	Content     json.RawMessage `json:"content"`
	Answer      string          `json:"answer"`
	Explanation string          `json:"explanation,omitempty"`
}

// ImportExercises inserts a batch of exercises in one transaction and
// returns how many rows were written.
func (s *SQLStore) ImportExercises(ctx context.Context, items []ExerciseImport) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, it := range items {
		var groupID any
		if it.GroupID != nil {
			groupID = it.GroupID.String()
		}
		var orderIndex any
		if it.OrderIndex != nil {
			orderIndex = *it.OrderIndex
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO exercises
			(category_id, group_id, order_index, content, answer, explanation, is_active)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			it.CategoryID, groupID, orderIndex, string(it.Content), it.Answer, it.Explanation, true); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(items), nil
}
