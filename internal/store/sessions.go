package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glagol-app/glagol/internal/task"
)

// Load assembles the solving session for a user: their selected category
// and its parent link, the currently assigned exercises, the assignment
// start time and the opaque task config.
func (s *SQLStore) Load(ctx context.Context, userID int64) (*task.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT current_category_id, exercise_started_at, task_config
		FROM users WHERE id=$1`, userID)

	var categoryID sql.NullInt64
	var startedAt sql.NullInt64
	var config sql.NullString
	if err := row.Scan(&categoryID, &startedAt, &config); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		return nil, err
	}

	sess := &task.Session{UserID: userID}
	if startedAt.Valid {
		t := time.Unix(startedAt.Int64, 0)
		sess.StartedAt = &t
	}
	if config.Valid && config.String != "" {
		sess.TaskConfig = json.RawMessage(config.String)
	}

	if categoryID.Valid {
		cat, err := s.CategoryByID(ctx, categoryID.Int64)
		if err != nil {
			return nil, err
		}
		sess.Category = cat
	}

	exs, err := s.queryExercises(ctx, `SELECT e.`+exerciseJoinColumns+` FROM exercises e
		JOIN user_exercises ue ON ue.exercise_id = e.id
		WHERE ue.user_id=$1 ORDER BY ue.position`, userID)
	if err != nil {
		return nil, err
	}
	sess.Exercises = exs
	return sess, nil
}

const exerciseJoinColumns = `id, e.category_id, e.group_id, e.order_index, e.content, e.answer, e.explanation, e.is_active`

// SaveAssignment replaces the user's current exercise set, start time and
// task config atomically.
func (s *SQLStore) SaveAssignment(ctx context.Context, userID int64, exerciseIDs []int64, startedAt time.Time, config json.RawMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_exercises WHERE user_id=$1`, userID); err != nil {
		return err
	}
	for i, id := range exerciseIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO user_exercises (user_id, exercise_id, position)
			VALUES ($1,$2,$3)`, userID, id, i); err != nil {
			return err
		}
	}

	var cfg any
	if len(config) > 0 {
		cfg = string(config)
	}
	res, err := tx.ExecContext(ctx, `UPDATE users SET exercise_started_at=$1, task_config=$2 WHERE id=$3`,
		startedAt.Unix(), cfg, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return tx.Commit()
}

// SetCurrentCategory points the user at a category and clears any stale
// assignment from the previous one.
func (s *SQLStore) SetCurrentCategory(ctx context.Context, userID, categoryID int64) error {
	if _, err := s.CategoryByID(ctx, categoryID); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_exercises WHERE user_id=$1`, userID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE users
		SET current_category_id=$1, exercise_started_at=NULL, task_config=NULL WHERE id=$2`,
		categoryID, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return tx.Commit()
}
