package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/glagol-app/glagol/internal/db"
	"github.com/glagol-app/glagol/internal/task"
)

// ErrNotFound reports a missing row for a lookup by id or name.
var ErrNotFound = errors.New("not found")

// SQLStore serves all persistence concerns over one database handle. It
// works against sqlite and postgres; the few JSON predicates that differ
// between them switch on the driver.
type SQLStore struct {
	db     *sql.DB
	driver db.Driver
	now    func() time.Time
}

func NewSQLStore(database *sql.DB, driver db.Driver) *SQLStore {
	return &SQLStore{db: database, driver: driver, now: time.Now}
}

// jsonFieldNotNull builds the per-driver predicate for "content JSON has
// a non-null field". The field name comes from a fixed internal set, not
// from user input.
func (s *SQLStore) jsonFieldNotNull(field string) string {
	if s.driver == db.DriverPostgres {
		return fmt.Sprintf("content::jsonb->>'%s' IS NOT NULL", field)
	}
	return fmt.Sprintf("json_extract(content, '$.%s') IS NOT NULL", field)
}

func (s *SQLStore) jsonFieldEquals(field string) string {
	if s.driver == db.DriverPostgres {
		return fmt.Sprintf("content::jsonb->>'%s' = ", field)
	}
	return fmt.Sprintf("json_extract(content, '$.%s') = ", field)
}

const exerciseColumns = `id, category_id, group_id, order_index, content, answer, explanation, is_active`

func scanExercise(rows *sql.Rows) (task.Exercise, error) {
	var ex task.Exercise
	var groupID sql.NullString
	var orderIndex sql.NullInt64
	var content string
	if err := rows.Scan(&ex.ID, &ex.CategoryID, &groupID, &orderIndex, &content, &ex.Answer, &ex.Explanation, &ex.Active); err != nil {
		return task.Exercise{}, err
	}
	ex.Content = []byte(content)
	if groupID.Valid {
		gid, err := uuid.Parse(groupID.String)
		if err != nil {
			return task.Exercise{}, fmt.Errorf("exercise %d group id: %w", ex.ID, err)
		}
		ex.GroupID = &gid
	}
	if orderIndex.Valid {
		oi := int(orderIndex.Int64)
		ex.OrderIndex = &oi
	}
	return ex, nil
}

func (s *SQLStore) queryExercises(ctx context.Context, query string, args ...any) ([]task.Exercise, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []task.Exercise
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

func (s *SQLStore) Random(ctx context.Context, categoryID int64, limit int) ([]task.Exercise, error) {
	return s.queryExercises(ctx, `SELECT `+exerciseColumns+` FROM exercises
		WHERE category_id=$1 AND is_active
		ORDER BY random() LIMIT $2`, categoryID, limit)
}

func (s *SQLStore) RandomWithContentField(ctx context.Context, categoryID int64, field string, limit int) ([]task.Exercise, error) {
	return s.queryExercises(ctx, `SELECT `+exerciseColumns+` FROM exercises
		WHERE category_id=$1 AND is_active AND `+s.jsonFieldNotNull(field)+`
		ORDER BY random() LIMIT $2`, categoryID, limit)
}

// RandomDistinctGroups keeps at most one exercise per group, treating
// each null group as its own. When requireField is set, one exercise
// carrying that content field is fetched first and returned at index 0.
func (s *SQLStore) RandomDistinctGroups(ctx context.Context, categoryID int64, limit int, requireField string) ([]task.Exercise, error) {
	out := make([]task.Exercise, 0, limit)
	seenGroups := map[uuid.UUID]bool{}
	seenIDs := map[int64]bool{}

	if requireField != "" {
		required, err := s.RandomWithContentField(ctx, categoryID, requireField, 1)
		if err != nil {
			return nil, err
		}
		if len(required) == 0 {
			return nil, nil
		}
		out = append(out, required[0])
		seenIDs[required[0].ID] = true
		if required[0].GroupID != nil {
			seenGroups[*required[0].GroupID] = true
		}
	}

	// Oversample, then drop group duplicates in order.
	pool, err := s.Random(ctx, categoryID, limit*4)
	if err != nil {
		return nil, err
	}
	for _, ex := range pool {
		if len(out) == limit {
			break
		}
		if seenIDs[ex.ID] {
			continue
		}
		if ex.GroupID != nil {
			if seenGroups[*ex.GroupID] {
				continue
			}
			seenGroups[*ex.GroupID] = true
		}
		seenIDs[ex.ID] = true
		out = append(out, ex)
	}
	return out, nil
}

func (s *SQLStore) RandomByAnswer(ctx context.Context, categoryID int64, answer string, limit int) ([]task.Exercise, error) {
	return s.queryExercises(ctx, `SELECT `+exerciseColumns+` FROM exercises
		WHERE category_id=$1 AND is_active AND answer=$2
		ORDER BY random() LIMIT $3`, categoryID, answer, limit)
}

func (s *SQLStore) RandomExcludingAnswer(ctx context.Context, categoryID int64, answer string, limit int) ([]task.Exercise, error) {
	return s.queryExercises(ctx, `SELECT `+exerciseColumns+` FROM exercises
		WHERE category_id=$1 AND is_active AND answer<>$2
		ORDER BY random() LIMIT $3`, categoryID, answer, limit)
}

// RandomDistinctAnswers oversamples and keeps the first exercise seen for
// each answer value; DISTINCT ON is not portable to sqlite.
func (s *SQLStore) RandomDistinctAnswers(ctx context.Context, categoryID int64, excludeAnswer string, limit int) ([]task.Exercise, error) {
	pool, err := s.RandomExcludingAnswer(ctx, categoryID, excludeAnswer, limit*4)
	if err != nil {
		return nil, err
	}
	out := make([]task.Exercise, 0, limit)
	seen := map[string]bool{}
	for _, ex := range pool {
		if len(out) == limit {
			break
		}
		if seen[ex.Answer] {
			continue
		}
		seen[ex.Answer] = true
		out = append(out, ex)
	}
	return out, nil
}

// RandomSameAnswerGroups picks numGroups answer values that have at
// least groupSize exercises, then groupSize random exercises for each.
func (s *SQLStore) RandomSameAnswerGroups(ctx context.Context, categoryID int64, groupSize, numGroups int) ([]task.Exercise, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT answer FROM exercises
		WHERE category_id=$1 AND is_active
		GROUP BY answer HAVING COUNT(*) >= $2
		ORDER BY random() LIMIT $3`, categoryID, groupSize, numGroups)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []task.Exercise
	for _, a := range answers {
		exs, err := s.RandomByAnswer(ctx, categoryID, a, groupSize)
		if err != nil {
			return nil, err
		}
		out = append(out, exs...)
	}
	return out, nil
}

func (s *SQLStore) RandomByContentValue(ctx context.Context, categoryID int64, field, value string, limit int) ([]task.Exercise, error) {
	return s.queryExercises(ctx, `SELECT `+exerciseColumns+` FROM exercises
		WHERE category_id=$1 AND is_active AND `+s.jsonFieldEquals(field)+`$2
		ORDER BY random() LIMIT $3`, categoryID, value, limit)
}

func (s *SQLStore) RandomByAnswerAndContentValue(ctx context.Context, categoryID int64, answer, field, value string, limit int) ([]task.Exercise, error) {
	return s.queryExercises(ctx, `SELECT `+exerciseColumns+` FROM exercises
		WHERE category_id=$1 AND is_active AND answer=$2 AND `+s.jsonFieldEquals(field)+`$3
		ORDER BY random() LIMIT $4`, categoryID, answer, value, limit)
}

// Append writes one graded attempt to the answer log.
func (s *SQLStore) Append(ctx context.Context, e task.LogEntry) error {
	var groupID any
	if e.BatchID != nil {
		groupID = e.BatchID.String()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO user_answers
		(user_id, exercise_id, category_id, is_correct, user_response, solve_time, group_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.UserID, e.ExerciseID, e.CategoryID, e.Correct, e.Response, e.SolveTime, groupID, s.now().Unix())
	return err
}
