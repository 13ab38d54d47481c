package task

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// base carries the dependencies every processor shares.
type base struct {
	src ExerciseSource
	log AnswerLog
	rng *rand.Rand
	now func() time.Time
}

func (b base) solveTime(sess *Session) int {
	if sess.StartedAt == nil {
		return 0
	}
	secs := int(b.now().Sub(*sess.StartedAt).Seconds())
	if secs < 0 {
		return 0
	}
	return secs
}

func (b base) category(sess *Session) (*Category, error) {
	if sess.Category == nil {
		return nil, fmt.Errorf("%w: no current category", ErrInvalidState)
	}
	return sess.Category, nil
}

// parentPool returns the parent category id. Archetypes whose content
// lives on the sub-skill parent node require it to exist.
func (b base) parentPool(sess *Session) (int64, error) {
	cat, err := b.category(sess)
	if err != nil {
		return 0, err
	}
	if cat.ParentID == nil {
		return 0, fmt.Errorf("%w: category %d has no parent", ErrInvalidState, cat.ID)
	}
	return *cat.ParentID, nil
}

// single returns the one currently displayed exercise.
func (b base) single(sess *Session) (Exercise, error) {
	if len(sess.Exercises) == 0 {
		return Exercise{}, fmt.Errorf("%w: no current exercises", ErrInvalidState)
	}
	return sess.Exercises[0], nil
}

func (b base) appendEntry(ctx context.Context, sess *Session, ex Exercise, correct bool, response string, solve int, batch *uuid.UUID) error {
	return b.log.Append(ctx, LogEntry{
		UserID:     sess.UserID,
		ExerciseID: ex.ID,
		CategoryID: sess.Category.ID,
		Correct:    correct,
		Response:   response,
		SolveTime:  solve,
		BatchID:    batch,
	})
}

// gradeExactSingle grades the single displayed exercise by exact answer
// equality, logs one entry, and returns the exercise for explanation
// tailoring.
func (b base) gradeExactSingle(ctx context.Context, sess *Session, userAnswer string) (Result, Exercise, error) {
	ex, err := b.single(sess)
	if err != nil {
		return Result{}, Exercise{}, err
	}
	correct := userAnswer == ex.Answer
	if err := b.appendEntry(ctx, sess, ex, correct, userAnswer, b.solveTime(sess), nil); err != nil {
		return Result{}, Exercise{}, err
	}
	return Result{Correct: correct, Explanation: ex.Explanation}, ex, nil
}

// orderedByConfig re-derives display order by indexing the session's
// loaded exercises with the id list the task config persisted.
func orderedByConfig(sess *Session, ids []int64) ([]Exercise, error) {
	byID := make(map[int64]Exercise, len(sess.Exercises))
	for _, ex := range sess.Exercises {
		byID[ex.ID] = ex
	}
	out := make([]Exercise, 0, len(ids))
	for _, id := range ids {
		ex, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: exercise %d missing from session", ErrInvalidState, id)
		}
		out = append(out, ex)
	}
	return out, nil
}

// requireCount validates that the session holds exactly n displayed
// exercises before an exam is graded.
func requireCount(sess *Session, n int) error {
	if len(sess.Exercises) != n {
		return fmt.Errorf("%w: expected %d current exercises, have %d", ErrInvalidState, n, len(sess.Exercises))
	}
	return nil
}

func (b base) shuffleOptions(opts []Option) {
	b.rng.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
}

func (b base) shuffleExercises(exs []Exercise) {
	b.rng.Shuffle(len(exs), func(i, j int) { exs[i], exs[j] = exs[j], exs[i] })
}

// weightedIndex picks an index of weights with probability proportional
// to its weight. Weights must be positive.
func (b base) weightedIndex(weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	n := b.rng.Intn(total)
	for i, w := range weights {
		if n < w {
			return i
		}
		n -= w
	}
	return len(weights) - 1
}

// correctCountWeights skews exam composition toward 2 or 3 correct items
// out of 5.
var correctCountWeights = []int{4, 4, 1}

// weightedCorrectCount draws the number of "correct" exam items from
// {2,3,4} with relative weights 4:4:1.
func (b base) weightedCorrectCount() int {
	return 2 + b.weightedIndex(correctCountWeights)
}

func exerciseIDs(exs []Exercise) []int64 {
	ids := make([]int64, len(exs))
	for i, ex := range exs {
		ids[i] = ex.ID
	}
	return ids
}
