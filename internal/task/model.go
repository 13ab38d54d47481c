package task

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// HandlerType tags a selectable category with the archetype that serves it.
// Tags follow the upstream exam numbering used by the content database.
type HandlerType string

const (
	HandlerSoon HandlerType = "soon"
	HandlerSkip HandlerType = "skip"

	HandlerReadingDrill    HandlerType = "task1_drill"
	HandlerDefinitionDrill HandlerType = "task2_drill"
	HandlerStatementsExam  HandlerType = "task3_exam"
	HandlerStressDrill     HandlerType = "task4_drill"
	HandlerStressExam      HandlerType = "task4_exam"
	HandlerParonymDrill    HandlerType = "task5_drill"
	HandlerParonymExam     HandlerType = "task5_exam"
	HandlerLexicalExam     HandlerType = "task6_exam"
	HandlerWordFormDrill   HandlerType = "task7_drill"
	HandlerWordFormExam    HandlerType = "task7_exam"
	HandlerSyntaxDrill     HandlerType = "task8_drill"
	HandlerSyntaxExam      HandlerType = "task8_exam"
	HandlerLetter9Drill    HandlerType = "task9_drill"
	HandlerLetter9Exam     HandlerType = "task9_exam"
	HandlerLetter10Drill   HandlerType = "task10_drill"
	HandlerLetter10Exam    HandlerType = "task10_exam"
	HandlerLetter11Drill   HandlerType = "task11_drill"
	HandlerLetter11Exam    HandlerType = "task11_exam"
	HandlerLetter12Drill   HandlerType = "task12_drill"
	HandlerLetter12Exam    HandlerType = "task12_exam"
	HandlerParticleDrill   HandlerType = "task13_drill"
	HandlerParticleExam    HandlerType = "task13_exam"
	HandlerCompoundDrill   HandlerType = "task14_drill"
	HandlerCompoundExam    HandlerType = "task14_exam"
)

// Category is a node of the content tree. Only leaf categories carry a
// handler type; several archetypes draw their pool from the parent node.
type Category struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	Handler  HandlerType `json:"handler_type,omitempty"`
	ParentID *int64      `json:"parent_id,omitempty"`
}

// Exercise is one content unit. Content is an archetype-specific JSON
// blob; Answer is the canonical answer (a choice key, a stress index, a
// free-text token, or `;`-joined alternatives, depending on archetype).
type Exercise struct {
	ID          int64           `json:"id"`
	CategoryID  int64           `json:"category_id"`
	GroupID     *uuid.UUID      `json:"group_id,omitempty"`
	OrderIndex  *int            `json:"order_index,omitempty"`
	Content     json.RawMessage `json:"content"`
	Answer      string          `json:"answer"`
	Explanation string          `json:"explanation"`
	Active      bool            `json:"is_active"`
}

// Session is the slice of a user record the engine reads and produces.
// Exercises holds the currently displayed rows in no particular order;
// display order, where it matters, is reconstructed from TaskConfig.
type Session struct {
	UserID     int64
	Category   *Category
	Exercises  []Exercise
	StartedAt  *time.Time
	TaskConfig json.RawMessage
}

// Option is one answer choice offered alongside a prompt.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// TaskPayload is what CreateTask hands back to the caller, which persists
// ExerciseIDs (display order) and Config onto the session.
type TaskPayload struct {
	Prompt      string          `json:"prompt"`
	Options     []Option        `json:"options,omitempty"`
	ExerciseIDs []int64         `json:"exercise_ids"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Result is the outcome of grading one submission.
type Result struct {
	Correct     bool   `json:"is_correct"`
	Explanation string `json:"explanation,omitempty"`
}

// LogEntry is one graded attempt appended to the answer log. BatchID ties
// together the rows produced by a single exam submission.
type LogEntry struct {
	UserID     int64
	ExerciseID int64
	CategoryID int64
	Correct    bool
	Response   string
	SolveTime  int
	BatchID    *uuid.UUID
}

// ExerciseSource supplies randomized exercise subsets under the
// constraint combinations the processors need. Returning fewer rows than
// requested is a valid response and signals an infeasible pool.
type ExerciseSource interface {
	Random(ctx context.Context, categoryID int64, limit int) ([]Exercise, error)
	RandomWithContentField(ctx context.Context, categoryID int64, field string, limit int) ([]Exercise, error)
	// RandomDistinctGroups returns at most one exercise per group id (a
	// null group counts as its own group). When requireField is set, the
	// first returned exercise is guaranteed to carry that content field.
	RandomDistinctGroups(ctx context.Context, categoryID int64, limit int, requireField string) ([]Exercise, error)
	RandomByAnswer(ctx context.Context, categoryID int64, answer string, limit int) ([]Exercise, error)
	RandomExcludingAnswer(ctx context.Context, categoryID int64, answer string, limit int) ([]Exercise, error)
	// RandomDistinctAnswers returns exercises with pairwise distinct
	// canonical answers, excluding excludeAnswer.
	RandomDistinctAnswers(ctx context.Context, categoryID int64, excludeAnswer string, limit int) ([]Exercise, error)
	// RandomSameAnswerGroups returns numGroups clusters of groupSize
	// exercises, each cluster sharing one canonical answer value.
	RandomSameAnswerGroups(ctx context.Context, categoryID int64, groupSize, numGroups int) ([]Exercise, error)
	RandomByContentValue(ctx context.Context, categoryID int64, field, value string, limit int) ([]Exercise, error)
	RandomByAnswerAndContentValue(ctx context.Context, categoryID int64, answer, field, value string, limit int) ([]Exercise, error)
}

// AnswerLog is the append-only sink for graded attempts.
type AnswerLog interface {
	Append(ctx context.Context, e LogEntry) error
}

// Processor is the two-operation contract every archetype implements.
type Processor interface {
	CreateTask(ctx context.Context, sess *Session) (TaskPayload, error)
	ProcessAnswer(ctx context.Context, sess *Session, userAnswer string) (Result, error)
}
