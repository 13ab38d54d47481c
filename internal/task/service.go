package task

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// SessionStore loads the per-user solving state and persists the
// assignment a created task produces.
type SessionStore interface {
	Load(ctx context.Context, userID int64) (*Session, error)
	// SaveAssignment replaces the user's current exercises, start time
	// and task config in one write.
	SaveAssignment(ctx context.Context, userID int64, exerciseIDs []int64, startedAt time.Time, config json.RawMessage) error
}

// Service ties the processor registry to session persistence: it resolves
// the processor from the user's selected category, runs it, and records
// the assignment so a later submission can be graded against it.
type Service struct {
	reg      *Registry
	sessions SessionStore
	now      func() time.Time
}

func NewService(reg *Registry, sessions SessionStore) *Service {
	return &Service{reg: reg, sessions: sessions, now: time.Now}
}

func (s *Service) resolve(sess *Session) (Processor, error) {
	if sess.Category == nil {
		return nil, fmt.Errorf("%w: no current category", ErrInvalidState)
	}
	if sess.Category.Handler == "" {
		return nil, fmt.Errorf("%w: category %d has no handler type", ErrInvalidState, sess.Category.ID)
	}
	return s.reg.Resolve(sess.Category.Handler)
}

// StartTask creates a task for the user's current category and persists
// the resulting assignment.
func (s *Service) StartTask(ctx context.Context, userID int64) (TaskPayload, error) {
	sess, err := s.sessions.Load(ctx, userID)
	if err != nil {
		return TaskPayload{}, err
	}
	proc, err := s.resolve(sess)
	if err != nil {
		return TaskPayload{}, err
	}
	payload, err := proc.CreateTask(ctx, sess)
	if err != nil {
		return TaskPayload{}, err
	}
	if err := s.sessions.SaveAssignment(ctx, userID, payload.ExerciseIDs, s.now(), payload.Config); err != nil {
		return TaskPayload{}, err
	}
	return payload, nil
}

// CheckAnswer grades a submission against the user's current assignment.
func (s *Service) CheckAnswer(ctx context.Context, userID int64, userAnswer string) (Result, error) {
	sess, err := s.sessions.Load(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	proc, err := s.resolve(sess)
	if err != nil {
		return Result{}, err
	}
	return proc.ProcessAnswer(ctx, sess, userAnswer)
}
