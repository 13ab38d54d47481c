package task

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	sess *Session

	savedIDs       []int64
	savedStartedAt time.Time
	savedConfig    json.RawMessage
	saveCalls      int
}

func (f *fakeSessions) Load(_ context.Context, _ int64) (*Session, error) {
	return f.sess, nil
}

func (f *fakeSessions) SaveAssignment(_ context.Context, _ int64, ids []int64, startedAt time.Time, config json.RawMessage) error {
	f.savedIDs = ids
	f.savedStartedAt = startedAt
	f.savedConfig = config
	f.saveCalls++
	return nil
}

func TestServiceStartTaskPersistsAssignment(t *testing.T) {
	src := stressExamSource()
	reg := newTestRegistry(src, &fakeLog{})
	sessions := &fakeSessions{sess: &Session{UserID: 1, Category: drillCategory(101, HandlerStressExam, 100)}}
	svc := NewService(reg, sessions)
	svc.now = func() time.Time { return testStart }

	payload, err := svc.StartTask(context.Background(), 1)
	require.NoError(t, err)

	require.Equal(t, 1, sessions.saveCalls)
	assert.Equal(t, payload.ExerciseIDs, sessions.savedIDs)
	assert.Equal(t, testStart, sessions.savedStartedAt)
	assert.Equal(t, payload.Config, sessions.savedConfig)
}

func TestServiceCheckAnswerDelegates(t *testing.T) {
	src := &fakeSource{exercises: []Exercise{{
		ID: 1, CategoryID: 10, Active: true,
		Content: rawContent(ReadingContent{Text: "Текст.", Instruction: "Подберите слово."}),
		Answer:  "однако",
	}}}
	log := &fakeLog{}
	reg := newTestRegistry(src, log)

	started := testStart
	sessions := &fakeSessions{sess: &Session{
		UserID:    1,
		Category:  drillCategory(11, HandlerReadingDrill, 10),
		Exercises: src.exercises,
		StartedAt: &started,
	}}
	svc := NewService(reg, sessions)

	res, err := svc.CheckAnswer(context.Background(), 1, "однако")
	require.NoError(t, err)
	assert.True(t, res.Correct)
	require.Len(t, log.entries, 1)
}

func TestServiceResolveErrors(t *testing.T) {
	reg := newTestRegistry(&fakeSource{}, &fakeLog{})
	ctx := context.Background()

	sessions := &fakeSessions{sess: &Session{UserID: 1}}
	svc := NewService(reg, sessions)
	_, err := svc.StartTask(ctx, 1)
	assert.ErrorIs(t, err, ErrInvalidState)

	sessions.sess = &Session{UserID: 1, Category: &Category{ID: 5, Name: "пусто"}}
	_, err = svc.StartTask(ctx, 1)
	assert.ErrorIs(t, err, ErrInvalidState)

	sessions.sess = &Session{UserID: 1, Category: rootCategory(6, HandlerType("task99_drill"))}
	_, err = svc.CheckAnswer(ctx, 1, "1")
	assert.ErrorIs(t, err, ErrUnknownHandler)

	assert.Zero(t, sessions.saveCalls)
}
