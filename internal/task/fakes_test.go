package task

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"
)

// fakeSource is a deterministic in-memory ExerciseSource. It serves
// exercises in insertion order, which lets tests predict selections
// without fixing the seed of every shuffle.
type fakeSource struct {
	exercises []Exercise
}

func (f *fakeSource) inCategory(categoryID int64) []Exercise {
	var out []Exercise
	for _, ex := range f.exercises {
		if ex.CategoryID == categoryID && ex.Active {
			out = append(out, ex)
		}
	}
	return out
}

func contentField(ex Exercise, field string) (any, bool) {
	var m map[string]any
	if err := json.Unmarshal(ex.Content, &m); err != nil {
		return nil, false
	}
	v, ok := m[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func take(exs []Exercise, limit int) []Exercise {
	if len(exs) > limit {
		return exs[:limit]
	}
	return exs
}

func (f *fakeSource) Random(_ context.Context, categoryID int64, limit int) ([]Exercise, error) {
	return take(f.inCategory(categoryID), limit), nil
}

func (f *fakeSource) RandomWithContentField(_ context.Context, categoryID int64, field string, limit int) ([]Exercise, error) {
	var out []Exercise
	for _, ex := range f.inCategory(categoryID) {
		if _, ok := contentField(ex, field); ok {
			out = append(out, ex)
		}
	}
	return take(out, limit), nil
}

func (f *fakeSource) RandomDistinctGroups(ctx context.Context, categoryID int64, limit int, requireField string) ([]Exercise, error) {
	var out []Exercise
	seenGroups := map[string]bool{}
	seenIDs := map[int64]bool{}

	if requireField != "" {
		required, _ := f.RandomWithContentField(ctx, categoryID, requireField, 1)
		if len(required) == 0 {
			return nil, nil
		}
		out = append(out, required[0])
		seenIDs[required[0].ID] = true
		if required[0].GroupID != nil {
			seenGroups[required[0].GroupID.String()] = true
		}
	}

	for _, ex := range f.inCategory(categoryID) {
		if len(out) == limit {
			break
		}
		if seenIDs[ex.ID] {
			continue
		}
		if ex.GroupID != nil {
			if seenGroups[ex.GroupID.String()] {
				continue
			}
			seenGroups[ex.GroupID.String()] = true
		}
		seenIDs[ex.ID] = true
		out = append(out, ex)
	}
	return out, nil
}

func (f *fakeSource) RandomByAnswer(_ context.Context, categoryID int64, answer string, limit int) ([]Exercise, error) {
	var out []Exercise
	for _, ex := range f.inCategory(categoryID) {
		if ex.Answer == answer {
			out = append(out, ex)
		}
	}
	return take(out, limit), nil
}

func (f *fakeSource) RandomExcludingAnswer(_ context.Context, categoryID int64, answer string, limit int) ([]Exercise, error) {
	var out []Exercise
	for _, ex := range f.inCategory(categoryID) {
		if ex.Answer != answer {
			out = append(out, ex)
		}
	}
	return take(out, limit), nil
}

func (f *fakeSource) RandomDistinctAnswers(_ context.Context, categoryID int64, excludeAnswer string, limit int) ([]Exercise, error) {
	var out []Exercise
	seen := map[string]bool{}
	for _, ex := range f.inCategory(categoryID) {
		if ex.Answer == excludeAnswer || seen[ex.Answer] {
			continue
		}
		seen[ex.Answer] = true
		out = append(out, ex)
	}
	return take(out, limit), nil
}

func (f *fakeSource) RandomSameAnswerGroups(_ context.Context, categoryID int64, groupSize, numGroups int) ([]Exercise, error) {
	byAnswer := map[string][]Exercise{}
	var order []string
	for _, ex := range f.inCategory(categoryID) {
		if _, ok := byAnswer[ex.Answer]; !ok {
			order = append(order, ex.Answer)
		}
		byAnswer[ex.Answer] = append(byAnswer[ex.Answer], ex)
	}
	var out []Exercise
	groups := 0
	for _, a := range order {
		if groups == numGroups {
			break
		}
		if len(byAnswer[a]) >= groupSize {
			out = append(out, byAnswer[a][:groupSize]...)
			groups++
		}
	}
	return out, nil
}

func (f *fakeSource) RandomByContentValue(_ context.Context, categoryID int64, field, value string, limit int) ([]Exercise, error) {
	var out []Exercise
	for _, ex := range f.inCategory(categoryID) {
		if v, ok := contentField(ex, field); ok {
			if s, ok := v.(string); ok && s == value {
				out = append(out, ex)
			}
		}
	}
	return take(out, limit), nil
}

func (f *fakeSource) RandomByAnswerAndContentValue(ctx context.Context, categoryID int64, answer, field, value string, limit int) ([]Exercise, error) {
	byValue, err := f.RandomByContentValue(ctx, categoryID, field, value, len(f.exercises))
	if err != nil {
		return nil, err
	}
	var out []Exercise
	for _, ex := range byValue {
		if ex.Answer == answer {
			out = append(out, ex)
		}
	}
	return take(out, limit), nil
}

type fakeLog struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (f *fakeLog) Append(_ context.Context, e LogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

var testStart = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestRegistry(src *fakeSource, log *fakeLog) *Registry {
	return NewRegistry(Deps{
		Source: src,
		Log:    log,
		Rand:   rand.New(rand.NewSource(7)),
		Now:    func() time.Time { return testStart.Add(42 * time.Second) },
	})
}

// sessionFromPayload mirrors what the service persists after CreateTask:
// the selected exercises, the start time and the opaque config.
func sessionFromPayload(src *fakeSource, cat *Category, p TaskPayload) *Session {
	byID := map[int64]Exercise{}
	for _, ex := range src.exercises {
		byID[ex.ID] = ex
	}
	exs := make([]Exercise, 0, len(p.ExerciseIDs))
	for _, id := range p.ExerciseIDs {
		exs = append(exs, byID[id])
	}
	started := testStart
	return &Session{
		UserID:     1,
		Category:   cat,
		Exercises:  exs,
		StartedAt:  &started,
		TaskConfig: p.Config,
	}
}

func drillCategory(id int64, handler HandlerType, parentID int64) *Category {
	return &Category{ID: id, Name: "test", Handler: handler, ParentID: &parentID}
}

func rootCategory(id int64, handler HandlerType) *Category {
	return &Category{ID: id, Name: "test", Handler: handler}
}

func rawContent(v any) json.RawMessage {
	buf, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return buf
}
