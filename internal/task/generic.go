package task

import "context"

// skipProcessor serves categories that should be passed over silently.
type skipProcessor struct{}

func (skipProcessor) CreateTask(context.Context, *Session) (TaskPayload, error) {
	return TaskPayload{Prompt: "Это скипаем", ExerciseIDs: []int64{}}, nil
}

func (skipProcessor) ProcessAnswer(context.Context, *Session, string) (Result, error) {
	return Result{Correct: true, Explanation: "Скип"}, nil
}

// soonProcessor serves categories whose content is not published yet.
type soonProcessor struct{}

func (soonProcessor) CreateTask(context.Context, *Session) (TaskPayload, error) {
	return TaskPayload{Prompt: "Скоро появится", ExerciseIDs: []int64{}}, nil
}

func (soonProcessor) ProcessAnswer(context.Context, *Session, string) (Result, error) {
	return Result{Correct: true, Explanation: "В разработке"}, nil
}
