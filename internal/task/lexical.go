package task

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/glagol-app/glagol/internal/grading"
)

var lexicalInstructions = map[string]string{
	LexicalRemove: "Отредактируйте предложение: исправьте лексическую ошибку, <b>исключив лишнее слово.</b> " +
		"Выпишите это слово.",
	LexicalReplace: "Отредактируйте предложение: исправьте лексическую ошибку, " +
		"<b>заменив употреблённое неверно слово.</b> Запишите подобранное слово, соблюдая нормы " +
		"современного русского литературного языка и сохраняя смысл высказывания.",
}

// lexicalExam shows a sentence with a lexical error. The instruction
// depends on whether the fix is removing a superfluous word or replacing
// a misused one.
type lexicalExam struct {
	base
}

func (p lexicalExam) CreateTask(ctx context.Context, sess *Session) (TaskPayload, error) {
	cat, err := p.category(sess)
	if err != nil {
		return TaskPayload{}, err
	}
	exs, err := p.src.Random(ctx, cat.ID, 1)
	if err != nil {
		return TaskPayload{}, err
	}
	if len(exs) == 0 {
		return TaskPayload{}, fmt.Errorf("%w: category %d", ErrNoContent, cat.ID)
	}
	ex := exs[0]
	content, err := decodeContent[LexicalContent](ex)
	if err != nil {
		return TaskPayload{}, err
	}

	instruction, ok := lexicalInstructions[content.TaskType]
	if !ok {
		return TaskPayload{}, fmt.Errorf("%w: exercise %d has task type %q", ErrInvalidState, ex.ID, content.TaskType)
	}

	prompt := fmt.Sprintf("%s\n\n<i>%s</i>", instruction, content.Sentence)
	return TaskPayload{Prompt: prompt, ExerciseIDs: []int64{ex.ID}}, nil
}

func (p lexicalExam) ProcessAnswer(ctx context.Context, sess *Session, userAnswer string) (Result, error) {
	ex, err := p.single(sess)
	if err != nil {
		return Result{}, err
	}
	content, err := decodeContent[LexicalContent](ex)
	if err != nil {
		return Result{}, err
	}

	alts := grading.Alternatives(ex.Answer)
	correct := grading.MatchAny(userAnswer, ex.Answer, grading.DefaultOptions())

	if err := p.appendEntry(ctx, sess, ex, correct, userAnswer, p.solveTime(sess), nil); err != nil {
		return Result{}, err
	}

	explanation := fmt.Sprintf("%s\n\n<b>Исходное предложение:</b>\n<i>%s</i>\n\n<b>Правильное предложение:</b>\n<i>%s</i>",
		ex.Explanation, content.SentenceWithMarkup, content.CorrectedSentence)

	if len(alts) == 1 && strings.EqualFold(alts[0], strings.TrimSpace(userAnswer)) {
		explanation = fmt.Sprintf("<b>Ответ:</b> %s\n\n", alts[0]) + explanation
	} else {
		if len(alts) == 1 {
			explanation = fmt.Sprintf("<b>Правильный ответ:</b> %s\n\n", alts[0]) + explanation
		} else {
			explanation = fmt.Sprintf("<b>Правильные ответы:</b> %s\n\n", strings.Join(alts, " / ")) + explanation
		}
		explanation = fmt.Sprintf("<b>Ваш ответ:</b> %s\n", html.EscapeString(userAnswer)) + explanation
	}

	return Result{Correct: correct, Explanation: explanation}, nil
}
