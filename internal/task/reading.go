package task

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/glagol-app/glagol/internal/grading"
)

// readingDrill shows an instruction plus a text fragment and accepts a
// free-text answer. The canonical answer may list several accepted
// variants joined by `;`.
type readingDrill struct {
	base
}

func (p readingDrill) CreateTask(ctx context.Context, sess *Session) (TaskPayload, error) {
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
	content, err := decodeContent[ReadingContent](ex)
	if err != nil {
		return TaskPayload{}, err
	}

	prompt := fmt.Sprintf("%s\n\n<i>%s</i>", content.Instruction, html.EscapeString(content.Text))
	return TaskPayload{Prompt: prompt, ExerciseIDs: []int64{ex.ID}}, nil
}

func (p readingDrill) ProcessAnswer(ctx context.Context, sess *Session, userAnswer string) (Result, error) {
	ex, err := p.single(sess)
	if err != nil {
		return Result{}, err
	}
	content, err := decodeContent[ReadingContent](ex)
	if err != nil {
		return Result{}, err
	}

	alts := grading.Alternatives(ex.Answer)
	correct := grading.MatchAny(userAnswer, ex.Answer, grading.DefaultOptions())

	if err := p.appendEntry(ctx, sess, ex, correct, userAnswer, p.solveTime(sess), nil); err != nil {
		return Result{}, err
	}

	explanation := fmt.Sprintf("%s\n\n%s", content.Instruction, ex.Explanation)
	explanation = answerHeader(userAnswer, alts) + explanation
	return Result{Correct: correct, Explanation: explanation}, nil
}

// answerHeader renders the canonical answer(s) and, unless the user typed
// the single variant verbatim, echoes the submission for comparison.
func answerHeader(userAnswer string, alts []string) string {
	if len(alts) == 1 && strings.EqualFold(alts[0], strings.TrimSpace(userAnswer)) {
		return fmt.Sprintf("<b>Ответ: %s</b>\n\n", alts[0])
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Ваш ответ: %s\n", html.EscapeString(userAnswer))
	if len(alts) == 1 {
		fmt.Fprintf(&b, "<b>Правильный ответ: %s</b>\n\n", alts[0])
	} else {
		fmt.Fprintf(&b, "<b>Правильные ответы: %s</b>\n\n", strings.Join(alts, " / "))
	}
	return b.String()
}

// definitionDrill asks whether a quoted lexical definition fits the word
// highlighted in the sentence. Two fixed choices.
type definitionDrill struct {
	base
}

func (p definitionDrill) CreateTask(ctx context.Context, sess *Session) (TaskPayload, error) {
	parentID, err := p.parentPool(sess)
	if err != nil {
		return TaskPayload{}, err
	}
	exs, err := p.src.Random(ctx, parentID, 1)
	if err != nil {
		return TaskPayload{}, err
	}
	if len(exs) == 0 {
		return TaskPayload{}, fmt.Errorf("%w: category %d", ErrNoContent, parentID)
	}
	ex := exs[0]
	content, err := decodeContent[DefinitionContent](ex)
	if err != nil {
		return TaskPayload{}, err
	}

	prompt := fmt.Sprintf(
		"В предложении выделено слово. Определите, соответствует ли указанное лексическое значение его значению в данном контексте.\n\n%s\n\n%s",
		content.Text, content.WordWithDefinition,
	)
	options := []Option{
		{Label: "Подходит", Value: "true"},
		{Label: "Не подходит", Value: "false"},
	}
	return TaskPayload{Prompt: prompt, Options: options, ExerciseIDs: []int64{ex.ID}}, nil
}

func (p definitionDrill) ProcessAnswer(ctx context.Context, sess *Session, userAnswer string) (Result, error) {
	res, ex, err := p.gradeExactSingle(ctx, sess, userAnswer)
	if err != nil {
		return Result{}, err
	}
	// The stored explanation only adds value when the definition does not
	// fit; otherwise the verdict speaks for itself.
	if ex.Answer != "false" {
		res.Explanation = ""
	}
	return res, nil
}

// statementsExam shows a text fragment with five statements about it; the
// user replies with the numbers of the true ones. Single exercise, the
// canonical answer is already a digit string.
type statementsExam struct {
	base
}

const statementsInstruction = "Укажите варианты ответов, в которых даны верные характеристики фрагмента текста. Запишите номера ответов."

func (p statementsExam) CreateTask(ctx context.Context, sess *Session) (TaskPayload, error) {
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
	content, err := decodeContent[StatementsContent](ex)
	if err != nil {
		return TaskPayload{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n<b>Текст:</b>\n<blockquote expandable>%s</blockquote>\n\n",
		statementsInstruction, html.EscapeString(content.Text))
	for i, stmt := range content.Statements {
		fmt.Fprintf(&b, "<b>%d)</b> <i>%s</i>\n", i+1, stmt)
	}
	return TaskPayload{Prompt: strings.TrimRight(b.String(), "\n"), ExerciseIDs: []int64{ex.ID}}, nil
}

func (p statementsExam) ProcessAnswer(ctx context.Context, sess *Session, userAnswer string) (Result, error) {
	ex, err := p.single(sess)
	if err != nil {
		return Result{}, err
	}
	content, err := decodeContent[StatementsContent](ex)
	if err != nil {
		return Result{}, err
	}

	correct := grading.CanonicalDigits(userAnswer) == grading.CanonicalDigits(ex.Answer)
	if err := p.appendEntry(ctx, sess, ex, correct, userAnswer, p.solveTime(sess), nil); err != nil {
		return Result{}, err
	}

	var b strings.Builder
	if correct {
		fmt.Fprintf(&b, "<b>Ответ:</b> %s\n\n", ex.Answer)
	} else {
		fmt.Fprintf(&b, "<b>Ваш ответ:</b> %s\n<b>Правильный ответ:</b> %s\n\n",
			html.EscapeString(userAnswer), ex.Answer)
	}
	fmt.Fprintf(&b, "<b>Текст:</b>\n<blockquote expandable>%s</blockquote>\n\n%s",
		html.EscapeString(content.Text), html.EscapeString(ex.Explanation))
	return Result{Correct: correct, Explanation: b.String()}, nil
}
