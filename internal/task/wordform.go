package task

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/glagol-app/glagol/internal/grading"
)

const examWordFormCount = 5

// wordFormDrill shows one phrase with two inflected variants to pick
// from. Only exercises carrying an incorrect variant qualify.
type wordFormDrill struct {
	base
}

func (p wordFormDrill) CreateTask(ctx context.Context, sess *Session) (TaskPayload, error) {
	parentID, err := p.parentPool(sess)
	if err != nil {
		return TaskPayload{}, err
	}
	exs, err := p.src.RandomWithContentField(ctx, parentID, "incorrect_answer", 1)
	if err != nil {
		return TaskPayload{}, err
	}
	if len(exs) == 0 {
		return TaskPayload{}, fmt.Errorf("%w: category %d", ErrNoContent, parentID)
	}
	ex := exs[0]
	content, err := decodeContent[WordFormContent](ex)
	if err != nil {
		return TaskPayload{}, err
	}

	options := []Option{
		{Label: fillWord(content.Phrase, strings.ToUpper(ex.Answer)), Value: ex.Answer},
		{Label: fillWord(content.Phrase, strings.ToUpper(content.IncorrectAnswer)), Value: content.IncorrectAnswer},
	}
	p.shuffleOptions(options)

	prompt := "Выберите словосочетание, в котором нет грамматической ошибки."
	return TaskPayload{Prompt: prompt, Options: options, ExerciseIDs: []int64{ex.ID}}, nil
}

func (p wordFormDrill) ProcessAnswer(ctx context.Context, sess *Session, userAnswer string) (Result, error) {
	ex, err := p.single(sess)
	if err != nil {
		return Result{}, err
	}
	content, err := decodeContent[WordFormContent](ex)
	if err != nil {
		return Result{}, err
	}

	correct := grading.Match(userAnswer, ex.Answer, grading.MatchOptions{YoTolerance: true})

	if err := p.appendEntry(ctx, sess, ex, correct, userAnswer, p.solveTime(sess), nil); err != nil {
		return Result{}, err
	}

	correctPhrase := fillWord(content.Phrase, strings.ToUpper(ex.Answer))
	var explanation string
	if correct {
		explanation = fmt.Sprintf("<b>Ответ:</b> %s\n\n%s", correctPhrase, ex.Explanation)
	} else {
		userPhrase := fillWord(content.Phrase, strings.ToUpper(userAnswer))
		explanation = fmt.Sprintf("<b>Ваш ответ:</b> %s\n<b>Правильный ответ:</b> %s\n\n%s",
			userPhrase, correctPhrase, ex.Explanation)
	}
	return Result{Correct: correct, Explanation: explanation}, nil
}

// wordFormExam shows five phrases drawn from distinct exercise groups;
// exactly one is rendered with the wrong inflected form and the user
// types its correction. Only the broken phrase is graded and logged.
type wordFormExam struct {
	base
}

func (p wordFormExam) CreateTask(ctx context.Context, sess *Session) (TaskPayload, error) {
	parentID, err := p.parentPool(sess)
	if err != nil {
		return TaskPayload{}, err
	}
	exs, err := p.src.RandomDistinctGroups(ctx, parentID, examWordFormCount, "incorrect_answer")
	if err != nil {
		return TaskPayload{}, err
	}
	if len(exs) < examWordFormCount {
		return TaskPayload{}, fmt.Errorf("%w: category %d", ErrNoContent, parentID)
	}

	// The source guarantees the exercise with an incorrect variant comes
	// first; move it to a random slot.
	wrongIndex := p.rng.Intn(examWordFormCount)
	if wrongIndex != 0 {
		exs[0], exs[wrongIndex] = exs[wrongIndex], exs[0]
	}

	var b strings.Builder
	b.WriteString("В одном из выделенных ниже слов допущена грамматическая ошибка. " +
		"Исправьте ошибку и запишите слово правильно.\n\n")
	for i, ex := range exs {
		content, err := decodeContent[WordFormContent](ex)
		if err != nil {
			return TaskPayload{}, err
		}
		word := ex.Answer
		if i == wrongIndex && content.IncorrectAnswer != "" {
			word = content.IncorrectAnswer
		}
		fmt.Fprintf(&b, "%d) %s\n", i+1, fillWord(content.Phrase, "<b>"+strings.ToUpper(word)+"</b>"))
	}

	ids := exerciseIDs(exs)
	cfg := WordFormExamConfig{ExerciseIDs: ids, WrongPhraseIndex: wrongIndex}
	return TaskPayload{
		Prompt:      strings.TrimRight(b.String(), "\n"),
		ExerciseIDs: ids,
		Config:      marshalConfig(cfg),
	}, nil
}

func (p wordFormExam) ProcessAnswer(ctx context.Context, sess *Session, userAnswer string) (Result, error) {
	if err := requireCount(sess, examWordFormCount); err != nil {
		return Result{}, err
	}
	cfg, err := decodeConfig[WordFormExamConfig](sess)
	if err != nil {
		return Result{}, err
	}
	ordered, err := orderedByConfig(sess, cfg.ExerciseIDs)
	if err != nil {
		return Result{}, err
	}

	wrongEx := ordered[cfg.WrongPhraseIndex]
	content, err := decodeContent[WordFormContent](wrongEx)
	if err != nil {
		return Result{}, err
	}

	correct := grading.Match(userAnswer, wrongEx.Answer, grading.MatchOptions{YoTolerance: true})

	if err := p.appendEntry(ctx, sess, wrongEx, correct, userAnswer, p.solveTime(sess), nil); err != nil {
		return Result{}, err
	}

	correctPhrase := fillWord(content.Phrase, strings.ToUpper(wrongEx.Answer))
	explanation := fmt.Sprintf("%s\n\n%s", correctPhrase, wrongEx.Explanation)
	if correct {
		explanation = fmt.Sprintf("<b>Ответ:</b> %s\n\n", wrongEx.Answer) + explanation
	} else {
		explanation = fmt.Sprintf("<b>Ваш ответ:</b> %s\n<b>Правильный ответ:</b> %s\n\n",
			html.EscapeString(userAnswer), wrongEx.Answer) + explanation
	}
	return Result{Correct: correct, Explanation: explanation}, nil
}
