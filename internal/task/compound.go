package task

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/glagol-app/glagol/internal/grading"
)

const examCompoundCount = 5

var compoundAnswerTypes = []string{answerTogether, answerSeparate, answerHyphen}

// compoundTypeWeights bias the target spelling toward the common cases.
var compoundTypeWeights = []int{4, 4, 1}

// compoundDrill shows a sentence with one word in brackets and three
// spelling choices.
type compoundDrill struct {
	base
}

func (p compoundDrill) CreateTask(ctx context.Context, sess *Session) (TaskPayload, error) {
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
	content, err := decodeContent[CompoundDrillContent](ex)
	if err != nil {
		return TaskPayload{}, err
	}

	prompt := fmt.Sprintf("Определите написание слова в скобках.\n\n<i>%s</i>", content.Sentence)
	options := []Option{
		{Label: "Слитно", Value: answerTogether},
		{Label: "Раздельно", Value: answerSeparate},
		{Label: "Через дефис", Value: answerHyphen},
	}
	return TaskPayload{Prompt: prompt, Options: options, ExerciseIDs: []int64{ex.ID}}, nil
}

func (p compoundDrill) ProcessAnswer(ctx context.Context, sess *Session, userAnswer string) (Result, error) {
	res, ex, err := p.gradeExactSingle(ctx, sess, userAnswer)
	if err != nil {
		return Result{}, err
	}
	content, err := decodeContent[CompoundDrillContent](ex)
	if err != nil {
		return Result{}, err
	}
	if res.Correct {
		res.Explanation = fmt.Sprintf("<b>Ответ:</b> %s\n\n<i>%s</i>\n\n%s",
			displayAnswer(ex.Answer), content.Sentence, ex.Explanation)
	} else {
		res.Explanation = fmt.Sprintf("<b>Ваш ответ:</b> %s\n<b>Правильный ответ:</b> %s\n\n<i>%s</i>\n\n%s",
			displayAnswer(userAnswer), displayAnswer(ex.Answer), content.Sentence, ex.Explanation)
	}
	return res, nil
}

// compoundExam shows five sentences with two bracketed words each; the
// user lists the sentences where both words take the target spelling.
// Sentences answered MIXED or with another spelling act as distractors.
type compoundExam struct {
	base
}

func (p compoundExam) CreateTask(ctx context.Context, sess *Session) (TaskPayload, error) {
	cat, err := p.category(sess)
	if err != nil {
		return TaskPayload{}, err
	}

	answerType := compoundAnswerTypes[p.weightedIndex(compoundTypeWeights)]
	correctCount := p.weightedCorrectCount()
	wrongCount := examCompoundCount - correctCount

	correctExs, err := p.src.RandomByAnswer(ctx, cat.ID, answerType, correctCount)
	if err != nil {
		return TaskPayload{}, err
	}
	wrongExs, err := p.src.RandomExcludingAnswer(ctx, cat.ID, answerType, wrongCount)
	if err != nil {
		return TaskPayload{}, err
	}
	if len(correctExs) < correctCount || len(wrongExs) < wrongCount {
		return TaskPayload{}, fmt.Errorf("%w: category %d", ErrNoContent, cat.ID)
	}

	all := append(correctExs, wrongExs...)
	p.shuffleExercises(all)

	var correctIndices []int
	for i, ex := range all {
		if ex.Answer == answerType {
			correctIndices = append(correctIndices, i)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Укажите варианты ответов, в которых оба выделенных слова пишутся <b>%s</b>. Запишите номера ответов.\n\n",
		displayAnswer(answerType))
	for i, ex := range all {
		content, err := decodeContent[CompoundExamContent](ex)
		if err != nil {
			return TaskPayload{}, err
		}
		fmt.Fprintf(&b, "%d) %s\n", i+1, content.Sentence)
	}

	ids := exerciseIDs(all)
	cfg := CompoundExamConfig{
		ExerciseIDs:    ids,
		CorrectIndices: correctIndices,
		AnswerType:     answerType,
	}
	return TaskPayload{
		Prompt:      strings.TrimRight(b.String(), "\n"),
		ExerciseIDs: ids,
		Config:      marshalConfig(cfg),
	}, nil
}

func (p compoundExam) ProcessAnswer(ctx context.Context, sess *Session, userAnswer string) (Result, error) {
	if err := requireCount(sess, examCompoundCount); err != nil {
		return Result{}, err
	}
	cfg, err := decodeConfig[CompoundExamConfig](sess)
	if err != nil {
		return Result{}, err
	}
	ordered, err := orderedByConfig(sess, cfg.ExerciseIDs)
	if err != nil {
		return Result{}, err
	}

	correctAnswer := grading.IndexDigits(cfg.CorrectIndices)
	userDigits := grading.CanonicalDigits(userAnswer)
	correct := userDigits == correctAnswer

	correctAt := map[int]bool{}
	for _, i := range cfg.CorrectIndices {
		correctAt[i] = true
	}

	solve := p.solveTime(sess)
	batch := uuid.New()

	var details strings.Builder
	for i, ex := range ordered {
		content, err := decodeContent[CompoundExamContent](ex)
		if err != nil {
			return Result{}, err
		}
		userSelected := strings.ContainsRune(userDigits, rune('1'+i))
		itemRight := userSelected == correctAt[i]

		fmt.Fprintf(&details, "<b>%d)</b> <i>%s</i>\n", i+1, content.Sentence)
		fmt.Fprintf(&details, "%s\n\n", ex.Explanation)

		if err := p.appendEntry(ctx, sess, ex, itemRight, userAnswer, solve, &batch); err != nil {
			return Result{}, err
		}
	}

	explanation := verdictHeader(correct, correctAnswer, userDigits)
	explanation += fmt.Sprintf("\n\n<b>Объяснение:</b>\n<blockquote expandable>%s</blockquote>", details.String())
	return Result{Correct: correct, Explanation: explanation}, nil
}
