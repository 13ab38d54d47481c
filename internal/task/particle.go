package task

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/glagol-app/glagol/internal/grading"
)

const examParticleCount = 5

const (
	answerTogether = "TOGETHER"
	answerSeparate = "SEPARATE"
	answerHyphen   = "HYPHEN"

	particleModeNe   = "НЕ"
	particleModeNeNi = "НЕ/НИ"
)

var answerDisplay = map[string]string{
	answerTogether: "слитно",
	answerSeparate: "раздельно",
	answerHyphen:   "через дефис",
}

func displayAnswer(answer string) string {
	if d, ok := answerDisplay[answer]; ok {
		return d
	}
	return answer
}

// niCountWeights picks how many НИ sentences a mixed-mode exam carries.
var niCountWeights = []int{4, 4, 1}

// particleDrill asks whether the particle in one sentence is written
// together or separately.
type particleDrill struct {
	base
}

func (p particleDrill) CreateTask(ctx context.Context, sess *Session) (TaskPayload, error) {
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
	content, err := decodeContent[ParticleContent](ex)
	if err != nil {
		return TaskPayload{}, err
	}

	prompt := fmt.Sprintf("Укажите, как пишется частица <b>%s</b> в данном предложении.\n\n<i>%s</i>",
		content.Particle, content.Sentence)
	options := []Option{
		{Label: "Слитно", Value: answerTogether},
		{Label: "Раздельно", Value: answerSeparate},
	}
	return TaskPayload{Prompt: prompt, Options: options, ExerciseIDs: []int64{ex.ID}}, nil
}

func (p particleDrill) ProcessAnswer(ctx context.Context, sess *Session, userAnswer string) (Result, error) {
	res, ex, err := p.gradeExactSingle(ctx, sess, userAnswer)
	if err != nil {
		return Result{}, err
	}
	if res.Correct {
		res.Explanation = fmt.Sprintf("<b>Ответ:</b> %s\n\n%s", displayAnswer(ex.Answer), ex.Explanation)
	} else {
		res.Explanation = fmt.Sprintf("<b>Ваш ответ:</b> %s\n<b>Правильный ответ:</b> %s\n\n%s",
			displayAnswer(userAnswer), displayAnswer(ex.Answer), ex.Explanation)
	}
	return res, nil
}

// particleExam shows five sentences and asks for the ones where the
// particle takes a given spelling. Most exams use НЕ only; one in ten
// mixes in НИ sentences.
type particleExam struct {
	base
}

func (p particleExam) CreateTask(ctx context.Context, sess *Session) (TaskPayload, error) {
	parentID, err := p.parentPool(sess)
	if err != nil {
		return TaskPayload{}, err
	}

	mode := particleModeNe
	if p.rng.Intn(10) == 0 {
		mode = particleModeNeNi
	}
	answerType := answerTogether
	if p.rng.Intn(2) == 1 {
		answerType = answerSeparate
	}
	opposite := answerSeparate
	if answerType == answerSeparate {
		opposite = answerTogether
	}
	correctCount := p.weightedCorrectCount()
	wrongCount := examParticleCount - correctCount

	var all []Exercise
	if mode == particleModeNe {
		all, err = p.fetchNe(ctx, parentID, answerType, opposite, correctCount, wrongCount)
	} else {
		all, err = p.fetchNeNi(ctx, parentID, answerType, opposite, correctCount)
	}
	if err != nil {
		return TaskPayload{}, err
	}
	p.shuffleExercises(all)

	var correctIndices []int
	for i, ex := range all {
		if ex.Answer == answerType {
			correctIndices = append(correctIndices, i)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Укажите варианты ответов, в которых <b>%s</b> пишется <b>%s</b>. Запишите номера ответов.\n\n",
		mode, displayAnswer(answerType))
	for i, ex := range all {
		content, err := decodeContent[ParticleContent](ex)
		if err != nil {
			return TaskPayload{}, err
		}
		fmt.Fprintf(&b, "%d) %s\n", i+1, content.Sentence)
	}

	ids := exerciseIDs(all)
	cfg := ParticleExamConfig{
		ExerciseIDs:    ids,
		CorrectIndices: correctIndices,
		AnswerType:     answerType,
		Mode:           mode,
	}
	return TaskPayload{
		Prompt:      strings.TrimRight(b.String(), "\n"),
		ExerciseIDs: ids,
		Config:      marshalConfig(cfg),
	}, nil
}

func (p particleExam) fetchNe(ctx context.Context, categoryID int64, answerType, opposite string, correctCount, wrongCount int) ([]Exercise, error) {
	correctExs, err := p.src.RandomByAnswerAndContentValue(ctx, categoryID, answerType, "particle", "НЕ", correctCount)
	if err != nil {
		return nil, err
	}
	wrongExs, err := p.src.RandomByAnswerAndContentValue(ctx, categoryID, opposite, "particle", "НЕ", wrongCount)
	if err != nil {
		return nil, err
	}
	if len(correctExs) < correctCount || len(wrongExs) < wrongCount {
		return nil, fmt.Errorf("%w: category %d", ErrNoContent, categoryID)
	}
	return append(correctExs, wrongExs...), nil
}

func (p particleExam) fetchNeNi(ctx context.Context, categoryID int64, answerType, opposite string, correctCount int) ([]Exercise, error) {
	niCount := 1 + p.weightedIndex(niCountWeights)

	niExs, err := p.src.RandomByContentValue(ctx, categoryID, "particle", "НИ", niCount)
	if err != nil {
		return nil, err
	}
	if len(niExs) == 0 {
		return nil, fmt.Errorf("%w: category %d", ErrNoContent, categoryID)
	}
	niCount = len(niExs)

	niCorrect := 0
	for _, ex := range niExs {
		if ex.Answer == answerType {
			niCorrect++
		}
	}

	neTotal := examParticleCount - niCount
	neCorrectNeeded := correctCount - niCorrect
	if neCorrectNeeded < 1 {
		neCorrectNeeded = 1
	}
	if neCorrectNeeded > neTotal-1 {
		neCorrectNeeded = neTotal - 1
	}
	neWrongNeeded := neTotal - neCorrectNeeded

	neCorrectExs, err := p.src.RandomByAnswerAndContentValue(ctx, categoryID, answerType, "particle", "НЕ", neCorrectNeeded)
	if err != nil {
		return nil, err
	}
	neWrongExs, err := p.src.RandomByAnswerAndContentValue(ctx, categoryID, opposite, "particle", "НЕ", neWrongNeeded)
	if err != nil {
		return nil, err
	}
	if len(neCorrectExs) < neCorrectNeeded || len(neWrongExs) < neWrongNeeded {
		return nil, fmt.Errorf("%w: category %d", ErrNoContent, categoryID)
	}

	all := append(niExs, neCorrectExs...)
	return append(all, neWrongExs...), nil
}

func (p particleExam) ProcessAnswer(ctx context.Context, sess *Session, userAnswer string) (Result, error) {
	if err := requireCount(sess, examParticleCount); err != nil {
		return Result{}, err
	}
	cfg, err := decodeConfig[ParticleExamConfig](sess)
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
		content, err := decodeContent[ParticleContent](ex)
		if err != nil {
			return Result{}, err
		}
		userSelected := strings.ContainsRune(userDigits, rune('1'+i))
		itemRight := userSelected == correctAt[i]

		fmt.Fprintf(&details, "<b>%d)</b> %s\n", i+1, content.Sentence)
		fmt.Fprintf(&details, "<i>Пишется %s. %s</i>\n\n", displayAnswer(ex.Answer), ex.Explanation)

		if err := p.appendEntry(ctx, sess, ex, itemRight, userAnswer, solve, &batch); err != nil {
			return Result{}, err
		}
	}

	explanation := verdictHeader(correct, correctAnswer, userDigits)
	explanation += fmt.Sprintf("\n\n<b>Объяснения:</b>\n<blockquote expandable>%s</blockquote>", details.String())
	return Result{Correct: correct, Explanation: explanation}, nil
}
