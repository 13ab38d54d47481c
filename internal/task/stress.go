package task

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/glagol-app/glagol/internal/grading"
)

const examStressCount = 5

// applyStress uppercases the letter at the 1-based index, the house
// rendering for a stress mark: "банты" + 2 -> "бАнты".
func applyStress(word string, index int) (string, error) {
	runes := []rune(word)
	if index < 1 || index > len(runes) {
		return "", fmt.Errorf("%w: stress index %d out of range for %q", ErrInvalidState, index, word)
	}
	runes[index-1] = []rune(strings.ToUpper(string(runes[index-1])))[0]
	return string(runes), nil
}

func stressIndex(ex Exercise) (int, error) {
	idx, err := strconv.Atoi(ex.Answer)
	if err != nil {
		return 0, fmt.Errorf("%w: exercise %d answer must be a stress index", ErrInvalidState, ex.ID)
	}
	return idx, nil
}

// stressDrill shows one word with two stress variants to pick from.
type stressDrill struct {
	base
}

func (p stressDrill) CreateTask(ctx context.Context, sess *Session) (TaskPayload, error) {
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
	content, err := decodeContent[StressContent](ex)
	if err != nil {
		return TaskPayload{}, err
	}
	answer, err := stressIndex(ex)
	if err != nil {
		return TaskPayload{}, err
	}

	correctWord, err := applyStress(content.Word, answer)
	if err != nil {
		return TaskPayload{}, err
	}
	wrongWord, err := applyStress(content.Word, content.IncorrectStress)
	if err != nil {
		return TaskPayload{}, err
	}

	options := []Option{
		{Label: correctWord, Value: strconv.Itoa(answer)},
		{Label: wrongWord, Value: strconv.Itoa(content.IncorrectStress)},
	}
	p.shuffleOptions(options)

	prompt := fmt.Sprintf("Выберите правильное ударение в слове: <b>%s</b>", content.Word)
	return TaskPayload{Prompt: prompt, Options: options, ExerciseIDs: []int64{ex.ID}}, nil
}

func (p stressDrill) ProcessAnswer(ctx context.Context, sess *Session, userAnswer string) (Result, error) {
	res, _, err := p.gradeExactSingle(ctx, sess, userAnswer)
	return res, err
}

// stressExam shows five words with a stress mark already placed, some
// correctly and some not; the user lists the numbers of the correctly
// stressed words. The persisted config is the only record of where each
// mark was placed.
type stressExam struct {
	base
}

func (p stressExam) CreateTask(ctx context.Context, sess *Session) (TaskPayload, error) {
	parentID, err := p.parentPool(sess)
	if err != nil {
		return TaskPayload{}, err
	}
	exs, err := p.src.Random(ctx, parentID, examStressCount)
	if err != nil {
		return TaskPayload{}, err
	}
	if len(exs) < examStressCount {
		return TaskPayload{}, fmt.Errorf("%w: category %d", ErrNoContent, parentID)
	}

	correctCount := p.weightedCorrectCount()
	correctAt := make([]bool, examStressCount)
	for i := 0; i < correctCount; i++ {
		correctAt[i] = true
	}
	p.rng.Shuffle(examStressCount, func(i, j int) { correctAt[i], correctAt[j] = correctAt[j], correctAt[i] })

	positions := make([]int, examStressCount)
	var b strings.Builder
	b.WriteString("Укажите варианты ответов, в которых верно выделена буква, обозначающая ударный гласный звук. Запишите номера ответов.\n\n")
	for i, ex := range exs {
		content, err := decodeContent[StressContent](ex)
		if err != nil {
			return TaskPayload{}, err
		}
		answer, err := stressIndex(ex)
		if err != nil {
			return TaskPayload{}, err
		}
		if correctAt[i] {
			positions[i] = answer
		} else {
			positions[i] = content.IncorrectStress
		}
		word, err := applyStress(content.Word, positions[i])
		if err != nil {
			return TaskPayload{}, err
		}
		fmt.Fprintf(&b, "%d) %s\n", i+1, wordInContext(word, content.ContextBefore, content.ContextAfter))
	}

	ids := exerciseIDs(exs)
	cfg := StressExamConfig{ExerciseIDs: ids, StressPositions: positions}
	return TaskPayload{
		Prompt:      strings.TrimRight(b.String(), "\n"),
		ExerciseIDs: ids,
		Config:      marshalConfig(cfg),
	}, nil
}

func (p stressExam) ProcessAnswer(ctx context.Context, sess *Session, userAnswer string) (Result, error) {
	if err := requireCount(sess, examStressCount); err != nil {
		return Result{}, err
	}
	cfg, err := decodeConfig[StressExamConfig](sess)
	if err != nil {
		return Result{}, err
	}
	if len(cfg.ExerciseIDs) != examStressCount {
		return Result{}, fmt.Errorf("%w: config holds %d exercises, want %d", ErrInvalidState, len(cfg.ExerciseIDs), examStressCount)
	}
	ordered, err := orderedByConfig(sess, cfg.ExerciseIDs)
	if err != nil {
		return Result{}, err
	}

	var correctIndices []int
	for i, ex := range ordered {
		answer, err := stressIndex(ex)
		if err != nil {
			return Result{}, err
		}
		if cfg.StressPositions[i] == answer {
			correctIndices = append(correctIndices, i)
		}
	}

	correctAnswer := grading.IndexDigits(correctIndices)
	userDigits := grading.CanonicalDigits(userAnswer)
	correct := userDigits == correctAnswer

	solve := p.solveTime(sess)
	batch := uuid.New()

	var details strings.Builder
	for i, ex := range ordered {
		content, err := decodeContent[StressContent](ex)
		if err != nil {
			return Result{}, err
		}
		answer, _ := stressIndex(ex)
		correctWord, err := applyStress(content.Word, answer)
		if err != nil {
			return Result{}, err
		}
		shownRight := cfg.StressPositions[i] == answer
		userSelected := strings.ContainsRune(userDigits, rune('1'+i))
		itemRight := userSelected == shownRight

		fmt.Fprintf(&details, "<b>%d)</b> %s\n", i+1, wordInContext(correctWord, content.ContextBefore, content.ContextAfter))
		if ex.Explanation != "" {
			fmt.Fprintf(&details, "<i>%s</i>\n", ex.Explanation)
		}
		details.WriteString("\n")

		if err := p.appendEntry(ctx, sess, ex, itemRight, userAnswer, solve, &batch); err != nil {
			return Result{}, err
		}
	}

	explanation := verdictHeader(correct, correctAnswer, userDigits)
	explanation += fmt.Sprintf("\n\n<b>Объяснения:</b>\n<blockquote expandable>%s</blockquote>", details.String())
	return Result{Correct: correct, Explanation: explanation}, nil
}

// wordInContext joins optional surrounding context around a rendered word.
func wordInContext(word, before, after string) string {
	parts := make([]string, 0, 3)
	if before != "" {
		parts = append(parts, before)
	}
	parts = append(parts, word)
	if after != "" {
		parts = append(parts, after)
	}
	return strings.Join(parts, " ")
}

// verdictHeader renders the standard digit-exam verdict block.
func verdictHeader(correct bool, correctAnswer, userDigits string) string {
	if correct {
		return fmt.Sprintf("<b>Ответ: %s</b>", correctAnswer)
	}
	return fmt.Sprintf("Ваш ответ: %s\n<b>Правильный ответ: %s</b>", userDigits, correctAnswer)
}
