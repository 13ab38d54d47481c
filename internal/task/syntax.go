package task

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/glagol-app/glagol/internal/grading"
)

const (
	examSyntaxErrorCount   = 5
	examSyntaxCorrectCount = 4
	examSyntaxTotalCount   = examSyntaxErrorCount + examSyntaxCorrectCount

	noErrorAnswer = "no_error"
)

var errorTypeDescriptions = map[string]string{
	"participial_clause_error":   "нарушение в построении предложения с причастным оборотом",
	"homogeneous_members_error":  "ошибка в построении предложения с однородными членами",
	"adverbial_participle_error": "неправильное построение предложения с деепричастным оборотом",
	"prepositional_case_error":   "неправильное употребление падежной формы существительного с предлогом",
	"subject_predicate_agreement": "нарушение связи между подлежащим и сказуемым",
	"mismatched_appositive_error": "нарушение в построении предложения с несогласованным приложением",
	"complex_sentence_error":      "ошибка в построении сложного предложения",
	"indirect_speech_error":       "неправильное построение предложения с косвенной речью",
	"verb_aspect_tense_error":     "нарушение видо-временной соотнесённости глагольных форм",
	"numeral_usage_error":         "неправильное употребление имени числительного",
}

var errorTypeShortLabels = map[string]string{
	"participial_clause_error":   "Причастный оборот",
	"homogeneous_members_error":  "Однородные члены",
	"adverbial_participle_error": "Деепричастный оборот",
	"prepositional_case_error":   "Падеж с предлогом",
	"subject_predicate_agreement": "Подлежащее и сказуемое",
	"mismatched_appositive_error": "Несогл. приложение",
	"complex_sentence_error":      "Сложное предложение",
	"indirect_speech_error":       "Косвенная речь",
	"verb_aspect_tense_error":     "Видо-время глаголов",
	"numeral_usage_error":         "Числительное",
}

// errorTypeOrder is a stable button ordering for the drill; map iteration
// order would reshuffle the keyboard on every task.
var errorTypeOrder = []string{
	"participial_clause_error",
	"homogeneous_members_error",
	"adverbial_participle_error",
	"prepositional_case_error",
	"subject_predicate_agreement",
	"mismatched_appositive_error",
	"complex_sentence_error",
	"indirect_speech_error",
	"verb_aspect_tense_error",
	"numeral_usage_error",
}

var letterLabels = []string{"А", "Б", "В", "Г", "Д"}

func shortLabel(errorType string) string {
	if label, ok := errorTypeShortLabels[errorType]; ok {
		return label
	}
	return errorType
}

func errorDescription(errorType string) string {
	if d, ok := errorTypeDescriptions[errorType]; ok {
		return d
	}
	return errorType
}

// syntaxDrill shows one broken sentence and the ten error types as
// buttons; the user names the error.
type syntaxDrill struct {
	base
}

func (p syntaxDrill) CreateTask(ctx context.Context, sess *Session) (TaskPayload, error) {
	parentID, err := p.parentPool(sess)
	if err != nil {
		return TaskPayload{}, err
	}
	exs, err := p.src.RandomWithContentField(ctx, parentID, "corrected_sentence", 1)
	if err != nil {
		return TaskPayload{}, err
	}
	if len(exs) == 0 {
		return TaskPayload{}, fmt.Errorf("%w: category %d", ErrNoContent, parentID)
	}
	ex := exs[0]
	content, err := decodeContent[SyntaxContent](ex)
	if err != nil {
		return TaskPayload{}, err
	}

	options := make([]Option, len(errorTypeOrder))
	for i, et := range errorTypeOrder {
		options[i] = Option{Label: errorTypeShortLabels[et], Value: et}
	}

	prompt := fmt.Sprintf("<b>Определите тип грамматической ошибки в предложении.</b>\n\n<i>%s</i>", content.Sentence)
	return TaskPayload{Prompt: prompt, Options: options, ExerciseIDs: []int64{ex.ID}}, nil
}

func (p syntaxDrill) ProcessAnswer(ctx context.Context, sess *Session, userAnswer string) (Result, error) {
	res, ex, err := p.gradeExactSingle(ctx, sess, userAnswer)
	if err != nil {
		return Result{}, err
	}
	content, err := decodeContent[SyntaxContent](ex)
	if err != nil {
		return Result{}, err
	}

	var parts []string
	if res.Correct {
		parts = append(parts, fmt.Sprintf("<b>Ответ:</b> %s", shortLabel(ex.Answer)))
	} else {
		parts = append(parts,
			fmt.Sprintf("<b>Ваш ответ:</b> %s", shortLabel(userAnswer)),
			fmt.Sprintf("<b>Правильный ответ:</b> %s", shortLabel(ex.Answer)))
	}
	parts = append(parts, fmt.Sprintf("\n<b>Исходное предложение:</b>\n<i>%s</i>", content.Sentence))
	if content.CorrectedSentence != "" {
		parts = append(parts, fmt.Sprintf("\n<b>Правильное предложение:</b>\n<i>%s</i>", content.CorrectedSentence))
	}
	if ex.Explanation != "" {
		parts = append(parts, fmt.Sprintf("\n<b>Объяснение:</b>\n%s", ex.Explanation))
	}
	res.Explanation = strings.Join(parts, "\n")
	return res, nil
}

// syntaxExam is the matching table: five error types lettered А-Д and
// nine sentences, four of which are error-free distractors. The user
// answers with five digits, one sentence number per letter, and the
// digit order matters.
type syntaxExam struct {
	base
}

func (p syntaxExam) CreateTask(ctx context.Context, sess *Session) (TaskPayload, error) {
	parentID, err := p.parentPool(sess)
	if err != nil {
		return TaskPayload{}, err
	}

	errorExs, err := p.src.RandomDistinctAnswers(ctx, parentID, noErrorAnswer, examSyntaxErrorCount)
	if err != nil {
		return TaskPayload{}, err
	}
	if len(errorExs) < examSyntaxErrorCount {
		return TaskPayload{}, fmt.Errorf("%w: category %d", ErrNoContent, parentID)
	}
	cleanExs, err := p.src.RandomByAnswer(ctx, parentID, noErrorAnswer, examSyntaxCorrectCount)
	if err != nil {
		return TaskPayload{}, err
	}
	if len(cleanExs) < examSyntaxCorrectCount {
		return TaskPayload{}, fmt.Errorf("%w: category %d", ErrNoContent, parentID)
	}

	all := append(append([]Exercise{}, errorExs...), cleanExs...)
	p.shuffleExercises(all)

	order := make([]string, examSyntaxErrorCount)
	for i, ex := range errorExs {
		order[i] = ex.Answer
	}
	p.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	var b strings.Builder
	b.WriteString("<b>Установите соответствие между грамматическими ошибками и предложениями, " +
		"в которых они допущены: к каждой позиции первого столбца подберите " +
		"соответствующую позицию из второго столбца.</b>\n\n" +
		"<b>ГРАММАТИЧЕСКИЕ ОШИБКИ</b>\n")
	for i, et := range order {
		fmt.Fprintf(&b, "%s) %s\n", letterLabels[i], errorDescription(et))
	}
	b.WriteString("\n<b>ПРЕДЛОЖЕНИЯ</b>\n")
	for i, ex := range all {
		content, err := decodeContent[SyntaxContent](ex)
		if err != nil {
			return TaskPayload{}, err
		}
		fmt.Fprintf(&b, "%d) %s\n", i+1, content.Sentence)
	}
	b.WriteString("\nЗапишите в ответ цифры, соответствующие буквам АБВГД.")

	ids := exerciseIDs(all)
	cfg := SyntaxExamConfig{ExerciseIDs: ids, ErrorTypeOrder: order}
	return TaskPayload{
		Prompt:      b.String(),
		ExerciseIDs: ids,
		Config:      marshalConfig(cfg),
	}, nil
}

func (p syntaxExam) ProcessAnswer(ctx context.Context, sess *Session, userAnswer string) (Result, error) {
	if err := requireCount(sess, examSyntaxTotalCount); err != nil {
		return Result{}, err
	}
	cfg, err := decodeConfig[SyntaxExamConfig](sess)
	if err != nil {
		return Result{}, err
	}
	ordered, err := orderedByConfig(sess, cfg.ExerciseIDs)
	if err != nil {
		return Result{}, err
	}

	var correctAnswer strings.Builder
	for _, et := range cfg.ErrorTypeOrder {
		for i, ex := range ordered {
			if ex.Answer == et {
				fmt.Fprintf(&correctAnswer, "%d", i+1)
				break
			}
		}
	}

	userDigits := grading.Digits(userAnswer)
	correct := userDigits == correctAnswer.String()

	userSelected := map[int]bool{}
	for _, c := range userDigits {
		userSelected[int(c-'0')] = true
	}

	letterOf := map[string]int{}
	for i, et := range cfg.ErrorTypeOrder {
		letterOf[et] = i
	}

	solve := p.solveTime(sess)
	batch := uuid.New()

	var details strings.Builder
	for i, ex := range ordered {
		content, err := decodeContent[SyntaxContent](ex)
		if err != nil {
			return Result{}, err
		}
		details.WriteString("<blockquote expandable>")

		var itemRight bool
		if ex.Answer != noErrorAnswer {
			errorIdx := letterOf[ex.Answer]
			itemRight = errorIdx < len(userDigits) && userDigits[errorIdx] == byte('1'+i)

			fmt.Fprintf(&details, "<b>%d) %s — %s</b>\n", i+1, letterLabels[errorIdx], errorDescription(ex.Answer))
			fmt.Fprintf(&details, "<b>Исходное предложение:</b> <i>%s</i>\n", content.Sentence)
			if content.CorrectedSentence != "" {
				fmt.Fprintf(&details, "<b>Правильное предложение:</b> <i>%s</i>\n", content.CorrectedSentence)
			}
			if ex.Explanation != "" {
				fmt.Fprintf(&details, "<b>Объяснение:</b> %s\n\n", ex.Explanation)
			}
		} else {
			itemRight = !userSelected[i+1]
			fmt.Fprintf(&details, "<b>%d) Нет ошибки</b>\n", i+1)
			fmt.Fprintf(&details, "<b>Предложение:</b> <i>%s</i>\n\n", content.Sentence)
		}
		details.WriteString("</blockquote>\n")

		if err := p.appendEntry(ctx, sess, ex, itemRight, userAnswer, solve, &batch); err != nil {
			return Result{}, err
		}
	}

	var b strings.Builder
	if correct {
		fmt.Fprintf(&b, "<b>Ответ: %s</b>\n\n", correctAnswer.String())
	} else {
		fmt.Fprintf(&b, "Ваш ответ: %s\n<b>Правильный ответ: %s</b>\n\n", userDigits, correctAnswer.String())
	}
	b.WriteString(details.String())
	return Result{Correct: correct, Explanation: b.String()}, nil
}
