package task

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/glagol-app/glagol/internal/grading"
)

const (
	examParonymCount    = 5
	examParonymPoolSize = 50
)

// fillWord substitutes the {word} placeholder of a sentence template.
func fillWord(sentence, word string) string {
	return strings.ReplaceAll(sentence, "{word}", word)
}

// correctParonym resolves the paronym the canonical answer points at.
func correctParonym(ex Exercise, content ParonymContent) (Paronym, error) {
	n, err := strconv.Atoi(ex.Answer)
	if err != nil || n < 1 || n > len(content.Paronyms) {
		return Paronym{}, fmt.Errorf("%w: exercise %d answer must index a paronym", ErrInvalidState, ex.ID)
	}
	return content.Paronyms[n-1], nil
}

// underlinedSentence renders the sentence with the correct word filled in
// and underlined, capitalized when it opens the sentence.
func underlinedSentence(content ParonymContent, word string) string {
	text := strings.ToLower(word)
	if strings.HasPrefix(strings.TrimLeft(content.Sentence, " "), "{word}") {
		runes := []rune(text)
		runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		text = string(runes)
	}
	return fillWord(content.Sentence, "<u>"+text+"</u>")
}

func paronymExplanations(content ParonymContent) string {
	parts := make([]string, len(content.Paronyms))
	for i, p := range content.Paronyms {
		parts[i] = p.Explanation
	}
	return strings.Join(parts, "\n\n")
}

// paronymDrill asks to pick the paronym that fits the sentence.
type paronymDrill struct {
	base
}

func (p paronymDrill) CreateTask(ctx context.Context, sess *Session) (TaskPayload, error) {
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
	content, err := decodeContent[ParonymContent](ex)
	if err != nil {
		return TaskPayload{}, err
	}

	options := make([]Option, len(content.Paronyms))
	for i, par := range content.Paronyms {
		options[i] = Option{Label: par.InflectedForm, Value: strconv.Itoa(i + 1)}
	}

	sentence := fillWord(content.Sentence, html.EscapeString("< . . . >"))
	prompt := fmt.Sprintf(
		"В предложении пропущено слово. Выберите из предложенных паронимов подходящее по смыслу.\n\n%s",
		sentence,
	)
	return TaskPayload{Prompt: prompt, Options: options, ExerciseIDs: []int64{ex.ID}}, nil
}

func (p paronymDrill) ProcessAnswer(ctx context.Context, sess *Session, userAnswer string) (Result, error) {
	res, ex, err := p.gradeExactSingle(ctx, sess, userAnswer)
	if err != nil {
		return Result{}, err
	}
	content, err := decodeContent[ParonymContent](ex)
	if err != nil {
		return Result{}, err
	}
	par, err := correctParonym(ex, content)
	if err != nil {
		return Result{}, err
	}
	res.Explanation = fmt.Sprintf("%s\n\n\n%s",
		underlinedSentence(content, par.InflectedForm), paronymExplanations(content))
	return res, nil
}

// paronymExam shows five sentences, four with the right paronym and one
// with the wrong one; the user types the word that fixes the broken
// sentence. Selection avoids sentences whose paronym families overlap.
type paronymExam struct {
	base
}

// selectWithoutWordOverlap keeps the first exercises whose paronym base
// words do not repeat across selected sentences.
func selectWithoutWordOverlap(pool []Exercise, limit int) ([]Exercise, error) {
	selected := make([]Exercise, 0, limit)
	used := map[string]bool{}

	for _, ex := range pool {
		content, err := decodeContent[ParonymContent](ex)
		if err != nil {
			return nil, err
		}
		overlap := false
		for _, w := range content.Words {
			if used[w] {
				overlap = true
				break
			}
		}
		if overlap {
			continue
		}
		for _, w := range content.Words {
			used[w] = true
		}
		selected = append(selected, ex)
		if len(selected) == limit {
			break
		}
	}
	return selected, nil
}

func (p paronymExam) CreateTask(ctx context.Context, sess *Session) (TaskPayload, error) {
	parentID, err := p.parentPool(sess)
	if err != nil {
		return TaskPayload{}, err
	}
	pool, err := p.src.Random(ctx, parentID, examParonymPoolSize)
	if err != nil {
		return TaskPayload{}, err
	}
	exs, err := selectWithoutWordOverlap(pool, examParonymCount)
	if err != nil {
		return TaskPayload{}, err
	}
	if len(exs) < examParonymCount {
		return TaskPayload{}, fmt.Errorf("%w: category %d", ErrNoContent, parentID)
	}

	wrongIndex := p.rng.Intn(examParonymCount)

	var b strings.Builder
	b.WriteString("В одном из приведённых ниже предложений <b>НЕВЕРНО</b> употреблено выделенное слово. " +
		"Исправьте лексическую ошибку, <b>подобрав к выделенному слову пароним</b>. Запишите подобранное слово, " +
		"соблюдая нормы современного русского литературного языка.\n\n\n")
	for i, ex := range exs {
		content, err := decodeContent[ParonymContent](ex)
		if err != nil {
			return TaskPayload{}, err
		}
		var shown Paronym
		if i == wrongIndex {
			shown = content.Paronyms[content.SecondaryNumber-1]
		} else {
			shown, err = correctParonym(ex, content)
			if err != nil {
				return TaskPayload{}, err
			}
		}
		sentence := fillWord(content.Sentence, "<b>"+strings.ToUpper(shown.InflectedForm)+"</b>")
		fmt.Fprintf(&b, "%d) %s\n", i+1, sentence)
	}

	ids := exerciseIDs(exs)
	cfg := ParonymExamConfig{ExerciseIDs: ids, WrongSentenceIndex: wrongIndex}
	return TaskPayload{
		Prompt:      strings.TrimRight(b.String(), "\n"),
		ExerciseIDs: ids,
		Config:      marshalConfig(cfg),
	}, nil
}

func (p paronymExam) ProcessAnswer(ctx context.Context, sess *Session, userAnswer string) (Result, error) {
	if err := requireCount(sess, examParonymCount); err != nil {
		return Result{}, err
	}
	cfg, err := decodeConfig[ParonymExamConfig](sess)
	if err != nil {
		return Result{}, err
	}
	ordered, err := orderedByConfig(sess, cfg.ExerciseIDs)
	if err != nil {
		return Result{}, err
	}

	wrongEx := ordered[cfg.WrongSentenceIndex]
	content, err := decodeContent[ParonymContent](wrongEx)
	if err != nil {
		return Result{}, err
	}
	correctPar, err := correctParonym(wrongEx, content)
	if err != nil {
		return Result{}, err
	}
	wrongPar := content.Paronyms[content.SecondaryNumber-1]

	correct := grading.Match(userAnswer, correctPar.InflectedForm, grading.MatchOptions{YoTolerance: true})

	solve := p.solveTime(sess)
	batch := uuid.New()
	for i, ex := range ordered {
		itemRight := true
		if i == cfg.WrongSentenceIndex {
			itemRight = correct
		}
		if err := p.appendEntry(ctx, sess, ex, itemRight, userAnswer, solve, &batch); err != nil {
			return Result{}, err
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", underlinedSentence(content, correctPar.InflectedForm))
	if correct {
		fmt.Fprintf(&b, "<b>Ответ: %s</b>\n", correctPar.InflectedForm)
	} else {
		fmt.Fprintf(&b, "<b>Ваш ответ: %s</b>\n", html.EscapeString(userAnswer))
		fmt.Fprintf(&b, "<b>Правильный ответ: %s</b>\n", correctPar.InflectedForm)
	}
	fmt.Fprintf(&b, "<b>Неправильное слово в задании: %s</b>\n\n", wrongPar.InflectedForm)
	b.WriteString(paronymExplanations(content))

	return Result{Correct: correct, Explanation: b.String()}, nil
}
