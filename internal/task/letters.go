package task

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/glagol-app/glagol/internal/grading"
)

const examLetterRows = 5

// wordDisplay substitutes the {letter} placeholder with a concrete letter.
func wordDisplay(word, letter string) string {
	return strings.ReplaceAll(word, "{letter}", letter)
}

// wordGap renders the {letter} placeholder as a gap.
func wordGap(word string) string {
	return strings.ReplaceAll(word, "{letter}", "..")
}

// letterDrill shows one word with a letter gap and two candidate letters.
type letterDrill struct {
	base
}

func (p letterDrill) CreateTask(ctx context.Context, sess *Session) (TaskPayload, error) {
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
	content, err := decodeContent[LetterContent](ex)
	if err != nil {
		return TaskPayload{}, err
	}

	options := []Option{
		{Label: wordDisplay(content.Word, strings.ToUpper(ex.Answer)), Value: ex.Answer},
		{Label: wordDisplay(content.Word, strings.ToUpper(content.IncorrectLetter)), Value: content.IncorrectLetter},
	}
	p.shuffleOptions(options)

	gapped := wordInContext(wordGap(content.Word), content.ContextBefore, content.ContextAfter)
	prompt := fmt.Sprintf("Выберите правильный вариант ответа, вставив пропущенную букву в слово.\n\n<i>%s</i>", gapped)
	return TaskPayload{Prompt: prompt, Options: options, ExerciseIDs: []int64{ex.ID}}, nil
}

func (p letterDrill) ProcessAnswer(ctx context.Context, sess *Session, userAnswer string) (Result, error) {
	ex, err := p.single(sess)
	if err != nil {
		return Result{}, err
	}
	content, err := decodeContent[LetterContent](ex)
	if err != nil {
		return Result{}, err
	}

	correct := grading.Match(userAnswer, ex.Answer, grading.MatchOptions{YoTolerance: true})

	if err := p.appendEntry(ctx, sess, ex, correct, userAnswer, p.solveTime(sess), nil); err != nil {
		return Result{}, err
	}

	correctWord := wordDisplay(content.Word, strings.ToUpper(ex.Answer))
	var explanation string
	if correct {
		explanation = fmt.Sprintf("<b>Ответ:</b> %s\n\n%s", correctWord, ex.Explanation)
	} else {
		explanation = fmt.Sprintf("<b>Ваш ответ:</b> %s\n<b>Правильный ответ:</b> %s\n\n%s",
			wordDisplay(content.Word, strings.ToUpper(userAnswer)), correctWord, ex.Explanation)
	}
	return Result{Correct: correct, Explanation: explanation}, nil
}

// letterExam builds five rows of gapped words; the user lists the rows
// where every word takes the same letter. Correct rows come from
// same-answer clusters, wrong rows are assembled to be confusable: they
// mix words whose missing letters differ but whose plausible wrong
// letters collide.
type letterExam struct {
	base
	wordsPerRow int
}

func incorrectLetterOf(ex Exercise) (string, error) {
	content, err := decodeContent[LetterContent](ex)
	if err != nil {
		return "", err
	}
	return content.IncorrectLetter, nil
}

// letterIndex groups a pool by canonical answer and by plausible wrong
// letter, for confusable row assembly.
type letterIndex struct {
	byAnswer    map[string][]Exercise
	byIncorrect map[string][]Exercise
}

func indexByLetter(pool []Exercise) (letterIndex, error) {
	idx := letterIndex{
		byAnswer:    map[string][]Exercise{},
		byIncorrect: map[string][]Exercise{},
	}
	for _, ex := range pool {
		idx.byAnswer[ex.Answer] = append(idx.byAnswer[ex.Answer], ex)
		inc, err := incorrectLetterOf(ex)
		if err != nil {
			return letterIndex{}, err
		}
		idx.byIncorrect[inc] = append(idx.byIncorrect[inc], ex)
	}
	return idx, nil
}

func (idx letterIndex) unused(exs []Exercise, used map[int64]bool) []Exercise {
	var out []Exercise
	for _, ex := range exs {
		if !used[ex.ID] {
			out = append(out, ex)
		}
	}
	return out
}

func (idx letterIndex) remaining(used map[int64]bool) []Exercise {
	var out []Exercise
	for _, exs := range idx.byAnswer {
		out = append(out, idx.unused(exs, used)...)
	}
	return out
}

func mixedAnswers(row []Exercise) bool {
	seen := map[string]bool{}
	for _, ex := range row {
		seen[ex.Answer] = true
	}
	return len(seen) > 1
}

// buildConfusingRow2 pairs a word whose answer is some letter with one
// whose plausible wrong letter is that same letter but whose answer is
// not. Falls back to any mixed-answer pair.
func (p letterExam) buildConfusingRow2(idx letterIndex, used map[int64]bool) []Exercise {
	letters := make([]string, 0, len(idx.byAnswer))
	for l := range idx.byAnswer {
		letters = append(letters, l)
	}
	p.rng.Shuffle(len(letters), func(i, j int) { letters[i], letters[j] = letters[j], letters[i] })

	for _, letter := range letters {
		correct := idx.unused(idx.byAnswer[letter], used)
		var confuse []Exercise
		for _, ex := range idx.unused(idx.byIncorrect[letter], used) {
			if ex.Answer != letter {
				confuse = append(confuse, ex)
			}
		}
		if len(correct) > 0 && len(confuse) > 0 {
			row := []Exercise{correct[0], confuse[0]}
			p.shuffleExercises(row)
			return row
		}
	}

	rest := idx.remaining(used)
	p.shuffleExercises(rest)
	for i, ex1 := range rest {
		for _, ex2 := range rest[i+1:] {
			if ex1.Answer != ex2.Answer {
				row := []Exercise{ex1, ex2}
				p.shuffleExercises(row)
				return row
			}
		}
	}
	return nil
}

// buildConfusingRow3 assembles confusable triples around one letter,
// trying correct/confusing splits of 2+1, 1+2 and 0+3 in random order.
func (p letterExam) buildConfusingRow3(idx letterIndex, used map[int64]bool) []Exercise {
	letters := make([]string, 0, len(idx.byIncorrect))
	for l := range idx.byIncorrect {
		letters = append(letters, l)
	}
	p.rng.Shuffle(len(letters), func(i, j int) { letters[i], letters[j] = letters[j], letters[i] })

	for _, letter := range letters {
		correct := idx.unused(idx.byAnswer[letter], used)
		var confuse []Exercise
		for _, ex := range idx.unused(idx.byIncorrect[letter], used) {
			if ex.Answer != letter {
				confuse = append(confuse, ex)
			}
		}

		strategies := [][2]int{{2, 1}, {1, 2}, {0, 3}}
		p.rng.Shuffle(len(strategies), func(i, j int) { strategies[i], strategies[j] = strategies[j], strategies[i] })

		for _, s := range strategies {
			nc, ni := s[0], s[1]
			if len(correct) >= nc && len(confuse) >= ni {
				row := append(append([]Exercise{}, correct[:nc]...), confuse[:ni]...)
				if mixedAnswers(row) {
					p.shuffleExercises(row)
					return row
				}
			}
		}
	}

	rest := idx.remaining(used)
	p.shuffleExercises(rest)
	for i := 0; i+2 < len(rest); i++ {
		triple := append([]Exercise{}, rest[i:i+3]...)
		if mixedAnswers(triple) {
			p.shuffleExercises(triple)
			return triple
		}
	}
	return nil
}

func (p letterExam) buildWrongRows(wrongCount int, remaining []Exercise) ([][]Exercise, error) {
	idx, err := indexByLetter(remaining)
	if err != nil {
		return nil, err
	}

	var rows [][]Exercise
	used := map[int64]bool{}
	for len(rows) < wrongCount {
		var row []Exercise
		if p.wordsPerRow == 2 {
			row = p.buildConfusingRow2(idx, used)
		} else {
			row = p.buildConfusingRow3(idx, used)
		}
		if row == nil {
			break
		}
		rows = append(rows, row)
		for _, ex := range row {
			used[ex.ID] = true
		}
	}
	return rows, nil
}

func (p letterExam) CreateTask(ctx context.Context, sess *Session) (TaskPayload, error) {
	parentID, err := p.parentPool(sess)
	if err != nil {
		return TaskPayload{}, err
	}

	correctCount := p.weightedCorrectCount()
	wrongCount := examLetterRows - correctCount

	correctExs, err := p.src.RandomSameAnswerGroups(ctx, parentID, p.wordsPerRow, correctCount)
	if err != nil {
		return TaskPayload{}, err
	}
	if len(correctExs) < correctCount*p.wordsPerRow {
		return TaskPayload{}, fmt.Errorf("%w: category %d", ErrNoContent, parentID)
	}

	byAnswer := map[string][]Exercise{}
	var answerOrder []string
	for _, ex := range correctExs {
		if _, ok := byAnswer[ex.Answer]; !ok {
			answerOrder = append(answerOrder, ex.Answer)
		}
		byAnswer[ex.Answer] = append(byAnswer[ex.Answer], ex)
	}
	correctRows := make([][]Exercise, 0, len(answerOrder))
	for _, a := range answerOrder {
		correctRows = append(correctRows, byAnswer[a])
	}

	used := map[int64]bool{}
	for _, ex := range correctExs {
		used[ex.ID] = true
	}

	wrongPool, err := p.src.Random(ctx, parentID, wrongCount*p.wordsPerRow*3)
	if err != nil {
		return TaskPayload{}, err
	}
	remaining := make([]Exercise, 0, len(wrongPool))
	for _, ex := range wrongPool {
		if !used[ex.ID] {
			remaining = append(remaining, ex)
		}
	}

	wrongRows, err := p.buildWrongRows(wrongCount, remaining)
	if err != nil {
		return TaskPayload{}, err
	}
	if len(wrongRows) < wrongCount {
		return TaskPayload{}, fmt.Errorf("%w: category %d", ErrNoContent, parentID)
	}

	type taggedRow struct {
		row     []Exercise
		correct bool
	}
	tagged := make([]taggedRow, 0, examLetterRows)
	for _, row := range correctRows {
		tagged = append(tagged, taggedRow{row: row, correct: true})
	}
	for _, row := range wrongRows {
		tagged = append(tagged, taggedRow{row: row})
	}
	p.rng.Shuffle(len(tagged), func(i, j int) { tagged[i], tagged[j] = tagged[j], tagged[i] })

	var correctRowIndices []int
	var b strings.Builder
	b.WriteString("<b>Укажите варианты ответов, в которых во всех словах одного ряда " +
		"пропущена одна и та же буква. Запишите номера ответов.</b>\n\n")

	var ids []int64
	for i, t := range tagged {
		if t.correct {
			correctRowIndices = append(correctRowIndices, i)
		}
		words := make([]string, 0, len(t.row))
		for _, ex := range t.row {
			content, err := decodeContent[LetterContent](ex)
			if err != nil {
				return TaskPayload{}, err
			}
			words = append(words, wordInContext(wordGap(content.Word), content.ContextBefore, content.ContextAfter))
			ids = append(ids, ex.ID)
		}
		fmt.Fprintf(&b, "%d) %s\n", i+1, strings.Join(words, ", "))
	}

	cfg := LetterExamConfig{
		ExerciseIDs:       ids,
		CorrectRowIndices: correctRowIndices,
		WordsPerRow:       p.wordsPerRow,
	}
	return TaskPayload{
		Prompt:      strings.TrimRight(b.String(), "\n"),
		ExerciseIDs: ids,
		Config:      marshalConfig(cfg),
	}, nil
}

func (p letterExam) ProcessAnswer(ctx context.Context, sess *Session, userAnswer string) (Result, error) {
	if err := requireCount(sess, examLetterRows*p.wordsPerRow); err != nil {
		return Result{}, err
	}
	cfg, err := decodeConfig[LetterExamConfig](sess)
	if err != nil {
		return Result{}, err
	}
	ordered, err := orderedByConfig(sess, cfg.ExerciseIDs)
	if err != nil {
		return Result{}, err
	}
	wpr := cfg.WordsPerRow

	correctAnswer := grading.IndexDigits(cfg.CorrectRowIndices)
	userDigits := grading.CanonicalDigits(userAnswer)
	correct := userDigits == correctAnswer

	correctRow := map[int]bool{}
	for _, i := range cfg.CorrectRowIndices {
		correctRow[i] = true
	}

	solve := p.solveTime(sess)
	batch := uuid.New()

	var details strings.Builder
	for rowIdx := 0; rowIdx < examLetterRows; rowIdx++ {
		rowExs := ordered[rowIdx*wpr : (rowIdx+1)*wpr]
		userSelected := strings.ContainsRune(userDigits, rune('1'+rowIdx))
		rowRight := userSelected == correctRow[rowIdx]

		fmt.Fprintf(&details, "<b>%d)</b>\n", rowIdx+1)
		for _, ex := range rowExs {
			content, err := decodeContent[LetterContent](ex)
			if err != nil {
				return Result{}, err
			}
			shown := wordInContext(
				wordDisplay(content.Word, "<b>"+strings.ToUpper(ex.Answer)+"</b>"),
				content.ContextBefore, content.ContextAfter)
			fmt.Fprintf(&details, "%s\n", shown)
			if ex.Explanation != "" {
				fmt.Fprintf(&details, "<i>%s</i>\n", ex.Explanation)
			}
			details.WriteString("\n")
		}

		for _, ex := range rowExs {
			if err := p.appendEntry(ctx, sess, ex, rowRight, userAnswer, solve, &batch); err != nil {
				return Result{}, err
			}
		}
	}

	explanation := verdictHeader(correct, correctAnswer, userDigits)
	explanation += fmt.Sprintf("\n\n<b>Объяснения:</b>\n<blockquote expandable>%s</blockquote>", details.String())
	return Result{Correct: correct, Explanation: explanation}, nil
}
