package task

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Content envelopes describe the JSON shape of exercise content, one per
// archetype family. They are decoded and validated only by the processor
// that owns them; everywhere else content stays an opaque blob. The same
// goes for the exam configs persisted between task creation and grading.

type validatable interface {
	validate() error
}

func decodeContent[T validatable](ex Exercise) (T, error) {
	var v T
	if err := json.Unmarshal(ex.Content, &v); err != nil {
		return v, fmt.Errorf("exercise %d content: %w", ex.ID, errors.Join(ErrInvalidState, err))
	}
	if err := v.validate(); err != nil {
		return v, fmt.Errorf("exercise %d content: %w", ex.ID, errors.Join(ErrInvalidState, err))
	}
	return v, nil
}

func decodeConfig[T validatable](sess *Session) (T, error) {
	var v T
	if len(sess.TaskConfig) == 0 {
		return v, fmt.Errorf("%w: task config required but absent", ErrInvalidState)
	}
	if err := json.Unmarshal(sess.TaskConfig, &v); err != nil {
		return v, fmt.Errorf("task config: %w", errors.Join(ErrInvalidState, err))
	}
	if err := v.validate(); err != nil {
		return v, fmt.Errorf("task config: %w", errors.Join(ErrInvalidState, err))
	}
	return v, nil
}

func marshalConfig(v any) json.RawMessage {
	buf, err := json.Marshal(v)
	if err != nil {
		// configs are plain structs of ids and ints; this cannot fail
		panic(err)
	}
	return buf
}

// --- reading comprehension (task 1) ---

type ReadingContent struct {
	Text        string `json:"text"`
	Instruction string `json:"instruction"`
}

func (c ReadingContent) validate() error {
	if c.Text == "" || c.Instruction == "" {
		return errors.New("text and instruction required")
	}
	return nil
}

// --- lexical definition check (task 2) ---

type DefinitionContent struct {
	Text               string `json:"text"`
	WordWithDefinition string `json:"word_with_definition"`
}

func (c DefinitionContent) validate() error {
	if c.Text == "" || c.WordWithDefinition == "" {
		return errors.New("text and word_with_definition required")
	}
	return nil
}

// --- text statements (task 3) ---

type StatementsContent struct {
	Text       string   `json:"text"`
	Statements []string `json:"statements"`
}

func (c StatementsContent) validate() error {
	if c.Text == "" || len(c.Statements) == 0 {
		return errors.New("text and statements required")
	}
	return nil
}

// --- stress placement (task 4) ---

type StressContent struct {
	Word            string `json:"word"`
	IncorrectStress int    `json:"incorrect_stress"`
	ContextBefore   string `json:"context_before,omitempty"`
	ContextAfter    string `json:"context_after,omitempty"`
}

func (c StressContent) validate() error {
	if c.Word == "" {
		return errors.New("word required")
	}
	if c.IncorrectStress < 1 {
		return errors.New("incorrect_stress must be a 1-based letter index")
	}
	return nil
}

// StressExamConfig records where the stress mark was placed in each
// displayed word; correctness is re-derived from these positions alone.
type StressExamConfig struct {
	ExerciseIDs     []int64 `json:"exercise_ids"`
	StressPositions []int   `json:"stress_positions"`
}

func (c StressExamConfig) validate() error {
	if len(c.ExerciseIDs) == 0 || len(c.ExerciseIDs) != len(c.StressPositions) {
		return errors.New("exercise_ids and stress_positions must align")
	}
	return nil
}

// --- paronyms (task 5) ---

type Paronym struct {
	Explanation   string `json:"explanation"`
	InflectedForm string `json:"inflected_form"`
}

type ParonymContent struct {
	Sentence        string    `json:"sentence"`
	Words           []string  `json:"words"`
	Paronyms        []Paronym `json:"paronyms"`
	SecondaryNumber int       `json:"secondary_number"`
}

func (c ParonymContent) validate() error {
	if c.Sentence == "" || len(c.Paronyms) == 0 {
		return errors.New("sentence and paronyms required")
	}
	if c.SecondaryNumber < 1 || c.SecondaryNumber > len(c.Paronyms) {
		return errors.New("secondary_number out of range")
	}
	return nil
}

type ParonymExamConfig struct {
	ExerciseIDs        []int64 `json:"exercise_ids"`
	WrongSentenceIndex int     `json:"wrong_sentence_index"`
}

func (c ParonymExamConfig) validate() error {
	if c.WrongSentenceIndex < 0 || c.WrongSentenceIndex >= len(c.ExerciseIDs) {
		return errors.New("wrong_sentence_index out of range")
	}
	return nil
}

// --- lexical norms (task 6) ---

const (
	LexicalRemove  = "REMOVE"
	LexicalReplace = "REPLACE"
)

type LexicalContent struct {
	Sentence           string `json:"sentence"`
	TaskType           string `json:"task_type"`
	SentenceWithMarkup string `json:"sentence_with_markup"`
	CorrectedSentence  string `json:"corrected_sentence"`
}

func (c LexicalContent) validate() error {
	if c.Sentence == "" {
		return errors.New("sentence required")
	}
	if c.TaskType != LexicalRemove && c.TaskType != LexicalReplace {
		return fmt.Errorf("task_type must be %s or %s", LexicalRemove, LexicalReplace)
	}
	return nil
}

// --- word forms (task 7) ---

type WordFormContent struct {
	Phrase          string `json:"phrase"`
	IncorrectAnswer string `json:"incorrect_answer,omitempty"`
}

func (c WordFormContent) validate() error {
	if c.Phrase == "" {
		return errors.New("phrase required")
	}
	return nil
}

type WordFormExamConfig struct {
	ExerciseIDs      []int64 `json:"exercise_ids"`
	WrongPhraseIndex int     `json:"wrong_phrase_index"`
}

func (c WordFormExamConfig) validate() error {
	if c.WrongPhraseIndex < 0 || c.WrongPhraseIndex >= len(c.ExerciseIDs) {
		return errors.New("wrong_phrase_index out of range")
	}
	return nil
}

// --- syntax errors (task 8) ---

type SyntaxContent struct {
	Sentence          string `json:"sentence"`
	CorrectedSentence string `json:"corrected_sentence,omitempty"`
}

func (c SyntaxContent) validate() error {
	if c.Sentence == "" {
		return errors.New("sentence required")
	}
	return nil
}

type SyntaxExamConfig struct {
	ExerciseIDs    []int64  `json:"exercise_ids"`
	ErrorTypeOrder []string `json:"error_type_order"`
}

func (c SyntaxExamConfig) validate() error {
	if len(c.ExerciseIDs) == 0 || len(c.ErrorTypeOrder) == 0 {
		return errors.New("exercise_ids and error_type_order required")
	}
	return nil
}

// --- missing letters (tasks 9-12) ---

type LetterContent struct {
	Word            string `json:"word"`
	IncorrectLetter string `json:"incorrect_letter"`
	ContextBefore   string `json:"context_before,omitempty"`
	ContextAfter    string `json:"context_after,omitempty"`
}

func (c LetterContent) validate() error {
	if c.Word == "" || c.IncorrectLetter == "" {
		return errors.New("word and incorrect_letter required")
	}
	return nil
}

// LetterExamConfig stores exercise ids row-major: row0 words first, then
// row1, and so on.
type LetterExamConfig struct {
	ExerciseIDs       []int64 `json:"exercise_ids"`
	CorrectRowIndices []int   `json:"correct_row_indices"`
	WordsPerRow       int     `json:"words_per_row"`
}

func (c LetterExamConfig) validate() error {
	if c.WordsPerRow < 2 || c.WordsPerRow > 3 {
		return errors.New("words_per_row must be 2 or 3")
	}
	if len(c.ExerciseIDs) == 0 || len(c.ExerciseIDs)%c.WordsPerRow != 0 {
		return errors.New("exercise_ids must fill whole rows")
	}
	rows := len(c.ExerciseIDs) / c.WordsPerRow
	for _, i := range c.CorrectRowIndices {
		if i < 0 || i >= rows {
			return errors.New("correct_row_indices out of range")
		}
	}
	return nil
}

// --- particles НЕ/НИ (task 13) ---

type ParticleContent struct {
	Sentence string `json:"sentence"`
	Particle string `json:"particle"`
}

func (c ParticleContent) validate() error {
	if c.Sentence == "" || c.Particle == "" {
		return errors.New("sentence and particle required")
	}
	return nil
}

type ParticleExamConfig struct {
	ExerciseIDs    []int64 `json:"exercise_ids"`
	CorrectIndices []int   `json:"correct_indices"`
	AnswerType     string  `json:"answer_type"`
	Mode           string  `json:"mode"`
}

func (c ParticleExamConfig) validate() error {
	return validateIndices(c.ExerciseIDs, c.CorrectIndices)
}

// --- compound spelling (task 14) ---

type CompoundDrillContent struct {
	Sentence string `json:"sentence"`
}

func (c CompoundDrillContent) validate() error {
	if c.Sentence == "" {
		return errors.New("sentence required")
	}
	return nil
}

type CompoundExamContent struct {
	Sentence          string   `json:"sentence"`
	CorrectedSentence string   `json:"corrected_sentence"`
	Types             []string `json:"types,omitempty"`
}

func (c CompoundExamContent) validate() error {
	if c.Sentence == "" {
		return errors.New("sentence required")
	}
	return nil
}

type CompoundExamConfig struct {
	ExerciseIDs    []int64 `json:"exercise_ids"`
	CorrectIndices []int   `json:"correct_indices"`
	AnswerType     string  `json:"answer_type"`
}

func (c CompoundExamConfig) validate() error {
	return validateIndices(c.ExerciseIDs, c.CorrectIndices)
}

func validateIndices(ids []int64, indices []int) error {
	if len(ids) == 0 {
		return errors.New("exercise_ids required")
	}
	for _, i := range indices {
		if i < 0 || i >= len(ids) {
			return errors.New("correct index out of range")
		}
	}
	return nil
}
