package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadingDrill(t *testing.T) {
	src := &fakeSource{exercises: []Exercise{{
		ID: 1, CategoryID: 5, Active: true,
		Content: rawContent(ReadingContent{
			Text:        "Из предложения выпало слово.",
			Instruction: "Подберите пропущенное слово.",
		}),
		Answer:      "однако; впрочем",
		Explanation: "Подходит противительный союз.",
	}}}
	log := &fakeLog{}
	reg := newTestRegistry(src, log)
	ctx := context.Background()
	cat := rootCategory(5, HandlerReadingDrill)

	p, err := reg.Resolve(HandlerReadingDrill)
	require.NoError(t, err)

	payload, err := p.CreateTask(ctx, &Session{UserID: 1, Category: cat})
	require.NoError(t, err)
	assert.Contains(t, payload.Prompt, "Подберите пропущенное слово.")
	assert.Equal(t, []int64{1}, payload.ExerciseIDs)
	assert.Empty(t, payload.Options)

	sess := sessionFromPayload(src, cat, payload)
	res, err := p.ProcessAnswer(ctx, sess, "Впрочем")
	require.NoError(t, err)
	assert.True(t, res.Correct)

	res, err = p.ProcessAnswer(ctx, sess, "зато")
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Contains(t, res.Explanation, "однако / впрочем")

	require.Len(t, log.entries, 2)
	assert.True(t, log.entries[0].Correct)
	assert.False(t, log.entries[1].Correct)
	assert.Equal(t, 42, log.entries[0].SolveTime)
	assert.Nil(t, log.entries[0].BatchID)
}

func TestDefinitionDrill(t *testing.T) {
	src := &fakeSource{exercises: []Exercise{{
		ID: 2, CategoryID: 10, Active: true,
		Content: rawContent(DefinitionContent{
			Text:               "Он вел ДНЕВНИК наблюдений.",
			WordWithDefinition: "ДНЕВНИК. Записи о ежедневных делах.",
		}),
		Answer:      "true",
		Explanation: "Значение не совпадает.",
	}}}
	log := &fakeLog{}
	reg := newTestRegistry(src, log)
	ctx := context.Background()
	cat := drillCategory(11, HandlerDefinitionDrill, 10)

	p, err := reg.Resolve(HandlerDefinitionDrill)
	require.NoError(t, err)

	payload, err := p.CreateTask(ctx, &Session{UserID: 1, Category: cat})
	require.NoError(t, err)
	require.Len(t, payload.Options, 2)

	sess := sessionFromPayload(src, cat, payload)
	res, err := p.ProcessAnswer(ctx, sess, "true")
	require.NoError(t, err)
	assert.True(t, res.Correct)
	// The verdict alone suffices when the definition fits.
	assert.Empty(t, res.Explanation)
}

func TestStressDrill(t *testing.T) {
	src := &fakeSource{exercises: []Exercise{{
		ID: 3, CategoryID: 20, Active: true,
		Content: rawContent(StressContent{Word: "банты", IncorrectStress: 2}),
		Answer:  "1",
	}}}
	log := &fakeLog{}
	reg := newTestRegistry(src, log)
	ctx := context.Background()
	cat := drillCategory(21, HandlerStressDrill, 20)

	p, err := reg.Resolve(HandlerStressDrill)
	require.NoError(t, err)

	payload, err := p.CreateTask(ctx, &Session{UserID: 1, Category: cat})
	require.NoError(t, err)
	require.Len(t, payload.Options, 2)

	labels := []string{payload.Options[0].Label, payload.Options[1].Label}
	assert.Contains(t, labels, "Банты")
	assert.Contains(t, labels, "бАнты")

	sess := sessionFromPayload(src, cat, payload)
	res, err := p.ProcessAnswer(ctx, sess, "1")
	require.NoError(t, err)
	assert.True(t, res.Correct)

	res, err = p.ProcessAnswer(ctx, sess, "2")
	require.NoError(t, err)
	assert.False(t, res.Correct)
}

func TestWordFormDrillRequiresIncorrectVariant(t *testing.T) {
	src := &fakeSource{exercises: []Exercise{
		{
			ID: 4, CategoryID: 30, Active: true,
			Content: rawContent(WordFormContent{Phrase: "пара {word}"}),
			Answer:  "носков",
		},
		{
			ID: 5, CategoryID: 30, Active: true,
			Content: rawContent(WordFormContent{Phrase: "несколько {word}", IncorrectAnswer: "яблоков"}),
			Answer:  "яблок",
		},
	}}
	log := &fakeLog{}
	reg := newTestRegistry(src, log)
	ctx := context.Background()
	cat := drillCategory(31, HandlerWordFormDrill, 30)

	p, err := reg.Resolve(HandlerWordFormDrill)
	require.NoError(t, err)

	payload, err := p.CreateTask(ctx, &Session{UserID: 1, Category: cat})
	require.NoError(t, err)
	// Only the exercise carrying an incorrect variant qualifies.
	assert.Equal(t, []int64{5}, payload.ExerciseIDs)

	labels := []string{payload.Options[0].Label, payload.Options[1].Label}
	assert.Contains(t, labels, "несколько ЯБЛОК")
	assert.Contains(t, labels, "несколько ЯБЛОКОВ")

	sess := sessionFromPayload(src, cat, payload)
	res, err := p.ProcessAnswer(ctx, sess, "яблок")
	require.NoError(t, err)
	assert.True(t, res.Correct)
}

func TestSyntaxDrill(t *testing.T) {
	src := &fakeSource{exercises: []Exercise{{
		ID: 6, CategoryID: 40, Active: true,
		Content: rawContent(SyntaxContent{
			Sentence:          "Подъезжая к станции, у меня слетела шляпа.",
			CorrectedSentence: "Когда я подъезжал к станции, у меня слетела шляпа.",
		}),
		Answer: "adverbial_participle_error",
	}}}
	log := &fakeLog{}
	reg := newTestRegistry(src, log)
	ctx := context.Background()
	cat := drillCategory(41, HandlerSyntaxDrill, 40)

	p, err := reg.Resolve(HandlerSyntaxDrill)
	require.NoError(t, err)

	payload, err := p.CreateTask(ctx, &Session{UserID: 1, Category: cat})
	require.NoError(t, err)
	require.Len(t, payload.Options, len(errorTypeShortLabels))

	sess := sessionFromPayload(src, cat, payload)
	res, err := p.ProcessAnswer(ctx, sess, "adverbial_participle_error")
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Contains(t, res.Explanation, "Деепричастный оборот")

	res, err = p.ProcessAnswer(ctx, sess, "numeral_usage_error")
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Contains(t, res.Explanation, "Числительное")
}

func TestLetterDrill(t *testing.T) {
	src := &fakeSource{exercises: []Exercise{{
		ID: 7, CategoryID: 50, Active: true,
		Content: rawContent(LetterContent{Word: "р{letter}сток", IncorrectLetter: "а"}),
		Answer:  "о",
	}}}
	log := &fakeLog{}
	reg := newTestRegistry(src, log)
	ctx := context.Background()
	cat := drillCategory(51, HandlerLetter9Drill, 50)

	p, err := reg.Resolve(HandlerLetter9Drill)
	require.NoError(t, err)

	payload, err := p.CreateTask(ctx, &Session{UserID: 1, Category: cat})
	require.NoError(t, err)
	assert.Contains(t, payload.Prompt, "р..сток")

	labels := []string{payload.Options[0].Label, payload.Options[1].Label}
	assert.Contains(t, labels, "рОсток")
	assert.Contains(t, labels, "рАсток")

	sess := sessionFromPayload(src, cat, payload)
	res, err := p.ProcessAnswer(ctx, sess, "о")
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Contains(t, res.Explanation, "рОсток")
}

func TestParticleDrill(t *testing.T) {
	src := &fakeSource{exercises: []Exercise{{
		ID: 8, CategoryID: 60, Active: true,
		Content: rawContent(ParticleContent{
			Sentence: "Он (не)вежлив, а груб.",
			Particle: "НЕ",
		}),
		Answer:      "SEPARATE",
		Explanation: "Есть противопоставление с союзом а.",
	}}}
	log := &fakeLog{}
	reg := newTestRegistry(src, log)
	ctx := context.Background()
	cat := drillCategory(61, HandlerParticleDrill, 60)

	p, err := reg.Resolve(HandlerParticleDrill)
	require.NoError(t, err)

	payload, err := p.CreateTask(ctx, &Session{UserID: 1, Category: cat})
	require.NoError(t, err)
	require.Len(t, payload.Options, 2)

	sess := sessionFromPayload(src, cat, payload)
	res, err := p.ProcessAnswer(ctx, sess, "TOGETHER")
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Contains(t, res.Explanation, "раздельно")
}

func TestCompoundDrill(t *testing.T) {
	src := &fakeSource{exercises: []Exercise{{
		ID: 9, CategoryID: 70, Active: true,
		Content: rawContent(CompoundDrillContent{Sentence: "Сделаем (то)же самое."}),
		Answer:  "SEPARATE",
	}}}
	log := &fakeLog{}
	reg := newTestRegistry(src, log)
	ctx := context.Background()
	cat := rootCategory(70, HandlerCompoundDrill)

	p, err := reg.Resolve(HandlerCompoundDrill)
	require.NoError(t, err)

	payload, err := p.CreateTask(ctx, &Session{UserID: 1, Category: cat})
	require.NoError(t, err)
	require.Len(t, payload.Options, 3)

	sess := sessionFromPayload(src, cat, payload)
	res, err := p.ProcessAnswer(ctx, sess, "SEPARATE")
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Contains(t, res.Explanation, "раздельно")
}

func TestParonymDrill(t *testing.T) {
	src := &fakeSource{exercises: []Exercise{{
		ID: 10, CategoryID: 80, Active: true,
		Content: rawContent(ParonymContent{
			Sentence: "{word} платеж по кредиту вырос.",
			Words:    []string{"годовой", "годичный"},
			Paronyms: []Paronym{
				{InflectedForm: "годовой", Explanation: "Годовой — относящийся к году."},
				{InflectedForm: "годичный", Explanation: "Годичный — длящийся год."},
			},
			SecondaryNumber: 2,
		}),
		Answer: "1",
	}}}
	log := &fakeLog{}
	reg := newTestRegistry(src, log)
	ctx := context.Background()
	cat := drillCategory(81, HandlerParonymDrill, 80)

	p, err := reg.Resolve(HandlerParonymDrill)
	require.NoError(t, err)

	payload, err := p.CreateTask(ctx, &Session{UserID: 1, Category: cat})
	require.NoError(t, err)
	require.Len(t, payload.Options, 2)
	assert.Equal(t, "годовой", payload.Options[0].Label)
	assert.Equal(t, "1", payload.Options[0].Value)

	sess := sessionFromPayload(src, cat, payload)
	res, err := p.ProcessAnswer(ctx, sess, "1")
	require.NoError(t, err)
	assert.True(t, res.Correct)
	// The correct word opens the sentence, so it is capitalized.
	assert.Contains(t, res.Explanation, "<u>Годовой</u>")
	assert.Contains(t, res.Explanation, "Годичный — длящийся год.")
}

func TestLexicalExam(t *testing.T) {
	src := &fakeSource{exercises: []Exercise{{
		ID: 11, CategoryID: 90, Active: true,
		Content: rawContent(LexicalContent{
			Sentence:           "Он одержал первенство в турнире.",
			TaskType:           LexicalReplace,
			SentenceWithMarkup: "Он <b>одержал</b> первенство в турнире.",
			CorrectedSentence:  "Он завоевал первенство в турнире.",
		}),
		Answer:      "завоевал; завоевать",
		Explanation: "Одержать можно победу, первенство завоёвывают.",
	}}}
	log := &fakeLog{}
	reg := newTestRegistry(src, log)
	ctx := context.Background()
	cat := rootCategory(90, HandlerLexicalExam)

	p, err := reg.Resolve(HandlerLexicalExam)
	require.NoError(t, err)

	payload, err := p.CreateTask(ctx, &Session{UserID: 1, Category: cat})
	require.NoError(t, err)
	assert.Contains(t, payload.Prompt, "заменив употреблённое неверно слово")

	sess := sessionFromPayload(src, cat, payload)
	res, err := p.ProcessAnswer(ctx, sess, "ЗАВОЕВАТЬ")
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Contains(t, res.Explanation, "Правильное предложение")

	res, err = p.ProcessAnswer(ctx, sess, "выиграл")
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Contains(t, res.Explanation, "завоевал / завоевать")
}

func TestStatementsExamDigitNormalization(t *testing.T) {
	src := &fakeSource{exercises: []Exercise{{
		ID: 12, CategoryID: 95, Active: true,
		Content: rawContent(StatementsContent{
			Text:       "Текст фрагмента.",
			Statements: []string{"Первое.", "Второе.", "Третье.", "Четвёртое.", "Пятое."},
		}),
		Answer:      "135",
		Explanation: "Пояснение.",
	}}}
	log := &fakeLog{}
	reg := newTestRegistry(src, log)
	ctx := context.Background()
	cat := rootCategory(95, HandlerStatementsExam)

	p, err := reg.Resolve(HandlerStatementsExam)
	require.NoError(t, err)

	payload, err := p.CreateTask(ctx, &Session{UserID: 1, Category: cat})
	require.NoError(t, err)
	assert.Contains(t, payload.Prompt, "Первое.")

	sess := sessionFromPayload(src, cat, payload)

	// Order, separators and repeats do not matter.
	res, err := p.ProcessAnswer(ctx, sess, "5, 3, 1, 1")
	require.NoError(t, err)
	assert.True(t, res.Correct)

	res, err = p.ProcessAnswer(ctx, sess, "15")
	require.NoError(t, err)
	assert.False(t, res.Correct)
}
