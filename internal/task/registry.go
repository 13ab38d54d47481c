package task

import (
	"fmt"
	"math/rand"
	"time"
)

// Deps are the collaborators every processor is built from. Rand and Now
// are injectable so tests can pin randomness and clock.
type Deps struct {
	Source ExerciseSource
	Log    AnswerLog
	Rand   *rand.Rand
	Now    func() time.Time
}

// Registry maps a category's handler type to its processor.
type Registry struct {
	procs map[HandlerType]Processor
}

// NewRegistry builds the full processor family.
func NewRegistry(deps Deps) *Registry {
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	b := base{src: deps.Source, log: deps.Log, rng: deps.Rand, now: deps.Now}

	return &Registry{procs: map[HandlerType]Processor{
		HandlerSoon: soonProcessor{},
		HandlerSkip: skipProcessor{},

		HandlerReadingDrill:    readingDrill{base: b},
		HandlerDefinitionDrill: definitionDrill{base: b},
		HandlerStatementsExam:  statementsExam{base: b},
		HandlerStressDrill:     stressDrill{base: b},
		HandlerStressExam:      stressExam{base: b},
		HandlerParonymDrill:    paronymDrill{base: b},
		HandlerParonymExam:     paronymExam{base: b},
		HandlerLexicalExam:     lexicalExam{base: b},
		HandlerWordFormDrill:   wordFormDrill{base: b},
		HandlerWordFormExam:    wordFormExam{base: b},
		HandlerSyntaxDrill:     syntaxDrill{base: b},
		HandlerSyntaxExam:      syntaxExam{base: b},
		HandlerLetter9Drill:    letterDrill{base: b},
		HandlerLetter9Exam:     letterExam{base: b, wordsPerRow: 3},
		HandlerLetter10Drill:   letterDrill{base: b},
		HandlerLetter10Exam:    letterExam{base: b, wordsPerRow: 3},
		HandlerLetter11Drill:   letterDrill{base: b},
		HandlerLetter11Exam:    letterExam{base: b, wordsPerRow: 2},
		HandlerLetter12Drill:   letterDrill{base: b},
		HandlerLetter12Exam:    letterExam{base: b, wordsPerRow: 2},
		HandlerParticleDrill:   particleDrill{base: b},
		HandlerParticleExam:    particleExam{base: b},
		HandlerCompoundDrill:   compoundDrill{base: b},
		HandlerCompoundExam:    compoundExam{base: b},
	}}
}

// Resolve returns the processor for a handler type. An unknown tag is a
// deployment configuration error.
func (r *Registry) Resolve(h HandlerType) (Processor, error) {
	p, ok := r.procs[h]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHandler, h)
	}
	return p, nil
}
