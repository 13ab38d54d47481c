package task

import "errors"

var (
	// ErrNoContent means pool construction could not satisfy the
	// archetype's constraints. Surfaced as "nothing available", never
	// retried here.
	ErrNoContent = errors.New("no content available")

	// ErrInvalidState means the persisted session or exercise data is
	// structurally wrong for the archetype being processed. Fatal.
	ErrInvalidState = errors.New("invalid session state")

	// ErrUnknownHandler means a category is tagged with an archetype this
	// deployment does not support. Fatal configuration error.
	ErrUnknownHandler = errors.New("unknown handler type")
)
