package learning

import "errors"

var (
	// ErrNoQuiz is returned when an attempt is submitted for a language
	// pair that has no live quiz.
	ErrNoQuiz = errors.New("no quiz for language pair")

	// ErrAnswerCount is returned when the submitted answers don't line up
	// with the quiz's questions.
	ErrAnswerCount = errors.New("answer count mismatch")
)
