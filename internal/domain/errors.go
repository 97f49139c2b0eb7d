package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz definition could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSessionNotFound is returned when a quiz session has not been initialized.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrParticipantNotFound is returned when a user tries to act before joining.
	ErrParticipantNotFound = errors.New("participant not found in quiz")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAlreadyAnswered is returned when a participant resubmits a question.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrInvalidQuiz indicates a create request that fails validation.
	ErrInvalidQuiz = errors.New("invalid quiz definition")
	// ErrUserRequired is returned when a request is missing participant identity.
	ErrUserRequired = errors.New("user id required")
)
