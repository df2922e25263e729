package domain

import "errors"

var (
	// ErrSessionNotFound is returned for an unknown session id.
	ErrSessionNotFound = errors.New("live session not found")
	// ErrQuestionNotFound is returned for an unknown question id.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrResponseNotFound is returned for an unknown response id.
	ErrResponseNotFound = errors.New("response not found")

	// ErrInvalidTransition is returned when a teacher action is illegal for the session's status.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrConflictingSession is returned when the class already has an active session.
	ErrConflictingSession = errors.New("class already has an active session")
	// ErrNotActive is returned by the store when advancing a session that is not active.
	ErrNotActive = errors.New("session is not active")
	// ErrNoMoreQuestions is returned when advancing past the last question.
	ErrNoMoreQuestions = errors.New("no more questions, end the session instead")

	// ErrAlreadyAnswered is returned by the ledger for a duplicate (question, student) submission.
	ErrAlreadyAnswered = errors.New("question already answered by student")
	// ErrSessionClosed is returned when submitting to an ended session.
	ErrSessionClosed = errors.New("session is closed")
	// ErrSessionNotStarted is returned when submitting before the teacher starts the session.
	ErrSessionNotStarted = errors.New("session has not started")

	// ErrAlreadyGraded is returned when grading a response twice.
	ErrAlreadyGraded = errors.New("response already graded")
	// ErrWrongQuestionType is returned when grading an objective response by hand.
	ErrWrongQuestionType = errors.New("only short answer responses are graded manually")

	ErrForbidden    = errors.New("session belongs to another class")
	ErrInvalidInput = errors.New("invalid input")
)
