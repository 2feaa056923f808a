package domain

import "errors"

var (
	// ErrConfiguration is returned when a bank cannot produce a valid quiz
	// (too few questions, non-positive passing score or time limit, broken questions).
	ErrConfiguration = errors.New("invalid quiz configuration")
	// ErrInvalidState is returned when a session command is not allowed in the current state.
	ErrInvalidState = errors.New("invalid session state")
	// ErrInvalidOption indicates a selected option index is outside the current question.
	ErrInvalidOption = errors.New("option out of range")
	// ErrBankNotFound indicates the question bank could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")
	// ErrSessionNotFound is returned when a quiz session has not been started.
	ErrSessionNotFound = errors.New("quiz session not found")
)
