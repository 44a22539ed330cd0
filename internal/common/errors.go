package common

import "errors"

// Business logic errors
var (
	// General errors
	ErrNotFound = errors.New("resource not found")

	// Content errors
	ErrTutorialNotFound = errors.New("tutorial not found")
	ErrPageNotFound     = errors.New("page not found")
	ErrVersionNotFound  = errors.New("version not found")

	// Lifecycle errors
	ErrAlreadyPending         = errors.New("a pending approval request already exists for this content")
	ErrInvalidStateTransition = errors.New("approval request is not in a state that allows this transition")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
)
