package domain

import "errors"

// Errors shared across aggregates. Each aggregate file declares its own
// not-found and validation errors next to the type.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrAlreadyExists     = errors.New("resource already exists")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUserNotFound      = errors.New("user not found")
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrNameTooLong       = errors.New("name exceeds maximum length")
)

// Text field limits
const (
	MaxPartyNameLength  = 200
	MaxLoanNumberLength = 50
	MaxTitleLength      = 200
	MaxNoteLength       = 1000
)
