package model

import "errors"

// Storage-level sentinels. Repositories return these; services translate them
// into their own error vocabulary.
var (
	ErrNotFound       = errors.New("record not found")
	ErrUsernameTaken  = errors.New("username already taken")
	ErrEmailTaken     = errors.New("email already registered")
	ErrAlreadyApplied = errors.New("application already submitted")
)
