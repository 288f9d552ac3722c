package gitsource

import "fmt"

// Typed errors let callers classify sync failures without string
// parsing.

type AuthError struct {
	Op  string
	URL string
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("%s auth error for %s: %v", e.Op, e.URL, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Op  string
	URL string
	Err error
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found %s: %v", e.Op, e.URL, e.Err) }
func (e *NotFoundError) Unwrap() error { return e.Err }
