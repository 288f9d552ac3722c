package render

import (
	"errors"
	"fmt"
)

// ErrInvalidRenderer reports that the configured renderer is not a
// callable render function.
var ErrInvalidRenderer = errors.New("renderer is not a callable render function")

// RenderError wraps the failure of a single path. Failures are collected
// per page in the report; one bad page never aborts a pass.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string { return fmt.Sprintf("render %q: %v", e.Path, e.Err) }
func (e *RenderError) Unwrap() error { return e.Err }
