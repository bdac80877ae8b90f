package yt

import (
	"errors"
	"fmt"
)

var (
	// ErrNoResults means the source resolved but produced nothing playable.
	ErrNoResults = errors.New("no results")
	// ErrUnsupportedSource is returned for inputs no resolver can handle.
	ErrUnsupportedSource = errors.New("unsupported source")
)

// ResolutionError wraps a resolver failure for a specific query.
type ResolutionError struct {
	Query string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not resolve %q: %v", e.Query, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// HintError carries a message meant for the user alongside the cause.
type HintError struct {
	Hint string
	Err  error
}

func (e *HintError) Error() string {
	return e.Err.Error() + " (" + e.Hint + ")"
}

func (e *HintError) Unwrap() error {
	return e.Err
}
