package analysis

import "errors"

// ErrStoreUnavailable indicates a persistence backend could not serve the
// request; the facade falls back to the next backend in the chain.
var ErrStoreUnavailable = errors.New("record store unavailable")

// ErrEmptyInput indicates the caller submitted no content to analyze.
var ErrEmptyInput = errors.New("empty analysis input")
