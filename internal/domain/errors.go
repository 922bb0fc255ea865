package domain

import "errors"

var (
	// ErrModelNotInstalled is returned by model loaders for unknown identifiers.
	ErrModelNotInstalled = errors.New("model not installed")

	// ErrFallbackUnavailable means no model at all can be loaded; indexing
	// cannot proceed for any document.
	ErrFallbackUnavailable = errors.New("fallback model unavailable")

	// ErrInvalidEncoding is returned for documents that are not valid UTF-8.
	ErrInvalidEncoding = errors.New("invalid UTF-8")

	// ErrIncompleteWalk is returned together with the files found when parts
	// of the tree below the root could not be read.
	ErrIncompleteWalk = errors.New("directory walk incomplete")
)
