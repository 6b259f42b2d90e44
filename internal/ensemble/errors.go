package ensemble

import "errors"

var (
	// ErrParse indicates malformed configuration file content.
	ErrParse = errors.New("ensemble: malformed configuration")

	// ErrInvariant indicates an internal invariant was breached.
	ErrInvariant = errors.New("ensemble: invariant violation")
)
