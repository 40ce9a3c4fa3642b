// Copyright 2025 Certen Protocol
//
// Package logging provides the shared stdlib logger used across the
// presentation engine. Verify-side callers must only log short
// subcomponent names, never scalar values, randomness, or openings (spec §7).
package logging

import (
	"log"
	"os"
)

// New returns a logger prefixed for the given subcomponent, writing to
// stderr with standard timestamp flags.
func New(component string) *log.Logger {
	return log.New(os.Stderr, component+": ", log.LstdFlags)
}
