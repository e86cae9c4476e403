// Package errors provides structured errors for the combat core.
//
// Infrastructure failures (Redis unreachable, serialization problems) are
// represented as *Error values carrying a Code, an operator-facing message,
// and optional metadata. Game-logic outcomes (not your turn, insufficient MP)
// have their own typed taxonomy in the combat entities package; this package
// is for everything underneath them.
package errors
