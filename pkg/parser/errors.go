package parser

import (
	"errors"
	"strconv"
)

// Common errors returned by the parser package.
var (
	// ErrMalformedJSON is returned when a JSONL line cannot be parsed.
	ErrMalformedJSON = errors.New("malformed JSON line")

	// ErrFileTooLarge is returned when a file exceeds the maximum size limit.
	ErrFileTooLarge = errors.New("file size exceeds maximum limit")
)

// ParseError provides context about a parsing failure.
type ParseError struct {
	Line int    // Line number where error occurred (1-indexed)
	Data string // The malformed line (truncated if too long)
	Err  error  // Underlying error
}

func (e *ParseError) Error() string {
	maxLen := 100
	data := e.Data
	if len(data) > maxLen {
		data = data[:maxLen] + "..."
	}
	return formatError("parse error", e.Line, data, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError provides context about a record that parsed but is invalid.
type ValidationError struct {
	Line   int    // Line number where error occurred (1-indexed)
	UserID string // Owner of the rejected record
	Err    error  // Underlying model error
}

func (e *ValidationError) Error() string {
	return formatError("validation error", e.Line, "user "+strconv.Quote(e.UserID), e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func formatError(prefix string, line int, context string, err error) string {
	if line > 0 {
		return prefix + " at line " + strconv.Itoa(line) + ": " + context + ": " + err.Error()
	}
	return prefix + ": " + context + ": " + err.Error()
}
