package errors

import (
	"fmt"
	"strings"
)

// ParseFailure is returned by a format parser when the input violates the
// format's grammar or an entry lacks a required field. It is a value, never a
// panic, and a scan that hits one keeps going with the remaining files.
type ParseFailure struct {
	Format      string // Format that produced the failure (e.g., "dpkg-status")
	Line        int    // 1-based line where the failure was detected, 0 if unknown
	Rule        string // Grammar rule or construct that was not satisfied
	Reason      string // Human-readable explanation
	Recoverable bool   // Whether the caller may skip this input and continue
}

// NewParseFailure creates a recoverable ParseFailure.
func NewParseFailure(format string, line int, rule, reason string, args ...any) *ParseFailure {
	return &ParseFailure{
		Format:      format,
		Line:        line,
		Rule:        rule,
		Reason:      fmt.Sprintf(reason, args...),
		Recoverable: true,
	}
}

// Error implements the error interface.
func (f *ParseFailure) Error() string {
	var b strings.Builder
	b.WriteString(f.Format)
	if f.Line > 0 {
		fmt.Fprintf(&b, ":%d", f.Line)
	}
	if f.Rule != "" {
		fmt.Fprintf(&b, ": %s", f.Rule)
	}
	fmt.Fprintf(&b, ": %s", f.Reason)
	return b.String()
}

// Code returns ErrCodeParseFailure.
func (f *ParseFailure) Code() Code { return ErrCodeParseFailure }

// MalformedInputFailure is returned when raw bytes cannot be decoded as text
// in the expected encoding. Like ParseFailure it is always recoverable.
type MalformedInputFailure struct {
	Offset int    // Byte offset of the first offending byte
	Reason string // Human-readable explanation
}

// Error implements the error interface.
func (f *MalformedInputFailure) Error() string {
	return fmt.Sprintf("malformed input at byte %d: %s", f.Offset, f.Reason)
}

// Code returns ErrCodeMalformedInput.
func (f *MalformedInputFailure) Code() Code { return ErrCodeMalformedInput }
