// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jtable

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEndOfInput is reported when the input ends while a token is required.
	ErrEndOfInput = errors.New("unexpected end of input")

	// ErrUnexpectedToken is reported for input that matches no lexical rule.
	ErrUnexpectedToken = errors.New("unexpected token")

	// ErrUnexpectedTerminal is reported when the parser rejects a token that
	// is lexically valid but not permitted by the grammar at that point.
	ErrUnexpectedTerminal = errors.New("unexpected terminal")

	// ErrPushBack is reported by Lexer.PushBack when there is no token that
	// can be pushed back.
	ErrPushBack = errors.New("invalid push back")
)

// SyntaxError is the concrete type of errors reported by the lexer and
// parser for malformed input. Use errors.Is with ErrEndOfInput,
// ErrUnexpectedToken, or ErrUnexpectedTerminal to classify it.
type SyntaxError struct {
	Offset   int      // byte offset of the error in the input
	Pos      LineCol  // line and column of Offset
	Expected []Symbol // terminals the parser would have accepted, if known
	Found    Symbol   // Invalid if no token was found
	Message  string   // description of the problem

	err error
}

// Error satisfies the error interface.
func (s *SyntaxError) Error() string {
	if len(s.Expected) != 0 {
		return fmt.Sprintf("at %s (offset %d): %s, expected %s", s.Pos, s.Offset, s.Message, symLabel(s.Expected))
	}
	return fmt.Sprintf("at %s (offset %d): %s", s.Pos, s.Offset, s.Message)
}

// Unwrap supports error wrapping.
func (s *SyntaxError) Unwrap() error { return s.err }

// InvariantError reports a bookkeeping failure inside the parser engine. It
// indicates a defect in the grammar or the engine, never a problem with the
// input, and is not recoverable by retrying.
type InvariantError struct {
	Detail string
}

// Error satisfies the error interface.
func (e *InvariantError) Error() string { return "jtable: parser invariant violated: " + e.Detail }

// symLabel makes a human-readable summary of a set of symbols.
func symLabel(syms []Symbol) string {
	switch len(syms) {
	case 0:
		return "nothing"
	case 1:
		return syms[0].String()
	}
	last := len(syms) - 1
	ss := make([]string, last)
	for i, sym := range syms[:last] {
		ss[i] = sym.String()
	}
	return strings.Join(ss, ", ") + " or " + syms[last].String()
}
