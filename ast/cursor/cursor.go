// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

// Package cursor implements traversal over the structure of a parsed JSON
// value.
package cursor

import (
	"fmt"

	"github.com/creachadair/jtable/ast"
)

// Path traverses a sequential path into the structure of v where path elements
// are as documented for the Cursor.Down method.  This is a convenience wrapper
// for creating a cursor, applying path, and retrieving its value as type T.
func Path[T ast.Value](v ast.Value, path ...any) (T, error) {
	c := New(v).Down(path...)
	if err := c.Err(); err != nil {
		var zero T
		return zero, err
	}
	return ast.As[T](c.Value())
}

// A Cursor is a pointer that navigates into the structure of an ast.Value.
type Cursor struct {
	org ast.Value
	stk []ast.Value
	err error
}

// New constructs a new Cursor to traverse the structure of origin.
func New(origin ast.Value) *Cursor { return &Cursor{org: origin} }

// Origin returns the origin value of c.
func (c *Cursor) Origin() ast.Value { return c.org }

// AtOrigin reports whether c is at its origin.
func (c *Cursor) AtOrigin() bool { return len(c.stk) == 0 }

// Value reports the current value under the cursor.
func (c *Cursor) Value() ast.Value {
	if c.AtOrigin() {
		return c.org
	}
	return c.stk[len(c.stk)-1]
}

// Path reports the complete sequence of values from the origin to the current
// location in c.
func (c *Cursor) Path() []ast.Value {
	return append([]ast.Value{c.org}, c.stk...)
}

// Err reports the error from the most recent traversal operation, if any.
func (c *Cursor) Err() error { return c.err }

// Up moves the cursor one position upward in the structure, if possible.
// It returns c to permit chaining.
func (c *Cursor) Up() *Cursor {
	if n := len(c.stk); n > 0 {
		c.stk = c.stk[:n-1]
	}
	return c
}

// Reset resets the cursor to its origin and clears its error.
func (c *Cursor) Reset() { c.stk = c.stk[:0]; c.err = nil }

// Down traverses a sequential path into the structure of c starting from the
// current value, where path elements are strings (denoting object keys),
// integers (denoting offsets into arrays), or functions.  If the path is
// valid, the cursor ends at the element reached. If the path cannot be
// completely consumed, traversal stops at the last valid element and an error
// is recorded. Use Err to recover the error.
//
// If a path element is a string, the corresponding value must be an object
// with a member of that name. If a path element is an integer, the
// corresponding value must be an array, and negative offsets count backward
// from the end (-1 is last, -2 second last). A value of the wrong kind is
// reported as an *ast.KindError; a missing key or offset is reported as an
// error wrapping ast.ErrNotFound.
//
// If a path element is a function, the function is executed and its result
// becomes the next value in the sequence. The function must have a signature
//
//	func(ast.Value) (ast.Value, error)
//
// If the function reports an error, traversal stops and the error is recorded.
func (c *Cursor) Down(path ...any) *Cursor {
	c.err = nil // reset error
	cur := c.Value()
	for _, elt := range path {
		var next ast.Value
		var err error

		switch t := elt.(type) {
		case string:
			next, err = ast.Field(cur, t)
		case int:
			next, err = ast.Index(cur, t)
		case func(ast.Value) (ast.Value, error):
			next, err = t(cur)
		default:
			err = fmt.Errorf("invalid path element %T", elt)
		}
		if err != nil {
			c.err = err
			return c
		}
		cur = c.push(next)
	}
	return c
}

func (c *Cursor) push(v ast.Value) ast.Value { c.stk = append(c.stk, v); return v }
