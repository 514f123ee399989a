// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package ast defines a tree of JSON values, and a table-driven parser that
// constructs such trees from source text.
package ast

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"

	"github.com/creachadair/jtable/internal/escape"
	"go4.org/mem"
)

// A Value is an arbitrary JSON value. The concrete type is one of String,
// Number, Bool, Null, Array, or Object.
type Value interface {
	// Kind reports which variant the value is.
	Kind() Kind

	// JSON renders the value as compact JSON text.
	JSON() string
}

// Kind identifies the variant of a Value.
type Kind byte

// Constants defining the valid Kind values.
const (
	InvalidKind Kind = iota
	StringKind
	NumberKind
	BoolKind
	NullKind
	ArrayKind
	ObjectKind
)

var kindStr = [...]string{
	InvalidKind: "invalid",
	StringKind:  "string",
	NumberKind:  "number",
	BoolKind:    "bool",
	NullKind:    "null",
	ArrayKind:   "array",
	ObjectKind:  "object",
}

func (k Kind) String() string {
	if int(k) >= len(kindStr) {
		return kindStr[InvalidKind]
	}
	return kindStr[k]
}

// KindOf reports the kind of v, or InvalidKind if v == nil.
func KindOf(v Value) Kind {
	if v == nil {
		return InvalidKind
	}
	return v.Kind()
}

// A String is a string value.
type String string

// A Number is a floating-point value.
type Number float64

// A Bool is a Boolean constant, true or false.
type Bool bool

// Null represents the null constant.
type Null struct{}

// An Array is an ordered sequence of values.
type Array []Value

// An Object is a collection of values indexed by unique string keys.
type Object map[string]Value

func (String) Kind() Kind { return StringKind }
func (Number) Kind() Kind { return NumberKind }
func (Bool) Kind() Kind   { return BoolKind }
func (Null) Kind() Kind   { return NullKind }
func (Array) Kind() Kind  { return ArrayKind }
func (Object) Kind() Kind { return ObjectKind }

func (s String) JSON() string { return string(escape.Quote(mem.S(string(s)))) }
func (n Number) JSON() string { return string(appendJSON(nil, n)) }
func (b Bool) JSON() string   { return strconv.FormatBool(bool(b)) }
func (Null) JSON() string     { return "null" }
func (a Array) JSON() string  { return string(appendJSON(nil, a)) }
func (o Object) JSON() string { return string(appendJSON(nil, o)) }

// Len reports the number of elements in a.
func (a Array) Len() int { return len(a) }

// Len reports the number of members in o.
func (o Object) Len() int { return len(o) }

// Keys returns the keys of o in increasing order.
func (o Object) Keys() []string { return slices.Sorted(maps.Keys(o)) }

// appendJSON appends the compact JSON encoding of v to buf. Object members
// are written in increasing order of key. A Number that is not finite is
// written as null.
func appendJSON(buf []byte, v Value) []byte {
	switch t := v.(type) {
	case String:
		return escape.AppendQuote(buf, mem.S(string(t)))
	case Number:
		f := float64(t)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return append(buf, "null"...)
		}
		return strconv.AppendFloat(buf, f, 'f', -1, 64)
	case Bool:
		return strconv.AppendBool(buf, bool(t))
	case Array:
		buf = append(buf, '[')
		for i, elt := range t {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendJSON(buf, elt)
		}
		return append(buf, ']')
	case Object:
		buf = append(buf, '{')
		for i, key := range t.Keys() {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = escape.AppendQuote(buf, mem.S(key))
			buf = append(buf, ':')
			buf = appendJSON(buf, t[key])
		}
		return append(buf, '}')
	default:
		// Null, nil, and anything else.
		return append(buf, "null"...)
	}
}

// ErrNotFound is reported by Field and Index when the requested member or
// element does not exist.
var ErrNotFound = errors.New("not found")

// KindError is reported by value accessors when a value is not of the
// variant the caller requested.
type KindError struct {
	Want, Got Kind
}

// Error satisfies the error interface.
func (e *KindError) Error() string {
	return fmt.Sprintf("expected %v, found %v", e.Want, e.Got)
}

// As returns v as a value of concrete type T, or reports a *KindError if v
// has a different kind.
func As[T Value](v Value) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, &KindError{Want: KindOf(zero), Got: KindOf(v)}
	}
	return t, nil
}

// Index returns the element at offset i of the array v. Negative offsets
// count backward from the end (-1 is last). It reports a *KindError if v is
// not an array, and an error wrapping ErrNotFound if i is out of range.
func Index(v Value, i int) (Value, error) {
	a, err := As[Array](v)
	if err != nil {
		return nil, err
	}
	j, ok := fixArrayBound(len(a), i)
	if !ok {
		return nil, fmt.Errorf("index %d out of range (n=%d): %w", i, len(a), ErrNotFound)
	}
	return a[j], nil
}

// Field returns the value of the member of object v with the given key.
// It reports a *KindError if v is not an object, and an error wrapping
// ErrNotFound if v has no member with that key.
func Field(v Value, key string) (Value, error) {
	o, err := As[Object](v)
	if err != nil {
		return nil, err
	}
	mv, ok := o[key]
	if !ok {
		return nil, fmt.Errorf("key %q: %w", key, ErrNotFound)
	}
	return mv, nil
}

func fixArrayBound(n, i int) (int, bool) {
	if i < 0 {
		i += n
	}
	return i, i >= 0 && i < n
}
