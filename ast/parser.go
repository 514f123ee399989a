// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package ast

import (
	"errors"
	"fmt"
	"io"

	"github.com/creachadair/jtable"
	"github.com/creachadair/jtable/internal/escape"
	"github.com/creachadair/mds/stack"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'jtable.parser'.
func tracer() tracing.Trace { return tracing.Select("jtable.parser") }

// Parse parses and returns the single JSON value in text.
func Parse(text string) (Value, error) { return NewParser([]byte(text)).Parse() }

// ParseBytes parses and returns the single JSON value in data.
func ParseBytes(data []byte) (Value, error) { return NewParser(data).Parse() }

// MustParse parses and returns the single JSON value in text, and panics if
// parsing fails. It is intended for use with constant inputs.
func MustParse(text string) Value {
	v, err := Parse(text)
	if err != nil {
		panic(fmt.Sprintf("ast: parsing %q: %v", text, err))
	}
	return v
}

// A Parser is a table-driven LL(1) parser for JSON values. The parser is a
// stack machine that consults the predictive table of the jtable package to
// expand nonterminals; it does not recurse, so the depth of nesting is
// limited only by memory.
//
// A Parser is not safe for concurrent use, but any number of Parsers may run
// concurrently.
type Parser struct {
	lex    *jtable.Lexer
	decode bool  // decode escapes in string values
	err    error // sticky error from a previous call

	syms   *stack.Stack[jtable.Symbol] // pending grammar symbols
	vals   *stack.Stack[Value]         // completed values
	frames *stack.Stack[frame]         // open arrays and objects
}

// NewParser constructs a new Parser that consumes input from data.
func NewParser(data []byte) *Parser { return &Parser{lex: jtable.NewLexer(data)} }

// AllowJWCC configures the parser to accept (true) or reject (false) the
// comments and trailing commas of JWCC. See jtable.Lexer.AllowJWCC.
func (p *Parser) AllowJWCC(ok bool) { p.lex.AllowJWCC(ok) }

// DecodeStrings configures the parser to decode (true) or retain (false)
// escape sequences in string values and object keys. By default, strings
// are reported as written in the input, without their quotation marks.
func (p *Parser) DecodeStrings(ok bool) { p.decode = ok }

// Parse parses the input, which must contain exactly one value, and returns
// that value. In case of error, no value is returned.
func (p *Parser) Parse() (Value, error) {
	v, err := p.ParseOne()
	if err == io.EOF {
		serr := p.lex.Errorf(jtable.ErrEndOfInput, p.lex.Offset(), "unexpected end of input")
		serr.Expected = jtable.Expected(jtable.ValueNT)
		return nil, p.setErr(serr)
	} else if err != nil {
		return nil, err
	}
	if p.lex.More() {
		tok, err := p.lex.Lex()
		if err != nil {
			return nil, p.setErr(err)
		}
		return nil, p.setErr(p.unexpected(tok, jtable.End))
	}
	return v, nil
}

// ParseOne parses a single value from the front of the remaining input.
// It returns io.EOF if the rest of the input is empty apart from whitespace.
func (p *Parser) ParseOne() (_ Value, err error) {
	if p.err != nil {
		return nil, p.err
	}
	if !p.lex.More() {
		return nil, io.EOF
	}

	defer p.recoverInvariant(&err)
	v, err := p.parseValue()
	if err != nil {
		return nil, p.setErr(err)
	}
	return v, nil
}

// ParseAll parses and returns all the values in the remaining input. In case
// of error, any complete values already parsed are returned along with the
// error.
func (p *Parser) ParseAll() ([]Value, error) {
	var vs []Value
	for {
		v, err := p.ParseOne()
		if err == io.EOF {
			return vs, nil
		} else if err != nil {
			return vs, err
		}
		vs = append(vs, v)
	}
}

func (p *Parser) setErr(err error) error { p.err = err; return err }

func (p *Parser) recoverInvariant(errp *error) {
	if x := recover(); x != nil {
		ierr, ok := x.(*jtable.InvariantError)
		if !ok {
			panic(x)
		}
		tracer().Errorf("%v", ierr)
		*errp = p.setErr(ierr)
	}
}

func invariantf(msg string, args ...any) *jtable.InvariantError {
	return &jtable.InvariantError{Detail: fmt.Sprintf(msg, args...)}
}

// parseValue runs the stack machine to consume exactly one value.
func (p *Parser) parseValue() (Value, error) {
	p.syms = stack.New[jtable.Symbol]()
	p.vals = stack.New[Value]()
	p.frames = stack.New[frame]()
	p.syms.Push(jtable.ValueNT)

	for !p.syms.IsEmpty() {
		tok, err := p.lex.Lex()
		if err != nil {
			var serr *jtable.SyntaxError
			if errors.Is(err, jtable.ErrEndOfInput) && errors.As(err, &serr) {
				top, _ := p.syms.Pop() // the stacks are discarded on error
				serr.Expected = p.expecting(top)
			}
			return nil, err
		}
		if err := p.consume(tok); err != nil {
			return nil, err
		}
	}

	if n := p.vals.Len(); n != 1 {
		panic(invariantf("value stack has %d entries at end of value", n))
	} else if n := p.frames.Len(); n != 0 {
		panic(invariantf("%d unclosed frames at end of value", n))
	}
	v, _ := p.vals.Pop()
	return v, nil
}

// consume pops symbols, expanding nonterminals, until a terminal matches
// tok. The value stack is updated to reflect the shift of tok.
func (p *Parser) consume(tok jtable.Lexeme) error {
	found := jtable.Terminal(tok.Token)
	for {
		top, ok := p.syms.Pop()
		if !ok {
			panic(invariantf("symbol stack empty with %v pending", found))
		}
		switch {
		case top == found:
			tracer().Debugf("shift %v at %v", found, tok.Span)
			return p.shift(tok)

		case top == jtable.Epsilon:
			continue // matches without consuming input

		case top.IsTerminal():
			return p.unexpected(tok, top)

		default:
			prod, ok := jtable.Predict(top, found)
			if !ok {
				return p.unexpected(tok, jtable.Expected(top)...)
			}
			p.expand(prod)
		}
	}
}

// expand pushes the right-hand side of prod in reverse, so that its first
// symbol is on top, and updates the frame stack.
func (p *Parser) expand(prod jtable.Production) {
	tracer().Debugf("expand %v", prod)
	for i := prod.Len() - 1; i >= 0; i-- {
		p.syms.Push(prod.At(i))
	}
	switch prod {
	case jtable.ValueArray:
		p.frames.Push(frame{kind: arrayFrame})
	case jtable.ValueObject:
		p.frames.Push(frame{kind: objectFrame})
	case jtable.ArrayElems, jtable.ValueListMore:
		p.count(arrayFrame)
	case jtable.ObjectPairs, jtable.PairListMore:
		p.count(objectFrame)
	}
}

// shift updates the value stack for a matched token.
func (p *Parser) shift(tok jtable.Lexeme) error {
	switch tok.Token {
	case jtable.String:
		s, err := p.stringValue(tok)
		if err != nil {
			return err
		}
		p.vals.Push(s)
	case jtable.Number:
		p.vals.Push(Number(tok.Number))
	case jtable.Bool:
		p.vals.Push(Bool(tok.Bool))
	case jtable.Null:
		p.vals.Push(Null{})
	case jtable.RSquare:
		p.reduceArray()
	case jtable.RBrace:
		p.reduceObject()
	}
	return nil
}

func (p *Parser) stringValue(tok jtable.Lexeme) (String, error) {
	if !p.decode {
		return String(tok.Text), nil
	}
	s, err := jtable.Unescape(tok.Text)
	if err != nil {
		off := tok.Span.Pos
		var eerr *escape.Error
		if errors.As(err, &eerr) {
			off += 1 + eerr.Offset // skip the open quote
		}
		return "", p.lex.Errorf(jtable.ErrUnexpectedToken, off, "invalid string: %v", err)
	}
	return String(s), nil
}

// reduceArray folds the elements of the innermost open array into an Array.
func (p *Parser) reduceArray() {
	f := p.popFrame(arrayFrame)
	if p.vals.Len() < f.n {
		panic(invariantf("array of %d elements with %d values", f.n, p.vals.Len()))
	}
	arr := make(Array, f.n)
	for i := f.n - 1; i >= 0; i-- {
		arr[i], _ = p.vals.Pop()
	}
	tracer().Debugf("reduce array of %d", f.n)
	p.vals.Push(arr)
}

// reduceObject folds the members of the innermost open object into an
// Object. Each member is a key followed by its value on the stack.
func (p *Parser) reduceObject() {
	f := p.popFrame(objectFrame)
	if p.vals.Len() < 2*f.n {
		panic(invariantf("object of %d members with %d values", f.n, p.vals.Len()))
	}

	// Members are popped last to first, so the first binding seen for a key
	// is the one that stands.
	obj := make(Object, f.n)
	for range f.n {
		v, _ := p.vals.Pop()
		k, _ := p.vals.Pop()
		key, ok := k.(String)
		if !ok {
			panic(invariantf("object key is %v, not string", KindOf(k)))
		}
		if _, dup := obj[string(key)]; !dup {
			obj[string(key)] = v
		}
	}
	tracer().Debugf("reduce object of %d", f.n)
	p.vals.Push(obj)
}

func (p *Parser) popFrame(want frameKind) frame {
	f, ok := p.frames.Pop()
	if !ok {
		panic(invariantf("no open frame to close %v", want))
	} else if f.kind != want {
		panic(invariantf("closing %v, but the open frame is %v", want, f.kind))
	}
	return f
}

// count records one more element in the innermost frame, which must be of
// the given kind.
func (p *Parser) count(want frameKind) {
	f := p.popFrame(want)
	f.n++
	p.frames.Push(f)
}

// expecting reports the terminals that may start sym.
func (p *Parser) expecting(sym jtable.Symbol) []jtable.Symbol {
	if sym.IsNonterminal() {
		return jtable.Expected(sym)
	} else if sym.IsTerminal() && sym != jtable.Epsilon {
		return []jtable.Symbol{sym}
	}
	return nil
}

func (p *Parser) unexpected(tok jtable.Lexeme, want ...jtable.Symbol) *jtable.SyntaxError {
	found := jtable.Terminal(tok.Token)
	serr := p.lex.Errorf(jtable.ErrUnexpectedTerminal, tok.Span.Pos, "unexpected %v", found)
	serr.Expected = want
	serr.Found = found
	return serr
}

type frameKind byte

const (
	arrayFrame frameKind = iota + 1
	objectFrame
)

func (k frameKind) String() string {
	switch k {
	case arrayFrame:
		return "array"
	case objectFrame:
		return "object"
	}
	return "invalid frame"
}

// A frame records an array or object whose elements are being parsed, and
// the number of elements (or members) begun so far.
type frame struct {
	kind frameKind
	n    int
}
