// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jtable

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/npillmayer/schuko/tracing"
	"github.com/tailscale/hujson"
	"go4.org/mem"
)

// tracer traces with key 'jtable.lexer'.
func tracer() tracing.Trace { return tracing.Select("jtable.lexer") }

// Token is the type of a lexical token in the JSON grammar.
type Token byte

// Constants defining the valid Token values.
const (
	Invalid Token = iota // invalid token
	LBrace               // left brace "{"
	RBrace               // right brace "}"
	LSquare              // left square bracket "["
	RSquare              // right square bracket "]"
	Comma                // comma ","
	Colon                // colon ":"
	String               // quoted string
	Number               // number: digits with an optional fraction
	Bool                 // constant: true or false
	Null                 // constant: null

	// Do not modify the order of these constants without updating the
	// terminal symbols in grammar.go, which share their values.
)

var tokenStr = [...]string{
	Invalid: "invalid token",
	LBrace:  `"{"`,
	RBrace:  `"}"`,
	LSquare: `"["`,
	RSquare: `"]"`,
	Comma:   `","`,
	Colon:   `":"`,
	String:  "string",
	Number:  "number",
	Bool:    "bool",
	Null:    "null",
}

func (t Token) String() string {
	v := int(t)
	if v >= len(tokenStr) {
		return tokenStr[Invalid]
	}
	return tokenStr[v]
}

// A Lexeme is a single token read from the input along with its payload.
type Lexeme struct {
	Token Token
	Span  Span

	// Text is the undecoded text of the token. For a String, the enclosing
	// quotation marks are not included. It aliases the lexer's input.
	Text []byte

	Number float64 // for Number
	Bool   bool    // for Bool
}

func (x Lexeme) String() string {
	return fmt.Sprintf("%v %q at %v", x.Token, x.Text, x.Span)
}

// A Lexer reads lexical tokens from an in-memory input. Each call to Lex
// returns the next token, or reports an error. A single token may be pushed
// back, to be returned again by the next call to Lex.
type Lexer struct {
	src  []byte
	pos  int // offset of the next unread byte
	jwcc bool
	std  bool // standardization of src has been attempted, if jwcc is set
	skip bool // the lexer skips comments and trailing commas itself

	cur  Lexeme // the token most recently returned by Lex
	ok   bool   // cur is valid and may be pushed back
	back bool   // cur was pushed back
}

// NewLexer constructs a new lexer that consumes input from src.
// The lexer does not modify src.
func NewLexer(src []byte) *Lexer { return &Lexer{src: src} }

// AllowJWCC configures the lexer to accept (true) or reject (false) the
// comments and trailing commas of JWCC ("JSON with commas and comments").
// If enabled, the input is standardized before the first token is read.
// Standardization replaces each comment and trailing comma with whitespace,
// so offsets in the input are preserved. Input that cannot be standardized
// as a whole, such as a sequence of values, is read as written and the
// lexer skips comments and trailing commas as it goes. It has no effect once
// Lex has been called.
func (lx *Lexer) AllowJWCC(ok bool) { lx.jwcc = ok }

// Offset reports the offset of the lexer in the input. After a call to
// PushBack, this is the start of the pushed-back token.
func (lx *Lexer) Offset() int {
	if lx.back {
		return lx.cur.Span.Pos
	}
	return lx.pos
}

// Input returns the input of the lexer. If JWCC is enabled, this is the
// standardized input once the first token has been read.
func (lx *Lexer) Input() []byte { return lx.src }

// Lex advances lx to the next token of the input and returns it.
// At the end of the input, Lex reports an error that wraps ErrEndOfInput.
func (lx *Lexer) Lex() (Lexeme, error) {
	if lx.back {
		lx.back = false
		return lx.cur, nil
	}
	tok, err := lx.scan()
	if err != nil {
		lx.ok = false
		return Lexeme{}, err
	}
	lx.cur, lx.ok = tok, true
	return tok, nil
}

// PushBack returns the token most recently reported by Lex to the input, so
// that the next call to Lex will report it again. Only one token may be
// pushed back: PushBack reports ErrPushBack if there is no token to push
// back, or if a token has already been pushed back.
func (lx *Lexer) PushBack() error {
	if !lx.ok || lx.back {
		return ErrPushBack
	}
	lx.back = true
	return nil
}

// Errorf constructs a *SyntaxError wrapping kind at the given offset of the
// input. The message is formatted from msg and args.
func (lx *Lexer) Errorf(kind error, offset int, msg string, args ...any) *SyntaxError {
	return &SyntaxError{
		Offset:  offset,
		Pos:     lineColAt(lx.src, offset),
		Message: fmt.Sprintf(msg, args...),
		err:     kind,
	}
}

// More reports whether any input apart from whitespace remains to be read,
// including a pushed-back token.
func (lx *Lexer) More() bool {
	if lx.back {
		return true
	}
	lx.standardize()
	lx.skipSpace()
	return lx.pos < len(lx.src)
}

func (lx *Lexer) standardize() {
	if !lx.jwcc || lx.std {
		return
	}
	lx.std = true
	std, err := hujson.Standardize(slices.Clone(lx.src))
	if err != nil {
		tracer().Debugf("standardize: %v; skipping comments while lexing", err)
		lx.skip = true
		return
	}
	lx.src = std
}

// skipSpace advances past whitespace and, if lx.skip is set, complete
// comments. It stops at the start of an unterminated comment.
func (lx *Lexer) skipSpace() {
	for lx.pos < len(lx.src) {
		if isSpace(lx.src[lx.pos]) {
			lx.pos++
		} else if n := lx.commentLen(lx.pos); n > 0 {
			lx.pos += n
		} else {
			return
		}
	}
}

var (
	lineComment  = mem.S("//")
	blockComment = mem.S("/*")
	blockEnd     = mem.S("*/")
)

// commentLen reports the length of the complete comment starting at offset
// i, or 0 if there is none there. A line comment ends after its newline, or
// at the end of the input.
func (lx *Lexer) commentLen(i int) int {
	if !lx.skip {
		return 0
	}
	rest := mem.B(lx.src[i:])
	if mem.HasPrefix(rest, lineComment) {
		if j := mem.IndexByte(rest, '\n'); j >= 0 {
			return j + 1
		}
		return rest.Len()
	} else if mem.HasPrefix(rest, blockComment) {
		if j := mem.Index(rest.SliceFrom(2), blockEnd); j >= 0 {
			return j + 4
		}
	}
	return 0
}

// trailingComma reports whether the comma at offset i is followed only by
// whitespace and comments before a closing bracket or brace.
func (lx *Lexer) trailingComma(i int) bool {
	if !lx.skip {
		return false
	}
	save := lx.pos
	defer func() { lx.pos = save }()
	lx.pos = i + 1
	lx.skipSpace()
	return lx.pos < len(lx.src) && (lx.src[lx.pos] == ']' || lx.src[lx.pos] == '}')
}

func (lx *Lexer) scan() (Lexeme, error) {
	lx.standardize()
	lx.skipSpace()
	for lx.pos < len(lx.src) && lx.src[lx.pos] == ',' && lx.trailingComma(lx.pos) {
		lx.pos++
		lx.skipSpace()
	}
	if lx.pos >= len(lx.src) {
		return Lexeme{}, lx.Errorf(ErrEndOfInput, lx.pos, "unexpected end of input")
	}

	start := lx.pos
	ch := lx.src[start]

	// Handle punctuation.
	if t, ok := selfDelim(ch); ok {
		lx.pos++
		return lx.lexeme(t, start), nil
	}

	// Handle comments that were not skipped because they do not end.
	if lx.skip && mem.HasPrefix(mem.B(lx.src[start:]), blockComment) {
		lx.pos = len(lx.src)
		return Lexeme{}, lx.Errorf(ErrEndOfInput, lx.pos, "unterminated comment starting at offset %d", start)
	}

	// Handle string values.
	if ch == '"' {
		return lx.scanString(start)
	}

	// Handle numbers.
	if isDigit(ch) {
		return lx.scanNumber(start)
	}

	// Handle constants: true, false, null
	if isNameByte(ch) {
		return lx.scanName(start)
	}
	return Lexeme{}, lx.Errorf(ErrUnexpectedToken, start, "unexpected %q", ch)
}

// scanString scans a quoted string whose open quote is at start. A backslash
// escapes the byte that follows it, so the string ends at the first quote
// not consumed by an escape. Escapes are not decoded.
func (lx *Lexer) scanString(start int) (Lexeme, error) {
	var esc bool
	for i := start + 1; i < len(lx.src); i++ {
		ch := lx.src[i]
		if esc {
			esc = false
		} else if ch == '\\' {
			esc = true
		} else if ch == '"' {
			lx.pos = i + 1
			tok := lx.lexeme(String, start)
			tok.Text = lx.src[start+1 : i]
			return tok, nil
		}
	}
	lx.pos = len(lx.src)
	return Lexeme{}, lx.Errorf(ErrEndOfInput, lx.pos, "unterminated string starting at offset %d", start)
}

// scanNumber scans a maximal run of digits and decimal points, beginning
// with the digit at start.
func (lx *Lexer) scanNumber(start int) (Lexeme, error) {
	end := start
	for end < len(lx.src) && isNumByte(lx.src[end]) {
		end++
	}
	text := lx.src[start:end]
	// A literal out of range for float64 is not malformed; it becomes +Inf.
	v, err := strconv.ParseFloat(string(text), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return Lexeme{}, lx.Errorf(ErrUnexpectedToken, start, "invalid number %q", text)
	}
	lx.pos = end
	tok := lx.lexeme(Number, start)
	tok.Number = v
	return tok, nil
}

var (
	trueText  = mem.S("true")
	falseText = mem.S("false")
	nullText  = mem.S("null")
)

func (lx *Lexer) scanName(start int) (Lexeme, error) {
	end := start
	for end < len(lx.src) && isNameByte(lx.src[end]) {
		end++
	}
	got := mem.B(lx.src[start:end])
	var tok Lexeme
	switch {
	case got.Equal(trueText):
		tok = Lexeme{Token: Bool, Bool: true}
	case got.Equal(falseText):
		tok = Lexeme{Token: Bool}
	case got.Equal(nullText):
		tok = Lexeme{Token: Null}
	default:
		return Lexeme{}, lx.Errorf(ErrUnexpectedToken, start, "unknown constant %q", got.StringCopy())
	}
	lx.pos = end
	tok.Span = Span{Pos: start, End: end}
	tok.Text = lx.src[start:end]
	return tok, nil
}

// lexeme returns a token of type t spanning from start to the current offset.
func (lx *Lexer) lexeme(t Token, start int) Lexeme {
	return Lexeme{
		Token: t,
		Span:  Span{Pos: start, End: lx.pos},
		Text:  lx.src[start:lx.pos],
	}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\r' || ch == '\n' || ch == '\t'
}

func isDigit(ch byte) bool    { return '0' <= ch && ch <= '9' }
func isNumByte(ch byte) bool  { return isDigit(ch) || ch == '.' }
func isNameByte(ch byte) bool { return ch >= 'a' && ch <= 'z' }

var self = [...]Token{LBrace, RBrace, LSquare, RSquare, Comma, Colon}

func selfDelim(ch byte) (Token, bool) {
	i := mem.IndexByte(mem.S("{}[],:"), ch)
	if i >= 0 {
		return self[i], true
	}
	return Invalid, false
}
