// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package jtable implements the lexer and grammar tables for a table-driven
// LL(1) parser of JSON values. The parser itself, and the values it
// constructs, are defined by the ast package.
//
// # Lexing
//
// The Lexer type reads tokens from an in-memory input. Construct a lexer from
// a byte slice and call its Lex method to iterate over the tokens. Lex
// returns the next Lexeme, or reports an error:
//
//	lx := jtable.NewLexer(input)
//	for {
//	   tok, err := lx.Lex()
//	   if errors.Is(err, jtable.ErrEndOfInput) {
//	      break
//	   } else if err != nil {
//	      log.Fatalf("Lex failed: %v", err)
//	   }
//	   log.Printf("Next token: %v", tok)
//	}
//
// A single token may be returned to the lexer with PushBack, so that the
// next call to Lex reports it again. Errors from the lexer have concrete type
// *jtable.SyntaxError, which records the offset and line position of the
// problem. Use errors.Is to classify them:
//
//	Error                  | Meaning
//	---------------------- | -------------------------------------------------
//	ErrEndOfInput          | the input ended where a token was required
//	ErrUnexpectedToken     | the input does not match any token
//	ErrUnexpectedTerminal  | a valid token that the grammar does not permit
//
// The lexer accepts strict JSON tokens, with two restrictions: numbers have no
// sign or exponent, and string escapes are not decoded. Call AllowJWCC to also
// accept comments and trailing commas.
//
// # Grammar
//
// The grammar of values is:
//
//	Value     -> [ Array'  | { Object'  | string | number | bool | null
//	Array'    -> ] | Value ValueList ]
//	ValueList -> , Value ValueList | ε
//	Object'   -> } | Pair PairList }
//	PairList  -> , Pair PairList | ε
//	Pair      -> string : Value
//
// The FIRST, FOLLOW, and SELECT sets of the grammar are computed once, when
// the package is initialized, and the predictive table is derived from the
// SELECT sets. Use Predict to consult the table, and Expected to find the
// terminals a nonterminal will accept.
package jtable
