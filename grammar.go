// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jtable

import (
	"fmt"
	"strings"

	"github.com/emirpasic/gods/sets/treeset"
)

// A Symbol is a terminal or nonterminal symbol of the grammar:
//
//	Value     -> [ Array'  | { Object'  | string | number | bool | null
//	Array'    -> ] | Value ValueList ]
//	ValueList -> , Value ValueList | ε
//	Object'   -> } | Pair PairList }
//	PairList  -> , Pair PairList | ε
//	Pair      -> string : Value
//
// The terminal symbols for lexical tokens have the same values as the
// corresponding Token constants; use Terminal to convert.
type Symbol byte

// Symbols other than the lexical terminals.
const (
	End     = Symbol(Null) + 1 + iota // terminal: end of input
	Epsilon                           // terminal: the empty string

	ValueNT     // nonterminal: Value
	ArrayNT     // nonterminal: Array'
	ValueListNT // nonterminal: ValueList
	ObjectNT    // nonterminal: Object'
	PairListNT  // nonterminal: PairList
	PairNT      // nonterminal: Pair

	numSymbols
)

var symbolStr = [...]string{
	End:         "end of input",
	Epsilon:     "ε",
	ValueNT:     "Value",
	ArrayNT:     "Array'",
	ValueListNT: "ValueList",
	ObjectNT:    "Object'",
	PairListNT:  "PairList",
	PairNT:      "Pair",
}

// Terminal returns the terminal symbol for the given token type.
func Terminal(t Token) Symbol { return Symbol(t) }

// Token returns the token type of a terminal symbol for a lexical token.
// It returns Invalid if s is not such a symbol.
func (s Symbol) Token() Token {
	if s > Symbol(Null) {
		return Invalid
	}
	return Token(s)
}

// IsTerminal reports whether s is a terminal symbol.
// The End and Epsilon markers are terminals.
func (s Symbol) IsTerminal() bool { return s > 0 && s <= Epsilon }

// IsNonterminal reports whether s is a nonterminal symbol.
func (s Symbol) IsNonterminal() bool { return s >= ValueNT && s < numSymbols }

func (s Symbol) String() string {
	if s <= Symbol(Null) {
		return Token(s).String()
	} else if s < numSymbols {
		return symbolStr[s]
	}
	return fmt.Sprintf("Symbol(%d)", byte(s))
}

// A Production is one rule of the grammar. The rules are numbered in the
// order of the grammar listed on the Symbol type.
type Production byte

// Constants defining the productions of the grammar.
const (
	ValueArray    Production = iota // Value -> [ Array'
	ValueObject                     // Value -> { Object'
	ValueString                     // Value -> string
	ValueNumber                     // Value -> number
	ValueBool                       // Value -> bool
	ValueNull                       // Value -> null
	ArrayEmpty                      // Array' -> ]
	ArrayElems                      // Array' -> Value ValueList ]
	ValueListMore                   // ValueList -> , Value ValueList
	ValueListEnd                    // ValueList -> ε
	ObjectEmpty                     // Object' -> }
	ObjectPairs                     // Object' -> Pair PairList }
	PairListMore                    // PairList -> , Pair PairList
	PairListEnd                     // PairList -> ε
	PairMember                      // Pair -> string : Value

	numProductions
)

// NoProduction is a sentinel meaning there is no production.
const NoProduction Production = 255

type rule struct {
	lhs Symbol
	rhs []Symbol
}

var (
	tLBrace  = Terminal(LBrace)
	tRBrace  = Terminal(RBrace)
	tLSquare = Terminal(LSquare)
	tRSquare = Terminal(RSquare)
	tComma   = Terminal(Comma)
	tColon   = Terminal(Colon)
	tString  = Terminal(String)
)

var rules = [numProductions]rule{
	ValueArray:    {ValueNT, []Symbol{tLSquare, ArrayNT}},
	ValueObject:   {ValueNT, []Symbol{tLBrace, ObjectNT}},
	ValueString:   {ValueNT, []Symbol{tString}},
	ValueNumber:   {ValueNT, []Symbol{Terminal(Number)}},
	ValueBool:     {ValueNT, []Symbol{Terminal(Bool)}},
	ValueNull:     {ValueNT, []Symbol{Terminal(Null)}},
	ArrayEmpty:    {ArrayNT, []Symbol{tRSquare}},
	ArrayElems:    {ArrayNT, []Symbol{ValueNT, ValueListNT, tRSquare}},
	ValueListMore: {ValueListNT, []Symbol{tComma, ValueNT, ValueListNT}},
	ValueListEnd:  {ValueListNT, []Symbol{Epsilon}},
	ObjectEmpty:   {ObjectNT, []Symbol{tRBrace}},
	ObjectPairs:   {ObjectNT, []Symbol{PairNT, PairListNT, tRBrace}},
	PairListMore:  {PairListNT, []Symbol{tComma, PairNT, PairListNT}},
	PairListEnd:   {PairListNT, []Symbol{Epsilon}},
	PairMember:    {PairNT, []Symbol{tString, tColon, ValueNT}},
}

func (p Production) valid() bool { return p < numProductions }

// LHS returns the nonterminal defined by p.
func (p Production) LHS() Symbol {
	if !p.valid() {
		return 0
	}
	return rules[p].lhs
}

// Len reports the number of symbols on the right-hand side of p.
func (p Production) Len() int {
	if !p.valid() {
		return 0
	}
	return len(rules[p].rhs)
}

// At returns the symbol at offset i of the right-hand side of p.
// It panics if i is out of range.
func (p Production) At(i int) Symbol { return rules[p].rhs[i] }

func (p Production) String() string {
	if !p.valid() {
		return fmt.Sprintf("Production(%d)", byte(p))
	}
	var sb strings.Builder
	sb.WriteString(rules[p].lhs.String())
	sb.WriteString(" ->")
	for _, sym := range rules[p].rhs {
		sb.WriteByte(' ')
		if sym.IsTerminal() && sym != Epsilon {
			sb.WriteString(strings.Trim(sym.String(), `"`))
		} else {
			sb.WriteString(sym.String())
		}
	}
	return sb.String()
}

// A grammar is the result of FIRST, FOLLOW, and SELECT set analysis over a
// list of rules, and the predictive table derived from the SELECT sets.
// A grammar is not modified after construction.
type grammar struct {
	rules  []rule
	first  [numSymbols][]Symbol
	follow [numSymbols][]Symbol
	sel    [][]Symbol

	// table[nt][t] is the production to expand nt on lookahead t.
	table [numSymbols][numSymbols]Production
}

// std is the grammar of the parser, constructed once.
var std = newGrammar(rules[:])

// Predict returns the production to expand nonterminal nt when the lookahead
// is terminal t. It reports false if the grammar has no such production.
func Predict(nt, t Symbol) (Production, bool) { return std.predict(nt, t) }

// Expected returns the terminal symbols for which nonterminal nt has a
// production, in increasing order.
func Expected(nt Symbol) []Symbol { return std.expected(nt) }

// First returns the FIRST set of sym, in increasing order.
func First(sym Symbol) []Symbol { return std.lookup(std.first[:], sym) }

// Follow returns the FOLLOW set of sym, in increasing order.
func Follow(sym Symbol) []Symbol { return std.lookup(std.follow[:], sym) }

// Select returns the SELECT set of p, in increasing order.
func Select(p Production) []Symbol {
	if !p.valid() {
		return nil
	}
	return append([]Symbol(nil), std.sel[p]...)
}

func (g *grammar) predict(nt, t Symbol) (Production, bool) {
	if !nt.IsNonterminal() || !t.IsTerminal() {
		return NoProduction, false
	}
	p := g.table[nt][t]
	return p, p != NoProduction
}

func (g *grammar) expected(nt Symbol) []Symbol {
	if !nt.IsNonterminal() {
		return nil
	}
	var out []Symbol
	for t, p := range g.table[nt] {
		if p != NoProduction {
			out = append(out, Symbol(t))
		}
	}
	return out
}

func (g *grammar) lookup(sets []([]Symbol), sym Symbol) []Symbol {
	if sym == 0 || sym >= numSymbols {
		return nil
	}
	return append([]Symbol(nil), sets[sym]...)
}

func symbolComparator(a, b any) int { return int(a.(Symbol)) - int(b.(Symbol)) }

func newSymbolSet(syms ...any) *treeset.Set { return treeset.NewWith(symbolComparator, syms...) }

// newGrammar analyzes rules and constructs the predictive table.
// It panics if the rules are not LL(1).
func newGrammar(rules []rule) *grammar {
	var first, follow [numSymbols]*treeset.Set
	for s := range numSymbols {
		first[s] = newSymbolSet()
		follow[s] = newSymbolSet()
		if s.IsTerminal() {
			first[s].Add(s)
		}
	}

	// firstOf computes the FIRST set of a sequence of symbols. It contains
	// Epsilon only if every symbol of the sequence can derive ε.
	firstOf := func(seq []Symbol) *treeset.Set {
		out := newSymbolSet()
		for _, sym := range seq {
			out.Add(first[sym].Values()...)
			if !first[sym].Contains(Epsilon) {
				out.Remove(Epsilon)
				return out
			}
			out.Remove(Epsilon)
		}
		out.Add(Epsilon)
		return out
	}

	// addAll adds src to dst and reports whether dst changed.
	addAll := func(dst, src *treeset.Set) bool {
		n := dst.Size()
		dst.Add(src.Values()...)
		return dst.Size() != n
	}

	for changed := true; changed; {
		changed = false
		for _, r := range rules {
			if addAll(first[r.lhs], firstOf(r.rhs)) {
				changed = true
			}
		}
	}

	if len(rules) != 0 {
		follow[rules[0].lhs].Add(End) // the first rule defines the start symbol
	}
	for changed := true; changed; {
		changed = false
		for _, r := range rules {
			for i, sym := range r.rhs {
				if !sym.IsNonterminal() {
					continue
				}
				rest := firstOf(r.rhs[i+1:])
				if rest.Contains(Epsilon) {
					rest.Remove(Epsilon)
					rest.Add(follow[r.lhs].Values()...)
				}
				if addAll(follow[sym], rest) {
					changed = true
				}
			}
		}
	}

	g := &grammar{rules: rules, sel: make([][]Symbol, len(rules))}
	for nt := range g.table {
		for t := range g.table[nt] {
			g.table[nt][t] = NoProduction
		}
	}
	for s := range numSymbols {
		g.first[s] = symbolSlice(first[s])
		g.follow[s] = symbolSlice(follow[s])
	}
	for i, r := range rules {
		sel := firstOf(r.rhs)
		if sel.Contains(Epsilon) {
			sel.Remove(Epsilon)
			sel.Add(follow[r.lhs].Values()...)
		}
		g.sel[i] = symbolSlice(sel)
		for _, t := range g.sel[i] {
			if old := g.table[r.lhs][t]; old != NoProduction {
				panic(fmt.Sprintf("grammar is not LL(1): rules %d and %d both select %v for %v",
					old, i, t, r.lhs))
			}
			g.table[r.lhs][t] = Production(i)
		}
	}
	return g
}

func symbolSlice(s *treeset.Set) []Symbol {
	vs := s.Values()
	out := make([]Symbol, len(vs))
	for i, v := range vs {
		out[i] = v.(Symbol)
	}
	return out
}
