// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package ast_test

import (
	"errors"
	"io"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	"github.com/creachadair/jtable"
	"github.com/creachadair/jtable/ast"
	"github.com/creachadair/jtable/internal/testutil"
	"github.com/creachadair/mds/mtest"
	"github.com/google/go-cmp/cmp"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

var (
	tLBrace  = jtable.Terminal(jtable.LBrace)
	tRBrace  = jtable.Terminal(jtable.RBrace)
	tLSquare = jtable.Terminal(jtable.LSquare)
	tRSquare = jtable.Terminal(jtable.RSquare)
	tComma   = jtable.Terminal(jtable.Comma)
	tColon   = jtable.Terminal(jtable.Colon)
	tString  = jtable.Terminal(jtable.String)
	tNumber  = jtable.Terminal(jtable.Number)
	tBool    = jtable.Terminal(jtable.Bool)
	tNull    = jtable.Terminal(jtable.Null)

	valueStart = []jtable.Symbol{tLBrace, tLSquare, tString, tNumber, tBool, tNull}
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  ast.Value
	}{
		// Scalars
		{`"foo"`, ast.String("foo")},
		{`""`, ast.String("")},
		{`15`, ast.Number(15)},
		{`0.25`, ast.Number(0.25)},
		{"[1" + strings.Repeat("0", 400) + "]", ast.Array{ast.Number(math.Inf(1))}},
		{`true`, ast.Bool(true)},
		{`false`, ast.Bool(false)},
		{`null`, ast.Null{}},
		{"  \n\t null \r\n", ast.Null{}},

		// Strings are not decoded by default.
		{`"a\nb\"c"`, ast.String(`a\nb\"c`)},

		// Arrays
		{`[]`, ast.Array{}},
		{`[ ]`, ast.Array{}},
		{`[1]`, ast.Array{ast.Number(1)}},
		{`[[1,2],[3,4]]`, ast.Array{
			ast.Array{ast.Number(1), ast.Number(2)},
			ast.Array{ast.Number(3), ast.Number(4)},
		}},
		{`[[]]`, ast.Array{ast.Array{}}},
		{`[1, "x", true, null, {"k": 1}]`, ast.Array{
			ast.Number(1), ast.String("x"), ast.Bool(true), ast.Null{},
			ast.Object{"k": ast.Number(1)},
		}},

		// Objects
		{`{}`, ast.Object{}},
		{`{"a":1}`, ast.Object{"a": ast.Number(1)}},
		{`{"a":[1]}`, ast.Object{"a": ast.Array{ast.Number(1)}}},
		{`{"a":{}, "b":[], "c":{"d":null}}`, ast.Object{
			"a": ast.Object{},
			"b": ast.Array{},
			"c": ast.Object{"d": ast.Null{}},
		}},
		{`[{}, {"x": [{}]}]`, ast.Array{
			ast.Object{},
			ast.Object{"x": ast.Array{ast.Object{}}},
		}},

		// The last binding of a duplicate key wins.
		{`{"a":1,"a":2}`, ast.Object{"a": ast.Number(2)}},
		{`{"a":1,"b":true,"a":[3]}`, ast.Object{"a": ast.Array{ast.Number(3)}, "b": ast.Bool(true)}},
	}
	for _, test := range tests {
		got, err := ast.Parse(test.input)
		if err != nil {
			t.Errorf("Parse %#q: unexpected error: %v", test.input, err)
			continue
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("Parse %#q: (-want, +got)\n%s", test.input, diff)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input    string
		kind     error
		offset   int
		expected []jtable.Symbol
		found    jtable.Symbol
	}{
		{"", jtable.ErrEndOfInput, 0, valueStart, 0},
		{"  ", jtable.ErrEndOfInput, 2, valueStart, 0},
		{`{"a": }`, jtable.ErrUnexpectedTerminal, 6, valueStart, tRBrace},
		{`[1,2`, jtable.ErrEndOfInput, 4, []jtable.Symbol{tRSquare, tComma}, 0},
		{`[1,]`, jtable.ErrUnexpectedTerminal, 3, valueStart, tRSquare},
		{`[1 2]`, jtable.ErrUnexpectedTerminal, 3, []jtable.Symbol{tRSquare, tComma}, tNumber},
		{`]`, jtable.ErrUnexpectedTerminal, 0, valueStart, tRSquare},
		{`,`, jtable.ErrUnexpectedTerminal, 0, valueStart, tComma},
		{`{1:2}`, jtable.ErrUnexpectedTerminal, 1, []jtable.Symbol{tRBrace, tString}, tNumber},
		{`{"a" 1}`, jtable.ErrUnexpectedTerminal, 5, []jtable.Symbol{tColon}, tNumber},
		{`{"a":1,}`, jtable.ErrUnexpectedTerminal, 7, []jtable.Symbol{tString}, tRBrace},
		{`{"a":1]`, jtable.ErrUnexpectedTerminal, 6, []jtable.Symbol{tRBrace, tComma}, tRSquare},
		{`{"a"`, jtable.ErrEndOfInput, 4, []jtable.Symbol{tColon}, 0},
		{`{`, jtable.ErrEndOfInput, 1, []jtable.Symbol{tRBrace, tString}, 0},
		{`1 2`, jtable.ErrUnexpectedTerminal, 2, []jtable.Symbol{jtable.End}, tNumber},
		{`[] []`, jtable.ErrUnexpectedTerminal, 3, []jtable.Symbol{jtable.End}, tLSquare},
		{`["abc]`, jtable.ErrEndOfInput, 6, jtable.First(jtable.ArrayNT), 0},

		// Lexical errors are reported from the lexer.
		{`[@]`, jtable.ErrUnexpectedToken, 1, nil, 0},
		{`[1, nil]`, jtable.ErrUnexpectedToken, 4, nil, 0},
		{`-5`, jtable.ErrUnexpectedToken, 0, nil, 0},
		{`1 @`, jtable.ErrUnexpectedToken, 2, nil, 0},
	}
	for _, test := range tests {
		got, err := ast.Parse(test.input)
		if err == nil {
			t.Errorf("Parse %#q: got %v, want error", test.input, got)
			continue
		}
		if got != nil {
			t.Errorf("Parse %#q: got value %v with error", test.input, got)
		}
		if !errors.Is(err, test.kind) {
			t.Errorf("Parse %#q: got error %v, want %v", test.input, err, test.kind)
		}
		var serr *jtable.SyntaxError
		if !errors.As(err, &serr) {
			t.Errorf("Parse %#q: got %T, want *SyntaxError", test.input, err)
			continue
		}
		if serr.Offset != test.offset {
			t.Errorf("Parse %#q: offset is %d, want %d", test.input, serr.Offset, test.offset)
		}
		if test.expected != nil {
			if diff := cmp.Diff(test.expected, serr.Expected); diff != "" {
				t.Errorf("Parse %#q: expected symbols (-want, +got)\n%s", test.input, diff)
			}
		}
		if serr.Found != test.found {
			t.Errorf("Parse %#q: found %v, want %v", test.input, serr.Found, test.found)
		}
		t.Logf("Parse %#q: got expected error: %v", test.input, err)
	}
}

func TestErrorMessage(t *testing.T) {
	_, err := ast.Parse("{\n  \"a\": }")
	if err == nil {
		t.Fatal("Parse: got nil, want error")
	}
	const want = `at 2:7 (offset 9): unexpected "}", expected "{", "[", string, number, bool or null`
	if got := err.Error(); got != want {
		t.Errorf("Error:\n got: %s\nwant: %s", got, want)
	}
}

func TestParseOne(t *testing.T) {
	p := ast.NewParser([]byte(`1 [2] {"a": null}  "x"true`))
	want := []ast.Value{
		ast.Number(1),
		ast.Array{ast.Number(2)},
		ast.Object{"a": ast.Null{}},
		ast.String("x"),
		ast.Bool(true),
	}
	for i, w := range want {
		got, err := p.ParseOne()
		if err != nil {
			t.Fatalf("ParseOne %d: unexpected error: %v", i+1, err)
		}
		if diff := cmp.Diff(w, got); diff != "" {
			t.Errorf("ParseOne %d: (-want, +got)\n%s", i+1, diff)
		}
	}
	for range 2 {
		if v, err := p.ParseOne(); err != io.EOF {
			t.Errorf("ParseOne at end: got (%v, %v), want %v", v, err, io.EOF)
		}
	}
}

func TestParseAll(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		got, err := ast.NewParser([]byte("\n[] {}\n1\n")).ParseAll()
		if err != nil {
			t.Fatalf("ParseAll: unexpected error: %v", err)
		}
		want := []ast.Value{ast.Array{}, ast.Object{}, ast.Number(1)}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ParseAll: (-want, +got)\n%s", diff)
		}
	})
	t.Run("Empty", func(t *testing.T) {
		got, err := ast.NewParser([]byte("   ")).ParseAll()
		if err != nil || len(got) != 0 {
			t.Errorf("ParseAll: got (%v, %v), want no values and no error", got, err)
		}
	})
	t.Run("Error", func(t *testing.T) {
		p := ast.NewParser([]byte(`true [1, 2] {"a": [`))
		got, err := p.ParseAll()
		if !errors.Is(err, jtable.ErrEndOfInput) {
			t.Errorf("ParseAll: got error %v, want %v", err, jtable.ErrEndOfInput)
		}
		want := []ast.Value{ast.Bool(true), ast.Array{ast.Number(1), ast.Number(2)}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ParseAll: (-want, +got)\n%s", diff)
		}

		// Errors are sticky.
		if _, err2 := p.ParseOne(); err2 != err {
			t.Errorf("ParseOne after error: got %v, want %v", err2, err)
		}
		if _, err2 := p.Parse(); err2 != err {
			t.Errorf("Parse after error: got %v, want %v", err2, err)
		}
	})
}

func TestDecodeStrings(t *testing.T) {
	const input = `{"a\nb": "x\u0041y", "q": ["\"\\\/", "\t"]}`

	t.Run("Raw", func(t *testing.T) {
		got, err := ast.Parse(input)
		if err != nil {
			t.Fatalf("Parse: unexpected error: %v", err)
		}
		want := ast.Object{
			`a\nb`: ast.String(`x\u0041y`),
			"q":    ast.Array{ast.String(`\"\\\/`), ast.String(`\t`)},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Parse: (-want, +got)\n%s", diff)
		}
	})
	t.Run("Decoded", func(t *testing.T) {
		p := ast.NewParser([]byte(input))
		p.DecodeStrings(true)
		got, err := p.Parse()
		if err != nil {
			t.Fatalf("Parse: unexpected error: %v", err)
		}
		want := ast.Object{
			"a\nb": ast.String("xAy"),
			"q":    ast.Array{ast.String(`"\/`), ast.String("\t")},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Parse: (-want, +got)\n%s", diff)
		}
	})
	t.Run("Invalid", func(t *testing.T) {
		p := ast.NewParser([]byte(`["ok", "bad\u12"]`))
		p.DecodeStrings(true)
		_, err := p.Parse()
		var serr *jtable.SyntaxError
		if !errors.As(err, &serr) || !errors.Is(err, jtable.ErrUnexpectedToken) {
			t.Fatalf("Parse: got %v, want unexpected token", err)
		}
		if serr.Offset != 11 {
			t.Errorf("Parse: error offset is %d, want 11", serr.Offset)
		}
	})
}

func TestJWCC(t *testing.T) {
	const input = `// Settings
{
  "name": "demo", // trailing comment
  "ports": [
    80,
    443, /* secure */
  ],
}
`
	if _, err := ast.Parse(input); err == nil {
		t.Error("Parse without JWCC: got nil, want error")
	}

	p := ast.NewParser([]byte(input))
	p.AllowJWCC(true)
	got, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse with JWCC: unexpected error: %v", err)
	}
	want := ast.Object{
		"name":  ast.String("demo"),
		"ports": ast.Array{ast.Number(80), ast.Number(443)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse with JWCC: (-want, +got)\n%s", diff)
	}
}

func TestJWCCValues(t *testing.T) {
	// None of these inputs is a single standard JSON value, so each is read
	// as written.
	tests := []struct {
		input string
		want  []ast.Value
		err   error
	}{
		{"1 2 // c", []ast.Value{ast.Number(1), ast.Number(2)}, nil},
		{"[1.]", []ast.Value{ast.Array{ast.Number(1)}}, nil},
		{"[1., /* c */ ]", []ast.Value{ast.Array{ast.Number(1)}}, nil},
		{"{\"a\": [2.,],} /* x */ [] // y", []ast.Value{
			ast.Object{"a": ast.Array{ast.Number(2)}},
			ast.Array{},
		}, nil},

		// A comma between top-level values is not a trailing comma.
		{"/* lead */ true,\nnull", []ast.Value{ast.Bool(true)}, jtable.ErrUnexpectedTerminal},
	}
	for _, test := range tests {
		p := ast.NewParser([]byte(test.input))
		p.AllowJWCC(true)
		got, err := p.ParseAll()
		if test.err == nil && err != nil {
			t.Errorf("ParseAll %#q: unexpected error: %v", test.input, err)
		} else if !errors.Is(err, test.err) {
			t.Errorf("ParseAll %#q: got error %v, want %v", test.input, err, test.err)
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("ParseAll %#q: (-want, +got)\n%s", test.input, diff)
		}
	}
}

func TestJWCCErrors(t *testing.T) {
	tests := []struct {
		input    string
		kind     error
		offset   int
		expected []jtable.Symbol
		found    jtable.Symbol
	}{
		{`{"a": }`, jtable.ErrUnexpectedTerminal, 6, valueStart, tRBrace},
		{`1 2`, jtable.ErrUnexpectedTerminal, 2, []jtable.Symbol{jtable.End}, tNumber},
		{"1 // c\n2", jtable.ErrUnexpectedTerminal, 7, []jtable.Symbol{jtable.End}, tNumber},
		{"[1,\n 2,\n @]", jtable.ErrUnexpectedToken, 9, nil, 0},
		{`[1, /* x */ ,]`, jtable.ErrUnexpectedTerminal, 13, valueStart, tRSquare},
		{`{"a": 1 /* c`, jtable.ErrEndOfInput, 12, nil, 0},
		{`[1 /* c */ 2]`, jtable.ErrUnexpectedTerminal, 11, []jtable.Symbol{tRSquare, tComma}, tNumber},
	}
	for _, test := range tests {
		p := ast.NewParser([]byte(test.input))
		p.AllowJWCC(true)
		got, err := p.Parse()
		if err == nil {
			t.Errorf("Parse %#q: got %v, want error", test.input, got)
			continue
		}
		if !errors.Is(err, test.kind) {
			t.Errorf("Parse %#q: got error %v, want %v", test.input, err, test.kind)
		}
		var serr *jtable.SyntaxError
		if !errors.As(err, &serr) {
			t.Errorf("Parse %#q: got %T, want *SyntaxError", test.input, err)
			continue
		}
		if serr.Offset != test.offset {
			t.Errorf("Parse %#q: offset is %d, want %d", test.input, serr.Offset, test.offset)
		}
		if test.expected != nil {
			if diff := cmp.Diff(test.expected, serr.Expected); diff != "" {
				t.Errorf("Parse %#q: expected symbols (-want, +got)\n%s", test.input, diff)
			}
		}
		if serr.Found != test.found {
			t.Errorf("Parse %#q: found %v, want %v", test.input, serr.Found, test.found)
		}
		t.Logf("Parse %#q: got expected error: %v", test.input, err)
	}
}

func TestDeepNesting(t *testing.T) {
	const depth = 100000
	v, err := ast.Parse(testutil.Nest(depth))
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	var n int
	for {
		a, ok := v.(ast.Array)
		if !ok {
			break
		}
		if len(a) != 1 {
			t.Fatalf("At depth %d: array has %d elements, want 1", n, len(a))
		}
		n++
		v = a[0]
	}
	if n != depth {
		t.Errorf("Nesting depth: got %d, want %d", n, depth)
	}
	if v.Kind() != ast.NullKind {
		t.Errorf("Innermost value: got %v, want null", v.Kind())
	}

	// A deep input that is missing one close bracket.
	in := testutil.Nest(depth)
	_, err = ast.Parse(in[:len(in)-1])
	if !errors.Is(err, jtable.ErrEndOfInput) {
		t.Errorf("Parse truncated: got %v, want %v", err, jtable.ErrEndOfInput)
	}
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := range 250 {
		want := testutil.RandomValue(rng, 4)
		text := want.JSON()

		p := ast.NewParser([]byte(text))
		p.DecodeStrings(true)
		got, err := p.Parse()
		if err != nil {
			t.Fatalf("Case %d: Parse %#q: unexpected error: %v", i, text, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Case %d: Parse %#q: (-want, +got)\n%s", i, text, diff)
		}
		if again := got.JSON(); again != text {
			t.Errorf("Case %d: JSON is not stable:\n got: %s\nwant: %s", i, again, text)
		}
	}
}

// Arbitrary sequences of tokens must never violate the engine's own
// bookkeeping, whether or not they are valid.
func TestNoInvariantErrors(t *testing.T) {
	pieces := []string{"{", "}", "[", "]", ",", ":", `"k"`, "1", "true", "null", " "}
	rng := rand.New(rand.NewPCG(3, 4))
	var ok, bad int
	for range 5000 {
		var sb strings.Builder
		for range rng.IntN(12) + 1 {
			sb.WriteString(pieces[rng.IntN(len(pieces))])
		}
		input := sb.String()
		_, err := ast.Parse(input)
		if err == nil {
			ok++
			continue
		}
		bad++
		var ierr *jtable.InvariantError
		if errors.As(err, &ierr) {
			t.Errorf("Parse %#q: %v", input, err)
		}
		var serr *jtable.SyntaxError
		if !errors.As(err, &serr) {
			t.Errorf("Parse %#q: got %T, want *SyntaxError", input, err)
		}
	}
	t.Logf("Parsed %d valid and %d invalid inputs", ok, bad)
}

func TestConcurrent(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	inputs := make([]string, 64)
	wants := make([]ast.Value, len(inputs))
	for i := range inputs {
		wants[i] = testutil.RandomValue(rng, 3)
		inputs[i] = wants[i].JSON()
	}

	var wg sync.WaitGroup
	errc := make(chan error, 8)
	for range 8 {
		wg.Go(func() {
			for i, in := range inputs {
				p := ast.NewParser([]byte(in))
				p.DecodeStrings(true)
				got, err := p.Parse()
				if err != nil {
					errc <- err
					return
				}
				if !cmp.Equal(got, wants[i]) {
					errc <- errors.New("mismatched result for " + in)
					return
				}
			}
		})
	}
	wg.Wait()
	close(errc)
	for err := range errc {
		t.Error(err)
	}
}

func TestMustParse(t *testing.T) {
	if got := ast.MustParse(`[true]`); !cmp.Equal(got, ast.Value(ast.Array{ast.Bool(true)})) {
		t.Errorf("MustParse: got %v, want [true]", got)
	}
	mtest.MustPanic(t, func() { ast.MustParse(`[true`) })
	mtest.MustPanic(t, func() { ast.MustParse(``) })
}

func TestParseTrace(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "jtable.parser")
	defer teardown()

	v, err := ast.ParseBytes([]byte(`{"a": [1, {"b": null}], "c": []}`))
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	want := ast.Object{
		"a": ast.Array{ast.Number(1), ast.Object{"b": ast.Null{}}},
		"c": ast.Array{},
	}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("Parse: (-want, +got)\n%s", diff)
	}
}
