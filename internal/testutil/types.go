// Package testutil defines support code for unit tests.
package testutil

import (
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/creachadair/jtable/ast"
)

// RandomValue generates an arbitrary value using rng, with nesting no deeper
// than depth. Numbers are never negative, since the parser does not accept a
// leading sign. Object keys are distinct within each object.
func RandomValue(rng *rand.Rand, depth int) ast.Value {
	n := 4
	if depth > 0 {
		n = 6
	}
	switch rng.IntN(n) {
	case 0:
		return ast.String(randomString(rng))
	case 1:
		return randomNumber(rng)
	case 2:
		return ast.Bool(rng.IntN(2) == 1)
	case 3:
		return ast.Null{}
	case 4:
		arr := make(ast.Array, rng.IntN(5))
		for i := range arr {
			arr[i] = RandomValue(rng, depth-1)
		}
		return arr
	default:
		obj := make(ast.Object)
		for range rng.IntN(5) {
			obj[randomString(rng)] = RandomValue(rng, depth-1)
		}
		return obj
	}
}

func randomNumber(rng *rand.Rand) ast.Number {
	if rng.IntN(2) == 0 {
		return ast.Number(rng.IntN(1_000_000))
	}
	// Round-trip through text so the value is exactly representable with a
	// short decimal fraction.
	v, _ := strconv.ParseFloat(strconv.FormatFloat(rng.Float64()*1000, 'f', 3, 64), 64)
	return ast.Number(v)
}

// alphabet includes characters that must be escaped in JSON strings.
const alphabet = "abcxyz 019_-\"\\/\t\né世"

func randomString(rng *rand.Rand) string {
	rs := []rune(alphabet)
	var sb strings.Builder
	for range rng.IntN(8) {
		sb.WriteRune(rs[rng.IntN(len(rs))])
	}
	return sb.String()
}

// Nest returns the JSON text of depth arrays nested around the constant
// null, for example "[[[null]]]" for depth 3.
func Nest(depth int) string {
	return strings.Repeat("[", depth) + "null" + strings.Repeat("]", depth)
}
