// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

// Package escape handles quoting and unquoting of JSON strings.
package escape

import (
	"fmt"
	"unicode/utf8"

	"go4.org/mem"
)

// Error is the concrete type of errors reported by Unquote.
type Error struct {
	Offset  int // offset of the escape in the input
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s at offset %d", e.Message, e.Offset) }

// Unquote decodes a byte slice containing the JSON encoding of a string. The
// input must have the enclosing double quotation marks already removed.
//
// Escape sequences are replaced with their unescaped equivalents. Invalid
// escapes are replaced by the Unicode replacement rune. Unquote reports an
// error for an incomplete escape sequence.
func Unquote(src mem.RO) ([]byte, error) {
	dec := make([]byte, 0, src.Len())
	i := mem.IndexByte(src, '\\')
	if i < 0 {
		return mem.Append(dec, src), nil
	}

	var pos int // offset of src in the original input
	for src.Len() != 0 {
		dec = mem.Append(dec, src.SliceTo(i))
		esc := pos + i

		// Decode the rune after the escape to figure out what to substitute.
		// Undecodable input becomes a replacement rune (utf8.RuneError).
		src = src.SliceFrom(i + 1)
		pos = esc + 1
		if src.Len() == 0 {
			return nil, &Error{Offset: esc, Message: "incomplete escape sequence"}
		}
		r, n := mem.DecodeRune(src)
		n = max(n, 1)
		src = src.SliceFrom(n)
		pos += n

		switch r {
		case '"', '\\', '/':
			dec = append(dec, byte(r))
		case 'b':
			dec = append(dec, '\b')
		case 'f':
			dec = append(dec, '\f')
		case 'n':
			dec = append(dec, '\n')
		case 'r':
			dec = append(dec, '\r')
		case 't':
			dec = append(dec, '\t')
		case 'u':
			if src.Len() < 4 {
				return nil, &Error{Offset: esc, Message: "incomplete Unicode escape"}
			}
			if v, ok := parseHex(src.SliceTo(4)); ok {
				dec = utf8.AppendRune(dec, rune(v))
			} else {
				dec = utf8.AppendRune(dec, utf8.RuneError)
			}
			src = src.SliceFrom(4)
			pos += 4
		default:
			dec = utf8.AppendRune(dec, utf8.RuneError)
		}

		// Look for the next escape sequence; if there is none, copy the rest
		// of the input and finish.
		i = mem.IndexByte(src, '\\')
		if i < 0 {
			dec = mem.Append(dec, src)
			break
		}
	}
	return dec, nil
}

func parseHex(data mem.RO) (int64, bool) {
	var v int64
	for i := 0; i < data.Len(); i++ {
		b := data.At(i)
		v <<= 4
		if '0' <= b && b <= '9' {
			v += int64(b - '0')
		} else if 'a' <= b && b <= 'f' {
			v += int64(b - 'a' + 10)
		} else if 'A' <= b && b <= 'F' {
			v += int64(b - 'A' + 10)
		} else {
			return 0, false
		}
	}
	return v, true
}
