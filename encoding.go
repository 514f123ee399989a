// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jtable

import (
	"errors"
	"strings"

	"github.com/creachadair/jtable/internal/escape"

	"go4.org/mem"
)

// Quote encodes src as a JSON string value. The contents are escaped and
// double quotation marks are added.
func Quote(src string) string { return string(escape.Quote(mem.S(src))) }

// Unquote decodes a JSON string value.  Double quotation marks are removed,
// and escape sequences are replaced with their unescaped equivalents.
//
// Invalid escapes are replaced by the Unicode replacement rune. Unquote
// reports an error for an incomplete escape sequence.
func Unquote(src string) ([]byte, error) {
	if len(src) < 2 || !strings.HasPrefix(src, `"`) || !strings.HasSuffix(src, `"`) {
		return nil, errors.New("missing quotations")
	}
	return escape.Unquote(mem.S(src[1 : len(src)-1]))
}

// Unescape decodes the text of a String lexeme, which does not include the
// enclosing quotation marks. Escapes are handled as for Unquote.
func Unescape(text []byte) (string, error) {
	dec, err := escape.Unquote(mem.B(text))
	if err != nil {
		return "", err
	}
	return string(dec), nil
}
