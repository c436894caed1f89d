// pattern: Functional Core

package update

import (
	"cmp"
	"strings"
)

const (
	snapshotSuffix = "-SNAPSHOT"
	separators     = ".-_+ "
)

// TokenKind distinguishes numeric from textual version tokens.
type TokenKind int

const (
	Number TokenKind = iota
	Text
)

// Token is one run of digits or non-digits in a version string.
type Token struct {
	Kind  TokenKind
	Value string // digits for Number (leading zeros kept), raw text for Text
}

// Version is a parsed version string.
type Version struct {
	Raw      string
	Tokens   []Token
	Snapshot bool
}

// ParseVersion splits s into alternating digit and non-digit runs. A trailing
// -SNAPSHOT is removed before tokenizing and remembered, and a leading "v" is
// ignored. Separator characters are trimmed from text runs and runs made only
// of separators are dropped, so "1.0" and "1.0.0" differ only by a trailing
// zero.
func ParseVersion(s string) Version {
	v := Version{Raw: s}
	s = strings.TrimPrefix(s, "v")
	if rest, ok := strings.CutSuffix(s, snapshotSuffix); ok {
		s = rest
		v.Snapshot = true
	}

	start := 0
	for i := 1; i <= len(s); i++ {
		if i < len(s) && isDigit(s[i]) == isDigit(s[start]) {
			continue
		}
		run := s[start:i]
		start = i
		if isDigit(run[0]) {
			v.Tokens = append(v.Tokens, Token{Kind: Number, Value: run})
			continue
		}
		if text := strings.Trim(run, separators); text != "" {
			v.Tokens = append(v.Tokens, Token{Kind: Text, Value: text})
		}
	}
	return v
}

// String returns the version as written.
func (v Version) String() string {
	return v.Raw
}

// Compare returns -1, 0 or +1 as a is older than, equal to or newer than b.
func Compare(a, b string) int {
	return ParseVersion(a).Compare(ParseVersion(b))
}

// Compare orders v against o. The shorter token list is padded with zeros;
// a snapshot sorts before the release with the same tokens.
func (v Version) Compare(o Version) int {
	n := max(len(v.Tokens), len(o.Tokens))
	for i := range n {
		if c := compareTokens(tokenAt(v.Tokens, i), tokenAt(o.Tokens, i)); c != 0 {
			return c
		}
	}
	switch {
	case v.Snapshot == o.Snapshot:
		return 0
	case v.Snapshot:
		return -1
	default:
		return 1
	}
}

var zeroToken = Token{Kind: Number, Value: "0"}

func tokenAt(tokens []Token, i int) Token {
	if i < len(tokens) {
		return tokens[i]
	}
	return zeroToken
}

// compareTokens compares numbers numerically and text lexically. When kinds
// differ, numbers sort first.
func compareTokens(a, b Token) int {
	if a.Kind != b.Kind {
		if a.Kind == Number {
			return -1
		}
		return 1
	}
	if a.Kind == Text {
		return strings.Compare(a.Value, b.Value)
	}
	return compareNumbers(a.Value, b.Value)
}

// compareNumbers compares digit strings of any length without overflow.
func compareNumbers(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	return cmp.Or(cmp.Compare(len(a), len(b)), strings.Compare(a, b))
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
