package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrSyntax reports a malformed formula.
var ErrSyntax = errors.New("invalid formula")

func syntaxErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrSyntax}, args...)...)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokLabel
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := rune(src[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '#':
			end := strings.IndexByte(src[i+1:], '#')
			if end < 0 {
				return nil, syntaxErrorf("unterminated dataset reference at %d", i)
			}
			label := src[i+1 : i+1+end]
			if label == "" {
				return nil, syntaxErrorf("empty dataset reference at %d", i)
			}
			toks = append(toks, token{kind: tokLabel, text: label, pos: i})
			i += end + 2
		case c >= '0' && c <= '9' || c == '.':
			j := i
			for j < len(src) && (src[j] >= '0' && src[j] <= '9' || src[j] == '.') {
				j++
			}
			if j < len(src) && (src[j] == 'e' || src[j] == 'E') {
				k := j + 1
				if k < len(src) && (src[k] == '+' || src[k] == '-') {
					k++
				}
				if k < len(src) && src[k] >= '0' && src[k] <= '9' {
					j = k
					for j < len(src) && src[j] >= '0' && src[j] <= '9' {
						j++
					}
				}
			}
			v, err := strconv.ParseFloat(src[i:j], 64)
			if err != nil {
				return nil, syntaxErrorf("bad number %q at %d", src[i:j], i)
			}
			toks = append(toks, token{kind: tokNumber, text: src[i:j], num: v, pos: i})
			i = j
		case unicode.IsLetter(c) || c == '_':
			j := i
			for j < len(src) && (unicode.IsLetter(rune(src[j])) || unicode.IsDigit(rune(src[j])) || src[j] == '_') {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: src[i:j], pos: i})
			i = j
		case strings.ContainsRune("+-*/^", c):
			// ** is accepted as a synonym of ^
			if c == '*' && i+1 < len(src) && src[i+1] == '*' {
				toks = append(toks, token{kind: tokOp, text: "^", pos: i})
				i += 2
				continue
			}
			toks = append(toks, token{kind: tokOp, text: string(c), pos: i})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case c == ',':
			toks = append(toks, token{kind: tokComma, text: ",", pos: i})
			i++
		default:
			return nil, syntaxErrorf("unexpected character %q at %d", c, i)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(src)}), nil
}
