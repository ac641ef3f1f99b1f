package expr

import (
	"strconv"

	"go.trai.ch/zerr"
	"go.zr.dev/zr/internal/core/domain"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokInt
	tokBool
	tokDot
	tokComma
	tokLParen
	tokRParen
	tokEq
	tokNeq
	tokAnd
	tokOr
	tokNot
)

type token struct {
	kind tokenKind
	text string
	ival int64
	bval bool
}

// lexer tokenizes an expression source string.
type lexer struct {
	src []rune
	pos int
}

func newLexer(src string) *lexer {
	return &lexer{src: []rune(src)}
}

func (l *lexer) peekRune() (rune, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos], true
}

func (l *lexer) next() (token, error) {
	l.skipSpace()

	r, ok := l.peekRune()
	if !ok {
		return token{kind: tokEOF}, nil
	}

	switch {
	case r == '(':
		l.pos++
		return token{kind: tokLParen}, nil
	case r == ')':
		l.pos++
		return token{kind: tokRParen}, nil
	case r == '.':
		l.pos++
		return token{kind: tokDot}, nil
	case r == ',':
		l.pos++
		return token{kind: tokComma}, nil
	case r == '!':
		l.pos++
		if r2, ok := l.peekRune(); ok && r2 == '=' {
			l.pos++
			return token{kind: tokNeq}, nil
		}
		return token{kind: tokNot}, nil
	case r == '=':
		l.pos++
		if r2, ok := l.peekRune(); ok && r2 == '=' {
			l.pos++
			return token{kind: tokEq}, nil
		}
		return token{}, zerr.With(domain.ErrExpressionSyntax, "near", string(r))
	case r == '&':
		l.pos++
		if r2, ok := l.peekRune(); ok && r2 == '&' {
			l.pos++
			return token{kind: tokAnd}, nil
		}
		return token{}, zerr.With(domain.ErrExpressionSyntax, "near", "&")
	case r == '|':
		l.pos++
		if r2, ok := l.peekRune(); ok && r2 == '|' {
			l.pos++
			return token{kind: tokOr}, nil
		}
		return token{}, zerr.With(domain.ErrExpressionSyntax, "near", "|")
	case r == '\'' || r == '"':
		return l.lexString(r)
	case isDigit(r):
		return l.lexInt()
	case isIdentStart(r):
		return l.lexIdent()
	default:
		return token{}, zerr.With(domain.ErrExpressionSyntax, "near", string(r))
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t' || l.src[l.pos] == '\n') {
		l.pos++
	}
}

func (l *lexer) lexString(quote rune) (token, error) {
	l.pos++ // skip opening quote
	start := l.pos
	for l.pos < len(l.src) && l.src[l.pos] != quote {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return token{}, zerr.With(domain.ErrExpressionSyntax, "reason", "unterminated string literal")
	}
	text := string(l.src[start:l.pos])
	l.pos++ // skip closing quote
	return token{kind: tokString, text: text}, nil
}

func (l *lexer) lexInt() (token, error) {
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	text := string(l.src[start:l.pos])
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return token{}, zerr.Wrap(err, domain.ErrExpressionSyntax.Error())
	}
	return token{kind: tokInt, ival: v}, nil
}

func (l *lexer) lexIdent() (token, error) {
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	text := string(l.src[start:l.pos])
	switch text {
	case "true":
		return token{kind: tokBool, bval: true}, nil
	case "false":
		return token{kind: tokBool, bval: false}, nil
	default:
		return token{kind: tokIdent, text: text}, nil
	}
}

func isDigit(r rune) bool      { return r >= '0' && r <= '9' }
func isIdentStart(r rune) bool { return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }
func isIdentPart(r rune) bool  { return isIdentStart(r) || isDigit(r) }
