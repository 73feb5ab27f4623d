package xpath

import (
	"fmt"
	"strings"
	"unicode"
)

// Expression grammar over one predicate key:
//
//	expr    := unary (("&" | "|") unary)*
//	unary   := "!" unary | primary
//	primary := "(" expr ")" | operand
//	operand := quoted string | bare words
//
// `&` and `|` share one level; the emitted `and`/`or` keep XPath's own
// precedence, matching the original flat emission. `!` binds tightest.
// Bare operands may contain spaces ("hello world | bye"); surrounding
// whitespace is trimmed, quotes preserve everything verbatim.

type exprParser struct {
	key    string
	src    []rune
	pos    int
	format func(string) string
}

// compileExpr renders a logical expression into an XPath boolean clause,
// formatting every operand through format.
func compileExpr(key, expr string, format func(string) string) (string, error) {
	p := &exprParser{key: key, src: []rune(expr), format: format}
	out, err := p.parseExpr()
	if err != nil {
		return "", err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return "", p.errorf("unexpected %q", string(p.src[p.pos]))
	}
	return stripOuterParens(out), nil
}

func (p *exprParser) errorf(format string, args ...any) error {
	return &PredicateError{Key: p.key, Reason: "invalid expression: " + fmt.Sprintf(format, args...)}
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *exprParser) peek() (rune, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

func (p *exprParser) parseExpr() (string, error) {
	out, err := p.parseUnary()
	if err != nil {
		return "", err
	}
	for {
		p.skipSpace()
		r, ok := p.peek()
		if !ok || (r != '&' && r != '|') {
			return out, nil
		}
		p.pos++
		op := " and "
		if r == '|' {
			op = " or "
		}
		right, err := p.parseUnary()
		if err != nil {
			return "", err
		}
		out += op + right
	}
}

func (p *exprParser) parseUnary() (string, error) {
	p.skipSpace()
	if r, ok := p.peek(); ok && r == '!' {
		p.pos++
		inner, err := p.parseUnary()
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(inner, "(") && strings.HasSuffix(inner, ")") {
			return "not" + inner, nil
		}
		return "not(" + inner + ")", nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (string, error) {
	p.skipSpace()
	r, ok := p.peek()
	if !ok {
		return "", p.errorf("unexpected end of expression")
	}
	switch r {
	case '(':
		p.pos++
		inner, err := p.parseExpr()
		if err != nil {
			return "", err
		}
		p.skipSpace()
		if r, ok := p.peek(); !ok || r != ')' {
			return "", p.errorf("missing closing parenthesis")
		}
		p.pos++
		return "(" + inner + ")", nil
	case ')':
		return "", p.errorf("unexpected %q", ")")
	case '\'', '"':
		return p.parseQuoted(r)
	default:
		return p.parseBare()
	}
}

func (p *exprParser) parseQuoted(q rune) (string, error) {
	p.pos++ // opening quote
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != q {
		p.pos++
	}
	if p.pos >= len(p.src) {
		return "", p.errorf("unterminated quote")
	}
	val := string(p.src[start:p.pos])
	p.pos++ // closing quote
	return p.format(val), nil
}

func isOperandRune(r rune) bool {
	switch r {
	case '&', '|', '!', '(', ')', '\'', '"':
		return false
	}
	return true
}

func (p *exprParser) parseBare() (string, error) {
	start := p.pos
	for p.pos < len(p.src) && isOperandRune(p.src[p.pos]) {
		p.pos++
	}
	val := strings.TrimSpace(string(p.src[start:p.pos]))
	if val == "" {
		return "", p.errorf("empty operand")
	}
	return p.format(val), nil
}

// stripOuterParens removes one redundant outer group, so "(a or b)" compiled
// from a fully parenthesized expression reads the same as "a or b".
func stripOuterParens(s string) string {
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return s
	}
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return s
			}
		}
	}
	return s[1 : len(s)-1]
}
