// Package xpath compiles keyword predicates into XPath 1.0 locators for rod.
//
// A Set is an ordered collection of attribute predicates plus an optional
// element tag, search axis and positional index. Compilation is a pure
// function of the Set and the requested scope: structurally equal sets always
// compile to byte-identical locators.
package xpath

import (
	"fmt"
	"strconv"
	"strings"
)

// Scope selects the anchor the locator is evaluated from.
type Scope int

const (
	// Absolute anchors the locator at the document root.
	Absolute Scope = iota
	// Relative anchors the locator at the current node (an element scope).
	Relative
)

// PredicateError reports a malformed predicate. It is returned from Compile
// before any lookup begins and is never retried.
type PredicateError struct {
	Key    string
	Reason string
}

func (e *PredicateError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("predicate %q: %s", e.Key, e.Reason)
	}
	return "predicate: " + e.Reason
}

type mode int

const (
	modeEquals mode = iota
	modeNotEquals
	modeContains
	modeStartsWith
	modeExpr
	modeIndex
)

type clause struct {
	key   string
	mode  mode
	value any
}

// Set is a builder for one predicate set. Methods return the receiver for
// chaining; the first construction error is recorded and surfaced by Compile.
type Set struct {
	tag    string
	axis   string
	conds  []clause
	seen   map[string]struct{}
	tagSet bool
	err    error
}

// New returns an empty predicate set. An empty set compiles to a locator
// matching any element.
func New() *Set {
	return &Set{seen: make(map[string]struct{})}
}

func (s *Set) fail(key, reason string) *Set {
	if s.err == nil {
		s.err = &PredicateError{Key: key, Reason: reason}
	}
	return s
}

func (s *Set) add(key string, m mode, value any) *Set {
	if s.err != nil {
		return s
	}
	if key == "" {
		return s.fail(key, "empty attribute name")
	}
	if _, dup := s.seen[key]; dup {
		return s.fail(key, "conflicting predicates on the same key")
	}
	s.seen[key] = struct{}{}
	s.conds = append(s.conds, clause{key: key, mode: m, value: value})
	return s
}

// Tag selects the element type. Without it the locator matches any tag.
func (s *Set) Tag(tag string) *Set {
	if s.err != nil {
		return s
	}
	if tag == "" {
		return s.fail("tag", "empty tag name")
	}
	if s.tagSet {
		return s.fail("tag", "conflicting predicates on the same key")
	}
	s.tagSet = true
	s.tag = tag
	return s
}

// Search axes accepted by Axis.
var axes = map[string]struct{}{
	"ancestor":           {},
	"ancestor-or-self":   {},
	"child":              {},
	"descendant":         {},
	"descendant-or-self": {},
	"following":          {},
	"following-sibling":  {},
	"parent":             {},
	"preceding":          {},
	"preceding-sibling":  {},
	"self":               {},
}

// Axis overrides the default descendant search direction.
func (s *Set) Axis(axis string) *Set {
	if s.err != nil {
		return s
	}
	if _, ok := axes[axis]; !ok {
		return s.fail("axis", fmt.Sprintf("unknown axis %q", axis))
	}
	if s.axis != "" {
		return s.fail("axis", "conflicting predicates on the same key")
	}
	s.axis = axis
	return s
}

// Attr adds an exact-match predicate on an attribute.
func (s *Set) Attr(key string, value any) *Set { return s.add(key, modeEquals, value) }

// Not adds a not-equals predicate on an attribute.
func (s *Set) Not(key string, value any) *Set { return s.add(key, modeNotEquals, value) }

// ContainsAttr adds a substring-match predicate on an attribute.
func (s *Set) ContainsAttr(key string, value any) *Set { return s.add(key, modeContains, value) }

// StartsWith adds a prefix-match predicate on an attribute.
func (s *Set) StartsWith(key string, value any) *Set { return s.add(key, modeStartsWith, value) }

// Class is shorthand for Attr("class", value).
func (s *Set) Class(value any) *Set { return s.add("class", modeEquals, value) }

// Text matches the element's text content exactly.
func (s *Set) Text(value any) *Set { return s.add("text", modeEquals, value) }

// ContainsText matches elements whose text contains value.
func (s *Set) ContainsText(value any) *Set { return s.add("text", modeContains, value) }

// StartsWithText matches elements whose text starts with value.
func (s *Set) StartsWithText(value any) *Set { return s.add("text", modeStartsWith, value) }

// Index adds a 1-indexed positional predicate among otherwise-matching
// siblings.
func (s *Set) Index(n int) *Set {
	if s.err != nil {
		return s
	}
	if n < 1 {
		return s.fail("index", fmt.Sprintf("position %d out of range, positions are 1-indexed", n))
	}
	return s.add("index", modeIndex, n)
}

// Expr adds a logical expression over one attribute, e.g.
//
//	Expr("id", "login | (signin & !hidden)")
//
// The expression combines equality clauses on the key with `&`, `|`, `!` and
// parentheses. Operands may be quoted with single or double quotes.
func (s *Set) Expr(key, expr string) *Set { return s.add(key, modeExpr, expr) }

// TextExpr is Expr for the element's text content.
func (s *Set) TextExpr(expr string) *Set { return s.add("text", modeExpr, expr) }

// Err returns the construction error recorded so far, if any.
func (s *Set) Err() error { return s.err }

// Compile renders the set as an XPath locator anchored per scope.
func (s *Set) Compile(scope Scope) (string, error) {
	if s.err != nil {
		return "", s.err
	}

	tag := s.tag
	if tag == "" {
		tag = "*"
	}
	header := "//" + tag
	if s.axis != "" {
		header = s.axis + "::" + tag
	}
	if scope == Relative {
		if strings.HasPrefix(header, "/") {
			header = "." + header
		} else {
			header = "./" + header
		}
	}

	parts := make([]string, 0, len(s.conds))
	for _, c := range s.conds {
		p, err := renderClause(c)
		if err != nil {
			return "", err
		}
		parts = append(parts, p)
	}
	if len(parts) == 0 {
		return header, nil
	}
	return header + "[" + strings.Join(parts, " and ") + "]", nil
}

// lhs maps a predicate key to its XPath left-hand side. The text key selects
// the node's text instead of an attribute.
func lhs(key string) string {
	if key == "text" {
		return "text()"
	}
	return "@" + key
}

func renderClause(c clause) (string, error) {
	if c.mode == modeIndex {
		n, ok := c.value.(int)
		if !ok {
			return "", &PredicateError{Key: c.key, Reason: fmt.Sprintf("unsupported value type %T", c.value)}
		}
		return "position()=" + strconv.Itoa(n), nil
	}

	if c.mode == modeExpr {
		expr, ok := c.value.(string)
		if !ok {
			return "", &PredicateError{Key: c.key, Reason: fmt.Sprintf("unsupported value type %T", c.value)}
		}
		left := lhs(c.key)
		return compileExpr(c.key, expr, func(v string) string {
			return left + "=" + quote(v)
		})
	}

	v, err := formatValue(c.key, c.value)
	if err != nil {
		return "", err
	}
	left := lhs(c.key)
	switch c.mode {
	case modeEquals:
		return left + "=" + quote(v), nil
	case modeNotEquals:
		return left + "!=" + quote(v), nil
	case modeContains:
		return "contains(" + left + ", " + quote(v) + ")", nil
	case modeStartsWith:
		return "starts-with(" + left + ", " + quote(v) + ")", nil
	}
	return "", &PredicateError{Key: c.key, Reason: "unknown modifier"}
}

// formatValue renders a scalar the way the query language compares attribute
// strings: booleans as True/False, numbers in canonical decimal form.
func formatValue(key string, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		if v {
			return "True", nil
		}
		return "False", nil
	case int:
		return strconv.Itoa(v), nil
	case int8, int16, int32, int64:
		return fmt.Sprintf("%d", v), nil
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", &PredicateError{Key: key, Reason: fmt.Sprintf("unsupported value type %T", value)}
	}
}

// quote wraps a literal for XPath 1.0, which has no escape syntax. Values
// containing both quote kinds fall back to concat().
func quote(v string) string {
	if !strings.Contains(v, "'") {
		return "'" + v + "'"
	}
	if !strings.Contains(v, `"`) {
		return `"` + v + `"`
	}
	parts := strings.Split(v, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
