package xpath

import (
	"errors"
	"strings"
	"testing"
)

func compile(t *testing.T, s *Set, scope Scope) string {
	t.Helper()
	out, err := s.Compile(scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return out
}

func TestCompile_Basics(t *testing.T) {
	tests := []struct {
		name  string
		set   *Set
		scope Scope
		want  string
	}{
		{"empty absolute", New(), Absolute, "//*"},
		{"empty relative", New(), Relative, ".//*"},
		{"tag only", New().Tag("button"), Absolute, "//button"},
		{"tag relative", New().Tag("button"), Relative, ".//button"},
		{
			"single attribute",
			New().Attr("id", "login"),
			Absolute,
			"//*[@id='login']",
		},
		{
			"tag with contains text",
			New().Tag("button").ContainsText("OK"),
			Absolute,
			"//button[contains(text(), 'OK')]",
		},
		{
			"not equals",
			New().Not("type", "hidden"),
			Absolute,
			"//*[@type!='hidden']",
		},
		{
			"starts with",
			New().StartsWith("href", "https://"),
			Absolute,
			"//*[starts-with(@href, 'https://')]",
		},
		{
			"class sugar",
			New().Tag("div").Class("panel"),
			Absolute,
			"//div[@class='panel']",
		},
		{
			"exact text",
			New().Text("Submit"),
			Absolute,
			"//*[text()='Submit']",
		},
		{
			"clauses joined in insertion order",
			New().Tag("input").Attr("name", "q").ContainsAttr("class", "search").Not("disabled", "true"),
			Absolute,
			"//input[@name='q' and contains(@class, 'search') and @disabled!='true']",
		},
		{
			"positional index",
			New().Index(2),
			Absolute,
			"//*[position()=2]",
		},
		{
			"index among matching siblings",
			New().Tag("td").Index(3),
			Relative,
			".//td[position()=3]",
		},
		{
			"axis override",
			New().Axis("following-sibling").Tag("td"),
			Relative,
			"./following-sibling::td",
		},
		{
			"axis absolute",
			New().Axis("ancestor").Tag("form"),
			Absolute,
			"ancestor::form",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compile(t, tt.set, tt.scope)
			if got != tt.want {
				t.Errorf("Compile() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompile_ValueFormatting(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"bool true", true, "//*[@checked='True']"},
		{"bool false", false, "//*[@checked='False']"},
		{"int", 42, "//*[@checked='42']"},
		{"int64", int64(-7), "//*[@checked='-7']"},
		{"float", 1.5, "//*[@checked='1.5']"},
		{"float integral", 2.0, "//*[@checked='2']"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compile(t, New().Attr("checked", tt.value), Absolute)
			if got != tt.want {
				t.Errorf("Compile() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompile_Quoting(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"plain", "ok", "//*[text()='ok']"},
		{"single quote inside", "it's", `//*[text()="it's"]`},
		{"both quote kinds", `he said "it's"`, `//*[text()=concat('he said "it', "'", 's"')]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compile(t, New().Text(tt.value), Absolute)
			if got != tt.want {
				t.Errorf("Compile() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompile_Deterministic(t *testing.T) {
	build := func() *Set {
		return New().Tag("a").Attr("href", "/home").ContainsText("Home").Index(1)
	}
	a := compile(t, build(), Absolute)
	b := compile(t, build(), Absolute)
	if a != b {
		t.Errorf("structurally equal sets compiled differently: %q vs %q", a, b)
	}
}

func TestCompile_ScopeDiffersOnlyInAnchor(t *testing.T) {
	set := func() *Set { return New().Tag("li").Attr("role", "option") }
	abs := compile(t, set(), Absolute)
	rel := compile(t, set(), Relative)
	if "."+abs != rel {
		t.Errorf("relative locator %q is not anchor-prefixed absolute %q", rel, abs)
	}
	if !strings.HasSuffix(rel, abs) {
		t.Errorf("scope changed more than the anchor: %q vs %q", abs, rel)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		set  *Set
	}{
		{"unsupported value type", New().Attr("data", []string{"x"})},
		{"unsupported modifier value type", New().ContainsAttr("data", struct{}{})},
		{"duplicate key", New().Attr("id", "a").ContainsAttr("id", "b")},
		{"duplicate tag", New().Tag("a").Tag("b")},
		{"empty key", New().Attr("", "v")},
		{"empty tag", New().Tag("")},
		{"unknown axis", New().Axis("sideways")},
		{"duplicate axis", New().Axis("child").Axis("parent")},
		{"index zero", New().Index(0)},
		{"index negative", New().Index(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.set.Compile(Absolute)
			if err == nil {
				t.Fatal("expected error")
			}
			var perr *PredicateError
			if !errors.As(err, &perr) {
				t.Fatalf("error type = %T, want *PredicateError", err)
			}
		})
	}
}

func TestCompile_FirstErrorWins(t *testing.T) {
	s := New().Attr("id", "a").Attr("id", "b").Attr("", "c")
	_, err := s.Compile(Absolute)
	if err == nil {
		t.Fatal("expected error")
	}
	var perr *PredicateError
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T", err)
	}
	if perr.Key != "id" {
		t.Errorf("Key = %q, want the first failing key %q", perr.Key, "id")
	}
}
