package xpath

import (
	"errors"
	"testing"
)

func TestExpr_Compile(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{"single operand", "login", "//*[@id='login']"},
		{"or", "login | signin", "//*[@id='login' or @id='signin']"},
		{"and", "login & visible", "//*[@id='login' and @id='visible']"},
		{
			"mixed keeps xpath precedence",
			"a | b & c",
			"//*[@id='a' or @id='b' and @id='c']",
		},
		{"not", "!hidden", "//*[not(@id='hidden')]"},
		{
			"not of group",
			"!(a | b)",
			"//*[not(@id='a' or @id='b')]",
		},
		{
			"group then and",
			"(a | b) & !c",
			"//*[(@id='a' or @id='b') and not(@id='c')]",
		},
		{
			"multi-word operand",
			"hello world | bye",
			"//*[@id='hello world' or @id='bye']",
		},
		{
			"quoted operand",
			`'(01:00)' | "(02:00)"`,
			"//*[@id='(01:00)' or @id='(02:00)']",
		},
		{
			"redundant outer group stripped",
			"(a | b)",
			"//*[@id='a' or @id='b']",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compile(t, New().Expr("id", tt.expr), Absolute)
			if got != tt.want {
				t.Errorf("Compile() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpr_Text(t *testing.T) {
	got := compile(t, New().Tag("span").TextExpr("done | finished"), Absolute)
	want := "//span[text()='done' or text()='finished']"
	if got != want {
		t.Errorf("Compile() = %q, want %q", got, want)
	}
}

func TestExpr_Malformed(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"empty", ""},
		{"dangling operator", "a |"},
		{"leading operator", "& a"},
		{"unclosed group", "(a | b"},
		{"stray close", "a)"},
		{"unterminated quote", "'abc"},
		{"empty group", "()"},
		{"bang alone", "!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Expr("id", tt.expr).Compile(Absolute)
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
