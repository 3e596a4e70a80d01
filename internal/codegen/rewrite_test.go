package codegen

import (
	"strings"
	"testing"
)

func TestRewriteSelfReference(t *testing.T) {
	code := "def gen(p):\n    return p"

	got, rewritten := Rewrite("Build a CODE GENERATOR like yourself", "python", code)
	if !rewritten {
		t.Fatal("expected rewrite")
	}

	want := "# Simplified python code for a code-generating agent\n" +
		code + "\n" +
		"# Note: This is a secure, simplified version to avoid recursion risks."
	if got != want {
		t.Errorf("unexpected rewrite:\n%s\nwant:\n%s", got, want)
	}
	if !strings.Contains(got, code) {
		t.Error("original text must be preserved")
	}
}

func TestRewriteNoTrigger(t *testing.T) {
	code := "fn main() {}"
	got, rewritten := Rewrite("a fast system tool", "rust", code)
	if rewritten || got != code {
		t.Errorf("expected untouched code, got %q (rewritten=%v)", got, rewritten)
	}
}

func TestRewriteTriggers(t *testing.T) {
	tests := []struct {
		prompt string
		want   bool
	}{
		{"make a code generator", true},
		{"an agent LIKE YOURSELF please", true},
		{"generate code for a generator", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsSelfReferential(tt.prompt); got != tt.want {
			t.Errorf("IsSelfReferential(%q) = %v, want %v", tt.prompt, got, tt.want)
		}
	}
}

func TestCommentToken(t *testing.T) {
	tests := map[string]string{
		"python":     "#",
		"Ruby":       "#",
		"bash":       "#",
		"sql":        "--",
		"lua":        "--",
		"erlang":     "%",
		"javascript": "//",
		"go":         "//",
		"rust":       "//",
		"brainfuck":  "//",
		"":           "//",
	}
	for language, want := range tests {
		if got := CommentToken(language); got != want {
			t.Errorf("CommentToken(%q) = %q, want %q", language, got, want)
		}
	}
}

func TestRewriteUsesLanguageComment(t *testing.T) {
	got, _ := Rewrite("code generator", "javascript", "console.log(1)")
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "// Simplified javascript code for a code-generating agent" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "// Note:") {
		t.Errorf("unexpected footer %q", lines[2])
	}
}
