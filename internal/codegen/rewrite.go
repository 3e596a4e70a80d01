package codegen

import "strings"

// selfReferenceTriggers mark prompts that ask for a program resembling this service
var selfReferenceTriggers = []string{"like yourself", "code generator"}

var commentTokens = map[string]string{
	"python": "#",
	"ruby":   "#",
	"shell":  "#",
	"bash":   "#",
	"sh":     "#",
	"zsh":    "#",
	"perl":   "#",
	"r":      "#",
	"yaml":   "#",
	"toml":   "#",
	"elixir": "#",

	"sql":     "--",
	"lua":     "--",
	"haskell": "--",

	"erlang": "%",
	"matlab": "%",
}

// CommentToken returns the line comment prefix for a language tag.
// Unknown tags get "//".
func CommentToken(language string) string {
	if token, ok := commentTokens[strings.ToLower(language)]; ok {
		return token
	}
	return "//"
}

// IsSelfReferential reports whether the prompt asks for a code generator
func IsSelfReferential(prompt string) bool {
	lower := strings.ToLower(prompt)
	for _, trigger := range selfReferenceTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

// Rewrite brackets code between a header and a footer comment when the prompt
// is self-referential. The code itself is never altered.
func Rewrite(prompt, language, code string) (string, bool) {
	if !IsSelfReferential(prompt) {
		return code, false
	}

	c := CommentToken(language)
	var b strings.Builder
	b.WriteString(c + " Simplified " + language + " code for a code-generating agent\n")
	b.WriteString(code)
	b.WriteString("\n" + c + " Note: This is a secure, simplified version to avoid recursion risks.")
	return b.String(), true
}
