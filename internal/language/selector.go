package language

import "strings"

// Tags recognized by the keyword policy
const (
	JavaScript = "javascript"
	Rust       = "rust"
	Go         = "go"
	Python     = "python"
)

// Selector picks a language tag for a free-text prompt. Implementations never fail.
type Selector interface {
	Select(prompt string) string
}

// SelectorFunc adapts a plain function to the Selector interface
type SelectorFunc func(prompt string) string

func (f SelectorFunc) Select(prompt string) string {
	return f(prompt)
}

// Rule maps a set of keywords to a tag
type Rule struct {
	Tag      string
	Keywords []string
}

// DefaultRules is the fixed priority order. First match wins.
var DefaultRules = []Rule{
	{Tag: JavaScript, Keywords: []string{"web", "frontend", "browser"}},
	{Tag: Rust, Keywords: []string{"performance", "system"}},
	{Tag: Go, Keywords: []string{"concurrent", "network"}},
}

// KeywordSelector matches lower-cased substrings against ordered rules
type KeywordSelector struct {
	rules    []Rule
	fallback string
}

// NewKeywordSelector returns the default keyword policy with python as the fallback
func NewKeywordSelector() *KeywordSelector {
	return &KeywordSelector{rules: DefaultRules, fallback: Python}
}

// Select returns the tag of the first rule with a keyword contained in the prompt
func (s *KeywordSelector) Select(prompt string) string {
	promptLower := strings.ToLower(prompt)

	for _, rule := range s.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(promptLower, kw) {
				return rule.Tag
			}
		}
	}

	return s.fallback
}
