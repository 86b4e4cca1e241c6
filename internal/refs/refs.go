// Package refs extracts issue references from free text such as pull
// request titles, bodies and commit messages.
//
// Extraction is rule based: every rule is applied to every field in a fixed
// order and the captured issue numbers are concatenated. Nothing is
// deduplicated. An issue referenced both as "closes #7" and by its full URL
// is reported twice, and callers that need a set must build one themselves.
package refs

import "regexp"

// Rule is a named pattern whose first capture group is an issue number.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

// KeywordRule matches closing keywords and bare "#<n>" references.
var KeywordRule = Rule{
	Name:    "keyword",
	Pattern: regexp.MustCompile(`(?i)(?:close[sd]?|fix(?:e[sd])?|resolve[sd]?|#)(\d+)`),
}

// URLRule matches full GitHub issue URLs.
var URLRule = Rule{
	Name:    "url",
	Pattern: regexp.MustCompile(`https?://github\.com/[^/]+/[^/]+/issues/(\d+)`),
}

// DefaultRules is the rule order used by Extract.
var DefaultRules = []Rule{KeywordRule, URLRule}

// Extractor applies an ordered list of rules to text fields.
type Extractor struct {
	rules []Rule
}

// NewExtractor returns an Extractor using rules, or DefaultRules when none are given.
func NewExtractor(rules ...Rule) *Extractor {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Extractor{rules: rules}
}

// Extract returns the issue numbers referenced in fields, in field order and
// then rule order. Nil fields contribute nothing. The result is never nil.
func (e *Extractor) Extract(fields ...*string) []string {
	issues := make([]string, 0)
	for _, f := range fields {
		if f == nil {
			continue
		}
		issues = append(issues, e.extractText(*f)...)
	}
	return issues
}

// ExtractText is Extract for a single, always-present field.
func (e *Extractor) ExtractText(text string) []string {
	return e.Extract(&text)
}

func (e *Extractor) extractText(text string) []string {
	var out []string
	for _, r := range e.rules {
		for _, m := range r.Pattern.FindAllStringSubmatch(text, -1) {
			if len(m) > 1 && m[1] != "" {
				out = append(out, m[1])
			}
		}
	}
	return out
}

var defaultExtractor = NewExtractor()

// Extract runs the default rules over fields.
func Extract(fields ...*string) []string {
	return defaultExtractor.Extract(fields...)
}
