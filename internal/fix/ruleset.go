// Package fix holds the text corrections applied around a translation call:
// curated regex rule sets, the skip policy, punctuation and value fixes and
// the ordered list of domain rules.
package fix

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/MimeLyc/dialogue-translator/internal/lookup"
)

// RegexRule replaces every match of Pattern with Replacement.
type RegexRule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// RuleSet is an ordered list of regex rules, applied one after another.
type RuleSet []RegexRule

// CompileRuleSet compiles dictionary rows into a RuleSet. Patterns are case
// insensitive and "$1" style group references are accepted in replacements.
func CompileRuleSet(entries lookup.Table) (RuleSet, error) {
	ret := make(RuleSet, 0, len(entries))
	for i, e := range entries {
		if e.Pattern == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + e.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d %q: %w", i, e.Pattern, err)
		}
		ret = append(ret, RegexRule{
			Pattern:     re,
			Replacement: expandTemplate(e.Replacement),
		})
	}
	return ret, nil
}

// expandTemplate rewrites a dictionary replacement ("$1", "$&", "$$" for a
// literal dollar) into regexp.Expand syntax. Any other "$" is literal.
func expandTemplate(repl string) string {
	if !strings.Contains(repl, "$") {
		return repl
	}
	var sb strings.Builder
	for i := 0; i < len(repl); i++ {
		if repl[i] != '$' {
			sb.WriteByte(repl[i])
			continue
		}
		if i+1 >= len(repl) {
			sb.WriteString("$$")
			continue
		}
		switch next := repl[i+1]; {
		case next == '$':
			sb.WriteString("$$")
			i++
		case next == '&':
			sb.WriteString("${0}")
			i++
		case next >= '0' && next <= '9':
			j := i + 1
			for j < len(repl) && repl[j] >= '0' && repl[j] <= '9' {
				j++
			}
			sb.WriteString("${" + repl[i+1:j] + "}")
			i = j - 1
		default:
			sb.WriteString("$$")
		}
	}
	return sb.String()
}

// CompileList compiles a plain list of patterns, e.g. a list of speaker names.
func CompileList(patterns []string) (RuleSet, error) {
	entries := make(lookup.Table, 0, len(patterns))
	for _, p := range patterns {
		entries = append(entries, lookup.Entry{Pattern: p})
	}
	return CompileRuleSet(entries)
}

// MustCompileList is CompileList for patterns known at compile time.
func MustCompileList(patterns ...string) RuleSet {
	rs, err := CompileList(patterns)
	if err != nil {
		panic(err)
	}
	return rs
}

// Apply runs every rule in order.
func (rs RuleSet) Apply(text string) string {
	if text == "" {
		return text
	}
	for _, r := range rs {
		text = r.Pattern.ReplaceAllString(text, r.Replacement)
	}
	return text
}

// MatchAny reports whether any pattern matches text.
func (rs RuleSet) MatchAny(text string) bool {
	for _, r := range rs {
		if r.Pattern.MatchString(text) {
			return true
		}
	}
	return false
}
