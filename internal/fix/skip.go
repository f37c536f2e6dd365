package fix

import (
	"fmt"
	"regexp"

	"github.com/MimeLyc/dialogue-translator/internal/lookup"
)

// Skip targets of an ignore row. An empty target checks both name and text.
const (
	SkipCode = "code"
	SkipName = "name"
	SkipText = "text"
)

type skipRule struct {
	pattern *regexp.Regexp
	target  string
}

// SkipPolicy decides which lines are intentionally not translated.
type SkipPolicy struct {
	rules []skipRule
}

// NewSkipPolicy compiles ignore rows of the form [pattern, target], where the
// target is "code", "name", "text" or empty.
func NewSkipPolicy(entries lookup.Table) (*SkipPolicy, error) {
	p := &SkipPolicy{}
	for i, e := range entries {
		switch e.Replacement {
		case "", SkipCode, SkipName, SkipText:
		default:
			return nil, fmt.Errorf("ignore rule %d: unknown target %q", i, e.Replacement)
		}
		re, err := regexp.Compile(e.Pattern)
		if err != nil {
			return nil, fmt.Errorf("ignore rule %d %q: %w", i, e.Pattern, err)
		}
		p.rules = append(p.rules, skipRule{pattern: re, target: e.Replacement})
	}
	return p, nil
}

// Match reports whether the line should be skipped.
func (p *SkipPolicy) Match(code, name, text string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.rules {
		switch r.target {
		case SkipCode:
			if r.pattern.MatchString(code) {
				return true
			}
		case SkipName:
			if r.pattern.MatchString(name) {
				return true
			}
		case SkipText:
			if r.pattern.MatchString(text) {
				return true
			}
		default:
			if r.pattern.MatchString(name) || r.pattern.MatchString(text) {
				return true
			}
		}
	}
	return false
}
