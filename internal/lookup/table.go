package lookup

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// Compose concatenates the three segments in priority order: temp, player, main.
func Compose(temp, player, main Table) Table {
	ret := make(Table, 0, len(temp)+len(player)+len(main))
	ret = append(ret, temp...)
	ret = append(ret, player...)
	ret = append(ret, main...)
	return ret
}

// Combine returns a new table with extra prepended at highest priority.
// base is not modified.
func Combine(base Table, extra ...Entry) Table {
	ret := make(Table, 0, len(extra)+len(base))
	ret = append(ret, extra...)
	ret = append(ret, base...)
	return ret
}

// IsShort reports whether key is short enough to be stored with the marker.
func IsShort(key string) bool {
	n := utf8.RuneCountInString(key)
	return n > 0 && n < ShortNameThreshold
}

// MarkIfShort appends the short-name marker to short keys.
func MarkIfShort(key string) string {
	if IsShort(key) {
		return key + ShortNameMarker
	}
	return key
}

// Find returns the first entry whose pattern equals key. Short keys also
// match entries stored as key + marker.
func (t Table) Find(key string) (Entry, bool) {
	if key == "" {
		return Entry{}, false
	}
	if e, ok := t.exact(key); ok {
		return e, true
	}
	if IsShort(key) {
		return t.exact(key + ShortNameMarker)
	}
	return Entry{}, false
}

// Lookup resolves key the way names are resolved: the bare key first, then
// the marker-suffixed key, whose payload has the marker stripped.
func (t Table) Lookup(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	if e, ok := t.exact(key); ok {
		return e.Replacement, true
	}
	if e, ok := t.exact(key + ShortNameMarker); ok {
		return strings.ReplaceAll(e.Replacement, ShortNameMarker, ""), true
	}
	return "", false
}

// Has reports whether key is stored, with or without the marker.
func (t Table) Has(key string) bool {
	if key == "" {
		return false
	}
	if _, ok := t.exact(key); ok {
		return true
	}
	_, ok := t.exact(key + ShortNameMarker)
	return ok
}

func (t Table) exact(pattern string) (Entry, bool) {
	for _, e := range t {
		if e.Pattern == pattern {
			return e, true
		}
	}
	return Entry{}, false
}

// Replace applies every entry in priority order, each replacing all
// occurrences of its pattern in a single pass.
func (t Table) Replace(text string) string {
	if text == "" {
		return text
	}
	for _, e := range t {
		if e.Pattern == "" {
			continue
		}
		if strings.Contains(text, e.Pattern) {
			text = strings.ReplaceAll(text, e.Pattern, e.Replacement)
		}
	}
	return text
}

// Suggestion is a near-miss entry ranked by string similarity.
type Suggestion struct {
	Entry Entry
	Score float64
}

// Nearest ranks entries by Jaro-Winkler similarity to key and returns at
// most n of them. The marker is ignored when comparing.
func (t Table) Nearest(key string, n int) []Suggestion {
	if key == "" || n <= 0 {
		return nil
	}
	seen := make(map[string]bool, len(t))
	ret := make([]Suggestion, 0, len(t))
	for _, e := range t {
		pattern := strings.TrimSuffix(e.Pattern, ShortNameMarker)
		if pattern == "" || seen[pattern] {
			continue
		}
		seen[pattern] = true
		ret = append(ret, Suggestion{Entry: e, Score: matchr.JaroWinkler(key, pattern, false)})
	}
	sort.SliceStable(ret, func(i, j int) bool {
		return ret[i].Score > ret[j].Score
	})
	if len(ret) > n {
		ret = ret[:n]
	}
	return ret
}
