// Package mask shields protected substrings from the external translator by
// swapping them for placeholder codes and restoring them afterwards.
package mask

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"

	"github.com/MimeLyc/dialogue-translator/internal/lookup"
)

const (
	// sentinels live in the private use area while the table is scanned, so a
	// later entry can never match inside an already masked span. Runes the
	// text already contains are never used.
	sentinelBase = 0xE000
	sentinelMax  = 0xF8FF
	codeLetters  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Pair maps a placeholder code to the value it stands for.
type Pair struct {
	Code  string
	Value string
}

// Table is the restore table produced by Mask. It is only valid for the text
// it was produced from.
type Table []Pair

// Len returns the number of masked entries.
func (t Table) Len() int {
	return len(t)
}

// Values returns code -> value as a map, for translators that want a glossary.
func (t Table) Values() map[string]string {
	ret := make(map[string]string, len(t))
	for _, p := range t {
		ret[p.Code] = p.Value
	}
	return ret
}

// Mask replaces every occurrence of every matching pattern with a placeholder
// code and records code -> replacement. Entries are visited in priority order.
// Text without any match is returned unchanged with an empty table.
func Mask(text string, table lookup.Table) (string, Table) {
	if text == "" || len(table) == 0 {
		return text, nil
	}

	working := text
	values := make([]string, 0)
	sentinels := make([]string, 0)
	next := rune(sentinelBase)
	for _, e := range table {
		if e.Pattern == "" || !strings.Contains(working, e.Pattern) {
			continue
		}
		next = freeSentinel(text, next)
		if next > sentinelMax {
			break
		}
		sentinel := string(next)
		next++
		working = strings.ReplaceAll(working, e.Pattern, sentinel)
		values = append(values, e.Replacement)
		sentinels = append(sentinels, sentinel)
	}

	if len(values) == 0 {
		return text, nil
	}

	codes := generateCodes(text, values, sentinels)
	restore := make(Table, len(values))
	for i, value := range values {
		working = strings.ReplaceAll(working, sentinels[i], codes[i])
		restore[i] = Pair{Code: codes[i], Value: value}
	}

	return working, restore
}

// freeSentinel returns the first private use rune at or after r that text
// does not contain.
func freeSentinel(text string, r rune) rune {
	for r <= sentinelMax && strings.ContainsRune(text, r) {
		r++
	}
	return r
}

// Unmask replaces each code (and its full-width form) with its value.
func Unmask(text string, restore Table) string {
	if text == "" || len(restore) == 0 {
		return text
	}
	for _, p := range restore {
		text = strings.ReplaceAll(text, p.Code, p.Value)
		if wide := width.Widen.String(p.Code); wide != p.Code {
			text = strings.ReplaceAll(text, wide, p.Value)
		}
	}
	return text
}

// RestoreLeaked is the last-chance pass for codes the translator changed the
// case of. Codes never occur in the source text, so a lower-case or
// full-width copy of a code standing alone is a leaked placeholder. Copies
// inside a Latin word are left alone, so Latin-script targets keep their
// ordinary words.
func RestoreLeaked(text string, restore Table) string {
	text = Unmask(text, restore)
	for _, p := range restore {
		lower := strings.ToLower(p.Code)
		if lower == p.Code {
			continue
		}
		text = replaceToken(text, lower, p.Value)
		if wide := width.Widen.String(lower); wide != lower {
			text = replaceToken(text, wide, p.Value)
		}
	}
	return text
}

// replaceToken replaces old with value where it is not part of a longer run
// of Latin letters or digits.
func replaceToken(text, old, value string) string {
	if old == "" || !strings.Contains(text, old) {
		return text
	}
	var sb strings.Builder
	rest := text
	for {
		i := strings.Index(rest, old)
		if i < 0 {
			sb.WriteString(rest)
			break
		}
		prev, _ := utf8.DecodeLastRuneInString(rest[:i])
		if i == 0 {
			prev, _ = utf8.DecodeLastRuneInString(sb.String())
		}
		next, _ := utf8.DecodeRuneInString(rest[i+len(old):])
		standalone := !isWordRune(prev) && !isWordRune(next)
		sb.WriteString(rest[:i])
		if standalone {
			sb.WriteString(value)
		} else {
			sb.WriteString(old)
		}
		rest = rest[i+len(old):]
	}
	return sb.String()
}

func isWordRune(r rune) bool {
	return unicode.Is(unicode.Latin, r) || unicode.IsDigit(r)
}

// generateCodes picks one code per value, built from letters absent from both
// the text and the values, so restoring one code can never create another.
// All codes share one length so no code is a prefix of another.
func generateCodes(text string, values, sentinels []string) []string {
	n := len(values)
	folded := strings.ToUpper(width.Narrow.String(text + strings.Join(values, "")))
	alphabet := make([]rune, 0, len(codeLetters))
	for _, r := range codeLetters {
		if !strings.ContainsRune(folded, r) {
			alphabet = append(alphabet, r)
		}
	}

	k := len(alphabet)
	codes := make([]string, 0, n)
	switch {
	case n <= k:
		for i := 0; i < n; i++ {
			codes = append(codes, string(alphabet[i]))
		}
	case n <= k*k:
		for i := 0; i < n; i++ {
			codes = append(codes, string(alphabet[i/k])+string(alphabet[i%k]))
		}
	default:
		// not enough safe ASCII letters; keep the private use sentinels as codes
		codes = append(codes, sentinels...)
	}
	return codes
}
