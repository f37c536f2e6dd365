package fix

import (
	"regexp"
	"strconv"
	"strings"
)

// values the translator must not touch: tags, variables and numbers
var valuePattern = regexp.MustCompile(`<[^<>]+>|\{[^{}]*\}|[0-9]+(?:[.,][0-9]+)*`)

// ValueTable maps the "{n}" markers left by ValueFixBefore to their values.
type ValueTable []string

// ValueFixBefore swaps tags, variables and numbers for "{n}" markers.
func ValueFixBefore(text string) (string, ValueTable) {
	var table ValueTable
	index := map[string]int{}
	ret := valuePattern.ReplaceAllStringFunc(text, func(v string) string {
		i, ok := index[v]
		if !ok {
			i = len(table)
			index[v] = i
			table = append(table, v)
		}
		return marker(i)
	})
	return ret, table
}

// ValueFixAfter restores the markers in a single pass. Full-width markers are
// accepted as well.
func ValueFixAfter(text string, table ValueTable) string {
	if len(table) == 0 {
		return text
	}
	pairs := make([]string, 0, len(table)*4)
	for i, v := range table {
		m := marker(i)
		pairs = append(pairs, m, v, "｛"+strconv.Itoa(i)+"｝", v)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func marker(i int) string {
	return "{" + strconv.Itoa(i) + "}"
}
