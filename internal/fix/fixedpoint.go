package fix

import "github.com/MimeLyc/dialogue-translator/pkg/log"

// MaxFixedPointIterations caps every repeat-until-stable rewrite.
const MaxFixedPointIterations = 10

// Repeat applies step until it reports no change or the iteration cap is
// reached. It returns the text and the number of applied steps. Hitting the
// cap while step would still apply is logged.
func Repeat(name, text string, step func(string) (string, bool)) (string, int) {
	count := 0
	for count < MaxFixedPointIterations {
		next, ok := step(text)
		if !ok {
			return text, count
		}
		text = next
		count++
	}
	if _, ok := step(text); ok {
		log.Warn("rule %s hit the %d iteration cap: %q", name, MaxFixedPointIterations, text)
	}
	return text, count
}
