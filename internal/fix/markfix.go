package fix

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

var (
	ellipsisRun = regexp.MustCompile(`(?:\.{3}|･{3}|・{3})`)
	ellipsisCN  = regexp.MustCompile(`…+`)
	hanSpace    = regexp.MustCompile(`(\p{Han})[ \t]+(\p{Han})`)

	preMarks = strings.NewReplacer(
		"〜", "～",
	)
	postMarks = strings.NewReplacer(
		",", "，",
		"!", "！",
		"?", "？",
		":", "：",
		";", "；",
		"(", "（",
		")", "）",
	)
)

// MarkFix normalizes punctuation. Before translation (translated == false)
// half-width katakana is widened, full-width digits are narrowed and dotted
// ellipses are collapsed to "…"; other full-width symbols such as ＝ stay, as
// dictionary names are written with them. After translation ASCII
// punctuation becomes full-width and ellipses become "……".
func MarkFix(text string, translated bool) string {
	if text == "" {
		return text
	}
	if !translated {
		text = foldSource(text)
		text = ellipsisRun.ReplaceAllString(text, "…")
		return preMarks.Replace(text)
	}

	text = strings.ReplaceAll(text, "...", "…")
	text = ellipsisCN.ReplaceAllString(text, "……")
	text = postMarks.Replace(text)
	for hanSpace.MatchString(text) {
		text = hanSpace.ReplaceAllString(text, "$1$2")
	}
	return text
}

func foldSource(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '０' && r <= '９':
			return r - '０' + '0'
		case r >= '\uFF61' && r <= '\uFF9F':
			if wide := []rune(width.Widen.String(string(r))); len(wide) == 1 {
				return wide[0]
			}
		}
		return r
	}, text)
}
