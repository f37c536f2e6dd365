// Package kana holds the script helpers used around translation: kana form
// conversion, katakana root extraction and script classification.
package kana

import (
	"regexp"
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

const (
	hiraganaFirst = 'ぁ' // U+3041
	hiraganaLast  = 'ゖ' // U+3096
	katakanaFirst = 'ァ' // U+30A1
	katakanaLast  = 'ヺ' // U+30FA
	kanaOffset    = katakanaFirst - hiraganaFirst
	hanFirst      = 0x3400
	hanLast       = 0x9FFF
)

// IsHiragana reports whether r is in ぁ-ゖ.
func IsHiragana(r rune) bool {
	return r >= hiraganaFirst && r <= hiraganaLast
}

// IsKatakana reports whether r is in ァ-ヺ.
func IsKatakana(r rune) bool {
	return r >= katakanaFirst && r <= katakanaLast
}

// IsPhonetic reports whether r may appear inside a katakana name:
// katakana, the middle dot, the long vowel mark or the full-width equals sign.
func IsPhonetic(r rune) bool {
	return IsKatakana(r) || r == '・' || r == 'ー' || r == '＝'
}

// IsHan reports whether r is a CJK ideograph (U+3400-U+9FFF).
func IsHan(r rune) bool {
	return r >= hanFirst && r <= hanLast
}

// ContainsHiragana reports whether any rune of text is hiragana.
func ContainsHiragana(text string) bool {
	return strings.ContainsFunc(text, IsHiragana)
}

// ContainsKana reports whether any rune of text is hiragana or katakana.
func ContainsKana(text string) bool {
	return strings.ContainsFunc(text, func(r rune) bool {
		return IsHiragana(r) || IsKatakana(r)
	})
}

// ContainsHan reports whether any rune of text is a CJK ideograph.
func ContainsHan(text string) bool {
	return strings.ContainsFunc(text, IsHan)
}

// ToHiragana converts katakana to hiragana. Katakana without a hiragana
// counterpart (ヷ-ヺ) is kept.
func ToHiragana(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= katakanaFirst && r <= 'ヶ':
			return r - kanaOffset
		case r == 'ヽ' || r == 'ヾ':
			return r - kanaOffset
		}
		return r
	}, text)
}

// ToKatakana converts hiragana to katakana.
func ToKatakana(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case IsHiragana(r):
			return r + kanaOffset
		case r == 'ゝ' || r == 'ゞ':
			return r + kanaOffset
		}
		return r
	}, text)
}

// Reverse swaps hiragana and katakana.
func Reverse(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case IsHiragana(r), r == 'ゝ', r == 'ゞ':
			return r + kanaOffset
		case r >= katakanaFirst && r <= 'ヶ', r == 'ヽ', r == 'ヾ':
			return r - kanaOffset
		}
		return r
	}, text)
}

var (
	phoneticThenOther = regexp.MustCompile(`^([ァ-ヺ・ー＝]+)([^ァ-ヺ・ー＝]+)？*$`)
	otherThenPhonetic = regexp.MustCompile(`^([^ァ-ヺ・ー＝]+)([ァ-ヺ・ー＝]+)？*$`)
	allPhonetic       = regexp.MustCompile(`^([ァ-ヺ・ー＝]+)？*$`)
)

// KatakanaRoot returns the phonetic part of a name. Three shapes are
// recognised: phonetic prefix + other suffix, other prefix + phonetic suffix,
// and entirely phonetic (optionally followed by ？). Any other shape has no
// root and yields "".
func KatakanaRoot(name string) string {
	if m := phoneticThenOther.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	if m := otherThenPhonetic.FindStringSubmatch(name); m != nil {
		return m[2]
	}
	if allPhonetic.MatchString(name) {
		return name
	}
	return ""
}

// IsTargetLanguage reports whether text is already written in the target
// language. Kana anywhere means Japanese. For a Chinese target, ideographs
// without kana are enough; otherwise the statistical detector decides.
func IsTargetLanguage(text string, target language.Tag) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	if ContainsKana(text) {
		return false
	}

	targetBase, _ := target.Base()
	if targetBase.String() == "zh" && ContainsHan(text) {
		return true
	}

	detected := language.Make(whatlanggo.DetectLang(text).Iso6391())
	if detected == language.Und {
		return false
	}
	detectedBase, _ := detected.Base()
	return detectedBase == targetBase
}

// CanSkipTranslation reports whether the text has nothing left for the
// translator: no kana and no ideographs, e.g. only placeholders, digits or
// punctuation.
func CanSkipTranslation(text string) bool {
	if strings.TrimSpace(text) == "" {
		return true
	}
	return !ContainsKana(text) && !ContainsHan(text)
}

// NoHiraganaWithHan reports whether text has no hiragana at all but at least
// one ideograph, the shape of lines rendered in katakana only.
func NoHiraganaWithHan(text string) bool {
	if text == "" {
		return false
	}
	return !ContainsHiragana(text) && ContainsHan(text)
}
