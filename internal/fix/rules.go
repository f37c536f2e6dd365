package fix

import (
	"regexp"
	"strings"

	"github.com/MimeLyc/dialogue-translator/internal/kana"
)

// Rule is one domain special case: Apply runs when Applies holds for the
// speaker name and text.
type Rule struct {
	Name    string
	Applies func(name, text string) bool
	Apply   func(text string) string
}

// ApplyRules runs rules in order.
func ApplyRules(rules []Rule, name, text string) string {
	for _, r := range rules {
		if r.Applies == nil || r.Applies(name, text) {
			text = r.Apply(text)
		}
	}
	return text
}

var (
	koboldName   = regexp.MustCompile(`コボルド|\d{1,3}.*?・.*?|(^[ァ-ヺ]{1}・[ァ-ヺ]{1}$)`)
	mamoolName   = regexp.MustCompile(`マムージャ|ージャジャ$|男.*ージャ$|強化グリーンワート`)
	vanuName     = regexp.MustCompile(`ブンド|ズンド|グンド|ヌバ|バヌ`)
	summonerName = regexp.MustCompile(`ヤ・ミトラ|プリンキピア|クリスピン|ジャジャサム|デニース|^サリ(|の声)$`)
	darkName     = regexp.MustCompile(`フレイ|シドゥルグ|リエル|^ミスト(|の声)$`)

	leadingStutter  = regexp.MustCompile(`^([ぁ-ゖ][ぁぃぅぇぉゃゅょっ]?|[ァ-ヺ][ァィゥェォャュョッ]?)[…、]+([^…、])`)
	midStutter      = regexp.MustCompile(`([、。！？])([ぁ-ゖ][ぁぃぅぇぉゃゅょっ]?|[ァ-ヺ][ァィゥェォャュョッ]?)[…、]+([^…、])`)
	isolatedKata    = regexp.MustCompile(`([^ァ-ヺ・ー＝]|^)[ァ-ヺ][ァィゥェォャュョッ]?([^ァ-ヺ・ー＝]|$)`)
	katakanaDesu    = regexp.MustCompile(`([^ァ-ヺ・ー＝])デス([^ァ-ヺ・ー＝])`)
	equipmentMarks  = strings.NewReplacer("魔器装備（武器・盾）", "魔器装備「武器・盾」", "魔器装備（防具）", "魔器装備「防具」")
	exarchNotBefore = []string{"水晶", "貴"}
)

// runes that make 公 part of an ordinary word rather than the Crystal Exarch
const exarchNotAfter = "開的然共衆民園安界家営印暇課会海宴害刊館器儀議企義案益演稲"

// DefaultRules returns the ordered domain rule list. crystalium lists the
// speakers who call the Crystal Exarch plain 公.
func DefaultRules(crystalium RuleSet) []Rule {
	return []Rule{
		{
			Name: "kobold long vowel",
			Applies: func(name, _ string) bool {
				return koboldName.MatchString(name) && !strings.Contains(name, "マメット")
			},
			Apply: func(text string) string { return strings.ReplaceAll(text, "ー", "") },
		},
		{
			Name:    "mamool ja comma",
			Applies: func(name, _ string) bool { return mamoolName.MatchString(name) },
			Apply:   func(text string) string { return strings.ReplaceAll(text, "、", "") },
		},
		{
			Name:    "vanu repeated clause",
			Applies: func(name, _ string) bool { return vanuName.MatchString(name) },
			Apply:   DedupRepeatedClause,
		},
		{
			Name:    "core compound",
			Applies: func(_, text string) bool { return strings.Contains(text, "核") },
			Apply:   FixCore,
		},
		{
			Name: "crystal exarch",
			Applies: func(name, text string) bool {
				return strings.Contains(text, "公") && crystalium.MatchAny(name)
			},
			Apply: FixCrystalExarch,
		},
		{
			Name:    "summoner sari",
			Applies: func(name, _ string) bool { return summonerName.MatchString(name) },
			Apply:   func(text string) string { return strings.ReplaceAll(text, "サリ", "サリ#") },
		},
		{
			Name:    "dark knight mist",
			Applies: func(name, _ string) bool { return darkName.MatchString(name) },
			Apply:   func(text string) string { return strings.ReplaceAll(text, "ミスト", "ミスト#") },
		},
		{Name: "leading stutter", Apply: CollapseLeadingStutter},
		{Name: "mid stutter", Apply: CollapseMidStutter},
		{Name: "isolated katakana", Apply: IsolatedKatakanaToHiragana},
		{
			Name:  "katakana desu",
			Apply: func(text string) string { return katakanaDesu.ReplaceAllString(text, "${1}です${2}") },
		},
		{Name: "equipment brackets", Apply: equipmentMarks.Replace},
	}
}

// DedupRepeatedClause collapses "X、X" into "X" for any X of three or more
// runes, scanning left to right and preferring the shortest X.
func DedupRepeatedClause(text string) string {
	rs := []rune(text)
	var b strings.Builder
	for i := 0; i < len(rs); {
		n := repeatedClauseAt(rs, i)
		if n == 0 {
			b.WriteRune(rs[i])
			i++
			continue
		}
		b.WriteString(string(rs[i : i+n]))
		i += 2*n + 1
	}
	return b.String()
}

// repeatedClauseAt returns the length of the shortest clause starting at i
// that is followed by "、" and itself, or 0.
func repeatedClauseAt(rs []rune, i int) int {
	for n := 1; n < 3 && i+n <= len(rs); n++ {
		if rs[i+n-1] == '\n' {
			return 0
		}
	}
	for n := 3; i+2*n+1 <= len(rs); n++ {
		if rs[i+n-1] == '\n' {
			return 0
		}
		if rs[i+n] != '、' {
			continue
		}
		if string(rs[i:i+n]) == string(rs[i+n+1:i+2*n+1]) {
			return n
		}
	}
	return 0
}

// FixCore rewrites 心核, 中核, 内核 and a lone 核 into 核心.
func FixCore(text string) string {
	rs := []rune(text)
	var b strings.Builder
	for i := 0; i < len(rs); i++ {
		if i+1 < len(rs) && rs[i+1] == '核' && (rs[i] == '心' || rs[i] == '中' || rs[i] == '内') {
			b.WriteString("核心")
			i++
			continue
		}
		if rs[i] == '核' && (i+1 >= len(rs) || rs[i+1] != '心') {
			b.WriteString("核心")
			continue
		}
		b.WriteRune(rs[i])
	}
	return b.String()
}

// FixCrystalExarch expands a bare 公 into 水晶公 unless it is already part
// of 水晶公, 貴公 or an ordinary compound.
func FixCrystalExarch(text string) string {
	rs := []rune(text)
	var b strings.Builder
	for i, r := range rs {
		if r != '公' || exarchPrefixed(rs[:i]) || (i+1 < len(rs) && strings.ContainsRune(exarchNotAfter, rs[i+1])) {
			b.WriteRune(r)
			continue
		}
		b.WriteString("水晶公")
	}
	return b.String()
}

func exarchPrefixed(before []rune) bool {
	s := string(before)
	for _, p := range exarchNotBefore {
		if strings.HasSuffix(s, p) {
			return true
		}
	}
	return false
}

// CollapseLeadingStutter drops a stuttered opening ("あ、あ、ありがとう").
// More than one collapse leaves a "……" prefix.
func CollapseLeadingStutter(text string) string {
	text, n := Repeat("leading stutter", text, func(s string) (string, bool) {
		if !leadingStutter.MatchString(s) {
			return s, false
		}
		return leadingStutter.ReplaceAllString(s, "${2}"), true
	})
	if n > 1 {
		text = "……" + text
	}
	return text
}

// CollapseMidStutter drops stutters following sentence punctuation.
func CollapseMidStutter(text string) string {
	text, _ = Repeat("mid stutter", text, func(s string) (string, bool) {
		if !midStutter.MatchString(s) {
			return s, false
		}
		return midStutter.ReplaceAllString(s, "${1}${3}"), true
	})
	return text
}

// IsolatedKatakanaToHiragana turns a lone katakana mora inside hiragana text
// into hiragana ("あアあ" -> "あああ").
func IsolatedKatakanaToHiragana(text string) string {
	text, _ = Repeat("isolated katakana", text, func(s string) (string, bool) {
		m := isolatedKata.FindString(s)
		if m == "" {
			return s, false
		}
		h := kana.ToHiragana(m)
		if h == m {
			return s, false
		}
		return strings.ReplaceAll(s, m, h), true
	})
	return text
}
