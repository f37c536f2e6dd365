package kana

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestKatakanaRoot(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"all phonetic", "アルテマ", "アルテマ"},
		{"phonetic prefix", "アルテマ博士", "アルテマ"},
		{"phonetic suffix", "博士アルテマ", "アルテマ"},
		{"no phonetic run", "博士太郎", ""},
		{"trailing question marks", "アルテマ？？", "アルテマ"},
		{"question mark after phonetic run", "ヤ・シュトラ？", "ヤ・シュトラ"},
		{"middle dot and long vowel", "ヤ・シュトラの声", "ヤ・シュトラ"},
		{"mixed three runs", "アル博士テマ", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KatakanaRoot(tt.input))
		})
	}
}

func TestKanaConversion(t *testing.T) {
	assert.Equal(t, "ありがとう", ToHiragana("アリガトウ"))
	assert.Equal(t, "アリガトウ", ToKatakana("ありがとう"))
	assert.Equal(t, "ゔぁ", ToHiragana("ヴァ"))
	assert.Equal(t, "ヷ", ToHiragana("ヷ"))
	assert.Equal(t, "ゝ", ToHiragana("ヽ"))
	assert.Equal(t, "漢字トカナ", Reverse("漢字とかな"))
}

func TestReverse(t *testing.T) {
	assert.Equal(t, "コンニチハ、せかい", Reverse("こんにちは、セカイ"))
	assert.Equal(t, "abc漢字", Reverse("abc漢字"))
}

func TestScriptChecks(t *testing.T) {
	assert.True(t, ContainsHiragana("漢字と"))
	assert.False(t, ContainsHiragana("カタカナ"))
	assert.True(t, ContainsKana("カ"))
	assert.True(t, ContainsHan("今日"))
	assert.False(t, ContainsHan("きょう"))
	assert.True(t, IsPhonetic('ー'))
	assert.True(t, IsPhonetic('・'))
	assert.False(t, IsPhonetic('あ'))
}

func TestIsTargetLanguage_Chinese(t *testing.T) {
	zh := language.Chinese

	assert.True(t, IsTargetLanguage("你好世界", zh))
	assert.True(t, IsTargetLanguage("冒险者，欢迎！", zh))
	assert.False(t, IsTargetLanguage("こんにちは世界", zh))
	assert.False(t, IsTargetLanguage("アルテマ博士", zh))
	assert.False(t, IsTargetLanguage("", zh))
	assert.False(t, IsTargetLanguage("   ", zh))
}

func TestCanSkipTranslation(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"  ", true},
		{"A", true},
		{"AB！？", true},
		{"{0}…", true},
		{"Aは強い", false},
		{"A博士", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, CanSkipTranslation(tt.input))
		})
	}
}

func TestNoHiraganaWithHan(t *testing.T) {
	assert.True(t, NoHiraganaWithHan("オレ、強イ"))
	assert.False(t, NoHiraganaWithHan("オレ、つよい"))
	assert.False(t, NoHiraganaWithHan("オレ、ツヨイ"))
	assert.False(t, NoHiraganaWithHan(""))
}
