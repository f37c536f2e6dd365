package dialogue

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestReadWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "batch.jsonl")
	content := `{"code":"003D","name":"アルフィノ","text":"行こう、みんな！"}

{"code":"0039","name":"","text":"エーテライトを見つけた。"}
`
	require.NoError(t, os.WriteFile(in, []byte(content), 0644))

	file, err := NewReader(in).Read()
	require.NoError(t, err)
	require.Len(t, file.Lines, 2)
	assert.Equal(t, Line{Code: "003D", Name: "アルフィノ", Text: "行こう、みんな！"}, file.Lines[0])
	assert.Equal(t, language.Japanese, file.Language)

	file.Lines[0].TranslatedName = "阿尔菲诺"
	file.Lines[0].TranslatedText = "走吧，大家！"
	out := filepath.Join(dir, "batch.translated.jsonl")
	require.NoError(t, NewWriter().Write(out, file))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"translatedName":"阿尔菲诺"`)
	assert.NotContains(t, string(data), `audioText`)

	again, err := NewReader(out).Read()
	require.NoError(t, err)
	assert.Equal(t, file.Lines, again.Lines)
}

func TestReader_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewReader(filepath.Join(dir, "batch.txt")).Read()
	assert.Error(t, err)

	_, err = NewReader(filepath.Join(dir, "missing.jsonl")).Read()
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.jsonl")
	require.NoError(t, os.WriteFile(bad, []byte("{\"code\":\"003D\"}\nnot json\n"), 0644))
	_, err = NewReader(bad).Read()
	assert.ErrorContains(t, err, "line 2")
}

func TestWriter_NilFile(t *testing.T) {
	assert.Error(t, NewWriter().Write(filepath.Join(t.TempDir(), "x.jsonl"), nil))
}

func TestDetectLanguage_Empty(t *testing.T) {
	assert.Equal(t, language.Und, detectLanguage(nil))
	assert.Equal(t, language.Und, detectLanguage([]Line{{Text: " "}}))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Result{
		{Outcome: OutcomeOK},
		{Outcome: OutcomeFailed},
		{Outcome: OutcomeSkipped},
		{Outcome: OutcomeOK},
	})
	assert.Equal(t, Summary{Total: 4, OK: 2, Skipped: 1, Failed: 1}, s)
	assert.Equal(t, "skipped", OutcomeSkipped.String())
	assert.Equal(t, "unknown", Outcome(9).String())
}
