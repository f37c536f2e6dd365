package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/MimeLyc/dialogue-translator/internal/config"
	"github.com/MimeLyc/dialogue-translator/internal/dialogue"
	"github.com/MimeLyc/dialogue-translator/internal/persistence"
	"github.com/MimeLyc/dialogue-translator/internal/translator"
)

// upperProcessor "translates" by upper-casing and fails lines whose text is "boom".
type upperProcessor struct {
	calls int
}

func (p *upperProcessor) ProcessBatch(_ context.Context, lines []dialogue.Line, _ translator.Options) []dialogue.Result {
	p.calls++
	ret := make([]dialogue.Result, len(lines))
	for i, line := range lines {
		if line.Text == "boom" {
			line.TranslatedName = dialogue.ErrorName
			line.TranslatedText = "translate: boom"
			ret[i] = dialogue.Result{Line: line, Outcome: dialogue.OutcomeFailed, Err: errors.New("boom")}
			continue
		}
		line.TranslatedName = strings.ToUpper(line.Name)
		line.TranslatedText = strings.ToUpper(line.Text)
		ret[i] = dialogue.Result{Line: line, Outcome: dialogue.OutcomeOK}
	}
	return ret
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordBatch(ctx context.Context, rec persistence.BatchRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockRecorder) LoadBatches(ctx context.Context) ([]persistence.BatchRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]persistence.BatchRecord), args.Error(1)
}

func testConfig(dir string) config.Config {
	return config.Config{
		Translate: config.TranslateConfig{
			Skip:           true,
			Fix:            true,
			SourceLanguage: language.Japanese,
			TargetLanguage: language.Chinese,
		},
		Service: config.ServiceConfig{
			InboxDir:    dir,
			CronExpr:    "*/5 * * * *",
			Concurrency: 2,
		},
	}
}

func writeBatch(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

func readOutput(t *testing.T, path string) []dialogue.Line {
	t.Helper()
	// The reader only accepts .jsonl, which the output keeps.
	f, err := dialogue.NewReader(path).Read()
	require.NoError(t, err)
	return f.Lines
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("inbox", "day1.translated.jsonl"), OutputPath(filepath.Join("inbox", "day1.jsonl")))
	assert.True(t, isDialogueFile("a/B.JSONL"))
	assert.False(t, isDialogueFile("a/b.translated.jsonl"))
	assert.False(t, isDialogueFile("a/b.json"))
}

func TestRunOnce_TranslatesPendingBatches(t *testing.T) {
	dir := t.TempDir()
	writeBatch(t, filepath.Join(dir, "day1.jsonl"),
		`{"code":"003D","name":"alphinaud","text":"hello"}`,
		`{"code":"003D","name":"alisaie","text":"boom"}`,
	)
	writeBatch(t, filepath.Join(dir, "nested", "day2.jsonl"),
		`{"code":"0044","name":"urianger","text":"greetings"}`,
	)
	writeBatch(t, filepath.Join(dir, "notes.txt"), "ignored")

	recorder := &mockRecorder{}
	recorder.On("RecordBatch", mock.Anything, mock.MatchedBy(func(rec persistence.BatchRecord) bool {
		return strings.HasSuffix(rec.Path, "day1.jsonl") && rec.Lines == 2 && rec.Failed == 1
	})).Return(nil).Once()
	recorder.On("RecordBatch", mock.Anything, mock.MatchedBy(func(rec persistence.BatchRecord) bool {
		return strings.HasSuffix(rec.Path, "day2.jsonl") && rec.Lines == 1 && rec.Failed == 0
	})).Return(errors.New("db down")).Once()

	proc := &upperProcessor{}
	svc := NewRunnableTransService(testConfig(dir), cron.New(), proc, recorder)

	reports, err := svc.RunOnce(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, 2, proc.calls)
	recorder.AssertExpectations(t)

	lines := readOutput(t, filepath.Join(dir, "day1.translated.jsonl"))
	require.Len(t, lines, 2)
	assert.Equal(t, "ALPHINAUD", lines[0].TranslatedName)
	assert.Equal(t, "HELLO", lines[0].TranslatedText)
	assert.Equal(t, dialogue.ErrorName, lines[1].TranslatedName)
	assert.Equal(t, "hello", lines[0].Text)

	lines = readOutput(t, filepath.Join(dir, "nested", "day2.translated.jsonl"))
	require.Len(t, lines, 1)
	assert.Equal(t, "GREETINGS", lines[0].TranslatedText)

	// A second scan finds nothing new.
	reports, err = svc.RunOnce(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, reports)
	assert.Equal(t, 2, proc.calls)
}

func TestRunOnce_SkipsUpToDateOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "done.jsonl")
	writeBatch(t, in, `{"code":"003D","name":"a","text":"b"}`)
	writeBatch(t, OutputPath(in), `{"code":"003D","name":"a","text":"b","translatedText":"B"}`)
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(in, past, past))

	proc := &upperProcessor{}
	svc := NewRunnableTransService(testConfig(dir), cron.New(), proc, nil)

	reports, err := svc.RunOnce(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, reports)
	assert.Zero(t, proc.calls)
}

func TestRunOnce_MissingDir(t *testing.T) {
	svc := NewRunnableTransService(testConfig(""), cron.New(), &upperProcessor{}, nil)

	_, err := svc.RunOnce(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrFileNotFound))
}

func TestTranslateFile_Errors(t *testing.T) {
	dir := t.TempDir()
	svc := NewRunnableTransService(testConfig(dir), cron.New(), &upperProcessor{}, nil)

	bad := filepath.Join(dir, "bad.jsonl")
	writeBatch(t, bad, `{"code":`)
	_, err := svc.TranslateFile(context.Background(), BatchJob{Input: bad, Output: OutputPath(bad)})
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrFileRead))
	assert.Contains(t, Advice(err), "JSONL")

	allFail := filepath.Join(dir, "fail.jsonl")
	writeBatch(t, allFail, `{"code":"003D","name":"a","text":"boom"}`)
	report, err := svc.TranslateFile(context.Background(), BatchJob{Input: allFail, Output: OutputPath(allFail)})
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrTranslation))
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Summary.Failed)
	assert.FileExists(t, OutputPath(allFail))

	ok := filepath.Join(dir, "ok.jsonl")
	writeBatch(t, ok, `{"code":"003D","name":"a","text":"b"}`)
	_, err = svc.TranslateFile(context.Background(), BatchJob{Input: ok, Output: filepath.Join(dir, "missing", "out.jsonl")})
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrFileWrite))
}

func TestSchedule(t *testing.T) {
	c := cron.New()
	svc := NewRunnableTransService(testConfig(t.TempDir()), c, &upperProcessor{}, nil)
	require.NoError(t, svc.Schedule(context.Background()))
	assert.Len(t, c.Entries(), 1)

	bad := testConfig(t.TempDir())
	bad.Service.CronExpr = "nope"
	assert.Error(t, NewRunnableTransService(bad, cron.New(), &upperProcessor{}, nil).Schedule(context.Background()))
}

func TestStartTime(t *testing.T) {
	svc := NewRunnableTransService(testConfig(t.TempDir()), cron.New(), &upperProcessor{}, nil)

	start, err := svc.startTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(-defaultLookback), start, time.Minute)

	last := time.Now().Add(-10 * time.Minute)
	svc.lastTriggerTime = last
	start, err = svc.startTime()
	require.NoError(t, err)
	assert.Equal(t, last, start)
}

func TestBatchError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewErrorWithCause(ErrFileWrite, "failed to write batch", cause).WithContext("path", "x.jsonl")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "[FileWrite] failed to write batch")
	assert.Contains(t, err.Error(), "path=x.jsonl")
	assert.True(t, HandleError(err))
	assert.False(t, HandleError(cause))
	assert.Equal(t, "Unknown", ErrUnknown.String())
}
