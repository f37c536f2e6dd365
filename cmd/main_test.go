package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/MimeLyc/dialogue-translator/internal/config"
	"github.com/MimeLyc/dialogue-translator/internal/dialogue"
	"github.com/MimeLyc/dialogue-translator/internal/dictionary"
	"github.com/MimeLyc/dialogue-translator/internal/lookup"
	"github.com/MimeLyc/dialogue-translator/internal/service"
	"github.com/MimeLyc/dialogue-translator/internal/session"
	"github.com/MimeLyc/dialogue-translator/internal/translator"
)

type fakeScheduler struct {
	called bool
}

func (f *fakeScheduler) Schedule(context.Context) error {
	f.called = true
	return nil
}

type fakeCron struct {
	started bool
	stopped bool
}

func (f *fakeCron) Start() {
	f.started = true
}

func (f *fakeCron) Stop() context.Context {
	f.stopped = true
	return context.Background()
}

func TestRunWithComponents_StartsAndStopsCron(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	scheduler := &fakeScheduler{}
	cronEngine := &fakeCron{}

	doneCh := make(chan error, 1)
	go func() {
		doneCh <- runWithComponents(ctx, scheduler, cronEngine)
	}()

	cancel()

	select {
	case err := <-doneCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runWithComponents did not exit after cancellation")
	}

	assert.True(t, scheduler.called)
	assert.True(t, cronEngine.started)
	assert.True(t, cronEngine.stopped)
}

func echoConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Translate: config.TranslateConfig{
			Skip:           true,
			Fix:            true,
			SourceLanguage: language.Japanese,
			TargetLanguage: language.Chinese,
			NPCChannels:    []string{"003D"},
			DictionaryDir:  filepath.Join(dir, "dictionary"),
			Engine:         config.EngineEcho,
		},
		Cache: config.CacheConfig{
			Backend: config.BackendFile,
			Dir:     filepath.Join(dir, "cache"),
			DBPath:  filepath.Join(dir, "cache", "cache.db"),
			Key:     "chTemp.json",
		},
		Service: config.ServiceConfig{
			InboxDir:    filepath.Join(dir, "inbox"),
			CronExpr:    "*/5 * * * *",
			Concurrency: 2,
		},
	}
}

func TestBuildApp_TranslatesBatch(t *testing.T) {
	cfg := echoConfig(t)
	require.NoError(t, os.MkdirAll(cfg.Translate.DictionaryDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Translate.DictionaryDir, "main.json"),
		[]byte(`[["ミンフィリア","敏菲利亚"]]`), 0o644))

	c := cron.New()
	a, err := buildApp(context.Background(), cfg, c)
	require.NoError(t, err)
	defer a.Close()
	assert.Nil(t, a.recorder)

	in := filepath.Join(cfg.Service.InboxDir, "a.jsonl")
	require.NoError(t, os.MkdirAll(cfg.Service.InboxDir, 0o755))
	require.NoError(t, os.WriteFile(in, []byte(`{"code":"003D","name":"ミンフィリア","text":"ミンフィリア"}`+"\n"), 0o644))

	report, err := a.svc.TranslateFile(context.Background(), service.BatchJob{Input: in, Output: service.OutputPath(in)})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.OK)

	f, err := dialogue.NewReader(service.OutputPath(in)).Read()
	require.NoError(t, err)
	require.Len(t, f.Lines, 1)
	assert.Equal(t, "敏菲利亚", f.Lines[0].TranslatedName)

	require.NoError(t, a.svc.Schedule(context.Background()))
	assert.Len(t, c.Entries(), 1)
}

func TestNewStore(t *testing.T) {
	dir := t.TempDir()

	store, recorder, closer, err := newStore(config.CacheConfig{Backend: config.BackendSQLite, DBPath: filepath.Join(dir, "c.db")})
	require.NoError(t, err)
	assert.NotNil(t, store)
	assert.NotNil(t, recorder)
	require.NoError(t, closer.Close())

	store, recorder, closer, err = newStore(config.CacheConfig{Backend: config.BackendFile, Dir: dir})
	require.NoError(t, err)
	assert.NotNil(t, store)
	assert.Nil(t, recorder)
	assert.Nil(t, closer)

	_, _, _, err = newStore(config.CacheConfig{Backend: "memcached"})
	assert.Error(t, err)
}

func TestDictionaryDir(t *testing.T) {
	dir := t.TempDir()

	got, err := dictionaryDir(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	_, err = dictionaryDir(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	file := filepath.Join(dir, "main.json")
	require.NoError(t, os.WriteFile(file, []byte("[]"), 0o644))
	_, err = dictionaryDir(file)
	assert.Error(t, err)

	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	chdir(t, nested)
	_, err = dictionaryDir("")
	assert.ErrorContains(t, err, "set DICTIONARY_DIR")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", dictionary.BundleFilename), []byte("main: []\n"), 0o644))
	got, err = dictionaryDir("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a"), got)
}

func TestNewTranslator(t *testing.T) {
	cfg := echoConfig(t)
	assert.IsType(t, translator.Echo{}, newTranslator(cfg))

	cfg.Translate.Engine = config.EngineOpenAI
	cfg.LLM = config.LLMConfig{APIKey: "k", APIURL: "http://127.0.0.1:1/v1", Model: "m", MaxRetries: 1}
	assert.NotNil(t, newTranslator(cfg))
}

func TestLookupReport(t *testing.T) {
	state := session.New(nil, "", lookup.Table{
		{Pattern: "ヤ・シュトラ", Replacement: "雅·修特拉"},
		{Pattern: "ヤ・シュトラ様", Replacement: "雅·修特拉大人"},
	}, nil)

	assert.Equal(t, "ヤ・シュトラ -> 雅·修特拉\n", lookupReport(state, "ヤ・シュトラ", 3))

	report := lookupReport(state, "ヤシュトラ", 1)
	assert.Contains(t, report, "ヤシュトラ is not cached, nearest entries:")
	assert.Contains(t, report, "->")

	empty := session.New(nil, "", nil, nil)
	assert.Equal(t, "x is not cached\n", lookupReport(empty, "x", 3))
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
