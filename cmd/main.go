package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/MimeLyc/dialogue-translator/internal/config"
	"github.com/MimeLyc/dialogue-translator/internal/dictionary"
	"github.com/MimeLyc/dialogue-translator/internal/persistence"
	"github.com/MimeLyc/dialogue-translator/internal/pipeline"
	"github.com/MimeLyc/dialogue-translator/internal/service"
	"github.com/MimeLyc/dialogue-translator/internal/session"
	"github.com/MimeLyc/dialogue-translator/internal/translator"
	"github.com/MimeLyc/dialogue-translator/pkg/log"
)

type scheduler interface {
	Schedule(ctx context.Context) error
}

type cronEngine interface {
	Start()
	Stop() context.Context
}

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup always happens.
func run() int {
	var (
		in            = flag.String("in", "", "translate this JSONL batch and exit")
		out           = flag.String("out", "", "output path for -in (default: <name>.translated.jsonl)")
		once          = flag.Bool("once", false, "scan the inbox once and exit")
		lookupName    = flag.String("lookup", "", "show the cached translation of a name, or its nearest entries")
		writeSettings = flag.Bool("write-settings", false, "write the effective runtime settings file and exit")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize configuration
	settingsPath := config.RuntimeSettingsFilePath()
	settingsOpt, err := config.LoadRuntimeSettingsOption(settingsPath)
	if err != nil {
		log.Error("Failed to load runtime settings %s: %v", settingsPath, err)
		return 1
	}
	cfg, err := config.NewFromEnv(settingsOpt)
	if err != nil {
		log.Error("Failed to load configuration: %v", err)
		return 1
	}

	closeLog, err := setupLogger(cfg.System)
	if err != nil {
		log.Error("Failed to set up logging: %v", err)
		return 1
	}
	defer closeLog()

	if *writeSettings {
		if err := config.WriteRuntimeSettingsFile(settingsPath, cfg.RuntimeSettings()); err != nil {
			log.Error("Failed to write runtime settings: %v", err)
			return 1
		}
		log.Info("Wrote runtime settings to %s", settingsPath)
		return 0
	}

	c := cron.New()
	app, err := buildApp(ctx, cfg, c)
	if err != nil {
		log.Error("Failed to start: %v", err)
		return 1
	}
	defer app.Close()

	switch {
	case *lookupName != "":
		fmt.Print(lookupReport(app.state, *lookupName, 5))
	case *in != "":
		output := *out
		if output == "" {
			output = service.OutputPath(*in)
		}
		if _, err := app.svc.TranslateFile(ctx, service.BatchJob{Input: *in, Output: output}); err != nil {
			service.HandleError(err)
			return 1
		}
	case *once:
		if _, err := app.svc.RunOnce(ctx, cfg.Service.InboxDir); err != nil {
			log.Error("Scan failed: %v", err)
			return 1
		}
	default:
		if err := runWithComponents(ctx, app.svc, c); err != nil {
			log.Error("Service stopped: %v", err)
			return 1
		}
	}
	return 0
}

// runWithComponents schedules the inbox scan and blocks until ctx is done.
func runWithComponents(ctx context.Context, s scheduler, c cronEngine) error {
	if err := s.Schedule(ctx); err != nil {
		return err
	}
	c.Start()
	log.Info("Service started")

	<-ctx.Done()
	log.Info("Shutting down")
	<-c.Stop().Done()
	return nil
}

func setupLogger(cfg config.SystemConfig) (func(), error) {
	level := log.ParseLevel(cfg.LogLevel)
	if cfg.LogFile == "" {
		log.InitLogger(level)
		return func() {}, nil
	}
	fl, err := log.NewFileLogger(cfg.LogFile, level)
	if err != nil {
		return nil, err
	}
	log.SetGlobal(fl.Logger)
	return func() { _ = fl.Close() }, nil
}

type app struct {
	state    *session.State
	fixer    *pipeline.Fixer
	recorder persistence.BatchRecorder
	svc      interface {
		scheduler
		TranslateFile(ctx context.Context, job service.BatchJob) (*service.BatchReport, error)
		RunOnce(ctx context.Context, dir string) ([]service.BatchReport, error)
	}
	closers []io.Closer
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			log.Warn("Close failed: %v", err)
		}
	}
}

func buildApp(ctx context.Context, cfg *config.Config, c *cron.Cron) (*app, error) {
	dir, err := dictionaryDir(cfg.Translate.DictionaryDir)
	if err != nil {
		return nil, err
	}
	dict, err := dictionary.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("load dictionary %s: %w", dir, err)
	}

	log.Info("Loaded dictionary from %s: %d main, %d player entries", dir, len(dict.Main), len(dict.Player))

	store, recorder, closer, err := newStore(cfg.Cache)
	if err != nil {
		return nil, err
	}
	a := &app{recorder: recorder}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	a.state = session.New(store, cfg.Cache.Key, dict.Main, dict.Player)
	if err := a.state.Load(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("load translation cache: %w", err)
	}

	a.fixer = pipeline.New(dict, a.state, newTranslator(cfg),
		pipeline.WithNPCChannels(cfg.Translate.NPCChannels...),
		pipeline.WithConcurrency(cfg.Service.Concurrency),
	)
	a.svc = service.NewRunnableTransService(*cfg, c, a.fixer, recorder)
	return a, nil
}

// dictionaryDir returns the configured dictionary directory, or the nearest
// ancestor of the working directory holding a bundle when none is set.
func dictionaryDir(configured string) (string, error) {
	if configured != "" {
		info, err := os.Stat(configured)
		if err != nil {
			return "", fmt.Errorf("dictionary directory: %w", err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("dictionary directory %s is not a directory", configured)
		}
		return configured, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	dir := dictionary.FindInAncestors(wd)
	if dir == "" {
		return "", fmt.Errorf("no %s found above %s; set DICTIONARY_DIR", dictionary.BundleFilename, wd)
	}
	return dir, nil
}

// newStore opens the configured cache backend. Only the SQLite backend keeps
// a batch history.
func newStore(cfg config.CacheConfig) (persistence.TempStore, persistence.BatchRecorder, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		store, err := persistence.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open sqlite cache: %w", err)
		}
		return store, store, store, nil
	case config.BackendRedis:
		store, err := persistence.NewRedisStore(cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open redis cache: %w", err)
		}
		return store, nil, store, nil
	case config.BackendFile, "":
		store, err := persistence.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open file cache: %w", err)
		}
		return store, nil, nil, nil
	default:
		return nil, nil, nil, errors.New("unknown cache backend " + cfg.Backend)
	}
}

func newTranslator(cfg *config.Config) translator.Translator {
	if cfg.Translate.Engine == config.EngineEcho {
		log.Warn("Using the echo translator, lines are not translated")
		return translator.Echo{}
	}
	retry := translator.DefaultRetryConfig()
	retry.MaxRetries = cfg.LLM.MaxRetries
	return translator.NewRetrying(translator.NewOpenAITranslator(translator.OpenAIConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.APIURL,
		Model:       cfg.LLM.Model,
		Temperature: float32(cfg.LLM.Temperature),
	}), retry)
}

// lookupReport prints the cached translation of name, or its nearest
// entries when it is not cached.
func lookupReport(state *session.State, name string, n int) string {
	table := state.Combined()
	if ret, ok := table.Lookup(name); ok {
		return fmt.Sprintf("%s -> %s\n", name, ret)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s is not cached", name)
	suggestions := table.Nearest(name, n)
	if len(suggestions) == 0 {
		sb.WriteString("\n")
		return sb.String()
	}
	sb.WriteString(", nearest entries:\n")
	for _, s := range suggestions {
		fmt.Fprintf(&sb, "  %.2f  %s -> %s\n", s.Score, s.Entry.Pattern, s.Entry.Replacement)
	}
	return sb.String()
}
