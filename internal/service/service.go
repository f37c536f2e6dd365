// Package service schedules translation of dialogue batches dropped into an
// inbox directory.
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/MimeLyc/dialogue-translator/internal/config"
	"github.com/MimeLyc/dialogue-translator/internal/dialogue"
	"github.com/MimeLyc/dialogue-translator/internal/persistence"
	"github.com/MimeLyc/dialogue-translator/pkg/file"
	"github.com/MimeLyc/dialogue-translator/pkg/icron"
	"github.com/MimeLyc/dialogue-translator/pkg/log"
)

// defaultLookback bounds the first scan after start-up.
const defaultLookback = 7 * 24 * time.Hour

type transService struct {
	cfg       config.Config
	processor Processor
	recorder  persistence.BatchRecorder
	reader    func(path string) dialogue.Reader
	writer    dialogue.Writer

	mu              sync.Mutex
	lastTriggerTime time.Time

	cronExpr string
	cron     *cron.Cron
	group    singleflight.Group
}

// NewRunnableTransService wires the inbox scanner. recorder may be nil.
func NewRunnableTransService(
	cfg config.Config,
	cron *cron.Cron,
	processor Processor,
	recorder persistence.BatchRecorder,
) *transService {
	return &transService{
		cfg:       cfg,
		processor: processor,
		recorder:  recorder,
		reader:    dialogue.NewReader,
		writer:    dialogue.NewWriter(),
		cronExpr:  cfg.Service.CronExpr,
		cron:      cron,
	}
}

func (s *transService) Schedule(
	ctx context.Context,
) error {
	log.Info("Run TransService on %s with %q", s.cfg.Service.InboxDir, s.cronExpr)

	runFunc := func() {
		_, _, _ = s.group.Do("run", func() (any, error) {
			if _, err := s.RunOnce(ctx, s.cfg.Service.InboxDir); err != nil {
				log.Error("Failed to run in dir %s: %v", s.cfg.Service.InboxDir, err)
			}
			if info, err := icron.GetTriggerInfo(s.cronExpr, time.Now()); err == nil {
				log.Info("Next scan in %v", info.TimeUntilNext.Round(time.Second))
			}
			return nil, nil
		})
	}
	_, err := s.cron.AddFunc(s.cronExpr, runFunc)
	return err
}

// RunOnce translates every pending batch under dir. A failed batch is logged
// and does not stop the others.
func (s *transService) RunOnce(
	ctx context.Context,
	dir string,
) ([]BatchReport, error) {
	runStart := time.Now()

	jobs, err := s.findPendingBatches(dir)
	if err != nil {
		return nil, err
	}
	log.Info("Found %d pending batches in dir %s", len(jobs), dir)

	reports := make([]BatchReport, 0, len(jobs))
	for _, job := range jobs {
		if ctx.Err() != nil {
			return reports, ctx.Err()
		}
		report, err := s.TranslateFile(ctx, job)
		if err != nil {
			HandleError(err)
		}
		if report != nil {
			reports = append(reports, *report)
		}
	}

	s.mu.Lock()
	s.lastTriggerTime = runStart
	s.mu.Unlock()
	return reports, nil
}

// TranslateFile translates one batch and writes the result next to it. The
// report is returned even when every line failed.
func (s *transService) TranslateFile(
	ctx context.Context,
	job BatchJob,
) (*BatchReport, error) {
	start := time.Now()

	src, err := s.reader(job.Input).Read()
	if err != nil {
		return nil, NewErrorWithCause(ErrFileRead, "failed to read batch", err).
			WithContext("path", job.Input)
	}

	opts := s.cfg.TranslateOptions()
	if src.Language != opts.TargetLang {
		log.Info("Translating batch %s (%d lines) from %s to %s", job.Input, len(src.Lines), src.Language, opts.TargetLang)
	}

	results := s.processor.ProcessBatch(ctx, src.Lines, opts)
	out := &dialogue.File{
		Lines:    make([]dialogue.Line, len(results)),
		Language: opts.TargetLang,
		Path:     job.Output,
	}
	for i, r := range results {
		out.Lines[i] = r.Line
	}

	if err := s.writer.Write(job.Output, out); err != nil {
		return nil, NewErrorWithCause(ErrFileWrite, "failed to write batch", err).
			WithContext("path", job.Output)
	}

	report := &BatchReport{
		Job:      job,
		Summary:  dialogue.Summarize(results),
		Duration: time.Since(start),
	}
	log.Info("Translated batch %s: %d ok, %d skipped, %d failed in %v",
		job.Input, report.Summary.OK, report.Summary.Skipped, report.Summary.Failed, report.Duration.Round(time.Millisecond))

	s.record(ctx, report)

	if report.Summary.Total > 0 && report.Summary.Failed == report.Summary.Total {
		return report, NewError(ErrTranslation, "every line failed").WithContext("path", job.Input)
	}
	return report, nil
}

func (s *transService) record(ctx context.Context, report *BatchReport) {
	if s.recorder == nil {
		return
	}
	err := s.recorder.RecordBatch(ctx, persistence.BatchRecord{
		Path:      report.Job.Input,
		Output:    report.Job.Output,
		Lines:     report.Summary.Total,
		Failed:    report.Summary.Failed,
		Skipped:   report.Summary.Skipped,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		log.Warn("Failed to record batch %s: %v", report.Job.Input, err)
	}
}

func (s *transService) findPendingBatches(dir string) ([]BatchJob, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, NewErrorWithCause(ErrFileNotFound, fmt.Sprintf("directory %s does not exist", dir), err)
	}

	startTime, err := s.startTime()
	if err != nil {
		return nil, fmt.Errorf("failed to get start time: %w", err)
	}
	log.Debug("Start searching batches modified after: %v", startTime)

	recentFiles, err := file.FindRecentAfter(dir, startTime)
	if err != nil {
		return nil, fmt.Errorf("failed to find recent files: %w", err)
	}

	var jobs []BatchJob
	for _, path := range recentFiles {
		if !isDialogueFile(path) {
			continue
		}
		job := BatchJob{Input: path, Output: OutputPath(path)}
		if upToDate(job) {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// OutputPath is where the translation of the batch at path is written.
func OutputPath(path string) string {
	return file.ReplaceExt(path, TranslatedExt)
}

// isDialogueFile reports whether path is an untranslated JSONL batch.
func isDialogueFile(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	return strings.HasSuffix(name, ".jsonl") && !strings.HasSuffix(name, TranslatedExt)
}

// upToDate reports whether the output exists and is newer than the input.
func upToDate(job BatchJob) bool {
	in, err := os.Stat(job.Input)
	if err != nil {
		return false
	}
	out, err := os.Stat(job.Output)
	if err != nil {
		return false
	}
	return !out.ModTime().Before(in.ModTime())
}

func (s *transService) startTime() (time.Time, error) {
	s.mu.Lock()
	last := s.lastTriggerTime
	s.mu.Unlock()
	if !last.IsZero() {
		return last, nil
	}

	cronSchedule, err := icron.GetTriggerInfo(s.cronExpr, time.Now())
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get cron schedule: %w", err)
	}

	if time.Now().Add(-24 * time.Hour).Before(cronSchedule.Last) {
		return time.Now().Add(-defaultLookback), nil
	}
	return cronSchedule.Last, nil
}
