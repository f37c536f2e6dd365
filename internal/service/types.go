package service

import (
	"context"
	"time"

	"github.com/MimeLyc/dialogue-translator/internal/dialogue"
	"github.com/MimeLyc/dialogue-translator/internal/translator"
)

// TranslatedExt replaces the extension of a translated batch.
const TranslatedExt = ".translated.jsonl"

// Processor translates a batch of dialogue lines. *pipeline.Fixer is the
// production implementation.
type Processor interface {
	ProcessBatch(ctx context.Context, lines []dialogue.Line, opts translator.Options) []dialogue.Result
}

// BatchJob is one pending dialogue file and where its translation goes.
type BatchJob struct {
	Input  string
	Output string
}

// BatchReport describes a finished batch.
type BatchReport struct {
	Job      BatchJob
	Summary  dialogue.Summary
	Duration time.Duration
}
