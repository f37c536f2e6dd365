package translator

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/text/language"

	"github.com/MimeLyc/dialogue-translator/internal/mask"
)

// Options are the per-run flags handed to every translation call.
type Options struct {
	// Skip enables the ignore list.
	Skip bool
	// Fix enables the text-fix pipeline; without it text goes to the
	// translator unchanged.
	Fix        bool
	SourceLang language.Tag
	TargetLang language.Tag
}

// Translator translates one piece of text. restore lists the placeholder
// codes present in text and what they stand for; implementations must keep
// the codes intact.
type Translator interface {
	Translate(ctx context.Context, text string, opts Options, restore mask.Table) (string, error)
}

// Error is a translation backend failure.
type Error struct {
	Message   string
	Cause     error
	Retryable bool
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("translator error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("translator error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether err is a retryable backend failure.
func IsRetryable(err error) bool {
	var trErr *Error
	if errors.As(err, &trErr) {
		return trErr.Retryable
	}
	return false
}
