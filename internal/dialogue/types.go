// Package dialogue holds the dialogue line record and its JSONL batch form.
package dialogue

import (
	"golang.org/x/text/language"
)

// ErrorName is written to TranslatedName when a line is skipped or failed.
const ErrorName = "Error"

// Reader reads a batch of dialogue lines.
type Reader interface {
	Read() (*File, error)
}

// Writer writes a batch of dialogue lines.
type Writer interface {
	Write(path string, file *File) error
}

// Line is one line of game dialogue. The pipeline fills the translated
// fields in place.
type Line struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	Text           string `json:"text"`
	TranslatedName string `json:"translatedName,omitempty"`
	TranslatedText string `json:"translatedText,omitempty"`
	AudioText      string `json:"audioText,omitempty"`
}

// File is a batch of lines read from one JSONL file.
type File struct {
	Lines    []Line
	Language language.Tag
	Path     string
}

type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of processing one line.
type Result struct {
	Line    Line
	Outcome Outcome
	Err     error
}

// Summary counts outcomes of a batch.
type Summary struct {
	Total   int
	OK      int
	Skipped int
	Failed  int
}

func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Outcome {
		case OutcomeOK:
			s.OK++
		case OutcomeSkipped:
			s.Skipped++
		case OutcomeFailed:
			s.Failed++
		}
	}
	return s
}
