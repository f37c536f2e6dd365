// Package pipeline turns dialogue lines into translated lines: it resolves
// speaker names through the translation cache and runs the text-fix
// pipeline around the external translator.
package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/MimeLyc/dialogue-translator/internal/dialogue"
	"github.com/MimeLyc/dialogue-translator/internal/dictionary"
	"github.com/MimeLyc/dialogue-translator/internal/fix"
	"github.com/MimeLyc/dialogue-translator/internal/kana"
	"github.com/MimeLyc/dialogue-translator/internal/lookup"
	"github.com/MimeLyc/dialogue-translator/internal/mask"
	"github.com/MimeLyc/dialogue-translator/internal/session"
	"github.com/MimeLyc/dialogue-translator/internal/translator"
	"github.com/MimeLyc/dialogue-translator/pkg/log"
)

// DefaultNPCChannels are the dialogue channel codes whose speaker names are
// translated. Other channels carry player names, which are kept.
var DefaultNPCChannels = []string{"003D", "0044", "2AB9"}

const defaultConcurrency = 4

// Fixer runs the name and text pipelines for dialogue lines.
type Fixer struct {
	dict        *dictionary.Dictionary
	state       *session.State
	translator  translator.Translator
	rules       []fix.Rule
	npc         map[string]bool
	concurrency int
}

type Option func(*Fixer)

// WithNPCChannels replaces the channel codes whose names are translated.
func WithNPCChannels(codes ...string) Option {
	return func(f *Fixer) {
		f.npc = make(map[string]bool, len(codes))
		for _, c := range codes {
			f.npc[strings.ToUpper(strings.TrimSpace(c))] = true
		}
	}
}

// WithRules replaces the domain rule list.
func WithRules(rules []fix.Rule) Option {
	return func(f *Fixer) {
		f.rules = rules
	}
}

// WithConcurrency bounds the number of lines ProcessBatch handles at once.
func WithConcurrency(n int) Option {
	return func(f *Fixer) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

func New(dict *dictionary.Dictionary, state *session.State, tr translator.Translator, opts ...Option) *Fixer {
	f := &Fixer{
		dict:        dict,
		state:       state,
		translator:  tr,
		rules:       dict.Rules(),
		concurrency: defaultConcurrency,
	}
	WithNPCChannels(DefaultNPCChannels...)(f)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// StartFix processes one line. Failures never escape: a failed line gets
// TranslatedName "Error" and the failure detail as TranslatedText.
func (f *Fixer) StartFix(ctx context.Context, line dialogue.Line, opts translator.Options) (res dialogue.Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic while fixing line %q: %v\n%s", line.Text, r, debug.Stack())
			res = failed(line, fmt.Errorf("panic: %v", r))
		}
	}()

	if opts.Skip && f.dict.Ignore.Match(line.Code, line.Name, line.Text) {
		log.Debug("Skip line %s %s: %s", line.Code, line.Name, line.Text)
		line.TranslatedName = dialogue.ErrorName
		line.TranslatedText = ""
		return dialogue.Result{Line: line, Outcome: dialogue.OutcomeSkipped}
	}

	name, err := f.speakerName(ctx, line, opts)
	if err != nil {
		return failed(line, fmt.Errorf("name %q: %w", line.Name, err))
	}

	text, err := f.lineText(ctx, line, opts)
	if err != nil {
		return failed(line, fmt.Errorf("text %q: %w", line.Text, err))
	}

	if f.dict.ListReverse.MatchAny(line.Name) {
		line.AudioText = kana.Reverse(line.Text)
	} else if f.AllKataCheck(line.Name, line.Text) {
		line.AudioText = kana.ToHiragana(line.Text)
	}

	line.TranslatedName = name
	line.TranslatedText = text
	return dialogue.Result{Line: line, Outcome: dialogue.OutcomeOK}
}

func failed(line dialogue.Line, err error) dialogue.Result {
	log.Error("Line %s %s failed: %v", line.Code, line.Name, err)
	line.TranslatedName = dialogue.ErrorName
	line.TranslatedText = err.Error()
	return dialogue.Result{Line: line, Outcome: dialogue.OutcomeFailed, Err: err}
}

// ProcessBatch runs StartFix for every line with bounded concurrency. One
// failed line never aborts the batch; results keep the input order.
func (f *Fixer) ProcessBatch(ctx context.Context, lines []dialogue.Line, opts translator.Options) []dialogue.Result {
	results := make([]dialogue.Result, len(lines))

	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i, line := range lines {
		i, line := i, line
		g.Go(func() error {
			results[i] = f.StartFix(ctx, line, opts)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (f *Fixer) speakerName(ctx context.Context, line dialogue.Line, opts translator.Options) (string, error) {
	switch {
	case kana.IsTargetLanguage(line.Name, opts.TargetLang):
		return f.state.Combined().Replace(line.Name), nil
	case !f.npc[line.Code]:
		return line.Name, nil
	case opts.Fix:
		return f.NameFix(ctx, line.Name, opts)
	default:
		return f.translate(ctx, line.Name, opts, nil)
	}
}

func (f *Fixer) lineText(ctx context.Context, line dialogue.Line, opts translator.Options) (string, error) {
	switch {
	case kana.IsTargetLanguage(line.Text, opts.TargetLang):
		return f.state.Combined().Replace(line.Text), nil
	case opts.Fix:
		return f.TextFix(ctx, line.Name, line.Text, opts)
	default:
		return f.translate(ctx, line.Text, opts, nil)
	}
}

func (f *Fixer) translate(ctx context.Context, text string, opts translator.Options, restore mask.Table) (string, error) {
	ret, err := f.translator.Translate(ctx, text, opts, restore)
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	return ret, nil
}

// TextFix runs the full text pipeline for one line.
func (f *Fixer) TextFix(ctx context.Context, name, text string, opts translator.Options) (string, error) {
	if text == "" {
		return "", nil
	}
	original := text
	combine := f.state.Combined()

	if e, ok := f.dict.Overwrite.Find(text); ok {
		return combine.Replace(e.Replacement), nil
	}

	text = f.dict.Subtitle.Apply(text)

	isAllKata := false
	if f.dict.ListReverse.MatchAny(name) {
		text = kana.Reverse(text)
	} else {
		isAllKata = f.AllKataCheck(name, text)
	}

	text = fix.ApplyRules(f.rules, name, text)
	text = fix.MarkFix(text, false)
	text = f.dict.JP1.Apply(text)

	text, restore := mask.Mask(text, combine)

	text = f.dict.JP2.Apply(text)
	if isAllKata {
		text = kana.ToHiragana(text)
	}

	text, values := fix.ValueFixBefore(text)

	if !kana.CanSkipTranslation(text) {
		var err error
		if text, err = f.translate(ctx, text, opts, restore); err != nil {
			return "", err
		}
	}

	text = mask.Unmask(text, restore)
	text = fix.GenderFix(original, text)
	text = f.dict.AfterTranslation.Replace(text)
	text = fix.MarkFix(text, true)
	text = fix.ValueFixAfter(text, values)
	return restoreCodes(text, restore, opts), nil
}

// NameFix resolves a speaker name through the cache, translating and
// learning it on a miss.
func (f *Fixer) NameFix(ctx context.Context, name string, opts translator.Options) (string, error) {
	if name == "" {
		return "", nil
	}
	if ret, ok := f.state.Combined().Lookup(name); ok {
		return ret, nil
	}
	return f.translateName(ctx, name, kana.KatakanaRoot(name), opts)
}

func (f *Fixer) translateName(ctx context.Context, name, root string, opts translator.Options) (string, error) {
	combine := f.state.Combined()

	rootTranslation, ok := combine.Lookup(root)
	if !ok {
		rootTranslation = f.CreateName(root)
	}

	if name == root {
		return rootTranslation, f.state.Learn(ctx, name, rootTranslation, "", "")
	}

	table := combine
	if root != "" {
		table = lookup.Combine(combine, lookup.Entry{Pattern: root, Replacement: rootTranslation})
	}

	text, restore := mask.Mask(name, table)
	if !kana.CanSkipTranslation(text) {
		var err error
		if text, err = f.translate(ctx, text, opts, restore); err != nil {
			return "", err
		}
	}
	text = mask.Unmask(text, restore)
	text = fix.MarkFix(text, true)
	text = restoreCodes(text, restore, opts)

	return text, f.state.Learn(ctx, name, text, root, rootTranslation)
}

var latinScript = language.MustParseScript("Latn")

// restoreCodes runs the leaked-code pass. Latin-script targets only get exact
// codes restored, since a lower-case code letter there is usually a word.
func restoreCodes(text string, restore mask.Table, opts translator.Options) string {
	if opts.TargetLang == language.Und {
		return mask.RestoreLeaked(text, restore)
	}
	if script, _ := opts.TargetLang.Script(); script == latinScript {
		return mask.Unmask(text, restore)
	}
	return mask.RestoreLeaked(text, restore)
}

// CreateName transliterates a katakana name: known parts through the cache,
// then the curated prefixes, then the per-mora table.
func (f *Fixer) CreateName(root string) string {
	if root == "" {
		return ""
	}
	name := f.state.Combined().Replace(root)
	for _, p := range f.dict.NamePrefixes {
		if p.Pattern != "" && strings.HasPrefix(name, p.Pattern) {
			name = p.Replacement + strings.TrimPrefix(name, p.Pattern)
		}
	}
	return f.dict.ChName.Replace(name)
}

// AllKataCheck reports whether the line is written in katakana where a
// normal line would use hiragana, either because the speaker is listed or
// because the text has ideographs but no hiragana.
func (f *Fixer) AllKataCheck(name, text string) bool {
	if f.dict.ListHira.MatchAny(name) {
		return true
	}
	return kana.NoHiraganaWithHan(text)
}
